package domain

import (
	"sort"
	"time"
)

// Dashboard periods.
const (
	PeriodToday  = "today"
	Period7Days  = "7days"
	Period30Days = "30days"
	PeriodMonth  = "month"
	PeriodYear   = "year"
)

// Dashboard metrics.
const (
	MetricRevenue = "revenue"
	MetricCount   = "count"
)

// DefaultLowStockThreshold marks products that need reordering.
const DefaultLowStockThreshold = 20

// IsValidPeriod reports whether p is a supported dashboard period.
func IsValidPeriod(p string) bool {
	switch p {
	case PeriodToday, Period7Days, Period30Days, PeriodMonth, PeriodYear:
		return true
	}
	return false
}

// IsValidMetric reports whether m is a supported dashboard metric.
func IsValidMetric(m string) bool {
	return m == MetricRevenue || m == MetricCount
}

// PeriodComparison holds one dashboard stat against the preceding period of
// equal length.
type PeriodComparison struct {
	Period        string  `json:"period"`
	Metric        string  `json:"metric"`
	Current       int64   `json:"current"`
	Previous      int64   `json:"previous"`
	ChangePercent float64 `json:"change_percent"`
}

// RevenueBucket is one point of a revenue series. Empty buckets carry zero
// rather than being omitted, so charts always cover the full period.
type RevenueBucket struct {
	Start   time.Time `json:"start"`
	Revenue int64     `json:"revenue"`
	Orders  int       `json:"orders"`
}

// ProductSales is one row of the top-products report.
type ProductSales struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitsSold int    `json:"units_sold"`
	Revenue   int64  `json:"revenue"`
}

// PeriodRange returns the half-open [start, end) windows for the current and
// previous instance of the named period, anchored at now.
func PeriodRange(period string, now time.Time) (curStart, curEnd, prevStart, prevEnd time.Time) {
	day := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
	switch period {
	case PeriodToday:
		curStart = day(now)
		curEnd = now
		prevStart = curStart.AddDate(0, 0, -1)
		prevEnd = curStart
	case Period7Days:
		curEnd = now
		curStart = now.AddDate(0, 0, -7)
		prevEnd = curStart
		prevStart = now.AddDate(0, 0, -14)
	case Period30Days:
		curEnd = now
		curStart = now.AddDate(0, 0, -30)
		prevEnd = curStart
		prevStart = now.AddDate(0, 0, -60)
	case PeriodMonth:
		curStart = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		curEnd = now
		prevStart = curStart.AddDate(0, -1, 0)
		prevEnd = curStart
	case PeriodYear:
		curStart = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		curEnd = now
		prevStart = curStart.AddDate(-1, 0, 0)
		prevEnd = curStart
	default:
		curStart, curEnd = now, now
		prevStart, prevEnd = now, now
	}
	return curStart, curEnd, prevStart, prevEnd
}

// countsTowardRevenue excludes cancelled orders from every report.
func countsTowardRevenue(o *Order) bool {
	return o.Status != OrderStatusCancelled
}

func inWindow(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

// ComparePeriods computes one dashboard stat for the named period against
// the immediately preceding period of equal length. When the previous period
// is zero the change is reported as 100% if the current period has any
// activity, otherwise 0%.
func ComparePeriods(orders []Order, period, metric string, now time.Time) PeriodComparison {
	curStart, curEnd, prevStart, prevEnd := PeriodRange(period, now)

	var cur, prev int64
	for i := range orders {
		o := &orders[i]
		if !countsTowardRevenue(o) {
			continue
		}
		var value int64 = 1
		if metric == MetricRevenue {
			value = o.Total
		}
		switch {
		case inWindow(o.CreatedAt, curStart, curEnd):
			cur += value
		case inWindow(o.CreatedAt, prevStart, prevEnd):
			prev += value
		}
	}

	var change float64
	switch {
	case prev > 0:
		change = float64(cur-prev) / float64(prev) * 100
	case cur > 0:
		change = 100
	}
	return PeriodComparison{
		Period:        period,
		Metric:        metric,
		Current:       cur,
		Previous:      prev,
		ChangePercent: change,
	}
}

// RevenueSeries buckets order revenue over the named period. Daily buckets
// for today through month, monthly buckets for year. Buckets are contiguous
// from the period start and empty buckets carry zero.
func RevenueSeries(orders []Order, period string, now time.Time) []RevenueBucket {
	curStart, curEnd, _, _ := PeriodRange(period, now)

	monthly := period == PeriodYear
	var starts []time.Time
	for t := curStart; t.Before(curEnd); {
		starts = append(starts, t)
		if monthly {
			t = t.AddDate(0, 1, 0)
		} else {
			t = t.AddDate(0, 0, 1)
		}
	}
	if len(starts) == 0 {
		starts = []time.Time{curStart}
	}

	buckets := make([]RevenueBucket, len(starts))
	for i, s := range starts {
		buckets[i] = RevenueBucket{Start: s}
	}
	for i := range orders {
		o := &orders[i]
		if !countsTowardRevenue(o) || !inWindow(o.CreatedAt, curStart, curEnd) {
			continue
		}
		idx := sort.Search(len(starts), func(j int) bool {
			return starts[j].After(o.CreatedAt)
		}) - 1
		if idx < 0 {
			continue
		}
		buckets[idx].Revenue += o.Total
		buckets[idx].Orders++
	}
	return buckets
}

// TopProducts aggregates line items across non-cancelled orders and returns
// the top n products by revenue. Ties break by name for a stable order.
func TopProducts(orders []Order, n int) []ProductSales {
	byProduct := make(map[string]*ProductSales)
	for i := range orders {
		o := &orders[i]
		if !countsTowardRevenue(o) {
			continue
		}
		for _, item := range o.Items {
			ps, ok := byProduct[item.ProductID]
			if !ok {
				ps = &ProductSales{ProductID: item.ProductID, Name: item.Name}
				byProduct[item.ProductID] = ps
			}
			ps.UnitsSold += item.Quantity
			ps.Revenue += item.LineTotal()
		}
	}

	out := make([]ProductSales, 0, len(byProduct))
	for _, ps := range byProduct {
		out = append(out, *ps)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].Name < out[j].Name
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// LowStock returns active products at or below the threshold, lowest stock
// first. A non-positive threshold falls back to the default.
func LowStock(products []Product, threshold int) []Product {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	var out []Product
	for _, p := range products {
		if p.IsActive && p.StockQuantity <= threshold {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StockQuantity != out[j].StockQuantity {
			return out[i].StockQuantity < out[j].StockQuantity
		}
		return out[i].Name < out[j].Name
	})
	return out
}
