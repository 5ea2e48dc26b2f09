package domain

// Default delivery pricing in pence.
const (
	DefaultDeliveryFee       int64 = 499
	DefaultFreeDeliveryLimit int64 = 5000
)

// DeliveryZone is a flat-fee delivery area with its own free-delivery
// threshold. A zero FreeDeliveryThreshold disables free delivery for the
// zone entirely.
type DeliveryZone struct {
	Code                  string `json:"code"`
	Name                  string `json:"name"`
	FlatFee               int64  `json:"flat_fee"`
	FreeDeliveryThreshold int64  `json:"free_delivery_threshold"`
	SameDay               bool   `json:"same_day"`
}

// DefaultZone is local delivery with the standard fee and threshold.
func DefaultZone() DeliveryZone {
	return DeliveryZone{
		Code:                  "local",
		Name:                  "Local delivery",
		FlatFee:               DefaultDeliveryFee,
		FreeDeliveryThreshold: DefaultFreeDeliveryLimit,
		SameDay:               true,
	}
}

// DefaultZones is the built-in zone table used when no overrides are
// configured.
func DefaultZones() []DeliveryZone {
	return []DeliveryZone{
		DefaultZone(),
		{Code: "regional", Name: "Regional delivery", FlatFee: 799, FreeDeliveryThreshold: 7500},
		{Code: "national", Name: "National courier", FlatFee: 1299},
	}
}

// ZonePolicy resolves delivery zones by code.
type ZonePolicy struct {
	zones map[string]DeliveryZone
}

// NewZonePolicy builds a policy from the given zones. An empty slice falls
// back to the default table.
func NewZonePolicy(zones []DeliveryZone) *ZonePolicy {
	if len(zones) == 0 {
		zones = DefaultZones()
	}
	m := make(map[string]DeliveryZone, len(zones))
	for _, z := range zones {
		m[z.Code] = z
	}
	return &ZonePolicy{zones: m}
}

// Lookup returns the zone for code. An empty or unknown code resolves to the
// default local zone so checkout never fails on zone selection.
func (p *ZonePolicy) Lookup(code string) DeliveryZone {
	if z, ok := p.zones[code]; ok {
		return z
	}
	return DefaultZone()
}

// Zones returns all configured zones.
func (p *ZonePolicy) Zones() []DeliveryZone {
	out := make([]DeliveryZone, 0, len(p.zones))
	for _, z := range p.zones {
		out = append(out, z)
	}
	return out
}

// Quote is the full price breakdown for an order, all amounts in pence.
type Quote struct {
	Subtotal    int64 `json:"subtotal"`
	DeliveryFee int64 `json:"delivery_fee"`
	Discount    int64 `json:"discount"`
	Total       int64 `json:"total"`
}

// ComputeTotal is the single authority for order totals. The delivery fee is
// the zone's flat fee, waived when the subtotal reaches the zone's
// free-delivery threshold or when freeDelivery is set (free-delivery coupon).
// The discount is capped at the subtotal and the total never goes negative.
func ComputeTotal(subtotal int64, zone DeliveryZone, discount int64, freeDelivery bool) Quote {
	if subtotal < 0 {
		subtotal = 0
	}
	fee := zone.FlatFee
	if freeDelivery {
		fee = 0
	} else if zone.FreeDeliveryThreshold > 0 && subtotal >= zone.FreeDeliveryThreshold {
		fee = 0
	}
	if discount < 0 {
		discount = 0
	}
	if discount > subtotal {
		discount = subtotal
	}
	total := subtotal + fee - discount
	if total < 0 {
		total = 0
	}
	return Quote{
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Discount:    discount,
		Total:       total,
	}
}
