package domain

import "time"

// Product is one item in the florist catalogue. Prices are integer pence.
type Product struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	Tags          []string  `json:"tags,omitempty"`
	Price         int64     `json:"price"`
	Currency      string    `json:"currency"`
	StockQuantity int       `json:"stock_quantity"`
	ImageURLs     []string  `json:"image_urls,omitempty"`
	Variants      []Variant `json:"variants,omitempty"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Variant is a size or arrangement option of a product, e.g. "deluxe" with
// extra stems. A variant carries its own absolute price, not a delta.
type Variant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// FindVariant returns the variant with the given ID, or nil when the product
// has no such variant. An empty variantID selects the base product price.
func (p *Product) FindVariant(variantID string) *Variant {
	for i := range p.Variants {
		if p.Variants[i].ID == variantID {
			return &p.Variants[i]
		}
	}
	return nil
}

// PriceFor resolves the unit price for a variant selection, falling back to
// the base product price when variantID is empty.
func (p *Product) PriceFor(variantID string) (int64, bool) {
	if variantID == "" {
		return p.Price, true
	}
	if v := p.FindVariant(variantID); v != nil {
		return v.Price, true
	}
	return 0, false
}

// InStock reports whether at least qty units are available.
func (p *Product) InStock(qty int) bool {
	return p.StockQuantity >= qty
}
