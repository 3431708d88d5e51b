package catalog

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product is an immutable catalog record. The base set is always replaced wholesale.
type Product struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	Price           decimal.Decimal `json:"price"`
	CategoryID      int64           `json:"category_id,omitempty"`
	CategoryName    string          `json:"category_name,omitempty"`
	Rating          float64         `json:"rating"`
	StockQuantity   int             `json:"stock_quantity"`
	ImageURL        string          `json:"image_url,omitempty"`
	Featured        bool            `json:"featured"`
	DiscountPercent int             `json:"discount_percent,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// InStock reports whether any units are available.
func (p Product) InStock() bool {
	return p.StockQuantity > 0
}

// Category summarises one category present in a base set.
type Category struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	ProductCount int    `json:"product_count"`
}

// Categories lists the categories referenced by base, ordered by name then id.
// Products without a category are not counted.
func Categories(base []Product) []Category {
	byID := map[int64]*Category{}
	for _, p := range base {
		if p.CategoryID == 0 {
			continue
		}
		c, ok := byID[p.CategoryID]
		if !ok {
			c = &Category{ID: p.CategoryID, Name: p.CategoryName}
			byID[p.CategoryID] = c
		}
		c.ProductCount++
	}
	out := make([]Category, 0, len(byID))
	for _, c := range byID {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a != b {
			return a < b
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Find returns the product with id from base.
func Find(base []Product, id int64) (Product, bool) {
	for _, p := range base {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}
