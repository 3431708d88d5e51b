package catalog

import (
	"sort"
	"strings"
	"sync"

	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/pagination"
)

// Page is the visible slice of a base set under a query.
type Page struct {
	Items []Product       `json:"items"`
	Query Query           `json:"query"`
	Meta  pagination.Meta `json:"meta"`
}

// Apply filters, sorts and paginates base without modifying it. The result
// depends only on its inputs. Callers normalise q first; a non-positive page
// size yields an empty page.
func Apply(base []Product, q Query) Page {
	categoryID := resolveCategory(base, q.CategoryName)
	matched := make([]Product, 0, len(base))
	for _, p := range base {
		if matches(p, q, categoryID) {
			matched = append(matched, p)
		}
	}
	sortProducts(matched, q.Sort, q.Direction)

	window := pagination.WindowFor(q.Page, q.PageSize, len(matched))
	items := make([]Product, window.End-window.Start)
	copy(items, matched[window.Start:window.End])
	return Page{
		Items: items,
		Query: q,
		Meta:  pagination.BuildMeta(q.Page, q.PageSize, len(matched)),
	}
}

// resolveCategory picks the lowest category id whose name contains name.
// No match leaves the category name unfiltered.
func resolveCategory(base []Product, name string) *int64 {
	if name == "" {
		return nil
	}
	needle := strings.ToLower(name)
	var found *int64
	for _, p := range base {
		if p.CategoryID == 0 || !strings.Contains(strings.ToLower(p.CategoryName), needle) {
			continue
		}
		if found == nil || p.CategoryID < *found {
			id := p.CategoryID
			found = &id
		}
	}
	return found
}

func matches(p Product, q Query, categoryID *int64) bool {
	if q.Term != "" {
		term := strings.ToLower(q.Term)
		if !strings.Contains(strings.ToLower(p.Name), term) &&
			!strings.Contains(strings.ToLower(p.Description), term) {
			return false
		}
	}
	if q.CategoryID != nil && p.CategoryID != *q.CategoryID {
		return false
	}
	if categoryID != nil && p.CategoryID != *categoryID {
		return false
	}
	if q.MinPrice != nil && p.Price.LessThan(*q.MinPrice) {
		return false
	}
	if q.MaxPrice != nil && p.Price.GreaterThan(*q.MaxPrice) {
		return false
	}
	if q.InStock != nil && p.InStock() != *q.InStock {
		return false
	}
	return true
}

// sortProducts orders by key; equal keys always fall back to ascending id.
func sortProducts(products []Product, key enums.CatalogSortKey, dir enums.SortDirection) {
	desc := dir == enums.SortDirectionDesc
	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i], products[j]
		c := compare(a, b, key)
		if c == 0 {
			return a.ID < b.ID
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compare(a, b Product, key enums.CatalogSortKey) int {
	switch key {
	case enums.CatalogSortKeyName:
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case enums.CatalogSortKeyPrice:
		return a.Price.Cmp(b.Price)
	case enums.CatalogSortKeyRating:
		return cmpOrdered(a.Rating, b.Rating)
	case enums.CatalogSortKeyCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case enums.CatalogSortKeyStockQuantity:
		return cmpOrdered(a.StockQuantity, b.StockQuantity)
	default:
		return cmpOrdered(a.ID, b.ID)
	}
}

func cmpOrdered[T int | int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// View holds a base set and a query and keeps the derived page current.
type View struct {
	mu          sync.RWMutex
	base        []Product
	query       Query
	page        Page
	defaultSize int
	maxSize     int
}

// NewView returns an empty view using the supplied page size bounds.
func NewView(defaultSize, maxSize int) *View {
	v := &View{defaultSize: defaultSize, maxSize: maxSize}
	v.query = DefaultQuery().Normalize(defaultSize, maxSize)
	v.page = Apply(nil, v.query)
	return v
}

// SetBase replaces the base set and recomputes.
func (v *View) SetBase(base []Product) Page {
	copied := make([]Product, len(base))
	copy(copied, base)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.base = copied
	v.page = Apply(v.base, v.query)
	return v.page
}

// SetQuery replaces the query and recomputes.
func (v *View) SetQuery(q Query) Page {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.query = q.Normalize(v.defaultSize, v.maxSize)
	v.page = Apply(v.base, v.query)
	return v.page
}

// Result returns the current page.
func (v *View) Result() Page {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.page
}

// Query returns the current normalised query.
func (v *View) Query() Query {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.query
}
