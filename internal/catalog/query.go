package catalog

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/pagination"
	"github.com/shopspring/decimal"
)

// Query describes the visible slice of a catalog. Nil filters are unset.
// Page is zero-indexed.
type Query struct {
	Term         string               `json:"term,omitempty"`
	CategoryID   *int64               `json:"category_id,omitempty"`
	CategoryName string               `json:"category,omitempty"`
	MinPrice     *decimal.Decimal     `json:"min_price,omitempty"`
	MaxPrice     *decimal.Decimal     `json:"max_price,omitempty"`
	InStock      *bool                `json:"in_stock,omitempty"`
	Sort         enums.CatalogSortKey `json:"sort"`
	Direction    enums.SortDirection  `json:"order"`
	Page         int                  `json:"page"`
	PageSize     int                  `json:"page_size"`
}

// DefaultQuery lists newest products first.
func DefaultQuery() Query {
	return Query{
		Sort:      enums.CatalogSortKeyCreatedAt,
		Direction: enums.SortDirectionDesc,
		PageSize:  pagination.DefaultLimit,
	}
}

// Normalize fills defaults and clamps paging. Unset sort falls back to
// created_at desc.
func (q Query) Normalize(defaultSize, maxSize int) Query {
	q.Term = strings.TrimSpace(q.Term)
	q.CategoryName = strings.TrimSpace(q.CategoryName)
	if q.Sort == "" {
		q.Sort = enums.CatalogSortKeyCreatedAt
		if q.Direction == "" {
			q.Direction = enums.SortDirectionDesc
		}
	}
	if q.Direction == "" {
		q.Direction = enums.SortDirectionAsc
	}
	q.Page = pagination.NormalizePage(q.Page)
	q.PageSize = pagination.NormalizeLimitWith(q.PageSize, defaultSize, maxSize)
	return q
}

// Validate rejects queries that can never match consistently.
func (q Query) Validate() error {
	if q.Sort != "" && !q.Sort.IsValid() {
		return invalidParam("sort", string(q.Sort))
	}
	if q.Direction != "" && !q.Direction.IsValid() {
		return invalidParam("order", string(q.Direction))
	}
	if q.MinPrice != nil && q.MinPrice.IsNegative() {
		return invalidParam("min_price", q.MinPrice.String())
	}
	if q.MinPrice != nil && q.MaxPrice != nil && q.MinPrice.GreaterThan(*q.MaxPrice) {
		return pkgerrors.New(pkgerrors.CodeValidation, "min_price cannot exceed max_price").
			WithDetails(map[string]any{"min_price": q.MinPrice.String(), "max_price": q.MaxPrice.String()})
	}
	return nil
}

// ParseQuery reads a Query from URL parameters:
// q (or search), category_id, category, min_price, max_price, in_stock,
// sort (or sort_by), order (or sort_order), page, page_size (or per_page).
func ParseQuery(values url.Values) (Query, error) {
	q := Query{
		Term:         first(values, "q", "search"),
		CategoryName: values.Get("category"),
	}
	if raw := values.Get("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return Query{}, invalidParam("category_id", raw)
		}
		q.CategoryID = &id
	}
	var err error
	if q.MinPrice, err = parseDecimal(values, "min_price"); err != nil {
		return Query{}, err
	}
	if q.MaxPrice, err = parseDecimal(values, "max_price"); err != nil {
		return Query{}, err
	}
	if raw := values.Get("in_stock"); raw != "" {
		inStock, err := strconv.ParseBool(raw)
		if err != nil {
			return Query{}, invalidParam("in_stock", raw)
		}
		q.InStock = &inStock
	}
	if raw := first(values, "sort", "sort_by"); raw != "" {
		key, err := enums.ParseCatalogSortKey(raw)
		if err != nil {
			return Query{}, invalidParam("sort", raw)
		}
		q.Sort = key
	}
	if raw := first(values, "order", "sort_order"); raw != "" {
		dir, err := enums.ParseSortDirection(raw)
		if err != nil {
			return Query{}, invalidParam("order", raw)
		}
		q.Direction = dir
	}
	if q.Page, err = parseInt(values, "page"); err != nil {
		return Query{}, err
	}
	if raw := first(values, "page_size", "per_page"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return Query{}, invalidParam("page_size", raw)
		}
		q.PageSize = size
	}
	if err := q.Validate(); err != nil {
		return Query{}, err
	}
	return q, nil
}

func first(values url.Values, keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(values.Get(key)); v != "" {
			return v
		}
	}
	return ""
}

func parseDecimal(values url.Values, key string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, invalidParam(key, raw)
	}
	return &d, nil
}

func parseInt(values url.Values, key string) (int, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidParam(key, raw)
	}
	return v, nil
}

func invalidParam(name, value string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid query parameter").
		WithDetails(map[string]any{"param": name, "value": value})
}
