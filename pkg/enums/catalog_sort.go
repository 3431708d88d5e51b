package enums

import (
	"fmt"
	"strings"
)

// CatalogSortKey names the product attribute a catalog view is ordered by.
type CatalogSortKey string

const (
	CatalogSortKeyID            CatalogSortKey = "id"
	CatalogSortKeyName          CatalogSortKey = "name"
	CatalogSortKeyPrice         CatalogSortKey = "price"
	CatalogSortKeyRating        CatalogSortKey = "rating"
	CatalogSortKeyCreatedAt     CatalogSortKey = "created_at"
	CatalogSortKeyStockQuantity CatalogSortKey = "stock_quantity"
)

var validCatalogSortKeys = []CatalogSortKey{
	CatalogSortKeyID,
	CatalogSortKeyName,
	CatalogSortKeyPrice,
	CatalogSortKeyRating,
	CatalogSortKeyCreatedAt,
	CatalogSortKeyStockQuantity,
}

// String implements fmt.Stringer.
func (k CatalogSortKey) String() string {
	return string(k)
}

// IsValid reports whether the value is a known CatalogSortKey.
func (k CatalogSortKey) IsValid() bool {
	for _, candidate := range validCatalogSortKeys {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseCatalogSortKey converts raw input into a CatalogSortKey. Matching is case-insensitive.
func ParseCatalogSortKey(value string) (CatalogSortKey, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validCatalogSortKeys {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid catalog sort key %q", value)
}

// SortDirection orders a catalog view ascending or descending.
type SortDirection string

const (
	SortDirectionAsc  SortDirection = "asc"
	SortDirectionDesc SortDirection = "desc"
)

// String implements fmt.Stringer.
func (d SortDirection) String() string {
	return string(d)
}

// IsValid reports whether the value is a known SortDirection.
func (d SortDirection) IsValid() bool {
	return d == SortDirectionAsc || d == SortDirectionDesc
}

// ParseSortDirection converts raw input into a SortDirection. Matching is case-insensitive.
func ParseSortDirection(value string) (SortDirection, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(SortDirectionAsc):
		return SortDirectionAsc, nil
	case string(SortDirectionDesc):
		return SortDirectionDesc, nil
	}
	return "", fmt.Errorf("invalid sort direction %q", value)
}
