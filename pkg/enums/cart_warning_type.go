package enums

import "fmt"

// CartWarningType enumerates the soft conditions reported alongside a successful cart mutation.
type CartWarningType string

const (
	CartWarningTypeStockExceeded   CartWarningType = "stock_exceeded"
	CartWarningTypeQuantityCapped  CartWarningType = "quantity_capped"
	CartWarningTypeMergeSuperseded CartWarningType = "merge_superseded"
	CartWarningTypeLineSkipped     CartWarningType = "line_skipped"
)

var validCartWarningTypes = []CartWarningType{
	CartWarningTypeStockExceeded,
	CartWarningTypeQuantityCapped,
	CartWarningTypeMergeSuperseded,
	CartWarningTypeLineSkipped,
}

// String implements fmt.Stringer.
func (c CartWarningType) String() string {
	return string(c)
}

// IsValid reports whether the value is known.
func (c CartWarningType) IsValid() bool {
	for _, candidate := range validCartWarningTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCartWarningType converts raw input into a CartWarningType.
func ParseCartWarningType(value string) (CartWarningType, error) {
	for _, candidate := range validCartWarningTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cart warning type %q", value)
}
