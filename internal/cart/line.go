package cart

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/shopspring/decimal"
)

// LineID identifies one purchasable configuration: a product plus its variant selectors.
type LineID string

// Variant is a single attribute selector such as size=m or color=red.
type Variant struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Variants is an ordered set of selectors. Canonical ordering is by name.
type Variants []Variant

// Canonical returns a trimmed copy sorted by name with lower-cased names.
// A repeated name keeps the last value supplied.
func (v Variants) Canonical() Variants {
	if len(v) == 0 {
		return nil
	}
	byName := make(map[string]string, len(v))
	for _, sel := range v {
		name := strings.ToLower(strings.TrimSpace(sel.Name))
		if name == "" {
			continue
		}
		byName[name] = strings.TrimSpace(sel.Value)
	}
	if len(byName) == 0 {
		return nil
	}
	out := make(Variants, 0, len(byName))
	for name, value := range byName {
		out = append(out, Variant{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (v Variants) clone() Variants {
	if len(v) == 0 {
		return nil
	}
	out := make(Variants, len(v))
	copy(out, v)
	return out
}

// LineIDFor derives the line key for a product configuration, e.g. "7|color=red;size=m".
func LineIDFor(productID int64, variants Variants) LineID {
	id := strconv.FormatInt(productID, 10)
	canonical := variants.Canonical()
	if len(canonical) == 0 {
		return LineID(id)
	}
	parts := make([]string, len(canonical))
	for i, sel := range canonical {
		parts[i] = sel.Name + "=" + sel.Value
	}
	return LineID(id + "|" + strings.Join(parts, ";"))
}

// Line is one priced, quantity-bearing entry in the cart.
type Line struct {
	ID        LineID          `json:"line_id"`
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Variants  Variants        `json:"variants,omitempty"`
	StockHint *int            `json:"stock_hint,omitempty"`
	AddedAt   time.Time       `json:"added_at"`
}

// Subtotal returns unit price times quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l Line) clone() Line {
	out := l
	out.Variants = l.Variants.clone()
	if l.StockHint != nil {
		hint := *l.StockHint
		out.StockHint = &hint
	}
	return out
}

// State is a read-only snapshot of the cart aggregate.
type State struct {
	Lines        []Line     `json:"lines"`
	Revision     uint64     `json:"revision"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
}

// EmptyState is the cart with no lines and no history.
func EmptyState() State {
	return State{Lines: []Line{}}
}

// IsEmpty reports whether the snapshot has no lines.
func (s State) IsEmpty() bool {
	return len(s.Lines) == 0
}

// Line looks up a line by id.
func (s State) Line(id LineID) (Line, bool) {
	for _, line := range s.Lines {
		if line.ID == id {
			return line, true
		}
	}
	return Line{}, false
}

// Totals derives the aggregates from the snapshot lines.
func (s State) Totals() Totals {
	return ComputeTotals(s.Lines)
}

// Clone returns a deep copy that shares nothing with the receiver.
func (s State) Clone() State {
	out := State{Revision: s.Revision, Lines: make([]Line, len(s.Lines))}
	for i, line := range s.Lines {
		out.Lines[i] = line.clone()
	}
	if s.LastSyncedAt != nil {
		at := *s.LastSyncedAt
		out.LastSyncedAt = &at
	}
	return out
}

// Totals are always computed from lines and never stored.
type Totals struct {
	ItemCount   int             `json:"item_count"`
	Price       decimal.Decimal `json:"price"`
	UniqueLines int             `json:"unique_lines"`
}

// ComputeTotals sums quantity and unit price times quantity over lines.
func ComputeTotals(lines []Line) Totals {
	totals := Totals{Price: decimal.Zero, UniqueLines: len(lines)}
	for _, line := range lines {
		totals.ItemCount += line.Quantity
		totals.Price = totals.Price.Add(line.Subtotal())
	}
	return totals
}

// Warning is a soft condition attached to a successful mutation.
type Warning struct {
	Type      enums.CartWarningType `json:"type"`
	LineID    LineID                `json:"line_id,omitempty"`
	Requested int                   `json:"requested,omitempty"`
	Applied   int                   `json:"applied,omitempty"`
}

// Result describes the outcome of a mutation.
type Result struct {
	Changed  bool      `json:"changed"`
	Revision uint64    `json:"revision"`
	LineID   LineID    `json:"line_id,omitempty"`
	Quantity int       `json:"quantity"`
	Warnings []Warning `json:"warnings,omitempty"`
}

// HasWarning reports whether the result carries a warning of the given type.
func (r Result) HasWarning(kind enums.CartWarningType) bool {
	for _, w := range r.Warnings {
		if w.Type == kind {
			return true
		}
	}
	return false
}
