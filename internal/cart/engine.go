package cart

import (
	"context"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/shopspring/decimal"
)

// DefaultMaxLineQuantity caps a single line regardless of stock.
const DefaultMaxLineQuantity = 999

const (
	opAddLine     = "add_line"
	opSetQuantity = "set_quantity"
	opRemoveLine  = "remove_line"
	opClear       = "clear"
	opMerge       = "merge"
)

// Listener receives the state produced by a successful mutation.
type Listener func(State)

// AddLineInput captures a request to add a product configuration to the cart.
type AddLineInput struct {
	ProductID int64
	Quantity  int
	Variants  Variants
	UnitPrice decimal.Decimal
	StockHint *int
	Name      string
}

// MergeTicket marks the start of an asynchronous merge. A Clear issued after
// the ticket was taken supersedes the merge.
type MergeTicket struct {
	clearEpoch uint64
}

// Option customises an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logg *logger.Logger) Option {
	return func(e *Engine) {
		if logg != nil {
			e.logg = logg
		}
	}
}

// WithMetrics records mutations on the supplied recorder.
func WithMetrics(m *metrics.SyncMetrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock overrides the time source used for AddedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithMaxLineQuantity overrides DefaultMaxLineQuantity. Non-positive values are ignored.
func WithMaxLineQuantity(max int) Option {
	return func(e *Engine) {
		if max > 0 {
			e.maxLineQty = max
		}
	}
}

// Engine is the sole mutator of a cart. Every successful state transition
// bumps the revision by one and fires exactly one notification.
type Engine struct {
	mu           sync.Mutex
	order        []LineID
	lines        map[LineID]*Line
	revision     uint64
	lastSyncedAt *time.Time
	clearEpoch   uint64

	listeners      map[uint64]Listener
	listenerOrder  []uint64
	nextListenerID uint64

	maxLineQty int
	now        func() time.Time
	logg       *logger.Logger
	metrics    *metrics.SyncMetrics
}

// NewEngine builds an empty engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		lines:      map[LineID]*Line{},
		listeners:  map[uint64]Listener{},
		maxLineQty: DefaultMaxLineQuantity,
		now:        time.Now,
		logg:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Restore loads a previously persisted state. It is not a mutation: no
// notification fires and the revision only moves forward.
func (e *Engine) Restore(s State) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.order = e.order[:0]
	e.lines = map[LineID]*Line{}
	for _, line := range s.Lines {
		if line.Quantity < 1 {
			continue
		}
		line = line.clone()
		line.ID = LineIDFor(line.ProductID, line.Variants)
		if existing, ok := e.lines[line.ID]; ok {
			existing.Quantity += line.Quantity
			continue
		}
		e.order = append(e.order, line.ID)
		e.lines[line.ID] = &line
	}
	if s.Revision > e.revision {
		e.revision = s.Revision
	}
	e.lastSyncedAt = nil
	if s.LastSyncedAt != nil {
		at := *s.LastSyncedAt
		e.lastSyncedAt = &at
	}
}

// AddLine adds quantity to the line for the product configuration, creating it
// if needed. The unit price of an existing line is never changed.
func (e *Engine) AddLine(ctx context.Context, input AddLineInput) (Result, error) {
	if err := validateAdd(input); err != nil {
		return Result{}, err
	}
	variants := input.Variants.Canonical()
	id := LineIDFor(input.ProductID, variants)

	e.mu.Lock()
	existing, ok := e.lines[id]
	if ok {
		hint := tighterHint(existing.StockHint, input.StockHint)
		applied, warnings := e.clamp(id, existing.Quantity+input.Quantity, hint)
		if applied < 1 {
			e.removeLocked(id)
			return e.commit(ctx, opAddLine, id, 0, warnings), nil
		}
		if applied == existing.Quantity {
			existing.StockHint = hint
			res := e.unchangedLocked(id, applied, warnings)
			e.mu.Unlock()
			return res, nil
		}
		existing.StockHint = hint
		existing.Quantity = applied
		return e.commit(ctx, opAddLine, id, applied, warnings), nil
	}

	hint := copyHint(input.StockHint)
	applied, warnings := e.clamp(id, input.Quantity, hint)
	if applied < 1 {
		res := e.unchangedLocked(id, 0, warnings)
		e.mu.Unlock()
		return res, nil
	}
	line := &Line{
		ID:        id,
		ProductID: input.ProductID,
		Name:      input.Name,
		UnitPrice: input.UnitPrice,
		Quantity:  applied,
		Variants:  variants,
		StockHint: hint,
		AddedAt:   e.now().UTC(),
	}
	e.order = append(e.order, id)
	e.lines[id] = line
	return e.commit(ctx, opAddLine, id, applied, warnings), nil
}

// SetQuantity replaces a line's quantity. A quantity of zero or less removes the
// line exactly like RemoveLine does.
func (e *Engine) SetQuantity(ctx context.Context, id LineID, quantity int) (Result, error) {
	if quantity <= 0 {
		return e.RemoveLine(ctx, id)
	}

	e.mu.Lock()
	line, ok := e.lines[id]
	if !ok {
		e.mu.Unlock()
		return Result{}, pkgerrors.New(pkgerrors.CodeLineNotFound, "cart line not found").
			WithDetails(map[string]any{"line_id": string(id)})
	}
	applied, warnings := e.clamp(id, quantity, line.StockHint)
	if applied < 1 {
		e.removeLocked(id)
		return e.commit(ctx, opSetQuantity, id, 0, warnings), nil
	}
	if applied == line.Quantity {
		res := e.unchangedLocked(id, applied, warnings)
		e.mu.Unlock()
		return res, nil
	}
	line.Quantity = applied
	return e.commit(ctx, opSetQuantity, id, applied, warnings), nil
}

// RemoveLine deletes a line. Removing an absent line succeeds without a
// state change.
func (e *Engine) RemoveLine(ctx context.Context, id LineID) (Result, error) {
	e.mu.Lock()
	if _, ok := e.lines[id]; !ok {
		res := e.unchangedLocked(id, 0, nil)
		e.mu.Unlock()
		return res, nil
	}
	e.removeLocked(id)
	return e.commit(ctx, opRemoveLine, id, 0, nil), nil
}

// Clear empties the cart and supersedes any merge that is still in flight.
// It always counts as a transition so pending writes of older revisions are dropped.
func (e *Engine) Clear(ctx context.Context) (Result, error) {
	e.mu.Lock()
	e.order = nil
	e.lines = map[LineID]*Line{}
	e.clearEpoch++
	return e.commit(ctx, opClear, "", 0, nil), nil
}

// BeginMerge records the start of a merge whose foreign state is still being fetched.
func (e *Engine) BeginMerge() MergeTicket {
	e.mu.Lock()
	defer e.mu.Unlock()
	return MergeTicket{clearEpoch: e.clearEpoch}
}

// CompleteMerge applies other unless a Clear happened after the ticket was taken.
func (e *Engine) CompleteMerge(ctx context.Context, ticket MergeTicket, other State) (Result, error) {
	e.mu.Lock()
	if ticket.clearEpoch != e.clearEpoch {
		res := e.unchangedLocked("", 0, []Warning{{Type: enums.CartWarningTypeMergeSuperseded}})
		e.mu.Unlock()
		e.logg.Info(ctx, "cart.merge_superseded_by_clear")
		return res, nil
	}
	return e.mergeLocked(ctx, other), nil
}

// MergeFrom folds other into the cart. Matching lines add quantities; unmatched
// foreign lines are appended in their original order. Each call adds again.
func (e *Engine) MergeFrom(ctx context.Context, other State) (Result, error) {
	e.mu.Lock()
	return e.mergeLocked(ctx, other), nil
}

// mergeLocked must be called with e.mu held; it releases the lock.
func (e *Engine) mergeLocked(ctx context.Context, other State) Result {
	var warnings []Warning
	changed := false
	for _, foreign := range other.Lines {
		id := LineIDFor(foreign.ProductID, foreign.Variants)
		if foreign.Quantity < 1 || foreign.ProductID <= 0 || foreign.UnitPrice.IsNegative() {
			warnings = append(warnings, Warning{Type: enums.CartWarningTypeLineSkipped, LineID: id, Requested: foreign.Quantity})
			continue
		}
		if local, ok := e.lines[id]; ok {
			hint := tighterHint(local.StockHint, foreign.StockHint)
			applied, clampWarnings := e.clamp(id, local.Quantity+foreign.Quantity, hint)
			warnings = append(warnings, clampWarnings...)
			if applied < 1 {
				e.removeLocked(id)
				changed = true
				continue
			}
			local.StockHint = hint
			if applied != local.Quantity {
				local.Quantity = applied
				changed = true
			}
			continue
		}
		line := foreign.clone()
		line.ID = id
		line.Variants = line.Variants.Canonical()
		applied, clampWarnings := e.clamp(id, line.Quantity, line.StockHint)
		warnings = append(warnings, clampWarnings...)
		if applied < 1 {
			continue
		}
		line.Quantity = applied
		if line.AddedAt.IsZero() {
			line.AddedAt = e.now().UTC()
		}
		e.order = append(e.order, id)
		e.lines[id] = &line
		changed = true
	}
	if !changed {
		res := e.unchangedLocked("", 0, warnings)
		e.mu.Unlock()
		return res
	}
	return e.commit(ctx, opMerge, "", 0, warnings)
}

// Totals computes the aggregates from the current lines on every call.
func (e *Engine) Totals() Totals {
	e.mu.Lock()
	defer e.mu.Unlock()
	totals := Totals{Price: decimal.Zero, UniqueLines: len(e.order)}
	for _, id := range e.order {
		line := e.lines[id]
		totals.ItemCount += line.Quantity
		totals.Price = totals.Price.Add(line.Subtotal())
	}
	return totals
}

// Snapshot returns a deep copy of the current state.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Revision returns the current revision.
func (e *Engine) Revision() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.revision
}

// MarkSynced records that the remote mirror acknowledged revision. Acks for
// revisions that are no longer current are ignored.
func (e *Engine) MarkSynced(revision uint64, at time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if revision != e.revision {
		return false
	}
	at = at.UTC()
	e.lastSyncedAt = &at
	return true
}

// Subscribe registers a listener called after every successful transition.
// The returned function unsubscribes and is safe to call more than once.
func (e *Engine) Subscribe(listener Listener) func() {
	if listener == nil {
		return func() {}
	}
	e.mu.Lock()
	e.nextListenerID++
	id := e.nextListenerID
	e.listeners[id] = listener
	e.listenerOrder = append(e.listenerOrder, id)
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			delete(e.listeners, id)
			for i, candidate := range e.listenerOrder {
				if candidate == id {
					e.listenerOrder = append(e.listenerOrder[:i], e.listenerOrder[i+1:]...)
					break
				}
			}
		})
	}
}

// commit must be called with e.mu held; it bumps the revision, releases the
// lock and notifies listeners outside of it.
func (e *Engine) commit(ctx context.Context, op string, id LineID, quantity int, warnings []Warning) Result {
	e.revision++
	snapshot := e.snapshotLocked()
	listeners := make([]Listener, 0, len(e.listenerOrder))
	for _, lid := range e.listenerOrder {
		listeners = append(listeners, e.listeners[lid])
	}
	res := Result{
		Changed:  true,
		Revision: e.revision,
		LineID:   id,
		Quantity: quantity,
		Warnings: warnings,
	}
	e.mu.Unlock()

	e.metrics.IncMutation(op)
	if len(warnings) > 0 {
		e.logg.Info(e.logg.WithFields(ctx, map[string]any{
			"op":       op,
			"line_id":  string(id),
			"warnings": len(warnings),
			"revision": res.Revision,
		}), "cart.mutation_clamped")
	}
	for _, listener := range listeners {
		listener(snapshot.Clone())
	}
	return res
}

func (e *Engine) unchangedLocked(id LineID, quantity int, warnings []Warning) Result {
	return Result{
		Revision: e.revision,
		LineID:   id,
		Quantity: quantity,
		Warnings: warnings,
	}
}

func (e *Engine) removeLocked(id LineID) {
	delete(e.lines, id)
	for i, candidate := range e.order {
		if candidate == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			return
		}
	}
}

func (e *Engine) snapshotLocked() State {
	s := State{Revision: e.revision, Lines: make([]Line, 0, len(e.order))}
	for _, id := range e.order {
		s.Lines = append(s.Lines, e.lines[id].clone())
	}
	if e.lastSyncedAt != nil {
		at := *e.lastSyncedAt
		s.LastSyncedAt = &at
	}
	return s
}

// clamp bounds requested by the stock hint and the per-line cap.
func (e *Engine) clamp(id LineID, requested int, hint *int) (int, []Warning) {
	applied := requested
	var warnings []Warning
	if hint != nil && applied > *hint {
		applied = *hint
		warnings = append(warnings, Warning{
			Type:      enums.CartWarningTypeStockExceeded,
			LineID:    id,
			Requested: requested,
			Applied:   applied,
		})
	}
	if e.maxLineQty > 0 && applied > e.maxLineQty {
		applied = e.maxLineQty
		warnings = append(warnings, Warning{
			Type:      enums.CartWarningTypeQuantityCapped,
			LineID:    id,
			Requested: requested,
			Applied:   applied,
		})
	}
	return applied, warnings
}

func validateAdd(input AddLineInput) error {
	if input.ProductID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must be at least 1").
			WithDetails(map[string]any{"quantity": input.Quantity})
	}
	if input.UnitPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}
	if input.StockHint != nil && *input.StockHint < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock hint cannot be negative")
	}
	return nil
}

func tighterHint(current, incoming *int) *int {
	switch {
	case incoming == nil:
		return copyHint(current)
	case current == nil || *incoming < *current:
		return copyHint(incoming)
	default:
		return copyHint(current)
	}
}

func copyHint(hint *int) *int {
	if hint == nil {
		return nil
	}
	v := *hint
	return &v
}
