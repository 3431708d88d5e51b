package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/angelmondragon/storefront/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// SnapshotVersion is the envelope version written by Save. Payloads carrying
// any other version are treated as corrupt.
const SnapshotVersion = 1

type envelope struct {
	Version      int         `json:"version"`
	Revision     uint64      `json:"revision"`
	SavedAt      time.Time   `json:"saved_at"`
	LastSyncedAt *time.Time  `json:"last_synced_at,omitempty"`
	Lines        []cart.Line `json:"lines"`
}

// Store snapshots one cart under a fixed key.
type Store struct {
	kv   KV
	key  string
	logg *logger.Logger
	now  func() time.Time
}

// NewStore binds a store to key on kv.
func NewStore(kv KV, key string, logg *logger.Logger) *Store {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Store{kv: kv, key: key, logg: logg, now: time.Now}
}

// Key returns the key the snapshot lives under.
func (s *Store) Key() string {
	return s.key
}

// Load returns the stored cart, or an empty one when nothing usable is stored.
// Corrupt payloads and transport failures are logged, never returned.
func (s *Store) Load(ctx context.Context) cart.State {
	raw, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, ErrAbsent) {
		return cart.EmptyState()
	}
	logCtx := s.logg.WithField(ctx, "snapshot_key", s.key)
	if err != nil {
		s.logg.WarnErr(logCtx, "cart.snapshot_load_failed", err)
		return cart.EmptyState()
	}
	state, err := Decode(raw)
	if err != nil {
		s.logg.WarnErr(s.logg.WithFields(logCtx, pkgerrors.Dump(err).Fields()), "cart.snapshot_corrupt", err)
		return cart.EmptyState()
	}
	return state
}

// Save overwrites the stored snapshot with state.
func (s *Store) Save(ctx context.Context, state cart.State) error {
	payload, err := Encode(state, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "encode cart snapshot")
	}
	if err := s.kv.Set(ctx, s.key, payload); err != nil {
		wrapped := pkgerrors.Wrap(pkgerrors.CodePersistence, err, "write cart snapshot")
		if errors.Is(err, ErrQuotaExceeded) {
			wrapped = wrapped.WithDetails(map[string]any{"reason": "quota_exceeded", "bytes": len(payload)})
		}
		return wrapped
	}
	return nil
}

// Encode renders state as a versioned snapshot envelope.
func Encode(state cart.State, savedAt time.Time) ([]byte, error) {
	lines := state.Lines
	if lines == nil {
		lines = []cart.Line{}
	}
	return json.Marshal(envelope{
		Version:      SnapshotVersion,
		Revision:     state.Revision,
		SavedAt:      savedAt.UTC(),
		LastSyncedAt: state.LastSyncedAt,
		Lines:        lines,
	})
}

// Decode parses and validates a snapshot envelope. Line ids are recomputed from
// product and variants, so a payload written by an older key scheme still loads.
func Decode(raw []byte) (cart.State, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return cart.State{}, pkgerrors.Wrap(pkgerrors.CodeCorruptSnapshot, err, "decode cart snapshot")
	}
	if env.Version != SnapshotVersion {
		return cart.State{}, corrupt("unsupported snapshot version", map[string]any{"version": env.Version})
	}

	state := cart.State{
		Revision:     env.Revision,
		LastSyncedAt: env.LastSyncedAt,
		Lines:        make([]cart.Line, 0, len(env.Lines)),
	}
	seen := make(map[cart.LineID]struct{}, len(env.Lines))
	for i, line := range env.Lines {
		switch {
		case line.ProductID <= 0:
			return cart.State{}, corrupt("snapshot line without product", map[string]any{"index": i})
		case line.Quantity < 1:
			return cart.State{}, corrupt("snapshot line with non-positive quantity", map[string]any{"index": i, "quantity": line.Quantity})
		case line.UnitPrice.IsNegative():
			return cart.State{}, corrupt("snapshot line with negative price", map[string]any{"index": i})
		case line.StockHint != nil && *line.StockHint < 0:
			return cart.State{}, corrupt("snapshot line with negative stock hint", map[string]any{"index": i})
		}
		line.Variants = line.Variants.Canonical()
		line.ID = cart.LineIDFor(line.ProductID, line.Variants)
		if _, dup := seen[line.ID]; dup {
			return cart.State{}, corrupt("duplicate snapshot line", map[string]any{"line_id": string(line.ID)})
		}
		seen[line.ID] = struct{}{}
		state.Lines = append(state.Lines, line)
	}
	return state, nil
}

func corrupt(msg string, details map[string]any) error {
	return pkgerrors.New(pkgerrors.CodeCorruptSnapshot, msg).WithDetails(details)
}
