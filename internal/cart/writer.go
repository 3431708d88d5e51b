package cart

import (
	"context"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
)

const defaultWriteTimeout = 3 * time.Second

// SaveFunc persists one snapshot.
type SaveFunc func(ctx context.Context, s State) error

// WriterOption customises a Writer.
type WriterOption func(*Writer)

// WithWriterLogger sets the writer logger.
func WithWriterLogger(logg *logger.Logger) WriterOption {
	return func(w *Writer) {
		if logg != nil {
			w.logg = logg
		}
	}
}

// WithWriterMetrics records write outcomes on m.
func WithWriterMetrics(m *metrics.SyncMetrics) WriterOption {
	return func(w *Writer) { w.metrics = m }
}

// WithWriteTimeout bounds a single save call.
func WithWriteTimeout(d time.Duration) WriterOption {
	return func(w *Writer) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// WithOnSaved registers a callback invoked after each successful save.
func WithOnSaved(fn func(State)) WriterOption {
	return func(w *Writer) { w.onSaved = fn }
}

// Writer persists snapshots on a single background goroutine. Only the newest
// pending snapshot is kept; snapshots older than one already queued or written
// are dropped so the store never moves backwards. Failures are logged and
// counted, never returned to the mutator.
type Writer struct {
	target  string
	save    SaveFunc
	timeout time.Duration
	logg    *logger.Logger
	metrics *metrics.SyncMetrics
	onSaved func(State)

	mu         sync.Mutex
	pending    *State
	accepted   bool
	lastQueued uint64
	written    uint64
	lastErr    error
	idle       bool
	idleCh     chan struct{}
	closed     bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

// NewWriter starts a writer for target (e.g. "local" or "remote").
func NewWriter(target string, save SaveFunc, opts ...WriterOption) *Writer {
	idleCh := make(chan struct{})
	close(idleCh)
	w := &Writer{
		target:  target,
		save:    save,
		timeout: defaultWriteTimeout,
		logg:    logger.Nop(),
		idle:    true,
		idleCh:  idleCh,
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	go w.run()
	return w
}

// Submit queues s for persistence. It never blocks on I/O and matches the
// Listener signature so it can be passed to Engine.Subscribe.
func (w *Writer) Submit(s State) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.logg.Warn(w.logContext(s.Revision), "cart.snapshot_submit_after_close")
		return
	}
	if w.accepted && s.Revision <= w.lastQueued {
		w.mu.Unlock()
		w.metrics.IncStaleDiscard(w.target)
		return
	}
	if w.pending != nil {
		w.metrics.IncStaleDiscard(w.target)
	}
	snapshot := s.Clone()
	w.pending = &snapshot
	w.accepted = true
	w.lastQueued = s.Revision
	if w.idle {
		w.idle = false
		w.idleCh = make(chan struct{})
	}
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Flush waits until every submitted snapshot has been written or dropped.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	ch := w.idleCh
	w.mu.Unlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the pending snapshot and stops the goroutine.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.stop)
	}
	w.mu.Unlock()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LastError returns the error of the most recent write, nil after a success.
func (w *Writer) LastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// LastWritten returns the revision of the newest snapshot saved successfully.
func (w *Writer) LastWritten() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

func (w *Writer) run() {
	defer close(w.done)
	for {
		select {
		case <-w.wake:
			w.drain()
		case <-w.stop:
			w.drain()
			return
		}
	}
}

func (w *Writer) drain() {
	for {
		w.mu.Lock()
		next := w.pending
		w.pending = nil
		if next == nil {
			if !w.idle {
				w.idle = true
				close(w.idleCh)
			}
			w.mu.Unlock()
			return
		}
		w.mu.Unlock()
		w.write(*next)
	}
}

func (w *Writer) write(s State) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	start := time.Now()
	err := w.save(ctx, s)
	w.metrics.ObserveWrite(w.target, time.Since(start))

	w.mu.Lock()
	w.lastErr = err
	if err == nil && s.Revision > w.written {
		w.written = s.Revision
	}
	w.mu.Unlock()

	if err != nil {
		w.metrics.IncWriteFailure(w.target)
		w.logg.WarnErr(w.logContext(s.Revision), "cart.snapshot_write_failed", err)
		return
	}
	if w.onSaved != nil {
		w.onSaved(s)
	}
}

func (w *Writer) logContext(revision uint64) context.Context {
	return w.logg.WithFields(context.Background(), map[string]any{
		"target":   w.target,
		"revision": revision,
	})
}
