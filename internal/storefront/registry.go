package storefront

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/remote"
	"github.com/angelmondragon/storefront/internal/session"
	"github.com/angelmondragon/storefront/internal/storage"
	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/singleflight"
)

const localTarget = "local"

// Device bundles the per-device cart engine with its persistence and session.
type Device struct {
	ID      uuid.UUID
	Engine  *cart.Engine
	Store   *storage.Store
	Writer  *cart.Writer
	Session *session.Coordinator
	Catalog *catalog.View

	unsubscribe func()
}

// Close stops the remote mirror and drains the local writer.
func (d *Device) Close(ctx context.Context) error {
	err := d.Session.Close(ctx)
	d.unsubscribe()
	return multierr.Append(err, d.Writer.Close(ctx))
}

// Params bundles the dependencies required to build a Registry.
type Params struct {
	KV      storage.KV
	Remote  remote.Store
	JWT     config.JWTConfig
	Cart    config.CartConfig
	Catalog config.CatalogConfig
	Logger  *logger.Logger
	Metrics *metrics.SyncMetrics
	// KeyFor maps a device id to its snapshot key. Defaults to "cart:<id>".
	KeyFor func(deviceID string) string
}

// Registry lazily builds one Device per device id and keeps it for the
// lifetime of the process.
type Registry struct {
	params Params
	logg   *logger.Logger
	group  singleflight.Group

	mu      sync.Mutex
	devices map[uuid.UUID]*Device
	closed  bool
}

// NewRegistry validates params and returns an empty registry.
func NewRegistry(params Params) (*Registry, error) {
	if params.KV == nil {
		return nil, fmt.Errorf("snapshot kv is required")
	}
	if params.Remote == nil {
		return nil, fmt.Errorf("remote store is required")
	}
	if params.KeyFor == nil {
		params.KeyFor = func(deviceID string) string { return "cart:" + deviceID }
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Registry{
		params:  params,
		logg:    logg,
		devices: map[uuid.UUID]*Device{},
	}, nil
}

// Get returns the device for id, restoring its cart from the snapshot store on
// first use.
func (r *Registry) Get(ctx context.Context, id uuid.UUID) (*Device, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "device id is required")
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "registry is closed")
	}
	if d, ok := r.devices[id]; ok {
		r.mu.Unlock()
		return d, nil
	}
	r.mu.Unlock()

	v, err, _ := r.group.Do(id.String(), func() (any, error) {
		r.mu.Lock()
		if d, ok := r.devices[id]; ok {
			r.mu.Unlock()
			return d, nil
		}
		r.mu.Unlock()

		d, err := r.build(context.WithoutCancel(ctx), id)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		if r.closed {
			closeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = d.Close(closeCtx)
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "registry is closed")
		}
		r.devices[id] = d
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Device), nil
}

// Len returns the number of live devices.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.devices)
}

// Close drains every device. Errors from individual devices are combined.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	devices := make([]*Device, 0, len(r.devices))
	for _, d := range r.devices {
		devices = append(devices, d)
	}
	r.devices = map[uuid.UUID]*Device{}
	r.mu.Unlock()

	var errs error
	for _, d := range devices {
		if err := d.Close(ctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("device %s: %w", d.ID, err))
		}
	}
	return errs
}

func (r *Registry) build(ctx context.Context, id uuid.UUID) (*Device, error) {
	logCtx := r.logg.WithDeviceID(ctx, id.String())
	store := storage.NewStore(r.params.KV, r.params.KeyFor(id.String()), r.logg)
	state := store.Load(logCtx)

	engine := cart.NewEngine(
		cart.WithLogger(r.logg),
		cart.WithMetrics(r.params.Metrics),
		cart.WithMaxLineQuantity(r.params.Cart.MaxLineQuantity),
	)
	engine.Restore(state)

	writer := cart.NewWriter(localTarget, store.Save,
		cart.WithWriterLogger(r.logg),
		cart.WithWriterMetrics(r.params.Metrics),
		cart.WithWriteTimeout(r.params.Cart.PersistTimeout),
	)
	unsubscribe := engine.Subscribe(writer.Submit)

	coordinator, err := session.NewCoordinator(session.Params{
		Engine:       engine,
		Remote:       r.params.Remote,
		JWT:          r.params.JWT,
		Logger:       r.logg,
		Metrics:      r.params.Metrics,
		WriteTimeout: r.params.Cart.PersistTimeout,
	})
	if err != nil {
		unsubscribe()
		return nil, multierr.Append(err, writer.Close(ctx))
	}

	r.logg.Info(r.logg.WithFields(logCtx, map[string]any{
		"revision": state.Revision,
		"lines":    len(state.Lines),
	}), "storefront.device_restored")

	return &Device{
		ID:          id,
		Engine:      engine,
		Store:       store,
		Writer:      writer,
		Session:     coordinator,
		Catalog:     catalog.NewView(r.params.Catalog.DefaultPageSize, r.params.Catalog.MaxPageSize),
		unsubscribe: unsubscribe,
	}, nil
}
