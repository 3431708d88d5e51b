package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/remote"
	"github.com/angelmondragon/storefront/pkg/auth"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
)

const mirrorTarget = "remote"

// Status is the externally visible session state.
type Status struct {
	State        enums.SessionState `json:"state"`
	UserID       string             `json:"user_id,omitempty"`
	Email        string             `json:"email,omitempty"`
	LastSyncedAt *time.Time         `json:"last_synced_at,omitempty"`
}

// LoginResult reports how the remote cart was folded into the device cart.
type LoginResult struct {
	Identity auth.Identity
	Merge    cart.Result
	// RemoteAvailable is false when the remote cart could not be fetched.
	RemoteAvailable bool
}

// Params bundles the dependencies required to build a Coordinator.
type Params struct {
	Engine       *cart.Engine
	Remote       remote.Store
	JWT          config.JWTConfig
	Logger       *logger.Logger
	Metrics      *metrics.SyncMetrics
	WriteTimeout time.Duration
}

// Coordinator drives the anonymous/authenticated cycle of one device session.
// While authenticated every engine transition is mirrored to the remote store.
type Coordinator struct {
	engine       *cart.Engine
	remote       remote.Store
	jwt          config.JWTConfig
	logg         *logger.Logger
	metrics      *metrics.SyncMetrics
	writeTimeout time.Duration
	now          func() time.Time

	mu          sync.Mutex
	state       enums.SessionState
	loggingIn   bool
	identity    auth.Identity
	mirror      *cart.Writer
	unsubscribe func()
}

// NewCoordinator returns an anonymous coordinator for params.Engine.
func NewCoordinator(params Params) (*Coordinator, error) {
	if params.Engine == nil {
		return nil, fmt.Errorf("cart engine is required")
	}
	if params.Remote == nil {
		return nil, fmt.Errorf("remote store is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Coordinator{
		engine:       params.Engine,
		remote:       params.Remote,
		jwt:          params.JWT,
		logg:         logg,
		metrics:      params.Metrics,
		writeTimeout: params.WriteTimeout,
		now:          time.Now,
		state:        enums.SessionStateAnonymous,
	}, nil
}

// Login authenticates credential, merges the user's remote cart into the
// device cart and starts mirroring. A remote fetch failure does not fail the
// login; the device cart is simply kept as is.
func (c *Coordinator) Login(ctx context.Context, credential string) (LoginResult, error) {
	c.mu.Lock()
	if c.state != enums.SessionStateAnonymous {
		c.mu.Unlock()
		return LoginResult{}, pkgerrors.New(pkgerrors.CodeStateConflict, "session is already authenticated")
	}
	if c.loggingIn {
		c.mu.Unlock()
		return LoginResult{}, pkgerrors.New(pkgerrors.CodeStateConflict, "login already in progress")
	}
	identity, err := auth.IdentityFromToken(c.jwt, credential)
	if err != nil {
		c.mu.Unlock()
		return LoginResult{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid credential")
	}
	c.loggingIn = true
	c.mu.Unlock()

	result, err := c.fetchAndMerge(ctx, identity)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loggingIn = false
	if err != nil {
		return LoginResult{}, err
	}
	c.state = enums.SessionStateAuthenticated
	c.identity = identity
	c.startMirrorLocked(identity)
	c.logg.Info(c.logg.WithField(c.logg.WithUserID(ctx, identity.UserID.String()), "revision", c.engine.Revision()), "session.login")
	return result, nil
}

// fetchAndMerge folds the user's remote cart into the device cart. It runs
// without c.mu so status reads are not blocked on the network.
func (c *Coordinator) fetchAndMerge(ctx context.Context, identity auth.Identity) (LoginResult, error) {
	logCtx := c.logg.WithUserID(ctx, identity.UserID.String())
	ticket := c.engine.BeginMerge()
	result := LoginResult{Identity: identity, RemoteAvailable: true}
	remoteState, err := c.remote.FetchCart(ctx, identity)
	switch {
	case errors.Is(err, remote.ErrNotFound):
		result.Merge = cart.Result{Revision: c.engine.Revision()}
	case err != nil:
		c.logg.WarnErr(c.logg.WithFields(logCtx, pkgerrors.Dump(err).Fields()), "session.remote_fetch_failed", err)
		result.RemoteAvailable = false
		result.Merge = cart.Result{Revision: c.engine.Revision()}
	default:
		merged, err := c.engine.CompleteMerge(logCtx, ticket, remoteState)
		if err != nil {
			return LoginResult{}, err
		}
		result.Merge = merged
	}
	return result, nil
}

// Logout stops the remote mirror and returns to anonymous. The device cart is kept.
func (c *Coordinator) Logout(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != enums.SessionStateAuthenticated {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "session is not authenticated")
	}
	logCtx := c.logg.WithUserID(ctx, c.identity.UserID.String())
	if err := c.stopMirrorLocked(ctx); err != nil {
		c.logg.WarnErr(logCtx, "session.mirror_flush_incomplete", err)
	}
	c.state = enums.SessionStateAnonymous
	c.identity = auth.Identity{}
	c.logg.Info(logCtx, "session.logout")
	return nil
}

// Flush waits for the remote mirror to catch up. It is a no-op when anonymous.
func (c *Coordinator) Flush(ctx context.Context) error {
	c.mu.Lock()
	mirror := c.mirror
	c.mu.Unlock()
	if mirror == nil {
		return nil
	}
	return mirror.Flush(ctx)
}

// Close stops the remote mirror without changing the session state.
func (c *Coordinator) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopMirrorLocked(ctx)
}

// State returns the current session state.
func (c *Coordinator) State() enums.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Identity returns the authenticated identity, zero when anonymous.
func (c *Coordinator) Identity() auth.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// Status summarises the session for clients.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	status := Status{State: c.state}
	if !c.identity.IsZero() {
		status.UserID = c.identity.UserID.String()
		status.Email = c.identity.Email
	}
	c.mu.Unlock()
	status.LastSyncedAt = c.engine.Snapshot().LastSyncedAt
	return status
}

func (c *Coordinator) startMirrorLocked(identity auth.Identity) {
	save := func(ctx context.Context, s cart.State) error {
		return c.remote.PersistCart(ctx, identity, s)
	}
	mirror := cart.NewWriter(mirrorTarget, save,
		cart.WithWriterLogger(c.logg),
		cart.WithWriterMetrics(c.metrics),
		cart.WithWriteTimeout(c.writeTimeout),
		cart.WithOnSaved(func(s cart.State) {
			c.engine.MarkSynced(s.Revision, c.now())
		}),
	)
	// subscribe before taking the snapshot so no transition falls in between
	c.unsubscribe = c.engine.Subscribe(mirror.Submit)
	c.mirror = mirror
	mirror.Submit(c.engine.Snapshot())
}

func (c *Coordinator) stopMirrorLocked(ctx context.Context) error {
	if c.mirror == nil {
		return nil
	}
	c.unsubscribe()
	err := c.mirror.Close(ctx)
	c.mirror = nil
	c.unsubscribe = nil
	return err
}
