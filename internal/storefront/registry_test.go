package storefront

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/remote"
	"github.com/angelmondragon/storefront/internal/storage"
	"github.com/angelmondragon/storefront/pkg/auth"
	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emptyRemote struct{}

func (emptyRemote) FetchCart(context.Context, auth.Identity) (cart.State, error) {
	return cart.State{}, remote.ErrNotFound
}

func (emptyRemote) PersistCart(context.Context, auth.Identity, cart.State) error { return nil }

func (emptyRemote) FetchProducts(context.Context, catalog.Filter) ([]catalog.Product, error) {
	return nil, nil
}

type failingSetKV struct {
	storage.KV
}

func (failingSetKV) Set(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func newRegistry(t *testing.T, kv storage.KV) *Registry {
	t.Helper()
	r, err := NewRegistry(Params{
		KV:      kv,
		Remote:  emptyRemote{},
		JWT:     config.JWTConfig{Secret: "secret", Issuer: "storefront", ExpirationMinutes: 5},
		Cart:    config.CartConfig{MaxLineQuantity: 10, PersistTimeout: time.Second},
		Catalog: config.CatalogConfig{DefaultPageSize: 20, MaxPageSize: 100},
	})
	require.NoError(t, err)
	return r
}

func TestRegistryReturnsOneDevicePerID(t *testing.T) {
	r := newRegistry(t, storage.NewMemoryKV(0))
	ctx := context.Background()
	id := uuid.New()

	var wg sync.WaitGroup
	devices := make([]*Device, 8)
	for i := range devices {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, err := r.Get(ctx, id)
			assert.NoError(t, err)
			devices[i] = d
		}(i)
	}
	wg.Wait()
	for _, d := range devices[1:] {
		assert.Same(t, devices[0], d)
	}

	other, err := r.Get(ctx, uuid.New())
	require.NoError(t, err)
	assert.NotSame(t, devices[0], other)
	assert.Equal(t, 2, r.Len())
	require.NoError(t, r.Close(ctx))
}

func TestRegistryRestoresPersistedCart(t *testing.T) {
	kv := storage.NewMemoryKV(0)
	ctx := context.Background()
	id := uuid.New()

	first := newRegistry(t, kv)
	d, err := first.Get(ctx, id)
	require.NoError(t, err)
	_, err = d.Engine.AddLine(ctx, cart.AddLineInput{ProductID: 7, Quantity: 25, UnitPrice: decimal.RequireFromString("10.00")})
	require.NoError(t, err)
	assert.Equal(t, 10, d.Engine.Totals().ItemCount, "max line quantity comes from config")
	require.NoError(t, first.Close(ctx))

	second := newRegistry(t, kv)
	restored, err := second.Get(ctx, id)
	require.NoError(t, err)
	totals := restored.Engine.Totals()
	assert.Equal(t, 10, totals.ItemCount)
	assert.True(t, totals.Price.Equal(decimal.RequireFromString("100")))
	assert.Equal(t, uint64(1), restored.Engine.Revision())
	require.NoError(t, second.Close(ctx))
}

func TestRegistryPersistenceFailureIsIsolated(t *testing.T) {
	r := newRegistry(t, failingSetKV{KV: storage.NewMemoryKV(0)})
	ctx := context.Background()

	d, err := r.Get(ctx, uuid.New())
	require.NoError(t, err)
	_, err = d.Engine.AddLine(ctx, cart.AddLineInput{ProductID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(2)})
	require.NoError(t, err)
	require.NoError(t, d.Writer.Flush(ctx))
	assert.True(t, pkgerrors.HasCode(d.Writer.LastError(), pkgerrors.CodePersistence))
	assert.Equal(t, 1, d.Engine.Totals().ItemCount)
	require.NoError(t, r.Close(ctx))
}

func TestRegistryRejectsNilAndClosed(t *testing.T) {
	r := newRegistry(t, storage.NewMemoryKV(0))
	ctx := context.Background()

	_, err := r.Get(ctx, uuid.Nil)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	require.NoError(t, r.Close(ctx))
	_, err = r.Get(ctx, uuid.New())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
}

func TestNewRegistryValidatesParams(t *testing.T) {
	_, err := NewRegistry(Params{Remote: emptyRemote{}})
	assert.Error(t, err)
	_, err = NewRegistry(Params{KV: storage.NewMemoryKV(0)})
	assert.Error(t, err)
}
