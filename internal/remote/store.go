package remote

import (
	"context"
	"errors"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/pkg/auth"
)

// ErrNotFound is returned by FetchCart when the user has no stored cart.
var ErrNotFound = errors.New("remote: cart not found")

// Store is the eventually-connected source of truth. Callers treat every
// failure as non-fatal.
type Store interface {
	FetchCart(ctx context.Context, identity auth.Identity) (cart.State, error)
	PersistCart(ctx context.Context, identity auth.Identity, state cart.State) error
	FetchProducts(ctx context.Context, filter catalog.Filter) ([]catalog.Product, error)
}
