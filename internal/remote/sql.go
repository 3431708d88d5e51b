package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/pkg/auth"
	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLStore implements Store on the relational schema in pkg/migrate/migrations.
type SQLStore struct {
	client *db.Client
}

// NewSQLStore wraps client.
func NewSQLStore(client *db.Client) *SQLStore {
	return &SQLStore{client: client}
}

// AutoMigrate creates the schema from the models. Used for sqlite, where the
// goose migrations do not apply.
func (s *SQLStore) AutoMigrate(ctx context.Context) error {
	return s.client.DB().WithContext(ctx).AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.Cart{},
		&models.CartLine{},
	)
}

// FetchCart loads the user's stored cart with lines in insertion order.
func (s *SQLStore) FetchCart(ctx context.Context, identity auth.Identity) (cart.State, error) {
	if identity.IsZero() {
		return cart.State{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "identity is required")
	}
	var row models.Cart
	err := s.client.DB().WithContext(ctx).
		Preload("Lines", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
		Where("user_id = ?", identity.UserID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return cart.State{}, ErrNotFound
	}
	if err != nil {
		return cart.State{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch remote cart")
	}
	return stateFromRow(row), nil
}

// PersistCart replaces the user's stored lines with state. Last write wins.
func (s *SQLStore) PersistCart(ctx context.Context, identity auth.Identity, state cart.State) error {
	if identity.IsZero() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "identity is required")
	}
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		var row models.Cart
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", identity.UserID).
			First(&row).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			row = models.Cart{ID: uuid.New(), UserID: identity.UserID, Revision: int64(state.Revision)}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("create cart: %w", err)
			}
		case err != nil:
			return fmt.Errorf("lock cart: %w", err)
		default:
			if err := tx.Model(&row).Update("revision", int64(state.Revision)).Error; err != nil {
				return fmt.Errorf("update cart revision: %w", err)
			}
		}

		if err := tx.Where("cart_id = ?", row.ID).Delete(&models.CartLine{}).Error; err != nil {
			return fmt.Errorf("delete cart lines: %w", err)
		}
		lines := linesToRows(row.ID, state.Lines)
		if len(lines) == 0 {
			return nil
		}
		if err := tx.Create(&lines).Error; err != nil {
			return fmt.Errorf("insert cart lines: %w", err)
		}
		return nil
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "concurrent remote cart creation")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist remote cart")
	}
	return nil
}

// FetchProducts returns active products matching the coarse filter, ordered by id.
func (s *SQLStore) FetchProducts(ctx context.Context, filter catalog.Filter) ([]catalog.Product, error) {
	q := s.client.DB().WithContext(ctx).
		Preload("Category").
		Where("is_active = ?", true)
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.InStockOnly {
		q = q.Where("stock_quantity > 0")
	}
	var rows []models.Product
	if err := q.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch products")
	}
	out := make([]catalog.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, productFromRow(row))
	}
	return out, nil
}
