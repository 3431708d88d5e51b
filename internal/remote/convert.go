package remote

import (
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/google/uuid"
)

func stateFromRow(row models.Cart) cart.State {
	state := cart.State{
		Revision: uint64(max(row.Revision, 0)),
		Lines:    make([]cart.Line, 0, len(row.Lines)),
	}
	if !row.UpdatedAt.IsZero() {
		at := row.UpdatedAt.UTC()
		state.LastSyncedAt = &at
	}
	for _, l := range row.Lines {
		variants := make(cart.Variants, 0, len(l.Variants))
		for _, v := range l.Variants {
			variants = append(variants, cart.Variant{Name: v.Name, Value: v.Value})
		}
		variants = variants.Canonical()
		state.Lines = append(state.Lines, cart.Line{
			ID:        cart.LineIDFor(l.ProductID, variants),
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			Variants:  variants,
			StockHint: l.StockHint,
			AddedAt:   l.AddedAt.UTC(),
		})
	}
	return state
}

func linesToRows(cartID uuid.UUID, lines []cart.Line) []models.CartLine {
	out := make([]models.CartLine, 0, len(lines))
	for i, l := range lines {
		var variants []models.LineVariant
		for _, v := range l.Variants {
			variants = append(variants, models.LineVariant{Name: v.Name, Value: v.Value})
		}
		out = append(out, models.CartLine{
			ID:        uuid.New(),
			CartID:    cartID,
			LineKey:   string(l.ID),
			Position:  i,
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			Variants:  variants,
			StockHint: l.StockHint,
			AddedAt:   l.AddedAt,
		})
	}
	return out
}

func productFromRow(row models.Product) catalog.Product {
	p := catalog.Product{
		ID:              row.ID,
		Name:            row.Name,
		Price:           row.Price,
		Rating:          row.Rating,
		StockQuantity:   row.StockQuantity,
		Featured:        row.IsFeatured,
		DiscountPercent: row.DiscountPercent,
		CreatedAt:       row.CreatedAt.UTC(),
	}
	if row.Description != nil {
		p.Description = *row.Description
	}
	if row.ImageURL != nil {
		p.ImageURL = *row.ImageURL
	}
	if row.CategoryID != nil {
		p.CategoryID = *row.CategoryID
	}
	if row.Category != nil {
		p.CategoryName = row.Category.Name
	}
	return p
}
