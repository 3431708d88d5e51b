package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// ProductLookup resolves catalog records for cart pricing.
type ProductLookup interface {
	Product(ctx context.Context, id int64) (catalog.Product, error)
}

// CartFetch returns the device cart.
func CartFetch(devices DeviceProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		device, err := deviceFromRequest(r, devices)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(device.Engine.Snapshot()))
	}
}

// CartSummary returns only the derived totals, for badges and headers.
func CartSummary(devices DeviceProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		device, err := deviceFromRequest(r, devices)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snapshot := device.Engine.Snapshot()
		responses.WriteSuccess(w, cartSummaryResponse{
			Totals:   snapshot.Totals(),
			Revision: snapshot.Revision,
		})
	}
}

// CartAddLine adds a product to the device cart. When a catalog is wired the
// catalog price and name are authoritative and the stock hint is capped at
// the catalog stock.
func CartAddLine(devices DeviceProvider, products ProductLookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		device, err := deviceFromRequest(r, devices)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(r.Context(), products)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := device.Engine.AddLine(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newMutationResponse(result, device.Engine.Snapshot()))
	}
}

// CartSetQuantity sets the quantity of one line; zero or less removes it.
func CartSetQuantity(devices DeviceProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		device, err := deviceFromRequest(r, devices)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := device.Engine.SetQuantity(r.Context(), lineIDParam(r), *payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newMutationResponse(result, device.Engine.Snapshot()))
	}
}

// CartRemoveLine removes one line. Removing an absent line succeeds unchanged.
func CartRemoveLine(devices DeviceProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		device, err := deviceFromRequest(r, devices)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := device.Engine.RemoveLine(r.Context(), lineIDParam(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newMutationResponse(result, device.Engine.Snapshot()))
	}
}

// CartClear empties the device cart.
func CartClear(devices DeviceProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		device, err := deviceFromRequest(r, devices)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := device.Engine.Clear(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newMutationResponse(result, device.Engine.Snapshot()))
	}
}

func lineIDParam(r *http.Request) cart.LineID {
	return cart.LineID(strings.TrimSpace(chi.URLParam(r, "lineID")))
}

type variantPayload struct {
	Name  string `json:"name" validate:"required,max=64"`
	Value string `json:"value" validate:"required,max=128"`
}

type addLineRequest struct {
	ProductID int64            `json:"product_id" validate:"gt=0"`
	Quantity  int              `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
	Variants  []variantPayload `json:"variants" validate:"max=16,dive"`
	StockHint *int             `json:"stock_hint" validate:"omitempty,gte=0"`
	Name      string           `json:"name" validate:"max=255"`
}

func (p addLineRequest) toInput(ctx context.Context, products ProductLookup) (cart.AddLineInput, error) {
	input := cart.AddLineInput{
		ProductID: p.ProductID,
		Quantity:  p.Quantity,
		StockHint: p.StockHint,
		Name:      validators.SanitizeString(p.Name, 255),
	}
	for _, v := range p.Variants {
		input.Variants = append(input.Variants, cart.Variant{Name: v.Name, Value: v.Value})
	}

	if products == nil {
		if p.UnitPrice == nil {
			return cart.AddLineInput{}, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
				WithDetails(map[string]string{"unit_price": "is required"})
		}
		input.UnitPrice = *p.UnitPrice
		return input, nil
	}

	product, err := products.Product(ctx, p.ProductID)
	if err != nil {
		return cart.AddLineInput{}, err
	}
	input.UnitPrice = product.Price
	input.Name = product.Name
	stock := product.StockQuantity
	if input.StockHint == nil || *input.StockHint > stock {
		input.StockHint = &stock
	}
	return input, nil
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type lineResponse struct {
	LineID    cart.LineID     `json:"line_id"`
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Variants  cart.Variants   `json:"variants,omitempty"`
	StockHint *int            `json:"stock_hint,omitempty"`
	AddedAt   time.Time       `json:"added_at"`
}

type cartResponse struct {
	Lines        []lineResponse `json:"lines"`
	Totals       cart.Totals    `json:"totals"`
	Revision     uint64         `json:"revision"`
	LastSyncedAt *time.Time     `json:"last_synced_at,omitempty"`
}

type cartSummaryResponse struct {
	Totals   cart.Totals `json:"totals"`
	Revision uint64      `json:"revision"`
}

type mutationResponse struct {
	Result cart.Result  `json:"result"`
	Cart   cartResponse `json:"cart"`
}

func newCartResponse(state cart.State) cartResponse {
	lines := make([]lineResponse, 0, len(state.Lines))
	for _, l := range state.Lines {
		lines = append(lines, lineResponse{
			LineID:    l.ID,
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			Subtotal:  l.Subtotal(),
			Variants:  l.Variants,
			StockHint: l.StockHint,
			AddedAt:   l.AddedAt,
		})
	}
	return cartResponse{
		Lines:        lines,
		Totals:       state.Totals(),
		Revision:     state.Revision,
		LastSyncedAt: state.LastSyncedAt,
	}
}

func newMutationResponse(result cart.Result, state cart.State) mutationResponse {
	return mutationResponse{Result: result, Cart: newCartResponse(state)}
}
