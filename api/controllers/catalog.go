package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/pagination"
)

// CatalogSource serves the cached product base set.
type CatalogSource interface {
	ProductLookup
	Products(ctx context.Context) ([]catalog.Product, error)
}

// CatalogProducts lists one page of products for the device's catalog view.
func CatalogProducts(devices DeviceProvider, source CatalogSource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query, err := catalog.ParseQuery(r.URL.Query())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		device, err := deviceFromRequest(r, devices)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		base, err := source.Products(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		device.Catalog.SetBase(base)
		page := device.Catalog.SetQuery(query)
		responses.WriteSuccessMeta(w, page.Items, catalogMeta{Meta: page.Meta, Query: page.Query})
	}
}

// CatalogProduct returns one product by id.
func CatalogProduct(source CatalogSource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
		if err != nil || id <= 0 {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "product id must be a positive integer").WithDetails(map[string]any{"field": "productID"}))
			return
		}
		product, err := source.Product(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// CatalogCategories lists the categories present in the catalog with product counts.
func CatalogCategories(source CatalogSource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		base, err := source.Products(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, catalog.Categories(base))
	}
}

type catalogMeta struct {
	Meta  pagination.Meta `json:"pagination"`
	Query catalog.Query   `json:"query"`
}
