package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/internal/storefront"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/google/uuid"
)

// DeviceProvider resolves the per-device cart, session and catalog view.
type DeviceProvider interface {
	Get(ctx context.Context, deviceID uuid.UUID) (*storefront.Device, error)
}

func deviceFromRequest(r *http.Request, devices DeviceProvider) (*storefront.Device, error) {
	if devices == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "device registry unavailable")
	}
	deviceID := middleware.DeviceIDFromContext(r.Context())
	if deviceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "device id missing")
	}
	return devices.Get(r.Context(), deviceID)
}
