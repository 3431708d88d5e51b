package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront/api/responses"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/google/uuid"
)

// DeviceIDHeader names the header carrying the client's device id.
const DeviceIDHeader = "X-Device-Id"

// DeviceID requires a uuid device id on every request and exposes it to handlers.
func DeviceID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(DeviceIDHeader))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "X-Device-Id header required"))
				return
			}
			deviceID, err := uuid.Parse(raw)
			if err != nil || deviceID == uuid.Nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "X-Device-Id must be a uuid").WithDetails(map[string]any{"field": DeviceIDHeader}))
				return
			}

			ctx := WithDeviceID(r.Context(), deviceID)
			if logg != nil {
				ctx = logg.WithDeviceID(ctx, deviceID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
