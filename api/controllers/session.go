package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/session"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type loginResponse struct {
	Session         session.Status `json:"session"`
	Merge           cart.Result    `json:"merge"`
	RemoteAvailable bool           `json:"remote_available"`
	Cart            cartResponse   `json:"cart"`
}

// SessionLogin authenticates the device session with the bearer credential
// and merges the user's stored cart into the device cart.
func SessionLogin(devices DeviceProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		credential, err := validators.BearerToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		device, err := deviceFromRequest(r, devices)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := device.Session.Login(r.Context(), credential)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, loginResponse{
			Session:         device.Session.Status(),
			Merge:           result.Merge,
			RemoteAvailable: result.RemoteAvailable,
			Cart:            newCartResponse(device.Engine.Snapshot()),
		})
	}
}

// SessionLogout stops mirroring; the device cart is kept.
func SessionLogout(devices DeviceProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		device, err := deviceFromRequest(r, devices)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := device.Session.Logout(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, device.Session.Status())
	}
}

// SessionStatus reports whether the device session is authenticated.
func SessionStatus(devices DeviceProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		device, err := deviceFromRequest(r, devices)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, device.Session.Status())
	}
}
