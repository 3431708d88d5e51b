package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const ctxDeviceID contextKey = "device_id"

// DeviceIDFromContext returns the device id injected by DeviceID, uuid.Nil when absent.
func DeviceIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxDeviceID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

// WithDeviceID injects the device identifier into the context.
func WithDeviceID(ctx context.Context, deviceID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxDeviceID, deviceID)
}
