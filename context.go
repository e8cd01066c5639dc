package sessionkit

import (
	"context"

	"github.com/vitaltrace/sessionkit/remote"
)

// WithDeviceID attaches the device identifier sent to the backend as
// X-Device-ID on every request made under ctx.
func WithDeviceID(ctx context.Context, deviceID string) context.Context {
	return remote.WithDeviceID(ctx, deviceID)
}

// WithAppVersion attaches the app version sent as X-App-Version.
func WithAppVersion(ctx context.Context, version string) context.Context {
	return remote.WithAppVersion(ctx, version)
}
