package providers

import (
	"context"
	"time"
)

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second
)

// StartupContext is canceled when the process is asked to stop. Providers that
// do network work during bootstrap run under it.
type StartupContext struct {
	context.Context
}
