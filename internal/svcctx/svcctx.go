// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/jackzampolin/stockpilot/internal/automation"
	"github.com/jackzampolin/stockpilot/internal/config"
	"github.com/jackzampolin/stockpilot/internal/driver"
)

// Services holds the core services that flow through request context.
// Components extract what they need via the individual extractors.
type Services struct {
	Runs          *automation.Manager
	DriverManager *driver.DockerManager
	DriverClient  *driver.Client
	ConfigMgr     *config.Manager
	Logger        *slog.Logger
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// RunsFrom extracts the run manager from context.
func RunsFrom(ctx context.Context) *automation.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.Runs
	}
	return nil
}

// DriverManagerFrom extracts the driver container manager from context.
func DriverManagerFrom(ctx context.Context) *driver.DockerManager {
	if s := ServicesFrom(ctx); s != nil {
		return s.DriverManager
	}
	return nil
}

// DriverClientFrom extracts the driver HTTP client from context.
func DriverClientFrom(ctx context.Context) *driver.Client {
	if s := ServicesFrom(ctx); s != nil {
		return s.DriverClient
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil && s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
