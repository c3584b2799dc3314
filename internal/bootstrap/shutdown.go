package bootstrap

import (
	"context"
	"errors"

	"go-logrelay/internal/logging"
)

// Shutdown closes the gateway first so no new events arrive, then the
// exporter and the store. Every step runs; the errors are joined.
func Shutdown(ctx context.Context, c *Components) error {
	logging.Info("Starting graceful shutdown...")

	var errs []error

	if c.Session != nil {
		logging.Info("Closing gateway session...")
		if err := c.Session.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if c.Exporter != nil {
		logging.Info("Stopping metrics exporter...")
		if err := c.Exporter.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if c.Store != nil {
		logging.Info("Closing configuration store...")
		if err := c.Store.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	logging.Info("Graceful shutdown complete")
	return errors.Join(errs...)
}
