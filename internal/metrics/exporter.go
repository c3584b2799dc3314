package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go-logrelay/internal/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// HealthFunc reports whether the relay is connected. A nil func is always healthy.
type HealthFunc func() error

// Exporter serves /metrics and /healthz on the ops address.
type Exporter struct {
	srv *http.Server
}

// Handler builds the ops router.
func Handler(reg *Registry, health HealthFunc) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.HandlerFor(reg.Gatherer(), promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if health != nil {
			if err := health(); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func NewExporter(addr string, reg *Registry, health HealthFunc) *Exporter {
	return &Exporter{
		srv: &http.Server{
			Addr:              addr,
			Handler:           Handler(reg, health),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start listens in the background. Listen errors are logged.
func (e *Exporter) Start() {
	go func() {
		logging.L().Info("metrics exporter listening", zap.String("addr", e.srv.Addr))
		if err := e.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.L().Error("metrics exporter stopped", zap.Error(err))
		}
	}()
}

func (e *Exporter) Shutdown(ctx context.Context) error {
	return e.srv.Shutdown(ctx)
}
