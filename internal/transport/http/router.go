package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	carthandler "bazaar/internal/cart/handler"
	cataloghandler "bazaar/internal/catalog/handler"
	directoryhandler "bazaar/internal/directory/handler"
	orderhandler "bazaar/internal/order/handler"
	"bazaar/internal/platform/metrics"
	"bazaar/internal/platform/middleware"
)

// Deps bundles everything the router needs. Handlers register their own
// routes; the router owns only the shared middleware chain and the platform
// endpoints.
type Deps struct {
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Directory *directoryhandler.Handler
	Catalog   *cataloghandler.Handler
	Cart      *carthandler.Handler
	Order     *orderhandler.Handler
	Health    func() error
}

// NewRouter wires the middleware chain and mounts every module handler.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)
	if deps.Metrics != nil {
		r.Use(middleware.LatencyMiddleware(deps.Metrics))
	}

	deps.Directory.Register(r)
	deps.Catalog.Register(r)
	deps.Cart.Register(r)
	deps.Order.Register(r)

	r.Get("/healthz", handleHealth(deps.Health))
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func handleHealth(check func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
