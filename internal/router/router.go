package router

import (
	"net/http"

	"shipsync/internal/handler"
	"shipsync/internal/middleware"

	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	sourceHandler *handler.SourceHandler,
	orderHandler *handler.OrderHandler,
	syncHandler *handler.SyncHandler,
	webhookHandler *handler.WebhookHandler,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	// Inbound ShipStation webhooks; the source identifier rides in the path.
	mux.HandleFunc("/webhooks/shipstation", webhookHandler.Receive)
	mux.HandleFunc("/webhooks/shipstation/", webhookHandler.Receive)

	// Source handler function
	sourceRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sources" && r.URL.Path != "/api/sources/" {
			sourceHandler.Item(w, r)
			return
		}
		sourceHandler.Collection(w, r)
	}

	// Register source routes (both with and without trailing slash)
	mux.HandleFunc("/api/sources", sourceRouteHandler)
	mux.HandleFunc("/api/sources/", sourceRouteHandler)

	// Order handler function
	orderRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/orders" && r.URL.Path != "/api/orders/" {
			orderHandler.Item(w, r)
			return
		}
		orderHandler.Collection(w, r)
	}

	// Register order routes (both with and without trailing slash)
	mux.HandleFunc("/api/orders", orderRouteHandler)
	mux.HandleFunc("/api/orders/", orderRouteHandler)

	// Manual sync over all active sources
	mux.HandleFunc("/api/sync", syncHandler.SyncAll)

	// Apply middleware in order: Recovery -> Logging -> CORS -> APIKeyAuth
	var h http.Handler = mux
	h = middleware.APIKeyAuth(apiKey, logger)(h)
	h = middleware.CORS(h)
	h = middleware.Logging(logger)(h)
	h = middleware.Recovery(logger)(h)

	return h
}
