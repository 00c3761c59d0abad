package router

import (
	"net/http"
	"strings"

	"foodshare/internal/auth"
	"foodshare/internal/handler"
	"foodshare/internal/metrics"
	"foodshare/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Handlers groups the endpoint handlers served by the API.
type Handlers struct {
	Listings *handler.ListingHandler
	Requests *handler.RequestHandler
	Profile  *handler.ProfileHandler
	Upload   *handler.UploadHandler
	Geocode  *handler.GeocodeHandler
}

// Options configures cross-cutting behaviour of the router.
type Options struct {
	Verifier             auth.Verifier
	RateLimiter          *middleware.RateLimiter
	Metrics              *metrics.Metrics
	AllowAnonymousBrowse bool
	// MediaDir, when set, is served read-only under MediaPath.
	MediaDir  string
	MediaPath string
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, opts Options, logger zerolog.Logger) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(opts.Metrics))
	r.NotFoundHandler = http.HandlerFunc(notFound)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	}).Methods(http.MethodGet)
	r.Handle("/metrics", opts.Metrics.Handler()).Methods(http.MethodGet)

	browse := func(fn http.HandlerFunc) http.Handler {
		if opts.AllowAnonymousBrowse {
			return fn
		}
		return middleware.RequireUser(fn)
	}
	protected := func(fn http.HandlerFunc) http.Handler {
		return middleware.RequireUser(fn)
	}

	r.Handle("/listings", browse(h.Listings.List)).Methods(http.MethodGet)
	r.Handle("/listings", protected(h.Listings.Create)).Methods(http.MethodPost)
	r.Handle("/listings/{id}", browse(h.Listings.GetByID)).Methods(http.MethodGet)
	r.Handle("/listings/{id}", protected(h.Listings.Update)).Methods(http.MethodPut)
	r.Handle("/listings/{id}", protected(h.Listings.Delete)).Methods(http.MethodDelete)

	r.Handle("/requests", protected(h.Requests.List)).Methods(http.MethodGet)
	r.Handle("/requests", protected(h.Requests.Toggle)).Methods(http.MethodPost)
	r.Handle("/requests/stats", protected(h.Requests.Stats)).Methods(http.MethodGet)
	r.Handle("/requests/{id}/accept", protected(h.Requests.Accept)).Methods(http.MethodPost)
	r.Handle("/requests/{id}/reject", protected(h.Requests.Reject)).Methods(http.MethodPost)
	r.Handle("/requests/{id}/cancel", protected(h.Requests.Cancel)).Methods(http.MethodPost)

	r.Handle("/profile", protected(h.Profile.Get)).Methods(http.MethodGet)
	r.Handle("/profile", protected(h.Profile.Update)).Methods(http.MethodPut)

	r.Handle("/upload", protected(h.Upload.Upload)).Methods(http.MethodPost)

	r.Handle("/geocode/reverse", browse(h.Geocode.Reverse)).Methods(http.MethodGet)
	r.Handle("/geocode/forward", browse(h.Geocode.Forward)).Methods(http.MethodGet)

	if opts.MediaDir != "" {
		prefix := strings.TrimSuffix(opts.MediaPath, "/") + "/"
		files := http.StripPrefix(prefix, http.FileServer(http.Dir(opts.MediaDir)))
		r.PathPrefix(prefix).Handler(noDirectoryListing(files)).Methods(http.MethodGet, http.MethodHead)
	}

	// Apply middleware in order: Recovery -> Logging -> CORS -> Authenticate -> RateLimiter
	var handler http.Handler = r
	handler = opts.RateLimiter.Handler(handler)
	handler = middleware.Authenticate(opts.Verifier, logger)(handler)
	handler = middleware.CORS(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"NOT_FOUND","message":"Route not found"}`))
}

func noDirectoryListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			notFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
