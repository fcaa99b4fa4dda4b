package web

import (
	"net/http"
	"time"

	"github.com/cserlab/scopuswatch/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the front end routes. The /metrics route is registered
// before the passcode wildcard so it is never captured by it.
func NewRouter(h *Handler, logger *logging.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/", h.Status)
	r.Post("/resendpasscode", h.ResendPasscode)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Post("/updatetokens/{passcode}", h.UpdateTokens)
	r.Get("/{passcode}", h.InitTokenUpdate)

	return r
}

func requestLogger(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("%s %s %d %s", r.Method, r.URL.Path, ww.Status(), time.Since(start))
		})
	}
}
