// Package httpx implements the development identity service HTTP surface.
package httpx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/target/campus-auth/internal/ports"
)

// RouterServices holds the dependencies needed by the HTTP router.
type RouterServices struct {
	Identity      ports.IdentityGateway
	ResponseDelay time.Duration
	Logger        *slog.Logger
}

// NewRouter registers the identity service routes.
//
//	POST /authenticate  credential exchange
//	GET  /healthz       liveness (HEAD is answered too)
func NewRouter(svc RouterServices) *http.ServeMux {
	logger := svc.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", healthHandler(time.Now()))
	if svc.Identity != nil {
		h := IdentityHandler{Gateway: svc.Identity, Delay: svc.ResponseDelay, Logger: logger}
		mux.HandleFunc("POST /authenticate", h.Authenticate)
	}
	return mux
}

// Wrap applies the standard middleware chain: Recover -> RequestID -> Logging -> handler.
func Wrap(h http.Handler, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h = Logging(logger)(h)
	h = RequestID()(h)
	return Recover(logger)(h)
}
