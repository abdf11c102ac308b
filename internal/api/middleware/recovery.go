package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/connectaword/internal/api/apierr"
	"github.com/mcoot/connectaword/internal/middleware"
)

// Recovery turns a panicking API handler into a 500 with the standard error body.
// Websocket upgrades that already hijacked the connection get nothing written.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger.With(slog.String("component", "http")), writeInternalError)
}

func writeInternalError(w http.ResponseWriter, r *http.Request, _ any) {
	if isUpgrade(r) {
		return
	}
	apierr.WriteError(w, apierr.NewInternalError())
}

func isUpgrade(r *http.Request) bool {
	return r.Header.Get("Upgrade") != ""
}
