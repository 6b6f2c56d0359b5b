package middleware

import (
	"log/slog"
	"net/http"

	"github.com/moonhowl/werewolf-go/internal/api/apierr"
	"github.com/moonhowl/werewolf-go/internal/middleware"
)

// Recovery creates panic recovery middleware for the API
// Returns JSON error responses on panic
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, apiPanicResponse)
}

func apiPanicResponse(w http.ResponseWriter, _ *http.Request) {
	apierr.WriteError(w, apierr.NewInternalError())
}
