package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/realmariusconstantin/romish-client/internal/session"
)

// SetupRoutes builds the local debug surface: health plus a live view of
// the reconciled state.
func SetupRoutes(s *session.Session) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", Healthz)
	r.Get("/state", State(s))
	return r
}
