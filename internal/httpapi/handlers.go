package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/realmariusconstantin/romish-client/internal/session"
)

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// State serves the session's current view. The read goes through the
// inbox like every other message, so it never observes a half-applied
// reconciliation.
func State(s *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan session.View, 1)
		select {
		case s.Inbox() <- session.GetState{Reply: reply}:
		case <-r.Context().Done():
			http.Error(w, "session unavailable", http.StatusServiceUnavailable)
			return
		}

		select {
		case view := <-reply:
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(view)
		case <-r.Context().Done():
			http.Error(w, "session unavailable", http.StatusServiceUnavailable)
		}
	}
}
