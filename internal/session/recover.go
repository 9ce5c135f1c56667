package session

import (
	"errors"

	"github.com/realmariusconstantin/romish-client/internal/api"
)

// recoverAsync re-queries server truth: the persisted current match first,
// then the provisional ready session. Both 404s together mean a clean
// slate, which is a successful recovery, not an error. Runs off-loop.
func (s *Session) recoverAsync(out chan error) {
	done := func(err error) {
		if out == nil {
			return
		}
		select {
		case out <- err:
		default:
		}
	}

	m, err := s.api.CurrentMatch(s.ctx)
	if err == nil {
		s.send(recovered{Match: m})
		done(nil)
		return
	}
	if !errors.Is(err, api.ErrNotFound) {
		done(err)
		return
	}

	sess, err := s.api.MyReadySession(s.ctx)
	if err == nil {
		s.send(recovered{Ready: sess})
		done(nil)
		return
	}
	if errors.Is(err, api.ErrNotFound) {
		done(nil)
		return
	}
	done(err)
}

func (s *Session) applyRecovered(msg recovered) {
	switch {
	case msg.Match != nil:
		s.adoptMatch(*msg.Match)
	case msg.Ready != nil:
		s.beginReady(*msg.Ready)
	}
}
