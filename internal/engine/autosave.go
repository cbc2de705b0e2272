package engine

import (
	"context"
	"time"

	"assessment-engine/internal/domain"
)

const saveTimeout = 5 * time.Second

// startAutosave launches the periodic persistence loop once per session.
// The loop only saves while the attempt is Active and exits when the session
// completes or is closed, so no stale callback can touch a discarded session.
func (s *Session) startAutosave() {
	if s.store == nil {
		return
	}
	s.saveOnce.Do(func() {
		go s.autosaveLoop()
	})
}

func (s *Session) stopAutosave() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

func (s *Session) autosaveLoop() {
	newTicker := s.newTicker
	if newTicker == nil {
		newTicker = newRealTicker
	}
	ticker := newTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C():
			s.mu.RLock()
			active := s.status == domain.StatusActive
			snap := s.snapshotLocked()
			s.mu.RUnlock()
			if !active {
				continue
			}
			s.persist(snap)
		}
	}
}

// persist writes one snapshot, best-effort. Storage failures are logged and
// never affect the attempt.
func (s *Session) persist(snap domain.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := s.store.Save(ctx, snap); err != nil {
		s.logger.Printf("session %s: save snapshot: %v", s.id, err)
	}
}
