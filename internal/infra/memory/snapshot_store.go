package memory

import (
	"context"
	"sync"

	"assessment-engine/internal/domain"
)

// SnapshotStore is an in-memory implementation of engine.SnapshotStore.
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string]domain.Snapshot
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		snapshots: make(map[string]domain.Snapshot),
	}
}

func (s *SnapshotStore) Save(_ context.Context, snap domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.SessionID] = cloneSnapshot(snap)
	return nil
}

func (s *SnapshotStore) Load(_ context.Context, sessionID string) (domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[sessionID]
	if !ok {
		return domain.Snapshot{}, domain.ErrSnapshotNotFound
	}
	return cloneSnapshot(snap), nil
}

// cloneSnapshot decouples stored state from the caller's maps and slices.
func cloneSnapshot(snap domain.Snapshot) domain.Snapshot {
	snap.QuestionIDs = append([]string(nil), snap.QuestionIDs...)
	answers := make(map[string]domain.AnswerRecord, len(snap.Answers))
	for id, rec := range snap.Answers {
		rec.HintsUsed = append([]int(nil), rec.HintsUsed...)
		rec.Submitted.Items = append([]string(nil), rec.Submitted.Items...)
		answers[id] = rec
	}
	snap.Answers = answers
	return snap
}
