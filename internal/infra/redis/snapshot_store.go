package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"assessment-engine/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SnapshotStore persists attempt snapshots as JSON values with a TTL, so
// abandoned attempts age out on their own. One key per session:
//
//	SET assessment:snapshot:{sessionID} {json} EX ttl
type SnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSnapshotStore(client *redis.Client, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{client: client, ttl: ttl}
}

func (s *SnapshotStore) Save(ctx context.Context, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key(snap.SessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *SnapshotStore) Load(ctx context.Context, sessionID string) (domain.Snapshot, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if err == redis.Nil {
		return domain.Snapshot{}, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap, nil
}

func (s *SnapshotStore) key(sessionID string) string {
	return "assessment:snapshot:" + sessionID
}
