package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"assessment-engine/internal/domain"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestSnapshotStoreRoundTrip(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewSnapshotStore(client, time.Hour)
	ctx := context.Background()

	snap := domain.Snapshot{
		SessionID:            "sess-1",
		AssessmentID:         "asmt-1",
		QuestionIDs:          []string{"q1", "q2"},
		CurrentIndex:         1,
		TimeRemainingSeconds: 30,
		Timed:                true,
		Status:               domain.StatusPaused,
		Answers: map[string]domain.AnswerRecord{
			"q2": {
				QuestionID:    "q2",
				Submitted:     domain.ListValue("B", "C"),
				Correct:       true,
				PointsAwarded: 3,
				AttemptCount:  2,
				HintsUsed:     []int{1},
			},
		},
	}
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("assessment:snapshot:sess-1") {
		t.Fatalf("expected snapshot key to be set")
	}
	if ttl := mr.TTL("assessment:snapshot:sess-1"); ttl != time.Hour {
		t.Fatalf("expected 1h TTL, got %v", ttl)
	}

	got, err := store.Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Status != domain.StatusPaused || got.TimeRemainingSeconds != 30 {
		t.Fatalf("unexpected snapshot %+v", got)
	}
	rec := got.Answers["q2"]
	if !rec.Correct || rec.AttemptCount != 2 || len(rec.Submitted.Items) != 2 {
		t.Fatalf("unexpected answer record %+v", rec)
	}
}

func TestSnapshotStoreMissing(t *testing.T) {
	_, client := newTestClient(t)
	store := NewSnapshotStore(client, time.Hour)

	if _, err := store.Load(context.Background(), "nope"); !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
}

func TestSnapshotStoreOverwrite(t *testing.T) {
	_, client := newTestClient(t)
	store := NewSnapshotStore(client, time.Hour)
	ctx := context.Background()

	snap := domain.Snapshot{SessionID: "sess-1", Status: domain.StatusActive}
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	snap.Status = domain.StatusCompleted
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("resave: %v", err)
	}

	got, err := store.Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Status != domain.StatusCompleted {
		t.Fatalf("expected latest snapshot to win, got %s", got.Status)
	}
}
