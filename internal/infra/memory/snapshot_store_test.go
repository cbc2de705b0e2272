package memory

import (
	"context"
	"errors"
	"testing"

	"assessment-engine/internal/domain"
)

func TestSnapshotStoreRoundTrip(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	snap := domain.Snapshot{
		SessionID:            "sess-1",
		AssessmentID:         "asmt-1",
		QuestionIDs:          []string{"q1", "q2"},
		CurrentIndex:         1,
		TimeRemainingSeconds: 42,
		Timed:                true,
		Status:               domain.StatusActive,
		Answers: map[string]domain.AnswerRecord{
			"q1": {
				QuestionID:    "q1",
				Submitted:     domain.ListValue("A", "B"),
				Correct:       true,
				PointsAwarded: 5,
				AttemptCount:  1,
				HintsUsed:     []int{0},
			},
		},
	}
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.AssessmentID != "asmt-1" || got.TimeRemainingSeconds != 42 || len(got.Answers) != 1 {
		t.Fatalf("unexpected snapshot %+v", got)
	}
}

func TestSnapshotStoreMissing(t *testing.T) {
	store := NewSnapshotStore()
	if _, err := store.Load(context.Background(), "nope"); !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
}

func TestSnapshotStoreIsolatesCallers(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	snap := domain.Snapshot{
		SessionID:   "sess-1",
		QuestionIDs: []string{"q1"},
		Answers: map[string]domain.AnswerRecord{
			"q1": {QuestionID: "q1", HintsUsed: []int{0}},
		},
	}
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Mutating the saved value must not leak into the store.
	snap.QuestionIDs[0] = "mutated"
	snap.Answers["q1"] = domain.AnswerRecord{QuestionID: "mutated"}

	first, err := store.Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if first.QuestionIDs[0] != "q1" || first.Answers["q1"].QuestionID != "q1" {
		t.Fatalf("store leaked caller mutation: %+v", first)
	}

	// Mutating a loaded value must not affect later loads.
	first.Answers["q1"] = domain.AnswerRecord{QuestionID: "tampered"}
	second, err := store.Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if second.Answers["q1"].QuestionID != "q1" {
		t.Fatalf("store leaked loaded-copy mutation: %+v", second)
	}
}
