package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"assessment-engine/internal/domain"
)

type countingLoader struct {
	calls       int
	assessments map[string]domain.Assessment
}

func (l *countingLoader) LoadAssessment(_ context.Context, id string) (domain.Assessment, error) {
	l.calls++
	if a, ok := l.assessments[id]; ok {
		return a, nil
	}
	return domain.Assessment{}, domain.ErrAssessmentNotFound
}

func sampleAssessment() domain.Assessment {
	return domain.Assessment{
		ID:    "asmt-1",
		Title: "Sample",
		Questions: []domain.Question{
			{ID: "q1", Type: domain.TypeSingleChoice, Correct: domain.TextValue("A"), Points: 1},
		},
	}
}

func TestAssessmentRepositoryCaches(t *testing.T) {
	loader := &countingLoader{assessments: map[string]domain.Assessment{
		"asmt-1": sampleAssessment(),
	}}
	repo := NewAssessmentRepository(loader, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		a, err := repo.GetAssessment(ctx, "asmt-1")
		if err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
		if a.ID != "asmt-1" || len(a.Questions) != 1 {
			t.Fatalf("unexpected assessment %+v", a)
		}
	}
	if loader.calls != 1 {
		t.Fatalf("expected 1 loader call, got %d", loader.calls)
	}
}

func TestAssessmentRepositoryExpires(t *testing.T) {
	loader := &countingLoader{assessments: map[string]domain.Assessment{
		"asmt-1": sampleAssessment(),
	}}
	repo := NewAssessmentRepository(loader, time.Minute)

	now := time.Now()
	repo.clock = func() time.Time { return now }

	ctx := context.Background()
	if _, err := repo.GetAssessment(ctx, "asmt-1"); err != nil {
		t.Fatalf("get: %v", err)
	}

	// Past the TTL plus its 10% jitter ceiling, the entry must reload.
	now = now.Add(2 * time.Minute)
	if _, err := repo.GetAssessment(ctx, "asmt-1"); err != nil {
		t.Fatalf("get after expiry: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after TTL, got %d loader calls", loader.calls)
	}
}

func TestAssessmentRepositoryMissPassesThrough(t *testing.T) {
	loader := &countingLoader{}
	repo := NewAssessmentRepository(loader, time.Minute)

	if _, err := repo.GetAssessment(context.Background(), "nope"); !errors.Is(err, domain.ErrAssessmentNotFound) {
		t.Fatalf("expected ErrAssessmentNotFound, got %v", err)
	}
	// Failures are not cached.
	if _, err := repo.GetAssessment(context.Background(), "nope"); !errors.Is(err, domain.ErrAssessmentNotFound) {
		t.Fatalf("expected ErrAssessmentNotFound on retry, got %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected 2 loader calls, got %d", loader.calls)
	}
}

func TestStaticAssessmentLoader(t *testing.T) {
	loader := NewStaticAssessmentLoader(map[string]domain.Assessment{
		"asmt-1": sampleAssessment(),
	})
	a, err := loader.LoadAssessment(context.Background(), "asmt-1")
	if err != nil || a.ID != "asmt-1" {
		t.Fatalf("load: %v %+v", err, a)
	}
	if _, err := loader.LoadAssessment(context.Background(), "missing"); !errors.Is(err, domain.ErrAssessmentNotFound) {
		t.Fatalf("expected ErrAssessmentNotFound, got %v", err)
	}
}
