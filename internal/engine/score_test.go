package engine_test

import (
	"testing"

	"assessment-engine/internal/domain"
	"assessment-engine/internal/engine"
)

func TestScoreAggregates(t *testing.T) {
	questions := []domain.Question{
		{ID: "q1", Type: domain.TypeSingleChoice, Correct: domain.TextValue("A"), Points: 10},
		{ID: "q2", Type: domain.TypeSingleChoice, Correct: domain.TextValue("A"), Points: 10},
		{ID: "q3", Type: domain.TypeSingleChoice, Correct: domain.TextValue("A"), Points: 10},
	}
	answers := map[string]domain.AnswerRecord{
		"q1": {QuestionID: "q1", Correct: true, PointsAwarded: 10, AttemptCount: 1},
		"q2": {QuestionID: "q2", Correct: false, PointsAwarded: 0, AttemptCount: 1},
	}

	want := domain.Result{
		TotalQuestions:    3,
		AnsweredQuestions: 2,
		CorrectAnswers:    1,
		TotalPoints:       30,
		EarnedPoints:      10,
		Percentage:        33,
		CompletionRate:    67,
	}
	got := engine.Score(questions, answers)
	if got != want {
		t.Fatalf("score mismatch:\n got %+v\nwant %+v", got, want)
	}

	// Idempotent: same inputs, same output.
	if again := engine.Score(questions, answers); again != got {
		t.Fatalf("expected identical result on rescore, got %+v then %+v", got, again)
	}
}

func TestScoreHintOnlyRecordsNotAnswered(t *testing.T) {
	questions := []domain.Question{
		{ID: "q1", Type: domain.TypeSingleChoice, Correct: domain.TextValue("A"), Points: 5},
	}
	answers := map[string]domain.AnswerRecord{
		"q1": {QuestionID: "q1", AttemptCount: 0, HintsUsed: []int{0}},
	}
	got := engine.Score(questions, answers)
	if got.AnsweredQuestions != 0 || got.EarnedPoints != 0 || got.CompletionRate != 0 {
		t.Fatalf("hint-only record must not count as answered, got %+v", got)
	}
}

func TestScoreEmptyBank(t *testing.T) {
	got := engine.Score(nil, nil)
	if got.Percentage != 0 || got.CompletionRate != 0 {
		t.Fatalf("empty bank must score zero without error, got %+v", got)
	}
}

func TestScoreDefaultsZeroPointsToOne(t *testing.T) {
	questions := []domain.Question{
		{ID: "q1", Type: domain.TypeSingleChoice, Correct: domain.TextValue("A")},
	}
	answers := map[string]domain.AnswerRecord{
		"q1": {QuestionID: "q1", Correct: true, PointsAwarded: 1, AttemptCount: 1},
	}
	got := engine.Score(questions, answers)
	if got.TotalPoints != 1 || got.EarnedPoints != 1 || got.Percentage != 100 {
		t.Fatalf("zero-point question should count as 1 point, got %+v", got)
	}
}
