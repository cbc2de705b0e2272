package engine

import (
	"math"

	"assessment-engine/internal/domain"
)

// Score aggregates per-question outcomes into a Result. Idempotent: the same
// inputs always produce the same output. TotalPoints counts every question
// whether or not it was answered; EarnedPoints sums awarded points over the
// answer records. A bank totalling zero points yields Percentage 0 rather
// than a division error.
func Score(questions []domain.Question, answers map[string]domain.AnswerRecord) domain.Result {
	r := domain.Result{TotalQuestions: len(questions)}

	for _, q := range questions {
		r.TotalPoints += pointsFor(q)

		rec, ok := answers[q.ID]
		if !ok || rec.AttemptCount == 0 {
			// Hint-only records don't count as answered.
			continue
		}
		r.AnsweredQuestions++
		if rec.Correct {
			r.CorrectAnswers++
		}
		r.EarnedPoints += rec.PointsAwarded
	}

	if r.TotalPoints > 0 {
		r.Percentage = roundPct(r.EarnedPoints, r.TotalPoints)
	}
	if r.TotalQuestions > 0 {
		r.CompletionRate = roundPct(r.AnsweredQuestions, r.TotalQuestions)
	}
	return r
}

func roundPct(part, whole int) int {
	return int(math.Round(float64(part) / float64(whole) * 100))
}

// pointsFor mirrors the bank convention that unset points count as 1.
func pointsFor(q domain.Question) int {
	if q.Points <= 0 {
		return 1
	}
	return q.Points
}
