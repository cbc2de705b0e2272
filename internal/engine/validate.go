package engine

import (
	"math"
	"strconv"
	"strings"

	"assessment-engine/internal/domain"
)

// numericTolerance absorbs rounding/representation error when comparing
// numeric answers. The comparison is strict: a difference of exactly this
// value is not correct.
const numericTolerance = 0.01

// Validate reports whether submitted answers q correctly. Pure and
// deterministic. Malformed questions, unrecognized types, and payloads whose
// shape does not match the question type all fail closed rather than erroring,
// so a bad bank entry cannot crash an in-progress attempt.
func Validate(q domain.Question, submitted domain.AnswerValue) bool {
	switch q.Type {
	case domain.TypeSingleChoice, domain.TypeBooleanChoice:
		return submitted.Kind == domain.KindText && submitted.Text == q.Correct.Text

	case domain.TypeNumeric:
		if submitted.Kind != domain.KindText {
			return false
		}
		return numericEqual(submitted.Text, q.Correct.Text)

	case domain.TypeFreeFormText, domain.TypeFreeFormEquation:
		// Literal match after trimming and case-folding. "ma=F" does not
		// match "F=ma"; semantic equivalence is out of scope.
		if submitted.Kind != domain.KindText {
			return false
		}
		return foldEqual(submitted.Text, q.Correct.Text)

	case domain.TypeMultiSelect:
		if submitted.Kind != domain.KindList {
			return false
		}
		return setsEqual(submitted.Items, q.Correct.Items)

	case domain.TypeOrderedSequence:
		if submitted.Kind != domain.KindList {
			return false
		}
		return sequencesEqual(submitted.Items, q.Correct.Items)

	case domain.TypeFillInBlank:
		if submitted.Kind != domain.KindList {
			return false
		}
		return blanksEqual(submitted.Items, q.Correct.Items)
	}

	return false
}

func numericEqual(submitted, expected string) bool {
	a, err := strconv.ParseFloat(strings.TrimSpace(submitted), 64)
	if err != nil {
		return false
	}
	b, err := strconv.ParseFloat(strings.TrimSpace(expected), 64)
	if err != nil {
		return false
	}
	return math.Abs(a-b) < numericTolerance
}

func foldEqual(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// setsEqual compares the two slices as sets: order-insensitive, duplicates
// collapsed.
func setsEqual(submitted, expected []string) bool {
	want := make(map[string]struct{}, len(expected))
	for _, e := range expected {
		want[e] = struct{}{}
	}
	got := make(map[string]struct{}, len(submitted))
	for _, s := range submitted {
		if _, ok := want[s]; !ok {
			return false
		}
		got[s] = struct{}{}
	}
	return len(got) == len(want)
}

func sequencesEqual(submitted, expected []string) bool {
	if len(submitted) != len(expected) {
		return false
	}
	for i := range expected {
		if submitted[i] != expected[i] {
			return false
		}
	}
	return true
}

// blanksEqual matches each positional blank after trimming and case-folding.
func blanksEqual(submitted, expected []string) bool {
	if len(submitted) != len(expected) {
		return false
	}
	for i := range expected {
		if !foldEqual(submitted[i], expected[i]) {
			return false
		}
	}
	return true
}
