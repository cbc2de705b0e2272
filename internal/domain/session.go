package domain

import "time"

// Status enumerates the attempt lifecycle. Completed is absorbing.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusActive     Status = "active"
	StatusPaused     Status = "paused"
	StatusCompleted  Status = "completed"
)

// AnswerRecord holds the stored outcome for one question within an attempt.
// Re-submitting a question overwrites correctness and points while preserving
// HintsUsed and bumping AttemptCount; a record with AttemptCount zero exists
// only to carry hints revealed before the first submission.
type AnswerRecord struct {
	QuestionID    string      `json:"questionId"`
	Submitted     AnswerValue `json:"submitted"`
	Correct       bool        `json:"correct"`
	PointsAwarded int         `json:"pointsAwarded"`
	AttemptCount  int         `json:"attemptCount"`
	HintsUsed     []int       `json:"hintsUsed,omitempty"` // sorted, no duplicates
}

// Result is the derived outcome of a completed attempt.
type Result struct {
	TotalQuestions    int `json:"totalQuestions"`
	AnsweredQuestions int `json:"answeredQuestions"`
	CorrectAnswers    int `json:"correctAnswers"`
	TotalPoints       int `json:"totalPoints"`
	EarnedPoints      int `json:"earnedPoints"`
	Percentage        int `json:"percentage"`
	CompletionRate    int `json:"completionRate"`
}

// Snapshot is the persisted form of an attempt. It carries everything needed
// to rebuild a session whose observable behavior matches the one saved.
type Snapshot struct {
	SessionID            string                  `json:"sessionId"`
	AssessmentID         string                  `json:"assessmentId"`
	QuestionIDs          []string                `json:"questionIds"`
	Answers              map[string]AnswerRecord `json:"answers"`
	CurrentIndex         int                     `json:"currentIndex"`
	TimeRemainingSeconds int                     `json:"timeRemainingSeconds"`
	Timed                bool                    `json:"timed"`
	Status               Status                  `json:"status"`
	StartedAt            time.Time               `json:"startedAt"`
}
