package domain

import "errors"

var (
	// ErrInvalidTransition is returned when an operation is attempted from a
	// status that forbids it; it signals the caller is out of sync with the
	// session state machine.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrUnknownQuestion is returned when an operation references a question
	// ID or index outside the session's question sequence.
	ErrUnknownQuestion = errors.New("question not in session")
	// ErrUnknownHint is returned when a hint index is out of range for the
	// referenced question.
	ErrUnknownHint = errors.New("hint index out of range")
	// ErrAssessmentNotFound indicates the assessment content could not be loaded.
	ErrAssessmentNotFound = errors.New("assessment not found")
	// ErrSnapshotNotFound is returned when no stored snapshot exists for a session ID.
	ErrSnapshotNotFound = errors.New("session snapshot not found")
	// ErrSnapshotMismatch is returned when a stored snapshot does not match
	// the assessment it is being restored against.
	ErrSnapshotMismatch = errors.New("snapshot does not match assessment")
)
