package domain

// QuestionType is the closed set of supported answer shapes.
type QuestionType string

const (
	TypeSingleChoice     QuestionType = "single-choice"
	TypeBooleanChoice    QuestionType = "boolean-choice"
	TypeMultiSelect      QuestionType = "multi-select"
	TypeNumeric          QuestionType = "numeric"
	TypeFreeFormText     QuestionType = "free-form-text"
	TypeFreeFormEquation QuestionType = "free-form-equation"
	TypeOrderedSequence  QuestionType = "ordered-sequence"
	TypeFillInBlank      QuestionType = "fill-in-blank"
)

// ValueKind tags which arm of the AnswerValue union is populated.
type ValueKind string

const (
	KindText ValueKind = "text"
	KindList ValueKind = "list"
)

// AnswerValue is the tagged union of answer payload shapes. Scalar question
// types (choice, numeric, free-form) carry Text; collection types
// (multi-select, ordered-sequence, fill-in-blank) carry Items. Keeping the
// shape explicit lets the validator reject mismatched payloads instead of
// sniffing an untyped value.
type AnswerValue struct {
	Kind  ValueKind `json:"kind"`
	Text  string    `json:"text,omitempty"`
	Items []string  `json:"items,omitempty"`
}

// TextValue builds a scalar answer value.
func TextValue(s string) AnswerValue {
	return AnswerValue{Kind: KindText, Text: s}
}

// ListValue builds a collection answer value.
func ListValue(items ...string) AnswerValue {
	return AnswerValue{Kind: KindList, Items: items}
}

// Question is an authored, immutable quiz question.
type Question struct {
	ID      string       `json:"id"`
	Type    QuestionType `json:"type"`
	Prompt  string       `json:"prompt"`
	Options []string     `json:"options,omitempty"`
	Correct AnswerValue  `json:"correct"`
	Points  int          `json:"points"` // defaults to 1 if zero
	Hints   []string     `json:"hints,omitempty"`
}

// Assessment is a bank entry: an ordered question sequence plus the attempt
// policy applied when a learner opens it.
type Assessment struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Questions        []Question `json:"questions"`
	TimeLimitSeconds int        `json:"timeLimitSeconds"` // 0 means untimed
	AutoSubmit       bool       `json:"autoSubmit"`
}
