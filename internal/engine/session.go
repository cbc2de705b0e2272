package engine

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"assessment-engine/internal/domain"
)

// SnapshotStore persists attempt snapshots (in-memory, Redis, etc). Save is
// best-effort from the session's perspective: failures are logged, never
// surfaced to the learner. Load returns domain.ErrSnapshotNotFound when no
// snapshot exists for the ID.
type SnapshotStore interface {
	Save(ctx context.Context, snap domain.Snapshot) error
	Load(ctx context.Context, sessionID string) (domain.Snapshot, error)
}

const defaultAutosaveInterval = 30 * time.Second

// Config assembles a session's collaborators. Only Assessment is required.
type Config struct {
	// SessionID identifies the attempt; generated when empty.
	SessionID string
	// Assessment supplies the question sequence and attempt policy. The
	// sequence is copied at construction, so later changes to the source
	// bank cannot affect an in-flight attempt.
	Assessment domain.Assessment
	// Store enables periodic and at-completion persistence; nil disables it.
	Store SnapshotStore
	// AutosaveInterval defaults to 30s when a store is set.
	AutosaveInterval time.Duration
	// Logger receives persistence failures; defaults to log.Default().
	Logger *log.Logger
	// NewTicker is test-only for deterministic ticks.
	NewTicker NewTickerFunc
	// Now is test-only for deterministic timestamps.
	Now func() time.Time

	// OnTick and OnExpire let a transport observe timer progress. Both are
	// invoked from the timer goroutine with no session lock held.
	OnTick   func(remaining int)
	OnExpire func()
}

// Session owns one attempt's mutable state and is its sole mutator. All
// operations are safe for concurrent use; timer and autosave callbacks
// arriving after completion are status-guarded no-ops.
type Session struct {
	id           string
	assessmentID string
	questions    []domain.Question
	indexByID    map[string]int
	autoSubmit   bool
	timed        bool

	store     SnapshotStore
	interval  time.Duration
	logger    *log.Logger
	newTicker NewTickerFunc
	now       func() time.Time
	onTick    func(int)
	onExpire  func()

	mu           sync.RWMutex
	status       domain.Status
	answers      map[string]domain.AnswerRecord
	currentIndex int
	remaining    int
	startedAt    time.Time
	completedAt  time.Time
	result       domain.Result

	timer     *Countdown
	done      chan struct{}
	saveOnce  sync.Once
	closeOnce sync.Once
}

// NewSession creates a fresh attempt in NotStarted state.
func NewSession(c Config) *Session {
	return newSession(c, nil)
}

// Restore rebuilds an attempt from a stored snapshot. The assessment must be
// the one the snapshot was taken from. A session saved while running comes
// back Paused, so the caller decides when the clock resumes.
func Restore(snap domain.Snapshot, c Config) (*Session, error) {
	if snap.AssessmentID != c.Assessment.ID {
		return nil, fmt.Errorf("snapshot for assessment %q, have %q: %w",
			snap.AssessmentID, c.Assessment.ID, domain.ErrSnapshotMismatch)
	}
	if len(snap.QuestionIDs) != len(c.Assessment.Questions) {
		return nil, fmt.Errorf("snapshot has %d questions, assessment has %d: %w",
			len(snap.QuestionIDs), len(c.Assessment.Questions), domain.ErrSnapshotMismatch)
	}
	for i, q := range c.Assessment.Questions {
		if snap.QuestionIDs[i] != q.ID {
			return nil, fmt.Errorf("question %d: snapshot has %q, assessment has %q: %w",
				i, snap.QuestionIDs[i], q.ID, domain.ErrSnapshotMismatch)
		}
	}
	if snap.CurrentIndex < 0 || snap.CurrentIndex >= len(snap.QuestionIDs) {
		return nil, fmt.Errorf("snapshot index %d out of range: %w",
			snap.CurrentIndex, domain.ErrSnapshotMismatch)
	}
	s := newSession(c, &snap)
	for id := range snap.Answers {
		if _, ok := s.indexByID[id]; !ok {
			return nil, fmt.Errorf("snapshot answer for %q: %w", id, domain.ErrSnapshotMismatch)
		}
	}
	return s, nil
}

func newSession(c Config, snap *domain.Snapshot) *Session {
	s := &Session{
		id:           c.SessionID,
		assessmentID: c.Assessment.ID,
		questions:    append([]domain.Question(nil), c.Assessment.Questions...),
		indexByID:    make(map[string]int, len(c.Assessment.Questions)),
		autoSubmit:   c.Assessment.AutoSubmit,
		timed:        c.Assessment.TimeLimitSeconds > 0,
		store:        c.Store,
		interval:     c.AutosaveInterval,
		logger:       c.Logger,
		newTicker:    c.NewTicker,
		now:          c.Now,
		onTick:       c.OnTick,
		onExpire:     c.OnExpire,
		status:       domain.StatusNotStarted,
		answers:      make(map[string]domain.AnswerRecord),
		remaining:    c.Assessment.TimeLimitSeconds,
		done:         make(chan struct{}),
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	if s.interval <= 0 {
		s.interval = defaultAutosaveInterval
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	for i, q := range s.questions {
		s.indexByID[q.ID] = i
	}

	if snap != nil {
		s.answers = copyAnswers(snap.Answers)
		s.currentIndex = snap.CurrentIndex
		s.timed = snap.Timed
		s.remaining = snap.TimeRemainingSeconds
		s.startedAt = snap.StartedAt
		switch snap.Status {
		case domain.StatusActive, domain.StatusPaused:
			s.status = domain.StatusPaused
		case domain.StatusCompleted:
			s.status = domain.StatusCompleted
			s.completedAt = s.now()
			s.result = Score(s.questions, s.answers)
		default:
			s.status = domain.StatusNotStarted
		}
	}

	seconds := 0
	if s.timed {
		seconds = s.remaining
	}
	s.timer = NewCountdown(seconds, s.handleTick, s.handleExpire, s.newTicker)
	return s
}

// Start transitions NotStarted -> Active and starts the countdown for timed
// attempts.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.status != domain.StatusNotStarted {
		status := s.status
		s.mu.Unlock()
		return fmt.Errorf("start while %s: %w", status, domain.ErrInvalidTransition)
	}
	s.status = domain.StatusActive
	s.startedAt = s.now()
	s.timer.Start()
	s.mu.Unlock()

	s.startAutosave()
	return nil
}

// Pause stops the tick stream without losing remaining time.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.StatusActive {
		return fmt.Errorf("pause while %s: %w", s.status, domain.ErrInvalidTransition)
	}
	s.status = domain.StatusPaused
	s.timer.Pause()
	return nil
}

// Resume restarts the tick stream from the exact remaining value.
func (s *Session) Resume() error {
	s.mu.Lock()
	if s.status != domain.StatusPaused {
		status := s.status
		s.mu.Unlock()
		return fmt.Errorf("resume while %s: %w", status, domain.ErrInvalidTransition)
	}
	s.status = domain.StatusActive
	s.timer.Start()
	s.mu.Unlock()

	// Restored sessions begin paused, so the autosave loop may not be
	// running yet.
	s.startAutosave()
	return nil
}

// SubmitAnswer validates the submitted value and writes the question's answer
// record. Re-submitting replaces correctness and points, preserves revealed
// hints, and bumps the attempt count; only the latest submission counts
// toward the final score.
func (s *Session) SubmitAnswer(questionID string, value domain.AnswerValue) (domain.AnswerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.StatusActive {
		return domain.AnswerRecord{}, fmt.Errorf("answer while %s: %w", s.status, domain.ErrInvalidTransition)
	}
	idx, ok := s.indexByID[questionID]
	if !ok {
		return domain.AnswerRecord{}, fmt.Errorf("question %q: %w", questionID, domain.ErrUnknownQuestion)
	}
	q := s.questions[idx]

	rec := s.answers[questionID]
	rec.QuestionID = questionID
	rec.Submitted = value
	rec.Correct = Validate(q, value)
	rec.PointsAwarded = 0
	if rec.Correct {
		rec.PointsAwarded = pointsFor(q)
	}
	rec.AttemptCount++
	s.answers[questionID] = rec
	return rec, nil
}

// UseHint records that the learner revealed a hint for the question. Revealing
// an already-used hint is a no-op. Hints survive later re-submissions of the
// same question.
func (s *Session) UseHint(questionID string, hintIndex int) (domain.AnswerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.StatusActive {
		return domain.AnswerRecord{}, fmt.Errorf("hint while %s: %w", s.status, domain.ErrInvalidTransition)
	}
	idx, ok := s.indexByID[questionID]
	if !ok {
		return domain.AnswerRecord{}, fmt.Errorf("question %q: %w", questionID, domain.ErrUnknownQuestion)
	}
	q := s.questions[idx]
	if hintIndex < 0 || hintIndex >= len(q.Hints) {
		return domain.AnswerRecord{}, fmt.Errorf("question %q hint %d: %w", questionID, hintIndex, domain.ErrUnknownHint)
	}

	rec := s.answers[questionID]
	rec.QuestionID = questionID
	for _, used := range rec.HintsUsed {
		if used == hintIndex {
			return rec, nil
		}
	}
	rec.HintsUsed = append(rec.HintsUsed, hintIndex)
	sort.Ints(rec.HintsUsed)
	s.answers[questionID] = rec
	return rec, nil
}

// GoToQuestion moves the cursor. Navigation is free-order, not a linear
// wizard.
func (s *Session) GoToQuestion(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.StatusActive && s.status != domain.StatusPaused {
		return fmt.Errorf("navigate while %s: %w", s.status, domain.ErrInvalidTransition)
	}
	if index < 0 || index >= len(s.questions) {
		return fmt.Errorf("question index %d: %w", index, domain.ErrUnknownQuestion)
	}
	s.currentIndex = index
	return nil
}

// Submit finalizes the attempt: stops the clock, scores the current answers,
// and freezes the session. Calling Submit on an already-completed session
// returns the previously computed result without rescoring.
func (s *Session) Submit() (domain.Result, error) {
	s.mu.Lock()
	if s.status == domain.StatusCompleted {
		result := s.result
		s.mu.Unlock()
		return result, nil
	}
	if s.status != domain.StatusActive && s.status != domain.StatusPaused {
		status := s.status
		s.mu.Unlock()
		return domain.Result{}, fmt.Errorf("submit while %s: %w", status, domain.ErrInvalidTransition)
	}
	s.timer.Stop()
	s.remaining = s.timer.Remaining()
	s.status = domain.StatusCompleted
	s.completedAt = s.now()
	s.result = Score(s.questions, s.answers)
	result := s.result
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.stopAutosave()
	if s.store != nil {
		go s.persist(snap)
	}
	return result, nil
}

// Close stops the countdown and the autosave loop. Abandoning a session
// without Close leaks the periodic goroutines. Safe to call more than once.
func (s *Session) Close() {
	s.timer.Stop()
	s.stopAutosave()
}

// handleTick mirrors the countdown into the session. A tick that lands after
// pause or completion changes nothing.
func (s *Session) handleTick(remaining int) {
	s.mu.Lock()
	if s.status != domain.StatusActive {
		s.mu.Unlock()
		return
	}
	s.remaining = remaining
	s.mu.Unlock()

	if s.onTick != nil {
		s.onTick(remaining)
	}
}

func (s *Session) handleExpire() {
	s.mu.Lock()
	if s.status == domain.StatusActive {
		s.remaining = 0
	}
	auto := s.autoSubmit && (s.status == domain.StatusActive || s.status == domain.StatusPaused)
	s.mu.Unlock()

	if auto {
		if _, err := s.Submit(); err != nil {
			s.logger.Printf("session %s: auto-submit on expiry: %v", s.id, err)
		}
	}
	if s.onExpire != nil {
		s.onExpire()
	}
}

// ID returns the session's identifier.
func (s *Session) ID() string { return s.id }

// Status returns the current lifecycle status.
func (s *Session) Status() domain.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// CurrentIndex returns the cursor into the question sequence.
func (s *Session) CurrentIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentIndex
}

// CurrentQuestion returns the question under the cursor.
func (s *Session) CurrentQuestion() domain.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.questions[s.currentIndex]
}

// Questions returns the attempt's immutable question sequence.
func (s *Session) Questions() []domain.Question {
	return append([]domain.Question(nil), s.questions...)
}

// ProgressPercentage reports answered/total as a rounded percentage.
func (s *Session) ProgressPercentage() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.questions) == 0 {
		return 0
	}
	answered := 0
	for _, rec := range s.answers {
		if rec.AttemptCount > 0 {
			answered++
		}
	}
	return roundPct(answered, len(s.questions))
}

// TimeRemaining reports the seconds left. timed is false for untimed
// attempts, in which case seconds is meaningless.
func (s *Session) TimeRemaining() (seconds int, timed bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remaining, s.timed
}

// Result returns the final result once the attempt is completed.
func (s *Session) Result() (domain.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result, s.status == domain.StatusCompleted
}

// CompletedAt returns the completion timestamp once the attempt is completed.
func (s *Session) CompletedAt() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.completedAt, s.status == domain.StatusCompleted
}

// Answers returns a copy of the answer map, e.g. for a review screen.
func (s *Session) Answers() map[string]domain.AnswerRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyAnswers(s.answers)
}

// Snapshot captures the attempt's persistable state.
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() domain.Snapshot {
	ids := make([]string, len(s.questions))
	for i, q := range s.questions {
		ids[i] = q.ID
	}
	return domain.Snapshot{
		SessionID:            s.id,
		AssessmentID:         s.assessmentID,
		QuestionIDs:          ids,
		Answers:              copyAnswers(s.answers),
		CurrentIndex:         s.currentIndex,
		TimeRemainingSeconds: s.remaining,
		Timed:                s.timed,
		Status:               s.status,
		StartedAt:            s.startedAt,
	}
}

func copyAnswers(in map[string]domain.AnswerRecord) map[string]domain.AnswerRecord {
	out := make(map[string]domain.AnswerRecord, len(in))
	for id, rec := range in {
		rec.HintsUsed = append([]int(nil), rec.HintsUsed...)
		rec.Submitted.Items = append([]string(nil), rec.Submitted.Items...)
		out[id] = rec
	}
	return out
}
