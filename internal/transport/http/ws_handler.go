package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"assessment-engine/internal/domain"
	"assessment-engine/internal/engine"
	"github.com/gorilla/websocket"
)

// AssessmentRepository loads assessment content (from cache/backing store).
type AssessmentRepository interface {
	GetAssessment(ctx context.Context, id string) (domain.Assessment, error)
}

// WSHandler drives one live attempt per websocket connection.
type WSHandler struct {
	assessments AssessmentRepository
	store       engine.SnapshotStore // nil disables persistence/resume
	upgrader    websocket.Upgrader

	// AutosaveInterval overrides the engine default when positive.
	AutosaveInterval time.Duration
}

func NewWSHandler(assessments AssessmentRepository, store engine.SnapshotStore) *WSHandler {
	return &WSHandler{
		assessments: assessments,
		store:       store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID string             `json:"questionId"`
	Value      domain.AnswerValue `json:"value"`
}

type hintPayload struct {
	QuestionID string `json:"questionId"`
	HintIndex  int    `json:"hintIndex"`
}

type gotoPayload struct {
	Index int `json:"index"`
}

type statePayload struct {
	SessionID            string        `json:"sessionId"`
	Status               domain.Status `json:"status"`
	CurrentIndex         int           `json:"currentIndex"`
	Timed                bool          `json:"timed"`
	TimeRemainingSeconds int           `json:"timeRemainingSeconds,omitempty"`
	ProgressPercentage   int           `json:"progressPercentage"`
}

type resultPayload struct {
	Result  domain.Result                  `json:"result"`
	Answers map[string]domain.AnswerRecord `json:"answers"`
}

type tickPayload struct {
	TimeRemainingSeconds int `json:"timeRemainingSeconds"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into a session.
// A sessionId with a stored snapshot resumes that attempt; otherwise a fresh
// attempt starts.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	assessmentID := r.URL.Query().Get("assessmentId")
	sessionID := r.URL.Query().Get("sessionId")
	if assessmentID == "" {
		http.Error(w, "missing assessmentId", http.StatusBadRequest)
		return
	}

	assessment, err := h.assessments.GetAssessment(r.Context(), assessmentID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrAssessmentNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	closed := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for {
			select {
			case <-closed:
				return
			case msg := <-send:
				if err := conn.WriteJSON(msg); err != nil {
					log.Printf("ws write error: %v", err)
					return
				}
			}
		}
	}()

	// push never blocks the timer goroutine: stale ticks are droppable.
	push := func(msg outboundMessage[any]) {
		select {
		case <-closed:
		case send <- msg:
		default:
		}
	}

	session, err := h.buildSession(r.Context(), sessionID, assessment, push)
	if err != nil {
		push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		close(closed)
		<-writerDone
		return
	}

	push(outboundMessage[any]{Type: "state", Payload: stateOf(session)})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(session, inbound, push)
	}

	session.Close()
	if h.store != nil && session.Status() != domain.StatusCompleted {
		// Best-effort save so a dropped connection can resume.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := h.store.Save(ctx, session.Snapshot()); err != nil {
			log.Printf("ws save on disconnect: %v", err)
		}
		cancel()
	}
	close(closed)
	<-writerDone
}

func (h *WSHandler) buildSession(ctx context.Context, sessionID string, assessment domain.Assessment, push func(outboundMessage[any])) (*engine.Session, error) {
	// The expiry hook reads the session it belongs to; the variable is
	// assigned before Start can ever run the timer.
	var session *engine.Session

	cfg := engine.Config{
		SessionID:        sessionID,
		Assessment:       assessment,
		Store:            h.store,
		AutosaveInterval: h.AutosaveInterval,
		OnTick: func(remaining int) {
			push(outboundMessage[any]{Type: "tick", Payload: tickPayload{TimeRemainingSeconds: remaining}})
		},
		OnExpire: func() {
			push(outboundMessage[any]{Type: "expired", Payload: struct{}{}})
			if result, ok := session.Result(); ok {
				push(outboundMessage[any]{Type: "result", Payload: resultPayload{
					Result:  result,
					Answers: session.Answers(),
				}})
			}
		},
	}

	if sessionID != "" && h.store != nil {
		snap, err := h.store.Load(ctx, sessionID)
		switch {
		case err == nil:
			session, err = engine.Restore(snap, cfg)
			if err != nil {
				return nil, err
			}
			return session, nil
		case errors.Is(err, domain.ErrSnapshotNotFound):
			// fall through to a fresh attempt
		default:
			log.Printf("ws load snapshot %s: %v", sessionID, err)
		}
	}
	session = engine.NewSession(cfg)
	return session, nil
}

func (h *WSHandler) dispatch(session *engine.Session, inbound inboundMessage, push func(outboundMessage[any])) {
	fail := func(err error) {
		push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
	}

	switch inbound.Type {
	case "start":
		if err := session.Start(); err != nil {
			fail(err)
			return
		}
		push(outboundMessage[any]{Type: "state", Payload: stateOf(session)})
	case "pause":
		if err := session.Pause(); err != nil {
			fail(err)
			return
		}
		push(outboundMessage[any]{Type: "state", Payload: stateOf(session)})
	case "resume":
		if err := session.Resume(); err != nil {
			fail(err)
			return
		}
		push(outboundMessage[any]{Type: "state", Payload: stateOf(session)})
	case "goto":
		var payload gotoPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(errors.New("invalid goto payload"))
			return
		}
		if err := session.GoToQuestion(payload.Index); err != nil {
			fail(err)
			return
		}
		push(outboundMessage[any]{Type: "state", Payload: stateOf(session)})
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(errors.New("invalid answer payload"))
			return
		}
		rec, err := session.SubmitAnswer(payload.QuestionID, payload.Value)
		if err != nil {
			fail(err)
			return
		}
		push(outboundMessage[any]{Type: "answerResult", Payload: rec})
	case "hint":
		var payload hintPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(errors.New("invalid hint payload"))
			return
		}
		rec, err := session.UseHint(payload.QuestionID, payload.HintIndex)
		if err != nil {
			fail(err)
			return
		}
		push(outboundMessage[any]{Type: "hintResult", Payload: rec})
	case "submit":
		result, err := session.Submit()
		if err != nil {
			fail(err)
			return
		}
		push(outboundMessage[any]{Type: "result", Payload: resultPayload{
			Result:  result,
			Answers: session.Answers(),
		}})
	default:
		fail(errors.New("unsupported message type"))
	}
}

func stateOf(session *engine.Session) statePayload {
	remaining, timed := session.TimeRemaining()
	return statePayload{
		SessionID:            session.ID(),
		Status:               session.Status(),
		CurrentIndex:         session.CurrentIndex(),
		Timed:                timed,
		TimeRemainingSeconds: remaining,
		ProgressPercentage:   session.ProgressPercentage(),
	}
}
