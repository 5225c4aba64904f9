// Package session holds the conversation orchestrator: it drives one
// voice turn through transcription, emotion detection, response
// generation, and speech synthesis, and defines the result contract
// the presentation layer consumes.
//
// The orchestrator is stateless across calls. Conversation history and
// the status state machine are owned by the presentation layer and
// passed in read-only.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/sakina-labs/sakina/pkg/emotion"
	"github.com/sakina-labs/sakina/pkg/therapy"
)

// Turn is one completed user/therapist exchange. Immutable once created;
// the presentation layer appends it to the history after a successful
// pipeline run.
type Turn struct {
	ID        uuid.UUID            `json:"id"`
	User      string               `json:"user"`
	Emotions  emotion.Distribution `json:"emotions"`
	Therapist string               `json:"therapist"`
	Timestamp time.Time            `json:"timestamp"`
}

// NewTurn creates a Turn stamped with a fresh ID and the current time.
func NewTurn(user string, emotions emotion.Distribution, therapist string) Turn {
	return Turn{
		ID:        uuid.New(),
		User:      user,
		Emotions:  emotions,
		Therapist: therapist,
		Timestamp: time.Now(),
	}
}

// History is the ordered sequence of turns in a session, oldest first.
// The orchestrator receives it per call and never keeps a copy.
type History []Turn

// Exchanges converts the history into the generator's prompt form.
func (h History) Exchanges() []therapy.Exchange {
	if len(h) == 0 {
		return nil
	}
	out := make([]therapy.Exchange, len(h))
	for i, t := range h {
		out[i] = therapy.Exchange{User: t.User, Therapist: t.Therapist}
	}
	return out
}

// Tail returns the most recent n turns (the whole history if shorter).
func (h History) Tail(n int) History {
	if n <= 0 || len(h) <= n {
		return h
	}
	return h[len(h)-n:]
}
