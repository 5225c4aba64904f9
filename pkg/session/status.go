package session

import "fmt"

// Status is the presentation-layer state machine position. The
// orchestrator never reads or writes it; it only returns results that
// drive transitions.
type Status string

const (
	// StatusReady means no turn is in flight; a new one may start.
	StatusReady Status = "ready"

	// StatusListening means the microphone is recording.
	StatusListening Status = "listening"

	// StatusProcessing means a turn is mid-pipeline.
	StatusProcessing Status = "processing"

	// StatusSpeaking means the reply is playing back.
	StatusSpeaking Status = "speaking"
)

// CanStart reports whether a new turn may begin from this status.
// Only one turn runs at a time; everything but ready rejects.
func (s Status) CanStart() bool {
	return s == StatusReady
}

// legalTransitions maps each status to the statuses it may move to.
// Every non-ready status can fall back to ready (failure or cancel).
var legalTransitions = map[Status][]Status{
	StatusReady:      {StatusListening, StatusProcessing},
	StatusListening:  {StatusProcessing, StatusReady},
	StatusProcessing: {StatusSpeaking, StatusReady},
	StatusSpeaking:   {StatusReady},
}

// CanTransition reports whether moving from s to next is legal.
func (s Status) CanTransition(next Status) bool {
	for _, t := range legalTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Transition returns next if the move is legal, or an error naming the
// illegal edge.
func (s Status) Transition(next Status) (Status, error) {
	if !s.CanTransition(next) {
		return s, fmt.Errorf("session: illegal status transition %s -> %s", s, next)
	}
	return next, nil
}

// Valid reports whether s is one of the four defined statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusReady, StatusListening, StatusProcessing, StatusSpeaking:
		return true
	}
	return false
}
