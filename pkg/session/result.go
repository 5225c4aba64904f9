package session

import (
	"fmt"
	"time"

	"github.com/sakina-labs/sakina/pkg/emotion"
	"github.com/sakina-labs/sakina/pkg/therapy"
)

// Stage identifies which pipeline stage a failure belongs to.
type Stage string

const (
	// StageTranscribe failed to turn audio into text.
	StageTranscribe Stage = "transcribe"

	// StageGenerate failed to produce a reply. Only infrastructure
	// errors reach here; "no reply available" is absorbed by the
	// generator's canned fallback.
	StageGenerate Stage = "generate"

	// StageSynthesize failed to turn the reply into audio.
	StageSynthesize Stage = "synthesize"

	// StageInternal covers cancellation and recovered panics.
	StageInternal Stage = "internal"
)

// StageError describes a pipeline failure: which stage broke and why.
type StageError struct {
	Stage   Stage  `json:"stage"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("session: %s stage: %s", e.Stage, e.Message)
}

// Result is the outcome of one ProcessTurn call.
//
// Exactly one of two shapes is valid for consumption: Err == nil with
// all payload fields populated, or Err != nil. Intermediate fields may
// be set on a failed result (a transcription exists even when synthesis
// failed) but consumers must branch on Success first. ProcessingTime is
// set on every result, success or failure.
type Result struct {
	// Transcription is the recognized user utterance.
	Transcription string `json:"transcription,omitempty"`

	// Emotions is the detected emotion distribution.
	Emotions emotion.Distribution `json:"emotions,omitempty"`

	// ResponseText is the therapeutic reply.
	ResponseText string `json:"response_text,omitempty"`

	// Crisis reports whether crisis keywords were detected.
	Crisis bool `json:"crisis,omitempty"`

	// Validated reports whether the secondary model reviewed the reply.
	Validated bool `json:"validated,omitempty"`

	// Source identifies the generation path that produced the reply.
	Source therapy.Source `json:"source,omitempty"`

	// AudioPath is the synthesized reply on disk.
	AudioPath string `json:"audio_path,omitempty"`

	// AudioDuration is the estimated playback length of the reply.
	AudioDuration time.Duration `json:"audio_duration,omitempty"`

	// ProcessingTime covers call start to return. Always set.
	ProcessingTime time.Duration `json:"processing_time"`

	// SlowWarning is set when a successful turn exceeded the response
	// time budget. Non-fatal; the result is still a success.
	SlowWarning bool `json:"slow_warning,omitempty"`

	// Err is the failure descriptor. nil on success.
	Err *StageError `json:"error,omitempty"`
}

// Success reports whether the turn completed the whole pipeline.
func (r *Result) Success() bool {
	return r.Err == nil
}

// fail marks the result as a stage failure and returns it.
func (r *Result) fail(stage Stage, message string) *Result {
	r.Err = &StageError{Stage: stage, Message: message}
	return r
}
