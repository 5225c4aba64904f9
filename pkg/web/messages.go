package web

import "github.com/sakina-labs/sakina/pkg/session"

// statusText carries the localized status line shown in the UI.
type statusText struct {
	Arabic  string `json:"arabic"`
	English string `json:"english"`
}

var statusTexts = map[session.Status]statusText{
	session.StatusReady:      {"جاهز للاستماع", "Ready to listen"},
	session.StatusListening:  {"أستمع إليك...", "Listening..."},
	session.StatusProcessing: {"أفكر في ردي...", "Processing..."},
	session.StatusSpeaking:   {"أتحدث الآن", "Speaking"},
}

var stageTexts = map[session.Stage]statusText{
	session.StageTranscribe: {"لم أتمكن من فهم الصوت، حاول مرة أخرى", "Could not understand the audio, please try again"},
	session.StageGenerate:   {"تعذر توليد الرد، حاول مرة أخرى", "Could not generate a reply, please try again"},
	session.StageSynthesize: {"تعذر تحويل الرد إلى صوت", "Could not synthesize the reply"},
	session.StageInternal:   {"حدث خطأ غير متوقع", "An unexpected error occurred"},
}

// slowWarningText is shown when a successful turn exceeded the
// response time budget.
var slowWarningText = statusText{
	Arabic:  "استغرق الرد وقتاً أطول من المعتاد",
	English: "The reply took longer than usual",
}

// statusPayload is the websocket/REST representation of a status.
func statusPayload(s session.Status) map[string]interface{} {
	text := statusTexts[s]
	return map[string]interface{}{
		"status":  s,
		"message": text,
	}
}

// stagePayload localizes a stage failure for the UI.
func stagePayload(err *session.StageError) map[string]interface{} {
	text, ok := stageTexts[err.Stage]
	if !ok {
		text = stageTexts[session.StageInternal]
	}
	return map[string]interface{}{
		"stage":   err.Stage,
		"detail":  err.Message,
		"message": text,
	}
}
