package tts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	elevenLabsWSBaseURL = "wss://api.elevenlabs.io/v1/text-to-speech"
	wsHandshakeTimeout  = 10 * time.Second
	wsKeepalive         = 20 * time.Second
)

// ElevenLabsWS streams synthesis over a WebSocket, delivering audio chunks
// while the reply text is still being sent. Used to start playback of long
// therapeutic replies before the full synthesis completes.
//
// A session is single-use: dial with Open, feed text with SendText, signal
// the end with Flush, and drain the Audio channel until it closes.
type ElevenLabsWS struct {
	config *Config

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool

	audio chan []byte
	errCh chan error
}

// NewElevenLabsWS creates a WebSocket streaming session.
func NewElevenLabsWS(opts ...Option) (*ElevenLabsWS, error) {
	cfg := DefaultConfig()
	cfg.OutputFormat = EncodingPCM22
	cfg.Apply(opts...)

	if err := cfg.ValidateWithVoice(); err != nil {
		return nil, err
	}

	return newWSSession(cfg), nil
}

// newWSSession builds a session around an already-validated config.
// ElevenLabs.Stream goes through here so each call gets a fresh
// single-use session.
func newWSSession(cfg *Config) *ElevenLabsWS {
	return &ElevenLabsWS{
		config: cfg,
		audio:  make(chan []byte, 16),
		errCh:  make(chan error, 1),
	}
}

// Audio returns the channel of PCM chunks. It is closed when the server
// signals the final chunk or the connection drops.
func (e *ElevenLabsWS) Audio() <-chan []byte {
	return e.audio
}

// Err returns the first error observed on the session, if any.
func (e *ElevenLabsWS) Err() error {
	select {
	case err := <-e.errCh:
		return err
	default:
		return nil
	}
}

// Open dials the streaming endpoint and starts the read pump.
func (e *ElevenLabsWS) Open(ctx context.Context) error {
	url := fmt.Sprintf("%s/%s/stream-input?model_id=%s&output_format=%s",
		e.wsBaseURL(), e.config.VoiceID, e.config.ModelID, e.config.OutputFormat)

	headers := http.Header{}
	headers.Set("xi-api-key", e.config.APIKey)

	dialer := websocket.Dialer{HandshakeTimeout: wsHandshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, url, headers)
	if err != nil {
		if resp != nil {
			return WrapError(providerElevenLabs, fmt.Errorf("websocket dial (status %d): %w", resp.StatusCode, err))
		}
		return WrapError(providerElevenLabs, fmt.Errorf("websocket dial: %w", err))
	}

	// Opening message carries the voice settings for the whole session.
	open := map[string]interface{}{
		"text": " ",
		"voice_settings": map[string]interface{}{
			"stability":        e.config.VoiceSettings.Stability,
			"similarity_boost": e.config.VoiceSettings.SimilarityBoost,
		},
	}
	if err := conn.WriteJSON(open); err != nil {
		conn.Close()
		return WrapError(providerElevenLabs, fmt.Errorf("session open: %w", err))
	}

	e.mu.Lock()
	e.conn = conn
	e.mu.Unlock()

	go e.readPump(ctx)
	go e.keepalive(ctx)

	return nil
}

// wsBaseURL derives the websocket endpoint from the configured REST
// base URL, falling back to the hosted API.
func (e *ElevenLabsWS) wsBaseURL() string {
	if e.config.BaseURL == "" {
		return elevenLabsWSBaseURL
	}
	base := strings.TrimSuffix(e.config.BaseURL, "/")
	if after, ok := strings.CutPrefix(base, "https://"); ok {
		base = "wss://" + after
	} else if after, ok := strings.CutPrefix(base, "http://"); ok {
		base = "ws://" + after
	}
	return base + "/text-to-speech"
}

// SendText feeds a text fragment into the session.
func (e *ElevenLabsWS) SendText(chunk string) error {
	if strings.TrimSpace(chunk) == "" {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.conn == nil || e.closed {
		return ErrStreamClosed
	}
	return e.conn.WriteJSON(map[string]interface{}{"text": chunk})
}

// Flush signals the end of the text; remaining audio drains to the channel.
func (e *ElevenLabsWS) Flush() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.conn == nil || e.closed {
		return ErrStreamClosed
	}
	return e.conn.WriteJSON(map[string]interface{}{"text": ""})
}

// readPump decodes base64 audio frames and forwards them until the server
// marks the stream final.
func (e *ElevenLabsWS) readPump(ctx context.Context) {
	defer close(e.audio)

	for {
		e.mu.Lock()
		conn := e.conn
		e.mu.Unlock()
		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			if !e.isClosed() && websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				e.fail(fmt.Errorf("websocket read: %w", err))
			}
			return
		}

		var frame struct {
			Audio   string `json:"audio"`
			IsFinal bool   `json:"isFinal"`
		}
		if err := json.Unmarshal(message, &frame); err != nil {
			continue
		}

		if frame.Audio != "" {
			chunk, err := base64.StdEncoding.DecodeString(frame.Audio)
			if err != nil {
				e.fail(fmt.Errorf("decode audio frame: %w", err))
				return
			}
			select {
			case e.audio <- chunk:
			case <-ctx.Done():
				return
			}
		}

		if frame.IsFinal {
			return
		}
	}
}

func (e *ElevenLabsWS) keepalive(ctx context.Context) {
	ticker := time.NewTicker(wsKeepalive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.mu.Lock()
			conn := e.conn
			closed := e.closed
			e.mu.Unlock()
			if conn == nil || closed {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (e *ElevenLabsWS) fail(err error) {
	select {
	case e.errCh <- WrapError(providerElevenLabs, err):
	default:
	}
}

func (e *ElevenLabsWS) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// wsStream adapts a websocket session to the AudioStream interface.
type wsStream struct {
	session *ElevenLabsWS
	format  AudioFormat
}

// Read returns the next audio chunk, or (nil, nil) once the server has
// sent the final frame.
func (s *wsStream) Read() ([]byte, error) {
	chunk, ok := <-s.session.Audio()
	if !ok {
		if err := s.session.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return chunk, nil
}

// Close terminates the underlying session.
func (s *wsStream) Close() error {
	return s.session.Close()
}

// Format describes the PCM layout of the chunks.
func (s *wsStream) Format() AudioFormat {
	return s.format
}

var _ AudioStream = (*wsStream)(nil)

// Close terminates the session.
func (e *ElevenLabsWS) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	if e.conn != nil {
		e.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		err := e.conn.Close()
		e.conn = nil
		return err
	}
	return nil
}
