package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sakina-labs/sakina/internal/httpc"
)

const providerAnthropic = "anthropic"

const anthropicVersion = "2023-06-01"

// Anthropic implements the Provider interface for Anthropic's Messages API.
// Note: Anthropic uses a different wire format than OpenAI (system prompt
// as a top-level field, x-api-key header), so we implement it directly.
type Anthropic struct {
	apiKey string
	config *Config
	http   *http.Client
	logger *slog.Logger
}

// NewAnthropic creates an Anthropic provider.
func NewAnthropic(opts ...Option) (*Anthropic, error) {
	cfg := DefaultConfig()
	cfg.BaseURL = "https://api.anthropic.com/v1"
	cfg.Model = "claude-opus-4-20250514"
	cfg.Apply(opts...)

	if cfg.APIKey == "" {
		return nil, WrapError(providerAnthropic, ErrNoAPIKey)
	}

	return &Anthropic{
		apiKey: cfg.APIKey,
		config: cfg,
		http:   httpc.NewClient(cfg.Timeout),
		logger: cfg.Logger.With("component", "inference.anthropic"),
	}, nil
}

// Chat generates a chat completion using the Messages API.
func (a *Anthropic) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = a.config.Model
	}

	system, messages := a.convertMessages(req.Messages)

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = a.config.MaxTokens
	}

	payload := map[string]interface{}{
		"model":      model,
		"max_tokens": maxTokens,
		"messages":   messages,
	}
	if system != "" {
		payload["system"] = system
	}
	if req.Temperature > 0 {
		payload["temperature"] = req.Temperature
	}
	if len(req.Stop) > 0 {
		payload["stop_sequences"] = req.Stop
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, WrapError(providerAnthropic, err)
	}

	url := strings.TrimSuffix(a.config.BaseURL, "/") + "/messages"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(providerAnthropic, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.http.Do(httpReq)
	if err != nil {
		return nil, WrapError(providerAnthropic, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, a.parseError(resp)
	}

	var result anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, WrapError(providerAnthropic, fmt.Errorf("decode response: %w", err))
	}

	var content strings.Builder
	for _, block := range result.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}
	if content.Len() == 0 {
		return nil, WrapError(providerAnthropic, ErrEmptyResponse)
	}

	a.logger.Debug("chat completed",
		"model", result.Model,
		"latency_ms", time.Since(start).Milliseconds(),
	)

	return &ChatResponse{
		Message: Message{
			Role:    RoleAssistant,
			Content: strings.TrimSpace(content.String()),
		},
		FinishReason: result.StopReason,
		Usage: Usage{
			PromptTokens:     result.Usage.InputTokens,
			CompletionTokens: result.Usage.OutputTokens,
			TotalTokens:      result.Usage.InputTokens + result.Usage.OutputTokens,
		},
		Model:     result.Model,
		LatencyMs: time.Since(start).Milliseconds(),
	}, nil
}

// convertMessages splits out the system prompt (a top-level field for
// Anthropic) and maps the rest to the Messages API format.
func (a *Anthropic) convertMessages(messages []Message) (string, []map[string]string) {
	var system strings.Builder
	converted := make([]map[string]string, 0, len(messages))

	for _, m := range messages {
		if m.Role == RoleSystem {
			if system.Len() > 0 {
				system.WriteString("\n\n")
			}
			system.WriteString(m.Content)
			continue
		}
		converted = append(converted, map[string]string{
			"role":    string(m.Role),
			"content": m.Content,
		})
	}

	return system.String(), converted
}

func (a *Anthropic) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var apiResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	message := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &apiResp); err == nil && apiResp.Error.Message != "" {
		message = apiResp.Error.Message
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Provider:   providerAnthropic,
	}
}

// Health checks API key validity with a minimal request.
func (a *Anthropic) Health(ctx context.Context) error {
	_, err := a.Chat(ctx, &ChatRequest{
		Messages:  []Message{NewUserMessage("ping")},
		MaxTokens: 1,
	})
	return err
}

// Close releases resources. The HTTP client has none to release.
func (a *Anthropic) Close() error {
	return nil
}

// anthropicResponse is the Messages API wire format.
type anthropicResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Verify Anthropic implements Provider at compile time.
var _ Provider = (*Anthropic)(nil)
