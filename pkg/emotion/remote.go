package emotion

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

// labelOrder is the fixed registration order for model outputs. It
// determines tie-break preference in Distribution.Primary.
var labelOrder = []string{LabelNegative, LabelNeutral, LabelPositive}

// Remote calls a hosted text-classification model over HTTP.
// It speaks the inference-endpoint protocol used by Hugging Face hosted
// models: POST {base}/models/{model} with {"inputs": text}.
type Remote struct {
	config *Config
	client *http.Client
	logger *slog.Logger
}

// NewRemote creates a remote emotion provider.
func NewRemote(opts ...Option) (*Remote, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	return &Remote{
		config: cfg,
		client: httpc.NewClient(cfg.Timeout),
		logger: cfg.Logger.With("component", "emotion.remote"),
	}, nil
}

// classification is one label result from the inference API.
type classification struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Detect classifies the text and returns scores in fixed label order
// (negative, neutral, positive).
func (r *Remote) Detect(ctx context.Context, text string) (Distribution, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	start := time.Now()

	payload, err := json.Marshal(map[string]string{"inputs": text})
	if err != nil {
		return nil, fmt.Errorf("emotion: marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s", strings.TrimSuffix(r.config.BaseURL, "/"), r.config.Model)

	var results []classification
	for attempt := 0; ; attempt++ {
		results, err = r.post(ctx, url, payload)
		if err == nil {
			break
		}
		apiErr, ok := err.(*APIError)
		if !ok || !apiErr.IsRetryable() || attempt >= r.config.MaxRetries {
			return nil, err
		}
		r.logger.Warn("inference request failed, retrying",
			"attempt", attempt+1,
			"error", err,
		)
		select {
		case <-time.After(r.config.RetryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	dist := mapResults(results)
	if len(dist) == 0 {
		return nil, fmt.Errorf("%w: no recognized labels in response", ErrModelUnavailable)
	}

	r.logger.Debug("emotion detected",
		"distribution", dist.String(),
		"latency_ms", time.Since(start).Milliseconds(),
	)

	return dist, nil
}

func (r *Remote) post(ctx context.Context, url string, payload []byte) ([]classification, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("emotion: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.config.APIKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	// The API returns either [[{label,score},...]] or [{label,score},...]
	// depending on the model pipeline.
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("emotion: read response: %w", err)
	}

	var nested [][]classification
	if err := json.Unmarshal(raw, &nested); err == nil && len(nested) > 0 {
		return nested[0], nil
	}

	var flat []classification
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("emotion: decode response: %w", err)
	}
	return flat, nil
}

// mapResults converts API classifications onto the canonical label set,
// preserving the fixed registration order.
func mapResults(results []classification) Distribution {
	scores := make(map[string]float64, len(results))
	for _, c := range results {
		if label, ok := canonicalLabel(c.Label); ok {
			scores[label] = c.Score
		}
	}

	dist := make(Distribution, 0, len(labelOrder))
	for _, label := range labelOrder {
		if score, ok := scores[label]; ok {
			dist = append(dist, Score{Label: label, Confidence: score})
		}
	}
	return dist
}

// canonicalLabel maps model output labels onto the fixed label set.
// Sentiment models emit either named labels or positional LABEL_n.
func canonicalLabel(label string) (string, bool) {
	switch strings.ToLower(label) {
	case LabelNegative, "label_0", "neg":
		return LabelNegative, true
	case LabelNeutral, "label_1", "neu":
		return LabelNeutral, true
	case LabelPositive, "label_2", "pos":
		return LabelPositive, true
	}
	return "", false
}

// Health checks connectivity and API key validity.
func (r *Remote) Health(ctx context.Context) error {
	_, err := r.Detect(ctx, "اختبار")
	return err
}

// Close releases resources. The HTTP client has none to release.
func (r *Remote) Close() error {
	return nil
}

// Verify Remote implements Provider at compile time.
var _ Provider = (*Remote)(nil)
