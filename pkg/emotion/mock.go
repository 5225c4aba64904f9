package emotion

import (
	"context"
	"sync"
)

// Mock implements Provider for testing.
// All methods can be customized via function fields.
type Mock struct {
	// DetectFunc is called when Detect is invoked.
	// If nil, returns {neutral: 1.0}.
	DetectFunc func(ctx context.Context, text string) (Distribution, error)

	// HealthFunc is called when Health is invoked.
	// If nil, returns nil (healthy).
	HealthFunc func(ctx context.Context) error

	// CloseFunc is called when Close is invoked.
	CloseFunc func() error

	mu    sync.Mutex
	calls []string
}

// NewMock creates a mock provider that always reports neutral.
func NewMock() *Mock {
	return &Mock{}
}

// WithError returns a mock whose Detect and Health always fail.
func WithError(err error) *Mock {
	return &Mock{
		DetectFunc: func(ctx context.Context, text string) (Distribution, error) {
			return nil, err
		},
		HealthFunc: func(ctx context.Context) error {
			return err
		},
	}
}

// Detect calls DetectFunc and records the text.
func (m *Mock) Detect(ctx context.Context, text string) (Distribution, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	m.mu.Unlock()

	if m.DetectFunc != nil {
		return m.DetectFunc(ctx, text)
	}
	return Neutral(), nil
}

// Health calls HealthFunc.
func (m *Mock) Health(ctx context.Context) error {
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

// Close calls CloseFunc.
func (m *Mock) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Calls returns the texts passed to Detect so far.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// Verify Mock implements Provider at compile time.
var _ Provider = (*Mock)(nil)
