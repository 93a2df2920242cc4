package speech

import (
	"context"
	"sync"
	"time"
)

// MockEngine records chunks instead of vocalizing them. Used in tests and
// as the runtime fallback when no TTS command is installed.
type MockEngine struct {
	mu      sync.Mutex
	spoken  []string
	stopped chan struct{}

	// Delay stretches each Speak call so tests can interrupt mid-chunk.
	Delay time.Duration
	// FailOn makes Speak return errFail for a matching chunk.
	FailOn string
}

func NewMockEngine() *MockEngine {
	return &MockEngine{stopped: make(chan struct{})}
}

func (m *MockEngine) Name() string { return "mock" }

func (m *MockEngine) Speak(ctx context.Context, text string, volume float64, rate int) error {
	m.mu.Lock()
	if m.FailOn != "" && m.FailOn == text {
		m.mu.Unlock()
		return errMockFail
	}
	m.spoken = append(m.spoken, text)
	delay := m.Delay
	stopped := m.stopped
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-stopped:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (m *MockEngine) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	select {
	case <-m.stopped:
	default:
		close(m.stopped)
	}
	m.stopped = make(chan struct{})
}

// Spoken returns a copy of every chunk handed to Speak so far.
func (m *MockEngine) Spoken() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.spoken))
	copy(out, m.spoken)
	return out
}

type mockErr string

func (e mockErr) Error() string { return string(e) }

const errMockFail = mockErr("mock engine failure")
