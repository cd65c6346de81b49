package testutil

import (
	"bytes"
	"sync"
	"testing"

	"github.com/systmms/secretsadapter/internal/logging"
)

// TestLogger captures log output for validation in tests, typically to check
// that secret values never reach the log.
//
// Example usage:
//
//	logger := NewTestLogger(t)
//	p, _ := providers.NewBitwardenProvider("bitwarden", cfg,
//	    providers.WithBitwardenLogger(logger.Logger))
//	...
//	assert.NotContains(t, logger.Output(), "hunter2")
type TestLogger struct {
	*logging.Logger
	buffer *syncBuffer
}

// NewTestLogger creates a debug-level logger writing to an in-memory buffer.
func NewTestLogger(t *testing.T) *TestLogger {
	t.Helper()

	buf := &syncBuffer{}
	return &TestLogger{
		Logger: logging.NewWithWriter(buf, true, true),
		buffer: buf,
	}
}

// Output returns everything logged so far.
func (l *TestLogger) Output() string {
	return l.buffer.String()
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
