package trace

import (
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// FileTracer writes primitive events to a file in CBOR format.
// It is safe for concurrent use from multiple goroutines.
type FileTracer struct {
	file    *os.File
	encoder *cbor.Encoder
	mu      sync.Mutex
	closed  bool
}

// NewFileTracer creates a new FileTracer that writes to the specified path.
// If the file exists, new events are appended. The file is created with
// permissions 0644 if it doesn't exist.
func NewFileTracer(path string) (*FileTracer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &FileTracer{
		file:    f,
		encoder: NewEncoder(f),
	}, nil
}

// Trace writes an event to the trace file.
// This method is safe for concurrent use.
func (t *FileTracer) Trace(event Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}

	// Ignore encoding errors - tracing should not disrupt the application
	_ = t.encoder.Encode(event)
}

// Close closes the trace file.
// It is safe to call Close multiple times.
// After Close is called, subsequent Trace calls are silently ignored.
func (t *FileTracer) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}

	t.closed = true
	return t.file.Close()
}

// Compile-time interface satisfaction check.
var _ Tracer = (*FileTracer)(nil)
