package transcriber

import (
	"context"
	"fmt"
	"sync"
)

type FakeTranscriber struct {
	text string
	err  error

	mu    sync.Mutex
	calls []Audio
}

func NewFake(text string, err error) *FakeTranscriber {
	return &FakeTranscriber{text: text, err: err}
}

func (f *FakeTranscriber) Transcribe(_ context.Context, a Audio) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, a)
	f.mu.Unlock()
	if f.err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, f.err)
	}
	return f.text, nil
}

// Calls returns every audio the fake received.
func (f *FakeTranscriber) Calls() []Audio {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Audio(nil), f.calls...)
}
