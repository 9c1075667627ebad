package stt

import (
	"strings"
	"sync"
)

// Transcript accumulates final text fragments in arrival order. No
// de-duplication: overlapping backend fragments are visible to the caller
// as-is.
type Transcript struct {
	mu    sync.Mutex
	parts []string
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append adds a final fragment.
func (t *Transcript) Append(fragment string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.parts = append(t.parts, fragment)
}

// Text returns the accumulated transcript, fragments joined by a single
// space.
func (t *Transcript) Text() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.parts, " ")
}

// Clear resets the transcript to empty.
func (t *Transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.parts = nil
}
