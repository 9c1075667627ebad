// Package audio owns microphone capture plumbing: the capture source
// contract, exclusive ownership of the device handle, and assembly of raw
// sample callbacks into fixed-size frames.
package audio

import (
	"context"
)

// Format describes the capture format the transcription backend expects.
type Format struct {
	SampleRate int
	Channels   int
}

// Source produces raw PCM sample chunks from a capture device. Chunk sizes
// follow the OS callback cadence and carry no framing guarantees; the
// Framer turns them into fixed-size frames.
type Source interface {
	// Start requests device access and begins producing chunks. The
	// returned channel is closed when capture ends. Permission failures
	// surface as a PERMISSION_DENIED ClientError.
	Start(ctx context.Context, format Format) (<-chan []float32, error)
	// Stop releases the device. Safe to call more than once.
	Stop() error
}
