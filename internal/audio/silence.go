package audio

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/care-session/pkg/util"
)

// SilenceSource emits zeroed chunks at the capture cadence. It stands in
// for real microphone hardware in development environments and smoke
// tests, the same way the mock transcription hook did in the original
// front-end.
type SilenceSource struct {
	chunkSamples int
	interval     time.Duration

	mu      sync.Mutex
	running bool
	stop    chan struct{}
}

// NewSilenceSource builds a source emitting chunkSamples zeros every
// interval.
func NewSilenceSource(chunkSamples int, interval time.Duration) *SilenceSource {
	if chunkSamples <= 0 {
		chunkSamples = 4096
	}
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &SilenceSource{chunkSamples: chunkSamples, interval: interval}
}

// Start begins emitting chunks until Stop or context cancellation.
func (s *SilenceSource) Start(ctx context.Context, _ Format) (<-chan []float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil, util.NewDeviceBusy()
	}
	s.running = true
	s.stop = make(chan struct{})
	stop := s.stop

	out := make(chan []float32)
	go func() {
		defer close(out)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				chunk := make([]float32, s.chunkSamples)
				select {
				case out <- chunk:
				case <-ctx.Done():
					return
				case <-stop:
					return
				}
			}
		}
	}()
	return out, nil
}

// Stop ends emission. Safe to call more than once.
func (s *SilenceSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.running = false
	close(s.stop)
	return nil
}
