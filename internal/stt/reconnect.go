package stt

import (
	"time"

	"github.com/spec-kit/care-session/internal/config"
)

// ReconnectPolicy is the single source of truth for handshake retries:
// how many attempts, and how long to wait before each one.
type ReconnectPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultReconnectPolicy mirrors the backend's recommended client
// settings: 5 attempts starting at 1s, capped at 10s.
func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		MaxDelay:    10 * time.Second,
	}
}

// PolicyFromConfig builds a policy from env configuration.
func PolicyFromConfig(cfg config.STTConfig) ReconnectPolicy {
	p := DefaultReconnectPolicy()
	if cfg.ReconnectMaxAttempts > 0 {
		p.MaxAttempts = cfg.ReconnectMaxAttempts
	}
	if cfg.ReconnectBaseDelayMillis > 0 {
		p.BaseDelay = time.Duration(cfg.ReconnectBaseDelayMillis) * time.Millisecond
	}
	if cfg.ReconnectMaxDelayMillis > 0 {
		p.MaxDelay = time.Duration(cfg.ReconnectMaxDelayMillis) * time.Millisecond
	}
	return p
}

// Delay returns the wait before the given 1-based attempt, doubling from
// BaseDelay and capped at MaxDelay.
func (p ReconnectPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// Exhausted reports whether the attempt ceiling has been reached.
func (p ReconnectPolicy) Exhausted(attempt int) bool {
	return attempt > p.MaxAttempts
}
