package stt

// State models the transcription session lifecycle.
type State string

const (
	// StateDisconnected means no live connection; reconnects may be in
	// flight or exhausted.
	StateDisconnected State = "disconnected"
	// StateConnecting means the handshake is in flight.
	StateConnecting State = "connecting"
	// StateIdle means connected and not capturing.
	StateIdle State = "idle"
	// StateCapturing means connected with microphone frames streaming.
	StateCapturing State = "capturing"
	// StateFailed is terminal: the backend rejected the credential. No
	// auto-retry; the caller must re-run session bootstrap.
	StateFailed State = "failed"
	// StateClosed is terminal for this session instance.
	StateClosed State = "closed"
)

// Connected reports whether the session holds a live transport.
func (s State) Connected() bool {
	return s == StateIdle || s == StateCapturing
}
