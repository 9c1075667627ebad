// Package stt manages the real-time streaming transcription session:
// microphone frames out, incremental text back, connection health tracked
// by an explicit state machine. All state transitions and outbound
// notifications flow through a single dispatcher goroutine, so ordering
// and cancellation are enforced in one place instead of scattered across
// handler closures.
package stt

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/care-session/internal/audio"
	"github.com/spec-kit/care-session/internal/observability"
	"github.com/spec-kit/care-session/pkg/util"
)

// Callbacks deliver session output to the caller. All callbacks are
// invoked from the dispatcher goroutine, in emission order.
type Callbacks struct {
	// OnTranscript receives each text fragment in arrival order. Final
	// fragments are also appended to the accumulated transcript.
	OnTranscript func(text string, final bool)
	// OnStateChange observes every state transition.
	OnStateChange func(state State)
	// OnError receives surfaced failures; errors are reported here rather
	// than returned across asynchronous boundaries.
	OnError func(err error)
}

// Options bundles session construction dependencies.
type Options struct {
	Dialer       Dialer
	Source       audio.Source
	Gate         *audio.DeviceGate
	Policy       ReconnectPolicy
	Handshake    Handshake
	Format       audio.Format
	FrameSamples int
	Logger       *zap.Logger
	Metrics      *observability.Metrics
	Callbacks    Callbacks
}

// Session is one transcription session instance: created when the journal
// panel opens, closed when it closes. Not reusable after Close.
type Session struct {
	opts       Options
	clientID   int
	transcript *Transcript

	events   chan event
	commands chan func()
	done     chan struct{}

	openOnce  sync.Once
	closeOnce sync.Once
	cancel    context.CancelFunc

	// dispatcher-owned; no other goroutine touches these.
	ctx       context.Context
	state     State
	transport Transport
	gen       uint64
	attempts  int
	capturing bool
	framer    *audio.Framer

	mu     sync.Mutex
	public State
}

type eventKind int

const (
	evConnected eventKind = iota
	evConnectFailed
	evRetry
	evMessage
	evTransportLost
	evFrame
	evCaptureEnded
)

// event is the single message type the dispatcher consumes. gen ties each
// event to the connection epoch it belongs to; stale events from torn-down
// epochs are discarded.
type event struct {
	kind      eventKind
	gen       uint64
	transport Transport
	env       Envelope
	err       error
	frame     []float32
}

// NewSession builds a session. Open must be called before any operation.
func NewSession(opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Gate == nil {
		opts.Gate = audio.NewDeviceGate()
	}
	if opts.Policy.MaxAttempts == 0 {
		opts.Policy = DefaultReconnectPolicy()
	}
	if opts.FrameSamples <= 0 {
		opts.FrameSamples = 8000
	}
	if opts.Format.SampleRate == 0 {
		opts.Format = audio.Format{SampleRate: 16000, Channels: 1}
	}
	clientID := opts.Handshake.ClientID
	if clientID == 0 {
		// Random per-session id so the backend can tell concurrent
		// sessions apart.
		clientID = rand.Intn(10000)
		opts.Handshake.ClientID = clientID
	}
	return &Session{
		opts:       opts,
		clientID:   clientID,
		transcript: NewTranscript(),
		events:     make(chan event, 256),
		commands:   make(chan func()),
		done:       make(chan struct{}),
		state:      StateDisconnected,
		public:     StateDisconnected,
	}
}

// ClientID returns the per-session identifier sent to the backend.
func (s *Session) ClientID() int {
	return s.clientID
}

// Open starts the dispatcher and initiates the handshake. Safe to call
// once per instance.
func (s *Session) Open(ctx context.Context) {
	s.openOnce.Do(func() {
		ctx, cancel := context.WithCancel(ctx)
		s.cancel = cancel
		go s.run(ctx)
	})
}

// Close tears the session down: capture released, connection closed,
// dispatcher stopped. A handshake completing after Close must not apply a
// late transition; its transport is closed and discarded.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.cancel == nil {
			close(s.done)
			return
		}
		s.cancel()
		<-s.done
	})
}

// State reports the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.public
}

// Transcript returns the accumulated final text.
func (s *Session) Transcript() string {
	return s.transcript.Text()
}

// ClearTranscript resets the accumulated text without touching connection
// or capture state.
func (s *Session) ClearTranscript() {
	s.transcript.Clear()
}

// StartCapture begins streaming microphone frames. It requires a
// connected, idle session; when already capturing it is a no-op.
func (s *Session) StartCapture(ctx context.Context) error {
	var result error
	if err := s.exec(func() { result = s.startCapture(ctx) }); err != nil {
		return err
	}
	return result
}

// StopCapture ends the stream and releases the microphone. A no-op when
// not capturing; explicit user action and component teardown share this
// exact path.
func (s *Session) StopCapture() {
	_ = s.exec(func() { s.stopCapture(true) })
}

// exec runs fn on the dispatcher goroutine and waits for it.
func (s *Session) exec(fn func()) error {
	ran := make(chan struct{})
	wrapped := func() {
		fn()
		close(ran)
	}
	select {
	case s.commands <- wrapped:
	case <-s.done:
		return util.NewNotConnected()
	}
	select {
	case <-ran:
		return nil
	case <-s.done:
		select {
		case <-ran:
			return nil
		default:
			return util.NewNotConnected()
		}
	}
}

// post delivers an event to the dispatcher unless the session is gone, in
// which case any transport riding the event is closed instead of leaked.
func (s *Session) post(ev event) {
	select {
	case s.events <- ev:
	case <-s.done:
		if ev.transport != nil {
			_ = ev.transport.Close()
		}
	}
}

func (s *Session) run(ctx context.Context) {
	s.ctx = ctx
	s.connect()
	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return
		case fn := <-s.commands:
			fn()
		case ev := <-s.events:
			s.handle(ev)
		}
	}
}

func (s *Session) shutdown() {
	s.stopCapture(true)
	if s.transport != nil {
		_ = s.transport.Close()
		s.transport = nil
	}
	s.setState(StateClosed)
	close(s.done)
}

func (s *Session) connect() {
	s.gen++
	s.setState(StateConnecting)
	gen := s.gen
	go func() {
		t, err := s.opts.Dialer.Dial(s.ctx, s.opts.Handshake)
		if err != nil {
			s.post(event{kind: evConnectFailed, gen: gen, err: err})
			return
		}
		s.post(event{kind: evConnected, gen: gen, transport: t})
	}()
}

func (s *Session) handle(ev event) {
	if ev.gen != s.gen {
		// Stale epoch: a connection or capture torn down before this
		// event arrived.
		if ev.transport != nil {
			_ = ev.transport.Close()
		}
		return
	}

	switch ev.kind {
	case evConnected:
		s.transport = ev.transport
		s.attempts = 0
		s.setState(StateIdle)
		go s.reader(ev.gen, ev.transport)

	case evConnectFailed:
		if util.CodeOf(ev.err) == util.CodeAuthorizationRejected {
			s.fail(ev.err)
			return
		}
		s.opts.Logger.Warn("transcription handshake failed", zap.Error(ev.err))
		s.scheduleRetry()

	case evRetry:
		s.connect()

	case evTransportLost:
		s.transportLost(ev.err)

	case evMessage:
		s.dispatchMessage(ev.env)

	case evFrame:
		s.sendFrames(ev.frame)

	case evCaptureEnded:
		if s.capturing {
			s.opts.Logger.Warn("capture source ended unexpectedly")
			s.stopCapture(true)
		}
	}
}

func (s *Session) reader(gen uint64, t Transport) {
	for {
		env, err := t.Read()
		if err != nil {
			s.post(event{kind: evTransportLost, gen: gen, err: err})
			return
		}
		s.post(event{kind: evMessage, gen: gen, env: env})
	}
}

func (s *Session) dispatchMessage(env Envelope) {
	switch env.Event {
	case EventTranscription:
		data, err := decodeTranscription(env)
		if err != nil {
			s.opts.Logger.Warn("bad transcription payload", zap.Error(err))
			return
		}
		if data.IsFinal {
			s.transcript.Append(data.Text)
		}
		if s.opts.Callbacks.OnTranscript != nil {
			s.opts.Callbacks.OnTranscript(data.Text, data.IsFinal)
		}

	case EventSTTError:
		data := decodeError(env)
		s.emitError(util.NewClientError(util.CodeBackendError, data.Message, true, nil))

	case EventAuthError:
		data := decodeError(env)
		s.opts.Metrics.Inc(observability.MetricSTTAuthRejected)
		s.fail(util.NewAuthorizationRejected(data.Message))

	default:
		s.opts.Logger.Debug("unhandled event", zap.String("event", env.Event))
	}
}

// transportLost handles a dropped connection: capture is force-stopped and
// surfaced if it was active, then a bounded reconnect begins. Idle drops
// reconnect silently.
func (s *Session) transportLost(cause error) {
	if s.transport != nil {
		_ = s.transport.Close()
		s.transport = nil
	}
	s.opts.Metrics.Inc(observability.MetricSTTTransportDropped)

	if s.capturing {
		s.stopCapture(false)
		s.emitError(util.NewTransportDropped(cause))
	}
	s.setState(StateDisconnected)
	if s.ctx.Err() == nil {
		s.scheduleRetry()
	}
}

func (s *Session) scheduleRetry() {
	s.attempts++
	if s.opts.Policy.Exhausted(s.attempts) {
		s.setState(StateDisconnected)
		s.emitError(util.NewTransportDropped(errors.New("reconnect attempts exhausted")))
		return
	}
	s.opts.Metrics.Inc(observability.MetricSTTReconnectAttempt)
	gen := s.gen
	delay := s.opts.Policy.Delay(s.attempts)
	time.AfterFunc(delay, func() {
		s.post(event{kind: evRetry, gen: gen})
	})
}

// fail is the terminal authorization path: no retry, capture released, an
// explicit reauthenticate error surfaced.
func (s *Session) fail(cause error) {
	s.stopCapture(false)
	if s.transport != nil {
		_ = s.transport.Close()
		s.transport = nil
	}
	s.setState(StateFailed)
	s.emitError(cause)
}

func (s *Session) startCapture(ctx context.Context) error {
	if s.state == StateCapturing {
		return nil
	}
	if s.state != StateIdle {
		return util.NewNotConnected()
	}
	if err := s.opts.Gate.Acquire(); err != nil {
		return err
	}
	chunks, err := s.opts.Source.Start(ctx, s.opts.Format)
	if err != nil {
		s.opts.Gate.Release()
		return err
	}

	env, err := NewEnvelope(EventStartRecording, StartRecordingData{ClientID: s.clientID})
	if err == nil {
		err = s.transport.Write(env)
	}
	if err != nil {
		_ = s.opts.Source.Stop()
		s.opts.Gate.Release()
		s.transportLost(err)
		return util.NewTransportDropped(err)
	}

	s.framer = audio.NewFramer(s.opts.FrameSamples)
	s.capturing = true
	s.setState(StateCapturing)

	gen := s.gen
	go func() {
		for chunk := range chunks {
			s.post(event{kind: evFrame, gen: gen, frame: chunk})
		}
		s.post(event{kind: evCaptureEnded, gen: gen})
	}()
	return nil
}

// stopCapture releases the microphone exactly once and drops any buffered
// partial frame. notifyBackend is false when the connection is already
// gone.
func (s *Session) stopCapture(notifyBackend bool) {
	if !s.capturing {
		return
	}
	s.capturing = false
	_ = s.opts.Source.Stop()
	s.opts.Gate.Release()
	if s.framer != nil {
		s.framer.Discard()
	}

	if notifyBackend && s.transport != nil {
		env, err := NewEnvelope(EventStopRecording, StopRecordingData{ClientID: s.clientID})
		if err == nil {
			err = s.transport.Write(env)
		}
		if err != nil {
			s.opts.Logger.Warn("stop notification failed", zap.Error(err))
		}
	}

	if s.state == StateCapturing {
		s.setState(StateIdle)
	}
}

func (s *Session) sendFrames(chunk []float32) {
	if !s.capturing || s.transport == nil {
		return
	}
	for _, frame := range s.framer.Push(chunk) {
		env, err := NewEnvelope(EventAudio, AudioData{Audio: frame, ClientID: s.clientID})
		if err == nil {
			err = s.transport.Write(env)
		}
		if err != nil {
			s.transportLost(err)
			return
		}
		s.opts.Metrics.Inc(observability.MetricSTTFramesSent)
	}
}

func (s *Session) setState(st State) {
	if s.state == st {
		return
	}
	s.state = st
	s.mu.Lock()
	s.public = st
	s.mu.Unlock()
	s.opts.Logger.Debug("state change", zap.String("state", string(st)))
	if s.opts.Callbacks.OnStateChange != nil {
		s.opts.Callbacks.OnStateChange(st)
	}
}

func (s *Session) emitError(err error) {
	if s.opts.Callbacks.OnError != nil {
		s.opts.Callbacks.OnError(err)
	}
}
