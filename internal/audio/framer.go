package audio

// Framer accumulates raw capture chunks and emits fixed-size frames.
// Frames are emitted only once enough samples have accumulated, not on
// every raw callback. A partial trailing frame is discarded on stop, never
// padded or sent.
type Framer struct {
	frameSamples int
	buf          []float32
}

// NewFramer builds a framer emitting frames of frameSamples samples.
func NewFramer(frameSamples int) *Framer {
	if frameSamples <= 0 {
		frameSamples = 8000
	}
	return &Framer{frameSamples: frameSamples}
}

// Push appends a raw chunk and returns all complete frames now available,
// in capture order.
func (f *Framer) Push(samples []float32) [][]float32 {
	f.buf = append(f.buf, samples...)

	var frames [][]float32
	for len(f.buf) >= f.frameSamples {
		frame := make([]float32, f.frameSamples)
		copy(frame, f.buf[:f.frameSamples])
		frames = append(frames, frame)
		f.buf = f.buf[f.frameSamples:]
	}
	return frames
}

// Pending reports how many samples are buffered short of a frame.
func (f *Framer) Pending() int {
	return len(f.buf)
}

// Discard drops any buffered partial frame.
func (f *Framer) Discard() {
	f.buf = nil
}
