package audio

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/care-session/pkg/util"
)

func TestFramerAccumulatesAcrossChunks(t *testing.T) {
	f := NewFramer(8)

	require.Empty(t, f.Push(make([]float32, 5)))
	require.Equal(t, 5, f.Pending())

	frames := f.Push(make([]float32, 5))
	require.Len(t, frames, 1)
	require.Len(t, frames[0], 8)
	require.Equal(t, 2, f.Pending())
}

func TestFramerEmitsMultipleFramesInOrder(t *testing.T) {
	f := NewFramer(4)
	chunk := make([]float32, 10)
	for i := range chunk {
		chunk[i] = float32(i)
	}

	frames := f.Push(chunk)
	require.Len(t, frames, 2)
	require.Equal(t, float32(0), frames[0][0])
	require.Equal(t, float32(4), frames[1][0])
	require.Equal(t, 2, f.Pending())
}

func TestFramerDiscardDropsPartialFrame(t *testing.T) {
	f := NewFramer(8)
	f.Push(make([]float32, 5))
	f.Discard()
	require.Zero(t, f.Pending())

	// A full frame after discard must not leak old samples.
	frames := f.Push(make([]float32, 8))
	require.Len(t, frames, 1)
}

func TestDeviceGateExclusiveOwnership(t *testing.T) {
	g := NewDeviceGate()

	require.NoError(t, g.Acquire())
	require.True(t, g.Held())

	err := g.Acquire()
	require.Error(t, err)
	require.Equal(t, util.CodeDeviceBusy, util.CodeOf(err))

	g.Release()
	require.NoError(t, g.Acquire())
}

func TestDeviceGateReleaseIsIdempotent(t *testing.T) {
	g := NewDeviceGate()
	require.NoError(t, g.Acquire())
	g.Release()
	g.Release()
	require.False(t, g.Held())
}
