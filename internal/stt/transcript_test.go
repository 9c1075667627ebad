package stt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTranscriptJoinsFragmentsInOrder(t *testing.T) {
	tr := NewTranscript()
	tr.Append("f1")
	tr.Append("f2")
	tr.Append("f3")

	require.Equal(t, "f1 f2 f3", tr.Text())
}

func TestTranscriptKeepsDuplicates(t *testing.T) {
	tr := NewTranscript()
	tr.Append("again")
	tr.Append("again")

	require.Equal(t, "again again", tr.Text())
}

func TestTranscriptClear(t *testing.T) {
	tr := NewTranscript()
	tr.Append("something")
	tr.Clear()

	require.Empty(t, tr.Text())

	tr.Append("fresh")
	require.Equal(t, "fresh", tr.Text())
}
