package stt

import (
	"encoding/json"
	"fmt"
)

// Event names on the transcription connection.
const (
	// outbound
	EventStartRecording = "startRecording"
	EventAudio          = "audio"
	EventStopRecording  = "stopRecording"
	// inbound
	EventTranscription = "transcription"
	EventSTTError      = "stt_error"
	EventAuthError     = "auth_error"
)

// Envelope is the framing for every message on the connection.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// StartRecordingData opens an audio stream for a client.
type StartRecordingData struct {
	ClientID int `json:"clientId"`
}

// AudioData carries one fixed-size PCM frame.
type AudioData struct {
	Audio    []float32 `json:"audio"`
	ClientID int       `json:"clientId"`
}

// StopRecordingData ends the audio stream.
type StopRecordingData struct {
	ClientID int `json:"clientId"`
}

// TranscriptionData is an incremental or final text fragment.
type TranscriptionData struct {
	Text    string `json:"text"`
	IsFinal bool   `json:"isFinal"`
}

// ErrorData is the payload of stt_error and auth_error events.
type ErrorData struct {
	Message string `json:"message"`
}

// NewEnvelope marshals a payload under the given event name.
func NewEnvelope(event string, data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s: %w", event, err)
	}
	return Envelope{Event: event, Data: raw}, nil
}

func decodeTranscription(env Envelope) (TranscriptionData, error) {
	var data TranscriptionData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return TranscriptionData{}, fmt.Errorf("decode transcription: %w", err)
	}
	return data, nil
}

func decodeError(env Envelope) ErrorData {
	var data ErrorData
	_ = json.Unmarshal(env.Data, &data)
	return data
}
