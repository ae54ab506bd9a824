package speech

import (
	"context"
	"errors"
)

var (
	ErrAlreadyListening = errors.New("already listening")
	ErrNotListening     = errors.New("not listening")
	ErrAudioTooLarge    = errors.New("captured audio exceeds the upload limit")
)

// MaxAudioBytes is the largest utterance a recognizer buffers. It matches
// the transcription endpoint's upload limit.
const MaxAudioBytes = 25 << 20

type VoiceConfig struct {
	VoiceID string
	Speed   float32
}

// Recognizer turns captured audio into text. onResult is called once per
// recognised utterance.
type Recognizer interface {
	StartListening(ctx context.Context, language string, onResult func(string)) error
	StopListening() error
}

// Synthesizer renders text as audio for the listener.
type Synthesizer interface {
	Speak(ctx context.Context, text string, voice VoiceConfig) error
}

// AudioSink receives synthesized audio chunks.
type AudioSink interface {
	WriteAudio(ctx context.Context, data []byte) error
}
