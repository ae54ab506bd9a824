package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sashabaranov/go-openai"
)

const (
	DefaultTTSModel = string(openai.TTSModel1)
	DefaultSTTModel = openai.Whisper1
	DefaultVoice    = string(openai.VoiceAlloy)

	chunkSize = 16 * 1024
)

// OpenAI holds the client shared by per-conversation synthesizers and
// recognizers.
type OpenAI struct {
	client   *openai.Client
	ttsModel string
	sttModel string
}

func NewOpenAI(apiKey, baseURL, ttsModel, sttModel string) *OpenAI {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if ttsModel == "" {
		ttsModel = DefaultTTSModel
	}
	if sttModel == "" {
		sttModel = DefaultSTTModel
	}
	return &OpenAI{
		client:   openai.NewClientWithConfig(config),
		ttsModel: ttsModel,
		sttModel: sttModel,
	}
}

func (o *OpenAI) Synthesizer(sink AudioSink) *OpenAISynthesizer {
	return &OpenAISynthesizer{client: o.client, model: o.ttsModel, sink: sink}
}

func (o *OpenAI) Recognizer(filename string) *OpenAIRecognizer {
	if filename == "" {
		filename = "speech.webm"
	}
	return &OpenAIRecognizer{client: o.client, model: o.sttModel, filename: filename, maxAudio: MaxAudioBytes}
}

type OpenAISynthesizer struct {
	client *openai.Client
	model  string
	sink   AudioSink
}

func (s *OpenAISynthesizer) Speak(ctx context.Context, text string, voice VoiceConfig) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	voiceID := voice.VoiceID
	if voiceID == "" {
		voiceID = DefaultVoice
	}
	req := openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.model),
		Input:          text,
		Voice:          openai.SpeechVoice(voiceID),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	}
	if voice.Speed > 0 {
		req.Speed = float64(voice.Speed)
	}

	resp, err := s.client.CreateSpeech(ctx, req)
	if err != nil {
		return fmt.Errorf("create speech: %w", err)
	}
	defer resp.Close()

	buf := make([]byte, chunkSize)
	for {
		n, err := resp.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if werr := s.sink.WriteAudio(ctx, chunk); werr != nil {
				return fmt.Errorf("write audio: %w", werr)
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read speech: %w", err)
		}
	}
}

// OpenAIRecognizer buffers audio between StartListening and StopListening
// and transcribes the whole utterance with Whisper on stop.
type OpenAIRecognizer struct {
	client   *openai.Client
	model    string
	filename string
	maxAudio int

	mu        sync.Mutex
	listening bool
	ctx       context.Context
	language  string
	onResult  func(string)
	buf       bytes.Buffer
}

func (r *OpenAIRecognizer) StartListening(ctx context.Context, language string, onResult func(string)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.listening {
		return ErrAlreadyListening
	}
	r.listening = true
	r.ctx = ctx
	r.language = language
	r.onResult = onResult
	r.buf.Reset()
	return nil
}

// WriteAudio appends captured audio. Audio received while not listening is
// dropped. A chunk that would take the utterance past the upload limit is
// rejected with ErrAudioTooLarge and the audio buffered so far is kept.
func (r *OpenAIRecognizer) WriteAudio(data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.listening {
		return nil
	}
	if r.buf.Len()+len(data) > r.maxAudio {
		return ErrAudioTooLarge
	}
	r.buf.Write(data)
	return nil
}

func (r *OpenAIRecognizer) Listening() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listening
}

func (r *OpenAIRecognizer) StopListening() error {
	r.mu.Lock()
	if !r.listening {
		r.mu.Unlock()
		return ErrNotListening
	}
	r.listening = false
	audio := bytes.Clone(r.buf.Bytes())
	r.buf.Reset()
	ctx, language, onResult := r.ctx, r.language, r.onResult
	r.mu.Unlock()

	if len(audio) == 0 {
		return nil
	}

	resp, err := r.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    r.model,
		Reader:   bytes.NewReader(audio),
		FilePath: r.filename,
		Language: whisperLanguage(language),
	})
	if err != nil {
		return fmt.Errorf("transcribe: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text != "" && onResult != nil {
		onResult(text)
	}
	return nil
}

// whisperLanguage reduces a BCP-47 tag such as "en-US" to the ISO-639-1 code
// Whisper expects.
func whisperLanguage(tag string) string {
	tag = strings.TrimSpace(tag)
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		tag = tag[:i]
	}
	return strings.ToLower(tag)
}
