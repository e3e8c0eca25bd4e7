// Package transcription derives text from audio attachments via the OpenAI
// Whisper API.
package transcription

import (
	"bytes"
	"context"

	"github.com/go-faster/errors"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type Config struct {
	APIKey string
	Model  string
}

type WhisperTranscriber struct {
	client openai.Client
	model  string
}

func NewWhisperTranscriber(cfg Config) *WhisperTranscriber {
	model := cfg.Model
	if model == "" {
		model = string(openai.AudioModelWhisper1)
	}
	return &WhisperTranscriber{
		client: openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:  model,
	}
}

func (t *WhisperTranscriber) Transcribe(ctx context.Context, audio []byte, filename, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", errors.New("empty audio payload")
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(audio), filename, mimeType),
		Model: openai.AudioModel(t.model),
	})
	if err != nil {
		return "", errors.Wrap(err, "whisper transcription")
	}
	return resp.Text, nil
}
