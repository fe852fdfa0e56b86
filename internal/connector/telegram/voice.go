package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	defaultWhisperURL   = "https://api.openai.com/v1/audio/transcriptions"
	defaultWhisperModel = "whisper-1"
	maxVoiceBytes       = 25 << 20
)

// VoiceConfig holds voice transcription settings. Any OpenAI-compatible
// transcription endpoint works (OpenAI, Groq, a local whisper server).
type VoiceConfig struct {
	WhisperURL    string
	WhisperAPIKey string
	WhisperModel  string
	Language      string // optional ISO-639-1 hint, e.g. "en"
}

func (v *VoiceConfig) enabled() bool {
	return v != nil && v.WhisperAPIKey != ""
}

// transcribeVoice downloads a Telegram voice or audio message and returns
// the spoken command.
func (c *Connector) transcribeVoice(ctx context.Context, msg *tgbotapi.Message) (string, error) {
	if !c.config.Voice.enabled() {
		return "", errors.New("voice transcription not configured")
	}

	var fileID, filename string
	switch {
	case msg.Voice != nil:
		fileID, filename = msg.Voice.FileID, "voice.ogg"
	case msg.Audio != nil:
		fileID, filename = msg.Audio.FileID, msg.Audio.FileName
		if filename == "" {
			filename = "audio.mp3"
		}
	default:
		return "", errors.New("no voice or audio in message")
	}

	fileURL, err := c.bot.GetFileDirectURL(fileID)
	if err != nil {
		return "", fmt.Errorf("get file URL: %w", err)
	}
	return voiceCommand(ctx, c.http, c.config.Voice, fileURL, filename)
}

// errNoSpeech is returned when a voice note transcribes to nothing.
var errNoSpeech = errors.New("no speech recognized")

// voiceCommand fetches a voice note and returns its transcript as command
// text.
func voiceCommand(ctx context.Context, client *http.Client, cfg *VoiceConfig, fileURL, filename string) (string, error) {
	audio, err := downloadFile(ctx, client, fileURL)
	if err != nil {
		return "", fmt.Errorf("download audio: %w", err)
	}

	text, err := transcribeAudio(ctx, client, cfg, filename, audio)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errNoSpeech
	}
	return text, nil
}

func downloadFile(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download status %d", resp.StatusCode)
	}

	// Telegram bots may download up to 20MB.
	return io.ReadAll(io.LimitReader(resp.Body, maxVoiceBytes))
}

// transcribeAudio uploads audio to a Whisper-compatible endpoint.
func transcribeAudio(ctx context.Context, client *http.Client, cfg *VoiceConfig, filename string, audio []byte) (string, error) {
	url := cfg.WhisperURL
	if url == "" {
		url = defaultWhisperURL
	}
	model := cfg.WhisperModel
	if model == "" {
		model = defaultWhisperModel
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(audio); err != nil {
		return "", err
	}
	w.WriteField("model", model)
	w.WriteField("response_format", "json")
	if cfg.Language != "" {
		w.WriteField("language", cfg.Language)
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+cfg.WhisperAPIKey)

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("whisper API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result whisperResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("parse whisper response: %w", err)
	}
	return result.Text, nil
}

type whisperResponse struct {
	Text string `json:"text"`
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 120 * time.Second}
}
