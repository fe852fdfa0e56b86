package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/voxedit-io/voxedit/internal/connector"
)

// upload is what the fake Whisper endpoint received.
type upload struct {
	auth, model, language, format string
	filename                      string
	audio                         string
}

// fakeTelegramAndWhisper serves a voice note at /file/note.ogg and answers
// /v1/audio/transcriptions with transcript.
type fakeTelegramAndWhisper struct {
	*httptest.Server
	mu      sync.Mutex
	uploads []upload
}

func newFakeTelegramAndWhisper(t *testing.T, transcript string, status int) *fakeTelegramAndWhisper {
	t.Helper()
	f := &fakeTelegramAndWhisper{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /file/note.ogg", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("OggS voice note"))
	})
	mux.HandleFunc("POST /v1/audio/transcriptions", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		u := upload{
			auth:     r.Header.Get("Authorization"),
			model:    r.FormValue("model"),
			language: r.FormValue("language"),
			format:   r.FormValue("response_format"),
		}
		if file, fh, err := r.FormFile("file"); err == nil {
			data, _ := io.ReadAll(file)
			u.filename, u.audio = fh.Filename, string(data)
		}
		f.mu.Lock()
		f.uploads = append(f.uploads, u)
		f.mu.Unlock()

		if status != http.StatusOK {
			w.WriteHeader(status)
			w.Write([]byte(`{"error": {"message": "quota exceeded"}}`))
			return
		}
		json.NewEncoder(w).Encode(whisperResponse{Text: transcript})
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeTelegramAndWhisper) received() []upload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]upload(nil), f.uploads...)
}

func (f *fakeTelegramAndWhisper) voiceConfig() *VoiceConfig {
	return &VoiceConfig{
		WhisperURL:    f.URL + "/v1/audio/transcriptions",
		WhisperAPIKey: "whisper-key",
	}
}

func TestVoiceCommand_TranscriptIsDispatched(t *testing.T) {
	fake := newFakeTelegramAndWhisper(t, " Move to the next heading and read it. ", http.StatusOK)

	text, err := voiceCommand(context.Background(), fake.Client(), fake.voiceConfig(), fake.URL+"/file/note.ogg", "voice.ogg")
	if err != nil {
		t.Fatalf("voiceCommand: %v", err)
	}
	if text != "Move to the next heading and read it." {
		t.Fatalf("transcript = %q", text)
	}

	// The transcript reaches the command queue as an ordinary command.
	inbox := make(chan connector.InboundMessage, 1)
	if err := connector.Queue(inbox)(context.Background(), commandMessage(42, 1001, text)); err != nil {
		t.Fatalf("queue: %v", err)
	}
	got := <-inbox
	want := connector.InboundMessage{
		Channel:  "telegram",
		SenderID: "42",
		ChatID:   "1001",
		Content:  "Move to the next heading and read it.",
	}
	if got != want {
		t.Errorf("inbound = %+v, want %+v", got, want)
	}

	uploads := fake.received()
	if len(uploads) != 1 {
		t.Fatalf("expected one upload, got %d", len(uploads))
	}
	u := uploads[0]
	if u.auth != "Bearer whisper-key" {
		t.Errorf("authorization = %q", u.auth)
	}
	if u.model != "whisper-1" || u.format != "json" || u.language != "" {
		t.Errorf("form = %+v", u)
	}
	if u.filename != "voice.ogg" || u.audio != "OggS voice note" {
		t.Errorf("file = %q (%q)", u.filename, u.audio)
	}
}

func TestVoiceCommand_LanguageAndModel(t *testing.T) {
	fake := newFakeTelegramAndWhisper(t, "Lee el párrafo actual", http.StatusOK)
	cfg := fake.voiceConfig()
	cfg.WhisperModel = "whisper-large-v3-turbo"
	cfg.Language = "es"

	if _, err := voiceCommand(context.Background(), fake.Client(), cfg, fake.URL+"/file/note.ogg", "voice.ogg"); err != nil {
		t.Fatalf("voiceCommand: %v", err)
	}
	u := fake.received()[0]
	if u.model != "whisper-large-v3-turbo" || u.language != "es" {
		t.Errorf("model = %q, language = %q", u.model, u.language)
	}
}

func TestVoiceCommand_Silence(t *testing.T) {
	fake := newFakeTelegramAndWhisper(t, "   ", http.StatusOK)

	_, err := voiceCommand(context.Background(), fake.Client(), fake.voiceConfig(), fake.URL+"/file/note.ogg", "voice.ogg")
	if !errors.Is(err, errNoSpeech) {
		t.Fatalf("expected errNoSpeech, got %v", err)
	}
}

func TestVoiceCommand_WhisperRejects(t *testing.T) {
	fake := newFakeTelegramAndWhisper(t, "", http.StatusTooManyRequests)

	_, err := voiceCommand(context.Background(), fake.Client(), fake.voiceConfig(), fake.URL+"/file/note.ogg", "voice.ogg")
	if err == nil {
		t.Fatal("expected an error when transcription is rejected")
	}
}

func TestVoiceCommand_NoteMissing(t *testing.T) {
	fake := newFakeTelegramAndWhisper(t, "Undo", http.StatusOK)

	_, err := voiceCommand(context.Background(), fake.Client(), fake.voiceConfig(), fake.URL+"/file/expired.ogg", "voice.ogg")
	if err == nil {
		t.Fatal("expected an error for a missing voice note")
	}
	if n := len(fake.received()); n != 0 {
		t.Errorf("nothing should be transcribed, got %d uploads", n)
	}
}

func TestCommandMessage_TrimsText(t *testing.T) {
	msg := commandMessage(7, -100200, "  Undo \n")
	if msg.Content != "Undo" || msg.ChatID != "-100200" || msg.SenderID != "7" {
		t.Errorf("message = %+v", msg)
	}
}
