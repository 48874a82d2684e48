package tts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSynthesizeSendsRequest(t *testing.T) {
	var got speechRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test" {
			t.Fatal("missing bearer token")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte("fake-mp3-bytes"))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
	audio, err := client.Synthesize(context.Background(), "Welcome to the lesson.", "es", DefaultVoice)
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if string(audio) != "fake-mp3-bytes" {
		t.Fatalf("unexpected audio payload %q", audio)
	}
	if got.Voice != "nova" {
		t.Fatalf("expected spanish default voice nova, got %q", got.Voice)
	}
	if got.Speed != 0.85 {
		t.Fatalf("expected default speed 0.85, got %v", got.Speed)
	}
	if got.ResponseFormat != "mp3" {
		t.Fatalf("expected mp3 format, got %q", got.ResponseFormat)
	}
}

func TestSynthesizeReplacesShortInput(t *testing.T) {
	var got speechRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte("audio"))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
	for _, input := range []string{"", "  ", "ab"} {
		if _, err := client.Synthesize(context.Background(), input, "en", DefaultVoice); err != nil {
			t.Fatalf("Synthesize(%q) returned error: %v", input, err)
		}
		if len(got.Input) < 3 {
			t.Fatalf("input %q was sent to provider below minimum length: %q", input, got.Input)
		}
	}
}

func TestSynthesizeProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad voice"}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
	if _, err := client.Synthesize(context.Background(), "hello there", "en", DefaultVoice); err == nil {
		t.Fatal("expected provider error")
	}
}

func TestSynthesizeRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{})
	if _, err := client.Synthesize(context.Background(), "hello there", "en", DefaultVoice); err == nil {
		t.Fatal("expected error when api key missing")
	}
}
