package artifacts

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "videos"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return store
}

func TestSaveVideoAndPresence(t *testing.T) {
	store := newStore(t)
	src := filepath.Join(t.TempDir(), "render.mp4")
	if err := os.WriteFile(src, []byte("mp4data"), 0o644); err != nil {
		t.Fatal(err)
	}

	if store.HasVideo("job-1") {
		t.Fatal("video should not exist yet")
	}
	path, err := store.SaveVideo("job-1", src)
	if err != nil {
		t.Fatalf("SaveVideo: %v", err)
	}
	if path != store.VideoPath("job-1") {
		t.Fatalf("unexpected path %q", path)
	}
	if !store.HasVideo("job-1") {
		t.Fatal("video missing after save")
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatal("source not removed after save")
	}

	size, modified, err := store.VideoInfo("job-1")
	if err != nil {
		t.Fatalf("VideoInfo: %v", err)
	}
	if size != int64(len("mp4data")) || modified.IsZero() {
		t.Fatalf("unexpected info size=%d modified=%v", size, modified)
	}
}

func TestSubtitlePathDefaultsToSRT(t *testing.T) {
	store := newStore(t)
	if got := store.SubtitlePath("job", ""); filepath.Ext(got) != ".srt" {
		t.Fatalf("unexpected default subtitle path %q", got)
	}
	if got := store.SubtitlePath("job", "vtt"); filepath.Ext(got) != ".vtt" {
		t.Fatalf("unexpected vtt path %q", got)
	}
}

func TestServeVideoRange(t *testing.T) {
	store := newStore(t)
	if err := os.WriteFile(store.VideoPath("clip"), []byte("0123456789"), 0o644); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/video/clip", nil)
	req.Header.Set("Range", "bytes=2-5")
	rec := httptest.NewRecorder()
	store.ServeVideo(rec, req, "clip")

	if rec.Code != http.StatusPartialContent {
		t.Fatalf("status %d, want 206", rec.Code)
	}
	if body := rec.Body.String(); body != "2345" {
		t.Fatalf("unexpected range body %q", body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "video/mp4" {
		t.Fatalf("content type %q", ct)
	}
}

func TestServeVideoMissing(t *testing.T) {
	store := newStore(t)
	rec := httptest.NewRecorder()
	store.ServeVideo(rec, httptest.NewRequest(http.MethodGet, "/video/nope", nil), "nope")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}
}

func TestRemove(t *testing.T) {
	store := newStore(t)
	for _, path := range []string{store.VideoPath("x"), store.SubtitlePath("x", "srt")} {
		if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.Remove("x"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if store.HasVideo("x") {
		t.Fatal("video still present")
	}
	// Removing again is not an error.
	if err := store.Remove("x"); err != nil {
		t.Fatalf("Remove (idempotent): %v", err)
	}
}
