package artifacts

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Store is a filesystem blob store for final job artifacts, keyed by job id.
// Videos land at <dir>/<id>.mp4 and subtitles at <dir>/<id>.<format>.
type Store struct {
	dir string
}

// New constructs a store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the storage root.
func (s *Store) Dir() string { return s.dir }

// VideoPath returns the canonical location of a job's video.
func (s *Store) VideoPath(id string) string {
	return filepath.Join(s.dir, id+".mp4")
}

// SubtitlePath returns the canonical location of a job's caption track.
func (s *Store) SubtitlePath(id, format string) string {
	if format == "" {
		format = "srt"
	}
	return filepath.Join(s.dir, id+"."+format)
}

// HasVideo reports whether a finished video exists for the job. Used as the
// status fallback after a restart loses in-memory state.
func (s *Store) HasVideo(id string) bool {
	info, err := os.Stat(s.VideoPath(id))
	return err == nil && !info.IsDir()
}

// VideoInfo returns the size and timestamps of a stored video.
func (s *Store) VideoInfo(id string) (size int64, modified time.Time, err error) {
	info, err := os.Stat(s.VideoPath(id))
	if err != nil {
		return 0, time.Time{}, err
	}
	return info.Size(), info.ModTime(), nil
}

// SaveVideo moves a produced video into the store, falling back to a copy
// when src is on a different filesystem.
func (s *Store) SaveVideo(id, src string) (string, error) {
	return s.save(src, s.VideoPath(id))
}

// SaveSubtitles moves a caption file into the store.
func (s *Store) SaveSubtitles(id, format, src string) (string, error) {
	return s.save(src, s.SubtitlePath(id, format))
}

func (s *Store) save(src, dst string) (string, error) {
	if src == dst {
		return dst, nil
	}
	if err := os.Rename(src, dst); err == nil {
		return dst, nil
	}
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("save artifact: %w", err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("save artifact: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return "", fmt.Errorf("save artifact: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("save artifact: %w", err)
	}
	os.Remove(src)
	return dst, nil
}

// ServeVideo streams a stored video over HTTP with byte-range support.
func (s *Store) ServeVideo(w http.ResponseWriter, r *http.Request, id string) {
	path := s.VideoPath(id)
	f, err := os.Open(path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "video/mp4")
	http.ServeContent(w, r, filepath.Base(path), info.ModTime(), f)
}

// Remove deletes all stored artifacts for the job. Missing files are not an
// error.
func (s *Store) Remove(id string) error {
	var firstErr error
	for _, path := range []string{
		s.VideoPath(id),
		s.SubtitlePath(id, "srt"),
		s.SubtitlePath(id, "vtt"),
	} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
