package media

import (
	"context"
	"os"
	"strings"
	"testing"
)

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func fakeRunner(output string, err error) func(ctx context.Context, name string, args ...string) ([]byte, error) {
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte(output), err
	}
}

func TestDurationParsesCentiseconds(t *testing.T) {
	tool := New("ffmpeg", 10, WithRunner(fakeRunner(
		"Input #0, mp3, from 'clip.mp3':\n  Duration: 00:01:05.50, start: 0.0, bitrate: 128 kb/s\n", nil)))
	got := tool.Duration(context.Background(), "clip.mp3")
	if got != 65.5 {
		t.Fatalf("expected 65.5s, got %v", got)
	}
}

func TestDurationParsesMilliseconds(t *testing.T) {
	tool := New("ffmpeg", 10, WithRunner(fakeRunner(
		"  Duration: 01:02:03.250, start: 0.0\n", nil)))
	got := tool.Duration(context.Background(), "clip.mp3")
	want := 3723.25
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestDurationFallsBackWhenUnparseable(t *testing.T) {
	tool := New("ffmpeg", 10, WithRunner(fakeRunner("no duration banner here", nil)))
	if got := tool.Duration(context.Background(), "clip.mp3"); got != FallbackDuration {
		t.Fatalf("expected fallback %v, got %v", FallbackDuration, got)
	}
}

func TestDurationParsesDespiteExitError(t *testing.T) {
	// The null-muxer run can exit non-zero while still printing the banner.
	tool := New("ffmpeg", 10, WithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("  Duration: 00:00:08.00, start: 0.0\n"), context.DeadlineExceeded
	}))
	if got := tool.Duration(context.Background(), "clip.mp3"); got != 8.0 {
		t.Fatalf("expected 8.0, got %v", got)
	}
}

func TestConcatWithGapsBuildsFilterGraph(t *testing.T) {
	var captured []string
	tool := New("ffmpeg", 10, WithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		captured = args
		return nil, nil
	}))
	inputs := []GapInput{
		{Path: "a.mp3"},
		{Path: "b.mp3", GapSeconds: 1.5},
	}
	if err := tool.ConcatWithGaps(context.Background(), inputs, "out.mp3"); err != nil {
		t.Fatalf("ConcatWithGaps failed: %v", err)
	}
	joined := strings.Join(captured, " ")
	if !strings.Contains(joined, "duration=1.5") {
		t.Fatalf("expected silence gap in filter graph: %s", joined)
	}
	if !strings.Contains(joined, "concat=n=2:v=0:a=1[out]") {
		t.Fatalf("expected final concat node: %s", joined)
	}
}

func TestWriteSilenceRejectsNonPositive(t *testing.T) {
	tool := New("ffmpeg", 10, WithRunner(fakeRunner("", nil)))
	if err := tool.WriteSilence(context.Background(), "out.mp3", 0); err == nil {
		t.Fatal("expected error for zero-duration silence")
	}
}

func TestConcatFilesWritesListFile(t *testing.T) {
	dir := t.TempDir()
	var listContents string
	tool := New("ffmpeg", 10, WithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		for i, arg := range args {
			if arg == "-i" && i+1 < len(args) {
				data, err := readFile(args[i+1])
				if err != nil {
					t.Fatalf("read list file: %v", err)
				}
				listContents = data
			}
		}
		return nil, nil
	}))
	if err := tool.ConcatFiles(context.Background(), []string{"a.mp3", "b.mp3"}, dir+"/out.mp3"); err != nil {
		t.Fatalf("ConcatFiles failed: %v", err)
	}
	if !strings.Contains(listContents, "a.mp3") || !strings.Contains(listContents, "b.mp3") {
		t.Fatalf("list file missing inputs: %q", listContents)
	}
}
