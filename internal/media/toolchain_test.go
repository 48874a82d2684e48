package media

import (
	"context"
	"strings"
	"testing"
)

func TestBurnSubtitlesCommand(t *testing.T) {
	var gotArgs []string
	tool := New("ffmpeg", 10, WithRunner(
		func(_ context.Context, _ string, args ...string) ([]byte, error) {
			gotArgs = args
			return nil, nil
		}))

	err := tool.BurnSubtitles(context.Background(), "scene.mp4", "narration.srt", "out.mp4")
	if err != nil {
		t.Fatalf("BurnSubtitles: %v", err)
	}

	joined := strings.Join(gotArgs, " ")
	if !strings.Contains(joined, "-vf subtitles=narration.srt:force_style=") {
		t.Fatalf("subtitle filter missing: %s", joined)
	}
	if !strings.Contains(joined, "FontSize=20") || !strings.Contains(joined, "Outline=2") {
		t.Fatalf("subtitle style dropped: %s", joined)
	}
	if !strings.Contains(joined, "-c:a copy") {
		t.Fatalf("audio stream must be copied untouched: %s", joined)
	}
	if gotArgs[len(gotArgs)-1] != "out.mp4" {
		t.Fatalf("destination not last arg: %v", gotArgs)
	}
}
