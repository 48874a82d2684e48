package subtitles

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"arivid/internal/timeline"
)

// Supported output formats.
const (
	FormatSRT = "srt"
	FormatVTT = "vtt"
)

// wordsPerCue sizes the evenly-spaced cues derived from a single block of
// narration text.
const wordsPerCue = 8

// Cue is one subtitle entry. Times are seconds from the start of playback.
type Cue struct {
	Start float64
	End   float64
	Text  string
}

// FromRecords converts reconciled audio records into cues, using the actual
// (cumulative) track positions so subtitles follow the spoken audio exactly.
func FromRecords(records []timeline.AudioSegmentRecord) []Cue {
	cues := make([]Cue, 0, len(records))
	for _, rec := range records {
		cues = append(cues, Cue{Start: rec.ActualStart, End: rec.ActualEnd, Text: rec.Text})
	}
	return cues
}

// ChunkNarration splits a single block of narration into evenly-spaced cues
// across the video duration. Used on the simple sync path, which has no
// per-segment timing.
func ChunkNarration(text string, videoDuration float64) []Cue {
	words := strings.Fields(text)
	if len(words) == 0 || videoDuration <= 0 {
		return nil
	}
	chunks := make([]string, 0, len(words)/wordsPerCue+1)
	for start := 0; start < len(words); start += wordsPerCue {
		end := start + wordsPerCue
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	perChunk := videoDuration / float64(len(chunks))
	cues := make([]Cue, len(chunks))
	for i, chunk := range chunks {
		cues[i] = Cue{
			Start: float64(i) * perChunk,
			End:   float64(i+1) * perChunk,
			Text:  chunk,
		}
	}
	return cues
}

// Emit writes the cues to w in the requested format. SRT entries carry a
// one-based index and comma decimal separators; VTT starts with a WEBVTT
// header, has no per-cue index, and uses period separators.
func Emit(w io.Writer, cues []Cue, format string) error {
	buf := bufio.NewWriter(w)
	switch format {
	case FormatVTT:
		if _, err := buf.WriteString("WEBVTT\n\n"); err != nil {
			return err
		}
		for _, cue := range cues {
			fmt.Fprintf(buf, "%s --> %s\n%s\n\n",
				timestamp(cue.Start, '.'), timestamp(cue.End, '.'), cue.Text)
		}
	case FormatSRT, "":
		for i, cue := range cues {
			fmt.Fprintf(buf, "%d\n%s --> %s\n%s\n\n",
				i+1, timestamp(cue.Start, ','), timestamp(cue.End, ','), cue.Text)
		}
	default:
		return fmt.Errorf("unsupported subtitle format %q", format)
	}
	return buf.Flush()
}

// WriteFile emits the cues to path, creating or truncating it.
func WriteFile(path string, cues []Cue, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write subtitles: %w", err)
	}
	if err := Emit(f, cues, format); err != nil {
		f.Close()
		return fmt.Errorf("write subtitles: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write subtitles: %w", err)
	}
	return nil
}

// timestamp renders seconds as HH:MM:SS<sep>mmm. Millisecond arithmetic is
// integral to avoid float drift at the boundary of a second.
func timestamp(seconds float64, sep byte) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int64(math.Round(seconds * 1000))
	hours := total / 3600000
	minutes := (total % 3600000) / 60000
	secs := (total % 60000) / 1000
	millis := total % 1000
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", hours, minutes, secs, sep, millis)
}
