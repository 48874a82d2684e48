package subtitles

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"arivid/internal/timeline"
)

func TestEmitSRT(t *testing.T) {
	cues := []Cue{
		{Start: 0, End: 3, Text: "Welcome to the lesson."},
		{Start: 3, End: 65.5, Text: "The main idea follows."},
	}
	var sb strings.Builder
	if err := Emit(&sb, cues, FormatSRT); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	want := "1\n00:00:00,000 --> 00:00:03,000\nWelcome to the lesson.\n\n" +
		"2\n00:00:03,000 --> 00:01:05,500\nThe main idea follows.\n\n"
	if sb.String() != want {
		t.Fatalf("unexpected SRT output:\n%s", sb.String())
	}
}

func TestEmitVTT(t *testing.T) {
	cues := []Cue{{Start: 1.25, End: 4, Text: "Bonjour."}}
	var sb strings.Builder
	if err := Emit(&sb, cues, FormatVTT); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	out := sb.String()
	if !strings.HasPrefix(out, "WEBVTT\n\n") {
		t.Fatalf("missing WEBVTT header:\n%s", out)
	}
	if !strings.Contains(out, "00:00:01.250 --> 00:00:04.000\nBonjour.") {
		t.Fatalf("unexpected VTT body:\n%s", out)
	}
	if strings.Contains(out, "\n1\n") {
		t.Fatalf("VTT output must not carry cue indexes:\n%s", out)
	}
}

func TestEmitDefaultsToSRT(t *testing.T) {
	var sb strings.Builder
	if err := Emit(&sb, []Cue{{Start: 0, End: 1, Text: "x"}}, ""); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if !strings.HasPrefix(sb.String(), "1\n") {
		t.Fatalf("expected SRT layout:\n%s", sb.String())
	}
}

func TestEmitUnsupportedFormat(t *testing.T) {
	var sb strings.Builder
	if err := Emit(&sb, nil, "ass"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestTimestampBoundaries(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00,000"},
		{65.5, "00:01:05,500"},
		{3599.999, "00:59:59,999"},
		{3600, "01:00:00,000"},
		{-2, "00:00:00,000"},
	}
	for _, tc := range cases {
		if got := timestamp(tc.seconds, ','); got != tc.want {
			t.Errorf("timestamp(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestFromRecordsUsesActualTiming(t *testing.T) {
	records := []timeline.AudioSegmentRecord{
		{PlannedStart: 0, PlannedEnd: 3, ActualStart: 0, ActualEnd: 3.4, Text: "First."},
		{PlannedStart: 3, PlannedEnd: 8, ActualStart: 3.4, ActualEnd: 9.4, Text: "Second."},
	}
	cues := FromRecords(records)
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(cues))
	}
	if cues[1].Start != 3.4 || cues[1].End != 9.4 {
		t.Fatalf("cue should follow actual track timing, got %#v", cues[1])
	}
}

func TestChunkNarration(t *testing.T) {
	text := strings.Repeat("word ", 20) // 20 words -> 3 chunks of 8/8/4
	cues := ChunkNarration(text, 30)
	if len(cues) != 3 {
		t.Fatalf("expected 3 cues, got %d", len(cues))
	}
	if cues[0].Start != 0 || cues[0].End != 10 {
		t.Fatalf("unexpected first cue %#v", cues[0])
	}
	if cues[2].End != 30 {
		t.Fatalf("last cue should end at video duration, got %v", cues[2].End)
	}
	if len(strings.Fields(cues[2].Text)) != 4 {
		t.Fatalf("unexpected final chunk %q", cues[2].Text)
	}
}

func TestChunkNarrationEmpty(t *testing.T) {
	if cues := ChunkNarration("   ", 10); cues != nil {
		t.Fatalf("expected nil for empty narration, got %#v", cues)
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.srt")
	if err := WriteFile(path, []Cue{{Start: 0, End: 2, Text: "Hi."}}, FormatSRT); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "00:00:00,000 --> 00:00:02,000") {
		t.Fatalf("unexpected file contents:\n%s", data)
	}
}
