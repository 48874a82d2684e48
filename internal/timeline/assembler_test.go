package timeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeClip(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("clip"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAssembleInsertsSilenceForGaps(t *testing.T) {
	dir := t.TempDir()
	tools := &fakeToolkit{}
	engine := NewEngine(&fakeSynth{}, tools, 1, nil)

	records := []AudioSegmentRecord{
		{Path: writeClip(t, dir, "a.mp3"), ActualStart: 2, ActualEnd: 5},
		{Path: writeClip(t, dir, "b.mp3"), ActualStart: 7, ActualEnd: 10},
	}
	if err := engine.assemble(context.Background(), records, filepath.Join(dir, "out.mp3")); err != nil {
		t.Fatalf("assemble: %v", err)
	}
	// Leading 2s gap and 2s inter-clip gap become silence files.
	if len(tools.silences) != 2 || tools.silences[0] != 2 || tools.silences[1] != 2 {
		t.Fatalf("unexpected silence gaps %v", tools.silences)
	}
	if len(tools.concatCalls) != 1 || len(tools.concatCalls[0]) != 4 {
		t.Fatalf("unexpected concat inputs %v", tools.concatCalls)
	}
}

func TestAssembleOrdersByStartTime(t *testing.T) {
	dir := t.TempDir()
	tools := &fakeToolkit{}
	engine := NewEngine(&fakeSynth{}, tools, 1, nil)

	second := writeClip(t, dir, "second.mp3")
	first := writeClip(t, dir, "first.mp3")
	records := []AudioSegmentRecord{
		{Path: second, ActualStart: 3, ActualEnd: 6},
		{Path: first, ActualStart: 0, ActualEnd: 3},
	}
	if err := engine.assemble(context.Background(), records, filepath.Join(dir, "out.mp3")); err != nil {
		t.Fatalf("assemble: %v", err)
	}
	inputs := tools.concatCalls[0]
	if inputs[0] != first || inputs[1] != second {
		t.Fatalf("inputs not ordered by start time: %v", inputs)
	}
}

func TestAssembleFallsBackToFilterGraph(t *testing.T) {
	dir := t.TempDir()
	tools := &fakeToolkit{demuxErr: errors.New("demuxer rejected input")}
	engine := NewEngine(&fakeSynth{}, tools, 1, nil)

	records := []AudioSegmentRecord{
		{Path: writeClip(t, dir, "a.mp3"), ActualStart: 1, ActualEnd: 4},
		{Path: writeClip(t, dir, "b.mp3"), ActualStart: 6, ActualEnd: 9},
	}
	if err := engine.assemble(context.Background(), records, filepath.Join(dir, "out.mp3")); err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(tools.gapInputs) != 2 {
		t.Fatalf("filter-graph fallback not used: %#v", tools.gapInputs)
	}
	if tools.gapInputs[0].GapSeconds != 1 || tools.gapInputs[1].GapSeconds != 2 {
		t.Fatalf("unexpected gap seconds %#v", tools.gapInputs)
	}
}

func TestAssembleLastResortConcat(t *testing.T) {
	dir := t.TempDir()
	tools := &fakeToolkit{
		demuxErr: errors.New("demuxer rejected input"),
		gapsErr:  errors.New("filter graph failed"),
	}
	engine := NewEngine(&fakeSynth{}, tools, 1, nil)

	a := writeClip(t, dir, "a.mp3")
	b := writeClip(t, dir, "b.mp3")
	records := []AudioSegmentRecord{
		{Path: a, ActualStart: 0, ActualEnd: 3},
		{Path: b, ActualStart: 3, ActualEnd: 6},
	}
	if err := engine.assemble(context.Background(), records, filepath.Join(dir, "out.mp3")); err != nil {
		t.Fatalf("assemble: %v", err)
	}
	// First concat call is the failed demuxer attempt, second is the raw
	// back-to-back fallback.
	if len(tools.concatCalls) != 2 {
		t.Fatalf("expected 2 concat attempts, got %d", len(tools.concatCalls))
	}
	last := tools.concatCalls[1]
	if len(last) != 2 || last[0] != a || last[1] != b {
		t.Fatalf("unexpected last-resort inputs %v", last)
	}
}

func TestAssembleNoRecords(t *testing.T) {
	engine := NewEngine(&fakeSynth{}, &fakeToolkit{}, 1, nil)

	if err := engine.assemble(context.Background(), nil, "out.mp3"); err == nil {
		t.Fatal("expected error for empty record list")
	}
}
