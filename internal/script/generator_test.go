package script

import (
	"context"
	"errors"
	"strings"
	"testing"
)

const validScript = `from manim import *

class DemoScene(Scene):
    def construct(self):
        title = Text("Demo")
        self.play(Write(title))
        self.wait(1)
`

type scriptedCompleter struct {
	responses []string
	err       error
	calls     int
	systems   []string
	users     []string
}

func (f *scriptedCompleter) Complete(_ context.Context, system, user string) (string, error) {
	f.systems = append(f.systems, system)
	f.users = append(f.users, user)
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	idx := f.calls - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return f.responses[idx], nil
}

func TestGenerateFirstAttempt(t *testing.T) {
	client := &scriptedCompleter{responses: []string{validScript}}
	gen := NewGenerator(client, 3, nil)

	out, err := gen.Generate(context.Background(), "explain triangles", "en", 45)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != strings.TrimSpace(validScript) {
		t.Fatalf("unexpected script:\n%s", out)
	}
	if client.calls != 1 {
		t.Fatalf("expected 1 call, got %d", client.calls)
	}
}

func TestGenerateRefinesBadDraft(t *testing.T) {
	client := &scriptedCompleter{responses: []string{
		"print('not a scene')",
		"```python\n" + validScript + "```",
	}}
	gen := NewGenerator(client, 3, nil)

	out, err := gen.Generate(context.Background(), "explain triangles", "en", 45)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if client.calls != 2 {
		t.Fatalf("expected refine round, got %d calls", client.calls)
	}
	if !strings.Contains(out, "class DemoScene") || strings.Contains(out, "```") {
		t.Fatalf("fences not stripped or wrong draft:\n%s", out)
	}
	if !strings.Contains(client.users[1], "print('not a scene')") {
		t.Fatal("refine round must carry the failing draft")
	}
}

func TestGenerateExhaustsBudget(t *testing.T) {
	client := &scriptedCompleter{responses: []string{"still not a scene"}}
	gen := NewGenerator(client, 3, nil)

	out, err := gen.Generate(context.Background(), "prompt", "en", 45)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if client.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", client.calls)
	}
	if out != "still not a scene" {
		t.Fatalf("last draft should be returned, got %q", out)
	}
}

func TestGenerateProviderError(t *testing.T) {
	gen := NewGenerator(&scriptedCompleter{err: errors.New("unreachable")}, 3, nil)

	if _, err := gen.Generate(context.Background(), "prompt", "en", 45); err == nil {
		t.Fatal("expected provider error")
	}
}

func TestFixFromError(t *testing.T) {
	client := &scriptedCompleter{responses: []string{validScript}}
	gen := NewGenerator(client, 3, nil)

	fixed, err := gen.FixFromError(context.Background(), "broken", "NameError: x", "en")
	if err != nil {
		t.Fatalf("FixFromError: %v", err)
	}
	if !strings.Contains(fixed, "class DemoScene") {
		t.Fatalf("unexpected repaired script:\n%s", fixed)
	}
	if !strings.Contains(client.users[0], "NameError: x") {
		t.Fatal("render diagnostic missing from repair prompt")
	}
}

func TestFixFromErrorRejectsBadRepair(t *testing.T) {
	client := &scriptedCompleter{responses: []string{"sorry, cannot help"}}
	gen := NewGenerator(client, 3, nil)

	if _, err := gen.FixFromError(context.Background(), "broken", "err", "en"); err == nil {
		t.Fatal("expected validation error for non-script repair")
	}
}

func TestDetectLanguage(t *testing.T) {
	client := &scriptedCompleter{responses: []string{" es \n"}}
	gen := NewGenerator(client, 3, nil)

	if lang := gen.DetectLanguage(context.Background(), "hola"); lang != "es" {
		t.Fatalf("DetectLanguage = %q", lang)
	}
}

func TestDetectLanguageFailure(t *testing.T) {
	gen := NewGenerator(&scriptedCompleter{err: errors.New("down")}, 3, nil)

	if lang := gen.DetectLanguage(context.Background(), "hola"); lang != "en" {
		t.Fatalf("expected English fallback, got %q", lang)
	}
}

func TestEstimateDuration(t *testing.T) {
	cases := []struct {
		response string
		want     float64
	}{
		{"60", 60},
		{" 90.5 ", 90.5},
		{"5", 15},
		{"1000", 300},
		{"about a minute", DefaultTargetDuration},
	}
	for _, tc := range cases {
		gen := NewGenerator(&scriptedCompleter{responses: []string{tc.response}}, 3, nil)
		if got := gen.EstimateDuration(context.Background(), "prompt"); got != tc.want {
			t.Errorf("EstimateDuration(%q) = %v, want %v", tc.response, got, tc.want)
		}
	}
}

func TestStripFences(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"```python\ncode\n```", "code"},
		{"```\ncode\n```", "code"},
		{"```python\ncode", "code"},
	}
	for _, tc := range cases {
		if got := StripFences(tc.in); got != tc.want {
			t.Errorf("StripFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
