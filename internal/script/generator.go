package script

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"arivid/internal/logging"
	"arivid/internal/narration"
	"arivid/internal/scriptpatch"
	"arivid/internal/services"
	"arivid/internal/services/tts"
)

// DefaultAttempts bounds the generate-and-refine loop.
const DefaultAttempts = 3

// DefaultTargetDuration is assumed when narration length cannot be estimated.
const DefaultTargetDuration = 45.0

// Completer is the LLM surface the generator needs.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

const generateSystemPrompt = `You are an expert at writing educational animations with the manim library (Manim Community edition).

Write a complete, runnable Python script for the user's request:
1. Import everything from manim
2. Define exactly one Scene subclass with a construct method
3. Use self.play() for every animation and self.wait() for pacing pauses
4. Target roughly %.0f seconds of total animation time
5. Keep every object inside the visible frame and avoid overlapping elements
6. Prefer simple, readable geometry over decoration
7. Return ONLY the Python source, no commentary or markdown`

const refineSystemPrompt = `You are reviewing a manim animation script for structural problems.

Fix the script so that:
1. It defines exactly one Scene subclass with a construct method
2. Every animation runs through self.play() with self.wait() pauses between ideas
3. All referenced names exist and all brackets are balanced
4. Total animation time stays near %.0f seconds

Return ONLY the corrected Python source, no commentary or markdown.`

const repairSystemPrompt = `A manim animation script failed to render. Use the error output to fix it.

Rules:
1. Address the specific error first, then any obviously related mistakes
2. Keep the visual content and pacing of the original script
3. Define exactly one Scene subclass with a construct method
4. Return ONLY the corrected Python source, no commentary or markdown`

const detectLanguageSystemPrompt = `Identify the language of the user's text. Respond with only the two-letter ISO 639-1 code (for example: en, es, fr, de, ja). No other output.`

const estimateDurationSystemPrompt = `Estimate how many seconds of spoken narration an educational video on the user's topic needs. Consider a comfortable teaching pace with time to absorb visuals. Respond with only a number of seconds, no other output.`

// Generator produces animation scripts from prompts through a bounded
// generate-and-refine loop, and repairs scripts that failed to render.
type Generator struct {
	client   Completer
	logger   *slog.Logger
	attempts int
}

// NewGenerator constructs a generator. Attempts below one fall back to the
// default refine budget.
func NewGenerator(client Completer, attempts int, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = logging.NewNop()
	}
	if attempts < 1 {
		attempts = DefaultAttempts
	}
	return &Generator{client: client, logger: logger, attempts: attempts}
}

// Generate produces a script for the prompt, refining structurally unsound
// drafts up to the attempt budget. The last draft is returned even when still
// imperfect; the render step is the final arbiter.
func (g *Generator) Generate(ctx context.Context, prompt, language string, targetDuration float64) (string, error) {
	if targetDuration <= 0 {
		targetDuration = DefaultTargetDuration
	}
	userPrompt := fmt.Sprintf("Create an educational animation in %s for this request:\n\n%s",
		languageNameOrEnglish(language), prompt)

	var draft string
	for attempt := 1; attempt <= g.attempts; attempt++ {
		var (
			system string
			user   string
		)
		if attempt == 1 {
			system = fmt.Sprintf(generateSystemPrompt, targetDuration)
			user = userPrompt
		} else {
			system = fmt.Sprintf(refineSystemPrompt, targetDuration)
			user = fmt.Sprintf("Original request: %s\n\nScript to fix:\n%s", prompt, draft)
		}

		content, err := g.client.Complete(ctx, system, user)
		if err != nil {
			return "", services.Wrap(services.ErrProvider, "script", "generate",
				fmt.Sprintf("attempt %d", attempt), err)
		}
		draft = StripFences(content)

		if problem := structuralProblem(draft); problem == "" {
			g.logger.Info("script generated", logging.Int("attempt", attempt))
			return draft, nil
		} else {
			g.logger.Warn("script draft needs refinement",
				logging.Int("attempt", attempt), logging.String("problem", problem))
		}
	}
	g.logger.Warn("refine budget exhausted, using last draft")
	return draft, nil
}

// FixFromError asks the reasoning service to repair a script using the render
// engine's diagnostic output.
func (g *Generator) FixFromError(ctx context.Context, script, renderError, language string) (string, error) {
	user := fmt.Sprintf("Render error:\n%s\n\nFailing script:\n%s\n\nReturn the corrected script in %s where text appears on screen.",
		renderError, script, languageNameOrEnglish(language))

	content, err := g.client.Complete(ctx, repairSystemPrompt, user)
	if err != nil {
		return "", services.Wrap(services.ErrProvider, "script", "repair", "script repair failed", err)
	}
	fixed := StripFences(content)
	if problem := structuralProblem(fixed); problem != "" {
		return "", services.Wrap(services.ErrValidation, "script", "repair", problem, nil)
	}
	return fixed, nil
}

// DetectLanguage infers the ISO 639-1 language of a prompt. Any failure
// degrades to English.
func (g *Generator) DetectLanguage(ctx context.Context, prompt string) string {
	content, err := g.client.Complete(ctx, detectLanguageSystemPrompt, prompt)
	if err != nil {
		g.logger.Warn("language detection failed, assuming English", logging.Error(err))
		return "en"
	}
	return tts.NormalizeLanguage(strings.TrimSpace(content))
}

// EstimateDuration asks for a narration length estimate in seconds, clamped
// to a sane range. Any failure degrades to the default target.
func (g *Generator) EstimateDuration(ctx context.Context, prompt string) float64 {
	content, err := g.client.Complete(ctx, estimateDurationSystemPrompt, prompt)
	if err != nil {
		g.logger.Warn("duration estimate failed, using default", logging.Error(err))
		return DefaultTargetDuration
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(content), 64)
	if err != nil {
		g.logger.Warn("could not parse duration estimate", logging.String("response", content))
		return DefaultTargetDuration
	}
	if seconds < 15 {
		seconds = 15
	}
	if seconds > 300 {
		seconds = 300
	}
	return seconds
}

// structuralProblem names the first structural defect in a draft, or returns
// an empty string when the draft looks renderable.
func structuralProblem(draft string) string {
	info := scriptpatch.Analyze(draft)
	switch {
	case strings.TrimSpace(draft) == "":
		return "empty draft"
	case info.ClassName == "":
		return "no scene class"
	case info.ConstructLine < 0:
		return "no construct method"
	case info.PlayCount == 0:
		return "no animations played"
	default:
		return ""
	}
}

// StripFences removes a surrounding markdown code fence, if present, from a
// model response.
func StripFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		first := strings.TrimSpace(trimmed[:idx])
		if first == "" || isLanguageTag(first) {
			trimmed = trimmed[idx+1:]
		}
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func isLanguageTag(word string) bool {
	for _, r := range word {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return len(word) <= 12
}

func languageNameOrEnglish(code string) string {
	return narration.LanguageName(tts.NormalizeLanguage(code))
}
