package narration

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"arivid/internal/logging"
	"arivid/internal/services"
	"arivid/internal/services/llm"
	"arivid/internal/timing"
)

// Segment is one narration cue aligned to a planned animation interval.
type Segment struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Text      string  `json:"text"`
	Words     int     `json:"words"`
}

// Duration returns the planned span of this cue.
func (s Segment) Duration() float64 {
	return s.EndTime - s.StartTime
}

// Completer is the LLM surface the composer needs.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

const (
	totalFailureText = "Educational animation explaining the concept step by step."
	minTextLength    = 3
	defaultSpan      = 3.0
)

const timedSystemPrompt = `Create timed narration segments that match the animation timing exactly.

For each timing segment, create narration that:
1. Fits within the specified time duration
2. Explains what's happening visually during that time
3. Uses clear, educational language in %s
4. Matches the pacing (words per minute should fit the duration)

Return JSON format:
[
    {
        "start_time": 0,
        "end_time": 3,
        "text": "Welcome! Today we'll explore the famous Pythagorean theorem.",
        "words": 9
    },
    {
        "start_time": 3,
        "end_time": 8,
        "text": "Let's start by creating a right triangle to see how this works.",
        "words": 12
    }
]

Pacing guide: ~2-3 words per second for comfortable listening.
Return ONLY the JSON array.`

const wholeSystemPrompt = `You are an educational content expert. Analyze the provided animation script and original prompt to create a clear, engaging narration for the educational animation.

Requirements:
1. Create a natural, conversational narration that explains the concepts
2. Time the narration to match the video duration (%.1f seconds)
3. Use educational language appropriate for the target audience
4. Include explanations of what's happening visually
5. Make it engaging and easy to follow
6. Keep sentences clear and not too long for good speech delivery
7. Write the narration in %s
8. Pace the narration to be spoken naturally within %.1f seconds
9. Return ONLY the narration text, no additional formatting or explanations

Pacing guidelines:
- Speak at a moderate, educational pace (about 150-180 words per minute)
- Use short, clear sentences that are easy to follow
- Add natural pauses between concepts (use periods and commas)
- Leave time for viewers to absorb visual information
- Structure: Introduction, step-by-step explanation, conclusion

The narration should guide viewers through the animation at a comfortable learning pace, explaining concepts as they appear on screen.`

// Composer turns a timing plan into narration cues via the reasoning service.
type Composer struct {
	client Completer
	logger *slog.Logger
}

// NewComposer constructs a composer.
func NewComposer(client Completer, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Composer{client: client, logger: logger}
}

// Compose produces one narration cue per planned segment. It never fails:
// unusable model output degrades to a single cue spanning the whole plan.
func (c *Composer) Compose(ctx context.Context, script, prompt, language string, plan []timing.Segment) []Segment {
	userPrompt := fmt.Sprintf("Original prompt: %s\n\nTiming segments:\n%s\n\nAnimation script:\n%s\n\nCreate timed narration:",
		prompt, describePlan(plan), script)

	content, err := c.client.Complete(ctx, fmt.Sprintf(timedSystemPrompt, LanguageName(language)), userPrompt)
	if err != nil {
		c.logger.Warn("narration request failed, using fallback cue", logging.Error(err))
		return []Segment{{StartTime: 0, EndTime: 30, Text: totalFailureText, Words: wordCount(totalFailureText)}}
	}

	var segments []Segment
	if err := llm.DecodeJSON(content, &segments); err != nil {
		c.logger.Warn("could not parse narration payload, using fallback cue", logging.Error(err))
		return c.parseFallback(plan)
	}
	segments = c.clean(segments)
	if len(segments) == 0 {
		c.logger.Warn("narration payload empty after validation, using fallback cue")
		return c.parseFallback(plan)
	}
	return segments
}

// ComposeWhole produces a single block of narration text sized to the video,
// used when per-segment timing analysis is disabled.
func (c *Composer) ComposeWhole(ctx context.Context, script, prompt, language string, videoDuration float64) (string, error) {
	system := fmt.Sprintf(wholeSystemPrompt, videoDuration, LanguageName(language), videoDuration)
	userPrompt := fmt.Sprintf("Original prompt: %s\n\nAnimation script:\n%s\n\nCreate educational narration for this animation:",
		prompt, script)

	content, err := c.client.Complete(ctx, system, userPrompt)
	if err != nil {
		return "", services.Wrap(services.ErrProvider, "narration", "compose", "narration generation failed", err)
	}
	return strings.TrimSpace(content), nil
}

func (c *Composer) parseFallback(plan []timing.Segment) []Segment {
	return []Segment{{
		StartTime: 0,
		EndTime:   float64(len(plan)) * 10,
		Text:      totalFailureText,
		Words:     wordCount(totalFailureText),
	}}
}

// clean enforces per-cue sanity: very short text gets a positional
// placeholder and a non-positive span is stretched to three seconds.
func (c *Composer) clean(segments []Segment) []Segment {
	cleaned := make([]Segment, 0, len(segments))
	for i, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if len(text) < minTextLength {
			c.logger.Warn("narration cue text too short, using placeholder",
				logging.Int(logging.FieldSegment, i), logging.String("text", text))
			text = fmt.Sprintf("Animation segment %d.", i+1)
		}
		if seg.EndTime <= seg.StartTime {
			seg.EndTime = seg.StartTime + defaultSpan
		}
		seg.Text = text
		seg.Words = wordCount(text)
		cleaned = append(cleaned, seg)
	}
	return cleaned
}

func describePlan(plan []timing.Segment) string {
	lines := make([]string, len(plan))
	for i, seg := range plan {
		lines[i] = fmt.Sprintf("Segment %d: %g-%gs - %s", i+1, seg.StartTime, seg.EndTime, seg.Description)
	}
	return strings.Join(lines, "\n")
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}
