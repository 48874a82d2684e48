package timing

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"arivid/internal/logging"
	"arivid/internal/services/llm"
)

// Segment is one time-stamped visual interval extracted from an animation
// script. Segments are immutable once produced, ordered by start time, and
// non-overlapping, but not guaranteed contiguous.
type Segment struct {
	StartTime   float64 `json:"start_time"`
	EndTime     float64 `json:"end_time"`
	Description string  `json:"description"`
	Content     string  `json:"content"`
}

// Duration returns the planned length of the segment.
func (s Segment) Duration() float64 {
	return s.EndTime - s.StartTime
}

// TotalEnd returns the end time of the last segment.
func TotalEnd(segments []Segment) float64 {
	if len(segments) == 0 {
		return 0
	}
	return segments[len(segments)-1].EndTime
}

// Completer is the LLM surface the extractor needs.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Extractor derives timing segments from an animation script's structural
// cues via the reasoning service.
type Extractor struct {
	client Completer
	logger *slog.Logger
}

// NewExtractor constructs an extractor.
func NewExtractor(client Completer, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Extractor{client: client, logger: logger}
}

const extractSystemPrompt = `Analyze the animation script and extract timing information for each animation segment.

Look for:
- play() calls with run_time parameters
- wait() calls
- Animation sequences and their durations
- Visual elements being introduced

Return a JSON list of timing segments like:
[
    {"start_time": 0, "end_time": 3, "description": "Title and theorem introduction", "content": "Pythagorean theorem"},
    {"start_time": 3, "end_time": 8, "description": "Triangle creation", "content": "Creating right triangle"},
    {"start_time": 8, "end_time": 15, "description": "Squares visualization", "content": "Drawing squares on each side"}
]

Estimate timing based on:
- Default play() duration: 1 second
- run_time=X: X seconds
- wait(X): X seconds
- Complex animations: add 1-2 seconds

Return ONLY the JSON array, no explanations.`

// Extract produces the ordered timing segments for a script. It never fails:
// unreachable models and malformed responses fall back to a fixed skeleton,
// because this path runs on every job and a hard failure here would abort an
// otherwise-successful render.
func (e *Extractor) Extract(ctx context.Context, script string) []Segment {
	content, err := e.client.Complete(ctx, extractSystemPrompt,
		"Analyze timing for this animation script:\n\n"+script)
	if err != nil {
		e.logger.Warn("timing extraction failed, using fallback", logging.Error(err))
		return fallbackSegments()
	}

	var segments []Segment
	if err := llm.DecodeJSON(content, &segments); err != nil {
		e.logger.Warn("could not parse timing payload, using fallback", logging.Error(err))
		return fallbackSegments()
	}
	segments = normalize(segments)
	if len(segments) == 0 {
		e.logger.Warn("timing payload empty after validation, using fallback")
		return fallbackSegments()
	}
	return segments
}

// fallbackSegments is the fixed intro/main/conclusion skeleton used when the
// model response is unusable.
func fallbackSegments() []Segment {
	return []Segment{
		{StartTime: 0, EndTime: 10, Description: "Introduction", Content: "Animation introduction"},
		{StartTime: 10, EndTime: 20, Description: "Main content", Content: "Main educational content"},
		{StartTime: 20, EndTime: 30, Description: "Conclusion", Content: "Summary and conclusion"},
	}
}

func normalize(segments []Segment) []Segment {
	cleaned := make([]Segment, 0, len(segments))
	for _, seg := range segments {
		if seg.StartTime < 0 || seg.EndTime <= seg.StartTime {
			continue
		}
		seg.Description = strings.TrimSpace(seg.Description)
		seg.Content = strings.TrimSpace(seg.Content)
		cleaned = append(cleaned, seg)
	}
	sort.SliceStable(cleaned, func(i, j int) bool {
		return cleaned[i].StartTime < cleaned[j].StartTime
	})
	return cleaned
}
