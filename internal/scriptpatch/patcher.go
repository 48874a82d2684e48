package scriptpatch

import (
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"sort"
	"strings"

	"arivid/internal/logging"
	"arivid/internal/timeline"
)

var (
	constructPattern = regexp.MustCompile(`def\s+construct\s*\(`)
	playWaitPattern  = regexp.MustCompile(`self\.(play|wait)\s*\(`)
	classPattern     = regexp.MustCompile(`class\s+(\w+)\s*\(`)
)

// defaultIndent matches the usual indentation of a construct body (class
// method, two levels of four spaces).
const defaultIndent = 8

// InjectWaits inserts hold calls into an animation script so each visual
// segment lasts at least as long as its narration. Segments are located by
// partitioning the construct body's play/wait calls evenly across the plan;
// insertions run in descending segment order so earlier line numbers stay
// valid. The script is returned unchanged when there is nothing to inject or
// no construct method can be found.
func InjectWaits(script string, adjustments []timeline.TimingAdjustment, totalSegments int, logger *slog.Logger) string {
	if logger == nil {
		logger = logging.NewNop()
	}
	if len(adjustments) == 0 {
		return script
	}
	if totalSegments < 1 {
		totalSegments = len(adjustments)
	}

	lines := strings.Split(script, "\n")

	constructStart := -1
	for i, line := range lines {
		if constructPattern.MatchString(line) {
			constructStart = i
			break
		}
	}
	if constructStart < 0 {
		logger.Error("no construct method found, script left unmodified")
		return script
	}

	indent := strings.Repeat(" ", bodyIndent(lines, constructStart))

	byIndex := make(map[int]timeline.TimingAdjustment, len(adjustments))
	order := make([]int, 0, len(adjustments))
	for _, adj := range adjustments {
		byIndex[adj.SegmentIndex] = adj
		order = append(order, adj.SegmentIndex)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(order)))

	injected := 0
	for _, segIdx := range order {
		adj := byIndex[segIdx]
		insertion := findSegmentEnd(lines, constructStart, segIdx, totalSegments)
		if insertion < 0 {
			logger.Warn("no insertion point for segment hold",
				logging.Int(logging.FieldSegment, segIdx))
			continue
		}
		waitLine := fmt.Sprintf("%sself.wait(%g)  # Audio sync adjustment", indent, adj.WaitDuration)
		lines = slices.Insert(lines, insertion+1, waitLine)
		injected++
		logger.Debug("injected hold call",
			logging.Int(logging.FieldSegment, segIdx),
			logging.Float64("seconds", adj.WaitDuration),
			logging.Int("line", insertion))
	}
	if injected > 0 {
		logger.Info("hold calls injected", logging.Int("count", injected))
	}
	return strings.Join(lines, "\n")
}

// bodyIndent returns the indentation of the first statement after the
// construct definition.
func bodyIndent(lines []string, constructStart int) int {
	for i := constructStart + 1; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		return len(lines[i]) - len(strings.TrimLeft(lines[i], " \t"))
	}
	return defaultIndent
}

// findSegmentEnd locates the last play/wait call belonging to the given
// segment, assuming the construct body's calls are distributed evenly across
// all segments with the remainder attributed to the last one. Returns -1
// when the body has no play/wait calls.
func findSegmentEnd(lines []string, constructStart, segmentIndex, totalSegments int) int {
	var callLines []int
	for i := constructStart + 1; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, "def ") {
			break
		}
		if playWaitPattern.MatchString(trimmed) {
			callLines = append(callLines, i)
		}
	}
	if len(callLines) == 0 {
		return -1
	}

	callsPerSegment := len(callLines) / totalSegments
	if callsPerSegment < 1 {
		callsPerSegment = 1
	}
	end := (segmentIndex+1)*callsPerSegment - 1
	if end > len(callLines)-1 {
		end = len(callLines) - 1
	}
	if segmentIndex == totalSegments-1 {
		end = len(callLines) - 1
	}
	return callLines[end]
}

// StructureInfo summarizes an animation script, used for diagnostics.
type StructureInfo struct {
	ClassName     string
	ConstructLine int
	PlayCount     int
	WaitCount     int
	TotalLines    int
}

// Analyze inspects a script's scene structure.
func Analyze(script string) StructureInfo {
	lines := strings.Split(script, "\n")
	info := StructureInfo{ConstructLine: -1, TotalLines: len(lines)}
	for i, line := range lines {
		if match := classPattern.FindStringSubmatch(line); match != nil && info.ClassName == "" {
			info.ClassName = match[1]
		}
		if info.ConstructLine < 0 && constructPattern.MatchString(line) {
			info.ConstructLine = i
		}
		if strings.Contains(line, "self.play(") {
			info.PlayCount++
		}
		if strings.Contains(line, "self.wait(") {
			info.WaitCount++
		}
	}
	return info
}
