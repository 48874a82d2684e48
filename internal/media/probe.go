package media

import (
	"context"
	"regexp"
	"strconv"
)

// FallbackDuration is the advisory estimate returned when a probe fails.
// Duration is never safety-critical, so the pipeline prefers a degraded
// estimate over aborting the job.
const FallbackDuration = 10.0

// ffmpeg reports "Duration: HH:MM:SS.cc" (centiseconds) in its diagnostic
// output; some builds emit three fractional digits.
var durationPattern = regexp.MustCompile(`Duration: (\d{2}):(\d{2}):(\d{2})\.(\d{2,3})`)

// Duration returns the playable duration of the media file in seconds. The
// file is decoded to the null muxer and the duration parsed from the
// diagnostic output. Any failure yields FallbackDuration.
func (t *Toolchain) Duration(ctx context.Context, path string) float64 {
	output, err := t.exec(ctx,
		"-i", path,
		"-f", "null", "-",
		"-hide_banner",
	)
	// The null-muxer run exits non-zero on some inputs while still printing
	// the duration banner, so the output is parsed regardless of err.
	if seconds, ok := parseDuration(string(output)); ok {
		return seconds
	}
	_ = err
	return FallbackDuration
}

func parseDuration(output string) (float64, bool) {
	match := durationPattern.FindStringSubmatch(output)
	if match == nil {
		return 0, false
	}
	hours, _ := strconv.Atoi(match[1])
	minutes, _ := strconv.Atoi(match[2])
	seconds, _ := strconv.Atoi(match[3])
	frac, _ := strconv.Atoi(match[4])

	total := float64(hours*3600 + minutes*60 + seconds)
	if len(match[4]) == 3 {
		total += float64(frac) / 1000
	} else {
		total += float64(frac) / 100
	}
	return total, true
}
