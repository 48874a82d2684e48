package timeline

import (
	"math"

	"arivid/internal/timing"
)

// AudioSegmentRecord captures the reconciled timing of one spoken clip. The
// planned columns keep the original visual slot, the actual columns hold the
// cumulative position on the assembled audio track.
type AudioSegmentRecord struct {
	SegmentIndex  int     `json:"segment_index"`
	Path          string  `json:"-"`
	PlannedStart  float64 `json:"planned_start"`
	PlannedEnd    float64 `json:"planned_end"`
	ActualStart   float64 `json:"actual_start"`
	ActualEnd     float64 `json:"actual_end"`
	AudioDuration float64 `json:"audio_duration"`
	Text          string  `json:"text"`
}

// TimingAdjustment describes extra hold time a visual segment needs so the
// animation does not outrun its narration.
type TimingAdjustment struct {
	SegmentIndex  int     `json:"segment_index"`
	WaitDuration  float64 `json:"wait_duration"`
	VideoDuration float64 `json:"video_duration"`
	AudioDuration float64 `json:"audio_duration"`
	Description   string  `json:"segment_description,omitempty"`
}

// AdjustmentThreshold is the minimum audio overrun, in seconds, that triggers
// a hold-time adjustment for the corresponding visual segment.
const AdjustmentThreshold = 0.1

// Adjustments compares each planned visual segment against its reconciled
// audio record and returns hold-time adjustments for every segment whose
// narration runs longer than its visuals by more than the threshold. Pairs
// beyond the shorter of the two lists are ignored.
func Adjustments(plan []timing.Segment, records []AudioSegmentRecord, threshold float64) []TimingAdjustment {
	if threshold <= 0 {
		threshold = AdjustmentThreshold
	}
	var adjustments []TimingAdjustment
	for i := 0; i < len(plan) && i < len(records); i++ {
		videoDuration := plan[i].Duration()
		audioDuration := records[i].AudioDuration
		if audioDuration <= 0 {
			audioDuration = records[i].ActualEnd - records[i].ActualStart
		}
		diff := audioDuration - videoDuration
		if diff <= threshold {
			continue
		}
		adjustments = append(adjustments, TimingAdjustment{
			SegmentIndex:  i,
			WaitDuration:  round2(diff),
			VideoDuration: round2(videoDuration),
			AudioDuration: round2(audioDuration),
			Description:   plan[i].Description,
		})
	}
	return adjustments
}

// TotalAdded returns the sum of all hold durations.
func TotalAdded(adjustments []TimingAdjustment) float64 {
	var total float64
	for _, adj := range adjustments {
		total += adj.WaitDuration
	}
	return total
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
