package timeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"arivid/internal/logging"
	"arivid/internal/media"
	"arivid/internal/services"
)

// assemble splices the reconciled clips into one sequential track at dst.
// Three strategies are tried in order: demuxer concatenation with generated
// silence files for any gaps, a filter-graph concatenation that creates gaps
// inline, and finally plain back-to-back concatenation with no gap handling.
func (e *Engine) assemble(ctx context.Context, records []AudioSegmentRecord, dst string) error {
	if len(records) == 0 {
		return services.Wrap(services.ErrValidation, "timeline", "assemble", "no audio segments to combine", nil)
	}

	ordered := make([]AudioSegmentRecord, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ActualStart < ordered[j].ActualStart
	})

	if err := e.assembleWithSilenceFiles(ctx, ordered, dst); err == nil {
		return nil
	} else {
		e.logger.Warn("demuxer assembly failed, trying filter-graph assembly", logging.Error(err))
	}

	if err := e.assembleWithFilterGaps(ctx, ordered, dst); err == nil {
		return nil
	} else {
		e.logger.Warn("filter-graph assembly failed, concatenating without gaps", logging.Error(err))
	}

	paths := make([]string, len(ordered))
	for i, rec := range ordered {
		paths[i] = rec.Path
	}
	if err := e.tools.ConcatFiles(ctx, paths, dst); err != nil {
		return services.Wrap(services.ErrExternalTool, "timeline", "assemble", "audio combination failed", err)
	}
	return nil
}

func (e *Engine) assembleWithSilenceFiles(ctx context.Context, ordered []AudioSegmentRecord, dst string) error {
	var (
		inputs  []string
		temps   []string
		current float64
	)
	defer func() {
		for _, temp := range temps {
			os.Remove(temp)
		}
	}()

	for i, rec := range ordered {
		if gap := rec.ActualStart - current; gap > 0 {
			silencePath := filepath.Join(filepath.Dir(dst), fmt.Sprintf("silence_%d_%s", i, filepath.Base(dst)))
			if err := e.tools.WriteSilence(ctx, silencePath, gap); err != nil {
				return err
			}
			temps = append(temps, silencePath)
			inputs = append(inputs, silencePath)
		}
		inputs = append(inputs, rec.Path)
		current = rec.ActualEnd
	}
	return e.tools.ConcatFiles(ctx, inputs, dst)
}

func (e *Engine) assembleWithFilterGaps(ctx context.Context, ordered []AudioSegmentRecord, dst string) error {
	inputs := make([]media.GapInput, len(ordered))
	for i, rec := range ordered {
		gap := rec.ActualStart
		if i > 0 {
			gap = rec.ActualStart - ordered[i-1].ActualEnd
		}
		if gap < 0 {
			gap = 0
		}
		inputs[i] = media.GapInput{Path: rec.Path, GapSeconds: gap}
	}
	return e.tools.ConcatWithGaps(ctx, inputs, dst)
}
