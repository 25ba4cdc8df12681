package filter

import (
	"context"
	"fmt"

	"github.com/Shibata-1273352/surgical-recap/internal/domain/entity"
	"github.com/Shibata-1273352/surgical-recap/internal/domain/port"
	"go.uber.org/zap"
)

// Stage1Filter reduces the full ordered frame list to a kept subset. Every
// implementation keeps frame 0, returns strictly increasing indices, and
// leaves no run of more than the configured max gap fully excluded.
type Stage1Filter interface {
	Filter(ctx context.Context, jobID, videoID string, frames []entity.FrameRef) (*entity.Stage1Manifest, error)
}

type Stage1Config struct {
	// SampleIntervalSec is the temporal bucket width, one representative
	// frame is kept per bucket.
	SampleIntervalSec float64
	// SimilarityThreshold splits the sequence into visual groups; adjacent
	// frames at or above the threshold belong to the same group.
	SimilarityThreshold float64
	// MaxGap bounds how many consecutive original frames may be excluded in
	// a row. Zero disables the bound.
	MaxGap int
}

// IntervalSampler keeps one frame per temporal bucket of SampleIntervalSec.
// It is the default Stage-1 strategy and needs no comparator.
type IntervalSampler struct {
	cfg    Stage1Config
	logger *zap.Logger
}

func NewIntervalSampler(cfg Stage1Config, logger *zap.Logger) *IntervalSampler {
	if cfg.SampleIntervalSec <= 0 {
		cfg.SampleIntervalSec = 10
	}
	return &IntervalSampler{cfg: cfg, logger: logger}
}

func (s *IntervalSampler) Filter(ctx context.Context, jobID, videoID string, frames []entity.FrameRef) (*entity.Stage1Manifest, error) {
	if err := validateFrames(frames); err != nil {
		return nil, err
	}

	kept := []int{0}
	lastTs := frames[0].Timestamp
	for i := 1; i < len(frames); i++ {
		if frames[i].Timestamp-lastTs >= s.cfg.SampleIntervalSec {
			kept = append(kept, i)
			lastTs = frames[i].Timestamp
		}
	}
	kept = enforceGapBound(kept, len(frames), s.cfg.MaxGap)

	s.logger.Info("stage1 interval sampling done",
		zap.String("job_id", jobID),
		zap.Int("total_frames", len(frames)),
		zap.Int("kept_frames", len(kept)),
	)

	return entity.NewStage1Manifest(jobID, videoID, len(frames), pick(frames, kept))
}

// SimilarityFilter groups adjacent frames by a comparator score and samples
// one representative per SampleIntervalSec inside each group. Mirrors the
// embedding-based filter: group boundaries fall where adjacent similarity
// drops below the threshold.
type SimilarityFilter struct {
	comparator port.FrameComparator
	cfg        Stage1Config
	logger     *zap.Logger
}

func NewSimilarityFilter(comparator port.FrameComparator, cfg Stage1Config, logger *zap.Logger) *SimilarityFilter {
	if cfg.SampleIntervalSec <= 0 {
		cfg.SampleIntervalSec = 10
	}
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = 0.98
	}
	return &SimilarityFilter{comparator: comparator, cfg: cfg, logger: logger}
}

func (s *SimilarityFilter) Filter(ctx context.Context, jobID, videoID string, frames []entity.FrameRef) (*entity.Stage1Manifest, error) {
	if err := validateFrames(frames); err != nil {
		return nil, err
	}

	// Group boundaries sit after each adjacent pair whose similarity drops
	// below the threshold.
	bounds := []int{0}
	for i := 0; i < len(frames)-1; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		score, err := s.comparator.Compare(ctx, frames[i], frames[i+1])
		if err != nil {
			return nil, fmt.Errorf("compare frames %d/%d: %w", frames[i].GlobalIndex, frames[i+1].GlobalIndex, err)
		}
		if score < s.cfg.SimilarityThreshold {
			bounds = append(bounds, i+1)
		}
	}
	bounds = append(bounds, len(frames))

	var kept []int
	for b := 0; b < len(bounds)-1; b++ {
		start, end := bounds[b], bounds[b+1]
		kept = append(kept, start)
		lastTs := frames[start].Timestamp
		for i := start + 1; i < end; i++ {
			if frames[i].Timestamp-lastTs >= s.cfg.SampleIntervalSec {
				kept = append(kept, i)
				lastTs = frames[i].Timestamp
			}
		}
	}
	kept = enforceGapBound(kept, len(frames), s.cfg.MaxGap)

	s.logger.Info("stage1 similarity filtering done",
		zap.String("job_id", jobID),
		zap.Int("total_frames", len(frames)),
		zap.Int("groups", len(bounds)-1),
		zap.Int("kept_frames", len(kept)),
	)

	return entity.NewStage1Manifest(jobID, videoID, len(frames), pick(frames, kept))
}

func validateFrames(frames []entity.FrameRef) error {
	if len(frames) == 0 {
		return fmt.Errorf("%w: empty frame list", entity.ErrInvalidInput)
	}
	for i := 1; i < len(frames); i++ {
		if frames[i].Timestamp < frames[i-1].Timestamp {
			return fmt.Errorf("%w: timestamps not monotonic at frame %d", entity.ErrInvalidInput, i)
		}
	}
	return nil
}

// enforceGapBound inserts additional positions so that no run of more than
// maxGap consecutive positions in [0,total) is entirely excluded, the tail
// after the last kept position included. Input positions must be strictly
// increasing and start at 0.
func enforceGapBound(kept []int, total, maxGap int) []int {
	if maxGap <= 0 {
		return kept
	}
	out := make([]int, 0, len(kept))
	prev := kept[0]
	out = append(out, prev)
	for _, k := range kept[1:] {
		for k-prev-1 > maxGap {
			prev += maxGap + 1
			out = append(out, prev)
		}
		out = append(out, k)
		prev = k
	}
	for total-prev-1 > maxGap {
		prev += maxGap + 1
		out = append(out, prev)
	}
	return out
}

func pick(frames []entity.FrameRef, positions []int) []entity.FrameRef {
	out := make([]entity.FrameRef, len(positions))
	for i, p := range positions {
		out[i] = frames[p]
	}
	return out
}
