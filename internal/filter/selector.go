package filter

import (
	"context"
	"sort"
	"time"

	"github.com/Shibata-1273352/surgical-recap/internal/domain/entity"
	"github.com/Shibata-1273352/surgical-recap/internal/domain/port"
	"go.uber.org/zap"
)

// Stage2Selector runs one window through the external vision selector. A
// failed, timed-out, or malformed call never surfaces to the caller: the
// window falls back to its center frame so the job always makes progress.
type Stage2Selector struct {
	vision  port.VisionSelector
	timeout time.Duration
	logger  *zap.Logger
}

func NewStage2Selector(vision port.VisionSelector, timeout time.Duration, logger *zap.Logger) *Stage2Selector {
	return &Stage2Selector{vision: vision, timeout: timeout, logger: logger}
}

// Select returns the in-range window-local selection for one window. The
// error path is absorbed here; the result is marked Fallback instead.
func (s *Stage2Selector) Select(ctx context.Context, w entity.Window) entity.SelectionResult {
	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	indices, rationale, err := s.vision.SelectFrames(callCtx, w.Frames, w.BatchID)
	if err != nil {
		s.logger.Warn("selector call failed, using center frame",
			zap.Int("batch_id", w.BatchID),
			zap.Error(err),
		)
		return s.fallback(w, err.Error())
	}

	locals := sanitizeIndices(indices, len(w.Frames))
	s.logger.Debug("selector returned",
		zap.Int("batch_id", w.BatchID),
		zap.Ints("raw_indices", indices),
		zap.Int("accepted", len(locals)),
		zap.String("rationale", rationale),
	)
	return entity.SelectionResult{BatchID: w.BatchID, LocalIndices: locals}
}

// fallback selects the window's center, biased early for even lengths.
func (s *Stage2Selector) fallback(w entity.Window, reason string) entity.SelectionResult {
	center := entity.LocalIndex(len(w.Frames) / 2)
	return entity.SelectionResult{
		BatchID:        w.BatchID,
		LocalIndices:   []entity.LocalIndex{center},
		Fallback:       true,
		FallbackReason: reason,
	}
}

// sanitizeIndices drops out-of-range values, deduplicates, and returns the
// remainder ascending. Out-of-range indices are not fatal.
func sanitizeIndices(indices []int, windowLen int) []entity.LocalIndex {
	seen := make(map[int]struct{}, len(indices))
	var locals []entity.LocalIndex
	for _, idx := range indices {
		if idx < 0 || idx >= windowLen {
			continue
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		locals = append(locals, entity.LocalIndex(idx))
	}
	sort.Slice(locals, func(i, j int) bool { return locals[i] < locals[j] })
	return locals
}
