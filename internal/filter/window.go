package filter

import (
	"fmt"

	"github.com/Shibata-1273352/surgical-recap/internal/domain/entity"
)

const (
	// MinWindowFrames is the smallest window the selector will accept.
	// Shorter tails are dropped, never emitted.
	MinWindowFrames = 3
	MaxWindowSize   = 10
)

// ValidateWindowConfig checks the window size and overlap bounds shared by
// the planner and the pipeline.
func ValidateWindowConfig(windowSize, overlap int) error {
	if windowSize < MinWindowFrames || windowSize > MaxWindowSize {
		return fmt.Errorf("%w: window size %d outside [%d,%d]", entity.ErrInvalidConfig, windowSize, MinWindowFrames, MaxWindowSize)
	}
	if overlap < 1 || overlap >= windowSize {
		return fmt.Errorf("%w: overlap %d outside [1,%d)", entity.ErrInvalidConfig, overlap, windowSize)
	}
	return nil
}

// PlanWindows slices the kept frames into overlapping windows starting at
// positions 0, step, 2*step, ... with step = windowSize - overlap. The final
// window may be shorter than windowSize; anything shorter than
// MinWindowFrames is dropped. Batch IDs follow generation order. Pure and
// deterministic.
func PlanWindows(kept []entity.FrameRef, windowSize, overlap int) ([]entity.Window, error) {
	if err := ValidateWindowConfig(windowSize, overlap); err != nil {
		return nil, err
	}

	step := windowSize - overlap
	var windows []entity.Window
	batchID := 0
	for start := 0; start < len(kept); start += step {
		end := start + windowSize
		if end > len(kept) {
			end = len(kept)
		}
		if end-start < MinWindowFrames {
			break
		}
		windows = append(windows, entity.Window{BatchID: batchID, Frames: kept[start:end]})
		batchID++
	}
	return windows, nil
}
