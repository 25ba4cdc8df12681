//go:build !opencv

package opencv

import (
	"context"
	"errors"

	"github.com/Shibata-1273352/surgical-recap/internal/domain/entity"
)

// HistogramComparator requires the opencv build tag (and an OpenCV
// installation). This stub keeps builds working without it.
type HistogramComparator struct{}

func NewHistogramComparator() *HistogramComparator {
	return &HistogramComparator{}
}

func (c *HistogramComparator) Compare(_ context.Context, _, _ entity.FrameRef) (float64, error) {
	return 0, errors.New("opencv comparator not available: rebuild with -tags opencv")
}
