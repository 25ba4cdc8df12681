package port

import (
	"context"

	"github.com/Shibata-1273352/surgical-recap/internal/domain/entity"
)

// FrameComparator scores the visual similarity of two frames in [0,1].
// Implementations may load pixel data from FrameRef.Location.
type FrameComparator interface {
	Compare(ctx context.Context, a, b entity.FrameRef) (float64, error)
}
