package port

import (
	"context"

	"github.com/Shibata-1273352/surgical-recap/internal/domain/entity"
)

// VisionSelector asks an external vision-capable model which frames in a
// window are medically significant. It returns window-local indices plus the
// model's free-text rationale. Returned indices may be out of range or
// duplicated; callers are expected to sanitize them. Any error, timeout, or
// malformed response is reported as an error.
type VisionSelector interface {
	SelectFrames(ctx context.Context, frames []entity.FrameRef, batchID int) (indices []int, rationale string, err error)
}
