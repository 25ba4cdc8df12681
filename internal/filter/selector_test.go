package filter

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Shibata-1273352/surgical-recap/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeVision struct {
	fn    func(ctx context.Context, frames []entity.FrameRef, batchID int) ([]int, string, error)
	calls atomic.Int32
}

func (f *fakeVision) SelectFrames(ctx context.Context, frames []entity.FrameRef, batchID int) ([]int, string, error) {
	f.calls.Add(1)
	return f.fn(ctx, frames, batchID)
}

func window(batchID, size int) entity.Window {
	return entity.Window{BatchID: batchID, Frames: makeFrames(size, 1)}
}

func TestSelectSanitizesIndices(t *testing.T) {
	vision := &fakeVision{fn: func(context.Context, []entity.FrameRef, int) ([]int, string, error) {
		return []int{4, -1, 0, 9, 4, 2}, "frames 0, 2 and 4 show transitions", nil
	}}
	s := NewStage2Selector(vision, 0, zap.NewNop())

	res := s.Select(context.Background(), window(0, 5))

	assert.False(t, res.Fallback)
	assert.Equal(t, []entity.LocalIndex{0, 2, 4}, res.LocalIndices)
}

func TestSelectAllowsEmptySelection(t *testing.T) {
	vision := &fakeVision{fn: func(context.Context, []entity.FrameRef, int) ([]int, string, error) {
		return []int{}, "nothing significant", nil
	}}
	s := NewStage2Selector(vision, 0, zap.NewNop())

	res := s.Select(context.Background(), window(3, 5))

	assert.False(t, res.Fallback)
	assert.Empty(t, res.LocalIndices)
	assert.Equal(t, 3, res.BatchID)
}

func TestSelectFallsBackToCenterOnError(t *testing.T) {
	vision := &fakeVision{fn: func(context.Context, []entity.FrameRef, int) ([]int, string, error) {
		return nil, "", errors.New("model unavailable")
	}}
	s := NewStage2Selector(vision, 0, zap.NewNop())

	// 5-frame window falls back to local index 2.
	res := s.Select(context.Background(), window(1, 5))
	assert.True(t, res.Fallback)
	assert.Equal(t, []entity.LocalIndex{2}, res.LocalIndices)
	assert.Contains(t, res.FallbackReason, "model unavailable")

	// Even length biases early: 4-frame window center is 2.
	res = s.Select(context.Background(), window(1, 4))
	assert.Equal(t, []entity.LocalIndex{2}, res.LocalIndices)

	// 3-frame window center is 1.
	res = s.Select(context.Background(), window(1, 3))
	assert.Equal(t, []entity.LocalIndex{1}, res.LocalIndices)
}

func TestSelectFallsBackOnTimeout(t *testing.T) {
	vision := &fakeVision{fn: func(ctx context.Context, _ []entity.FrameRef, _ int) ([]int, string, error) {
		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		case <-time.After(5 * time.Second):
			return []int{0}, "", nil
		}
	}}
	s := NewStage2Selector(vision, 10*time.Millisecond, zap.NewNop())

	res := s.Select(context.Background(), window(0, 5))

	assert.True(t, res.Fallback)
	assert.Equal(t, []entity.LocalIndex{2}, res.LocalIndices)
}
