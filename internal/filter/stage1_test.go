package filter

import (
	"context"
	"testing"

	"github.com/Shibata-1273352/surgical-recap/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func makeFrames(n int, fps float64) []entity.FrameRef {
	frames := make([]entity.FrameRef, n)
	for i := range frames {
		frames[i] = entity.FrameRef{
			GlobalIndex: entity.GlobalIndex(i),
			Timestamp:   float64(i) / fps,
			Location:    "frame.png",
		}
	}
	return frames
}

func TestIntervalSamplerKeepsEveryTenSeconds(t *testing.T) {
	s := NewIntervalSampler(Stage1Config{SampleIntervalSec: 10}, zap.NewNop())

	manifest, err := s.Filter(context.Background(), "job_1", "video_1", makeFrames(100, 1))
	require.NoError(t, err)

	want := []entity.GlobalIndex{0, 10, 20, 30, 40, 50, 60, 70, 80, 90}
	assert.Equal(t, want, manifest.KeptIndices)
	assert.Equal(t, 100, manifest.TotalFrameCount)
	assert.Len(t, manifest.KeptFrames, 10)
	for i, f := range manifest.KeptFrames {
		assert.Equal(t, manifest.KeptIndices[i], f.GlobalIndex)
	}
}

func TestIntervalSamplerAlwaysKeepsFirstFrame(t *testing.T) {
	s := NewIntervalSampler(Stage1Config{SampleIntervalSec: 1000}, zap.NewNop())

	manifest, err := s.Filter(context.Background(), "job_1", "video_1", makeFrames(50, 1))
	require.NoError(t, err)
	require.NotEmpty(t, manifest.KeptIndices)
	assert.Equal(t, entity.GlobalIndex(0), manifest.KeptIndices[0])
}

func TestIntervalSamplerRejectsEmptyInput(t *testing.T) {
	s := NewIntervalSampler(Stage1Config{SampleIntervalSec: 10}, zap.NewNop())

	_, err := s.Filter(context.Background(), "job_1", "video_1", nil)
	assert.ErrorIs(t, err, entity.ErrInvalidInput)
}

func TestIntervalSamplerRejectsUnsortedTimestamps(t *testing.T) {
	frames := makeFrames(5, 1)
	frames[3].Timestamp = 0.5

	s := NewIntervalSampler(Stage1Config{SampleIntervalSec: 10}, zap.NewNop())
	_, err := s.Filter(context.Background(), "job_1", "video_1", frames)
	assert.ErrorIs(t, err, entity.ErrInvalidInput)
}

func TestIntervalSamplerGapBound(t *testing.T) {
	// A huge interval would keep only frame 0; the gap bound forces
	// additional frames so no run of more than 9 originals is skipped.
	s := NewIntervalSampler(Stage1Config{SampleIntervalSec: 1000, MaxGap: 9}, zap.NewNop())

	manifest, err := s.Filter(context.Background(), "job_1", "video_1", makeFrames(100, 1))
	require.NoError(t, err)

	want := []entity.GlobalIndex{0, 10, 20, 30, 40, 50, 60, 70, 80, 90}
	assert.Equal(t, want, manifest.KeptIndices)
}

func TestIntervalSamplerKeptIndicesStrictlyIncreasing(t *testing.T) {
	for _, n := range []int{1, 2, 7, 33, 250} {
		s := NewIntervalSampler(Stage1Config{SampleIntervalSec: 3, MaxGap: 12}, zap.NewNop())
		manifest, err := s.Filter(context.Background(), "job_1", "video_1", makeFrames(n, 2))
		require.NoError(t, err, "n=%d", n)

		assert.Equal(t, entity.GlobalIndex(0), manifest.KeptIndices[0])
		for i := 1; i < len(manifest.KeptIndices); i++ {
			assert.Greater(t, manifest.KeptIndices[i], manifest.KeptIndices[i-1])
			assert.LessOrEqual(t, int(manifest.KeptIndices[i]-manifest.KeptIndices[i-1]), 13)
		}
	}
}

type fakeComparator struct {
	scores map[[2]int]float64
}

func (f *fakeComparator) Compare(_ context.Context, a, b entity.FrameRef) (float64, error) {
	if score, ok := f.scores[[2]int{int(a.GlobalIndex), int(b.GlobalIndex)}]; ok {
		return score, nil
	}
	return 1.0, nil
}

func TestSimilarityFilterSplitsGroupsAtLowSimilarity(t *testing.T) {
	// Scene change between frames 4 and 5; everything else identical.
	comp := &fakeComparator{scores: map[[2]int]float64{{4, 5}: 0.2}}
	s := NewSimilarityFilter(comp, Stage1Config{SampleIntervalSec: 1000, SimilarityThreshold: 0.98}, zap.NewNop())

	manifest, err := s.Filter(context.Background(), "job_1", "video_1", makeFrames(10, 1))
	require.NoError(t, err)

	assert.Equal(t, []entity.GlobalIndex{0, 5}, manifest.KeptIndices)
}

func TestSimilarityFilterSamplesInsideGroups(t *testing.T) {
	comp := &fakeComparator{}
	s := NewSimilarityFilter(comp, Stage1Config{SampleIntervalSec: 4, SimilarityThreshold: 0.98}, zap.NewNop())

	manifest, err := s.Filter(context.Background(), "job_1", "video_1", makeFrames(10, 1))
	require.NoError(t, err)

	// Single group, one representative every 4 seconds at 1 fps.
	assert.Equal(t, []entity.GlobalIndex{0, 4, 8}, manifest.KeptIndices)
}

func TestEnforceGapBoundTail(t *testing.T) {
	got := enforceGapBound([]int{0}, 25, 9)
	assert.Equal(t, []int{0, 10, 20}, got)
}
