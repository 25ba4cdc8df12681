package filter

import (
	"testing"

	"github.com/Shibata-1273352/surgical-recap/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanWindowsReferenceScenario(t *testing.T) {
	// 10 kept frames, window 5, overlap 2 => step 3: [0:5], [3:8], [6:10].
	kept := makeFrames(10, 1)

	windows, err := PlanWindows(kept, 5, 2)
	require.NoError(t, err)
	require.Len(t, windows, 3)

	assert.Equal(t, 0, windows[0].BatchID)
	assert.Equal(t, 1, windows[1].BatchID)
	assert.Equal(t, 2, windows[2].BatchID)

	assert.Len(t, windows[0].Frames, 5)
	assert.Len(t, windows[1].Frames, 5)
	assert.Len(t, windows[2].Frames, 4)

	assert.Equal(t, entity.GlobalIndex(0), windows[0].Frames[0].GlobalIndex)
	assert.Equal(t, entity.GlobalIndex(3), windows[1].Frames[0].GlobalIndex)
	assert.Equal(t, entity.GlobalIndex(6), windows[2].Frames[0].GlobalIndex)
	assert.Equal(t, entity.GlobalIndex(9), windows[2].Frames[3].GlobalIndex)
}

func TestPlanWindowsDropsShortTail(t *testing.T) {
	// step 2 with 4 kept frames: [0:3] then tail [2:4] of length 2, dropped.
	windows, err := PlanWindows(makeFrames(4, 1), 3, 1)
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Len(t, windows[0].Frames, 3)
}

func TestPlanWindowsTooFewFrames(t *testing.T) {
	windows, err := PlanWindows(makeFrames(2, 1), 5, 2)
	require.NoError(t, err)
	assert.Empty(t, windows)
}

func TestPlanWindowsConfigValidation(t *testing.T) {
	cases := []struct {
		name       string
		windowSize int
		overlap    int
	}{
		{"window too small", 2, 1},
		{"window too large", 11, 2},
		{"overlap zero", 5, 0},
		{"overlap equals window", 5, 5},
		{"overlap above window", 5, 7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := PlanWindows(makeFrames(10, 1), tc.windowSize, tc.overlap)
			assert.ErrorIs(t, err, entity.ErrInvalidConfig)
		})
	}
}

func TestPlanWindowsBounds(t *testing.T) {
	for n := 3; n <= 60; n++ {
		windows, err := PlanWindows(makeFrames(n, 1), 5, 2)
		require.NoError(t, err)

		covered := make(map[entity.GlobalIndex]bool)
		for i, w := range windows {
			assert.Equal(t, i, w.BatchID)
			assert.GreaterOrEqual(t, len(w.Frames), MinWindowFrames)
			assert.LessOrEqual(t, len(w.Frames), 5)
			for _, f := range w.Frames {
				covered[f.GlobalIndex] = true
			}
		}
		// Every kept frame lands in at least one window.
		assert.Len(t, covered, n, "n=%d", n)
	}
}

func TestPlanWindowsIdempotent(t *testing.T) {
	kept := makeFrames(23, 1)

	first, err := PlanWindows(kept, 6, 3)
	require.NoError(t, err)
	second, err := PlanWindows(kept, 6, 3)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
