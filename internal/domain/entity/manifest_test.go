package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStage1Manifest(t *testing.T) {
	kept := []FrameRef{
		{GlobalIndex: 0, Timestamp: 0, Location: "/tmp/frame_000001.png"},
		{GlobalIndex: 10, Timestamp: 10, Location: "/tmp/frame_000011.png"},
		{GlobalIndex: 25, Timestamp: 25, Location: "/tmp/frame_000026.png"},
	}

	m, err := NewStage1Manifest("job_1", "video_1", 30, kept)
	require.NoError(t, err)
	assert.Equal(t, []GlobalIndex{0, 10, 25}, m.KeptIndices)
	assert.Equal(t, 30, m.TotalFrameCount)
}

func TestNewStage1ManifestRejectsEmpty(t *testing.T) {
	_, err := NewStage1Manifest("job_1", "video_1", 0, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNewStage1ManifestRejectsNonIncreasing(t *testing.T) {
	for _, kept := range [][]FrameRef{
		{{GlobalIndex: 5}, {GlobalIndex: 5}},
		{{GlobalIndex: 5}, {GlobalIndex: 3}},
	} {
		_, err := NewStage1Manifest("job_1", "video_1", 10, kept)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
}

func TestFilterJobLifecycle(t *testing.T) {
	job := NewFilterJob("user-1", "user-1/video.mp4", 1024, 5, 2, 3)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.True(t, job.CanRetry())

	job.MarkProcessing()
	assert.Equal(t, JobStatusProcessing, job.Status)
	assert.Equal(t, 1, job.Attempt)

	job.MarkCompleted("m.json", "k.zip", 100, 10, 3, 1, 99.5)
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.Equal(t, 3, job.SelectedFrames)
	assert.Equal(t, 1, job.FallbackWindows)
	require.NotNil(t, job.CompletedAt)
}

func TestFilterJobRetryExhaustion(t *testing.T) {
	job := NewFilterJob("user-1", "user-1/video.mp4", 1024, 5, 2, 2)

	job.MarkProcessing()
	job.MarkFailed("download failed")
	assert.True(t, job.CanRetry())

	job.MarkProcessing()
	job.MarkFailed("download failed")
	assert.False(t, job.CanRetry())
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "download failed", job.ErrorMessage)
}
