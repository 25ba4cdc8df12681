package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// FilterJob records one run of the two-stage keyframe filter.
type FilterJob struct {
	ID              uuid.UUID
	UserID          string
	VideoKey        string
	ManifestKey     string
	ArchiveKey      string
	Status          JobStatus
	WindowSize      int
	Overlap         int
	TotalFrames     int
	KeptFrames      int
	SelectedFrames  int
	FallbackWindows int
	FileSize        int64
	VideoDuration   float64
	Attempt         int
	MaxAttempts     int
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     *time.Time
}

func NewFilterJob(userID, videoKey string, fileSize int64, windowSize, overlap, maxAttempts int) *FilterJob {
	now := time.Now().UTC()
	return &FilterJob{
		ID:          uuid.New(),
		UserID:      userID,
		VideoKey:    videoKey,
		FileSize:    fileSize,
		WindowSize:  windowSize,
		Overlap:     overlap,
		Status:      JobStatusPending,
		Attempt:     0,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (j *FilterJob) MarkProcessing() {
	j.Status = JobStatusProcessing
	j.Attempt++
	j.UpdatedAt = time.Now().UTC()
}

func (j *FilterJob) MarkCompleted(manifestKey, archiveKey string, total, kept, selected, fallbacks int, duration float64) {
	now := time.Now().UTC()
	j.Status = JobStatusCompleted
	j.ManifestKey = manifestKey
	j.ArchiveKey = archiveKey
	j.TotalFrames = total
	j.KeptFrames = kept
	j.SelectedFrames = selected
	j.FallbackWindows = fallbacks
	j.VideoDuration = duration
	j.UpdatedAt = now
	j.CompletedAt = &now
}

func (j *FilterJob) MarkFailed(errMsg string) {
	j.Status = JobStatusFailed
	j.ErrorMessage = errMsg
	j.UpdatedAt = time.Now().UTC()
}

func (j *FilterJob) CanRetry() bool {
	return j.Attempt < j.MaxAttempts
}
