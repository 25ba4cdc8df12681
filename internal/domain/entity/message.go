package entity

import "github.com/google/uuid"

// KeyframeJobMessage is the inbound message from the keyframe.jobs queue.
// WindowSize and Overlap of zero mean "use the worker defaults".
type KeyframeJobMessage struct {
	JobID      uuid.UUID `json:"job_id"`
	UserID     string    `json:"user_id"`
	VideoKey   string    `json:"video_key"`
	FileSize   int64     `json:"file_size"`
	UserEmail  string    `json:"user_email"`
	WindowSize int       `json:"window_size,omitempty"`
	Overlap    int       `json:"overlap,omitempty"`
}

// KeyframeStatusMessage is the outbound message published to the
// keyframe.status queue.
type KeyframeStatusMessage struct {
	JobID           uuid.UUID `json:"job_id"`
	UserID          string    `json:"user_id"`
	Status          JobStatus `json:"status"`
	VideoKey        string    `json:"video_key"`
	ManifestKey     string    `json:"manifest_key,omitempty"`
	ArchiveKey      string    `json:"archive_key,omitempty"`
	TotalFrames     int       `json:"total_frames,omitempty"`
	KeptFrames      int       `json:"kept_frames,omitempty"`
	SelectedFrames  int       `json:"selected_frames,omitempty"`
	FallbackWindows int       `json:"fallback_windows,omitempty"`
	Duration        float64   `json:"duration_seconds,omitempty"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	Attempt         int       `json:"attempt"`
	MaxAttempts     int       `json:"max_attempts"`
}
