package entity

import "fmt"

// Stage1Manifest is the output of Stage 1. KeptIndices is strictly
// increasing and KeptFrames[i].GlobalIndex == KeptIndices[i]. Read-only
// after construction.
type Stage1Manifest struct {
	JobID           string        `json:"job_id"`
	VideoID         string        `json:"video_id"`
	TotalFrameCount int           `json:"total_frames"`
	KeptIndices     []GlobalIndex `json:"keep_indices"`
	KeptFrames      []FrameRef    `json:"frames"`
}

// NewStage1Manifest builds a manifest from the kept frames, deriving
// KeptIndices and enforcing the ordering invariants.
func NewStage1Manifest(jobID, videoID string, totalFrames int, kept []FrameRef) (*Stage1Manifest, error) {
	if len(kept) == 0 {
		return nil, fmt.Errorf("%w: no frames kept", ErrInvalidInput)
	}

	indices := make([]GlobalIndex, len(kept))
	for i, f := range kept {
		if i > 0 && f.GlobalIndex <= kept[i-1].GlobalIndex {
			return nil, fmt.Errorf("%w: kept indices not strictly increasing at position %d", ErrInvalidInput, i)
		}
		indices[i] = f.GlobalIndex
	}

	return &Stage1Manifest{
		JobID:           jobID,
		VideoID:         videoID,
		TotalFrameCount: totalFrames,
		KeptIndices:     indices,
		KeptFrames:      kept,
	}, nil
}

// SelectedFrame is one entry in the final output. SourceBatchID names the
// window that first selected this frame.
type SelectedFrame struct {
	GlobalIndex   GlobalIndex `json:"global_index"`
	Timestamp     float64     `json:"timestamp"`
	Location      string      `json:"location"`
	SourceBatchID int         `json:"source_batch_id"`
}

// FinalManifest is the reconciled Stage-2 output: selected frames in
// ascending global order with no duplicates.
type FinalManifest struct {
	JobID              string          `json:"job_id"`
	VideoID            string          `json:"video_id"`
	Stage1FrameCount   int             `json:"stage1_frame_count"`
	SelectedFrameCount int             `json:"selected_frame_count"`
	SelectedFrames     []SelectedFrame `json:"selected_frames"`
}
