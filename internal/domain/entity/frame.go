package entity

// GlobalIndex is a frame's position in the original, full, unfiltered
// sequence. It is stable for the lifetime of a job.
type GlobalIndex int

// KeptPos is a position within the Stage-1 kept-frame list.
type KeptPos int

// LocalIndex is a 0-based position within a single window.
type LocalIndex int

// FrameRef identifies one input frame. Location is an opaque handle (a local
// path or object key); the filter core never dereferences it.
type FrameRef struct {
	GlobalIndex GlobalIndex `json:"global_index"`
	Timestamp   float64     `json:"timestamp"`
	Location    string      `json:"location"`
}
