package entity

// Window is a contiguous slice over the Stage-1 kept frames submitted
// together to the semantic selector. BatchID is the 0-based generation
// order. Windows may overlap in their underlying Stage-1 positions.
type Window struct {
	BatchID int
	Frames  []FrameRef
}

// SelectionResult is the Stage-2 output for one window. LocalIndices are
// in-range, ascending positions within the window. Fallback is set when the
// external selector failed and the deterministic center-frame substitute was
// used; FallbackReason records why for observability.
type SelectionResult struct {
	BatchID        int
	LocalIndices   []LocalIndex
	Fallback       bool
	FallbackReason string
}
