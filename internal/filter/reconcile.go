package filter

import (
	"fmt"
	"sort"

	"github.com/Shibata-1273352/surgical-recap/internal/domain/entity"
)

// Reconcile translates every window-local selection back to the global
// frame space and deduplicates frames selected by overlapping windows. When
// two windows pick the same global frame, the lower batch ID wins.
// selections[i] must correspond to windows[i].
func Reconcile(stage1 *entity.Stage1Manifest, windows []entity.Window, selections []entity.SelectionResult) (*entity.FinalManifest, error) {
	if len(windows) != len(selections) {
		return nil, fmt.Errorf("%w: %d windows but %d selections", entity.ErrInvalidInput, len(windows), len(selections))
	}

	type pick struct {
		frame   entity.FrameRef
		batchID int
	}

	seen := make(map[entity.GlobalIndex]struct{})
	var picks []pick
	for i, w := range windows {
		sel := selections[i]
		if sel.BatchID != w.BatchID {
			return nil, fmt.Errorf("%w: selection batch %d does not match window batch %d", entity.ErrInvalidInput, sel.BatchID, w.BatchID)
		}
		for _, local := range sel.LocalIndices {
			if int(local) < 0 || int(local) >= len(w.Frames) {
				return nil, fmt.Errorf("%w: local index %d out of range for batch %d", entity.ErrInvalidInput, local, w.BatchID)
			}
			frame := w.Frames[local]
			if _, dup := seen[frame.GlobalIndex]; dup {
				continue
			}
			seen[frame.GlobalIndex] = struct{}{}
			picks = append(picks, pick{frame: frame, batchID: w.BatchID})
		}
	}

	sort.Slice(picks, func(i, j int) bool { return picks[i].frame.GlobalIndex < picks[j].frame.GlobalIndex })

	selected := make([]entity.SelectedFrame, len(picks))
	for i, p := range picks {
		selected[i] = entity.SelectedFrame{
			GlobalIndex:   p.frame.GlobalIndex,
			Timestamp:     p.frame.Timestamp,
			Location:      p.frame.Location,
			SourceBatchID: p.batchID,
		}
	}

	return &entity.FinalManifest{
		JobID:              stage1.JobID,
		VideoID:            stage1.VideoID,
		Stage1FrameCount:   len(stage1.KeptFrames),
		SelectedFrameCount: len(selected),
		SelectedFrames:     selected,
	}, nil
}
