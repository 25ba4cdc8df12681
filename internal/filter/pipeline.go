package filter

import (
	"context"
	"fmt"

	"github.com/Shibata-1273352/surgical-recap/internal/domain/entity"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Pipeline orchestrates the two-stage filter: Stage 1 → window planning →
// one selector call per window → reconciliation. Window selections are
// dispatched concurrently up to the configured limit; each result goes into
// its own slot so reconciliation always sees batch order.
type Pipeline struct {
	stage1      Stage1Filter
	selector    *Stage2Selector
	concurrency int
	logger      *zap.Logger
}

func NewPipeline(stage1 Stage1Filter, selector *Stage2Selector, concurrency int, logger *zap.Logger) *Pipeline {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pipeline{stage1: stage1, selector: selector, concurrency: concurrency, logger: logger}
}

// Request carries one filter invocation. JobID is generated when empty.
// WindowSize and Overlap must satisfy ValidateWindowConfig.
type Request struct {
	VideoID    string
	Frames     []entity.FrameRef
	JobID      string
	WindowSize int
	Overlap    int
}

// Result bundles the two manifests with per-run counters.
type Result struct {
	Stage1          *entity.Stage1Manifest
	Final           *entity.FinalManifest
	WindowCount     int
	FallbackWindows int
}

// Process runs the full filter and returns both manifests. Cancellation
// aborts in-flight selector calls and returns the context error with no
// partial final manifest.
func (p *Pipeline) Process(ctx context.Context, req Request) (*Result, error) {
	if len(req.Frames) == 0 {
		return nil, fmt.Errorf("%w: empty frame list", entity.ErrInvalidInput)
	}
	if err := ValidateWindowConfig(req.WindowSize, req.Overlap); err != nil {
		return nil, err
	}

	jobID := req.JobID
	if jobID == "" {
		jobID = "job_" + uuid.NewString()
	}
	log := p.logger.With(zap.String("job_id", jobID), zap.String("video_id", req.VideoID))

	stage1, err := p.stage1.Filter(ctx, jobID, req.VideoID, req.Frames)
	if err != nil {
		return nil, fmt.Errorf("stage1: %w", err)
	}

	windows, err := PlanWindows(stage1.KeptFrames, req.WindowSize, req.Overlap)
	if err != nil {
		return nil, err
	}
	log.Info("windows planned",
		zap.Int("kept_frames", len(stage1.KeptFrames)),
		zap.Int("windows", len(windows)),
		zap.Int("window_size", req.WindowSize),
		zap.Int("overlap", req.Overlap),
	)

	// One slot per window, written once by its own goroutine and read only
	// after the join.
	selections := make([]entity.SelectionResult, len(windows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, w := range windows {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			selections[i] = p.selector.Select(gctx, w)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	final, err := Reconcile(stage1, windows, selections)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}

	fallbacks := CountFallbacks(selections)
	log.Info("two-stage filter complete",
		zap.Int("selected_frames", len(final.SelectedFrames)),
		zap.Int("fallback_windows", fallbacks),
	)
	return &Result{
		Stage1:          stage1,
		Final:           final,
		WindowCount:     len(windows),
		FallbackWindows: fallbacks,
	}, nil
}

// CountFallbacks reports how many windows used the center-frame fallback.
func CountFallbacks(selections []entity.SelectionResult) int {
	n := 0
	for _, s := range selections {
		if s.Fallback {
			n++
		}
	}
	return n
}
