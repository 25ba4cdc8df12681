package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Shibata-1273352/surgical-recap/internal/domain/entity"
	"github.com/Shibata-1273352/surgical-recap/internal/domain/port"
	"github.com/Shibata-1273352/surgical-recap/internal/filter"
	"github.com/Shibata-1273352/surgical-recap/internal/infra/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type ProcessKeyframesUseCase struct {
	repo      port.JobRepository
	storage   port.VideoStorage
	extractor port.FrameExtractor
	zipper    port.Zipper
	pipeline  *filter.Pipeline
	publisher port.StatusPublisher
	dlq       port.DLQPublisher
	notifier  port.FailureNotifier
	logger    *zap.Logger
	cfg       ProcessKeyframesConfig
}

type ProcessKeyframesConfig struct {
	TempDir           string
	MaxRetries        int
	DefaultWindowSize int
	DefaultOverlap    int
}

func NewProcessKeyframesUseCase(
	repo port.JobRepository,
	storage port.VideoStorage,
	extractor port.FrameExtractor,
	zipper port.Zipper,
	pipeline *filter.Pipeline,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	logger *zap.Logger,
	cfg ProcessKeyframesConfig,
) *ProcessKeyframesUseCase {
	return &ProcessKeyframesUseCase{
		repo:      repo,
		storage:   storage,
		extractor: extractor,
		zipper:    zipper,
		pipeline:  pipeline,
		publisher: publisher,
		dlq:       dlq,
		notifier:  notifier,
		logger:    logger,
		cfg:       cfg,
	}
}

func (uc *ProcessKeyframesUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "ProcessKeyframesUseCase.Execute")
	defer span.End()

	totalTimer := time.Now()

	var msg entity.KeyframeJobMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		return nil
	}
	if msg.WindowSize == 0 {
		msg.WindowSize = uc.cfg.DefaultWindowSize
	}
	if msg.Overlap == 0 {
		msg.Overlap = uc.cfg.DefaultOverlap
	}

	span.SetAttributes(
		attribute.String("job.id", msg.JobID.String()),
		attribute.String("job.video_key", msg.VideoKey),
		attribute.Int("job.window_size", msg.WindowSize),
		attribute.Int("job.overlap", msg.Overlap),
	)

	log := uc.logger.With(zap.String("job_id", msg.JobID.String()), zap.String("video_key", msg.VideoKey))

	job, err := uc.repo.FindByID(ctx, msg.JobID)
	if err != nil {
		job = entity.NewFilterJob(msg.UserID, msg.VideoKey, msg.FileSize, msg.WindowSize, msg.Overlap, uc.cfg.MaxRetries)
		job.ID = msg.JobID
		if err := uc.repo.Create(ctx, job); err != nil {
			log.Error("failed to create job record", zap.Error(err))
			return fmt.Errorf("create job: %w", err)
		}
	}

	if !job.CanRetry() {
		log.Warn("job exhausted retries, sending to DLQ")
		_ = uc.handlePermanentFailure(ctx, job, msg, rawMsg, "max retries exceeded")
		return nil
	}

	job.MarkProcessing()
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to PROCESSING", zap.Error(err))
		return fmt.Errorf("update job: %w", err)
	}

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	if err := uc.processKeyframePipeline(ctx, job, msg, rawMsg, log); err != nil {
		return err
	}

	metrics.JobsProcessedTotal.WithLabelValues("completed").Inc()
	metrics.JobProcessingDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())

	return nil
}

func (uc *ProcessKeyframesUseCase) processKeyframePipeline(
	ctx context.Context,
	job *entity.FilterJob,
	msg entity.KeyframeJobMessage,
	rawMsg []byte,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")

	workDir := filepath.Join(uc.cfg.TempDir, job.ID.String())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("create workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	// Download video from MinIO
	dlStart := time.Now()
	ctx2, spanDl := tracer.Start(ctx, "download_video")
	videoPath := filepath.Join(workDir, "input.mp4")
	if err := uc.storage.DownloadVideo(ctx2, msg.VideoKey, videoPath); err != nil {
		spanDl.End()
		log.Error("failed to download video", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "download_video: "+err.Error(), log)
	}
	spanDl.End()
	metrics.JobProcessingDuration.WithLabelValues("download").Observe(time.Since(dlStart).Seconds())

	// Extract frames with FFmpeg
	exStart := time.Now()
	ctx3, spanEx := tracer.Start(ctx, "extract_frames")
	framesDir := filepath.Join(workDir, "frames")
	if err := os.MkdirAll(framesDir, 0755); err != nil {
		spanEx.End()
		return fmt.Errorf("create frames dir: %w", err)
	}
	extraction, err := uc.extractor.ExtractFrames(ctx3, videoPath, framesDir)
	if err != nil {
		spanEx.End()
		log.Error("frame extraction failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "extract_frames: "+err.Error(), log)
	}
	spanEx.End()
	metrics.JobProcessingDuration.WithLabelValues("extract").Observe(time.Since(exStart).Seconds())
	metrics.FramesExtractedTotal.Add(float64(extraction.FrameCount))

	// Two-stage keyframe filter
	fStart := time.Now()
	ctx4, spanF := tracer.Start(ctx, "two_stage_filter")
	result, err := uc.pipeline.Process(ctx4, filter.Request{
		VideoID:    msg.VideoKey,
		Frames:     frameRefs(extraction),
		JobID:      job.ID.String(),
		WindowSize: msg.WindowSize,
		Overlap:    msg.Overlap,
	})
	if err != nil {
		spanF.End()
		log.Error("two-stage filter failed", zap.Error(err))
		if errors.Is(err, entity.ErrInvalidInput) || errors.Is(err, entity.ErrInvalidConfig) {
			// Retrying cannot fix a bad input or config.
			return uc.handlePermanentFailure(ctx, job, msg, rawMsg, "filter: "+err.Error())
		}
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "filter: "+err.Error(), log)
	}
	spanF.End()
	metrics.JobProcessingDuration.WithLabelValues("filter").Observe(time.Since(fStart).Seconds())
	metrics.FramesKeptTotal.Add(float64(len(result.Stage1.KeptFrames)))
	metrics.WindowsPlannedTotal.Add(float64(result.WindowCount))
	metrics.SelectorWindowsTotal.WithLabelValues("fallback").Add(float64(result.FallbackWindows))
	metrics.SelectorWindowsTotal.WithLabelValues("ok").Add(float64(result.WindowCount - result.FallbackWindows))
	metrics.KeyframesSelectedTotal.Add(float64(len(result.Final.SelectedFrames)))

	// Upload both manifests
	upStart := time.Now()
	ctx5, spanUp := tracer.Start(ctx, "upload_manifests")
	manifestKey := fmt.Sprintf("%s/keyframes/manifest.json", job.ID.String())
	finalKey := fmt.Sprintf("%s/keyframes/final_manifest.json", job.ID.String())
	if err := uc.uploadJSON(ctx5, manifestKey, result.Stage1); err != nil {
		spanUp.End()
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "upload_manifest: "+err.Error(), log)
	}
	if err := uc.uploadJSON(ctx5, finalKey, result.Final); err != nil {
		spanUp.End()
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "upload_final_manifest: "+err.Error(), log)
	}
	spanUp.End()

	// Package selected keyframes into a zip and upload it
	ctx6, spanZip := tracer.Start(ctx, "package_keyframes")
	zipPath := filepath.Join(workDir, "keyframes.zip")
	if err := uc.zipper.CreateZip(ctx6, selectedPaths(result.Final), zipPath); err != nil {
		spanZip.End()
		log.Error("keyframe packaging failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "package_keyframes: "+err.Error(), log)
	}
	archiveKey := fmt.Sprintf("%s/keyframes.zip", job.ID.String())
	zipFile, err := os.Open(zipPath)
	if err != nil {
		spanZip.End()
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "open_zip: "+err.Error(), log)
	}
	zipStat, _ := zipFile.Stat()
	if err := uc.storage.UploadArchive(ctx6, archiveKey, zipFile, zipStat.Size()); err != nil {
		zipFile.Close()
		spanZip.End()
		log.Error("archive upload failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "upload_archive: "+err.Error(), log)
	}
	zipFile.Close()
	spanZip.End()
	metrics.JobProcessingDuration.WithLabelValues("upload").Observe(time.Since(upStart).Seconds())

	// Mark completed
	job.MarkCompleted(manifestKey, archiveKey,
		extraction.FrameCount, len(result.Stage1.KeptFrames),
		len(result.Final.SelectedFrames), result.FallbackWindows,
		extraction.VideoDuration,
	)
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to COMPLETED", zap.Error(err))
		return fmt.Errorf("update job completed: %w", err)
	}

	uc.publishStatus(ctx, job, log)

	log.Info("job completed successfully",
		zap.Int("total_frames", extraction.FrameCount),
		zap.Int("kept_frames", len(result.Stage1.KeptFrames)),
		zap.Int("selected_frames", len(result.Final.SelectedFrames)),
		zap.Int("fallback_windows", result.FallbackWindows),
		zap.String("archive_key", archiveKey),
	)

	return nil
}

// frameRefs converts extraction output to FrameRefs. Frame i of an n fps
// extraction sits at timestamp i/n.
func frameRefs(extraction *port.FrameExtractionResult) []entity.FrameRef {
	fps := extraction.FrameRate
	if fps <= 0 {
		fps = 1
	}
	refs := make([]entity.FrameRef, len(extraction.FramePaths))
	for i, path := range extraction.FramePaths {
		refs[i] = entity.FrameRef{
			GlobalIndex: entity.GlobalIndex(i),
			Timestamp:   float64(i) / fps,
			Location:    path,
		}
	}
	return refs
}

func selectedPaths(final *entity.FinalManifest) []string {
	paths := make([]string, len(final.SelectedFrames))
	for i, f := range final.SelectedFrames {
		paths[i] = f.Location
	}
	return paths
}

func (uc *ProcessKeyframesUseCase) uploadJSON(ctx context.Context, key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return uc.storage.UploadManifest(ctx, key, data)
}

func (uc *ProcessKeyframesUseCase) handleRetryableFailure(
	ctx context.Context,
	job *entity.FilterJob,
	msg entity.KeyframeJobMessage,
	rawMsg []byte,
	errMsg string,
	log *zap.Logger,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	if !job.CanRetry() {
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, errMsg)
	}

	metrics.RetryTotal.WithLabelValues(strconv.Itoa(job.Attempt)).Inc()
	uc.publishStatus(ctx, job, log)

	return fmt.Errorf("retryable failure (attempt %d/%d): %s", job.Attempt, job.MaxAttempts, errMsg)
}

func (uc *ProcessKeyframesUseCase) handlePermanentFailure(
	ctx context.Context,
	job *entity.FilterJob,
	msg entity.KeyframeJobMessage,
	rawMsg []byte,
	errMsg string,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	_ = uc.dlq.PublishToDLQ(ctx, rawMsg, errMsg)

	uc.publishStatus(ctx, job, uc.logger)

	metrics.JobsProcessedTotal.WithLabelValues("dlq").Inc()

	if msg.UserEmail != "" {
		_ = uc.notifier.NotifyFailure(ctx, msg.UserEmail, job.ID.String(), msg.VideoKey, errMsg)
	}

	return nil
}

func (uc *ProcessKeyframesUseCase) publishStatus(ctx context.Context, job *entity.FilterJob, log *zap.Logger) {
	statusMsg := entity.KeyframeStatusMessage{
		JobID:           job.ID,
		UserID:          job.UserID,
		Status:          job.Status,
		VideoKey:        job.VideoKey,
		ManifestKey:     job.ManifestKey,
		ArchiveKey:      job.ArchiveKey,
		TotalFrames:     job.TotalFrames,
		KeptFrames:      job.KeptFrames,
		SelectedFrames:  job.SelectedFrames,
		FallbackWindows: job.FallbackWindows,
		Duration:        job.VideoDuration,
		ErrorMessage:    job.ErrorMessage,
		Attempt:         job.Attempt,
		MaxAttempts:     job.MaxAttempts,
	}
	data, _ := json.Marshal(statusMsg)
	if err := uc.publisher.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}
