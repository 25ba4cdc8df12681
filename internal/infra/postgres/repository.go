package postgres

import (
	"context"
	"fmt"

	"github.com/Shibata-1273352/surgical-recap/internal/domain/entity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func (r *JobRepository) Create(ctx context.Context, job *entity.FilterJob) error {
	query := `
		INSERT INTO filter_jobs (
			id, user_id, video_key, manifest_key, archive_key, status,
			window_size, overlap, total_frames, kept_frames, selected_frames,
			fallback_windows, file_size, video_duration, attempt, max_attempts,
			error_message, created_at, updated_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`

	_, err := r.pool.Exec(ctx, query,
		job.ID, job.UserID, job.VideoKey, job.ManifestKey, job.ArchiveKey, string(job.Status),
		job.WindowSize, job.Overlap, job.TotalFrames, job.KeptFrames, job.SelectedFrames,
		job.FallbackWindows, job.FileSize, job.VideoDuration, job.Attempt, job.MaxAttempts,
		job.ErrorMessage, job.CreatedAt, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) Update(ctx context.Context, job *entity.FilterJob) error {
	query := `
		UPDATE filter_jobs SET
			status=$2, manifest_key=$3, archive_key=$4, total_frames=$5,
			kept_frames=$6, selected_frames=$7, fallback_windows=$8,
			video_duration=$9, attempt=$10, error_message=$11,
			updated_at=$12, completed_at=$13
		WHERE id=$1`

	_, err := r.pool.Exec(ctx, query,
		job.ID, string(job.Status), job.ManifestKey, job.ArchiveKey, job.TotalFrames,
		job.KeptFrames, job.SelectedFrames, job.FallbackWindows,
		job.VideoDuration, job.Attempt, job.ErrorMessage,
		job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

func (r *JobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.FilterJob, error) {
	query := `
		SELECT id, user_id, video_key, manifest_key, archive_key, status,
			window_size, overlap, total_frames, kept_frames, selected_frames,
			fallback_windows, file_size, video_duration, attempt, max_attempts,
			error_message, created_at, updated_at, completed_at
		FROM filter_jobs WHERE id=$1`

	job := &entity.FilterJob{}
	var status string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.UserID, &job.VideoKey, &job.ManifestKey, &job.ArchiveKey, &status,
		&job.WindowSize, &job.Overlap, &job.TotalFrames, &job.KeptFrames, &job.SelectedFrames,
		&job.FallbackWindows, &job.FileSize, &job.VideoDuration, &job.Attempt, &job.MaxAttempts,
		&job.ErrorMessage, &job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("find job by id: %w", err)
	}
	job.Status = entity.JobStatus(status)
	return job, nil
}
