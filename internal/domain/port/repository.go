package port

import (
	"context"

	"github.com/Shibata-1273352/surgical-recap/internal/domain/entity"
	"github.com/google/uuid"
)

type JobRepository interface {
	Create(ctx context.Context, job *entity.FilterJob) error
	Update(ctx context.Context, job *entity.FilterJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.FilterJob, error)
}
