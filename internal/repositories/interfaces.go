package repositories

import (
	"context"

	"github.com/chrisdamba/visitconsensus/internal/models"
)

type VisitRepository interface {
	EnsureSchema(ctx context.Context) error
	BulkCreate(ctx context.Context, visits []models.VisitRow) error
	GetAll(ctx context.Context) ([]models.VisitRow, error)
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}
