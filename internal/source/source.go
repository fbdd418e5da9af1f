package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/chrisdamba/visitconsensus/internal/models"
	"github.com/chrisdamba/visitconsensus/internal/repositories"
	"github.com/chrisdamba/visitconsensus/internal/repositories/postgres"
)

var ErrUnsupportedFormat = errors.New("unsupported input format")

// Source loads the raw visit slice for one analysis run.
type Source interface {
	Load(ctx context.Context) ([]models.RawVisit, error)
	Close() error
}

// New picks the source for cfg.InputFormat.
func New(ctx context.Context, cfg *models.Config) (Source, error) {
	switch cfg.InputFormat {
	case "csv":
		return &CSVSource{Path: cfg.InputPath}, nil
	case "json":
		return &JSONSource{Path: cfg.InputPath}, nil
	case "parquet":
		return &ParquetSource{Path: cfg.InputPath}, nil
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		return &PostgresSource{repo: postgres.NewVisitRepository(pool), close: pool.Close}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, cfg.InputFormat)
	}
}

type PostgresSource struct {
	repo  repositories.VisitRepository
	close func()
}

func NewPostgresSource(repo repositories.VisitRepository) *PostgresSource {
	return &PostgresSource{repo: repo}
}

func (p *PostgresSource) Load(ctx context.Context) ([]models.RawVisit, error) {
	rows, err := p.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load visits from postgres: %w", err)
	}
	return rowsToRaw(rows), nil
}

func (p *PostgresSource) Close() error {
	if p.close != nil {
		p.close()
	}
	return nil
}

func rowsToRaw(rows []models.VisitRow) []models.RawVisit {
	raw := make([]models.RawVisit, len(rows))
	for i, r := range rows {
		raw[i] = r.Raw()
	}
	return raw
}
