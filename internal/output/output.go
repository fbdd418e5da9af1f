package output

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/chrisdamba/visitconsensus/internal/models"
)

var ErrUnsupportedDestination = errors.New("unsupported output destination")

// OutputDestination receives one JSON message per row, addressed by topic.
type OutputDestination interface {
	WriteMessage(topic string, msg []byte) error
	Close() error
}

// New builds the destination selected by cfg.
func New(ctx context.Context, cfg *models.Config) (OutputDestination, error) {
	switch cfg.OutputDestination {
	case "console":
		return NewConsoleOutput(os.Stdout), nil
	case "kafka":
		return NewKafkaOutput(cfg)
	case "postgres":
		p, err := NewPostgresOutput(cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := p.EnsureSchema(ctx); err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to create report tables: %w", err)
		}
		return p, nil
	case "local", "s3":
		switch cfg.OutputFormat {
		case "parquet":
			return NewParquetOutput(ctx, cfg)
		case "json":
			return NewJSONOutput(cfg.OutputPath, cfg.OutputFolder), nil
		case "csv":
			return NewCSVOutput(cfg.OutputPath, cfg.OutputFolder), nil
		}
		return nil, fmt.Errorf("%w: format %s", ErrUnsupportedDestination, cfg.OutputFormat)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedDestination, cfg.OutputDestination)
}
