package source

import (
	"context"
	"fmt"

	"github.com/chrisdamba/visitconsensus/internal/models"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
)

// ParquetSource reads visits written with the models.VisitRow schema.
type ParquetSource struct {
	Path string
}

func (p *ParquetSource) Load(ctx context.Context) ([]models.RawVisit, error) {
	fr, err := local.NewLocalFileReader(p.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(models.VisitRow), 4)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet reader: %w", err)
	}
	defer pr.ReadStop()

	rows := make([]models.VisitRow, int(pr.GetNumRows()))
	if err := pr.Read(&rows); err != nil {
		return nil, fmt.Errorf("failed to read parquet rows: %w", err)
	}
	return rowsToRaw(rows), ctx.Err()
}

func (p *ParquetSource) Close() error { return nil }
