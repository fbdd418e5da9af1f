package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chrisdamba/visitconsensus/internal/models"
)

// CSVSource reads a sheet export whose first row names the columns.
type CSVSource struct {
	Path  string
	Comma rune
}

func (c *CSVSource) Load(ctx context.Context) ([]models.RawVisit, error) {
	file, err := os.Open(c.Path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return c.read(ctx, file)
}

func (c *CSVSource) read(ctx context.Context, r io.Reader) ([]models.RawVisit, error) {
	reader := csv.NewReader(r)
	if c.Comma != 0 {
		reader.Comma = c.Comma
	}
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	var visits []models.RawVisit
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row %d: %w", len(visits)+2, err)
		}
		visit := make(models.RawVisit, len(header))
		for i, value := range fields {
			if i < len(header) && header[i] != "" {
				visit[header[i]] = value
			}
		}
		visits = append(visits, visit)
	}
	return visits, nil
}

func (c *CSVSource) Close() error { return nil }
