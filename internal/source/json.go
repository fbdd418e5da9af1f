package source

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/chrisdamba/visitconsensus/internal/models"
)

// JSONSource reads either a JSON array of visit objects or newline delimited objects.
type JSONSource struct {
	Path string
}

func (j *JSONSource) Load(ctx context.Context) ([]models.RawVisit, error) {
	file, err := os.Open(j.Path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return j.read(ctx, file)
}

func (j *JSONSource) read(ctx context.Context, r io.Reader) ([]models.RawVisit, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(br)
	dec.UseNumber()

	if first == '[' {
		var visits []models.RawVisit
		if err := dec.Decode(&visits); err != nil {
			return nil, fmt.Errorf("failed to decode visit array: %w", err)
		}
		return visits, nil
	}

	var visits []models.RawVisit
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var visit models.RawVisit
		err := dec.Decode(&visit)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode visit %d: %w", len(visits)+1, err)
		}
		visits = append(visits, visit)
	}
	return visits, nil
}

func (j *JSONSource) Close() error { return nil }

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}
