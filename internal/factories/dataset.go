package factories

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/chrisdamba/visitconsensus/internal/models"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/writer"
)

var visitColumns = []string{
	"visit_id", "visit_date", "salesman_name", "shop_name", "shop_id", "latitude", "longitude",
}

// WriteVisits stores rows at path as csv, json or parquet, in the layouts the
// analyze sources read back.
func WriteVisits(path, format string, rows []models.VisitRow) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return err
		}
	}

	switch format {
	case "csv":
		return writeVisitsCSV(path, rows)
	case "json":
		return writeVisitsJSON(path, rows)
	case "parquet":
		return writeVisitsParquet(path, rows)
	}
	return fmt.Errorf("unsupported dataset format %q", format)
}

func writeVisitsCSV(path string, rows []models.VisitRow) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(visitColumns); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.VisitID,
			r.VisitDate,
			r.SalesmanName,
			r.ShopName,
			r.ShopID,
			strconv.FormatFloat(r.Latitude, 'f', -1, 64),
			strconv.FormatFloat(r.Longitude, 'f', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return file.Close()
}

func writeVisitsJSON(path string, rows []models.VisitRow) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if rows == nil {
		rows = []models.VisitRow{}
	}
	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("failed to encode visits: %w", err)
	}
	return file.Close()
}

func writeVisitsParquet(path string, rows []models.VisitRow) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("failed to create local file writer: %w", err)
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, new(models.VisitRow), 4)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	for _, r := range rows {
		if err := pw.Write(r); err != nil {
			return fmt.Errorf("failed to write visit %s: %w", r.VisitID, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("failed to flush parquet file: %w", err)
	}
	return nil
}
