package source

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chrisdamba/visitconsensus/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/writer"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVSource(t *testing.T) {
	path := writeFile(t, "visits.csv", "\ufeffVisit ID, Shop Name,Salesman Name,Visit Date,Lat,Long\n"+
		"V1,Corner Duka,Amina,2024-03-01,-1.2864,36.8172\n"+
		"V2,,Brian,2024-03-02,-1.2865,36.8173\n"+
		"V3,Lakeview Mart,Chidi,2024-03-03,abc,36.8\n")

	src := &CSVSource{Path: path}
	visits, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, visits, 3)

	assert.Equal(t, models.RawVisit{
		"Visit ID":      "V1",
		"Shop Name":     "Corner Duka",
		"Salesman Name": "Amina",
		"Visit Date":    "2024-03-01",
		"Lat":           "-1.2864",
		"Long":          "36.8172",
	}, visits[0])
	assert.Equal(t, "", visits[1]["Shop Name"])
	assert.Equal(t, "abc", visits[2]["Lat"])
	assert.NoError(t, src.Close())
}

func TestCSVSourceShortRowsAndEmptyFile(t *testing.T) {
	src := &CSVSource{}
	visits, err := src.read(context.Background(), strings.NewReader("shopId;lat;lng\nS1;1.5\n"))
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.Equal(t, models.RawVisit{"shopId;lat;lng": "S1;1.5"}, visits[0])

	src.Comma = ';'
	visits, err = src.read(context.Background(), strings.NewReader("shopId;lat;lng\nS1;1.5\n"))
	require.NoError(t, err)
	assert.Equal(t, models.RawVisit{"shopId": "S1", "lat": "1.5"}, visits[0])

	visits, err = src.read(context.Background(), strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, visits)
}

func TestCSVSourceMissingFile(t *testing.T) {
	_, err := (&CSVSource{Path: filepath.Join(t.TempDir(), "nope.csv")}).Load(context.Background())
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestJSONSourceArray(t *testing.T) {
	path := writeFile(t, "visits.json", `  [
		{"shopId": "S1", "latitude": -1.28, "longitude": 36.81},
		{"shopName": "Corner Duka", "lat": "-1.3", "lng": "36.8"}
	]`)
	visits, err := (&JSONSource{Path: path}).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, visits, 2)
	assert.Equal(t, json.Number("-1.28"), visits[0]["latitude"])
	assert.Equal(t, "Corner Duka", visits[1]["shopName"])
}

func TestJSONSourceNDJSON(t *testing.T) {
	src := &JSONSource{}
	visits, err := src.read(context.Background(), strings.NewReader(
		"{\"shopId\":\"S1\",\"lat\":1}\n{\"shopId\":\"S2\",\"lat\":2}\n\n"))
	require.NoError(t, err)
	require.Len(t, visits, 2)
	assert.Equal(t, "S2", visits[1]["shopId"])

	_, err = src.read(context.Background(), strings.NewReader("{\"shopId\":\"S1\"}\n{broken"))
	assert.Error(t, err)

	visits, err = src.read(context.Background(), strings.NewReader("   \n"))
	require.NoError(t, err)
	assert.Empty(t, visits)
}

func TestParquetSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "visits.parquet")
	fw, err := local.NewLocalFileWriter(path)
	require.NoError(t, err)
	pw, err := writer.NewParquetWriter(fw, new(models.VisitRow), 1)
	require.NoError(t, err)
	rows := []models.VisitRow{
		{VisitID: "V1", ShopName: "Corner Duka", SalesmanName: "Amina", VisitDate: "2024-03-01T09:00:00Z", Latitude: -1.28, Longitude: 36.81},
		{VisitID: "V2", ShopID: "S-2", Latitude: 0, Longitude: 36.81},
	}
	for _, r := range rows {
		require.NoError(t, pw.Write(r))
	}
	require.NoError(t, pw.WriteStop())
	require.NoError(t, fw.Close())

	visits, err := (&ParquetSource{Path: path}).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, visits, 2)
	assert.Equal(t, "Corner Duka", visits[0]["shopName"])
	assert.Equal(t, -1.28, visits[0]["latitude"])
	assert.Equal(t, "S-2", visits[1]["shopId"])
	_, hasName := visits[1]["shopName"]
	assert.False(t, hasName)
}

type fakeVisitRepository struct {
	rows []models.VisitRow
	err  error
}

func (f *fakeVisitRepository) EnsureSchema(ctx context.Context) error { return nil }
func (f *fakeVisitRepository) BulkCreate(ctx context.Context, visits []models.VisitRow) error {
	f.rows = append(f.rows, visits...)
	return nil
}
func (f *fakeVisitRepository) GetAll(ctx context.Context) ([]models.VisitRow, error) {
	return f.rows, f.err
}
func (f *fakeVisitRepository) Count(ctx context.Context) (int, error) { return len(f.rows), nil }
func (f *fakeVisitRepository) DeleteAll(ctx context.Context) error {
	f.rows = nil
	return nil
}

func TestPostgresSource(t *testing.T) {
	repo := &fakeVisitRepository{rows: []models.VisitRow{{VisitID: "V1", ShopID: "S1", Latitude: 1, Longitude: 2}}}
	src := NewPostgresSource(repo)
	visits, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.Equal(t, "S1", visits[0]["shopId"])
	assert.NoError(t, src.Close())

	repo.err = errors.New("connection reset")
	_, err = src.Load(context.Background())
	assert.ErrorContains(t, err, "connection reset")
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := New(context.Background(), &models.Config{InputFormat: "xlsx"})
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	src, err := New(context.Background(), &models.Config{InputFormat: "csv", InputPath: "x.csv"})
	require.NoError(t, err)
	assert.IsType(t, &CSVSource{}, src)
}
