package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chrisdamba/visitconsensus/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowFromColumns(t *testing.T) {
	id, salesman, shop := "V-1", "Amina", "Corner Duka"
	date := time.Date(2024, 3, 1, 9, 30, 0, 0, time.FixedZone("EAT", 3*3600))
	lat, lon := -1.28, 36.81

	row := rowFromColumns(&id, &date, &salesman, &shop, nil, &lat, &lon)
	assert.Equal(t, models.VisitRow{
		VisitID:      "V-1",
		VisitDate:    "2024-03-01T06:30:00Z",
		SalesmanName: "Amina",
		ShopName:     "Corner Duka",
		Latitude:     -1.28,
		Longitude:    36.81,
	}, row)

	empty := rowFromColumns(nil, nil, nil, nil, nil, nil, nil)
	assert.Equal(t, models.VisitRow{}, empty)
	_, ok := empty.Raw()["shopName"]
	assert.False(t, ok)
}

func TestVisitValues(t *testing.T) {
	values := visitValues(models.VisitRow{
		VisitID:   "V-1",
		VisitDate: "2024-03-01T06:30:00Z",
		ShopName:  "Corner Duka",
		Latitude:  -1.28,
		Longitude: 36.81,
	})
	assert.Len(t, values, len(visitColumns))
	assert.Equal(t, "V-1", values[0])
	assert.Equal(t, time.Date(2024, 3, 1, 6, 30, 0, 0, time.UTC), values[1])
	assert.Nil(t, values[2])
	assert.Equal(t, "Corner Duka", values[3])
	assert.Nil(t, values[4])

	assert.Nil(t, visitValues(models.VisitRow{VisitDate: "yesterday"})[1])
}

// memoryQuerier keeps copied rows in arrival order and serves them back for
// any query that orders by seq.
type memoryQuerier struct {
	rows    [][]interface{}
	execs   []string
	queries []string
}

func (m *memoryQuerier) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	m.execs = append(m.execs, sql)
	if strings.HasPrefix(sql, "TRUNCATE") {
		m.rows = nil
	}
	return pgconn.CommandTag{}, nil
}

func (m *memoryQuerier) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	m.queries = append(m.queries, sql)
	if !strings.Contains(sql, "ORDER BY seq") {
		return nil, errors.New("unordered read of shop_visits")
	}
	return &memoryRows{rows: m.rows}, nil
}

func (m *memoryQuerier) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	m.queries = append(m.queries, sql)
	return countRow(len(m.rows))
}

func (m *memoryQuerier) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	if len(columnNames) != len(visitColumns) {
		return 0, errors.New("column mismatch")
	}
	var n int64
	for rowSrc.Next() {
		values, err := rowSrc.Values()
		if err != nil {
			return n, err
		}
		m.rows = append(m.rows, values)
		n++
	}
	return n, rowSrc.Err()
}

type countRow int

func (c countRow) Scan(dest ...interface{}) error {
	*dest[0].(*int) = int(c)
	return nil
}

type memoryRows struct {
	rows [][]interface{}
	pos  int
}

func (r *memoryRows) Close() {}
func (r *memoryRows) Err() error { return nil }
func (r *memoryRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }
func (r *memoryRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *memoryRows) RawValues() [][]byte { return nil }
func (r *memoryRows) Conn() *pgx.Conn { return nil }

func (r *memoryRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *memoryRows) Values() ([]interface{}, error) {
	return r.rows[r.pos-1], nil
}

func (r *memoryRows) Scan(dest ...interface{}) error {
	row := r.rows[r.pos-1]
	for i, d := range dest {
		switch p := d.(type) {
		case **string:
			if v, ok := row[i].(string); ok {
				*p = &v
			}
		case **time.Time:
			if v, ok := row[i].(time.Time); ok {
				*p = &v
			}
		case **float64:
			if v, ok := row[i].(float64); ok {
				*p = &v
			}
		default:
			return errors.New("unexpected scan target")
		}
	}
	return nil
}

func TestVisitRepositoryKeepsCopyOrder(t *testing.T) {
	ctx := context.Background()
	q := &memoryQuerier{}
	repo := NewVisitRepository(q)

	require.NoError(t, repo.EnsureSchema(ctx))
	require.Len(t, q.execs, 2)
	assert.Contains(t, q.execs[0], "seq           BIGSERIAL")
	assert.Contains(t, q.execs[1], "ADD COLUMN IF NOT EXISTS seq")

	// the far visit comes first but carries the latest date
	visits := []models.VisitRow{
		{VisitID: "V3", VisitDate: "2024-03-03T09:00:00Z", ShopName: "Corner Duka", SalesmanName: "Brian", Latitude: -1.296389, Longitude: 36.817223},
		{VisitID: "V1", VisitDate: "2024-03-01T09:00:00Z", ShopName: "Corner Duka", SalesmanName: "Amina", Latitude: -1.286389, Longitude: 36.817223},
		{VisitID: "V2", ShopName: "Corner Duka", SalesmanName: "Amina", Latitude: -1.286390, Longitude: 36.817224},
	}
	require.NoError(t, repo.BulkCreate(ctx, visits))

	got, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "V3", got[0].VisitID)
	assert.Equal(t, "V1", got[1].VisitID)
	assert.Equal(t, "V2", got[2].VisitID)
	assert.Equal(t, visits[0], got[0])
	assert.Empty(t, got[2].VisitDate)
	assert.NotContains(t, q.queries[0], "visit_date NULLS")

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, repo.DeleteAll(ctx))
	count, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
