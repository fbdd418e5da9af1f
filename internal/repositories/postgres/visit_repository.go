package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/chrisdamba/visitconsensus/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of *pgxpool.Pool the repository needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// seq records load order: rows copied in one batch share inserted_at.
const visitsSchema = `
    CREATE TABLE IF NOT EXISTS shop_visits (
        seq           BIGSERIAL,
        visit_id      TEXT,
        visit_date    TIMESTAMPTZ,
        salesman_name TEXT,
        shop_name     TEXT,
        shop_id       TEXT,
        latitude      DOUBLE PRECISION,
        longitude     DOUBLE PRECISION,
        inserted_at   TIMESTAMPTZ NOT NULL DEFAULT now()
    )`

const addSeqColumn = `ALTER TABLE shop_visits ADD COLUMN IF NOT EXISTS seq BIGSERIAL`

var visitColumns = []string{
	"visit_id", "visit_date", "salesman_name", "shop_name", "shop_id", "latitude", "longitude",
}

type VisitRepository struct {
	pool Querier
}

// NewPool opens a pgx pool and checks connectivity.
func NewPool(ctx context.Context, config models.DatabaseConfig) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, config.DSN())
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}
	return pool, nil
}

func NewVisitRepository(pool Querier) *VisitRepository {
	return &VisitRepository{pool: pool}
}

func (r *VisitRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, visitsSchema); err != nil {
		return err
	}
	// tables created before seq existed
	_, err := r.pool.Exec(ctx, addSeqColumn)
	return err
}

func (r *VisitRepository) BulkCreate(ctx context.Context, visits []models.VisitRow) error {
	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"shop_visits"},
		visitColumns,
		pgx.CopyFromSlice(len(visits), func(i int) ([]interface{}, error) {
			return visitValues(visits[i]), nil
		}),
	)
	return err
}

// GetAll returns visits in the order they were copied in, which is the order
// clustering seeds from. NULL columns come back empty, which the normalizer
// treats as absent.
func (r *VisitRepository) GetAll(ctx context.Context) ([]models.VisitRow, error) {
	query := `
        SELECT
            visit_id, visit_date, salesman_name, shop_name, shop_id, latitude, longitude
        FROM shop_visits
        ORDER BY seq`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visits []models.VisitRow
	for rows.Next() {
		var (
			visitID, salesman, shopName, shopID *string
			visitDate                           *time.Time
			lat, lon                            *float64
		)
		if err := rows.Scan(&visitID, &visitDate, &salesman, &shopName, &shopID, &lat, &lon); err != nil {
			return nil, err
		}
		visits = append(visits, rowFromColumns(visitID, visitDate, salesman, shopName, shopID, lat, lon))
	}
	return visits, rows.Err()
}

func (r *VisitRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM shop_visits").Scan(&count)
	return count, err
}

func (r *VisitRepository) DeleteAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, "TRUNCATE TABLE shop_visits")
	return err
}

func visitValues(v models.VisitRow) []interface{} {
	var visitDate interface{}
	if t, err := time.Parse(time.RFC3339, v.VisitDate); err == nil {
		visitDate = t
	}
	return []interface{}{
		nullable(v.VisitID),
		visitDate,
		nullable(v.SalesmanName),
		nullable(v.ShopName),
		nullable(v.ShopID),
		v.Latitude,
		v.Longitude,
	}
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func rowFromColumns(visitID *string, visitDate *time.Time, salesman, shopName, shopID *string, lat, lon *float64) models.VisitRow {
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	row := models.VisitRow{
		VisitID:      deref(visitID),
		SalesmanName: deref(salesman),
		ShopName:     deref(shopName),
		ShopID:       deref(shopID),
	}
	if visitDate != nil {
		row.VisitDate = visitDate.UTC().Format(time.RFC3339)
	}
	if lat != nil {
		row.Latitude = *lat
	}
	if lon != nil {
		row.Longitude = *lon
	}
	return row
}
