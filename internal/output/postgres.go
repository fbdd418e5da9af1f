package output

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/chrisdamba/visitconsensus/internal/models"
	"github.com/lib/pq"
)

var reportSchema = []string{
	`CREATE TABLE IF NOT EXISTS fact_shop_consensus (
		run_id TEXT NOT NULL,
		shop_id TEXT NOT NULL,
		total_visits INTEGER NOT NULL,
		dominant_lat DOUBLE PRECISION,
		dominant_lon DOUBLE PRECISION,
		dominant_cell TEXT,
		dominant_visits INTEGER NOT NULL,
		consensus_level TEXT NOT NULL,
		fraud_risk TEXT NOT NULL,
		deviating_visits INTEGER NOT NULL,
		location_clusters INTEGER NOT NULL,
		consistency_score INTEGER NOT NULL,
		PRIMARY KEY (run_id, shop_id)
	)`,
	`CREATE TABLE IF NOT EXISTS fact_visit_detail (
		run_id TEXT NOT NULL,
		shop_id TEXT NOT NULL,
		visit_id TEXT NOT NULL,
		visit_date TEXT,
		salesman_name TEXT NOT NULL,
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		cluster_index INTEGER NOT NULL,
		is_consensus BOOLEAN NOT NULL,
		deviation_distance INTEGER NOT NULL,
		fraud_flag TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS fact_salesman_accuracy (
		run_id TEXT NOT NULL,
		salesman_name TEXT NOT NULL,
		total_shops INTEGER NOT NULL,
		perfect_consensus INTEGER NOT NULL,
		strong_consensus INTEGER NOT NULL,
		suspicious_visits INTEGER NOT NULL,
		fraud_flags INTEGER NOT NULL,
		consistency_rate INTEGER NOT NULL,
		avg_consensus_score INTEGER NOT NULL,
		total_outliers INTEGER NOT NULL,
		PRIMARY KEY (run_id, salesman_name)
	)`,
	`CREATE TABLE IF NOT EXISTS dim_run (
		run_id TEXT PRIMARY KEY,
		generated_at TEXT NOT NULL,
		total_shops INTEGER NOT NULL,
		total_visits INTEGER NOT NULL,
		total_outliers INTEGER NOT NULL,
		high_risk_shops INTEGER NOT NULL,
		avg_consistency INTEGER NOT NULL,
		salesmen INTEGER NOT NULL
	)`,
}

// PostgresOutput inserts each message as one row of the topic's table.
type PostgresOutput struct {
	db *sql.DB
}

func NewPostgresOutput(config models.DatabaseConfig) (*PostgresOutput, error) {
	db, err := sql.Open("postgres", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}

	return NewPostgresOutputFromDB(db), nil
}

func NewPostgresOutputFromDB(db *sql.DB) *PostgresOutput {
	return &PostgresOutput{db: db}
}

func (p *PostgresOutput) EnsureSchema(ctx context.Context) error {
	for _, stmt := range reportSchema {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (p *PostgresOutput) WriteMessage(topic string, msg []byte) error {
	var event map[string]interface{}
	if err := json.Unmarshal(msg, &event); err != nil {
		return err
	}

	table := topicToTable(topic)

	cols, vals, placeholders := buildInsertComponents(event)
	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table,
		cols,
		placeholders,
	)

	_, err := p.db.Exec(query, vals...)
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}

	return nil
}

func (p *PostgresOutput) Close() error {
	return p.db.Close()
}

func topicToTable(topic string) string {
	tableMap := map[string]string{
		models.TopicShopConsensus:    "fact_shop_consensus",
		models.TopicVisitDetails:     "fact_visit_detail",
		models.TopicSalesmanAccuracy: "fact_salesman_accuracy",
		models.TopicRunSummary:       "dim_run",
	}

	if table, ok := tableMap[topic]; ok {
		return table
	}
	return "fact_" + topic
}

// buildInsertComponents orders columns by key so statements are stable across rows.
// Keys are the row structs' json tags, already named like the table columns.
func buildInsertComponents(event map[string]interface{}) (string, []interface{}, string) {
	keys := make([]string, 0, len(event))
	for k := range event {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	columns := make([]string, 0, len(keys))
	values := make([]interface{}, 0, len(keys))
	placeholders := make([]string, 0, len(keys))
	for i, key := range keys {
		columns = append(columns, pq.QuoteIdentifier(key))
		values = append(values, event[key])
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
	}

	return strings.Join(columns, ", "),
		values,
		strings.Join(placeholders, ", ")
}
