package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrRunNotFound is returned when a run id has no stored record
var ErrRunNotFound = errors.New("run not found")

// RunRecord is one completed comparison kept for later retrieval
type RunRecord struct {
	ID              string         `json:"id"`
	CreatedAt       time.Time      `json:"created_at"`
	Seed            float64        `json:"seed"`
	NumSamples      int            `json:"num_samples"`
	YearsToForecast int            `json:"years_to_forecast"`
	Config          *Config        `json:"config,omitempty"`
	Summaries       []FinalSummary `json:"summaries"`
	WealthAdvantage *float64       `json:"wealth_advantage,omitempty"` // Buy minus rent, when both ran
}

// NewRunRecord captures a finished comparison under a fresh id
func NewRunRecord(config *Config, result *ComparisonResult) RunRecord {
	rec := RunRecord{
		ID:              uuid.NewString(),
		CreatedAt:       time.Now().UTC(),
		Seed:            result.Settings.Seed,
		NumSamples:      result.Settings.NumSamples,
		YearsToForecast: result.Settings.YearsToForecast,
		Config:          config,
	}
	for _, r := range result.Results {
		rec.Summaries = append(rec.Summaries, r.Summary)
	}
	if adv, ok := result.WealthAdvantage(); ok {
		rec.WealthAdvantage = &adv
	}
	return rec
}

const runStoreSchema = `CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL,
	seed REAL NOT NULL,
	num_samples INTEGER NOT NULL,
	years_to_forecast INTEGER NOT NULL,
	config_json TEXT NOT NULL,
	summaries_json TEXT NOT NULL,
	wealth_advantage REAL
);
CREATE INDEX IF NOT EXISTS runs_created_at ON runs (created_at DESC);`

// RunStore persists completed runs in SQLite
type RunStore struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// OpenRunStore opens (creating if needed) the run history database
func OpenRunStore(path string) (*RunStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(runStoreSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &RunStore{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle
func (s *RunStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveRun inserts one run record
func (s *RunStore) SaveRun(ctx context.Context, rec RunRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(rec.ID) == "" {
		return fmt.Errorf("run id is required")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	configJSON, err := json.Marshal(rec.Config)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	summariesJSON, err := json.Marshal(rec.Summaries)
	if err != nil {
		return fmt.Errorf("encode summaries: %w", err)
	}

	var advantage sql.NullFloat64
	if rec.WealthAdvantage != nil {
		advantage = sql.NullFloat64{Float64: *rec.WealthAdvantage, Valid: true}
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO runs (
		   id,
		   created_at,
		   seed,
		   num_samples,
		   years_to_forecast,
		   config_json,
		   summaries_json,
		   wealth_advantage
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		toMillis(rec.CreatedAt),
		rec.Seed,
		rec.NumSamples,
		rec.YearsToForecast,
		string(configJSON),
		string(summariesJSON),
		advantage,
	)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner, withConfig bool) (RunRecord, error) {
	var (
		rec           RunRecord
		createdAt     int64
		configJSON    string
		summariesJSON string
		advantage     sql.NullFloat64
	)
	if err := row.Scan(&rec.ID, &createdAt, &rec.Seed, &rec.NumSamples, &rec.YearsToForecast,
		&configJSON, &summariesJSON, &advantage); err != nil {
		return RunRecord{}, err
	}
	rec.CreatedAt = fromMillis(createdAt)
	if err := json.Unmarshal([]byte(summariesJSON), &rec.Summaries); err != nil {
		return RunRecord{}, fmt.Errorf("decode summaries: %w", err)
	}
	if withConfig && configJSON != "" && configJSON != "null" {
		var cfg Config
		if err := json.Unmarshal([]byte(configJSON), &cfg); err != nil {
			return RunRecord{}, fmt.Errorf("decode config: %w", err)
		}
		rec.Config = &cfg
	}
	if advantage.Valid {
		adv := advantage.Float64
		rec.WealthAdvantage = &adv
	}
	return rec, nil
}

// GetRun returns one run including its config
func (s *RunStore) GetRun(ctx context.Context, id string) (RunRecord, error) {
	if err := ctx.Err(); err != nil {
		return RunRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return RunRecord{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, created_at, seed, num_samples, years_to_forecast, config_json, summaries_json, wealth_advantage
		 FROM runs WHERE id = ?`, strings.TrimSpace(id))
	rec, err := scanRun(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, ErrRunNotFound
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("get run: %w", err)
	}
	return rec, nil
}

// ListRuns returns the most recent runs first, without their configs
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, created_at, seed, num_samples, years_to_forecast, config_json, summaries_json, wealth_advantage
		 FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows, false)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// DeleteRun removes a run; deleting an unknown id returns ErrRunNotFound
func (s *RunStore) DeleteRun(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n == 0 {
		return ErrRunNotFound
	}
	return nil
}
