// Package store keeps a history of scans and quotes in SQLite or PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/gilsentrycs/monitor-flights/config"
	"github.com/gilsentrycs/monitor-flights/dates"
	"github.com/gilsentrycs/monitor-flights/quotes"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const timeLayout = "2006-01-02T15:04:05Z"

// RunRecord is one row of scan_runs
type RunRecord struct {
	RunID       string    `json:"run_id"`
	Origin      string    `json:"origin"`
	Route       string    `json:"route"`
	Currency    string    `json:"currency"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	APICalls    int       `json:"api_calls"`
	CacheHits   int       `json:"cache_hits"`
	FailedCalls int       `json:"failed_calls"`
	Candidates  int       `json:"candidates"`
	Sampled     int       `json:"sampled"`
	Options     int       `json:"options"`
	BestPrice   int       `json:"best_price"`
}

// PricePoint is the cheapest price one run found for a route
type PricePoint struct {
	RunID      string    `json:"run_id"`
	SearchedAt time.Time `json:"searched_at"`
	MinPrice   int       `json:"min_price"`
	Options    int       `json:"options"`
}

// Store wraps the history database
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the configured database and creates the schema.
func Open(ctx context.Context, cfg config.HistoryConfig) (*Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverSQLite
	}

	switch driver {
	case DriverSQLite:
		if dir := filepath.Dir(cfg.DSN); cfg.DSN != ":memory:" && dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported history driver %q", driver)
	}

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == DriverSQLite {
		// one writer; also keeps ":memory:" on a single connection
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driver, err)
	}

	s := &Store{db: db, driver: driver}
	if err := s.InitSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Driver returns the driver name in use
func (s *Store) Driver() string {
	return s.driver
}

// InitSchema initializes the database schema
func (s *Store) InitSchema(ctx context.Context) error {
	schema := sqliteSchema
	if s.driver == DriverPostgres {
		schema = postgresSchema
	}
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// SaveRun stores a run and its quotes in one transaction.
func (s *Store) SaveRun(ctx context.Context, run RunRecord, records []quotes.QuoteRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.rebind(insertRun),
		run.RunID, run.Origin, run.Route, run.Currency,
		formatTime(run.StartedAt), formatTime(run.FinishedAt),
		run.APICalls, run.CacheHits, run.FailedCalls,
		run.Candidates, run.Sampled, run.Options, run.BestPrice,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx, s.rebind(insertQuote))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	searchedAt := formatTime(run.FinishedAt)
	for _, r := range records {
		direct := 0
		if r.IsDirect {
			direct = 1
		}
		_, err := stmt.ExecContext(ctx,
			run.RunID, run.Origin, r.Destination,
			r.DepartureDate.Format(dates.DateLayout), r.ReturnDate.Format(dates.DateLayout),
			tripLength(r), r.Price, r.DurationMinutes, r.Airline, direct,
			strings.Join(r.Layovers, ","), r.CarbonKg, searchedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert quote: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", run.RunID, err)
	}
	return nil
}

// RoutePrices returns every stored price for a route and trip length searched at or after since.
func (s *Store) RoutePrices(ctx context.Context, origin, destination string, tripLength int, since time.Time) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(selectRoutePrices), origin, destination, tripLength, formatTime(since))
	if err != nil {
		return nil, fmt.Errorf("failed to query route prices: %w", err)
	}
	defer rows.Close()

	var prices []float64
	for rows.Next() {
		var p int
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		prices = append(prices, float64(p))
	}
	return prices, rows.Err()
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(selectRuns), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunRecord{}
	for rows.Next() {
		var r RunRecord
		var started, finished string
		err := rows.Scan(&r.RunID, &r.Origin, &r.Route, &r.Currency, &started, &finished,
			&r.APICalls, &r.CacheHits, &r.FailedCalls, &r.Candidates, &r.Sampled, &r.Options, &r.BestPrice)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// PriceTrend returns the cheapest price per run for a route, oldest first.
func (s *Store) PriceTrend(ctx context.Context, origin, destination string) ([]PricePoint, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(selectPriceTrend), origin, destination)
	if err != nil {
		return nil, fmt.Errorf("failed to query price trend: %w", err)
	}
	defer rows.Close()

	points := []PricePoint{}
	for rows.Next() {
		var p PricePoint
		var at string
		if err := rows.Scan(&p.RunID, &at, &p.MinPrice, &p.Options); err != nil {
			return nil, fmt.Errorf("failed to scan price point: %w", err)
		}
		p.SearchedAt = parseTime(at)
		points = append(points, p)
	}
	return points, rows.Err()
}

// rebind rewrites ? placeholders as $1, $2, ... for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func tripLength(r quotes.QuoteRecord) int {
	return int(r.ReturnDate.Sub(r.DepartureDate).Hours() / 24)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
