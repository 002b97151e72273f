package store

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS scan_runs (
	run_id       TEXT PRIMARY KEY,
	origin       TEXT NOT NULL,
	route        TEXT NOT NULL,
	currency     TEXT NOT NULL,
	started_at   TEXT NOT NULL,
	finished_at  TEXT NOT NULL,
	api_calls    INTEGER NOT NULL DEFAULT 0,
	cache_hits   INTEGER NOT NULL DEFAULT 0,
	failed_calls INTEGER NOT NULL DEFAULT 0,
	candidates   INTEGER NOT NULL DEFAULT 0,
	sampled      INTEGER NOT NULL DEFAULT 0,
	options      INTEGER NOT NULL DEFAULT 0,
	best_price   INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS quotes (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id           TEXT NOT NULL REFERENCES scan_runs(run_id),
	origin           TEXT NOT NULL,
	destination      TEXT NOT NULL,
	departure_date   TEXT NOT NULL,
	return_date      TEXT NOT NULL,
	trip_length      INTEGER NOT NULL,
	price            INTEGER NOT NULL,
	duration_minutes INTEGER NOT NULL DEFAULT 0,
	airline          TEXT NOT NULL,
	is_direct        INTEGER NOT NULL DEFAULT 0,
	layovers         TEXT NOT NULL DEFAULT '',
	carbon_kg        REAL NOT NULL DEFAULT 0,
	searched_at      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_quotes_route ON quotes(origin, destination, trip_length, searched_at);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS scan_runs (
	run_id       VARCHAR(64) PRIMARY KEY,
	origin       VARCHAR(3) NOT NULL,
	route        TEXT NOT NULL,
	currency     VARCHAR(3) NOT NULL,
	started_at   VARCHAR(20) NOT NULL,
	finished_at  VARCHAR(20) NOT NULL,
	api_calls    INT NOT NULL DEFAULT 0,
	cache_hits   INT NOT NULL DEFAULT 0,
	failed_calls INT NOT NULL DEFAULT 0,
	candidates   INT NOT NULL DEFAULT 0,
	sampled      INT NOT NULL DEFAULT 0,
	options      INT NOT NULL DEFAULT 0,
	best_price   INT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS quotes (
	id               SERIAL PRIMARY KEY,
	run_id           VARCHAR(64) NOT NULL REFERENCES scan_runs(run_id),
	origin           VARCHAR(3) NOT NULL,
	destination      VARCHAR(255) NOT NULL,
	departure_date   VARCHAR(10) NOT NULL,
	return_date      VARCHAR(10) NOT NULL,
	trip_length      INT NOT NULL,
	price            INT NOT NULL,
	duration_minutes INT NOT NULL DEFAULT 0,
	airline          VARCHAR(255) NOT NULL,
	is_direct        INT NOT NULL DEFAULT 0,
	layovers         TEXT NOT NULL DEFAULT '',
	carbon_kg        DOUBLE PRECISION NOT NULL DEFAULT 0,
	searched_at      VARCHAR(20) NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_quotes_route ON quotes(origin, destination, trip_length, searched_at);
`

const insertRun = `
INSERT INTO scan_runs (run_id, origin, route, currency, started_at, finished_at,
	api_calls, cache_hits, failed_calls, candidates, sampled, options, best_price)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const insertQuote = `
INSERT INTO quotes (run_id, origin, destination, departure_date, return_date, trip_length,
	price, duration_minutes, airline, is_direct, layovers, carbon_kg, searched_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectRoutePrices = `
SELECT price FROM quotes
WHERE origin = ? AND destination = ? AND trip_length = ? AND searched_at >= ?
ORDER BY searched_at`

const selectRuns = `
SELECT run_id, origin, route, currency, started_at, finished_at, api_calls, cache_hits,
	failed_calls, candidates, sampled, options, best_price
FROM scan_runs
ORDER BY started_at DESC
LIMIT ?`

const selectPriceTrend = `
SELECT q.run_id, MIN(q.searched_at), MIN(q.price), COUNT(*)
FROM quotes q
WHERE q.origin = ? AND q.destination = ?
GROUP BY q.run_id
ORDER BY MIN(q.searched_at)`
