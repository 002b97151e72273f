package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	anyascii "github.com/anyascii/go"

	"github.com/gilsentrycs/monitor-flights/quotes"
)

// Configuration records the search settings a report was produced with
type Configuration struct {
	DepartureCity    string   `json:"departure_city"`
	DepartureCode    string   `json:"departure_code"`
	Destinations     []string `json:"destinations"`
	Year             int      `json:"year"`
	StartMonth       int      `json:"start_month"`
	EndMonth         int      `json:"end_month"`
	DepartureDays    []string `json:"departure_days"`
	TripDurationDays int      `json:"trip_duration_days"`
	Currency         string   `json:"currency"`
	SamplingStrategy string   `json:"sampling_strategy"`
}

// SearchMetadata describes the run that produced a report
type SearchMetadata struct {
	RunID           string        `json:"run_id"`
	SearchDate      time.Time     `json:"search_date"`
	Route           string        `json:"route"`
	Configuration   Configuration `json:"configuration"`
	APICallsUsed    int           `json:"api_calls_used"`
	CacheHits       int           `json:"cache_hits"`
	FailedCalls     int           `json:"failed_calls"`
	CandidateDates  int           `json:"candidate_dates"`
	SampledDates    int           `json:"sampled_dates"`
	CoveragePercent float64       `json:"coverage_percent"`
	Version         string        `json:"version"`
}

// SavedReport is the JSON document written after each scan
type SavedReport struct {
	SearchMetadata SearchMetadata       `json:"search_metadata"`
	Analysis       AggregateReport      `json:"analysis"`
	FlightOptions  []quotes.QuoteRecord `json:"flight_options"`
}

// Slug turns a route label into an ASCII, lowercase, underscore-separated file name part.
func Slug(s string) string {
	var b strings.Builder
	lastSep := true
	for _, r := range strings.ToLower(anyascii.Transliterate(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSep = false
			continue
		}
		if !lastSep {
			b.WriteByte('_')
			lastSep = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// FileName builds <prefix>_<route-slug>_<YYYYMMDD_HHMMSS>.json
func FileName(prefix, route string, at time.Time) string {
	parts := []string{}
	if prefix != "" {
		parts = append(parts, prefix)
	}
	if slug := Slug(route); slug != "" {
		parts = append(parts, slug)
	}
	parts = append(parts, at.Format("20060102_150405"))
	return strings.Join(parts, "_") + ".json"
}

// Save writes the report as indented JSON under dir and returns the file path.
func Save(dir, prefix string, rep SavedReport) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	if rep.FlightOptions == nil {
		rep.FlightOptions = []quotes.QuoteRecord{}
	}

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	path := filepath.Join(dir, FileName(prefix, rep.SearchMetadata.Route, rep.SearchMetadata.SearchDate))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// Load reads a report written by Save
func Load(path string) (SavedReport, error) {
	var rep SavedReport
	data, err := os.ReadFile(path)
	if err != nil {
		return rep, fmt.Errorf("read report: %w", err)
	}
	if err := json.Unmarshal(data, &rep); err != nil {
		return rep, fmt.Errorf("parse report %s: %w", filepath.Base(path), err)
	}
	return rep, nil
}

// ErrNoReports is returned by Latest when the directory holds no saved reports
var ErrNoReports = errors.New("no saved reports")

// Latest returns the path of the most recent report with the given prefix. The
// timestamp suffix sorts lexically, so the greatest name wins.
func Latest(dir, prefix string) (string, error) {
	if dir == "" {
		dir = "."
	}
	pattern := "*.json"
	if prefix != "" {
		pattern = prefix + "_*.json"
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", fmt.Errorf("list reports: %w", err)
	}
	if len(matches) == 0 {
		return "", ErrNoReports
	}
	sort.Slice(matches, func(i, j int) bool {
		return timestampSuffix(matches[i]) < timestampSuffix(matches[j])
	})
	return matches[len(matches)-1], nil
}

func timestampSuffix(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), ".json")
	if len(name) < len("20060102_150405") {
		return name
	}
	return name[len(name)-len("20060102_150405"):]
}
