package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilsentrycs/monitor-flights/config"
	"github.com/gilsentrycs/monitor-flights/monitor"
	"github.com/gilsentrycs/monitor-flights/pkg/quota"
	"github.com/gilsentrycs/monitor-flights/report"
)

var checkTime = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func messages(findings []finding, level findingLevel) []string {
	var out []string
	for _, f := range findings {
		if f.level == level {
			out = append(out, f.message)
		}
	}
	return out
}

func TestValidateConfig_Clean(t *testing.T) {
	findings := validateConfig(config.TestConfig(), checkTime)

	assert.Empty(t, messages(findings, levelError))
	assert.Empty(t, messages(findings, levelWarn))

	ok := strings.Join(messages(findings, levelOK), "\n")
	assert.Contains(t, ok, "credentials present")
	assert.Contains(t, ok, "TLV → Paris:")
	assert.Contains(t, ok, "departing Wednesday/Thursday, 4 nights")
	assert.Contains(t, ok, "26 candidate pairs, 13 sampled (weekly), 13 calls per scan")
	assert.Contains(t, ok, "7 runs per month use 91 of the 250 free searches (36.4%)")
	assert.Contains(t, ok, `schedule "0 9 */4 * *" runs 8 times a month, 104 of 250 searches (41.6%)`)
}

func TestValidateConfig_Problems(t *testing.T) {
	cfg := config.TestConfig()
	cfg.SerpAPIConfig.APIKey = ""
	cfg.SearchConfig.Destinations = append(cfg.SearchConfig.Destinations,
		config.Destination{City: "Nowhere", Codes: []string{"ZZZ"}})
	cfg.SearchConfig.SamplingStrategy = "complete"
	cfg.MonitorConfig.Cron = "every day"

	findings := validateConfig(cfg, checkTime)

	errs := strings.Join(messages(findings, levelError), "\n")
	assert.Contains(t, errs, config.ErrMissingAPIKey.Error())
	assert.Contains(t, errs, "MONITOR_CRON")
	// 26 pairs x 2 destinations x 7 runs is over the free tier
	assert.Contains(t, errs, "7 runs per month use 364 of the 250 free searches")

	warns := messages(findings, levelWarn)
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0], "airport ZZZ is not in the airport table")
}

func TestValidateConfig_EmptyWindow(t *testing.T) {
	cfg := config.TestConfig()
	cfg.SearchConfig.StartMonth = 2
	cfg.SearchConfig.EndMonth = 2
	cfg.SearchConfig.DepartureDays = []int{0}
	cfg.SearchConfig.TripDurationDays = 30

	errs := messages(validateConfig(cfg, checkTime), levelError)
	assert.Contains(t, errs, "the travel window contains no matching departure dates")
}

func TestPrintPlan(t *testing.T) {
	cfg := config.TestConfig()
	var buf bytes.Buffer
	printPlan(&buf, cfg, monitor.NewService(cfg, monitor.Deps{}).Plan())

	out := buf.String()
	assert.Contains(t, out, "Tel Aviv (TLV) → Paris (CDG,ORY)")
	assert.Contains(t, out, "Sampled pairs:   13 (50.0% coverage)")
	assert.Contains(t, out, "API calls:       13 of 250 monthly")
	assert.Contains(t, out, "1. 2026-04-01 -> 2026-04-05 (Wed)")
	assert.Contains(t, out, "13. 2026-06-24 -> 2026-06-28 (Wed)")
}

func TestPrintQuota(t *testing.T) {
	cfg := config.TestConfig()
	now := time.Date(2025, 9, 17, 7, 30, 0, 0, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, printQuota(&buf, cfg, 26, 216, now))

	out := buf.String()
	assert.Contains(t, out, "Quota plan until 2025-09-30")
	assert.Contains(t, out, "even: 8 runs every 1 day(s), 208 calls used, 8 left (96.3%)")
	assert.Contains(t, out, `run 1  Wed 2025-09-17  cron "0 9 17 9 *"`)
	assert.Contains(t, out, `run 8  Wed 2025-09-24  cron "0 9 24 9 *"`)
	assert.Contains(t, out, "weekly: 2 runs every 7 day(s)")
	assert.Contains(t, out, "biweekly: 1 runs every 14 day(s)")
	assert.NotContains(t, out, "Not enough searches left")

	buf.Reset()
	require.NoError(t, printQuota(&buf, cfg, 26, 20, now))
	assert.Contains(t, buf.String(), "Not enough searches left for a full scan.")
}

func TestPrintFarePerKm(t *testing.T) {
	sc := config.TestConfig().SearchConfig
	sc.Destinations = append(sc.Destinations, config.Destination{City: "Atlantis", Codes: []string{"ZZZ"}})
	analysis := report.AggregateReport{ByDestination: []report.GroupStats{
		{Label: "Paris", Count: 13, MinPrice: 300},
		{Label: "Atlantis", Count: 2, MinPrice: 120},
	}}

	var buf bytes.Buffer
	printFarePerKm(&buf, sc, analysis)
	out := buf.String()
	assert.Contains(t, out, "Fare per km:")
	assert.Contains(t, out, "Paris: 0.046 USD/km (best 300 USD")
	assert.NotContains(t, out, "Atlantis")

	buf.Reset()
	printFarePerKm(&buf, sc, report.AggregateReport{})
	assert.Empty(t, buf.String())
}

func TestApplyPreset(t *testing.T) {
	cfg := config.TestConfig()
	cfg.SearchConfig.MaxDates = 5
	applyPreset(cfg, quota.Presets()[0])

	assert.Equal(t, "0 9 * * *", cfg.MonitorConfig.Cron)
	assert.Equal(t, "conservative", cfg.SearchConfig.SamplingStrategy)
	assert.Equal(t, 1, cfg.SearchConfig.MaxDates)
	assert.NoError(t, cfg.Validate())
}

func TestPrintPresets(t *testing.T) {
	cfg := config.TestConfig()
	var buf bytes.Buffer
	require.NoError(t, printPresets(&buf, cfg, checkTime))

	out := buf.String()
	assert.Contains(t, out, "daily: daily pulse")
	assert.Contains(t, out, `cron "0 9 * * *", 30 runs per month, 1 calls per scan`)
	assert.Contains(t, out, `cron "0 9 1,15 * *", 2 runs per month, 13 calls per scan (50.0% coverage)`)
	assert.Contains(t, out, "26 calls per month (10.4% of 250) [ok], 312 per year, about $12.48")
	assert.Contains(t, out, `cron "0 9 1 * *", 1 runs per month, 26 calls per scan (100.0% coverage)`)
	// the config passed in is left alone
	assert.Equal(t, "weekly", cfg.SearchConfig.SamplingStrategy)
}
