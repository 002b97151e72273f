package quota

import (
	"fmt"
	"math"
	"time"
)

// CostPerSearchUSD is a rough per-search price on the paid plans
const CostPerSearchUSD = 0.04

// Preset is a ready-made monitoring cadence: how often to scan and how many date
// pairs each scan covers.
type Preset struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Cron        string `json:"cron"`

	// SamplingStrategy and MaxDates override the scan's date sampling; a zero
	// MaxDates keeps the strategy's own target.
	SamplingStrategy string `json:"sampling_strategy"`
	MaxDates         int    `json:"max_dates,omitempty"`
}

var presets = []Preset{
	{
		Name:             "daily",
		Description:      "daily pulse, one date pair per destination for price alerts",
		Cron:             "0 9 * * *",
		SamplingStrategy: "conservative",
		MaxDates:         1,
	},
	{
		Name:             "weekly",
		Description:      "weekly overview with strategic sampling",
		Cron:             "0 9 * * 1",
		SamplingStrategy: "weekly",
	},
	{
		Name:             "biweekly",
		Description:      "the weekly overview twice a month",
		Cron:             "0 9 1,15 * *",
		SamplingStrategy: "weekly",
	},
	{
		Name:             "monthly",
		Description:      "monthly deep dive over every candidate pair",
		Cron:             "0 9 1 * *",
		SamplingStrategy: "complete",
	},
}

// Presets lists the monitoring presets from most to least frequent
func Presets() []Preset {
	return append([]Preset(nil), presets...)
}

// LookupPreset finds a preset by name. Separators and case are ignored.
func LookupPreset(name string) (Preset, error) {
	key := normalize(name)
	for _, p := range presets {
		if p.Name == key {
			return p, nil
		}
	}
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = p.Name
	}
	return Preset{}, fmt.Errorf("unknown preset %q (expected one of %v)", name, names)
}

// AnnualUsage projects a monthly usage estimate over a year
type AnnualUsage struct {
	Usage
	AnnualCalls   int     `json:"annual_calls"`
	AnnualCostUSD float64 `json:"annual_cost_usd"`
}

// EstimateAnnual estimates the usage of a preset whose scans cost callsPerRun
// searches. Runs per month are counted from the preset's cron after from.
func EstimateAnnual(p Preset, callsPerRun, monthlyQuota int, from time.Time) (AnnualUsage, error) {
	runs, err := RunsPerMonth(p.Cron, from)
	if err != nil {
		return AnnualUsage{}, err
	}
	u := EstimateUsage(callsPerRun, runs, monthlyQuota)
	annual := u.MonthlyCalls * 12
	return AnnualUsage{
		Usage:         u,
		AnnualCalls:   annual,
		AnnualCostUSD: math.Round(float64(annual)*CostPerSearchUSD*100) / 100,
	}, nil
}
