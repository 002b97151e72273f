// Package quota plans how many scans fit into the remaining monthly search quota
// and when to run them.
package quota

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduling strategies
const (
	StrategyEven     = "even"
	StrategyWeekly   = "weekly"
	StrategyBiweekly = "biweekly"
)

// FreeTierMonthly is the search allowance of the free API plan
const FreeTierMonthly = 250

// RunHour is the hour of day (UTC) planned runs start at
const RunHour = 9

// Run is one planned scan
type Run struct {
	Number int       `json:"number"`
	Date   time.Time `json:"date"`
	Cron   string    `json:"cron"`
	Calls  int       `json:"calls"`
}

// Schedule is the outcome of planning one strategy
type Schedule struct {
	Strategy           string  `json:"strategy"`
	RemainingCalls     int     `json:"remaining_calls"`
	CallsPerRun        int     `json:"calls_per_run"`
	DaysRemaining      int     `json:"days_remaining"`
	MaxRuns            int     `json:"max_runs"`
	IntervalDays       int     `json:"interval_days"`
	Runs               []Run   `json:"runs"`
	CallsUsed          int     `json:"calls_used"`
	CallsLeft          int     `json:"calls_left"`
	UtilizationPercent float64 `json:"utilization_percent"`
}

// Strategies lists the supported strategy names
func Strategies() []string {
	return []string{StrategyEven, StrategyWeekly, StrategyBiweekly}
}

// Plan spreads scans between today and periodEnd (both inclusive, compared by date).
// The even strategy uses every run the quota allows, spaced days/runs apart; weekly and
// biweekly use a fixed 7 or 14 day step. Runs never fall after periodEnd.
func Plan(remainingCalls, callsPerRun int, today, periodEnd time.Time, strategy string) (Schedule, error) {
	strategy = normalize(strategy)
	if strategy == "" {
		strategy = StrategyEven
	}

	start := truncateDay(today)
	end := truncateDay(periodEnd)

	s := Schedule{
		Strategy:       strategy,
		RemainingCalls: remainingCalls,
		CallsPerRun:    callsPerRun,
		Runs:           []Run{},
	}
	if end.Before(start) {
		return s, fmt.Errorf("period end %s is before %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	s.DaysRemaining = int(end.Sub(start).Hours()/24) + 1

	if callsPerRun <= 0 || remainingCalls < callsPerRun {
		s.CallsLeft = max(remainingCalls, 0)
		return s, nil
	}
	s.MaxRuns = remainingCalls / callsPerRun

	runs := s.MaxRuns
	switch strategy {
	case StrategyEven:
		s.IntervalDays = max(s.DaysRemaining/s.MaxRuns, 1)
	case StrategyWeekly:
		s.IntervalDays = 7
		runs = min(s.DaysRemaining/7, s.MaxRuns)
	case StrategyBiweekly:
		s.IntervalDays = 14
		runs = min(s.DaysRemaining/14, s.MaxRuns)
	default:
		return s, fmt.Errorf("unknown strategy %q (expected one of %s)", strategy, strings.Join(Strategies(), ", "))
	}

	day := start
	for i := 1; i <= runs && !day.After(end); i++ {
		at := day.Add(RunHour * time.Hour)
		s.Runs = append(s.Runs, Run{Number: i, Date: at, Cron: CronFor(at), Calls: callsPerRun})
		day = day.AddDate(0, 0, s.IntervalDays)
	}

	s.CallsUsed = len(s.Runs) * callsPerRun
	s.CallsLeft = remainingCalls - s.CallsUsed
	s.UtilizationPercent = percent(s.CallsUsed, remainingCalls)
	return s, nil
}

// PlanAll plans every strategy
func PlanAll(remainingCalls, callsPerRun int, today, periodEnd time.Time) ([]Schedule, error) {
	var out []Schedule
	for _, name := range Strategies() {
		s, err := Plan(remainingCalls, callsPerRun, today, periodEnd, name)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// CronFor returns a standard cron expression firing once at t's minute, hour, day and month.
func CronFor(t time.Time) string {
	return fmt.Sprintf("%d %d %d %d *", t.Minute(), t.Hour(), t.Day(), int(t.Month()))
}

// ValidateCron checks a standard five-field cron expression
func ValidateCron(expr string) error {
	if _, err := cron.ParseStandard(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// NextRuns returns the next n activation times of a cron expression after from.
func NextRuns(expr string, from time.Time, n int) ([]time.Time, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	out := make([]time.Time, 0, n)
	t := from
	for i := 0; i < n; i++ {
		t = sched.Next(t)
		if t.IsZero() {
			break
		}
		out = append(out, t)
	}
	return out, nil
}

// Usage estimates monthly consumption for a scan of callsPerRun searches run runsPerMonth times.
type Usage struct {
	CallsPerRun   int     `json:"calls_per_run"`
	RunsPerMonth  int     `json:"runs_per_month"`
	MonthlyCalls  int     `json:"monthly_calls"`
	MonthlyQuota  int     `json:"monthly_quota"`
	PercentOfPlan float64 `json:"percent_of_plan"`
	Level         string  `json:"level"` // ok, high or over
}

// EstimateUsage flags usage above 80% of the quota as high and above 100% as over.
func EstimateUsage(callsPerRun, runsPerMonth, monthlyQuota int) Usage {
	u := Usage{
		CallsPerRun:  callsPerRun,
		RunsPerMonth: runsPerMonth,
		MonthlyCalls: callsPerRun * runsPerMonth,
		MonthlyQuota: monthlyQuota,
		Level:        "ok",
	}
	u.PercentOfPlan = percent(u.MonthlyCalls, monthlyQuota)
	switch {
	case u.MonthlyCalls > monthlyQuota:
		u.Level = "over"
	case u.PercentOfPlan > 80:
		u.Level = "high"
	}
	return u
}

// RunsPerMonth counts cron activations in the 30 days after from
func RunsPerMonth(expr string, from time.Time) (int, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return 0, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	limit := from.AddDate(0, 0, 30)
	n := 0
	for t := sched.Next(from); !t.IsZero() && !t.After(limit); t = sched.Next(t) {
		n++
	}
	return n, nil
}

// normalize folds case and separators so "Bi-Weekly" and "bi_weekly" both read as biweekly
func normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(name)
}

func percent(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	p := float64(part) / float64(whole) * 100
	return float64(int(p*10+0.5)) / 10
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
