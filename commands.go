package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/gilsentrycs/monitor-flights/api"
	"github.com/gilsentrycs/monitor-flights/config"
	"github.com/gilsentrycs/monitor-flights/dates"
	"github.com/gilsentrycs/monitor-flights/monitor"
	"github.com/gilsentrycs/monitor-flights/pkg/airports"
	"github.com/gilsentrycs/monitor-flights/pkg/buildinfo"
	"github.com/gilsentrycs/monitor-flights/pkg/cache"
	"github.com/gilsentrycs/monitor-flights/pkg/geo"
	"github.com/gilsentrycs/monitor-flights/pkg/health"
	"github.com/gilsentrycs/monitor-flights/pkg/prompt"
	"github.com/gilsentrycs/monitor-flights/pkg/quota"
	"github.com/gilsentrycs/monitor-flights/report"
)

// a scan that outlives this is assumed dead and its lock expires
const scanLockTTL = 2 * time.Hour

// runs per month assumed by validate when judging a schedule-independent scan
const assumedRunsPerMonth = 7

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type commonFlags struct {
	configPath string
	preset     string
	strategy   string
	maxDates   int
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "YAML config file overlaid on the environment (default $CONFIG_FILE)")
	fs.StringVar(&c.preset, "preset", "", "monitoring preset: daily, weekly, biweekly or monthly")
	fs.StringVar(&c.strategy, "strategy", "", "sampling strategy: conservative, weekly, comprehensive or complete")
	fs.IntVar(&c.maxDates, "max-dates", 0, "search at most this many date pairs")
}

func (c *commonFlags) load() (*config.Config, error) {
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.preset == "" && c.strategy == "" && c.maxDates == 0 {
		return cfg, nil
	}
	if c.preset != "" {
		p, err := quota.LookupPreset(c.preset)
		if err != nil {
			return nil, err
		}
		applyPreset(cfg, p)
	}
	if c.strategy != "" {
		cfg.SearchConfig.SamplingStrategy = strings.ToLower(c.strategy)
	}
	if c.maxDates > 0 {
		cfg.SearchConfig.MaxDates = c.maxDates
	}
	return cfg, cfg.Validate()
}

// applyPreset sets the schedule and date sampling of a monitoring preset
func applyPreset(cfg *config.Config, p quota.Preset) {
	cfg.MonitorConfig.Cron = p.Cron
	cfg.SearchConfig.SamplingStrategy = p.SamplingStrategy
	cfg.SearchConfig.MaxDates = p.MaxDates
}

func runScan(args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	yes := fs.Bool("yes", false, "skip the confirmation for large scans")
	fs.Parse(args)

	cfg, err := common.load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.service(prompt.For(*yes)).Execute(ctx)
	if err != nil {
		return err
	}
	printFarePerKm(os.Stdout, cfg.SearchConfig, res.Report.Analysis)
	if res.ReportPath != "" {
		fmt.Printf("\nReport saved to %s\n", res.ReportPath)
	}
	if res.Run.AllFailed() {
		return fmt.Errorf("all %d searches failed: %w", res.Run.FailedCalls, res.Run.LastError)
	}
	return nil
}

// printFarePerKm shows each destination's cheapest fare against the round-trip distance
func printFarePerKm(w io.Writer, sc config.SearchConfig, analysis report.AggregateReport) {
	lines := make([]string, 0, len(analysis.ByDestination))
	for _, g := range analysis.ByDestination {
		for _, d := range sc.Destinations {
			if d.City != g.Label {
				continue
			}
			if km, ok := airports.DistanceKm(sc.DepartureCode, d.Codes); ok {
				lines = append(lines, fmt.Sprintf("  %s: %.3f %s/km (best %d %s, %.0f km each way)",
					d.City, geo.PricePerKm(g.MinPrice, km), sc.Currency, g.MinPrice, sc.Currency, km))
			}
		}
	}
	if len(lines) == 0 {
		return
	}
	fmt.Fprintln(w, "\nFare per km:")
	fmt.Fprintln(w, strings.Join(lines, "\n"))
}

func runPlan(args []string) error {
	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	fs.Parse(args)

	cfg, err := common.load()
	if err != nil {
		return err
	}
	printPlan(os.Stdout, cfg, monitor.NewService(cfg, monitor.Deps{}).Plan())
	return nil
}

func printPlan(w io.Writer, cfg *config.Config, plan monitor.Plan) {
	fmt.Fprintln(w, headingStyle.Render("Scan plan: "+monitor.RouteLabel(cfg.SearchConfig)))
	fmt.Fprintf(w, "Strategy:        %s\n", plan.Strategy)
	fmt.Fprintf(w, "Candidate pairs: %d\n", len(plan.Candidates))
	fmt.Fprintf(w, "Sampled pairs:   %d (%.1f%% coverage)\n", len(plan.Sampled), plan.Coverage())
	fmt.Fprintf(w, "Destinations:    %d\n", len(plan.Destinations))
	fmt.Fprintf(w, "API calls:       %d of %d monthly\n\n", plan.Calls(), cfg.SearchConfig.MonthlyQuota)
	for i, p := range plan.Sampled {
		fmt.Fprintf(w, "%3d. %s (%s)\n", i+1, p, p.Departure.Format("Mon"))
	}
}

func runQuota(args []string) error {
	fs := flag.NewFlagSet("quota", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	remaining := fs.Int("remaining", 0, "searches left this month; skips the account lookup when set")
	presets := fs.Bool("presets", false, "compare the monitoring presets instead of planning runs")
	fs.Parse(args)

	cfg, err := common.load()
	if err != nil {
		return err
	}
	if *presets {
		return printPresets(os.Stdout, cfg, time.Now())
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	plan := monitor.NewService(cfg, monitor.Deps{}).Plan()
	left := *remaining
	var a *app
	if left == 0 {
		a, err = newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.close()

		acct, err := a.client.Account(ctx)
		if err != nil {
			return err
		}
		left = acct.TotalSearchesLeft
		fmt.Printf("Plan %s: %d searches used this month, %d left\n\n", acct.PlanName, acct.ThisMonthUsage, left)
	}

	if err := printQuota(os.Stdout, cfg, plan.Calls(), left, time.Now()); err != nil {
		return err
	}

	if a != nil && left < plan.Calls() {
		if err := a.ntfy.AlertQuotaLow(ctx, left, plan.Calls()); err != nil {
			a.log.Warn("quota alert failed", "error", err)
		}
	}
	return nil
}

func printQuota(w io.Writer, cfg *config.Config, callsPerRun, remaining int, now time.Time) error {
	periodEnd := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC)
	schedules, err := quota.PlanAll(remaining, callsPerRun, now, periodEnd)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, headingStyle.Render("Quota plan until "+periodEnd.Format("2006-01-02")))
	fmt.Fprintf(w, "Remaining searches: %d, calls per scan: %d\n", remaining, callsPerRun)
	for _, s := range schedules {
		fmt.Fprintf(w, "\n%s: %d runs every %d day(s), %d calls used, %d left (%.1f%%)\n",
			s.Strategy, len(s.Runs), s.IntervalDays, s.CallsUsed, s.CallsLeft, s.UtilizationPercent)
		for _, r := range s.Runs {
			fmt.Fprintf(w, "  run %d  %s  cron %q\n", r.Number, r.Date.Format("Mon 2006-01-02"), r.Cron)
		}
	}

	runs, err := quota.RunsPerMonth(cfg.MonitorConfig.Cron, now)
	if err != nil {
		return err
	}
	u := quota.EstimateUsage(callsPerRun, runs, cfg.SearchConfig.MonthlyQuota)
	fmt.Fprintf(w, "\nMONITOR_CRON %q: %d runs per month, %d calls (%.1f%% of %d) %s\n",
		cfg.MonitorConfig.Cron, runs, u.MonthlyCalls, u.PercentOfPlan, u.MonthlyQuota, levelLabel(u.Level))
	if remaining < callsPerRun {
		fmt.Fprintln(w, warnStyle.Render("Not enough searches left for a full scan."))
	}
	return nil
}

// printPresets compares the monthly and annual usage of every monitoring preset
// for the configured route.
func printPresets(w io.Writer, cfg *config.Config, now time.Time) error {
	fmt.Fprintln(w, headingStyle.Render("Monitoring presets: "+monitor.RouteLabel(cfg.SearchConfig)))
	for _, p := range quota.Presets() {
		c := *cfg
		applyPreset(&c, p)
		plan := monitor.NewService(&c, monitor.Deps{}).Plan()

		u, err := quota.EstimateAnnual(p, plan.Calls(), cfg.SearchConfig.MonthlyQuota, now)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "\n%s: %s\n", p.Name, p.Description)
		fmt.Fprintf(w, "  cron %q, %d runs per month, %d calls per scan (%.1f%% coverage)\n",
			p.Cron, u.RunsPerMonth, plan.Calls(), plan.Coverage())
		fmt.Fprintf(w, "  %d calls per month (%.1f%% of %d) %s, %d per year, about $%.2f\n",
			u.MonthlyCalls, u.PercentOfPlan, u.MonthlyQuota, levelLabel(u.Level), u.AnnualCalls, u.AnnualCostUSD)
	}
	return nil
}

func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configPath := fs.String("config", "", "YAML config file overlaid on the environment (default $CONFIG_FILE)")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Println(errStyle.Render("✗ " + err.Error()))
		return err
	}

	findings := validateConfig(cfg, time.Now())
	fmt.Println(headingStyle.Render("Configuration check"))
	failed := 0
	for _, f := range findings {
		switch f.level {
		case levelError:
			failed++
			fmt.Println(errStyle.Render("✗ " + f.message))
		case levelWarn:
			fmt.Println(warnStyle.Render("! " + f.message))
		default:
			fmt.Println("✓ " + f.message)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d configuration problem(s)", failed)
	}
	return nil
}

type findingLevel int

const (
	levelOK findingLevel = iota
	levelWarn
	levelError
)

type finding struct {
	level   findingLevel
	message string
}

// validateConfig reports on a config that already passed Validate: credentials,
// airport codes, the monitor schedule and the expected quota use.
func validateConfig(cfg *config.Config, now time.Time) []finding {
	var out []finding
	add := func(level findingLevel, format string, args ...interface{}) {
		out = append(out, finding{level: level, message: fmt.Sprintf(format, args...)})
	}

	if err := cfg.RequireCredentials(); err != nil {
		add(levelError, "%v", err)
	} else {
		add(levelOK, "credentials present")
	}

	sc := cfg.SearchConfig
	if !airports.Known(sc.DepartureCode) {
		add(levelWarn, "departure airport %s is not in the airport table", sc.DepartureCode)
	}
	for _, d := range sc.Destinations {
		for _, code := range d.Codes {
			if !airports.ValidCode(code) {
				add(levelError, "%s: %q is not a 3-letter airport code", d.City, code)
			} else if !airports.Known(code) {
				add(levelWarn, "%s: airport %s is not in the airport table", d.City, code)
			}
		}
		if km, ok := airports.DistanceKm(sc.DepartureCode, d.Codes); ok {
			add(levelOK, "%s → %s: %.0f km", sc.DepartureCode, d.City, km)
		}
	}

	days := make([]string, 0, len(sc.DepartureDays))
	for _, day := range sc.DepartureDays {
		days = append(days, dates.WeekdayName(day))
	}
	add(levelOK, "travel window %d/%d to %d/%d, departing %s, %d nights",
		sc.StartMonth, sc.Year, sc.EndMonth, sc.Year, strings.Join(days, "/"), sc.TripDurationDays)

	plan := monitor.NewService(cfg, monitor.Deps{}).Plan()
	if plan.Calls() == 0 {
		add(levelError, "the travel window contains no matching departure dates")
	} else {
		add(levelOK, "%d candidate pairs, %d sampled (%s), %d calls per scan",
			len(plan.Candidates), len(plan.Sampled), plan.Strategy, plan.Calls())
	}

	free := quota.EstimateUsage(plan.Calls(), assumedRunsPerMonth, quota.FreeTierMonthly)
	add(usageLevel(free.Level), "%d runs per month use %d of the %d free searches (%.1f%%)",
		assumedRunsPerMonth, free.MonthlyCalls, quota.FreeTierMonthly, free.PercentOfPlan)

	if err := quota.ValidateCron(cfg.MonitorConfig.Cron); err != nil {
		add(levelError, "MONITOR_CRON: %v", err)
	} else if runs, err := quota.RunsPerMonth(cfg.MonitorConfig.Cron, now); err == nil {
		u := quota.EstimateUsage(plan.Calls(), runs, sc.MonthlyQuota)
		add(usageLevel(u.Level), "schedule %q runs %d times a month, %d of %d searches (%.1f%%)",
			cfg.MonitorConfig.Cron, runs, u.MonthlyCalls, u.MonthlyQuota, u.PercentOfPlan)
	}

	if cfg.HistoryConfig.Enabled && cfg.HistoryConfig.DSN == "" {
		add(levelError, "HISTORY_DSN is required when history is enabled")
	}
	if cfg.NTFYConfig.Enabled && cfg.NTFYConfig.Topic == "" {
		add(levelWarn, "NTFY is enabled without a topic, alerts will not be sent")
	}
	return out
}

func usageLevel(level string) findingLevel {
	switch level {
	case "over":
		return levelError
	case "high":
		return levelWarn
	}
	return levelOK
}

func levelLabel(level string) string {
	switch level {
	case "over":
		return errStyle.Render("[over quota]")
	case "high":
		return warnStyle.Render("[high]")
	}
	return "[ok]"
}

func runMonitor(args []string) error {
	fs := flag.NewFlagSet("monitor", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	now := fs.Bool("now", false, "start a scan immediately as well")
	fs.Parse(args)

	cfg, err := common.load()
	if err != nil {
		return err
	}
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	sched := monitor.NewScheduler(a.service(prompt.Fixed(true)), cfg.MonitorConfig.Cron, a.log)
	if a.redis != nil {
		sched.WithLock(cache.NewLock(a.redis, cfg.CacheConfig.Prefix+":scan-lock", scanLockTTL), scanLockTTL/4)
	}
	a.log.Info("starting monitor", "version", buildinfo.Version, "route", monitor.RouteLabel(cfg.SearchConfig))
	if err := a.ntfy.NotifyMonitorStarted(ctx, monitor.RouteLabel(cfg.SearchConfig), cfg.MonitorConfig.Cron); err != nil {
		a.log.Warn("start notification failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sched.Run(gctx, *now)
	})
	if cfg.MonitorConfig.StatusServer {
		handler := api.WithCORS(api.NewRouter(a.apiDeps(gctx, sched)), cfg.MonitorConfig.CORSOrigins)
		g.Go(func() error {
			return api.Serve(gctx, ":"+cfg.MonitorConfig.Port, handler, a.log)
		})
	}
	return g.Wait()
}

func (a *app) apiDeps(ctx context.Context, sched *monitor.Scheduler) api.Deps {
	hc := health.NewHealthChecker(buildinfo.Version)
	if a.history != nil {
		hc.AddChecker(&health.PingChecker{Target: a.history, Name: "history"})
	}
	if a.redis != nil {
		hc.AddChecker(&health.RedisChecker{Client: a.redis, Name: "redis"})
	}
	hc.AddChecker(&health.FuncChecker{Name: "scheduler", Fn: func(context.Context) (map[string]string, error) {
		st := sched.Status()
		details := map[string]string{
			"cron":     st.Cron,
			"next_run": st.NextRun.Format(time.RFC3339),
			"runs":     fmt.Sprint(st.Runs),
		}
		if st.LastStatus == "failed" {
			return details, fmt.Errorf("last scan %s failed", st.LastRunID)
		}
		return details, nil
	}})

	deps := api.Deps{
		Config:      a.cfg,
		Health:      hc,
		Scheduler:   sched,
		Metrics:     a.metrics,
		Logger:      a.log,
		ScanContext: ctx,
	}
	if a.history != nil {
		deps.History = a.history
	}
	return deps
}
