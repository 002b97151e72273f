package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gilsentrycs/monitor-flights/config"
	"github.com/gilsentrycs/monitor-flights/dates"
	"github.com/gilsentrycs/monitor-flights/pkg/buildinfo"
	"github.com/gilsentrycs/monitor-flights/pkg/deals"
	"github.com/gilsentrycs/monitor-flights/pkg/logger"
	"github.com/gilsentrycs/monitor-flights/pkg/metrics"
	"github.com/gilsentrycs/monitor-flights/pkg/prompt"
	"github.com/gilsentrycs/monitor-flights/quotes"
	"github.com/gilsentrycs/monitor-flights/report"
	"github.com/gilsentrycs/monitor-flights/serpapi"
	"github.com/gilsentrycs/monitor-flights/store"
)

// ErrDeclined is returned when the operator declines a large scan
var ErrDeclined = errors.New("scan declined")

// Mailer e-mails finished reports
type Mailer interface {
	Enabled() bool
	SendReport(rep report.SavedReport) error
}

// Alerter pushes short notifications
type Alerter interface {
	AlertScanComplete(ctx context.Context, route string, bestPrice int, currency string, options, apiCalls int, took time.Duration) error
	AlertScanFailed(ctx context.Context, route string, failed int, lastErr error) error
	AlertDeal(ctx context.Context, deal deals.Deal, currency string) error
}

// History stores runs and serves route baselines
type History interface {
	deals.PriceHistory
	SaveRun(ctx context.Context, run store.RunRecord, records []quotes.QuoteRecord) error
}

// Deps are the collaborators of a Service. Only Searcher is required.
type Deps struct {
	Searcher serpapi.Searcher
	Confirm  prompt.Confirmer
	Out      io.Writer
	Mailer   Mailer
	Alerter  Alerter
	History  History
	Metrics  *metrics.Recorder
	Logger   *logger.Logger
}

// Result is everything a finished scan produced
type Result struct {
	Run        *RunContext
	Plan       Plan
	Report     report.SavedReport
	ReportPath string
	Deals      []deals.Deal
}

// Service runs a scan and its post-run pipeline
type Service struct {
	cfg      *config.Config
	scanner  *Scanner
	deps     Deps
	detector *deals.DealDetector
	log      *logger.Logger
}

// NewService wires a scan service
func NewService(cfg *config.Config, deps Deps) *Service {
	if deps.Logger == nil {
		deps.Logger = logger.Default()
	}
	if deps.Out == nil {
		deps.Out = os.Stdout
	}
	if deps.Confirm == nil {
		deps.Confirm = prompt.Fixed(true)
	}

	s := &Service{
		cfg:     cfg,
		scanner: NewScanner(cfg, deps.Searcher, deps.Metrics, deps.Logger),
		deps:    deps,
		log:     deps.Logger,
	}
	if deps.History != nil {
		s.detector = deals.NewDealDetector(deps.History, cfg.DealConfig)
	}
	return s
}

// Plan returns the searches the next scan will make
func (s *Service) Plan() Plan {
	return s.scanner.Plan()
}

// Execute plans, confirms and runs one scan, then reports on it. Only a declined
// confirmation or a cancelled context is an error; failures of the reporting
// steps are logged.
func (s *Service) Execute(ctx context.Context) (*Result, error) {
	plan := s.scanner.Plan()
	if plan.Calls() == 0 {
		s.log.Warn("no date pairs match the configured window",
			"year", s.cfg.SearchConfig.Year,
			"start_month", s.cfg.SearchConfig.StartMonth,
			"end_month", s.cfg.SearchConfig.EndMonth,
		)
	}

	if err := s.confirm(plan); err != nil {
		return nil, err
	}

	rc, err := s.scanner.Run(ctx, plan)
	if err != nil {
		return &Result{Run: rc, Plan: plan}, err
	}

	res := &Result{Run: rc, Plan: plan, Report: s.buildReport(rc, plan)}

	if err := report.WriteText(s.deps.Out, res.Report); err != nil {
		s.log.Error(err, "failed to print report")
	}

	if s.cfg.ReportConfig.SaveJSON {
		path, err := report.Save(s.cfg.ReportConfig.OutputDir, s.cfg.ReportConfig.FilePrefix, res.Report)
		if err != nil {
			s.log.Error(err, "failed to save report")
		} else {
			res.ReportPath = path
			s.log.Info("report saved", "path", path)
		}
	}

	res.Deals = s.detectAndStore(ctx, rc)

	if s.deps.Mailer != nil && s.deps.Mailer.Enabled() {
		if err := s.deps.Mailer.SendReport(res.Report); err != nil {
			s.log.Error(err, "failed to e-mail report")
		} else {
			s.log.Info("report e-mailed", "recipients", len(s.cfg.EmailConfig.To))
		}
	}

	s.alert(ctx, res)
	s.recordMetrics(res)
	return res, nil
}

func (s *Service) confirm(plan Plan) error {
	threshold := s.cfg.SearchConfig.ConfirmThreshold
	if threshold <= 0 || plan.Calls() <= threshold {
		return nil
	}

	title := fmt.Sprintf("This scan will use %d API searches. Continue?", plan.Calls())
	desc := fmt.Sprintf("%d of %d date pairs (%.1f%% coverage) for %d destination(s). Monthly quota: %d.",
		len(plan.Sampled), len(plan.Candidates), plan.Coverage(), len(plan.Destinations), s.cfg.SearchConfig.MonthlyQuota)

	ok, err := s.deps.Confirm.Confirm(title, desc)
	if err != nil {
		return fmt.Errorf("confirmation failed: %w", err)
	}
	if !ok {
		s.log.Info("scan cancelled by operator", "planned_calls", plan.Calls())
		return ErrDeclined
	}
	return nil
}

func (s *Service) buildReport(rc *RunContext, plan Plan) report.SavedReport {
	sc := s.cfg.SearchConfig

	destinations := make([]string, 0, len(sc.Destinations))
	for _, d := range sc.Destinations {
		destinations = append(destinations, destinationLabel(d))
	}
	days := make([]string, 0, len(sc.DepartureDays))
	for _, d := range sc.DepartureDays {
		days = append(days, dates.WeekdayName(d))
	}

	return report.SavedReport{
		SearchMetadata: report.SearchMetadata{
			RunID:      rc.RunID,
			SearchDate: rc.FinishedAt,
			Route:      RouteLabel(sc),
			Configuration: report.Configuration{
				DepartureCity:    sc.DepartureCity,
				DepartureCode:    sc.DepartureCode,
				Destinations:     destinations,
				Year:             sc.Year,
				StartMonth:       sc.StartMonth,
				EndMonth:         sc.EndMonth,
				DepartureDays:    days,
				TripDurationDays: sc.TripDurationDays,
				Currency:         sc.Currency,
				SamplingStrategy: plan.Strategy,
			},
			APICallsUsed:    rc.APICalls,
			CacheHits:       rc.CacheHits,
			FailedCalls:     rc.FailedCalls,
			CandidateDates:  rc.Candidates,
			SampledDates:    rc.Sampled,
			CoveragePercent: plan.Coverage(),
			Version:         buildinfo.Version,
		},
		Analysis:      report.Aggregate(rc.Records, s.cfg.ReportConfig.TopN),
		FlightOptions: rc.Records,
	}
}

// detectAndStore compares the run with stored history, then adds the run to it.
func (s *Service) detectAndStore(ctx context.Context, rc *RunContext) []deals.Deal {
	if s.deps.History == nil {
		return nil
	}
	sc := s.cfg.SearchConfig

	found, err := s.detector.Detect(ctx, sc.DepartureCode, sc.TripDurationDays, rc.Records)
	if err != nil {
		s.log.Error(err, "deal detection failed")
	}
	for _, d := range found {
		s.log.Info("deal detected",
			"class", d.Classification,
			"destination", d.Record.Destination,
			"price", d.Record.Price,
			"discount_percent", d.DiscountPercent,
			"score", d.Score,
		)
	}

	best := 0
	if len(rc.Records) > 0 {
		best = report.SortByPrice(rc.Records)[0].Price
	}
	run := store.RunRecord{
		RunID:       rc.RunID,
		Origin:      sc.DepartureCode,
		Route:       RouteLabel(sc),
		Currency:    sc.Currency,
		StartedAt:   rc.StartedAt,
		FinishedAt:  rc.FinishedAt,
		APICalls:    rc.APICalls,
		CacheHits:   rc.CacheHits,
		FailedCalls: rc.FailedCalls,
		Candidates:  rc.Candidates,
		Sampled:     rc.Sampled,
		Options:     len(rc.Records),
		BestPrice:   best,
	}
	if err := s.deps.History.SaveRun(ctx, run, rc.Records); err != nil {
		s.log.Error(err, "failed to store run history")
	}
	return found
}

func (s *Service) alert(ctx context.Context, res *Result) {
	if s.deps.Alerter == nil {
		return
	}
	rc := res.Run
	route := res.Report.SearchMetadata.Route
	currency := s.cfg.SearchConfig.Currency

	var err error
	if rc.AllFailed() {
		err = s.deps.Alerter.AlertScanFailed(ctx, route, rc.FailedCalls, rc.LastError)
	} else {
		err = s.deps.Alerter.AlertScanComplete(ctx, route, res.Report.Analysis.PriceMin, currency,
			res.Report.Analysis.TotalOptions, rc.APICalls, rc.Duration())
	}
	if err != nil {
		s.log.Warn("failed to send scan notification", "error", err)
	}

	for _, d := range res.Deals {
		if err := s.deps.Alerter.AlertDeal(ctx, d, currency); err != nil {
			s.log.Warn("failed to send deal notification", "error", err)
		}
	}
}

func (s *Service) recordMetrics(res *Result) {
	m := s.deps.Metrics
	if m == nil {
		return
	}
	for _, g := range res.Report.Analysis.ByDestination {
		m.RecordBestPrice(g.Label, s.cfg.SearchConfig.Currency, float64(g.MinPrice), g.Count)
	}
	for _, d := range res.Deals {
		m.RecordDeal(d.Classification)
	}
	m.RecordScan(res.Run.Status(), res.Run.Duration().Seconds(), float64(res.Run.FinishedAt.Unix()))
}
