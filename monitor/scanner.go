// Package monitor runs weekend flight scans: date planning, the sequential search loop,
// the post-run pipeline and the scheduled monitor mode.
package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gilsentrycs/monitor-flights/config"
	"github.com/gilsentrycs/monitor-flights/dates"
	"github.com/gilsentrycs/monitor-flights/pkg/logger"
	"github.com/gilsentrycs/monitor-flights/pkg/metrics"
	"github.com/gilsentrycs/monitor-flights/quotes"
	"github.com/gilsentrycs/monitor-flights/serpapi"
)

// Plan is the set of searches a scan will make
type Plan struct {
	Strategy     string
	Candidates   []dates.DatePair
	Sampled      []dates.DatePair
	Destinations []config.Destination
}

// Calls is the number of searches the plan costs
func (p Plan) Calls() int {
	return len(p.Sampled) * len(p.Destinations)
}

// Coverage is the sampled share of candidate pairs, in percent
func (p Plan) Coverage() float64 {
	return dates.Coverage(len(p.Sampled), len(p.Candidates))
}

// Scanner runs the search loop. Searches are strictly sequential.
type Scanner struct {
	search   config.SearchConfig
	deep     bool
	searcher serpapi.Searcher
	metrics  *metrics.Recorder
	log      *logger.Logger
	now      func() time.Time
}

// NewScanner creates a scanner. rec may be nil.
func NewScanner(cfg *config.Config, searcher serpapi.Searcher, rec *metrics.Recorder, log *logger.Logger) *Scanner {
	if log == nil {
		log = logger.Default()
	}
	return &Scanner{
		search:   cfg.SearchConfig,
		deep:     cfg.SerpAPIConfig.DeepSearch,
		searcher: searcher,
		metrics:  rec,
		log:      log,
		now:      time.Now,
	}
}

// Plan enumerates the candidate date pairs and samples them. MaxDates overrides
// the strategy's target when set.
func (s *Scanner) Plan() Plan {
	sc := s.search
	all := dates.Enumerate(sc.Year, sc.StartMonth, sc.EndMonth, sc.DepartureDays, sc.TripDurationDays)

	target := dates.TargetFor(sc.SamplingStrategy, len(all))
	if sc.MaxDates > 0 {
		target = min(sc.MaxDates, len(all))
	}

	return Plan{
		Strategy:     sc.SamplingStrategy,
		Candidates:   all,
		Sampled:      dates.Sample(all, target),
		Destinations: sc.Destinations,
	}
}

// Run searches every sampled pair for every destination. A failed search is logged
// and counted, never fatal. Cancelling ctx stops the loop between searches and
// returns the partial run with the context error.
func (s *Scanner) Run(ctx context.Context, plan Plan) (*RunContext, error) {
	rc := NewRunContext(s.now())
	rc.Candidates = len(plan.Candidates)
	rc.Sampled = len(plan.Sampled)

	log := s.log.WithContext(logger.ContextWithRunID(ctx, rc.RunID))
	log.Info("starting scan",
		"origin", s.search.DepartureCode,
		"destinations", len(plan.Destinations),
		"date_pairs", len(plan.Sampled),
		"planned_calls", plan.Calls(),
	)

	for _, dest := range plan.Destinations {
		for i, pair := range plan.Sampled {
			if err := ctx.Err(); err != nil {
				rc.finish(s.now())
				log.Warn("scan interrupted", "completed", rc.Attempts(), "planned", plan.Calls())
				return rc, err
			}
			s.searchPair(ctx, rc, dest, pair, log.WithField("progress", fmt.Sprintf("%d/%d", i+1, len(plan.Sampled))))
		}
	}

	rc.finish(s.now())
	log.Info("scan finished",
		"options", len(rc.Records),
		"api_calls", rc.APICalls,
		"cache_hits", rc.CacheHits,
		"failed", rc.FailedCalls,
		"duration", rc.Duration().Round(time.Millisecond).String(),
	)
	return rc, nil
}

func (s *Scanner) searchPair(ctx context.Context, rc *RunContext, dest config.Destination, pair dates.DatePair, log *logger.Logger) {
	req := serpapi.SearchRequest{
		DepartureID:  s.search.DepartureCode,
		ArrivalID:    dest.CodesParam(),
		OutboundDate: pair.DepartureString(),
		ReturnDate:   pair.ReturnString(),
		Currency:     s.search.Currency,
		Language:     s.search.Language,
		Adults:       s.search.Adults,
		DeepSearch:   s.deep,
	}

	start := time.Now()
	searchCtx, attempts := serpapi.CountAttempts(ctx)
	resp, err := s.searcher.Search(searchCtx, req)
	took := time.Since(start).Seconds()
	if err != nil {
		rc.APICalls += billedCalls(attempts.Load())
		rc.FailedCalls++
		rc.LastError = err
		log.Error(err, "search failed", "destination", dest.City, "dates", pair.String())
		s.recordSearch(dest.City, metrics.OutcomeFailed, took)
		return
	}

	outcome := metrics.OutcomeOK
	if resp.FromCache {
		rc.CacheHits++
		outcome = metrics.OutcomeCacheHit
	} else {
		rc.APICalls += billedCalls(attempts.Load())
	}

	rec, ok := quotes.Extract(resp, dest.City, pair.Departure, pair.Return)
	if !ok {
		if outcome == metrics.OutcomeOK {
			outcome = metrics.OutcomeEmpty
		}
		log.Info("no flights found", "destination", dest.City, "dates", pair.String())
		s.recordSearch(dest.City, outcome, took)
		return
	}

	rc.Records = append(rc.Records, rec)
	s.recordSearch(dest.City, outcome, took)
	log.Info("cheapest option",
		"destination", dest.City,
		"dates", pair.String(),
		"price", rec.Price,
		"airline", rec.Airline,
		"direct", rec.IsDirect,
		"cached", resp.FromCache,
	)
}

// billedCalls is the number of requests one search sent. Searchers that do not
// go through the HTTP client report nothing and count as a single call.
func billedCalls(attempts int64) int {
	if attempts <= 0 {
		return 1
	}
	return int(attempts)
}

func (s *Scanner) recordSearch(destination, outcome string, seconds float64) {
	if s.metrics != nil {
		s.metrics.RecordSearch(destination, outcome, seconds)
	}
}

// RouteLabel describes the monitored route, e.g. "Tel Aviv (TLV) → Paris (CDG,ORY)".
func RouteLabel(sc config.SearchConfig) string {
	origin := sc.DepartureCode
	if sc.DepartureCity != "" {
		origin = fmt.Sprintf("%s (%s)", sc.DepartureCity, sc.DepartureCode)
	}
	dests := make([]string, 0, len(sc.Destinations))
	for _, d := range sc.Destinations {
		dests = append(dests, destinationLabel(d))
	}
	return origin + " → " + strings.Join(dests, ", ")
}

func destinationLabel(d config.Destination) string {
	return fmt.Sprintf("%s (%s)", d.City, d.CodesParam())
}
