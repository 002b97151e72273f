package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gilsentrycs/monitor-flights/quotes"
)

var (
	pink   = lipgloss.Color("205")
	cyan   = lipgloss.Color("86")
	green  = lipgloss.Color("82")
	yellow = lipgloss.Color("220")
	gray   = lipgloss.Color("241")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(pink)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(cyan).
			MarginTop(1)

	priceStyle = lipgloss.NewStyle().
			Foreground(green).
			Bold(true)

	highlightStyle = lipgloss.NewStyle().
			Foreground(yellow)

	dimStyle = lipgloss.NewStyle().
			Foreground(gray)
)

// FormatDuration renders minutes as "Hh Mm"
func FormatDuration(minutes int) string {
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// FormatStops renders "Direct" or "Via A, B"
func FormatStops(q quotes.QuoteRecord) string {
	if q.IsDirect {
		return "Direct"
	}
	if len(q.Layovers) == 0 {
		return "Connecting"
	}
	return "Via " + strings.Join(q.Layovers, ", ")
}

// WriteText prints the console report
func WriteText(w io.Writer, rep SavedReport) error {
	meta := rep.SearchMetadata
	a := rep.Analysis
	cur := meta.Configuration.Currency

	var b strings.Builder
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	line("%s", titleStyle.Render("FLIGHT PRICE REPORT: "+meta.Route))
	line("%s", dimStyle.Render(fmt.Sprintf("Run %s at %s | API calls %d | cache hits %d | failed %d | coverage %.1f%% (%d of %d dates)",
		meta.RunID, meta.SearchDate.Format("2006-01-02 15:04"), meta.APICallsUsed, meta.CacheHits, meta.FailedCalls,
		meta.CoveragePercent, meta.SampledDates, meta.CandidateDates)))

	if a.Empty() {
		line("%s", sectionStyle.Render("No flight options found."))
		_, err := io.WriteString(w, b.String())
		return err
	}

	line("%s", sectionStyle.Render(fmt.Sprintf("TOP %d CHEAPEST OPTIONS", len(a.BestDeals))))
	for i, q := range a.BestDeals {
		line("%2d. %s  %s %s -> %s %s  %s",
			i+1,
			priceStyle.Render(fmt.Sprintf("%d %s", q.Price, cur)),
			q.DepartureWeekday, q.DepartureDate.Format("Jan 02"),
			q.ReturnWeekday, q.ReturnDate.Format("Jan 02"),
			highlightStyle.Render(q.Destination))
		co2 := ""
		if q.CarbonKg > 0 {
			co2 = fmt.Sprintf(" | CO2 %.0f kg", q.CarbonKg)
		}
		line("    %s | %s | %s%s", q.Airline, FormatDuration(q.DurationMinutes), FormatStops(q), co2)
	}

	line("%s", sectionStyle.Render("PRICE ANALYSIS"))
	line("  Options:   %d (%d direct)", a.TotalOptions, a.DirectFlights)
	line("  Cheapest:  %s", priceStyle.Render(fmt.Sprintf("%d %s", a.PriceMin, cur)))
	line("  Highest:   %d %s", a.PriceMax, cur)
	line("  Average:   %d %s", a.PriceAvg, cur)
	line("  Median:    %d %s", a.PriceMedian, cur)
	line("  Best month: %s", highlightStyle.Render(a.BestMonth))

	line("%s", sectionStyle.Render("BY MONTH"))
	for _, g := range a.ByMonth {
		best := ""
		if g.BestDeal != nil {
			best = fmt.Sprintf("  best %s (%s)", g.BestDeal.DepartureDate.Format("Jan 02"), g.BestDeal.DepartureWeekday)
		}
		line("  %-16s %3d options  min %6d  avg %6d%s", g.Label, g.Count, g.MinPrice, g.AvgPrice, best)
	}

	line("%s", sectionStyle.Render("BY DEPARTURE DAY"))
	for _, g := range a.ByWeekday {
		line("  %-16s %3d options  min %6d  avg %6d", g.Label, g.Count, g.MinPrice, g.AvgPrice)
	}

	if len(a.ByDestination) > 1 {
		line("%s", sectionStyle.Render("BY DESTINATION"))
		for _, g := range a.ByDestination {
			line("  %-16s %3d options  min %6d  avg %6d", g.Label, g.Count, g.MinPrice, g.AvgPrice)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
