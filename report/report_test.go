package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-test/deep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilsentrycs/monitor-flights/dates"
	"github.com/gilsentrycs/monitor-flights/quotes"
)

func record(dest string, dep time.Time, price int, direct bool) quotes.QuoteRecord {
	ret := dep.AddDate(0, 0, 4)
	r := quotes.QuoteRecord{
		Destination:      dest,
		DepartureDate:    dep,
		ReturnDate:       ret,
		Price:            price,
		DurationMinutes:  290,
		Airline:          "El Al",
		IsDirect:         direct,
		Layovers:         []string{},
		DepartureWeekday: dates.WeekdayName(dates.WeekdayIndex(dep)),
		ReturnWeekday:    dates.WeekdayName(dates.WeekdayIndex(ret)),
		DepartureMonth:   dep.Month().String(),
	}
	if !direct {
		r.Layovers = []string{"ATH"}
	}
	return r
}

func d(m time.Month, day int) time.Time {
	return time.Date(2026, m, day, 0, 0, 0, 0, time.UTC)
}

func TestAggregate_FloorAverageAndUpperMedian(t *testing.T) {
	records := []quotes.QuoteRecord{
		record("Paris", d(4, 1), 300, true),
		record("Paris", d(4, 2), 100, false),
		record("Paris", d(5, 6), 400, false),
		record("Paris", d(5, 7), 200, true),
	}

	a := Aggregate(records, 5)
	assert.Equal(t, 4, a.TotalOptions)
	assert.Equal(t, 100, a.PriceMin)
	assert.Equal(t, 400, a.PriceMax)
	assert.Equal(t, 250, a.PriceAvg)
	assert.Equal(t, 300, a.PriceMedian)
	assert.Equal(t, 2, a.DirectFlights)
	assert.Equal(t, 300, a.PriceSpread())
}

func TestAggregate_FloorNotRounded(t *testing.T) {
	records := []quotes.QuoteRecord{
		record("Paris", d(4, 1), 100, true),
		record("Paris", d(4, 8), 100, true),
		record("Paris", d(4, 15), 101, true),
	}
	a := Aggregate(records, 5)
	// 301/3 = 100.33
	assert.Equal(t, 100, a.PriceAvg)

	a = Aggregate([]quotes.QuoteRecord{record("Paris", d(4, 1), 100, true), record("Paris", d(4, 8), 103, true)}, 5)
	assert.Equal(t, 101, a.PriceAvg)
	assert.Equal(t, 103, a.PriceMedian)
}

func TestAggregate_Empty(t *testing.T) {
	a := Aggregate(nil, 5)
	assert.True(t, a.Empty())
	assert.Equal(t, 0, a.PriceMin)
	assert.Equal(t, 0, a.PriceMedian)
	assert.Equal(t, "", a.BestMonth)
	assert.NotNil(t, a.ByMonth)
	assert.NotNil(t, a.BestDeals)
	assert.Empty(t, a.BestDeals)
}

func TestAggregate_TopNStableOrder(t *testing.T) {
	records := []quotes.QuoteRecord{
		record("Paris", d(4, 1), 250, true),
		record("Paris", d(4, 2), 200, true),
		record("Paris", d(4, 8), 200, false),
		record("Paris", d(4, 9), 150, true),
	}

	a := Aggregate(records, 3)
	require.Len(t, a.BestDeals, 3)
	assert.Equal(t, d(4, 9), a.BestDeals[0].DepartureDate)
	// ties keep input order
	assert.Equal(t, d(4, 2), a.BestDeals[1].DepartureDate)
	assert.Equal(t, d(4, 8), a.BestDeals[2].DepartureDate)

	assert.Len(t, Aggregate(records, 10).BestDeals, 4)
	assert.Len(t, Aggregate(records, 0).BestDeals, 4)
}

func TestAggregate_Breakdowns(t *testing.T) {
	records := []quotes.QuoteRecord{
		record("Paris", d(6, 3), 500, true),  // Wednesday
		record("Paris", d(4, 2), 320, false), // Thursday
		record("Paris", d(4, 1), 310, true),  // Wednesday
		record("Paris", d(5, 7), 290, true),  // Thursday
		record("Paris", d(5, 6), 350, true),  // Wednesday
	}

	a := Aggregate(records, 5)

	var months []string
	for _, g := range a.ByMonth {
		months = append(months, g.Label)
	}
	if diff := deep.Equal(months, []string{"April 2026", "May 2026", "June 2026"}); diff != nil {
		t.Error(diff)
	}

	april := a.ByMonth[0]
	assert.Equal(t, 2, april.Count)
	assert.Equal(t, 310, april.MinPrice)
	assert.Equal(t, 315, april.AvgPrice)
	require.NotNil(t, april.BestDeal)
	assert.Equal(t, d(4, 1), april.BestDeal.DepartureDate)

	assert.Equal(t, "May 2026", a.BestMonth)

	require.Len(t, a.ByWeekday, 2)
	assert.Equal(t, "Wednesday", a.ByWeekday[0].Label)
	assert.Equal(t, 3, a.ByWeekday[0].Count)
	assert.Equal(t, 386, a.ByWeekday[0].AvgPrice)
	assert.Equal(t, "Thursday", a.ByWeekday[1].Label)
	assert.Equal(t, 290, a.ByWeekday[1].MinPrice)
}

func TestAggregate_ByDestinationFirstSeenOrder(t *testing.T) {
	records := []quotes.QuoteRecord{
		record("Rome", d(4, 1), 400, true),
		record("Paris", d(4, 1), 300, true),
		record("Rome", d(4, 8), 380, true),
	}

	a := Aggregate(records, 5)
	require.Len(t, a.ByDestination, 2)
	assert.Equal(t, "Rome", a.ByDestination[0].Label)
	assert.Equal(t, 2, a.ByDestination[0].Count)
	assert.Equal(t, 380, a.ByDestination[0].MinPrice)
	assert.Equal(t, "Paris", a.ByDestination[1].Label)
}

func savedReport(records []quotes.QuoteRecord) SavedReport {
	return SavedReport{
		SearchMetadata: SearchMetadata{
			RunID:      "run-1",
			SearchDate: time.Date(2026, 3, 14, 9, 30, 5, 0, time.UTC),
			Route:      "Tel Aviv (TLV) → Paris (CDG,ORY)",
			Configuration: Configuration{
				DepartureCode: "TLV",
				Destinations:  []string{"Paris (CDG,ORY)"},
				Currency:      "USD",
			},
			APICallsUsed:    13,
			CandidateDates:  26,
			SampledDates:    13,
			CoveragePercent: 50,
		},
		Analysis:      Aggregate(records, 5),
		FlightOptions: records,
	}
}

func TestSlugAndFileName(t *testing.T) {
	assert.Equal(t, "tel_aviv_tlv_paris_cdg_ory", Slug("Tel Aviv (TLV) → Paris (CDG,ORY)"))
	assert.Equal(t, "zurich_munchen", Slug("Zürich / München"))
	assert.Equal(t, "flight_monitor_tlv_cdg_20260314_093005.json",
		FileName("flight_monitor", "TLV-CDG", time.Date(2026, 3, 14, 9, 30, 5, 0, time.UTC)))
}

func TestSaveLoadLatest(t *testing.T) {
	dir := t.TempDir()
	rep := savedReport([]quotes.QuoteRecord{record("Paris", d(4, 1), 300, true)})

	path, err := Save(dir, "flight_monitor", rep)
	require.NoError(t, err)
	assert.Equal(t, "flight_monitor_tel_aviv_tlv_paris_cdg_ory_20260314_093005.json", filepath.Base(path))

	later := rep
	later.SearchMetadata.SearchDate = rep.SearchMetadata.SearchDate.Add(24 * time.Hour)
	later.SearchMetadata.RunID = "run-2"
	_, err = Save(dir, "flight_monitor", later)
	require.NoError(t, err)

	latest, err := Latest(dir, "flight_monitor")
	require.NoError(t, err)

	loaded, err := Load(latest)
	require.NoError(t, err)
	assert.Equal(t, "run-2", loaded.SearchMetadata.RunID)
	assert.Equal(t, 300, loaded.Analysis.PriceMin)
	require.Len(t, loaded.FlightOptions, 1)
	assert.True(t, loaded.FlightOptions[0].DepartureDate.Equal(d(4, 1)))

	_, err = Latest(t.TempDir(), "flight_monitor")
	assert.ErrorIs(t, err, ErrNoReports)
}

func TestSave_EmptyRecordsWritesArrays(t *testing.T) {
	dir := t.TempDir()
	rep := savedReport(nil)
	rep.FlightOptions = nil

	path, err := Save(dir, "", rep)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"flight_options": []`)
	assert.Contains(t, string(raw), `"best_deals": []`)
}

func TestWriteText(t *testing.T) {
	rep := savedReport([]quotes.QuoteRecord{
		record("Paris", d(4, 1), 310, true),
		record("Paris", d(4, 2), 289, false),
	})

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, rep))
	out := buf.String()

	assert.Contains(t, out, "289 USD")
	assert.Contains(t, out, "Via ATH")
	assert.Contains(t, out, "Direct")
	assert.Contains(t, out, "4h 50m")
	assert.Contains(t, out, "April 2026")
	assert.Contains(t, out, "Thursday")
	assert.NotContains(t, out, "BY DESTINATION")

	buf.Reset()
	require.NoError(t, WriteText(&buf, savedReport(nil)))
	assert.Contains(t, buf.String(), "No flight options found.")
}

func TestRenderHTMLAndSubject(t *testing.T) {
	rep := savedReport([]quotes.QuoteRecord{
		record("Paris", d(4, 1), 310, true),
		record("Paris", d(5, 7), 289, false),
	})

	html, err := RenderHTML(rep)
	require.NoError(t, err)
	assert.Contains(t, html, "Executive Summary")
	assert.Contains(t, html, "289 USD")
	assert.Contains(t, html, "Monthly Breakdown")
	assert.Contains(t, html, "May 2026")
	assert.Contains(t, html, "21 spread")
	assert.Contains(t, html, "1 out of 2 options")

	assert.Equal(t, "Flight Monitor Report - Best: 289 USD - Mar 14", Subject(rep))

	empty, err := RenderHTML(savedReport(nil))
	require.NoError(t, err)
	assert.Contains(t, empty, "No flight options found")
	assert.Contains(t, Subject(savedReport(nil)), "No options found")
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "4h 50m", FormatDuration(290))
	assert.Equal(t, "0h 0m", FormatDuration(0))
	assert.Equal(t, "Via IST, ATH", FormatStops(quotes.QuoteRecord{Layovers: []string{"IST", "ATH"}}))
	assert.Equal(t, "Connecting", FormatStops(quotes.QuoteRecord{}))
}
