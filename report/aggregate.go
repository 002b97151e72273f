package report

import (
	"sort"

	"github.com/gilsentrycs/monitor-flights/dates"
	"github.com/gilsentrycs/monitor-flights/quotes"
)

// DefaultTopN is used when Aggregate is called with topN <= 0
const DefaultTopN = 5

// GroupStats summarises the records sharing one label (a month, weekday or destination)
type GroupStats struct {
	Label    string              `json:"label"`
	Count    int                 `json:"count"`
	MinPrice int                 `json:"min_price"`
	AvgPrice int                 `json:"avg_price"`
	BestDeal *quotes.QuoteRecord `json:"best_deal,omitempty"`
}

// AggregateReport is derived entirely from a list of quote records
type AggregateReport struct {
	TotalOptions  int                  `json:"total_options"`
	PriceMin      int                  `json:"price_min"`
	PriceMax      int                  `json:"price_max"`
	PriceAvg      int                  `json:"price_avg"`
	PriceMedian   int                  `json:"price_median"`
	ByMonth       []GroupStats         `json:"by_month"`
	ByWeekday     []GroupStats         `json:"by_weekday"`
	ByDestination []GroupStats         `json:"by_destination"`
	BestDeals     []quotes.QuoteRecord `json:"best_deals"`
	DirectFlights int                  `json:"direct_flights"`
	BestMonth     string               `json:"best_month"`
}

// Empty reports whether the aggregate was built from no records
func (r AggregateReport) Empty() bool {
	return r.TotalOptions == 0
}

// PriceSpread is the difference between the most and least expensive option
func (r AggregateReport) PriceSpread() int {
	return r.PriceMax - r.PriceMin
}

// MonthLabel is the label used for ByMonth and BestMonth, e.g. "April 2026"
func MonthLabel(q quotes.QuoteRecord) string {
	return q.DepartureDate.Format("January 2006")
}

// SortByPrice returns a copy of records stably sorted by price ascending
func SortByPrice(records []quotes.QuoteRecord) []quotes.QuoteRecord {
	sorted := make([]quotes.QuoteRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Price < sorted[j].Price
	})
	return sorted
}

// Aggregate computes price statistics and breakdowns. The average is floor(sum/n)
// and the median is the upper median sorted[n/2].
func Aggregate(records []quotes.QuoteRecord, topN int) AggregateReport {
	out := AggregateReport{
		ByMonth:       []GroupStats{},
		ByWeekday:     []GroupStats{},
		ByDestination: []GroupStats{},
		BestDeals:     []quotes.QuoteRecord{},
	}
	if len(records) == 0 {
		return out
	}
	if topN <= 0 {
		topN = DefaultTopN
	}

	sorted := SortByPrice(records)
	n := len(sorted)

	sum := 0
	for _, r := range sorted {
		sum += r.Price
		if r.IsDirect {
			out.DirectFlights++
		}
	}

	out.TotalOptions = n
	out.PriceMin = sorted[0].Price
	out.PriceMax = sorted[n-1].Price
	out.PriceAvg = sum / n
	out.PriceMedian = sorted[n/2].Price
	out.BestMonth = MonthLabel(sorted[0])

	if topN > n {
		topN = n
	}
	out.BestDeals = append(out.BestDeals, sorted[:topN]...)

	out.ByMonth = groupBy(sorted, MonthLabel, func(a, b quotes.QuoteRecord) bool {
		return a.MonthKey() < b.MonthKey()
	})
	out.ByWeekday = groupBy(sorted, func(q quotes.QuoteRecord) string { return q.DepartureWeekday }, func(a, b quotes.QuoteRecord) bool {
		return dates.WeekdayIndex(a.DepartureDate) < dates.WeekdayIndex(b.DepartureDate)
	})

	firstSeen := map[string]int{}
	for i, r := range records {
		if _, ok := firstSeen[r.Destination]; !ok {
			firstSeen[r.Destination] = i
		}
	}
	out.ByDestination = groupBy(sorted, func(q quotes.QuoteRecord) string { return q.Destination }, func(a, b quotes.QuoteRecord) bool {
		return firstSeen[a.Destination] < firstSeen[b.Destination]
	})

	return out
}

// groupBy walks price-sorted records so each group's first record is its best deal,
// then orders groups by comparing those first records with less.
func groupBy(sorted []quotes.QuoteRecord, label func(quotes.QuoteRecord) string, less func(a, b quotes.QuoteRecord) bool) []GroupStats {
	index := map[string]int{}
	groups := []GroupStats{}
	sums := []int{}
	for _, r := range sorted {
		key := label(r)
		gi, ok := index[key]
		if !ok {
			gi = len(groups)
			index[key] = gi
			best := r
			groups = append(groups, GroupStats{Label: key, MinPrice: r.Price, BestDeal: &best})
			sums = append(sums, 0)
		}
		groups[gi].Count++
		sums[gi] += r.Price
	}
	for i := range groups {
		groups[i].AvgPrice = sums[i] / groups[i].Count
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return less(*groups[i].BestDeal, *groups[j].BestDeal)
	})
	return groups
}
