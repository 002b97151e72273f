package quotes

import (
	"math"
	"time"

	"github.com/gilsentrycs/monitor-flights/dates"
	"github.com/gilsentrycs/monitor-flights/serpapi"
)

const unknown = "Unknown"

// QuoteRecord is the cheapest itinerary found for one date pair
type QuoteRecord struct {
	Destination      string    `json:"destination"`
	DepartureDate    time.Time `json:"departure_date"`
	ReturnDate       time.Time `json:"return_date"`
	Price            int       `json:"price"`
	DurationMinutes  int       `json:"duration_minutes"`
	Airline          string    `json:"airline"`
	IsDirect         bool      `json:"is_direct"`
	Layovers         []string  `json:"layovers"`
	CarbonKg         float64   `json:"carbon_kg"`
	DepartureWeekday string    `json:"departure_weekday"`
	ReturnWeekday    string    `json:"return_weekday"`
	DepartureMonth   string    `json:"departure_month"`
}

// MonthKey sorts chronologically, e.g. "2026-04"
func (q QuoteRecord) MonthKey() string {
	return q.DepartureDate.Format("2006-01")
}

// Extract picks the minimum-price itinerary from a response. It falls back to
// other_flights when best_flights is empty and reports false when neither has entries.
// Itineraries without a price rank last.
func Extract(resp *serpapi.SearchResponse, destination string, departure, ret time.Time) (QuoteRecord, bool) {
	itineraries := resp.Itineraries()
	if len(itineraries) == 0 {
		return QuoteRecord{}, false
	}

	best := 0
	bestPrice := math.Inf(1)
	for i, it := range itineraries {
		price, ok := it.PriceValue()
		if !ok {
			continue
		}
		if float64(price) < bestPrice {
			best, bestPrice = i, float64(price)
		}
	}
	chosen := itineraries[best]
	price, _ := chosen.PriceValue()

	airline := unknown
	if len(chosen.Flights) > 0 {
		if name := chosen.Flights[0].AirlineName(); name != "" {
			airline = name
		}
	}

	layovers := make([]string, 0, len(chosen.Layovers))
	for _, l := range chosen.Layovers {
		code := l.Code()
		if code == "" {
			code = unknown
		}
		layovers = append(layovers, code)
	}

	return QuoteRecord{
		Destination:      destination,
		DepartureDate:    departure,
		ReturnDate:       ret,
		Price:            price,
		DurationMinutes:  chosen.DurationMinutes(),
		Airline:          airline,
		IsDirect:         len(chosen.Flights) == 1,
		Layovers:         layovers,
		CarbonKg:         chosen.CarbonKg(),
		DepartureWeekday: dates.WeekdayName(dates.WeekdayIndex(departure)),
		ReturnWeekday:    dates.WeekdayName(dates.WeekdayIndex(ret)),
		DepartureMonth:   departure.Month().String(),
	}, true
}
