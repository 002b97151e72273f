package serpapi

// SearchResponse is the subset of the google_flights engine response the monitor reads.
// Every field is optional in the payload; use the accessor methods rather than
// dereferencing pointers directly.
type SearchResponse struct {
	SearchMetadata *SearchMetadata `json:"search_metadata,omitempty"`
	BestFlights    []Itinerary     `json:"best_flights,omitempty"`
	OtherFlights   []Itinerary     `json:"other_flights,omitempty"`
	PriceInsights  *PriceInsights  `json:"price_insights,omitempty"`
	Error          *string         `json:"error,omitempty"`

	// FromCache is set when the response was served by the response cache
	FromCache bool `json:"-"`
}

type SearchMetadata struct {
	ID             *string  `json:"id,omitempty"`
	Status         *string  `json:"status,omitempty"`
	TotalTimeTaken *float64 `json:"total_time_taken,omitempty"`
}

type PriceInsights struct {
	LowestPrice       *float64  `json:"lowest_price,omitempty"`
	PriceLevel        *string   `json:"price_level,omitempty"`
	TypicalPriceRange []float64 `json:"typical_price_range,omitempty"`
}

// Itinerary is one priced option, possibly made of several flight segments
type Itinerary struct {
	Flights         []Segment        `json:"flights,omitempty"`
	Layovers        []Layover        `json:"layovers,omitempty"`
	TotalDuration   *int             `json:"total_duration,omitempty"`
	CarbonEmissions *CarbonEmissions `json:"carbon_emissions,omitempty"`
	Price           *float64         `json:"price,omitempty"`
	Type            *string          `json:"type,omitempty"`
}

type Segment struct {
	DepartureAirport *AirportTime `json:"departure_airport,omitempty"`
	ArrivalAirport   *AirportTime `json:"arrival_airport,omitempty"`
	Duration         *int         `json:"duration,omitempty"`
	Airplane         *string      `json:"airplane,omitempty"`
	Airline          *string      `json:"airline,omitempty"`
	FlightNumber     *string      `json:"flight_number,omitempty"`
	TravelClass      *string      `json:"travel_class,omitempty"`
	Overnight        *bool        `json:"overnight,omitempty"`
}

type AirportTime struct {
	Name *string `json:"name,omitempty"`
	ID   *string `json:"id,omitempty"`
	Time *string `json:"time,omitempty"`
}

type Layover struct {
	Duration  *int    `json:"duration,omitempty"`
	Name      *string `json:"name,omitempty"`
	ID        *string `json:"id,omitempty"`
	Overnight *bool   `json:"overnight,omitempty"`
}

type CarbonEmissions struct {
	ThisFlight          *float64 `json:"this_flight,omitempty"`
	TypicalForThisRoute *float64 `json:"typical_for_this_route,omitempty"`
	DifferencePercent   *float64 `json:"difference_percent,omitempty"`
}

// ErrorMessage returns the logical error reported by the API, if any
func (r *SearchResponse) ErrorMessage() (string, bool) {
	if r == nil || r.Error == nil {
		return "", false
	}
	return *r.Error, true
}

// Itineraries returns best_flights, or other_flights when best_flights is empty.
func (r *SearchResponse) Itineraries() []Itinerary {
	if r == nil {
		return nil
	}
	if len(r.BestFlights) > 0 {
		return r.BestFlights
	}
	return r.OtherFlights
}

// SearchID returns the API's id for the search, or "" when absent
func (r *SearchResponse) SearchID() string {
	if r == nil || r.SearchMetadata == nil {
		return ""
	}
	return str(r.SearchMetadata.ID)
}

// PriceValue returns the itinerary price and whether it was present
func (i Itinerary) PriceValue() (int, bool) {
	if i.Price == nil {
		return 0, false
	}
	return int(*i.Price), true
}

func (i Itinerary) DurationMinutes() int {
	if i.TotalDuration == nil {
		return 0
	}
	return *i.TotalDuration
}

// CarbonKg converts this_flight grams to kilograms; 0 when unavailable.
func (i Itinerary) CarbonKg() float64 {
	if i.CarbonEmissions == nil || i.CarbonEmissions.ThisFlight == nil {
		return 0
	}
	return *i.CarbonEmissions.ThisFlight / 1000
}

func (s Segment) AirlineName() string { return str(s.Airline) }

func (l Layover) Code() string { return str(l.ID) }

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
