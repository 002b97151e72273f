// Package airports holds a small table of airports the monitor is commonly pointed at.
// Codes outside the table are still searchable; they only miss city names and distances.
package airports

import (
	"strings"
	"time"

	"github.com/gilsentrycs/monitor-flights/pkg/geo"
)

// Airport describes one airport
type Airport struct {
	Code        string
	City        string
	TimeZone    string
	Coordinates geo.Coordinates
}

// Location loads the airport's time zone
func (a Airport) Location() (*time.Location, error) {
	return time.LoadLocation(a.TimeZone)
}

var table = map[string]Airport{
	"TLV": {Code: "TLV", City: "Tel Aviv", TimeZone: "Asia/Jerusalem", Coordinates: geo.Coordinates{Lat: 32.011398, Lon: 34.886700}},
	"ETM": {Code: "ETM", City: "Eilat", TimeZone: "Asia/Jerusalem", Coordinates: geo.Coordinates{Lat: 29.723694, Lon: 35.011417}},
	"CDG": {Code: "CDG", City: "Paris", TimeZone: "Europe/Paris", Coordinates: geo.Coordinates{Lat: 49.012798, Lon: 2.550000}},
	"ORY": {Code: "ORY", City: "Paris", TimeZone: "Europe/Paris", Coordinates: geo.Coordinates{Lat: 48.725300, Lon: 2.359440}},
	"BVA": {Code: "BVA", City: "Beauvais/Tille", TimeZone: "Europe/Paris", Coordinates: geo.Coordinates{Lat: 49.454399, Lon: 2.112780}},
	"LHR": {Code: "LHR", City: "London", TimeZone: "Europe/London", Coordinates: geo.Coordinates{Lat: 51.470600, Lon: -0.461941}},
	"LGW": {Code: "LGW", City: "London", TimeZone: "Europe/London", Coordinates: geo.Coordinates{Lat: 51.148102, Lon: -0.190278}},
	"STN": {Code: "STN", City: "London", TimeZone: "Europe/London", Coordinates: geo.Coordinates{Lat: 51.884998, Lon: 0.235000}},
	"LTN": {Code: "LTN", City: "London", TimeZone: "Europe/London", Coordinates: geo.Coordinates{Lat: 51.874699, Lon: -0.368333}},
	"FCO": {Code: "FCO", City: "Rome", TimeZone: "Europe/Rome", Coordinates: geo.Coordinates{Lat: 41.804501, Lon: 12.250800}},
	"CIA": {Code: "CIA", City: "Roma", TimeZone: "Europe/Rome", Coordinates: geo.Coordinates{Lat: 41.799400, Lon: 12.594900}},
	"MAD": {Code: "MAD", City: "Madrid", TimeZone: "Europe/Madrid", Coordinates: geo.Coordinates{Lat: 40.493600, Lon: -3.566760}},
	"BCN": {Code: "BCN", City: "Barcelona", TimeZone: "Europe/Madrid", Coordinates: geo.Coordinates{Lat: 41.297100, Lon: 2.078460}},
	"LIS": {Code: "LIS", City: "Lisbon", TimeZone: "Europe/Lisbon", Coordinates: geo.Coordinates{Lat: 38.781300, Lon: -9.135920}},
	"OPO": {Code: "OPO", City: "Porto", TimeZone: "Europe/Lisbon", Coordinates: geo.Coordinates{Lat: 41.248100, Lon: -8.681390}},
	"ATH": {Code: "ATH", City: "Athens", TimeZone: "Europe/Athens", Coordinates: geo.Coordinates{Lat: 37.936401, Lon: 23.944500}},
	"SKG": {Code: "SKG", City: "Thessaloniki", TimeZone: "Europe/Athens", Coordinates: geo.Coordinates{Lat: 40.519699, Lon: 22.970900}},
	"IST": {Code: "IST", City: "Arnavutkoy", TimeZone: "Europe/Istanbul", Coordinates: geo.Coordinates{Lat: 41.262222, Lon: 28.727778}},
	"SAW": {Code: "SAW", City: "Istanbul", TimeZone: "Europe/Istanbul", Coordinates: geo.Coordinates{Lat: 40.898602, Lon: 29.309200}},
	"AMS": {Code: "AMS", City: "Amsterdam", TimeZone: "Europe/Amsterdam", Coordinates: geo.Coordinates{Lat: 52.308601, Lon: 4.763890}},
	"FRA": {Code: "FRA", City: "Frankfurt-am-Main", TimeZone: "Europe/Berlin", Coordinates: geo.Coordinates{Lat: 50.026402, Lon: 8.543130}},
	"MUC": {Code: "MUC", City: "Munich", TimeZone: "Europe/Berlin", Coordinates: geo.Coordinates{Lat: 48.353802, Lon: 11.786100}},
	"BER": {Code: "BER", City: "Berlin", TimeZone: "Europe/Berlin", Coordinates: geo.Coordinates{Lat: 52.366667, Lon: 13.503333}},
	"ZRH": {Code: "ZRH", City: "Zurich", TimeZone: "Europe/Zurich", Coordinates: geo.Coordinates{Lat: 47.464699, Lon: 8.549170}},
	"GVA": {Code: "GVA", City: "Geneva", TimeZone: "Europe/Paris", Coordinates: geo.Coordinates{Lat: 46.238098, Lon: 6.108950}},
	"VIE": {Code: "VIE", City: "Vienna", TimeZone: "Europe/Vienna", Coordinates: geo.Coordinates{Lat: 48.110298, Lon: 16.569700}},
	"PRG": {Code: "PRG", City: "Prague", TimeZone: "Europe/Prague", Coordinates: geo.Coordinates{Lat: 50.100800, Lon: 14.260000}},
	"BUD": {Code: "BUD", City: "Budapest", TimeZone: "Europe/Budapest", Coordinates: geo.Coordinates{Lat: 47.436901, Lon: 19.255600}},
	"WAW": {Code: "WAW", City: "Warsaw", TimeZone: "Europe/Warsaw", Coordinates: geo.Coordinates{Lat: 52.165699, Lon: 20.967100}},
	"KRK": {Code: "KRK", City: "Krakow", TimeZone: "Europe/Warsaw", Coordinates: geo.Coordinates{Lat: 50.077702, Lon: 19.784800}},
	"CPH": {Code: "CPH", City: "Copenhagen", TimeZone: "Europe/Copenhagen", Coordinates: geo.Coordinates{Lat: 55.617901, Lon: 12.656000}},
	"ARN": {Code: "ARN", City: "Stockholm", TimeZone: "Europe/Stockholm", Coordinates: geo.Coordinates{Lat: 59.651901, Lon: 17.918600}},
	"OSL": {Code: "OSL", City: "Oslo", TimeZone: "Europe/Oslo", Coordinates: geo.Coordinates{Lat: 60.193901, Lon: 11.100400}},
	"HEL": {Code: "HEL", City: "Helsinki", TimeZone: "Europe/Helsinki", Coordinates: geo.Coordinates{Lat: 60.317200, Lon: 24.963301}},
	"DUB": {Code: "DUB", City: "Dublin", TimeZone: "Europe/Dublin", Coordinates: geo.Coordinates{Lat: 53.421299, Lon: -6.270070}},
	"BRU": {Code: "BRU", City: "Brussels", TimeZone: "Europe/Brussels", Coordinates: geo.Coordinates{Lat: 50.901402, Lon: 4.484440}},
	"MXP": {Code: "MXP", City: "Milan", TimeZone: "Europe/Rome", Coordinates: geo.Coordinates{Lat: 45.630600, Lon: 8.728110}},
	"LIN": {Code: "LIN", City: "Milan", TimeZone: "Europe/Rome", Coordinates: geo.Coordinates{Lat: 45.445099, Lon: 9.276740}},
	"BGY": {Code: "BGY", City: "Bergamo", TimeZone: "Europe/Rome", Coordinates: geo.Coordinates{Lat: 45.673901, Lon: 9.704170}},
	"VCE": {Code: "VCE", City: "Venezia", TimeZone: "Europe/Rome", Coordinates: geo.Coordinates{Lat: 45.505299, Lon: 12.351900}},
	"NAP": {Code: "NAP", City: "Napoli", TimeZone: "Europe/Rome", Coordinates: geo.Coordinates{Lat: 40.886002, Lon: 14.290800}},
	"NCE": {Code: "NCE", City: "Nice", TimeZone: "Europe/Paris", Coordinates: geo.Coordinates{Lat: 43.658401, Lon: 7.215870}},
	"MRS": {Code: "MRS", City: "Marseille", TimeZone: "Europe/Paris", Coordinates: geo.Coordinates{Lat: 43.439272, Lon: 5.221424}},
	"LYS": {Code: "LYS", City: "Lyon", TimeZone: "Europe/Paris", Coordinates: geo.Coordinates{Lat: 45.726398, Lon: 5.090830}},
	"TBS": {Code: "TBS", City: "Tbilisi", TimeZone: "Asia/Tbilisi", Coordinates: geo.Coordinates{Lat: 41.669201, Lon: 44.954700}},
	"LCA": {Code: "LCA", City: "Larnarca", TimeZone: "Asia/Nicosia", Coordinates: geo.Coordinates{Lat: 34.875099, Lon: 33.624901}},
	"PFO": {Code: "PFO", City: "Paphos", TimeZone: "Asia/Nicosia", Coordinates: geo.Coordinates{Lat: 34.717999, Lon: 32.485699}},
	"LED": {Code: "LED", City: "St. Petersburg", TimeZone: "Europe/Moscow", Coordinates: geo.Coordinates{Lat: 59.800301, Lon: 30.262501}},
	"SOF": {Code: "SOF", City: "Sofia", TimeZone: "Europe/Sofia", Coordinates: geo.Coordinates{Lat: 42.696693, Lon: 23.411436}},
	"OTP": {Code: "OTP", City: "Bucharest", TimeZone: "Europe/Bucharest", Coordinates: geo.Coordinates{Lat: 44.572201, Lon: 26.102200}},
	"BEG": {Code: "BEG", City: "Belgrad", TimeZone: "Europe/Belgrade", Coordinates: geo.Coordinates{Lat: 44.818401, Lon: 20.309099}},
	"JFK": {Code: "JFK", City: "New York", TimeZone: "America/New_York", Coordinates: geo.Coordinates{Lat: 40.639801, Lon: -73.778900}},
	"EWR": {Code: "EWR", City: "Newark", TimeZone: "America/New_York", Coordinates: geo.Coordinates{Lat: 40.692501, Lon: -74.168701}},
	"LGA": {Code: "LGA", City: "New York", TimeZone: "America/New_York", Coordinates: geo.Coordinates{Lat: 40.777199, Lon: -73.872597}},
	"LAX": {Code: "LAX", City: "Los Angeles", TimeZone: "America/Los_Angeles", Coordinates: geo.Coordinates{Lat: 33.942501, Lon: -118.407997}},
	"SFO": {Code: "SFO", City: "San Francisco", TimeZone: "America/Los_Angeles", Coordinates: geo.Coordinates{Lat: 37.618999, Lon: -122.375000}},
	"ORD": {Code: "ORD", City: "Chicago", TimeZone: "America/Chicago", Coordinates: geo.Coordinates{Lat: 41.978600, Lon: -87.904800}},
	"BOS": {Code: "BOS", City: "Boston", TimeZone: "America/New_York", Coordinates: geo.Coordinates{Lat: 42.364300, Lon: -71.005203}},
	"MIA": {Code: "MIA", City: "Miami", TimeZone: "America/New_York", Coordinates: geo.Coordinates{Lat: 25.793200, Lon: -80.290604}},
	"YYZ": {Code: "YYZ", City: "Toronto", TimeZone: "America/Toronto", Coordinates: geo.Coordinates{Lat: 43.677200, Lon: -79.630600}},
	"DXB": {Code: "DXB", City: "Dubai", TimeZone: "Asia/Dubai", Coordinates: geo.Coordinates{Lat: 25.252800, Lon: 55.364399}},
	"AUH": {Code: "AUH", City: "Abu Dhabi", TimeZone: "Asia/Dubai", Coordinates: geo.Coordinates{Lat: 24.433001, Lon: 54.651100}},
	"DOH": {Code: "DOH", City: "Doha", TimeZone: "Asia/Qatar", Coordinates: geo.Coordinates{Lat: 25.260595, Lon: 51.613766}},
	"HND": {Code: "HND", City: "Tokyo", TimeZone: "Asia/Tokyo", Coordinates: geo.Coordinates{Lat: 35.552299, Lon: 139.779999}},
	"NRT": {Code: "NRT", City: "Tokyo", TimeZone: "Asia/Tokyo", Coordinates: geo.Coordinates{Lat: 35.764702, Lon: 140.386002}},
	"SIN": {Code: "SIN", City: "Singapore", TimeZone: "Asia/Singapore", Coordinates: geo.Coordinates{Lat: 1.350190, Lon: 103.994003}},
	"HKG": {Code: "HKG", City: "Hong Kong", TimeZone: "Asia/Hong_Kong", Coordinates: geo.Coordinates{Lat: 22.308901, Lon: 113.915001}},
	"BKK": {Code: "BKK", City: "Bangkok", TimeZone: "Asia/Bangkok", Coordinates: geo.Coordinates{Lat: 13.681100, Lon: 100.747002}},
	"SYD": {Code: "SYD", City: "Sydney", TimeZone: "Australia/Sydney", Coordinates: geo.Coordinates{Lat: -33.946098, Lon: 151.177002}},
}

// Lookup finds an airport by IATA code, case-insensitively
func Lookup(code string) (Airport, bool) {
	a, ok := table[strings.ToUpper(strings.TrimSpace(code))]
	return a, ok
}

// Known reports whether the code is in the table
func Known(code string) bool {
	_, ok := Lookup(code)
	return ok
}

// ValidCode reports whether code looks like an IATA airport code (three ASCII letters).
func ValidCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}

func (a Airport) located() bool {
	return a.Coordinates.IsValid() && !a.Coordinates.IsZero()
}

// DistanceKm returns the shortest great-circle distance from origin to any of the
// destination codes. ok is false when none of the pairs are in the table.
func DistanceKm(origin string, destinations []string) (km float64, ok bool) {
	from, found := Lookup(origin)
	if !found || !from.located() {
		return 0, false
	}
	for _, code := range destinations {
		to, found := Lookup(code)
		if !found || !to.located() {
			continue
		}
		d := geo.HaversineKm(from.Coordinates, to.Coordinates)
		if !ok || d < km {
			km, ok = d, true
		}
	}
	return km, ok
}
