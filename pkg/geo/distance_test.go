package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	TLV = Coordinates{Lat: 32.0114, Lon: 34.8867}
	CDG = Coordinates{Lat: 49.0097, Lon: 2.5479}
	LHR = Coordinates{Lat: 51.4700, Lon: -0.4543}
	JFK = Coordinates{Lat: 40.6413, Lon: -73.7781}
)

func TestHaversineKm_KnownDistances(t *testing.T) {
	tests := []struct {
		name      string
		from, to  Coordinates
		expected  float64
		tolerance float64
	}{
		{"TLV to CDG", TLV, CDG, 3284, 10},
		{"LHR to JFK", LHR, JFK, 5540, 10},
		{"same airport", TLV, TLV, 0, 0.001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, HaversineKm(tt.from, tt.to), tt.tolerance)
		})
	}
}

func TestHaversineKm_Symmetry(t *testing.T) {
	assert.InDelta(t, HaversineKm(TLV, CDG), HaversineKm(CDG, TLV), 0.001)
}

func TestPricePerKm(t *testing.T) {
	assert.InDelta(t, 0.05, PricePerKm(330, 3300), 0.0001)
	assert.Equal(t, 0.0, PricePerKm(330, 0))
	assert.Equal(t, 0.0, PricePerKm(330, -5))
}

func TestCoordinates_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		coords   Coordinates
		expected bool
	}{
		{"valid TLV", TLV, true},
		{"valid origin", Coordinates{0, 0}, true},
		{"latitude too high", Coordinates{91, 0}, false},
		{"longitude too low", Coordinates{0, -181}, false},
		{"edge max lon", Coordinates{0, 180}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.coords.IsValid())
		})
	}
}

func TestCoordinates_IsZero(t *testing.T) {
	assert.True(t, Coordinates{}.IsZero())
	assert.False(t, TLV.IsZero())
}
