package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad tests the Load function which reads from environment variables.
func TestLoad(t *testing.T) {
	// Clear existing env vars that might interfere
	os.Clearenv()

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "development", cfg.Environment)
		assert.Equal(t, "TLV", cfg.SearchConfig.DepartureCode)
		require.Len(t, cfg.SearchConfig.Destinations, 1)
		assert.Equal(t, "Paris", cfg.SearchConfig.Destinations[0].City)
		assert.Equal(t, []string{"CDG", "ORY"}, cfg.SearchConfig.Destinations[0].Codes)
		assert.Equal(t, time.Now().Year(), cfg.SearchConfig.Year)
		assert.Equal(t, 4, cfg.SearchConfig.StartMonth)
		assert.Equal(t, 6, cfg.SearchConfig.EndMonth)
		assert.Equal(t, []int{2, 3}, cfg.SearchConfig.DepartureDays)
		assert.Equal(t, 4, cfg.SearchConfig.TripDurationDays)
		assert.Equal(t, "USD", cfg.SearchConfig.Currency)
		assert.Equal(t, "weekly", cfg.SearchConfig.SamplingStrategy)
		assert.Equal(t, "https://serpapi.com/search", cfg.SerpAPIConfig.BaseURL)
		assert.Equal(t, 30*time.Second, cfg.SerpAPIConfig.Timeout)
		assert.Equal(t, 0, cfg.SerpAPIConfig.MaxRetries)
		assert.Equal(t, "", cfg.SerpAPIConfig.APIKey)
		assert.Equal(t, 465, cfg.EmailConfig.Port)
		assert.False(t, cfg.EmailConfig.Enabled)
		assert.Equal(t, "0 9 */4 * *", cfg.MonitorConfig.Cron)
		assert.Equal(t, "8080", cfg.MonitorConfig.Port)
		assert.Equal(t, 0.20, cfg.DealConfig.GoodDealThreshold)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("environment variable override", func(t *testing.T) {
		t.Setenv("SERPAPI_KEY", "secret")
		t.Setenv("DEPARTURE_CODE", "jfk")
		t.Setenv("ARRIVAL_CITY", "London")
		t.Setenv("ARRIVAL_CODES", "lhr, lgw")
		t.Setenv("ADDITIONAL_DESTINATIONS", "Rome:FCO;Madrid:MAD")
		t.Setenv("TRAVEL_YEAR", "2027")
		t.Setenv("DEPARTURE_DAYS", "4, 5")
		t.Setenv("SEARCH_TIMEOUT", "10s")
		t.Setenv("SEARCH_MAX_RETRIES", "2")
		t.Setenv("EMAIL_TO", "a@example.com,b@example.com")
		t.Setenv("TOP_N", "not-a-number")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "secret", cfg.SerpAPIConfig.APIKey)
		assert.Equal(t, "JFK", cfg.SearchConfig.DepartureCode)
		require.Len(t, cfg.SearchConfig.Destinations, 3)
		assert.Equal(t, "London", cfg.SearchConfig.Destinations[0].City)
		assert.Equal(t, "LHR,LGW", cfg.SearchConfig.Destinations[0].CodesParam())
		assert.Equal(t, "Rome", cfg.SearchConfig.Destinations[1].City)
		assert.Equal(t, []string{"MAD"}, cfg.SearchConfig.Destinations[2].Codes)
		assert.Equal(t, 2027, cfg.SearchConfig.Year)
		assert.Equal(t, []int{4, 5}, cfg.SearchConfig.DepartureDays)
		assert.Equal(t, 10*time.Second, cfg.SerpAPIConfig.Timeout)
		assert.Equal(t, 2, cfg.SerpAPIConfig.MaxRetries)
		assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.EmailConfig.To)
		// invalid numbers fall back to the default
		assert.Equal(t, 5, cfg.ReportConfig.TopN)
	})

	t.Run("invalid departure days", func(t *testing.T) {
		t.Setenv("DEPARTURE_DAYS", "2,wed")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestParseDestinations(t *testing.T) {
	dests, err := ParseDestinations(" Barcelona:bcn ; Lisbon:LIS,OPO ;")
	require.NoError(t, err)
	assert.Equal(t, []Destination{
		{City: "Barcelona", Codes: []string{"BCN"}},
		{City: "Lisbon", Codes: []string{"LIS", "OPO"}},
	}, dests)

	empty, err := ParseDestinations("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ParseDestinations("Berlin")
	assert.Error(t, err)

	_, err = ParseDestinations("Berlin:")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{"valid", func(c *Config) {}, true},
		{"month out of range", func(c *Config) { c.SearchConfig.EndMonth = 13 }, false},
		{"start after end", func(c *Config) { c.SearchConfig.StartMonth = 7 }, false},
		{"weekday out of range", func(c *Config) { c.SearchConfig.DepartureDays = []int{2, 7} }, false},
		{"no weekdays", func(c *Config) { c.SearchConfig.DepartureDays = nil }, false},
		{"trip too long", func(c *Config) { c.SearchConfig.TripDurationDays = 31 }, false},
		{"bad airport code", func(c *Config) { c.SearchConfig.DepartureCode = "TLVX" }, false},
		{"bad destination code", func(c *Config) { c.SearchConfig.Destinations[0].Codes = []string{"CD"} }, false},
		{"unknown currency", func(c *Config) { c.SearchConfig.Currency = "XYZ" }, false},
		{"bad language", func(c *Config) { c.SearchConfig.Language = "!!" }, false},
		{"unknown strategy", func(c *Config) { c.SearchConfig.SamplingStrategy = "daily" }, false},
		{"unknown history driver", func(c *Config) { c.HistoryConfig.Driver = "mysql" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := TestConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestRequireCredentials(t *testing.T) {
	cfg := TestConfig()
	assert.NoError(t, cfg.RequireCredentials())

	cfg.SerpAPIConfig.APIKey = " "
	assert.ErrorIs(t, cfg.RequireCredentials(), ErrMissingAPIKey)

	cfg = TestConfig()
	cfg.EmailConfig.Enabled = true
	cfg.EmailConfig.Username = "me@example.com"
	assert.ErrorIs(t, cfg.RequireCredentials(), ErrMissingEmailCredentials)

	cfg.EmailConfig.Password = "app-password"
	cfg.EmailConfig.To = []string{"you@example.com"}
	assert.NoError(t, cfg.RequireCredentials())
}

func TestLoadFile(t *testing.T) {
	os.Clearenv()
	t.Setenv("SERPAPI_KEY", "from-env")

	path := filepath.Join(t.TempDir(), "monitor.yaml")
	yml := `
search:
  departure_code: ewr
  destinations:
    - city: Tokyo
      codes: [HND, NRT]
  start_month: 9
  end_month: 11
  sampling_strategy: conservative
serpapi:
  timeout: 12s
monitor:
  cron: "0 8 * * 1"
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "EWR", cfg.SearchConfig.DepartureCode)
	require.Len(t, cfg.SearchConfig.Destinations, 1)
	assert.Equal(t, "Tokyo", cfg.SearchConfig.Destinations[0].City)
	assert.Equal(t, 9, cfg.SearchConfig.StartMonth)
	assert.Equal(t, "conservative", cfg.SearchConfig.SamplingStrategy)
	assert.Equal(t, 12*time.Second, cfg.SerpAPIConfig.Timeout)
	assert.Equal(t, "0 8 * * 1", cfg.MonitorConfig.Cron)
	// values absent from the file keep their env defaults
	assert.Equal(t, 4, cfg.SearchConfig.TripDurationDays)
	assert.Equal(t, "from-env", cfg.SerpAPIConfig.APIKey)
	assert.NoError(t, cfg.Validate())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestTestConfig(t *testing.T) {
	cfg := TestConfig()
	assert.Equal(t, "test", cfg.Environment)
	assert.NoError(t, cfg.Validate())
	assert.NoError(t, cfg.RequireCredentials())
}
