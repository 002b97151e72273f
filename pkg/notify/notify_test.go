package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/gilsentrycs/monitor-flights/config"
	"github.com/gilsentrycs/monitor-flights/pkg/deals"
	"github.com/gilsentrycs/monitor-flights/quotes"
	"github.com/gilsentrycs/monitor-flights/report"
)

type ntfyRecorder struct {
	mu       sync.Mutex
	messages []NTFYMessage
	users    []string
}

func (r *ntfyRecorder) handler(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var msg NTFYMessage
		_ = json.NewDecoder(req.Body).Decode(&msg)
		user, _, _ := req.BasicAuth()
		r.mu.Lock()
		r.messages = append(r.messages, msg)
		r.users = append(r.users, user)
		r.mu.Unlock()
		w.WriteHeader(status)
	}
}

func newTestNTFY(t *testing.T, status int) (*NTFYClient, *ntfyRecorder) {
	t.Helper()
	rec := &ntfyRecorder{}
	srv := httptest.NewServer(rec.handler(status))
	t.Cleanup(srv.Close)

	c := NewNTFYClient(config.NTFYConfig{
		ServerURL: srv.URL,
		Topic:     "flights",
		Username:  "bot",
		Password:  "secret",
		Enabled:   true,
	})
	return c, rec
}

func TestNTFY_ScanComplete(t *testing.T) {
	c, rec := newTestNTFY(t, http.StatusOK)

	err := c.AlertScanComplete(context.Background(), "TLV → Paris", 289, "USD", 12, 13, 95*time.Second)
	require.NoError(t, err)

	require.Len(t, rec.messages, 1)
	msg := rec.messages[0]
	assert.Equal(t, "flights", msg.Topic)
	assert.Equal(t, "Scan complete: TLV → Paris", msg.Title)
	assert.Contains(t, msg.Message, "best 289 USD")
	assert.Equal(t, int(PriorityLow), msg.Priority)
	assert.Equal(t, []string{"white_check_mark", "airplane"}, msg.Tags)
	assert.Equal(t, "bot", rec.users[0])
}

func TestNTFY_RateLimitsSameSubject(t *testing.T) {
	c, rec := newTestNTFY(t, http.StatusOK)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.AlertScanFailed(ctx, "TLV → Paris", 13, errors.New("timeout")))
	require.NoError(t, c.AlertScanFailed(ctx, "TLV → Paris", 13, nil))
	require.NoError(t, c.AlertScanFailed(ctx, "TLV → Rome", 13, nil))
	assert.Len(t, rec.messages, 2)

	now = now.Add(2 * time.Hour)
	require.NoError(t, c.AlertScanFailed(ctx, "TLV → Paris", 13, nil))
	assert.Len(t, rec.messages, 3)
	assert.Contains(t, rec.messages[0].Message, "Last: timeout")
}

func TestNTFY_DealPriority(t *testing.T) {
	c, rec := newTestNTFY(t, http.StatusOK)
	deal := deals.Deal{
		Origin: "TLV",
		Record: quotes.QuoteRecord{
			Destination:   "Paris",
			DepartureDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
			ReturnDate:    time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC),
			Price:         99,
			Airline:       "Wizz Air",
		},
		Baseline:        deals.Baseline{Median: 400},
		DiscountPercent: 75.3,
		Classification:  deals.DealClassErrorFare,
	}

	require.NoError(t, c.AlertDeal(context.Background(), deal, "USD"))
	require.Len(t, rec.messages, 1)
	assert.Equal(t, int(PriorityUrgent), rec.messages[0].Priority)
	assert.Equal(t, "ERROR FARE: TLV → Paris 99 USD", rec.messages[0].Title)
	assert.Contains(t, rec.messages[0].Message, "75.3% below the usual 400 USD")
}

func TestNTFY_MonitorStartedIsNotRateLimited(t *testing.T) {
	c, rec := newTestNTFY(t, http.StatusOK)
	route := "Tel Aviv (TLV) → Paris (CDG,ORY)"

	require.NoError(t, c.NotifyMonitorStarted(context.Background(), route, "0 9 */4 * *"))
	require.NoError(t, c.NotifyMonitorStarted(context.Background(), route, "0 9 */4 * *"))
	require.Len(t, rec.messages, 2)
	assert.Equal(t, int(PriorityMin), rec.messages[0].Priority)
	assert.Equal(t, "Monitoring "+route, rec.messages[0].Title)
	assert.Equal(t, []string{"information_source"}, rec.messages[0].Tags)
}

func TestNTFY_ErrorStatus(t *testing.T) {
	c, _ := newTestNTFY(t, http.StatusForbidden)
	err := c.NotifyMonitorStarted(context.Background(), "TLV → Paris", "0 9 * * *")
	assert.ErrorContains(t, err, "403")
}

func TestNTFY_DisabledIsNoop(t *testing.T) {
	c := NewNTFYClient(config.NTFYConfig{Topic: "flights"})
	assert.False(t, c.IsEnabled())
	assert.NoError(t, c.AlertQuotaLow(context.Background(), 10, 26))
	assert.Equal(t, defaultServerURL, c.config.ServerURL)
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) DialAndSend(msgs ...*gomail.Message) error {
	return m.Called(msgs).Error(0)
}

func testReport() report.SavedReport {
	rec := quotes.QuoteRecord{
		Destination:      "Paris",
		DepartureDate:    time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		ReturnDate:       time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC),
		Price:            289,
		DurationMinutes:  290,
		Airline:          "El Al",
		IsDirect:         true,
		Layovers:         []string{},
		DepartureWeekday: "Wednesday",
		ReturnWeekday:    "Sunday",
		DepartureMonth:   "April",
	}
	records := []quotes.QuoteRecord{rec}
	return report.SavedReport{
		SearchMetadata: report.SearchMetadata{
			RunID:         "run-1",
			SearchDate:    time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
			Route:         "Tel Aviv (TLV) → Paris (CDG,ORY)",
			Configuration: report.Configuration{Currency: "USD"},
		},
		Analysis:      report.Aggregate(records, 5),
		FlightOptions: records,
	}
}

func TestMailer_Compose(t *testing.T) {
	m := NewMailerWithSender(config.EmailConfig{
		Enabled:  true,
		Username: "monitor@example.com",
		To:       []string{"me@example.com", "you@example.com"},
	}, &mockSender{})

	msg, err := m.Compose(testReport())
	require.NoError(t, err)
	assert.Equal(t, []string{"Flight Monitor Report - Best: 289 USD - Mar 14"}, msg.GetHeader("Subject"))
	assert.Equal(t, []string{"me@example.com", "you@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"monitor@example.com"}, msg.GetHeader("From"))
}

func TestMailer_SendReport(t *testing.T) {
	sender := &mockSender{}
	sender.On("DialAndSend", mock.Anything).Return(nil).Once()

	m := NewMailerWithSender(config.EmailConfig{Enabled: true, Username: "a@example.com", To: []string{"b@example.com"}}, sender)
	require.NoError(t, m.SendReport(testReport()))
	sender.AssertExpectations(t)
}

func TestMailer_Errors(t *testing.T) {
	sender := &mockSender{}
	sender.On("DialAndSend", mock.Anything).Return(errors.New("535 auth failed"))

	m := NewMailerWithSender(config.EmailConfig{Enabled: true, Username: "a@example.com", To: []string{"b@example.com"}}, sender)
	assert.ErrorContains(t, m.SendReport(testReport()), "535 auth failed")

	noRecipients := NewMailerWithSender(config.EmailConfig{Enabled: true}, sender)
	assert.Error(t, noRecipients.SendReport(testReport()))

	disabled := NewMailerWithSender(config.EmailConfig{}, &mockSender{})
	assert.NoError(t, disabled.SendReport(testReport()))
	assert.False(t, disabled.Enabled())
}
