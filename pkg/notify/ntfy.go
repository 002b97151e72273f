package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gilsentrycs/monitor-flights/config"
	"github.com/gilsentrycs/monitor-flights/pkg/deals"
)

// AlertType represents different types of alerts
type AlertType string

const (
	AlertTypeScanComplete AlertType = "scan_complete"
	AlertTypeScanFailed   AlertType = "scan_failed"
	AlertTypeDeal         AlertType = "deal"
	AlertTypeQuotaLow     AlertType = "quota_low"
	AlertTypeInfo         AlertType = "info"
)

// Priority levels for NTFY
type Priority int

const (
	PriorityMin     Priority = 1
	PriorityLow     Priority = 2
	PriorityDefault Priority = 3
	PriorityHigh    Priority = 4
	PriorityUrgent  Priority = 5
)

const defaultServerURL = "https://ntfy.sh"

// NTFYClient handles sending notifications via NTFY
type NTFYClient struct {
	config     config.NTFYConfig
	httpClient *http.Client
	mu         sync.Mutex

	// Rate limiting to prevent notification spam
	lastAlerts map[string]time.Time
	minGap     time.Duration
	now        func() time.Time
}

// NTFYMessage represents a message to send
type NTFYMessage struct {
	Topic    string   `json:"topic"`
	Title    string   `json:"title,omitempty"`
	Message  string   `json:"message"`
	Priority int      `json:"priority,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Click    string   `json:"click,omitempty"`
}

// NewNTFYClient creates a new NTFY client
func NewNTFYClient(cfg config.NTFYConfig) *NTFYClient {
	if cfg.ServerURL == "" {
		cfg.ServerURL = defaultServerURL
	}

	return &NTFYClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		lastAlerts: make(map[string]time.Time),
		minGap:     time.Hour,
		now:        time.Now,
	}
}

// IsEnabled returns whether notifications are enabled
func (c *NTFYClient) IsEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config.Enabled && c.config.Topic != ""
}

// SendAlert sends a notification unless the same alert key fired within the last hour.
// The key is the alert type plus a subject such as the route.
func (c *NTFYClient) SendAlert(ctx context.Context, alertType AlertType, subject, title, message string, priority Priority) error {
	if !c.IsEnabled() {
		return nil
	}

	key := string(alertType) + "|" + subject
	c.mu.Lock()
	if last, ok := c.lastAlerts[key]; ok && c.now().Sub(last) < c.minGap {
		c.mu.Unlock()
		return nil
	}
	c.lastAlerts[key] = c.now()
	c.mu.Unlock()

	return c.send(ctx, title, message, priority, tagsForAlertType(alertType))
}

// SendImmediate sends a notification immediately without rate limiting
func (c *NTFYClient) SendImmediate(ctx context.Context, title, message string, priority Priority, tags []string) error {
	if !c.IsEnabled() {
		return nil
	}
	return c.send(ctx, title, message, priority, tags)
}

func (c *NTFYClient) send(ctx context.Context, title, message string, priority Priority, tags []string) error {
	msg := NTFYMessage{
		Topic:    c.config.Topic,
		Title:    title,
		Message:  message,
		Priority: int(priority),
		Tags:     tags,
	}

	jsonData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal NTFY message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.ServerURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create NTFY request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if c.config.Username != "" && c.config.Password != "" {
		req.SetBasicAuth(c.config.Username, c.config.Password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send NTFY notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("NTFY returned error status: %d", resp.StatusCode)
	}
	return nil
}

func tagsForAlertType(alertType AlertType) []string {
	switch alertType {
	case AlertTypeScanComplete:
		return []string{"white_check_mark", "airplane"}
	case AlertTypeScanFailed:
		return []string{"rotating_light", "x"}
	case AlertTypeDeal:
		return []string{"moneybag", "airplane"}
	case AlertTypeQuotaLow:
		return []string{"warning", "hourglass"}
	default:
		return []string{"information_source"}
	}
}

// AlertScanComplete reports the cheapest option of a finished scan
func (c *NTFYClient) AlertScanComplete(ctx context.Context, route string, bestPrice int, currency string, options, apiCalls int, took time.Duration) error {
	title := fmt.Sprintf("Scan complete: %s", route)
	message := fmt.Sprintf("%d options, best %d %s. %d API calls in %v", options, bestPrice, currency, apiCalls, took.Round(time.Second))
	if options == 0 {
		message = fmt.Sprintf("No options found. %d API calls in %v", apiCalls, took.Round(time.Second))
	}
	return c.SendAlert(ctx, AlertTypeScanComplete, route, title, message, PriorityLow)
}

// AlertScanFailed reports a scan where every search failed
func (c *NTFYClient) AlertScanFailed(ctx context.Context, route string, failed int, lastErr error) error {
	title := fmt.Sprintf("Scan failed: %s", route)
	message := fmt.Sprintf("%d searches failed", failed)
	if lastErr != nil {
		message += ". Last: " + lastErr.Error()
	}
	return c.SendAlert(ctx, AlertTypeScanFailed, route, title, message, PriorityHigh)
}

// AlertDeal pushes a detected deal. Error fares are urgent.
func (c *NTFYClient) AlertDeal(ctx context.Context, deal deals.Deal, currency string) error {
	rec := deal.Record
	label := strings.ToUpper(strings.ReplaceAll(deal.Classification, "_", " "))
	title := fmt.Sprintf("%s: %s → %s %d %s", label, deal.Origin, rec.Destination, rec.Price, currency)
	message := fmt.Sprintf("%s → %s, %.1f%% below the usual %.0f %s (%s)",
		rec.DepartureDate.Format("Mon Jan 2"), rec.ReturnDate.Format("Mon Jan 2"),
		deal.DiscountPercent, deal.Baseline.Median, currency, rec.Airline)

	priority := PriorityDefault
	switch deal.Classification {
	case deals.DealClassErrorFare:
		priority = PriorityUrgent
	case deals.DealClassAmazing:
		priority = PriorityHigh
	}

	subject := fmt.Sprintf("%s|%s|%s", deal.Origin, rec.Destination, rec.DepartureDate.Format("2006-01-02"))
	return c.SendAlert(ctx, AlertTypeDeal, subject, title, message, priority)
}

// NotifyMonitorStarted announces a monitor start. It is never rate limited so
// restarts stay visible.
func (c *NTFYClient) NotifyMonitorStarted(ctx context.Context, route, schedule string) error {
	title := fmt.Sprintf("Monitoring %s", route)
	message := fmt.Sprintf("Scans run on schedule %q", schedule)
	return c.SendImmediate(ctx, title, message, PriorityMin, tagsForAlertType(AlertTypeInfo))
}

// AlertQuotaLow warns when the remaining searches no longer cover a full scan
func (c *NTFYClient) AlertQuotaLow(ctx context.Context, remaining, perRun int) error {
	title := "Search quota running low"
	message := fmt.Sprintf("%d searches left, a scan needs %d", remaining, perRun)
	return c.SendAlert(ctx, AlertTypeQuotaLow, "", title, message, PriorityHigh)
}
