package serpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	DefaultBaseURL = "https://serpapi.com/search"
	engine         = "google_flights"
	tripTypeRound  = "1"
)

// ErrAPI marks a response that carried an explicit "error" field
var ErrAPI = errors.New("serpapi error")

type httpClient interface {
	Do(req *retryablehttp.Request) (*http.Response, error)
}

// SearchRequest describes one round-trip search
type SearchRequest struct {
	DepartureID  string // origin airport code
	ArrivalID    string // one or more comma-joined destination codes
	OutboundDate string // YYYY-MM-DD
	ReturnDate   string // YYYY-MM-DD
	Currency     string
	Language     string
	Adults       int
	DeepSearch   bool
}

// Key identifies the request independently of the API key
func (r SearchRequest) Key() string {
	return strings.Join([]string{
		r.DepartureID, r.ArrivalID, r.OutboundDate, r.ReturnDate,
		r.Currency, r.Language, strconv.Itoa(r.Adults), strconv.FormatBool(r.DeepSearch),
	}, "|")
}

// Options configures a Client
type Options struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RetryWait  time.Duration // minimum backoff between retries, 1s when zero
}

// Client talks to the SerpApi google_flights engine. One call is one billed search.
type Client struct {
	apiKey  string
	baseURL string
	client  httpClient
}

func customRetryPolicy() func(ctx context.Context, resp *http.Response, err error) (bool, error) {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return false, ctx.Err()
			}
		}

		if resp == nil {
			if err != nil {
				return true, err
			}
			return true, fmt.Errorf("response is nil")
		}

		// client errors (bad key, bad params) will not succeed on retry, except rate limits
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return false, fmt.Errorf("wrong status code: %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return true, fmt.Errorf("wrong status code: %d", resp.StatusCode)
		}
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
}

type attemptsKey struct{}

// CountAttempts returns a context under which the Client adds every HTTP attempt,
// retries included, to the returned counter. Each attempt is a billed search.
func CountAttempts(ctx context.Context) (context.Context, *atomic.Int64) {
	n := new(atomic.Int64)
	return context.WithValue(ctx, attemptsKey{}, n), n
}

func countAttempt(_ retryablehttp.Logger, req *http.Request, _ int) {
	if n, ok := req.Context().Value(attemptsKey{}).(*atomic.Int64); ok {
		n.Add(1)
	}
}

// NewClient builds a client; zero-valued options get a 30s timeout, no retries and the public endpoint.
func NewClient(opts Options) *Client {
	client := retryablehttp.NewClient()
	client.RetryMax = opts.MaxRetries
	client.Logger = nil
	client.CheckRetry = customRetryPolicy()
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.RequestLogHook = countAttempt
	client.RetryWaitMin = time.Second
	if opts.RetryWait > 0 {
		client.RetryWaitMin = opts.RetryWait
		client.RetryWaitMax = 4 * opts.RetryWait
	}
	client.HTTPClient.Timeout = opts.Timeout
	if client.HTTPClient.Timeout <= 0 {
		client.HTTPClient.Timeout = 30 * time.Second
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		apiKey:  opts.APIKey,
		baseURL: baseURL,
		client:  client,
	}
}

func (c *Client) searchURL(req SearchRequest) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	adults := req.Adults
	if adults <= 0 {
		adults = 1
	}

	q := u.Query()
	q.Set("engine", engine)
	q.Set("departure_id", req.DepartureID)
	q.Set("arrival_id", req.ArrivalID)
	q.Set("outbound_date", req.OutboundDate)
	q.Set("return_date", req.ReturnDate)
	q.Set("currency", req.Currency)
	q.Set("hl", req.Language)
	q.Set("type", tripTypeRound)
	q.Set("adults", strconv.Itoa(adults))
	if req.DeepSearch {
		q.Set("deep_search", "true")
	}
	q.Set("api_key", c.apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Search performs one search. Transport failures, non-200 statuses, malformed JSON and
// responses carrying an "error" field all return an error; the latter wraps ErrAPI.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	target, err := c.searchURL(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("search: build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			if msg := readErrorMessage(resp.Body); msg != "" {
				return nil, fmt.Errorf("search %s: %w: %s (status %d)", req.OutboundDate, ErrAPI, msg, resp.StatusCode)
			}
		}
		return nil, fmt.Errorf("search %s: %w", req.OutboundDate, err)
	}
	defer resp.Body.Close()

	var out SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("search %s: decode response: %w", req.OutboundDate, err)
	}
	if msg, ok := out.ErrorMessage(); ok {
		return nil, fmt.Errorf("search %s: %w: %s", req.OutboundDate, ErrAPI, msg)
	}
	return &out, nil
}

func readErrorMessage(r io.Reader) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 64<<10)).Decode(&body); err != nil {
		return ""
	}
	return body.Error
}

// Account is the subset of account.json used for quota planning
type Account struct {
	PlanSearchesLeft  int    `json:"plan_searches_left"`
	TotalSearchesLeft int    `json:"total_searches_left"`
	ThisMonthUsage    int    `json:"this_month_usage"`
	SearchesPerMonth  int    `json:"searches_per_month"`
	PlanName          string `json:"plan_name"`
}

// Account fetches remaining searches for the API key. Account lookups are not billed.
func (c *Client) Account(ctx context.Context) (*Account, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/search") + "/account.json"
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	u.RawQuery = q.Encode()

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("account: build request: %w", err)
	}
	resp, err := c.client.Do(httpReq)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, fmt.Errorf("account: %w", err)
	}
	defer resp.Body.Close()

	var acct Account
	if err := json.NewDecoder(resp.Body).Decode(&acct); err != nil {
		return nil, fmt.Errorf("account: decode response: %w", err)
	}
	return &acct, nil
}
