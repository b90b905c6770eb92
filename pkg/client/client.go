// Package client provides the Memos HTTP API client with error
// classification, request metrics, and structured logging.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for Memos API client operations.
var (
	memosRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memos_requests_total",
		Help: "Total Memos API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	memosRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "memos_request_duration_seconds",
		Help:    "Memos API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	memosErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memos_errors_total",
		Help: "Total Memos API errors by class",
	}, []string{"class"})
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// StateNormal selects memos that are neither archived nor deleted.
const StateNormal = "NORMAL"

// defaultUserAgent identifies this client to the Memos server.
const defaultUserAgent = "memos-sync/0.1.0"

// maxErrorBody bounds how much of an error response is kept for logs
// and error strings.
const maxErrorBody = 4 << 10

// Client is the Memos API client.
type Client struct {
	httpClient *http.Client
	config     Config
	baseURL    string
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the Memos API root and must end with the /api/v1
	// version segment, e.g. "https://memos.example.com/api/v1".
	BaseURL string

	// AccessToken is sent as a Bearer token on every request.
	AccessToken string

	// User-Agent header sent on every request.
	UserAgent string

	// Timeout for a single HTTP request.
	Timeout time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL, accessToken string) Config {
	return Config{
		BaseURL:     baseURL,
		AccessToken: accessToken,
		UserAgent:   defaultUserAgent,
		Timeout:     30 * time.Second,
	}
}

// New creates a new Memos client. The base URL is validated before any
// network call is made.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	base := strings.TrimRight(cfg.BaseURL, "/")
	if !strings.HasSuffix(base, "/api/v1") {
		return nil, fmt.Errorf("%w (got %q)", ErrInvalidBaseURL, cfg.BaseURL)
	}

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("access token is required")
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger := log.With().Str("component", "memos-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config:  cfg,
		baseURL: base,
		logger:  logger,
	}, nil
}

// ListMemosParams are the query parameters for a single list request.
type ListMemosParams struct {
	// State filters memos by row status, usually StateNormal.
	State string

	// PageSize is the requested number of memos per page. The server may
	// return fewer.
	PageSize int

	// PageToken is the continuation cursor from a previous page, empty on
	// the first request.
	PageToken string
}

// ListMemos fetches a single page of memos.
func (c *Client) ListMemos(ctx context.Context, params ListMemosParams) (*MemoPage, error) {
	endpoint := "/memos"

	query := url.Values{}
	if params.State != "" {
		query.Set("state", params.State)
	}
	if params.PageSize > 0 {
		query.Set("pageSize", strconv.Itoa(params.PageSize))
	}
	if params.PageToken != "" {
		query.Set("pageToken", params.PageToken)
	}

	body, err := c.get(ctx, endpoint, c.baseURL+endpoint+"?"+query.Encode())
	if err != nil {
		return nil, err
	}

	// A pointer slice separates a missing memos field from a present but
	// empty page. Only the latter is a valid response.
	var decoded struct {
		Memos         *[]Memo `json:"memos"`
		NextPageToken string  `json:"nextPageToken"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if decoded.Memos == nil {
		return nil, fmt.Errorf("%w: missing memos field", ErrMalformedResponse)
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Int("count", len(*decoded.Memos)).
		Bool("has_next_page", decoded.NextPageToken != "").
		Msg("Memo page fetched")

	return &MemoPage{
		Memos:         *decoded.Memos,
		NextPageToken: decoded.NextPageToken,
	}, nil
}

// FetchFile performs an authenticated GET against an absolute URL and
// returns the raw body. Attachment files live outside the /api/v1 tree,
// so callers pass the full URL instead of an API path.
func (c *Client) FetchFile(ctx context.Context, fileURL string) ([]byte, error) {
	return c.get(ctx, "/file/attachments", fileURL)
}

// get executes a GET request and returns the response body on HTTP 200.
// The endpoint is a stable label for logs and metrics, reqURL the full
// request target.
func (c *Client) get(ctx context.Context, endpoint, reqURL string) ([]byte, error) {
	startTime := time.Now()
	defer func() {
		memosRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.config.AccessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("url", reqURL).
		Msg("Executing Memos request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		errClass := classifyError(nil, err)
		memosErrorsTotal.WithLabelValues(string(errClass)).Inc()
		memosRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()

		c.logger.Error().Err(err).
			Str("endpoint", endpoint).
			Str("error_class", string(errClass)).
			Msg("HTTP request failed")

		return nil, &UnreachableError{URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	memosRequestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		errClass := classifyError(resp, nil)
		memosErrorsTotal.WithLabelValues(string(errClass)).Inc()

		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status_code", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Memos request error")

		return nil, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Endpoint:   endpoint,
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		errClass := classifyError(nil, err)
		memosErrorsTotal.WithLabelValues(string(errClass)).Inc()

		c.logger.Error().Err(err).
			Str("endpoint", endpoint).
			Msg("Reading response body failed")

		return nil, &UnreachableError{URL: reqURL, Err: err}
	}

	return body, nil
}

// classifyError categorizes a request failure for logs and metrics.
func classifyError(resp *http.Response, err error) ErrorClass {
	if err != nil {
		return ErrorClassNetwork
	}

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return ErrorClassClient
	case resp.StatusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// BaseURL returns the normalized API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
