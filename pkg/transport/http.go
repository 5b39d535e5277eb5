package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/conduit-lang/linkage/pkg/orm/document"
)

// maxBodySize bounds how much of a response is read
const maxBodySize = 32 << 20

// Config configures the HTTP transport
type Config struct {
	// Timeout bounds each attempt. Defaults to 30s.
	Timeout time.Duration

	// RetryMax is the number of retries after the first attempt. Connection
	// errors, 429 and 5xx other than 501 are retried.
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// Headers are sent with every request.
	Headers map[string]string

	UserAgent   string
	Credentials Credentials
	Metrics     *Metrics
	Logger      *zap.Logger

	// HTTPClient replaces the underlying client. Timeout is ignored when set.
	HTTPClient *http.Client
}

// DefaultConfig returns the default transport configuration
func DefaultConfig() Config {
	return Config{
		Timeout:      30 * time.Second,
		RetryMax:     3,
		RetryWaitMin: 100 * time.Millisecond,
		RetryWaitMax: 2 * time.Second,
		UserAgent:    "linkage",
	}
}

// HTTP is a Transport over net/http with retries. It is safe for concurrent
// use.
type HTTP struct {
	client      *retryablehttp.Client
	headers     map[string]string
	userAgent   string
	credentials Credentials
	metrics     *Metrics
	logger      *zap.Logger
}

// NewHTTP creates an HTTP transport
func NewHTTP(cfg Config) *HTTP {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	client := retryablehttp.NewClient()
	client.HTTPClient = httpClient
	client.RetryMax = cfg.RetryMax
	if cfg.RetryWaitMin > 0 {
		client.RetryWaitMin = cfg.RetryWaitMin
	}
	if cfg.RetryWaitMax > 0 {
		client.RetryWaitMax = cfg.RetryWaitMax
	}
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.Logger = retryLogger{logger.Sugar()}

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	return &HTTP{
		client:      client,
		headers:     headers,
		userAgent:   cfg.UserAgent,
		credentials: cfg.Credentials,
		metrics:     cfg.Metrics,
		logger:      logger,
	}
}

// Get implements Transport
func (t *HTTP) Get(ctx context.Context, rawURL string, params map[string]string) (json.RawMessage, error) {
	target, err := withQuery(rawURL, params)
	if err != nil {
		return nil, &Error{URL: rawURL, Err: err}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &Error{URL: target, Err: err}
	}

	id := requestID(ctx)
	req.Header.Set("Accept", document.MediaType)
	req.Header.Set(RequestIDHeader, id)
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	if t.credentials != nil {
		auth, err := t.credentials.Authorization(ctx)
		if err != nil {
			return nil, &Error{URL: target, Err: fmt.Errorf("credentials: %w", err)}
		}
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
	}

	start := time.Now()
	t.metrics.start()
	resp, err := t.client.Do(req)
	if err != nil {
		t.metrics.observe(0, time.Since(start))
		return nil, &Error{URL: target, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	elapsed := time.Since(start)
	t.metrics.observe(resp.StatusCode, elapsed)

	t.logger.Debug("request",
		zap.String("method", http.MethodGet),
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", elapsed),
		zap.String("request_id", id),
	)

	if err != nil {
		return nil, &Error{StatusCode: resp.StatusCode, URL: target, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(resp.StatusCode, target, body)
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, &Error{StatusCode: resp.StatusCode, URL: target, Err: ErrEmptyBody}
	}
	if !json.Valid(body) {
		return nil, &Error{StatusCode: resp.StatusCode, URL: target, Body: body, Err: ErrInvalidJSON}
	}

	return json.RawMessage(body), nil
}

func withQuery(rawURL string, params map[string]string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if !u.IsAbs() {
		return "", fmt.Errorf("url %q is not absolute", rawURL)
	}
	if len(params) == 0 {
		return u.String(), nil
	}

	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// retryLogger routes retryablehttp's messages to zap at debug level.
type retryLogger struct {
	s *zap.SugaredLogger
}

func (l retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.s.Warnw(msg, keysAndValues...)
}

var _ retryablehttp.LeveledLogger = retryLogger{}
