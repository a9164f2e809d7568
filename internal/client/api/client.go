package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/google/uuid"
)

const (
	RequestIDHeaderName = "X-Request-ID"
	APIKeyHeaderName    = "X-API-Key"
	SecretKeyHeaderName = "X-Secret-Key"

	defaultTimeout = 15 * time.Second
)

// CredentialStore is what the client needs from persisted credentials:
// the current bearer token and a way to erase everything on a 401.
type CredentialStore interface {
	Token(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// UnauthorizedFunc is called after a 401 response, once the credential
// store has been cleared.
type UnauthorizedFunc func(ctx context.Context)

type HTTPClient struct {
	baseURL   string
	http      *http.Client
	creds     CredentialStore
	timeout   time.Duration
	apiKey    string
	secretKey string
	logger    logging.Logger

	mu             sync.RWMutex
	onUnauthorized []UnauthorizedFunc
}

type Option func(*HTTPClient)

// WithTimeout bounds every round-trip. Zero or negative disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.timeout = d }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.http = hc }
}

// WithGatewayKeys sets the X-API-Key / X-Secret-Key headers. Empty values
// are not sent.
func WithGatewayKeys(apiKey, secretKey string) Option {
	return func(c *HTTPClient) {
		c.apiKey = apiKey
		c.secretKey = secretKey
	}
}

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.logger = l }
}

func NewHTTPClient(baseURL string, creds CredentialStore, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		creds:   creds,
		timeout: defaultTimeout,
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnUnauthorized registers fn to run after every 401 response.
func (c *HTTPClient) OnUnauthorized(fn UnauthorizedFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = append(c.onUnauthorized, fn)
}

// Response is a successful (2xx, non-failure envelope) backend reply.
type Response struct {
	Status    int
	Body      []byte
	RequestID string
}

// Payload normalizes the body (see Normalize).
func (r *Response) Payload() (Payload, Shape, error) {
	return Normalize(r.Body)
}

// PayloadOrBody normalizes the body and falls back to the top-level object
// when no shape matches. An empty or non-object body yields an empty Payload.
func (r *Response) PayloadOrBody() Payload {
	obj, err := decodeObject(r.Body)
	if err != nil {
		return Payload{}
	}
	if p, _, err := normalizeObject(obj); err == nil {
		return p
	}
	return obj
}

// Do sends a JSON request and returns the response when the backend
// reports success. body may be nil.
func (c *HTTPClient) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	requestID := uuid.NewString()
	sent := c.setHeaders(ctx, req, requestID)
	log := c.logger.With("method", method, "path", path, "request_id", requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		err = c.transportError(ctx, err)
		log.Warn(ctx, "api request failed", "error", err, "duration", time.Since(start))
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		err = c.transportError(ctx, err)
		log.Warn(ctx, "api response read failed", "status", resp.StatusCode, "error", err)
		return nil, err
	}
	log.Debug(ctx, "api request", "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized(context.WithoutCancel(ctx), sent)
		return nil, newServerError(resp.StatusCode, data)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newServerError(resp.StatusCode, data)
	}
	if env := parseEnvelope(data); env.present && !env.success() {
		return nil, &ServerError{Status: resp.StatusCode, Code: env.code, Message: env.message}
	}

	return &Response{Status: resp.StatusCode, Body: data, RequestID: requestID}, nil
}

// Post sends a POST and normalizes the response body.
func (c *HTTPClient) Post(ctx context.Context, path string, body any) (Payload, error) {
	resp, err := c.Do(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	p, _, err := resp.Payload()
	if err != nil {
		return nil, err
	}
	return p, nil
}

// PostLenient sends a POST and returns the normalized payload, or the whole
// body object when it matches no known shape.
func (c *HTTPClient) PostLenient(ctx context.Context, path string, body any) (Payload, error) {
	resp, err := c.Do(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	return resp.PayloadOrBody(), nil
}

// Exec sends a POST and discards the response body.
func (c *HTTPClient) Exec(ctx context.Context, path string, body any) error {
	_, err := c.Do(ctx, http.MethodPost, path, body)
	return err
}

// setHeaders returns the bearer token attached to req, if any.
func (c *HTTPClient) setHeaders(ctx context.Context, req *http.Request, requestID string) string {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeaderName, requestID)
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeaderName, c.apiKey)
	}
	if c.secretKey != "" {
		req.Header.Set(SecretKeyHeaderName, c.secretKey)
	}

	if c.creds == nil {
		return ""
	}
	token, err := c.creds.Token(ctx)
	if err != nil {
		c.logger.Warn(ctx, "cannot read persisted token", "error", err)
		return ""
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return token
}

func (c *HTTPClient) transportError(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.Is(ctx.Err(), context.Canceled):
		return ctx.Err()
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

// handleUnauthorized clears the store and notifies the handlers, unless the
// persisted token changed after the rejected request was sent: a 401 for an
// older session must not drop a newer login.
func (c *HTTPClient) handleUnauthorized(ctx context.Context, sent string) {
	if c.creds != nil {
		if cur, err := c.creds.Token(ctx); err == nil && cur != "" && cur != sent {
			c.logger.Debug(ctx, "ignoring 401 for a replaced session")
			return
		}
		if err := c.creds.Clear(ctx); err != nil {
			c.logger.Error(ctx, "cannot clear credentials after 401", "error", err)
		}
	}

	c.mu.RLock()
	handlers := append([]UnauthorizedFunc(nil), c.onUnauthorized...)
	c.mu.RUnlock()

	for _, fn := range handlers {
		fn(ctx)
	}
}

type envelope struct {
	present bool
	code    string
	message string
}

func (e envelope) success() bool {
	return e.code == "200" || e.code == "201"
}

// parseEnvelope reads responseCode/code and the accompanying message.
func parseEnvelope(body []byte) envelope {
	obj, err := decodeObject(body)
	if err != nil {
		return envelope{}
	}
	code := obj.String("responseCode", "code")
	return envelope{
		present: code != "",
		code:    code,
		message: obj.String("responseMessage", "message", "error"),
	}
}

func newServerError(status int, body []byte) *ServerError {
	env := parseEnvelope(body)
	return &ServerError{Status: status, Code: env.code, Message: env.message}
}
