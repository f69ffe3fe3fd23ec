package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 4 << 10
)

// Request is one create or update call carrying a normalized payload.
type Request struct {
	Method   string
	Endpoint string
	Body     map[string]any
}

// Submitter sends normalized payloads to the backend.
type Submitter interface {
	Submit(ctx context.Context, req Request) error
}

// Uploader stores a file and returns the URL to keep in the document.
type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

// Fetcher loads an existing record for edit mode.
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string) (map[string]any, error)
}

// Client talks JSON to the storefront REST API. It implements Submitter,
// Uploader and Fetcher. Requests are never retried.
type Client struct {
	baseURL    string
	uploadURL  string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithUploadURL overrides the upload endpoint. Relative values resolve
// against the base URL.
func WithUploadURL(endpoint string) Option {
	return func(c *Client) {
		if strings.TrimSpace(endpoint) != "" {
			c.uploadURL = endpoint
		}
	}
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithLogger attaches a logger for request outcomes.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient returns a client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		uploadURL:  "/uploads",
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Submit sends req.Body as JSON. Any non-2xx response becomes *SubmitError
// carrying the backend's message when it provides one.
func (c *Client) Submit(ctx context.Context, req Request) error {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodPost
	}
	target := c.resolve(req.Endpoint)

	body, err := json.Marshal(req.Body)
	if err != nil {
		return &SubmitError{Method: method, Endpoint: target, Err: fmt.Errorf("marshal payload: %w", err)}
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return &SubmitError{Method: method, Endpoint: target, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	c.authorize(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("submit failed", zap.String("method", method), zap.String("endpoint", target), zap.Error(err))
		return &SubmitError{Method: method, Endpoint: target, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if !success(resp.StatusCode) {
		msg := errorMessage(resp.Body)
		c.logger.Warn("submit rejected",
			zap.String("method", method),
			zap.String("endpoint", target),
			zap.Int("status", resp.StatusCode),
			zap.String("message", msg),
		)
		return &SubmitError{Method: method, Endpoint: target, Status: resp.StatusCode, Message: msg}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	c.logger.Debug("submit accepted", zap.String("method", method), zap.String("endpoint", target), zap.Int("status", resp.StatusCode))
	return nil
}

// Upload posts r as the multipart field "file" and returns the URL from the
// response body (`{"url": ...}` or `{"data": {"url": ...}}`).
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	if r == nil {
		return "", &UploadError{Filename: filename, Err: errors.New("no file content")}
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", &UploadError{Filename: filename, Err: err}
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", &UploadError{Filename: filename, Err: fmt.Errorf("read file: %w", err)}
	}
	if err := writer.Close(); err != nil {
		return "", &UploadError{Filename: filename, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolve(c.uploadURL), &buf)
	if err != nil {
		return "", &UploadError{Filename: filename, Err: err}
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("Accept", "application/json")
	c.authorize(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("upload failed", zap.String("filename", filename), zap.Error(err))
		return "", &UploadError{Filename: filename, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if !success(resp.StatusCode) {
		msg := errorMessage(resp.Body)
		c.logger.Warn("upload rejected", zap.String("filename", filename), zap.Int("status", resp.StatusCode), zap.String("message", msg))
		return "", &UploadError{Filename: filename, Status: resp.StatusCode, Message: msg}
	}

	var decoded struct {
		URL  string `json:"url"`
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &UploadError{Filename: filename, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	url := decoded.URL
	if url == "" {
		url = decoded.Data.URL
	}
	if url == "" {
		return "", &UploadError{Filename: filename, Status: resp.StatusCode, Err: errors.New("response has no url")}
	}
	c.logger.Debug("upload stored", zap.String("filename", filename), zap.String("url", url))
	return url, nil
}

// Fetch loads a record, unwrapping a top-level `data` envelope when present.
func (c *Client) Fetch(ctx context.Context, endpoint string) (map[string]any, error) {
	target := c.resolve(endpoint)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{Endpoint: target, Err: err}
	}
	httpReq.Header.Set("Accept", "application/json")
	c.authorize(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &FetchError{Endpoint: target, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if !success(resp.StatusCode) {
		return nil, &FetchError{Endpoint: target, Status: resp.StatusCode, Message: errorMessage(resp.Body)}
	}

	var record map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, &FetchError{Endpoint: target, Status: resp.StatusCode, Err: fmt.Errorf("decode record: %w", err)}
	}
	if data, ok := record["data"].(map[string]any); ok && len(record) == 1 {
		record = data
	}
	return record, nil
}

func (c *Client) resolve(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	if endpoint == "" {
		return c.baseURL
	}
	return c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func success(status int) bool {
	return status >= 200 && status < 300
}

// errorMessage extracts `message` or `error` from a JSON error body.
func errorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(bytes.TrimSpace(data)) == 0 {
		return ""
	}
	var decoded struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return ""
	}
	if decoded.Message != "" {
		return decoded.Message
	}
	switch v := decoded.Error.(type) {
	case string:
		return v
	case map[string]any:
		if msg, ok := v["message"].(string); ok {
			return msg
		}
	}
	return ""
}
