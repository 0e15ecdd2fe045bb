// Package rest implements service.Remote over the /todos HTTP collection.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"todosync/internal/service"
)

const defaultTimeout = 10 * time.Second

// Options configures a Client.
type Options struct {
	// BaseURL is the API root; requests go to BaseURL + "/todos".
	BaseURL string

	// Token, when set, is sent as a bearer token.
	Token string

	// Timeout bounds each HTTP attempt. Zero means 10s.
	Timeout time.Duration

	// Retries is the number of extra attempts after a network error, 429 or
	// 5xx response.
	Retries int

	// HTTPClient overrides the underlying client. Its transport is reused.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Client talks to a remote todo collection.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

var _ service.Remote = (*Client)(nil)

// New creates a Client. It fails only when BaseURL is not an absolute http(s) URL.
func New(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid api url %q: must be an absolute http(s) URL", opts.BaseURL)
	}

	base := opts.HTTPClient
	if base == nil {
		base = http.DefaultClient
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	transport := base.Transport
	if token := strings.TrimSpace(opts.Token); token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   base.Transport,
		}
	}

	retries := max(opts.Retries, 0)

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Transport: transport, Timeout: timeout},
		logger:     logger.With("component", "rest"),
		maxRetries: retries,
		baseDelay:  200 * time.Millisecond,
		maxDelay:   2 * time.Second,
	}, nil
}

// List fetches the whole collection. A payload that is not an array yields
// an empty list.
func (c *Client) List(ctx context.Context) ([]service.Task, error) {
	p, err := c.do(ctx, "list", http.MethodGet, "/todos", nil)
	if err != nil {
		return nil, err
	}
	var items []json.RawMessage
	if p.JSON == nil || json.Unmarshal(p.JSON, &items) != nil {
		return []service.Task{}, nil
	}
	tasks := make([]service.Task, 0, len(items))
	for _, item := range items {
		var t service.Task
		if err := json.Unmarshal(item, &t); err != nil {
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// Create posts a new task. The server assigns the id, so task.ID is not sent.
func (c *Client) Create(ctx context.Context, task service.Task) (service.Task, error) {
	body := make(map[string]any, len(task.Extra)+2)
	for k, v := range task.Extra {
		body[k] = v
	}
	body["title"] = task.Title
	body["completed"] = task.Completed
	p, err := c.do(ctx, "create", http.MethodPost, "/todos", body)
	if err != nil {
		return service.Task{}, err
	}
	return p.task(), nil
}

// Update sends a partial update.
func (c *Client) Update(ctx context.Context, id string, patch service.Patch) (service.Task, error) {
	if strings.TrimSpace(id) == "" {
		return service.Task{}, service.Usage("update", "id required")
	}
	p, err := c.do(ctx, "update", http.MethodPatch, "/todos/"+url.PathEscape(id), patch)
	if err != nil {
		return service.Task{}, err
	}
	return p.task(), nil
}

// Delete removes a task.
func (c *Client) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return service.Usage("delete", "id required")
	}
	_, err := c.do(ctx, "delete", http.MethodDelete, "/todos/"+url.PathEscape(id), nil)
	return err
}

// payload is a decoded response body. At most one of JSON and Text is set.
type payload struct {
	JSON json.RawMessage
	Text string
}

// task builds a Task from an object payload; anything else is the zero Task.
func (p payload) task() service.Task {
	var t service.Task
	if p.JSON == nil || json.Unmarshal(p.JSON, &t) != nil {
		return service.Task{}
	}
	return t
}

// message extracts a human-readable failure reason.
func (p payload) message() string {
	if p.JSON != nil {
		var body struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(p.JSON, &body) == nil {
			if body.Message != "" {
				return body.Message
			}
			if body.Error != "" {
				return body.Error
			}
		}
		return string(p.JSON)
	}
	return p.Text
}

func decodePayload(contentType string, data []byte) payload {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return payload{}
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil &&
		(mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")) {
		if json.Valid(trimmed) {
			return payload{JSON: json.RawMessage(trimmed)}
		}
		return payload{Text: string(data)}
	}
	if json.Valid(trimmed) {
		return payload{JSON: json.RawMessage(trimmed)}
	}
	return payload{Text: string(data)}
}

func (c *Client) do(ctx context.Context, op, method, requestPath string, body any) (payload, error) {
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return payload{}, service.Usage(op, fmt.Sprintf("failed to encode request: %v", err))
		}
	}

	requestID := uuid.NewString()
	for attempt := 0; ; attempt++ {
		var bodyReader io.Reader
		if bodyBytes != nil {
			bodyReader = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+requestPath, bodyReader)
		if err != nil {
			return payload{}, service.Usage(op, err.Error())
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-Id", requestID)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if attempt < c.maxRetries && ctx.Err() == nil && retryableError(method, err) {
				c.logger.Debug("retrying after network error", "op", op, "attempt", attempt+1, "error", err)
				if waitErr := waitWithContext(ctx, c.retryDelay(attempt+1, "")); waitErr != nil {
					return payload{}, service.Transient(op, waitErr)
				}
				continue
			}
			return payload{}, service.Transient(op, err)
		}
		data, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return payload{}, service.Transient(op, fmt.Errorf("failed to read response: %w", readErr))
		}
		p := decodePayload(resp.Header.Get("Content-Type"), data)

		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			return p, nil
		}

		if attempt < c.maxRetries && retryableStatus(method, resp.StatusCode) {
			c.logger.Debug("retrying after failure status", "op", op, "attempt", attempt+1, "status", resp.StatusCode)
			if waitErr := waitWithContext(ctx, c.retryDelay(attempt+1, resp.Header.Get("Retry-After"))); waitErr != nil {
				return payload{}, service.Transient(op, waitErr)
			}
			continue
		}

		failure := service.HTTPFailure(op, resp.StatusCode, p.message())
		c.logger.Debug("request failed", "op", op, "status", resp.StatusCode, "kind", failure.Kind.String())
		return payload{}, failure
	}
}

// retryableError reports whether a request that failed without a response
// may be sent again. A POST is resent only when the connection was never
// established, since the server may already have created the task.
func retryableError(method string, err error) bool {
	if method != http.MethodPost {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

// retryableStatus reports whether a failure status may be retried. 429 means
// the request was not processed; a 5xx after a POST may hide a created task.
func retryableStatus(method string, status int) bool {
	switch {
	case status == http.StatusTooManyRequests:
		return true
	case status >= 500:
		return method != http.MethodPost
	}
	return false
}

func (c *Client) retryDelay(attempt int, retryAfterHeader string) time.Duration {
	maxDelay := c.maxDelay
	if maxDelay <= 0 {
		maxDelay = 2 * time.Second
	}
	if retryAfter := parseRetryAfter(retryAfterHeader); retryAfter > 0 {
		return min(retryAfter, maxDelay)
	}
	delay := c.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxDelay {
			return maxDelay
		}
	}
	return min(delay, maxDelay)
}

func parseRetryAfter(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	if ts, err := http.ParseTime(header); err == nil {
		if delta := time.Until(ts); delta > 0 {
			return delta
		}
	}
	return 0
}

func waitWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

