// Package googletasks implements service.Remote on one Google Tasks list.
package googletasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"todosync/internal/config"
	"todosync/internal/duedate"
	"todosync/internal/service"
)

const (
	// DefaultListID is the special ID for the default list.
	DefaultListID = "@default"

	// PageSize is the number of tasks per page.
	PageSize = 100

	// APITimeout is the timeout for API calls.
	APITimeout = 5 * time.Second

	// Scope is the OAuth scope for Google Tasks.
	Scope = "https://www.googleapis.com/auth/tasks"

	statusCompleted   = "completed"
	statusNeedsAction = "needsAction"
)

// Extension fields carried in service.Task.Extra.
const (
	FieldDueDate  = duedate.Field // YYYY-MM-DD
	FieldNotes    = "notes"
	FieldPosition = "position"
	FieldUpdated  = "updated"
)

// Client implements service.Remote using the Google Tasks API.
type Client struct {
	svc    *tasks.Service
	listID string
}

var _ service.Remote = (*Client)(nil)

// New creates a new Google Tasks client for cfg.TaskList.
// Requires oauth_client.json and token.json to exist.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	clientJSON, err := os.ReadFile(cfg.OAuthClientPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth_client.json: %w", err)
	}

	oauthConfig, err := google.ConfigFromJSON(clientJSON, Scope)
	if err != nil {
		return nil, fmt.Errorf("invalid oauth_client.json: %w", err)
	}

	tokenData, err := os.ReadFile(cfg.TokenPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read token.json (run: todosync login): %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(tokenData, &token); err != nil {
		return nil, fmt.Errorf("invalid token.json: %w", err)
	}

	// Refreshes automatically.
	httpClient := oauth2.NewClient(ctx, oauthConfig.TokenSource(ctx, &token))

	svc, err := tasks.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}

	return &Client{svc: svc, listID: listOrDefault(cfg.TaskList)}, nil
}

// NewWithHTTPClient creates a client with a custom HTTP client and endpoint (for testing).
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, endpoint, listID string) (*Client, error) {
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{svc: svc, listID: listOrDefault(listID)}, nil
}

func listOrDefault(id string) string {
	if id = strings.TrimSpace(id); id == "" {
		return DefaultListID
	}
	return id
}

// List returns every task in the list, completed and hidden ones included,
// in API order.
func (c *Client) List(ctx context.Context) ([]service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	result := []service.Task{}
	err := c.svc.Tasks.List(c.listID).
		MaxResults(PageSize).
		ShowCompleted(true).
		ShowHidden(true).
		ShowDeleted(false).
		Pages(ctx, func(resp *tasks.Tasks) error {
			for _, t := range resp.Items {
				result = append(result, fromAPI(t))
			}
			return nil
		})
	if err != nil {
		return nil, wrapError("list", err)
	}
	return result, nil
}

// Create inserts a task at the top of the list.
func (c *Client) Create(ctx context.Context, task service.Task) (service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	created, err := c.svc.Tasks.Insert(c.listID, toAPI(task)).Context(ctx).Do()
	if err != nil {
		return service.Task{}, wrapError("create", err)
	}
	return fromAPI(created), nil
}

// Update patches the fields present in patch.
func (c *Client) Update(ctx context.Context, id string, patch service.Patch) (service.Task, error) {
	if strings.TrimSpace(id) == "" {
		return service.Task{}, service.Usage("update", "id required")
	}
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	body := &tasks.Task{}
	if patch.Title != nil {
		body.Title = *patch.Title
	}
	if patch.Completed != nil {
		if *patch.Completed {
			body.Status = statusCompleted
		} else {
			body.Status = statusNeedsAction
			body.NullFields = append(body.NullFields, "Completed")
		}
	}
	applyExtra(body, patch.Extra)

	updated, err := c.svc.Tasks.Patch(c.listID, id, body).Context(ctx).Do()
	if err != nil {
		return service.Task{}, wrapError("update", err)
	}
	return fromAPI(updated), nil
}

// Delete deletes a task.
func (c *Client) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return service.Usage("delete", "id required")
	}
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	if err := c.svc.Tasks.Delete(c.listID, id).Context(ctx).Do(); err != nil {
		return wrapError("delete", err)
	}
	return nil
}

func fromAPI(t *tasks.Task) service.Task {
	out := service.Task{
		ID:        t.Id,
		Title:     t.Title,
		Completed: t.Status == statusCompleted,
	}
	setExtra := func(key, value string) {
		if value == "" {
			return
		}
		raw, _ := json.Marshal(value)
		if out.Extra == nil {
			out.Extra = make(map[string]json.RawMessage)
		}
		out.Extra[key] = raw
	}
	if t.Due != "" {
		if due, err := time.Parse(time.RFC3339, t.Due); err == nil {
			setExtra(FieldDueDate, due.UTC().Format(time.DateOnly))
		}
	}
	setExtra(FieldNotes, t.Notes)
	setExtra(FieldPosition, t.Position)
	setExtra(FieldUpdated, t.Updated)
	return out
}

func toAPI(t service.Task) *tasks.Task {
	out := &tasks.Task{Title: t.Title, Status: statusNeedsAction}
	if t.Completed {
		out.Status = statusCompleted
	}
	applyExtra(out, t.Extra)
	return out
}

// applyExtra copies the writable extension fields. Google stores only the
// date part of a due time.
func applyExtra(dst *tasks.Task, extra map[string]json.RawMessage) {
	str := func(key string) (string, bool) {
		raw, ok := extra[key]
		if !ok {
			return "", false
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	}
	if due, ok := str(FieldDueDate); ok {
		if d, err := time.Parse(time.DateOnly, due); err == nil {
			dst.Due = d.Format(time.RFC3339)
		} else if due == "" {
			dst.NullFields = append(dst.NullFields, "Due")
		}
	}
	if notes, ok := str(FieldNotes); ok {
		dst.Notes = notes
	}
}

// wrapError classifies API errors. Status codes of 500 and above and
// failures without an API response are transient.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		if errors.Is(err, context.DeadlineExceeded) {
			return service.Transient(op, fmt.Errorf("request timed out"))
		}
		return service.Transient(op, err)
	}

	msg := apiErr.Message
	switch apiErr.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		msg = "token expired or revoked (run: todosync login)"
	case http.StatusNotFound:
		msg = "not found"
	}
	if msg == "" {
		msg = http.StatusText(apiErr.Code)
	}
	e := service.HTTPFailure(op, apiErr.Code, msg)
	e.Err = err
	return e
}
