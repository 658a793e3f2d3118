// Package apiclient is the typed data layer over the tally HTTP API.
// Reads are cached under (endpoint, params) keys; each mutation evicts the
// list endpoints it affects, forcing a refetch on next read. The one-entry-
// per-day toggle lives here: the server only stores rows, the client decides
// between create and delete.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dukerupert/tally/internal/model"
)

const (
	familiesPath = "/api/families"
	trackersPath = "/api/trackers"
	entriesPath  = "/api/tracker-entries"
	resetPath    = "/api/reset"
)

// APIError is a non-2xx response decoded into the contract error body.
type APIError struct {
	StatusCode int
	Message    string
	Field      string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("api: %d %s (field %s)", e.StatusCode, e.Message, e.Field)
	}
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

// Client talks to a tally server. Safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *responseCache
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		cache: newResponseCache(),
	}
}

// CreateFamilyInput is the POST /api/families body.
type CreateFamilyInput struct {
	Name  string  `json:"name"`
	Icon  *string `json:"icon,omitempty"`
	Order int     `json:"order"`
}

// CreateTrackerInput is the POST /api/trackers body.
type CreateTrackerInput struct {
	Name        string  `json:"name"`
	FamilyID    *int64  `json:"familyId,omitempty"`
	Color       string  `json:"color"`
	Description *string `json:"description,omitempty"`
	Order       int     `json:"order"`
}

// CreateEntryInput is the POST /api/tracker-entries body.
type CreateEntryInput struct {
	TrackerID int64   `json:"trackerId"`
	Date      string  `json:"date"`
	Note      *string `json:"note,omitempty"`
	PhotoURL  *string `json:"photoUrl,omitempty"`
}

// EntryFilter selects entries by exact day or by month prefix. At most one
// field may be set; the server rejects both.
type EntryFilter struct {
	Date  string
	Month string
}

func (f EntryFilter) values() url.Values {
	params := url.Values{}
	if f.Date != "" {
		params.Set("date", f.Date)
	}
	if f.Month != "" {
		params.Set("month", f.Month)
	}
	return params
}

// Families lists all families, served from cache when possible.
func (c *Client) Families(ctx context.Context) ([]model.Family, error) {
	var families []model.Family
	if err := c.getJSON(ctx, familiesPath, nil, &families); err != nil {
		return nil, err
	}
	return families, nil
}

func (c *Client) CreateFamily(ctx context.Context, in CreateFamilyInput) (*model.Family, error) {
	var family model.Family
	if err := c.do(ctx, http.MethodPost, familiesPath, in, &family, familiesPath); err != nil {
		return nil, err
	}
	return &family, nil
}

func (c *Client) UpdateFamily(ctx context.Context, id int64, patch model.FamilyPatch) (*model.Family, error) {
	var family model.Family
	if err := c.do(ctx, http.MethodPatch, idPath(familiesPath, id), patch, &family, familiesPath); err != nil {
		return nil, err
	}
	return &family, nil
}

func (c *Client) DeleteFamily(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath(familiesPath, id), nil, nil, familiesPath)
}

// Trackers lists all trackers, archived included, served from cache when
// possible. Callers wanting active-only views filter on IsArchived.
func (c *Client) Trackers(ctx context.Context) ([]model.Tracker, error) {
	var trackers []model.Tracker
	if err := c.getJSON(ctx, trackersPath, nil, &trackers); err != nil {
		return nil, err
	}
	return trackers, nil
}

func (c *Client) CreateTracker(ctx context.Context, in CreateTrackerInput) (*model.Tracker, error) {
	var tracker model.Tracker
	if err := c.do(ctx, http.MethodPost, trackersPath, in, &tracker, trackersPath); err != nil {
		return nil, err
	}
	return &tracker, nil
}

func (c *Client) UpdateTracker(ctx context.Context, id int64, patch model.TrackerPatch) (*model.Tracker, error) {
	var tracker model.Tracker
	if err := c.do(ctx, http.MethodPatch, idPath(trackersPath, id), patch, &tracker, trackersPath); err != nil {
		return nil, err
	}
	return &tracker, nil
}

// DeleteTracker archives the tracker server-side; its entries survive.
func (c *Client) DeleteTracker(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath(trackersPath, id), nil, nil, trackersPath)
}

// Entries lists completion records matching the filter, served from cache
// when possible.
func (c *Client) Entries(ctx context.Context, filter EntryFilter) ([]model.TrackerEntry, error) {
	var entries []model.TrackerEntry
	if err := c.getJSON(ctx, entriesPath, filter.values(), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) CreateEntry(ctx context.Context, in CreateEntryInput) (*model.TrackerEntry, error) {
	var entry model.TrackerEntry
	if err := c.do(ctx, http.MethodPost, entriesPath, in, &entry, entriesPath); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *Client) UpdateEntry(ctx context.Context, id int64, patch model.TrackerEntryPatch) (*model.TrackerEntry, error) {
	var entry model.TrackerEntry
	if err := c.do(ctx, http.MethodPatch, idPath(entriesPath, id), patch, &entry, entriesPath); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *Client) DeleteEntry(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath(entriesPath, id), nil, nil, entriesPath)
}

// ToggleEntry marks or un-marks a tracker for a date. With an entryID the
// existing entry is deleted (day becomes not-done) and nil is returned;
// without one a new entry is created and returned.
func (c *Client) ToggleEntry(ctx context.Context, trackerID int64, date string, entryID *int64) (*model.TrackerEntry, error) {
	if entryID != nil {
		if err := c.DeleteEntry(ctx, *entryID); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return c.CreateEntry(ctx, CreateEntryInput{TrackerID: trackerID, Date: date})
}

// Reset wipes all server data, reseeds the demo set, and drops every cached
// response.
func (c *Client) Reset(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, resetPath, nil, nil); err != nil {
		return err
	}
	c.cache.clear()
	return nil
}

func idPath(base string, id int64) string {
	return fmt.Sprintf("%s/%d", base, id)
}

// getJSON serves path+params from cache, or fetches with retry on transport
// errors and 5xx responses and caches the body.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	key := cacheKey(path, params)
	if data, ok := c.cache.get(key); ok {
		return json.Unmarshal(data, out)
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var body []byte
	backoff := retry.WithMaxRetries(3, retry.NewExponential(100*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(err)
		}
		if resp.StatusCode >= 500 {
			return retry.RetryableError(decodeAPIError(resp.StatusCode, data))
		}
		if resp.StatusCode != http.StatusOK {
			return decodeAPIError(resp.StatusCode, data)
		}
		body = data
		return nil
	})
	if err != nil {
		return err
	}

	c.cache.set(key, body)
	return json.Unmarshal(body, out)
}

// do performs a mutation. Mutations are never retried: POST and PATCH are
// not idempotent here. Cache eviction for the affected endpoints happens
// only on success, so a failed mutation leaves prior cached state intact.
func (c *Client) do(ctx context.Context, method, path string, in, out any, affects ...string) error {
	var reqBody io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return decodeAPIError(resp.StatusCode, data)
	}

	for _, prefix := range affects {
		c.cache.invalidate(prefix)
	}

	if out != nil {
		return json.Unmarshal(data, out)
	}
	return nil
}

func decodeAPIError(status int, body []byte) error {
	var parsed struct {
		Message string `json:"message"`
		Field   string `json:"field"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Message == "" {
		parsed.Message = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Message: parsed.Message, Field: parsed.Field}
}
