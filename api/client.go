package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	hubErrors "github.com/jrsteele09/sekai-hub/internal/errors"
)

const (
	DefaultActivityLimit = 20
	maxErrorBody         = 4 << 10
)

// TokenSource supplies a currently valid access token, refreshing it if needed.
// *auth.Session satisfies it.
type TokenSource interface {
	GetValidAccessToken(ctx context.Context) (string, error)
}

// Client is a thin authenticated wrapper around the hub resource API. It does
// not retry; the only implicit recovery is the token refresh done by the TokenSource.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func New(baseURL string, tokens TokenSource, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) GetProfile(ctx context.Context) (Profile, error) {
	var p Profile
	if err := c.do(ctx, http.MethodGet, "/user/profile", nil, nil, &p); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *Client) UpdateProfile(ctx context.Context, profile Profile) (Profile, error) {
	var p Profile
	if err := c.do(ctx, http.MethodPut, "/user/profile", nil, profile, &p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetStats returns the user's stats, optionally narrowed to a project and a
// day (YYYY-MM-DD). Empty arguments are omitted from the query.
func (c *Client) GetStats(ctx context.Context, project, date string) (Stats, error) {
	q := url.Values{}
	if project != "" {
		q.Set("project", project)
	}
	if date != "" {
		q.Set("date", date)
	}
	var s Stats
	if err := c.do(ctx, http.MethodGet, "/user/stats", q, nil, &s); err != nil {
		return nil, err
	}
	return s, nil
}

func (c *Client) GetAchievements(ctx context.Context) (*Achievements, error) {
	var a Achievements
	if err := c.do(ctx, http.MethodGet, "/user/achievements", nil, nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetActivity pages through the timeline. A non-positive limit uses DefaultActivityLimit.
func (c *Client) GetActivity(ctx context.Context, limit, offset int) (*ActivityPage, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	if offset < 0 {
		offset = 0
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	var page ActivityPage
	if err := c.do(ctx, http.MethodGet, "/user/activity", q, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetSync(ctx context.Context, project string) (SyncData, error) {
	q := url.Values{}
	if project != "" {
		q.Set("project", project)
	}
	var s SyncData
	if err := c.do(ctx, http.MethodGet, "/user/sync", q, nil, &s); err != nil {
		return nil, err
	}
	return s, nil
}

// ReportEvent posts {project, event_type, metadata}. A nil metadata is sent as {}.
func (c *Client) ReportEvent(ctx context.Context, project, eventType string, metadata map[string]any) (EventReceipt, error) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	var r EventReceipt
	event := Event{Project: project, EventType: eventType, Metadata: metadata}
	if err := c.do(ctx, http.MethodPost, "/user/events", nil, event, &r); err != nil {
		return nil, err
	}
	return r, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	token, err := c.tokens.GetValidAccessToken(ctx)
	if err != nil {
		return fmt.Errorf("[api %s %s] %w", method, path, err)
	}
	if token == "" {
		return fmt.Errorf("[api %s %s] %w", method, path, hubErrors.ErrMissingCredential)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return hubErrors.Wrapf(err, "[api %s %s] encode", method, path)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("[api %s %s] %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("[api %s %s] %w: %v", method, path, hubErrors.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("[api %s %s] %w", method, path, &hubErrors.HTTPError{StatusCode: resp.StatusCode, Body: string(data)})
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return hubErrors.Wrapf(err, "[api %s %s] decode", method, path)
	}
	return nil
}
