// Package client is a small Basic-auth client for the anime API.
package client

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
	"time"

	"github.com/animedojo/anime-api/internal/animes"
	"github.com/animedojo/anime-api/internal/platform/httpx"
	"github.com/animedojo/anime-api/internal/shared"
)

// APIError is a non-2xx response decoded from the error payload.
type APIError struct {
	httpx.Payload
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("anime api: %d %s: %s", e.Status, e.Title, e.Details)
	}
	return fmt.Sprintf("anime api: %d %s", e.Status, e.Title)
}

// Client talks to the anime API with fixed credentials.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New constructs a client for baseURL, e.g. http://localhost:8080.
func New(baseURL, username, password string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListPage fetches one page of the listing.
func (c *Client) ListPage(ctx context.Context, page, size int, sort string) (shared.Page[animes.Anime], error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	if sort != "" {
		q.Set("sort", sort)
	}
	resp, err := c.do(ctx, http.MethodGet, "/animes?"+q.Encode(), nil)
	if err != nil {
		return shared.Page[animes.Anime]{}, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	return shared.DecodePage[animes.Anime](resp.Body)
}

// ListAll fetches every anime without paging.
func (c *Client) ListAll(ctx context.Context) ([]animes.Anime, error) {
	var out []animes.Anime
	if err := c.doJSON(ctx, http.MethodGet, "/animes/all", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches one anime by id.
func (c *Client) Get(ctx context.Context, id int64) (animes.Anime, error) {
	var out animes.Anime
	err := c.doJSON(ctx, http.MethodGet, "/animes/"+strconv.FormatInt(id, 10), nil, &out)
	return out, err
}

// Create posts a new anime and returns it with its assigned id.
func (c *Client) Create(ctx context.Context, name string) (animes.Anime, error) {
	var out animes.Anime
	err := c.doJSON(ctx, http.MethodPost, "/animes", animes.PostRequestBody{Name: name}, &out)
	return out, err
}

// Replace overwrites the name of an existing anime.
func (c *Client) Replace(ctx context.Context, anime animes.Anime) error {
	return c.doJSON(ctx, http.MethodPut, "/animes", animes.PutRequestBody{ID: anime.ID, Name: anime.Name}, nil)
}

// Delete removes an anime. Requires an ADMIN account.
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, "/animes/admin/"+strconv.FormatInt(id, 10), nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		defer func() {
			_ = resp.Body.Close()
		}()
		return nil, decodeError(resp)
	}
	return resp, nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err == nil && len(data) > 0 {
		err = json.Unmarshal(data, &apiErr.Payload)
	}
	if err != nil || len(data) == 0 {
		apiErr.Payload = httpx.Payload{Status: resp.StatusCode, Title: http.StatusText(resp.StatusCode)}
	}
	if apiErr.Status == 0 {
		apiErr.Status = resp.StatusCode
	}
	return apiErr
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
