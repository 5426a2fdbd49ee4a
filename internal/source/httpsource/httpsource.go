// Package httpsource fetches grid pages from an HTTP endpoint that accepts
// the grid's flat query parameters and answers with a JSON page.
package httpsource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/rebeliceyang/lazygrid/internal/cell"
	"github.com/rebeliceyang/lazygrid/internal/logger"
	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/query"
	"github.com/rebeliceyang/lazygrid/internal/source"
)

const sourceName = "http"

// maxBody caps how much of a response is read
const maxBody = 32 << 20

// Response is the page document served by the endpoint
type Response struct {
	Rows  []map[string]any `json:"rows"`
	Total int              `json:"total"`
}

// Fetcher requests pages from an endpoint
type Fetcher struct {
	endpoint *url.URL
	idField  string
	client   *http.Client
	logger   *zap.Logger
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithClient sets the HTTP client
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithTimeout sets the timeout of the default client
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.client = &http.Client{Timeout: d}
		}
	}
}

// WithIDField sets the field holding each row's identifier. Defaults to "id".
func WithIDField(name string) Option {
	return func(f *Fetcher) {
		if name != "" {
			f.idField = name
		}
	}
}

// WithLogger sets the fetcher's logger
func WithLogger(l *zap.Logger) Option {
	return func(f *Fetcher) { f.logger = logger.OrNop(l) }
}

// New creates a fetcher for endpoint
func New(endpoint string, opts ...Option) (*Fetcher, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid endpoint %q: scheme must be http or https", endpoint)
	}
	f := &Fetcher{
		endpoint: u,
		idField:  "id",
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Fetch performs a GET with p encoded in the query string
func (f *Fetcher) Fetch(ctx context.Context, p query.Params) (source.Page, error) {
	values, err := p.Values()
	if err != nil {
		return source.Page{}, &source.FetchError{Source: sourceName, Err: err}
	}
	u := *f.endpoint
	q := u.Query()
	for k, vs := range values {
		q[k] = vs
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return source.Page{}, &source.FetchError{Source: sourceName, Err: fmt.Errorf("failed to build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return source.Page{}, &source.FetchError{Source: sourceName, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return source.Page{}, &source.FetchError{Source: sourceName, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return source.Page{}, &source.FetchError{
			Source: sourceName,
			Err:    fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(body)),
		}
	}

	var doc Response
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return source.Page{}, &source.FetchError{Source: sourceName, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	rows := make([]models.Row, 0, len(doc.Rows))
	for i, values := range doc.Rows {
		id, ok := values[f.idField]
		if !ok || id == nil {
			return source.Page{}, &source.FetchError{
				Source: sourceName,
				Err:    fmt.Errorf("row %d has no %q field", p.Offset+i, f.idField),
			}
		}
		rows = append(rows, models.Row{ID: cell.String(id), Values: values})
	}

	f.logger.Debug("fetched page",
		zap.String("url", u.String()),
		zap.Int("rows", len(rows)),
		zap.Int("total", doc.Total),
		zap.Duration("elapsed", time.Since(start)),
	)
	return source.Page{Rows: rows, Total: doc.Total}, nil
}
