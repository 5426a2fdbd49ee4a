package grid

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/rebeliceyang/lazygrid/internal/metrics"
	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/query"
	"github.com/rebeliceyang/lazygrid/internal/source"
	"github.com/rebeliceyang/lazygrid/internal/window"
)

// Request is a page fetch issued by the grid. It carries everything Run
// needs so that the fetch can execute off the event loop.
type Request struct {
	Ticket   window.Ticket
	Params   query.Params
	Strategy models.Strategy
}

// Response is the outcome of running a Request
type Response struct {
	Request *Request
	Page    source.Page
	Err     error
	Elapsed time.Duration
}

// begin issues a ticket for page and builds its fetch parameters
func (g *Grid) begin(page int) *Request {
	t, ok := g.window.Begin(page)
	if !ok {
		return nil
	}
	req := &Request{
		Ticket:   t,
		Params:   query.ParamsFor(g.spec, t.Limit, t.Offset),
		Strategy: g.window.Strategy(),
	}
	g.logger.Debug("fetch requested",
		zap.String("request_id", t.RequestID),
		zap.Int("page", t.Page),
		zap.Int("offset", t.Offset),
	)
	return req
}

// Reload discards the materialized rows and fetches again: the first page
// when virtualized, the current page when paginated. Local grids are
// recomputed and nil is returned.
func (g *Grid) Reload() *Request {
	page := 0
	if g.window.Strategy() == models.Paginated {
		page = g.window.Page()
	}
	g.window.Reset()
	g.window.SetPage(page)
	if g.mode == models.Local {
		g.recompute()
		return nil
	}
	return g.begin(page)
}

// LoadMore requests the next virtualized page when the row at
// renderedIndex is near the end of the materialized rows
func (g *Grid) LoadMore(renderedIndex int) *Request {
	if g.mode != models.Remote || !g.window.NeedsMore(renderedIndex) {
		return nil
	}
	return g.begin(g.window.NextPage())
}

// GoToPage moves a paginated grid to page, clamped to the known page range.
// Virtualized grids ignore it.
func (g *Grid) GoToPage(page int) *Request {
	if g.window.Strategy() != models.Paginated {
		return nil
	}
	if n := g.window.PageCount(); g.window.Loaded() && n > 0 && page >= n {
		page = n - 1
	}
	if page < 0 {
		page = 0
	}
	if g.mode == models.Local {
		g.window.SetPage(page)
		g.recompute()
		return nil
	}
	return g.begin(page)
}

// Run performs the fetch for req. It does not touch grid state; pass the
// response to Apply on the event loop.
func (g *Grid) Run(ctx context.Context, req *Request) Response {
	resp := Response{Request: req}
	if req == nil {
		resp.Err = errors.New("nil request")
		return resp
	}
	if g.fetcher == nil {
		resp.Err = ErrNoFetcher
		return resp
	}
	start := g.clock.Now()
	resp.Page, resp.Err = g.fetcher.Fetch(ctx, req.Params)
	resp.Elapsed = g.since(start)
	return resp
}

// Apply merges a response into the window. Responses for superseded
// requests are discarded and Apply reports false. Successful pages
// reconcile local edits the source has caught up with.
func (g *Grid) Apply(resp Response) bool {
	req := resp.Request
	if req == nil {
		return false
	}
	strategy := req.Strategy.String()
	log := g.logger.With(zap.String("request_id", req.Ticket.RequestID))

	if resp.Err != nil {
		if !g.window.Fail(req.Ticket, resp.Err) {
			g.metrics.ObserveFetch(strategy, metrics.OutcomeStale, resp.Elapsed)
			log.Debug("discarding stale fetch error", zap.Error(resp.Err))
			return false
		}
		g.metrics.ObserveFetch(strategy, metrics.OutcomeError, resp.Elapsed)
		log.Warn("fetch failed", zap.Error(resp.Err), zap.Duration("elapsed", resp.Elapsed))
		return true
	}

	if !g.window.Merge(req.Ticket, resp.Page.Rows, resp.Page.Total) {
		g.metrics.ObserveFetch(strategy, metrics.OutcomeStale, resp.Elapsed)
		log.Debug("discarding stale page", zap.Int("page", req.Ticket.Page))
		return false
	}
	g.metrics.ObserveFetch(strategy, metrics.OutcomeSuccess, resp.Elapsed)
	g.metrics.AddRows(len(resp.Page.Rows))
	g.metrics.AddReconciled(g.edits.Reconcile(resp.Page.Rows))
	log.Debug("page merged",
		zap.Int("page", req.Ticket.Page),
		zap.Int("rows", len(resp.Page.Rows)),
		zap.Int("total", resp.Page.Total),
		zap.Duration("elapsed", resp.Elapsed),
	)
	return true
}

// Fetch runs req and applies the response synchronously. A nil request is
// a no-op.
func (g *Grid) Fetch(ctx context.Context, req *Request) error {
	if req == nil {
		return nil
	}
	resp := g.Run(ctx, req)
	g.Apply(resp)
	return resp.Err
}

// Refresh reloads the grid synchronously
func (g *Grid) Refresh(ctx context.Context) error {
	return g.Fetch(ctx, g.Reload())
}

// LoadAll fetches every remaining virtualized page synchronously. It is
// meant for headless use such as exporting the full result set.
func (g *Grid) LoadAll(ctx context.Context) error {
	if g.mode == models.Local {
		return nil
	}
	if !g.window.Loaded() {
		if err := g.Refresh(ctx); err != nil {
			return err
		}
	}
	for len(g.window.Rows()) < g.window.Total() {
		req := g.LoadMore(len(g.window.Rows()) - 1)
		if req == nil {
			return nil
		}
		before := len(g.window.Rows())
		if err := g.Fetch(ctx, req); err != nil {
			return err
		}
		if len(g.window.Rows()) == before {
			// the source returned nothing new; stop rather than loop
			return nil
		}
	}
	return nil
}
