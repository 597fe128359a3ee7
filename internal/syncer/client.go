// Package syncer keeps the scheduling service's in-memory collections consistent
// with the remote store: startup fetch with cache and seed fallback, background
// resync, optimistic writes delivered through an outbox.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rc-medicall/backend/internal/storage/models"
)

// ErrRemoteStatus wraps every non-2xx answer from the remote store.
var ErrRemoteStatus = errors.New("remote store returned an error status")

// Snapshot is the full content of the remote store.
type Snapshot struct {
	Contacts   []models.Contact      `json:"contacts"`
	TimeOff    []models.TimeOffEvent `json:"timeOff"`
	Procedures []models.Procedure    `json:"procedures"`
}

// Client talks to the remote store API.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// NewClient creates a remote store client. Only reads are retried; writes are
// single attempts and any redelivery is the outbox's decision.
func NewClient(baseURL string, timeout time.Duration, readRetries int, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(readRetries).
		SetRetryWaitTime(250 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
				return false
			}
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		}).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		http:   client,
		logger: logger.Named("remote"),
	}
}

// FetchAll loads the three collections concurrently. Any failure fails the fetch.
func (c *Client) FetchAll(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return c.get(gctx, "/api/doctors", &snap.Contacts) })
	g.Go(func() error { return c.get(gctx, "/api/timeoff", &snap.TimeOff) })
	g.Go(func() error { return c.get(gctx, "/api/procedures", &snap.Procedures) })

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if snap.Contacts == nil {
		snap.Contacts = []models.Contact{}
	}
	if snap.TimeOff == nil {
		snap.TimeOff = []models.TimeOffEvent{}
	}
	if snap.Procedures == nil {
		snap.Procedures = []models.Procedure{}
	}
	return snap, nil
}

// UpsertContact writes one contact, visits included.
func (c *Client) UpsertContact(ctx context.Context, contact models.Contact) error {
	return c.send(ctx, http.MethodPost, "/api/doctors", contact)
}

// BulkUpsertContacts writes a batch of contacts in one request.
func (c *Client) BulkUpsertContacts(ctx context.Context, contacts []models.Contact) error {
	return c.send(ctx, http.MethodPost, "/api/doctors/bulk", contacts)
}

// DeleteContact removes a contact and, with it, its visits.
func (c *Client) DeleteContact(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/api/doctors/"+url.PathEscape(id), nil)
}

// ClearCategory removes every contact of a category.
func (c *Client) ClearCategory(ctx context.Context, category models.Category) error {
	return c.send(ctx, http.MethodDelete, "/api/doctors/clear/"+url.PathEscape(string(category)), nil)
}

// UpsertTimeOff writes one absence.
func (c *Client) UpsertTimeOff(ctx context.Context, t models.TimeOffEvent) error {
	return c.send(ctx, http.MethodPost, "/api/timeoff", t)
}

// DeleteTimeOff removes one absence.
func (c *Client) DeleteTimeOff(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/api/timeoff/"+url.PathEscape(id), nil)
}

// UpsertProcedure writes one procedure.
func (c *Client) UpsertProcedure(ctx context.Context, p models.Procedure) error {
	return c.send(ctx, http.MethodPost, "/api/procedures", p)
}

// DeleteProcedure removes one procedure.
func (c *Client) DeleteProcedure(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/api/procedures/"+url.PathEscape(id), nil)
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(result).
		Get(path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("GET %s: %w (status %d)", path, ErrRemoteStatus, resp.StatusCode())
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body any) error {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("%s %s: %w (status %d): %s", method, path, ErrRemoteStatus, resp.StatusCode(), resp.String())
	}

	c.logger.Debug("remote write delivered",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode()),
	)
	return nil
}
