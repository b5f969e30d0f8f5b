// Package backend is the client for the remote accounting and company REST API.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	pathCompanies   = "/company/companies/"
	pathWings       = "/company/wings/"
	pathCompanyTree = "/company/info/tree/"
	pathAccounts    = "/accounting/accounts/"
	pathJournals    = "/accounting/journals/"
	pathJournal     = "/accounting/journals/{id}/"
)

// Config configures the API client.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Observer receives one call per finished request. status is 0 when no
// response arrived.
type Observer interface {
	ObserveUpstream(op string, status int, elapsed time.Duration)
}

// Client talks to the remote API. Calls are never retried automatically; the
// caller decides whether to try again.
type Client struct {
	http     *resty.Client
	logger   *slog.Logger
	observer Observer
}

// NewClient constructs a Client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		httpClient.SetAuthToken(cfg.Token)
	}
	return &Client{http: httpClient, logger: logger}
}

// WithObserver installs o for request instrumentation.
func (c *Client) WithObserver(o Observer) *Client {
	c.observer = o
	return c
}

// ListCompanies returns companies and groups.
func (c *Client) ListCompanies(ctx context.Context) ([]Company, error) {
	body, err := c.get(ctx, "list companies", pathCompanies, nil)
	if err != nil {
		return nil, err
	}
	companies, err := decodeList[Company](body)
	if err != nil {
		return nil, fmt.Errorf("backend: decode companies: %w", err)
	}
	return companies, nil
}

// ListWings returns branches.
func (c *Client) ListWings(ctx context.Context) ([]Wing, error) {
	body, err := c.get(ctx, "list wings", pathWings, nil)
	if err != nil {
		return nil, err
	}
	wings, err := decodeList[Wing](body)
	if err != nil {
		return nil, fmt.Errorf("backend: decode wings: %w", err)
	}
	return wings, nil
}

// CompanyTree returns the root company descriptor.
func (c *Client) CompanyTree(ctx context.Context) (*CompanyTree, error) {
	body, err := c.get(ctx, "company tree", pathCompanyTree, nil)
	if err != nil {
		return nil, err
	}
	var tree CompanyTree
	if err := json.Unmarshal(body, &tree); err != nil {
		return nil, fmt.Errorf("backend: decode company tree: %w", err)
	}
	return &tree, nil
}

// ListAccounts returns the ledger accounts available under filter.
func (c *Client) ListAccounts(ctx context.Context, filter AccountFilter) ([]Account, error) {
	params := map[string]string{"company_uuid": filter.CompanyUUID}
	if filter.WingUUID != "" {
		params["wing_uuid"] = filter.WingUUID
	}
	body, err := c.get(ctx, "list accounts", pathAccounts, params)
	if err != nil {
		return nil, err
	}
	accounts, err := decodeList[Account](body)
	if err != nil {
		return nil, fmt.Errorf("backend: decode accounts: %w", err)
	}
	return accounts, nil
}

// ListJournals returns journals matching filter.
func (c *Client) ListJournals(ctx context.Context, filter JournalFilter) ([]Journal, error) {
	body, err := c.get(ctx, "list journals", pathJournals, filter.params())
	if err != nil {
		return nil, err
	}
	journals, err := decodeList[Journal](body)
	if err != nil {
		return nil, fmt.Errorf("backend: decode journals: %w", err)
	}
	return journals, nil
}

// GetJournal loads one journal.
func (c *Client) GetJournal(ctx context.Context, id string) (Journal, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		Get(pathJournal)
	body, err := c.check("get journal", resp, err)
	if err != nil {
		return Journal{}, err
	}
	return decodeJournal(body)
}

// CreateJournal posts a new journal.
func (c *Client) CreateJournal(ctx context.Context, payload JournalPayload) (Journal, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		Post(pathJournals)
	body, err := c.check("create journal", resp, err)
	if err != nil {
		return Journal{}, err
	}
	return decodeJournal(body)
}

// UpdateJournal replaces an existing journal.
func (c *Client) UpdateJournal(ctx context.Context, id string, payload JournalPayload) (Journal, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetBody(payload).
		Put(pathJournal)
	body, err := c.check("update journal", resp, err)
	if err != nil {
		return Journal{}, err
	}
	return decodeJournal(body)
}

func (c *Client) get(ctx context.Context, op, path string, params map[string]string) ([]byte, error) {
	req := c.http.R().SetContext(ctx)
	if len(params) > 0 {
		req.SetQueryParams(params)
	}
	resp, err := req.Get(path)
	return c.check(op, resp, err)
}

func (c *Client) check(op string, resp *resty.Response, err error) ([]byte, error) {
	c.observe(op, resp, err)
	if err != nil {
		c.logger.Warn("backend request failed", slog.String("op", op), slog.Any("error", err))
		return nil, &TransportError{Op: op, Err: err}
	}
	if resp == nil {
		return nil, &TransportError{Op: op, Err: errors.New("empty response")}
	}
	if resp.IsError() || resp.StatusCode() >= http.StatusMultipleChoices {
		apiErr := newAPIError(op, resp.StatusCode(), resp.Body())
		c.logger.Info("backend rejected request", slog.String("op", op), slog.Int("status", apiErr.Status))
		return nil, apiErr
	}
	return resp.Body(), nil
}

func decodeJournal(body []byte) (Journal, error) {
	var journal Journal
	if len(body) == 0 {
		return journal, nil
	}
	if err := json.Unmarshal(body, &journal); err != nil {
		return Journal{}, fmt.Errorf("backend: decode journal: %w", err)
	}
	return journal, nil
}

func (c *Client) observe(op string, resp *resty.Response, err error) {
	if c.observer == nil {
		return
	}
	status := 0
	var elapsed time.Duration
	if resp != nil {
		elapsed = resp.Time()
		if err == nil {
			status = resp.StatusCode()
		}
	}
	c.observer.ObserveUpstream(op, status, elapsed)
}
