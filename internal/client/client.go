// Package client talks to a running wineinventory API over HTTP. Every call
// goes through a circuit breaker so a dead server fails fast after a few
// attempts instead of stalling each command on its timeout.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"wineinventory/internal/domain"
	"wineinventory/internal/orders"
	"wineinventory/internal/tasks"
)

const DefaultTimeout = 10 * time.Second

type Config struct {
	// BaseURL includes the API base path, e.g. http://127.0.0.1:3000/api.
	BaseURL string
	Timeout time.Duration
	Log     logrus.FieldLogger
}

type Client struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker
}

// APIError is a non-2xx answer from the server. It unwraps to the matching
// domain error so callers can test it with domain.IsValidation and friends.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return domain.ValidationError{Msg: e.Message}
	case http.StatusNotFound:
		return domain.NotFoundError{Msg: e.Message}
	}
	return nil
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "wineinventory-api",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"circuit": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	})
	return &Client{http: httpClient, breaker: breaker}
}

// do sends one request. Only transport failures and 5xx answers count
// against the breaker; 4xx answers are the caller's problem.
func (c *Client) do(ctx context.Context, method, path string, query map[string]string, body, out any) error {
	res, err := c.breaker.Execute(func() (interface{}, error) {
		req := c.http.R().SetContext(ctx).SetError(&errorBody{})
		if len(query) > 0 {
			req.SetQueryParams(query)
		}
		if body != nil {
			req.SetHeader("Content-Type", "application/json").SetBody(body)
		}
		if out != nil {
			req.SetResult(out)
		}
		resp, err := req.Execute(method, path)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, path, err)
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return nil, apiError(resp)
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("server unavailable: %w", err)
		}
		return err
	}
	resp := res.(*resty.Response)
	if resp.IsError() {
		return apiError(resp)
	}
	return nil
}

func apiError(resp *resty.Response) error {
	e := &APIError{Status: resp.StatusCode()}
	if body, ok := resp.Error().(*errorBody); ok && body != nil {
		e.Message = body.Error
		e.Code = body.Code
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(resp.String())
	}
	return e
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

func (c *Client) ListCatalog(ctx context.Context) ([]domain.CatalogItem, error) {
	var out []domain.CatalogItem
	err := c.do(ctx, http.MethodGet, "/catalog", nil, nil, &out)
	return out, err
}

func (c *Client) GetCatalogItem(ctx context.Context, id string) (domain.CatalogItem, error) {
	var out domain.CatalogItem
	err := c.do(ctx, http.MethodGet, "/catalog/"+id, nil, nil, &out)
	return out, err
}

type orderItemBody struct {
	CatalogItemID string `json:"catalogItemId,omitempty"`
	Quantity      any    `json:"quantity,omitempty"`
	UnitPrice     any    `json:"unitPrice,omitempty"`
}

type orderBody struct {
	ID               string          `json:"id,omitempty"`
	Code             string          `json:"code,omitempty"`
	CustomerName     string          `json:"customerName,omitempty"`
	CustomerEmail    string          `json:"customerEmail,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	Status           string          `json:"status,omitempty"`
	ExpectedDelivery string          `json:"expectedDelivery,omitempty"`
	Items            []orderItemBody `json:"items"`
}

func (c *Client) CreateOrder(ctx context.Context, req orders.Request) (domain.Order, error) {
	body := orderBody{
		ID:               req.ID,
		Code:             req.Code,
		CustomerName:     req.CustomerName,
		CustomerEmail:    req.CustomerEmail,
		Notes:            req.Notes,
		Status:           req.Status,
		ExpectedDelivery: req.ExpectedDelivery,
		Items:            make([]orderItemBody, 0, len(req.Items)),
	}
	for _, it := range req.Items {
		ref := it.CatalogItemID
		if ref == "" && it.CatalogItem != nil {
			ref = it.CatalogItem.ID
		}
		body.Items = append(body.Items, orderItemBody{CatalogItemID: ref, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	var out domain.Order
	err := c.do(ctx, http.MethodPost, "/orders", nil, body, &out)
	return out, err
}

func (c *Client) ListOrders(ctx context.Context, status string, year int) ([]domain.Order, error) {
	query := map[string]string{}
	if status != "" {
		query["status"] = status
	}
	if year > 0 {
		query["year"] = strconv.Itoa(year)
	}
	var out []domain.Order
	err := c.do(ctx, http.MethodGet, "/orders", query, nil, &out)
	return out, err
}

func (c *Client) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	var out domain.Order
	err := c.do(ctx, http.MethodGet, "/orders/"+id, nil, nil, &out)
	return out, err
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id, status string) (domain.Order, error) {
	var out domain.Order
	err := c.do(ctx, http.MethodPatch, "/orders/"+id, nil, map[string]string{"status": status}, &out)
	return out, err
}

func (c *Client) ListAgents(ctx context.Context) ([]domain.Agent, error) {
	var out []domain.Agent
	err := c.do(ctx, http.MethodGet, "/agents", nil, nil, &out)
	return out, err
}

func (c *Client) ListCrews(ctx context.Context) ([]domain.Crew, error) {
	var out []domain.Crew
	err := c.do(ctx, http.MethodGet, "/crews", nil, nil, &out)
	return out, err
}

func (c *Client) CreateTask(ctx context.Context, req tasks.Request) (domain.Task, error) {
	body := map[string]any{
		"agentId":         req.AgentID,
		"crewId":          req.CrewID,
		"description":     req.Description,
		"estimatedTokens": req.EstimatedTokens,
	}
	var out domain.Task
	err := c.do(ctx, http.MethodPost, "/tasks", nil, body, &out)
	return out, err
}

func (c *Client) ListTasks(ctx context.Context, agentID int64) ([]domain.Task, error) {
	query := map[string]string{}
	if agentID != 0 {
		query["agentId"] = strconv.FormatInt(agentID, 10)
	}
	var out []domain.Task
	err := c.do(ctx, http.MethodGet, "/tasks", query, nil, &out)
	return out, err
}

func (c *Client) TaskKPIs(ctx context.Context) ([]tasks.KPI, error) {
	var out []tasks.KPI
	err := c.do(ctx, http.MethodGet, "/tasks/kpis", nil, nil, &out)
	return out, err
}

func (c *Client) NextTask(ctx context.Context) (tasks.NextTask, error) {
	var out tasks.NextTask
	err := c.do(ctx, http.MethodGet, "/tasks/next", nil, nil, &out)
	return out, err
}
