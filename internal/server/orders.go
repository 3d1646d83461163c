package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"wineinventory/internal/domain"
	"wineinventory/internal/engine"
)

func (h handlers) registerCatalog(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-catalog",
		Method:      http.MethodGet,
		Path:        "/catalog",
		Summary:     "List catalog items",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.CatalogItem `json:"body"`
	}, error) {
		items, err := h.engine.ListCatalog(ctx)
		if err != nil {
			return nil, h.fail("list-catalog", err)
		}
		return &struct {
			Body []domain.CatalogItem `json:"body"`
		}{Body: nonNil(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-catalog-item",
		Method:      http.MethodGet,
		Path:        "/catalog/{id}",
		Summary:     "Get catalog item",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body domain.CatalogItem `json:"body"`
	}, error) {
		it, err := h.engine.GetCatalogItem(ctx, input.ID)
		if err != nil {
			return nil, h.fail("get-catalog-item", err)
		}
		return &struct {
			Body domain.CatalogItem `json:"body"`
		}{Body: it}, nil
	})
}

func (h handlers) registerOrders(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-order",
		Method:        http.MethodPost,
		Path:          "/orders",
		Summary:       "Price and create an order",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body CreateOrderRequest `json:"body"`
	}) (*struct {
		Body domain.Order `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required")
		}
		o, err := h.engine.CreateOrder(ctx, input.Body.toOrderRequest())
		if err != nil {
			return nil, h.fail("create-order", err)
		}
		h.metrics.OrdersCreated.WithLabelValues(string(o.Status)).Inc()
		return &struct {
			Body domain.Order `json:"body"`
		}{Body: o}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-orders",
		Method:      http.MethodGet,
		Path:        "/orders",
		Summary:     "List orders",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Status string `query:"status" enum:"pending,processing,completed,cancelled"`
		Year   int    `query:"year" minimum:"0"`
	}) (*struct {
		Body []domain.Order `json:"body"`
	}, error) {
		items, err := h.engine.ListOrders(ctx, engine.OrderListOptions{Status: input.Status, Year: input.Year})
		if err != nil {
			return nil, h.fail("list-orders", err)
		}
		return &struct {
			Body []domain.Order `json:"body"`
		}{Body: nonNil(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-order",
		Method:      http.MethodGet,
		Path:        "/orders/{id}",
		Summary:     "Get order",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body domain.Order `json:"body"`
	}, error) {
		o, err := h.engine.GetOrder(ctx, input.ID)
		if err != nil {
			return nil, h.fail("get-order", err)
		}
		return &struct {
			Body domain.Order `json:"body"`
		}{Body: o}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-order-status",
		Method:      http.MethodPatch,
		Path:        "/orders/{id}",
		Summary:     "Update order status",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID   string                   `path:"id"`
		Body UpdateOrderStatusRequest `json:"body"`
	}) (*struct {
		Body domain.Order `json:"body"`
	}, error) {
		if strings.TrimSpace(input.Body.Status) == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "status required")
		}
		o, err := h.engine.UpdateOrderStatus(ctx, input.ID, input.Body.Status)
		if err != nil {
			return nil, h.fail("update-order-status", err)
		}
		h.metrics.OrderStatus.WithLabelValues(string(o.Status)).Inc()
		return &struct {
			Body domain.Order `json:"body"`
		}{Body: o}, nil
	})
}
