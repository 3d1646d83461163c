package server

import (
	"encoding/json"

	"wineinventory/internal/domain"
	"wineinventory/internal/orders"
	"wineinventory/internal/tasks"
)

// Request payloads. Fields are optional at the schema level so that the
// business rules report missing values with their own messages.

type CatalogRef struct {
	_  struct{} `json:"-" additionalProperties:"true"`
	ID string   `json:"id,omitempty"`
}

type OrderItemRequest struct {
	_             struct{}    `json:"-" additionalProperties:"true"`
	CatalogItemID string      `json:"catalogItemId,omitempty"`
	CatalogItem   *CatalogRef `json:"catalogItem,omitempty"`
	Quantity      any         `json:"quantity,omitempty" doc:"Number or numeric string; invalid values count as 1"`
	UnitPrice     any         `json:"unitPrice,omitempty" doc:"Optional positive override of the catalog price"`
}

type CreateOrderRequest struct {
	_                struct{}           `json:"-" additionalProperties:"true"`
	ID               string             `json:"id,omitempty"`
	Code             string             `json:"code,omitempty"`
	CustomerName     string             `json:"customerName,omitempty"`
	CustomerEmail    string             `json:"customerEmail,omitempty"`
	Notes            string             `json:"notes,omitempty"`
	Status           string             `json:"status,omitempty"`
	ExpectedDelivery string             `json:"expectedDelivery,omitempty"`
	Items            []OrderItemRequest `json:"items,omitempty"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status,omitempty" example:"processing"`
}

type CreateTaskRequest struct {
	_               struct{} `json:"-" additionalProperties:"true"`
	AgentID         int64    `json:"agentId,omitempty"`
	CrewID          int64    `json:"crewId,omitempty"`
	Description     string   `json:"description,omitempty"`
	EstimatedTokens int      `json:"estimatedTokens,omitempty"`
}

// Response payloads

type EventResponse struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entityKind"`
	EntityID   string `json:"entityId,omitempty"`
	Payload    any    `json:"payload"`
}

func (r CreateOrderRequest) toOrderRequest() orders.Request {
	req := orders.Request{
		ID:               r.ID,
		Code:             r.Code,
		CustomerName:     r.CustomerName,
		CustomerEmail:    r.CustomerEmail,
		Notes:            r.Notes,
		Status:           r.Status,
		ExpectedDelivery: r.ExpectedDelivery,
		Items:            make([]orders.ItemRequest, 0, len(r.Items)),
	}
	for _, it := range r.Items {
		item := orders.ItemRequest{
			CatalogItemID: it.CatalogItemID,
			Quantity:      it.Quantity,
			UnitPrice:     it.UnitPrice,
		}
		if it.CatalogItem != nil {
			item.CatalogItem = &domain.CatalogItem{ID: it.CatalogItem.ID}
		}
		req.Items = append(req.Items, item)
	}
	return req
}

func (r CreateTaskRequest) toTaskRequest() tasks.Request {
	return tasks.Request{
		AgentID:         r.AgentID,
		CrewID:          r.CrewID,
		Description:     r.Description,
		EstimatedTokens: r.EstimatedTokens,
	}
}

func eventResponse(e domain.Event) EventResponse {
	var payload any = map[string]any{}
	if e.Payload != "" {
		var decoded any
		if err := json.Unmarshal([]byte(e.Payload), &decoded); err == nil {
			payload = decoded
		}
	}
	return EventResponse{
		ID:         e.ID,
		TS:         e.TS,
		Type:       e.Type,
		EntityKind: e.EntityKind,
		EntityID:   e.EntityID,
		Payload:    payload,
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
