package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"wineinventory/internal/domain"
	"wineinventory/internal/engine"
	"wineinventory/internal/repo"
	"wineinventory/internal/tasks"
)

func (h handlers) registerReference(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-agents",
		Method:      http.MethodGet,
		Path:        "/agents",
		Summary:     "List agents",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.Agent `json:"body"`
	}, error) {
		items, err := h.engine.ListAgents(ctx)
		if err != nil {
			return nil, h.fail("list-agents", err)
		}
		return &struct {
			Body []domain.Agent `json:"body"`
		}{Body: nonNil(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-crews",
		Method:      http.MethodGet,
		Path:        "/crews",
		Summary:     "List crews",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.Crew `json:"body"`
	}, error) {
		items, err := h.engine.ListCrews(ctx)
		if err != nil {
			return nil, h.fail("list-crews", err)
		}
		return &struct {
			Body []domain.Crew `json:"body"`
		}{Body: nonNil(items)}, nil
	})
}

func (h handlers) registerTasks(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/tasks",
		Summary:       "Register a task",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body CreateTaskRequest `json:"body"`
	}) (*struct {
		Body domain.Task `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required")
		}
		t, err := h.engine.CreateTask(ctx, input.Body.toTaskRequest())
		if err != nil {
			return nil, h.fail("create-task", err)
		}
		h.metrics.TasksCreated.WithLabelValues(strconv.FormatInt(t.CrewID, 10)).Inc()
		return &struct {
			Body domain.Task `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/tasks",
		Summary:     "List tasks",
	}, func(ctx context.Context, input *struct {
		AgentID int64  `query:"agentId"`
		Status  string `query:"status" enum:"PENDING,RUNNING,FAILED,COMPLETED"`
	}) (*struct {
		Body []domain.Task `json:"body"`
	}, error) {
		items, err := h.engine.ListTasks(ctx, engine.TaskListOptions{AgentID: input.AgentID, Status: input.Status})
		if err != nil {
			return nil, h.fail("list-tasks", err)
		}
		return &struct {
			Body []domain.Task `json:"body"`
		}{Body: nonNil(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "task-kpis",
		Method:      http.MethodGet,
		Path:        "/tasks/kpis",
		Summary:     "Task KPIs per agent model",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []tasks.KPI `json:"body"`
	}, error) {
		kpis, err := h.engine.TaskKPIs(ctx)
		if err != nil {
			return nil, h.fail("task-kpis", err)
		}
		return &struct {
			Body []tasks.KPI `json:"body"`
		}{Body: nonNil(kpis)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "next-task",
		Method:      http.MethodGet,
		Path:        "/tasks/next",
		Summary:     "Oldest runnable pending task",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body tasks.NextTask `json:"body"`
	}, error) {
		next, err := h.engine.NextTask(ctx)
		if err != nil {
			return nil, h.fail("next-task", err)
		}
		return &struct {
			Body tasks.NextTask `json:"body"`
		}{Body: next}, nil
	})
}

func (h handlers) registerEvents(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "List recent events",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Type       string `query:"type"`
		EntityKind string `query:"entityKind" enum:"order,task,workspace"`
		EntityID   string `query:"entityId"`
		Limit      int    `query:"limit" default:"20"`
	}) (*struct {
		Body []EventResponse `json:"body"`
	}, error) {
		items, err := h.engine.LatestEvents(ctx, normalizeLimit(input.Limit), repo.EventFilters{
			Type:       input.Type,
			EntityKind: input.EntityKind,
			EntityID:   input.EntityID,
		})
		if err != nil {
			return nil, h.fail("list-events", err)
		}
		resp := make([]EventResponse, 0, len(items))
		for _, evt := range items {
			resp = append(resp, eventResponse(evt))
		}
		return &struct {
			Body []EventResponse `json:"body"`
		}{Body: resp}, nil
	})
}
