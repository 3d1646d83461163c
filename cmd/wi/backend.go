package main

import (
	"context"
	"time"

	"github.com/spf13/viper"

	"wineinventory/internal/app"
	"wineinventory/internal/client"
	"wineinventory/internal/domain"
	"wineinventory/internal/engine"
	"wineinventory/internal/orders"
	"wineinventory/internal/tasks"
)

// backend is what the order, catalog and task commands need. The local
// engine and the HTTP client both provide it.
type backend interface {
	ListCatalog(ctx context.Context) ([]domain.CatalogItem, error)
	CreateOrder(ctx context.Context, req orders.Request) (domain.Order, error)
	ListOrders(ctx context.Context, status string, year int) ([]domain.Order, error)
	GetOrder(ctx context.Context, id string) (domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id, status string) (domain.Order, error)
	ListAgents(ctx context.Context) ([]domain.Agent, error)
	ListCrews(ctx context.Context) ([]domain.Crew, error)
	CreateTask(ctx context.Context, req tasks.Request) (domain.Task, error)
	ListTasks(ctx context.Context, agentID int64) ([]domain.Task, error)
	TaskKPIs(ctx context.Context) ([]tasks.KPI, error)
	NextTask(ctx context.Context) (tasks.NextTask, error)
}

type localBackend struct {
	engine.Engine
}

func (b localBackend) ListOrders(ctx context.Context, status string, year int) ([]domain.Order, error) {
	return b.Engine.ListOrders(ctx, engine.OrderListOptions{Status: status, Year: year})
}

func (b localBackend) ListTasks(ctx context.Context, agentID int64) ([]domain.Task, error) {
	return b.Engine.ListTasks(ctx, engine.TaskListOptions{AgentID: agentID})
}

func withBackend(ctx context.Context, fn func(context.Context, backend) error) error {
	if url := viper.GetString("api-url"); url != "" {
		return fn(ctx, client.New(client.Config{BaseURL: url, Timeout: 10 * time.Second}))
	}
	return withEngine(ctx, func(ctx context.Context, e engine.Engine) error {
		return fn(ctx, localBackend{Engine: e})
	})
}

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	e, conn, err := app.Open(ctx, viper.GetString("workspace"))
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(ctx, e)
}
