package client_test

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"wineinventory/internal/app"
	"wineinventory/internal/client"
	"wineinventory/internal/config"
	"wineinventory/internal/db"
	"wineinventory/internal/domain"
	"wineinventory/internal/engine"
	"wineinventory/internal/migrate"
	"wineinventory/internal/orders"
	"wineinventory/internal/server"
	"wineinventory/internal/tasks"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newAPI(t *testing.T) *client.Client {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	_, err = migrate.Migrate(conn)
	require.NoError(t, err)
	cfg := config.Default()
	cfg.Pricing.Timezone = "UTC"
	cfg.Seed.Orders = false
	e := engine.New(conn, cfg)
	e.Log = quietLogger()
	e.Now = func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }
	_, err = app.Seed(context.Background(), e)
	require.NoError(t, err)
	handler, err := server.New(server.Config{Engine: e, Log: quietLogger()})
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return client.New(client.Config{BaseURL: srv.URL + "/api", Timeout: 5 * time.Second, Log: quietLogger()})
}

func TestClientOrders(t *testing.T) {
	c := newAPI(t)
	ctx := context.Background()
	require.NoError(t, c.Health(ctx))

	created, err := c.CreateOrder(ctx, orders.Request{
		CustomerName: "Restaurante La Vid",
		Items: []orders.ItemRequest{
			{CatalogItemID: "wine-001", Quantity: 6},
			{CatalogItem: &domain.CatalogItem{ID: "wine-003"}, Quantity: "3"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "WI-2025-001", created.Code)
	require.Equal(t, 191.89, created.Total)

	got, err := c.GetOrder(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created, got)

	updated, err := c.UpdateOrderStatus(ctx, created.ID, "processing")
	require.NoError(t, err)
	require.Equal(t, domain.OrderProcessing, updated.Status)

	list, err := c.ListOrders(ctx, "processing", 2025)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = c.CreateOrder(ctx, orders.Request{Items: []orders.ItemRequest{{CatalogItemID: "wine-001"}}})
	require.True(t, domain.IsValidation(err), "got %v", err)
	require.EqualError(t, err, "customer name required")
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "bad_request", apiErr.Code)

	_, err = c.GetOrder(ctx, "ord-missing")
	require.True(t, domain.IsNotFound(err), "got %v", err)

	items, err := c.ListCatalog(ctx)
	require.NoError(t, err)
	require.Len(t, items, 5)
	_, err = c.GetCatalogItem(ctx, "wine-404")
	require.True(t, domain.IsNotFound(err))
}

func TestClientTasks(t *testing.T) {
	c := newAPI(t)
	ctx := context.Background()

	agents, err := c.ListAgents(ctx)
	require.NoError(t, err)
	require.Len(t, agents, 4)
	crews, err := c.ListCrews(ctx)
	require.NoError(t, err)
	require.Len(t, crews, 3)

	_, err = c.NextTask(ctx)
	require.True(t, domain.IsNotFound(err))

	task, err := c.CreateTask(ctx, tasks.Request{AgentID: 2, CrewID: 1, Description: "label audit", EstimatedTokens: 900})
	require.NoError(t, err)
	require.Equal(t, domain.TaskPending, task.Status)

	_, err = c.CreateTask(ctx, tasks.Request{AgentID: 2, CrewID: 1, EstimatedTokens: 900})
	require.EqualError(t, err, "duplicate same-day task")

	list, err := c.ListTasks(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 1)

	kpis, err := c.TaskKPIs(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, kpis[1].OpenBacklog)

	next, err := c.NextTask(ctx)
	require.NoError(t, err)
	require.Equal(t, "Iris", next.AgentName)
}

func TestClientBreakerOpensOnDeadServer(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	c := client.New(client.Config{BaseURL: "http://" + addr + "/api", Timeout: time.Second, Log: quietLogger()})
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		err := c.Health(ctx)
		require.Error(t, err)
		require.NotContains(t, err.Error(), "server unavailable")
	}
	err = c.Health(ctx)
	require.ErrorContains(t, err, "server unavailable")
}
