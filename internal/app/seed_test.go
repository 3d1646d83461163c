package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"wineinventory/internal/app"
	"wineinventory/internal/config"
	"wineinventory/internal/engine"
	"wineinventory/internal/events"
	"wineinventory/internal/orders"
	"wineinventory/internal/repo"
)

func openEngine(t *testing.T) engine.Engine {
	t.Helper()
	eng, conn, err := app.Open(context.Background(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	cfg := config.Default()
	cfg.Pricing.Timezone = "UTC"
	eng.Config = cfg
	eng.Now = func() time.Time { return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC) }
	return eng
}

func TestSeedFillsEmptyWorkspaceOnce(t *testing.T) {
	eng := openEngine(t)
	ctx := context.Background()

	res, err := app.Seed(ctx, eng)
	require.NoError(t, err)
	require.Equal(t, app.SeedResult{Catalog: 5, Agents: 4, Crews: 3, Orders: 3}, res)

	again, err := app.Seed(ctx, eng)
	require.NoError(t, err)
	require.Equal(t, app.SeedResult{}, again)

	evts, err := eng.LatestEvents(ctx, 10, repo.EventFilters{Type: events.SeedApplied})
	require.NoError(t, err)
	require.Len(t, evts, 1)
	require.Equal(t, "workspace", evts[0].EntityKind)
}

func TestSeedDemoOrdersAreConsistent(t *testing.T) {
	eng := openEngine(t)
	ctx := context.Background()
	_, err := app.Seed(ctx, eng)
	require.NoError(t, err)

	list, err := eng.ListOrders(ctx, engine.OrderListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 3)

	codes := map[string]string{}
	for _, o := range list {
		codes[o.ID] = o.Code
		require.NotEmpty(t, o.Items)
		sum := decimal.Zero
		for _, it := range o.Items {
			line := decimal.NewFromFloat(it.UnitPrice).Mul(decimal.NewFromInt(int64(it.Quantity))).Round(2)
			require.True(t, line.Equal(decimal.NewFromFloat(it.LineTotal)), "line %s", it.ID)
			sum = sum.Add(line)
		}
		require.True(t, sum.Round(2).Equal(decimal.NewFromFloat(o.Subtotal)), "subtotal %s", o.ID)
		total := decimal.NewFromFloat(o.Subtotal).Add(decimal.NewFromFloat(o.Tax)).Round(2)
		require.True(t, total.Equal(decimal.NewFromFloat(o.Total)), "total %s", o.ID)
	}
	require.Equal(t, "WI-2025-001", codes["ord-0001"])
	require.Equal(t, "WI-2025-003", codes["ord-0003"])

	first, err := eng.GetOrder(ctx, "ord-0001")
	require.NoError(t, err)
	require.Equal(t, 191.89, first.Total)
	require.Equal(t, "processing", string(first.Status))

	next, err := eng.CreateOrder(ctx, orderFor("Bodega El Roble"))
	require.NoError(t, err)
	require.Equal(t, "WI-2025-004", next.Code)
}

func TestSeedSkipsOrdersWhenDisabled(t *testing.T) {
	eng := openEngine(t)
	eng.Config.Seed.Orders = false
	res, err := app.Seed(context.Background(), eng)
	require.NoError(t, err)
	require.Zero(t, res.Orders)
	require.Equal(t, 5, res.Catalog)
}

func orderFor(customer string) orders.Request {
	return orders.Request{
		CustomerName: customer,
		Items:        []orders.ItemRequest{{CatalogItemID: "wine-004", Quantity: 2}},
	}
}

func TestSeedNumbersDemoCodesPerYear(t *testing.T) {
	eng := openEngine(t)
	eng.Now = func() time.Time { return time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	_, err := app.Seed(ctx, eng)
	require.NoError(t, err)

	codes := map[string]string{}
	list, err := eng.ListOrders(ctx, engine.OrderListOptions{})
	require.NoError(t, err)
	for _, o := range list {
		codes[o.ID] = o.Code
	}
	require.Equal(t, "WI-2026-001", codes["ord-0001"])
	require.Equal(t, "WI-2025-001", codes["ord-0002"])
	require.Equal(t, "WI-2026-002", codes["ord-0003"])

	next, err := eng.CreateOrder(ctx, orderFor("Wine Lovers Club"))
	require.NoError(t, err)
	require.Equal(t, "WI-2026-003", next.Code)
}
