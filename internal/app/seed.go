package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"wineinventory/internal/domain"
	"wineinventory/internal/engine"
	"wineinventory/internal/events"
	"wineinventory/internal/orders"
)

// SeedResult counts the rows Seed inserted.
type SeedResult struct {
	Catalog int `json:"catalog"`
	Agents  int `json:"agents"`
	Crews   int `json:"crews"`
	Orders  int `json:"orders"`
}

type demoLine struct {
	catalogIndex int
	quantity     int
}

type demoOrder struct {
	id              string
	customer        string
	email           string
	status          domain.OrderStatus
	createdDaysAgo  int
	deliveryFromNow int
	notes           string
	lines           []demoLine
}

var demoOrders = []demoOrder{
	{
		id: "ord-0001", customer: "Restaurante La Vid", email: "compras@lavid.com",
		status: domain.OrderProcessing, createdDaysAgo: 3, deliveryFromNow: 2,
		notes: "Entrega en horario matutino.",
		lines: []demoLine{{0, 6}, {2, 3}},
	},
	{
		id: "ord-0002", customer: "Bodega El Roble", email: "contacto@elroble.ar",
		status: domain.OrderCompleted, createdDaysAgo: 10, deliveryFromNow: -3,
		notes: "Pedido recurrente mensual.",
		lines: []demoLine{{1, 12}, {4, 8}},
	},
	{
		id: "ord-0003", customer: "Wine Lovers Club", email: "compras@wineloversclub.es",
		status: domain.OrderPending, createdDaysAgo: 1, deliveryFromNow: 5,
		notes: "Confirmar disponibilidad del Malbec 2019.",
		lines: []demoLine{{1, 20}},
	},
}

// Seed fills empty catalog, agent and crew tables from the config and, when
// enabled and no order exists yet, inserts the demo orders. Tables that
// already hold rows are left alone, so running it twice is harmless.
func Seed(ctx context.Context, e engine.Engine) (SeedResult, error) {
	var res SeedResult
	cfg := e.Config
	if cfg == nil {
		return res, fmt.Errorf("config not loaded")
	}
	catalogCount, err := e.Repo.CountCatalog(ctx)
	if err != nil {
		return res, err
	}
	agentCount, err := e.Repo.CountAgents(ctx)
	if err != nil {
		return res, err
	}
	crews, err := e.Repo.ListCrews(ctx)
	if err != nil {
		return res, err
	}
	orderCount, err := e.Repo.CountOrders(ctx)
	if err != nil {
		return res, err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer tx.Rollback()

	if catalogCount == 0 {
		for _, it := range cfg.Seed.Catalog {
			if err := e.Repo.InsertCatalogItem(ctx, tx, it); err != nil {
				return res, fmt.Errorf("seed catalog item %s: %w", it.ID, err)
			}
			res.Catalog++
		}
	}
	if agentCount == 0 {
		for _, a := range cfg.Seed.Agents {
			if err := e.Repo.InsertAgent(ctx, tx, a); err != nil {
				return res, fmt.Errorf("seed agent %d: %w", a.ID, err)
			}
			res.Agents++
		}
	}
	if len(crews) == 0 {
		for _, c := range cfg.Seed.Crews {
			if err := e.Repo.InsertCrew(ctx, tx, c); err != nil {
				return res, fmt.Errorf("seed crew %d: %w", c.ID, err)
			}
			res.Crews++
		}
	}
	if cfg.Seed.Orders && orderCount == 0 {
		catalog, err := e.Repo.ListCatalog(ctx, tx)
		if err != nil {
			return res, err
		}
		built, err := buildDemoOrders(cfg.OrderPricing(), catalog, now(e))
		if err != nil {
			return res, err
		}
		for _, o := range built {
			if err := e.Repo.InsertOrder(ctx, tx, o); err != nil {
				return res, fmt.Errorf("seed order %s: %w", o.ID, err)
			}
			res.Orders++
		}
	}
	if res == (SeedResult{}) {
		return res, nil
	}
	w := e.Events
	w.Now = e.Now
	if err := w.Append(ctx, tx, events.SeedApplied, "workspace", "", events.EventPayload{
		"catalog": res.Catalog,
		"agents":  res.Agents,
		"crews":   res.Crews,
		"orders":  res.Orders,
	}); err != nil {
		return res, err
	}
	if err := tx.Commit(); err != nil {
		return res, err
	}
	logrus.WithFields(logrus.Fields{
		"catalog": res.Catalog,
		"agents":  res.Agents,
		"crews":   res.Crews,
		"orders":  res.Orders,
	}).Info("seed applied")
	return res, nil
}

func now(e engine.Engine) time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// buildDemoOrders prices the demo orders through the regular order builder.
// Codes are numbered per creation year over the orders built so far.
// Lines pointing past the end of the catalog are skipped, and so are orders
// left without lines.
func buildDemoOrders(p orders.Pricing, catalog []domain.CatalogItem, at time.Time) ([]domain.Order, error) {
	idx := orders.NewCatalogIndex(catalog)
	var out []domain.Order
	for _, d := range demoOrders {
		var items []orders.ItemRequest
		for _, l := range d.lines {
			if l.catalogIndex >= len(catalog) {
				continue
			}
			items = append(items, orders.ItemRequest{
				CatalogItemID: catalog[l.catalogIndex].ID,
				Quantity:      l.quantity,
			})
		}
		if len(items) == 0 {
			continue
		}
		created := at.AddDate(0, 0, -d.createdDaysAgo)
		o, err := p.Build(orders.Request{
			ID:               d.id,
			CustomerName:     d.customer,
			CustomerEmail:    d.email,
			Notes:            d.notes,
			Status:           string(d.status),
			ExpectedDelivery: domain.FormatTime(at.AddDate(0, 0, d.deliveryFromNow)),
			Items:            items,
		}, idx, out, created)
		if err != nil {
			return nil, fmt.Errorf("build demo order %s: %w", d.id, err)
		}
		out = append(out, o)
	}
	return out, nil
}
