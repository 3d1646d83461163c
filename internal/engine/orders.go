package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"wineinventory/internal/domain"
	"wineinventory/internal/events"
	"wineinventory/internal/orders"
	"wineinventory/internal/repo"
)

// CreateOrder prices req against the stored catalog and persists the order
// with its event. Creation is serialized so code assignment sees every
// committed order.
func (e Engine) CreateOrder(ctx context.Context, req orders.Request) (domain.Order, error) {
	defer e.lock()()
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, err
	}
	defer tx.Rollback()

	catalog, err := e.Repo.ListCatalog(ctx, tx)
	if err != nil {
		return domain.Order{}, fmt.Errorf("load catalog: %w", err)
	}
	existing, err := e.Repo.ListOrders(ctx, tx, repo.OrderFilters{})
	if err != nil {
		return domain.Order{}, fmt.Errorf("load orders: %w", err)
	}
	o, err := e.config().OrderPricing().Build(req, orders.NewCatalogIndex(catalog), existing, e.now())
	if err != nil {
		return domain.Order{}, err
	}
	for _, prev := range existing {
		if prev.ID == o.ID {
			return domain.Order{}, domain.Invalid("order %s already exists", o.ID)
		}
	}
	taken, err := e.Repo.OrderCodeExists(ctx, tx, o.Code)
	if err != nil {
		return domain.Order{}, fmt.Errorf("check order code: %w", err)
	}
	if taken {
		return domain.Order{}, domain.Invalid("order code %s already exists", o.Code)
	}
	if err := e.Repo.InsertOrder(ctx, tx, o); err != nil {
		return domain.Order{}, err
	}
	if err := e.writer().Append(ctx, tx, events.OrderCreated, "order", o.ID, events.EventPayload{
		"code":  o.Code,
		"items": len(o.Items),
		"total": o.Total,
	}); err != nil {
		return domain.Order{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Order{}, err
	}
	e.log().WithFields(logrus.Fields{"order_id": o.ID, "code": o.Code, "total": o.Total}).Info("order created")
	return o, nil
}

func (e Engine) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	o, err := e.Repo.GetOrder(ctx, nil, id)
	if err != nil {
		return domain.Order{}, notFound(err, "order not found")
	}
	return o, nil
}

// OrderListOptions filters ListOrders. Year is matched against createdAt in
// the configured location; zero means any year.
type OrderListOptions struct {
	Status string
	Year   int
}

func (e Engine) ListOrders(ctx context.Context, opts OrderListOptions) ([]domain.Order, error) {
	if opts.Status != "" && !domain.OrderStatus(opts.Status).Valid() {
		return nil, domain.Invalid("invalid status %s", opts.Status)
	}
	list, err := e.Repo.ListOrders(ctx, nil, repo.OrderFilters{Status: opts.Status})
	if err != nil {
		return nil, err
	}
	if opts.Year == 0 {
		return list, nil
	}
	loc := e.location()
	res := make([]domain.Order, 0, len(list))
	for _, o := range list {
		t, err := domain.ParseTime(o.CreatedAt, loc)
		if err != nil || t.In(loc).Year() != opts.Year {
			continue
		}
		res = append(res, o)
	}
	return res, nil
}

// UpdateOrderStatus replaces the status of an existing order.
func (e Engine) UpdateOrderStatus(ctx context.Context, id, status string) (domain.Order, error) {
	defer e.lock()()
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, err
	}
	defer tx.Rollback()

	current, err := e.Repo.GetOrder(ctx, tx, strings.TrimSpace(id))
	if err != nil {
		return domain.Order{}, notFound(err, "order not found")
	}
	updated, err := orders.UpdateStatus(current, status)
	if err != nil {
		return domain.Order{}, err
	}
	if err := e.Repo.UpdateOrderStatus(ctx, tx, updated.ID, updated.Status); err != nil {
		return domain.Order{}, notFound(err, "order not found")
	}
	if err := e.writer().Append(ctx, tx, events.OrderStatusUpdated, "order", updated.ID, events.EventPayload{
		"from": current.Status,
		"to":   updated.Status,
	}); err != nil {
		return domain.Order{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Order{}, err
	}
	e.log().WithFields(logrus.Fields{"order_id": updated.ID, "status": updated.Status}).Info("order status updated")
	return updated, nil
}

func (e Engine) ListCatalog(ctx context.Context) ([]domain.CatalogItem, error) {
	return e.Repo.ListCatalog(ctx, nil)
}

func (e Engine) GetCatalogItem(ctx context.Context, id string) (domain.CatalogItem, error) {
	it, err := e.Repo.GetCatalogItem(ctx, id)
	if err != nil {
		return domain.CatalogItem{}, notFound(err, fmt.Sprintf("catalog item %s not found", id))
	}
	return it, nil
}
