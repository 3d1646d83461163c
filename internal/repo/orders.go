package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"wineinventory/internal/domain"
)

type OrderFilters struct {
	Status string
}

const orderColumns = `id,code,customer_name,COALESCE(customer_email,''),status,created_at,expected_delivery,COALESCE(notes,''),subtotal,tax,total`

func scanOrder(scan func(dest ...any) error) (domain.Order, error) {
	var o domain.Order
	err := scan(&o.ID, &o.Code, &o.CustomerName, &o.CustomerEmail, &o.Status, &o.CreatedAt, &o.ExpectedDelivery, &o.Notes, &o.Subtotal, &o.Tax, &o.Total)
	return o, err
}

// InsertOrder stores the order header and its items.
func (r Repo) InsertOrder(ctx context.Context, tx *sql.Tx, o domain.Order) error {
	q := r.q(tx)
	_, err := q.ExecContext(ctx, `INSERT INTO orders(id,code,customer_name,customer_email,status,created_at,expected_delivery,notes,subtotal,tax,total)
VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		o.ID, o.Code, o.CustomerName, nullable(o.CustomerEmail), string(o.Status), o.CreatedAt, o.ExpectedDelivery, nullable(o.Notes), o.Subtotal, o.Tax, o.Total)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	for i, it := range o.Items {
		snapshot, err := json.Marshal(it.CatalogItem)
		if err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, `INSERT INTO order_items(id,order_id,position,catalog_item_json,quantity,unit_price,line_total) VALUES (?,?,?,?,?,?,?)`,
			it.ID, o.ID, i+1, string(snapshot), it.Quantity, it.UnitPrice, it.LineTotal); err != nil {
			return fmt.Errorf("insert order item %s: %w", it.ID, err)
		}
	}
	return nil
}

func (r Repo) GetOrder(ctx context.Context, tx *sql.Tx, id string) (domain.Order, error) {
	q := r.q(tx)
	o, err := scanOrder(q.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=?`, id).Scan)
	if err == sql.ErrNoRows {
		return o, ErrNotFound
	}
	if err != nil {
		return o, err
	}
	items, err := r.listOrderItems(ctx, q, `WHERE order_id=?`, id)
	if err != nil {
		return o, err
	}
	o.Items = items[o.ID]
	return o, nil
}

func (r Repo) OrderCodeExists(ctx context.Context, tx *sql.Tx, code string) (bool, error) {
	var n int
	err := r.q(tx).QueryRowContext(ctx, `SELECT 1 FROM orders WHERE code=? LIMIT 1`, code).Scan(&n)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// ListOrders returns orders oldest first with their items.
func (r Repo) ListOrders(ctx context.Context, tx *sql.Tx, f OrderFilters) ([]domain.Order, error) {
	q := r.q(tx)
	var (
		clauses []string
		args    []any
	)
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	rows, err := q.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders `+where+` ORDER BY created_at ASC, code ASC`, args...)
	if err != nil {
		return nil, err
	}
	var res []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows.Scan)
		if err != nil {
			rows.Close()
			return nil, err
		}
		res = append(res, o)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()
	if len(res) == 0 {
		return res, nil
	}
	itemWhere := `WHERE order_id IN (SELECT id FROM orders ` + where + `)`
	items, err := r.listOrderItems(ctx, q, itemWhere, args...)
	if err != nil {
		return nil, err
	}
	for i := range res {
		res[i].Items = items[res[i].ID]
	}
	return res, nil
}

func (r Repo) listOrderItems(ctx context.Context, q querier, where string, args ...any) (map[string][]domain.OrderItem, error) {
	rows, err := q.QueryContext(ctx, `SELECT id,order_id,catalog_item_json,quantity,unit_price,line_total FROM order_items `+where+` ORDER BY order_id, position`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := map[string][]domain.OrderItem{}
	for rows.Next() {
		var (
			it       domain.OrderItem
			orderID  string
			snapshot string
		)
		if err := rows.Scan(&it.ID, &orderID, &snapshot, &it.Quantity, &it.UnitPrice, &it.LineTotal); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(snapshot), &it.CatalogItem); err != nil {
			return nil, fmt.Errorf("decode catalog snapshot for %s: %w", it.ID, err)
		}
		res[orderID] = append(res[orderID], it)
	}
	return res, rows.Err()
}

func (r Repo) UpdateOrderStatus(ctx context.Context, tx *sql.Tx, id string, status domain.OrderStatus) error {
	res, err := r.q(tx).ExecContext(ctx, `UPDATE orders SET status=? WHERE id=?`, string(status), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) CountOrders(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM orders`).Scan(&n)
	return n, err
}
