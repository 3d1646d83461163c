// Package orders prices and assembles orders. It holds no state: catalog and
// existing orders are handed in by the caller, which also owns persistence.
package orders

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"wineinventory/internal/domain"
)

const (
	DefaultTaxRate      = 0.19
	DefaultDeliveryDays = 4
	DefaultCodePrefix   = "WI"
)

// Request is the raw order submission.
type Request struct {
	ID               string
	Code             string
	CustomerName     string
	CustomerEmail    string
	Notes            string
	Status           string
	ExpectedDelivery string
	Items            []ItemRequest
}

// ItemRequest references a catalog item either directly or through a nested
// object. Quantity and UnitPrice are left loosely typed because clients send
// numbers, numeric strings or nothing at all.
type ItemRequest struct {
	CatalogItemID string
	CatalogItem   *domain.CatalogItem
	Quantity      any
	UnitPrice     any
}

// Catalog resolves catalog items by id.
type Catalog interface {
	FindCatalogItem(id string) (domain.CatalogItem, bool)
}

// CatalogIndex is an in-memory Catalog.
type CatalogIndex map[string]domain.CatalogItem

func NewCatalogIndex(items []domain.CatalogItem) CatalogIndex {
	idx := make(CatalogIndex, len(items))
	for _, it := range items {
		idx[it.ID] = it
	}
	return idx
}

func (c CatalogIndex) FindCatalogItem(id string) (domain.CatalogItem, bool) {
	it, ok := c[id]
	return it, ok
}

// Pricing carries the knobs of order assembly.
type Pricing struct {
	TaxRate      float64
	DeliveryDays int
	CodePrefix   string
	Location     *time.Location
}

func DefaultPricing() Pricing {
	return Pricing{
		TaxRate:      DefaultTaxRate,
		DeliveryDays: DefaultDeliveryDays,
		CodePrefix:   DefaultCodePrefix,
		Location:     time.Local,
	}
}

func (p Pricing) location() *time.Location {
	if p.Location != nil {
		return p.Location
	}
	return time.Local
}

func (p Pricing) prefix() string {
	if p.CodePrefix != "" {
		return p.CodePrefix
	}
	return DefaultCodePrefix
}

// Build validates req against catalog and assembles a complete order. The
// existing orders are only read to pick the next sequential code. Nothing is
// returned but the error when any step fails.
func (p Pricing) Build(req Request, catalog Catalog, existing []domain.Order, now time.Time) (domain.Order, error) {
	customer := strings.TrimSpace(req.CustomerName)
	if customer == "" {
		return domain.Order{}, domain.Invalid("customer name required")
	}
	if len(req.Items) == 0 {
		return domain.Order{}, domain.Invalid("items required")
	}
	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = NewOrderID()
	}
	items, err := BuildItems(id, req.Items, catalog)
	if err != nil {
		return domain.Order{}, err
	}
	subtotal, tax, total := p.Totals(items)
	status := domain.OrderPending
	if req.Status != "" {
		status = domain.OrderStatus(req.Status)
		if !status.Valid() {
			return domain.Order{}, domain.Invalid("invalid status %s", req.Status)
		}
	}

	created := now.In(p.location())
	code := strings.TrimSpace(req.Code)
	if code == "" {
		code = NextCode(p.prefix(), created.Year(), existing, p.location())
	}
	expected := created.AddDate(0, 0, p.DeliveryDays)
	if raw := strings.TrimSpace(req.ExpectedDelivery); raw != "" {
		expected, err = domain.ParseTime(raw, p.location())
		if err != nil {
			return domain.Order{}, domain.Invalid("invalid date")
		}
	}

	return domain.Order{
		ID:               id,
		Code:             code,
		CustomerName:     customer,
		CustomerEmail:    strings.TrimSpace(req.CustomerEmail),
		Status:           status,
		CreatedAt:        domain.FormatTime(created),
		ExpectedDelivery: domain.FormatTime(expected),
		Notes:            req.Notes,
		Items:            items,
		Subtotal:         subtotal,
		Tax:              tax,
		Total:            total,
	}, nil
}

// BuildItems resolves every requested line against the catalog.
func BuildItems(orderID string, raw []ItemRequest, catalog Catalog) ([]domain.OrderItem, error) {
	items := make([]domain.OrderItem, 0, len(raw))
	for i, r := range raw {
		pos := i + 1
		ref := strings.TrimSpace(r.CatalogItemID)
		if ref == "" && r.CatalogItem != nil {
			ref = strings.TrimSpace(r.CatalogItem.ID)
		}
		if ref == "" {
			return nil, domain.Invalid("invalid catalog reference at position %d", pos)
		}
		ci, ok := catalog.FindCatalogItem(ref)
		if !ok {
			return nil, domain.Invalid("catalog item %s not found", ref)
		}
		qty := NormalizeQuantity(r.Quantity)
		price := UnitPrice(r.UnitPrice, ci.Price)
		items = append(items, domain.OrderItem{
			ID:          orderID + "-item-" + strconv.Itoa(pos),
			CatalogItem: ci,
			Quantity:    qty,
			UnitPrice:   price,
			LineTotal:   LineTotal(price, qty),
		})
	}
	return items, nil
}

// Totals sums line totals and derives tax and total, both rounded to cents.
func (p Pricing) Totals(items []domain.OrderItem) (subtotal, tax, total float64) {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(decimal.NewFromFloat(it.LineTotal))
	}
	t := Round2(sum.Mul(decimal.NewFromFloat(p.TaxRate)))
	return sum.InexactFloat64(), t.InexactFloat64(), Round2(sum.Add(t)).InexactFloat64()
}

// LineTotal is unitPrice*quantity rounded to cents.
func LineTotal(unitPrice float64, quantity int) float64 {
	return Round2(decimal.NewFromFloat(unitPrice).Mul(decimal.NewFromInt(int64(quantity)))).InexactFloat64()
}

// Round2 rounds half away from zero to two places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// NormalizeQuantity coerces v to a whole quantity of at least one.
func NormalizeQuantity(v any) int {
	f, ok := toNumber(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 1
	}
	q := math.Floor(f)
	switch {
	case q < 1:
		return 1
	case q > math.MaxInt32:
		return math.MaxInt32
	}
	return int(q)
}

// UnitPrice picks a positive explicit override, else the catalog price, else 0.
func UnitPrice(override any, catalogPrice float64) float64 {
	if f, ok := toNumber(override); ok && !math.IsNaN(f) && !math.IsInf(f, 0) && f > 0 {
		return f
	}
	if catalogPrice > 0 {
		return catalogPrice
	}
	return 0
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
