package orders_test

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"wineinventory/internal/domain"
	"wineinventory/internal/orders"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func testPricing() orders.Pricing {
	p := orders.DefaultPricing()
	p.Location = time.UTC
	return p
}

func testCatalog() orders.CatalogIndex {
	return orders.NewCatalogIndex([]domain.CatalogItem{
		{ID: "wine-001", Name: "Malbec Reserva 2019", Price: 18.5},
		{ID: "wine-002", Name: "Cabernet Sauvignon 2020", Price: 22.9},
		{ID: "wine-003", Name: "Chardonnay Barrica 2021", Price: 16.75},
		{ID: "wine-free", Name: "Tasting sample", Price: 0},
	})
}

func TestBuildPricesOrder(t *testing.T) {
	o, err := testPricing().Build(orders.Request{
		CustomerName:  "  Restaurante La Vid ",
		CustomerEmail: "compras@lavid.com",
		Items: []orders.ItemRequest{
			{CatalogItemID: "wine-001", Quantity: 6},
			{CatalogItem: &domain.CatalogItem{ID: "wine-003"}, Quantity: "3"},
		},
	}, testCatalog(), nil, testNow)
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(o.ID, "ord-"), o.ID)
	require.Equal(t, "WI-2025-001", o.Code)
	require.Equal(t, "Restaurante La Vid", o.CustomerName)
	require.Equal(t, domain.OrderPending, o.Status)
	require.Equal(t, "2025-03-10T12:00:00.000Z", o.CreatedAt)
	require.Equal(t, "2025-03-14T12:00:00.000Z", o.ExpectedDelivery)

	require.Len(t, o.Items, 2)
	require.Equal(t, o.ID+"-item-1", o.Items[0].ID)
	require.Equal(t, o.ID+"-item-2", o.Items[1].ID)
	require.Equal(t, "Chardonnay Barrica 2021", o.Items[1].CatalogItem.Name)
	require.Equal(t, 111.0, o.Items[0].LineTotal)
	require.Equal(t, 50.25, o.Items[1].LineTotal)

	require.Equal(t, 161.25, o.Subtotal)
	require.Equal(t, 30.64, o.Tax)
	require.Equal(t, 191.89, o.Total)
}

func TestBuildKeepsProvidedFields(t *testing.T) {
	o, err := testPricing().Build(orders.Request{
		ID:               "ord-fixed",
		Code:             "WI-2025-042",
		CustomerName:     "Bodega El Roble",
		Status:           "processing",
		ExpectedDelivery: "2025-04-01",
		Notes:            "Pedido recurrente mensual.",
		Items:            []orders.ItemRequest{{CatalogItemID: "wine-002", Quantity: 12}},
	}, testCatalog(), nil, testNow)
	require.NoError(t, err)
	require.Equal(t, "ord-fixed", o.ID)
	require.Equal(t, "WI-2025-042", o.Code)
	require.Equal(t, domain.OrderProcessing, o.Status)
	require.Equal(t, "2025-04-01T00:00:00.000Z", o.ExpectedDelivery)
	require.Equal(t, "ord-fixed-item-1", o.Items[0].ID)
	require.Equal(t, 274.8, o.Items[0].LineTotal)
}

func TestBuildRejects(t *testing.T) {
	cases := []struct {
		name string
		req  orders.Request
		msg  string
	}{
		{
			name: "blank customer",
			req:  orders.Request{CustomerName: "   ", Items: []orders.ItemRequest{{CatalogItemID: "wine-001"}}},
			msg:  "customer name required",
		},
		{
			name: "no items",
			req:  orders.Request{CustomerName: "Wine Lovers Club"},
			msg:  "items required",
		},
		{
			name: "missing reference",
			req: orders.Request{CustomerName: "Wine Lovers Club", Items: []orders.ItemRequest{
				{CatalogItemID: "wine-001"},
				{Quantity: 2},
			}},
			msg: "invalid catalog reference at position 2",
		},
		{
			name: "unknown catalog item",
			req:  orders.Request{CustomerName: "Wine Lovers Club", Items: []orders.ItemRequest{{CatalogItemID: "wine-999"}}},
			msg:  "catalog item wine-999 not found",
		},
		{
			name: "unknown status",
			req:  orders.Request{CustomerName: "Wine Lovers Club", Status: "shipped", Items: []orders.ItemRequest{{CatalogItemID: "wine-001"}}},
			msg:  "invalid status shipped",
		},
		{
			name: "bad delivery date",
			req:  orders.Request{CustomerName: "Wine Lovers Club", ExpectedDelivery: "next tuesday", Items: []orders.ItemRequest{{CatalogItemID: "wine-001"}}},
			msg:  "invalid date",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o, err := testPricing().Build(tc.req, testCatalog(), nil, testNow)
			require.Error(t, err)
			require.True(t, domain.IsValidation(err), "expected validation error, got %T", err)
			require.Equal(t, tc.msg, err.Error())
			require.Equal(t, domain.Order{}, o)
		})
	}
}

func TestNormalizeQuantity(t *testing.T) {
	cases := []struct {
		in   any
		want int
	}{
		{0, 1},
		{-1, 1},
		{"abc", 1},
		{nil, 1},
		{"", 1},
		{3.7, 3},
		{0.5, 1},
		{"2", 2},
		{json.Number("4"), 4},
		{math.NaN(), 1},
		{math.Inf(1), 1},
		{12, 12},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, orders.NormalizeQuantity(tc.in), "input %#v", tc.in)
	}
}

func TestUnitPrice(t *testing.T) {
	require.Equal(t, 19.9, orders.UnitPrice("19.90", 18.5))
	require.Equal(t, 21.0, orders.UnitPrice(21, 18.5))
	require.Equal(t, 18.5, orders.UnitPrice(0, 18.5))
	require.Equal(t, 18.5, orders.UnitPrice(-5, 18.5))
	require.Equal(t, 18.5, orders.UnitPrice("free", 18.5))
	require.Equal(t, 18.5, orders.UnitPrice(nil, 18.5))
	require.Equal(t, 0.0, orders.UnitPrice(nil, 0))
}

// Line totals round the decimal value half away from zero, so a price like
// 1.005 lands on 1.01 rather than the binary float's 1.00.
func TestLineTotalRoundsHalfCentsUp(t *testing.T) {
	require.Equal(t, 1.01, orders.LineTotal(1.005, 1))
	require.Equal(t, 1.02, orders.LineTotal(1.015, 1))
	require.Equal(t, 2.01, orders.LineTotal(0.335, 6))
	require.Equal(t, 111.0, orders.LineTotal(18.5, 6))
}

func TestBuildZeroPricedOrder(t *testing.T) {
	o, err := testPricing().Build(orders.Request{
		CustomerName: "Wine Lovers Club",
		Items:        []orders.ItemRequest{{CatalogItemID: "wine-free", Quantity: 4}},
	}, testCatalog(), nil, testNow)
	require.NoError(t, err)
	require.Equal(t, 0.0, o.Subtotal)
	require.Equal(t, 0.0, o.Tax)
	require.Equal(t, 0.0, o.Total)
}

func TestBuildUsesConfiguredPricing(t *testing.T) {
	p := orders.Pricing{TaxRate: 0.21, DeliveryDays: 2, CodePrefix: "CV", Location: time.UTC}
	o, err := p.Build(orders.Request{
		CustomerName: "Wine Lovers Club",
		Items:        []orders.ItemRequest{{CatalogItemID: "wine-002", Quantity: 1}},
	}, testCatalog(), nil, testNow)
	require.NoError(t, err)
	require.Equal(t, "CV-2025-001", o.Code)
	require.Equal(t, 4.81, o.Tax)
	require.Equal(t, 27.71, o.Total)
	require.Equal(t, "2025-03-12T12:00:00.000Z", o.ExpectedDelivery)
}

func TestOrderJSONRoundTrip(t *testing.T) {
	o, err := testPricing().Build(orders.Request{
		CustomerName: "Wine Lovers Club",
		Items: []orders.ItemRequest{
			{CatalogItemID: "wine-002", Quantity: 20},
			{CatalogItemID: "wine-003", Quantity: 7, UnitPrice: "15.33"},
		},
	}, testCatalog(), nil, testNow)
	require.NoError(t, err)
	data, err := json.Marshal(o)
	require.NoError(t, err)
	var back domain.Order
	require.NoError(t, json.Unmarshal(data, &back))
	require.Equal(t, o, back)
}

func TestTotalsProperties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(rt, "lines")
		var catalog []domain.CatalogItem
		var items []orders.ItemRequest
		for i := 0; i < n; i++ {
			id := "wine-" + string(rune('a'+i))
			cents := rapid.IntRange(0, 500000).Draw(rt, "cents")
			catalog = append(catalog, domain.CatalogItem{ID: id, Name: id, Price: float64(cents) / 100})
			items = append(items, orders.ItemRequest{
				CatalogItemID: id,
				Quantity:      rapid.IntRange(-3, 240).Draw(rt, "qty"),
			})
		}
		o, err := testPricing().Build(orders.Request{CustomerName: "prop", Items: items}, orders.NewCatalogIndex(catalog), nil, testNow)
		if err != nil {
			rt.Fatalf("build: %v", err)
		}

		sum := decimal.Zero
		for _, it := range o.Items {
			if it.Quantity < 1 {
				rt.Fatalf("quantity %d below 1", it.Quantity)
			}
			want := decimal.NewFromFloat(it.UnitPrice).Mul(decimal.NewFromInt(int64(it.Quantity))).Round(2)
			if !decimal.NewFromFloat(it.LineTotal).Equal(want) {
				rt.Fatalf("line total %v, want %v", it.LineTotal, want)
			}
			sum = sum.Add(want)
		}
		subtotal := decimal.NewFromFloat(o.Subtotal)
		if !subtotal.Equal(sum) {
			rt.Fatalf("subtotal %v, want %v", o.Subtotal, sum)
		}
		tax := subtotal.Mul(decimal.NewFromFloat(0.19)).Round(2)
		if !decimal.NewFromFloat(o.Tax).Equal(tax) {
			rt.Fatalf("tax %v, want %v", o.Tax, tax)
		}
		if !decimal.NewFromFloat(o.Total).Equal(subtotal.Add(tax).Round(2)) {
			rt.Fatalf("total %v, want %v", o.Total, subtotal.Add(tax))
		}

		data, err := json.Marshal(o)
		if err != nil {
			rt.Fatalf("marshal: %v", err)
		}
		var back domain.Order
		if err := json.Unmarshal(data, &back); err != nil {
			rt.Fatalf("unmarshal: %v", err)
		}
		if back.Subtotal != o.Subtotal || back.Tax != o.Tax || back.Total != o.Total {
			rt.Fatalf("round trip drifted: %+v vs %+v", back, o)
		}
	})
}
