package orders_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"wineinventory/internal/domain"
	"wineinventory/internal/orders"
)

func TestUpdateStatus(t *testing.T) {
	o := domain.Order{ID: "ord-0001", Code: "WI-2025-001", Status: domain.OrderPending, Total: 191.89}
	for _, s := range domain.OrderStatuses {
		updated, err := orders.UpdateStatus(o, string(s))
		require.NoError(t, err)
		require.Equal(t, s, updated.Status)
		require.Equal(t, o.Total, updated.Total)
	}

	same, err := orders.UpdateStatus(o, "shipped")
	require.Error(t, err)
	require.True(t, domain.IsValidation(err))
	require.Equal(t, "invalid status shipped", err.Error())
	require.Equal(t, domain.OrderPending, same.Status)
}
