package orders

import "wineinventory/internal/domain"

// UpdateStatus returns o with its status replaced. Unknown statuses are
// rejected rather than ignored.
func UpdateStatus(o domain.Order, status string) (domain.Order, error) {
	s := domain.OrderStatus(status)
	if !s.Valid() {
		return o, domain.Invalid("invalid status %s", status)
	}
	o.Status = s
	return o, nil
}
