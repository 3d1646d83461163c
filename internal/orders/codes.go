package orders

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"wineinventory/internal/domain"
)

// NewOrderID returns an opaque order id.
func NewOrderID() string {
	return "ord-" + uuid.NewString()
}

// NextCode returns the code following the highest sequence among the orders
// created in year. Callers must serialize code generation per store.
func NextCode(prefix string, year int, existing []domain.Order, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	last := 0
	for _, o := range existing {
		created, err := domain.ParseTime(o.CreatedAt, loc)
		if err != nil || created.In(loc).Year() != year {
			continue
		}
		if seq, ok := Sequence(o.Code); ok && seq > last {
			last = seq
		}
	}
	return FormatCode(prefix, year, last+1)
}

func FormatCode(prefix string, year, seq int) string {
	return fmt.Sprintf("%s-%d-%03d", prefix, year, seq)
}

// Sequence extracts the trailing numeric segment of a code.
func Sequence(code string) (int, bool) {
	parts := strings.Split(code, "-")
	n, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1]))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
