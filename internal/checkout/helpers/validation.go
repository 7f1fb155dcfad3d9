package helpers

import (
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/reventa-uy/reventa-backend/pkg/errors"
)

// ValidateItems checks the raw order items against the per-order ticket
// bounds before any grouping or allocation happens.
func ValidateItems(items []ItemGroup, maxTickets int) error {
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one item required")
	}
	for i, item := range items {
		if item.TicketWaveID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: ticket wave id required", i))
		}
		if item.Quantity < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: quantity must be at least 1", i))
		}
		if item.PriceCents <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: price must be positive", i))
		}
	}
	total := TotalQuantity(items)
	if maxTickets > 0 && total > maxTickets {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("order exceeds %d tickets", maxTickets)).
			WithDetails(map[string]any{"requested": total, "max": maxTickets})
	}
	return nil
}
