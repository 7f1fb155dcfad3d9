package helpers

import (
	"github.com/google/uuid"
)

// ItemGroup is one allocation demand: qty tickets of a wave at an exact price.
type ItemGroup struct {
	TicketWaveID uuid.UUID
	PriceCents   int64
	Quantity     int
}

type groupKey struct {
	waveID uuid.UUID
	price  int64
}

// GroupItems merges duplicate (wave, price) pairs, preserving first-seen
// order so allocation is deterministic.
func GroupItems(items []ItemGroup) []ItemGroup {
	merged := make(map[groupKey]int, len(items))
	order := make([]groupKey, 0, len(items))
	for _, item := range items {
		key := groupKey{waveID: item.TicketWaveID, price: item.PriceCents}
		if _, seen := merged[key]; !seen {
			order = append(order, key)
		}
		merged[key] += item.Quantity
	}

	groups := make([]ItemGroup, 0, len(order))
	for _, key := range order {
		groups = append(groups, ItemGroup{
			TicketWaveID: key.waveID,
			PriceCents:   key.price,
			Quantity:     merged[key],
		})
	}
	return groups
}

// TotalQuantity sums the requested ticket count across groups.
func TotalQuantity(items []ItemGroup) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

// Subtotal sums price times quantity across groups.
func Subtotal(items []ItemGroup) int64 {
	var subtotal int64
	for _, item := range items {
		subtotal += item.PriceCents * int64(item.Quantity)
	}
	return subtotal
}
