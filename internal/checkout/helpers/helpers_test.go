package helpers

import (
	"testing"

	"github.com/google/uuid"

	pkgerrors "github.com/reventa-uy/reventa-backend/pkg/errors"
)

func TestGroupItemsMergesDuplicates(t *testing.T) {
	t.Parallel()
	waveA := uuid.New()
	waveB := uuid.New()

	groups := GroupItems([]ItemGroup{
		{TicketWaveID: waveA, PriceCents: 80000, Quantity: 2},
		{TicketWaveID: waveB, PriceCents: 120000, Quantity: 1},
		{TicketWaveID: waveA, PriceCents: 80000, Quantity: 1},
		{TicketWaveID: waveA, PriceCents: 90000, Quantity: 1},
	})

	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	if groups[0].TicketWaveID != waveA || groups[0].Quantity != 3 {
		t.Fatalf("first group not merged: %+v", groups[0])
	}
	if groups[1].TicketWaveID != waveB {
		t.Fatalf("expected first-seen order preserved, got %+v", groups[1])
	}
	if groups[2].PriceCents != 90000 || groups[2].Quantity != 1 {
		t.Fatalf("price variants must not merge: %+v", groups[2])
	}
}

func TestSubtotalAndTotalQuantity(t *testing.T) {
	t.Parallel()
	items := []ItemGroup{
		{TicketWaveID: uuid.New(), PriceCents: 80000, Quantity: 2},
		{TicketWaveID: uuid.New(), PriceCents: 50000, Quantity: 1},
	}
	if got := TotalQuantity(items); got != 3 {
		t.Fatalf("total quantity = %d", got)
	}
	if got := Subtotal(items); got != 210000 {
		t.Fatalf("subtotal = %d", got)
	}
}

func TestValidateItems(t *testing.T) {
	t.Parallel()
	wave := uuid.New()

	if err := ValidateItems([]ItemGroup{{TicketWaveID: wave, PriceCents: 1000, Quantity: 2}}, 10); err != nil {
		t.Fatalf("valid items rejected: %v", err)
	}

	cases := []struct {
		name  string
		items []ItemGroup
		max   int
	}{
		{name: "empty", items: nil, max: 10},
		{name: "zero qty", items: []ItemGroup{{TicketWaveID: wave, PriceCents: 1000}}, max: 10},
		{name: "nil wave", items: []ItemGroup{{PriceCents: 1000, Quantity: 1}}, max: 10},
		{name: "free ticket", items: []ItemGroup{{TicketWaveID: wave, Quantity: 1}}, max: 10},
		{name: "over max", items: []ItemGroup{{TicketWaveID: wave, PriceCents: 1000, Quantity: 11}}, max: 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateItems(tc.items, tc.max)
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}
