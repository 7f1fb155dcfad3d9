package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/reventa-uy/reventa-backend/pkg/db/models"
)

// TicketState is the read-side status of one listing ticket.
type TicketState string

const (
	TicketStateAvailable TicketState = "available"
	TicketStateSold      TicketState = "sold"
	TicketStateCancelled TicketState = "cancelled"
)

// ListingTicketDTO exposes one ticket inside a listing.
type ListingTicketDTO struct {
	ID           uuid.UUID   `json:"id"`
	TicketNumber int         `json:"ticket_number"`
	PriceCents   int64       `json:"price_cents"`
	State        TicketState `json:"state"`
}

// ListingDTO is the seller-facing projection of a listing.
type ListingDTO struct {
	ID           uuid.UUID          `json:"id"`
	SellerUserID uuid.UUID          `json:"seller_user_id"`
	TicketWaveID uuid.UUID          `json:"ticket_wave_id"`
	Sold         bool               `json:"sold"`
	Cancelled    bool               `json:"cancelled"`
	CreatedAt    time.Time          `json:"created_at"`
	Tickets      []ListingTicketDTO `json:"tickets"`
}

func toListingDTO(listing *models.Listing) *ListingDTO {
	dto := &ListingDTO{
		ID:           listing.ID,
		SellerUserID: listing.SellerUserID,
		TicketWaveID: listing.TicketWaveID,
		Sold:         listing.SoldAt != nil,
		Cancelled:    listing.DeletedAt != nil,
		CreatedAt:    listing.CreatedAt,
	}
	for _, ticket := range listing.Tickets {
		state := TicketStateAvailable
		switch {
		case ticket.SoldAt != nil:
			state = TicketStateSold
		case ticket.CancelledAt != nil || ticket.DeletedAt != nil:
			state = TicketStateCancelled
		}
		dto.Tickets = append(dto.Tickets, ListingTicketDTO{
			ID:           ticket.ID,
			TicketNumber: ticket.TicketNumber,
			PriceCents:   ticket.PriceCents,
			State:        state,
		})
	}
	return dto
}
