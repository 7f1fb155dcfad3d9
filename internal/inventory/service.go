package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/reventa-uy/reventa-backend/pkg/db"
	"github.com/reventa-uy/reventa-backend/pkg/db/models"
	pkgerrors "github.com/reventa-uy/reventa-backend/pkg/errors"
)

const uniqueListingTicketNumber = "ux_listing_tickets_listing_number"

// Service exposes seller listing management operations.
type Service interface {
	Create(ctx context.Context, input CreateListingInput) (*ListingDTO, error)
	Get(ctx context.Context, listingID, requesterUserID uuid.UUID) (*ListingDTO, error)
	ListMine(ctx context.Context, sellerUserID uuid.UUID) ([]ListingDTO, error)
	Cancel(ctx context.Context, listingID, sellerUserID uuid.UUID) error
}

// CreateListingInput holds the validated payload to create a listing.
type CreateListingInput struct {
	SellerUserID  uuid.UUID
	TicketWaveID  uuid.UUID
	TicketNumbers []int
	PriceCents    int64
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService constructs the listing inventory service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, input CreateListingInput) (*ListingDTO, error) {
	if input.SellerUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.TicketWaveID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket wave id required")
	}
	if len(input.TicketNumbers) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one ticket required")
	}
	if input.PriceCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	seen := make(map[int]struct{}, len(input.TicketNumbers))
	for _, number := range input.TicketNumbers {
		if number <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket numbers must be positive")
		}
		if _, dup := seen[number]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("duplicate ticket number %d", number))
		}
		seen[number] = struct{}{}
	}

	wave, err := s.repo.FindWaveByID(ctx, input.TicketWaveID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ticket wave not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ticket wave")
	}
	if input.PriceCents > wave.FaceValueCents {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price exceeds wave face value").
			WithDetails(map[string]any{
				"price_cents":      input.PriceCents,
				"face_value_cents": wave.FaceValueCents,
			})
	}
	event, err := s.repo.FindEventByID(ctx, wave.EventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
	}
	if time.Now().After(event.EndsAt) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "event already ended")
	}

	listing := &models.Listing{
		ID:           uuid.New(),
		SellerUserID: input.SellerUserID,
		TicketWaveID: input.TicketWaveID,
	}
	for _, number := range input.TicketNumbers {
		listing.Tickets = append(listing.Tickets, models.ListingTicket{
			ID:           uuid.New(),
			ListingID:    listing.ID,
			TicketNumber: number,
			PriceCents:   input.PriceCents,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := s.repo.WithTx(tx).CreateListing(ctx, listing)
		return err
	})
	if err != nil {
		if dbpkg.IsUniqueViolation(err, uniqueListingTicketNumber) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "ticket number already listed")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create listing")
	}
	return toListingDTO(listing), nil
}

func (s *service) Get(ctx context.Context, listingID, requesterUserID uuid.UUID) (*ListingDTO, error) {
	if listingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
	}
	listing, err := s.repo.FindListingByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}
	if listing.SellerUserID != requesterUserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "listing does not belong to user")
	}
	return toListingDTO(listing), nil
}

func (s *service) ListMine(ctx context.Context, sellerUserID uuid.UUID) ([]ListingDTO, error) {
	if sellerUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	listings, err := s.repo.ListSellerListings(ctx, sellerUserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list listings")
	}
	dtos := make([]ListingDTO, 0, len(listings))
	for i := range listings {
		dtos = append(dtos, *toListingDTO(&listings[i]))
	}
	return dtos, nil
}

func (s *service) Cancel(ctx context.Context, listingID, sellerUserID uuid.UUID) error {
	if listingID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
	}
	if sellerUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		listing, err := repo.FindListingByID(ctx, listingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
		}
		if listing.SellerUserID != sellerUserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "listing does not belong to user")
		}
		if listing.DeletedAt != nil {
			return nil
		}
		if listing.SoldAt != nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "listing already sold")
		}

		blocked, err := repo.CountBlockedTickets(ctx, listingID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check ticket holds")
		}
		if blocked > 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "listing has sold or reserved tickets").
				WithDetails(map[string]any{"blocked_tickets": blocked})
		}
		return repo.CancelListing(ctx, listingID, time.Now().UTC())
	})
}
