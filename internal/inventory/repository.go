package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reventa-uy/reventa-backend/pkg/db/models"
)

// Repository defines persistence operations for listings and their tickets.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateListing(ctx context.Context, listing *models.Listing) (*models.Listing, error)
	FindListingByID(ctx context.Context, listingID uuid.UUID) (*models.Listing, error)
	FindWaveByID(ctx context.Context, waveID uuid.UUID) (*models.TicketWave, error)
	FindEventByID(ctx context.Context, eventID uuid.UUID) (*models.Event, error)
	ListSellerListings(ctx context.Context, sellerUserID uuid.UUID) ([]models.Listing, error)
	CountBlockedTickets(ctx context.Context, listingID uuid.UUID) (int64, error)
	CancelListing(ctx context.Context, listingID uuid.UUID, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an inventory repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateListing(ctx context.Context, listing *models.Listing) (*models.Listing, error) {
	if err := r.db.WithContext(ctx).Create(listing).Error; err != nil {
		return nil, err
	}
	return listing, nil
}

func (r *repository) FindListingByID(ctx context.Context, listingID uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.WithContext(ctx).
		Preload("Tickets", func(db *gorm.DB) *gorm.DB {
			return db.Order("ticket_number ASC")
		}).
		Where("id = ?", listingID).
		First(&listing).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *repository) FindWaveByID(ctx context.Context, waveID uuid.UUID) (*models.TicketWave, error) {
	var wave models.TicketWave
	if err := r.db.WithContext(ctx).Where("id = ?", waveID).First(&wave).Error; err != nil {
		return nil, err
	}
	return &wave, nil
}

func (r *repository) FindEventByID(ctx context.Context, eventID uuid.UUID) (*models.Event, error) {
	var event models.Event
	if err := r.db.WithContext(ctx).Where("id = ?", eventID).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *repository) ListSellerListings(ctx context.Context, sellerUserID uuid.UUID) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.db.WithContext(ctx).
		Preload("Tickets", func(db *gorm.DB) *gorm.DB {
			return db.Order("ticket_number ASC")
		}).
		Where("seller_user_id = ?", sellerUserID).
		Order("created_at DESC").
		Find(&listings).Error
	if err != nil {
		return nil, err
	}
	return listings, nil
}

// CountBlockedTickets returns how many tickets of the listing are sold or
// sit under an active reservation. A listing with any blocked ticket cannot
// be cancelled.
func (r *repository) CountBlockedTickets(ctx context.Context, listingID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("listing_tickets").
		Where("listing_tickets.listing_id = ?", listingID).
		Where(`listing_tickets.sold_at IS NOT NULL
			OR EXISTS (
				SELECT 1 FROM order_tickets
				WHERE order_tickets.listing_ticket_id = listing_tickets.id
				  AND order_tickets.deleted_at IS NULL
			)`).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) CancelListing(ctx context.Context, listingID uuid.UUID, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&models.ListingTicket{}).
		Where("listing_id = ? AND sold_at IS NULL AND cancelled_at IS NULL", listingID).
		Update("cancelled_at", at).Error
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ? AND deleted_at IS NULL", listingID).
		Update("deleted_at", at).Error
}
