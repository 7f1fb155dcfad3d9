package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reventa-uy/reventa-backend/pkg/db/models"
	"github.com/reventa-uy/reventa-backend/pkg/enums"
	"github.com/reventa-uy/reventa-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Tickets").
		Preload("Payments").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListBuyerOrders(ctx context.Context, buyerUserID uuid.UUID, params pagination.Params, filters BuyerOrderFilters) (*BuyerOrderList, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Preload("Tickets").
		Where("buyer_user_id = ?", buyerUserID)

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.EventID != nil {
		query = query.Where("event_id = ?", *filters.EventID)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Order
	err = query.
		Order("created_at DESC, id DESC").
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &BuyerOrderList{}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for i := range rows {
		list.Orders = append(list.Orders, Summarize(&rows[i]))
	}
	if hasMore {
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return list, nil
}

func (r *repository) FindExpiredPendingIDs(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("status = ? AND reserved_until < ?", enums.OrderStatusPending, cutoff).
		Order("reserved_until ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) TransitionFromPending(ctx context.Context, orderID uuid.UUID, to enums.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, enums.OrderStatusPending).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) SetCancelledAt(ctx context.Context, orderID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("cancelled_at", at).Error
}

func (r *repository) ReleaseTicketHolds(ctx context.Context, orderID uuid.UUID, releasedAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.OrderTicket{}).
		Where("order_id = ? AND deleted_at IS NULL", orderID).
		Update("deleted_at", releasedAt)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) MarkTicketsSold(ctx context.Context, orderID uuid.UUID, soldAt time.Time) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE listing_tickets
		SET sold_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE sold_at IS NULL
		  AND id IN (
			SELECT listing_ticket_id FROM order_tickets
			WHERE order_id = ? AND deleted_at IS NULL
		  )
	`, soldAt, orderID).Error
}

func (r *repository) MarkListingsSold(ctx context.Context, orderID uuid.UUID, soldAt time.Time) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE listings
		SET sold_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE sold_at IS NULL
		  AND id IN (
			SELECT lt.listing_id FROM listing_tickets lt
			JOIN order_tickets ot ON ot.listing_ticket_id = lt.id
			WHERE ot.order_id = ? AND ot.deleted_at IS NULL
		  )
		  AND NOT EXISTS (
			SELECT 1 FROM listing_tickets remaining
			WHERE remaining.listing_id = listings.id
			  AND remaining.sold_at IS NULL
			  AND remaining.cancelled_at IS NULL
			  AND remaining.deleted_at IS NULL
		  )
	`, soldAt, orderID).Error
}

func (r *repository) FindSoldTicketRefs(ctx context.Context, orderID uuid.UUID) ([]SoldTicketRef, error) {
	var refs []SoldTicketRef
	err := r.db.WithContext(ctx).
		Table("order_tickets").
		Select(`order_tickets.listing_ticket_id AS listing_ticket_id,
			listing_tickets.listing_id AS listing_id,
			listings.seller_user_id AS seller_user_id,
			order_tickets.price_cents AS price_cents`).
		Joins("JOIN listing_tickets ON listing_tickets.id = order_tickets.listing_ticket_id").
		Joins("JOIN listings ON listings.id = listing_tickets.listing_id").
		Where("order_tickets.order_id = ? AND order_tickets.deleted_at IS NULL", orderID).
		Order("order_tickets.created_at ASC").
		Scan(&refs).Error
	if err != nil {
		return nil, err
	}
	return refs, nil
}
