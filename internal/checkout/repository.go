package checkout

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reventa-uy/reventa-backend/pkg/db/models"
	"github.com/reventa-uy/reventa-backend/pkg/enums"
)

// WaveRef pairs a ticket wave with the event it belongs to.
type WaveRef struct {
	Wave  models.TicketWave
	Event models.Event
}

// Repository exposes the lookup queries checkout needs before allocation.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindWaveRefs(ctx context.Context, waveIDs []uuid.UUID) (map[uuid.UUID]WaveRef, error)
	FindPendingOrder(ctx context.Context, buyerUserID, eventID uuid.UUID) (*models.Order, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a checkout repository backed by the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindWaveRefs(ctx context.Context, waveIDs []uuid.UUID) (map[uuid.UUID]WaveRef, error) {
	if len(waveIDs) == 0 {
		return map[uuid.UUID]WaveRef{}, nil
	}

	var waves []models.TicketWave
	err := r.db.WithContext(ctx).
		Where("id IN ?", waveIDs).
		Find(&waves).Error
	if err != nil {
		return nil, err
	}

	eventIDs := make([]uuid.UUID, 0, len(waves))
	seen := make(map[uuid.UUID]struct{}, len(waves))
	for _, wave := range waves {
		if _, dup := seen[wave.EventID]; dup {
			continue
		}
		seen[wave.EventID] = struct{}{}
		eventIDs = append(eventIDs, wave.EventID)
	}

	events := make(map[uuid.UUID]models.Event, len(eventIDs))
	if len(eventIDs) > 0 {
		var rows []models.Event
		err := r.db.WithContext(ctx).
			Where("id IN ?", eventIDs).
			Find(&rows).Error
		if err != nil {
			return nil, err
		}
		for _, event := range rows {
			events[event.ID] = event
		}
	}

	refs := make(map[uuid.UUID]WaveRef, len(waves))
	for _, wave := range waves {
		refs[wave.ID] = WaveRef{Wave: wave, Event: events[wave.EventID]}
	}
	return refs, nil
}

func (r *repository) FindPendingOrder(ctx context.Context, buyerUserID, eventID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("buyer_user_id = ? AND event_id = ? AND status = ?",
			buyerUserID, eventID, enums.OrderStatusPending).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}
