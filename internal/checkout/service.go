package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reventa-uy/reventa-backend/internal/checkout/helpers"
	"github.com/reventa-uy/reventa-backend/internal/checkout/reservation"
	"github.com/reventa-uy/reventa-backend/internal/orders"
	dbpkg "github.com/reventa-uy/reventa-backend/pkg/db"
	"github.com/reventa-uy/reventa-backend/pkg/db/models"
	"github.com/reventa-uy/reventa-backend/pkg/enums"
	pkgerrors "github.com/reventa-uy/reventa-backend/pkg/errors"
	"github.com/reventa-uy/reventa-backend/pkg/fees"
	"github.com/reventa-uy/reventa-backend/pkg/outbox"
	"github.com/reventa-uy/reventa-backend/pkg/outbox/payloads"
)

const uniquePendingBuyerEvent = "ux_orders_pending_buyer_event"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type reservationRunner interface {
	Reserve(ctx context.Context, tx *gorm.DB, req reservation.Request) ([]models.OrderTicket, error)
}

type reservationEngine struct{}

func (reservationEngine) Reserve(ctx context.Context, tx *gorm.DB, req reservation.Request) ([]models.OrderTicket, error) {
	return reservation.ReserveTickets(ctx, tx, req)
}

// Config carries the order creation knobs injected from pkg/config.
type Config struct {
	ReservationWindow time.Duration
	MaxTickets        int
	AllocatorRetries  int
}

// Service executes order creation: validation, allocation, fees, persistence.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*orders.OrderSummary, error)
}

// CreateOrderInput captures a buyer's purchase request.
type CreateOrderInput struct {
	BuyerUserID uuid.UUID
	Items       []helpers.ItemGroup
	ActorRole   string
}

type service struct {
	tx          txRunner
	repo        Repository
	ordersRepo  orders.Repository
	fees        *fees.Calculator
	reservation reservationRunner
	outbox      outboxPublisher
	cfg         Config
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	repo Repository,
	ordersRepo orders.Repository,
	calculator *fees.Calculator,
	reservationSvc reservationRunner,
	publisher outboxPublisher,
	cfg Config,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if calculator == nil {
		return nil, fmt.Errorf("fee calculator required")
	}
	if reservationSvc == nil {
		reservationSvc = reservationEngine{}
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if cfg.ReservationWindow <= 0 {
		return nil, fmt.Errorf("reservation window must be positive")
	}
	return &service{
		tx:          tx,
		repo:        repo,
		ordersRepo:  ordersRepo,
		fees:        calculator,
		reservation: reservationSvc,
		outbox:      publisher,
		cfg:         cfg,
	}, nil
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*orders.OrderSummary, error) {
	if input.BuyerUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := helpers.ValidateItems(input.Items, s.cfg.MaxTickets); err != nil {
		return nil, err
	}
	groups := helpers.GroupItems(input.Items)

	waveIDs := make([]uuid.UUID, 0, len(groups))
	for _, group := range groups {
		waveIDs = append(waveIDs, group.TicketWaveID)
	}
	refs, err := s.repo.FindWaveRefs(ctx, waveIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ticket waves")
	}

	var event models.Event
	for _, group := range groups {
		ref, ok := refs[group.TicketWaveID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ticket wave not found").
				WithDetails(map[string]any{"ticket_wave_id": group.TicketWaveID})
		}
		if event.ID == uuid.Nil {
			event = ref.Event
		} else if event.ID != ref.Event.ID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "all items must belong to one event")
		}
	}
	if time.Now().After(event.EndsAt) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "event already ended")
	}

	breakdown, err := s.fees.Calculate(helpers.Subtotal(groups))
	if err != nil {
		return nil, err
	}

	reservedUntil := time.Now().UTC().Add(s.cfg.ReservationWindow)
	order := &models.Order{
		ID:              uuid.New(),
		BuyerUserID:     input.BuyerUserID,
		EventID:         event.ID,
		Status:          enums.OrderStatusPending,
		Currency:        event.Currency,
		SubtotalCents:   breakdown.SubtotalCents,
		CommissionCents: breakdown.CommissionCents,
		VATCents:        breakdown.VATCents,
		TotalCents:      breakdown.TotalCents,
		ReservedUntil:   reservedUntil,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ordersRepo := s.ordersRepo.WithTx(tx)

		existing, err := repo.FindPendingOrder(ctx, input.BuyerUserID, event.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check pending orders")
		}
		if existing != nil {
			return pendingOrderExists(existing.ID)
		}

		if _, err := ordersRepo.Create(ctx, order); err != nil {
			if dbpkg.IsUniqueViolation(err, uniquePendingBuyerEvent) {
				// Concurrent create slipped past the read; the partial
				// unique index is the authoritative guard.
				return pendingOrderExists(uuid.Nil)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		for _, group := range groups {
			holds, err := s.reservation.Reserve(ctx, tx, reservation.Request{
				OrderID:         order.ID,
				TicketWaveID:    group.TicketWaveID,
				PriceCents:      group.PriceCents,
				Quantity:        group.Quantity,
				ReservedUntil:   reservedUntil,
				ExcludeSellerID: input.BuyerUserID,
				MaxAttempts:     s.cfg.AllocatorRetries,
			})
			if err != nil {
				return err
			}
			order.Tickets = append(order.Tickets, holds...)
		}

		created := outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			OccurredAt:    time.Now().UTC(),
			Actor:         &outbox.ActorRef{UserID: input.BuyerUserID, Role: input.ActorRole},
			Data: payloads.OrderCreatedEvent{
				OrderID:       order.ID,
				BuyerUserID:   order.BuyerUserID,
				EventID:       order.EventID,
				TicketCount:   len(order.Tickets),
				SubtotalCents: order.SubtotalCents,
				TotalCents:    order.TotalCents,
				Currency:      order.Currency,
				ReservedUntil: order.ReservedUntil,
			},
		}
		return s.outbox.Emit(ctx, tx, created)
	})
	if err != nil {
		return nil, err
	}

	summary := orders.Summarize(order)
	return &summary, nil
}

func pendingOrderExists(existingOrderID uuid.UUID) error {
	err := pkgerrors.New(pkgerrors.CodePendingOrderExists, "buyer already has a pending order for this event")
	if existingOrderID != uuid.Nil {
		return err.WithDetails(map[string]any{"order_id": existingOrderID})
	}
	return err
}
