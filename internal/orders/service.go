package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reventa-uy/reventa-backend/pkg/db/models"
	"github.com/reventa-uy/reventa-backend/pkg/enums"
	pkgerrors "github.com/reventa-uy/reventa-backend/pkg/errors"
	"github.com/reventa-uy/reventa-backend/pkg/outbox"
	"github.com/reventa-uy/reventa-backend/pkg/outbox/payloads"
	"github.com/reventa-uy/reventa-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// EarningsWriter creates the per-ticket seller earnings rows when an order
// confirms. It runs inside the confirmation transaction.
type EarningsWriter interface {
	CreateForSale(ctx context.Context, tx *gorm.DB, order *models.Order, tickets []SoldTicketRef) ([]models.SellerEarnings, error)
}

// Service defines order lifecycle operations beyond repository reads.
type Service interface {
	Get(ctx context.Context, orderID, requesterUserID uuid.UUID) (*OrderSummary, error)
	List(ctx context.Context, buyerUserID uuid.UUID, params pagination.Params, filters BuyerOrderFilters) (*BuyerOrderList, error)
	Cancel(ctx context.Context, input CancelOrderInput) error
	Confirm(ctx context.Context, tx *gorm.DB, input ConfirmOrderInput) (*models.Order, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	earnings EarningsWriter
}

// CancelOrderInput carries a buyer's request to abandon a pending order.
type CancelOrderInput struct {
	OrderID     uuid.UUID
	BuyerUserID uuid.UUID
	Reason      string
	ActorRole   string
}

// ConfirmOrderInput carries the settled payment that confirms an order.
type ConfirmOrderInput struct {
	OrderID   uuid.UUID
	PaymentID uuid.UUID
}

// NewService builds the order lifecycle service.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, earnings EarningsWriter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if earnings == nil {
		return nil, fmt.Errorf("earnings writer required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		outbox:   outboxSvc,
		earnings: earnings,
	}, nil
}

func (s *service) Get(ctx context.Context, orderID, requesterUserID uuid.UUID) (*OrderSummary, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if requesterUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.BuyerUserID != requesterUserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	summary := Summarize(order)
	return &summary, nil
}

func (s *service) List(ctx context.Context, buyerUserID uuid.UUID, params pagination.Params, filters BuyerOrderFilters) (*BuyerOrderList, error) {
	if buyerUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListBuyerOrders(ctx, buyerUserID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) Cancel(ctx context.Context, input CancelOrderInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.BuyerUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.BuyerUserID != input.BuyerUserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
		}
		if order.Status == enums.OrderStatusCancelled {
			return nil
		}

		won, err := repo.TransitionFromPending(ctx, order.ID, enums.OrderStatusCancelled)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		if !won {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled").
				WithDetails(map[string]any{"status": order.Status})
		}

		now := time.Now().UTC()
		if err := repo.SetCancelledAt(ctx, order.ID, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stamp cancellation")
		}
		if _, err := repo.ReleaseTicketHolds(ctx, order.ID, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release ticket holds")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			OccurredAt:    now,
			Actor:         &outbox.ActorRef{UserID: input.BuyerUserID, Role: input.ActorRole},
			Data: payloads.OrderCancelledEvent{
				OrderID:     order.ID,
				BuyerUserID: order.BuyerUserID,
				CancelledAt: now,
				Reason:      input.Reason,
			},
		}
		return s.outbox.EmitIfNotExists(ctx, tx, event)
	})
}

// Confirm moves a pending order to confirmed inside the caller's transaction.
// The caller (payment reconciliation) owns the transaction so the payment
// update, the confirmation, and the outbox rows commit atomically. A
// STATE_CONFLICT error means another actor already moved the order out of
// pending; the caller decides how to handle the settled payment.
func (s *service) Confirm(ctx context.Context, tx *gorm.DB, input ConfirmOrderInput) (*models.Order, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.PaymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}

	repo := s.repo.WithTx(tx)
	won, err := repo.TransitionFromPending(ctx, input.OrderID, enums.OrderStatusConfirmed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm order")
	}
	if !won {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not pending")
	}

	order, err := repo.FindByID(ctx, input.OrderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load confirmed order")
	}
	order.Status = enums.OrderStatusConfirmed

	now := time.Now().UTC()
	if err := repo.MarkTicketsSold(ctx, order.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark tickets sold")
	}
	if err := repo.MarkListingsSold(ctx, order.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark listings sold")
	}

	refs, err := repo.FindSoldTicketRefs(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sold tickets")
	}
	if _, err := s.earnings.CreateForSale(ctx, tx, order, refs); err != nil {
		return nil, err
	}
	// Sold tickets no longer need an active hold; sold_at keeps them off
	// the market from here on.
	if _, err := repo.ReleaseTicketHolds(ctx, order.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release ticket holds")
	}

	confirmEvent := outbox.DomainEvent{
		EventType:     enums.EventOrderConfirmed,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Version:       1,
		OccurredAt:    now,
		Data: payloads.OrderConfirmedEvent{
			OrderID:     order.ID,
			BuyerUserID: order.BuyerUserID,
			EventID:     order.EventID,
			PaymentID:   input.PaymentID,
			ConfirmedAt: now,
		},
	}
	if err := s.outbox.EmitIfNotExists(ctx, tx, confirmEvent); err != nil {
		return nil, err
	}

	for _, ref := range refs {
		soldEvent := outbox.DomainEvent{
			EventType:     enums.EventTicketSold,
			AggregateType: enums.AggregateListingTicket,
			AggregateID:   ref.ListingTicketID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.TicketSoldEvent{
				ListingTicketID: ref.ListingTicketID,
				ListingID:       ref.ListingID,
				SellerUserID:    ref.SellerUserID,
				OrderID:         order.ID,
				PriceCents:      ref.PriceCents,
			},
		}
		if err := s.outbox.Emit(ctx, tx, soldEvent); err != nil {
			return nil, err
		}
	}
	return order, nil
}
