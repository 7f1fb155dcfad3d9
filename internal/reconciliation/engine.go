package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/reventa-uy/reventa-backend/internal/orders"
	"github.com/reventa-uy/reventa-backend/internal/payments"
	"github.com/reventa-uy/reventa-backend/internal/payments/provider"
	"github.com/reventa-uy/reventa-backend/pkg/db/models"
	"github.com/reventa-uy/reventa-backend/pkg/enums"
	pkgerrors "github.com/reventa-uy/reventa-backend/pkg/errors"
	"github.com/reventa-uy/reventa-backend/pkg/logger"
	"github.com/reventa-uy/reventa-backend/pkg/outbox"
	"github.com/reventa-uy/reventa-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Engine reconciles local payment state against the provider's canonical
// view. Webhooks and the poll-sync job both funnel into ProcessProviderEvent,
// so a notification is only ever a trigger, never a source of truth.
type Engine struct {
	logg      *logger.Logger
	tx        txRunner
	payments  payments.Repository
	orders    orders.Repository
	ordersSvc orders.Service
	providers *provider.Factory
	outbox    outboxPublisher
	now       func() time.Time
}

// EngineParams wires the reconciliation engine.
type EngineParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Payments  payments.Repository
	Orders    orders.Repository
	OrdersSvc orders.Service
	Providers *provider.Factory
	Outbox    outboxPublisher
}

// NewEngine validates dependencies and builds the engine.
func NewEngine(params EngineParams) (*Engine, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.OrdersSvc == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if params.Providers == nil {
		return nil, fmt.Errorf("provider factory required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	return &Engine{
		logg:      params.Logger,
		tx:        params.DB,
		payments:  params.Payments,
		orders:    params.Orders,
		ordersSvc: params.OrdersSvc,
		providers: params.Providers,
		outbox:    params.Outbox,
		now:       time.Now,
	}, nil
}

// ProcessProviderEvent drives one payment to the status the provider
// reports. It is safe to call repeatedly and concurrently for the same
// payment: the row-level compare-and-set picks one winner per transition.
func (e *Engine) ProcessProviderEvent(ctx context.Context, providerPaymentID string) error {
	if providerPaymentID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "provider payment id is required")
	}

	payment, err := e.payments.FindByProviderPaymentID(ctx, providerPaymentID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup payment")
	}
	if payment == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found").
			WithDetails(map[string]any{"provider_payment_id": providerPaymentID})
	}

	ctx = e.logg.WithFields(ctx, map[string]any{
		"payment_id":          payment.ID,
		"order_id":            payment.OrderID,
		"provider_payment_id": providerPaymentID,
	})

	if payment.Status == enums.PaymentStatusSucceeded || payment.Status == enums.PaymentStatusFailed {
		e.logg.Info(ctx, "payment already terminal, nothing to reconcile")
		return nil
	}

	prov, err := e.providers.Get(payment.Provider)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve payment provider")
	}
	canonical, err := prov.GetStatus(ctx, providerPaymentID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch provider status")
	}

	switch canonical.Status {
	case enums.PaymentStatusSucceeded:
		return e.applySuccess(ctx, payment, canonical)
	case enums.PaymentStatusFailed:
		return e.applyFailure(ctx, payment, canonical)
	case enums.PaymentStatusProcessing:
		return e.markProcessing(ctx, payment)
	default:
		// Still pending at the provider; a later event will move it.
		return nil
	}
}

func (e *Engine) applySuccess(ctx context.Context, payment *models.Payment, canonical *provider.StatusResult) error {
	return e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		paymentsRepo := e.payments.WithTx(tx)
		ordersRepo := e.orders.WithTx(tx)

		order, err := ordersRepo.FindByID(ctx, payment.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		// A paid amount that differs from the order total is never
		// reconciled automatically.
		if canonical.AmountCents != order.TotalCents {
			return pkgerrors.New(pkgerrors.CodeConflict, "paid amount does not match order total").
				WithDetails(map[string]any{
					"paid_cents":  canonical.AmountCents,
					"total_cents": order.TotalCents,
				})
		}

		won, err := paymentsRepo.TransitionStatus(ctx, payment.ID,
			[]enums.PaymentStatus{enums.PaymentStatusPending, enums.PaymentStatusProcessing},
			enums.PaymentStatusSucceeded, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment succeeded")
		}
		if !won {
			e.logg.Info(ctx, "payment transition lost, another reconciliation won")
			return nil
		}

		_, err = e.ordersSvc.Confirm(ctx, tx, orders.ConfirmOrderInput{
			OrderID:   order.ID,
			PaymentID: payment.ID,
		})
		if err != nil {
			typed := pkgerrors.As(err)
			if typed != nil && typed.Code() == pkgerrors.CodeStateConflict {
				return e.flagOrphaned(ctx, tx, payment, order, canonical)
			}
			return err
		}

		return e.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentSucceeded,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Version:       1,
			OccurredAt:    e.now().UTC(),
			Data: payloads.PaymentSucceededEvent{
				PaymentID:         payment.ID,
				OrderID:           order.ID,
				Provider:          payment.Provider,
				ProviderPaymentID: payment.ProviderPaymentID,
				AmountCents:       canonical.AmountCents,
				Currency:          payment.Currency,
			},
		})
	})
}

// flagOrphaned records a payment that succeeded after its order left the
// pending state. The money is real but the tickets are gone; a human
// decides the refund, nothing here re-confirms the order.
func (e *Engine) flagOrphaned(ctx context.Context, tx *gorm.DB, payment *models.Payment, order *models.Order, canonical *provider.StatusResult) error {
	e.logg.Error(ctx, "payment succeeded after order left pending, flagging for review",
		fmt.Errorf("order status %s", order.Status))

	return e.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventPaymentOrphaned,
		AggregateType: enums.AggregatePayment,
		AggregateID:   payment.ID,
		Version:       1,
		OccurredAt:    e.now().UTC(),
		Data: payloads.PaymentOrphanedEvent{
			PaymentID:         payment.ID,
			OrderID:           order.ID,
			ProviderPaymentID: payment.ProviderPaymentID,
			OrderStatus:       order.Status,
			AmountCents:       canonical.AmountCents,
		},
	})
}

func (e *Engine) applyFailure(ctx context.Context, payment *models.Payment, canonical *provider.StatusResult) error {
	return e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var reason *string
		if canonical.FailureReason != "" {
			reason = &canonical.FailureReason
		}

		won, err := e.payments.WithTx(tx).TransitionStatus(ctx, payment.ID,
			[]enums.PaymentStatus{enums.PaymentStatusPending, enums.PaymentStatusProcessing},
			enums.PaymentStatusFailed, reason)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment failed")
		}
		if !won {
			return nil
		}

		// The order stays pending: the buyer can retry with a fresh
		// payment until the reservation expires.
		return e.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentFailed,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Version:       1,
			OccurredAt:    e.now().UTC(),
			Data: payloads.PaymentFailedEvent{
				PaymentID:         payment.ID,
				OrderID:           payment.OrderID,
				Provider:          payment.Provider,
				ProviderPaymentID: payment.ProviderPaymentID,
				Reason:            canonical.FailureReason,
			},
		})
	})
}

func (e *Engine) markProcessing(ctx context.Context, payment *models.Payment) error {
	_, err := e.payments.TransitionStatus(ctx, payment.ID,
		[]enums.PaymentStatus{enums.PaymentStatusPending},
		enums.PaymentStatusProcessing, nil)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment processing")
	}
	return nil
}
