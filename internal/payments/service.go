package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reventa-uy/reventa-backend/internal/orders"
	"github.com/reventa-uy/reventa-backend/internal/payments/provider"
	"github.com/reventa-uy/reventa-backend/pkg/db/models"
	"github.com/reventa-uy/reventa-backend/pkg/enums"
	pkgerrors "github.com/reventa-uy/reventa-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages payment attempts against the configured provider.
type Service interface {
	CreatePayment(ctx context.Context, input CreatePaymentInput) (*PaymentDTO, error)
	ListOrderPayments(ctx context.Context, orderID, requesterUserID uuid.UUID) ([]PaymentDTO, error)
}

// CreatePaymentInput opens a new payment attempt for a pending order.
type CreatePaymentInput struct {
	OrderID     uuid.UUID
	BuyerUserID uuid.UUID
}

// PaymentDTO is the API-facing shape of a payment attempt.
type PaymentDTO struct {
	ID                uuid.UUID             `json:"id"`
	OrderID           uuid.UUID             `json:"order_id"`
	Provider          enums.PaymentProvider `json:"provider"`
	ProviderPaymentID string                `json:"provider_payment_id"`
	Status            enums.PaymentStatus   `json:"status"`
	AmountCents       int64                 `json:"amount_cents"`
	Currency          enums.Currency        `json:"currency"`
	CheckoutURL       *string               `json:"checkout_url,omitempty"`
	FailureReason     *string               `json:"failure_reason,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
}

type service struct {
	tx        txRunner
	repo      Repository
	orders    orders.Repository
	providers *provider.Factory
	now       func() time.Time
}

// NewService builds the payment creation service.
func NewService(tx txRunner, repo Repository, ordersRepo orders.Repository, providers *provider.Factory) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if providers == nil {
		return nil, fmt.Errorf("provider factory required")
	}
	return &service{
		tx:        tx,
		repo:      repo,
		orders:    ordersRepo,
		providers: providers,
		now:       time.Now,
	}, nil
}

// CreatePayment opens a provider checkout for a pending order. The provider
// call happens before the transaction: a provider-side payment without a
// local row is recoverable via the poll-sync job, a local row without a
// provider payment is not.
func (s *service) CreatePayment(ctx context.Context, input CreatePaymentInput) (*PaymentDTO, error) {
	if input.BuyerUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	order, err := s.orders.FindByID(ctx, input.OrderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.BuyerUserID != input.BuyerUserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another buyer")
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not payable").
			WithDetails(map[string]any{"status": order.Status})
	}
	if s.now().After(order.ReservedUntil) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order reservation expired")
	}

	succeeded, err := s.repo.HasSucceeded(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check prior payments")
	}
	if succeeded {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order already has a successful payment")
	}

	prov, err := s.providers.Default()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve payment provider")
	}
	intent, err := prov.CreatePayment(ctx, provider.CreatePaymentInput{
		OrderID:     order.ID,
		BuyerUserID: order.BuyerUserID,
		AmountCents: order.TotalCents,
		Currency:    order.Currency,
		Description: fmt.Sprintf("Reventa order %s", order.ID),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create provider payment")
	}

	payment := &models.Payment{
		ID:                uuid.New(),
		OrderID:           order.ID,
		Provider:          prov.Name(),
		ProviderPaymentID: intent.ProviderPaymentID,
		Status:            enums.PaymentStatusPending,
		AmountCents:       order.TotalCents,
		Currency:          order.Currency,
	}
	if intent.CheckoutURL != "" {
		url := intent.CheckoutURL
		payment.CheckoutURL = &url
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, payment)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist payment")
	}

	dto := toPaymentDTO(payment)
	return &dto, nil
}

func (s *service) ListOrderPayments(ctx context.Context, orderID, requesterUserID uuid.UUID) ([]PaymentDTO, error) {
	if requesterUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.BuyerUserID != requesterUserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another buyer")
	}

	rows, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	dtos := make([]PaymentDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, toPaymentDTO(&rows[i]))
	}
	return dtos, nil
}

func toPaymentDTO(payment *models.Payment) PaymentDTO {
	return PaymentDTO{
		ID:                payment.ID,
		OrderID:           payment.OrderID,
		Provider:          payment.Provider,
		ProviderPaymentID: payment.ProviderPaymentID,
		Status:            payment.Status,
		AmountCents:       payment.AmountCents,
		Currency:          payment.Currency,
		CheckoutURL:       payment.CheckoutURL,
		FailureReason:     payment.FailureReason,
		CreatedAt:         payment.CreatedAt,
	}
}
