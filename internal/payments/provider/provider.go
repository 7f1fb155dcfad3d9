package provider

import (
	"context"

	"github.com/google/uuid"

	"github.com/reventa-uy/reventa-backend/pkg/enums"
)

// CreatePaymentInput carries everything a provider needs to open a checkout.
type CreatePaymentInput struct {
	OrderID     uuid.UUID
	BuyerUserID uuid.UUID
	AmountCents int64
	Currency    enums.Currency
	Description string
}

// PaymentIntent is the provider-side handle for a new payment.
type PaymentIntent struct {
	ProviderPaymentID string
	CheckoutURL       string
	Status            enums.PaymentStatus
}

// StatusResult is the canonical state of a payment as the provider reports
// it. Reconciliation always trusts this over webhook bodies.
type StatusResult struct {
	ProviderPaymentID string
	Status            enums.PaymentStatus
	AmountCents       int64
	Currency          enums.Currency
	FailureReason     string
}

// Provider abstracts one external payment processor.
type Provider interface {
	Name() enums.PaymentProvider
	CreatePayment(ctx context.Context, input CreatePaymentInput) (*PaymentIntent, error)
	GetStatus(ctx context.Context, providerPaymentID string) (*StatusResult, error)
	VerifyWebhookSignature(payload []byte, signature string) error
}
