package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/reventa-uy/reventa-backend/api/responses"
	pkgerrors "github.com/reventa-uy/reventa-backend/pkg/errors"
	"github.com/reventa-uy/reventa-backend/pkg/logger"
)

const maxWebhookBodyBytes = 1 << 20

// Verifier checks a webhook payload against its signature header.
type Verifier interface {
	VerifyWebhookSignature(payload []byte, signature string) error
}

// Reconciler drives a payment to the status its provider reports.
type Reconciler interface {
	ProcessProviderEvent(ctx context.Context, providerPaymentID string) error
}

// providerNotification is the subset of the provider's webhook body we
// act on. The body is never trusted for payment state, only for the id
// to re-fetch.
type providerNotification struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Provider handles payment notifications from the payment provider.
// Signature failures are rejected with 401 so misconfigured senders
// surface loudly. Everything past the signature check is acknowledged
// with 200: the provider retries on non-2xx, and a malformed or
// unprocessable body will not get better on retry.
func Provider(verifier Verifier, reconciler Reconciler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if verifier == nil || reconciler == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook handler unavailable"))
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unable to read webhook body"))
			return
		}

		signature := r.Header.Get("X-Signature")
		if err := verifier.VerifyWebhookSignature(body, signature); err != nil {
			logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "webhook signature rejected")
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook signature"))
			return
		}

		var notification providerNotification
		if err := json.Unmarshal(body, &notification); err != nil {
			logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "webhook body unparseable, acknowledging")
			responses.WriteSuccess(w, map[string]any{"received": true})
			return
		}

		if notification.Type != "" && notification.Type != "payment" {
			responses.WriteSuccess(w, map[string]any{"received": true})
			return
		}

		paymentID := strings.TrimSpace(notification.Data.ID)
		if paymentID == "" {
			logg.Warn(r.Context(), "webhook missing payment id, acknowledging")
			responses.WriteSuccess(w, map[string]any{"received": true})
			return
		}

		// Reconciliation re-fetches the payment from the provider, so it
		// runs detached from the request: the provider gets its ack fast
		// and a slow or failing fetch never turns into a webhook retry.
		ctx := context.WithoutCancel(r.Context())
		go func() {
			if err := reconciler.ProcessProviderEvent(ctx, paymentID); err != nil {
				logg.Error(logg.WithField(ctx, "provider_payment_id", paymentID), "webhook reconciliation failed", err)
			}
		}()

		responses.WriteSuccess(w, map[string]any{"received": true})
	}
}
