package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/reventa-uy/reventa-backend/internal/payments/provider"
	"github.com/reventa-uy/reventa-backend/pkg/config"
	"github.com/reventa-uy/reventa-backend/pkg/enums"
	"github.com/reventa-uy/reventa-backend/pkg/logger"
)

var (
	errAPIKeyRequired  = errors.New("mercadopago api key is required")
	errBaseURLRequired = errors.New("mercadopago base url is required")
	errSecretRequired  = errors.New("mercadopago webhook secret is required")
)

// Client talks to the MercadoPago REST API.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	apiKey        string
	webhookSecret string
	logg          *logger.Logger
}

// NewClient validates the provider configuration and builds the adapter.
func NewClient(ctx context.Context, cfg config.ProviderConfig, logg *logger.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	secret := strings.TrimSpace(cfg.WebhookSecret)
	if secret == "" {
		return nil, errSecretRequired
	}

	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	if logg != nil {
		logg.Info(ctx, "mercadopago client initialized")
	}

	return &Client{
		httpClient:    &http.Client{Timeout: timeout},
		baseURL:       baseURL,
		apiKey:        apiKey,
		webhookSecret: secret,
		logg:          logg,
	}, nil
}

// Name identifies the adapter to the provider factory.
func (c *Client) Name() enums.PaymentProvider {
	return enums.PaymentProviderMercadoPago
}

type preferenceItem struct {
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

type createPreferenceRequest struct {
	Items             []preferenceItem `json:"items"`
	ExternalReference string           `json:"external_reference"`
}

type createPreferenceResponse struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

// CreatePayment opens a checkout preference for the order total.
func (c *Client) CreatePayment(ctx context.Context, input provider.CreatePaymentInput) (*provider.PaymentIntent, error) {
	if input.AmountCents <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %d", input.AmountCents)
	}
	if !input.Currency.IsValid() {
		return nil, fmt.Errorf("invalid currency %q", input.Currency)
	}

	body := createPreferenceRequest{
		Items: []preferenceItem{{
			Title:      input.Description,
			Quantity:   1,
			UnitPrice:  centsToUnits(input.AmountCents),
			CurrencyID: string(input.Currency),
		}},
		ExternalReference: input.OrderID.String(),
	}

	var resp createPreferenceResponse
	if err := c.do(ctx, http.MethodPost, "/checkout/preferences", body, &resp); err != nil {
		return nil, fmt.Errorf("creating payment preference: %w", err)
	}
	if resp.ID == "" {
		return nil, errors.New("provider returned empty preference id")
	}

	return &provider.PaymentIntent{
		ProviderPaymentID: resp.ID,
		CheckoutURL:       resp.InitPoint,
		Status:            enums.PaymentStatusPending,
	}, nil
}

type paymentResponse struct {
	ID                json.Number `json:"id"`
	Status            string      `json:"status"`
	StatusDetail      string      `json:"status_detail"`
	TransactionAmount float64     `json:"transaction_amount"`
	CurrencyID        string      `json:"currency_id"`
}

// GetStatus fetches the canonical payment state from the provider.
func (c *Client) GetStatus(ctx context.Context, providerPaymentID string) (*provider.StatusResult, error) {
	id := strings.TrimSpace(providerPaymentID)
	if id == "" {
		return nil, errors.New("provider payment id is required")
	}

	var resp paymentResponse
	if err := c.do(ctx, http.MethodGet, "/v1/payments/"+id, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching payment %s: %w", id, err)
	}

	currency, err := enums.ParseCurrency(resp.CurrencyID)
	if err != nil {
		return nil, fmt.Errorf("payment %s: %w", id, err)
	}

	return &provider.StatusResult{
		ProviderPaymentID: id,
		Status:            mapStatus(resp.Status),
		AmountCents:       unitsToCents(resp.TransactionAmount),
		Currency:          currency,
		FailureReason:     resp.StatusDetail,
	}, nil
}

// VerifyWebhookSignature validates the x-signature header on notifications.
func (c *Client) VerifyWebhookSignature(payload []byte, signature string) error {
	return provider.VerifyHMACSignature(c.webhookSecret, payload, signature)
}

func mapStatus(raw string) enums.PaymentStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "approved", "authorized":
		return enums.PaymentStatusSucceeded
	case "rejected", "cancelled", "refunded", "charged_back":
		return enums.PaymentStatusFailed
	case "in_process", "in_mediation":
		return enums.PaymentStatusProcessing
	default:
		return enums.PaymentStatusPending
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("provider returned %d: %s", resp.StatusCode, truncate(string(raw), 256))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func centsToUnits(cents int64) float64 {
	f, _ := decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).Float64()
	return f
}

func unitsToCents(units float64) int64 {
	return decimal.NewFromFloat(units).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
