package router

import (
	"fmt"
	"time"

	"github.com/reventa-uy/reventa-backend/internal/analytics/types"
	analyticswriter "github.com/reventa-uy/reventa-backend/internal/analytics/writer"
)

func buildBaseRow(envelope types.Envelope, occurred time.Time, payload any) (types.MarketplaceEventRow, error) {
	if occurred.IsZero() {
		occurred = envelope.OccurredAt
	}

	payloadJSON, err := analyticswriter.EncodeJSON(payload)
	if err != nil {
		return types.MarketplaceEventRow{}, fmt.Errorf("encode payload json: %w", err)
	}

	return types.MarketplaceEventRow{
		EventID:    envelope.EventID,
		EventType:  string(envelope.EventType),
		OccurredAt: occurred.UTC(),
		Payload:    payloadJSON,
	}, nil
}
