package router

import (
	"context"

	"github.com/reventa-uy/reventa-backend/internal/analytics/types"
)

type fakeWriter struct {
	inserted []types.MarketplaceEventRow
}

func (f *fakeWriter) InsertMarketplace(_ context.Context, row types.MarketplaceEventRow) error {
	f.inserted = append(f.inserted, row)
	return nil
}
