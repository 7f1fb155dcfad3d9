package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reventa-uy/reventa-backend/pkg/db/models"
	"github.com/reventa-uy/reventa-backend/pkg/enums"
)

func TestFindWaveRefs(t *testing.T) {
	t.Parallel()

	db := setupCheckoutTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	event := models.Event{
		ID:       uuid.New(),
		Name:     "La Vela Puerca",
		Venue:    "Teatro de Verano",
		Currency: enums.CurrencyUYU,
		StartsAt: time.Now().Add(72 * time.Hour),
		EndsAt:   time.Now().Add(76 * time.Hour),
	}
	require.NoError(t, db.Create(&event).Error)

	waveA := models.TicketWave{ID: uuid.New(), EventID: event.ID, Name: "Preventa 1", FaceValueCents: 90000}
	waveB := models.TicketWave{ID: uuid.New(), EventID: event.ID, Name: "Preventa 2", FaceValueCents: 110000}
	require.NoError(t, db.Create(&waveA).Error)
	require.NoError(t, db.Create(&waveB).Error)

	refs, err := repo.FindWaveRefs(ctx, []uuid.UUID{waveA.ID, waveB.ID, waveA.ID})
	require.NoError(t, err)
	require.Len(t, refs, 2)

	assert.Equal(t, waveA.ID, refs[waveA.ID].Wave.ID)
	assert.Equal(t, event.ID, refs[waveA.ID].Event.ID)
	assert.Equal(t, enums.CurrencyUYU, refs[waveA.ID].Event.Currency)
	assert.Equal(t, int64(110000), refs[waveB.ID].Wave.FaceValueCents)

	// Unknown waves are simply absent from the map.
	refs, err = repo.FindWaveRefs(ctx, []uuid.UUID{uuid.New()})
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestFindPendingOrder(t *testing.T) {
	t.Parallel()

	db := setupCheckoutTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	buyer := uuid.New()
	eventID := uuid.New()

	found, err := repo.FindPendingOrder(ctx, buyer, eventID)
	require.NoError(t, err)
	assert.Nil(t, found)

	pending := models.Order{
		ID:            uuid.New(),
		BuyerUserID:   buyer,
		EventID:       eventID,
		Status:        enums.OrderStatusPending,
		Currency:      enums.CurrencyUYU,
		TotalCents:    89760,
		ReservedUntil: time.Now().Add(15 * time.Minute),
	}
	require.NoError(t, db.Create(&pending).Error)

	found, err = repo.FindPendingOrder(ctx, buyer, eventID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, pending.ID, found.ID)

	// Terminal orders do not block a new purchase.
	require.NoError(t, db.Model(&models.Order{}).
		Where("id = ?", pending.ID).
		Update("status", enums.OrderStatusCancelled).Error)

	found, err = repo.FindPendingOrder(ctx, buyer, eventID)
	require.NoError(t, err)
	assert.Nil(t, found)

	// Pending orders for other events or buyers are ignored.
	other := models.Order{
		ID:            uuid.New(),
		BuyerUserID:   buyer,
		EventID:       uuid.New(),
		Status:        enums.OrderStatusPending,
		Currency:      enums.CurrencyUYU,
		ReservedUntil: time.Now().Add(15 * time.Minute),
	}
	require.NoError(t, db.Create(&other).Error)

	found, err = repo.FindPendingOrder(ctx, buyer, eventID)
	require.NoError(t, err)
	assert.Nil(t, found)
}
