package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/reventa-uy/reventa-backend/pkg/db/models"
	"github.com/reventa-uy/reventa-backend/pkg/enums"
	pkgerrors "github.com/reventa-uy/reventa-backend/pkg/errors"
)

type sqliteTxRunner struct {
	db *gorm.DB
}

func (r sqliteTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func setupInventoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS events (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  venue TEXT NOT NULL,
  currency TEXT NOT NULL DEFAULT 'UYU',
  starts_at DATETIME NOT NULL,
  ends_at DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS ticket_waves (
  id TEXT PRIMARY KEY,
  event_id TEXT NOT NULL,
  name TEXT NOT NULL,
  face_value_cents INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS listings (
  id TEXT PRIMARY KEY,
  seller_user_id TEXT NOT NULL,
  ticket_wave_id TEXT NOT NULL,
  sold_at DATETIME,
  deleted_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS listing_tickets (
  id TEXT PRIMARY KEY,
  listing_id TEXT NOT NULL,
  ticket_number INTEGER NOT NULL,
  price_cents INTEGER NOT NULL,
  sold_at DATETIME,
  cancelled_at DATETIME,
  deleted_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_listing_tickets_listing_number
  ON listing_tickets (listing_id, ticket_number);`,
		`CREATE TABLE IF NOT EXISTS order_tickets (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  listing_ticket_id TEXT NOT NULL,
  price_cents INTEGER NOT NULL,
  reserved_until DATETIME NOT NULL,
  deleted_at DATETIME,
  created_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func newInventoryService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), sqliteTxRunner{db: db})
	require.NoError(t, err)
	return svc
}

func seedWave(t *testing.T, db *gorm.DB, faceValueCents int64, endsAt time.Time) models.TicketWave {
	t.Helper()
	event := models.Event{
		ID:       uuid.New(),
		Name:     "La Vela Puerca",
		Venue:    "Antel Arena",
		Currency: enums.CurrencyUYU,
		StartsAt: endsAt.Add(-3 * time.Hour),
		EndsAt:   endsAt,
	}
	require.NoError(t, db.Create(&event).Error)
	wave := models.TicketWave{
		ID:             uuid.New(),
		EventID:        event.ID,
		Name:           "Preventa 1",
		FaceValueCents: faceValueCents,
	}
	require.NoError(t, db.Create(&wave).Error)
	return wave
}

func TestCreateListing(t *testing.T) {
	db := setupInventoryTestDB(t)
	svc := newInventoryService(t, db)
	ctx := context.Background()

	wave := seedWave(t, db, 100000, time.Now().Add(48*time.Hour))
	sellerID := uuid.New()

	dto, err := svc.Create(ctx, CreateListingInput{
		SellerUserID:  sellerID,
		TicketWaveID:  wave.ID,
		TicketNumbers: []int{101, 102, 103},
		PriceCents:    80000,
	})
	require.NoError(t, err)
	assert.Equal(t, sellerID, dto.SellerUserID)
	require.Len(t, dto.Tickets, 3)
	for i, ticket := range dto.Tickets {
		assert.Equal(t, 101+i, ticket.TicketNumber)
		assert.EqualValues(t, 80000, ticket.PriceCents)
		assert.Equal(t, TicketStateAvailable, ticket.State)
	}

	var count int64
	require.NoError(t, db.Model(&models.ListingTicket{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)
}

func TestCreateListingValidation(t *testing.T) {
	db := setupInventoryTestDB(t)
	svc := newInventoryService(t, db)
	ctx := context.Background()

	wave := seedWave(t, db, 100000, time.Now().Add(48*time.Hour))
	sellerID := uuid.New()

	cases := []struct {
		name  string
		input CreateListingInput
		code  pkgerrors.Code
	}{
		{
			name:  "missing wave",
			input: CreateListingInput{SellerUserID: sellerID, TicketWaveID: uuid.New(), TicketNumbers: []int{1}, PriceCents: 1000},
			code:  pkgerrors.CodeNotFound,
		},
		{
			name:  "no tickets",
			input: CreateListingInput{SellerUserID: sellerID, TicketWaveID: wave.ID, PriceCents: 1000},
			code:  pkgerrors.CodeValidation,
		},
		{
			name:  "duplicate numbers",
			input: CreateListingInput{SellerUserID: sellerID, TicketWaveID: wave.ID, TicketNumbers: []int{7, 7}, PriceCents: 1000},
			code:  pkgerrors.CodeValidation,
		},
		{
			name:  "price above face value",
			input: CreateListingInput{SellerUserID: sellerID, TicketWaveID: wave.ID, TicketNumbers: []int{1}, PriceCents: 100001},
			code:  pkgerrors.CodeValidation,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.input)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed, "expected coded error, got %v", err)
			assert.Equal(t, tc.code, typed.Code())
		})
	}
}

func TestCreateListingEndedEvent(t *testing.T) {
	db := setupInventoryTestDB(t)
	svc := newInventoryService(t, db)

	wave := seedWave(t, db, 100000, time.Now().Add(-time.Hour))
	_, err := svc.Create(context.Background(), CreateListingInput{
		SellerUserID:  uuid.New(),
		TicketWaveID:  wave.ID,
		TicketNumbers: []int{1},
		PriceCents:    1000,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestCreateListingDuplicateTicketNumberConflicts(t *testing.T) {
	db := setupInventoryTestDB(t)
	svc := newInventoryService(t, db)
	ctx := context.Background()

	wave := seedWave(t, db, 100000, time.Now().Add(48*time.Hour))
	sellerID := uuid.New()

	first, err := svc.Create(ctx, CreateListingInput{
		SellerUserID:  sellerID,
		TicketWaveID:  wave.ID,
		TicketNumbers: []int{55},
		PriceCents:    80000,
	})
	require.NoError(t, err)

	// Re-listing the same number in the same listing row set trips the
	// unique index; a second listing may reuse the number since the scope
	// is (listing_id, ticket_number).
	second, err := svc.Create(ctx, CreateListingInput{
		SellerUserID:  sellerID,
		TicketWaveID:  wave.ID,
		TicketNumbers: []int{55},
		PriceCents:    80000,
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestCancelListing(t *testing.T) {
	db := setupInventoryTestDB(t)
	svc := newInventoryService(t, db)
	ctx := context.Background()

	wave := seedWave(t, db, 100000, time.Now().Add(48*time.Hour))
	sellerID := uuid.New()

	dto, err := svc.Create(ctx, CreateListingInput{
		SellerUserID:  sellerID,
		TicketWaveID:  wave.ID,
		TicketNumbers: []int{1, 2},
		PriceCents:    80000,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(ctx, dto.ID, sellerID))

	reloaded, err := svc.Get(ctx, dto.ID, sellerID)
	require.NoError(t, err)
	assert.True(t, reloaded.Cancelled)
	for _, ticket := range reloaded.Tickets {
		assert.Equal(t, TicketStateCancelled, ticket.State)
	}

	// Replay is a no-op.
	require.NoError(t, svc.Cancel(ctx, dto.ID, sellerID))
}

func TestCancelListingBlockedByActiveHold(t *testing.T) {
	db := setupInventoryTestDB(t)
	svc := newInventoryService(t, db)
	ctx := context.Background()

	wave := seedWave(t, db, 100000, time.Now().Add(48*time.Hour))
	sellerID := uuid.New()

	dto, err := svc.Create(ctx, CreateListingInput{
		SellerUserID:  sellerID,
		TicketWaveID:  wave.ID,
		TicketNumbers: []int{1},
		PriceCents:    80000,
	})
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.OrderTicket{
		ID:              uuid.New(),
		OrderID:         uuid.New(),
		ListingTicketID: dto.Tickets[0].ID,
		PriceCents:      80000,
		ReservedUntil:   time.Now().Add(10 * time.Minute),
	}).Error)

	err = svc.Cancel(ctx, dto.ID, sellerID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestCancelListingForbiddenForOtherSeller(t *testing.T) {
	db := setupInventoryTestDB(t)
	svc := newInventoryService(t, db)
	ctx := context.Background()

	wave := seedWave(t, db, 100000, time.Now().Add(48*time.Hour))
	dto, err := svc.Create(ctx, CreateListingInput{
		SellerUserID:  uuid.New(),
		TicketWaveID:  wave.ID,
		TicketNumbers: []int{1},
		PriceCents:    80000,
	})
	require.NoError(t, err)

	err = svc.Cancel(ctx, dto.ID, uuid.New())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}
