package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reventa-uy/reventa-backend/pkg/db/models"
	"github.com/reventa-uy/reventa-backend/pkg/enums"
	pkgerrors "github.com/reventa-uy/reventa-backend/pkg/errors"
	"github.com/reventa-uy/reventa-backend/pkg/outbox"
	"github.com/reventa-uy/reventa-backend/pkg/pagination"
)

type stubOrdersRepo struct {
	order         *models.Order
	transitioned  []enums.OrderStatus
	transitionWon bool
	releasedAt    *time.Time
	cancelledAt   *time.Time
	ticketsSold   bool
	listingsSold  bool
	soldRefs      []SoldTicketRef
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrdersRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	s.order = order
	return order, nil
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.ID != orderID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.order
	return &copied, nil
}

func (s *stubOrdersRepo) ListBuyerOrders(ctx context.Context, buyerUserID uuid.UUID, params pagination.Params, filters BuyerOrderFilters) (*BuyerOrderList, error) {
	return &BuyerOrderList{}, nil
}

func (s *stubOrdersRepo) FindExpiredPendingIDs(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	return nil, nil
}

func (s *stubOrdersRepo) TransitionFromPending(ctx context.Context, orderID uuid.UUID, to enums.OrderStatus) (bool, error) {
	s.transitioned = append(s.transitioned, to)
	if s.transitionWon {
		s.order.Status = to
	}
	return s.transitionWon, nil
}

func (s *stubOrdersRepo) SetCancelledAt(ctx context.Context, orderID uuid.UUID, at time.Time) error {
	s.cancelledAt = &at
	return nil
}

func (s *stubOrdersRepo) ReleaseTicketHolds(ctx context.Context, orderID uuid.UUID, releasedAt time.Time) (int64, error) {
	s.releasedAt = &releasedAt
	return int64(len(s.order.Tickets)), nil
}

func (s *stubOrdersRepo) MarkTicketsSold(ctx context.Context, orderID uuid.UUID, soldAt time.Time) error {
	s.ticketsSold = true
	return nil
}

func (s *stubOrdersRepo) MarkListingsSold(ctx context.Context, orderID uuid.UUID, soldAt time.Time) error {
	s.listingsSold = true
	return nil
}

func (s *stubOrdersRepo) FindSoldTicketRefs(ctx context.Context, orderID uuid.UUID) ([]SoldTicketRef, error) {
	return s.soldRefs, nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type recordingOutbox struct {
	emitted []outbox.DomainEvent
}

func (r *recordingOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	r.emitted = append(r.emitted, event)
	return nil
}

func (r *recordingOutbox) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	r.emitted = append(r.emitted, event)
	return nil
}

type recordingEarnings struct {
	order   *models.Order
	tickets []SoldTicketRef
}

func (r *recordingEarnings) CreateForSale(ctx context.Context, tx *gorm.DB, order *models.Order, tickets []SoldTicketRef) ([]models.SellerEarnings, error) {
	r.order = order
	r.tickets = tickets
	return nil, nil
}

func pendingOrder(buyerID uuid.UUID) *models.Order {
	return &models.Order{
		ID:            uuid.New(),
		BuyerUserID:   buyerID,
		EventID:       uuid.New(),
		Status:        enums.OrderStatusPending,
		Currency:      enums.CurrencyUYU,
		SubtotalCents: 160000,
		TotalCents:    179520,
		ReservedUntil: time.Now().Add(15 * time.Minute),
		Tickets: []models.OrderTicket{
			{ID: uuid.New(), ListingTicketID: uuid.New(), PriceCents: 80000},
			{ID: uuid.New(), ListingTicketID: uuid.New(), PriceCents: 80000},
		},
	}
}

func newTestService(t *testing.T, repo *stubOrdersRepo) (Service, *recordingOutbox, *recordingEarnings) {
	t.Helper()
	ob := &recordingOutbox{}
	earn := &recordingEarnings{}
	svc, err := NewService(repo, fakeTxRunner{}, ob, earn)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, ob, earn
}

func TestCancelReleasesHoldsAndEmits(t *testing.T) {
	buyerID := uuid.New()
	repo := &stubOrdersRepo{order: pendingOrder(buyerID), transitionWon: true}
	svc, ob, _ := newTestService(t, repo)

	err := svc.Cancel(context.Background(), CancelOrderInput{
		OrderID:     repo.order.ID,
		BuyerUserID: buyerID,
		Reason:      "changed my mind",
	})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if repo.releasedAt == nil {
		t.Fatal("expected ticket holds released")
	}
	if repo.cancelledAt == nil {
		t.Fatal("expected cancelled_at stamped")
	}
	if len(ob.emitted) != 1 || ob.emitted[0].EventType != enums.EventOrderCancelled {
		t.Fatalf("unexpected events: %+v", ob.emitted)
	}
}

func TestCancelForbiddenForOtherBuyer(t *testing.T) {
	repo := &stubOrdersRepo{order: pendingOrder(uuid.New()), transitionWon: true}
	svc, _, _ := newTestService(t, repo)

	err := svc.Cancel(context.Background(), CancelOrderInput{
		OrderID:     repo.order.ID,
		BuyerUserID: uuid.New(),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCancelAlreadyCancelledIsNoop(t *testing.T) {
	buyerID := uuid.New()
	order := pendingOrder(buyerID)
	order.Status = enums.OrderStatusCancelled
	repo := &stubOrdersRepo{order: order}
	svc, ob, _ := newTestService(t, repo)

	if err := svc.Cancel(context.Background(), CancelOrderInput{OrderID: order.ID, BuyerUserID: buyerID}); err != nil {
		t.Fatalf("cancel replay: %v", err)
	}
	if len(ob.emitted) != 0 {
		t.Fatalf("replay must not emit, got %+v", ob.emitted)
	}
}

func TestCancelConfirmedOrderConflicts(t *testing.T) {
	buyerID := uuid.New()
	order := pendingOrder(buyerID)
	order.Status = enums.OrderStatusConfirmed
	repo := &stubOrdersRepo{order: order, transitionWon: false}
	svc, _, _ := newTestService(t, repo)

	err := svc.Cancel(context.Background(), CancelOrderInput{OrderID: order.ID, BuyerUserID: buyerID})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestConfirmMarksSoldAndEmits(t *testing.T) {
	buyerID := uuid.New()
	order := pendingOrder(buyerID)
	sellerID := uuid.New()
	listingID := uuid.New()
	repo := &stubOrdersRepo{
		order:         order,
		transitionWon: true,
		soldRefs: []SoldTicketRef{
			{ListingTicketID: order.Tickets[0].ListingTicketID, ListingID: listingID, SellerUserID: sellerID, PriceCents: 80000},
			{ListingTicketID: order.Tickets[1].ListingTicketID, ListingID: listingID, SellerUserID: sellerID, PriceCents: 80000},
		},
	}
	svc, ob, earn := newTestService(t, repo)

	paymentID := uuid.New()
	confirmed, err := svc.Confirm(context.Background(), &gorm.DB{}, ConfirmOrderInput{
		OrderID:   order.ID,
		PaymentID: paymentID,
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.Status != enums.OrderStatusConfirmed {
		t.Fatalf("status = %s", confirmed.Status)
	}
	if !repo.ticketsSold || !repo.listingsSold {
		t.Fatal("expected tickets and listings marked sold")
	}
	if repo.releasedAt == nil {
		t.Fatal("expected holds released after confirm")
	}
	if earn.order == nil || len(earn.tickets) != 2 {
		t.Fatalf("expected earnings rows for both tickets, got %+v", earn.tickets)
	}

	if len(ob.emitted) != 3 {
		t.Fatalf("expected order_confirmed plus 2 ticket_sold, got %d", len(ob.emitted))
	}
	if ob.emitted[0].EventType != enums.EventOrderConfirmed {
		t.Fatalf("first event = %s", ob.emitted[0].EventType)
	}
	for _, event := range ob.emitted[1:] {
		if event.EventType != enums.EventTicketSold {
			t.Fatalf("unexpected event %s", event.EventType)
		}
	}
}

func TestConfirmLosesRaceReturnsConflict(t *testing.T) {
	order := pendingOrder(uuid.New())
	order.Status = enums.OrderStatusExpired
	repo := &stubOrdersRepo{order: order, transitionWon: false}
	svc, ob, _ := newTestService(t, repo)

	_, err := svc.Confirm(context.Background(), &gorm.DB{}, ConfirmOrderInput{
		OrderID:   order.ID,
		PaymentID: uuid.New(),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if repo.ticketsSold || len(ob.emitted) != 0 {
		t.Fatal("losing the transition must have no side effects")
	}
}

func TestGetEnforcesOwnership(t *testing.T) {
	buyerID := uuid.New()
	repo := &stubOrdersRepo{order: pendingOrder(buyerID)}
	svc, _, _ := newTestService(t, repo)

	summary, err := svc.Get(context.Background(), repo.order.ID, buyerID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if summary.TicketCount != 2 {
		t.Fatalf("ticket count = %d", summary.TicketCount)
	}

	if _, err := svc.Get(context.Background(), repo.order.ID, uuid.New()); err == nil {
		t.Fatal("expected forbidden for foreign order")
	}
}
