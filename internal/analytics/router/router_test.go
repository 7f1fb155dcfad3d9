package router

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/reventa-uy/reventa-backend/internal/analytics/types"
	"github.com/reventa-uy/reventa-backend/pkg/enums"
	"github.com/reventa-uy/reventa-backend/pkg/logger"
	"github.com/reventa-uy/reventa-backend/pkg/outbox/payloads"
)

func TestRouterUnsupportedEvent(t *testing.T) {
	router := newTestRouter(t, nil)
	env := types.Envelope{
		EventType: enums.EventOrderCreated,
		Payload:   []byte(`{"foo":"bar"}`),
	}
	err := router.Handle(context.Background(), env)
	if !errors.Is(err, ErrUnsupportedEventType) {
		t.Fatalf("expected unsupported error, got %v", err)
	}
}

func TestRouterRoutesToHandler(t *testing.T) {
	handler := &stubHandler{}
	router := newTestRouter(t, map[enums.OutboxEventType]Handler{
		enums.EventTicketSold: handler,
	})
	payload := payloads.TicketSoldEvent{
		ListingTicketID: uuid.New(),
		OrderID:         uuid.New(),
		PriceCents:      80000,
	}
	data, _ := json.Marshal(payload)
	env := types.Envelope{
		EventType: enums.EventTicketSold,
		Payload:   data,
	}
	if err := router.Handle(context.Background(), env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handler.called {
		t.Fatalf("handler not invoked")
	}
}

func newTestRouter(t *testing.T, overrides map[enums.OutboxEventType]Handler) *Router {
	t.Helper()
	writer := &fakeWriter{}
	router, err := NewRouter(writer, logger.New(logger.Options{ServiceName: "router-test"}), overrides)
	if err != nil {
		t.Fatalf("construct router: %v", err)
	}
	return router
}

type stubHandler struct {
	called bool
}

func (s *stubHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	s.called = true
	return nil
}
