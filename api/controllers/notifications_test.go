package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/reventa-uy/reventa-backend/api/middleware"
	"github.com/reventa-uy/reventa-backend/internal/notifications"
	"github.com/reventa-uy/reventa-backend/pkg/logger"
)

type testNotificationsService struct {
	markReadFn    func(ctx context.Context, userID, notificationID uuid.UUID) error
	markAllReadFn func(ctx context.Context, userID uuid.UUID) (int64, error)
	listFn        func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error)
}

func (s *testNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params)
	}
	return nil, nil
}

func (s *testNotificationsService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if s.markReadFn != nil {
		return s.markReadFn(ctx, userID, notificationID)
	}
	return nil
}

func (s *testNotificationsService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if s.markAllReadFn != nil {
		return s.markAllReadFn(ctx, userID)
	}
	return 0, nil
}

func testControllerLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func addRouteParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestListNotificationsForwardsParams(t *testing.T) {
	userID := uuid.New()
	var got notifications.ListParams
	svc := &testNotificationsService{
		listFn: func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
			got = params
			return &notifications.ListResult{Cursor: "next"}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications?limit=5&unreadOnly=true", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
	resp := httptest.NewRecorder()
	ListNotifications(svc, testControllerLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if got.UserID != userID {
		t.Fatalf("expected user %s got %s", userID, got.UserID)
	}
	if got.Limit != 5 || !got.UnreadOnly {
		t.Fatalf("unexpected params %+v", got)
	}
}

func TestListNotificationsMissingUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil)
	resp := httptest.NewRecorder()
	ListNotifications(&testNotificationsService{}, testControllerLogger())(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestMarkNotificationReadSuccess(t *testing.T) {
	userID := uuid.New()
	notificationID := uuid.New()
	called := false
	svc := &testNotificationsService{
		markReadFn: func(ctx context.Context, uid, nid uuid.UUID) error {
			called = true
			if uid != userID {
				t.Fatalf("unexpected user %s", uid)
			}
			if nid != notificationID {
				t.Fatalf("unexpected notification %s", nid)
			}
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/"+notificationID.String()+"/read", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
	req = addRouteParam(req, "notificationId", notificationID.String())

	resp := httptest.NewRecorder()
	MarkNotificationRead(svc, testControllerLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if !called {
		t.Fatal("expected service called")
	}
	var envelope struct {
		Data map[string]bool `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !envelope.Data["read"] {
		t.Fatal("response missing read flag")
	}
}

func TestMarkNotificationReadMissingUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/"+uuid.NewString()+"/read", nil)
	req = addRouteParam(req, "notificationId", uuid.NewString())
	resp := httptest.NewRecorder()
	MarkNotificationRead(&testNotificationsService{}, testControllerLogger())(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestMarkNotificationReadInvalidID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/invalid/read", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	req = addRouteParam(req, "notificationId", "invalid")
	resp := httptest.NewRecorder()
	MarkNotificationRead(&testNotificationsService{}, testControllerLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestMarkAllNotificationsReadSuccess(t *testing.T) {
	userID := uuid.New()
	called := false
	svc := &testNotificationsService{
		markAllReadFn: func(ctx context.Context, uid uuid.UUID) (int64, error) {
			called = true
			if uid != userID {
				t.Fatalf("unexpected user %s", uid)
			}
			return 5, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/read-all", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
	resp := httptest.NewRecorder()
	MarkAllNotificationsRead(svc, testControllerLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if !called {
		t.Fatal("expected service called")
	}
	var envelope struct {
		Data map[string]float64 `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data["updated"] != 5 {
		t.Fatalf("expected updated=5 got %v", envelope.Data["updated"])
	}
}
