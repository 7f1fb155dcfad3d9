package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/reventa-uy/reventa-backend/internal/cron"
)

type fakeJob struct {
	name string
	runs int
	err  error
}

func (j *fakeJob) Name() string { return j.name }

func (j *fakeJob) Run(context.Context) error {
	j.runs++
	return j.err
}

func TestRunJobExecutesNamedJob(t *testing.T) {
	expiration := &fakeJob{name: "order-expiration"}
	sync := &fakeJob{name: "payment-sync"}
	handler := RunJob(cron.NewRegistry(expiration, sync), testControllerLogger())

	req := httptest.NewRequest(http.MethodPost, "/v1/jobs/payment-sync/run", nil)
	req = addRouteParam(req, "jobName", "payment-sync")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if sync.runs != 1 {
		t.Fatalf("expected one run of payment-sync, got %d", sync.runs)
	}
	if expiration.runs != 0 {
		t.Fatalf("order-expiration should not run, got %d runs", expiration.runs)
	}

	var envelope struct {
		Data struct {
			Job       string `json:"job"`
			Completed bool   `json:"completed"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if envelope.Data.Job != "payment-sync" || !envelope.Data.Completed {
		t.Fatalf("unexpected payload: %+v", envelope.Data)
	}
}

func TestRunJobUnknownName(t *testing.T) {
	handler := RunJob(cron.NewRegistry(&fakeJob{name: "order-expiration"}), testControllerLogger())

	req := httptest.NewRequest(http.MethodPost, "/v1/jobs/nope/run", nil)
	req = addRouteParam(req, "jobName", "nope")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestRunJobSurfacesFailure(t *testing.T) {
	failing := &fakeJob{name: "earnings-hold", err: errors.New("db unavailable")}
	handler := RunJob(cron.NewRegistry(failing), testControllerLogger())

	req := httptest.NewRequest(http.MethodPost, "/v1/jobs/earnings-hold/run", nil)
	req = addRouteParam(req, "jobName", "earnings-hold")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
	if failing.runs != 1 {
		t.Fatalf("expected the job to run once, got %d", failing.runs)
	}
}

func TestRunJobNilRegistry(t *testing.T) {
	handler := RunJob(nil, testControllerLogger())

	req := httptest.NewRequest(http.MethodPost, "/v1/jobs/order-expiration/run", nil)
	req = addRouteParam(req, "jobName", "order-expiration")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}
