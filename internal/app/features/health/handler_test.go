package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/preemhub/internal/app/features/health"
	"github.com/dalemusser/preemhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

type fakePinger struct {
	err      error
	deadline bool
}

func (p *fakePinger) Ping(ctx context.Context, _ *readpref.ReadPref) error {
	_, p.deadline = ctx.Deadline()
	return p.err
}

type response struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Message  string `json:"message"`
}

func serve(t *testing.T, h *health.Handler) (*httptest.ResponseRecorder, response) {
	t.Helper()
	rec := httptest.NewRecorder()
	health.Routes(h).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want %q", ct, "application/json")
	}
	var resp response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return rec, resp
}

func TestServe_DatabaseConnected(t *testing.T) {
	p := &fakePinger{}
	rec, resp := serve(t, health.NewHandler(p, time.Second, zap.NewNop()))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if resp.Status != "ok" || resp.Database != "connected" {
		t.Errorf("unexpected body: %+v", resp)
	}
	if !p.deadline {
		t.Error("ping should run under a deadline")
	}
}

func TestServe_DatabaseDown(t *testing.T) {
	p := &fakePinger{err: errors.New("server selection timeout")}
	rec, resp := serve(t, health.NewHandler(p, 0, zap.NewNop()))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
	if resp.Status != "error" || resp.Database != "disconnected" {
		t.Errorf("unexpected body: %+v", resp)
	}
}

func TestServe_LiveMongo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	rec, resp := serve(t, health.NewHandler(db.Client(), time.Second, zap.NewNop()))
	if rec.Code != http.StatusOK || resp.Status != "ok" {
		t.Errorf("expected healthy response, got %d %+v", rec.Code, resp)
	}
}
