package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	gatewaywebhook "github.com/sanabelapp/sanabel-backend/internal/webhooks/gateway"
	pkgerrors "github.com/sanabelapp/sanabel-backend/pkg/errors"
)

type fakeWebhookService struct {
	notifyCalls   int
	redirectCalls int
	notifyErr     error
	view          *gatewaywebhook.RedirectView
}

func (f *fakeWebhookService) HandleNotification(ctx context.Context, payload json.RawMessage) error {
	f.notifyCalls++
	return f.notifyErr
}

func (f *fakeWebhookService) RedirectView(ctx context.Context, trackID string) (*gatewaywebhook.RedirectView, error) {
	f.redirectCalls++
	if f.view == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	return f.view, nil
}

type inMemoryStore struct {
	mu   sync.Mutex
	keys map[string]string
}

func newInMemoryStore() *inMemoryStore {
	return &inMemoryStore{keys: map[string]string{}}
}

func (s *inMemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys[key], nil
}

func (s *inMemoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.keys[key]; exists {
		return false, nil
	}
	s.keys[key] = "1"
	return true, nil
}

func (s *inMemoryStore) IdempotencyKey(scope, id string) string {
	return "idemp:" + scope + ":" + id
}

func (s *inMemoryStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.keys, key)
	}
	return nil
}

func postNotification(handler http.HandlerFunc, payload []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/gateway", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestGatewayNotificationAcksAndDedupes(t *testing.T) {
	t.Parallel()

	service := &fakeWebhookService{}
	guard := gatewaywebhook.NewGuard(newInMemoryStore(), time.Minute)
	handler := GatewayNotification(service, guard, nil)

	payload := []byte(`{"trackid":"TRK-1","result":"CAPTURED"}`)

	rec := postNotification(handler, payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if service.notifyCalls != 1 {
		t.Fatalf("expected service called once, got %d", service.notifyCalls)
	}

	rec2 := postNotification(handler, payload)
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200 on duplicate, got %d (%s)", rec2.Code, rec2.Body.String())
	}
	if service.notifyCalls != 1 {
		t.Fatalf("expected duplicate suppressed, call count %d", service.notifyCalls)
	}
}

func TestGatewayNotificationRetryableReleasesGuard(t *testing.T) {
	t.Parallel()

	service := &fakeWebhookService{
		notifyErr: pkgerrors.New(pkgerrors.CodeGateway, "status verification unavailable"),
	}
	guard := gatewaywebhook.NewGuard(newInMemoryStore(), time.Minute)
	handler := GatewayNotification(service, guard, nil)

	payload := []byte(`{"trackid":"TRK-2","result":"CAPTURED"}`)

	rec := postNotification(handler, payload)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for transient failure, got %d", rec.Code)
	}

	// The guard must not swallow the gateway's retry of this delivery.
	service.notifyErr = nil
	rec2 := postNotification(handler, payload)
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200 on retry, got %d (%s)", rec2.Code, rec2.Body.String())
	}
	if service.notifyCalls != 2 {
		t.Fatalf("expected retry processed, call count %d", service.notifyCalls)
	}
}

func TestGatewayNotificationNonRetryableStillAcks(t *testing.T) {
	t.Parallel()

	service := &fakeWebhookService{
		notifyErr: pkgerrors.New(pkgerrors.CodeIntegrity, "amount mismatch"),
	}
	handler := GatewayNotification(service, nil, nil)

	rec := postNotification(handler, []byte(`{"trackid":"TRK-3","result":"CAPTURED"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for non-retryable failure, got %d (%s)", rec.Code, rec.Body.String())
	}

	var body struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Data["status"] != "rejected" {
		t.Fatalf("expected rejected status, got %q", body.Data["status"])
	}
}

func TestGatewayRedirectRequiresTrackID(t *testing.T) {
	t.Parallel()

	service := &fakeWebhookService{}
	handler := GatewayRedirect(service, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/webhooks/gateway/redirect", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if service.redirectCalls != 0 {
		t.Fatalf("service should not be invoked without track_id")
	}
	if service.notifyCalls != 0 {
		t.Fatalf("redirect must never trigger reconciliation")
	}
}

func TestGatewayRedirectReturnsView(t *testing.T) {
	t.Parallel()

	service := &fakeWebhookService{
		view: &gatewaywebhook.RedirectView{TrackID: "TRK-4", PaymentStatus: "completed"},
	}
	handler := GatewayRedirect(service, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/webhooks/gateway/redirect?track_id=TRK-4", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var body struct {
		Data gatewaywebhook.RedirectView `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Data.TrackID != "TRK-4" {
		t.Fatalf("expected track id TRK-4, got %q", body.Data.TrackID)
	}
	if service.notifyCalls != 0 {
		t.Fatalf("redirect must never trigger reconciliation")
	}
}
