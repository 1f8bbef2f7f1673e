package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sanabelapp/sanabel-backend/pkg/config"
	pkgerrors "github.com/sanabelapp/sanabel-backend/pkg/errors"
	"github.com/sanabelapp/sanabel-backend/pkg/logger"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(config.GatewayConfig{
		BaseURL:   baseURL,
		APIKey:    "test-key",
		Provider:  "upay",
		Currency:  "KWD",
		ReturnURL: "https://shop.test/payments/return",
		Timeout:   2 * time.Second,
	}, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestCreatePaymentLink(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/charges" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("missing auth header, got %q", got)
		}
		var body createLinkRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.Amount != "59.00" {
			t.Fatalf("amount not serialized to 2 decimals: %q", body.Amount)
		}
		json.NewEncoder(w).Encode(PaymentLink{TrackID: "trk-1", Link: "https://pay.test/trk-1"})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	link, err := client.CreatePaymentLink(context.Background(), CreateLinkInput{
		Reference: "ref-1",
		Amount:    decimal.RequireFromString("59"),
	})
	if err != nil {
		t.Fatalf("create link: %v", err)
	}
	if link.TrackID != "trk-1" {
		t.Fatalf("unexpected track id %q", link.TrackID)
	}
}

func TestCreatePaymentLinkGatewayDown(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.CreatePaymentLink(context.Background(), CreateLinkInput{
		Reference: "ref-1",
		Amount:    decimal.NewFromInt(10),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeGateway {
		t.Fatalf("expected gateway error, got %v", err)
	}
	if !pkgerrors.IsRetryable(err) {
		t.Fatal("gateway failures must be retryable")
	}
}

func TestGetPaymentStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/charges/trk-9" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(VerifiedStatus{
			TrackID:   "trk-9",
			IsSuccess: true,
			Amount:    decimal.RequireFromString("30.00"),
			Currency:  "KWD",
			ReceiptID: "rcpt-9",
			TranID:    "tran-9",
			OrderRef:  "ref-9",
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	status, err := client.GetPaymentStatus(context.Background(), "trk-9")
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	if !status.IsSuccess || status.ReceiptID != "rcpt-9" {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestGetPaymentStatusTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client, err := NewClient(config.GatewayConfig{
		BaseURL:   srv.URL,
		APIKey:    "test-key",
		ReturnURL: "https://shop.test/return",
		Timeout:   20 * time.Millisecond,
	}, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.GetPaymentStatus(context.Background(), "trk-slow")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeGateway {
		t.Fatalf("timeout should map to gateway error, got %v", err)
	}
}

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	logg := logger.New(logger.Options{ServiceName: "test"})
	if _, err := NewClient(config.GatewayConfig{APIKey: "k", ReturnURL: "r"}, logg); err == nil {
		t.Fatal("expected missing base url to error")
	}
	if _, err := NewClient(config.GatewayConfig{BaseURL: "https://x", ReturnURL: "r"}, logg); err == nil {
		t.Fatal("expected missing api key to error")
	}
	if _, err := NewClient(config.GatewayConfig{BaseURL: "https://x", APIKey: "k"}, logg); err == nil {
		t.Fatal("expected missing return url to error")
	}
}
