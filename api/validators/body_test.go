package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/sanabelapp/sanabel-backend/pkg/errors"
)

type samplePayload struct {
	CustomerID string `json:"customer_id" validate:"required"`
	Points     int    `json:"points" validate:"gte=0"`
}

func TestDecodeJSONBodyValid(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"customer_id":"abc","points":10}`))
	var dest samplePayload
	if err := DecodeJSONBody(req, &dest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dest.CustomerID != "abc" || dest.Points != 10 {
		t.Fatalf("unexpected payload: %+v", dest)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"customer_id":"abc","bogus":true}`))
	var dest samplePayload
	err := DecodeJSONBody(req, &dest)
	if err == nil {
		t.Fatalf("expected error for unknown field")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeJSONBodyUsesJSONFieldNames(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"points":-1}`))
	var dest samplePayload
	err := DecodeJSONBody(req, &dest)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %v", typed.Details())
	}
	if _, found := details["customer_id"]; !found {
		t.Fatalf("expected customer_id in details, got %v", details)
	}
	if _, found := details["points"]; !found {
		t.Fatalf("expected points in details, got %v", details)
	}
}
