package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/refurbmart/refurbmart-backend/pkg/errors"
)

type sample struct {
	Name   string `json:"name" validate:"required"`
	Method string `json:"method" validate:"required,oneof=card demo"`
	Qty    int    `json:"qty" validate:"min=1"`
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"method":"barter","qty":0}`))
	var dest sample
	err := DecodeJSONBody(req, &dest)
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	details := pkgerrors.As(err).Details().(map[string]string)
	if details["name"] != "is required" {
		t.Fatalf("unexpected name detail %q", details["name"])
	}
	if details["method"] != "must be one of card, demo" {
		t.Fatalf("unexpected method detail %q", details["method"])
	}
	if details["qty"] != "must be at least 1" {
		t.Fatalf("unexpected qty detail %q", details["qty"])
	}
}

func TestDecodeJSONBodyRejectsUnknownAndEmpty(t *testing.T) {
	var dest sample
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","method":"card","qty":1,"extra":true}`))
	if err := DecodeJSONBody(req, &dest); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected unknown field rejection, got %v", err)
	}
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	if err := DecodeJSONBody(req, &dest); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected empty body rejection, got %v", err)
	}
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","method":"card","qty":2}`))
	if err := DecodeJSONBody(req, &dest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseUUIDParam(t *testing.T) {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "not-a-uuid")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	if _, err := ParseUUIDParam(req, "id"); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500", nil)
	if _, err := ParseQueryInt(req, "limit", 20, 1, 100); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected range error, got %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	if v, err := ParseQueryInt(req, "limit", 20, 1, 100); err != nil || v != 20 {
		t.Fatalf("expected default, got %d %v", v, err)
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  Dhaka  ", 0); got != "Dhaka" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
	if got := SanitizeString("ঢাকা শহর", 4); got != "ঢাকা" {
		t.Fatalf("expected rune-safe truncation, got %q", got)
	}
	if SanitizeOptional(nil, 10) != nil {
		t.Fatalf("nil should stay nil")
	}
	long := "  note  "
	if got := SanitizeOptional(&long, 10); got == nil || *got != "note" {
		t.Fatalf("unexpected optional %v", got)
	}
}
