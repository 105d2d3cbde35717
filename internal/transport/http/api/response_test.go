package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFailWithDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	FailWithDetails(rec, http.StatusBadRequest, "validation_error", "bad", map[string]any{"fields": []string{"name"}}, "req-1")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var env struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
		RequestID string `json:"requestId"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Success || env.Error.Code != "validation_error" || env.RequestID != "req-1" {
		t.Fatalf("unexpected envelope %+v", env)
	}
	if _, ok := env.Error.Details["fields"]; !ok {
		t.Fatal("expected details to be encoded")
	}
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","extra":1}`))
	if err := Decode(req, &dst); err == nil {
		t.Fatal("expected unknown field to be rejected")
	}
}
