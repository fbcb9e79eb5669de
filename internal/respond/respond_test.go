package respond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestErrorCarriesCORSAndExtras(t *testing.T) {
	rr := httptest.NewRecorder()
	Error(rr, http.StatusBadGateway, "upstream_error", map[string]any{"status": 500, "detail": "boom"})

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS headers: %v", rr.Header())
	}
	if rr.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("unexpected content type %q", rr.Header().Get("Content-Type"))
	}

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "upstream_error" || body["status"] != float64(500) || body["detail"] != "boom" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestRawIsVerbatim(t *testing.T) {
	rr := httptest.NewRecorder()
	Raw(rr, http.StatusOK, []byte(" {\"a\" : 1}\n"))

	if rr.Body.String() != " {\"a\" : 1}\n" {
		t.Fatalf("body changed: %q", rr.Body.String())
	}
}
