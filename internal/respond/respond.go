// Package respond writes the gateway's JSON responses. Every response,
// success or error, carries the same CORS headers so browser callers can
// always read the body.
package respond

import (
	"encoding/json"
	"net/http"
)

var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Methods": "POST, OPTIONS",
	"Access-Control-Allow-Headers": "authorization, content-type, x-api-key",
}

// CORS sets the static CORS headers on h.
func CORS(h http.Header) {
	for k, v := range corsHeaders {
		h.Set(k, v)
	}
}

// Raw writes body verbatim as JSON with the given status.
func Raw(w http.ResponseWriter, status int, body []byte) {
	CORS(w.Header())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// JSON encodes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"internal_server_error"}`)
	}
	Raw(w, status, body)
}

// Error writes {"error": code} plus any extra fields.
func Error(w http.ResponseWriter, status int, code string, extra map[string]any) {
	payload := make(map[string]any, len(extra)+1)
	for k, v := range extra {
		payload[k] = v
	}
	payload["error"] = code
	JSON(w, status, payload)
}
