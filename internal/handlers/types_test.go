package handlers

import (
	"testing"

	"insight-gateway/internal/upstream"
)

func TestParseAnalyzeRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
		want upstream.Request
		code string
	}{
		{name: "plain", body: `{"topic":" Bitcoin ","language":"nl","geo":"BE"}`, want: upstream.Request{Topic: "Bitcoin", Language: "nl", Geo: "BE"}},
		{name: "defaults", body: `{"topic":"x"}`, want: upstream.Request{Topic: "x", Language: "en"}},
		{name: "numeric topic", body: `{"topic":123}`, want: upstream.Request{Topic: "123", Language: "en"}},
		{name: "float topic", body: `{"topic":1.5}`, want: upstream.Request{Topic: "1.5", Language: "en"}},
		{name: "numeric geo", body: `{"topic":"x","geo":5}`, want: upstream.Request{Topic: "x", Language: "en", Geo: "5"}},
		{name: "bool language", body: `{"topic":"x","language":true}`, want: upstream.Request{Topic: "x", Language: "true"}},
		{name: "false language", body: `{"topic":"x","language":false}`, want: upstream.Request{Topic: "x", Language: "en"}},
		{name: "null geo", body: `{"topic":"x","geo":null}`, want: upstream.Request{Topic: "x", Language: "en"}},
		{name: "zero topic", body: `{"topic":0}`, code: errMissingTopic},
		{name: "object topic", body: `{"topic":{"a":1}}`, code: errMissingTopic},
		{name: "array body", body: `[]`, code: errMissingTopic},
		{name: "string body", body: `"x"`, code: errMissingTopic},
		{name: "number body", body: `42`, code: errMissingTopic},
		{name: "null body", body: `null`, code: errMissingTopic},
		{name: "empty", body: ``, code: errInvalidJSON},
		{name: "truncated", body: `{"topic":`, code: errInvalidJSON},
		{name: "trailing data", body: `{"topic":"x"} nope`, code: errInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, code := parseAnalyzeRequest([]byte(tt.body))
			if code != tt.code {
				t.Fatalf("expected code %q, got %q", tt.code, code)
			}
			if got != tt.want {
				t.Fatalf("expected %#v, got %#v", tt.want, got)
			}
		})
	}
}
