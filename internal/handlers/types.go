package handlers

import (
	"encoding/json"
	"strconv"
	"strings"

	"insight-gateway/internal/upstream"
)

const defaultLanguage = "en"

// AnalyzeRequest is the inbound body of POST /, after coercion.
type AnalyzeRequest struct {
	Topic    string `json:"topic"`
	Language string `json:"language,omitempty"`
	Geo      string `json:"geo,omitempty"`
}

// rawAnalyzeRequest keeps the fields undecoded so scalar values of any
// JSON type can be coerced to strings.
type rawAnalyzeRequest struct {
	Topic    json.RawMessage `json:"topic"`
	Language json.RawMessage `json:"language"`
	Geo      json.RawMessage `json:"geo"`
}

// decodeAnalyzeRequest turns any valid JSON document into an AnalyzeRequest.
// A document that is not an object is an empty request. It returns false
// only when body is not JSON at all.
func decodeAnalyzeRequest(body []byte) (AnalyzeRequest, bool) {
	if !json.Valid(body) {
		return AnalyzeRequest{}, false
	}

	var raw rawAnalyzeRequest
	if err := json.Unmarshal(body, &raw); err != nil {
		// valid JSON, but an array, string, number, bool or null
		return AnalyzeRequest{}, true
	}

	return AnalyzeRequest{
		Topic:    scalarString(raw.Topic),
		Language: scalarString(raw.Language),
		Geo:      scalarString(raw.Geo),
	}, true
}

// scalarString renders a JSON scalar as a string. Empty strings, zero,
// false, null, objects and arrays all become "".
func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case 't':
		return "true"
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		f, err := strconv.ParseFloat(string(raw), 64)
		if err != nil || f == 0 {
			return ""
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	default:
		return ""
	}
}

// parseAnalyzeRequest decodes and normalizes body. It returns the error
// code to send to the client when the body is unusable.
func parseAnalyzeRequest(body []byte) (upstream.Request, string) {
	in, ok := decodeAnalyzeRequest(body)
	if !ok {
		return upstream.Request{}, errInvalidJSON
	}

	topic := strings.TrimSpace(in.Topic)
	if topic == "" {
		return upstream.Request{}, errMissingTopic
	}

	language := in.Language
	if language == "" {
		language = defaultLanguage
	}

	return upstream.Request{
		Topic:    topic,
		Language: language,
		Geo:      in.Geo,
	}, ""
}
