package cache

import (
	"fmt"
	"strings"
)

const keyNamespace = "insight"

// Key addresses one cached insight.
type Key struct {
	Language string
	Geo      string
	Topic    string
}

// NewKey normalizes the topic (trimmed, lower-cased). Language and geo are
// kept verbatim, so "NL" and "nl" are different keys.
func NewKey(language, geo, topic string) Key {
	return Key{
		Language: language,
		Geo:      geo,
		Topic:    strings.ToLower(strings.TrimSpace(topic)),
	}
}

// String converts the structured key into the final string used in Redis/map.
func (k Key) String() string {
	// insight:<LANGUAGE>:<GEO>:<topic>
	return fmt.Sprintf("%s:%s:%s:%s", keyNamespace, k.Language, k.Geo, k.Topic)
}

// parseKey splits a key produced by Key.String. A ':' inside language, geo
// or topic makes the split ambiguous, so such keys are not parsed.
func parseKey(s string) (Key, bool) {
	if strings.Count(s, ":") != 3 {
		return Key{}, false
	}
	parts := strings.Split(s, ":")
	if parts[0] != keyNamespace {
		return Key{}, false
	}
	return Key{Language: parts[1], Geo: parts[2], Topic: parts[3]}, true
}
