// Package cards implements the assessment intake handler and the card
// generators that turn submitted forms into pending review cards.
package cards

import (
	"encoding/json"
	"strings"
)

// ExtractJSON scans raw model output for the first balanced JSON object and
// returns it. Models frequently wrap JSON in prose or markdown fences; the
// brace-matching scan tolerates both. The boolean reports whether a valid
// object was found.
func ExtractJSON(raw string) (json.RawMessage, bool) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return nil, false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		ch := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				candidate := raw[start : i+1]
				if json.Valid([]byte(candidate)) {
					return json.RawMessage(candidate), true
				}
				return nil, false
			}
		}
	}
	return nil, false
}

// ParseOrFallback extracts structured JSON from raw model output, falling
// back to a single ai_analysis field carrying the raw text when no parseable
// object is present. Generation never fails on an unparseable response.
func ParseOrFallback(raw string) json.RawMessage {
	if extracted, ok := ExtractJSON(raw); ok {
		return extracted
	}
	fallback, err := json.Marshal(map[string]string{"ai_analysis": raw})
	if err != nil {
		// raw contained something unmarshalable only in theory; keep a stub
		return json.RawMessage(`{"ai_analysis": ""}`)
	}
	return fallback
}
