// Package jsoncoerce defensively parses LLM chat responses that are
// supposed to be JSON but, per spec §9 "Dynamic JSON from the LLM", can
// never be trusted to actually be well-formed or schema-complete. It
// strips a single outer Markdown code fence (spec §6) and decodes with
// github.com/goccy/go-json, an encoding/json-compatible decoder that is
// faster on the hot, high-volume LLM-response boundary. Input that still
// fails to decode (for example trailing commentary after the object) is
// reported as an error, which callers turn into defaults, matching the
// "never let a malformed field abort the pipeline" design note.
package jsoncoerce

import (
	"strings"

	json "github.com/goccy/go-json"
)

// StripFence removes a single outer ```...``` or ```json...``` fence from
// raw model output, if present. Content that isn't fenced is returned
// unchanged. Only one fence layer is stripped, matching spec §6's "strips
// a single outer fence before parsing".
func StripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop an optional language tag on the fence's opening line (e.g. "json").
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		firstLine := strings.TrimSpace(s[:nl])
		if firstLine == "" || isLanguageTag(firstLine) {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimRight(s, "\n\t "), "```")
	return strings.TrimSpace(s)
}

func isLanguageTag(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}

// Decode strips a fence (if any) and unmarshals into out. Callers should
// treat a non-nil error as "apply this type's zero-value defaults" rather
// than as fatal — per spec, malformed JSON is always recoverable.
func Decode(raw string, out any) error {
	return json.Unmarshal([]byte(StripFence(raw)), out)
}

// DecodeOrZero decodes raw into a fresh T, returning the zero value of T
// (not an error) if decoding fails. This is the shape most call sites in
// the relevance/candidate packages want: "give me your best-effort
// struct, I'll apply field-level defaults myself."
func DecodeOrZero[T any](raw string) T {
	var out T
	_ = Decode(raw, &out)
	return out
}
