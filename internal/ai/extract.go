package ai

import (
	"encoding/json"
	"reflect"
	"regexp"
	"strings"
)

var fencedBlock = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")

// candidates lists the substrings worth trying, in order: fenced blocks, the bracketed span
// opened first in text, the other bracketed span, then the whole trimmed text.
func candidates(text string) []string {
	var out []string
	for _, m := range fencedBlock.FindAllStringSubmatch(text, -1) {
		if s := strings.TrimSpace(m[1]); s != "" {
			out = append(out, s)
		}
	}
	first, second := bracketed(text, '{', '}'), bracketed(text, '[', ']')
	if a, o := strings.IndexByte(text, '['), strings.IndexByte(text, '{'); a >= 0 && (o < 0 || a < o) {
		first, second = second, first
	}
	for _, s := range []string{first, second} {
		if s != "" {
			out = append(out, s)
		}
	}
	if s := strings.TrimSpace(text); s != "" {
		out = append(out, s)
	}
	return out
}

func bracketed(text string, open, close byte) string {
	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, close)
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

// ExtractRaw returns the first syntactically valid JSON value found in text.
func ExtractRaw(text string) (json.RawMessage, error) {
	for _, c := range candidates(text) {
		if json.Valid([]byte(c)) {
			return json.RawMessage(c), nil
		}
	}
	return nil, ErrNoJSON
}

// ExtractInto decodes the first candidate that fits v's shape. v must be a non-nil pointer.
// A candidate that is valid JSON but the wrong shape (an object where a slice is wanted)
// is skipped rather than reported.
func ExtractInto(text string, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return ErrNoJSON
	}
	for _, c := range candidates(text) {
		if err := json.Unmarshal([]byte(c), v); err == nil {
			return nil
		}
		rv.Elem().Set(reflect.Zero(rv.Elem().Type()))
	}
	return ErrNoJSON
}
