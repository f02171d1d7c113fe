// Package normalize turns free-form model output into structured data.
//
// Models are told to answer with JSON only but do not always comply, so
// Extract tries, in order: the whole text as a JSON object, the widest
// {...} block inside it, and finally an {"raw": text} sentinel.
package normalize

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// RawKey holds the trimmed model text when no JSON object could be found.
const RawKey = "raw"

var (
	// Greedy on purpose: first "{" through last "}".
	objectBlockRegex = regexp.MustCompile(`(?s)\{.*\}`)
	htmlTagRegex     = regexp.MustCompile(`(?i)</?(p|br|div|span|ul|ol|li|strong|em|b|i|h[1-6]|table|tr|td|code|pre)\b[^>]*>`)
)

// Object is a decoded JSON object from a model reply.
type Object map[string]any

// Extract never fails. The result is either a parsed JSON object or
// Object{"raw": strings.TrimSpace(text)}, with a bare JSON string unquoted.
func Extract(text string) Object {
	if obj, ok := parseObject(text); ok {
		return obj
	}

	if block := objectBlockRegex.FindString(text); block != "" {
		if obj, ok := parseObject(block); ok {
			return obj
		}
	}

	trimmed := strings.TrimSpace(text)
	// A reply that is a bare JSON string keeps its text without the quotes.
	var quoted string
	if err := json.Unmarshal([]byte(trimmed), &quoted); err == nil {
		trimmed = strings.TrimSpace(quoted)
	}
	return Object{RawKey: trimmed}
}

func parseObject(s string) (Object, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return Object(obj), true
}

// IsRaw reports whether the object is the unstructured-reply sentinel.
func (o Object) IsRaw() bool {
	_, ok := o.Raw()
	return ok && len(o) == 1
}

// Raw returns the raw text of an unstructured reply, if present.
func (o Object) Raw() (string, bool) {
	return o.Text(RawKey)
}

// First returns the value of the first key that is present and not null.
func (o Object) First(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := o[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// Text is First rendered as a string. Numbers and booleans are formatted,
// nested values are re-encoded as JSON.
func (o Object) Text(keys ...string) (string, bool) {
	v, ok := o.First(keys...)
	if !ok {
		return "", false
	}
	return Stringify(v), true
}

// List is First as a slice. A scalar becomes a one-element slice.
func (o Object) List(keys ...string) ([]any, bool) {
	v, ok := o.First(keys...)
	if !ok {
		return nil, false
	}
	if items, ok := v.([]any); ok {
		return items, true
	}
	return []any{v}, true
}

// Strings is List with every element rendered by Stringify.
func (o Object) Strings(keys ...string) ([]string, bool) {
	items, ok := o.List(keys...)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		out = append(out, Stringify(item))
	}
	return out, true
}

// Stringify renders a decoded JSON value as display text.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

// PlainText converts an HTML-formatted reply into Markdown. Text without
// HTML markup is only trimmed.
func PlainText(text string) string {
	trimmed := strings.TrimSpace(text)
	if !htmlTagRegex.MatchString(trimmed) {
		return trimmed
	}
	markdown, err := md.ConvertString(trimmed)
	if err != nil {
		return trimmed
	}
	return strings.TrimSpace(markdown)
}
