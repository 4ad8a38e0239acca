package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/comitanigiacomo/kanso-report-engine/internal/core/domain"
)

type ReplyKind int

const (
	ReplyInvalid ReplyKind = iota
	ReplyObject
	ReplyArray
	ReplyScalar
)

func (k ReplyKind) String() string {
	switch k {
	case ReplyObject:
		return "object"
	case ReplyArray:
		return "array"
	case ReplyScalar:
		return "scalar"
	default:
		return "invalid"
	}
}

// Reply is a generator reply after extraction and decoding. Every shape the
// generator might produce is represented; Object coerces it into the one
// shape the engine works with.
type Reply struct {
	Kind  ReplyKind
	Raw   string
	value any
	err   error
}

// ParseReply decodes raw as-is when it is already a single JSON value and
// otherwise decodes whatever ExtractJSON recovers from it.
func ParseReply(raw string) Reply {
	v, err := decodeJSON(strings.TrimSpace(raw))
	if err != nil {
		v, err = decodeJSON(ExtractJSON(raw))
	}
	if err != nil {
		return Reply{Kind: ReplyInvalid, Raw: raw, err: err}
	}

	r := Reply{Raw: raw, value: v}
	switch v.(type) {
	case map[string]any:
		r.Kind = ReplyObject
	case []any:
		r.Kind = ReplyArray
	default:
		r.Kind = ReplyScalar
	}
	return r
}

// Object returns the reply as a JSON object. An array holding exactly one
// object is unwrapped; any other shape is ErrUnparseableReply.
func (r Reply) Object() (map[string]any, error) {
	switch r.Kind {
	case ReplyObject:
		return r.value.(map[string]any), nil
	case ReplyArray:
		if items := r.value.([]any); len(items) == 1 {
			if obj, ok := items[0].(map[string]any); ok {
				return obj, nil
			}
		}
		return nil, fmt.Errorf("%w: got an array", domain.ErrUnparseableReply)
	case ReplyScalar:
		return nil, fmt.Errorf("%w: got a %T", domain.ErrUnparseableReply, r.value)
	default:
		return nil, fmt.Errorf("%w: %v", domain.ErrUnparseableReply, r.err)
	}
}

func decodeJSON(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return v, nil
}

// asObjects accepts a list (non-object items are dropped) or a bare object.
func asObjects(v any) []map[string]any {
	switch t := v.(type) {
	case []any:
		out := make([]map[string]any, 0, len(t))
		for _, item := range t {
			if obj, ok := item.(map[string]any); ok {
				out = append(out, obj)
			}
		}
		return out
	case map[string]any:
		return []map[string]any{t}
	}
	return nil
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	}
	return ""
}

func asStrings(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := asString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string, json.Number:
		if s := asString(t); s != "" {
			return []string{s}
		}
	}
	return nil
}

func asInts(v any) []int {
	toInt := func(item any) (int, bool) {
		switch t := item.(type) {
		case json.Number:
			if n, err := t.Int64(); err == nil {
				return int(n), true
			}
			if f, err := t.Float64(); err == nil {
				return int(f), true
			}
		case float64:
			return int(t), true
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
				return n, true
			}
		}
		return 0, false
	}

	if list, ok := v.([]any); ok {
		out := make([]int, 0, len(list))
		for _, item := range list {
			if n, ok := toInt(item); ok {
				out = append(out, n)
			}
		}
		return out
	}
	if n, ok := toInt(v); ok {
		return []int{n}
	}
	return nil
}

var summarySectionOrder = []string{
	"per_habit_analysis",
	"correlation_analysis",
	"weekday_patterns",
	"empathetic_message",
}

// asSummary accepts a plain string, a list of strings, or an object of
// sections, which are joined with newlines.
func asSummary(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		return strings.Join(asStrings(t), "\n")
	case map[string]any:
		var parts []string
		seen := make(map[string]bool)
		for _, key := range summarySectionOrder {
			seen[key] = true
			if s := asString(t[key]); s != "" {
				parts = append(parts, s)
			}
		}
		rest := make([]string, 0, len(t))
		for key := range t {
			if !seen[key] {
				rest = append(rest, key)
			}
		}
		sort.Strings(rest)
		for _, key := range rest {
			if s := asString(t[key]); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n")
	}
	return ""
}
