package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

var ErrInvalidID = errors.New("id must be a JSON string or integer")

// ID is an opaque identifier that upstream systems send either as a JSON
// integer or as a JSON string. It remembers which one it was so that it is
// written back in the same form.
type ID struct {
	key     string
	numeric bool
}

func NewID(s string) ID {
	return ID{key: strings.TrimSpace(s)}
}

func IntID(n int64) ID {
	return ID{key: strconv.FormatInt(n, 10), numeric: true}
}

func (id ID) String() string { return id.key }

func (id ID) IsZero() bool { return id.key == "" }

func (id ID) IsNumeric() bool { return id.numeric }

// Equal compares canonical text, so 3 and "3" refer to the same entity.
func (id ID) Equal(other ID) bool { return id.key == other.key }

func (id ID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(id.key), nil
	}
	return json.Marshal(id.key)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ID{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = NewID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return ErrInvalidID
	}
	if i, err := n.Int64(); err == nil {
		*id = IntID(i)
		return nil
	}
	if f, err := n.Float64(); err == nil && f == float64(int64(f)) {
		*id = IntID(int64(f))
		return nil
	}
	return ErrInvalidID
}

// ParseID converts a loosely typed decoded JSON value into an ID.
// It returns false for values that cannot name an entity.
func ParseID(v any) (ID, bool) {
	switch t := v.(type) {
	case string:
		id := NewID(t)
		return id, !id.IsZero()
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return IntID(i), true
		}
		if f, err := t.Float64(); err == nil && f == float64(int64(f)) {
			return IntID(int64(f)), true
		}
		return NewID(t.String()), true
	case float64:
		if t == float64(int64(t)) {
			return IntID(int64(t)), true
		}
		return NewID(strconv.FormatFloat(t, 'f', -1, 64)), true
	case int:
		return IntID(int64(t)), true
	case int64:
		return IntID(t), true
	}
	return ID{}, false
}
