package keyset

import (
	"bytes"
	"database/sql/driver"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"reflect"
	"time"
)

var _encoder = base64.RawURLEncoding

// Bookmark is an opaque resumption token: a place in the ordering plus the
// paging direction from it.
//
// Place values are booleans, numbers, strings, byte slices, time.Time and
// nil; driver.Valuer implementations are stored as their driver value.
// Other types cannot be bookmarked, see ErrUnregisteredType.
type Bookmark struct {
	Place     Place
	Backwards bool
}

type (
	wireBookmark struct {
		Place     []json.RawMessage `json:"p"`
		Backwards bool              `json:"b,omitempty"`
	}

	// taggedValue carries a value JSON has no native type for.
	taggedValue struct {
		Type  string `json:"t"`
		Value string `json:"v"`
	}
)

const (
	tagBytes = "bytes"
	tagTime  = "time"
)

// DecodeBookmark parses a token produced by Bookmark.String. An empty
// string decodes to a nil bookmark, the start of the result set.
//
// JSON numbers are decoded as int64 when integral and float64 otherwise.
// Malformed tokens fail with ErrBadBookmark.
func DecodeBookmark(b64String string) (*Bookmark, error) {
	if len(b64String) == 0 {
		return nil, nil
	}

	jsonData, err := _encoder.DecodeString(b64String)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode base64 encoded bookmark: %v", ErrBadBookmark, err)
	}

	var wire wireBookmark
	if err = json.Unmarshal(jsonData, &wire); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal json encoded bookmark: %v", ErrBadBookmark, err)
	}

	b := &Bookmark{Backwards: wire.Backwards}
	if wire.Place == nil {
		return b, nil
	}

	b.Place = make(Place, 0, len(wire.Place))
	for i, raw := range wire.Place {
		v, err := decodeValue(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: value %d: %v", ErrBadBookmark, i, err)
		}
		b.Place = append(b.Place, v)
	}

	return b, nil
}

// Encode serializes the bookmark. A bookmark without a place encodes to
// the empty string.
func (b *Bookmark) Encode() (string, error) {
	if b == nil || (len(b.Place) == 0 && !b.Backwards) {
		return "", nil
	}

	place, err := encodePlace(b.Place)
	if err != nil {
		return "", err
	}

	jTok, err := json.Marshal(struct {
		Place     []any `json:"p"`
		Backwards bool  `json:"b,omitempty"`
	}{place, b.Backwards})
	if err != nil {
		return "", fmt.Errorf("cannot marshal bookmark: %w", err)
	}

	return _encoder.EncodeToString(jTok), nil
}

// String implements fmt.Stringer. It panics if the bookmark cannot be
// encoded; bookmarks of pages returned by GetPage always can.
func (b *Bookmark) String() string {
	s, err := b.Encode()
	if err != nil {
		panic(err)
	}

	return s
}

// IsEmpty reports whether the bookmark points at the start (or, when
// backwards, the end) of the result set.
func (b *Bookmark) IsEmpty() bool {
	return b == nil || len(b.Place) == 0
}

func encodePlace(place Place) ([]any, error) {
	if place == nil {
		return nil, nil
	}

	ret := make([]any, 0, len(place))
	for _, v := range place {
		ev, err := encodeValue(v)
		if err != nil {
			return nil, err
		}
		ret = append(ret, ev)
	}

	return ret, nil
}

func encodeValue(v any) (any, error) {
	switch vt := v.(type) {
	case nil, bool, string, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return vt, nil
	case []byte:
		return taggedValue{Type: tagBytes, Value: base64.StdEncoding.EncodeToString(vt)}, nil
	case time.Time:
		return taggedValue{Type: tagTime, Value: vt.Format(time.RFC3339Nano)}, nil
	case driver.Valuer:
		dv, err := vt.Value()
		if err != nil {
			return nil, fmt.Errorf("%w: %T: %v", ErrUnregisteredType, v, err)
		}
		if _, ok := dv.(driver.Valuer); ok {
			return nil, fmt.Errorf("%w: %T", ErrUnregisteredType, v)
		}
		return encodeValue(dv)
	}

	// Named basic types, e.g. `type Status string`, and pointers to
	// bookmarkable values.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, nil
		}
		return encodeValue(rv.Elem().Interface())
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnregisteredType, v)
	}
}

func decodeValue(raw json.RawMessage) (any, error) {
	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		var tv taggedValue
		if err := json.Unmarshal(raw, &tv); err != nil {
			return nil, err
		}

		switch tv.Type {
		case tagBytes:
			return base64.StdEncoding.DecodeString(tv.Value)
		case tagTime:
			return time.Parse(time.RFC3339Nano, tv.Value)
		default:
			return nil, fmt.Errorf("unknown value type %q", tv.Type)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}

	switch vt := v.(type) {
	case json.Number:
		if i, err := vt.Int64(); err == nil {
			return i, nil
		}
		return vt.Float64()
	case bool, string, nil:
		return vt, nil
	default:
		return nil, fmt.Errorf("unexpected value %s", raw)
	}
}

var _ fmt.Stringer = (*Bookmark)(nil)
