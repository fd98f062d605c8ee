package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
)

type fieldKind int

const (
	kindJSON fieldKind = iota
	kindString
	kindTime
)

type fieldInfo struct {
	kind     fieldKind
	nullable bool
	required bool
}

var errMissingField = errors.New("missing field")

var timeType = reflect.TypeOf(time.Time{})

// Codec converts an entity to and from the flat string mapping stored in a
// hash. Strings are stored verbatim, timestamps as RFC 3339 and every other
// value as JSON text. Null pointers are stored as "null".
type Codec[E any] struct {
	fields   map[string]fieldInfo
	required []string
}

// NewCodec inspects the json tags of E once and returns a codec for it.
func NewCodec[E any]() *Codec[E] {
	fields := make(map[string]fieldInfo)
	t := reflect.TypeOf((*E)(nil)).Elem()
	if t.Kind() == reflect.Struct {
		collectFields(t, fields)
	}
	var required []string
	for name, info := range fields {
		if info.required {
			required = append(required, name)
		}
	}
	sort.Strings(required)
	return &Codec[E]{fields: fields, required: required}
}

func collectFields(t reflect.Type, out map[string]fieldInfo) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")

		if f.Anonymous && name == "" && f.Type.Kind() == reflect.Struct {
			collectFields(f.Type, out)
			continue
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}

		ft := f.Type
		info := fieldInfo{kind: kindJSON}
		if ft.Kind() == reflect.Pointer {
			info.nullable = true
			ft = ft.Elem()
		}
		info.required = name == "id" || (!info.nullable && !strings.Contains(opts, "omitempty"))
		switch {
		case ft == timeType:
			info.kind = kindTime
		case ft.Kind() == reflect.String:
			info.kind = kindString
		}
		out[name] = info
	}
}

// Encode flattens e into hash fields.
func (c *Codec[E]) Encode(e *E) (map[string]string, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode entity: %w", err)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("encode entity: %w", err)
	}

	out := make(map[string]string, len(obj))
	for name, v := range obj {
		if string(v) == "null" {
			out[name] = "null"
			continue
		}
		switch c.fields[name].kind {
		case kindString, kindTime:
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return nil, fmt.Errorf("encode field %q: %w", name, err)
			}
			out[name] = s
		default:
			out[name] = string(v)
		}
	}
	return out, nil
}

// Decode rebuilds an entity from hash fields. Fields E does not declare are
// ignored. Every non-pointer field and the id must be present. Values of
// non-string fields that are not valid JSON are retried as plain strings
// before giving up with a *DecodeError.
func (c *Codec[E]) Decode(fields map[string]string) (*E, error) {
	var e E
	if err := c.DecodeInto(fields, &e); err != nil {
		return nil, err
	}
	for _, name := range c.required {
		if _, ok := fields[name]; !ok {
			return nil, &DecodeError{Field: name, Err: errMissingField}
		}
	}
	return &e, nil
}

// DecodeInto overlays the hash fields onto e. Fields absent from the hash
// keep the value e already holds.
func (c *Codec[E]) DecodeInto(fields map[string]string, e *E) error {
	obj := make(map[string]json.RawMessage, len(fields))
	for name, v := range fields {
		info, ok := c.fields[name]
		if !ok {
			continue
		}
		if info.nullable && v == "null" {
			obj[name] = json.RawMessage("null")
			continue
		}
		switch info.kind {
		case kindString:
			obj[name] = quote(v)
		case kindTime:
			ts, err := parseTime(v)
			if err != nil {
				return &DecodeError{Field: name, Err: err}
			}
			obj[name] = quote(ts.Format(time.RFC3339Nano))
		default:
			if json.Valid([]byte(v)) {
				obj[name] = json.RawMessage(v)
			} else {
				obj[name] = quote(v)
			}
		}
	}

	raw, err := json.Marshal(obj)
	if err != nil {
		return &DecodeError{Err: err}
	}
	if err := json.Unmarshal(raw, e); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return &DecodeError{Field: typeErr.Field, Err: err}
		}
		return &DecodeError{Err: err}
	}
	return nil
}

func quote(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

// Layouts accepted for stored timestamps. Records written without a zone
// are read as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}
