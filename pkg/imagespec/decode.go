package imagespec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// decodeExact decodes data into v, walking the wire structs itself so that
// object keys must match json tag names exactly. encoding/json alone would
// also accept keys that differ only in case.
func decodeExact(data []byte, v reflect.Value, path string) error {
	switch v.Kind() {
	case reflect.Pointer:
		if !isComposite(v.Type().Elem()) {
			break
		}
		if isNull(data) {
			v.SetZero()
			return nil
		}
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		return decodeExact(data, v.Elem(), path)

	case reflect.Struct:
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return violation(err, path)
		}
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
			raw, ok := fields[name]
			if !ok {
				continue
			}
			if err := decodeExact(raw, v.Field(i), joinPath(path, name)); err != nil {
				return err
			}
		}
		return nil

	case reflect.Slice:
		var elems []json.RawMessage
		if err := json.Unmarshal(data, &elems); err != nil {
			return violation(err, path)
		}
		s := reflect.MakeSlice(v.Type(), len(elems), len(elems))
		for i, raw := range elems {
			elemPath := fmt.Sprintf("%s[%d]", path, i)
			// only whole fields may be null, never array elements
			if isNull(raw) {
				return &SchemaViolation{Path: elemPath, Expected: shapeOf(v.Type().Elem()), Actual: "null"}
			}
			if err := decodeExact(raw, s.Index(i), elemPath); err != nil {
				return err
			}
		}
		v.Set(s)
		return nil

	case reflect.Map:
		// Opaque values keep numbers as written.
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		v.SetZero()
		if err := dec.Decode(v.Addr().Interface()); err != nil {
			return violation(err, path)
		}
		return nil
	}

	if err := json.Unmarshal(data, v.Addr().Interface()); err != nil {
		return violation(err, path)
	}
	return nil
}

// isComposite reports whether decodeExact walks values of t itself rather
// than handing them to encoding/json.
func isComposite(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Struct, reflect.Slice, reflect.Map:
		return true
	}
	return false
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}
