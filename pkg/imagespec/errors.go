package imagespec

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrSchemaViolation matches every decoding failure via errors.Is.
var ErrSchemaViolation = errors.New("schema violation")

// ErrUnsupportedValue is returned when an opaque Config value cannot be
// written as JSON.
var ErrUnsupportedValue = errors.New("unsupported opaque value")

// SchemaViolation reports where a document failed to match the schema.
type SchemaViolation struct {
	// Path is the dotted path of serialized keys, e.g. "rootfs.type".
	// Empty when the document as a whole is at fault.
	Path     string
	Expected string
	Actual   string
	Err      error
}

func (e *SchemaViolation) Error() string {
	var b strings.Builder
	b.WriteString("schema violation")
	if e.Path != "" {
		fmt.Fprintf(&b, " at %q", e.Path)
	}
	if e.Expected != "" {
		fmt.Fprintf(&b, ": expected %s, got %s", e.Expected, e.Actual)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *SchemaViolation) Is(target error) bool {
	return target == ErrSchemaViolation
}

func (e *SchemaViolation) Unwrap() error {
	return e.Err
}

func missing(path, expected string) error {
	return &SchemaViolation{Path: path, Expected: expected, Actual: "absent"}
}

func joinPath(prefix, field string) string {
	switch {
	case prefix == "":
		return field
	case field == "":
		return prefix
	}
	return prefix + "." + field
}

// violation converts an encoding/json error into a SchemaViolation rooted
// at prefix.
func violation(err error, prefix string) error {
	var sv *SchemaViolation
	if errors.As(err, &sv) {
		if prefix != "" {
			return &SchemaViolation{Path: joinPath(prefix, sv.Path), Expected: sv.Expected, Actual: sv.Actual, Err: sv.Err}
		}
		return sv
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &SchemaViolation{Path: prefix, Err: fmt.Errorf("malformed JSON at offset %d: %w", syntaxErr.Offset, err)}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &SchemaViolation{
			Path:     joinPath(prefix, typeErr.Field),
			Expected: shapeOf(typeErr.Type),
			Actual:   valueShape(typeErr.Value),
		}
	}

	return &SchemaViolation{Path: prefix, Err: err}
}

// valueShape names the JSON shape encoding/json reported for a value, using
// the same words as shapeOf.
func valueShape(value string) string {
	switch {
	case value == "bool":
		return "boolean"
	case strings.HasPrefix(value, "number"):
		return "number"
	}
	return value
}

// shapeOf names the JSON shape a Go type decodes from.
func shapeOf(t reflect.Type) string {
	if t == nil {
		return "value"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	}
	return t.String()
}
