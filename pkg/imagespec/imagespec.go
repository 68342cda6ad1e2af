// Package imagespec implements the OpenContainer image configuration document:
// the JSON blob describing an image's platform, runtime defaults, build history
// and rootfs layering.
//
// Optional fields are pointers, slices or maps; nil means "no value" and is
// never written. A non-nil empty slice or map is a value and is written as
// [] or {}.
package imagespec

import (
	"fmt"
	"time"
)

// ImageSpec is the root of an image configuration document.
type ImageSpec struct {
	Architecture string
	Author       *string
	Config       *Config
	Created      *string
	History      []History
	OS           string
	OSFeatures   []string
	OSVersion    *string
	Rootfs       Rootfs
	Variant      *string
}

// Config holds the default runtime settings baked into an image.
//
// Values of ExposedPorts, Labels and Volumes are opaque JSON values. Decoding
// yields nil, bool, string, json.Number, []any and map[string]any, numbers
// staying exactly as written. Serialization additionally accepts Go integer
// and finite float values; anything else fails with ErrUnsupportedValue.
type Config struct {
	ArgsEscaped  *bool
	Cmd          []string
	Entrypoint   []string
	Env          []string
	ExposedPorts map[string]any
	Labels       map[string]any
	StopSignal   *string
	User         *string
	Volumes      map[string]any
	WorkingDir   *string
}

// History describes one layer-creation step. The zero value is a valid entry.
type History struct {
	Author     *string
	Comment    *string
	Created    *string
	CreatedBy  *string
	EmptyLayer *bool
}

// Rootfs describes how the image's root filesystem is composed.
type Rootfs struct {
	DiffIDs []string
	Type    Type
}

// Type is the rootfs composition type.
type Type int

const (
	// TypeLayers is the only composition type defined so far.
	TypeLayers Type = iota
)

var typeNames = map[Type]string{
	TypeLayers: "layers",
}

// String returns the serialized literal of t.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType maps a serialized literal to its Type. Matching is exact.
func ParseType(s string) (Type, error) {
	for t, name := range typeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, &SchemaViolation{Expected: fmt.Sprintf("%q", typeNames[TypeLayers]), Actual: fmt.Sprintf("%q", s)}
}

// CreatedTime parses Created as an RFC 3339 timestamp. It reports false when
// Created is absent or not a valid timestamp.
func (s *ImageSpec) CreatedTime() (time.Time, bool) {
	if s.Created == nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, *s.Created)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Ptr returns a pointer to v. Handy for filling optional fields.
func Ptr[T any](v T) *T {
	return &v
}
