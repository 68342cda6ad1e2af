package imagespec

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Unmarshal decodes an image configuration document. Every failure is a
// *SchemaViolation naming the offending field path.
func Unmarshal(data []byte) (*ImageSpec, error) {
	var s ImageSpec
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, violation(err, "")
	}
	return &s, nil
}

// Marshal encodes s. Optional fields without a value are left out.
func Marshal(s *ImageSpec) ([]byte, error) {
	return json.Marshal(s)
}

// MarshalIndent is like Marshal but indents the output.
func MarshalIndent(s *ImageSpec, prefix, indent string) ([]byte, error) {
	return json.MarshalIndent(s, prefix, indent)
}

func (s ImageSpec) MarshalJSON() ([]byte, error) {
	if err := s.Rootfs.Type.check(); err != nil {
		return nil, err
	}
	if s.Config != nil {
		if err := s.Config.check("config"); err != nil {
			return nil, err
		}
	}
	return json.Marshal(s.toWire())
}

func (s *ImageSpec) UnmarshalJSON(data []byte) error {
	var w imageSpecJSON
	if err := decodeExact(data, reflect.ValueOf(&w).Elem(), ""); err != nil {
		return err
	}
	decoded, err := w.fromWire("")
	if err != nil {
		return err
	}
	*s = decoded
	return nil
}

func (c Config) MarshalJSON() ([]byte, error) {
	if err := c.check(""); err != nil {
		return nil, err
	}
	return json.Marshal(c.toWire())
}

func (c *Config) UnmarshalJSON(data []byte) error {
	var w configJSON
	if err := decodeExact(data, reflect.ValueOf(&w).Elem(), ""); err != nil {
		return err
	}
	*c = w.fromWire()
	return nil
}

func (h History) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.toWire())
}

func (h *History) UnmarshalJSON(data []byte) error {
	var w historyJSON
	if err := decodeExact(data, reflect.ValueOf(&w).Elem(), ""); err != nil {
		return err
	}
	*h = w.fromWire()
	return nil
}

func (r Rootfs) MarshalJSON() ([]byte, error) {
	if err := r.Type.check(); err != nil {
		return nil, err
	}
	return json.Marshal(r.toWire())
}

func (r *Rootfs) UnmarshalJSON(data []byte) error {
	var w rootfsJSON
	if err := decodeExact(data, reflect.ValueOf(&w).Elem(), ""); err != nil {
		return err
	}
	decoded, err := w.fromWire("")
	if err != nil {
		return err
	}
	*r = decoded
	return nil
}

func (t Type) MarshalJSON() ([]byte, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	return json.Marshal(t.String())
}

func (t *Type) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return violation(err, "")
	}
	parsed, err := ParseType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// String renders s as indented JSON, or a placeholder if it cannot be encoded.
func (s *ImageSpec) String() string {
	b, err := MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Sprintf("<invalid image spec: %v>", err)
	}
	return string(b)
}
