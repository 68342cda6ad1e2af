package imagespec

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// check walks the opaque maps of c and rejects values json cannot encode.
func (c *Config) check(prefix string) error {
	fields := []struct {
		name string
		m    map[string]any
	}{
		{"ExposedPorts", c.ExposedPorts},
		{"Labels", c.Labels},
		{"Volumes", c.Volumes},
	}
	for _, f := range fields {
		if err := checkObject(joinPath(prefix, f.name), f.m); err != nil {
			return err
		}
	}
	return nil
}

func checkObject(path string, m map[string]any) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := checkValue(fmt.Sprintf("%s[%q]", path, k), m[k]); err != nil {
			return err
		}
	}
	return nil
}

func checkValue(path string, v any) error {
	switch v := v.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return nil
	case json.Number:
		if _, err := json.Marshal(v); err != nil {
			return fmt.Errorf("%s: invalid number %q: %w", path, string(v), ErrUnsupportedValue)
		}
		return nil
	case float64:
		return checkFloat(path, v)
	case float32:
		return checkFloat(path, float64(v))
	case []any:
		for i, e := range v {
			if err := checkValue(fmt.Sprintf("%s[%d]", path, i), e); err != nil {
				return err
			}
		}
		return nil
	case map[string]any:
		return checkObject(path, v)
	}
	return fmt.Errorf("%s: Go type %T: %w", path, v, ErrUnsupportedValue)
}

func checkFloat(path string, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%s: non-finite number %v: %w", path, f, ErrUnsupportedValue)
	}
	return nil
}
