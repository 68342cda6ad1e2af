package imagespec

import (
	"encoding/json"
	"fmt"
	"time"

	v1 "github.com/google/go-containerregistry/pkg/v1"
)

// ToConfigFile converts s to go-containerregistry's config type.
//
// The conversion is lossy: v1.ConfigFile has no notion of absent fields,
// non-string label values are JSON-encoded, and ExposedPorts/Volumes values
// are dropped.
func ToConfigFile(s *ImageSpec) (*v1.ConfigFile, error) {
	cf := &v1.ConfigFile{
		Architecture: s.Architecture,
		Author:       deref(s.Author),
		OS:           s.OS,
		OSVersion:    deref(s.OSVersion),
		OSFeatures:   s.OSFeatures,
		Variant:      deref(s.Variant),
		RootFS:       v1.RootFS{Type: s.Rootfs.Type.String()},
	}

	if s.Created != nil {
		t, err := time.Parse(time.RFC3339Nano, *s.Created)
		if err != nil {
			return nil, fmt.Errorf("created: %w", err)
		}
		cf.Created = v1.Time{Time: t}
	}

	for i, id := range s.Rootfs.DiffIDs {
		h, err := v1.NewHash(id)
		if err != nil {
			return nil, fmt.Errorf("rootfs.diff_ids[%d]: %w", i, err)
		}
		cf.RootFS.DiffIDs = append(cf.RootFS.DiffIDs, h)
	}

	for i, h := range s.History {
		entry := v1.History{
			Author:     deref(h.Author),
			CreatedBy:  deref(h.CreatedBy),
			Comment:    deref(h.Comment),
			EmptyLayer: deref(h.EmptyLayer),
		}
		if h.Created != nil {
			t, err := time.Parse(time.RFC3339Nano, *h.Created)
			if err != nil {
				return nil, fmt.Errorf("history[%d].created: %w", i, err)
			}
			entry.Created = v1.Time{Time: t}
		}
		cf.History = append(cf.History, entry)
	}

	if c := s.Config; c != nil {
		labels, err := stringLabels(c.Labels)
		if err != nil {
			return nil, err
		}
		cf.Config = v1.Config{
			ArgsEscaped:  deref(c.ArgsEscaped),
			Cmd:          c.Cmd,
			Entrypoint:   c.Entrypoint,
			Env:          c.Env,
			ExposedPorts: keySet(c.ExposedPorts),
			Labels:       labels,
			StopSignal:   deref(c.StopSignal),
			User:         deref(c.User),
			Volumes:      keySet(c.Volumes),
			WorkingDir:   deref(c.WorkingDir),
		}
	}

	return cf, nil
}

// FromConfigFile converts a go-containerregistry config to an ImageSpec.
// Empty strings, false booleans and zero timestamps become "no value".
func FromConfigFile(cf *v1.ConfigFile) (*ImageSpec, error) {
	typ, err := ParseType(cf.RootFS.Type)
	if err != nil {
		return nil, violation(err, "rootfs.type")
	}

	s := &ImageSpec{
		Architecture: cf.Architecture,
		Author:       optional(cf.Author),
		Created:      optionalTime(cf.Created),
		OS:           cf.OS,
		OSFeatures:   cf.OSFeatures,
		OSVersion:    optional(cf.OSVersion),
		Rootfs:       Rootfs{DiffIDs: make([]string, 0, len(cf.RootFS.DiffIDs)), Type: typ},
		Variant:      optional(cf.Variant),
	}
	for _, h := range cf.RootFS.DiffIDs {
		s.Rootfs.DiffIDs = append(s.Rootfs.DiffIDs, h.String())
	}

	if cf.History != nil {
		s.History = make([]History, 0, len(cf.History))
		for _, h := range cf.History {
			s.History = append(s.History, History{
				Author:     optional(h.Author),
				Comment:    optional(h.Comment),
				Created:    optionalTime(h.Created),
				CreatedBy:  optional(h.CreatedBy),
				EmptyLayer: optional(h.EmptyLayer),
			})
		}
	}

	c := cf.Config
	cfg := Config{
		ArgsEscaped:  optional(c.ArgsEscaped),
		Cmd:          c.Cmd,
		Entrypoint:   c.Entrypoint,
		Env:          c.Env,
		ExposedPorts: anySet(c.ExposedPorts),
		StopSignal:   optional(c.StopSignal),
		User:         optional(c.User),
		Volumes:      anySet(c.Volumes),
		WorkingDir:   optional(c.WorkingDir),
	}
	if c.Labels != nil {
		cfg.Labels = make(map[string]any, len(c.Labels))
		for k, v := range c.Labels {
			cfg.Labels[k] = v
		}
	}
	if !cfg.isZero() {
		s.Config = &cfg
	}

	return s, nil
}

func (c *Config) isZero() bool {
	return c.ArgsEscaped == nil && c.Cmd == nil && c.Entrypoint == nil && c.Env == nil &&
		c.ExposedPorts == nil && c.Labels == nil && c.StopSignal == nil && c.User == nil &&
		c.Volumes == nil && c.WorkingDir == nil
}

func optional[T comparable](v T) *T {
	var zero T
	if v == zero {
		return nil
	}
	return &v
}

func optionalTime(t v1.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.UTC().Format(time.RFC3339Nano)
	return &s
}

func stringLabels(in map[string]any) (map[string]string, error) {
	if in == nil {
		return nil, nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch v := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = v
		case json.Number:
			out[k] = v.String()
		default:
			b, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("config.Labels[%q]: %w", k, err)
			}
			out[k] = string(b)
		}
	}
	return out, nil
}

func keySet(in map[string]any) map[string]struct{} {
	if in == nil {
		return nil
	}
	out := make(map[string]struct{}, len(in))
	for k := range in {
		out[k] = struct{}{}
	}
	return out
}

func anySet(in map[string]struct{}) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k := range in {
		out[k] = map[string]any{}
	}
	return out
}
