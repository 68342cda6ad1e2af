package imagespec

import "fmt"

// The wire structs below are the single mapping between model fields and
// serialized keys. Pointers let "absent" and "null" both decode to nil, and
// omitempty only drops nil pointers, so empty slices and maps survive.

type imageSpecJSON struct {
	Architecture *string        `json:"architecture"`
	Author       *string        `json:"author,omitempty"`
	Config       *configJSON    `json:"config,omitempty"`
	Created      *string        `json:"created,omitempty"`
	History      *[]historyJSON `json:"history,omitempty"`
	OS           *string        `json:"os"`
	OSFeatures   *[]string      `json:"os.features,omitempty"`
	OSVersion    *string        `json:"os.version,omitempty"`
	Rootfs       *rootfsJSON    `json:"rootfs"`
	Variant      *string        `json:"variant,omitempty"`
}

type configJSON struct {
	ArgsEscaped  *bool           `json:"ArgsEscaped,omitempty"`
	Cmd          *[]string       `json:"Cmd,omitempty"`
	Entrypoint   *[]string       `json:"Entrypoint,omitempty"`
	Env          *[]string       `json:"Env,omitempty"`
	ExposedPorts *map[string]any `json:"ExposedPorts,omitempty"`
	Labels       *map[string]any `json:"Labels,omitempty"`
	StopSignal   *string         `json:"StopSignal,omitempty"`
	User         *string         `json:"User,omitempty"`
	Volumes      *map[string]any `json:"Volumes,omitempty"`
	WorkingDir   *string         `json:"WorkingDir,omitempty"`
}

type historyJSON struct {
	Author     *string `json:"author,omitempty"`
	Comment    *string `json:"comment,omitempty"`
	Created    *string `json:"created,omitempty"`
	CreatedBy  *string `json:"created_by,omitempty"`
	EmptyLayer *bool   `json:"empty_layer,omitempty"`
}

type rootfsJSON struct {
	DiffIDs *[]string `json:"diff_ids"`
	Type    *string   `json:"type"`
}

func present[S ~[]E, E any](s S) *S {
	if s == nil {
		return nil
	}
	return &s
}

func presentMap[M ~map[K]V, K comparable, V any](m M) *M {
	if m == nil {
		return nil
	}
	return &m
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func (s *ImageSpec) toWire() *imageSpecJSON {
	w := &imageSpecJSON{
		Architecture: &s.Architecture,
		Author:       s.Author,
		Created:      s.Created,
		OS:           &s.OS,
		OSFeatures:   present(s.OSFeatures),
		OSVersion:    s.OSVersion,
		Rootfs:       s.Rootfs.toWire(),
		Variant:      s.Variant,
	}
	if s.Config != nil {
		w.Config = s.Config.toWire()
	}
	if s.History != nil {
		history := make([]historyJSON, len(s.History))
		for i := range s.History {
			history[i] = *s.History[i].toWire()
		}
		w.History = &history
	}
	return w
}

func (w *imageSpecJSON) fromWire(prefix string) (ImageSpec, error) {
	if w.Architecture == nil {
		return ImageSpec{}, missing(joinPath(prefix, "architecture"), "string")
	}
	if w.OS == nil {
		return ImageSpec{}, missing(joinPath(prefix, "os"), "string")
	}
	if w.Rootfs == nil {
		return ImageSpec{}, missing(joinPath(prefix, "rootfs"), "object")
	}
	rootfs, err := w.Rootfs.fromWire(joinPath(prefix, "rootfs"))
	if err != nil {
		return ImageSpec{}, err
	}

	s := ImageSpec{
		Architecture: *w.Architecture,
		Author:       w.Author,
		Created:      w.Created,
		OS:           *w.OS,
		OSFeatures:   deref(w.OSFeatures),
		OSVersion:    w.OSVersion,
		Rootfs:       rootfs,
		Variant:      w.Variant,
	}
	if w.Config != nil {
		cfg := w.Config.fromWire()
		s.Config = &cfg
	}
	if w.History != nil {
		s.History = make([]History, len(*w.History))
		for i := range *w.History {
			s.History[i] = (*w.History)[i].fromWire()
		}
	}
	return s, nil
}

func (c *Config) toWire() *configJSON {
	return &configJSON{
		ArgsEscaped:  c.ArgsEscaped,
		Cmd:          present(c.Cmd),
		Entrypoint:   present(c.Entrypoint),
		Env:          present(c.Env),
		ExposedPorts: presentMap(c.ExposedPorts),
		Labels:       presentMap(c.Labels),
		StopSignal:   c.StopSignal,
		User:         c.User,
		Volumes:      presentMap(c.Volumes),
		WorkingDir:   c.WorkingDir,
	}
}

func (w *configJSON) fromWire() Config {
	return Config{
		ArgsEscaped:  w.ArgsEscaped,
		Cmd:          deref(w.Cmd),
		Entrypoint:   deref(w.Entrypoint),
		Env:          deref(w.Env),
		ExposedPorts: deref(w.ExposedPorts),
		Labels:       deref(w.Labels),
		StopSignal:   w.StopSignal,
		User:         w.User,
		Volumes:      deref(w.Volumes),
		WorkingDir:   w.WorkingDir,
	}
}

func (h *History) toWire() *historyJSON {
	return &historyJSON{
		Author:     h.Author,
		Comment:    h.Comment,
		Created:    h.Created,
		CreatedBy:  h.CreatedBy,
		EmptyLayer: h.EmptyLayer,
	}
}

func (w *historyJSON) fromWire() History {
	return History{
		Author:     w.Author,
		Comment:    w.Comment,
		Created:    w.Created,
		CreatedBy:  w.CreatedBy,
		EmptyLayer: w.EmptyLayer,
	}
}

func (r *Rootfs) toWire() *rootfsJSON {
	diffIDs := r.DiffIDs
	if diffIDs == nil {
		diffIDs = []string{}
	}
	typ := r.Type.String()
	return &rootfsJSON{DiffIDs: &diffIDs, Type: &typ}
}

func (w *rootfsJSON) fromWire(prefix string) (Rootfs, error) {
	if w.DiffIDs == nil {
		return Rootfs{}, missing(joinPath(prefix, "diff_ids"), "array")
	}
	if w.Type == nil {
		return Rootfs{}, missing(joinPath(prefix, "type"), "string")
	}
	typ, err := ParseType(*w.Type)
	if err != nil {
		return Rootfs{}, violation(err, joinPath(prefix, "type"))
	}
	return Rootfs{DiffIDs: *w.DiffIDs, Type: typ}, nil
}

// check rejects Type values that have no serialized literal. They can only
// be produced by converting an arbitrary integer.
func (t Type) check() error {
	if _, ok := typeNames[t]; !ok {
		return fmt.Errorf("imagespec: unknown rootfs type %d", int(t))
	}
	return nil
}
