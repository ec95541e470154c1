// Package manifest declares a hierarchy of levels and their configuration in
// YAML and builds it into an inherit.Hierarchy.
//
//	levels:
//	  - name: root
//	  - name: test
//	    parent: root
//	    overrides: true
//	bindings:
//	  - level: root
//	    type: string
//	    qualifier: dsn
//	    target: postgres://prod
//	converters:
//	  - level: root
//	    match: kind == "slice"
//	    using: split
//	    separator: ","
package manifest

import (
	"fmt"
	"os"
	"strings"

	"github.com/goliatone/go-inherit/internal/hydrate"
	"github.com/goliatone/go-inherit/matcher"
)

// Manifest is the decoded form of a manifest document.
type Manifest struct {
	Name       string          `json:"name,omitempty"`
	BuiltIns   bool            `json:"builtins,omitempty"`
	Levels     []LevelDecl     `json:"levels"`
	Bindings   []BindingDecl   `json:"bindings,omitempty"`
	Scopes     []ScopeDecl     `json:"scopes,omitempty"`
	Converters []ConverterDecl `json:"converters,omitempty"`
	Reserved   []KeyDecl       `json:"reserved,omitempty"`
	Aspects    []AspectDecl    `json:"aspects,omitempty"`
}

// LevelDecl declares a named level. Overrides allows bindings at this level
// to shadow bindings declared by an ancestor.
type LevelDecl struct {
	Name         string `json:"name"`
	Parent       string `json:"parent,omitempty"`
	Interception *bool  `json:"interception,omitempty"`
	Overrides    bool   `json:"overrides,omitempty"`
}

// KeyDecl names a key at a level: a registered type name and an optional
// qualifier.
type KeyDecl struct {
	Level     string `json:"level"`
	Type      string `json:"type"`
	Qualifier string `json:"qualifier,omitempty"`
}

// BindingDecl binds a key to a target description.
type BindingDecl struct {
	KeyDecl
	Target string `json:"target"`
}

// ScopeDecl registers the scope Name under a marker type at a level.
type ScopeDecl struct {
	Level  string `json:"level"`
	Marker string `json:"marker"`
	Name   string `json:"name"`
}

// ConverterDecl registers a converter. The target types are selected either
// by Type (exact match) or by a Match expression in Engine.
type ConverterDecl struct {
	Level     string `json:"level"`
	Type      string `json:"type,omitempty"`
	Match     string `json:"match,omitempty"`
	Engine    string `json:"engine,omitempty"`
	Using     string `json:"using"`
	Value     string `json:"value,omitempty"`
	Separator string `json:"separator,omitempty"`
}

// AspectDecl registers interceptors for methods of matching types. Methods
// is a method name, a prefix ending in "*", or empty for every method.
type AspectDecl struct {
	Level        string   `json:"level"`
	Type         string   `json:"type,omitempty"`
	Match        string   `json:"match,omitempty"`
	Engine       string   `json:"engine,omitempty"`
	Methods      string   `json:"methods,omitempty"`
	Interceptors []string `json:"interceptors,omitempty"`
}

func (k KeyDecl) String() string {
	if k.Qualifier == "" {
		return k.Type
	}
	return k.Type + "@" + k.Qualifier
}

// Parse decodes a YAML manifest.
func Parse(data []byte) (*Manifest, error) {
	return parse(hydrate.Context{Source: "manifest"}, data)
}

// ParseFile reads and decodes the manifest at path.
func ParseFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	m, err := parse(hydrate.Context{Source: path}, data)
	if err != nil {
		return nil, err
	}
	if m.Name == "" {
		m.Name = path
	}
	return m, nil
}

func parse(ctx hydrate.Context, data []byte) (*Manifest, error) {
	decoder := hydrate.NewDecoder(
		hydrate.WithDisallowUnknownFields[Manifest](),
		hydrate.WithPreHook[Manifest](expandLevelShorthand),
		hydrate.WithPostHook[Manifest](normalise),
		hydrate.WithPostHook[Manifest](validate),
	)
	m, err := decoder.DecodeYAML(ctx, data)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// expandLevelShorthand accepts plain strings in levels. Each string level is
// parented to the level listed before it, so ["root", "module", "test"]
// declares a chain.
func expandLevelShorthand(_ hydrate.Context, payload map[string]any) (map[string]any, error) {
	raw, ok := payload["levels"].([]any)
	if !ok {
		return payload, nil
	}
	previous := ""
	for i, entry := range raw {
		switch v := entry.(type) {
		case string:
			level := map[string]any{"name": v}
			if previous != "" {
				level["parent"] = previous
			}
			raw[i] = level
			previous = v
		case map[string]any:
			name, _ := v["name"].(string)
			previous = name
		default:
			return nil, at("levels", i, fmt.Errorf("expected a name or a mapping, got %T", entry))
		}
	}
	payload["levels"] = raw
	return payload, nil
}

func normalise(_ hydrate.Context, m *Manifest) error {
	for i := range m.Converters {
		m.Converters[i].Engine = strings.ToLower(strings.TrimSpace(m.Converters[i].Engine))
		m.Converters[i].Using = strings.ToLower(strings.TrimSpace(m.Converters[i].Using))
	}
	for i := range m.Aspects {
		m.Aspects[i].Engine = strings.ToLower(strings.TrimSpace(m.Aspects[i].Engine))
	}
	return nil
}

func validate(_ hydrate.Context, m *Manifest) error {
	if len(m.Levels) == 0 {
		return hydrate.SectionError("levels", ErrNoLevels)
	}
	declared := make(map[string]struct{}, len(m.Levels))
	for _, level := range m.Levels {
		declared[level.Name] = struct{}{}
	}
	checkLevel := func(section string, i int, name string) error {
		if _, ok := declared[name]; !ok {
			return at(section, i, fmt.Errorf("%w: %q", ErrUnknownLevel, name))
		}
		return nil
	}
	for i, b := range m.Bindings {
		if err := checkLevel("bindings", i, b.Level); err != nil {
			return err
		}
		if b.Type == "" {
			return at("bindings", i, ErrTypeRequired)
		}
	}
	for i, s := range m.Scopes {
		if err := checkLevel("scopes", i, s.Level); err != nil {
			return err
		}
		if s.Marker == "" || s.Name == "" {
			return at("scopes", i, ErrScopeIncomplete)
		}
	}
	for i, c := range m.Converters {
		if err := checkLevel("converters", i, c.Level); err != nil {
			return err
		}
		if err := checkSelector("converters", i, c.Type, c.Match, c.Engine); err != nil {
			return err
		}
		if _, ok := converterKinds[c.Using]; !ok {
			return at("converters", i, fmt.Errorf("%w: %q", ErrUnknownConverter, c.Using))
		}
	}
	for i, r := range m.Reserved {
		if err := checkLevel("reserved", i, r.Level); err != nil {
			return err
		}
		if r.Type == "" {
			return at("reserved", i, ErrTypeRequired)
		}
	}
	for i, a := range m.Aspects {
		if err := checkLevel("aspects", i, a.Level); err != nil {
			return err
		}
		if err := checkSelector("aspects", i, a.Type, a.Match, a.Engine); err != nil {
			return err
		}
	}
	return nil
}

func checkSelector(section string, i int, typ, match, engine string) error {
	if (typ == "") == (match == "") {
		return at(section, i, ErrSelector)
	}
	if match == "" || engine == "" {
		return nil
	}
	for _, known := range []string{matcher.EngineExpr, matcher.EngineCEL, matcher.EngineJS} {
		if engine == known {
			return nil
		}
	}
	return at(section, i, fmt.Errorf("%w: %q", matcher.ErrUnknownEngine, engine))
}

func at(section string, i int, err error) error {
	return hydrate.SectionError(fmt.Sprintf("%s[%d]", section, i), err)
}
