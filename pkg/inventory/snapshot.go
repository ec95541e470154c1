package inventory

import (
	"fmt"
	"sort"
	"time"

	inherit "github.com/goliatone/go-inherit"
)

// Snapshot is a serialisable description of every level of a hierarchy, in
// hierarchy order (parents before children).
type Snapshot struct {
	Name       string        `json:"name,omitempty"`
	CapturedAt time.Time     `json:"captured_at"`
	Levels     []LevelRecord `json:"levels"`
}

// LevelRecord describes one level's own declarations.
type LevelRecord struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	ParentID     string            `json:"parent_id,omitempty"`
	Depth        int               `json:"depth"`
	Interception bool              `json:"interception"`
	Bindings     []BindingRecord   `json:"bindings,omitempty"`
	Scopes       []ScopeRecord     `json:"scopes,omitempty"`
	Converters   []ConverterRecord `json:"converters,omitempty"`
	Reserved     []string          `json:"reserved,omitempty"`
	Aspects      int               `json:"aspects"`
}

// BindingRecord is one explicit binding, in put order.
type BindingRecord struct {
	Key    string `json:"key"`
	Source string `json:"source,omitempty"`
}

// ScopeRecord is one scope registration, sorted by marker.
type ScopeRecord struct {
	Marker string `json:"marker"`
	Scope  string `json:"scope"`
}

// ConverterRecord is one converter registration, in registration order.
type ConverterRecord struct {
	Matcher   string `json:"matcher"`
	Converter string `json:"converter"`
	Source    string `json:"source,omitempty"`
}

// CaptureOption configures Capture.
type CaptureOption func(*captureConfig)

type captureConfig struct {
	name string
	now  func() time.Time
}

// WithName labels the snapshot.
func WithName(name string) CaptureOption {
	return func(cfg *captureConfig) {
		cfg.name = name
	}
}

// WithClock overrides the capture timestamp source.
func WithClock(now func() time.Time) CaptureOption {
	return func(cfg *captureConfig) {
		if now != nil {
			cfg.now = now
		}
	}
}

// Capture describes h. Reserved keys are sorted; everything else keeps the
// order the level reports.
func Capture(h *inherit.Hierarchy, opts ...CaptureOption) Snapshot {
	cfg := captureConfig{now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	snapshot := Snapshot{Name: cfg.name, CapturedAt: cfg.now().UTC()}
	if h == nil {
		return snapshot
	}
	for _, name := range h.Names() {
		level, ok := h.Level(name)
		if !ok {
			continue
		}
		snapshot.Levels = append(snapshot.Levels, captureLevel(level))
	}
	return snapshot
}

func captureLevel(l *inherit.Level) LevelRecord {
	record := LevelRecord{
		ID:           l.ID(),
		Name:         l.Name(),
		Depth:        l.Depth(),
		Interception: l.Interception(),
		Aspects:      len(l.AspectsThisLevel()),
	}
	if parent, ok := l.Parent().(*inherit.Level); ok {
		record.ParentID = parent.ID()
	}
	for key, binding := range l.ExplicitBindingsThisLevel().All() {
		b := BindingRecord{Key: key.String()}
		if binding != nil {
			b.Source = text(binding.Source())
		}
		record.Bindings = append(record.Bindings, b)
	}
	for marker, scope := range l.ScopesThisLevel() {
		record.Scopes = append(record.Scopes, ScopeRecord{Marker: marker.String(), Scope: text(scope)})
	}
	sort.Slice(record.Scopes, func(i, j int) bool { return record.Scopes[i].Marker < record.Scopes[j].Marker })
	for _, mc := range l.ConvertersThisLevel() {
		record.Converters = append(record.Converters, ConverterRecord{
			Matcher:   text(mc.TypeMatcher),
			Converter: text(mc.Converter),
			Source:    text(mc.Source),
		})
	}
	for _, key := range l.ReservedKeys() {
		record.Reserved = append(record.Reserved, key.String())
	}
	sort.Strings(record.Reserved)
	return record
}

// Level returns the record named name.
func (s Snapshot) Level(name string) (LevelRecord, bool) {
	for _, l := range s.Levels {
		if l.Name == name {
			return l, true
		}
	}
	return LevelRecord{}, false
}

func text(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", v)
}
