package inherit

import (
	"encoding/json"
)

// Trace captures how a binding lookup walked the chain: one entry per level
// visited, from the queried level toward the root, ending at the first level
// that had the key.
type Trace struct {
	Key    string       `json:"key"`
	Levels []Provenance `json:"levels"`
}

// Provenance details one level's part in a traced lookup.
type Provenance struct {
	LevelID   string `json:"level_id"`
	LevelName string `json:"level_name,omitempty"`
	Depth     int    `json:"depth"`
	Found     bool   `json:"found"`
	Source    string `json:"source,omitempty"`
	Reserved  bool   `json:"reserved,omitempty"`
}

// Found reports whether any level answered the lookup.
func (t Trace) Found() bool {
	if len(t.Levels) == 0 {
		return false
	}
	return t.Levels[len(t.Levels)-1].Found
}

// Winner returns the provenance of the answering level.
func (t Trace) Winner() (Provenance, bool) {
	if !t.Found() {
		return Provenance{}, false
	}
	return t.Levels[len(t.Levels)-1], true
}

// TraceBinding repeats ExplicitBinding for key and records every level it
// consulted.
func (l *Level) TraceBinding(key Key) Trace {
	trace := Trace{Key: key.String()}
	for s := l; s != nil; s = s.up {
		p := Provenance{
			LevelID:   s.id,
			LevelName: s.name,
			Depth:     s.depth,
			Reserved:  s.reserved.contains(key),
		}
		if b, ok := s.bindings.get(key); ok {
			p.Found = true
			if b != nil {
				p.Source = describe(b.Source())
			}
			trace.Levels = append(trace.Levels, p)
			break
		}
		trace.Levels = append(trace.Levels, p)
	}
	return trace
}

// ToJSON serialises the trace.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON decodes a payload produced by ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}
