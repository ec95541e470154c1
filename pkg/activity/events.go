// Package activity reports changes made to a hierarchy of levels: levels
// joining a chain, bindings declared, keys reserved and ambiguous
// conversions. Events fan out to hooks such as CaptureHook or
// usersink.Hook.
package activity

import (
	"strings"
	"time"
)

const (
	VerbLevelCreated        = "inherit.level.created"
	VerbBindingDeclared     = "inherit.binding.declared"
	VerbKeyReserved         = "inherit.key.reserved"
	VerbConversionAmbiguous = "inherit.conversion.ambiguous"

	ObjectTypeLevel      = "inherit.level"
	ObjectTypeKey        = "inherit.key"
	ObjectTypeConversion = "inherit.conversion"
)

// Level identifies the level an event is about.
type Level struct {
	ID       string
	Name     string
	ParentID string
	Depth    int
}

// Conversion describes a value matched by more than one converter.
type Conversion struct {
	Value        string
	TargetType   string
	FirstSource  string
	SecondSource string
}

// Event is one change to a hierarchy. Key is set for binding and reservation
// events, Holder for reservations made on behalf of another level, and
// Conversion for ambiguity reports. IDs are strings so call sites need not
// agree on a UUID type.
type Event struct {
	Verb       string
	Level      Level
	Key        string
	Source     string
	Holder     *Level
	Conversion *Conversion

	ActorID    string
	UserID     string
	TenantID   string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ObjectType is derived from the verb.
func (e Event) ObjectType() string {
	switch e.Verb {
	case VerbLevelCreated:
		return ObjectTypeLevel
	case VerbBindingDeclared, VerbKeyReserved:
		return ObjectTypeKey
	case VerbConversionAmbiguous:
		return ObjectTypeConversion
	}
	switch {
	case e.Conversion != nil:
		return ObjectTypeConversion
	case e.Key != "":
		return ObjectTypeKey
	case e.Level.ID != "":
		return ObjectTypeLevel
	}
	return ""
}

// ObjectID names the object of the event: the key, the conversion target
// type or the level ID.
func (e Event) ObjectID() string {
	switch e.ObjectType() {
	case ObjectTypeKey:
		return e.Key
	case ObjectTypeConversion:
		if e.Conversion != nil && e.Conversion.TargetType != "" {
			return e.Conversion.TargetType
		}
		return ObjectTypeConversion
	case ObjectTypeLevel:
		return e.Level.ID
	}
	return ""
}

// Valid reports whether the event carries enough to be delivered.
func (e Event) Valid() bool {
	return e.Verb != "" && e.ObjectType() != "" && e.ObjectID() != ""
}

// Data flattens the event into a record payload. Level identity is nested
// under "level" so records from different chains stay queryable by level.
func (e Event) Data() map[string]any {
	data := make(map[string]any, len(e.Metadata)+4)
	for k, v := range e.Metadata {
		data[k] = v
	}
	if e.Level != (Level{}) {
		data["level"] = levelData(e.Level)
	}
	if e.Key != "" {
		data["key"] = e.Key
	}
	if e.Source != "" {
		data["source"] = e.Source
	}
	if e.Holder != nil && *e.Holder != e.Level {
		data["holder"] = levelData(*e.Holder)
	}
	if c := e.Conversion; c != nil {
		data["value"] = c.Value
		data["target_type"] = c.TargetType
		if c.FirstSource != "" {
			data["first_source"] = c.FirstSource
		}
		if c.SecondSource != "" {
			data["second_source"] = c.SecondSource
		}
	}
	if len(data) == 0 {
		return nil
	}
	return data
}

func levelData(l Level) map[string]any {
	out := map[string]any{"id": l.ID, "depth": l.Depth}
	if l.Name != "" {
		out["name"] = l.Name
	}
	if l.ParentID != "" {
		out["parent_id"] = l.ParentID
	}
	return out
}

// NormalizeEvent trims identifiers, copies reference fields so hooks cannot
// alias the caller's values, and stamps OccurredAt when missing.
func NormalizeEvent(event Event) Event {
	out := event
	out.Verb = strings.TrimSpace(event.Verb)
	out.Level = normalizeLevel(event.Level)
	out.Key = strings.TrimSpace(event.Key)
	out.Source = strings.TrimSpace(event.Source)
	out.ActorID = strings.TrimSpace(event.ActorID)
	out.UserID = strings.TrimSpace(event.UserID)
	out.TenantID = strings.TrimSpace(event.TenantID)
	out.Channel = strings.TrimSpace(event.Channel)
	if event.Holder != nil {
		holder := normalizeLevel(*event.Holder)
		out.Holder = &holder
	}
	if event.Conversion != nil {
		c := *event.Conversion
		c.TargetType = strings.TrimSpace(c.TargetType)
		out.Conversion = &c
	}
	out.Metadata = cloneMap(event.Metadata)
	if out.OccurredAt.IsZero() {
		out.OccurredAt = time.Now()
	}
	return out
}

func normalizeLevel(l Level) Level {
	l.ID = strings.TrimSpace(l.ID)
	l.Name = strings.TrimSpace(l.Name)
	l.ParentID = strings.TrimSpace(l.ParentID)
	return l
}

// BuildLevelCreatedEvent is emitted when a level joins a chain.
func BuildLevelCreatedEvent(level Level) Event {
	return Event{Verb: VerbLevelCreated, Level: level}
}

// BuildBindingDeclaredEvent is emitted for a binding put at level.
func BuildBindingDeclaredEvent(level Level, key, source string) Event {
	return Event{Verb: VerbBindingDeclared, Level: level, Key: key, Source: source}
}

// BuildKeyReservedEvent is emitted when key is reserved from level on behalf
// of holder.
func BuildKeyReservedEvent(level Level, key string, holder Level) Event {
	return Event{Verb: VerbKeyReserved, Level: level, Key: key, Holder: &holder}
}

// BuildConversionAmbiguousEvent is emitted when a value bound at source
// matches more than one converter.
func BuildConversionAmbiguousEvent(conversion Conversion, source string) Event {
	return Event{Verb: VerbConversionAmbiguous, Conversion: &conversion, Source: source}
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
