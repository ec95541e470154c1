package activity

import (
	"context"
	"strings"
)

// DefaultChannel is applied to events emitted without a channel.
const DefaultChannel = "inherit"

// Config controls an Emitter. ActorID and TenantID fill events that carry
// none; a hierarchy is usually configured by a service rather than a user.
// Verbs, when set, limits emission to the listed verbs.
type Config struct {
	Enabled  bool
	Channel  string
	ActorID  string
	TenantID string
	Verbs    []string
}

// Emitter fans events out to hooks while applying defaults.
type Emitter struct {
	hooks    Hooks
	enabled  bool
	channel  string
	actorID  string
	tenantID string
	verbs    map[string]struct{}
}

// NewEmitter constructs an emitter from hooks and configuration.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = DefaultChannel
	}
	var live Hooks
	for _, hook := range hooks {
		if hook != nil {
			live = append(live, hook)
		}
	}
	var verbs map[string]struct{}
	if len(cfg.Verbs) > 0 {
		verbs = make(map[string]struct{}, len(cfg.Verbs))
		for _, verb := range cfg.Verbs {
			verbs[strings.TrimSpace(verb)] = struct{}{}
		}
	}
	return &Emitter{
		hooks:    live,
		enabled:  cfg.Enabled && len(live) > 0,
		channel:  channel,
		actorID:  strings.TrimSpace(cfg.ActorID),
		tenantID: strings.TrimSpace(cfg.TenantID),
		verbs:    verbs,
	}
}

// Enabled reports whether emissions should be attempted.
func (e *Emitter) Enabled() bool {
	return e != nil && e.enabled
}

// Accepts reports whether events with verb would be emitted.
func (e *Emitter) Accepts(verb string) bool {
	if !e.Enabled() {
		return false
	}
	if e.verbs == nil {
		return true
	}
	_, ok := e.verbs[strings.TrimSpace(verb)]
	return ok
}

// Emit applies the configured defaults and forwards the event to all hooks.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Accepts(event.Verb) {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	if strings.TrimSpace(event.ActorID) == "" {
		event.ActorID = e.actorID
	}
	if strings.TrimSpace(event.TenantID) == "" {
		event.TenantID = e.tenantID
	}
	return e.hooks.Notify(ctx, event)
}
