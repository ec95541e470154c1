package inherit

import "github.com/goliatone/go-inherit/pkg/activity"

// WithActivity attaches an activity emitter to a level. Level creation,
// bindings declared and keys reserved through a Session are emitted. Children
// inherit the emitter unless they set their own.
func WithActivity(emitter *activity.Emitter) LevelOption {
	return func(cfg *levelConfig) {
		cfg.emitter = emitter
	}
}

// WithActivityHooks is a shorthand for WithActivity with an enabled emitter
// over hooks. Nil hooks are dropped.
func WithActivityHooks(hooks activity.Hooks) LevelOption {
	emitter := activity.NewEmitter(hooks, activity.Config{Enabled: true})
	return WithActivity(emitter)
}
