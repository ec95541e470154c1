package manifest

import (
	"context"
	"fmt"
	"strings"

	inherit "github.com/goliatone/go-inherit"
	"github.com/goliatone/go-inherit/layering"
	"github.com/goliatone/go-inherit/matcher"
)

// Origin is the Source recorded on everything a manifest declares.
type Origin struct {
	Manifest string
	Section  string
	Index    int
}

func (o Origin) String() string {
	return fmt.Sprintf("%s#%s[%d]", o.Manifest, o.Section, o.Index)
}

// BuildOption configures Build.
type BuildOption func(*buildConfig)

type buildConfig struct {
	ctx       context.Context
	levelOpts []inherit.LevelOption
	settings  matcher.Settings
	exprOpts  []matcher.ExpressionOption
	engine    string
}

// WithContext bounds how long Build waits for the hierarchy lock and is
// passed to activity hooks.
func WithContext(ctx context.Context) BuildOption {
	return func(cfg *buildConfig) {
		if ctx != nil {
			cfg.ctx = ctx
		}
	}
}

// WithLevelOptions applies opts to the root level; descendants inherit them.
func WithLevelOptions(opts ...inherit.LevelOption) BuildOption {
	return func(cfg *buildConfig) {
		cfg.levelOpts = append(cfg.levelOpts, opts...)
	}
}

// WithMatcherSettings sets the program cache and function registry used to
// compile match expressions.
func WithMatcherSettings(settings matcher.Settings) BuildOption {
	return func(cfg *buildConfig) {
		cfg.settings = settings
	}
}

// WithDefaultEngine sets the engine for match expressions that name none.
// The default is expr.
func WithDefaultEngine(engine string) BuildOption {
	return func(cfg *buildConfig) {
		cfg.engine = strings.ToLower(strings.TrimSpace(engine))
	}
}

// WithEvaluatorLogger logs every evaluation of a compiled match expression.
func WithEvaluatorLogger(logger matcher.EvaluatorLogger) BuildOption {
	return func(cfg *buildConfig) {
		cfg.exprOpts = append(cfg.exprOpts, matcher.WithEvaluatorLogger(logger))
	}
}

// Build creates the hierarchy declared by m and applies every declaration
// while holding the hierarchy's lock. A nil types uses NewTypeRegistry().
//
// A binding at a non-root level reserves its key at the parent chain. A key
// bound twice at one level fails with ErrDuplicateBinding; a key rebound
// below an ancestor that binds it fails with ErrOverrideNotAllowed unless the
// lower level declares overrides.
func Build(m *Manifest, types *TypeRegistry, opts ...BuildOption) (*inherit.Hierarchy, error) {
	if m == nil {
		return nil, ErrNoLevels
	}
	if types == nil {
		types = NewTypeRegistry()
	}
	cfg := buildConfig{ctx: context.Background()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.settings.Cache == nil {
		cfg.settings.Cache = matcher.NewMapCache()
	}

	specs := make([]inherit.LevelSpec, 0, len(m.Levels))
	for _, decl := range m.Levels {
		specs = append(specs, inherit.LevelSpec{
			Name:         decl.Name,
			Parent:       decl.Parent,
			Interception: decl.Interception,
		})
	}
	h, err := inherit.NewHierarchy(specs, cfg.levelOpts...)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}

	b := &builder{
		manifest:   m,
		name:       m.Name,
		types:      types,
		hierarchy:  h,
		cfg:        cfg,
		evaluators: make(map[string]matcher.Evaluator),
	}
	if b.name == "" {
		b.name = "manifest"
	}
	if err := h.Lock().Do(cfg.ctx, b.apply); err != nil {
		return nil, err
	}
	return h, nil
}

type builder struct {
	manifest   *Manifest
	name       string
	types      *TypeRegistry
	hierarchy  *inherit.Hierarchy
	cfg        buildConfig
	evaluators map[string]matcher.Evaluator
}

func (b *builder) apply(s *inherit.Session) error {
	if b.manifest.BuiltIns {
		inherit.RegisterBuiltInConverters(b.hierarchy.Root())
	}
	steps := []func(*inherit.Session) error{
		b.applyScopes,
		b.applyConverters,
		b.applyAspects,
		b.applyBindings,
		b.applyReserved,
		b.checkOverrides,
	}
	for _, step := range steps {
		if err := step(s); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) origin(section string, i int) Origin {
	return Origin{Manifest: b.name, Section: section, Index: i}
}

func (b *builder) level(name string) (*inherit.Level, error) {
	l, ok := b.hierarchy.Level(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLevel, name)
	}
	return l, nil
}

func (b *builder) key(decl KeyDecl) (inherit.Key, error) {
	t, err := b.types.Lookup(decl.Type)
	if err != nil {
		return inherit.Key{}, err
	}
	return inherit.KeyFor(t, decl.Qualifier), nil
}

func (b *builder) applyScopes(s *inherit.Session) error {
	for i, decl := range b.manifest.Scopes {
		l, err := b.level(decl.Level)
		if err != nil {
			return err
		}
		t, err := b.types.Lookup(decl.Marker)
		if err != nil {
			return fmt.Errorf("scopes[%d]: %w", i, err)
		}
		if err := s.PutScope(l, inherit.MarkerOf(t), inherit.NamedScope(decl.Name)); err != nil {
			return fmt.Errorf("scopes[%d]: %w", i, err)
		}
	}
	return nil
}

func (b *builder) applyConverters(s *inherit.Session) error {
	for i, decl := range b.manifest.Converters {
		l, err := b.level(decl.Level)
		if err != nil {
			return err
		}
		tm, err := b.typeMatcher(decl.Type, decl.Match, decl.Engine)
		if err != nil {
			return fmt.Errorf("converters[%d]: %w", i, err)
		}
		conv, err := newConverter(decl)
		if err != nil {
			return fmt.Errorf("converters[%d]: %w", i, err)
		}
		err = s.AddConverter(l, inherit.MatcherAndConverter{
			TypeMatcher: tm,
			Converter:   conv,
			Source:      b.origin("converters", i),
		})
		if err != nil {
			return fmt.Errorf("converters[%d]: %w", i, err)
		}
	}
	return nil
}

func (b *builder) applyAspects(s *inherit.Session) error {
	for i, decl := range b.manifest.Aspects {
		l, err := b.level(decl.Level)
		if err != nil {
			return err
		}
		tm, err := b.typeMatcher(decl.Type, decl.Match, decl.Engine)
		if err != nil {
			return fmt.Errorf("aspects[%d]: %w", i, err)
		}
		interceptors := make([]any, len(decl.Interceptors))
		for j, name := range decl.Interceptors {
			interceptors[j] = name
		}
		err = s.AddMethodAspect(l, inherit.MethodAspect{
			TypeMatcher:   tm,
			MethodMatcher: methodMatcher(decl.Methods),
			Interceptors:  interceptors,
			Source:        b.origin("aspects", i),
		})
		if err != nil {
			return fmt.Errorf("aspects[%d] at %s: %w", i, decl.Level, err)
		}
	}
	return nil
}

func (b *builder) applyBindings(s *inherit.Session) error {
	for i, decl := range b.manifest.Bindings {
		l, err := b.level(decl.Level)
		if err != nil {
			return err
		}
		key, err := b.key(decl.KeyDecl)
		if err != nil {
			return fmt.Errorf("bindings[%d]: %w", i, err)
		}
		if l.ExplicitBindingsThisLevel().Has(key) {
			return fmt.Errorf("%w: %s at %s (bindings[%d])", ErrDuplicateBinding, decl.KeyDecl, decl.Level, i)
		}
		if err := s.PutBinding(l, key, inherit.NewDeclared(key, decl.Target, b.origin("bindings", i))); err != nil {
			return fmt.Errorf("bindings[%d]: %w", i, err)
		}
		if err := s.ReserveFor(l.Parent(), key, l); err != nil {
			return fmt.Errorf("bindings[%d]: %w", i, err)
		}
	}
	return nil
}

func (b *builder) applyReserved(s *inherit.Session) error {
	for i, decl := range b.manifest.Reserved {
		l, err := b.level(decl.Level)
		if err != nil {
			return err
		}
		key, err := b.key(decl)
		if err != nil {
			return fmt.Errorf("reserved[%d]: %w", i, err)
		}
		if err := s.Reserve(l, key); err != nil {
			return fmt.Errorf("reserved[%d]: %w", i, err)
		}
	}
	return nil
}

func (b *builder) checkOverrides(*inherit.Session) error {
	for _, decl := range b.manifest.Levels {
		if decl.Overrides {
			continue
		}
		l, err := b.level(decl.Name)
		if err != nil {
			return err
		}
		if overrides := layering.Overrides(l); len(overrides) > 0 {
			ov := overrides[0]
			return fmt.Errorf("%w: %s at %s shadows %s", ErrOverrideNotAllowed, ov.Key, decl.Name, ov.Shadowed[0].Level.Name())
		}
	}
	return nil
}

func (b *builder) typeMatcher(typ, match, engine string) (inherit.TypeMatcher, error) {
	if typ != "" {
		t, err := b.types.Lookup(typ)
		if err != nil {
			return nil, err
		}
		return matcher.Only(t), nil
	}
	ev, err := b.evaluator(engine)
	if err != nil {
		return nil, err
	}
	expression, err := matcher.Compile(ev, match, b.cfg.exprOpts...)
	if err != nil {
		return nil, err
	}
	return expression, nil
}

func (b *builder) evaluator(engine string) (matcher.Evaluator, error) {
	if engine == "" {
		engine = b.cfg.engine
	}
	if engine == "" {
		engine = matcher.EngineExpr
	}
	if ev, ok := b.evaluators[engine]; ok {
		return ev, nil
	}
	ev, err := matcher.NewEvaluator(engine, b.cfg.settings)
	if err != nil {
		return nil, err
	}
	b.evaluators[engine] = ev
	return ev, nil
}

func methodMatcher(spec string) matcher.MethodMatcher {
	switch {
	case spec == "" || spec == "*":
		return matcher.AnyMethod()
	case strings.HasSuffix(spec, "*"):
		return matcher.Prefixed(strings.TrimSuffix(spec, "*"))
	default:
		return matcher.Named(spec)
	}
}
