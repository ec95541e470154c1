package manifest

import "errors"

var (
	ErrNoLevels         = errors.New("manifest: at least one level must be declared")
	ErrUnknownLevel     = errors.New("manifest: unknown level")
	ErrTypeRequired     = errors.New("manifest: type name must be provided")
	ErrUnknownType      = errors.New("manifest: type is not registered")
	ErrDuplicateType    = errors.New("manifest: type name already registered")
	ErrSelector         = errors.New("manifest: exactly one of type or match must be set")
	ErrUnknownConverter = errors.New("manifest: unknown converter")
	ErrScopeIncomplete  = errors.New("manifest: scope needs a marker and a name")
	// ErrDuplicateBinding is returned when a key is bound twice at one level.
	ErrDuplicateBinding = errors.New("manifest: key bound more than once at a level")
	// ErrOverrideNotAllowed is returned when a level rebinds a key bound by an
	// ancestor without declaring overrides.
	ErrOverrideNotAllowed = errors.New("manifest: level overrides an ancestor binding without overrides: true")
)
