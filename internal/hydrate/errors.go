package hydrate

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Stage names the pipeline step that failed.
type Stage string

const (
	StageParse    Stage = "parse"
	StagePreHook  Stage = "pre-hook"
	StageDecode   Stage = "decode"
	StagePostHook Stage = "post-hook"
)

// DecodeError locates a failure inside a manifest: the document it came
// from, the section within it, and the pipeline stage that rejected it.
type DecodeError struct {
	Source  string
	Section string
	Stage   Stage
	Err     error
}

func (e *DecodeError) Error() string {
	where := Context{Source: e.Source, Section: e.Section}.String()
	return fmt.Sprintf("hydrate: %s %s: %v", e.Stage, where, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// SectionError tags err with the manifest section it concerns, for example
// "bindings[2]". Hooks return it so the resulting DecodeError names the
// offending entry.
func SectionError(section string, err error) error {
	if err == nil {
		return nil
	}
	return &sectionError{section: section, err: err}
}

type sectionError struct {
	section string
	err     error
}

func (e *sectionError) Error() string { return e.section + ": " + e.err.Error() }

func (e *sectionError) Unwrap() error { return e.err }

func (c Context) fail(stage Stage, err error) error {
	out := &DecodeError{Source: c.Source, Section: c.Section, Stage: stage, Err: err}
	var tagged *sectionError
	if errors.As(err, &tagged) {
		out.Section = joinSection(c.Section, tagged.section)
		if err == error(tagged) {
			out.Err = tagged.err
		}
		return out
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		out.Section = joinSection(c.Section, typeErr.Field)
	}
	return out
}

func joinSection(outer, inner string) string {
	switch {
	case outer == "":
		return inner
	case inner == "":
		return outer
	default:
		return outer + "." + inner
	}
}
