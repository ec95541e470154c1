// Package hydrate turns manifest documents (YAML or already-decoded maps)
// into typed structs. Pre-hooks rewrite the generic payload, a JSON round
// trip fills the struct and post-hooks validate it. Every failure comes back
// as a *DecodeError naming the manifest section at fault.
package hydrate

import (
	"bytes"
	"encoding/json"
	"errors"

	"gopkg.in/yaml.v3"
)

// Context identifies the manifest, and optionally the section of it, being
// decoded.
type Context struct {
	Source  string
	Section string
}

func (c Context) String() string {
	if c.Section == "" {
		return c.Source
	}
	return c.Source + "#" + c.Section
}

// PreHook lets callers mutate or normalise the payload before decoding.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook lets callers adjust or validate the hydrated struct after decoding.
type PostHook[T any] func(Context, *T) error

// CustomDecoder replaces the default JSON decoding when provided.
type CustomDecoder[T any] func(Context, map[string]any) (T, error)

// DecoderOption configures a Decoder instance.
type DecoderOption[T any] func(*Decoder[T])

// Decoder converts generic payloads into strongly typed structs.
type Decoder[T any] struct {
	preHooks     []PreHook
	postHooks    []PostHook[T]
	configureDec []func(*json.Decoder)
	custom       CustomDecoder[T]
}

// WithPreHook applies hook prior to decoding.
func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.preHooks = append(d.preHooks, hook)
	}
}

// WithPostHook applies hook after decoding completes.
func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.postHooks = append(d.postHooks, hook)
	}
}

// WithDisallowUnknownFields rejects payload keys with no matching field.
func WithDisallowUnknownFields[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.configureDec = append(d.configureDec, func(dec *json.Decoder) {
			dec.DisallowUnknownFields()
		})
	}
}

// WithUseNumber keeps numbers in untyped fields as json.Number.
func WithUseNumber[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.configureDec = append(d.configureDec, func(dec *json.Decoder) {
			dec.UseNumber()
		})
	}
}

// WithCustomDecoder replaces the default JSON decoding path.
func WithCustomDecoder[T any](decoder CustomDecoder[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.custom = decoder
	}
}

func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// DecodeYAML parses data as a YAML mapping and decodes it.
func (d *Decoder[T]) DecodeYAML(ctx Context, data []byte) (T, error) {
	var zero T
	var payload map[string]any
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return zero, ctx.fail(StageParse, err)
	}
	if payload == nil {
		payload = map[string]any{}
	}
	return d.Decode(ctx, payload)
}

// Decode converts payload into T applying configured hooks. payload is not
// modified.
func (d *Decoder[T]) Decode(ctx Context, payload map[string]any) (T, error) {
	var zero T

	if payload == nil {
		return zero, ctx.fail(StageDecode, errors.New("payload is nil"))
	}

	current, err := clonePayload(payload)
	if err != nil {
		return zero, ctx.fail(StageDecode, err)
	}

	for _, hook := range d.preHooks {
		if hook == nil {
			continue
		}
		next, err := hook(ctx, current)
		if err != nil {
			return zero, ctx.fail(StagePreHook, err)
		}
		if next != nil {
			current = next
		}
	}

	var result T
	if d.custom != nil {
		result, err = d.custom(ctx, current)
		if err != nil {
			return zero, ctx.fail(StageDecode, err)
		}
	} else {
		buffer, err := json.Marshal(current)
		if err != nil {
			return zero, ctx.fail(StageDecode, err)
		}
		decoder := json.NewDecoder(bytes.NewReader(buffer))
		for _, configure := range d.configureDec {
			if configure != nil {
				configure(decoder)
			}
		}
		if err := decoder.Decode(&result); err != nil {
			return zero, ctx.fail(StageDecode, err)
		}
	}

	for _, hook := range d.postHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, &result); err != nil {
			return zero, ctx.fail(StagePostHook, err)
		}
	}

	return result, nil
}

func clonePayload(payload map[string]any) (map[string]any, error) {
	buffer, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(buffer, &out); err != nil {
		return nil, err
	}
	return out, nil
}
