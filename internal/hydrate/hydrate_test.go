package hydrate

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

type levelDoc struct {
	Name     string            `json:"name"`
	Parent   string            `json:"parent,omitempty"`
	Reserved []string          `json:"reserved,omitempty"`
	Labels   map[string]string `json:"labels,omitempty"`
}

func TestDecodeYAML(t *testing.T) {
	decoder := NewDecoder[levelDoc]()
	doc := []byte(`
name: test
parent: root
reserved: [db, clock]
labels:
  owner: platform
`)
	got, err := decoder.DecodeYAML(Context{Source: "levels.yaml"}, doc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := levelDoc{
		Name:     "test",
		Parent:   "root",
		Reserved: []string{"db", "clock"},
		Labels:   map[string]string{"owner": "platform"},
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("decoded mismatch:\nwant: %#v\n got: %#v", want, got)
	}
}

func TestDecodeYAMLErrors(t *testing.T) {
	decoder := NewDecoder[levelDoc]()
	if _, err := decoder.DecodeYAML(Context{Source: "bad.yaml"}, []byte("name: [unclosed")); err == nil || !strings.Contains(err.Error(), "bad.yaml") {
		t.Fatalf("expected parse error naming the source, got %v", err)
	}
	got, err := decoder.DecodeYAML(Context{Source: "empty.yaml"}, nil)
	if err != nil || got.Name != "" {
		t.Fatalf("expected empty document to decode to zero value, got %+v %v", got, err)
	}
}

func TestDisallowUnknownFields(t *testing.T) {
	decoder := NewDecoder(WithDisallowUnknownFields[levelDoc]())
	_, err := decoder.Decode(Context{Source: "m.yaml", Section: "levels[0]"}, map[string]any{
		"name":   "root",
		"parnet": "typo",
	})
	if err == nil || !strings.Contains(err.Error(), "m.yaml#levels[0]") || !strings.Contains(err.Error(), "parnet") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

func TestHooksRunInOrder(t *testing.T) {
	var calls []string
	lower := func(_ Context, payload map[string]any) (map[string]any, error) {
		calls = append(calls, "pre")
		if name, ok := payload["name"].(string); ok {
			payload["name"] = strings.ToLower(name)
		}
		return payload, nil
	}
	requireName := func(_ Context, doc *levelDoc) error {
		calls = append(calls, "post")
		if doc.Name == "" {
			return errors.New("name required")
		}
		return nil
	}
	decoder := NewDecoder(
		WithPreHook[levelDoc](lower),
		WithPreHook[levelDoc](nil),
		WithPostHook[levelDoc](requireName),
	)

	input := map[string]any{"name": "ROOT"}
	got, err := decoder.Decode(Context{Source: "x"}, input)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Name != "root" {
		t.Fatalf("expected pre-hook applied, got %q", got.Name)
	}
	if input["name"] != "ROOT" {
		t.Fatalf("expected input payload untouched")
	}
	if strings.Join(calls, ",") != "pre,post" {
		t.Fatalf("unexpected hook order %v", calls)
	}

	if _, err := decoder.Decode(Context{Source: "x"}, map[string]any{}); err == nil || !strings.Contains(err.Error(), "post-hook") {
		t.Fatalf("expected post-hook failure, got %v", err)
	}
}

func TestPreHookError(t *testing.T) {
	boom := errors.New("boom")
	decoder := NewDecoder(WithPreHook[levelDoc](func(Context, map[string]any) (map[string]any, error) {
		return nil, boom
	}))
	if _, err := decoder.Decode(Context{Source: "x"}, map[string]any{}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped pre-hook error, got %v", err)
	}
}

func TestNilPayload(t *testing.T) {
	if _, err := NewDecoder[levelDoc]().Decode(Context{Source: "x"}, nil); err == nil {
		t.Fatalf("expected error for nil payload")
	}
}

func TestCustomDecoderAndUseNumber(t *testing.T) {
	custom := NewDecoder(WithCustomDecoder(func(_ Context, payload map[string]any) (levelDoc, error) {
		return levelDoc{Name: "custom:" + payload["name"].(string)}, nil
	}))
	got, err := custom.Decode(Context{Source: "x"}, map[string]any{"name": "a"})
	if err != nil || got.Name != "custom:a" {
		t.Fatalf("unexpected custom decode %+v %v", got, err)
	}

	numbers := NewDecoder(WithUseNumber[map[string]any]())
	out, err := numbers.Decode(Context{Source: "x"}, map[string]any{"port": 8080})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := out["port"].(json.Number); !ok {
		t.Fatalf("expected json.Number, got %T", out["port"])
	}
}

func TestDecodeErrorNamesSection(t *testing.T) {
	boom := errors.New("expected a name or a mapping")
	decoder := NewDecoder(WithPreHook[levelDoc](func(Context, map[string]any) (map[string]any, error) {
		return nil, SectionError("levels[1]", boom)
	}))
	_, err := decoder.Decode(Context{Source: "m.yaml"}, map[string]any{})
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if decodeErr.Stage != StagePreHook || decodeErr.Section != "levels[1]" || decodeErr.Err != boom {
		t.Fatalf("unexpected error fields %+v", decodeErr)
	}
	if err.Error() != "hydrate: pre-hook m.yaml#levels[1]: expected a name or a mapping" {
		t.Fatalf("unexpected message %q", err)
	}
}

func TestDecodeErrorTypeMismatchSection(t *testing.T) {
	_, err := NewDecoder[levelDoc]().Decode(Context{Source: "m.yaml", Section: "levels[0]"}, map[string]any{"name": 5})
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if decodeErr.Stage != StageDecode || decodeErr.Section != "levels[0].name" {
		t.Fatalf("expected field path in section, got %+v", decodeErr)
	}
	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) {
		t.Fatalf("expected wrapped type error, got %v", err)
	}
}

func TestSectionErrorWrappedByHook(t *testing.T) {
	inner := SectionError("bindings[3]", errors.New("unknown level"))
	if SectionError("x", nil) != nil {
		t.Fatalf("expected nil passthrough")
	}
	decoder := NewDecoder(WithPostHook[levelDoc](func(Context, *levelDoc) error {
		return fmt.Errorf("validate: %w", inner)
	}))
	_, err := decoder.Decode(Context{Source: "m.yaml"}, map[string]any{"name": "root"})
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) || decodeErr.Section != "bindings[3]" || decodeErr.Stage != StagePostHook {
		t.Fatalf("expected section lifted from wrapped error, got %v", err)
	}
	if !strings.Contains(err.Error(), "validate: bindings[3]: unknown level") {
		t.Fatalf("wrapped hook error must keep its text, got %s", err)
	}
}
