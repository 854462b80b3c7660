package schema

import (
	"encoding/json"
	"strings"
)

// Schema is a read-only view over a decoded JSON Schema value. The zero
// value and a nil pointer both behave like the empty schema.
type Schema struct {
	value any
}

// New wraps a decoded document value.
func New(v any) *Schema {
	return &Schema{value: v}
}

// Value returns the underlying document value.
func (s *Schema) Value() any {
	if s == nil {
		return nil
	}
	return s.value
}

// Bool reports whether the schema is the literal true or false.
func (s *Schema) Bool() (value, ok bool) {
	if s == nil {
		return false, false
	}
	b, ok := s.value.(bool)
	return b, ok
}

func (s *Schema) object() *Object {
	if s == nil {
		return nil
	}
	o, _ := s.value.(*Object)
	return o
}

func (s *Schema) get(key string) (any, bool) {
	return s.object().Get(key)
}

func (s *Schema) str(key string) string {
	v, _ := s.get(key)
	str, _ := v.(string)
	return str
}

// Types returns the declared type list. A single type is returned as a
// one-element slice.
func (s *Schema) Types() []string {
	v, ok := s.get("type")
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

// Property is one entry of the properties keyword.
type Property struct {
	Name   string
	Schema *Schema
}

// Properties returns the properties in declaration order.
func (s *Schema) Properties() []Property {
	v, _ := s.get("properties")
	o, ok := v.(*Object)
	if !ok {
		return nil
	}
	out := make([]Property, 0, o.Len())
	for _, m := range o.Members() {
		out = append(out, Property{Name: m.Key, Schema: New(m.Value)})
	}
	return out
}

// HasProperties reports whether the properties keyword is present.
func (s *Schema) HasProperties() bool {
	_, ok := s.get("properties")
	return ok
}

// Required returns the set of required property names.
func (s *Schema) Required() map[string]bool {
	v, _ := s.get("required")
	arr, _ := v.([]any)
	out := make(map[string]bool, len(arr))
	for _, item := range arr {
		if name, ok := item.(string); ok {
			out[name] = true
		}
	}
	return out
}

// RequiredList returns the required property names in declaration order.
func (s *Schema) RequiredList() []string {
	v, _ := s.get("required")
	arr, _ := v.([]any)
	var out []string
	for _, item := range arr {
		if name, ok := item.(string); ok {
			out = append(out, name)
		}
	}
	return out
}

// Items returns the items keyword. tuple is true when items is an array of
// schemas.
func (s *Schema) Items() (items []*Schema, tuple, ok bool) {
	v, ok := s.get("items")
	if !ok {
		return nil, false, false
	}
	if arr, isArr := v.([]any); isArr {
		return wrapAll(arr), true, true
	}
	return []*Schema{New(v)}, false, true
}

// Enum returns the enum values.
func (s *Schema) Enum() ([]any, bool) {
	v, ok := s.get("enum")
	if !ok {
		return nil, false
	}
	arr, ok := v.([]any)
	return arr, ok
}

// Const returns the const value.
func (s *Schema) Const() (any, bool) {
	return s.get("const")
}

// AnyOf returns the anyOf branches.
func (s *Schema) AnyOf() []*Schema { return s.list("anyOf") }

// OneOf returns the oneOf branches.
func (s *Schema) OneOf() []*Schema { return s.list("oneOf") }

// AllOf returns the allOf branches.
func (s *Schema) AllOf() []*Schema { return s.list("allOf") }

func (s *Schema) list(key string) []*Schema {
	v, _ := s.get(key)
	arr, _ := v.([]any)
	return wrapAll(arr)
}

// AdditionalProperties returns the additionalProperties keyword.
func (s *Schema) AdditionalProperties() (*Schema, bool) {
	v, ok := s.get("additionalProperties")
	if !ok {
		return nil, false
	}
	return New(v), true
}

func (s *Schema) Description() string { return s.str("description") }
func (s *Schema) Title() string       { return s.str("title") }
func (s *Schema) Ref() string         { return s.str("$ref") }
func (s *Schema) Format() string      { return s.str("format") }
func (s *Schema) Pattern() string     { return s.str("pattern") }

// Number returns a numeric keyword such as minimum or maxLength.
func (s *Schema) Number(key string) (json.Number, bool) {
	v, ok := s.get(key)
	if !ok {
		return "", false
	}
	n, ok := v.(json.Number)
	return n, ok
}

// Default returns the default keyword.
func (s *Schema) Default() (any, bool) {
	return s.get("default")
}

// Definitions looks up a local definition by a "#/definitions/x" or
// "#/$defs/x" reference.
func (s *Schema) Definitions(ref string) (*Schema, bool) {
	for _, prefix := range []string{"#/definitions/", "#/$defs/"} {
		name, ok := strings.CutPrefix(ref, prefix)
		if !ok {
			continue
		}
		defs, _ := s.get(strings.TrimSuffix(strings.TrimPrefix(prefix, "#/"), "/"))
		o, _ := defs.(*Object)
		v, found := o.Get(unescapePointer(name))
		if !found {
			return nil, false
		}
		return New(v), true
	}
	return nil, false
}

func unescapePointer(token string) string {
	return strings.ReplaceAll(strings.ReplaceAll(token, "~1", "/"), "~0", "~")
}

func wrapAll(arr []any) []*Schema {
	if len(arr) == 0 {
		return nil
	}
	out := make([]*Schema, 0, len(arr))
	for _, item := range arr {
		out = append(out, New(item))
	}
	return out
}
