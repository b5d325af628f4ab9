// Package dynamic builds mustache descriptor sets at runtime from a
// decoded YAML document (map[string]any / []any / scalars), a second way
// to reach render without first writing a Go record type and a
// hand-written DescriptorSet for it. It is still logic-less: a dynamic
// descriptor only ever substitutes, iterates, or tests emptiness -- it
// adds no expression evaluation. cmd/mustache's render subcommand uses
// this to render a template against a YAML data file.
package dynamic

import (
	"fmt"
	"strconv"
	"unsafe"

	"gopkg.in/yaml.v3"

	"github.com/mohae/mustache/parse"
)

// box addresses one node of the decoded document through the
// unsafe.Pointer contract parse.Descriptor expects. Dynamic descriptors
// all use Offset 0 and close over a field name instead of a struct
// offset, since a decoded YAML document has no static layout to measure.
type box struct {
	v any
}

func wrap(v any) unsafe.Pointer { return unsafe.Pointer(&box{v: v}) }
func unwrap(p unsafe.Pointer) any {
	if p == nil {
		return nil
	}
	return (*box)(p).v
}

// Unmarshal decodes a YAML document into the map[string]any form
// DescriptorSet and Root expect.
func Unmarshal(data []byte) (map[string]any, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("dynamic: parsing YAML: %w", err)
	}
	if doc == nil {
		return map[string]any{}, nil
	}
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("dynamic: top-level document must be a mapping, got %T", doc)
	}
	return m, nil
}

// Root boxes the decoded top-level document as the unsafe.Pointer record
// a compiled Template.Apply expects.
func Root(doc map[string]any) unsafe.Pointer {
	return wrap(doc)
}

// DescriptorSet builds a parse.DescriptorSet exposing every key of doc,
// for use both as a Compile*'s top-level descriptors and, recursively, as
// a nested section's List.
func DescriptorSet(doc map[string]any) parse.DescriptorSet {
	ds := make(parse.DescriptorSet, 0, len(doc))
	for name, sample := range doc {
		ds = append(ds, fieldDescriptor(name, sample))
	}
	return ds
}

// fieldDescriptor builds the Descriptor for one key of a mapping, shaped
// by a sample value observed in this document: a list yields an
// {{#name}}...{{/name}} iteration over its elements; a nested mapping
// yields a Mustache-style "truthy object" single-pass section; anything
// else is a plain, stringify-able scalar.
func fieldDescriptor(name string, sample any) *parse.Descriptor {
	d := &parse.Descriptor{
		Name: name,
		// Every dynamic field stringifies, so {{field}} and {{{field}}}
		// both work regardless of the underlying YAML scalar type --
		// there is no static type to consult at compile time the way a
		// hand-written Descriptor.StringValue's presence/absence implies
		// for a fixed Go field.
		StringValue: func(field unsafe.Pointer) string {
			return stringOf(lookup(field, name))
		},
		IsEmpty: func(field unsafe.Pointer) bool {
			return isEmpty(lookup(field, name))
		},
	}
	switch s := sample.(type) {
	case []any:
		d.List = itemsDescriptorSet(s)
		d.Generator = func(field unsafe.Pointer) parse.Generator {
			items, _ := lookup(field, name).([]any)
			return newListGenerator(items)
		}
	case map[string]any:
		d.List = DescriptorSet(s)
		d.Generator = func(field unsafe.Pointer) parse.Generator {
			m, ok := lookup(field, name).(map[string]any)
			if !ok || len(m) == 0 {
				return newListGenerator(nil)
			}
			return newListGenerator([]any{m})
		}
	}
	return d
}

// itemsDescriptorSet builds the descriptor set visible inside a list's
// loop body: the union of every mapping element's keys, plus "." so a
// list of scalars (or a body that wants the raw element) can reference
// the current item directly, the way standard Mustache lists do.
func itemsDescriptorSet(items []any) parse.DescriptorSet {
	order := make([]string, 0)
	samples := map[string]any{}
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		for k, v := range m {
			if _, seen := samples[k]; !seen {
				order = append(order, k)
			}
			samples[k] = v
		}
	}
	ds := make(parse.DescriptorSet, 0, len(order)+1)
	ds = append(ds, dotDescriptor())
	for _, k := range order {
		ds = append(ds, fieldDescriptor(k, samples[k]))
	}
	return ds
}

// dotDescriptor backs "{{.}}" / "{{.?}}": the current loop item itself,
// for lists of scalars.
func dotDescriptor() *parse.Descriptor {
	return &parse.Descriptor{
		Name: ".",
		StringValue: func(field unsafe.Pointer) string {
			return stringOf(unwrap(field))
		},
		IsEmpty: func(field unsafe.Pointer) bool {
			return isEmpty(unwrap(field))
		},
	}
}

// lookup reads name out of field's boxed mapping, or returns nil if
// field isn't a mapping or doesn't carry that key.
func lookup(field unsafe.Pointer, name string) any {
	m, ok := unwrap(field).(map[string]any)
	if !ok {
		return nil
	}
	return m[name]
}

// stringOf formats a decoded YAML scalar: strings verbatim, integers in
// plain decimal, floats with a fixed 6 fractional digits, booleans as
// "true"/"false".
func stringOf(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return fmt.Sprintf("%f", x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// isEmpty applies the engine's per-type emptiness rule to a decoded
// scalar: zero for numbers, false for bools, "" for strings, nil or
// zero-length for maps/slices.
func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	case int:
		return x == 0
	case int64:
		return x == 0
	case float64:
		return x == 0
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	default:
		return false
	}
}

// listGenerator adapts a []any into a parse.Generator, boxing each
// element so it can be addressed through the same unsafe.Pointer contract
// as the document root.
type listGenerator struct {
	items []any
	idx   int
}

func newListGenerator(items []any) *listGenerator {
	return &listGenerator{items: items, idx: -1}
}

func (g *listGenerator) Next() bool {
	if g.idx+1 >= len(g.items) {
		return false
	}
	g.idx++
	return true
}

func (g *listGenerator) Current() unsafe.Pointer {
	return wrap(g.items[g.idx])
}

func (g *listGenerator) Close() {}
