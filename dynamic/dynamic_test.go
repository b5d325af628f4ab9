package dynamic

import (
	"testing"

	"github.com/mohae/mustache"
)

const doc = `
name: world
items:
  - v: 1
  - v: 2
  - v: 3
tags: []
profile:
  city: Portland
`

func TestRenderAgainstYAML(t *testing.T) {
	data, err := Unmarshal([]byte(doc))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	descriptors := DescriptorSet(data)

	tpl, err := mustache.CompileString("t", "hello {{name}} {{#items}}[{{v}}]{{/items}}{{^tags}}no-tags{{/tags}}", descriptors)
	if err != nil {
		t.Fatalf("CompileString: %v", err)
	}
	out, err := tpl.Apply(Root(data))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := "hello world [1][2][3]no-tags"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestRenderNestedObjectAsSection(t *testing.T) {
	data, err := Unmarshal([]byte(doc))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	descriptors := DescriptorSet(data)

	tpl, err := mustache.CompileString("t", "{{#profile}}{{city}}{{/profile}}", descriptors)
	if err != nil {
		t.Fatalf("CompileString: %v", err)
	}
	out, err := tpl.Apply(Root(data))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out != "Portland" {
		t.Fatalf("got %q, want %q", out, "Portland")
	}
}

func TestIsEmptyAndStringOf(t *testing.T) {
	cases := []struct {
		v     any
		empty bool
		str   string
	}{
		{nil, true, ""},
		{"", true, ""},
		{"x", false, "x"},
		{0, true, "0"},
		{3, false, "3"},
		{false, true, "false"},
		{true, false, "true"},
		{[]any{}, true, ""},
		{map[string]any{}, true, ""},
	}
	for _, c := range cases {
		if got := isEmpty(c.v); got != c.empty {
			t.Errorf("isEmpty(%#v) = %v, want %v", c.v, got, c.empty)
		}
		if c.v != nil && !isEmpty(c.v) {
			if got := stringOf(c.v); got != c.str {
				t.Errorf("stringOf(%#v) = %q, want %q", c.v, got, c.str)
			}
		}
	}
}
