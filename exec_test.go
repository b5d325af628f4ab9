// Copyright 2014 Joel Scoble (github:mohae). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mustache

import (
	"strings"
	"testing"
	"unsafe"
)

// item is the loop-body record for the "items" field in recordDescriptors.
type item struct {
	V int
}

// record is the shared top-level record type exec_test.go's scenarios
// render against, covering a string, an int, a float64, and an iterable
// field.
type record struct {
	Name  string
	Items []item
	X     string
	S     string
	N     int
	D     float64
}

func stringValue(field unsafe.Pointer) string {
	return *(*string)(field)
}

func stringIsEmpty(field unsafe.Pointer) bool {
	return *(*string)(field) == ""
}

func itemsGenerator(field unsafe.Pointer) Generator {
	items := *(*[]item)(field)
	if len(items) == 0 {
		return NewSliceGenerator(nil, unsafe.Sizeof(item{}), 0)
	}
	return NewSliceGenerator(unsafe.Pointer(&items[0]), unsafe.Sizeof(item{}), len(items))
}

// itemDescriptors describes the fields visible inside "{{#items}}...{{/items}}".
// v's Append/IsEmpty are the library's own built-in int formatting
// (IntAppend/IntIsEmpty), not a hand-rolled fixture.
func itemDescriptors() DescriptorSet {
	var sample item
	return DescriptorSet{
		{
			Name:        "v",
			Offset:      OffsetOf(unsafe.Pointer(&sample), unsafe.Pointer(&sample.V)),
			Append:      IntAppend,
			IsEmpty:     IntIsEmpty,
			StringValue: nil,
		},
	}
}

// recordDescriptors describes record's own fields.
func recordDescriptors() DescriptorSet {
	var r record
	return DescriptorSet{
		{
			Name:        "name",
			Offset:      OffsetOf(unsafe.Pointer(&r), unsafe.Pointer(&r.Name)),
			StringValue: stringValue,
			IsEmpty:     stringIsEmpty,
		},
		{
			Name:      "items",
			Offset:    OffsetOf(unsafe.Pointer(&r), unsafe.Pointer(&r.Items)),
			Generator: itemsGenerator,
			List:      itemDescriptors(),
		},
		{
			Name:        "x",
			Offset:      OffsetOf(unsafe.Pointer(&r), unsafe.Pointer(&r.X)),
			StringValue: stringValue,
			IsEmpty:     stringIsEmpty,
		},
		{
			Name:        "s",
			Offset:      OffsetOf(unsafe.Pointer(&r), unsafe.Pointer(&r.S)),
			StringValue: stringValue,
			IsEmpty:     stringIsEmpty,
		},
		{
			Name:    "n",
			Offset:  OffsetOf(unsafe.Pointer(&r), unsafe.Pointer(&r.N)),
			Append:  IntAppend,
			IsEmpty: IntIsEmpty,
		},
		{
			Name:    "d",
			Offset:  OffsetOf(unsafe.Pointer(&r), unsafe.Pointer(&r.D)),
			Append:  DoubleAppend,
			IsEmpty: DoubleIsEmpty,
		},
	}
}

func mustRender(t *testing.T, src string, r *record) string {
	t.Helper()
	tpl, err := CompileString(t.Name(), src, recordDescriptors())
	if err != nil {
		t.Fatalf("CompileString(%q): %v", src, err)
	}
	out, err := tpl.Apply(unsafe.Pointer(r))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	return out
}

func TestVariableSubstitution(t *testing.T) {
	got := mustRender(t, "hello {{name}}", &record{Name: "world"})
	if got != "hello world" {
		t.Fatalf("got %q, want %q", got, "hello world")
	}
}

func TestIteration(t *testing.T) {
	r := &record{Items: []item{{V: 1}, {V: 2}, {V: 3}}}
	got := mustRender(t, "{{#items}}[{{v}}]{{/items}}", r)
	if got != "[1][2][3]" {
		t.Fatalf("got %q, want %q", got, "[1][2][3]")
	}
}

// TestConditional covers "{{x?}}...{{/x?}}": body rendered iff x is
// non-empty.
func TestConditional(t *testing.T) {
	if got := mustRender(t, "{{x?}}X{{/x?}}Y", &record{X: ""}); got != "Y" {
		t.Fatalf("empty x: got %q, want %q", got, "Y")
	}
	if got := mustRender(t, "{{x?}}X{{/x?}}Y", &record{X: "a"}); got != "XY" {
		t.Fatalf("non-empty x: got %q, want %q", got, "XY")
	}
}

// TestInvertedConditional covers "{{^x?}}...{{/x?}}": body rendered iff x
// is empty.
func TestInvertedConditional(t *testing.T) {
	if got := mustRender(t, "{{^x?}}nope{{/x?}}", &record{X: ""}); got != "nope" {
		t.Fatalf("empty x: got %q, want %q", got, "nope")
	}
	if got := mustRender(t, "{{^x?}}nope{{/x?}}", &record{X: "k"}); got != "" {
		t.Fatalf("non-empty x: got %q, want %q", got, "")
	}
}

// TestHTMLEscapedVariable checks the triple-brace form escapes every byte
// in the fixed map and leaves nothing raw.
func TestHTMLEscapedVariable(t *testing.T) {
	got := mustRender(t, "{{{s}}}", &record{S: `<&"/>`})
	want := "&lt;&amp;&quot;&#x2f;&gt;"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	rest := got
	for _, esc := range []string{"&lt;", "&gt;", "&amp;", "&quot;", "&#x27;", "&#x2f;"} {
		rest = strings.ReplaceAll(rest, esc, "")
	}
	for _, b := range []byte(rest) {
		switch b {
		case '<', '>', '&', '"', '\'', '/':
			t.Fatalf("escaped output %q still contains raw %q", got, string(b))
		}
	}
}

// TestAmpersandEscapesLikeTripleBrace covers "{{&var}}", a synonym for the
// triple-brace form.
func TestAmpersandEscapesLikeTripleBrace(t *testing.T) {
	got := mustRender(t, "{{&s}}", &record{S: "<b>"})
	if got != "&lt;b&gt;" {
		t.Fatalf("got %q, want %q", got, "&lt;b&gt;")
	}
}

func TestCommentDropped(t *testing.T) {
	got := mustRender(t, "{{! ignore {nested} }}kept", &record{})
	if got != "kept" {
		t.Fatalf("got %q, want %q", got, "kept")
	}
}

// TestNumericFormatting covers the built-in int/double formatting
// (IntAppend/DoubleAppend), exercised here at the top-level record, not
// just inside a loop body.
func TestNumericFormatting(t *testing.T) {
	got := mustRender(t, "{{n}} {{d}}", &record{N: 42, D: 3.5})
	if want := "42 3.500000"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	got = mustRender(t, "{{n}} {{d}}", &record{N: -7, D: 0})
	if want := "-7 0.000000"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

// TestNumericEmptiness: an int or double is "empty" exactly when it is
// zero.
func TestNumericEmptiness(t *testing.T) {
	if got := mustRender(t, "{{n?}}N{{/n?}}", &record{N: 0}); got != "" {
		t.Fatalf("zero n: got %q, want empty", got)
	}
	if got := mustRender(t, "{{n?}}N{{/n?}}", &record{N: 5}); got != "N" {
		t.Fatalf("non-zero n: got %q, want %q", got, "N")
	}
	if got := mustRender(t, "{{d?}}D{{/d?}}", &record{D: 0}); got != "" {
		t.Fatalf("zero d: got %q, want empty", got)
	}
	if got := mustRender(t, "{{d?}}D{{/d?}}", &record{D: 1.25}); got != "D" {
		t.Fatalf("non-zero d: got %q, want %q", got, "D")
	}
}

// TestNegatedIteration covers "{{^items}}...{{/items}}": body renders once
// exactly when items yields nothing.
func TestNegatedIteration(t *testing.T) {
	got := mustRender(t, "{{^items}}empty{{/items}}", &record{})
	if got != "empty" {
		t.Fatalf("empty items: got %q, want %q", got, "empty")
	}
	got = mustRender(t, "{{^items}}empty{{/items}}", &record{Items: []item{{V: 1}}})
	if got != "" {
		t.Fatalf("non-empty items: got %q, want %q", got, "")
	}
}

// TestIdempotentRender: rendering twice into freshly reset buffers
// produces identical output.
func TestIdempotentRender(t *testing.T) {
	r := &record{Name: "world", Items: []item{{V: 1}, {V: 2}}}
	tpl, err := CompileString(t.Name(), "hello {{name}} {{#items}}{{v}}{{/items}}", recordDescriptors())
	if err != nil {
		t.Fatalf("CompileString: %v", err)
	}
	buf := NewBuffer(tpl.MinimumSize())
	if err := tpl.ApplyWithBuffer(buf, unsafe.Pointer(r)); err != nil {
		t.Fatalf("ApplyWithBuffer (1st): %v", err)
	}
	first := buf.String()
	buf.Reset()
	if err := tpl.ApplyWithBuffer(buf, unsafe.Pointer(r)); err != nil {
		t.Fatalf("ApplyWithBuffer (2nd): %v", err)
	}
	second := buf.String()
	if first != second {
		t.Fatalf("render not idempotent: %q != %q", first, second)
	}
}

func TestErrorMismatchedCloseTag(t *testing.T) {
	_, err := CompileString(t.Name(), "{{#a}}{{/b}}", DescriptorSet{
		{Name: "a", Generator: itemsGenerator, List: itemDescriptors()},
	})
	if err == nil {
		t.Fatal("expected a compile error for a mismatched close tag")
	}
	if !strings.Contains(err.Error(), "expecting IDENTIFIER `a` but found `b`") {
		t.Fatalf("unexpected error message: %v", err)
	}
}

func TestErrorUnknownVariable(t *testing.T) {
	_, err := CompileString(t.Name(), "{{unknown}}", DescriptorSet{})
	if err == nil {
		t.Fatal("expected a compile error for an unknown variable")
	}
	if !strings.Contains(err.Error(), "Unknown variable: unknown") {
		t.Fatalf("unexpected error message: %v", err)
	}
}

func TestErrorTripleBraceOnNonString(t *testing.T) {
	_, err := CompileString(t.Name(), "{{{int_field}}}", DescriptorSet{
		{Name: "int_field", Append: IntAppend, IsEmpty: IntIsEmpty},
	})
	if err == nil {
		t.Fatal("expected a compile error for escaping a non-string field")
	}
	if !strings.Contains(err.Error(), "Variable must be string to be escaped") {
		t.Fatalf("unexpected error message: %v", err)
	}
}

func TestErrorNewlineInAction(t *testing.T) {
	_, err := CompileString(t.Name(), "{{\n}}", DescriptorSet{})
	if err == nil {
		t.Fatal("expected a compile error for a newline inside an action")
	}
	if !strings.Contains(err.Error(), "actions cannot span multiple lines") {
		t.Fatalf("unexpected error message: %v", err)
	}
}

// TestVariableLackingAppender covers the semantic error for a descriptor
// with neither StringValue nor Append.
func TestVariableLackingAppender(t *testing.T) {
	_, err := CompileString(t.Name(), "{{bare}}", DescriptorSet{{Name: "bare"}})
	if err == nil {
		t.Fatal("expected a compile error for a descriptor with no appender")
	}
	if !strings.Contains(err.Error(), "lacks an appender") {
		t.Fatalf("unexpected error message: %v", err)
	}
}

// TestLoopBodyIdentifierUnknownOutsideLoop confirms symbol scoping: an
// identifier introduced by "{{#items}}" is invisible outside its body.
func TestLoopBodyIdentifierUnknownOutsideLoop(t *testing.T) {
	_, err := CompileString(t.Name(), "{{#items}}{{v}}{{/items}}{{v}}", recordDescriptors())
	if err == nil {
		t.Fatal("expected a compile error: v is out of scope outside the loop body")
	}
	if !strings.Contains(err.Error(), "Unknown variable: v") {
		t.Fatalf("unexpected error message: %v", err)
	}
}
