// Copyright 2014 Joel Scoble (github:mohae). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parse

import "unsafe"

// Descriptor describes one field of a caller record that a template may
// reference: an offset into the record plus the functions needed to render
// and test that field. There is no reflection anywhere; what the caller
// doesn't describe, a template cannot reach.
type Descriptor struct {
	// Name is the identifier exposed to templates.
	Name string

	// Offset is the byte offset of the field inside the record this
	// descriptor belongs to.
	Offset uintptr

	// Append formats the field into buf, given a pointer to the field
	// itself (record + Offset). Used as the generic VARIABLE dispatch
	// path for any field StringValue doesn't cover.
	Append func(buf *Buffer, field unsafe.Pointer)

	// StringValue, when set, lets the linker specialize a VARIABLE chunk
	// referencing this descriptor into VARIABLE_STR or (with the QUOTE
	// flag) VARIABLE_STR_ESCAPE, skipping Append's indirect call. Only
	// built-in string fields set this; everything else renders through
	// Append and may not be HTML-escaped.
	StringValue func(field unsafe.Pointer) string

	// IsEmpty is used by {{var?}} and {{^var?}} conditionals, and by the
	// negated form of {{^var}} when Generator is nil. May be nil for
	// descriptors that are never used in a conditional or negated
	// section.
	IsEmpty func(field unsafe.Pointer) bool

	// Generator produces a Generator bound to this field, given a pointer
	// to the field itself (record + Offset), for descriptors used with
	// {{#var}}/{{^var}} iteration. Nil for non-iterable descriptors.
	Generator func(field unsafe.Pointer) Generator

	// List is the descriptor set visible inside this field's loop body,
	// resolved against each yielded item. Nil for non-iterable fields.
	List DescriptorSet
}

// DescriptorSet is a descriptor set shared by a record type: every field of
// that record the template is allowed to see. Order is not significant;
// lookup is by Name.
type DescriptorSet []*Descriptor

// Find returns the descriptor named name, or nil if not present.
func (ds DescriptorSet) Find(name string) *Descriptor {
	for _, d := range ds {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// Field returns a pointer to the descriptor's field within record, for
// passing to Append/IsEmpty/Generator/StringValue.
func (d *Descriptor) Field(record unsafe.Pointer) unsafe.Pointer {
	return unsafe.Pointer(uintptr(record) + d.Offset)
}

// OffsetOf is a small helper so callers building a Descriptor by hand
// don't need to reach for unsafe.Offsetof themselves at every call site.
// Usage: mustache.OffsetOf(unsafe.Pointer(&rec), unsafe.Pointer(&rec.Field)).
func OffsetOf(record, field unsafe.Pointer) uintptr {
	return uintptr(field) - uintptr(record)
}
