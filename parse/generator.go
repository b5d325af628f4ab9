// Copyright 2014 Joel Scoble (github:mohae). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parse

import "unsafe"

// Generator is the resumable producer an iterable Descriptor hands the
// interpreter. It is a pull-style iterator: Next advances
// and reports whether another item is available; Current addresses that
// item for the duration of the loop body; Close releases resources and
// must be safe to call even if Next was never called or already returned
// false.
//
// Only one Generator is active per loop frame. The interpreter owns the
// Generator across the whole loop and is responsible for calling Close
// exactly once, whether the loop runs to exhaustion or is abandoned early
// (a negated section that probes for a first item and stops).
type Generator interface {
	// Next advances to the next item. It returns false when the
	// generator is exhausted; once it returns false it will keep
	// returning false.
	Next() bool

	// Current addresses the item most recently yielded by Next. It is
	// only valid to call after Next has returned true.
	Current() unsafe.Pointer

	// Close releases any resources held by the generator. Idempotent.
	Close()
}

// SliceGenerator adapts a Go slice of fixed-size elements into a
// Generator, for the common case of an iterable field backed by a slice
// rather than a hand-rolled coroutine.
type SliceGenerator struct {
	data     unsafe.Pointer
	elemSize uintptr
	len      int
	idx      int
}

// NewSliceGenerator builds a Generator over a contiguous array of len
// elements of elemSize bytes starting at data. Callers typically build one
// of these from a slice header: NewSliceGenerator(unsafe.Pointer(&s[0]),
// unsafe.Sizeof(s[0]), len(s)). Guard the len(s) == 0 case yourself before
// taking &s[0]; data is only dereferenced when length > 0, so nil is a
// valid data for an empty slice.
func NewSliceGenerator(data unsafe.Pointer, elemSize uintptr, length int) *SliceGenerator {
	return &SliceGenerator{data: data, elemSize: elemSize, len: length, idx: -1}
}

func (g *SliceGenerator) Next() bool {
	if g.idx+1 >= g.len {
		return false
	}
	g.idx++
	return true
}

func (g *SliceGenerator) Current() unsafe.Pointer {
	return unsafe.Pointer(uintptr(g.data) + uintptr(g.idx)*g.elemSize)
}

func (g *SliceGenerator) Close() {}
