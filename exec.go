// Copyright 2014 Joel Scoble (github:mohae). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mustache

import (
	"unsafe"

	"github.com/juju/errors"

	"github.com/mohae/mustache/parse"
)

// Apply renders t against record, a pointer to the caller's top-level
// record, and returns the result as a string. record's type must be the
// same one the Descriptors passed to Compile* describe.
func (t *Template) Apply(record unsafe.Pointer) (string, error) {
	buf := parse.NewBuffer(t.prog.MinimumSize)
	if err := t.ApplyWithBuffer(buf, record); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ApplyWithBuffer renders t into buf, letting a caller reuse one Buffer
// across many Apply calls instead of allocating one per render. buf is
// reset and pre-grown to the template's minimum size before rendering;
// the caller need not do either themselves.
func (t *Template) ApplyWithBuffer(buf *parse.Buffer, record unsafe.Pointer) error {
	buf.Reset()
	buf.Grow(t.prog.MinimumSize)
	return apply(t.prog, buf, record)
}

// iterFrame tracks one active loop on the interpreter's frame stack. gen is
// nil for a negated section's single pass, which binds no record and never
// loops back.
type iterFrame struct {
	gen         parse.Generator
	recordDepth int
}

// apply runs prog's chunk array to completion against a fresh record stack
// seeded with top. It is the whole interpreter: a single pc-driven loop
// over the flat, linked Chunk array, dispatching on Action, rather than
// recursing over a parse tree. Active iterations live on an explicit frame
// stack, so nesting depth never touches the Go call stack; only APPLY_TPL
// recurses, once per nested template.
func apply(prog *parse.Program, buf *parse.Buffer, top unsafe.Pointer) error {
	records := []unsafe.Pointer{top}
	var frames []iterFrame
	chunks := prog.Chunks

	pc := 0
	for pc < len(chunks) {
		ch := chunks[pc]
		switch ch.Action {
		case parse.APPEND:
			buf.AppendString(ch.Data.(parse.LiteralData).Text)
			pc++

		case parse.APPEND_CHAR:
			buf.AppendByte(ch.Data.(parse.CharData).Char)
			pc++

		case parse.VARIABLE:
			d := ch.Data.(parse.VarData)
			d.Descriptor.Append(buf, d.Descriptor.Field(records[d.Depth]))
			pc++

		case parse.VARIABLE_STR:
			d := ch.Data.(parse.VarStrData)
			buf.AppendString(d.Descriptor.StringValue(d.Descriptor.Field(records[d.Depth])))
			pc++

		case parse.VARIABLE_STR_ESCAPE:
			d := ch.Data.(parse.VarStrEscapeData)
			buf.AppendEscaped(d.Descriptor.StringValue(d.Descriptor.Field(records[d.Depth])))
			pc++

		case parse.IF_VARIABLE_NOT_EMPTY:
			d := ch.Data.(parse.CondOpenData)
			empty := d.Descriptor.IsEmpty(d.Descriptor.Field(records[d.Depth]))
			render := !empty
			if ch.Flags.Has(parse.NEGATE) {
				render = !render
			}
			if render {
				pc++
			} else {
				pc = d.EndChunk + 1
			}

		case parse.END_IF_VARIABLE_NOT_EMPTY:
			pc++

		case parse.START_ITER:
			d := ch.Data.(parse.IterOpenData)
			field := d.Descriptor.Field(records[d.Depth])
			if ch.Flags.Has(parse.NEGATE) {
				if hasItems(d.Descriptor, field) {
					pc = d.AfterChunk
				} else {
					frames = append(frames, iterFrame{gen: nil})
					pc++
				}
				continue
			}
			gen := d.Descriptor.Generator(field)
			if gen.Next() {
				records = append(records, gen.Current())
				frames = append(frames, iterFrame{gen: gen, recordDepth: len(records) - 1})
				pc++
			} else {
				gen.Close()
				pc = d.AfterChunk
			}

		case parse.END_ITER:
			top := frames[len(frames)-1]
			if top.gen == nil {
				frames = frames[:len(frames)-1]
				pc++
				continue
			}
			if top.gen.Next() {
				records[top.recordDepth] = top.gen.Current()
				pc = ch.Data.(parse.IterCloseData).OpenChunk + 1
			} else {
				top.gen.Close()
				records = records[:len(records)-1]
				frames = frames[:len(frames)-1]
				pc++
			}

		case parse.APPLY_TPL:
			nested := ch.Data.(parse.ApplyTplData).Program
			if err := apply(nested, buf, records[0]); err != nil {
				return errors.Trace(err)
			}
			pc++

		case parse.LAST:
			return nil

		default:
			return errors.Errorf("internal error: unhandled chunk action %s at pc %d", ch.Action, pc)
		}
	}
	return errors.Errorf("internal error: program fell off the end without a LAST chunk")
}

// hasItems probes an iterable or emptiable descriptor without consuming
// more than one item, for the negated-section ("{{^var}}") single-pass
// check: render the body once exactly when var has no items / is empty.
func hasItems(d *parse.Descriptor, field unsafe.Pointer) bool {
	if d.Generator != nil {
		gen := d.Generator(field)
		has := gen.Next()
		gen.Close()
		return has
	}
	return !d.IsEmpty(field)
}
