// Copyright 2014 Joel Scoble (github:mohae). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parse

import "github.com/juju/errors"

// link is the post-processing pass described in this engine's design
// notes: the parser emits chunks in one forward sweep using scratch
// payloads for anything that can only be resolved once its closing tag is
// seen, and link fills in the final payloads afterward. It walks the
// chunk array exactly once.
//
//  1. END_IF_VARIABLE_NOT_EMPTY already carries its OpenChunk (the parser
//     knows the open index at close time); link uses it to turn the open
//     chunk's unresolvedCondData into a CondOpenData pointing back at this
//     close.
//  2. END_ITER carries an unresolvedIterCloseData.OpenIndex; link turns the
//     open chunk's unresolvedIterData into IterOpenData (AfterChunk is the
//     chunk right after this close), and this chunk's own data into
//     IterCloseData.
//  3. Every VARIABLE chunk whose descriptor has a StringValue func is
//     specialized to VARIABLE_STR or, if QUOTE is set, VARIABLE_STR_ESCAPE.
//     A QUOTE flag on a descriptor without StringValue is a compile error:
//     escaping is only defined for the built-in string fast path.
//  4. LAST stops the scan; a LAST chunk found anywhere else is an internal
//     error, since the parser only ever emits exactly one, at the end.
func link(p *Program) error {
	chunks := p.Chunks
	for i, ch := range chunks {
		switch ch.Action {
		case END_IF_VARIABLE_NOT_EMPTY:
			close := ch.Data.(CondCloseData)
			open, ok := chunks[close.OpenChunk].Data.(unresolvedCondData)
			if !ok {
				return errors.Errorf("chunk %d: conditional close does not match an open conditional", i)
			}
			chunks[close.OpenChunk].Data = CondOpenData{Descriptor: open.Descriptor, Depth: open.Depth, EndChunk: i}

		case END_ITER:
			close := ch.Data.(unresolvedIterCloseData)
			open, ok := chunks[close.OpenIndex].Data.(unresolvedIterData)
			if !ok {
				return errors.Errorf("chunk %d: iteration close does not match an open iteration", i)
			}
			chunks[close.OpenIndex].Data = IterOpenData{Descriptor: open.Descriptor, Depth: open.Depth, AfterChunk: i + 1}
			chunks[i].Data = IterCloseData{OpenChunk: close.OpenIndex}
			chunks[i].Flags |= chunks[close.OpenIndex].Flags

		case VARIABLE:
			v := ch.Data.(VarData)
			if v.Descriptor.StringValue == nil {
				if ch.Flags.Has(QUOTE) {
					return errors.Errorf("chunk %d: variable %q: Variable must be string to be escaped", i, v.Descriptor.Name)
				}
				if v.Descriptor.Append == nil {
					return errors.Errorf("chunk %d: variable %q has no Append function: descriptor lacks an appender", i, v.Descriptor.Name)
				}
				continue
			}
			if ch.Flags.Has(QUOTE) {
				chunks[i] = Chunk{Action: VARIABLE_STR_ESCAPE, Data: VarStrEscapeData{Descriptor: v.Descriptor, Depth: v.Depth}, Flags: ch.Flags}
			} else {
				chunks[i] = Chunk{Action: VARIABLE_STR, Data: VarStrData{Descriptor: v.Descriptor, Depth: v.Depth}, Flags: ch.Flags}
			}

		case LAST:
			if i != len(chunks)-1 {
				return errors.Errorf("chunk %d: internal error: LAST chunk not at end of program", i)
			}
		}
	}
	return nil
}
