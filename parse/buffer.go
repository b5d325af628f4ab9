// Copyright 2014 Joel Scoble (github:mohae). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parse

import "bytes"

// Buffer is the output buffer rendering appends to: a thin wrapper around
// bytes.Buffer with a presize-then-reset discipline: pre-grown to a
// template's minimum size before rendering, reset before reuse.
type Buffer struct {
	bytes.Buffer
}

// NewBuffer returns a Buffer pre-grown to size bytes.
func NewBuffer(size int) *Buffer {
	b := &Buffer{}
	b.Grow(size)
	return b
}

// Reset clears the buffer's contents so it can be reused by another
// ApplyWithBuffer call without reallocating its backing array.
func (b *Buffer) Reset() {
	b.Buffer.Reset()
}

// AppendByte appends a single literal byte, used by the APPEND_CHAR chunk.
func (b *Buffer) AppendByte(c byte) {
	b.WriteByte(c)
}

// AppendString appends s verbatim, used by APPEND, VARIABLE_STR and the
// built-in numeric appenders.
func (b *Buffer) AppendString(s string) {
	b.WriteString(s)
}

// htmlEscapeTable is the fixed escape map VARIABLE_STR_ESCAPE applies, the
// triple-brace / {{&var}} escaped form.
var htmlEscapeTable = map[byte]string{
	'<':  "&lt;",
	'>':  "&gt;",
	'&':  "&amp;",
	'"':  "&quot;",
	'\'': "&#x27;",
	'/':  "&#x2f;",
}

// AppendEscaped appends s with each byte in htmlEscapeTable replaced by its
// escape sequence; all other bytes are copied as-is.
func (b *Buffer) AppendEscaped(s string) {
	for i := 0; i < len(s); i++ {
		if esc, ok := htmlEscapeTable[s[i]]; ok {
			b.WriteString(esc)
			continue
		}
		b.WriteByte(s[i])
	}
}
