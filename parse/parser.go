// Copyright 2014 Joel Scoble (github:mohae). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// This code is based on code originally written by The Go Authors.
// Their copyright notice immediately follows this one.

// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parse

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/juju/errors"
)

// Options controls compilation. ConstTemplate: when set, callers promise
// the source outlives the compiled Program, so literal (APPEND) chunks
// borrow slices of source
// directly instead of copying. When unset (the default), every literal
// chunk's text is cloned with strings.Clone so the Program holds no
// reference into source at all and the caller's buffer can be freed or
// reused the moment Compile returns. LoadPartial resolves a {{> name}}
// reference to a template's source and a stable identifier used for cycle
// detection; it is nil for compile_string, where partials are simply
// unsupported.
type Options struct {
	ConstTemplate bool
	LoadPartial   func(name string) (source string, resolvedID string, err error)
}

// blockKind distinguishes the two kinds of open block the compiler tracks.
type blockKind int

const (
	blockIter blockKind = iota
	blockCond
)

// blockEntry is one entry of the parser's open-block stack: an open
// #/^/?'d tag awaiting its matching close.
type blockEntry struct {
	kind        blockKind
	ident       string
	chunkIndex  int
	pushedScope bool
}

// compiler holds all state for one compile_string/compile_file call,
// including (for partials) the cycle-detection set shared with the whole
// top-level compile.
type compiler struct {
	name string
	text string // full source text, kept for error-context reporting

	lex       *lexer
	tok       item
	haveToken bool

	chunks  []Chunk
	minSize int

	sym    symtab
	blocks []blockEntry

	topDescriptors DescriptorSet
	opts           Options
	inFlight       map[string]bool
}

// next returns the next lexeme, consuming the pending pushback if any.
func (c *compiler) next() item {
	if c.haveToken {
		c.haveToken = false
		return c.tok
	}
	return c.lex.nextItem()
}

// backup pushes it back so the next call to next or peek returns it again.
func (c *compiler) backup(it item) {
	c.tok = it
	c.haveToken = true
}

// peek returns the next lexeme without consuming it.
func (c *compiler) peek() item {
	it := c.next()
	c.backup(it)
	return it
}

// errorf panics with a formatted compile error; recovered by Compile.
func (c *compiler) errorf(format string, args ...interface{}) {
	panic(errors.Errorf("%s: "+format, append([]interface{}{c.name}, args...)...))
}

// unexpected reports a lexeme that doesn't fit the current grammar
// position.
func (c *compiler) unexpected(it item, context string) {
	c.errorf("unexpected %s in %s", it, context)
}

// expect consumes the next lexeme and requires it to have typ.
func (c *compiler) expect(typ itemType, context string) item {
	it := c.next()
	if it.typ == itemError {
		c.errorf("%s", it.val)
	}
	if it.typ != typ {
		c.unexpected(it, context)
	}
	return it
}

// emit appends chunk to the program and returns its index.
func (c *compiler) emit(chunk Chunk) int {
	c.chunks = append(c.chunks, chunk)
	return len(c.chunks) - 1
}

// run is the top-level text loop: consume lexemes, emitting literal chunks
// directly and delegating each action to parseAction, until EOF.
func (c *compiler) run() {
	for {
		it := c.next()
		switch it.typ {
		case itemText:
			c.emitText(it.val)
		case itemLeftMeta:
			c.parseAction()
		case itemEOF:
			c.finish()
			return
		case itemError:
			c.errorf("%s", it.val)
		default:
			c.unexpected(it, "text")
		}
	}
}

// emitText turns one TEXT lexeme into an APPEND or APPEND_CHAR chunk. A
// single byte is stored directly in CharData, which never aliases source
// either way; a longer run's text is only borrowed from source as-is when
// Options.ConstTemplate is set, and cloned otherwise (see Options' doc).
func (c *compiler) emitText(s string) {
	switch len(s) {
	case 0:
		return
	case 1:
		c.emit(Chunk{Action: APPEND_CHAR, Data: CharData{Char: s[0]}, Flags: NO_FREE})
		c.minSize++
	default:
		if !c.opts.ConstTemplate {
			s = strings.Clone(s)
		}
		c.emit(Chunk{Action: APPEND, Data: LiteralData{Text: s}})
		c.minSize += len(s)
	}
}

// finish validates that every block was closed and emits the terminating
// LAST chunk.
func (c *compiler) finish() {
	if len(c.blocks) > 0 {
		msg := "unterminated block(s) at end of input:"
		for _, b := range c.blocks {
			msg += fmt.Sprintf(" %q", b.ident)
		}
		c.errorf("%s", msg)
	}
	c.emit(Chunk{Action: LAST, Data: LastData{}, Flags: NO_FREE})
}

// parseAction consumes everything between an already-seen LEFT_META and
// the lexemes that fully describe one action, dispatching on the first
// meaningful lexeme: a quote marker, an identifier, or one of the
// #/^/>/'/' action prefixes.
func (c *compiler) parseAction() {
	quote, braceQuote := false, false
	for {
		it := c.next()
		logger.Debugf("action: %s", it)
		switch it.typ {
		case itemOpenCurly:
			if quote {
				c.errorf("duplicate quote marker in action")
			}
			quote, braceQuote = true, true
			continue
		case itemAmpersand:
			if quote {
				c.errorf("duplicate quote marker in action")
			}
			quote = true
			continue
		case itemIdentifier:
			c.parseIdentifierForm(it.val, quote, braceQuote, false)
			return
		case itemGreaterThan:
			c.parsePartial()
			return
		case itemHash:
			c.parseIterOpen(false)
			return
		case itemHat:
			c.parseNegated()
			return
		case itemSlash:
			c.parseClose()
			return
		case itemError:
			c.errorf("%s", it.val)
		default:
			c.unexpected(it, "action")
		}
	}
}

// parseNegated handles everything after a HAT: an optional explicit HASH,
// then the identifier, then either QUESTION_MARK (inverted conditional) or
// RIGHT_META (negated section, "{{^var}}").
func (c *compiler) parseNegated() {
	it := c.next()
	if it.typ == itemHash {
		c.parseIterOpen(true)
		return
	}
	if it.typ != itemIdentifier {
		c.unexpected(it, "negated action")
	}
	name := it.val
	switch c.peek().typ {
	case itemQuestion:
		c.next()
		c.openConditional(name, true)
	default:
		c.expect(itemRightMeta, "negated section")
		c.openIteration(name, true)
	}
}

// parseIdentifierForm handles a plain identifier reaching the parser
// un-prefixed by #, ^, or /: a variable substitution or a conditional
// open, depending on what follows.
func (c *compiler) parseIdentifierForm(name string, quote, braceQuote, negate bool) {
	if braceQuote {
		c.expect(itemCloseCurly, "quoted identifier")
	}
	switch c.peek().typ {
	case itemQuestion:
		c.next()
		c.openConditional(name, negate)
	case itemRightMeta:
		c.next()
		d, depth := c.resolve(name)
		c.emit(Chunk{Action: VARIABLE, Data: VarData{Descriptor: d, Depth: depth}, Flags: flagsFor(quote, false)})
		c.minSize += len(name) + 1
	default:
		c.unexpected(c.peek(), "variable")
	}
}

func flagsFor(quote, negate bool) Flag {
	var f Flag
	if quote {
		f |= QUOTE
	}
	if negate {
		f |= NEGATE
	}
	return f
}

// resolve looks the identifier up via the symbol table, innermost scope
// first, failing the compile if it is unknown. The returned depth indexes the
// interpreter's runtime record stack (see chunk.go's Depth-carrying
// payloads) so the right record is used even when a chunk inside a nested
// loop refers to an outer field.
func (c *compiler) resolve(name string) (*Descriptor, int) {
	if d, depth := c.sym.resolve(name); d != nil {
		return d, depth
	}
	if d := c.topDescriptors.Find(name); d != nil {
		return d, 0
	}
	c.errorf("Unknown variable: %s", name)
	return nil, 0
}

// openConditional emits IF_VARIABLE_NOT_EMPTY for {{var?}} / {{^var?}}.
func (c *compiler) openConditional(name string, negate bool) {
	d, depth := c.resolve(name)
	if d.IsEmpty == nil {
		c.errorf("variable %q cannot be used in a conditional: no is_empty", name)
	}
	c.expect(itemRightMeta, "conditional")
	idx := c.emit(Chunk{Action: IF_VARIABLE_NOT_EMPTY, Data: unresolvedCondData{Descriptor: d, Depth: depth}, Flags: flagsFor(false, negate) | NO_FREE})
	c.blocks = append(c.blocks, blockEntry{kind: blockCond, ident: name, chunkIndex: idx})
}

// parseIterOpen handles the HASH-led form of iteration (explicit "#",
// optionally preceded by a HAT already consumed by parseNegated).
func (c *compiler) parseIterOpen(negate bool) {
	it := c.expect(itemIdentifier, "iteration")
	c.expect(itemRightMeta, "iteration")
	c.openIteration(it.val, negate)
}

// openIteration emits START_ITER and, for the plain (non-negated) form,
// pushes the symbol scope the loop body resolves against.
//
// The negated form ("{{^var}}...{{/var}}") is an inverted section: it
// renders its body at most once, in the enclosing scope, precisely when
// var yields no items / is empty. Because it never binds an item, it does
// not push a new symbol scope; only the plain "#"-led form does.
func (c *compiler) openIteration(name string, negate bool) {
	d, depth := c.resolve(name)
	pushed := false
	if negate {
		if d.Generator == nil && d.IsEmpty == nil {
			c.errorf("variable %q cannot be used in a negated section: no generator or is_empty", name)
		}
	} else {
		if d.Generator == nil || d.List == nil {
			c.errorf("variable %q is not iterable", name)
		}
		c.sym.push(d.List)
		pushed = true
	}
	idx := len(c.chunks)
	logger.Debugf("open iteration %q at chunk %d, negate %v", name, idx, negate)
	c.emit(Chunk{Action: START_ITER, Data: unresolvedIterData{Descriptor: d, Depth: depth, Index: idx}, Flags: flagsFor(false, negate) | NO_FREE})
	c.blocks = append(c.blocks, blockEntry{kind: blockIter, ident: name, chunkIndex: idx, pushedScope: pushed})
}

// parseClose handles a "/" action: either the close of an iteration
// ({{/var}}) or a conditional ({{/var?}}).
func (c *compiler) parseClose() {
	it := c.expect(itemIdentifier, "close tag")
	name := it.val
	switch c.peek().typ {
	case itemRightMeta:
		c.next()
		c.closeIteration(name)
	case itemQuestion:
		c.next()
		c.expect(itemRightMeta, "close tag")
		c.closeConditional(name)
	default:
		c.unexpected(c.peek(), "close tag")
	}
}

func (c *compiler) closeIteration(name string) {
	if len(c.blocks) == 0 {
		c.errorf("unexpected close tag %q: no open block", name)
	}
	top := c.blocks[len(c.blocks)-1]
	if top.kind != blockIter {
		c.errorf("expecting IDENTIFIER `%s?` but found `%s`", top.ident, name)
	}
	if top.ident != name {
		c.errorf("expecting IDENTIFIER `%s` but found `%s`", top.ident, name)
	}
	c.blocks = c.blocks[:len(c.blocks)-1]
	if top.pushedScope {
		c.sym.pop()
	}
	c.emit(Chunk{Action: END_ITER, Data: unresolvedIterCloseData{OpenIndex: top.chunkIndex}})
}

func (c *compiler) closeConditional(name string) {
	if len(c.blocks) == 0 {
		c.errorf("unexpected close tag %q: no open block", name)
	}
	top := c.blocks[len(c.blocks)-1]
	if top.kind != blockCond {
		c.errorf("expecting IDENTIFIER `%s` but found `%s?`", top.ident, name)
	}
	if top.ident != name {
		c.errorf("expecting IDENTIFIER `%s` but found `%s`", top.ident, name)
	}
	c.blocks = c.blocks[:len(c.blocks)-1]
	open := c.chunks[top.chunkIndex].Data.(unresolvedCondData)
	c.emit(Chunk{Action: END_IF_VARIABLE_NOT_EMPTY, Data: CondCloseData{Descriptor: open.Descriptor, OpenChunk: top.chunkIndex}})
}

// parsePartial handles "{{> name}}": load, compile, and embed another
// template as an APPLY_TPL chunk.
func (c *compiler) parsePartial() {
	it := c.expect(itemIdentifier, "partial")
	c.expect(itemRightMeta, "partial")
	logger.Debugf("partial %q", it.val)
	if c.opts.LoadPartial == nil {
		c.errorf("partial %q referenced but no partial loader configured", it.val)
	}
	src, resolvedID, err := c.opts.LoadPartial(it.val)
	if err != nil {
		c.errorf("loading partial %q: %s", it.val, err)
	}
	if c.inFlight[resolvedID] {
		c.errorf("partial cycle detected while loading %q", it.val)
	}
	c.inFlight[resolvedID] = true
	nested, err := compileGuarded(it.val, src, c.topDescriptors, c.opts, c.inFlight)
	delete(c.inFlight, resolvedID)
	if err != nil {
		c.errorf("compiling partial %q: %s", it.val, err)
	}
	c.emit(Chunk{Action: APPLY_TPL, Data: ApplyTplData{Program: nested}})
	c.minSize += nested.MinimumSize
}

// Compile compiles source into a linked Program against descriptors, the
// caller's top-level descriptor set.
func Compile(name, source string, descriptors DescriptorSet, opts Options) (*Program, error) {
	return compileGuarded(name, source, descriptors, opts, map[string]bool{})
}

// compileGuarded is Compile's recursive entry point, threading the
// in-flight partial set so nested compiles share one cycle-detection
// scope.
func compileGuarded(name, source string, descriptors DescriptorSet, opts Options, inFlight map[string]bool) (prog *Program, err error) {
	c := &compiler{
		name:           name,
		text:           source,
		topDescriptors: descriptors,
		opts:           opts,
		inFlight:       inFlight,
	}
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if _, ok := r.(runtime.Error); ok {
			panic(r)
		}
		e, ok := r.(error)
		if !ok {
			panic(r)
		}
		err = errors.Annotatef(e, "compile %q", name)
		logger.Errorf("%s", err)
		prog = nil
	}()
	c.lex = lex(name, source)
	c.run()
	if c.sym.depth() != 0 {
		c.errorf("internal error: %d scope(s) left open after compile", c.sym.depth())
	}
	prog = &Program{Chunks: c.chunks, MinimumSize: c.minSize}
	if err := link(prog); err != nil {
		return nil, errors.Annotatef(err, "linking %q", name)
	}
	logger.Debugf("compiled %q: %d chunks, minimum_size %d", name, len(prog.Chunks), prog.MinimumSize)
	return prog, nil
}
