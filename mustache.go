// Copyright 2014 Joel Scoble (github:mohae). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mustache compiles and renders logic-less, Mustache-family
// templates against caller-supplied descriptor sets instead of reflection:
// every field a template may reach is named up front as a Descriptor, and
// nothing outside the descriptor set is reachable from a template.
package mustache

import (
	"os"
	"path/filepath"

	"github.com/juju/errors"

	"github.com/mohae/mustache/parse"
)

// Descriptor, DescriptorSet, Generator, SliceGenerator and Buffer are the
// caller-facing names for the parse package's core data model; they live in
// parse because parse.Chunk's payloads reference *Descriptor directly and
// parse cannot import this package back.
type (
	Descriptor     = parse.Descriptor
	DescriptorSet  = parse.DescriptorSet
	Generator      = parse.Generator
	SliceGenerator = parse.SliceGenerator
	Buffer         = parse.Buffer
)

// NewSliceGenerator, NewBuffer, OffsetOf and the built-in numeric
// Append/IsEmpty pairs re-export their parse package equivalents so callers
// never need to import parse directly. IntAppend/IntIsEmpty and
// DoubleAppend/DoubleIsEmpty implement int/double formatting and emptiness
// once, in the library, the same tier as a Descriptor's built-in
// StringValue fast path: a Descriptor for a plain int or float64 field can
// use these directly instead of hand-rolling them.
var (
	NewSliceGenerator = parse.NewSliceGenerator
	NewBuffer         = parse.NewBuffer
	OffsetOf          = parse.OffsetOf
	IntAppend         = parse.IntAppend
	IntIsEmpty        = parse.IntIsEmpty
	DoubleAppend      = parse.DoubleAppend
	DoubleIsEmpty     = parse.DoubleIsEmpty
)

// Options configures a compile: whether the source may be borrowed rather
// than copied (CONST_TEMPLATE), and how to resolve {{> name}} references.
type Options = parse.Options

// Template is a compiled, linked chunk program ready to render.
type Template struct {
	name string
	prog *parse.Program
}

// Name returns the name the template was compiled with.
func (t *Template) Name() string { return t.name }

// MinimumSize is the compiler's output-size estimate (literal text length
// plus len(name)+1 per variable, plus nested partials' estimates), used to
// presize a render Buffer.
func (t *Template) MinimumSize() int { return t.prog.MinimumSize }

// CompileString compiles source with no partial support: any {{> name}}
// reference fails to compile.
func CompileString(name, source string, descriptors DescriptorSet) (*Template, error) {
	return CompileStringFull(name, source, descriptors, Options{})
}

// CompileStringFull compiles source with the given Options: set
// opts.LoadPartial to resolve {{> name}}.
func CompileStringFull(name, source string, descriptors DescriptorSet, opts Options) (*Template, error) {
	prog, err := parse.Compile(name, source, descriptors, opts)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Template{name: name, prog: prog}, nil
}

// CompileFile compiles the template at path, resolving any {{> name}}
// reference by reading name (plus the compiled file's extension, if name
// has none) from the file's own directory, or the directory given by
// WithPartialDir. Cycle detection is handled by the parse package.
func CompileFile(path string, descriptors DescriptorSet, opts ...FileOption) (*Template, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Annotatef(err, "reading %s", path)
	}
	cfg := fileConfig{dir: filepath.Dir(path), ext: filepath.Ext(path)}
	for _, o := range opts {
		o(&cfg)
	}
	loader := partialLoader(cfg.dir, cfg.ext)
	return CompileStringFull(path, string(source), descriptors, Options{ConstTemplate: cfg.constTemplate, LoadPartial: loader})
}

// FileOption customizes CompileFile.
type FileOption func(*fileConfig)

type fileConfig struct {
	dir           string
	ext           string
	constTemplate bool
}

// WithPartialDir overrides the directory partials are resolved against;
// by default it is the compiled file's own directory.
func WithPartialDir(dir string) FileOption {
	return func(c *fileConfig) { c.dir = dir }
}

// WithConstTemplate marks the source as safe to borrow from rather than
// copy; the file's contents are held by the Template anyway.
func WithConstTemplate() FileOption {
	return func(c *fileConfig) { c.constTemplate = true }
}
