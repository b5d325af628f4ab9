// Copyright 2014 Joel Scoble (github:mohae). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mustache

import (
	"os"
	"path/filepath"

	"github.com/juju/errors"
)

// partialLoader returns a parse.Options.LoadPartial implementation that
// resolves a {{> name}} reference to name(+ext) under dir, reading it with
// os.ReadFile. The resolved id it returns for cycle detection is the file's
// absolute, symlink-resolved path, so two different relative spellings of
// the same file are still recognized as the same template.
func partialLoader(dir, ext string) func(name string) (string, string, error) {
	return func(name string) (string, string, error) {
		fname := name
		if ext != "" && filepath.Ext(fname) == "" {
			fname += ext
		}
		path := filepath.Join(dir, fname)
		resolved, err := filepath.Abs(path)
		if err != nil {
			return "", "", errors.Annotatef(err, "resolving partial %q", name)
		}
		if real, err := filepath.EvalSymlinks(resolved); err == nil {
			resolved = real
		}
		source, err := os.ReadFile(path)
		if err != nil {
			return "", "", errors.Annotatef(err, "reading partial %q", name)
		}
		return string(source), resolved, nil
	}
}
