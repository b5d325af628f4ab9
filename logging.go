// Copyright 2014 Joel Scoble (github:mohae). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mustache

import (
	"io"

	"github.com/cihub/seelog"

	"github.com/mohae/mustache/parse"
)

// logger is package-level and disabled by default, so embedding
// applications don't get seelog output they never asked for; swap it in
// via UseLogger/SetLogWriter. Both DisableLog and UseLogger also forward
// to the parse package's own logger var, since parse can't import this
// package back to share one.
var logger seelog.LoggerInterface

func init() {
	DisableLog()
}

// DisableLog silences all package logging, in both mustache and parse.
func DisableLog() {
	logger = seelog.Disabled
	parse.DisableLog()
}

// UseLogger lets a caller supply its own seelog logger, e.g. one configured
// from the embedding application's own seelog.xml. It configures both the
// root package's logger and parse's.
func UseLogger(newLogger seelog.LoggerInterface) {
	logger = newLogger
	parse.UseLogger(newLogger)
}

// SetLogWriter is a shortcut for sending log output to an io.Writer without
// building a full seelog config.
func SetLogWriter(writer io.Writer) error {
	newLogger, err := seelog.LoggerFromWriterWithMinLevel(writer, seelog.TraceLvl)
	if err != nil {
		return err
	}
	UseLogger(newLogger)
	return nil
}

// FlushLog flushes any buffered log output. Callers embedding this package
// in a long-running process should defer this.
func FlushLog() {
	logger.Flush()
}
