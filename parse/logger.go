// Copyright 2014 Joel Scoble (github:mohae). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parse

import "github.com/cihub/seelog"

// logger is parse's own package-level seelog logger, disabled by default.
// parse never imports the root mustache package back, so the root
// package's UseLogger/DisableLog forward down into this one too, keeping
// a single knob for an embedding application (see logging.go in the root
// package).
var logger seelog.LoggerInterface

func init() {
	DisableLog()
}

// DisableLog silences parse package logging.
func DisableLog() {
	logger = seelog.Disabled
}

// UseLogger points parse's debug/error output (the parser's action
// dispatch, iteration opens, partial loads, compile results and compile
// errors) at newLogger. The lexer and linker do not log.
func UseLogger(newLogger seelog.LoggerInterface) {
	logger = newLogger
}
