// Copyright 2014 Joel Scoble (github:mohae). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parse

import (
	"fmt"
	"strconv"
	"unsafe"
)

// IntAppend is a built-in Descriptor.Append for a plain Go int field:
// decimal, no padding, no sign for non-negative values. Pair with
// IntIsEmpty for the descriptor's IsEmpty.
func IntAppend(buf *Buffer, field unsafe.Pointer) {
	buf.AppendString(strconv.Itoa(*(*int)(field)))
}

// IntIsEmpty is a built-in Descriptor.IsEmpty for a plain Go int field: an
// integer is "empty" exactly when it equals zero.
func IntIsEmpty(field unsafe.Pointer) bool {
	return *(*int)(field) == 0
}

// DoubleAppend is a built-in Descriptor.Append for a float64 field,
// formatted with a printf-style "%f" default (6 fractional digits). Pair
// with DoubleIsEmpty for the descriptor's IsEmpty.
func DoubleAppend(buf *Buffer, field unsafe.Pointer) {
	buf.AppendString(fmt.Sprintf("%f", *(*float64)(field)))
}

// DoubleIsEmpty is a built-in Descriptor.IsEmpty for a float64 field: a
// double is "empty" exactly when it is IEEE zero, either sign.
func DoubleIsEmpty(field unsafe.Pointer) bool {
	return *(*float64)(field) == 0
}
