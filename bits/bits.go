// https://github.com/wipeseals/broccoli-go
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package bits manipulates contiguous bitfields packed into 32-bit
// words, the shape NAND addresses and status registers take on this
// firmware.
package bits

// Field describes a contiguous run of bits within a 32-bit word.
type Field struct {
	pos  int
	mask uint32
}

// NewField describes a field of width bits starting at bit pos.
func NewField(pos, width int) Field {
	return Field{pos: pos, mask: 1<<width - 1}
}

// Get extracts the field's value from word.
func (f Field) Get(word uint32) uint32 {
	return (word >> f.pos) & f.mask
}

// Set returns word with the field replaced by val, truncated to the
// field width.
func (f Field) Set(word, val uint32) uint32 {
	return (word &^ (f.mask << f.pos)) | ((val & f.mask) << f.pos)
}

// Mask returns the field's mask shifted into place within the word.
func (f Field) Mask() uint32 {
	return f.mask << f.pos
}

// Max returns the largest value the field can hold.
func (f Field) Max() uint32 {
	return f.mask
}
