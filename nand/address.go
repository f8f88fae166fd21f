// https://github.com/wipeseals/broccoli-go
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package nand implements the logical command/address/data protocol for a
// TC58NVG0S3HTA00-compatible raw NAND flash die, along with the
// block-lifecycle bookkeeping (bad-block discovery, block-state tracking)
// that a future flash translation layer builds on.
package nand

import (
	"encoding/binary"

	"github.com/wipeseals/broccoli-go/bits"
)

// Address fields. The chip selector is allotted a full nibble (bits
// 12-15, of which only 2 are used) so that column+chip occupy exactly
// the low 16 bits of the word -- this is what lets BlockBytes derive
// the two-byte erase address with a plain 16-bit shift.
var (
	columnField = bits.NewField(0, 12)
	chipField   = bits.NewField(12, 2)
	pageField   = bits.NewField(16, 6)
	blockField  = bits.NewField(22, 10)
)

// Address is a packed NAND address: column (byte offset within a page),
// chip (which die), page-in-block, and block. The chip field is never
// transmitted on the wire -- it only selects which chip-enable pin is
// asserted; see Bytes and BlockBytes.
type Address uint32

// FromRaw rebuilds an Address from its packed 32-bit form.
func FromRaw(raw uint32) Address {
	return Address(raw)
}

// FromBlock builds an Address pointing at page 0, column 0 of the given
// chip/block pair.
func FromBlock(chip, block uint32) Address {
	raw := chipField.Set(0, chip)
	raw = blockField.Set(raw, block)
	return Address(raw)
}

// Raw returns the packed 32-bit representation.
func (a Address) Raw() uint32 {
	return uint32(a)
}

// Column returns the byte offset within the page.
func (a Address) Column() uint32 {
	return columnField.Get(uint32(a))
}

// Chip returns the die selector. Not part of the wire encoding.
func (a Address) Chip() uint32 {
	return chipField.Get(uint32(a))
}

// Page returns the page-in-block index.
func (a Address) Page() uint32 {
	return pageField.Get(uint32(a))
}

// Block returns the block index.
func (a Address) Block() uint32 {
	return blockField.Get(uint32(a))
}

// WithColumn returns a, with the column field replaced.
func (a Address) WithColumn(column uint32) Address {
	return Address(columnField.Set(uint32(a), column))
}

// WithPage returns a, with the page-in-block field replaced.
func (a Address) WithPage(page uint32) Address {
	return Address(pageField.Set(uint32(a), page))
}

// Bytes packs the full four-byte address form used for read/program
// command sequences, little-endian. The chip field is masked out: it is
// never put on the bus.
func (a Address) Bytes() [4]byte {
	wire := a.Raw() &^ chipField.Mask()
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], wire)
	return buf
}

// BlockBytes packs the two-byte page-address-only form used for block
// erase: the low 16 bits (column + chip) are dropped, leaving
// page-in-block and block packed into a uint16.
func (a Address) BlockBytes() [2]byte {
	wire := a.Raw() >> 16
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], uint16(wire))
	return buf
}
