// https://github.com/wipeseals/broccoli-go
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package nand

// Pins is the logical contract a NAND driver needs from the board: eight
// signal lines plus an 8-bit bidirectional IO bus and the R/B# (ready/busy)
// input. How these lines are actually driven -- raw GPIO bit-banging,
// programmable IO, or a parallel-bus peripheral -- is a board-level
// implementation detail outside this package, analogous to how a GPIO
// package exposes a Pin without prescribing the pad-mux configuration
// that backs it.
type Pins interface {
	// SetCommandLatch drives CLE.
	SetCommandLatch(high bool)
	// SetAddressLatch drives ALE.
	SetAddressLatch(high bool)
	// SetWriteEnable drives ~WE.
	SetWriteEnable(high bool)
	// SetReadEnable drives ~RE.
	SetReadEnable(high bool)
	// SetWriteProtect drives ~WP.
	SetWriteProtect(high bool)
	// SetChipEnable asserts or deasserts ~CE for the given chip.
	SetChipEnable(chip int, asserted bool)

	// WriteIO drives the 8-bit IO bus as an output.
	WriteIO(value byte)
	// ReadIO samples the 8-bit IO bus as an input.
	ReadIO() byte
	// SetIODirection switches the IO bus between output (for command,
	// address, and write-data phases) and input (for read-data and
	// status phases).
	SetIODirection(output bool)

	// ReadBusy samples R/B#, returning true when the chip is ready.
	ReadBusy() bool
}
