// https://github.com/wipeseals/broccoli-go
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package nand

import (
	"errors"
	"time"
)

// ErrTimeout is returned when wait_for_busy exceeds its budget.
var ErrTimeout = errors.New("nand: operation timed out")

// Command bytes, grounded on broccoli-core/src/driver.rs CommandId /
// broccoli-nandio/src/cmd.rs.
const (
	cmdReset            = 0xff
	cmdIDRead           = 0x90
	cmdStatusRead       = 0x70
	cmdReadFirst        = 0x00
	cmdReadSecond       = 0x30
	cmdProgramFirst     = 0x80
	cmdProgramSecond    = 0x10
	cmdBlockEraseFirst  = 0x60
	cmdBlockEraseSecond = 0xd0
)

// IDBytes is the number of bytes clocked out by a read_id command.
const IDBytes = 5

// ExpectedID is the TC58NVG0S3HTA00-compatible vendor signature read_id
// is checked against.
var ExpectedID = [IDBytes]byte{0x98, 0xF1, 0x80, 0x15, 0x72}

// Timing bounds, spec section 4.A. The poll/timeout pairs are budgets
// enforced by waitForBusy; CommandLatchDelay and ResetSettleDelay are
// slept through the Clock. Callers inject a Clock to keep tests off the
// wall clock.
const (
	CommandLatchDelay = 1 * time.Microsecond
	ResetSettleDelay  = 500 * time.Microsecond

	ReadBusyPoll       = 10 * time.Microsecond
	ReadBusyTimeout    = 30 * time.Microsecond
	ProgramBusyPoll    = 50 * time.Microsecond
	ProgramBusyTimeout = 700 * time.Microsecond
	EraseBusyPoll      = 200 * time.Microsecond
	EraseBusyTimeout   = 5 * time.Millisecond
)

// Clock abstracts the passage of time so that waitForBusy can be driven
// by a fake clock in tests instead of blocking on the wall clock.
type Clock interface {
	Sleep(d time.Duration)
	Since(start time.Time) time.Duration
	Now() time.Time
}

// realClock is the Clock used outside of tests.
type realClock struct{}

func (realClock) Sleep(d time.Duration)               { time.Sleep(d) }
func (realClock) Since(start time.Time) time.Duration { return time.Since(start) }
func (realClock) Now() time.Time                      { return time.Now() }

// Driver drives a one-transaction-at-a-time NAND command/address/data
// protocol over Pins. It never performs more than one transaction at a
// time and never retains state about in-flight operations across calls.
type Driver struct {
	Pins  Pins
	Clock Clock
}

// NewDriver constructs a Driver using the real wall clock.
func NewDriver(pins Pins) *Driver {
	return &Driver{Pins: pins, Clock: realClock{}}
}

func (d *Driver) clock() Clock {
	if d.Clock != nil {
		return d.Clock
	}
	return realClock{}
}

// Setup drives all pins to their safe power-up states: IO lines as
// outputs low, chip-enables high (deasserted), write-protect asserted.
func (d *Driver) Setup() {
	d.Pins.SetIODirection(true)
	d.Pins.WriteIO(0)
	d.Pins.SetChipEnable(0, false)
	d.Pins.SetChipEnable(1, false)
	d.Pins.SetCommandLatch(false)
	d.Pins.SetAddressLatch(false)
	d.Pins.SetWriteEnable(true)
	d.Pins.SetReadEnable(true)
	d.SetWriteProtect(true)
}

// SetWriteProtect level-drives ~WP. enable=true asserts write protection.
func (d *Driver) SetWriteProtect(enable bool) {
	// ~WP is active low: asserting protection means driving the line low.
	d.Pins.SetWriteProtect(!enable)
}

// latchCommand drives CLE high, clocks one byte on the IO bus via a
// ~WE pulse, then drops CLE -- per the "Command set" row of the latch
// truth table.
func (d *Driver) latchCommand(cmd byte) {
	d.Pins.SetIODirection(true)
	d.Pins.SetCommandLatch(true)
	d.Pins.SetAddressLatch(false)
	d.Pins.WriteIO(cmd)
	d.pulseWriteEnable()
	d.Pins.SetCommandLatch(false)
}

// latchAddress drives ALE high and clocks each address byte in turn --
// the "Address set" row.
func (d *Driver) latchAddress(addr []byte) {
	d.Pins.SetIODirection(true)
	d.Pins.SetCommandLatch(false)
	d.Pins.SetAddressLatch(true)
	for _, b := range addr {
		d.Pins.WriteIO(b)
		d.pulseWriteEnable()
	}
	d.Pins.SetAddressLatch(false)
}

// pulseWriteEnable drives ~WE high->low->high, holding the command-latch
// delay between transitions.
func (d *Driver) pulseWriteEnable() {
	d.Pins.SetWriteEnable(true)
	d.clock().Sleep(CommandLatchDelay)
	d.Pins.SetWriteEnable(false)
	d.clock().Sleep(CommandLatchDelay)
	d.Pins.SetWriteEnable(true)
	d.clock().Sleep(CommandLatchDelay)
}

// writeDataPhase drives CLE and ALE low and clocks out data bytes via
// ~WE pulses -- the "Data write" row.
func (d *Driver) writeDataPhase(data []byte) {
	d.Pins.SetIODirection(true)
	d.Pins.SetCommandLatch(false)
	d.Pins.SetAddressLatch(false)
	for _, b := range data {
		d.Pins.WriteIO(b)
		d.pulseWriteEnable()
	}
}

// readDataPhase drives CLE and ALE low, holds ~WE high, and strobes ~RE
// low for each byte clocked in -- the "Data read" row.
func (d *Driver) readDataPhase(data []byte) {
	d.Pins.SetIODirection(false)
	d.Pins.SetCommandLatch(false)
	d.Pins.SetAddressLatch(false)
	d.Pins.SetWriteEnable(true)
	for i := range data {
		d.Pins.SetReadEnable(true)
		d.clock().Sleep(CommandLatchDelay)
		d.Pins.SetReadEnable(false)
		d.clock().Sleep(CommandLatchDelay)
		data[i] = d.Pins.ReadIO()
		d.Pins.SetReadEnable(true)
	}
}

// waitForBusy polls R/B# at poll intervals until ready or until the
// cumulative wait reaches timeout.
func (d *Driver) waitForBusy(poll, timeout time.Duration) error {
	start := d.clock().Now()
	for {
		if d.Pins.ReadBusy() {
			return nil
		}
		if d.clock().Since(start) >= timeout {
			return ErrTimeout
		}
		d.clock().Sleep(poll)
	}
}

// Reset asserts ~CE for chip, latches command 0xFF, deasserts ~CE, and
// waits out the reset settle time.
func (d *Driver) Reset(chip int) {
	d.Pins.SetChipEnable(chip, true)
	d.latchCommand(cmdReset)
	d.Pins.SetChipEnable(chip, false)
	d.clock().Sleep(ResetSettleDelay)
}

// ReadID latches 0x90, address 0x00, clocks 5 data bytes, and reports
// whether they match ExpectedID.
func (d *Driver) ReadID(chip int) bool {
	d.Pins.SetChipEnable(chip, true)
	defer d.Pins.SetChipEnable(chip, false)

	d.latchCommand(cmdIDRead)
	d.latchAddress([]byte{0x00})

	var got [IDBytes]byte
	d.readDataPhase(got[:])

	return got == ExpectedID
}

// ReadStatus latches 0x70 and reads one status byte.
func (d *Driver) ReadStatus(chip int) StatusFlags {
	d.Pins.SetChipEnable(chip, true)
	defer d.Pins.SetChipEnable(chip, false)

	d.latchCommand(cmdStatusRead)

	var buf [1]byte
	d.readDataPhase(buf[:])
	return StatusFlags(buf[0])
}

// ReadData reads len(buf) bytes at addr: 0x00, 4-byte address, 0x30,
// wait for R/B#, read the bytes. addr's chip field selects which
// chip-enable asserts.
func (d *Driver) ReadData(addr Address, buf []byte) error {
	chip := int(addr.Chip())
	d.Pins.SetChipEnable(chip, true)
	defer d.Pins.SetChipEnable(chip, false)

	d.latchCommand(cmdReadFirst)
	wire := addr.Bytes()
	d.latchAddress(wire[:])
	d.latchCommand(cmdReadSecond)

	if err := d.waitForBusy(ReadBusyPoll, ReadBusyTimeout); err != nil {
		return err
	}

	d.readDataPhase(buf)
	return nil
}

// EraseBlock erases the block containing addr: 0x60, 2-byte page
// address, 0xD0, wait for R/B#, read status.
func (d *Driver) EraseBlock(addr Address) (StatusFlags, error) {
	chip := int(addr.Chip())
	d.Pins.SetChipEnable(chip, true)
	defer d.Pins.SetChipEnable(chip, false)

	d.latchCommand(cmdBlockEraseFirst)
	wire := addr.BlockBytes()
	d.latchAddress(wire[:])
	d.latchCommand(cmdBlockEraseSecond)

	if err := d.waitForBusy(EraseBusyPoll, EraseBusyTimeout); err != nil {
		return 0, err
	}

	return d.readStatusLocked(), nil
}

// WriteData programs buf at addr: 0x80, 4-byte address, data, 0x10,
// wait for R/B#, read status.
func (d *Driver) WriteData(addr Address, buf []byte) (StatusFlags, error) {
	chip := int(addr.Chip())
	d.Pins.SetChipEnable(chip, true)
	defer d.Pins.SetChipEnable(chip, false)

	d.latchCommand(cmdProgramFirst)
	wire := addr.Bytes()
	d.latchAddress(wire[:])
	d.writeDataPhase(buf)
	d.latchCommand(cmdProgramSecond)

	if err := d.waitForBusy(ProgramBusyPoll, ProgramBusyTimeout); err != nil {
		return 0, err
	}

	return d.readStatusLocked(), nil
}

// readStatusLocked reads status without re-asserting chip enable -- the
// caller already holds it for the surrounding erase/program sequence.
func (d *Driver) readStatusLocked() StatusFlags {
	d.latchCommand(cmdStatusRead)
	var buf [1]byte
	d.readDataPhase(buf[:])
	return StatusFlags(buf[0])
}
