// https://github.com/wipeseals/broccoli-go
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package nand

// fakePins is an in-memory NAND model driven by the same CLE/ALE/~WE/~RE
// sequencing Driver issues, used to exercise Driver and Commander without
// real hardware. It decodes command/address/data phases by watching which
// latch is asserted when WriteIO is called, mirroring how a real die
// samples the bus on the ~WE strobe.
type fakePins struct {
	geometry Geometry

	cle, ale bool
	ioDir    bool // true = output (driver writing to chip)

	currentChip int
	ce          [2]bool

	pendingOp byte
	addrBuf   []byte
	writeBuf  []byte

	readBuf []byte
	readIdx int

	// pages[chip][block*pagesPerBlock+page] = full-page bytes.
	pages map[int]map[int][]byte

	// ids[chip] is the 5-byte signature ReadID reports for chip; unset
	// chips read back all-zero, which never matches ExpectedID.
	ids map[int][IDBytes]byte

	status byte

	// busy, when false, makes ReadBusy report "never ready" so a test
	// can exercise waitForBusy's timeout path.
	busy bool
}

func newFakePins(geometry Geometry) *fakePins {
	return &fakePins{
		geometry: geometry,
		pages:    make(map[int]map[int][]byte),
		ids:      make(map[int][IDBytes]byte),
		busy:     true,
	}
}

func (f *fakePins) setID(chip int, id [IDBytes]byte) {
	f.ids[chip] = id
}

func (f *fakePins) pageKey(addr Address) int {
	return int(addr.Block())*f.geometry.PagesPerBlock + int(addr.Page())
}

func (f *fakePins) page(chip int, addr Address) []byte {
	chipPages, ok := f.pages[chip]
	if !ok {
		chipPages = make(map[int][]byte)
		f.pages[chip] = chipPages
	}
	key := f.pageKey(addr)
	p, ok := chipPages[key]
	if !ok {
		p = make([]byte, f.geometry.PageTotalSize())
		for i := range p {
			p[i] = 0xFF
		}
		chipPages[key] = p
	}
	return p
}

func (f *fakePins) setMarker(chip int, addr Address, offset int, value byte) {
	f.page(chip, addr)[offset] = value
}

func (f *fakePins) SetCommandLatch(high bool) { f.cle = high }
func (f *fakePins) SetAddressLatch(high bool) {
	if f.ale && !high {
		f.onAddressLatchDone()
	}
	f.ale = high
}
func (f *fakePins) SetWriteEnable(high bool) {}
func (f *fakePins) SetReadEnable(high bool)  {}
func (f *fakePins) SetWriteProtect(high bool) {}
func (f *fakePins) SetChipEnable(chip int, asserted bool) {
	f.ce[chip] = asserted
	if asserted {
		f.currentChip = chip
		f.addrBuf = nil
	}
}
func (f *fakePins) SetIODirection(output bool) { f.ioDir = output }
func (f *fakePins) ReadBusy() bool             { return f.busy }

func (f *fakePins) WriteIO(value byte) {
	switch {
	case f.cle:
		f.onCommand(value)
	case f.ale:
		f.addrBuf = append(f.addrBuf, value)
	default:
		f.writeBuf = append(f.writeBuf, value)
	}
}

func (f *fakePins) ReadIO() byte {
	if f.readIdx >= len(f.readBuf) {
		return 0
	}
	b := f.readBuf[f.readIdx]
	f.readIdx++
	return b
}

// onAddressLatchDone finalizes id-read, which (unlike read/program/erase)
// has no second command byte -- the address phase ending is the only
// signal that the operation is ready to execute.
func (f *fakePins) onAddressLatchDone() {
	if f.pendingOp == cmdIDRead {
		id := f.ids[f.currentChip]
		f.readBuf = id[:]
		f.readIdx = 0
	}
}

func (f *fakePins) onCommand(cmd byte) {
	switch cmd {
	case cmdReset:
		f.pendingOp = 0
		f.addrBuf = nil
		f.writeBuf = nil

	case cmdIDRead:
		f.pendingOp = cmdIDRead
		f.addrBuf = nil

	case cmdStatusRead:
		f.readBuf = []byte{f.status}
		f.readIdx = 0

	case cmdReadFirst:
		f.pendingOp = cmdReadFirst
		f.addrBuf = nil

	case cmdReadSecond:
		addr := addressFromWire(f.addrBuf)
		page := f.page(f.currentChip, addr)
		col := int(addr.Column())
		f.readBuf = page[col:]
		f.readIdx = 0

	case cmdProgramFirst:
		f.pendingOp = cmdProgramFirst
		f.addrBuf = nil
		f.writeBuf = nil

	case cmdProgramSecond:
		addr := addressFromWire(f.addrBuf)
		page := f.page(f.currentChip, addr)
		col := int(addr.Column())
		copy(page[col:], f.writeBuf)

	case cmdBlockEraseFirst:
		f.pendingOp = cmdBlockEraseFirst
		f.addrBuf = nil

	case cmdBlockEraseSecond:
		addr := blockAddressFromWire(f.addrBuf)
		chipPages := f.pages[f.currentChip]
		for page := 0; page < f.geometry.PagesPerBlock; page++ {
			key := int(addr.Block())*f.geometry.PagesPerBlock + page
			if p, ok := chipPages[key]; ok {
				for i := range p {
					p[i] = 0xFF
				}
			}
		}
	}
}

// addressFromWire rebuilds the Address a real die would decode from the
// little-endian 4-byte form Driver.latchAddress clocked out.
func addressFromWire(wire []byte) Address {
	var raw uint32
	for i := 0; i < 4 && i < len(wire); i++ {
		raw |= uint32(wire[i]) << (8 * i)
	}
	return FromRaw(raw)
}

// blockAddressFromWire mirrors Address.BlockBytes' shift for the 2-byte
// erase-address form.
func blockAddressFromWire(wire []byte) Address {
	var raw uint16
	for i := 0; i < 2 && i < len(wire); i++ {
		raw |= uint16(wire[i]) << (8 * i)
	}
	return FromRaw(uint32(raw) << 16)
}
