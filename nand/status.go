// https://github.com/wipeseals/broccoli-go
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package nand

// StatusFlags decodes the one-byte NAND status register read by the
// 0x70 command:
//
//	bit 0  chip0 fail   (1 = fail)
//	bit 1  chip1 fail   (1 = fail)
//	bit 5  page buffer ready (1 = ready)
//	bit 6  data cache ready  (1 = ready)
//	bit 7  write protect disabled (1 = disabled)
type StatusFlags uint8

const (
	statusChip0Fail           = 1 << 0
	statusChip1Fail           = 1 << 1
	statusPageBufferReady     = 1 << 5
	statusDataCacheReady      = 1 << 6
	statusWriteProtectDisable = 1 << 7
)

// IsFailed reports whether either chip-fail bit is set.
func (s StatusFlags) IsFailed() bool {
	return s&(statusChip0Fail|statusChip1Fail) != 0
}

// IsPageBufferReady reports whether the page buffer ready bit is set.
func (s StatusFlags) IsPageBufferReady() bool {
	return s&statusPageBufferReady != 0
}

// IsDataCacheReady reports whether the data cache ready bit is set.
func (s StatusFlags) IsDataCacheReady() bool {
	return s&statusDataCacheReady != 0
}

// IsWriteProtectDisabled reports whether the write-protect-disable bit is
// set -- note the polarity: the bit reads 1 when write protection is
// *not* asserted.
func (s StatusFlags) IsWriteProtectDisabled() bool {
	return s&statusWriteProtectDisable != 0
}
