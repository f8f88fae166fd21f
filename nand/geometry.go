// https://github.com/wipeseals/broccoli-go
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package nand

// Geometry describes the dimensions of the attached NAND chips. The
// defaults match a TC58NVG0S3HTA00-class die: 1024 blocks per chip, 64
// pages per block, 2048 usable bytes per page plus 128 spare bytes.
type Geometry struct {
	MaxChips      int
	BlocksPerChip int
	PagesPerBlock int

	UsableBytesPerPage int
	SpareBytesPerPage  int

	// ReservedBlocks is withheld from the capacity report for future
	// map/metadata storage.
	ReservedBlocks int

	// BlockSize is the logical block size exposed to the storage
	// request contract.
	BlockSize int

	// BadBlockMarkerOffset is the byte offset within a page, relative
	// to the start of the spare area, checked for a factory bad-block
	// marker. Zero means the first spare byte.
	BadBlockMarkerOffset int
}

// DefaultGeometry returns the geometry used when no board-specific
// configuration overrides it.
func DefaultGeometry() Geometry {
	return Geometry{
		MaxChips:             2,
		BlocksPerChip:        1024,
		PagesPerBlock:        64,
		UsableBytesPerPage:   2048,
		SpareBytesPerPage:    128,
		ReservedBlocks:       100,
		BlockSize:            512,
		BadBlockMarkerOffset: 0,
	}
}

// PageTotalSize is the full page size, usable plus spare.
func (g Geometry) PageTotalSize() int {
	return g.UsableBytesPerPage + g.SpareBytesPerPage
}

// NumLogicalBlocks is the usable capacity reported to Setup, in logical
// blocks: total chip capacity minus the reserved fraction, divided down
// from NAND pages to the logical block size.
func (g Geometry) NumLogicalBlocks() int {
	usableBlocksPerChip := g.BlocksPerChip - g.ReservedBlocks
	return usableBlocksPerChip * g.PagesPerBlock * g.UsableBytesPerPage / g.BlockSize
}
