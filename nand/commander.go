// https://github.com/wipeseals/broccoli-go
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package nand

import (
	"errors"
	"log"

	"github.com/wipeseals/broccoli-go/storage"
)

// ErrIDReadFailed is returned by Commander.Setup when zero chips
// respond to read_id.
var ErrIDReadFailed = errors.New("nand: no chip responded to id read")

// Commander performs chip discovery: walking the chip-select range,
// resetting and identifying each chip in turn.
type Commander struct {
	Driver   *Driver
	Geometry Geometry

	numChips int
}

// NewCommander constructs a Commander over driver using geometry to
// bound the chip-select scan.
func NewCommander(driver *Driver, geometry Geometry) *Commander {
	return &Commander{Driver: driver, Geometry: geometry}
}

// Setup resets and identifies each chip in turn. The first chip whose
// ID does not match the expected signature ends the populated range;
// it, and every chip after it, is left unidentified. Fails when zero
// chips respond.
func (c *Commander) Setup() (int, error) {
	c.Driver.Setup()
	c.numChips = 0

	for i := 0; i < c.Geometry.MaxChips; i++ {
		c.Driver.Reset(i)
		if !c.Driver.ReadID(i) {
			break
		}
		c.numChips++
	}

	if c.numChips == 0 {
		return 0, ErrIDReadFailed
	}
	return c.numChips, nil
}

// CheckBadBlock reads page 0 of the block at addr and reports whether
// the byte at the configured spare offset carries a non-0xFF factory
// bad-block marker.
func (c *Commander) CheckBadBlock(addr Address) (bool, error) {
	page := make([]byte, c.Geometry.PageTotalSize())
	if err := c.Driver.ReadData(addr, page); err != nil {
		return false, err
	}

	markerOffset := c.Geometry.UsableBytesPerPage + c.Geometry.BadBlockMarkerOffset
	return page[markerOffset] != 0xFF, nil
}

// StorageHandler implements storage.Handler over a Commander, tracking
// the per-(chip,block) state table discovered at setup. Read and Write
// are stubs per the pinned current contract: they succeed without
// touching NAND, returning zeroed data on read and discarding the
// payload on write. A future flash translation layer replaces both.
type StorageHandler struct {
	commander *Commander
	geometry  Geometry

	blockInfos [][]BlockInfo
	stats      BlockStats
	setupDone  bool
}

// NewStorageHandler constructs a StorageHandler over commander, sized
// for geometry.MaxChips by geometry.BlocksPerChip blocks.
func NewStorageHandler(commander *Commander, geometry Geometry) *StorageHandler {
	infos := make([][]BlockInfo, geometry.MaxChips)
	for i := range infos {
		infos[i] = make([]BlockInfo, geometry.BlocksPerChip)
	}
	return &StorageHandler{
		commander:  commander,
		geometry:   geometry,
		blockInfos: infos,
	}
}

// Stats returns the current block-state aggregate.
func (h *StorageHandler) Stats() BlockStats {
	return h.stats
}

// BlockInfo returns the block-info record for (chip, block).
func (h *StorageHandler) BlockInfo(chip, block int) BlockInfo {
	return h.blockInfos[chip][block]
}

func (h *StorageHandler) updateBlockState(chip, block int, state BlockState) {
	h.blockInfos[chip][block].State = state
	h.stats.record(state)
}

// setupAllBlocks runs chip discovery then scans every block of every
// mounted chip for a factory bad-block marker, filling the block-info
// table. Idempotent after the first successful run.
func (h *StorageHandler) setupAllBlocks() error {
	if h.setupDone {
		return nil
	}

	numChips, err := h.commander.Setup()
	if err != nil {
		return err
	}

	for chip := 0; chip < numChips; chip++ {
		for block := 0; block < h.geometry.BlocksPerChip; block++ {
			addr := FromBlock(uint32(chip), uint32(block))
			bad, err := h.commander.CheckBadBlock(addr)
			switch {
			case err != nil:
				h.updateBlockState(chip, block, InitialBadByOtherError)
			case bad:
				h.updateBlockState(chip, block, InitialBad)
			default:
				h.updateBlockState(chip, block, Free)
			}
		}
	}

	for chip := numChips; chip < h.geometry.MaxChips; chip++ {
		for block := 0; block < h.geometry.BlocksPerChip; block++ {
			h.updateBlockState(chip, block, NotMounted)
		}
	}

	h.setupDone = true
	return nil
}

// Request implements storage.Handler.
func (h *StorageHandler) Request(req storage.Request) storage.Response {
	switch req.MessageID {
	case storage.Setup:
		if err := h.setupAllBlocks(); err != nil {
			log.Printf("nand: setup failed, %v", err)
			return storage.ReportSetupFailed(req.ReqTag, storage.MetaNandError)
		}
		return storage.ReportSetupSuccess(req.ReqTag, h.geometry.NumLogicalBlocks())

	case storage.Echo:
		return storage.EchoResponse(req.ReqTag)

	case storage.Read:
		return storage.ReadResponse(req.ReqTag, [storage.BlockSize]byte{})

	case storage.Write:
		return storage.WriteResponse(req.ReqTag)

	case storage.Flush:
		return storage.FlushResponse(req.ReqTag)

	default:
		return storage.Response{
			MessageID: req.MessageID,
			ReqTag:    req.ReqTag,
			MetaData:  storage.MetaData{Kind: storage.MetaInvalidRequest},
		}
	}
}
