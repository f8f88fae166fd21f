// https://github.com/wipeseals/broccoli-go
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package ramdisk implements the storage request contract over a flat
// in-memory byte array, seeded with a synthetic FAT12 volume so a host
// sees a mounted disk immediately after enumeration.
package ramdisk

import "github.com/wipeseals/broccoli-go/storage"

// Handler serves storage.Request/Response from a fixed-size byte array
// allocated once at construction.
type Handler struct {
	blockSize int
	data      []byte
}

// New allocates a Handler with numBlocks logical blocks of blockSize
// bytes and seeds LBAs 0-3 with a FAT12 volume.
func New(numBlocks, blockSize int) *Handler {
	h := &Handler{
		blockSize: blockSize,
		data:      make([]byte, numBlocks*blockSize),
	}
	h.seedFAT12()
	return h
}

func (h *Handler) setData(offset int, b []byte) {
	copy(h.data[offset:offset+len(b)], b)
}

// seedFAT12 lays down the same MBR, FAT table, root directory, and
// README.TXT payload as a fixed reference USB mass-storage example
// disk: one volume entry named "BroccoliMSC" and one readme file.
func (h *Handler) seedFAT12() {
	const readme = "Hello, broccoli!\n"

	// LBA0: MBR / BIOS parameter block.
	h.setData(0, []byte{
		0xEB, 0x3C, 0x90, 0x4D, 0x53, 0x44, 0x4F, 0x53, 0x35, 0x2E, 0x30, 0x00, 0x02, 0x01, 0x01, 0x00,
		0x01, 0x10, 0x00, 0x10, 0x00, 0xF8, 0x01, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x80, 0x00, 0x29, 0x34, 0x12, 0x00, 0x00, 'B', 'r', 'o', 'c', 'c',
		'o', 'l', 'i', 'M', 'S', 'C', 0x46, 0x41, 0x54, 0x31, 0x32, 0x20, 0x20, 0x20, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	})
	// Boot sector signature in the last two bytes of the 512-byte sector.
	h.setData(510, []byte{0x55, 0xaa})

	// LBA1: FAT12 table.
	h.setData(512, []byte{0xF8, 0xFF, 0xFF, 0x00, 0x00})

	// LBA2: root directory -- volume label entry, then the readme
	// file's entry.
	flen := byte(len(readme) - 1)
	h.setData(1024, []byte{
		'B', 'r', 'o', 'c', 'c', 'o', 'l', 'i', 'M', 'S', 'C', 0x08, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x4F, 0x6D, 0x65, 0x43, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		'R', 'E', 'A', 'D', 'M', 'E', ' ', ' ', 'T', 'X', 'T', 0x20, 0x00, 0xC6, 0x52, 0x6D,
		'e', 'C', 'e', 'C', 0x00, 0x00, 0x88, 0x6D, 0x65, 0x43, 0x02, 0x00, flen, 0x00, 0x00, 0x00,
	})

	// LBA3: readme file contents.
	h.setData(1536, []byte(readme))
}

// Request implements storage.Handler.
func (h *Handler) Request(req storage.Request) storage.Response {
	switch req.MessageID {
	case storage.Setup:
		return storage.ReportSetupSuccess(req.ReqTag, len(h.data)/h.blockSize)

	case storage.Echo:
		return storage.EchoResponse(req.ReqTag)

	case storage.Read:
		start := req.LBA * h.blockSize
		end := start + h.blockSize
		if end > len(h.data) {
			return storage.OutOfRange(storage.Read, req.ReqTag, req.LBA)
		}
		var data [storage.BlockSize]byte
		copy(data[:h.blockSize], h.data[start:end])
		return storage.ReadResponse(req.ReqTag, data)

	case storage.Write:
		start := req.LBA * h.blockSize
		end := start + h.blockSize
		if end > len(h.data) {
			return storage.OutOfRange(storage.Write, req.ReqTag, req.LBA)
		}
		copy(h.data[start:end], req.Data[:h.blockSize])
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
