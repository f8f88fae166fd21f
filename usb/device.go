// https://github.com/wipeseals/broccoli-go
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package usb

import "github.com/wipeseals/broccoli-go/storage"

// Config collects the values cmd/broccoli supplies at startup: strings
// for INQUIRY, the advertised capacity, and the endpoint transfer size
// the bulk handler chunks Read10/Write10 payloads into.
type Config struct {
	Vendor   string
	Product  string
	Revision string

	NumBlocks     uint32
	BlockSize     int
	MaxPacketSize int
}

// DefaultConfig mirrors the identification strings and geometry this
// firmware has always advertised.
func DefaultConfig(numBlocks uint32) Config {
	return Config{
		Vendor:        "broccoli",
		Product:       "wipeseals devapp",
		Revision:      "0001",
		NumBlocks:     numBlocks,
		BlockSize:     512,
		MaxPacketSize: 64,
	}
}

func (c Config) identification() Identification {
	var id Identification
	fillASCII(id.Vendor[:], c.Vendor)
	fillASCII(id.Product[:], c.Product)
	fillASCII(id.Revision[:], c.Revision)
	return id
}

// fillASCII copies s into buf and space-pads the remainder, per the
// INQUIRY vendor/product/revision field convention (section 6).
func fillASCII(buf []byte, s string) {
	for i := range buf {
		buf[i] = ' '
	}
	copy(buf, s)
}

// Device ties a Config, a storage bus, and a pair of bulk endpoints
// into a running MSC function: one ControlHandler answering endpoint 0
// class requests, and one BulkHandler driving the bulk pair. Interface
// descriptor fields (MassStorageClass/SCSIClass/BulkOnlyTransportProtocol)
// are the class/subclass/protocol triad a board's USB descriptor table
// points at this function's interface.
type Device struct {
	Config  Config
	Control *ControlHandler
	Bulk    *BulkHandler
}

// NewDevice wires a Device over bulk in/out endpoints and a storage bus.
func NewDevice(cfg Config, in, out Endpoint, bus *storage.Bus) *Device {
	control := NewControlHandler()
	bulk := NewBulkHandler(in, out, bus, control, cfg.NumBlocks, cfg.BlockSize, cfg.MaxPacketSize, cfg.identification())
	return &Device{Config: cfg, Control: control, Bulk: bulk}
}
