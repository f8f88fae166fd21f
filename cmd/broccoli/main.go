// https://github.com/wipeseals/broccoli-go
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Command broccoli wires the two cooperative cores of the firmware
// together: a storage core running the dispatcher loop over a backend
// (the debug RAM disk here; a board package substitutes the NAND
// storage handler once its pins are wired), and a USB core running the
// Mass Storage BOT engine against it. On real hardware the two cores
// are separate CPUs; here they are separate goroutines bridged only by
// the storage bus -- no shared mutable memory.
package main

import (
	"context"
	"fmt"
	"io/ioutil"
	"log"
	"os"

	"github.com/wipeseals/broccoli-go/ramdisk"
	"github.com/wipeseals/broccoli-go/storage"
	"github.com/wipeseals/broccoli-go/usb"
)

const banner = "broccoli: USB Mass Storage NAND firmware core"
const verbose = true

func init() {
	log.SetFlags(0)
	if verbose {
		log.SetOutput(os.Stdout)
	} else {
		log.SetOutput(ioutil.Discard)
	}
}

// numRamdiskBlocks is the debug RAM disk capacity, small enough to fit
// comfortably in a microcontroller's SRAM while still holding the FAT12
// seed volume section 4.C describes.
const numRamdiskBlocks = 64

func main() {
	fmt.Println(banner)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := storage.NewBus(storage.DefaultQueueDepth)
	backend := ramdisk.New(numRamdiskBlocks, storage.BlockSize)

	// Core 1: storage dispatcher loop. Owns the backend exclusively;
	// nothing else ever touches it.
	go bus.Run(ctx, backend)

	numBlocks := setup(ctx, bus)

	in := usb.NewFakeEndpoint()
	out := usb.NewFakeEndpoint()
	in.Enable()
	out.Enable()

	cfg := usb.DefaultConfig(numBlocks)
	device := usb.NewDevice(cfg, in, out, bus)

	log.Printf("usb: MSC function ready, %d blocks of %d bytes", cfg.NumBlocks, cfg.BlockSize)

	// Core 0: USB BOT engine. Owns the bulk endpoint pair exclusively;
	// the only cross-core traffic is the storage bus above.
	device.Bulk.Run(ctx)
}

// setup issues the storage protocol's Setup request and blocks for its
// response, the handshake every backend performs once before serving
// Read/Write traffic.
func setup(ctx context.Context, bus *storage.Bus) uint32 {
	req := storage.Request{MessageID: storage.Setup, ReqTag: storage.ReqTag{CBWTag: 0, SeqNum: 0}}
	if err := bus.Send(ctx, req); err != nil {
		log.Fatalf("storage: setup request failed: %v", err)
	}

	resp, err := bus.Recv(ctx)
	if err != nil {
		log.Fatalf("storage: setup response failed: %v", err)
	}
	if resp.MetaData.Kind != storage.MetaReportSetupSuccess {
		log.Fatalf("storage: setup failed: %s", resp.MetaData.Cause)
	}

	log.Printf("storage: setup reported %d blocks", resp.MetaData.NumBlocks)
	return uint32(resp.MetaData.NumBlocks)
}
