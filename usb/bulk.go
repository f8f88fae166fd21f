// https://github.com/wipeseals/broccoli-go
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package usb

import (
	"context"
	"errors"
	"log"

	"github.com/wipeseals/broccoli-go/storage"
)

// Identification is the vendor/product/revision string set returned by
// INQUIRY, configured once at startup.
type Identification struct {
	Vendor   [8]byte
	Product  [16]byte
	Revision [4]byte
}

// BulkHandler drives the Bulk-Only Transport state machine: read a CBW,
// dispatch its SCSI opcode, run the data phase the opcode calls for,
// then emit a CSW, forever. It owns the sense data for the LUN and the
// request/response bus to the storage backend.
type BulkHandler struct {
	In  Endpoint
	Out Endpoint

	Bus     *storage.Bus
	Control *ControlHandler

	NumBlocks     uint32
	BlockSize     int
	MaxPacketSize int
	ID            Identification

	sense SenseData
}

// NewBulkHandler constructs a BulkHandler. maxPacketSize bounds how
// bulk-IN/OUT transfers are chunked during Read10/Write10.
func NewBulkHandler(in, out Endpoint, bus *storage.Bus, control *ControlHandler, numBlocks uint32, blockSize, maxPacketSize int, id Identification) *BulkHandler {
	return &BulkHandler{
		In:            in,
		Out:           out,
		Bus:           bus,
		Control:       control,
		NumBlocks:     numBlocks,
		BlockSize:     blockSize,
		MaxPacketSize: maxPacketSize,
		ID:            id,
		sense:         NoSenseData,
	}
}

// Run drives the state machine until ctx is cancelled. It never returns
// before then except on an unrecoverable endpoint closure.
func (h *BulkHandler) Run(ctx context.Context) {
	h.Out.WaitEnabled()
	h.In.WaitEnabled()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := h.readCBW(ctx); err != nil {
			if err == ErrEndpointClosed {
				return
			}
			// nothing to do but retry: no tag was ever established.
			continue
		}
	}
}

// readCBW reads one CBW, validates it, and if valid dispatches and
// answers it. An invalid CBW stalls until Mass Storage Reset is
// observed, matching the "CBW invalid -> PhaseError -> stall until
// reset" transition.
func (h *BulkHandler) readCBW(ctx context.Context) error {
	buf, err := h.Out.Read()
	if err != nil {
		return err
	}

	// A reset posted while we sat idle between CBWs takes effect before
	// the command that just arrived is considered.
	select {
	case <-h.Control.Reset:
		h.sense = NoSenseData
	default:
	}

	cbw, err := ParseCBW(buf)
	if err != nil {
		// An undecodable read reports InvalidCommand; a decoded wrapper
		// with a bad signature or command length reports InParameters.
		code := IllegalRequestInParameters
		if errors.Is(err, ErrShortCBW) {
			code = IllegalRequestInvalidCommand
		}
		h.sense = SenseData{SenseKey: IllegalRequest, Code: code}
		h.waitForReset(ctx)
		return nil
	}

	h.dispatch(ctx, cbw)
	return nil
}

// waitForReset blocks until Mass Storage Reset arrives or ctx ends,
// then clears sense data.
func (h *BulkHandler) waitForReset(ctx context.Context) {
	select {
	case <-h.Control.Reset:
	case <-ctx.Done():
		return
	}
	h.sense = NoSenseData
}

// dispatch runs the opcode carried by cbw and emits its CSW. Any
// endpoint I/O failure mid-transfer is reported as a phase error for
// this tag and the handler returns to ReadCBW.
func (h *BulkHandler) dispatch(ctx context.Context, cbw CBW) {
	opcode := cbw.CommandBlock[0]
	expected := cbw.DataTransferLength

	switch opcode {
	case OpTestUnitReady, OpPreventAllowMediumRemoval:
		h.writeCSW(cbw.Tag, 0, CSWStatusPassed)

	case OpRequestSense:
		resp := h.sense
		h.sense = NoSenseData
		h.dataInThenCSW(cbw.Tag, expected, resp.Bytes())

	case OpInquiry:
		data := InquiryData{Vendor: h.ID.Vendor, Product: h.ID.Product, Revision: h.ID.Revision}.Bytes()
		h.dataInThenCSW(cbw.Tag, expected, data)

	case OpModeSense6:
		h.dataInThenCSW(cbw.Tag, expected, ModeSense6Bytes())

	case OpReadFormatCapacities:
		h.dataInThenCSW(cbw.Tag, expected, ReadFormatCapacitiesBytes(h.NumBlocks, uint32(h.BlockSize)))

	case OpReadCapacity:
		h.dataInThenCSW(cbw.Tag, expected, ReadCapacityBytes(h.NumBlocks-1, uint32(h.BlockSize)))

	case OpRead10:
		h.read10(ctx, cbw)

	case OpWrite10:
		h.write10(ctx, cbw)

	default:
		h.sense = SenseData{SenseKey: IllegalRequest, Code: IllegalRequestInvalidCommand}
		h.writeCSW(cbw.Tag, expected, CSWStatusFailed)
	}
}

// dataInThenCSW streams data onto bulk-IN, then emits a CSW whose
// residue is expected minus however much was actually sent.
func (h *BulkHandler) dataInThenCSW(tag uint32, expected uint32, data []byte) {
	sent, err := h.writeDataIn(data)
	if err != nil {
		log.Printf("usb: bulk-IN write failed, %v", err)
		h.writeCSW(tag, residue(expected, uint32(sent)), CSWStatusPhaseError)
		return
	}
	h.writeCSW(tag, residue(expected, uint32(sent)), CSWStatusPassed)
}

// writeDataIn chunks data into MaxPacketSize packets and writes them to
// the IN endpoint, returning the number of bytes actually sent before
// any error.
func (h *BulkHandler) writeDataIn(data []byte) (int, error) {
	sent := 0
	for sent < len(data) {
		end := sent + h.MaxPacketSize
		if end > len(data) {
			end = len(data)
		}
		if err := h.In.Write(data[sent:end]); err != nil {
			return sent, err
		}
		sent = end
	}
	return sent, nil
}

// read10 issues one storage Read request per block in the transfer and
// streams each response onto bulk-IN.
func (h *BulkHandler) read10(ctx context.Context, cbw CBW) {
	cmd := ParseReadWrite10(cbw.CommandBlock)
	expected := cbw.DataTransferLength

	var sent uint32
	for block := uint32(0); block < uint32(cmd.TransferBlocks); block++ {
		tag := storage.ReqTag{CBWTag: cbw.Tag, SeqNum: block}
		req := storage.Request{
			MessageID: storage.Read,
			ReqTag:    tag,
			LBA:       int(cmd.LBA + block),
		}

		if err := h.Bus.Send(ctx, req); err != nil {
			h.writeCSW(cbw.Tag, residue(expected, sent), CSWStatusPhaseError)
			return
		}
		resp, err := h.Bus.Recv(ctx)
		if err != nil {
			h.writeCSW(cbw.Tag, residue(expected, sent), CSWStatusPhaseError)
			return
		}
		if resp.ReqTag != tag || resp.MessageID != storage.Read {
			h.sense = SenseData{SenseKey: HardwareError, Code: HardwareErrorEmbeddedSoftware}
			h.writeCSW(cbw.Tag, residue(expected, sent), CSWStatusFailed)
			return
		}
		if resp.MetaData.Kind == storage.MetaOutOfRange {
			// OutOfRange maps to HardwareError/EmbeddedSoftware, not IllegalRequest/LBA out of range.
			h.sense = SenseData{SenseKey: HardwareError, Code: HardwareErrorEmbeddedSoftware}
			h.writeCSW(cbw.Tag, residue(expected, sent), CSWStatusFailed)
			return
		}

		n, err := h.writeDataIn(resp.Data[:h.BlockSize])
		sent += uint32(n)
		if err != nil {
			log.Printf("usb: bulk-IN write failed, %v", err)
			h.writeCSW(cbw.Tag, residue(expected, sent), CSWStatusPhaseError)
			return
		}
	}

	h.writeCSW(cbw.Tag, residue(expected, sent), CSWStatusPassed)
}

// write10 receives one block of data from bulk-OUT per block in the
// transfer and issues a storage Write request for each.
func (h *BulkHandler) write10(ctx context.Context, cbw CBW) {
	cmd := ParseReadWrite10(cbw.CommandBlock)
	expected := cbw.DataTransferLength

	var received uint32
	for block := uint32(0); block < uint32(cmd.TransferBlocks); block++ {
		data, n, err := h.readDataOut(h.BlockSize)
		received += uint32(n)
		if err != nil {
			log.Printf("usb: bulk-OUT read failed, %v", err)
			h.writeCSW(cbw.Tag, residue(expected, received), CSWStatusPhaseError)
			return
		}

		tag := storage.ReqTag{CBWTag: cbw.Tag, SeqNum: block}
		req := storage.Request{
			MessageID: storage.Write,
			ReqTag:    tag,
			LBA:       int(cmd.LBA + block),
		}
		copy(req.Data[:h.BlockSize], data)

		if err := h.Bus.Send(ctx, req); err != nil {
			h.writeCSW(cbw.Tag, residue(expected, received), CSWStatusPhaseError)
			return
		}
		resp, err := h.Bus.Recv(ctx)
		if err != nil {
			h.writeCSW(cbw.Tag, residue(expected, received), CSWStatusPhaseError)
			return
		}
		if resp.ReqTag != tag || resp.MessageID != storage.Write {
			h.sense = SenseData{SenseKey: HardwareError, Code: HardwareErrorEmbeddedSoftware}
			h.writeCSW(cbw.Tag, residue(expected, received), CSWStatusFailed)
			return
		}
		if resp.MetaData.Kind == storage.MetaOutOfRange {
			// Same OutOfRange mapping as read10.
			h.sense = SenseData{SenseKey: HardwareError, Code: HardwareErrorEmbeddedSoftware}
			h.writeCSW(cbw.Tag, residue(expected, received), CSWStatusFailed)
			return
		}
	}

	h.writeCSW(cbw.Tag, residue(expected, received), CSWStatusPassed)
}

// readDataOut accumulates packets from the OUT endpoint until n bytes
// have been read, returning however much it got before any error.
func (h *BulkHandler) readDataOut(n int) ([]byte, int, error) {
	buf := make([]byte, 0, n)
	for len(buf) < n {
		p, err := h.Out.Read()
		if err != nil {
			return buf, len(buf), err
		}
		buf = append(buf, p...)
	}
	return buf[:n], n, nil
}

// writeCSW emits a Command Status Wrapper for tag.
func (h *BulkHandler) writeCSW(tag uint32, residue uint32, status uint8) {
	csw := NewCSW(tag, residue, status)
	if err := h.In.Write(csw.Bytes()); err != nil {
		log.Printf("usb: CSW write failed, %v", err)
	}
}

// residue computes data_residue = expected - transferred, never
// negative.
func residue(expected, transferred uint32) uint32 {
	if transferred >= expected {
		return 0
	}
	return expected - transferred
}
