// https://github.com/wipeseals/broccoli-go
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package usb

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wipeseals/broccoli-go/ramdisk"
	"github.com/wipeseals/broccoli-go/storage"
)

const testNumBlocks = 16

type bulkFixture struct {
	t       *testing.T
	handler *BulkHandler
	in, out *FakeEndpoint
	bus     *storage.Bus
	cancel  context.CancelFunc
}

func newBulkFixture(t *testing.T) *bulkFixture {
	backend := ramdisk.New(testNumBlocks, storage.BlockSize)
	bus := storage.NewBus(storage.DefaultQueueDepth)

	ctx, cancel := context.WithCancel(context.Background())
	go bus.Run(ctx, backend)

	in := NewFakeEndpoint()
	out := NewFakeEndpoint()
	in.Enable()
	out.Enable()

	control := NewControlHandler()
	id := Identification{}
	copy(id.Vendor[:], "broccoli")
	copy(id.Product[:], "devapp")
	copy(id.Revision[:], "0001")

	h := NewBulkHandler(in, out, bus, control, testNumBlocks, storage.BlockSize, 64, id)

	f := &bulkFixture{t: t, handler: h, in: in, out: out, bus: bus, cancel: cancel}
	go h.Run(ctx)
	return f
}

func (f *bulkFixture) close() { f.cancel() }

func (f *bulkFixture) sendCBW(tag uint32, dataIn bool, expected uint32, commandLength uint8, cb [16]byte) {
	flags := byte(0)
	if dataIn {
		flags = 0x80
	}
	cbw := CBW{
		Signature:          CBWSignature,
		Tag:                tag,
		DataTransferLength: expected,
		Flags:              flags,
		Length:             commandLength,
		CommandBlock:       cb,
	}
	f.out.PushHostPacket(cbw.Bytes())
}

func (f *bulkFixture) recvCSW() CSW {
	f.t.Helper()
	buf := f.in.PopDevicePacket()
	require.Len(f.t, buf, 13)
	return CSW{
		Signature:   binary.LittleEndian.Uint32(buf[0:4]),
		Tag:         binary.LittleEndian.Uint32(buf[4:8]),
		DataResidue: binary.LittleEndian.Uint32(buf[8:12]),
		Status:      buf[12],
	}
}

// recvDataIn drains n bytes of a data-in phase before the CSW that
// follows it.
func (f *bulkFixture) recvDataIn(n int) []byte {
	f.t.Helper()
	buf := make([]byte, 0, n)
	for len(buf) < n {
		buf = append(buf, f.in.PopDevicePacket()...)
	}
	return buf
}

func withTimeout(t *testing.T, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		fn()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for bulk handler traffic")
	}
}

func readWrite10CommandBlock(opcode byte, lba uint32, blocks uint16) [16]byte {
	var cb [16]byte
	cb[0] = opcode
	binary.BigEndian.PutUint32(cb[2:6], lba)
	binary.BigEndian.PutUint16(cb[7:9], blocks)
	return cb
}

// TestEnumeration covers scenario 1: Inquiry and ReadCapacity answer with
// the fields section 6 pins down.
func TestEnumeration(t *testing.T) {
	f := newBulkFixture(t)
	defer f.close()

	var inquiryCB [16]byte
	inquiryCB[0] = OpInquiry

	withTimeout(t, func() {
		f.sendCBW(1, true, InquiryDataSize, 6, inquiryCB)
		data := f.recvDataIn(InquiryDataSize)
		require.Equal(t, byte(0x00), data[0])
		require.Equal(t, byte(0x80), data[1]&0x80)

		csw := f.recvCSW()
		require.Equal(t, uint32(1), csw.Tag)
		require.Equal(t, uint8(CSWStatusPassed), csw.Status)
	})

	var capacityCB [16]byte
	capacityCB[0] = OpReadCapacity

	withTimeout(t, func() {
		f.sendCBW(2, true, ReadCapacityDataSize, 10, capacityCB)
		data := f.recvDataIn(ReadCapacityDataSize)
		require.Equal(t, uint32(testNumBlocks-1), binary.BigEndian.Uint32(data[0:4]))
		require.Equal(t, uint32(storage.BlockSize), binary.BigEndian.Uint32(data[4:8]))

		csw := f.recvCSW()
		require.Equal(t, uint8(CSWStatusPassed), csw.Status)
	})
}

// TestFAT12DebugBoot covers scenario 2: LBA 0 is the seeded MBR and LBA 3
// is the README payload.
func TestFAT12DebugBoot(t *testing.T) {
	f := newBulkFixture(t)
	defer f.close()

	withTimeout(t, func() {
		f.sendCBW(1, true, storage.BlockSize, 10, readWrite10CommandBlock(OpRead10, 0, 1))
		data := f.recvDataIn(storage.BlockSize)
		require.Equal(t, byte(0x55), data[510])
		require.Equal(t, byte(0xaa), data[511])
		csw := f.recvCSW()
		require.Equal(t, uint8(CSWStatusPassed), csw.Status)
	})

	withTimeout(t, func() {
		f.sendCBW(2, true, storage.BlockSize, 10, readWrite10CommandBlock(OpRead10, 3, 1))
		data := f.recvDataIn(storage.BlockSize)
		want := "Hello, broccoli!\n"
		require.Equal(t, want, string(data[:len(want)]))
		csw := f.recvCSW()
		require.Equal(t, uint8(CSWStatusPassed), csw.Status)
	})
}

// TestWrite10ThenRead10 covers scenario 3.
func TestWrite10ThenRead10(t *testing.T) {
	f := newBulkFixture(t)
	defer f.close()

	pattern := make([]byte, storage.BlockSize)
	for i := range pattern {
		pattern[i] = byte(i)
	}

	withTimeout(t, func() {
		f.sendCBW(1, false, storage.BlockSize, 10, readWrite10CommandBlock(OpWrite10, 5, 1))
		f.out.PushHostPacket(pattern)
		csw := f.recvCSW()
		require.Equal(t, uint8(CSWStatusPassed), csw.Status)
		require.Equal(t, uint32(0), csw.DataResidue)
	})

	withTimeout(t, func() {
		f.sendCBW(2, true, storage.BlockSize, 10, readWrite10CommandBlock(OpRead10, 5, 1))
		data := f.recvDataIn(storage.BlockSize)
		require.Equal(t, pattern, data)
		csw := f.recvCSW()
		require.Equal(t, uint8(CSWStatusPassed), csw.Status)
	})
}

// TestOutOfRange covers scenario 4: a Read10 past capacity fails the CSW
// and the following RequestSense reports the source's pinned mapping.
func TestOutOfRange(t *testing.T) {
	f := newBulkFixture(t)
	defer f.close()

	withTimeout(t, func() {
		f.sendCBW(1, true, storage.BlockSize, 10, readWrite10CommandBlock(OpRead10, testNumBlocks, 1))
		csw := f.recvCSW()
		require.Equal(t, uint8(CSWStatusFailed), csw.Status)
	})

	var senseCB [16]byte
	senseCB[0] = OpRequestSense

	withTimeout(t, func() {
		f.sendCBW(2, true, RequestSenseDataSize, 6, senseCB)
		data := f.recvDataIn(RequestSenseDataSize)
		require.Equal(t, byte(HardwareError), data[2]&0x0f)
		require.Equal(t, HardwareErrorEmbeddedSoftware.ASC, data[12])
		require.Equal(t, HardwareErrorEmbeddedSoftware.ASCQ, data[13])
		f.recvCSW()
	})
}

// TestUnknownOpcode covers scenario 5.
func TestUnknownOpcode(t *testing.T) {
	f := newBulkFixture(t)
	defer f.close()

	var tur [16]byte
	tur[0] = OpTestUnitReady

	withTimeout(t, func() {
		f.sendCBW(1, false, 0, 6, tur)
		csw := f.recvCSW()
		require.Equal(t, uint8(CSWStatusPassed), csw.Status)
	})

	var unknown [16]byte
	unknown[0] = 0xFF

	withTimeout(t, func() {
		f.sendCBW(2, false, 0, 6, unknown)
		csw := f.recvCSW()
		require.Equal(t, uint8(CSWStatusFailed), csw.Status)
	})

	var senseCB [16]byte
	senseCB[0] = OpRequestSense

	withTimeout(t, func() {
		f.sendCBW(3, true, RequestSenseDataSize, 6, senseCB)
		data := f.recvDataIn(RequestSenseDataSize)
		require.Equal(t, byte(IllegalRequest), data[2]&0x0f)
		require.Equal(t, IllegalRequestInvalidCommand.ASC, data[12])
		f.recvCSW()
	})
}

// TestMassStorageResetClearsSense covers the "reset mid-stream" property
// from section 8: after a reset, latest_sense is None and the next CBW
// parses correctly.
func TestMassStorageResetClearsSense(t *testing.T) {
	f := newBulkFixture(t)
	defer f.close()

	var unknown [16]byte
	unknown[0] = 0xFF

	withTimeout(t, func() {
		f.sendCBW(1, false, 0, 6, unknown)
		csw := f.recvCSW()
		require.Equal(t, uint8(CSWStatusFailed), csw.Status)
	})

	_, err := f.handler.Control.Handle(SetupRequest{Request: BulkOnlyMassStorageReset})
	require.NoError(t, err)
	// The reset is now pending on the control channel; the bulk handler
	// drains it in its between-CBWs check once the next CBW's bytes
	// arrive, before that CBW is dispatched.
	time.Sleep(50 * time.Millisecond)

	var senseCB [16]byte
	senseCB[0] = OpRequestSense

	withTimeout(t, func() {
		f.sendCBW(2, true, RequestSenseDataSize, 6, senseCB)
		data := f.recvDataIn(RequestSenseDataSize)
		require.Equal(t, byte(NoSense), data[2]&0x0f, "sense must be clear after Mass Storage Reset")
		csw := f.recvCSW()
		require.Equal(t, uint32(2), csw.Tag, "the CBW after reset must still be parsed correctly")
	})
}
