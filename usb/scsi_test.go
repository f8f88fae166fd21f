// https://github.com/wipeseals/broccoli-go
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package usb

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSenseDataBytesEncodesKeyAndCode(t *testing.T) {
	d := SenseData{SenseKey: IllegalRequest, Code: IllegalRequestInvalidCommand}
	buf := d.Bytes()

	require.Len(t, buf, RequestSenseDataSize)
	require.Equal(t, byte(IllegalRequest), buf[2]&0x0f)
	require.Equal(t, IllegalRequestInvalidCommand.ASC, buf[12])
	require.Equal(t, IllegalRequestInvalidCommand.ASCQ, buf[13])
}

func TestNoSenseDataIsAllZeroSenseKey(t *testing.T) {
	buf := NoSenseData.Bytes()
	require.Equal(t, byte(NoSense), buf[2]&0x0f)
	require.Equal(t, byte(0), buf[12])
	require.Equal(t, byte(0), buf[13])
}

func TestInquiryDataBytesLayout(t *testing.T) {
	d := InquiryData{}
	copy(d.Vendor[:], "broccoli")
	copy(d.Product[:], "wipeseals devapp")
	copy(d.Revision[:], "0001")

	buf := d.Bytes()
	require.Len(t, buf, InquiryDataSize)
	require.Equal(t, byte(0x00), buf[0])
	require.Equal(t, byte(0x80), buf[1]&0x80)
	require.Equal(t, byte(0x04), buf[2])
	require.Equal(t, "broccoli", string(buf[8:16]))
	require.Equal(t, "wipeseals devapp", string(buf[16:32]))
	require.Equal(t, "0001", string(buf[32:36]))
}

func TestReadCapacityBytes(t *testing.T) {
	buf := ReadCapacityBytes(999, 512)
	require.Len(t, buf, ReadCapacityDataSize)
	require.Equal(t, uint32(999), binary.BigEndian.Uint32(buf[0:4]))
	require.Equal(t, uint32(512), binary.BigEndian.Uint32(buf[4:8]))
}

func TestReadFormatCapacitiesBytes(t *testing.T) {
	buf := ReadFormatCapacitiesBytes(1000, 512)
	require.Len(t, buf, ReadFormatCapacitiesDataSize)
	require.Equal(t, uint32(1), binary.BigEndian.Uint32(buf[0:4]))
	require.Equal(t, uint32(1000), binary.BigEndian.Uint32(buf[4:8]))
	require.Equal(t, byte(0x02), buf[8])
}

func TestModeSense6Bytes(t *testing.T) {
	require.Equal(t, []byte{0x03, 0x00, 0x00, 0x00}, ModeSense6Bytes())
}

func TestParseReadWrite10(t *testing.T) {
	var cb [16]byte
	cb[0] = OpRead10
	binary.BigEndian.PutUint32(cb[2:6], 0xAABBCCDD)
	binary.BigEndian.PutUint16(cb[7:9], 7)

	cmd := ParseReadWrite10(cb)
	require.Equal(t, uint32(0xAABBCCDD), cmd.LBA)
	require.Equal(t, uint16(7), cmd.TransferBlocks)
}
