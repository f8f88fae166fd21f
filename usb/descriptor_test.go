// https://github.com/wipeseals/broccoli-go
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package usb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCBWBytesParseRoundtrip(t *testing.T) {
	cbw := CBW{
		Signature:          CBWSignature,
		Tag:                0xdeadbeef,
		DataTransferLength: 512,
		Flags:              0x80,
		LUN:                0,
		Length:             10,
	}
	cbw.CommandBlock[0] = OpRead10

	parsed, err := ParseCBW(cbw.Bytes())
	require.NoError(t, err)
	require.Equal(t, cbw, parsed)
	require.True(t, parsed.DataIn())
}

func TestParseCBWRejectsBadSignature(t *testing.T) {
	cbw := CBW{Signature: 0x12345678, Length: 6}
	_, err := ParseCBW(cbw.Bytes())
	require.ErrorIs(t, err, ErrInvalidCBW)
}

func TestParseCBWRejectsBadCommandLength(t *testing.T) {
	for _, length := range []uint8{0, 17, 255} {
		cbw := CBW{Signature: CBWSignature, Length: length}
		_, err := ParseCBW(cbw.Bytes())
		require.ErrorIs(t, err, ErrInvalidCBW, "length %d should be rejected", length)
	}
}

func TestParseCBWRejectsShortBuffer(t *testing.T) {
	_, err := ParseCBW(make([]byte, CBWLength-1))
	require.ErrorIs(t, err, ErrShortCBW)
}

func TestCSWBytesLayout(t *testing.T) {
	csw := NewCSW(0xcafebabe, 128, CSWStatusFailed)
	buf := csw.Bytes()

	require.Len(t, buf, 13)
	require.Equal(t, byte(CSWStatusFailed), buf[12])
}
