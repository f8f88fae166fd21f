// https://github.com/wipeseals/broccoli-go
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package usb implements the Mass Storage Class Bulk-Only Transport
// engine: CBW/CSW framing, SCSI command dispatch, and sense reporting,
// on top of a logical endpoint abstraction a board wires to real
// hardware.
package usb

import (
	"encoding/binary"
	"errors"
)

// Mass Storage constants, USB Mass Storage Class 1.0.
const (
	MassStorageClass          = 0x08
	BulkOnlyTransportProtocol = 0x50
	SCSIClass                 = 0x06

	CBWLength     = 31
	CBWCommandMax = 16

	CBWSignature = 0x43425355
	CSWSignature = 0x53425355

	CSWStatusPassed     = 0x00
	CSWStatusFailed     = 0x01
	CSWStatusPhaseError = 0x02

	BulkOnlyMassStorageReset = 0xff
	GetMaxLUN                = 0xfe
)

// ErrShortCBW is returned by ParseCBW when the buffer is too short to
// decode a wrapper at all. ErrInvalidCBW means a decodable wrapper
// failed validation: bad signature, or a command length of zero or
// over 16. The two map to different sense codes.
var (
	ErrShortCBW   = errors.New("usb: short CBW")
	ErrInvalidCBW = errors.New("usb: invalid CBW")
)

// CBW is the Command Block Wrapper, USB Mass Storage Class 1.0 section
// 5.1: 31 bytes on the wire, little-endian.
type CBW struct {
	Signature          uint32
	Tag                uint32
	DataTransferLength uint32
	Flags              uint8
	LUN                uint8
	Length             uint8
	CommandBlock       [16]byte
}

// DataIn reports whether the CBW's direction flag (bit 7) indicates a
// device-to-host transfer.
func (d *CBW) DataIn() bool {
	return d.Flags&0x80 != 0
}

// Bytes serializes the CBW to its 31-byte wire form.
func (d *CBW) Bytes() []byte {
	buf := make([]byte, CBWLength)
	binary.LittleEndian.PutUint32(buf[0:4], d.Signature)
	binary.LittleEndian.PutUint32(buf[4:8], d.Tag)
	binary.LittleEndian.PutUint32(buf[8:12], d.DataTransferLength)
	buf[12] = d.Flags
	buf[13] = d.LUN
	buf[14] = d.Length
	copy(buf[15:31], d.CommandBlock[:])
	return buf
}

// ParseCBW decodes a 31-byte wire buffer into a CBW, validating the
// signature and command length.
func ParseCBW(buf []byte) (CBW, error) {
	var d CBW
	if len(buf) < CBWLength {
		return d, ErrShortCBW
	}

	d.Signature = binary.LittleEndian.Uint32(buf[0:4])
	d.Tag = binary.LittleEndian.Uint32(buf[4:8])
	d.DataTransferLength = binary.LittleEndian.Uint32(buf[8:12])
	d.Flags = buf[12]
	d.LUN = buf[13]
	d.Length = buf[14]
	copy(d.CommandBlock[:], buf[15:31])

	if d.Signature != CBWSignature {
		return d, ErrInvalidCBW
	}
	if d.Length == 0 || d.Length > CBWCommandMax {
		return d, ErrInvalidCBW
	}
	return d, nil
}

// CSW is the Command Status Wrapper, USB Mass Storage Class 1.0 section
// 5.2: 13 bytes on the wire, little-endian.
type CSW struct {
	Signature   uint32
	Tag         uint32
	DataResidue uint32
	Status      uint8
}

// NewCSW builds a CSW for tag with the signature pre-filled.
func NewCSW(tag uint32, residue uint32, status uint8) CSW {
	return CSW{
		Signature:   CSWSignature,
		Tag:         tag,
		DataResidue: residue,
		Status:      status,
	}
}

// Bytes serializes the CSW to its 13-byte wire form.
func (d *CSW) Bytes() []byte {
	buf := make([]byte, 13)
	binary.LittleEndian.PutUint32(buf[0:4], d.Signature)
	binary.LittleEndian.PutUint32(buf[4:8], d.Tag)
	binary.LittleEndian.PutUint32(buf[8:12], d.DataResidue)
	buf[12] = d.Status
	return buf
}
