// https://github.com/wipeseals/broccoli-go
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package usb

import "encoding/binary"

// SCSI opcodes this engine dispatches.
const (
	OpTestUnitReady             = 0x00
	OpRequestSense              = 0x03
	OpInquiry                   = 0x12
	OpModeSense6                = 0x1A
	OpPreventAllowMediumRemoval = 0x1E
	OpReadFormatCapacities      = 0x23
	OpReadCapacity              = 0x25
	OpRead10                    = 0x28
	OpWrite10                   = 0x2A
)

// SenseKey is the top-level SCSI sense classification.
type SenseKey uint8

const (
	NoSense        SenseKey = 0x00
	RecoveredError SenseKey = 0x01
	NotReady       SenseKey = 0x02
	MediumError    SenseKey = 0x03
	HardwareError  SenseKey = 0x04
	IllegalRequest SenseKey = 0x05
	UnitAttention  SenseKey = 0x06
	DataProtect    SenseKey = 0x07
	AbortedCommand SenseKey = 0x0B
)

// AdditionalSenseCode is the (ASC, ASCQ) pair qualifying a SenseKey.
type AdditionalSenseCode struct {
	ASC  byte
	ASCQ byte
}

// Additional sense codes, SCSI Primary Commands tables. Names mirror
// the sense-key family they qualify. Host drivers key off specific
// (ASC, ASCQ) pairs, so the full set is carried even though this engine
// only raises a handful of them itself.
var (
	NoAdditionalSenseInformation = AdditionalSenseCode{0x00, 0x00}

	NotReadyCauseNotReportable                     = AdditionalSenseCode{0x04, 0x00}
	NotReadyInProcessOfBecomingReady               = AdditionalSenseCode{0x04, 0x01}
	NotReadyManualInterventionRequired             = AdditionalSenseCode{0x04, 0x03}
	NotReadyLogicalUnitNotReadyOperationInProgress = AdditionalSenseCode{0x04, 0x07}
	NotReadyLogicalUnitOffline                     = AdditionalSenseCode{0x04, 0x12}
	NotReadyMaintenanceMode                        = AdditionalSenseCode{0x04, 0x81}

	HardwareErrorGeneral              = AdditionalSenseCode{0x40, 0x01}
	HardwareErrorTapeDrive            = AdditionalSenseCode{0x40, 0x02}
	HardwareErrorCartridgeAccessPort  = AdditionalSenseCode{0x40, 0x03}
	HardwareErrorEmbeddedSoftware     = AdditionalSenseCode{0x44, 0x00}
	HardwareErrorMediaLoadEjectFailed = AdditionalSenseCode{0x53, 0x00}

	IllegalRequestInvalidFieldInCommandInfoUnit = AdditionalSenseCode{0x24, 0x00}
	IllegalRequestParameterLengthError          = AdditionalSenseCode{0x1a, 0x00}
	IllegalRequestInvalidCommand                = AdditionalSenseCode{0x20, 0x00}
	IllegalRequestInvalidElement                = AdditionalSenseCode{0x21, 0x01}
	IllegalRequestInvalidFieldInCDB             = AdditionalSenseCode{0x24, 0x00}
	IllegalRequestLogicalUnitNotSupported       = AdditionalSenseCode{0x25, 0x00}
	IllegalRequestInParameters                  = AdditionalSenseCode{0x26, 0x00}

	AbortedCommandLogicalUnitCommunicationFailure = AdditionalSenseCode{0x08, 0x00}
	AbortedCommandLogicalUnitCommunicationTimeout = AdditionalSenseCode{0x08, 0x01}
	AbortedCommandMechanicalPositioningError      = AdditionalSenseCode{0x15, 0x01}
	AbortedCommandCommandPhaseError               = AdditionalSenseCode{0x4a, 0x00}
	AbortedCommandDataPhaseError                  = AdditionalSenseCode{0x4b, 0x00}
	AbortedCommandCommandOverlapError             = AdditionalSenseCode{0x4e, 0x00}
)

// RequestSenseDataSize is the fixed-format sense response length.
const RequestSenseDataSize = 20

// SenseData is the 20-byte SCSI fixed-format sense response: sense key
// plus additional sense code, populated on the command that fails and
// cleared when REQUEST SENSE reports it or a Mass Storage Reset is
// observed.
type SenseData struct {
	SenseKey SenseKey
	Code     AdditionalSenseCode
}

// NoSenseData is the sense state reported when nothing has failed since
// the last REQUEST SENSE.
var NoSenseData = SenseData{SenseKey: NoSense, Code: NoAdditionalSenseInformation}

// Bytes renders the fixed-format sense response.
func (d SenseData) Bytes() []byte {
	buf := make([]byte, RequestSenseDataSize)
	buf[0] = 0x70 // current errors only, valid bit clear
	buf[2] = byte(d.SenseKey) & 0x0f
	buf[7] = 0x0c // additional sense length
	buf[12] = d.Code.ASC
	buf[13] = d.Code.ASCQ
	return buf
}

// InquiryDataSize is the standard INQUIRY response length.
const InquiryDataSize = 36

// InquiryData is the standard INQUIRY response: device type 0
// (direct-access block device), removable media bit set, SPC-2
// (version 4) compliance.
type InquiryData struct {
	Vendor   [8]byte
	Product  [16]byte
	Revision [4]byte
}

// Bytes renders the 36-byte INQUIRY response.
func (d InquiryData) Bytes() []byte {
	buf := make([]byte, InquiryDataSize)
	buf[0] = 0x00 // peripheral qualifier 0, device type 0
	buf[1] = 0x80 // removable media bit (RMB)
	buf[2] = 0x04 // version
	buf[3] = 0x02 // response data format
	buf[4] = 0x1f // additional length
	copy(buf[8:16], d.Vendor[:])
	copy(buf[16:32], d.Product[:])
	copy(buf[32:36], d.Revision[:])
	return buf
}

// ModeSense6DataSize is the minimal MODE SENSE(6) response length this
// engine returns: a header with no mode pages and no block descriptor.
const ModeSense6DataSize = 4

// ModeSense6Bytes renders the 4-byte MODE SENSE(6) header.
func ModeSense6Bytes() []byte {
	return []byte{0x03, 0x00, 0x00, 0x00}
}

// ReadFormatCapacitiesDataSize is the capacity-list response length for
// a single, formatted-media descriptor.
const ReadFormatCapacitiesDataSize = 12

// ReadFormatCapacitiesBytes renders the 12-byte READ FORMAT CAPACITIES
// response: a one-entry capacity list describing formatted media.
func ReadFormatCapacitiesBytes(numBlocks uint32, blockLength uint32) []byte {
	buf := make([]byte, ReadFormatCapacitiesDataSize)
	binary.BigEndian.PutUint32(buf[0:4], 1) // capacity list length = 1 descriptor
	binary.BigEndian.PutUint32(buf[4:8], numBlocks)
	buf[8] = 0x02 // descriptor type: formatted media
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], blockLength)
	copy(buf[9:12], lenBuf[1:4])
	return buf
}

// ReadCapacityDataSize is the READ CAPACITY(10) response length.
const ReadCapacityDataSize = 8

// ReadCapacityBytes renders the 8-byte READ CAPACITY(10) response:
// last LBA and block length, both big-endian.
func ReadCapacityBytes(lastLBA uint32, blockLength uint32) []byte {
	buf := make([]byte, ReadCapacityDataSize)
	binary.BigEndian.PutUint32(buf[0:4], lastLBA)
	binary.BigEndian.PutUint32(buf[4:8], blockLength)
	return buf
}

// ReadWrite10 is the decoded command block layout shared by READ(10) and
// WRITE(10): opcode, flags, 32-bit LBA, group, 16-bit transfer length in
// blocks, control -- all big-endian.
type ReadWrite10 struct {
	LBA            uint32
	TransferBlocks uint16
}

// ParseReadWrite10 decodes a 16-byte CBW command block as a READ(10) or
// WRITE(10) command.
func ParseReadWrite10(cb [16]byte) ReadWrite10 {
	return ReadWrite10{
		LBA:            binary.BigEndian.Uint32(cb[2:6]),
		TransferBlocks: binary.BigEndian.Uint16(cb[7:9]),
	}
}
