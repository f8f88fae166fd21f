// https://github.com/wipeseals/broccoli-go
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package usb

import "errors"

// ErrUnsupportedRequest is returned for any class request on the MSC
// interface other than Get Max LUN and Mass Storage Reset.
var ErrUnsupportedRequest = errors.New("usb: unsupported MSC class request")

// SetupRequest is the subset of a USB control transfer's setup packet
// the MSC class requests care about.
type SetupRequest struct {
	RequestType uint8
	Request     uint8
	Value       uint16
	Index       uint16
	Length      uint16
}

// ControlHandler implements the MSC class-specific control requests on
// endpoint 0. Mass Storage Reset is forwarded to the bulk handler over
// a dedicated one-slot channel rather than handled here directly, since
// only the bulk handler's goroutine may safely touch its own state.
type ControlHandler struct {
	Reset chan struct{}
}

// NewControlHandler constructs a ControlHandler with its reset channel
// ready.
func NewControlHandler() *ControlHandler {
	return &ControlHandler{Reset: make(chan struct{}, 1)}
}

// Handle dispatches one control setup packet. It returns the response
// payload for an IN request, or nil for an OUT request with no data
// stage. Any request this interface does not recognize is rejected.
func (c *ControlHandler) Handle(req SetupRequest) ([]byte, error) {
	switch req.Request {
	case GetMaxLUN:
		return []byte{0x00}, nil

	case BulkOnlyMassStorageReset:
		select {
		case c.Reset <- struct{}{}:
		default:
			// a reset is already pending; the bulk handler has not
			// yet observed it, so coalescing is correct.
		}
		return nil, nil

	default:
		return nil, ErrUnsupportedRequest
	}
}
