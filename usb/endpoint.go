// https://github.com/wipeseals/broccoli-go
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package usb

import (
	"errors"
	"sync"
)

// ErrEndpointClosed is returned by Read/Write once the endpoint has gone
// away (e.g. on a bus reset); FakeEndpoint returns it after Close.
var ErrEndpointClosed = errors.New("usb: endpoint closed")

// Endpoint is the logical contract the bulk handler needs from a bulk
// endpoint pair: wait for the host to enable it, then exchange packets.
// A board wires a real hardware queue head behind this interface; tests
// wire a FakeEndpoint.
type Endpoint interface {
	// WaitEnabled blocks until the host has configured the endpoint.
	WaitEnabled()
	// Read blocks for one host-to-device packet.
	Read() ([]byte, error)
	// Write sends one device-to-host packet.
	Write(p []byte) error
}

// FakeEndpoint is an in-memory Endpoint backed by channels, used by
// tests to drive the bulk handler state machine without real hardware.
type FakeEndpoint struct {
	enabled chan struct{}
	once    sync.Once

	in  chan []byte
	out chan []byte

	mu     sync.Mutex
	closed bool
}

// NewFakeEndpoint constructs a ready-to-enable FakeEndpoint.
func NewFakeEndpoint() *FakeEndpoint {
	return &FakeEndpoint{
		enabled: make(chan struct{}),
		in:      make(chan []byte, 8),
		out:     make(chan []byte, 8),
	}
}

// Enable unblocks any pending WaitEnabled call. Safe to call more than
// once.
func (f *FakeEndpoint) Enable() {
	f.once.Do(func() { close(f.enabled) })
}

// Close marks the endpoint closed; later Read/Write calls return
// ErrEndpointClosed. A Read already blocked waiting for a packet is not
// woken by Close: it returns ErrEndpointClosed once the next packet is
// pushed.
func (f *FakeEndpoint) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *FakeEndpoint) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// WaitEnabled implements Endpoint.
func (f *FakeEndpoint) WaitEnabled() {
	<-f.enabled
}

// Read implements Endpoint, returning the next packet a test enqueued
// with PushHostPacket.
func (f *FakeEndpoint) Read() ([]byte, error) {
	p, ok := <-f.out
	if !ok || f.isClosed() {
		return nil, ErrEndpointClosed
	}
	return p, nil
}

// Write implements Endpoint, delivering the packet to a test reading
// from PopDevicePacket.
func (f *FakeEndpoint) Write(p []byte) error {
	if f.isClosed() {
		return ErrEndpointClosed
	}
	cp := make([]byte, len(p))
	copy(cp, p)
	f.in <- cp
	return nil
}

// PushHostPacket enqueues a host-to-device packet for the next Read.
func (f *FakeEndpoint) PushHostPacket(p []byte) {
	f.out <- p
}

// PopDevicePacket dequeues the next device-to-host packet written by
// the handler under test.
func (f *FakeEndpoint) PopDevicePacket() []byte {
	return <-f.in
}
