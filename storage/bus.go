// https://github.com/wipeseals/broccoli-go
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package storage

import "context"

// Bus is a pair of bounded, multi-producer single-consumer channels
// connecting the USB bulk handler (on one core) to a storage Handler
// (on the other). No block of memory is shared between producer and
// consumer; every exchange is a message copy.
type Bus struct {
	requests  chan Request
	responses chan Response
}

// DefaultQueueDepth is used when a caller does not size the bus
// explicitly. It comfortably covers one in-flight Read10/Write10
// transfer's worth of per-block sub-requests for typical transfer
// lengths.
const DefaultQueueDepth = 32

// NewBus creates a Bus with the given channel depth for both the
// request and response channels.
func NewBus(depth int) *Bus {
	if depth <= 0 {
		depth = DefaultQueueDepth
	}
	return &Bus{
		requests:  make(chan Request, depth),
		responses: make(chan Response, depth),
	}
}

// Send enqueues req for the dispatcher, blocking if the queue is full
// or returning early if ctx is done.
func (b *Bus) Send(ctx context.Context, req Request) error {
	select {
	case b.requests <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recv waits for the next Response, blocking if none is queued or
// returning early if ctx is done.
func (b *Bus) Recv(ctx context.Context) (Response, error) {
	select {
	case resp := <-b.responses:
		return resp, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

// Run dispatches requests to handler until ctx is cancelled. Every
// request is processed to completion before the next is read, and every
// request produces exactly one response: in practice this keeps the
// response stream FIFO even though the protocol does not require it.
func (b *Bus) Run(ctx context.Context, handler Handler) {
	for {
		select {
		case req := <-b.requests:
			resp := handler.Request(req)
			select {
			case b.responses <- resp:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
