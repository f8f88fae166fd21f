// https://github.com/wipeseals/broccoli-go
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package storage

// Handler is the single capability a storage backend exposes. RAM disk
// and NAND storage are both implementors, selected once at startup --
// there is no runtime registry, just whichever Handler cmd/broccoli
// wires into the bus.
type Handler interface {
	Request(req Request) Response
}
