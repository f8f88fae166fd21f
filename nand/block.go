// https://github.com/wipeseals/broccoli-go
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package nand

// BlockState is the lifecycle state of a single (chip, block) pair.
// Every block mounted on an alive chip transitions out of Unknown during
// setup and never re-enters it.
type BlockState int

const (
	// Unknown is the state of every block before setup runs.
	Unknown BlockState = iota
	// Free is a block confirmed good and not yet allocated.
	Free
	// InitialBad is a block carrying a factory bad-block marker.
	InitialBad
	// InitialBadByOtherError is a block that failed the scan itself
	// (a read error on page 0), distinct from a factory marker.
	InitialBadByOtherError
	// NotMounted is a block on a chip beyond the populated range
	// discovered at setup.
	NotMounted
	// Allocated is a block handed out by a future flash translation
	// layer. Nothing in this package currently produces this state.
	Allocated
)

// String renders the state for logging.
func (s BlockState) String() string {
	switch s {
	case Unknown:
		return "Unknown"
	case Free:
		return "Free"
	case InitialBad:
		return "InitialBad"
	case InitialBadByOtherError:
		return "InitialBadByOtherError"
	case NotMounted:
		return "NotMounted"
	case Allocated:
		return "Allocated"
	default:
		return "Invalid"
	}
}

// BlockInfo is the per-(chip, block) record in the block-info table.
type BlockInfo struct {
	State BlockState

	// EraseCount, ReadCount, and ProgramCount exist for a future wear
	// leveling implementation; nothing currently increments them.
	EraseCount   uint32
	ReadCount    uint32
	ProgramCount uint32
}

// BlockStats is a per-state count aggregate, updated as blocks transition
// out of Unknown during setup.
type BlockStats struct {
	Free                   uint32
	InitialBad             uint32
	InitialBadByOtherError uint32
	NotMounted             uint32
	Allocated              uint32
}

// record counts a transition into state.
func (s *BlockStats) record(state BlockState) {
	switch state {
	case Free:
		s.Free++
	case InitialBad:
		s.InitialBad++
	case InitialBadByOtherError:
		s.InitialBadByOtherError++
	case NotMounted:
		s.NotMounted++
	case Allocated:
		s.Allocated++
	}
}

// Total returns the number of blocks counted across all states.
func (s BlockStats) Total() uint32 {
	return s.Free + s.InitialBad + s.InitialBadByOtherError + s.NotMounted + s.Allocated
}
