// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package shuffleio

import "fmt"

// A Kind distinguishes the two physical files that make up a
// committed map output.
type Kind int

const (
	// Data is the file holding the concatenated partition bytes.
	Data Kind = iota
	// Index is the file holding the partition offsets.
	Index
)

func (k Kind) String() string {
	switch k {
	case Data:
		return "data"
	case Index:
		return "index"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// A BlockID names one reduce partition of one map task's output
// within a shuffle.
type BlockID struct {
	Shuffle int
	Map     int
	Reduce  int
}

// noopReduceID is the reduce ID used when naming physical files. All
// partitions of one map output share a single data file; partition
// boundaries live in the index file, not in file names.
const noopReduceID = 0

// DataBlockID returns the block ID under which the data file for map
// mapID's output in shuffle shuffleID is named.
func DataBlockID(shuffleID, mapID int) BlockID {
	return BlockID{Shuffle: shuffleID, Map: mapID, Reduce: noopReduceID}
}

// IndexBlockID returns the block ID under which the index file for
// map mapID's output in shuffle shuffleID is named.
func IndexBlockID(shuffleID, mapID int) BlockID {
	return BlockID{Shuffle: shuffleID, Map: mapID, Reduce: noopReduceID}
}

// String returns the block's logical name.
func (b BlockID) String() string {
	return fmt.Sprintf("shuffle_%d_%d_%d", b.Shuffle, b.Map, b.Reduce)
}

// Name returns the file name under which the block's file of the
// provided kind is stored.
func (b BlockID) Name(kind Kind) string {
	return fmt.Sprintf("%s.%s", b, kind)
}
