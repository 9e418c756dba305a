// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package indexio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

var order = binary.BigEndian

// EntrySize is the encoded size of a single index offset.
const EntrySize = 8

// Size returns the byte size of an index file that describes
// numPartitions partitions.
func Size(numPartitions int) int64 {
	return int64(numPartitions+1) * EntrySize
}

// Offsets converts per-partition byte lengths into the cumulative
// offsets stored in an index file. The returned slice has one more
// entry than lengths; the first entry is 0 and the last is the total
// size of the partitions. Offsets fails with kind errors.Invalid if
// any length is negative.
func Offsets(lengths []int64) ([]int64, error) {
	offsets := make([]int64, len(lengths)+1)
	for i, n := range lengths {
		if n < 0 {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("indexio.Offsets: negative partition length %d", n))
		}
		offsets[i+1] = offsets[i] + n
	}
	return offsets, nil
}

// Write writes the index entries describing the provided partition
// lengths to w.
func Write(w io.Writer, lengths []int64) error {
	offsets, err := Offsets(lengths)
	if err != nil {
		return err
	}
	var b [EntrySize]byte
	for _, off := range offsets {
		order.PutUint64(b[:], uint64(off))
		if _, err := w.Write(b[:]); err != nil {
			return err
		}
	}
	return nil
}

// Validate reports whether the index file at indexPath describes a
// data file of dataSize bytes split into numPartitions partitions. On
// a match, Validate returns the partition lengths derived from the
// index; otherwise it returns nil. A nil result covers a missing or
// unreadable index, an index of the wrong size, and a malformed index
// (first offset nonzero, offsets out of order, or offsets that do not
// add up to dataSize). Validate never returns an error: the caller's
// protocol recovers from any non-match by writing a fresh pair.
func Validate(indexPath string, dataSize int64, numPartitions int) []int64 {
	f, err := os.Open(indexPath)
	if err != nil {
		return nil
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.Size() != Size(numPartitions) {
		return nil
	}
	var (
		r = bufio.NewReader(f)
		b [EntrySize]byte
	)
	if _, err := io.ReadFull(r, b[:]); err != nil {
		log.Debug.Printf("indexio: read %s: %v", indexPath, err)
		return nil
	}
	if first := int64(order.Uint64(b[:])); first != 0 {
		return nil
	}
	var (
		lengths = make([]int64, numPartitions)
		prev    int64
	)
	for i := range lengths {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			log.Debug.Printf("indexio: read %s: %v", indexPath, err)
			return nil
		}
		off := int64(order.Uint64(b[:]))
		if off < prev {
			return nil
		}
		lengths[i] = off - prev
		prev = off
	}
	if prev != dataSize {
		return nil
	}
	return lengths
}

// Segment returns the byte range [start, end) occupied by partition
// reduce in the data file paired with the index at indexPath. Segment
// fails with kind errors.NotExist if the index file does not exist or
// does not cover partition reduce, and with kind errors.Integrity if
// the two offsets read are out of order.
func Segment(indexPath string, reduce int) (start, end int64, err error) {
	if reduce < 0 {
		return 0, 0, errors.E(errors.NotExist, fmt.Sprintf("indexio.Segment %s [%d]: partition out of range", indexPath, reduce))
	}
	f, err := os.Open(indexPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, errors.E(errors.NotExist, fmt.Sprintf("indexio.Segment %s [%d]", indexPath, reduce))
		}
		return 0, 0, err
	}
	defer f.Close()
	var b [2 * EntrySize]byte
	if _, err := f.ReadAt(b[:], int64(reduce)*EntrySize); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return 0, 0, errors.E(errors.NotExist, fmt.Sprintf("indexio.Segment %s [%d]: partition out of range", indexPath, reduce))
		}
		return 0, 0, errors.E(fmt.Sprintf("indexio.Segment %s [%d]", indexPath, reduce), err)
	}
	start = int64(order.Uint64(b[:]))
	end = int64(order.Uint64(b[EntrySize:]))
	if end < start {
		return 0, 0, errors.E(errors.Integrity, fmt.Sprintf("indexio.Segment %s [%d]: offsets out of order: %d > %d", indexPath, reduce, start, end))
	}
	return start, end, nil
}
