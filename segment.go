// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package shuffleio

import (
	"io"
	"os"
)

// A FileSegment is a byte range within a data file, as returned by
// the resolver's read path. It references the file; it does not hold
// a copy of the bytes. The transfer layer serves segments to remote
// readers.
type FileSegment struct {
	// Path is the data file holding the segment.
	Path string
	// Offset is the byte position at which the segment begins.
	Offset int64
	// Length is the number of bytes in the segment.
	Length int64
}

// Open returns a reader positioned at the segment's offset that
// yields exactly the segment's bytes.
func (s FileSegment) Open() (io.ReadCloser, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	if _, err := f.Seek(s.Offset, io.SeekStart); err != nil {
		f.Close()
		return nil, err
	}
	return &segmentReader{
		Reader: io.LimitReader(f, s.Length),
		file:   f,
	}, nil
}

type segmentReader struct {
	io.Reader
	file *os.File
}

func (r *segmentReader) Close() error {
	return r.file.Close()
}
