// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Shuffledump prints the contents of a shuffle index file and checks
// it against its data file. It is intended for poking at shuffle
// state left on disk by a worker.
//
//	shuffledump [-n npartitions] index-file data-file
package main

import (
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/grailbio/base/data"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/must"
	"github.com/grailbio/shuffleio/indexio"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: shuffledump [-n npartitions] index-file data-file

Shuffledump prints each partition's offset and length as recorded in
the index file, and reports whether the (index, data) pair is valid.
If -n is not given, the partition count is inferred from the index
file's size.
`)
	os.Exit(2)
}

func main() {
	log.AddFlags()
	log.SetFlags(0)
	log.SetPrefix("shuffledump: ")
	must.Func = log.Fatal
	npartitions := flag.Int("n", 0, "number of partitions described by the index")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
	}
	var (
		ctx       = context.Background()
		indexPath = flag.Arg(0)
		dataPath  = flag.Arg(1)
	)

	f, err := file.Open(ctx, indexPath)
	must.Nil(err)
	info, err := f.Stat(ctx)
	must.Nil(err)
	indexSize := info.Size()
	must.True(indexSize%indexio.EntrySize == 0,
		"index size ", indexSize, " is not a multiple of ", indexio.EntrySize)
	n := *npartitions
	if n == 0 {
		n = int(indexSize/indexio.EntrySize) - 1
	}
	must.True(indexSize == indexio.Size(n),
		"index size ", indexSize, " does not describe ", n, " partitions")

	offsets := make([]int64, n+1)
	var b [indexio.EntrySize]byte
	r := f.Reader(ctx)
	for i := range offsets {
		_, err := io.ReadFull(r, b[:])
		must.Nil(err)
		offsets[i] = int64(binary.BigEndian.Uint64(b[:]))
	}
	must.Nil(f.Close(ctx))

	for i := 0; i < n; i++ {
		fmt.Printf("partition %d: offset %d, %s\n",
			i, offsets[i], data.Size(offsets[i+1]-offsets[i]))
	}

	dataInfo, err := file.Stat(ctx, dataPath)
	var dataSize int64
	if err == nil {
		dataSize = dataInfo.Size()
	} else {
		log.Printf("stat %s: %v (assuming empty)", dataPath, err)
	}
	fmt.Printf("data file: %s\n", data.Size(dataSize))
	switch {
	case offsets[0] != 0:
		fmt.Printf("pair INVALID: first offset is %d, not 0\n", offsets[0])
		os.Exit(1)
	case !sorted(offsets):
		fmt.Println("pair INVALID: offsets are not non-decreasing")
		os.Exit(1)
	case offsets[n] != dataSize:
		fmt.Printf("pair INVALID: index describes %s, data file holds %s\n",
			data.Size(offsets[n]), data.Size(dataSize))
		os.Exit(1)
	}
	fmt.Printf("pair valid: %d partitions, %s total\n", n, data.Size(dataSize))
}

func sorted(offsets []int64) bool {
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return false
		}
	}
	return true
}
