// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package shuffleio

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/spaolacci/murmur3"
)

// DiskPaths is a PathResolver that spreads block files across a set
// of local root directories. Each file name is hashed to pick a root
// and then a bucket directory beneath it, keeping directory fanout
// bounded when one node hosts many maps' output. Two DiskPaths
// instances configured alike resolve every block to the same path.
type DiskPaths struct {
	roots   []string
	buckets int
}

// NewDiskPaths returns a DiskPaths that stores block files under the
// provided root directories, using buckets hash-bucket directories
// per root. NewDiskPaths panics if no roots are given.
func NewDiskPaths(buckets int, roots ...string) *DiskPaths {
	if len(roots) == 0 {
		panic("shuffleio: no storage roots")
	}
	if buckets < 1 {
		buckets = 1
	}
	return &DiskPaths{roots: roots, buckets: buckets}
}

// Path implements PathResolver. The file's directory is created if
// needed; creation failure is logged and surfaces from the caller's
// subsequent file operation.
func (p *DiskPaths) Path(id BlockID, kind Kind) string {
	name := id.Name(kind)
	h := murmur3.Sum32([]byte(name))
	var (
		root   = p.roots[int(h%uint32(len(p.roots)))]
		bucket = int(h/uint32(len(p.roots))) % p.buckets
		dir    = filepath.Join(root, fmt.Sprintf("%02x", bucket))
	)
	if err := os.MkdirAll(dir, 0777); err != nil {
		log.Error.Printf("shuffleio: mkdir %s: %v", dir, err)
	}
	return filepath.Join(dir, name)
}

// TempSibling implements PathResolver, naming temporaries by a
// random UUID suffix next to their final location.
func (p *DiskPaths) TempSibling(path string) (string, error) {
	for i := 0; i < 10; i++ {
		sibling := fmt.Sprintf("%s.%s.tmp", path, uuid.New())
		_, err := os.Stat(sibling)
		if os.IsNotExist(err) {
			return sibling, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", errors.E(fmt.Sprintf("tempsibling %s: no unused name", path))
}
