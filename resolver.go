// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package shuffleio

import (
	"bufio"
	"fmt"
	"os"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/shuffleio/indexio"
)

// A PathResolver maps shuffle block files onto the file system. Path
// must be deterministic so that every component of one process agrees
// on where a block's files live.
type PathResolver interface {
	// Path returns the path at which the named block file is stored.
	Path(id BlockID, kind Kind) string

	// TempSibling returns an unused path in the same directory as
	// path. A file written at the returned path can later be renamed
	// over path without crossing file systems.
	TempSibling(path string) (string, error)
}

// A Resolver maps logical shuffle blocks to their physical storage
// and arbitrates between racing commits of the same map output. A
// resolver is shared by all tasks of one process and is safe for
// concurrent use.
type Resolver struct {
	paths PathResolver
	locks sync.Map // mapKey -> *sync.Mutex
}

type mapKey struct {
	shuffle, mapID int
}

// New returns a new resolver that stores blocks at the locations
// provided by paths.
func New(paths PathResolver) *Resolver {
	return &Resolver{paths: paths}
}

// lock returns the mutex guarding commits for one map output.
func (r *Resolver) lock(key mapKey) *sync.Mutex {
	l, _ := r.locks.LoadOrStore(key, new(sync.Mutex))
	return l.(*sync.Mutex)
}

// Commit installs the data file dataTmp, holding the partitions whose
// byte lengths are given by lengths, as the committed output of map
// mapID in shuffle shuffleID.
//
// If a valid pair of data and index files already exists for the map,
// another attempt of the same task has already committed. In that
// case the existing output is kept, this attempt's files are
// discarded, and lengths is overwritten in place with the committed
// partition lengths, so that every attempt reports the same output.
// This is not an error.
//
// Otherwise this attempt wins: any leftover files at the permanent
// locations are removed and the attempt's index and data files are
// renamed into place. A failed rename is fatal to the attempt and is
// returned with kind errors.Fatal.
//
// Commit may be called concurrently for the same map; the check for
// an existing pair and the installation of a new one are a single
// critical section per (shuffle, map).
func (r *Resolver) Commit(shuffleID, mapID int, lengths []int64, dataTmp string) error {
	var (
		indexPath = r.paths.Path(IndexBlockID(shuffleID, mapID), Index)
		dataPath  = r.paths.Path(DataBlockID(shuffleID, mapID), Data)
	)
	indexTmp, err := r.paths.TempSibling(indexPath)
	if err != nil {
		return err
	}
	if err := writeIndexFile(indexTmp, lengths); err != nil {
		return err
	}
	lock := r.lock(mapKey{shuffleID, mapID})
	lock.Lock()
	defer lock.Unlock()
	if existing := indexio.Validate(indexPath, fileSize(dataPath), len(lengths)); existing != nil {
		// Another attempt has already committed this map's output.
		// Adopt its lengths and drop this attempt's files.
		copy(lengths, existing)
		removeQuietly(indexTmp)
		removeQuietly(dataTmp)
		return nil
	}
	// This attempt wins. Clear out whatever partial or stale files
	// may be present, then install the fresh pair. Old files must be
	// removed before the renames, never after.
	removeQuietly(indexPath)
	removeQuietly(dataPath)
	if err := os.Rename(indexTmp, indexPath); err != nil {
		return errors.E(errors.Fatal, fmt.Sprintf("commit %s: install index", DataBlockID(shuffleID, mapID)), err)
	}
	if err := os.Rename(dataTmp, dataPath); err != nil {
		return errors.E(errors.Fatal, fmt.Sprintf("commit %s: install data", DataBlockID(shuffleID, mapID)), err)
	}
	log.Debug.Printf("shuffleio: committed %d partitions for %s", len(lengths), DataBlockID(shuffleID, mapID))
	return nil
}

// BlockData resolves the byte range holding block id within its map
// output's data file. BlockData fails with kind errors.NotExist if
// the map output was never committed or id.Reduce is out of range,
// and with kind errors.Integrity if the committed index is corrupt.
func (r *Resolver) BlockData(id BlockID) (FileSegment, error) {
	indexPath := r.paths.Path(IndexBlockID(id.Shuffle, id.Map), Index)
	start, end, err := indexio.Segment(indexPath, id.Reduce)
	if err != nil {
		return FileSegment{}, err
	}
	return FileSegment{
		Path:   r.paths.Path(DataBlockID(id.Shuffle, id.Map), Data),
		Offset: start,
		Length: end - start,
	}, nil
}

// RemoveMapOutput deletes the committed output of map mapID in
// shuffle shuffleID. It is not an error to remove output that was
// never committed. In-flight reads are not coordinated with: a reader
// holding an open segment may finish its read, but no new reads
// resolve after removal.
func (r *Resolver) RemoveMapOutput(shuffleID, mapID int) error {
	var first error
	for _, target := range []struct {
		id   BlockID
		kind Kind
	}{
		{DataBlockID(shuffleID, mapID), Data},
		{IndexBlockID(shuffleID, mapID), Index},
	} {
		path := r.paths.Path(target.id, target.kind)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			if first == nil {
				first = errors.E(fmt.Sprintf("remove %s", path), err)
			} else {
				log.Error.Printf("shuffleio: remove %s: %v", path, err)
			}
		}
	}
	return first
}

// writeIndexFile writes a complete index file for lengths at path.
func writeIndexFile(path string, lengths []int64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := indexio.Write(w, lengths); err != nil {
		f.Close()
		removeQuietly(path)
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		removeQuietly(path)
		return err
	}
	return f.Close()
}

// fileSize returns the size of the file at path, or 0 if it cannot
// be determined. Validation against the index catches the difference
// between a missing file and an empty one.
func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// removeQuietly removes path on a best-effort basis. A missing file
// is fine; other failures are logged and otherwise ignored.
func removeQuietly(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Error.Printf("shuffleio: remove %s: %v", path, err)
	}
}
