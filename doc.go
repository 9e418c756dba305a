// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package shuffleio implements the storage side of a sort-based
// shuffle. A map task's writer sorts its output into reduce
// partitions and hands the resolver a temporary data file together
// with the byte length of each partition; the resolver installs the
// pair of data and index files that make the output durable, and it
// serves downstream readers the byte range belonging to a single
// partition.
//
// The resolver is built for at-least-once task execution. Several
// attempts of the same map task may commit concurrently; the first
// attempt to install a valid pair wins, and every later attempt
// silently adopts the winner's output. Readers never observe a
// partially written pair: temporary files are placed next to their
// final locations so installation is a same-directory rename.
package shuffleio
