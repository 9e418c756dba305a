// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

/*
	Package indexio implements the on-disk index format that pairs
	every shuffle data file with the offsets of its reduce partitions.
	A data file holds the raw concatenation of one map output's
	partitions in partition order, with no headers, padding, or
	checksums. Its index file stores N+1 offsets into the data file:

		index := offset[N+1]
		offset := uint64 (big-endian)

	offset[0] is always 0 and offset[N] is the data file's total size,
	so that partition i occupies the byte range
	[offset[i], offset[i+1]). Offsets are non-decreasing; an empty
	partition is represented by two equal consecutive offsets.

	An index file is meaningful only together with its data file.
	Validate checks a candidate pair against each other and against an
	expected partition count, reporting any mismatch or unreadable
	index as a non-match rather than an error: callers treat a
	non-match as license to write a fresh pair, which is always safe.
*/
package indexio
