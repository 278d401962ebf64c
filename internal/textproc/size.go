// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package textproc

import "strconv"

// sizeFieldCandidates is the fixed, ordered set of metadata keys scanned
// for a content size, grounded on the reference search API's _meta_size
// helper.
var sizeFieldCandidates = []string{
	"size", "total_size", "torrent_size", "content_size", "files_size", "file_size", "length",
}

// ExtractSize returns the first positive numeric value among the known
// size fields in meta, or false if none is present/positive.
func ExtractSize(meta map[string]string) (int64, bool) {
	for _, key := range sizeFieldCandidates {
		raw, ok := meta[key]
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(raw, 64)
			if ferr != nil {
				continue
			}
			n = int64(f)
		}
		if n > 0 {
			return n, true
		}
	}
	return 0, false
}
