// Copyright 2015 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

package main

// printWarnings reports a run's accumulated non-fatal conditions, matching
// spec.md §7's "warnings count and are summarised at end-of-run."
func printWarnings(warnings []string) {
	if len(warnings) == 0 {
		return
	}
	log.WithField("count", len(warnings)).Warn("run completed with warnings")
}
