// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"fmt"
	"strconv"
	"strings"
)

// parseVersion splits a dotted marketing version string ("1.10.2") into
// numeric segments. Every segment must be a non-negative integer; anything
// else is a parse error, and a parse error never grants.
func parseVersion(s string) ([]int, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	segments := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid version segment %q in %q", part, s)
		}
		segments = append(segments, n)
	}
	return segments, nil
}

// compareVersions compares two parsed versions segment-wise, treating
// missing trailing segments as zero. Numeric comparison per segment keeps
// "1.10" greater than "1.9", which a plain numeric parse of the whole
// string would get wrong.
func compareVersions(a, b []int) int {
	n := max(len(a), len(b))
	for i := 0; i < n; i++ {
		var av, bv int
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}

// purchasedBefore reports whether an installation originally purchased at
// origin is grandfathered for the candidate version cutoff: true iff both
// versions parse, origin is positive, and origin is strictly earlier than
// candidate. Equal or later origins never grant; unparsable input never
// grants.
func purchasedBefore(origin, candidate string) bool {
	o, err := parseVersion(origin)
	if err != nil || isZeroVersion(o) {
		return false
	}
	c, err := parseVersion(candidate)
	if err != nil {
		return false
	}
	return compareVersions(o, c) < 0
}

func isZeroVersion(segments []int) bool {
	for _, s := range segments {
		if s != 0 {
			return false
		}
	}
	return true
}
