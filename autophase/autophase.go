// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package autophase classifies DNMs that are directly phaseable by
// sex-chromosome inheritance rules, short-circuiting the site finders
// entirely (§4.2).
//
// AutoPhaser is not goroutine-safe: the underlying PAR interval.ParSet
// caches the last query for speed. Callers must run the auto-phaseable/
// non-auto-phaseable split
// as a single-threaded pre-pass before BatchFinder's per-chromosome fan-out,
// exactly as the DNM ordering in §5 already requires.
package autophase

import (
	"strings"

	"github.com/grailbio/unfazed/dnm"
	"github.com/grailbio/unfazed/interval"
)

// normalizeChrom lower-cases and strips a leading "chr" prefix.
func normalizeChrom(chrom string) string {
	c := strings.ToLower(chrom)
	return strings.TrimPrefix(c, "chr")
}

// AutoPhaseable reports whether a DNM at (chrom, start) is auto-phaseable:
// the chromosome is X or Y, the kid is male, the build's PAR tables are
// known, and start does not fall inside either PAR interval for that
// chromosome (PAR boundaries are inclusive).
func AutoPhaseable(chrom string, start int, kidSex dnm.Sex, build string) bool {
	if kidSex != dnm.SexMale {
		return false
	}
	norm := normalizeChrom(chrom)
	var tableChrom string
	switch norm {
	case "x":
		tableChrom = "X"
	case "y":
		tableChrom = "Y"
	default:
		return false
	}
	unions, ok := parUnionsByBuild[build]
	if !ok {
		// PAR lookup on unknown build: fall through to normal search.
		return false
	}
	pos := interval.PosType(start)
	if unions.par1.ContainsByName(tableChrom, pos) {
		return false
	}
	if unions.par2.ContainsByName(tableChrom, pos) {
		return false
	}
	return true
}

// AssignedParent returns which parent a successfully auto-phased DNM is
// attributed to: Y-chromosome DNMs go to dad, X-chromosome DNMs go to mom.
// Callers should only use this after AutoPhaseable returns true.
func AssignedParent(chrom string) (altIsDad bool) {
	return normalizeChrom(chrom) == "y"
}
