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

// Package batchfinder implements the chromosome-parallel multi-DNM
// informative-site scan (§4.6): one shared linear pass per chromosome over
// the variant callset, matched against every DNM on that chromosome via an
// interval-overlap proximity index, instead of one pass per DNM.
package batchfinder

import (
	"strings"

	"github.com/biogo/store/interval"
	"github.com/grailbio/unfazed/dnm"
)

// canonicalChrom strips an optional "chr" prefix and lower-cases, so a DNM's
// own chrom string and a variant source's chrom string index into the same
// chromosome bucket regardless of naming convention.
func canonicalChrom(chrom string) string {
	return strings.TrimPrefix(strings.ToLower(chrom), "chr")
}

// dnmInterval adapts a *dnm.DNM's search window to biogo/store/interval's
// IntInterface, so a chromosome's DNMs can be indexed in an IntTree and
// queried by a variant's position.
type dnmInterval struct {
	d          *dnm.DNM
	start, end int // half-open [start, end), already padded by search_dist
	id         uintptr
}

func (v dnmInterval) ID() uintptr { return v.id }
func (v dnmInterval) Range() interval.IntRange {
	return interval.IntRange{Start: v.start, End: v.end}
}
func (v dnmInterval) Overlap(b interval.IntRange) bool {
	return v.end > b.Start && v.start < b.End
}

// ProximityIndex answers "which DNMs on this chromosome are within
// search_dist of this variant position", per chromosome. Building it is
// intentionally single-threaded (§5: "pre-allocate all inner containers
// during index construction"); querying it only reads, so it is safe to
// share read-only across the per-chromosome worker goroutines once built —
// each worker only ever queries its own chromosome's tree.
type ProximityIndex struct {
	trees map[string]*interval.IntTree
}

// BuildProximityIndex indexes every non-auto-phaseable DNM by chromosome,
// using search distance s. The window per DNM mirrors SiteFinder's own
// Regions (§4.4), so BatchFinder and the single-DNM SiteFinder agree on
// which variants can match a given DNM (§8's cross-check property):
//
//   - whole_region: one window [start-s, end+s].
//   - !whole_region: window [start-s, start+s], plus [end-s, end+s] when
//     end-start > s.
//
// This deliberately uses the same "end-start > s" threshold SiteFinder uses
// to decide whether a second window is needed, rather than a separate fixed
// threshold, precisely so the two code paths cannot disagree about which
// variants are in range of which DNM.
func BuildProximityIndex(dnms []*dnm.DNM, s int, wholeRegion bool) *ProximityIndex {
	trees := make(map[string]*interval.IntTree)
	var nextID uintptr = 1
	insert := func(d *dnm.DNM, start, end int) {
		t, ok := trees[canonicalChrom(d.Chrom)]
		if !ok {
			t = &interval.IntTree{}
			trees[canonicalChrom(d.Chrom)] = t
		}
		t.Insert(dnmInterval{d: d, start: start, end: end + 1, id: nextID}, true)
		nextID++
	}
	for _, d := range dnms {
		if wholeRegion {
			insert(d, d.Start-s, d.End+s)
			continue
		}
		insert(d, d.Start-s, d.Start+s)
		if d.End-d.Start > s {
			insert(d, d.End-s, d.End+s)
		}
	}
	for _, t := range trees {
		t.AdjustRanges()
	}
	return &ProximityIndex{trees: trees}
}

// Query returns every DNM on chrom whose window contains pos, each at most
// once. A !whole_region DNM is indexed under up to two windows (start and
// end); Query dedups by *dnm.DNM identity so a variant sitting in the
// overlap of both windows is never reported to the caller twice for the
// same DNM.
func (idx *ProximityIndex) Query(chrom string, pos int) []*dnm.DNM {
	t, ok := idx.trees[canonicalChrom(chrom)]
	if !ok {
		return nil
	}
	hits := t.Get(dnmInterval{start: pos, end: pos + 1})
	out := make([]*dnm.DNM, 0, len(hits))
	seen := make(map[*dnm.DNM]bool, len(hits))
	for _, h := range hits {
		d := h.(dnmInterval).d
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

// ChromRange is a chromosome's [minStart, maxEnd] over its non-auto-phaseable
// DNMs, used to bound the single streaming scan per chromosome.
type ChromRange struct {
	MinStart, MaxEnd int
}

// ChromRanges computes ChromRange per chromosome across dnms.
func ChromRanges(dnms []*dnm.DNM) map[string]ChromRange {
	ranges := make(map[string]ChromRange)
	for _, d := range dnms {
		key := canonicalChrom(d.Chrom)
		r, ok := ranges[key]
		if !ok {
			ranges[key] = ChromRange{MinStart: d.Start, MaxEnd: d.End}
			continue
		}
		if d.Start < r.MinStart {
			r.MinStart = d.Start
		}
		if d.End > r.MaxEnd {
			r.MaxEnd = d.End
		}
		ranges[key] = r
	}
	return ranges
}
