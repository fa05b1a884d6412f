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

// Package svsupport identifies reads supporting a structural DNM (§4.9):
// split alignments, discordant pairs, and soft clips landing at a
// breakpoint.
package svsupport

import (
	"math"

	"github.com/grailbio/unfazed/dnm"
	"github.com/grailbio/unfazed/readfetch"
)

// splitterErrMargin is how close a split read's clip boundary must land to
// a breakpoint to count as supporting it.
const splitterErrMargin = 5

// FindSupport fetches reads within concordantUpperLen of each of d's two
// breakpoints and returns those (with mates) that support the event.
// concordantUpperLen is normally insertest.Estimate's result for the sample.
func FindSupport(fetcher *readfetch.Fetcher, d *dnm.DNM, concordantUpperLen float64) ([]*dnm.Read, error) {
	varLen := math.Abs(float64(d.End - d.Start))
	c := int(concordantUpperLen)

	var supporting []*dnm.Read
	for _, bp := range []int{d.Start, d.End} {
		start := bp - c
		if start < 0 {
			start = 0
		}
		it, err := fetcher.Fetch(d.Chrom, start, bp+c)
		if err != nil {
			return nil, err
		}
		supporting, err = scanBreakpoint(fetcher, it, bp, d.Start, d.End, varLen, concordantUpperLen, supporting)
		it.Close()
		if err != nil {
			return nil, err
		}
	}
	return supporting, nil
}

func scanBreakpoint(fetcher *readfetch.Fetcher, it dnm.ReadIterator, bp, svStart, svEnd int, varLen, concordantUpperLen float64, supporting []*dnm.Read) ([]*dnm.Read, error) {
	for it.Scan() {
		read := it.Record()
		if !readfetch.GoodRead(read) {
			continue
		}
		mate, err := fetcher.Mate(read)
		if err != nil {
			return supporting, err
		}
		if !readfetch.GoodRead(mate) {
			continue
		}
		if readfetch.MateIntervalsOverlap(read, mate) {
			continue
		}

		if _, split := read.Tags["SA"]; split {
			if withinMargin(read.ReferenceStart, bp) || withinMargin(read.ReferenceEnd, bp) {
				supporting = append(supporting, read, mate)
			}
			continue
		}

		insertSize := math.Abs(float64(read.TLen - 2*len(read.QuerySequence)))
		if isDiscordantPair(read, mate, svStart, svEnd, varLen, insertSize, concordantUpperLen) {
			supporting = append(supporting, mate, read)
			continue
		}

		if clipSupportsBreakpoint(read, bp) {
			supporting = append(supporting, mate, read)
		}
	}
	return supporting, it.Err()
}

func withinMargin(pos, bp int) bool {
	return bp-splitterErrMargin <= pos && pos <= bp+splitterErrMargin
}

// isDiscordantPair checks the pair's span against the SV's own two
// breakpoints (svStart, svEnd), not against whichever breakpoint the
// current fetch window was centered on: a true discordant pair straddles
// the whole event.
func isDiscordantPair(read, mate *dnm.Read, svStart, svEnd int, varLen, insertSize, concordantUpperLen float64) bool {
	if insertSize <= concordantUpperLen {
		return false
	}
	ratio := math.Abs(varLen / insertSize)
	if !(ratio > 0.7 && ratio < 1.3) {
		return false
	}

	wiggle := int(concordantUpperLen)
	leftStart := min(mate.ReferenceStart, read.ReferenceStart)
	rightStart := max(mate.ReferenceStart, read.ReferenceStart)
	return svStart-wiggle < leftStart && leftStart < svStart+wiggle &&
		svEnd-wiggle < rightStart && rightStart < svEnd+wiggle
}

// clipSupportsBreakpoint reports whether read is softly clipped exactly at
// bp (or one base to either side), with everything on one side of that
// offset unaligned (§4.9's third rule).
func clipSupportsBreakpoint(read *dnm.Read, bp int) bool {
	positions := read.ReferencePositions
	idx := -1
	for _, candidate := range []int{bp, bp - 1, bp + 1} {
		if i, ok := findRefIndex(positions, candidate); ok {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	n := len(positions)
	if idx < 2 || idx > n-4 {
		return false
	}
	before := positions[:idx-1]
	after := positions[idx+1:]
	return allGaps(before) || allGaps(after)
}

func findRefIndex(positions []dnm.ReferencePos, pos int) (int, bool) {
	for i, rp := range positions {
		if rp.HasPos && rp.Pos == pos {
			return i, true
		}
	}
	return -1, false
}

func allGaps(positions []dnm.ReferencePos) bool {
	if len(positions) == 0 {
		return false
	}
	for _, p := range positions {
		if p.HasPos {
			return false
		}
	}
	return true
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
