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

package readfetch

import (
	"strings"

	"github.com/grailbio/unfazed/dnm"
)

// Fetcher wraps a dnm.AlignmentSource with the chromosome-naming retry
// required by §4.8/§6 and a mate cache so a mate is resolved at most once
// per query name (§9, "cache the first successful mate").
type Fetcher struct {
	src   dnm.AlignmentSource
	mates *mateCache
}

// NewFetcher wraps src. The Fetcher's mate cache is safe for concurrent
// use; Fetch and Mate call src without locking, so concurrent use of the
// Fetcher is safe only when src is.
func NewFetcher(src dnm.AlignmentSource) *Fetcher {
	return &Fetcher{src: src, mates: newMateCache()}
}

// Fetch returns reads overlapping [start, end) on chrom, transparently
// retrying with the flipped "chr"-prefix convention if the source rejects
// chrom outright.
func (f *Fetcher) Fetch(chrom string, start, end int) (dnm.ReadIterator, error) {
	it, err := f.src.Fetch(chrom, start, end)
	if err == nil {
		return it, nil
	}
	return f.src.Fetch(flipChromPrefix(chrom), start, end)
}

func flipChromPrefix(chrom string) string {
	if strings.HasPrefix(chrom, "chr") {
		return strings.TrimPrefix(chrom, "chr")
	}
	return "chr" + chrom
}

// Mate returns r's mate, resolving it from the cache if another caller
// already fetched it for the same query name, or via the underlying source
// otherwise. Returns nil if the mate cannot be resolved (§7: caller drops
// the read, this is not an error).
func (f *Fetcher) Mate(r *dnm.Read) (*dnm.Read, error) {
	if cached, ok := f.mates.lookupAndDelete(r.QueryName); ok {
		return cached, nil
	}
	mate, err := f.src.Mate(r)
	if err != nil {
		return nil, err
	}
	if mate == nil {
		return nil, nil
	}
	f.mates.store(mate.QueryName, mate)
	return mate, nil
}

// AlleleAt returns the base read or mate carries at reference position pos,
// and whether either covers it (§4.8's allele_at).
func AlleleAt(read, mate *dnm.Read, pos int) (allele string, ok bool) {
	if a, found := baseAt(read, pos); found {
		return a, true
	}
	if mate != nil {
		if a, found := baseAt(mate, pos); found {
			return a, true
		}
	}
	return "", false
}

func baseAt(r *dnm.Read, pos int) (string, bool) {
	if r == nil {
		return "", false
	}
	for i, rp := range r.ReferencePositions {
		if rp.HasPos && rp.Pos == pos {
			if i >= len(r.QuerySequence) {
				return "", false
			}
			return string(r.QuerySequence[i]), true
		}
	}
	return "", false
}

// MateIntervalsOverlap reports whether a and b's reference intervals
// overlap, the "biologically implausible" case §4.9 rejects.
func MateIntervalsOverlap(a, b *dnm.Read) bool {
	return a.ReferenceStart <= b.ReferenceEnd && b.ReferenceStart <= a.ReferenceEnd
}
