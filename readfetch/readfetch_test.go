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
	"errors"
	"testing"

	"github.com/grailbio/unfazed/dnm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func goodBase() *dnm.Read {
	return &dnm.Read{
		QueryName: "r1", Chrom: "1", MateChrom: "1", MapQ: 30,
	}
}

func TestGoodReadAccepts(t *testing.T) {
	assert.True(t, GoodRead(goodBase()))
}

func TestGoodReadRejectsEachFlag(t *testing.T) {
	cases := map[string]func(*dnm.Read){
		"qcfail":        func(r *dnm.Read) { r.QCFail = true },
		"unmapped":      func(r *dnm.Read) { r.Unmapped = true },
		"duplicate":     func(r *dnm.Read) { r.Duplicate = true },
		"secondary":     func(r *dnm.Read) { r.Secondary = true },
		"supplementary": func(r *dnm.Read) { r.Supplementary = true },
		"lowmapq":       func(r *dnm.Read) { r.MapQ = 0 },
		"mateunmapped":  func(r *dnm.Read) { r.MateUnmapped = true },
		"matediffchrom": func(r *dnm.Read) { r.MateChrom = "2" },
	}
	for name, mutate := range cases {
		r := goodBase()
		mutate(r)
		assert.False(t, GoodRead(r), name)
	}
}

func TestGoodReadNil(t *testing.T) {
	assert.False(t, GoodRead(nil))
}

func TestAlleleAtFromRead(t *testing.T) {
	read := &dnm.Read{
		QuerySequence:      "ACGT",
		ReferencePositions: []dnm.ReferencePos{{Pos: 100, HasPos: true}, {Pos: 101, HasPos: true}, {Pos: 102, HasPos: true}, {Pos: 103, HasPos: true}},
	}
	allele, ok := AlleleAt(read, nil, 101)
	require.True(t, ok)
	assert.Equal(t, "C", allele)
}

func TestAlleleAtFallsBackToMate(t *testing.T) {
	read := &dnm.Read{
		QuerySequence:      "AC",
		ReferencePositions: []dnm.ReferencePos{{Pos: 100, HasPos: true}, {Pos: 101, HasPos: true}},
	}
	mate := &dnm.Read{
		QuerySequence:      "GT",
		ReferencePositions: []dnm.ReferencePos{{Pos: 200, HasPos: true}, {Pos: 201, HasPos: true}},
	}
	allele, ok := AlleleAt(read, mate, 201)
	require.True(t, ok)
	assert.Equal(t, "T", allele)
}

func TestAlleleAtUnavailable(t *testing.T) {
	read := &dnm.Read{
		QuerySequence:      "AC",
		ReferencePositions: []dnm.ReferencePos{{Pos: 100, HasPos: true}, {HasPos: false}},
	}
	_, ok := AlleleAt(read, nil, 101)
	assert.False(t, ok)
}

func TestMateIntervalsOverlap(t *testing.T) {
	a := &dnm.Read{ReferenceStart: 100, ReferenceEnd: 200}
	b := &dnm.Read{ReferenceStart: 150, ReferenceEnd: 250}
	assert.True(t, MateIntervalsOverlap(a, b))

	c := &dnm.Read{ReferenceStart: 300, ReferenceEnd: 400}
	assert.False(t, MateIntervalsOverlap(a, c))

	// One interval fully containing the other is still an overlap, whichever
	// side is the container.
	container := &dnm.Read{ReferenceStart: 100, ReferenceEnd: 400}
	contained := &dnm.Read{ReferenceStart: 150, ReferenceEnd: 160}
	assert.True(t, MateIntervalsOverlap(container, contained))
	assert.True(t, MateIntervalsOverlap(contained, container))
}

type fakeAlignmentSource struct {
	fetchCalls  []string
	fetchErrFor string
	mateFor     map[string]*dnm.Read
}

func (s *fakeAlignmentSource) Fetch(chrom string, start, end int) (dnm.ReadIterator, error) {
	s.fetchCalls = append(s.fetchCalls, chrom)
	if chrom == s.fetchErrFor {
		return nil, errors.New("no such reference: " + chrom)
	}
	return &emptyReadIterator{}, nil
}

func (s *fakeAlignmentSource) Mate(r *dnm.Read) (*dnm.Read, error) {
	return s.mateFor[r.QueryName], nil
}
func (s *fakeAlignmentSource) Close() error { return nil }

type emptyReadIterator struct{}

func (emptyReadIterator) Scan() bool      { return false }
func (emptyReadIterator) Record() *dnm.Read { return nil }
func (emptyReadIterator) Err() error      { return nil }
func (emptyReadIterator) Close() error    { return nil }

func TestFetcherRetriesWithFlippedPrefix(t *testing.T) {
	src := &fakeAlignmentSource{fetchErrFor: "1"}
	f := NewFetcher(src)
	_, err := f.Fetch("1", 100, 200)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "chr1"}, src.fetchCalls)
}

func TestFetcherMateCacheAvoidsDuplicateResolution(t *testing.T) {
	mate := &dnm.Read{QueryName: "r1"}
	src := &fakeAlignmentSource{mateFor: map[string]*dnm.Read{"r1": mate}}
	f := NewFetcher(src)

	f.mates.store("r1", mate)
	got, err := f.Mate(&dnm.Read{QueryName: "r1"})
	require.NoError(t, err)
	assert.Same(t, mate, got)

	_, stillCached := f.mates.lookupAndDelete("r1")
	assert.False(t, stillCached)
}
