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

package engine

import (
	"context"
	"testing"

	"github.com/grailbio/unfazed/dnm"
	"github.com/grailbio/unfazed/readfetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePedigree map[string]dnm.FamilyEntry

func (p fakePedigree) Family(kidID string) (dnm.FamilyEntry, bool) {
	e, ok := p[kidID]
	return e, ok
}

type sliceVariantIterator struct {
	records []*dnm.VariantRecord
	idx     int
}

func (it *sliceVariantIterator) Scan() bool {
	it.idx++
	return it.idx <= len(it.records)
}
func (it *sliceVariantIterator) Record() *dnm.VariantRecord { return it.records[it.idx-1] }
func (it *sliceVariantIterator) Err() error                 { return nil }
func (it *sliceVariantIterator) Close() error               { return nil }

type fakeVariantSource struct {
	samples []string
	records []*dnm.VariantRecord
}

func (s *fakeVariantSource) Query(region string) (dnm.VariantIterator, error) {
	return &sliceVariantIterator{records: s.records}, nil
}
func (s *fakeVariantSource) Samples() []string { return s.samples }
func (s *fakeVariantSource) Prefix() string    { return "" }
func (s *fakeVariantSource) Close() error      { return nil }

// depthsFor returns a (ref_depth, alt_depth) pair whose allele balance sits
// inside the default tunables' band for gt, so fixtures built from arbitrary
// genotype combinations pass sitequality.Usable.
func depthsFor(gt dnm.Genotype) (ref, alt int) {
	switch gt {
	case dnm.HomRef:
		return 20, 0
	case dnm.HomAlt:
		return 0, 20
	default: // dnm.Het, dnm.Unknown
		return 10, 10
	}
}

func variantRecord(pos int, ref, alt string, kid, dad, mom dnm.Genotype) *dnm.VariantRecord {
	kidRef, kidAlt := depthsFor(kid)
	dadRef, dadAlt := depthsFor(dad)
	momRef, momAlt := depthsFor(mom)
	return &dnm.VariantRecord{
		Chrom:     "1",
		Pos:       pos,
		Ref:       ref,
		Alts:      []string{alt},
		Genotypes: []dnm.Genotype{kid, dad, mom},
		RefDepths: []int{kidRef, dadRef, momRef},
		AltDepths: []int{kidAlt, dadAlt, momAlt},
		GTQuals:   []int{60, 60, 60},
	}
}

type sliceReadIterator struct {
	reads []*dnm.Read
	idx   int
}

func (it *sliceReadIterator) Scan() bool {
	it.idx++
	return it.idx <= len(it.reads)
}
func (it *sliceReadIterator) Record() *dnm.Read { return it.reads[it.idx-1] }
func (it *sliceReadIterator) Err() error        { return nil }
func (it *sliceReadIterator) Close() error      { return nil }

// fakeAlignmentSource hands back every planted read whose reference interval
// overlaps the queried range, and resolves mates by a name-keyed map.
type fakeAlignmentSource struct {
	reads []*dnm.Read
	mates map[string]*dnm.Read
}

func (s *fakeAlignmentSource) Fetch(chrom string, start, end int) (dnm.ReadIterator, error) {
	var hits []*dnm.Read
	for _, r := range s.reads {
		if r.Chrom == chrom && r.ReferenceStart < end && r.ReferenceEnd > start {
			hits = append(hits, r)
		}
	}
	return &sliceReadIterator{reads: hits}, nil
}

func (s *fakeAlignmentSource) Mate(r *dnm.Read) (*dnm.Read, error) {
	return s.mates[r.QueryName], nil
}

func (s *fakeAlignmentSource) Close() error { return nil }

func readAt(name string, pos int, base string) *dnm.Read {
	return &dnm.Read{
		QueryName:          name,
		Chrom:              "1",
		MateChrom:          "1",
		ReferenceStart:     pos,
		ReferenceEnd:       pos + 1,
		ReferencePositions: []dnm.ReferencePos{{Pos: pos, HasPos: true}},
		QuerySequence:      base,
		MapQ:               40,
	}
}

func goodMate(name string, pos int) *dnm.Read {
	return &dnm.Read{
		QueryName:      name,
		Chrom:          "1",
		ReferenceStart: pos,
		ReferenceEnd:   pos + 100,
		MapQ:           40,
	}
}

func TestPhaseSiteFinderPathFindsCandidatesAndGroupsReads(t *testing.T) {
	ped := fakePedigree{
		"kid1": {KidID: "kid1", DadID: "dad1", MomID: "mom1", Sex: dnm.SexFemale},
	}
	vs := &fakeVariantSource{
		samples: []string{"kid1", "dad1", "mom1"},
		records: []*dnm.VariantRecord{
			variantRecord(1000, "A", "T", dnm.Het, dnm.HomAlt, dnm.HomRef),
		},
	}
	d := &dnm.DNM{Chrom: "1", Start: 1500, End: 1501, KidID: "kid1", VarType: dnm.SNV, RefAllele: "A", AltAllele: "T"}

	altRead := readAt("alt-read", 1500, "T")
	refRead := readAt("ref-read", 1500, "A")
	reads := &fakeAlignmentSource{
		reads: []*dnm.Read{altRead, refRead, goodMate("alt-mate", 9000), goodMate("ref-mate", 9100)},
		mates: map[string]*dnm.Read{
			"alt-read": goodMate("alt-mate", 9000),
			"ref-read": goodMate("ref-mate", 9100),
		},
	}

	tun := dnm.DefaultTunables()
	tun.NoExtended = true

	err := Phase(context.Background(), []*dnm.DNM{d}, ped, func() (dnm.VariantSource, error) { return vs, nil }, reads, tun)
	require.NoError(t, err)

	require.Len(t, d.CandidateSites, 1)
	assert.Equal(t, 1000, d.CandidateSites[0].Pos)
	assert.Equal(t, "dad1", d.CandidateSites[0].AltParentID)
	assert.Equal(t, "mom1", d.CandidateSites[0].RefParentID)
	require.Len(t, d.HetSites, 1)
	assert.Equal(t, 1000, d.HetSites[0].Pos)

	require.Len(t, d.AltReads, 1)
	assert.Equal(t, "alt-read", d.AltReads[0].QueryName)
	assert.Empty(t, d.RefReads)
}

func TestPhaseAutoPhasedSkipsVariantsAndReads(t *testing.T) {
	ped := fakePedigree{
		"kid2": {KidID: "kid2", DadID: "dad2", MomID: "mom2", Sex: dnm.SexMale},
	}
	d := &dnm.DNM{Chrom: "Y", Start: 20000000, End: 20000001, KidID: "kid2"}
	tun := dnm.DefaultTunables()

	err := Phase(context.Background(), []*dnm.DNM{d}, ped, nil, nil, tun)
	require.NoError(t, err)

	assert.True(t, d.AutoPhased)
	assert.Equal(t, "dad2", d.AltParentID)
	assert.Equal(t, "mom2", d.RefParentID)
	assert.Empty(t, d.CandidateSites)
	assert.Empty(t, d.AltReads)
}

func TestPhaseMissingVariantSourceErrors(t *testing.T) {
	ped := fakePedigree{
		"kid1": {KidID: "kid1", DadID: "dad1", MomID: "mom1", Sex: dnm.SexFemale},
	}
	d := &dnm.DNM{Chrom: "1", Start: 1500, End: 1501, KidID: "kid1"}
	tun := dnm.DefaultTunables()

	err := Phase(context.Background(), []*dnm.DNM{d}, ped, nil, nil, tun)
	assert.Error(t, err)
}

func TestPhaseBatchFinderPathMatchesSiteFinderPath(t *testing.T) {
	ped := fakePedigree{
		"kid1": {KidID: "kid1", DadID: "dad1", MomID: "mom1", Sex: dnm.SexFemale},
	}
	vs := &fakeVariantSource{
		samples: []string{"kid1", "dad1", "mom1"},
		records: []*dnm.VariantRecord{
			variantRecord(1000, "A", "T", dnm.Het, dnm.HomAlt, dnm.HomRef),
		},
	}
	d := &dnm.DNM{Chrom: "1", Start: 1500, End: 1501, KidID: "kid1", VarType: dnm.SNV, RefAllele: "A", AltAllele: "T"}

	tun := dnm.DefaultTunables()
	tun.MultithreadProcMin = 1 // force the batched path with a single DNM

	err := Phase(context.Background(), []*dnm.DNM{d}, ped, func() (dnm.VariantSource, error) { return vs, nil }, nil, tun)
	require.NoError(t, err)

	require.Len(t, d.CandidateSites, 1)
	assert.Equal(t, 1000, d.CandidateSites[0].Pos)
	assert.Equal(t, "dad1", d.CandidateSites[0].AltParentID)
}

func TestSeedAltReadsSkipsWhenNoAltAlleleSet(t *testing.T) {
	reads := &fakeAlignmentSource{}
	d := &dnm.DNM{Chrom: "1", Start: 1500, End: 1501}

	seeds, err := seedAltReads(readfetch.NewFetcher(reads), d)
	require.NoError(t, err)
	assert.Nil(t, seeds)
}
