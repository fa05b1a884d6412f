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

package sitefinder

import (
	"testing"

	"github.com/grailbio/unfazed/dnm"
	"github.com/stretchr/testify/assert"
)

var fam = Family{KidIdx: 0, DadIdx: 1, MomIdx: 2, DadID: "dad", MomID: "mom"}

// depthsFor returns a (ref_depth, alt_depth) pair whose allele balance sits
// squarely inside the default tunables' band for gt, so variant() fixtures
// pass sitequality.Usable regardless of which role (kid/dad/mom) a genotype
// is given to.
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

func variant(pos int, ref, alt string, kidGT, dadGT, momGT dnm.Genotype) *dnm.VariantRecord {
	kidRef, kidAlt := depthsFor(kidGT)
	dadRef, dadAlt := depthsFor(dadGT)
	momRef, momAlt := depthsFor(momGT)
	return &dnm.VariantRecord{
		Chrom:     "1",
		Pos:       pos,
		Ref:       ref,
		Alts:      []string{alt},
		Genotypes: []dnm.Genotype{kidGT, dadGT, momGT},
		RefDepths: []int{kidRef, dadRef, momRef},
		AltDepths: []int{kidAlt, dadAlt, momAlt},
		GTQuals:   []int{60, 60, 60},
	}
}

func TestEvaluateScenario1(t *testing.T) {
	// Spec scenario 1: kid HET, dad HOM_ALT, mom HOM_REF -> one CandidateSite
	// {pos:1000, alt_parent:dad, ref_parent:mom}.
	d := &dnm.DNM{Chrom: "1", Start: 1500, End: 1501}
	v := variant(1000, "A", "T", dnm.Het, dnm.HomAlt, dnm.HomRef)
	tun := dnm.DefaultTunables()
	het, cand := Evaluate(d, v, fam, false, tun, false)
	assert.NotNil(t, het)
	if assert.NotNil(t, cand) {
		assert.Equal(t, 1000, cand.Pos)
		assert.Equal(t, "dad", cand.AltParentID)
		assert.Equal(t, "mom", cand.RefParentID)
	}
}

func TestEvaluateScenario2HemizygousFilterRejects(t *testing.T) {
	// A HOM_ALT kid only reaches the hemizygous filter in whole-region SV
	// mode; point-candidate mode rejects any non-HET kid earlier.
	d := &dnm.DNM{Chrom: "1", Start: 1500, End: 1501, VarType: dnm.DEL}
	v := variant(1000, "A", "T", dnm.HomAlt, dnm.Het, dnm.HomAlt)
	tun := dnm.DefaultTunables()
	_, cand := Evaluate(d, v, fam, false, tun, true)
	assert.Nil(t, cand)
}

func TestSmallEventExclusion(t *testing.T) {
	// Small-event DNM [1000, 1010): variant exactly at start is excluded;
	// at start-1 and end are included.
	d := &dnm.DNM{Chrom: "1", Start: 1000, End: 1010}
	tun := dnm.DefaultTunables()

	atStart := variant(1000, "A", "T", dnm.Het, dnm.HomAlt, dnm.HomRef)
	_, cand := Evaluate(d, atStart, fam, false, tun, false)
	assert.Nil(t, cand)

	beforeStart := variant(999, "A", "T", dnm.Het, dnm.HomAlt, dnm.HomRef)
	_, cand = Evaluate(d, beforeStart, fam, false, tun, false)
	assert.NotNil(t, cand)

	atEnd := variant(1010, "A", "T", dnm.Het, dnm.HomAlt, dnm.HomRef)
	_, cand = Evaluate(d, atEnd, fam, false, tun, false)
	assert.NotNil(t, cand)
}

func TestInferDELUnphaseableAtDepthFour(t *testing.T) {
	d := &dnm.DNM{Chrom: "1", Start: 1000, End: 5000, VarType: dnm.DEL}
	tun := dnm.DefaultTunables()
	v := &dnm.VariantRecord{
		Chrom: "1", Pos: 2000, Ref: "A", Alts: []string{"T"},
		Genotypes: []dnm.Genotype{dnm.HomAlt, dnm.Het, dnm.HomRef},
		RefDepths: []int{2, 20, 20},
		AltDepths: []int{2, 20, 0}, // kid depth sum = 4, not > 4
		GTQuals:   []int{60, 60, 60},
	}
	_, cand := Evaluate(d, v, fam, false, tun, true)
	assert.Nil(t, cand)
}

func TestInferDELPhaseableAboveDepthFour(t *testing.T) {
	d := &dnm.DNM{Chrom: "1", Start: 1000, End: 5000, VarType: dnm.DEL}
	tun := dnm.DefaultTunables()
	v := &dnm.VariantRecord{
		Chrom: "1", Pos: 2000, Ref: "A", Alts: []string{"T"},
		Genotypes: []dnm.Genotype{dnm.HomAlt, dnm.Het, dnm.HomRef},
		RefDepths: []int{3, 20, 20},
		AltDepths: []int{2, 20, 0}, // kid depth sum = 5 > 4
		GTQuals:   []int{60, 60, 60},
	}
	_, cand := Evaluate(d, v, fam, false, tun, true)
	if assert.NotNil(t, cand) {
		assert.Equal(t, dnm.RefParentRole, cand.KidAllele)
	}
}

func dupVariant(kidAlt, kidRef int) *dnm.VariantRecord {
	return &dnm.VariantRecord{
		Chrom: "1", Pos: 2000, Ref: "A", Alts: []string{"T"},
		Genotypes: []dnm.Genotype{dnm.Het, dnm.HomAlt, dnm.HomRef},
		RefDepths: []int{kidRef, 0, 20},
		AltDepths: []int{kidAlt, 20, 0},
		GTQuals:   []int{60, 60, 60},
	}
}

func TestInferDUPBoundaryValues(t *testing.T) {
	d := &dnm.DNM{Chrom: "1", Start: 1000, End: 5000, VarType: dnm.DUP}
	tun := dnm.DefaultTunables()

	// b_k = 0.67 exactly -> alt_parent.
	v := dupVariant(67, 33)
	_, cand := Evaluate(d, v, fam, false, tun, true)
	if assert.NotNil(t, cand) {
		assert.Equal(t, dnm.AltParentRole, cand.KidAllele)
	}

	// b_k = 0.33 exactly -> ref_parent.
	v = dupVariant(33, 67)
	_, cand = Evaluate(d, v, fam, false, tun, true)
	if assert.NotNil(t, cand) {
		assert.Equal(t, dnm.RefParentRole, cand.KidAllele)
	}

	// b_k = 0.5 exactly -> reject.
	v = dupVariant(50, 50)
	_, cand = Evaluate(d, v, fam, false, tun, true)
	assert.Nil(t, cand)
}

func TestEvaluateRejectsMaleXChrom(t *testing.T) {
	d := &dnm.DNM{Chrom: "X", Start: 1500, End: 1501}
	tun := dnm.DefaultTunables()
	v := variant(1000, "A", "T", dnm.Het, dnm.HomAlt, dnm.HomRef)
	v.Chrom = "X"
	_, cand := Evaluate(d, v, fam, true /* kidIsMale */, tun, false)
	assert.Nil(t, cand)
}

func TestRegionsWholeVsSplit(t *testing.T) {
	d := &dnm.DNM{Chrom: "chr1", Start: 10000, End: 10500}
	whole := Regions(d, 5000, true)
	assert.Equal(t, []string{"1:5001-15501"}, whole)

	split := Regions(d, 100, false)
	assert.Equal(t, []string{"1:9901-10101", "1:10401-10601"}, split)

	// end-start <= search_dist: only one region emitted.
	noSplit := Regions(d, 5000, false)
	assert.Equal(t, []string{"1:5001-15001"}, noSplit)
}
