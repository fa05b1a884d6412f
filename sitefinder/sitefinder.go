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

// Package sitefinder implements the per-DNM informative-site scan (§4.4):
// for a single DNM, build query intervals around it, stream the variants in
// those intervals, and classify each variant as a het-site bridge, a
// candidate parental-assignment site, or neither. BatchFinder (a separate
// package) reuses the same per-variant classification over a chromosome-wide
// shared scan; the two are kept in sync by construction, not by copy-paste,
// via the shared Evaluate entry point.
package sitefinder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/grailbio/unfazed/dnm"
	"github.com/grailbio/unfazed/parentassign"
	"github.com/grailbio/unfazed/sitequality"
)

// Family resolves sample indices within a VariantRecord's genotype arrays
// for one trio.
type Family struct {
	KidIdx, DadIdx, MomIdx int
	DadID, MomID           string
}

// Regions returns the query interval(s) to scan for d, using search distance
// s, per §4.4.
func Regions(d *dnm.DNM, s int, wholeRegion bool) []string {
	if wholeRegion {
		return []string{regionString(d.Chrom, d.Start-s, d.End+s)}
	}
	regions := []string{regionString(d.Chrom, d.Start-s, d.Start+s)}
	if d.End-d.Start > s {
		regions = append(regions, regionString(d.Chrom, d.End-s, d.End+s))
	}
	return regions
}

// regionString formats the 0-based closed interval [start, end] (start
// clamped at 0) as the 1-based region string dnm.VariantSource.Query takes.
func regionString(chrom string, start, end int) string {
	if start < 0 {
		start = 0
	}
	return fmt.Sprintf("%s:%d-%d", strings.TrimPrefix(chrom, "chr"), start+1, end+1)
}

// IsComplexVariant reports whether v is too complex to evaluate as an
// informative site (not biallelic SNV-like): more than one ALT, a multi-base
// REF, a multi-base ALT, or a spanning-deletion marker ALT ("*"). This check
// does not depend on any particular DNM, so BatchFinder applies it once per
// variant before consulting the proximity index (§4.6), exactly as the
// single-DNM path below applies it per variant.
func IsComplexVariant(v *dnm.VariantRecord) bool {
	if len(v.Alts) != 1 {
		return true
	}
	if len(v.Ref) > 1 {
		return true
	}
	alt := v.Alts[0]
	return alt == "*" || len(alt) > 1
}

// rejectVariant applies the complex-variant and small-event filters common
// to both the single-DNM and batched scans.
func rejectVariant(d *dnm.DNM, v *dnm.VariantRecord, kidIsMale bool) bool {
	if IsComplexVariant(v) {
		return true
	}
	if kidIsMale && isChromX(v.Chrom) {
		return true
	}
	if d.SmallEvent() && v.Pos >= d.Start && v.Pos < d.End {
		return true
	}
	return false
}

func isChromX(chrom string) bool {
	c := strings.TrimPrefix(strings.ToLower(chrom), "chr")
	return c == "x"
}

// Evaluate classifies a single variant against a single DNM and its resolved
// family, appending to hetSites/candidateSites as appropriate. It is the
// shared core used by both the per-DNM Find below and BatchFinder's
// per-variant callback.
func Evaluate(d *dnm.DNM, v *dnm.VariantRecord, fam Family, kidIsMale bool, tun dnm.Tunables, wholeRegion bool) (het *dnm.HetSite, candidate *dnm.CandidateSite) {
	if rejectVariant(d, v, kidIsMale) {
		return nil, nil
	}

	kidGT := v.Genotypes[fam.KidIdx]
	dadOK := sitequality.Usable(fam.DadIdx, v, tun)
	momOK := sitequality.Usable(fam.MomIdx, v, tun)

	if kidGT == dnm.Het && dadOK && momOK {
		het = &dnm.HetSite{Pos: v.Pos, RefAllele: v.Ref, AltAllele: v.Alts[0]}
	}

	cand := dnm.CandidateSite{Pos: v.Pos, RefAllele: v.Ref, AltAllele: v.Alts[0]}

	if wholeRegion && (d.VarType == dnm.DEL || d.VarType == dnm.DUP) {
		kidAllele, ok := InferSVKidAllele(d.VarType, v, fam, tun)
		if !ok {
			return het, nil
		}
		cand.KidAllele = kidAllele
	} else if kidGT != dnm.Het || !sitequality.Usable(fam.KidIdx, v, tun) {
		return het, nil
	}

	if !dadOK || !momOK {
		return het, nil
	}

	altIsDad, ok := parentassign.Assign(v.Genotypes[fam.DadIdx], v.Genotypes[fam.MomIdx])
	if !ok {
		return het, nil
	}
	if altIsDad {
		cand.AltParentID, cand.RefParentID = fam.DadID, fam.MomID
	} else {
		cand.AltParentID, cand.RefParentID = fam.MomID, fam.DadID
	}

	if !parentassign.HemizygousKidUnique(kidGT, v.Genotypes[fam.DadIdx], v.Genotypes[fam.MomIdx]) {
		return het, nil
	}

	return het, &cand
}

// Find runs the single-DNM informative-site scan (§4.4) over variants
// already restricted to Regions(d, tun.SearchDist, tun.WholeRegion) by the
// caller's VariantSource. It mutates d.CandidateSites/d.HetSites in place
// and leaves them sorted by position (I1).
func Find(d *dnm.DNM, variants []*dnm.VariantRecord, fam Family, kidIsMale bool, tun dnm.Tunables) {
	var candidateSites []dnm.CandidateSite
	var hetSites []dnm.HetSite
	for _, v := range variants {
		het, cand := Evaluate(d, v, fam, kidIsMale, tun, tun.WholeRegion)
		if het != nil {
			hetSites = append(hetSites, *het)
		}
		if cand != nil {
			candidateSites = append(candidateSites, *cand)
		}
	}
	sort.Slice(candidateSites, func(i, j int) bool { return candidateSites[i].Pos < candidateSites[j].Pos })
	sort.Slice(hetSites, func(i, j int) bool { return hetSites[i].Pos < hetSites[j].Pos })
	d.CandidateSites = candidateSites
	d.HetSites = hetSites
}
