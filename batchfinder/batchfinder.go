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

package batchfinder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/grailbio/base/traverse"
	"github.com/grailbio/unfazed/autophase"
	"github.com/grailbio/unfazed/dnm"
	"github.com/grailbio/unfazed/sitefinder"
)

// OpenVariantSource opens a fresh handle to the variant callset. Find calls
// it once per chromosome worker, so each worker owns an independent handle
// (§5, "their own opened variant-reader handle").
type OpenVariantSource func() (dnm.VariantSource, error)

// Partition splits dnms into those directly auto-phaseable by sex-chromosome
// rules and the rest, setting AutoPhased/AltParentID/RefParentID in place on
// the former (§4.2). It must run single-threaded, before any chromosome fan
// out — see autophase's package doc.
func Partition(dnms []*dnm.DNM, ped dnm.Pedigree, build string) (autophased, rest []*dnm.DNM) {
	for _, d := range dnms {
		fam, ok := ped.Family(d.KidID)
		if ok && autophase.AutoPhaseable(d.Chrom, d.Start, fam.Sex, build) {
			d.AutoPhased = true
			if autophase.AssignedParent(d.Chrom) {
				d.AltParentID, d.RefParentID = fam.DadID, fam.MomID
			} else {
				d.AltParentID, d.RefParentID = fam.MomID, fam.DadID
			}
			autophased = append(autophased, d)
			continue
		}
		rest = append(rest, d)
	}
	return autophased, rest
}

// Find runs the chromosome-parallel batched scan (§4.6) over every
// non-auto-phaseable DNM in dnms, mutating each DNM's CandidateSites/HetSites
// in place, then returns the combined, ordered output: batch-processed DNMs
// first (in their original input order — this implementation's chosen
// deterministic order, per §5's "implementations should document any
// iteration order used"), followed by the auto-phased DNMs.
func Find(dnms []*dnm.DNM, ped dnm.Pedigree, open OpenVariantSource, tun dnm.Tunables) ([]*dnm.DNM, error) {
	autophased, rest := Partition(dnms, ped, tun.Build)
	if len(rest) == 0 {
		return autophased, nil
	}

	idx := BuildProximityIndex(rest, tun.SearchDist, tun.WholeRegion)
	chromRanges := ChromRanges(rest)
	chroms := make([]string, 0, len(chromRanges))
	for c := range chromRanges {
		chroms = append(chroms, c)
	}
	sort.Strings(chroms) // arbitrary but deterministic worker ordering

	worker := func(chromIdx int) error {
		return processChrom(chroms[chromIdx], chromRanges[chroms[chromIdx]], idx, ped, open, tun)
	}

	if tun.Threads <= 1 {
		for i := range chroms {
			if err := worker(i); err != nil {
				return nil, err
			}
		}
	} else if err := traverse.Limit(tun.Threads).Each(len(chroms), worker); err != nil {
		return nil, err
	}

	for _, d := range rest {
		sortSites(d)
	}
	return append(rest, autophased...), nil
}

func sortSites(d *dnm.DNM) {
	sort.Slice(d.CandidateSites, func(i, j int) bool { return d.CandidateSites[i].Pos < d.CandidateSites[j].Pos })
	sort.Slice(d.HetSites, func(i, j int) bool { return d.HetSites[i].Pos < d.HetSites[j].Pos })
}

// processChrom streams the variant callset over chromRange (padded by
// search_dist) exactly once and dispatches every matched variant to
// sitefinder.Evaluate for each DNM the proximity index says it's near.
func processChrom(chrom string, r ChromRange, idx *ProximityIndex, ped dnm.Pedigree, open OpenVariantSource, tun dnm.Tunables) error {
	vs, err := open()
	if err != nil {
		return err
	}
	defer vs.Close()

	sampleIdx := make(map[string]int)
	for i, s := range vs.Samples() {
		sampleIdx[s] = i
	}

	region := fmt.Sprintf("%s%s:%d-%d", vs.Prefix(), strings.TrimPrefix(chrom, "chr"),
		max(0, r.MinStart-tun.SearchDist)+1, r.MaxEnd+tun.SearchDist+1)
	it, err := vs.Query(region)
	if err != nil {
		return err
	}
	defer it.Close()

	families := make(map[string]familyInfo)
	for it.Scan() {
		v := it.Record()
		if sitefinder.IsComplexVariant(v) {
			continue
		}
		matches := idx.Query(chrom, v.Pos)
		for _, d := range matches {
			fi, ok := families[d.KidID]
			if !ok {
				fi = resolveFamilyInfo(d.KidID, ped, sampleIdx, tun.QuietMode)
				families[d.KidID] = fi
			}
			if !fi.ok {
				continue
			}
			het, cand := sitefinder.Evaluate(d, v, fi.fam, fi.kidIsMale, tun, tun.WholeRegion)
			if het != nil {
				d.HetSites = append(d.HetSites, *het)
			}
			if cand != nil {
				d.CandidateSites = append(d.CandidateSites, *cand)
			}
		}
	}
	return it.Err()
}

type familyInfo struct {
	fam       sitefinder.Family
	kidIsMale bool
	ok        bool
}

func resolveFamilyInfo(kidID string, ped dnm.Pedigree, sampleIdx map[string]int, quiet bool) familyInfo {
	fam, ok := sitefinder.ResolveFamily(kidID, ped, sampleIdx, quiet)
	if !ok {
		return familyInfo{ok: false}
	}
	entry, _ := ped.Family(kidID) // already validated present by ResolveFamily
	return familyInfo{fam: fam, kidIsMale: entry.Sex == dnm.SexMale, ok: true}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
