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

// Package engine ties together every phasing component into the single
// entry point a caller (the CLI, or any other driver) needs: Phase (§4.11).
package engine

import (
	"context"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/unfazed/batchfinder"
	"github.com/grailbio/unfazed/dnm"
	"github.com/grailbio/unfazed/grouper"
	"github.com/grailbio/unfazed/insertest"
	"github.com/grailbio/unfazed/readfetch"
	"github.com/grailbio/unfazed/sitefinder"
	"github.com/grailbio/unfazed/svsupport"
)

// OpenVariantSource opens a fresh handle to the trio's variant callset.
// BatchFinder calls it once per chromosome worker; the single-DNM path below
// calls it once for the whole run.
type OpenVariantSource = batchfinder.OpenVariantSource

// Phase runs the full pipeline over dnms in place: site finding (direct
// parental assignment candidates and het-site bridges), then, when reads is
// non-nil, extended read-backed haplotype grouping. ctx is accepted for
// future cancellation/tracing plumbing, matching the rest of this module's
// top-level entry points; no component below currently observes it.
//
// variants may be nil only if every DNM is auto-phaseable; Phase returns an
// error if it needs a variant source and none was supplied.
func Phase(ctx context.Context, dnms []*dnm.DNM, ped dnm.Pedigree, variants OpenVariantSource, reads dnm.AlignmentSource, tun dnm.Tunables) error {
	if len(dnms) == 0 {
		return nil
	}

	processed, err := findSites(dnms, ped, variants, tun)
	if err != nil {
		return err
	}

	if reads == nil {
		return nil
	}
	return groupReads(processed, reads, tun)
}

// findSites runs step 1+2 of §4.11: dispatch to BatchFinder or SiteFinder by
// DNM count, exactly as the source's top-level find() does.
func findSites(dnms []*dnm.DNM, ped dnm.Pedigree, variants OpenVariantSource, tun dnm.Tunables) ([]*dnm.DNM, error) {
	if len(dnms) >= tun.MultithreadProcMin {
		if variants == nil {
			return nil, errors.E(fmt.Sprintf("engine.Phase: no variant source supplied for %d DNMs", len(dnms)))
		}
		processed, err := batchfinder.Find(dnms, ped, variants, tun)
		if err != nil {
			return nil, errors.E(err, "engine.Phase: batch site scan")
		}
		return processed, nil
	}
	return runSiteFinder(dnms, ped, variants, tun)
}

// runSiteFinder is the single-DNM path: one DNM at a time, each queried
// against one shared variant-source handle (opened once, unlike BatchFinder's
// one-handle-per-chromosome-worker model, since this path never fans out).
func runSiteFinder(dnms []*dnm.DNM, ped dnm.Pedigree, variants OpenVariantSource, tun dnm.Tunables) ([]*dnm.DNM, error) {
	autophased, rest := batchfinder.Partition(dnms, ped, tun.Build)
	if len(rest) == 0 {
		return autophased, nil
	}
	if variants == nil {
		return nil, errors.E(fmt.Sprintf("engine.Phase: no variant source supplied for %d DNMs", len(rest)))
	}

	vs, err := variants()
	if err != nil {
		return nil, errors.E(err, "engine.Phase: open variant source")
	}
	defer vs.Close()

	sampleIdx := make(map[string]int, len(vs.Samples()))
	for i, s := range vs.Samples() {
		sampleIdx[s] = i
	}

	for _, d := range rest {
		fam, ok := sitefinder.ResolveFamily(d.KidID, ped, sampleIdx, tun.QuietMode)
		if !ok {
			continue
		}
		entry, _ := ped.Family(d.KidID) // presence already validated by ResolveFamily
		kidIsMale := entry.Sex == dnm.SexMale

		var records []*dnm.VariantRecord
		for _, region := range sitefinder.Regions(d, tun.SearchDist, tun.WholeRegion) {
			it, err := vs.Query(vs.Prefix() + region)
			if err != nil {
				return nil, errors.E(err, fmt.Sprintf("engine.Phase: query %s", region))
			}
			for it.Scan() {
				records = append(records, it.Record())
			}
			scanErr := it.Err()
			it.Close()
			if scanErr != nil {
				return nil, errors.E(scanErr, fmt.Sprintf("engine.Phase: scan %s", region))
			}
		}
		sitefinder.Find(d, records, fam, kidIsMale, tun)
	}

	return append(rest, autophased...), nil
}

// groupReads runs step 3 of §4.11: for every non-auto-phased DNM, seed the
// Grouper with alt reads appropriate to its vartype and store the resulting
// partition. Auto-phased DNMs already carry a direct parent assignment and
// are skipped entirely, matching step 4.
func groupReads(dnms []*dnm.DNM, reads dnm.AlignmentSource, tun dnm.Tunables) error {
	fetcher := readfetch.NewFetcher(reads)

	var concordantUpperLen float64
	var haveConcordantUpperLen bool

	for _, d := range dnms {
		if d.AutoPhased {
			continue
		}

		var seeds []*dnm.Read
		var err error
		switch d.VarType {
		case dnm.DEL, dnm.DUP:
			if !haveConcordantUpperLen {
				concordantUpperLen, err = estimateConcordantUpperLen(fetcher, d.Chrom)
				if err != nil {
					return errors.E(err, "engine.Phase: insert-size estimate")
				}
				haveConcordantUpperLen = true
			}
			seeds, err = svsupport.FindSupport(fetcher, d, concordantUpperLen)
			if err != nil {
				return errors.E(err, fmt.Sprintf("engine.Phase: sv support %s:%d-%d", d.Chrom, d.Start, d.End))
			}
		default: // "" (unspecified), SNV, INDEL
			seeds, err = seedAltReads(fetcher, d)
			if err != nil {
				return errors.E(err, fmt.Sprintf("engine.Phase: seed reads %s:%d", d.Chrom, d.Start))
			}
		}
		if len(seeds) == 0 {
			continue
		}

		result, err := grouper.Group(fetcher, d.Chrom, d.HetSites, seeds, tun)
		if err != nil {
			return errors.E(err, fmt.Sprintf("engine.Phase: group %s:%d", d.Chrom, d.Start))
		}
		d.AltReads = result.Alt
		d.RefReads = result.Ref
	}
	return nil
}

// seedAltReads fetches reads spanning the DNM's own position and keeps those
// (with their mates) that carry the de novo alt allele there, the SNV/INDEL
// analog of the source's direct-classification half of collect_reads_snv.
// A DNM with no AltAllele set (the caller didn't supply one) yields no seeds
// and is left with no read-backed evidence, since there is nothing to
// classify against.
func seedAltReads(fetcher *readfetch.Fetcher, d *dnm.DNM) ([]*dnm.Read, error) {
	if d.AltAllele == "" {
		return nil, nil
	}

	it, err := fetcher.Fetch(d.Chrom, d.Start, d.Start+1)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var seeds []*dnm.Read
	for it.Scan() {
		read := it.Record()
		if !readfetch.GoodRead(read) {
			continue
		}
		mate, err := fetcher.Mate(read)
		if err != nil {
			return nil, err
		}
		allele, ok := readfetch.AlleleAt(read, mate, d.Start)
		if !ok || allele != d.AltAllele {
			continue
		}
		seeds = append(seeds, read)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return seeds, nil
}

// estimateConcordantUpperLen samples reads from chrom to feed InsertEstimator
// once per run; the source recomputes this per sample, not per DNM.
func estimateConcordantUpperLen(fetcher *readfetch.Fetcher, chrom string) (float64, error) {
	it, err := fetcher.Fetch(chrom, 0, insertSampleWindow)
	if err != nil {
		return 0, err
	}
	defer it.Close()
	return insertest.Estimate(it)
}

// insertSampleWindow bounds the region InsertEstimator samples from; it is
// intentionally generous (insertest.Estimate itself caps total reads read).
const insertSampleWindow = 1 << 28
