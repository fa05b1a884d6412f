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

// Package grouper implements the extended read-backed haplotype grouper
// (§4.10): starting from a DNM's seed alt reads, it walks het-site bridges
// to assign additional reads to the alt or ref haplotype.
package grouper

import (
	"github.com/grailbio/unfazed/dnm"
	"github.com/grailbio/unfazed/readfetch"
)

// Haplotype is which chromosomal copy a grouped read was assigned to.
type Haplotype int

const (
	Ref Haplotype = iota
	Alt
)

func (h Haplotype) other() Haplotype {
	if h == Alt {
		return Ref
	}
	return Alt
}

// ExtendedReadGoal bounds how many reads are inspected per het site when
// building the seed index (§4.10, Step 1).
const ExtendedReadGoal = 100

// Result is the grouper's output: two disjoint read sets, each flattened to
// [read, mate, read, mate, ...] in assignment order.
type Result struct {
	Alt []*dnm.Read
	Ref []*dnm.Read
}

type readPair struct {
	read, mate *dnm.Read
}

// pendingAssignment is one entry of the explicit work queue Step 3
// processes, replacing the source's recursive closure (§9).
type pendingAssignment struct {
	name      string
	foundPos  int
	haplotype Haplotype
}

// Group runs the three-step closure described in §4.10 over altReads (the
// DNM's seed alt-haplotype reads) and hetSites (sorted by Pos). If
// tun.NoExtended is set, it returns exactly altReads as Alt and an empty
// Ref, performing no fetching at all (G2's round-trip property).
func Group(fetcher *readfetch.Fetcher, chrom string, hetSites []dnm.HetSite, altReads []*dnm.Read, tun dnm.Tunables) (Result, error) {
	if tun.NoExtended {
		return Result{Alt: altReads}, nil
	}

	readSites := make(map[string][]*dnm.HetSite)
	siteReads := make(map[int][]string)
	fetchedReads := make(map[string]readPair)

	if err := buildSeedIndex(fetcher, chrom, hetSites, readSites, siteReads, fetchedReads); err != nil {
		return Result{}, err
	}

	grouped := make(map[string]Haplotype)
	var order []string
	queue := seedAltReads(fetcher, altReads, hetSites, readSites, siteReads, fetchedReads, grouped, &order)

	closeGroups(queue, grouped, readSites, siteReads, fetchedReads, &order)

	return flatten(order, grouped, fetchedReads), nil
}

// buildSeedIndex is Step 1: for each het site, fetch up to ExtendedReadGoal
// reads spanning [pos, pos+1] and keep the ones forming a usable pair.
func buildSeedIndex(
	fetcher *readfetch.Fetcher,
	chrom string,
	hetSites []dnm.HetSite,
	readSites map[string][]*dnm.HetSite,
	siteReads map[int][]string,
	fetchedReads map[string]readPair,
) error {
	for i := range hetSites {
		site := &hetSites[i]
		it, err := fetcher.Fetch(chrom, site.Pos, site.Pos+1)
		if err != nil {
			return err
		}
		for count := 0; it.Scan(); count++ {
			if count >= ExtendedReadGoal {
				continue
			}
			read := it.Record()
			if !readfetch.GoodRead(read) {
				continue
			}
			mate, merr := fetcher.Mate(read)
			if merr != nil || !readfetch.GoodRead(mate) {
				continue
			}
			if readfetch.MateIntervalsOverlap(read, mate) {
				continue
			}
			readSites[read.QueryName] = append(readSites[read.QueryName], site)
			siteReads[site.Pos] = append(siteReads[site.Pos], read.QueryName)
			fetchedReads[read.QueryName] = readPair{read: read, mate: mate}
		}
		scanErr := it.Err()
		it.Close()
		if scanErr != nil {
			return scanErr
		}
	}
	return nil
}

// seedAltReads is Step 2: every initial alt read is placed in the alt
// haplotype under sentinel position -1, and its het-site span is indexed
// via binary search over hetSites.
func seedAltReads(
	fetcher *readfetch.Fetcher,
	altReads []*dnm.Read,
	hetSites []dnm.HetSite,
	readSites map[string][]*dnm.HetSite,
	siteReads map[int][]string,
	fetchedReads map[string]readPair,
	grouped map[string]Haplotype,
	order *[]string,
) []pendingAssignment {
	var queue []pendingAssignment
	for _, read := range altReads {
		if _, already := grouped[read.QueryName]; !already {
			grouped[read.QueryName] = Alt
			*order = append(*order, read.QueryName)
		}
		queue = append(queue, pendingAssignment{name: read.QueryName, foundPos: -1, haplotype: Alt})

		mate, err := fetcher.Mate(read)
		if err != nil || mate == nil {
			continue
		}
		fetchedReads[read.QueryName] = readPair{read: read, mate: mate}

		for _, site := range sitesInRange(hetSites, read.ReferenceStart, read.ReferenceEnd) {
			readSites[read.QueryName] = append(readSites[read.QueryName], site)
			siteReads[site.Pos] = append(siteReads[site.Pos], read.QueryName)
		}
	}
	return queue
}

// closeGroups is Step 3: the explicit-work-queue closure over het-site
// bridges. finder_allele/non_finder_allele bookkeeping follows §4.10
// exactly; site.Pos (not a loop-carried variable from an outer scope) is
// used to key site_reads, resolving the stale-reference bug flagged in §9.
func closeGroups(
	queue []pendingAssignment,
	grouped map[string]Haplotype,
	readSites map[string][]*dnm.HetSite,
	siteReads map[int][]string,
	fetchedReads map[string]readPair,
	order *[]string,
) {
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		pair, ok := fetchedReads[item.name]
		if !ok {
			continue
		}

		for _, site := range readSites[item.name] {
			if site.Pos == item.foundPos {
				continue
			}
			finderAllele, ok := readfetch.AlleleAt(pair.read, pair.mate, site.Pos)
			if !ok {
				continue
			}
			var nonFinderAllele string
			switch finderAllele {
			case site.RefAllele:
				nonFinderAllele = site.AltAllele
			case site.AltAllele:
				nonFinderAllele = site.RefAllele
			default:
				continue
			}

			for _, otherName := range siteReads[site.Pos] {
				if _, assigned := grouped[otherName]; assigned {
					continue
				}
				otherPair, ok := fetchedReads[otherName]
				if !ok {
					continue
				}
				otherAllele, ok := readfetch.AlleleAt(otherPair.read, otherPair.mate, site.Pos)
				if !ok {
					continue
				}

				switch otherAllele {
				case finderAllele:
					grouped[otherName] = item.haplotype
					*order = append(*order, otherName)
					queue = append(queue, pendingAssignment{name: otherName, foundPos: site.Pos, haplotype: item.haplotype})
				case nonFinderAllele:
					h := item.haplotype.other()
					grouped[otherName] = h
					*order = append(*order, otherName)
					queue = append(queue, pendingAssignment{name: otherName, foundPos: site.Pos, haplotype: h})
				}
			}
		}
	}
}

// flatten emits each haplotype's reads in assignment order, [read, mate,
// read, mate, ...], skipping any seed whose mate was never resolved (the
// analog of the source's "name not in fetched_reads" skip).
func flatten(order []string, grouped map[string]Haplotype, fetchedReads map[string]readPair) Result {
	var result Result
	for _, name := range order {
		pair, ok := fetchedReads[name]
		if !ok {
			continue
		}
		reads := []*dnm.Read{pair.read}
		if pair.mate != nil {
			reads = append(reads, pair.mate)
		}
		switch grouped[name] {
		case Alt:
			result.Alt = append(result.Alt, reads...)
		case Ref:
			result.Ref = append(result.Ref, reads...)
		}
	}
	return result
}
