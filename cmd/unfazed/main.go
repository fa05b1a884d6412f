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
package main

/*
unfazed assigns parent-of-origin to de novo mutations in a sequenced trio,
using nearby informative sites in the trio's variant callset and, where
reads are available, read-backed haplotype phasing.
*/

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/unfazed/dnm"
	"github.com/grailbio/unfazed/dnmlist"
	"github.com/grailbio/unfazed/engine"
	"github.com/grailbio/unfazed/htsreads"
	"github.com/grailbio/unfazed/pedigree"
	"github.com/grailbio/unfazed/vcfsource"
)

var (
	pedPath    = flag.String("ped", "", "Pedigree file path (required)")
	vcfPath    = flag.String("vcf", "", "Trio variant callset path, plain or gzip VCF (required unless every DNM auto-phases)")
	bamPath    = flag.String("bam", "", "Aligned-read source path (BAM; CRAM input is rejected); enables read-backed haplotype grouping when set")
	cramRef    = flag.String("cram-ref", "", "Reference FASTA path; accepted but unused, since CRAM input is not supported")
	out        = flag.String("out", "-", "Output TSV path; \"-\" (default) writes to stdout")
	searchDist = flag.Int("search-dist", dnm.DefaultTunables().SearchDist, "Bases upstream/downstream of a DNM to search for informative sites")
	threads    = flag.Int("threads", dnm.DefaultTunables().Threads, "BatchFinder worker count")
	build      = flag.String("build", dnm.DefaultTunables().Build, "Genome build for the pseudoautosomal-region table (\"37\" or \"38\")")
	multiMin   = flag.Int("multithread-proc-min", dnm.DefaultTunables().MultithreadProcMin, "DNM count at which to switch from the per-DNM site finder to the chromosome-batched finder")
	quiet      = flag.Bool("quiet", false, "Suppress warnings about trio members missing from the callset")
	minGTQual  = flag.Int("min-gt-qual", dnm.DefaultTunables().MinGTQual, "Minimum genotype quality for a sample call to be usable")
	minDepth   = flag.Int("min-depth", dnm.DefaultTunables().MinDepth, "Minimum ref+alt read depth for a sample call to be usable")
	noExtended = flag.Bool("no-extended", false, "Disable the read-backed closure; keep only the direct seed-read classification")
)

func unfazedUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] dnmlist.tsv\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = unfazedUsage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 1 {
		log.Fatalf("Missing positional argument (dnmlist.tsv required); please check flag syntax: '%s'", strings.Join(flag.Args(), " "))
	}
	if *pedPath == "" {
		log.Fatalf("-ped is required")
	}

	dnms, err := dnmlist.Load(flag.Arg(0))
	if err != nil {
		log.Panicf("%v", err)
	}
	ped, err := pedigree.Load(*pedPath)
	if err != nil {
		log.Panicf("%v", err)
	}

	tun := dnm.DefaultTunables()
	tun.SearchDist = *searchDist
	tun.Threads = *threads
	tun.Build = *build
	tun.MultithreadProcMin = *multiMin
	tun.QuietMode = *quiet
	tun.MinGTQual = *minGTQual
	tun.MinDepth = *minDepth
	tun.CramRef = *cramRef
	tun.NoExtended = *noExtended

	var openVariants engine.OpenVariantSource
	if *vcfPath != "" {
		openVariants = func() (dnm.VariantSource, error) { return vcfsource.Open(*vcfPath) }
	}

	var reads dnm.AlignmentSource
	if *bamPath != "" {
		src, err := htsreads.Open(*bamPath, *cramRef)
		if err != nil {
			log.Panicf("%v", err)
		}
		defer src.Close()
		reads = src
	}

	ctx := vcontext.Background()
	if err := engine.Phase(ctx, dnms, ped, openVariants, reads, tun); err != nil {
		log.Panicf("%v", err)
	}

	if err := writeReport(*out, dnms); err != nil {
		log.Panicf("%v", err)
	}
	log.Debug.Printf("exiting")
}
