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

// Package dnm defines the data model shared by every phasing component:
// the DNM record itself, the genotype enum, and the two external-source
// contracts (VariantSource, AlignmentSource) the core consumes without
// ever depending on a concrete VCF or BAM library.
package dnm

// VarType classifies the kind of de novo event. Only DEL and DUP enable
// structural-variant-specific phasing (whole-region kid-allele inference and
// split/discordant/clipped read support); all other values are treated as a
// small event for the purposes of SiteFinder's point-candidate mode.
type VarType string

const (
	SNV   VarType = "SNV"
	INDEL VarType = "INDEL"
	DEL   VarType = "DEL"
	DUP   VarType = "DUP"
)

// Genotype is the sum type for a sample's call at a site.
type Genotype int

const (
	HomRef Genotype = iota
	Het
	HomAlt
	Unknown
)

// ParentRole identifies which trio member a CandidateSite's allele was
// attributed to.
type ParentRole int

const (
	// NoParent is the zero value: no kid_allele has been assigned yet.
	NoParent ParentRole = iota
	AltParentRole
	RefParentRole
)

// CandidateSite is a locus whose trio genotypes let the phaser attribute the
// DNM to one parent (§3, CandidateSite).
type CandidateSite struct {
	Pos         int
	RefAllele   string
	AltAllele   string
	AltParentID string
	RefParentID string
	// KidAllele is set only for SV-phaseable DNMs (DEL/DUP) evaluated in
	// whole-region mode; NoParent otherwise, and in that case the child is
	// required to be HET at the site.
	KidAllele ParentRole
}

// HetSite is a locus where the child is heterozygous and both parents are
// high quality; used as a bridge for extended read-backed phasing (§3).
type HetSite struct {
	Pos       int
	RefAllele string
	AltAllele string
}

// DNM is a candidate de novo mutation. It is created by the caller, then
// enriched in place by SiteFinder/BatchFinder (CandidateSites, HetSites),
// then consumed by the read-backed grouper.
//
// DNM is always passed and stored by pointer: BatchFinder's proximity index
// attributes a matched variant back to the exact DNM value it was built
// from, rather than re-deriving a (chrom, start) key that may not uniquely
// identify it (see DESIGN.md's resolution of the source's end-keying
// ambiguity).
type DNM struct {
	Chrom   string
	Start   int
	End     int
	KidID   string
	VarType VarType // "" if unspecified; only DEL/DUP trigger SV-specific rules

	// RefAllele/AltAllele are the DNM's own called alleles, supplied by the
	// caller alongside chrom/start/end/kid_id/vartype (the input DNM list
	// carries these the same way it carries vartype; see read_collector.py's
	// collect_reads_snv(ref, alt, ...) signature). Only consulted for
	// SNV/INDEL read-backed seeding: engine.Phase uses AltAllele to classify
	// which reads overlapping Start carry the de novo allele. Left zero-value
	// for DEL/DUP, which seed from structural-variant support reads instead.
	RefAllele string
	AltAllele string

	CandidateSites []CandidateSite
	HetSites       []HetSite

	// AltParentID/RefParentID are set directly for auto-phaseable DNMs
	// (§4.2), bypassing CandidateSites entirely.
	AutoPhased  bool
	AltParentID string
	RefParentID string

	// AltReads/RefReads hold the Grouper's extended read-backed haplotype
	// partition (§4.10): reads sharing the DNM's own haplotype and those on
	// the other one, respectively. Nil for auto-phased DNMs and whenever no
	// AlignmentSource was supplied to the run. Unlike AltParentID/RefParentID,
	// this partition identifies a haplotype, not a named parent; mapping a
	// haplotype back to a specific parent is downstream reporting, out of
	// scope here.
	AltReads []*Read
	RefReads []*Read
}

// SmallEvent reports whether the DNM is small enough that a variant
// positioned strictly inside [Start, End) must be excluded from candidate
// sites (I3).
func (d *DNM) SmallEvent() bool {
	return d.End-d.Start < 20
}

// Sex is a kid's pedigree sex, used by AutoPhaser's sex-chromosome rules.
type Sex int

const (
	SexUnknown Sex = iota
	SexMale
	SexFemale
)

// FamilyEntry is one trio's pedigree record: a kid's parents and sex.
type FamilyEntry struct {
	KidID string
	DadID string
	MomID string
	Sex   Sex
}

// Pedigree looks up a kid's trio membership and sex. Implementations are
// read-only for the lifetime of a run (§3, Lifecycle).
type Pedigree interface {
	Family(kidID string) (FamilyEntry, bool)
}
