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

package dnm

// VariantRecord is the external variant-callset contract (§3, §6). Fields
// are evaluated per-sample, where sample order matches the index a
// VariantSource assigns via Samples().
type VariantRecord struct {
	Chrom string
	Pos   int // 0-based
	Ref   string
	Alts  []string

	Genotypes []Genotype
	RefDepths []int
	AltDepths []int
	GTQuals   []int
}

// AlleleBalance returns alt_depth / (ref_depth + alt_depth) for sample i.
// The caller must ensure the denominator is nonzero.
func (v *VariantRecord) AlleleBalance(i int) float64 {
	return float64(v.AltDepths[i]) / float64(v.RefDepths[i]+v.AltDepths[i])
}

// VariantIterator streams VariantRecords from a region query, in the style
// of grailbio/bio/encoding/bamprovider.Iterator.
type VariantIterator interface {
	// Scan advances to the next record, returning false at end of stream or
	// on error (check Err to distinguish the two).
	Scan() bool
	// Record returns the most recently scanned record. Only valid after a
	// Scan call that returned true.
	Record() *VariantRecord
	// Err returns the first error encountered, if any.
	Err() error
	// Close releases resources held by the iterator.
	Close() error
}

// VariantSource is the external variant-callset contract (§6). A
// VariantSource is opened once and region-queried many times; it must be
// safe to hold a single instance per worker goroutine but need not be safe
// for concurrent use by multiple goroutines.
type VariantSource interface {
	// Query returns an iterator over variants overlapping region, which is
	// formatted "<chrom>:<1-based-start>-<1-based-end>".
	Query(region string) (VariantIterator, error)
	// Samples returns the sample ids in VariantRecord genotype-array order.
	Samples() []string
	// Prefix returns "chr" if the source's chromosome names carry that
	// prefix, else "".
	Prefix() string
	Close() error
}

// Read is the external alignment contract (§3, §6).
type Read struct {
	QueryName string
	Chrom     string
	// ReferenceStart/End are the half-open [start, end) reference interval
	// the read's CIGAR consumes.
	ReferenceStart int
	ReferenceEnd   int
	// ReferencePositions has one entry per query-sequence base; gapped
	// (soft-clipped/inserted) bases are represented by HasPos=false, the
	// analog of pysam's get_reference_positions(full_length=True) None
	// entries.
	ReferencePositions []ReferencePos
	QuerySequence      string
	MapQ               int

	QCFail        bool
	Unmapped      bool
	Duplicate     bool
	Secondary     bool
	Supplementary bool
	MateUnmapped  bool
	// IsRead1 is true for the first segment of a pair, false for the second;
	// it distinguishes a read from its mate when both share a query name.
	IsRead1 bool

	MateChrom string
	// MatePos is the mate's 0-based reference start, as reported by this
	// read's own record (not read from the mate itself).
	MatePos int
	// TLen is the observed template (insert) length, signed.
	TLen int
	Tags map[string]string // e.g. Tags["SA"] for split-read tag
}

// ReferencePos is one entry of Read.ReferencePositions.
type ReferencePos struct {
	Pos    int
	HasPos bool
}

// ReadIterator streams Reads from a region fetch.
type ReadIterator interface {
	Scan() bool
	Record() *Read
	Err() error
	Close() error
}

// AlignmentSource is the external alignment contract (§6).
type AlignmentSource interface {
	// Fetch returns reads overlapping the half-open [start, end) interval
	// on chrom, or an error for a chromosome name the source does not
	// know; readfetch.Fetcher retries such a fetch with the flipped
	// "chr"-prefix convention.
	Fetch(chrom string, start, end int) (ReadIterator, error)
	// Mate returns r's mate, or nil if it cannot be resolved (§7: "Mate
	// unresolvable -> drop the read; continue" is the caller's
	// responsibility, not an error from Mate).
	Mate(r *Read) (*Read, error)
	Close() error
}
