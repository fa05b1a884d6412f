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

// ABBand is an inclusive (min, max) allele-balance band.
type ABBand struct {
	Min, Max float64
}

// Contains reports whether ab falls within the band, inclusive.
func (b ABBand) Contains(ab float64) bool {
	return ab >= b.Min && ab <= b.Max
}

// Tunables collects every option recognized by the core (§6). It is built
// once per run and threaded explicitly through every call — there is no
// package-level mutable configuration anywhere in this module.
type Tunables struct {
	// SearchDist (S) is the number of bases upstream/downstream around a
	// DNM to search for informative sites.
	SearchDist int
	// Threads is the number of per-chromosome BatchFinder workers; 1 means
	// sequential.
	Threads int
	// Build selects the PAR table: "37" or "38".
	Build string
	// MultithreadProcMin is the DNM-count threshold at which Find switches
	// from the per-DNM SiteFinder to the chromosome-batched BatchFinder.
	MultithreadProcMin int
	// QuietMode suppresses warnings about missing trio members.
	QuietMode bool
	// WholeRegion selects whether SiteFinder searches the whole region
	// between breakpoints (true, appropriate for SVs) or only the
	// neighborhoods around each breakpoint (false, appropriate for
	// SNVs/INDELs).
	WholeRegion bool

	ABHomRef ABBand
	ABHet    ABBand
	ABHomAlt ABBand

	MinGTQual int
	MinDepth  int

	// CramRef is the reference FASTA path for CRAM decoding, consumed only
	// by the htsreads adapter.
	CramRef string
	// NoExtended disables the Grouper's read-backed closure (§4.10); when
	// true, Grouper returns exactly its seed alt reads and an empty ref
	// set.
	NoExtended bool
}

// DefaultTunables returns the documented defaults (SPEC_FULL.md §6).
func DefaultTunables() Tunables {
	return Tunables{
		SearchDist:         5000,
		Threads:            1,
		Build:              "38",
		MultithreadProcMin: 10,
		QuietMode:          false,
		WholeRegion:        true,
		ABHomRef:           ABBand{0.0, 0.15},
		ABHet:              ABBand{0.25, 0.75},
		ABHomAlt:           ABBand{0.85, 1.0},
		MinGTQual:          20,
		MinDepth:           10,
		CramRef:            "",
		NoExtended:         false,
	}
}
