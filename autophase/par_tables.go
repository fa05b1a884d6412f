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

package autophase

import "github.com/grailbio/unfazed/interval"

// Pseudoautosomal region boundaries, 0-based closed [start, end], per the
// GRCh37 and GRCh38 reference assemblies (genome-reference-consortium PAR
// coordinates). These are not derivable from the rest of the callset; they
// are assembly constants.
var (
	grch37PAR1 = map[string][2]int{
		"X": {60000, 2699520},
		"Y": {10000, 2649520},
	}
	grch37PAR2 = map[string][2]int{
		"X": {154931043, 155260560},
		"Y": {59034049, 59363566},
	}
	grch38PAR1 = map[string][2]int{
		"X": {10000, 2781479},
		"Y": {10000, 2781479},
	}
	grch38PAR2 = map[string][2]int{
		"X": {155701382, 156030895},
		"Y": {56887902, 57217415},
	}
)

func toIntervals(m map[string][2]int) map[string][][2]int {
	out := make(map[string][][2]int, len(m))
	for chrom, iv := range m {
		out[chrom] = [][2]int{iv}
	}
	return out
}

// parUnions is a build's PAR1 and PAR2 ParSets. ParSet caches the last query
// in mutable fields, so callers always hold it behind a pointer.
type parUnions struct {
	par1, par2 *interval.ParSet
}

func newParUnions(par1, par2 map[string][2]int) parUnions {
	u1 := interval.NewParSet(toIntervals(par1))
	u2 := interval.NewParSet(toIntervals(par2))
	return parUnions{par1: &u1, par2: &u2}
}

// parUnionsByBuild holds, per supported build string, the PAR1 and PAR2
// ParSets used for membership queries.
var parUnionsByBuild = map[string]parUnions{
	"37": newParUnions(grch37PAR1, grch37PAR2),
	"38": newParUnions(grch38PAR1, grch38PAR2),
}
