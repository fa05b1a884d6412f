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

// Package parentassign decides, from trio genotypes at a candidate site,
// which parent carries the alternate allele (§4.3).
package parentassign

import "github.com/grailbio/unfazed/dnm"

// Assign applies the rule ladder in order, returning the first matching
// rule's (altParent, refParent) role assignment. ok is false if no rule
// matches.
//
//  1. dad in {HET, HOM_ALT} and mom == HOM_REF -> alt=dad, ref=mom
//  2. mom in {HET, HOM_ALT} and dad == HOM_REF -> alt=mom, ref=dad
//  3. mom == HET and dad == HOM_ALT            -> alt=dad, ref=mom
//  4. dad == HET and mom == HOM_ALT            -> alt=mom, ref=dad
func Assign(dadGT, momGT dnm.Genotype) (altIsDad bool, ok bool) {
	dadAltish := dadGT == dnm.Het || dadGT == dnm.HomAlt
	momAltish := momGT == dnm.Het || momGT == dnm.HomAlt
	switch {
	case dadAltish && momGT == dnm.HomRef:
		return true, true
	case momAltish && dadGT == dnm.HomRef:
		return false, true
	case momGT == dnm.Het && dadGT == dnm.HomAlt:
		return true, true
	case dadGT == dnm.Het && momGT == dnm.HomAlt:
		return false, true
	default:
		return false, false
	}
}

// HemizygousKidUnique applies the hemizygous-kid filter: when the kid is
// HOM_REF or HOM_ALT and one parent is HET while the other is homozygous,
// the site is only usable if the kid's homozygous call does NOT match the
// homozygous parent's call (otherwise the inherited allele is not uniquely
// attributable). Returns true (usable) when the kid is HET, since the
// filter only applies to a hemizygous kid call.
func HemizygousKidUnique(kidGT, dadGT, momGT dnm.Genotype) bool {
	if kidGT != dnm.HomRef && kidGT != dnm.HomAlt {
		return true
	}
	parents := [2]dnm.Genotype{dadGT, momGT}
	hasHet := parents[0] == dnm.Het || parents[1] == dnm.Het
	hasHom := parents[0] == dnm.HomRef || parents[0] == dnm.HomAlt ||
		parents[1] == dnm.HomRef || parents[1] == dnm.HomAlt
	if !(hasHet && hasHom) {
		return true
	}
	for _, pgt := range parents {
		if (pgt == dnm.HomRef || pgt == dnm.HomAlt) && pgt == kidGT {
			return false
		}
	}
	return true
}
