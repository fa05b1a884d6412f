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

// Package sitequality decides whether a single sample's genotype call at a
// variant is usable for informative-site evaluation (§4.1).
package sitequality

import "github.com/grailbio/unfazed/dnm"

// Usable evaluates sample i in variant against tun's quality thresholds.
// All of the following must hold, or the site is rejected for that sample:
//
//   - the genotype is one of HomRef/Het/HomAlt (Unknown is always rejected)
//   - gt_qual >= tun.MinGTQual
//   - ref_depth + alt_depth >= tun.MinDepth
//   - the allele balance falls within the band selected by the genotype
//
// Division by zero cannot occur: the depth check above guarantees a
// positive denominator before AlleleBalance is evaluated.
func Usable(i int, v *dnm.VariantRecord, tun dnm.Tunables) bool {
	var band dnm.ABBand
	switch v.Genotypes[i] {
	case dnm.HomRef:
		band = tun.ABHomRef
	case dnm.HomAlt:
		band = tun.ABHomAlt
	case dnm.Het:
		band = tun.ABHet
	default: // dnm.Unknown
		return false
	}
	if v.GTQuals[i] < tun.MinGTQual {
		return false
	}
	depth := v.RefDepths[i] + v.AltDepths[i]
	if depth < tun.MinDepth {
		return false
	}
	return band.Contains(v.AlleleBalance(i))
}
