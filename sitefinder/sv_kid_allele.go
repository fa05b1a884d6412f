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

package sitefinder

import "github.com/grailbio/unfazed/dnm"

// InferSVKidAllele implements §4.5: whole-region kid-allele inference for
// DEL/DUP DNMs, exercised only when evaluating a variant against a
// structural-variant DNM in whole-region mode. ok is false when the variant
// at this position cannot phase the SV (reject).
func InferSVKidAllele(vartype dnm.VarType, v *dnm.VariantRecord, fam Family, tun dnm.Tunables) (dnm.ParentRole, bool) {
	switch vartype {
	case dnm.DEL:
		return inferDEL(v, fam)
	case dnm.DUP:
		return inferDUP(v, fam, tun)
	default:
		return dnm.NoParent, false
	}
}

// inferDEL: large deletions are genotyped by hemizygous inheritance — a
// HOM_ALT kid retained only the ref_parent's copy (so the variant allele
// came from the ref parent's chromosome being absent), and vice versa.
func inferDEL(v *dnm.VariantRecord, fam Family) (dnm.ParentRole, bool) {
	kidDepth := v.RefDepths[fam.KidIdx] + v.AltDepths[fam.KidIdx]
	if kidDepth <= 4 {
		return dnm.NoParent, false
	}
	switch v.Genotypes[fam.KidIdx] {
	case dnm.HomAlt:
		return dnm.RefParentRole, true
	case dnm.HomRef:
		return dnm.AltParentRole, true
	default: // Het kid: unusable
		return dnm.NoParent, false
	}
}

// inferDUP: large duplications are genotyped by unbalanced heterozygous
// inheritance when there is enough depth to see the imbalance.
func inferDUP(v *dnm.VariantRecord, fam Family, tun dnm.Tunables) (dnm.ParentRole, bool) {
	kidRef, kidAlt := v.RefDepths[fam.KidIdx], v.AltDepths[fam.KidIdx]
	if !(kidRef > 2 && kidAlt > 2 && kidRef+kidAlt >= tun.MinDepth) {
		return dnm.NoParent, false
	}
	if v.Genotypes[fam.KidIdx] != dnm.Het {
		return dnm.NoParent, false
	}
	bKid := v.AlleleBalance(fam.KidIdx)
	bDad := v.AlleleBalance(fam.DadIdx)
	bMom := v.AlleleBalance(fam.MomIdx)

	// If the parents' shared dominant allele is the duplicated one, the
	// event can't be phased this way.
	if (bDad+bMom) < 1 && bKid > 0.5 {
		return dnm.NoParent, false
	}
	if (bDad+bMom) > 1 && bKid < 0.5 {
		return dnm.NoParent, false
	}

	switch {
	case bKid >= 0.67:
		return dnm.AltParentRole, true
	case bKid <= 0.33:
		return dnm.RefParentRole, true
	default:
		return dnm.NoParent, false
	}
}
