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

import (
	"github.com/grailbio/base/log"
	"github.com/grailbio/unfazed/dnm"
)

// ResolveFamily looks up kidID's trio in ped and maps each member to its
// index in sampleIdx (as produced from a VariantSource's Samples() list).
// ok is false, and a one-line warning is logged unless quiet, when the
// pedigree entry or any of the three samples is missing.
func ResolveFamily(kidID string, ped dnm.Pedigree, sampleIdx map[string]int, quiet bool) (Family, bool) {
	entry, found := ped.Family(kidID)
	if !found {
		if !quiet {
			log.Error.Printf("%s missing from pedigree", kidID)
		}
		return Family{}, false
	}
	kidIdx, kidOK := sampleIdx[kidID]
	dadIdx, dadOK := sampleIdx[entry.DadID]
	momIdx, momOK := sampleIdx[entry.MomID]
	if !kidOK || !dadOK || !momOK {
		if !quiet {
			log.Error.Printf("%s missing from variant callset", kidID)
		}
		return Family{}, false
	}
	return Family{
		KidIdx: kidIdx, DadIdx: dadIdx, MomIdx: momIdx,
		DadID: entry.DadID, MomID: entry.MomID,
	}, true
}
