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

package grouper

import (
	"sort"

	"github.com/grailbio/unfazed/dnm"
)

// sitesInRange returns pointers into sorted to every HetSite whose Pos
// falls within [start, end], found by binary-searching for the lower bound
// and scanning forward — the same two-step pattern
// interval.searchPosType/fwdsearchPosType use for BEDUnion membership
// queries, adapted here to a sorted []dnm.HetSite instead of a flat
// PosType slice.
func sitesInRange(sorted []dnm.HetSite, start, end int) []*dnm.HetSite {
	lo := sort.Search(len(sorted), func(i int) bool { return sorted[i].Pos >= start })
	var out []*dnm.HetSite
	for i := lo; i < len(sorted) && sorted[i].Pos <= end; i++ {
		out = append(out, &sorted[i])
	}
	return out
}
