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

// Package readfetch implements the read-level primitives shared by the
// extended read-backed phasing path (§4.8): the GoodRead quality predicate,
// a chromosome-prefix-retrying fetch wrapper, allele-at-position lookup, and
// a mate cache that avoids resolving the same mate twice.
package readfetch

import "github.com/grailbio/unfazed/dnm"

// MinMapQ is the minimum mapping quality GoodRead accepts.
const MinMapQ = 1

// GoodRead reports whether r is usable evidence: mapped, primary, not
// QC-failed or duplicate, with a mapped mate on the same chromosome.
func GoodRead(r *dnm.Read) bool {
	if r == nil {
		return false
	}
	if r.QCFail || r.Unmapped || r.Duplicate || r.Secondary || r.Supplementary {
		return false
	}
	if r.MapQ < MinMapQ {
		return false
	}
	if r.MateUnmapped {
		return false
	}
	if r.MateChrom != r.Chrom {
		return false
	}
	return true
}
