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

package sitequality

import (
	"testing"

	"github.com/grailbio/unfazed/dnm"
	"github.com/stretchr/testify/assert"
)

func rec(gt dnm.Genotype, ref, alt, q int) *dnm.VariantRecord {
	return &dnm.VariantRecord{
		Genotypes: []dnm.Genotype{gt},
		RefDepths: []int{ref},
		AltDepths: []int{alt},
		GTQuals:   []int{q},
	}
}

func TestUsable(t *testing.T) {
	tun := dnm.DefaultTunables()
	cases := []struct {
		name string
		v    *dnm.VariantRecord
		want bool
	}{
		{"het in band", rec(dnm.Het, 10, 10, 60), true},
		{"het out of band", rec(dnm.Het, 19, 1, 60), false},
		{"homref in band", rec(dnm.HomRef, 20, 0, 60), true},
		{"homalt in band", rec(dnm.HomAlt, 0, 20, 60), true},
		{"unknown always rejected", rec(dnm.Unknown, 20, 20, 60), false},
		{"low gt qual", rec(dnm.Het, 10, 10, 10), false},
		{"low depth", rec(dnm.Het, 2, 2, 60), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Usable(0, c.v, tun))
		})
	}
}

func TestUsableNoDivideByZeroWhenDepthGuardFails(t *testing.T) {
	tun := dnm.DefaultTunables()
	// ref+alt depth is 0 < MinDepth, so AlleleBalance must never be
	// evaluated; Usable must return false without panicking.
	assert.False(t, Usable(0, rec(dnm.Het, 0, 0, 60), tun))
}
