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

import (
	"testing"

	"github.com/grailbio/unfazed/dnm"
	"github.com/stretchr/testify/assert"
)

func TestAutoPhaseableSexAndChrom(t *testing.T) {
	// Female kid on Y is never auto-phaseable.
	assert.False(t, AutoPhaseable("chrY", 10_000_000, dnm.SexFemale, "38"))
	// Autosome is never auto-phaseable regardless of sex.
	assert.False(t, AutoPhaseable("chr1", 10_000_000, dnm.SexMale, "38"))
	// Male kid, Y, build 38, well outside PAR -> auto-phaseable, dad.
	assert.True(t, AutoPhaseable("chrY", 10_000_000, dnm.SexMale, "38"))
	assert.True(t, AssignedParent("chrY"))
	// Male kid, X, build 38, well outside PAR -> auto-phaseable, mom.
	assert.True(t, AutoPhaseable("chrX", 50_000_000, dnm.SexMale, "38"))
	assert.False(t, AssignedParent("chrX"))
}

func TestAutoPhaseableChromPrefixAndCase(t *testing.T) {
	assert.True(t, AutoPhaseable("Y", 10_000_000, dnm.SexMale, "38"))
	assert.True(t, AutoPhaseable("chrY", 10_000_000, dnm.SexMale, "38"))
	assert.True(t, AutoPhaseable("CHRY", 10_000_000, dnm.SexMale, "38"))
}

func TestAutoPhaseableUnknownBuildFallsThrough(t *testing.T) {
	assert.False(t, AutoPhaseable("chrY", 10_000_000, dnm.SexMale, "19"))
}

func TestAutoPhaseablePARBoundaryInclusive(t *testing.T) {
	// GRCh38 PAR1 on X is [10000, 2781479], inclusive both ends.
	assert.False(t, AutoPhaseable("chrX", 10_000, dnm.SexMale, "38"))
	assert.False(t, AutoPhaseable("chrX", 2_781_479, dnm.SexMale, "38"))
	// Just inside the boundary is still PAR.
	assert.False(t, AutoPhaseable("chrX", 10_001, dnm.SexMale, "38"))
	// Just past either edge is outside PAR1.
	assert.True(t, AutoPhaseable("chrX", 9_999, dnm.SexMale, "38"))
	assert.True(t, AutoPhaseable("chrX", 2_781_480, dnm.SexMale, "38"))
}

func TestAutoPhaseablePAR2(t *testing.T) {
	assert.False(t, AutoPhaseable("chrX", 155_701_382, dnm.SexMale, "38"))
	assert.False(t, AutoPhaseable("chrX", 156_030_895, dnm.SexMale, "38"))
	assert.True(t, AutoPhaseable("chrX", 156_030_896, dnm.SexMale, "38"))
}

func TestAutoPhaseableBuild37(t *testing.T) {
	assert.False(t, AutoPhaseable("chrY", 10_000, dnm.SexMale, "37"))
	assert.True(t, AutoPhaseable("chrY", 3_000_000, dnm.SexMale, "37"))
}
