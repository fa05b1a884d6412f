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

// Package vcfsource implements dnm.VariantSource over a plain or
// gzip-compressed VCF file (§4.13).
package vcfsource

import (
	"strconv"
	"strings"

	"github.com/grailbio/unfazed/dnm"
)

// parseLine turns one tab-separated VCF data line into a VariantRecord,
// resolving per-sample genotype/depth/quality fields from the FORMAT
// column. pos is converted from VCF's 1-based to the 0-based convention
// VariantRecord uses.
func parseLine(line string, numSamples int) (*dnm.VariantRecord, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 8 {
		return nil, &ParseError{Message: "expected at least 8 columns, found " + strconv.Itoa(len(fields))}
	}

	pos, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, &ParseError{Message: "invalid POS: " + fields[1]}
	}

	v := &dnm.VariantRecord{
		Chrom: fields[0],
		Pos:   pos - 1,
		Ref:   fields[3],
		Alts:  strings.Split(fields[4], ","),
	}

	if len(fields) < 10 || numSamples == 0 {
		return v, nil
	}

	format := strings.Split(fields[8], ":")
	gtIdx, adIdx, gqIdx := -1, -1, -1
	for i, key := range format {
		switch key {
		case "GT":
			gtIdx = i
		case "AD":
			adIdx = i
		case "GQ":
			gqIdx = i
		}
	}

	sampleFields := fields[9:]
	v.Genotypes = make([]dnm.Genotype, numSamples)
	v.RefDepths = make([]int, numSamples)
	v.AltDepths = make([]int, numSamples)
	v.GTQuals = make([]int, numSamples)

	for i := 0; i < numSamples && i < len(sampleFields); i++ {
		parts := strings.Split(sampleFields[i], ":")
		if gtIdx >= 0 && gtIdx < len(parts) {
			v.Genotypes[i] = parseGenotypeCall(parts[gtIdx])
		} else {
			v.Genotypes[i] = dnm.Unknown
		}
		if adIdx >= 0 && adIdx < len(parts) {
			ref, alt := parseAD(parts[adIdx])
			v.RefDepths[i], v.AltDepths[i] = ref, alt
		}
		if gqIdx >= 0 && gqIdx < len(parts) {
			if q, err := strconv.Atoi(parts[gqIdx]); err == nil {
				v.GTQuals[i] = q
			}
		}
	}
	return v, nil
}

// parseGenotypeCall converts a VCF GT field ("0/1", "1|1", "./.", ...) to a
// Genotype. Only the first two alleles are considered; anything beyond
// biallelic HOM_REF/HET/HOM_ALT resolves to Unknown.
func parseGenotypeCall(gt string) dnm.Genotype {
	sep := "/"
	if strings.Contains(gt, "|") {
		sep = "|"
	}
	alleles := strings.Split(gt, sep)
	if len(alleles) != 2 {
		return dnm.Unknown
	}
	a, errA := strconv.Atoi(alleles[0])
	b, errB := strconv.Atoi(alleles[1])
	if errA != nil || errB != nil {
		return dnm.Unknown
	}
	switch {
	case a == 0 && b == 0:
		return dnm.HomRef
	case a != 0 && b != 0:
		return dnm.HomAlt
	default:
		return dnm.Het
	}
}

// parseAD splits an "AD" field (e.g. "12,8") into ref and (first) alt depth.
func parseAD(ad string) (ref, alt int) {
	parts := strings.Split(ad, ",")
	if len(parts) < 2 {
		return 0, 0
	}
	ref, _ = strconv.Atoi(parts[0])
	alt, _ = strconv.Atoi(parts[1])
	return ref, alt
}

// ParseError reports a malformed VCF line.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return "vcfsource: line " + strconv.Itoa(e.Line) + ": " + e.Message
}
