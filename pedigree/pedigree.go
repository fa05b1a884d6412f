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

// Package pedigree loads a PLINK-style .ped/.fam file into a dnm.Pedigree
// (§4.12).
package pedigree

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/unfazed/dnm"
)

// Map is a dnm.Pedigree backed by an in-memory lookup table.
type Map map[string]dnm.FamilyEntry

// Family implements dnm.Pedigree.
func (m Map) Family(kidID string) (dnm.FamilyEntry, bool) {
	e, ok := m[kidID]
	return e, ok
}

// Load parses a six-column .ped-style file (family_id, kid_id, dad_id,
// mom_id, sex, phenotype), whitespace-separated, one family member per
// line. Lines starting with "#" and blank lines are skipped. dad_id/mom_id
// of "0" (PLINK's "unknown parent" sentinel) are kept as-is; they simply
// fail sample-presence checks downstream, per §7's missing-sample handling.
func Load(path string) (Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.E(err, fmt.Sprintf("pedigree.Load: open %s", path))
	}
	defer f.Close()
	return parse(f)
}

func parse(r io.Reader) (Map, error) {
	m := make(Map)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 5 {
			return nil, errors.E(fmt.Sprintf("pedigree: line %d: expected at least 5 columns, got %d", lineNo, len(fields)))
		}
		kidID, dadID, momID := fields[1], fields[2], fields[3]
		sex, err := parseSex(fields[4])
		if err != nil {
			return nil, errors.E(err, fmt.Sprintf("pedigree: line %d", lineNo))
		}
		m[kidID] = dnm.FamilyEntry{KidID: kidID, DadID: dadID, MomID: momID, Sex: sex}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.E(err, "pedigree: scan")
	}
	return m, nil
}

func parseSex(field string) (dnm.Sex, error) {
	code, err := strconv.Atoi(field)
	if err != nil {
		return dnm.SexUnknown, errors.E(err, fmt.Sprintf("pedigree: invalid sex code %q", field))
	}
	switch code {
	case 1:
		return dnm.SexMale, nil
	case 2:
		return dnm.SexFemale, nil
	default:
		return dnm.SexUnknown, nil
	}
}
