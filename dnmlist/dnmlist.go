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

// Package dnmlist loads the caller-supplied candidate DNM list that seeds a
// run of the engine (§3's "DNM... immutable input"). The core itself never
// parses this file; only the CLI does.
package dnmlist

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

// Load parses a tab-separated DNM list with a required header naming its
// columns (order-independent). Recognized columns:
//
//	chrom   required
//	start   required, 0-based
//	end     required, 0-based exclusive
//	kid_id  required
//	vartype optional; one of SNV/INDEL/DEL/DUP, default SNV
//	ref     optional; the DNM's own reference allele
//	alt     optional; the DNM's own alternate allele
//
// Blank lines and lines starting with "#" (besides the header) are skipped.
func Load(path string) ([]*dnm.DNM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.E(err, fmt.Sprintf("dnmlist.Load: open %s", path))
	}
	defer f.Close()
	return parse(f)
}

func parse(r io.Reader) ([]*dnm.DNM, error) {
	scanner := bufio.NewScanner(r)
	col, err := readHeader(scanner)
	if err != nil {
		return nil, err
	}

	var dnms []*dnm.DNM
	lineNo := 1
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		d, err := parseRow(col, fields)
		if err != nil {
			return nil, errors.E(err, fmt.Sprintf("dnmlist: line %d", lineNo))
		}
		dnms = append(dnms, d)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.E(err, "dnmlist: scan")
	}
	return dnms, nil
}

// columns maps a recognized column name to its position in a row.
type columns map[string]int

func readHeader(scanner *bufio.Scanner) (columns, error) {
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, errors.E(err, "dnmlist: read header")
		}
		return nil, errors.E("dnmlist: empty file, expected a header line")
	}
	col := make(columns)
	for i, name := range strings.Split(strings.TrimSpace(scanner.Text()), "\t") {
		col[strings.ToLower(name)] = i
	}
	for _, required := range []string{"chrom", "start", "end", "kid_id"} {
		if _, ok := col[required]; !ok {
			return nil, errors.E(fmt.Sprintf("dnmlist: header missing required column %q", required))
		}
	}
	return col, nil
}

func parseRow(col columns, fields []string) (*dnm.DNM, error) {
	get := func(name string) (string, bool) {
		i, ok := col[name]
		if !ok || i >= len(fields) {
			return "", false
		}
		return fields[i], true
	}

	chrom, _ := get("chrom")
	kidID, _ := get("kid_id")
	if chrom == "" || kidID == "" {
		return nil, errors.E("dnmlist: chrom and kid_id must be non-empty")
	}

	startStr, _ := get("start")
	start, err := strconv.Atoi(startStr)
	if err != nil {
		return nil, errors.E(err, fmt.Sprintf("dnmlist: invalid start %q", startStr))
	}
	endStr, _ := get("end")
	end, err := strconv.Atoi(endStr)
	if err != nil {
		return nil, errors.E(err, fmt.Sprintf("dnmlist: invalid end %q", endStr))
	}

	d := &dnm.DNM{Chrom: chrom, Start: start, End: end, KidID: kidID, VarType: dnm.SNV}
	if v, ok := get("vartype"); ok && v != "" {
		d.VarType = dnm.VarType(strings.ToUpper(v))
	}
	if ref, ok := get("ref"); ok {
		d.RefAllele = ref
	}
	if alt, ok := get("alt"); ok {
		d.AltAllele = alt
	}
	return d, nil
}
