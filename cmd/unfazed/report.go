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

package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/unfazed/dnm"
)

// writeReport dumps the per-DNM phasing result as a TSV: one row per DNM,
// one column per candidate/het site count plus the auto-phased direct
// assignment, if any. It is deliberately minimal (§1's "downstream
// reporting of phased calls beyond a JSON/TSV dump" is out of scope) —
// summarizing multiple CandidateSites into one final parent-of-origin call
// is left to the caller.
func writeReport(path string, dnms []*dnm.DNM) error {
	w := os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return errors.E(err, fmt.Sprintf("writeReport: create %s", path))
		}
		defer f.Close()
		w = f
	}

	bw := bufio.NewWriter(w)
	header := []string{
		"chrom", "start", "end", "kid_id", "vartype",
		"auto_phased", "alt_parent_id", "ref_parent_id",
		"n_candidate_sites", "n_het_sites", "n_alt_reads", "n_ref_reads",
	}
	if _, err := fmt.Fprintln(bw, strings.Join(header, "\t")); err != nil {
		return errors.E(err, "writeReport: write header")
	}
	for _, d := range dnms {
		row := []string{
			d.Chrom,
			strconv.Itoa(d.Start),
			strconv.Itoa(d.End),
			d.KidID,
			string(d.VarType),
			strconv.FormatBool(d.AutoPhased),
			d.AltParentID,
			d.RefParentID,
			strconv.Itoa(len(d.CandidateSites)),
			strconv.Itoa(len(d.HetSites)),
			strconv.Itoa(len(d.AltReads)),
			strconv.Itoa(len(d.RefReads)),
		}
		if _, err := fmt.Fprintln(bw, strings.Join(row, "\t")); err != nil {
			return errors.E(err, "writeReport: write row")
		}
	}
	if err := bw.Flush(); err != nil {
		return errors.E(err, "writeReport: flush")
	}
	return nil
}
