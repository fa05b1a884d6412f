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

// Package htsreads implements dnm.AlignmentSource over a coordinate-sorted,
// indexed BAM file (§4.14).
package htsreads

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/bgzf/index"
	"github.com/biogo/hts/sam"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/unfazed/dnm"
)

// Source is a dnm.AlignmentSource backed by path and its ".bai" index. Each
// Fetch opens its own reader seeked to the query's first chunk, so a Mate
// lookup issued while a Fetch iterator is still being scanned (both
// svsupport and grouper do this) never disturbs the in-flight iterator's
// read position.
type Source struct {
	path  string
	index *bam.Index
	refs  map[string]*sam.Reference
}

// Open opens the BAM file at path and its index at path+".bai". cramRef is
// accepted for interface symmetry with callers that may be pointed at a
// CRAM file but is otherwise unused: biogo/hts has no CRAM reader, so
// Open rejects a ".cram" path outright rather than silently mishandling it.
func Open(path, cramRef string) (*Source, error) {
	if strings.HasSuffix(path, ".cram") {
		return nil, fmt.Errorf("htsreads: CRAM input is not supported (%s)", path)
	}
	_ = cramRef

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.E(err, fmt.Sprintf("htsreads.Open: %s", path))
	}
	reader, err := bam.NewReader(f, 1)
	if err != nil {
		f.Close()
		return nil, errors.E(err, fmt.Sprintf("htsreads.Open: header of %s", path))
	}
	header := reader.Header()
	reader.Close()

	idxFile, err := os.Open(path + ".bai")
	if err != nil {
		return nil, errors.E(err, fmt.Sprintf("htsreads.Open: index of %s", path))
	}
	defer idxFile.Close()
	idx, err := bam.ReadIndex(idxFile)
	if err != nil {
		return nil, errors.E(err, fmt.Sprintf("htsreads.Open: parse index of %s", path))
	}

	refs := make(map[string]*sam.Reference, len(header.Refs()))
	for _, r := range header.Refs() {
		refs[r.Name()] = r
	}

	return &Source{path: path, index: idx, refs: refs}, nil
}

// Close implements dnm.AlignmentSource. Source holds no handle between
// calls, so this is a no-op.
func (s *Source) Close() error { return nil }

// Fetch implements dnm.AlignmentSource.
func (s *Source) Fetch(chrom string, start, end int) (dnm.ReadIterator, error) {
	ref, ok := s.refs[chrom]
	if !ok {
		return nil, fmt.Errorf("htsreads: unknown chromosome %q", chrom)
	}

	chunks, err := s.index.Chunks(ref, start, end)
	if err == index.ErrInvalid || len(chunks) == 0 {
		return &emptyIterator{}, nil
	}
	if err != nil {
		return nil, errors.E(err, fmt.Sprintf("htsreads.Fetch: index lookup %s:%d-%d", chrom, start, end))
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, errors.E(err, "htsreads.Fetch: open")
	}
	reader, err := bam.NewReader(f, 1)
	if err != nil {
		f.Close()
		return nil, errors.E(err, "htsreads.Fetch: reader")
	}
	if err := reader.Seek(chunks[0].Begin); err != nil {
		reader.Close()
		f.Close()
		return nil, errors.E(err, "htsreads.Fetch: seek")
	}

	return &iterator{f: f, reader: reader, refID: ref.ID(), start: start, end: end}, nil
}

// Mate implements dnm.AlignmentSource by re-fetching the narrow
// [MatePos, MatePos+1) window on r's mate chromosome and scanning it for a
// record with the same query name and the complementary read-in-pair flag.
// It returns (nil, nil) if no such record is found, per the Mate contract.
func (s *Source) Mate(r *dnm.Read) (*dnm.Read, error) {
	it, err := s.Fetch(r.MateChrom, r.MatePos, r.MatePos+1)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	for it.Scan() {
		cand := it.Record()
		if cand.QueryName == r.QueryName && cand.IsRead1 != r.IsRead1 {
			return cand, nil
		}
	}
	return nil, it.Err()
}

// emptyIterator is returned for a query with no reads in range.
type emptyIterator struct{}

func (emptyIterator) Scan() bool        { return false }
func (emptyIterator) Record() *dnm.Read { return nil }
func (emptyIterator) Err() error        { return nil }
func (emptyIterator) Close() error      { return nil }

// iterator adapts one Fetch's *bam.Reader to dnm.ReadIterator, converting
// each in-range sam.Record to a dnm.Read and stopping once the reader
// passes either the query's reference or its end coordinate (valid only
// for a coordinate-sorted BAM, which indexed BAM always is).
type iterator struct {
	f      *os.File
	reader *bam.Reader
	refID  int

	start, end int

	current *dnm.Read
	err     error
}

func (it *iterator) Scan() bool {
	if it.err != nil {
		return false
	}
	for {
		rec, err := it.reader.Read()
		if err != nil {
			if err != io.EOF {
				it.err = err
			}
			return false
		}
		if rec.Ref == nil || rec.Ref.ID() != it.refID {
			return false
		}
		if rec.Start() >= it.end {
			return false
		}
		if rec.End() <= it.start {
			continue
		}
		it.current = convertRecord(rec)
		return true
	}
}

func (it *iterator) Record() *dnm.Read { return it.current }
func (it *iterator) Err() error        { return it.err }

func (it *iterator) Close() error {
	err := it.reader.Close()
	if ferr := it.f.Close(); err == nil {
		err = ferr
	}
	return err
}

// convertRecord translates a sam.Record into the dnm.Read contract type,
// walking its CIGAR once to build the per-query-base reference-position
// table convertRecord's callers (readfetch.AlleleAt, svsupport) need.
func convertRecord(rec *sam.Record) *dnm.Read {
	r := &dnm.Read{
		QueryName:      rec.Name,
		Chrom:          refName(rec.Ref),
		ReferenceStart: rec.Start(),
		ReferenceEnd:   rec.End(),
		QuerySequence:  string(rec.Seq.Expand()),
		MapQ:           int(rec.MapQ),

		QCFail:        rec.Flags&sam.QCFail != 0,
		Unmapped:      rec.Flags&sam.Unmapped != 0,
		Duplicate:     rec.Flags&sam.Duplicate != 0,
		Secondary:     rec.Flags&sam.Secondary != 0,
		Supplementary: rec.Flags&sam.Supplementary != 0,
		MateUnmapped:  rec.Flags&sam.MateUnmapped != 0,
		IsRead1:       rec.Flags&sam.Read1 != 0,

		MateChrom: refName(rec.MateRef),
		MatePos:   rec.MatePos,
		TLen:      rec.TempLen,
		Tags:      make(map[string]string),
	}
	r.ReferencePositions = referencePositions(rec)
	if aux := rec.AuxFields.Get(saTag); aux != nil {
		if s, ok := aux.Value().(string); ok {
			r.Tags["SA"] = s
		}
	}
	return r
}

var saTag = sam.NewTag("SA")

func refName(ref *sam.Reference) string {
	if ref == nil {
		return ""
	}
	return ref.Name()
}

// referencePositions walks rec's CIGAR to build one entry per base of the
// query sequence, matching pysam's get_reference_positions(full_length=true):
// matched/mismatched bases get their reference coordinate, inserted and
// clipped bases get HasPos=false.
func referencePositions(rec *sam.Record) []dnm.ReferencePos {
	positions := make([]dnm.ReferencePos, 0, len(rec.Seq.Seq))
	refPos := rec.Start()
	for _, co := range rec.Cigar {
		n := co.Len()
		switch co.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			for i := 0; i < n; i++ {
				positions = append(positions, dnm.ReferencePos{Pos: refPos + i, HasPos: true})
			}
			refPos += n
		case sam.CigarInsertion, sam.CigarSoftClipped:
			for i := 0; i < n; i++ {
				positions = append(positions, dnm.ReferencePos{HasPos: false})
			}
		case sam.CigarDeletion, sam.CigarSkipped:
			refPos += n
		case sam.CigarHardClipped, sam.CigarPadded:
			// consumes neither the query sequence nor the reference
		}
	}
	return positions
}
