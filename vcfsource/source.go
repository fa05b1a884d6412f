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

package vcfsource

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/unfazed/dnm"
	"github.com/klauspost/compress/gzip"
)

// Source is a dnm.VariantSource backed by a single VCF file, opened once
// and region-queried many times. Each Query opens its own *os.File handle
// (so concurrent BatchFinder workers, each with their own Source obtained
// via a fresh Open, never share file descriptors), and lazily records the
// byte offset of the first record seen for each chromosome so later
// queries to that same chromosome can skip straight past everything before
// it instead of rescanning from the top.
//
// The offset cache only helps plain (non-gzip) files, where file position
// is a stable byte address; for gzip input every Query decompresses from
// the start, which is the documented O(n) worst case (§4.13).
type Source struct {
	path    string
	isGzip  bool
	samples []string
	prefix  string

	mu           sync.Mutex
	chromOffsets map[string]int64
}

// Open opens path, which may be plain or gzip-compressed VCF text
// (detected by the gzip magic bytes 0x1f 0x8b), and reads just its header
// to capture sample names and the chromosome-naming prefix.
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.E(err, fmt.Sprintf("vcfsource.Open: %s", path))
	}
	defer f.Close()

	isGzip, err := sniffGzip(f)
	if err != nil {
		return nil, errors.E(err, fmt.Sprintf("vcfsource.Open: sniff %s", path))
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, errors.E(err, "vcfsource.Open: seek")
	}

	var r io.Reader = f
	if isGzip {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, errors.E(err, "vcfsource.Open: gzip header")
		}
		defer gz.Close()
		r = gz
	}

	samples, prefix, err := readHeader(bufio.NewReader(r))
	if err != nil {
		return nil, errors.E(err, fmt.Sprintf("vcfsource.Open: header of %s", path))
	}

	return &Source{
		path: path, isGzip: isGzip, samples: samples, prefix: prefix,
		chromOffsets: make(map[string]int64),
	}, nil
}

func sniffGzip(f *os.File) (bool, error) {
	var magic [2]byte
	n, err := f.Read(magic[:])
	if err != nil && err != io.EOF {
		return false, err
	}
	return n == 2 && magic[0] == 0x1f && magic[1] == 0x8b, nil
}

// readHeader consumes ##-metadata lines and the #CHROM line, returning the
// sample names (columns after FORMAT) and the chromosome-naming prefix:
// "chr" when a ##contig line names a chromosome with that prefix, else ""
// (also when the header has no ##contig lines).
func readHeader(r *bufio.Reader) (samples []string, prefix string, err error) {
	for {
		line, readErr := r.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			if strings.HasPrefix(line, "##") {
				if strings.HasPrefix(line, "##contig=<ID=chr") {
					prefix = "chr"
				}
			} else if strings.HasPrefix(line, "#CHROM") {
				fields := strings.Split(line, "\t")
				if len(fields) > 9 {
					samples = fields[9:]
				}
				return samples, prefix, nil
			} else {
				return nil, "", &ParseError{Message: "expected #CHROM header line"}
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				return nil, "", &ParseError{Message: "no #CHROM header line found"}
			}
			return nil, "", readErr
		}
	}
}

// Samples implements dnm.VariantSource.
func (s *Source) Samples() []string { return s.samples }

// Prefix implements dnm.VariantSource. The prefix is taken from the
// header's ##contig lines at Open; this source does not itself rewrite
// chromosome names.
func (s *Source) Prefix() string { return s.prefix }

// Close implements dnm.VariantSource. Source holds no long-lived file
// handle between queries, so this is a no-op.
func (s *Source) Close() error { return nil }

// Query implements dnm.VariantSource, returning variants overlapping
// region (formatted "<chrom>:<1-based-start>-<1-based-end>").
func (s *Source) Query(region string) (dnm.VariantIterator, error) {
	chrom, start, end, err := parseRegion(region)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, errors.E(err, fmt.Sprintf("vcfsource.Query: open %s", s.path))
	}

	var r io.Reader = f
	skipHeader := true
	var base int64 // file offset of the first byte the iterator reads
	if !s.isGzip {
		s.mu.Lock()
		offset, cached := s.chromOffsets[chrom]
		s.mu.Unlock()
		if cached {
			if _, err := f.Seek(offset, io.SeekStart); err != nil {
				f.Close()
				return nil, errors.E(err, "vcfsource.Query: seek")
			}
			skipHeader = false
			base = offset
		}
	} else {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, errors.E(err, "vcfsource.Query: gzip")
		}
		r = gz
	}

	br := bufio.NewReader(r)
	if skipHeader {
		if _, _, err := readHeader(br); err != nil {
			f.Close()
			return nil, err
		}
		if !s.isGzip {
			pos, err := f.Seek(0, io.SeekCurrent)
			if err != nil {
				f.Close()
				return nil, errors.E(err, "vcfsource.Query: seek")
			}
			base = pos - int64(br.Buffered())
		}
	}

	return &iterator{
		source: s, f: f, br: br,
		chrom: chrom, start: start, end: end,
		numSamples: len(s.samples),
		bytesRead:  base,
	}, nil
}

// parseRegion parses "<chrom>:<1-based-start>-<1-based-end>" into a
// 0-based half-open [start, end) interval matching VariantRecord.Pos.
func parseRegion(region string) (chrom string, start, end int, err error) {
	colon := strings.LastIndex(region, ":")
	if colon < 0 {
		return "", 0, 0, &ParseError{Message: "malformed region " + region}
	}
	chrom = region[:colon]
	rangePart := region[colon+1:]
	dash := strings.Index(rangePart, "-")
	if dash < 0 {
		return "", 0, 0, &ParseError{Message: "malformed region " + region}
	}
	startOneBased, err := strconv.Atoi(rangePart[:dash])
	if err != nil {
		return "", 0, 0, &ParseError{Message: "malformed region start in " + region}
	}
	endOneBased, err := strconv.Atoi(rangePart[dash+1:])
	if err != nil {
		return "", 0, 0, &ParseError{Message: "malformed region end in " + region}
	}
	return chrom, startOneBased - 1, endOneBased, nil
}

// iterator streams VariantRecords from one Query's opened file handle,
// filtering to records overlapping [start, end) on chrom.
type iterator struct {
	source *Source
	f      *os.File
	br     *bufio.Reader

	chrom      string
	start, end int
	numSamples int

	record    *dnm.VariantRecord
	err       error
	bytesRead int64
	recordedOffset bool
}

func (it *iterator) Scan() bool {
	for {
		line, readErr := it.br.ReadString('\n')
		consumed := int64(len(line))
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "" {
			if readErr != nil {
				it.err = ignoreEOF(readErr)
				return false
			}
			it.bytesRead += consumed
			continue
		}

		v, perr := parseLine(trimmed, it.numSamples)
		it.bytesRead += consumed
		if perr != nil {
			it.err = perr
			return false
		}

		if v.Chrom == it.chrom && !it.recordedOffset && !it.source.isGzip {
			it.source.mu.Lock()
			if _, ok := it.source.chromOffsets[it.chrom]; !ok {
				it.source.chromOffsets[it.chrom] = it.bytesRead - consumed
			}
			it.source.mu.Unlock()
			it.recordedOffset = true
		}

		if v.Chrom == it.chrom && v.Pos >= it.start && v.Pos < it.end {
			it.record = v
			return true
		}
		if readErr != nil {
			it.err = ignoreEOF(readErr)
			return false
		}
	}
}

func ignoreEOF(err error) error {
	if err == io.EOF {
		return nil
	}
	return err
}

func (it *iterator) Record() *dnm.VariantRecord { return it.record }
func (it *iterator) Err() error                 { return it.err }
func (it *iterator) Close() error                { return it.f.Close() }
