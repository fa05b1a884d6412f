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

// Package insertest estimates an upper bound on concordant fragment insert
// length (§4.7) by sampling mapped reads off an alignment source. The bound
// is used elsewhere to decide whether a discordant read pair's insert size
// is consistent with supporting a structural DNM (§4.9).
package insertest

import (
	"math"
	"sort"

	"github.com/grailbio/unfazed/dnm"
)

// maxSampledReads caps how many reads Estimate will pull off the iterator
// before stopping, so a whole-genome BAM doesn't get fully scanned just to
// estimate one number.
const maxSampledReads = 1000000

// truncatePercentile discards the longest-tailed outliers (chimeric/weird
// pairs) before computing mean/stdev, so a handful of mismapped reads can't
// blow out the concordant bound.
const truncatePercentile = 99.5

const stdevMultiplier = 3

// Estimate samples up to maxSampledReads records off it and returns
// mean + 3*stdev of |tlen - 2*readlen|, computed over the distribution with
// its top 0.5% trimmed off.
func Estimate(it dnm.ReadIterator) (float64, error) {
	deviations := make([]float64, 0, 1024)
	for count := 0; count < maxSampledReads && it.Scan(); count++ {
		r := it.Record()
		readLen := len(r.QuerySequence)
		deviations = append(deviations, math.Abs(float64(r.TLen-2*readLen)))
	}
	if err := it.Err(); err != nil {
		return 0, err
	}
	if len(deviations) == 0 {
		return 0, nil
	}

	cutoff := percentile(deviations, truncatePercentile)
	truncated := deviations[:0]
	for _, d := range deviations {
		if d <= cutoff {
			truncated = append(truncated, d)
		}
	}
	if len(truncated) == 0 {
		truncated = deviations
	}

	mean, stdev := meanStdev(truncated)
	return mean + stdevMultiplier*stdev, nil
}

// percentile returns the p-th percentile of data using linear interpolation
// between the two nearest ranks, matching numpy's default behavior.
func percentile(data []float64, p float64) float64 {
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// meanStdev returns the population mean and standard deviation (ddof=0) of
// data.
func meanStdev(data []float64) (mean, stdev float64) {
	var sum float64
	for _, v := range data {
		sum += v
	}
	mean = sum / float64(len(data))

	var sqDiffSum float64
	for _, v := range data {
		d := v - mean
		sqDiffSum += d * d
	}
	stdev = math.Sqrt(sqDiffSum / float64(len(data)))
	return mean, stdev
}
