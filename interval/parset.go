package interval

import "sort"

// PosType is this package's coordinate type.
type PosType int32

// searchPosType returns the index of x in a[], or the position where x would
// be inserted if x isn't in a (this could be len(a)).  It's exactly the same
// as sort.SearchInt(), except for PosType.
func searchPosType(a []PosType, x PosType) int {
	return sort.Search(len(a), func(i int) bool { return a[i] >= x })
}

// fwdsearchPosType checks a[idx], then a[idx + 1], then a[idx + 3], then
// a[idx + 7], etc., and then uses binary search to finish the job.  It's
// usually a better choice than searchPosType when iterating.
func fwdsearchPosType(a []PosType, x PosType, idx int) int {
	nextIncr := 1
	startIdx := idx
	endIdx := len(a)
	for idx < endIdx {
		if a[idx] >= x {
			endIdx = idx
			break
		}
		startIdx = idx + 1
		idx += nextIncr
		nextIncr *= 2
	}
	for startIdx < endIdx {
		midIdx := int(uint(startIdx+endIdx) >> 1)
		if a[midIdx] >= x {
			endIdx = midIdx
		} else {
			startIdx = midIdx + 1
		}
	}
	return startIdx
}

// ParSet is a chromosome-keyed disjoint-interval-set, used for pseudoautosomal
// region membership queries. Each chromosome's intervals are stored as a
// length-2N sequence where interval k's (0-based) start is at [2k] and end at
// [2k+1], in increasing order; this reuses standard []int32 binary search
// instead of a length-N sequence of {start, end} structs.
type ParSet struct {
	// nameMap is a chromosome-keyed map with disjoint-interval-set values.
	nameMap map[string][]PosType
	// lastChrIntervals points to the disjoint-interval-set for the most
	// recently queried chromosome. Minor performance optimization.
	lastChrIntervals []PosType
	// lastChrName is the name of the last queried chromosome. If nonempty,
	// it must be in sync with lastChrIntervals.
	lastChrName string
	// lastPosPlus1 is 1 plus the last spot-queried position.
	lastPosPlus1 PosType
	// lastIdx is searchPosType(lastChrIntervals, lastPosPlus1). Cached to
	// accelerate sequential queries.
	lastIdx int
	// isSequential is true if all queries since the last chromosome change
	// have been in order of nondecreasing position.
	isSequential bool
}

// NewParSet builds a ParSet from a small set of closed [start, end] intervals
// per chromosome. It exists for callers (such as pseudoautosomal region
// tables) that already have their handful of intervals hardcoded in Go and
// have no BED file to parse.
func NewParSet(closedIntervals map[string][][2]int) ParSet {
	u := ParSet{nameMap: make(map[string][]PosType), lastChrName: ""}
	for chrom, ivs := range closedIntervals {
		sorted := append([][2]int(nil), ivs...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i][0] < sorted[j][0] })
		flat := make([]PosType, 0, 2*len(sorted))
		for _, iv := range sorted {
			start, end := iv[0], iv[1]
			// ParSet stores half-open [start, end); PAR boundaries are
			// inclusive on both ends, so the stored end is end+1.
			flat = append(flat, PosType(start), PosType(end)+1)
		}
		u.nameMap[chrom] = flat
	}
	return u
}

// ContainsByName checks whether the (0-based) interval [pos, pos+1) is
// contained within the named chromosome's interval set.
func (u *ParSet) ContainsByName(chrName string, pos PosType) bool {
	posPlus1 := pos + 1
	if chrName != u.lastChrName {
		u.lastChrName = chrName
		u.lastChrIntervals = u.nameMap[chrName]
		// Force use of searchPosType() on the first query for a contig.
		if u.lastChrIntervals == nil {
			return false
		}
		u.lastIdx = searchPosType(u.lastChrIntervals, posPlus1)
		u.lastPosPlus1 = posPlus1
		u.isSequential = true
		return u.lastIdx&1 == 1
	}
	if u.lastChrIntervals == nil {
		return false
	}
	if u.isSequential {
		if posPlus1 >= u.lastPosPlus1 {
			u.lastIdx = fwdsearchPosType(u.lastChrIntervals, posPlus1, u.lastIdx)
			u.lastPosPlus1 = posPlus1
			return u.lastIdx&1 == 1
		}
		u.isSequential = false
	}
	return searchPosType(u.lastChrIntervals, posPlus1)&1 == 1
}
