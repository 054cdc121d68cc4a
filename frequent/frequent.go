// Package frequent implements FrequentItems, a bounded counter that
// tracks the approximate frequencies of the most common items in a
// stream using the Misra-Gries algorithm: a fixed-size counter map that,
// whenever a new distinct key would grow past its capacity, decrements
// every live counter by one (dropping any that reach zero) and records
// the cumulative decrement as an error bound offset.
//
// This is grounded on datasketches-go's frequencies/ItemsSketch, whose
// reversePurgeItemHashMap.adjustOrPutValue / purge pair does the same
// grow-then-decrement dance with a sampled-median purge; this package
// trades that sampling for the simpler, textbook Misra-Gries rule of
// decrementing every counter by exactly one, which gives the same
// asymptotic error bound with less bookkeeping (see DESIGN.md).
package frequent

import (
	"sort"

	"github.com/greatroar/sketchkit/sketcherr"
)

// ErrorType selects which direction of estimation error GetFrequentItems
// guarantees: no false negatives (every item at or above the threshold is
// returned, possibly with some below it too) or no false positives
// (every returned item is truly at or above the threshold).
type ErrorType int

const (
	NoFalseNegatives ErrorType = iota
	NoFalsePositives
)

// Row is one entry of a GetFrequentItems result.
type Row struct {
	Key        uint64
	Estimate   int64
	UpperBound int64
	LowerBound int64
}

// FrequentItems tracks approximate frequencies of at most maxSize
// distinct keys.
type FrequentItems struct {
	maxSize      int
	counts       map[uint64]int64
	offset       int64
	streamLength int64
}

// New constructs an empty FrequentItems tracking at most maxSize distinct
// keys at a time. maxSize must be at least 1.
func New(maxSize int) *FrequentItems {
	if maxSize < 1 {
		panic("frequent: maxSize must be >= 1")
	}
	return &FrequentItems{
		maxSize: maxSize,
		counts:  make(map[uint64]int64, maxSize+1),
	}
}

// IsEmpty reports whether any key has been observed.
func (f *FrequentItems) IsEmpty() bool { return len(f.counts) == 0 }

// Nnz returns the number of distinct keys currently tracked.
func (f *FrequentItems) Nnz() int { return len(f.counts) }

// StreamLength returns the sum of every increment seen so far.
func (f *FrequentItems) StreamLength() int64 { return f.streamLength }

// GetMaxError returns the current guaranteed error bound: the true count
// of any key is at most Get(key) plus this value.
func (f *FrequentItems) GetMaxError() int64 { return f.offset }

// Get returns a lower-bound estimate of key's count: the count is never
// overstated, so an absent key returns 0.
func (f *FrequentItems) Get(key uint64) int64 { return f.counts[key] }

// UpperBound returns a guaranteed upper bound on key's true count.
func (f *FrequentItems) UpperBound(key uint64) int64 { return f.counts[key] + f.offset }

// Estimate returns the best available point estimate of key's count.
func (f *FrequentItems) Estimate(key uint64) int64 { return f.counts[key] + f.offset }

// Increment records one occurrence of key.
func (f *FrequentItems) Increment(key uint64) error { return f.IncrementBy(key, 1) }

// IncrementBy records delta occurrences of key. delta must be positive.
func (f *FrequentItems) IncrementBy(key uint64, delta int64) error {
	if delta <= 0 {
		return sketcherr.New("FrequentItems.IncrementBy", sketcherr.InvalidArgument)
	}
	f.streamLength += delta
	f.counts[key] += delta
	for len(f.counts) > f.maxSize {
		f.decrementAll()
	}
	return nil
}

// decrementAll implements the Misra-Gries purge: every live counter loses
// one, counters that reach zero are dropped, and the cumulative loss is
// tracked in offset so error bounds stay sound.
func (f *FrequentItems) decrementAll() {
	for k, v := range f.counts {
		if v <= 1 {
			delete(f.counts, k)
		} else {
			f.counts[k] = v - 1
		}
	}
	f.offset++
}

// DecrementAll advances offset by d and subtracts d from every live
// counter, dropping any that fall to or below zero. Unlike the
// capacity-driven purge IncrementBy and Union perform internally (which
// always subtracts exactly one), this lets a caller apply an arbitrary
// exogenous decay of d.
func (f *FrequentItems) DecrementAll(d int64) {
	if d <= 0 {
		return
	}
	for k, v := range f.counts {
		if v <= d {
			delete(f.counts, k)
		} else {
			f.counts[k] = v - d
		}
	}
	f.offset += d
}

// Reset clears all counters.
func (f *FrequentItems) Reset() {
	f.counts = make(map[uint64]int64, f.maxSize+1)
	f.offset = 0
	f.streamLength = 0
}

// Union merges g's counters into f using the same repeated-decrement
// rule IncrementBy uses to stay within maxSize, so the merged sketch's
// error bound remains valid for both input streams.
func (f *FrequentItems) Union(g *FrequentItems) error {
	if g == nil {
		return nil
	}
	f.offset += g.offset
	f.streamLength += g.streamLength
	for k, v := range g.counts {
		f.counts[k] += v
	}
	for len(f.counts) > f.maxSize {
		f.decrementAll()
	}
	return nil
}

// GetFrequentItems returns every key whose estimated frequency is at
// least GetMaxError(), the same default threshold datasketches'
// ItemsSketch.GetFrequentItems uses, in descending order of estimate.
func (f *FrequentItems) GetFrequentItems(et ErrorType) []Row {
	return f.GetFrequentItemsWithThreshold(f.GetMaxError(), et)
}

// GetFrequentItemsWithThreshold returns every key qualifying at the
// given threshold (raised to GetMaxError() if lower), in descending order
// of estimate. With NoFalseNegatives, a key qualifies if its upper bound
// reaches the threshold (no real heavy hitter is missed, at the cost of
// possibly including some that aren't). With NoFalsePositives, a key
// qualifies only if its lower bound does (every returned key is a true
// heavy hitter, at the cost of possibly missing some).
func (f *FrequentItems) GetFrequentItemsWithThreshold(threshold int64, et ErrorType) []Row {
	if t := f.GetMaxError(); t > threshold {
		threshold = t
	}
	var rows []Row
	for k, v := range f.counts {
		ub := v + f.offset
		lb := v
		qualifies := ub >= threshold
		if et == NoFalsePositives {
			qualifies = lb >= threshold
		}
		if qualifies {
			rows = append(rows, Row{Key: k, Estimate: v + f.offset, UpperBound: ub, LowerBound: lb})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Estimate > rows[j].Estimate })
	return rows
}
