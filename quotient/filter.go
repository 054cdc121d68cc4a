// Package quotient implements QuotientFilter, a bit-packed
// fingerprint/quotient set filter supporting insert, lookup, delete and
// doubling expansion.
//
// There is no quotient filter anywhere in the retrieval pack to ground
// this package on directly; the bit-packed slot storage is built on
// bitset.BitArray's GetBits/SetBits (C2), grounded the same way
// bloom.Filter grounds its own bit manipulation, and the overall package
// shape (doc-comment density, Filter/Config naming, panic-on-
// construction-misuse) follows blobloom's bloomfilter.go. The run/cluster
// insert-with-shift-repair and delete-with-shift-repair algorithms
// implement the classical quotient filter design (Bender et al., "Don't
// Thrash: How to Cache Your Hash"), the same algorithm the Wikipedia
// "Quotient filter" article's worked example walks through slot by slot.
package quotient

import (
	"github.com/greatroar/sketchkit/bitset"
	"github.com/greatroar/sketchkit/hash"
	"github.com/greatroar/sketchkit/sketcherr"
)

// Filter is a quotient filter: a bit-packed array of numSlots slots, each
// bitsPerSlot = fingerprintBits+3 bits wide (3 metadata bits plus the
// fingerprint).
type Filter struct {
	lgNumSlots      uint8
	fingerprintBits uint8
	slots           *bitset.BitArray
	numEntries      uint64
	numExpansions   uint32
	maxLoadFactor   float64
	seed            uint64
}

// New constructs an empty quotient filter with 1<<lgNumSlots slots, each
// holding a fingerprintBits-bit fingerprint. lgNumSlots must be in
// [1, 31], fingerprintBits in [1, 63], their sum at most 64 (the width of
// the hash each key is split from), and maxLoadFactor in (0, 1].
//
// These are caller-supplied constants checked at construction time, so
// violations panic rather than return an error, the same convention
// bloom.New uses.
func New(lgNumSlots, fingerprintBits uint8, maxLoadFactor float64, seed uint64) *Filter {
	if lgNumSlots < 1 || lgNumSlots > 31 {
		panic("quotient: lgNumSlots must be in [1, 31]")
	}
	if fingerprintBits < 1 || fingerprintBits > 63 {
		panic("quotient: fingerprintBits must be in [1, 63]")
	}
	if int(lgNumSlots)+int(fingerprintBits) > 64 {
		panic("quotient: lgNumSlots + fingerprintBits must be <= 64")
	}
	if maxLoadFactor <= 0 || maxLoadFactor > 1 {
		panic("quotient: maxLoadFactor must be in (0, 1]")
	}
	numSlots := uint64(1) << lgNumSlots
	bitsPerSlot := uint64(fingerprintBits) + 3
	return &Filter{
		lgNumSlots:      lgNumSlots,
		fingerprintBits: fingerprintBits,
		slots:           bitset.New(numSlots * bitsPerSlot),
		maxLoadFactor:   maxLoadFactor,
		seed:            seed,
	}
}

// NewBySize constructs a quotient filter sized from an expected number of
// distinct keys and a target false positive probability, using the
// sizing advisor formulae of §4.4.5.
func NewBySize(numDistinct uint64, maxLoadFactor, fpp float64, seed uint64) (*Filter, error) {
	lg, fb, err := SuggestParamsFromMaxDistinctsFPP(numDistinct, maxLoadFactor, fpp)
	if err != nil {
		return nil, err
	}
	return New(lg, fb, maxLoadFactor, seed), nil
}

// NumSlots returns 1<<lgNumSlots, the current table size.
func (f *Filter) NumSlots() uint64 { return uint64(1) << f.lgNumSlots }

// LgNumSlots returns the current table size's power-of-two exponent.
func (f *Filter) LgNumSlots() uint8 { return f.lgNumSlots }

// FingerprintBits returns the current fingerprint width.
func (f *Filter) FingerprintBits() uint8 { return f.fingerprintBits }

// NumEntries returns the number of stored (quotient, fingerprint) pairs.
func (f *Filter) NumEntries() uint64 { return f.numEntries }

// NumExpansions returns how many times the table has doubled.
func (f *Filter) NumExpansions() uint32 { return f.numExpansions }

func (f *Filter) bitsPerSlot() uint64 { return uint64(f.fingerprintBits) + 3 }

func (f *Filter) base(slot uint64) uint64 { return slot * f.bitsPerSlot() }

func (f *Filter) getOccupied(slot uint64) bool {
	v, _ := f.slots.GetBit(f.base(slot))
	return v
}

func (f *Filter) setOccupied(slot uint64, v bool) {
	_ = f.slots.AssignBit(f.base(slot), v)
}

func (f *Filter) isContinuation(slot uint64) bool {
	v, _ := f.slots.GetBit(f.base(slot) + 1)
	return v
}

func (f *Filter) isShifted(slot uint64) bool {
	v, _ := f.slots.GetBit(f.base(slot) + 2)
	return v
}

func (f *Filter) getFP(slot uint64) uint64 {
	v, _ := f.slots.GetBits(f.base(slot)+3, uint(f.fingerprintBits))
	return v
}

// setPayload writes the continuation, shifted and fingerprint fields of
// slot, leaving its isOccupied bit untouched: isOccupied is keyed to the
// slot's own canonical quotient and never moves when content shifts.
func (f *Filter) setPayload(slot uint64, cont, shifted bool, fp uint64) {
	base := f.base(slot)
	_ = f.slots.AssignBit(base+1, cont)
	_ = f.slots.AssignBit(base+2, shifted)
	_ = f.slots.SetBits(base+3, uint(f.fingerprintBits), fp)
}

func (f *Filter) nextSlot(i uint64) uint64 { return (i + 1) & (f.NumSlots() - 1) }
func (f *Filter) prevSlot(i uint64) uint64 { return (i + f.NumSlots() - 1) & (f.NumSlots() - 1) }

// findClusterStart walks backward from q while the slot is shifted,
// landing on the first (unshifted) slot of the cluster containing q.
func (f *Filter) findClusterStart(q uint64) uint64 {
	b := q
	for f.isShifted(b) {
		b = f.prevSlot(b)
	}
	return b
}

// findFirstEmptySlot walks forward from i (inclusive) to the first slot
// that is entirely untouched: not occupied, not a continuation, not
// shifted.
func (f *Filter) findFirstEmptySlot(i uint64) uint64 {
	for f.getOccupied(i) || f.isContinuation(i) || f.isShifted(i) {
		i = f.nextSlot(i)
	}
	return i
}

// countOccupiedExclusive counts set isOccupied bits over the circular
// half-open range [start, end).
func (f *Filter) countOccupiedExclusive(start, end uint64) uint64 {
	var n uint64
	for i := start; i != end; i = f.nextSlot(i) {
		if f.getOccupied(i) {
			n++
		}
	}
	return n
}

// insertionPoint returns the physical slot at which q's run starts (if q
// is occupied) or should start (if not): walk forward from clusterStart,
// skipping one run per occupied bit found strictly before q.
func (f *Filter) insertionPoint(clusterStart, q uint64) uint64 {
	rank := f.countOccupiedExclusive(clusterStart, q)
	s := clusterStart
	for k := uint64(0); k < rank; k++ {
		s = f.nextSlot(s)
		for f.isContinuation(s) {
			s = f.nextSlot(s)
		}
	}
	return s
}

// hashKey splits the xxHash64 digest of data into a (quotient,
// fingerprint) pair: the top lgNumSlots bits are the quotient, the next
// fingerprintBits bits are the fingerprint. A fingerprint of zero is
// replaced by one, per §4.4.
func (f *Filter) hashKey(data []byte) (q, fp uint64, err error) {
	h, err := hash.XXHash64(data, 0, len(data), f.seed)
	if err != nil {
		return 0, 0, err
	}
	q = h >> (64 - f.lgNumSlots)
	shift := 64 - int(f.lgNumSlots) - int(f.fingerprintBits)
	fp = (h >> uint(shift)) & ((uint64(1) << f.fingerprintBits) - 1)
	if fp == 0 {
		fp = 1
	}
	return q, fp, nil
}

// maybeExpand doubles the table when the next insert would push the load
// factor to or past maxLoadFactor. It returns a CapacityExhausted error
// if expansion is needed but fingerprintBits would drop below one.
func (f *Filter) maybeExpand() error {
	if float64(f.numEntries+1) < float64(f.NumSlots())*f.maxLoadFactor {
		return nil
	}
	if f.fingerprintBits-1 < 1 {
		return sketcherr.New("Filter.expand", sketcherr.CapacityExhausted)
	}
	return f.expand()
}

// expand doubles the table per §4.4.4: lgNumSlots increments,
// fingerprintBits decrements, and every live entry is reinserted with its
// top fingerprint bit folded into a new low quotient bit.
func (f *Filter) expand() error {
	nf := New(f.lgNumSlots+1, f.fingerprintBits-1, f.maxLoadFactor, f.seed)
	for _, e := range f.entries() {
		topBit := (e.fp >> (f.fingerprintBits - 1)) & 1
		newFP := e.fp &^ (uint64(1) << (f.fingerprintBits - 1))
		if newFP == 0 {
			newFP = 1
		}
		newQ := (e.q << 1) | topBit
		if _, err := nf.insertQF(newQ, newFP); err != nil {
			return err
		}
	}
	nf.numExpansions = f.numExpansions + 1
	*f = *nf
	return nil
}

// insertQF inserts the raw (q, fp) pair, returning true if it was newly
// inserted and false if an identical fingerprint already existed in q's
// run. If the insert triggers an expansion, the pair is folded into the
// new table's (quotient, fingerprint) split the same way expand folds
// every live entry.
func (f *Filter) insertQF(q, fp uint64) (bool, error) {
	oldFB := f.fingerprintBits
	if err := f.maybeExpand(); err != nil {
		return false, err
	}
	if f.fingerprintBits != oldFB {
		topBit := (fp >> (oldFB - 1)) & 1
		fp &^= uint64(1) << (oldFB - 1)
		if fp == 0 {
			fp = 1
		}
		q = (q << 1) | topBit
	}

	wasOccupied := f.getOccupied(q)
	clusterStart := f.findClusterStart(q)
	start := f.insertionPoint(clusterStart, q)
	insertPos := start

	if wasOccupied {
		i := start
		for {
			cur := f.getFP(i)
			if cur == fp {
				return false, nil
			}
			if cur > fp {
				insertPos = i
				break
			}
			ni := f.nextSlot(i)
			if !f.isContinuation(ni) {
				insertPos = ni
				break
			}
			i = ni
		}
	}
	isCont := insertPos != start

	clusterEnd := f.findFirstEmptySlot(insertPos)
	for idx := clusterEnd; idx != insertPos; {
		prevIdx := f.prevSlot(idx)
		fpv := f.getFP(prevIdx)
		cont := f.isContinuation(prevIdx)
		f.setPayload(idx, cont, true, fpv)
		idx = prevIdx
	}

	f.setPayload(insertPos, isCont, insertPos != q, fp)
	if !isCont && wasOccupied {
		oldFront := f.nextSlot(insertPos)
		fpOld := f.getFP(oldFront)
		f.setPayload(oldFront, true, true, fpOld)
	}
	f.setOccupied(q, true)
	f.numEntries++
	return true, nil
}

// lookupQF reports whether the raw (q, fp) pair is present.
func (f *Filter) lookupQF(q, fp uint64) bool {
	if !f.getOccupied(q) {
		return false
	}
	clusterStart := f.findClusterStart(q)
	s := f.insertionPoint(clusterStart, q)

	i := s
	for {
		cur := f.getFP(i)
		if cur == fp {
			return true
		}
		if cur > fp {
			return false
		}
		ni := f.nextSlot(i)
		if !f.isContinuation(ni) {
			return false
		}
		i = ni
	}
}

// deleteQF removes the raw (q, fp) pair if present, returning whether it
// was found. Deletion rebuilds the whole cluster containing q in place:
// decode every run, drop fp from q's run (dropping the run and clearing
// q's isOccupied bit if it becomes empty), and re-pack the cluster
// starting at its original first slot. This naturally recomputes every
// touched slot's isShifted bit (a run's first element un-shifts exactly
// when compaction moves it back to its own canonical slot) without extra
// bookkeeping.
func (f *Filter) deleteQF(q, fp uint64) bool {
	if !f.getOccupied(q) {
		return false
	}
	clusterStart := f.findClusterStart(q)
	clusterEnd := f.findFirstEmptySlot(clusterStart)
	quotients, runs := f.decodeCluster(clusterStart, clusterEnd)

	idx := -1
	for i, qq := range quotients {
		if qq == q {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false
	}

	fps := runs[idx]
	pos := -1
	for i, v := range fps {
		if v == fp {
			pos = i
			break
		}
	}
	if pos == -1 {
		return false
	}
	fps = append(fps[:pos], fps[pos+1:]...)

	if len(fps) == 0 {
		quotients = append(quotients[:idx], quotients[idx+1:]...)
		runs = append(runs[:idx], runs[idx+1:]...)
		f.setOccupied(q, false)
	} else {
		runs[idx] = fps
	}

	p := clusterStart
	dist := func(s uint64) uint64 { return (s - clusterStart) & (f.NumSlots() - 1) }
	for i, Q := range quotients {
		// A run never starts before its canonical slot; slots skipped to
		// reach it are cleared.
		for dist(p) < dist(Q) {
			f.setPayload(p, false, false, 0)
			p = f.nextSlot(p)
		}
		for j, v := range runs[i] {
			f.setPayload(p, j != 0, p != Q, v)
			p = f.nextSlot(p)
		}
	}
	for p != clusterEnd {
		f.setPayload(p, false, false, 0)
		p = f.nextSlot(p)
	}

	f.numEntries--
	return true
}

// decodeCluster decodes the circular half-open slot range [start, end)
// into its runs, returning the canonical quotient of each run (in
// physical/canonical order) alongside its fingerprints (in the sorted
// order they're stored in).
func (f *Filter) decodeCluster(start, end uint64) (quotients []uint64, runs [][]uint64) {
	for i := start; i != end; i = f.nextSlot(i) {
		if f.getOccupied(i) {
			quotients = append(quotients, i)
		}
	}
	for i := start; i != end; {
		var run []uint64
		run = append(run, f.getFP(i))
		i = f.nextSlot(i)
		for i != end && f.isContinuation(i) {
			run = append(run, f.getFP(i))
			i = f.nextSlot(i)
		}
		runs = append(runs, run)
	}
	return quotients, runs
}

type qfEntry struct{ q, fp uint64 }

// entries decodes every stored (quotient, fingerprint) pair by scanning
// the table from slot 0 upward, cluster by cluster. A cluster that wraps
// past the end of the table back to slot 0 is decoded whole, through the
// wrap, when the scan reaches its first slot; the entries it holds in
// slots 0.. therefore come after those of every higher-numbered slot.
func (f *Filter) entries() []qfEntry {
	var out []qfEntry
	n := f.NumSlots()
	var i, visited uint64
	for i < n && visited < n {
		if f.isShifted(i) || (!f.getOccupied(i) && !f.isContinuation(i)) {
			i++
			visited++
			continue
		}
		clusterStart := i
		clusterEnd := f.findFirstEmptySlot(clusterStart)
		quotients, runs := f.decodeCluster(clusterStart, clusterEnd)
		for idx, q := range quotients {
			for _, fp := range runs[idx] {
				out = append(out, qfEntry{q, fp})
			}
		}
		if clusterEnd <= clusterStart {
			break
		}
		visited += clusterEnd - clusterStart
		i = clusterEnd
	}
	return out
}

// Entry is a single stored (quotient, fingerprint) pair, as yielded by
// Iterate.
type Entry struct {
	Quotient    uint64
	Fingerprint uint64
}

// Iterate returns every stored entry in ascending physical slot order,
// each tagged with its canonical quotient bucket rather than the
// (possibly shifted) slot it physically occupies, per §4.4.6. The one
// exception to the ordering is a cluster that wraps past the last slot:
// its entries in slots 0.. are returned after those of the highest slots,
// not first.
func (f *Filter) Iterate() []Entry {
	raw := f.entries()
	out := make([]Entry, len(raw))
	for i, e := range raw {
		out[i] = Entry{Quotient: e.q, Fingerprint: e.fp}
	}
	return out
}

// InsertBytes inserts the raw byte range key, returning true if it was
// newly inserted.
func (f *Filter) InsertBytes(key []byte) (bool, error) {
	q, fp, err := f.hashKey(key)
	if err != nil {
		return false, err
	}
	return f.insertQF(q, fp)
}

// LookupBytes reports whether key may have been inserted.
func (f *Filter) LookupBytes(key []byte) (bool, error) {
	q, fp, err := f.hashKey(key)
	if err != nil {
		return false, err
	}
	return f.lookupQF(q, fp), nil
}

// DeleteBytes removes key if present, reporting whether it was found.
func (f *Filter) DeleteBytes(key []byte) (bool, error) {
	q, fp, err := f.hashKey(key)
	if err != nil {
		return false, err
	}
	return f.deleteQF(q, fp), nil
}

// InsertUint64 inserts v, hashed as its 8-byte little-endian encoding.
func (f *Filter) InsertUint64(v uint64) (bool, error) {
	var b [8]byte
	putLE64(&b, v)
	return f.InsertBytes(b[:])
}

// LookupUint64 reports whether v may have been inserted.
func (f *Filter) LookupUint64(v uint64) (bool, error) {
	var b [8]byte
	putLE64(&b, v)
	return f.LookupBytes(b[:])
}

// DeleteUint64 removes v if present, reporting whether it was found.
func (f *Filter) DeleteUint64(v uint64) (bool, error) {
	var b [8]byte
	putLE64(&b, v)
	return f.DeleteBytes(b[:])
}

// InsertString inserts the UTF-8 bytes of s.
func (f *Filter) InsertString(s string) (bool, error) { return f.InsertBytes([]byte(s)) }

// LookupString reports whether s may have been inserted.
func (f *Filter) LookupString(s string) (bool, error) { return f.LookupBytes([]byte(s)) }

// DeleteString removes s if present, reporting whether it was found.
func (f *Filter) DeleteString(s string) (bool, error) { return f.DeleteBytes([]byte(s)) }

func putLE64(b *[8]byte, v uint64) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
	b[4] = byte(v >> 32)
	b[5] = byte(v >> 40)
	b[6] = byte(v >> 48)
	b[7] = byte(v >> 56)
}
