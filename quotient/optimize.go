package quotient

import (
	"math"

	"github.com/greatroar/sketchkit/sketcherr"
)

// SuggestFingerprintLength returns ceil(log2(1/p)), clamped to [1, 63],
// the fingerprint width needed to keep the false positive probability at
// or below p. p must be in (0, 1).
func SuggestFingerprintLength(p float64) (uint8, error) {
	if p <= 0 || p >= 1 {
		return 0, sketcherr.New("SuggestFingerprintLength", sketcherr.InvalidArgument)
	}
	f := math.Ceil(math.Log2(1 / p))
	if f < 1 {
		f = 1
	}
	if f > 63 {
		f = 63
	}
	return uint8(f), nil
}

// SuggestLgNumSlots returns the smallest L such that (1<<L)*loadFactor is
// at least numDistinct, the table size exponent needed to hold
// numDistinct entries without exceeding loadFactor.
func SuggestLgNumSlots(numDistinct uint64, loadFactor float64) (uint8, error) {
	if numDistinct == 0 {
		return 0, sketcherr.New("SuggestLgNumSlots", sketcherr.InvalidArgument)
	}
	if loadFactor <= 0 || loadFactor > 1 {
		return 0, sketcherr.New("SuggestLgNumSlots", sketcherr.InvalidArgument)
	}
	for l := uint8(1); l <= 31; l++ {
		if float64(uint64(1)<<l)*loadFactor >= float64(numDistinct) {
			return l, nil
		}
	}
	return 0, sketcherr.New("SuggestLgNumSlots", sketcherr.OutOfRange)
}

// SuggestMaxNumItemsFromNumSlots returns floor((1<<lgNumSlots)*loadFactor),
// the most entries a table of that size should hold before expanding.
func SuggestMaxNumItemsFromNumSlots(lgNumSlots uint8, loadFactor float64) uint64 {
	return uint64(float64(uint64(1)<<lgNumSlots) * loadFactor)
}

// SuggestParamsFromMaxDistinctsFPP composes SuggestLgNumSlots and
// SuggestFingerprintLength to derive (lgNumSlots, fingerprintBits) for a
// table expected to hold numDistinct entries at false positive
// probability p without exceeding loadFactor.
func SuggestParamsFromMaxDistinctsFPP(numDistinct uint64, loadFactor, p float64) (lgNumSlots, fingerprintBits uint8, err error) {
	lgNumSlots, err = SuggestLgNumSlots(numDistinct, loadFactor)
	if err != nil {
		return 0, 0, err
	}
	fingerprintBits, err = SuggestFingerprintLength(p)
	if err != nil {
		return 0, 0, err
	}
	for int(lgNumSlots)+int(fingerprintBits) > 64 {
		fingerprintBits--
	}
	return lgNumSlots, fingerprintBits, nil
}

// Config collects the inputs to Optimize: the target false positive rate,
// expected number of distinct keys and load factor. The trailing blank
// field forces named-field construction, the same trick blobloom's
// Config uses.
type Config struct {
	FPRate      float64
	NumDistinct uint64
	LoadFactor  float64
	_           struct{}
}

// Optimize composes SuggestLgNumSlots and SuggestFingerprintLength to
// derive (lgNumSlots, fingerprintBits) from cfg.
func Optimize(cfg Config) (lgNumSlots, fingerprintBits uint8, err error) {
	return SuggestParamsFromMaxDistinctsFPP(cfg.NumDistinct, cfg.LoadFactor, cfg.FPRate)
}

// NewOptimized constructs a Filter sized by Optimize(cfg).
func NewOptimized(cfg Config, seed uint64) (*Filter, error) {
	lgNumSlots, fingerprintBits, err := Optimize(cfg)
	if err != nil {
		return nil, err
	}
	return New(lgNumSlots, fingerprintBits, cfg.LoadFactor, seed), nil
}
