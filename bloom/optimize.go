package bloom

import (
	"math"

	"github.com/greatroar/sketchkit/sketcherr"
)

// SuggestNumHashesFromFPP returns ceil(-log2(p)), clamped to [1, 65535],
// the number of hash functions that minimizes the false positive rate for
// a filter sized to exactly match p. p must be in (0, 1).
func SuggestNumHashesFromFPP(p float64) (uint16, error) {
	if p <= 0 || p >= 1 {
		return 0, sketcherr.New("SuggestNumHashesFromFPP", sketcherr.InvalidArgument)
	}
	k := math.Ceil(-math.Log2(p))
	if k < 1 {
		k = 1
	}
	if k > 65535 {
		k = 65535
	}
	return uint16(k), nil
}

// SuggestNumHashesFromSizes returns max(1, round((m/n) * ln 2)), the
// number of hash functions that minimizes the false positive rate of a
// filter with m bits holding n distinct keys.
func SuggestNumHashesFromSizes(numDistinct, numBits uint64) (uint16, error) {
	if numDistinct == 0 {
		return 0, sketcherr.New("SuggestNumHashesFromSizes", sketcherr.InvalidArgument)
	}
	k := math.Round(float64(numBits) / float64(numDistinct) * math.Ln2)
	if k < 1 {
		k = 1
	}
	if k > 65535 {
		k = 65535
	}
	return uint16(k), nil
}

// SuggestNumFilterBits returns ceil(-n * ln(p) / (ln 2)^2), the number of
// bits needed to hold n distinct keys at false positive probability p.
func SuggestNumFilterBits(numDistinct uint64, p float64) (uint64, error) {
	if p <= 0 || p >= 1 {
		return 0, sketcherr.New("SuggestNumFilterBits", sketcherr.InvalidArgument)
	}
	if numDistinct == 0 {
		return 0, sketcherr.New("SuggestNumFilterBits", sketcherr.InvalidArgument)
	}
	m := math.Ceil(-float64(numDistinct) * math.Log(p) / (math.Ln2 * math.Ln2))
	if m < 1 {
		m = 1
	}
	return uint64(m), nil
}

// Config collects the inputs to Optimize: the target false positive rate
// and expected number of distinct keys, with an optional cap on filter
// size. The trailing blank field forces callers to use named fields, the
// same trick blobloom's Config uses.
type Config struct {
	FPRate      float64
	NumDistinct uint64
	MaxBits     uint64
	_           struct{}
}

// Optimize derives (numBits, k) from cfg: numBits and k come from
// SuggestNumFilterBits/SuggestNumHashesFromFPP, then numBits is clamped
// down to cfg.MaxBits (and k rederived from the clamped size) when
// MaxBits is nonzero and smaller than the unconstrained optimum.
func Optimize(cfg Config) (numBits uint64, k uint16, err error) {
	numBits, err = SuggestNumFilterBits(cfg.NumDistinct, cfg.FPRate)
	if err != nil {
		return 0, 0, err
	}
	k, err = SuggestNumHashesFromFPP(cfg.FPRate)
	if err != nil {
		return 0, 0, err
	}
	if cfg.MaxBits > 0 && cfg.MaxBits < numBits {
		numBits = cfg.MaxBits
		k, err = SuggestNumHashesFromSizes(cfg.NumDistinct, numBits)
		if err != nil {
			return 0, 0, err
		}
	}
	return numBits, k, nil
}

// NewOptimized constructs a Filter sized by Optimize(cfg).
func NewOptimized(cfg Config, seed uint64) (*Filter, error) {
	numBits, k, err := Optimize(cfg)
	if err != nil {
		return nil, err
	}
	return New(numBits, k, seed), nil
}
