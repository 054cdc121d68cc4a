package frequent

import (
	"math"

	"github.com/greatroar/sketchkit/sketcherr"
)

// SuggestMaxSize returns ceil(1/epsilon), a maxSize that guarantees
// GetMaxError never exceeds epsilon * streamLength, the
// standard Misra-Gries capacity bound. epsilon must be in (0, 1).
func SuggestMaxSize(epsilon float64) (int, error) {
	if epsilon <= 0 || epsilon >= 1 {
		return 0, sketcherr.New("SuggestMaxSize", sketcherr.InvalidArgument)
	}
	n := math.Ceil(1 / epsilon)
	if n < 1 {
		n = 1
	}
	return int(n), nil
}

// Config collects the single input to Optimize: the target relative
// error bound. The trailing blank field forces named-field construction,
// the same trick blobloom's Config uses.
type Config struct {
	Epsilon float64
	_       struct{}
}

// Optimize derives maxSize from cfg via SuggestMaxSize.
func Optimize(cfg Config) (maxSize int, err error) {
	return SuggestMaxSize(cfg.Epsilon)
}

// NewOptimized constructs a FrequentItems sized by Optimize(cfg).
func NewOptimized(cfg Config) (*FrequentItems, error) {
	maxSize, err := Optimize(cfg)
	if err != nil {
		return nil, err
	}
	return New(maxSize), nil
}
