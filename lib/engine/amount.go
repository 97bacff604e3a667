package engine

import (
	"math"

	"github.com/tarancss/suiadp/lib/block/types"
)

// maxMist is 2^64 as a float64, the first value that does not fit.
const maxMist = 18446744073709551616.0

// ScaleAmount converts a SUI amount into MIST, rounding to the nearest unit.
func ScaleAmount(sui float64) (uint64, error) {
	if math.IsNaN(sui) || math.IsInf(sui, 0) || sui < 0 {
		return 0, ErrInvalidAmount
	}

	m := math.Round(sui * types.MistPerSui)
	if m >= maxMist {
		return 0, ErrAmountRange
	}

	return uint64(m), nil
}

// FormatAmount converts MIST into SUI for display.
func FormatAmount(mist uint64) float64 {
	return float64(mist) / types.MistPerSui
}
