package engine

import (
	"fmt"
	"time"

	"github.com/tarancss/suiadp/lib/block/sui"
	"github.com/tarancss/suiadp/lib/config"
)

// ParseGasPriceMode parses the configuration value of a gas price mode. Empty means reference.
func ParseGasPriceMode(s string) (GasPriceMode, error) {
	switch s {
	case "", config.GasPriceReference:
		return GasPriceReference, nil
	case config.GasPriceFixed:
		return GasPriceFixed, nil
	}

	return 0, fmt.Errorf("unknown gas price mode %q", s)
}

// Options returns the engine options of a configured network.
func Options(bc config.BlockConfig) ([]Option, error) {
	mode, err := ParseGasPriceMode(bc.GasPriceMode)
	if err != nil {
		return nil, err
	}

	opts := []Option{WithGasBudget(bc.GasBudget), WithGasPrice(mode, bc.FixedGasPrice)}

	dial := []sui.Option{sui.WithSecret(bc.Secret)}
	if bc.Timeout > 0 {
		dial = append(dial, sui.WithTimeout(time.Duration(bc.Timeout)*time.Second))
	}

	return append(opts, WithDialOptions(dial...)), nil
}
