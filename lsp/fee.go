package lsp

import (
	"math"
)

// CalculateFee prices a channel open: fee_ppk sats per 1000 sats of channel
// size, floored at minFee. The size must be within [minChannelSize,
// maxChannelSize] inclusive. Arithmetic that would wrap fails with
// ErrAmountOverflow instead.
func CalculateFee(channelSizeSats, minChannelSize, maxChannelSize, feePPK, minFee uint64) (uint64, error) {
	if channelSizeSats < minChannelSize || channelSizeSats > maxChannelSize {
		return 0, &InvalidChannelSizeError{
			Size: channelSizeSats,
			Min:  minChannelSize,
			Max:  maxChannelSize,
		}
	}

	fee, err := checkedMul(channelSizeSats/1_000, feePPK)
	if err != nil {
		return 0, err
	}

	if fee < minFee {
		fee = minFee
	}
	return fee, nil
}

func checkedMul(a, b uint64) (uint64, error) {
	if b != 0 && a > math.MaxUint64/b {
		return 0, ErrAmountOverflow
	}
	return a * b, nil
}

func checkedAdd(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrAmountOverflow
	}
	return a + b, nil
}
