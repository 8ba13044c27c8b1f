package ecash

import (
	"errors"
	"math"
	"strings"
)

// ErrAmountOverflow is returned when proof face values sum past uint64.
var ErrAmountOverflow = errors.New("proof amounts overflow")

// Proof is an ecash token as presented on the wire (NUT-00). The face value
// is trusted only for the sufficiency pre-check; whether the proofs are
// actually spendable is decided by the wallet during redemption.
type Proof struct {
	Amount uint64 `json:"amount" cbor:"amount"`
	Id     string `json:"id" cbor:"id"`
	Secret string `json:"secret" cbor:"secret"`
	C      string `json:"C" cbor:"C"`
}

// PaymentRequestPayload is the body a payer delivers to the payment
// transport target (NUT-18).
type PaymentRequestPayload struct {
	Id     *string `json:"id"`
	Memo   *string `json:"memo,omitempty"`
	Mint   string  `json:"mint"`
	Unit   string  `json:"unit"`
	Proofs []Proof `json:"proofs"`
}

// SumProofs totals the face values of the proofs, failing instead of
// wrapping if the sum exceeds uint64.
func SumProofs(proofs []Proof) (uint64, error) {
	var sum uint64
	for _, proof := range proofs {
		if sum > math.MaxUint64-proof.Amount {
			return 0, ErrAmountOverflow
		}
		sum += proof.Amount
	}
	return sum, nil
}

// NormalizeMintURL strips the trailing slash so that mint membership checks
// are not sensitive to how the payer spelled the URL.
func NormalizeMintURL(mintURL string) string {
	return strings.TrimSuffix(strings.TrimSpace(mintURL), "/")
}
