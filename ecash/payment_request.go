package ecash

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// Payment request serialization per NUT-18: "creq" + version "A" +
// base64url (unpadded) of the CBOR encoding.
const paymentRequestPrefix = "creqA"

const (
	UnitSat = "sat"

	TransportTypeHTTPPost = "post"
	TransportTypeNostr    = "nostr"
)

// Transport describes how the payer delivers the settlement payload.
type Transport struct {
	Type   string     `json:"t" cbor:"t"`
	Target string     `json:"a" cbor:"a"`
	Tags   [][]string `json:"g,omitempty" cbor:"g,omitempty"`
}

// PaymentRequest is a redeemable payment descriptor. It is opaque to the
// rest of the LSP beyond Encode; the correlation id is the quote id.
type PaymentRequest struct {
	PaymentId  string      `json:"i,omitempty" cbor:"i,omitempty"`
	Amount     uint64      `json:"a,omitempty" cbor:"a,omitempty"`
	Unit       string      `json:"u,omitempty" cbor:"u,omitempty"`
	SingleUse  bool        `json:"s,omitempty" cbor:"s,omitempty"`
	Mints      []string    `json:"m,omitempty" cbor:"m,omitempty"`
	Memo       string      `json:"d,omitempty" cbor:"d,omitempty"`
	Transports []Transport `json:"t,omitempty" cbor:"t,omitempty"`
}

func (r *PaymentRequest) Encode() (string, error) {
	data, err := cbor.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to encode payment request: %w", err)
	}
	return paymentRequestPrefix + base64.RawURLEncoding.EncodeToString(data), nil
}

func DecodePaymentRequest(encoded string) (*PaymentRequest, error) {
	if !strings.HasPrefix(encoded, paymentRequestPrefix) {
		return nil, errors.New("invalid payment request prefix")
	}

	data, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(encoded, paymentRequestPrefix))
	if err != nil {
		return nil, fmt.Errorf("failed to decode payment request: %w", err)
	}

	var request PaymentRequest
	if err := cbor.Unmarshal(data, &request); err != nil {
		return nil, fmt.Errorf("failed to decode payment request: %w", err)
	}
	return &request, nil
}
