package lsp

import (
	"errors"
	"fmt"
)

// ErrAmountOverflow is returned instead of letting sat arithmetic wrap.
var ErrAmountOverflow = errors.New("amount overflow")

// Client-caused validation errors. These are reported synchronously and
// never mutate persisted state.

type InvalidIdError struct {
	Id string
}

func (e *InvalidIdError) Error() string {
	return fmt.Sprintf("invalid quote id: %s", e.Id)
}

type QuoteNotFoundError struct {
	Id string
}

func (e *QuoteNotFoundError) Error() string {
	return fmt.Sprintf("quote not found: %s", e.Id)
}

type InvalidChannelSizeError struct {
	Size uint64
	Min  uint64
	Max  uint64
}

func (e *InvalidChannelSizeError) Error() string {
	return fmt.Sprintf("channel size %d outside allowed range (%d-%d)", e.Size, e.Min, e.Max)
}

type InvalidNodePubkeyError struct {
	Pubkey string
}

func (e *InvalidNodePubkeyError) Error() string {
	return fmt.Sprintf("invalid node pubkey: %s", e.Pubkey)
}

type InvalidAddressError struct {
	Addr string
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid node address: %s", e.Addr)
}

type UnsupportedMintError struct {
	Mint string
}

func (e *UnsupportedMintError) Error() string {
	return fmt.Sprintf("unsupported mint: %s", e.Mint)
}

type InvalidQuoteStateError struct {
	Id    string
	State string
}

func (e *InvalidQuoteStateError) Error() string {
	return fmt.Sprintf("quote %s has invalid state: %s", e.Id, e.State)
}

type InvalidProofAmountError struct {
	Err error
}

func (e *InvalidProofAmountError) Error() string {
	return fmt.Sprintf("invalid proof amounts: %s", e.Err)
}

func (e *InvalidProofAmountError) Unwrap() error {
	return e.Err
}

type InsufficientPaymentError struct {
	Expected uint64
	Received uint64
}

func (e *InsufficientPaymentError) Error() string {
	return fmt.Sprintf("insufficient payment: expected %d, received %d", e.Expected, e.Received)
}

// Integrity errors. Store and redemption failures are fatal to the request
// that hit them; channel-open failures are absorbed into the Paid state and
// never reach the payment submitter (see Orchestrator).

type DatabaseError struct {
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database error: %s", e.Err)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

type ProofVerificationError struct {
	Err error
}

func (e *ProofVerificationError) Error() string {
	return fmt.Sprintf("proof verification error: %s", e.Err)
}

func (e *ProofVerificationError) Unwrap() error {
	return e.Err
}

type ChannelOpenError struct {
	Err error
}

func (e *ChannelOpenError) Error() string {
	return fmt.Sprintf("failed to open channel: %s", e.Err)
}

func (e *ChannelOpenError) Unwrap() error {
	return e.Err
}

type InternalError struct {
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal server error: %s", e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}
