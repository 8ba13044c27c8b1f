package lsp

import (
	"context"
	"errors"
	"slices"

	"github.com/google/uuid"

	"github.com/thesimplekid/cashu-lsp/db"
	"github.com/thesimplekid/cashu-lsp/ecash"
	"github.com/thesimplekid/cashu-lsp/logger"
)

// Validator checks an inbound payment against its quote and redeems the
// proofs. The checks short-circuit in a fixed order: mint, id, existence,
// state, amount, redemption. Nothing here mutates quote state; on success
// the caller owns the transition, and on redemption failure the quote stays
// Unpaid so the client can retry with valid proofs.
type Validator struct {
	store         *db.QuoteStore
	wallet        ecash.Wallet
	acceptedMints []string
}

func NewValidator(store *db.QuoteStore, wallet ecash.Wallet, acceptedMints []string) *Validator {
	return &Validator{
		store:         store,
		wallet:        wallet,
		acceptedMints: acceptedMints,
	}
}

func (v *Validator) ValidateAndRedeem(ctx context.Context, payload *ecash.PaymentRequestPayload) (uint64, error) {
	mint := ecash.NormalizeMintURL(payload.Mint)
	if !slices.Contains(v.acceptedMints, mint) {
		return 0, &UnsupportedMintError{Mint: payload.Mint}
	}

	if payload.Id == nil {
		logger.Logger.Warn().Msg("Missing payment id in request")
		return 0, &InvalidIdError{Id: "missing"}
	}
	id, err := uuid.Parse(*payload.Id)
	if err != nil {
		logger.Logger.Warn().Str("id", *payload.Id).Msg("Invalid quote id format")
		return 0, &InvalidIdError{Id: *payload.Id}
	}

	quote, err := v.store.Get(id.String())
	if err != nil {
		if errors.Is(err, db.ErrQuoteNotFound) {
			return 0, &QuoteNotFoundError{Id: id.String()}
		}
		return 0, &DatabaseError{Err: err}
	}

	if quote.State != db.QUOTE_STATE_UNPAID {
		logger.Logger.Warn().
			Str("quote_id", quote.ID).
			Str("state", quote.State).
			Msg("Quote has invalid state")
		return 0, &InvalidQuoteStateError{Id: quote.ID, State: quote.State}
	}

	received, err := ecash.SumProofs(payload.Proofs)
	if err != nil {
		logger.Logger.Warn().
			Str("quote_id", quote.ID).
			Msg("Proof amounts overflow")
		return 0, &InvalidProofAmountError{Err: err}
	}
	if received < quote.ExpectedPaymentSats {
		logger.Logger.Warn().
			Uint64("expected", quote.ExpectedPaymentSats).
			Uint64("received", received).
			Msg("Insufficient payment")
		return 0, &InsufficientPaymentError{
			Expected: quote.ExpectedPaymentSats,
			Received: received,
		}
	}

	amount, err := v.wallet.Redeem(ctx, mint, payload.Proofs)
	if err != nil {
		logger.Logger.Error().Err(err).
			Str("quote_id", quote.ID).
			Msg("Could not redeem proofs")
		return 0, &ProofVerificationError{Err: err}
	}

	logger.Logger.Info().
		Uint64("amount", amount).
		Str("quote_id", quote.ID).
		Msg("Successfully received payment")

	return amount, nil
}
