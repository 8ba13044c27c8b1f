package lsp

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/thesimplekid/cashu-lsp/db"
	"github.com/thesimplekid/cashu-lsp/ecash"
	"github.com/thesimplekid/cashu-lsp/lnclient"
	"github.com/thesimplekid/cashu-lsp/logger"
)

// ChannelOpener is the capability the orchestrator needs from the Lightning
// node: attempt a channel open and return a correlation handle.
type ChannelOpener interface {
	OpenChannel(ctx context.Context, openChannelRequest *lnclient.OpenChannelRequest) (*lnclient.OpenChannelResponse, error)
}

// Orchestrator drives the quote state machine around a validated payment.
//
// All work on one quote id is serialized through a per-id lock, and every
// transition additionally goes through the store's state-guarded updates, so
// N concurrent submissions for the same quote produce exactly one redemption
// and at most one channel-open attempt.
//
// The Unpaid -> ChannelPending transition is committed before the open call
// so a crash between redemption and open still leaves a durable record that
// funds were captured. A failed open lands in Paid: funds captured, no
// channel. That outcome is deliberately not surfaced to the payment
// submitter; it is visible through the status resolver and the
// reconciliation surface (ListUnprovisioned / Reprovision).
type Orchestrator struct {
	store     *db.QuoteStore
	validator *Validator
	opener    ChannelOpener

	quoteLocks sync.Map // quote id -> *sync.Mutex
}

func NewOrchestrator(store *db.QuoteStore, validator *Validator, opener ChannelOpener) *Orchestrator {
	return &Orchestrator{
		store:     store,
		validator: validator,
		opener:    opener,
	}
}

func (o *Orchestrator) lockQuote(id string) func() {
	value, _ := o.quoteLocks.LoadOrStore(id, &sync.Mutex{})
	mutex := value.(*sync.Mutex)
	mutex.Lock()
	return mutex.Unlock
}

// HandlePayment validates and redeems the payment, pivots the quote to
// ChannelPending, then attempts the channel open. The returned error
// reflects only validation/redemption (and store) outcome; a channel-open
// failure is absorbed into the Paid state.
func (o *Orchestrator) HandlePayment(ctx context.Context, payload *ecash.PaymentRequestPayload) error {
	// Lock on the canonical id, not the raw string: uuid.Parse accepts case
	// and format variants, and two spellings of the same id must contend on
	// the same lock. Unparseable ids are rejected by the validator below.
	if payload.Id != nil {
		if id, err := uuid.Parse(*payload.Id); err == nil {
			unlock := o.lockQuote(id.String())
			defer unlock()
		}
	}

	_, err := o.validator.ValidateAndRedeem(ctx, payload)
	if err != nil {
		return err
	}

	// id was validated above
	id := uuid.MustParse(*payload.Id).String()

	// Funds are captured: record that durably before attempting the open.
	quote, err := o.store.Transition(id, db.QUOTE_STATE_UNPAID, db.QUOTE_STATE_CHANNEL_PENDING)
	if err != nil {
		if errors.Is(err, db.ErrQuoteStateConflict) {
			// unreachable while the per-id lock is held
			return &InvalidQuoteStateError{Id: id, State: db.QUOTE_STATE_CHANNEL_PENDING}
		}
		logger.Logger.Error().Err(err).Str("quote_id", id).Msg("Failed to update quote state")
		return &DatabaseError{Err: err}
	}

	return o.provision(ctx, quote)
}

// provision attempts the channel open for a quote in ChannelPending and
// reconciles the result back into the store.
func (o *Orchestrator) provision(ctx context.Context, quote *db.Quote) error {
	var pushAmount uint64
	if quote.PushAmountSats != nil {
		pushAmount = *quote.PushAmountSats
	}

	logger.Logger.Info().
		Str("quote_id", quote.ID).
		Str("node_pubkey", quote.NodePubkey).
		Uint64("channel_size_sats", quote.ChannelSizeSats).
		Uint64("push_amount_sats", pushAmount).
		Msg("Opening channel")

	openResponse, err := o.opener.OpenChannel(ctx, &lnclient.OpenChannelRequest{
		Pubkey:         quote.NodePubkey,
		Addr:           quote.Addr,
		AmountSats:     quote.ChannelSizeSats,
		PushAmountSats: pushAmount,
		Public:         true,
	})
	if err != nil {
		logger.Logger.Error().Err(err).
			Str("quote_id", quote.ID).
			Msg("Could not open channel")

		if _, err := o.store.Transition(quote.ID, db.QUOTE_STATE_CHANNEL_PENDING, db.QUOTE_STATE_PAID); err != nil {
			logger.Logger.Error().Err(err).
				Str("quote_id", quote.ID).
				Msg("Failed to update quote state after channel open failure")
			return &DatabaseError{Err: err}
		}
		return nil
	}

	if _, err := o.store.MarkChannelOpened(quote.ID, openResponse.ChannelPoint); err != nil {
		logger.Logger.Error().Err(err).
			Str("quote_id", quote.ID).
			Msg("Failed to update quote with channel info")
		return &DatabaseError{Err: err}
	}

	logger.Logger.Info().
		Str("quote_id", quote.ID).
		Str("channel_point", openResponse.ChannelPoint).
		Msg("Successfully opened channel")

	return nil
}

// ListUnprovisioned returns quotes whose payment was captured but whose
// channel open failed. An operator or external scheduler consumes this and
// decides whether to Reprovision.
func (o *Orchestrator) ListUnprovisioned() ([]db.Quote, error) {
	quotes, err := o.store.ListByState(db.QUOTE_STATE_PAID)
	if err != nil {
		return nil, &DatabaseError{Err: err}
	}
	return quotes, nil
}

// ListByState returns every quote currently in the given lifecycle state.
func (o *Orchestrator) ListByState(state string) ([]db.Quote, error) {
	quotes, err := o.store.ListByState(state)
	if err != nil {
		return nil, &DatabaseError{Err: err}
	}
	return quotes, nil
}

// Reprovision retries the channel open for a quote stuck in Paid. The
// payment is not re-validated; funds were already captured.
func (o *Orchestrator) Reprovision(ctx context.Context, rawId string) (*db.Quote, error) {
	id, err := uuid.Parse(rawId)
	if err != nil {
		return nil, &InvalidIdError{Id: rawId}
	}

	unlock := o.lockQuote(id.String())
	defer unlock()

	quote, err := o.store.Transition(id.String(), db.QUOTE_STATE_PAID, db.QUOTE_STATE_CHANNEL_PENDING)
	if err != nil {
		if errors.Is(err, db.ErrQuoteNotFound) {
			return nil, &QuoteNotFoundError{Id: id.String()}
		}
		if errors.Is(err, db.ErrQuoteStateConflict) {
			current, getErr := o.store.Get(id.String())
			if getErr != nil {
				return nil, &DatabaseError{Err: getErr}
			}
			return nil, &InvalidQuoteStateError{Id: id.String(), State: current.State}
		}
		return nil, &DatabaseError{Err: err}
	}

	if err := o.provision(ctx, quote); err != nil {
		return nil, err
	}

	updated, err := o.store.Get(id.String())
	if err != nil {
		return nil, &DatabaseError{Err: err}
	}
	return updated, nil
}
