package lsp

import (
	"encoding/hex"
	"errors"
	"net"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/google/uuid"

	"github.com/thesimplekid/cashu-lsp/config"
	"github.com/thesimplekid/cashu-lsp/db"
	"github.com/thesimplekid/cashu-lsp/ecash"
	"github.com/thesimplekid/cashu-lsp/logger"
)

type ChannelQuoteRequest struct {
	ChannelSizeSats uint64  `json:"channel_size_sats"`
	NodePubkey      string  `json:"node_pubkey"`
	Addr            string  `json:"addr"`
	PushAmount      *uint64 `json:"push_amount"`
}

// Issuer prices channel quotes and turns them into payable requests. The
// quote is persisted in the Unpaid state before the payment request leaves
// this process, so a crash cannot orphan a payable request.
type Issuer struct {
	store      *db.QuoteStore
	lspInfo    config.LspInfo
	paymentURL string
}

func NewIssuer(store *db.QuoteStore, lspInfo config.LspInfo, paymentURL string) *Issuer {
	return &Issuer{
		store:      store,
		lspInfo:    lspInfo,
		paymentURL: paymentURL,
	}
}

// CreateQuote validates the request, computes the expected payment
// (channel size + fee + push amount), persists a fresh Unpaid quote and
// returns it together with the encoded payment request. Two identical
// requests produce two independent quotes.
func (i *Issuer) CreateQuote(request *ChannelQuoteRequest) (*db.Quote, string, error) {
	fee, err := CalculateFee(
		request.ChannelSizeSats,
		i.lspInfo.MinChannelSizeSat,
		i.lspInfo.MaxChannelSizeSat,
		i.lspInfo.FeePPK,
		i.lspInfo.MinFee,
	)
	if err != nil {
		var sizeErr *InvalidChannelSizeError
		if errors.As(err, &sizeErr) {
			return nil, "", err
		}
		return nil, "", &InternalError{Err: err}
	}

	if err := validateNodePubkey(request.NodePubkey); err != nil {
		return nil, "", err
	}
	if _, _, err := net.SplitHostPort(request.Addr); err != nil {
		return nil, "", &InvalidAddressError{Addr: request.Addr}
	}

	expectedPayment, err := checkedAdd(request.ChannelSizeSats, fee)
	if err != nil {
		return nil, "", &InternalError{Err: err}
	}
	if request.PushAmount != nil {
		expectedPayment, err = checkedAdd(expectedPayment, *request.PushAmount)
		if err != nil {
			return nil, "", &InternalError{Err: err}
		}
	}

	quoteId := uuid.New().String()

	paymentRequest := ecash.PaymentRequest{
		PaymentId: quoteId,
		Amount:    expectedPayment,
		Unit:      ecash.UnitSat,
		SingleUse: true,
		Mints:     i.lspInfo.AcceptedMints,
		Transports: []ecash.Transport{
			{
				Type:   ecash.TransportTypeHTTPPost,
				Target: i.paymentURL,
			},
		},
	}
	encoded, err := paymentRequest.Encode()
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to encode payment request")
		return nil, "", &InternalError{Err: err}
	}

	quote := &db.Quote{
		ID:                  quoteId,
		ChannelSizeSats:     request.ChannelSizeSats,
		PushAmountSats:      request.PushAmount,
		ExpectedPaymentSats: expectedPayment,
		NodePubkey:          request.NodePubkey,
		Addr:                request.Addr,
		State:               db.QUOTE_STATE_UNPAID,
	}
	if err := i.store.Put(quote); err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to add quote to database")
		return nil, "", &DatabaseError{Err: err}
	}

	logger.Logger.Info().
		Str("quote_id", quoteId).
		Uint64("channel_size_sats", request.ChannelSizeSats).
		Uint64("expected_payment_sats", expectedPayment).
		Msg("Created new channel quote")

	return quote, encoded, nil
}

func validateNodePubkey(nodePubkey string) error {
	pubkeyBytes, err := hex.DecodeString(nodePubkey)
	if err != nil {
		return &InvalidNodePubkeyError{Pubkey: nodePubkey}
	}
	if _, err := btcec.ParsePubKey(pubkeyBytes); err != nil {
		return &InvalidNodePubkeyError{Pubkey: nodePubkey}
	}
	return nil
}
