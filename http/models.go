package http

type ErrorResponse struct {
	Message string `json:"message"`
}

type ChannelQuoteResponse struct {
	PaymentRequest string `json:"payment_request"`
}

type NewAddressResponse struct {
	Address string `json:"address"`
}

type SendOnchainRequest struct {
	Address    string `json:"address"`
	AmountSats uint64 `json:"amount_sats"`
}

type SendOnchainResponse struct {
	TxId string `json:"txid"`
}

type CloseChannelRequest struct {
	ChannelPoint string `json:"channel_point"`
	Force        bool   `json:"force"`
}
