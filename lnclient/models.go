package lnclient

import (
	"context"
)

// LNClient is the boundary to the Lightning node. The LSP core only drives
// channel opens and reads the live channel list; the rest of the surface is
// passed straight through to the management API.
type LNClient interface {
	GetInfo(ctx context.Context) (*NodeInfo, error)
	ListChannels(ctx context.Context) ([]Channel, error)
	OpenChannel(ctx context.Context, openChannelRequest *OpenChannelRequest) (*OpenChannelResponse, error)
	CloseChannel(ctx context.Context, closeChannelRequest *CloseChannelRequest) (*CloseChannelResponse, error)
	GetNewOnchainAddress(ctx context.Context) (string, error)
	GetBalances(ctx context.Context) (*BalancesResponse, error)
	SendToAddress(ctx context.Context, address string, amountSats uint64) (string, error)
	Shutdown() error
}

type NodeInfo struct {
	Alias       string `json:"alias"`
	Pubkey      string `json:"pubkey"`
	Network     string `json:"network"`
	BlockHeight uint32 `json:"block_height"`
	BlockHash   string `json:"block_hash"`
}

type Channel struct {
	// Id is the externally-visible channel id assigned once the node has
	// confirmed the channel.
	Id string `json:"id"`
	// ChannelPoint is the funding outpoint, used as the internal
	// correlation handle for channels this LSP opened.
	ChannelPoint     string `json:"channel_point"`
	RemotePubkey     string `json:"remote_pubkey"`
	CapacitySats     uint64 `json:"capacity_sats"`
	LocalBalanceSats uint64 `json:"local_balance_sats"`
	Active           bool   `json:"active"`
	Public           bool   `json:"public"`
}

type OpenChannelRequest struct {
	Pubkey         string `json:"pubkey"`
	Addr           string `json:"addr"`
	AmountSats     uint64 `json:"amount_sats"`
	PushAmountSats uint64 `json:"push_amount_sats"`
	Public         bool   `json:"public"`
}

type OpenChannelResponse struct {
	FundingTxId  string `json:"funding_txid"`
	OutputIndex  uint32 `json:"output_index"`
	ChannelPoint string `json:"channel_point"`
}

type CloseChannelRequest struct {
	ChannelPoint string `json:"channel_point"`
	Force        bool   `json:"force"`
}

type CloseChannelResponse struct {
}

type BalancesResponse struct {
	TotalOnchainBalanceSats     uint64 `json:"total_onchain_balance_sats"`
	SpendableOnchainBalanceSats uint64 `json:"spendable_onchain_balance_sats"`
	TotalLightningBalanceSats   uint64 `json:"total_lightning_balance_sats"`
}
