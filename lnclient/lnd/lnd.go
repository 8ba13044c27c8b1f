package lnd

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/rs/zerolog"

	"github.com/thesimplekid/cashu-lsp/lnclient"
	"github.com/thesimplekid/cashu-lsp/lnclient/lnd/wrapper"
	"github.com/thesimplekid/cashu-lsp/logger"
)

type LNDService struct {
	client   *wrapper.LNDWrapper
	nodeInfo *lnclient.NodeInfo
	logger   zerolog.Logger
}

func NewLNDService(ctx context.Context, lndAddress, lndCertHex, lndMacaroonHex string) (lnclient.LNClient, error) {
	if lndAddress == "" || lndMacaroonHex == "" {
		return nil, errors.New("one or more required LND configuration are missing")
	}

	lndClient, err := wrapper.NewLNDclient(wrapper.LNDoptions{
		Address:     lndAddress,
		CertHex:     lndCertHex,
		MacaroonHex: lndMacaroonHex,
	})
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to create new LND client")
		return nil, err
	}

	var nodeInfo *lnclient.NodeInfo
	maxRetries := 5
	for i := range maxRetries {
		nodeInfo, err = fetchNodeInfo(ctx, lndClient)
		if err == nil {
			break
		}
		logger.Logger.Error().Err(err).
			Int("iteration", i).
			Msg("Failed to connect to LND, retrying in 2s")

		select {
		case <-time.After(2 * time.Second):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to connect to LND on final attempt, not attempting further retries")
		return nil, err
	}

	lndService := &LNDService{
		client:   lndClient,
		nodeInfo: nodeInfo,
		logger:   logger.Logger.With().Str("node", "LND").Logger(),
	}

	logger.Logger.Info().Str("alias", nodeInfo.Alias).Msg("Connected to LND")

	return lndService, nil
}

func fetchNodeInfo(ctx context.Context, client *wrapper.LNDWrapper) (*lnclient.NodeInfo, error) {
	resp, err := client.Client.GetInfo(ctx, &lnrpc.GetInfoRequest{})
	if err != nil {
		return nil, err
	}
	network := ""
	if len(resp.Chains) > 0 {
		network = resp.Chains[0].Network
	}
	return &lnclient.NodeInfo{
		Alias:       resp.Alias,
		Pubkey:      resp.IdentityPubkey,
		Network:     network,
		BlockHeight: resp.BlockHeight,
		BlockHash:   resp.BlockHash,
	}, nil
}

func (svc *LNDService) GetInfo(ctx context.Context) (*lnclient.NodeInfo, error) {
	return fetchNodeInfo(ctx, svc.client)
}

func (svc *LNDService) ListChannels(ctx context.Context) ([]lnclient.Channel, error) {
	resp, err := svc.client.Client.ListChannels(ctx, &lnrpc.ListChannelsRequest{})
	if err != nil {
		return nil, err
	}

	channels := make([]lnclient.Channel, 0, len(resp.Channels))
	for _, channel := range resp.Channels {
		channels = append(channels, lnclient.Channel{
			Id:               strconv.FormatUint(channel.ChanId, 10),
			ChannelPoint:     channel.ChannelPoint,
			RemotePubkey:     channel.RemotePubkey,
			CapacitySats:     uint64(channel.Capacity),
			LocalBalanceSats: uint64(channel.LocalBalance),
			Active:           channel.Active,
			Public:           !channel.Private,
		})
	}
	return channels, nil
}

func (svc *LNDService) OpenChannel(ctx context.Context, openChannelRequest *lnclient.OpenChannelRequest) (*lnclient.OpenChannelResponse, error) {
	if err := svc.connectPeer(ctx, openChannelRequest.Pubkey, openChannelRequest.Addr); err != nil {
		return nil, fmt.Errorf("failed to connect peer: %w", err)
	}

	nodePubkey, err := hex.DecodeString(openChannelRequest.Pubkey)
	if err != nil {
		return nil, fmt.Errorf("invalid node pubkey: %w", err)
	}

	resp, err := svc.client.Client.OpenChannelSync(ctx, &lnrpc.OpenChannelRequest{
		NodePubkey:         nodePubkey,
		LocalFundingAmount: int64(openChannelRequest.AmountSats),
		PushSat:            int64(openChannelRequest.PushAmountSats),
		Private:            !openChannelRequest.Public,
	})
	if err != nil {
		return nil, err
	}

	fundingTxId := resp.GetFundingTxidStr()
	if fundingTxId == "" {
		hash, err := chainhash.NewHash(resp.GetFundingTxidBytes())
		if err != nil {
			return nil, fmt.Errorf("invalid funding txid: %w", err)
		}
		fundingTxId = hash.String()
	}

	svc.logger.Info().
		Str("funding_txid", fundingTxId).
		Uint32("output_index", resp.OutputIndex).
		Msg("Opened channel")

	return &lnclient.OpenChannelResponse{
		FundingTxId:  fundingTxId,
		OutputIndex:  resp.OutputIndex,
		ChannelPoint: fmt.Sprintf("%s:%d", fundingTxId, resp.OutputIndex),
	}, nil
}

func (svc *LNDService) connectPeer(ctx context.Context, pubkey string, addr string) error {
	_, err := svc.client.Client.ConnectPeer(ctx, &lnrpc.ConnectPeerRequest{
		Addr: &lnrpc.LightningAddress{
			Pubkey: pubkey,
			Host:   addr,
		},
	})
	if err != nil && strings.Contains(err.Error(), "already connected") {
		return nil
	}
	return err
}

func (svc *LNDService) CloseChannel(ctx context.Context, closeChannelRequest *lnclient.CloseChannelRequest) (*lnclient.CloseChannelResponse, error) {
	fundingTxId, outputIndex, err := parseChannelPoint(closeChannelRequest.ChannelPoint)
	if err != nil {
		return nil, err
	}

	stream, err := svc.client.Client.CloseChannel(ctx, &lnrpc.CloseChannelRequest{
		ChannelPoint: &lnrpc.ChannelPoint{
			FundingTxid: &lnrpc.ChannelPoint_FundingTxidStr{
				FundingTxidStr: fundingTxId,
			},
			OutputIndex: outputIndex,
		},
		Force: closeChannelRequest.Force,
	})
	if err != nil {
		return nil, err
	}

	// wait for the close to be initiated before reporting success
	if _, err := stream.Recv(); err != nil {
		return nil, err
	}

	svc.logger.Info().
		Str("channel_point", closeChannelRequest.ChannelPoint).
		Msg("Initiated channel close")

	return &lnclient.CloseChannelResponse{}, nil
}

func parseChannelPoint(channelPoint string) (string, uint32, error) {
	parts := strings.Split(channelPoint, ":")
	if len(parts) != 2 {
		return "", 0, fmt.Errorf("invalid channel point: %s", channelPoint)
	}
	outputIndex, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return "", 0, fmt.Errorf("invalid channel point output index: %w", err)
	}
	return parts[0], uint32(outputIndex), nil
}

func (svc *LNDService) GetNewOnchainAddress(ctx context.Context) (string, error) {
	resp, err := svc.client.Client.NewAddress(ctx, &lnrpc.NewAddressRequest{
		Type: lnrpc.AddressType_WITNESS_PUBKEY_HASH,
	})
	if err != nil {
		return "", err
	}
	return resp.Address, nil
}

func (svc *LNDService) GetBalances(ctx context.Context) (*lnclient.BalancesResponse, error) {
	walletBalance, err := svc.client.Client.WalletBalance(ctx, &lnrpc.WalletBalanceRequest{})
	if err != nil {
		return nil, err
	}
	channelBalance, err := svc.client.Client.ChannelBalance(ctx, &lnrpc.ChannelBalanceRequest{})
	if err != nil {
		return nil, err
	}

	return &lnclient.BalancesResponse{
		TotalOnchainBalanceSats:     uint64(walletBalance.TotalBalance),
		SpendableOnchainBalanceSats: uint64(walletBalance.ConfirmedBalance),
		TotalLightningBalanceSats:   channelBalance.LocalBalance.GetSat(),
	}, nil
}

func (svc *LNDService) SendToAddress(ctx context.Context, address string, amountSats uint64) (string, error) {
	resp, err := svc.client.Client.SendCoins(ctx, &lnrpc.SendCoinsRequest{
		Addr:   address,
		Amount: int64(amountSats),
	})
	if err != nil {
		return "", err
	}
	return resp.Txid, nil
}

func (svc *LNDService) Shutdown() error {
	return svc.client.Close()
}
