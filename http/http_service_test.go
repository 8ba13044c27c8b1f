package http

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/thesimplekid/cashu-lsp/config"
	"github.com/thesimplekid/cashu-lsp/db"
	"github.com/thesimplekid/cashu-lsp/ecash"
	"github.com/thesimplekid/cashu-lsp/lnclient"
	"github.com/thesimplekid/cashu-lsp/logger"
	"github.com/thesimplekid/cashu-lsp/lsp"
)

func TestMain(m *testing.M) {
	logger.Init("2")
	os.Exit(m.Run())
}

// mockLNClient serves the channel-open and channel-list paths; the
// management pass-through methods return fixed values.
type mockLNClient struct {
	openErr  error
	channels []lnclient.Channel
}

func (m *mockLNClient) GetInfo(ctx context.Context) (*lnclient.NodeInfo, error) {
	return &lnclient.NodeInfo{Alias: "test-lsp", Network: "regtest"}, nil
}

func (m *mockLNClient) ListChannels(ctx context.Context) ([]lnclient.Channel, error) {
	return m.channels, nil
}

func (m *mockLNClient) OpenChannel(ctx context.Context, openChannelRequest *lnclient.OpenChannelRequest) (*lnclient.OpenChannelResponse, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	channelPoint := "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b:0"
	m.channels = append(m.channels, lnclient.Channel{
		Id:           "123456789",
		ChannelPoint: channelPoint,
		RemotePubkey: openChannelRequest.Pubkey,
		CapacitySats: openChannelRequest.AmountSats,
		Active:       true,
		Public:       openChannelRequest.Public,
	})
	return &lnclient.OpenChannelResponse{
		FundingTxId:  "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b",
		OutputIndex:  0,
		ChannelPoint: channelPoint,
	}, nil
}

func (m *mockLNClient) CloseChannel(ctx context.Context, closeChannelRequest *lnclient.CloseChannelRequest) (*lnclient.CloseChannelResponse, error) {
	return &lnclient.CloseChannelResponse{}, nil
}

func (m *mockLNClient) GetNewOnchainAddress(ctx context.Context) (string, error) {
	return "bcrt1qtestaddress", nil
}

func (m *mockLNClient) GetBalances(ctx context.Context) (*lnclient.BalancesResponse, error) {
	return &lnclient.BalancesResponse{
		TotalOnchainBalanceSats:     21_000_000,
		SpendableOnchainBalanceSats: 20_000_000,
		TotalLightningBalanceSats:   5_000_000,
	}, nil
}

func (m *mockLNClient) SendToAddress(ctx context.Context, address string, amountSats uint64) (string, error) {
	return "sendtxid", nil
}

func (m *mockLNClient) Shutdown() error {
	return nil
}

type mockWallet struct{}

func (w *mockWallet) Redeem(ctx context.Context, mint string, proofs []ecash.Proof) (uint64, error) {
	return ecash.SumProofs(proofs)
}

func setupHttpService(t *testing.T, lnClient *mockLNClient) (*echo.Echo, *db.QuoteStore) {
	gormDB, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gormDB.AutoMigrate(&db.Quote{}))

	lspInfo := config.LspInfo{
		MinChannelSizeSat: 100_000,
		MaxChannelSizeSat: 10_000_000,
		AcceptedMints:     []string{"https://mint.example.com"},
		MinFee:            500,
		FeePPK:            1,
	}

	store := db.NewQuoteStore(gormDB)
	issuer := lsp.NewIssuer(store, lspInfo, "https://lsp.example.com/payment")
	validator := lsp.NewValidator(store, &mockWallet{}, lspInfo.AcceptedMints)
	orchestrator := lsp.NewOrchestrator(store, validator, lnClient)
	resolver := lsp.NewStatusResolver(store, lnClient)

	e := echo.New()
	httpSvc := NewHttpService(lspInfo, issuer, orchestrator, resolver, lnClient)
	httpSvc.RegisterRoutes(e)

	return e, store
}

func doJSON(e *echo.Echo, method string, target string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func testPubkey(t *testing.T) string {
	privKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return hex.EncodeToString(privKey.PubKey().SerializeCompressed())
}

func TestLspInfoEndpoint(t *testing.T) {
	e, _ := setupHttpService(t, &mockLNClient{})

	rec := doJSON(e, nethttp.MethodGet, "/info", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)

	var info config.LspInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	require.Equal(t, uint64(100_000), info.MinChannelSizeSat)
	require.Equal(t, uint64(10_000_000), info.MaxChannelSizeSat)
	require.Equal(t, []string{"https://mint.example.com"}, info.AcceptedMints)
	require.Equal(t, uint64(500), info.MinFee)
	require.Equal(t, uint64(1), info.FeePPK)
}

func TestChannelQuoteEndpoint(t *testing.T) {
	e, store := setupHttpService(t, &mockLNClient{})

	rec := doJSON(e, nethttp.MethodPost, "/channel-quote", lsp.ChannelQuoteRequest{
		ChannelSizeSats: 1_000_000,
		NodePubkey:      testPubkey(t),
		Addr:            "127.0.0.1:9735",
	})
	require.Equal(t, nethttp.StatusOK, rec.Code)

	var response ChannelQuoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	request, err := ecash.DecodePaymentRequest(response.PaymentRequest)
	require.NoError(t, err)
	require.Equal(t, uint64(1_001_000), request.Amount)

	quote, err := store.Get(request.PaymentId)
	require.NoError(t, err)
	require.Equal(t, db.QUOTE_STATE_UNPAID, quote.State)
}

func TestChannelQuoteEndpointInvalidSize(t *testing.T) {
	e, _ := setupHttpService(t, &mockLNClient{})

	rec := doJSON(e, nethttp.MethodPost, "/channel-quote", lsp.ChannelQuoteRequest{
		ChannelSizeSats: 1_000,
		NodePubkey:      testPubkey(t),
		Addr:            "127.0.0.1:9735",
	})
	require.Equal(t, nethttp.StatusBadRequest, rec.Code)
}

func createQuoteViaAPI(t *testing.T, e *echo.Echo) *ecash.PaymentRequest {
	rec := doJSON(e, nethttp.MethodPost, "/channel-quote", lsp.ChannelQuoteRequest{
		ChannelSizeSats: 1_000_000,
		NodePubkey:      testPubkey(t),
		Addr:            "127.0.0.1:9735",
	})
	require.Equal(t, nethttp.StatusOK, rec.Code)

	var response ChannelQuoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	request, err := ecash.DecodePaymentRequest(response.PaymentRequest)
	require.NoError(t, err)
	return request
}

func TestPaymentEndpoint(t *testing.T) {
	e, store := setupHttpService(t, &mockLNClient{})

	request := createQuoteViaAPI(t, e)

	rec := doJSON(e, nethttp.MethodPost, "/payment", ecash.PaymentRequestPayload{
		Id:   &request.PaymentId,
		Mint: "https://mint.example.com",
		Unit: ecash.UnitSat,
		Proofs: []ecash.Proof{
			{Amount: request.Amount, Id: "009a1f293253e41e", Secret: "secret", C: "02c"},
		},
	})
	require.Equal(t, nethttp.StatusOK, rec.Code)

	quote, err := store.Get(request.PaymentId)
	require.NoError(t, err)
	require.Equal(t, db.QUOTE_STATE_CHANNEL_OPEN, quote.State)
}

func TestPaymentEndpointUnsupportedMint(t *testing.T) {
	e, _ := setupHttpService(t, &mockLNClient{})

	request := createQuoteViaAPI(t, e)

	rec := doJSON(e, nethttp.MethodPost, "/payment", ecash.PaymentRequestPayload{
		Id:   &request.PaymentId,
		Mint: "https://other-mint.example.com",
		Unit: ecash.UnitSat,
		Proofs: []ecash.Proof{
			{Amount: request.Amount, Id: "009a1f293253e41e", Secret: "secret", C: "02c"},
		},
	})
	require.Equal(t, nethttp.StatusBadRequest, rec.Code)
}

func TestPaymentEndpointUnknownQuote(t *testing.T) {
	e, _ := setupHttpService(t, &mockLNClient{})

	unknownId := uuid.New().String()
	rec := doJSON(e, nethttp.MethodPost, "/payment", ecash.PaymentRequestPayload{
		Id:   &unknownId,
		Mint: "https://mint.example.com",
		Unit: ecash.UnitSat,
		Proofs: []ecash.Proof{
			{Amount: 1_001_000, Id: "009a1f293253e41e", Secret: "secret", C: "02c"},
		},
	})
	require.Equal(t, nethttp.StatusNotFound, rec.Code)
}

func TestQuoteStateEndpoint(t *testing.T) {
	lnClient := &mockLNClient{}
	e, _ := setupHttpService(t, lnClient)

	request := createQuoteViaAPI(t, e)

	rec := doJSON(e, nethttp.MethodPost, "/payment", ecash.PaymentRequestPayload{
		Id:   &request.PaymentId,
		Mint: "https://mint.example.com",
		Unit: ecash.UnitSat,
		Proofs: []ecash.Proof{
			{Amount: request.Amount, Id: "009a1f293253e41e", Secret: "secret", C: "02c"},
		},
	})
	require.Equal(t, nethttp.StatusOK, rec.Code)

	rec = doJSON(e, nethttp.MethodGet, "/quote/"+request.PaymentId, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)

	var status lsp.QuoteStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.Equal(t, request.PaymentId, status.Id)
	require.Equal(t, db.QUOTE_STATE_CHANNEL_OPEN, status.State)
	require.NotNil(t, status.ChannelId)
	require.Equal(t, "123456789", *status.ChannelId)
}

func TestQuoteStateEndpointErrors(t *testing.T) {
	e, _ := setupHttpService(t, &mockLNClient{})

	rec := doJSON(e, nethttp.MethodGet, "/quote/not-a-uuid", nil)
	require.Equal(t, nethttp.StatusBadRequest, rec.Code)

	rec = doJSON(e, nethttp.MethodGet, "/quote/"+uuid.New().String(), nil)
	require.Equal(t, nethttp.StatusNotFound, rec.Code)
}

func TestListQuotesAndProvisionEndpoints(t *testing.T) {
	lnClient := &mockLNClient{openErr: errors.New("peer unreachable")}
	e, _ := setupHttpService(t, lnClient)

	request := createQuoteViaAPI(t, e)

	// payment succeeds but the open fails, leaving the quote in Paid
	rec := doJSON(e, nethttp.MethodPost, "/payment", ecash.PaymentRequestPayload{
		Id:   &request.PaymentId,
		Mint: "https://mint.example.com",
		Unit: ecash.UnitSat,
		Proofs: []ecash.Proof{
			{Amount: request.Amount, Id: "009a1f293253e41e", Secret: "secret", C: "02c"},
		},
	})
	require.Equal(t, nethttp.StatusOK, rec.Code)

	rec = doJSON(e, nethttp.MethodGet, "/api/quotes?state=Paid", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)

	var quotes []db.Quote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quotes))
	require.Len(t, quotes, 1)
	require.Equal(t, request.PaymentId, quotes[0].ID)

	rec = doJSON(e, nethttp.MethodGet, "/api/quotes?state=Bogus", nil)
	require.Equal(t, nethttp.StatusBadRequest, rec.Code)

	lnClient.openErr = nil

	rec = doJSON(e, nethttp.MethodPost, "/api/quotes/"+request.PaymentId+"/provision", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)

	var quote db.Quote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quote))
	require.Equal(t, db.QUOTE_STATE_CHANNEL_OPEN, quote.State)
	require.NotNil(t, quote.ChannelId)
}

func TestManagementEndpoints(t *testing.T) {
	e, _ := setupHttpService(t, &mockLNClient{})

	rec := doJSON(e, nethttp.MethodGet, "/api/node/info", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)

	var info lnclient.NodeInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	require.Equal(t, "test-lsp", info.Alias)

	rec = doJSON(e, nethttp.MethodGet, "/api/balances", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)

	var balances lnclient.BalancesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &balances))
	require.Equal(t, uint64(21_000_000), balances.TotalOnchainBalanceSats)

	rec = doJSON(e, nethttp.MethodPost, "/api/wallet/new-address", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)

	var address NewAddressResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &address))
	require.Equal(t, "bcrt1qtestaddress", address.Address)
}
