package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/thesimplekid/cashu-lsp/config"
	"github.com/thesimplekid/cashu-lsp/db"
	"github.com/thesimplekid/cashu-lsp/ecash"
	"github.com/thesimplekid/cashu-lsp/lnclient"
	"github.com/thesimplekid/cashu-lsp/logger"
	"github.com/thesimplekid/cashu-lsp/lsp"
)

type HttpService struct {
	lspInfo      config.LspInfo
	issuer       *lsp.Issuer
	orchestrator *lsp.Orchestrator
	resolver     *lsp.StatusResolver
	lnClient     lnclient.LNClient
}

func NewHttpService(
	lspInfo config.LspInfo,
	issuer *lsp.Issuer,
	orchestrator *lsp.Orchestrator,
	resolver *lsp.StatusResolver,
	lnClient lnclient.LNClient,
) *HttpService {
	return &HttpService{
		lspInfo:      lspInfo,
		issuer:       issuer,
		orchestrator: orchestrator,
		resolver:     resolver,
		lnClient:     lnClient,
	}
}

func (httpSvc *HttpService) RegisterRoutes(e *echo.Echo) {
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			logger.HttpLogger.Info().
				Str("uri", values.URI).
				Int("status", values.Status).
				Str("remote_ip", values.RemoteIP).
				Str("request_id", values.RequestID).
				Msg("handled API request")
			return nil
		},
	}))

	// LSP protocol routes
	e.GET("/info", httpSvc.lspInfoHandler)
	e.POST("/channel-quote", httpSvc.channelQuoteHandler)
	e.POST("/payment", httpSvc.receivePaymentHandler)
	e.GET("/quote/:id", httpSvc.quoteStateHandler)

	// node management pass-through
	e.GET("/api/node/info", httpSvc.nodeInfoHandler)
	e.GET("/api/balances", httpSvc.balancesHandler)
	e.GET("/api/channels", httpSvc.channelsListHandler)
	e.POST("/api/channels", httpSvc.openChannelHandler)
	e.DELETE("/api/channels", httpSvc.closeChannelHandler)
	e.POST("/api/wallet/new-address", httpSvc.newOnchainAddressHandler)
	e.POST("/api/wallet/send", httpSvc.sendOnchainHandler)

	// reconciliation surface for quotes stuck in Paid
	e.GET("/api/quotes", httpSvc.listQuotesHandler)
	e.POST("/api/quotes/:id/provision", httpSvc.provisionQuoteHandler)
}

func (httpSvc *HttpService) lspInfoHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, httpSvc.lspInfo)
}

func (httpSvc *HttpService) channelQuoteHandler(c echo.Context) error {
	var quoteRequest lsp.ChannelQuoteRequest
	if err := c.Bind(&quoteRequest); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Bad request: " + err.Error(),
		})
	}

	_, paymentRequest, err := httpSvc.issuer.CreateQuote(&quoteRequest)
	if err != nil {
		return httpSvc.lspErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, ChannelQuoteResponse{
		PaymentRequest: paymentRequest,
	})
}

func (httpSvc *HttpService) receivePaymentHandler(c echo.Context) error {
	var payload ecash.PaymentRequestPayload
	if err := c.Bind(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Bad request: " + err.Error(),
		})
	}

	if err := httpSvc.orchestrator.HandlePayment(c.Request().Context(), &payload); err != nil {
		return httpSvc.lspErrorResponse(c, err)
	}

	return c.NoContent(http.StatusOK)
}

func (httpSvc *HttpService) quoteStateHandler(c echo.Context) error {
	status, err := httpSvc.resolver.Resolve(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpSvc.lspErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, status)
}

// lspErrorResponse maps the lsp error taxonomy onto HTTP statuses:
// validation errors are 400, missing quotes 404, everything else 500.
func (httpSvc *HttpService) lspErrorResponse(c echo.Context, err error) error {
	logger.Logger.Error().Err(err).Msg("LSP error")

	var invalidId *lsp.InvalidIdError
	var invalidSize *lsp.InvalidChannelSizeError
	var invalidPubkey *lsp.InvalidNodePubkeyError
	var invalidAddr *lsp.InvalidAddressError
	var unsupportedMint *lsp.UnsupportedMintError
	var invalidState *lsp.InvalidQuoteStateError
	var invalidProofs *lsp.InvalidProofAmountError
	var insufficient *lsp.InsufficientPaymentError
	var notFound *lsp.QuoteNotFoundError

	switch {
	case errors.As(err, &invalidId),
		errors.As(err, &invalidSize),
		errors.As(err, &invalidPubkey),
		errors.As(err, &invalidAddr),
		errors.As(err, &unsupportedMint),
		errors.As(err, &invalidState),
		errors.As(err, &invalidProofs),
		errors.As(err, &insufficient):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
	case errors.As(err, &notFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Message: err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: err.Error()})
	}
}

func (httpSvc *HttpService) nodeInfoHandler(c echo.Context) error {
	info, err := httpSvc.lnClient.GetInfo(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, info)
}

func (httpSvc *HttpService) balancesHandler(c echo.Context) error {
	balances, err := httpSvc.lnClient.GetBalances(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, balances)
}

func (httpSvc *HttpService) channelsListHandler(c echo.Context) error {
	channels, err := httpSvc.lnClient.ListChannels(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, channels)
}

func (httpSvc *HttpService) openChannelHandler(c echo.Context) error {
	var openChannelRequest lnclient.OpenChannelRequest
	if err := c.Bind(&openChannelRequest); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Bad request: " + err.Error(),
		})
	}

	openChannelResponse, err := httpSvc.lnClient.OpenChannel(c.Request().Context(), &openChannelRequest)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Failed to open channel: " + err.Error(),
		})
	}

	return c.JSON(http.StatusOK, openChannelResponse)
}

func (httpSvc *HttpService) closeChannelHandler(c echo.Context) error {
	var closeChannelRequest CloseChannelRequest
	if err := c.Bind(&closeChannelRequest); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Bad request: " + err.Error(),
		})
	}

	closeChannelResponse, err := httpSvc.lnClient.CloseChannel(c.Request().Context(), &lnclient.CloseChannelRequest{
		ChannelPoint: closeChannelRequest.ChannelPoint,
		Force:        closeChannelRequest.Force,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Failed to close channel: " + err.Error(),
		})
	}

	return c.JSON(http.StatusOK, closeChannelResponse)
}

func (httpSvc *HttpService) newOnchainAddressHandler(c echo.Context) error {
	address, err := httpSvc.lnClient.GetNewOnchainAddress(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Failed to request new onchain address: " + err.Error(),
		})
	}

	return c.JSON(http.StatusOK, NewAddressResponse{
		Address: address,
	})
}

func (httpSvc *HttpService) sendOnchainHandler(c echo.Context) error {
	var sendOnchainRequest SendOnchainRequest
	if err := c.Bind(&sendOnchainRequest); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Bad request: " + err.Error(),
		})
	}

	txid, err := httpSvc.lnClient.SendToAddress(c.Request().Context(), sendOnchainRequest.Address, sendOnchainRequest.AmountSats)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Failed to send onchain: " + err.Error(),
		})
	}

	return c.JSON(http.StatusOK, SendOnchainResponse{
		TxId: txid,
	})
}

func (httpSvc *HttpService) listQuotesHandler(c echo.Context) error {
	state := c.QueryParam("state")
	if state == "" {
		state = db.QUOTE_STATE_PAID
	}

	switch state {
	case db.QUOTE_STATE_UNPAID, db.QUOTE_STATE_PAID, db.QUOTE_STATE_CHANNEL_PENDING,
		db.QUOTE_STATE_CHANNEL_OPEN, db.QUOTE_STATE_CHANNEL_EXPIRED:
	default:
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Unknown quote state: " + state,
		})
	}

	quotes, err := httpSvc.orchestrator.ListByState(state)
	if err != nil {
		return httpSvc.lspErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, quotes)
}

func (httpSvc *HttpService) provisionQuoteHandler(c echo.Context) error {
	quote, err := httpSvc.orchestrator.Reprovision(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpSvc.lspErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, quote)
}
