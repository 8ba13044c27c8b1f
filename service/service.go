package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gorm.io/gorm"

	"github.com/thesimplekid/cashu-lsp/config"
	"github.com/thesimplekid/cashu-lsp/db"
	"github.com/thesimplekid/cashu-lsp/db/migrations"
	"github.com/thesimplekid/cashu-lsp/ecash"
	"github.com/thesimplekid/cashu-lsp/lnclient"
	"github.com/thesimplekid/cashu-lsp/lnclient/lnd"
	"github.com/thesimplekid/cashu-lsp/logger"
	"github.com/thesimplekid/cashu-lsp/lsp"
	"github.com/thesimplekid/cashu-lsp/utils"
)

type service struct {
	appConfig *config.AppConfig
	lspInfo   config.LspInfo

	db           *gorm.DB
	lnClient     lnclient.LNClient
	wallet       ecash.Wallet
	issuer       *lsp.Issuer
	orchestrator *lsp.Orchestrator
	resolver     *lsp.StatusResolver

	ctx context.Context
}

func NewService(ctx context.Context) (*service, error) {
	// Load config from environment variables / .env file
	godotenv.Load(".env")
	appConfig := &config.AppConfig{}
	err := envconfig.Process("", appConfig)
	if err != nil {
		return nil, err
	}

	logger.Init(appConfig.LogLevel)

	if appConfig.Workdir == "" {
		appConfig.Workdir = filepath.Join(xdg.DataHome, "/cashu-lsp")
		logger.Logger.Info().Str("workdir", appConfig.Workdir).Msg("No workdir specified, using default")
	}
	// make sure workdir exists
	os.MkdirAll(appConfig.Workdir, os.ModePerm)

	if appConfig.LogToFile {
		err = logger.AddFileLogger(appConfig.Workdir)
		if err != nil {
			return nil, err
		}
	}

	// If DATABASE_URI is a URI or a path, leave it unchanged.
	// If it only contains a filename, prepend the workdir.
	if !strings.HasPrefix(appConfig.DatabaseUri, "file:") {
		databasePath, _ := filepath.Split(appConfig.DatabaseUri)
		if databasePath == "" {
			appConfig.DatabaseUri = filepath.Join(appConfig.Workdir, appConfig.DatabaseUri)
		}
	}

	gormDB, err := db.NewDB(appConfig.DatabaseUri, appConfig.LogDBQueries)
	if err != nil {
		return nil, err
	}
	if err := migrations.Migrate(gormDB); err != nil {
		return nil, err
	}

	lspInfo := appConfig.GetLspInfo()
	if len(lspInfo.AcceptedMints) == 0 {
		return nil, errors.New("at least one accepted mint must be configured (LSP_ACCEPTED_MINTS)")
	}
	for _, mint := range lspInfo.AcceptedMints {
		if err := utils.ValidateMintURL(mint); err != nil {
			return nil, fmt.Errorf("invalid mint URL %q: %w", mint, err)
		}
	}
	if appConfig.PaymentURL == "" {
		return nil, errors.New("payment callback URL must be configured (LSP_PAYMENT_URL)")
	}
	if err := utils.ValidateHTTPURL(appConfig.PaymentURL); err != nil {
		return nil, fmt.Errorf("invalid payment callback URL %q: %w", appConfig.PaymentURL, err)
	}

	certHex, err := readFileHex(appConfig.LNDCertFile)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to read LND cert file")
		return nil, err
	}
	macaroonHex, err := readFileHex(appConfig.LNDMacaroonFile)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to read LND macaroon file")
		return nil, err
	}

	lnClient, err := lnd.NewLNDService(ctx, appConfig.LNDAddress, certHex, macaroonHex)
	if err != nil {
		return nil, err
	}

	wallet, err := ecash.NewGonutsWallet(filepath.Join(appConfig.Workdir, "wallet"), lspInfo.AcceptedMints[0])
	if err != nil {
		return nil, err
	}

	quoteStore := db.NewQuoteStore(gormDB)
	issuer := lsp.NewIssuer(quoteStore, lspInfo, appConfig.PaymentURL)
	validator := lsp.NewValidator(quoteStore, wallet, lspInfo.AcceptedMints)
	orchestrator := lsp.NewOrchestrator(quoteStore, validator, lnClient)
	resolver := lsp.NewStatusResolver(quoteStore, lnClient)

	return &service{
		appConfig:    appConfig,
		lspInfo:      lspInfo,
		db:           gormDB,
		lnClient:     lnClient,
		wallet:       wallet,
		issuer:       issuer,
		orchestrator: orchestrator,
		resolver:     resolver,
		ctx:          ctx,
	}, nil
}

func readFileHex(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(data), nil
}

func (svc *service) GetAppConfig() *config.AppConfig {
	return svc.appConfig
}

func (svc *service) GetLspInfo() config.LspInfo {
	return svc.lspInfo
}

func (svc *service) GetLNClient() lnclient.LNClient {
	return svc.lnClient
}

func (svc *service) GetIssuer() *lsp.Issuer {
	return svc.issuer
}

func (svc *service) GetOrchestrator() *lsp.Orchestrator {
	return svc.orchestrator
}

func (svc *service) GetStatusResolver() *lsp.StatusResolver {
	return svc.resolver
}

func (svc *service) Shutdown() {
	if err := svc.lnClient.Shutdown(); err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to shut down LN client")
	}
}
