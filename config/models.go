package config

type AppConfig struct {
	Workdir      string `envconfig:"WORK_DIR"`
	Port         string `envconfig:"PORT" default:"8085"`
	DatabaseUri  string `envconfig:"DATABASE_URI" default:"cashu-lsp.db"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"4"`
	LogToFile    bool   `envconfig:"LOG_TO_FILE" default:"true"`
	LogDBQueries bool   `envconfig:"LOG_DB_QUERIES" default:"false"`

	LNDAddress      string `envconfig:"LND_ADDRESS"`
	LNDCertFile     string `envconfig:"LND_CERT_FILE"`
	LNDMacaroonFile string `envconfig:"LND_MACAROON_FILE"`

	MinChannelSizeSat uint64 `envconfig:"LSP_MIN_CHANNEL_SIZE_SAT" default:"100000"`
	MaxChannelSizeSat uint64 `envconfig:"LSP_MAX_CHANNEL_SIZE_SAT" default:"10000000"`
	MinFee            uint64 `envconfig:"LSP_MIN_FEE" default:"500"`
	FeePPK            uint64 `envconfig:"LSP_FEE_PPK" default:"1"`
	PaymentURL        string `envconfig:"LSP_PAYMENT_URL"`
	AcceptedMints     string `envconfig:"LSP_ACCEPTED_MINTS"`
}

// LspInfo is the public offer advertised on GET /info: the channel size
// bounds, fee schedule and the mints whose ecash is accepted as payment.
type LspInfo struct {
	MinChannelSizeSat uint64   `json:"min_channel_size_sat"`
	MaxChannelSizeSat uint64   `json:"max_channel_size_sat"`
	AcceptedMints     []string `json:"accepted_mints"`
	MinFee            uint64   `json:"min_fee"`
	FeePPK            uint64   `json:"fee_ppk"`
}
