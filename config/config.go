package config

import (
	"strings"

	"github.com/thesimplekid/cashu-lsp/ecash"
)

// GetLspInfo builds the advertised LSP offer from the environment config.
// Mint URLs are normalized so that membership checks against payment
// submissions are not sensitive to trailing slashes.
func (c *AppConfig) GetLspInfo() LspInfo {
	mints := []string{}
	for _, mint := range strings.Split(c.AcceptedMints, ",") {
		mint = strings.TrimSpace(mint)
		if mint == "" {
			continue
		}
		mints = append(mints, ecash.NormalizeMintURL(mint))
	}

	return LspInfo{
		MinChannelSizeSat: c.MinChannelSizeSat,
		MaxChannelSizeSat: c.MaxChannelSizeSat,
		AcceptedMints:     mints,
		MinFee:            c.MinFee,
		FeePPK:            c.FeePPK,
	}
}
