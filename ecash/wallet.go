package ecash

import (
	"context"
	"fmt"

	gonuts "github.com/elnosh/gonuts/cashu"
	"github.com/elnosh/gonuts/wallet"

	"github.com/thesimplekid/cashu-lsp/logger"
)

// Wallet redeems inbound proofs against their issuing mint, swapping them
// for fresh proofs held by the LSP. Redemption is the point where "payment
// received" actually becomes true; everything before it is a pre-check.
type Wallet interface {
	Redeem(ctx context.Context, mint string, proofs []Proof) (uint64, error)
}

// GonutsWallet redeems proofs through a gonuts wallet stored under the
// LSP's working directory.
type GonutsWallet struct {
	wallet *wallet.Wallet
}

func NewGonutsWallet(walletPath string, mintURL string) (*GonutsWallet, error) {
	w, err := wallet.LoadWallet(wallet.Config{
		WalletPath:     walletPath,
		CurrentMintURL: mintURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}

	return &GonutsWallet{wallet: w}, nil
}

func (g *GonutsWallet) Redeem(ctx context.Context, mint string, proofs []Proof) (uint64, error) {
	gonutsProofs := make(gonuts.Proofs, 0, len(proofs))
	for _, proof := range proofs {
		gonutsProofs = append(gonutsProofs, gonuts.Proof{
			Amount: proof.Amount,
			Id:     proof.Id,
			Secret: proof.Secret,
			C:      proof.C,
		})
	}

	token, err := gonuts.NewTokenV4(gonutsProofs, mint, gonuts.Sat, false)
	if err != nil {
		return 0, fmt.Errorf("failed to build token: %w", err)
	}

	amount, err := g.wallet.Receive(token, false)
	if err != nil {
		return 0, err
	}

	logger.Logger.Debug().
		Uint64("amount", amount).
		Str("mint", mint).
		Msg("Redeemed proofs")

	return amount, nil
}
