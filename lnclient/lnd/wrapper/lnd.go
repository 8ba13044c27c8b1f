package wrapper

import (
	"crypto/x509"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/macaroons"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	macaroon "gopkg.in/macaroon.v2"
)

// LNDWrapper holds the grpc connection and the lnrpc client built on it.
type LNDWrapper struct {
	conn   *grpc.ClientConn
	Client lnrpc.LightningClient
}

type LNDoptions struct {
	Address     string
	CertHex     string
	MacaroonHex string
}

func NewLNDclient(lndOptions LNDoptions) (*LNDWrapper, error) {
	if lndOptions.Address == "" {
		return nil, errors.New("LND address is required")
	}
	if lndOptions.MacaroonHex == "" {
		return nil, errors.New("LND macaroon is required")
	}

	creds, err := transportCredentials(lndOptions.CertHex)
	if err != nil {
		return nil, err
	}

	macBytes, err := hex.DecodeString(lndOptions.MacaroonHex)
	if err != nil {
		return nil, fmt.Errorf("failed to decode macaroon hex: %w", err)
	}
	mac := &macaroon.Macaroon{}
	if err := mac.UnmarshalBinary(macBytes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal macaroon: %w", err)
	}
	macCred, err := macaroons.NewMacaroonCredential(mac)
	if err != nil {
		return nil, fmt.Errorf("failed to build macaroon credential: %w", err)
	}

	conn, err := grpc.NewClient(lndOptions.Address,
		grpc.WithTransportCredentials(creds),
		grpc.WithPerRPCCredentials(macCred),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to LND: %w", err)
	}

	return &LNDWrapper{
		conn:   conn,
		Client: lnrpc.NewLightningClient(conn),
	}, nil
}

func (wrapper *LNDWrapper) Close() error {
	return wrapper.conn.Close()
}

func transportCredentials(certHex string) (credentials.TransportCredentials, error) {
	if certHex == "" {
		// no pinned cert, verify against the system pool
		return credentials.NewClientTLSFromCert(nil, ""), nil
	}

	certBytes, err := hex.DecodeString(certHex)
	if err != nil {
		return nil, fmt.Errorf("failed to decode TLS cert hex: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(certBytes) {
		return nil, errors.New("failed to parse LND TLS certificate")
	}
	return credentials.NewClientTLSFromCert(pool, ""), nil
}
