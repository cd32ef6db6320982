package nodegw

import (
	"context"
	"fmt"

	"github.com/ziflex/lecho/v3"
)

// Gateway is the contract the wallet core uses to talk to the RGB lightning
// node. Every method is a suspension point: implementations block on I/O and
// return either a value or a *common.Error.
type Gateway interface {
	NodeInfo(ctx context.Context) (*NodeInfo, error)
	NetworkInfo(ctx context.Context) (*NetworkInfo, error)

	ListAssets(ctx context.Context) ([]Asset, error)
	IssueRGB20(ctx context.Context, req *IssueRGB20Request) (*Asset, error)
	IssueRGB25(ctx context.Context, req *IssueRGB25Request) (*Asset, error)
	AssetBalance(ctx context.Context, assetID string) (*Balance, error)
	GetAssetMedia(ctx context.Context, digest string) ([]byte, error)

	BtcBalance(ctx context.Context) (*BtcBalance, error)
	Address(ctx context.Context) (string, error)
	ListUnspents(ctx context.Context) ([]Unspent, error)
	ListTransactions(ctx context.Context) ([]Transaction, error)
	CreateUtxos(ctx context.Context, req *CreateUtxosRequest) error
	EstimateFee(ctx context.Context, blocks uint16) (float64, error)

	ListTransfers(ctx context.Context, assetID string) ([]Transfer, error)
	RefreshTransfers(ctx context.Context) error
	SendOnChain(ctx context.Context, req *SendOnChainRequest) (txid string, err error)
	ReceiveOnChain(ctx context.Context, req *ReceiveOnChainRequest) (*RgbInvoice, error)
	DecodeRgbInvoice(ctx context.Context, invoice string) (*DecodedRgbInvoice, error)
	FailTransfers(ctx context.Context, req *FailTransfersRequest) (transfersChanged bool, err error)

	ListPayments(ctx context.Context) ([]Payment, error)
	SendLn(ctx context.Context, invoice string) (*SendLnResult, error)
	CreateLnInvoice(ctx context.Context, req *LnInvoiceRequest) (string, error)
	DecodeLnInvoice(ctx context.Context, invoice string) (*DecodedLnInvoice, error)

	ListChannels(ctx context.Context) ([]Channel, error)
	OpenChannel(ctx context.Context, req *OpenChannelRequest) (temporaryChannelID string, err error)
	CloseChannel(ctx context.Context, channelID, peerPubkey string, force bool) error

	CheckIndexerURL(ctx context.Context, indexerURL string) error
	CheckProxyEndpoint(ctx context.Context, proxyEndpoint string) error

	Init(ctx context.Context, password string) (mnemonic string, err error)
	Unlock(ctx context.Context, req *UnlockRequest) error
	Lock(ctx context.Context) error
	Backup(ctx context.Context, backupPath, password string) error
	Restore(ctx context.Context, req *RestoreRequest) error

	Close() error
}

func InitGateway(ctx context.Context, c *Config, logger *lecho.Logger) (result Gateway, err error) {
	switch c.WalletMode {
	case REMOTE_WALLET_MODE:
		return NewClient(c.NodeURL, c), nil
	case EMBEDDED_WALLET_MODE:
		node := NewEmbeddedNode(c, logger)
		err = node.Start(ctx)
		if err != nil {
			return nil, err
		}
		return node, nil
	default:
		return nil, fmt.Errorf("Did not recognize wallet mode %s", c.WalletMode)
	}
}
