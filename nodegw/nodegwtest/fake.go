// Package nodegwtest provides an in-memory node gateway for tests.
package nodegwtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/getAlby/rgbhub.go/common"
	"github.com/getAlby/rgbhub.go/nodegw"
)

// DefaultMnemonic is a valid bip39 test vector.
const DefaultMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// Gateway keeps node state in memory. Tests edit the exported state
// directly between calls; Fail injects an error for one method until
// cleared. Hooks replace the default behaviour of write operations and run
// with the state locked, so they edit fields directly.
type Gateway struct {
	mu sync.Mutex

	Info         nodegw.NodeInfo
	Assets       []nodegw.Asset
	Balances     map[string]nodegw.Balance
	Btc          nodegw.BtcBalance
	Unspents     []nodegw.Unspent
	Transactions []nodegw.Transaction
	Transfers    map[string][]nodegw.Transfer
	Payments     []nodegw.Payment
	Channels     []nodegw.Channel
	Media        map[string][]byte
	LnInvoices   map[string]nodegw.DecodedLnInvoice
	RgbInvoices  map[string]nodegw.DecodedRgbInvoice
	Addr         string
	FeeRate      float64
	Mnemonic     string

	OnIssueRGB20    func(req *nodegw.IssueRGB20Request) (*nodegw.Asset, error)
	OnIssueRGB25    func(req *nodegw.IssueRGB25Request) (*nodegw.Asset, error)
	OnCreateUtxos   func(req *nodegw.CreateUtxosRequest) error
	OnSendOnChain   func(req *nodegw.SendOnChainRequest) (string, error)
	OnReceive       func(req *nodegw.ReceiveOnChainRequest) (*nodegw.RgbInvoice, error)
	OnFailTransfers func(req *nodegw.FailTransfersRequest) (bool, error)
	OnSendLn        func(invoice string) (*nodegw.SendLnResult, error)
	OnOpenChannel   func(req *nodegw.OpenChannelRequest) (string, error)
	OnCloseChannel  func(channelID, peerPubkey string, force bool) error

	errs  map[string]error
	calls map[string]int
	seq   int
}

func New() *Gateway {
	return &Gateway{
		Info: nodegw.NodeInfo{
			Pubkey:                   "03b79a4bc1ec365524b4fab9a39eb133753646babb5a1da5c4bc94c53110b7795d",
			MaxMediaUploadSizeMb:     5,
			RgbHtlcMinMsat:           3000000,
			RgbChannelCapacityMinSat: 30010,
			ChannelCapacityMinSat:    5506,
			ChannelCapacityMaxSat:    16777215,
			ChannelAssetMinAmount:    1,
			ChannelAssetMaxAmount:    18446744073709551615,
			Network:                  common.NetworkRegtest,
		},
		Balances:    map[string]nodegw.Balance{},
		Transfers:   map[string][]nodegw.Transfer{},
		Media:       map[string][]byte{},
		LnInvoices:  map[string]nodegw.DecodedLnInvoice{},
		RgbInvoices: map[string]nodegw.DecodedRgbInvoice{},
		Addr:        "bcrt1qxyz0fake0address",
		FeeRate:     2,
		Mnemonic:    DefaultMnemonic,
		errs:        map[string]error{},
		calls:       map[string]int{},
	}
}

// Fail makes method return err until Clear is called.
func (g *Gateway) Fail(method string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.errs[method] = err
}

func (g *Gateway) Clear(method string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.errs, method)
}

// Calls returns how often method was invoked.
func (g *Gateway) Calls(method string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[method]
}

// Update runs fn with the state locked.
func (g *Gateway) Update(fn func(g *Gateway)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(g)
}

// enter records the call and returns the injected error. The caller holds
// the lock until it returns.
func (g *Gateway) enter(method string) error {
	g.mu.Lock()
	g.calls[method]++
	return g.errs[method]
}

func (g *Gateway) next(prefix string) string {
	g.seq++
	return fmt.Sprintf("%s-%d", prefix, g.seq)
}

func (g *Gateway) NodeInfo(ctx context.Context) (*nodegw.NodeInfo, error) {
	defer g.mu.Unlock()
	if err := g.enter("NodeInfo"); err != nil {
		return nil, err
	}
	info := g.Info
	return &info, nil
}

func (g *Gateway) NetworkInfo(ctx context.Context) (*nodegw.NetworkInfo, error) {
	defer g.mu.Unlock()
	if err := g.enter("NetworkInfo"); err != nil {
		return nil, err
	}
	return &nodegw.NetworkInfo{Network: g.Info.Network, Height: 150}, nil
}

func (g *Gateway) ListAssets(ctx context.Context) ([]nodegw.Asset, error) {
	defer g.mu.Unlock()
	if err := g.enter("ListAssets"); err != nil {
		return nil, err
	}
	return append([]nodegw.Asset(nil), g.Assets...), nil
}

// addAsset registers an issued asset with its settled issuance transfer.
func (g *Gateway) addAsset(asset nodegw.Asset) *nodegw.Asset {
	g.Assets = append(g.Assets, asset)
	g.Balances[asset.AssetID] = asset.Balance
	g.Transfers[asset.AssetID] = append(g.Transfers[asset.AssetID], nodegw.Transfer{
		Idx:       1,
		AssetID:   asset.AssetID,
		CreatedAt: asset.Timestamp,
		UpdatedAt: asset.Timestamp,
		Status:    common.TransferStatusSettled,
		Amount:    asset.IssuedSupply,
		Kind:      common.TransferKindIssuance,
	})
	return &asset
}

func sum(amounts []uint64) uint64 {
	var total uint64
	for _, a := range amounts {
		total += a
	}
	return total
}

func (g *Gateway) IssueRGB20(ctx context.Context, req *nodegw.IssueRGB20Request) (*nodegw.Asset, error) {
	defer g.mu.Unlock()
	if err := g.enter("IssueRGB20"); err != nil {
		return nil, err
	}
	if g.OnIssueRGB20 != nil {
		return g.OnIssueRGB20(req)
	}
	supply := sum(req.Amounts)
	return g.addAsset(nodegw.Asset{
		AssetID:      "rgb:" + g.next("nia"),
		Kind:         common.AssetKindRGB20,
		Ticker:       req.Ticker,
		Name:         req.Name,
		Precision:    req.Precision,
		IssuedSupply: supply,
		Balance:      nodegw.Balance{Settled: supply, Future: supply, Spendable: supply},
	}), nil
}

func (g *Gateway) IssueRGB25(ctx context.Context, req *nodegw.IssueRGB25Request) (*nodegw.Asset, error) {
	defer g.mu.Unlock()
	if err := g.enter("IssueRGB25"); err != nil {
		return nil, err
	}
	if g.OnIssueRGB25 != nil {
		return g.OnIssueRGB25(req)
	}
	supply := sum(req.Amounts)
	asset := nodegw.Asset{
		AssetID:      "rgb:" + g.next("cfa"),
		Kind:         common.AssetKindRGB25,
		Name:         req.Name,
		Details:      req.Details,
		Precision:    req.Precision,
		IssuedSupply: supply,
		Balance:      nodegw.Balance{Settled: supply, Future: supply, Spendable: supply},
	}
	if len(req.Media) > 0 {
		digest := g.next("digest")
		g.Media[digest] = req.Media
		asset.Media = &nodegw.Media{Digest: digest, Mime: "application/octet-stream"}
	}
	return g.addAsset(asset), nil
}

func (g *Gateway) AssetBalance(ctx context.Context, assetID string) (*nodegw.Balance, error) {
	defer g.mu.Unlock()
	if err := g.enter("AssetBalance"); err != nil {
		return nil, err
	}
	balance, ok := g.Balances[assetID]
	if !ok {
		return nil, common.NewError(common.KindNotFound, common.KeyAssetNotFound)
	}
	return &balance, nil
}

func (g *Gateway) GetAssetMedia(ctx context.Context, digest string) ([]byte, error) {
	defer g.mu.Unlock()
	if err := g.enter("GetAssetMedia"); err != nil {
		return nil, err
	}
	data, ok := g.Media[digest]
	if !ok {
		return nil, common.NewError(common.KindNotFound, common.KeyAssetNotFound)
	}
	return data, nil
}

func (g *Gateway) BtcBalance(ctx context.Context) (*nodegw.BtcBalance, error) {
	defer g.mu.Unlock()
	if err := g.enter("BtcBalance"); err != nil {
		return nil, err
	}
	balance := g.Btc
	return &balance, nil
}

func (g *Gateway) Address(ctx context.Context) (string, error) {
	defer g.mu.Unlock()
	if err := g.enter("Address"); err != nil {
		return "", err
	}
	return g.Addr, nil
}

func (g *Gateway) ListUnspents(ctx context.Context) ([]nodegw.Unspent, error) {
	defer g.mu.Unlock()
	if err := g.enter("ListUnspents"); err != nil {
		return nil, err
	}
	return append([]nodegw.Unspent(nil), g.Unspents...), nil
}

func (g *Gateway) ListTransactions(ctx context.Context) ([]nodegw.Transaction, error) {
	defer g.mu.Unlock()
	if err := g.enter("ListTransactions"); err != nil {
		return nil, err
	}
	return append([]nodegw.Transaction(nil), g.Transactions...), nil
}

func (g *Gateway) CreateUtxos(ctx context.Context, req *nodegw.CreateUtxosRequest) error {
	defer g.mu.Unlock()
	if err := g.enter("CreateUtxos"); err != nil {
		return err
	}
	if g.OnCreateUtxos != nil {
		return g.OnCreateUtxos(req)
	}
	return nil
}

func (g *Gateway) EstimateFee(ctx context.Context, blocks uint16) (float64, error) {
	defer g.mu.Unlock()
	if err := g.enter("EstimateFee"); err != nil {
		return 0, err
	}
	return g.FeeRate, nil
}

func (g *Gateway) ListTransfers(ctx context.Context, assetID string) ([]nodegw.Transfer, error) {
	defer g.mu.Unlock()
	if err := g.enter("ListTransfers"); err != nil {
		return nil, err
	}
	return append([]nodegw.Transfer(nil), g.Transfers[assetID]...), nil
}

func (g *Gateway) RefreshTransfers(ctx context.Context) error {
	defer g.mu.Unlock()
	return g.enter("RefreshTransfers")
}

func (g *Gateway) SendOnChain(ctx context.Context, req *nodegw.SendOnChainRequest) (string, error) {
	defer g.mu.Unlock()
	if err := g.enter("SendOnChain"); err != nil {
		return "", err
	}
	if g.OnSendOnChain != nil {
		return g.OnSendOnChain(req)
	}
	txid := g.next("txid")
	g.recordSend(req, txid)
	return txid, nil
}

// recordSend lists a dispatched send the way the node does: a bitcoin send
// as an unconfirmed wallet transaction, an asset send as a transfer waiting
// for the counterparty. The amount leaves the spendable balance.
func (g *Gateway) recordSend(req *nodegw.SendOnChainRequest, txid string) {
	if req.AssetID == common.BitcoinAssetID {
		g.Transactions = append(g.Transactions, nodegw.Transaction{
			Type: nodegw.TransactionTypeUser,
			Txid: txid,
			Sent: req.Amount,
		})
		g.Btc.Vanilla.Spendable = subtract(g.Btc.Vanilla.Spendable, req.Amount)
		return
	}
	var idx int64
	for _, t := range g.Transfers[req.AssetID] {
		if t.Idx > idx {
			idx = t.Idx
		}
	}
	g.Transfers[req.AssetID] = append(g.Transfers[req.AssetID], nodegw.Transfer{
		Idx:     idx + 1,
		AssetID: req.AssetID,
		Status:  common.TransferStatusWaitingCounterparty,
		Amount:  req.Amount,
		Kind:    common.TransferKindSend,
		Txid:    txid,
	})
	balance := g.Balances[req.AssetID]
	balance.Spendable = subtract(balance.Spendable, req.Amount)
	g.Balances[req.AssetID] = balance
}

func subtract(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

func (g *Gateway) ReceiveOnChain(ctx context.Context, req *nodegw.ReceiveOnChainRequest) (*nodegw.RgbInvoice, error) {
	defer g.mu.Unlock()
	if err := g.enter("ReceiveOnChain"); err != nil {
		return nil, err
	}
	if g.OnReceive != nil {
		return g.OnReceive(req)
	}
	g.seq++
	return &nodegw.RgbInvoice{
		RecipientID:      fmt.Sprintf("utxob:fake-%d", g.seq),
		Invoice:          fmt.Sprintf("rgb:~/~/utxob:fake-%d", g.seq),
		BatchTransferIdx: int64(g.seq),
	}, nil
}

func (g *Gateway) DecodeRgbInvoice(ctx context.Context, invoice string) (*nodegw.DecodedRgbInvoice, error) {
	defer g.mu.Unlock()
	if err := g.enter("DecodeRgbInvoice"); err != nil {
		return nil, err
	}
	decoded, ok := g.RgbInvoices[invoice]
	if !ok {
		return nil, common.NewError(common.KindInvalidInvoice, common.KeyInvalidInvoice)
	}
	return &decoded, nil
}

func (g *Gateway) FailTransfers(ctx context.Context, req *nodegw.FailTransfersRequest) (bool, error) {
	defer g.mu.Unlock()
	if err := g.enter("FailTransfers"); err != nil {
		return false, err
	}
	if g.OnFailTransfers != nil {
		return g.OnFailTransfers(req)
	}
	return true, nil
}

func (g *Gateway) ListPayments(ctx context.Context) ([]nodegw.Payment, error) {
	defer g.mu.Unlock()
	if err := g.enter("ListPayments"); err != nil {
		return nil, err
	}
	return append([]nodegw.Payment(nil), g.Payments...), nil
}

func (g *Gateway) SendLn(ctx context.Context, invoice string) (*nodegw.SendLnResult, error) {
	defer g.mu.Unlock()
	if err := g.enter("SendLn"); err != nil {
		return nil, err
	}
	if g.OnSendLn != nil {
		return g.OnSendLn(invoice)
	}
	return &nodegw.SendLnResult{Status: common.PaymentStatusPending}, nil
}

// CreateLnInvoice returns an opaque invoice the gateway can decode itself.
func (g *Gateway) CreateLnInvoice(ctx context.Context, req *nodegw.LnInvoiceRequest) (string, error) {
	defer g.mu.Unlock()
	if err := g.enter("CreateLnInvoice"); err != nil {
		return "", err
	}
	g.seq++
	invoice := fmt.Sprintf("lnbcrtfake%d", g.seq)
	g.LnInvoices[invoice] = nodegw.DecodedLnInvoice{
		AmtMsat:     req.AmtMsat,
		ExpirySec:   uint64(req.ExpirySec),
		AssetID:     req.AssetID,
		AssetAmount: req.AssetAmount,
		PaymentHash: fmt.Sprintf("%064x", g.seq),
		PayeePubkey: g.Info.Pubkey,
		Network:     g.Info.Network,
	}
	return invoice, nil
}

func (g *Gateway) DecodeLnInvoice(ctx context.Context, invoice string) (*nodegw.DecodedLnInvoice, error) {
	defer g.mu.Unlock()
	if err := g.enter("DecodeLnInvoice"); err != nil {
		return nil, err
	}
	decoded, ok := g.LnInvoices[invoice]
	if !ok {
		return nil, common.NewError(common.KindInvalidInvoice, common.KeyInvalidInvoice)
	}
	return &decoded, nil
}

func (g *Gateway) ListChannels(ctx context.Context) ([]nodegw.Channel, error) {
	defer g.mu.Unlock()
	if err := g.enter("ListChannels"); err != nil {
		return nil, err
	}
	return append([]nodegw.Channel(nil), g.Channels...), nil
}

func (g *Gateway) OpenChannel(ctx context.Context, req *nodegw.OpenChannelRequest) (string, error) {
	defer g.mu.Unlock()
	if err := g.enter("OpenChannel"); err != nil {
		return "", err
	}
	if g.OnOpenChannel != nil {
		return g.OnOpenChannel(req)
	}
	return g.next("temp"), nil
}

func (g *Gateway) CloseChannel(ctx context.Context, channelID, peerPubkey string, force bool) error {
	defer g.mu.Unlock()
	if err := g.enter("CloseChannel"); err != nil {
		return err
	}
	if g.OnCloseChannel != nil {
		return g.OnCloseChannel(channelID, peerPubkey, force)
	}
	return nil
}

func (g *Gateway) CheckIndexerURL(ctx context.Context, indexerURL string) error {
	defer g.mu.Unlock()
	return g.enter("CheckIndexerURL")
}

func (g *Gateway) CheckProxyEndpoint(ctx context.Context, proxyEndpoint string) error {
	defer g.mu.Unlock()
	return g.enter("CheckProxyEndpoint")
}

func (g *Gateway) Init(ctx context.Context, password string) (string, error) {
	defer g.mu.Unlock()
	if err := g.enter("Init"); err != nil {
		return "", err
	}
	return g.Mnemonic, nil
}

func (g *Gateway) Unlock(ctx context.Context, req *nodegw.UnlockRequest) error {
	defer g.mu.Unlock()
	return g.enter("Unlock")
}

func (g *Gateway) Lock(ctx context.Context) error {
	defer g.mu.Unlock()
	return g.enter("Lock")
}

func (g *Gateway) Backup(ctx context.Context, backupPath, password string) error {
	defer g.mu.Unlock()
	return g.enter("Backup")
}

func (g *Gateway) Restore(ctx context.Context, req *nodegw.RestoreRequest) error {
	defer g.mu.Unlock()
	return g.enter("Restore")
}

func (g *Gateway) Close() error {
	defer g.mu.Unlock()
	return g.enter("Close")
}

var _ nodegw.Gateway = (*Gateway)(nil)
