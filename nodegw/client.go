package nodegw

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/getAlby/rgbhub.go/common"
)

// Client speaks the JSON API of a running rgb-lightning-node daemon.
type Client struct {
	host         string
	httpClient   *http.Client
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func NewClient(host string, c *Config) *Client {
	return &Client{
		host:         strings.TrimRight(host, "/"),
		httpClient:   &http.Client{},
		readTimeout:  c.readTimeout(),
		writeTimeout: c.writeTimeout(),
	}
}

type apiErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
	Name  string `json:"name"`
}

type emptyResponse struct{}

func (cl *Client) read(ctx context.Context, method, endpoint string, body, response interface{}) error {
	return cl.Request(ctx, cl.readTimeout, method, endpoint, body, response)
}

func (cl *Client) write(ctx context.Context, endpoint string, body, response interface{}) error {
	return cl.Request(ctx, cl.writeTimeout, http.MethodPost, endpoint, body, response)
}

// Request performs one call against the node. A deadline hit or a transport
// failure becomes NODE_UNAVAILABLE. Cancellation of the caller's context is
// returned unchanged so callers can tell it apart from a node outage.
func (cl *Client) Request(ctx context.Context, timeout time.Duration, method, endpoint string, body, response interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(callCtx, method, fmt.Sprintf("%s%s", cl.host, endpoint), reader)
	if err != nil {
		return err
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	return cl.do(ctx, httpReq, response)
}

func (cl *Client) do(ctx context.Context, httpReq *http.Request, response interface{}) error {
	resp, err := cl.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return common.WrapError(common.KindNodeUnavailable, common.KeyRequestTimeout, err)
		}
		return common.WrapError(common.KindNodeUnavailable, common.KeyConnectionFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		apiErr := apiErrorResponse{}
		raw, _ := io.ReadAll(resp.Body)
		if jsonErr := json.Unmarshal(raw, &apiErr); jsonErr != nil || apiErr.Error == "" {
			apiErr.Error = fmt.Sprintf("Got a bad http response status code from the node %d for request %s", resp.StatusCode, httpReq.URL.Path)
		}
		if apiErr.Code == 0 {
			apiErr.Code = resp.StatusCode
		}
		return mapAPIError(apiErr)
	}
	if response == nil {
		return nil
	}
	err = json.NewDecoder(resp.Body).Decode(response)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return common.WrapError(common.KindNodeUnavailable, common.KeyConnectionFailed, err)
	}
	return nil
}

func (cl *Client) NodeInfo(ctx context.Context) (*NodeInfo, error) {
	info := NodeInfo{}
	err := cl.read(ctx, http.MethodGet, "/nodeinfo", nil, &info)
	if err != nil {
		return nil, err
	}
	network, err := cl.NetworkInfo(ctx)
	if err != nil {
		return nil, err
	}
	info.Network = network.Network
	return &info, nil
}

func (cl *Client) NetworkInfo(ctx context.Context) (*NetworkInfo, error) {
	info := NetworkInfo{}
	err := cl.read(ctx, http.MethodGet, "/networkinfo", nil, &info)
	if err != nil {
		return nil, err
	}
	info.Network = convertNetwork(info.Network)
	return &info, nil
}

type listAssetsRequest struct {
	FilterAssetSchemas []string `json:"filter_asset_schemas"`
}

type listAssetsResponse struct {
	Nia []Asset `json:"nia"`
	Uda []Asset `json:"uda"`
	Cfa []Asset `json:"cfa"`
}

func (cl *Client) ListAssets(ctx context.Context) ([]Asset, error) {
	resp := listAssetsResponse{}
	err := cl.read(ctx, http.MethodPost, "/listassets", &listAssetsRequest{FilterAssetSchemas: []string{"Nia", "Cfa"}}, &resp)
	if err != nil {
		return nil, err
	}
	assets := make([]Asset, 0, len(resp.Nia)+len(resp.Cfa))
	for _, a := range resp.Nia {
		a.Kind = common.AssetKindRGB20
		assets = append(assets, a)
	}
	for _, a := range resp.Cfa {
		a.Kind = common.AssetKindRGB25
		assets = append(assets, a)
	}
	return assets, nil
}

type issueAssetNiaRequest struct {
	Amounts   []uint64 `json:"amounts"`
	Ticker    string   `json:"ticker"`
	Name      string   `json:"name"`
	Precision uint8    `json:"precision"`
}

type issueAssetCfaRequest struct {
	Amounts    []uint64 `json:"amounts"`
	Name       string   `json:"name"`
	Details    string   `json:"details,omitempty"`
	Precision  uint8    `json:"precision"`
	FileDigest string   `json:"file_digest,omitempty"`
}

type issueAssetResponse struct {
	Asset Asset `json:"asset"`
}

func (cl *Client) IssueRGB20(ctx context.Context, req *IssueRGB20Request) (*Asset, error) {
	resp := issueAssetResponse{}
	err := cl.write(ctx, "/issueassetnia", &issueAssetNiaRequest{
		Amounts:   req.Amounts,
		Ticker:    req.Ticker,
		Name:      req.Name,
		Precision: req.Precision,
	}, &resp)
	if err != nil {
		return nil, err
	}
	resp.Asset.Kind = common.AssetKindRGB20
	return &resp.Asset, nil
}

func (cl *Client) IssueRGB25(ctx context.Context, req *IssueRGB25Request) (*Asset, error) {
	digest := ""
	if len(req.Media) > 0 {
		var err error
		digest, err = cl.postAssetMedia(ctx, req.MediaName, req.Media)
		if err != nil {
			return nil, err
		}
	}
	resp := issueAssetResponse{}
	err := cl.write(ctx, "/issueassetcfa", &issueAssetCfaRequest{
		Amounts:    req.Amounts,
		Name:       req.Name,
		Details:    req.Details,
		Precision:  req.Precision,
		FileDigest: digest,
	}, &resp)
	if err != nil {
		return nil, err
	}
	resp.Asset.Kind = common.AssetKindRGB25
	return &resp.Asset, nil
}

func (cl *Client) postAssetMedia(ctx context.Context, name string, media []byte) (string, error) {
	if name == "" {
		name = "media"
	}
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return "", err
	}
	if _, err = part.Write(media); err != nil {
		return "", err
	}
	if err = writer.Close(); err != nil {
		return "", err
	}
	callCtx, cancel := context.WithTimeout(ctx, cl.writeTimeout)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, cl.host+"/postassetmedia", body)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	resp := struct {
		Digest string `json:"digest"`
	}{}
	err = cl.do(ctx, httpReq, &resp)
	if err != nil {
		return "", err
	}
	return resp.Digest, nil
}

func (cl *Client) AssetBalance(ctx context.Context, assetID string) (*Balance, error) {
	balance := Balance{}
	err := cl.read(ctx, http.MethodPost, "/assetbalance", map[string]string{"asset_id": assetID}, &balance)
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

func (cl *Client) GetAssetMedia(ctx context.Context, digest string) ([]byte, error) {
	resp := struct {
		BytesHex string `json:"bytes_hex"`
	}{}
	err := cl.read(ctx, http.MethodPost, "/getassetmedia", map[string]string{"digest": digest}, &resp)
	if err != nil {
		return nil, err
	}
	return hex.DecodeString(resp.BytesHex)
}

type skipSyncRequest struct {
	SkipSync bool `json:"skip_sync"`
}

func (cl *Client) BtcBalance(ctx context.Context) (*BtcBalance, error) {
	balance := BtcBalance{}
	err := cl.read(ctx, http.MethodPost, "/btcbalance", &skipSyncRequest{}, &balance)
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

func (cl *Client) Address(ctx context.Context) (string, error) {
	resp := struct {
		Address string `json:"address"`
	}{}
	err := cl.write(ctx, "/address", nil, &resp)
	if err != nil {
		return "", err
	}
	return resp.Address, nil
}

func (cl *Client) ListUnspents(ctx context.Context) ([]Unspent, error) {
	resp := struct {
		Unspents []Unspent `json:"unspents"`
	}{}
	err := cl.read(ctx, http.MethodPost, "/listunspents", &skipSyncRequest{}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Unspents, nil
}

type createUtxosRequest struct {
	UpTo     bool    `json:"up_to"`
	Num      int     `json:"num"`
	Size     uint64  `json:"size"`
	FeeRate  float64 `json:"fee_rate"`
	SkipSync bool    `json:"skip_sync"`
}

func (cl *Client) CreateUtxos(ctx context.Context, req *CreateUtxosRequest) error {
	return cl.write(ctx, "/createutxos", &createUtxosRequest{
		UpTo:    req.UpTo,
		Num:     req.Num,
		Size:    req.Size,
		FeeRate: req.FeeRate,
	}, &emptyResponse{})
}

func (cl *Client) EstimateFee(ctx context.Context, blocks uint16) (float64, error) {
	resp := struct {
		FeeRate float64 `json:"fee_rate"`
	}{}
	err := cl.read(ctx, http.MethodPost, "/estimatefee", map[string]uint16{"blocks": blocks}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.FeeRate, nil
}

type nodeTransfer struct {
	Idx                int64               `json:"idx"`
	CreatedAt          int64               `json:"created_at"`
	UpdatedAt          int64               `json:"updated_at"`
	Status             string              `json:"status"`
	Amount             uint64              `json:"amount"`
	Kind               string              `json:"kind"`
	Txid               *string             `json:"txid"`
	RecipientID        *string             `json:"recipient_id"`
	ReceiveUtxo        *outpoint           `json:"receive_utxo"`
	ChangeUtxo         *outpoint           `json:"change_utxo"`
	Expiration         *int64              `json:"expiration"`
	TransportEndpoints []TransportEndpoint `json:"transport_endpoints"`
}

type outpoint struct {
	Txid string `json:"txid"`
	Vout uint32 `json:"vout"`
}

func (o *outpoint) String() string {
	if o == nil {
		return ""
	}
	return fmt.Sprintf("%s:%d", o.Txid, o.Vout)
}

type listTransactionsRequest struct {
	SkipSync bool `json:"skip_sync"`
}

type nodeTransaction struct {
	TransactionType  string `json:"transaction_type"`
	Txid             string `json:"txid"`
	Received         uint64 `json:"received"`
	Sent             uint64 `json:"sent"`
	Fee              uint64 `json:"fee"`
	ConfirmationTime *struct {
		Height    uint32 `json:"height"`
		Timestamp int64  `json:"timestamp"`
	} `json:"confirmation_time"`
}

func (cl *Client) ListTransactions(ctx context.Context) ([]Transaction, error) {
	resp := &struct {
		Transactions []nodeTransaction `json:"transactions"`
	}{}
	err := cl.read(ctx, http.MethodPost, "/listtransactions", &listTransactionsRequest{}, resp)
	if err != nil {
		return nil, err
	}
	result := make([]Transaction, 0, len(resp.Transactions))
	for _, tx := range resp.Transactions {
		converted := Transaction{
			Type:     convertTransactionType(tx.TransactionType),
			Txid:     tx.Txid,
			Received: tx.Received,
			Sent:     tx.Sent,
			Fee:      tx.Fee,
		}
		if tx.ConfirmationTime != nil {
			converted.Confirmed = true
			converted.ConfirmedAt = tx.ConfirmationTime.Timestamp
			converted.Height = tx.ConfirmationTime.Height
		}
		result = append(result, converted)
	}
	return result, nil
}

func (cl *Client) ListTransfers(ctx context.Context, assetID string) ([]Transfer, error) {
	resp := struct {
		Transfers []nodeTransfer `json:"transfers"`
	}{}
	err := cl.read(ctx, http.MethodPost, "/listtransfers", map[string]string{"asset_id": assetID}, &resp)
	if err != nil {
		return nil, err
	}
	transfers := make([]Transfer, 0, len(resp.Transfers))
	for _, t := range resp.Transfers {
		transfers = append(transfers, Transfer{
			Idx:                t.Idx,
			AssetID:            assetID,
			CreatedAt:          t.CreatedAt,
			UpdatedAt:          t.UpdatedAt,
			Status:             convertTransferStatus(t.Status),
			Amount:             t.Amount,
			Kind:               convertTransferKind(t.Kind),
			Txid:               stringValue(t.Txid),
			RecipientID:        stringValue(t.RecipientID),
			ReceiveUtxo:        t.ReceiveUtxo.String(),
			ChangeUtxo:         t.ChangeUtxo.String(),
			Expiration:         int64Value(t.Expiration),
			TransportEndpoints: t.TransportEndpoints,
		})
	}
	return transfers, nil
}

func (cl *Client) RefreshTransfers(ctx context.Context) error {
	return cl.write(ctx, "/refreshtransfers", &skipSyncRequest{}, &emptyResponse{})
}

type sendAssetRequest struct {
	AssetID            string   `json:"asset_id"`
	Amount             uint64   `json:"amount"`
	RecipientID        string   `json:"recipient_id"`
	Donation           bool     `json:"donation"`
	FeeRate            float64  `json:"fee_rate"`
	MinConfirmations   uint8    `json:"min_confirmations"`
	TransportEndpoints []string `json:"transport_endpoints"`
	SkipSync           bool     `json:"skip_sync"`
}

type sendBtcRequest struct {
	Amount   uint64  `json:"amount"`
	Address  string  `json:"address"`
	FeeRate  float64 `json:"fee_rate"`
	SkipSync bool    `json:"skip_sync"`
}

type txidResponse struct {
	Txid string `json:"txid"`
}

// SendOnChain sends bitcoin when AssetID is the BITCOIN sentinel, otherwise it
// decodes the RGB invoice at the node and sends the asset to its recipient.
func (cl *Client) SendOnChain(ctx context.Context, req *SendOnChainRequest) (string, error) {
	resp := txidResponse{}
	if req.AssetID == common.BitcoinAssetID {
		err := cl.write(ctx, "/sendbtc", &sendBtcRequest{
			Amount:  req.Amount,
			Address: req.Invoice,
			FeeRate: req.FeeRate,
		}, &resp)
		if err != nil {
			return "", err
		}
		return resp.Txid, nil
	}
	decoded, err := cl.DecodeRgbInvoice(ctx, req.Invoice)
	if err != nil {
		return "", err
	}
	err = cl.write(ctx, "/sendasset", &sendAssetRequest{
		AssetID:            req.AssetID,
		Amount:             req.Amount,
		RecipientID:        decoded.RecipientID,
		FeeRate:            req.FeeRate,
		MinConfirmations:   req.MinConfirmations,
		TransportEndpoints: decoded.TransportEndpoints,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Txid, nil
}

type rgbInvoiceRequest struct {
	MinConfirmations uint8   `json:"min_confirmations"`
	AssetID          *string `json:"asset_id"`
	DurationSeconds  uint32  `json:"duration_seconds"`
}

func (cl *Client) ReceiveOnChain(ctx context.Context, req *ReceiveOnChainRequest) (*RgbInvoice, error) {
	body := &rgbInvoiceRequest{
		MinConfirmations: req.MinConfirmations,
		DurationSeconds:  req.DurationSeconds,
	}
	if req.AssetID != "" {
		body.AssetID = &req.AssetID
	}
	resp := RgbInvoice{}
	err := cl.write(ctx, "/rgbinvoice", body, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (cl *Client) DecodeRgbInvoice(ctx context.Context, invoice string) (*DecodedRgbInvoice, error) {
	resp := DecodedRgbInvoice{}
	err := cl.read(ctx, http.MethodPost, "/decodergbinvoice", map[string]string{"invoice": invoice}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

type failTransfersRequest struct {
	BatchTransferIdx int64 `json:"batch_transfer_idx"`
	NoAssetOnly      bool  `json:"no_asset_only"`
	SkipSync         bool  `json:"skip_sync"`
}

func (cl *Client) FailTransfers(ctx context.Context, req *FailTransfersRequest) (bool, error) {
	resp := struct {
		TransfersChanged bool `json:"transfers_changed"`
	}{}
	err := cl.write(ctx, "/failtransfers", &failTransfersRequest{
		BatchTransferIdx: req.BatchTransferIdx,
		NoAssetOnly:      req.NoAssetOnly,
	}, &resp)
	if err != nil {
		return false, err
	}
	return resp.TransfersChanged, nil
}

type nodePayment struct {
	AmtMsat     *uint64 `json:"amt_msat"`
	AssetAmount *uint64 `json:"asset_amount"`
	AssetID     *string `json:"asset_id"`
	PaymentHash string  `json:"payment_hash"`
	Inbound     bool    `json:"inbound"`
	Status      string  `json:"status"`
	CreatedAt   int64   `json:"created_at"`
	UpdatedAt   int64   `json:"updated_at"`
	PayeePubkey string  `json:"payee_pubkey"`
}

func (cl *Client) ListPayments(ctx context.Context) ([]Payment, error) {
	resp := struct {
		Payments []nodePayment `json:"payments"`
	}{}
	err := cl.read(ctx, http.MethodGet, "/listpayments", nil, &resp)
	if err != nil {
		return nil, err
	}
	payments := make([]Payment, 0, len(resp.Payments))
	for _, p := range resp.Payments {
		payments = append(payments, Payment{
			PaymentHash: p.PaymentHash,
			PayeePubkey: p.PayeePubkey,
			AssetID:     stringValue(p.AssetID),
			AssetAmount: uint64Value(p.AssetAmount),
			AmtMsat:     uint64Value(p.AmtMsat),
			Inbound:     p.Inbound,
			Status:      convertPaymentStatus(p.Status),
			CreatedAt:   p.CreatedAt,
			UpdatedAt:   p.UpdatedAt,
		})
	}
	return payments, nil
}

func (cl *Client) SendLn(ctx context.Context, invoice string) (*SendLnResult, error) {
	resp := struct {
		PaymentHash string `json:"payment_hash"`
		Status      string `json:"status"`
	}{}
	err := cl.write(ctx, "/sendpayment", map[string]string{"invoice": invoice}, &resp)
	if err != nil {
		return nil, err
	}
	return &SendLnResult{PaymentHash: resp.PaymentHash, Status: convertPaymentStatus(resp.Status)}, nil
}

type lnInvoiceRequest struct {
	AmtMsat     uint64  `json:"amt_msat"`
	ExpirySec   uint32  `json:"expiry_sec"`
	AssetID     *string `json:"asset_id"`
	AssetAmount *uint64 `json:"asset_amount"`
}

func (cl *Client) CreateLnInvoice(ctx context.Context, req *LnInvoiceRequest) (string, error) {
	body := &lnInvoiceRequest{AmtMsat: req.AmtMsat, ExpirySec: req.ExpirySec}
	if req.AssetID != "" {
		body.AssetID = &req.AssetID
		body.AssetAmount = &req.AssetAmount
	}
	resp := struct {
		Invoice string `json:"invoice"`
	}{}
	err := cl.write(ctx, "/lninvoice", body, &resp)
	if err != nil {
		return "", err
	}
	return resp.Invoice, nil
}

func (cl *Client) DecodeLnInvoice(ctx context.Context, invoice string) (*DecodedLnInvoice, error) {
	resp := DecodedLnInvoice{}
	err := cl.read(ctx, http.MethodPost, "/decodelninvoice", map[string]string{"invoice": invoice}, &resp)
	if err != nil {
		return nil, err
	}
	resp.Network = convertNetwork(resp.Network)
	return &resp, nil
}

type nodeChannel struct {
	ChannelID           string  `json:"channel_id"`
	FundingTxid         string  `json:"funding_txid"`
	PeerPubkey          string  `json:"peer_pubkey"`
	PeerAlias           string  `json:"peer_alias"`
	ShortChannelID      uint64  `json:"short_channel_id"`
	Status              string  `json:"status"`
	Ready               bool    `json:"ready"`
	CapacitySat         uint64  `json:"capacity_sat"`
	LocalBalanceMsat    uint64  `json:"local_balance_msat"`
	OutboundBalanceMsat uint64  `json:"outbound_balance_msat"`
	InboundBalanceMsat  uint64  `json:"inbound_balance_msat"`
	IsUsable            bool    `json:"is_usable"`
	Public              bool    `json:"public"`
	AssetID             *string `json:"asset_id"`
	AssetLocalAmount    *uint64 `json:"asset_local_amount"`
	AssetRemoteAmount   *uint64 `json:"asset_remote_amount"`
}

func (cl *Client) ListChannels(ctx context.Context) ([]Channel, error) {
	resp := struct {
		Channels []nodeChannel `json:"channels"`
	}{}
	err := cl.read(ctx, http.MethodGet, "/listchannels", nil, &resp)
	if err != nil {
		return nil, err
	}
	channels := make([]Channel, 0, len(resp.Channels))
	for _, ch := range resp.Channels {
		remote := uint64(0)
		if ch.CapacitySat*1000 > ch.LocalBalanceMsat {
			remote = ch.CapacitySat*1000 - ch.LocalBalanceMsat
		}
		channels = append(channels, Channel{
			ChannelID:           ch.ChannelID,
			FundingTxid:         ch.FundingTxid,
			PeerPubkey:          ch.PeerPubkey,
			PeerAlias:           ch.PeerAlias,
			ShortChannelID:      ch.ShortChannelID,
			Status:              convertChannelStatus(ch.Status),
			Ready:               ch.Ready,
			CapacitySat:         ch.CapacitySat,
			LocalBalanceMsat:    ch.LocalBalanceMsat,
			RemoteBalanceMsat:   remote,
			OutboundBalanceMsat: ch.OutboundBalanceMsat,
			InboundBalanceMsat:  ch.InboundBalanceMsat,
			IsUsable:            ch.IsUsable,
			Public:              ch.Public,
			AssetID:             stringValue(ch.AssetID),
			AssetLocalAmount:    uint64Value(ch.AssetLocalAmount),
			AssetRemoteAmount:   uint64Value(ch.AssetRemoteAmount),
		})
	}
	return channels, nil
}

type openChannelRequest struct {
	PeerPubkeyAndOptAddr string  `json:"peer_pubkey_and_opt_addr"`
	CapacitySat          uint64  `json:"capacity_sat"`
	PushMsat             uint64  `json:"push_msat"`
	AssetAmount          *uint64 `json:"asset_amount"`
	AssetID              *string `json:"asset_id"`
	Public               bool    `json:"public"`
	WithAnchors          bool    `json:"with_anchors"`
	FeeBaseMsat          uint32  `json:"fee_base_msat"`
}

func (cl *Client) OpenChannel(ctx context.Context, req *OpenChannelRequest) (string, error) {
	body := &openChannelRequest{
		PeerPubkeyAndOptAddr: req.PeerURI,
		CapacitySat:          req.CapacitySat,
		PushMsat:             req.PushMsat,
		Public:               req.Public,
		WithAnchors:          req.WithAnchors,
		FeeBaseMsat:          req.FeeBaseMsat,
	}
	if req.AssetID != "" {
		body.AssetID = &req.AssetID
		body.AssetAmount = &req.AssetAmount
	}
	resp := struct {
		TemporaryChannelID string `json:"temporary_channel_id"`
	}{}
	err := cl.write(ctx, "/openchannel", body, &resp)
	if err != nil {
		return "", err
	}
	return resp.TemporaryChannelID, nil
}

type closeChannelRequest struct {
	ChannelID  string `json:"channel_id"`
	PeerPubkey string `json:"peer_pubkey"`
	Force      bool   `json:"force"`
}

func (cl *Client) CloseChannel(ctx context.Context, channelID, peerPubkey string, force bool) error {
	return cl.write(ctx, "/closechannel", &closeChannelRequest{
		ChannelID:  channelID,
		PeerPubkey: peerPubkey,
		Force:      force,
	}, &emptyResponse{})
}

func (cl *Client) CheckIndexerURL(ctx context.Context, indexerURL string) error {
	return cl.read(ctx, http.MethodPost, "/checkindexerurl", map[string]string{"indexer_url": indexerURL}, &emptyResponse{})
}

func (cl *Client) CheckProxyEndpoint(ctx context.Context, proxyEndpoint string) error {
	return cl.read(ctx, http.MethodPost, "/checkproxyendpoint", map[string]string{"proxy_endpoint": proxyEndpoint}, &emptyResponse{})
}

func (cl *Client) Init(ctx context.Context, password string) (string, error) {
	resp := struct {
		Mnemonic string `json:"mnemonic"`
	}{}
	err := cl.write(ctx, "/init", map[string]string{"password": password}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Mnemonic, nil
}

type unlockRequest struct {
	Password          string   `json:"password"`
	BitcoindRPCUser   string   `json:"bitcoind_rpc_username,omitempty"`
	BitcoindRPCPass   string   `json:"bitcoind_rpc_password,omitempty"`
	BitcoindRPCHost   string   `json:"bitcoind_rpc_host,omitempty"`
	BitcoindRPCPort   uint16   `json:"bitcoind_rpc_port,omitempty"`
	IndexerURL        string   `json:"indexer_url,omitempty"`
	ProxyEndpoint     string   `json:"proxy_endpoint,omitempty"`
	AnnounceAddresses []string `json:"announce_addresses"`
	AnnounceAlias     string   `json:"announce_alias,omitempty"`
}

func (cl *Client) Unlock(ctx context.Context, req *UnlockRequest) error {
	body := &unlockRequest{
		Password:          req.Password,
		BitcoindRPCUser:   req.BitcoindUsername,
		BitcoindRPCPass:   req.BitcoindPassword,
		BitcoindRPCHost:   req.BitcoindHost,
		BitcoindRPCPort:   req.BitcoindPort,
		IndexerURL:        req.IndexerURL,
		ProxyEndpoint:     req.ProxyEndpoint,
		AnnounceAddresses: []string{},
		AnnounceAlias:     req.AnnounceAlias,
	}
	if req.AnnounceAddress != "" {
		body.AnnounceAddresses = append(body.AnnounceAddresses, req.AnnounceAddress)
	}
	return cl.write(ctx, "/unlock", body, &emptyResponse{})
}

func (cl *Client) Lock(ctx context.Context) error {
	return cl.write(ctx, "/lock", nil, &emptyResponse{})
}

type backupRequest struct {
	BackupPath string `json:"backup_path"`
	Password   string `json:"password"`
}

func (cl *Client) Backup(ctx context.Context, backupPath, password string) error {
	return cl.write(ctx, "/backup", &backupRequest{BackupPath: backupPath, Password: password}, &emptyResponse{})
}

func (cl *Client) Restore(ctx context.Context, req *RestoreRequest) error {
	return cl.write(ctx, "/restore", &backupRequest{BackupPath: req.BackupPath, Password: req.Password}, &emptyResponse{})
}

func (cl *Client) Close() error {
	cl.httpClient.CloseIdleConnections()
	return nil
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func uint64Value(v *uint64) uint64 {
	if v == nil {
		return 0
	}
	return *v
}

func int64Value(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
