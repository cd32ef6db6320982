package nodegw

// Entities returned by the gateway. Enum-like string fields always carry the
// constants from the common package, whatever spelling the node uses.

type NodeInfo struct {
	Pubkey                   string `json:"pubkey"`
	PeerListeningPort        int    `json:"peer_listening_port"`
	NumChannels              int    `json:"num_channels"`
	NumUsableChannels        int    `json:"num_usable_channels"`
	LocalBalanceMsat         uint64 `json:"local_balance_msat"`
	NumPeers                 int    `json:"num_peers"`
	OnchainPubkey            string `json:"onchain_pubkey"`
	MaxMediaUploadSizeMb     int    `json:"max_media_upload_size_mb"`
	RgbHtlcMinMsat           uint64 `json:"rgb_htlc_min_msat"`
	RgbChannelCapacityMinSat uint64 `json:"rgb_channel_capacity_min_sat"`
	ChannelCapacityMinSat    uint64 `json:"channel_capacity_min_sat"`
	ChannelCapacityMaxSat    uint64 `json:"channel_capacity_max_sat"`
	ChannelAssetMinAmount    uint64 `json:"channel_asset_min_amount"`
	ChannelAssetMaxAmount    uint64 `json:"channel_asset_max_amount"`
	Network                  string `json:"network"`
}

type NetworkInfo struct {
	Network string `json:"network"`
	Height  uint32 `json:"height"`
}

type Media struct {
	FilePath string `json:"file_path"`
	Digest   string `json:"digest"`
	Mime     string `json:"mime"`
}

type Asset struct {
	AssetID      string  `json:"asset_id"`
	Kind         string  `json:"kind"`
	Ticker       string  `json:"ticker,omitempty"`
	Name         string  `json:"name"`
	Details      string  `json:"details,omitempty"`
	Precision    uint8   `json:"precision"`
	IssuedSupply uint64  `json:"issued_supply"`
	Timestamp    int64   `json:"timestamp"`
	AddedAt      int64   `json:"added_at"`
	Balance      Balance `json:"balance"`
	Media        *Media  `json:"media,omitempty"`
}

type Balance struct {
	Settled          uint64 `json:"settled"`
	Future           uint64 `json:"future"`
	Spendable        uint64 `json:"spendable"`
	OffchainOutbound uint64 `json:"offchain_outbound"`
	OffchainInbound  uint64 `json:"offchain_inbound"`
}

type BtcBalance struct {
	Vanilla Balance `json:"vanilla"`
	Colored Balance `json:"colored"`
}

type Utxo struct {
	Outpoint  string `json:"outpoint"`
	BtcAmount uint64 `json:"btc_amount"`
	Colorable bool   `json:"colorable"`
}

type RgbAllocation struct {
	AssetID string `json:"asset_id"`
	Amount  uint64 `json:"amount"`
	Settled bool   `json:"settled"`
}

type Unspent struct {
	Utxo           Utxo            `json:"utxo"`
	RgbAllocations []RgbAllocation `json:"rgb_allocations"`
}

type TransportEndpoint struct {
	Endpoint      string `json:"endpoint"`
	TransportType string `json:"transport_type"`
	Used          bool   `json:"used"`
}

// Transfer is an on-chain RGB transfer as reported by the node. Amount is
// unsigned; direction is derived from Kind by the ledger.
type Transfer struct {
	Idx                int64               `json:"idx"`
	AssetID            string              `json:"asset_id"`
	CreatedAt          int64               `json:"created_at"`
	UpdatedAt          int64               `json:"updated_at"`
	Status             string              `json:"status"`
	Amount             uint64              `json:"amount"`
	Kind               string              `json:"kind"`
	Txid               string              `json:"txid,omitempty"`
	RecipientID        string              `json:"recipient_id,omitempty"`
	ReceiveUtxo        string              `json:"receive_utxo,omitempty"`
	ChangeUtxo         string              `json:"change_utxo,omitempty"`
	Expiration         int64               `json:"expiration,omitempty"`
	TransportEndpoints []TransportEndpoint `json:"transport_endpoints"`
}

const (
	TransactionTypeUser        = "USER"
	TransactionTypeRgbSend     = "RGB_SEND"
	TransactionTypeCreateUtxos = "CREATE_UTXOS"
	TransactionTypeDrain       = "DRAIN"
)

// Transaction is a bitcoin wallet transaction, used for the BITCOIN asset
// history.
type Transaction struct {
	Type        string `json:"transaction_type"`
	Txid        string `json:"txid"`
	Received    uint64 `json:"received"`
	Sent        uint64 `json:"sent"`
	Fee         uint64 `json:"fee"`
	Confirmed   bool   `json:"confirmed"`
	ConfirmedAt int64  `json:"confirmed_at,omitempty"`
	Height      uint32 `json:"height,omitempty"`
}

type Payment struct {
	PaymentHash string `json:"payment_hash"`
	PayeePubkey string `json:"payee_pubkey"`
	AssetID     string `json:"asset_id,omitempty"`
	AssetAmount uint64 `json:"asset_amount"`
	AmtMsat     uint64 `json:"amt_msat"`
	Inbound     bool   `json:"inbound"`
	Status      string `json:"status"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

type Channel struct {
	ChannelID           string `json:"channel_id"`
	FundingTxid         string `json:"funding_txid"`
	PeerPubkey          string `json:"peer_pubkey"`
	PeerAlias           string `json:"peer_alias"`
	ShortChannelID      uint64 `json:"short_channel_id"`
	Status              string `json:"status"`
	Ready               bool   `json:"ready"`
	CapacitySat         uint64 `json:"capacity_sat"`
	LocalBalanceMsat    uint64 `json:"local_balance_msat"`
	RemoteBalanceMsat   uint64 `json:"remote_balance_msat"`
	OutboundBalanceMsat uint64 `json:"outbound_balance_msat"`
	InboundBalanceMsat  uint64 `json:"inbound_balance_msat"`
	IsUsable            bool   `json:"is_usable"`
	Public              bool   `json:"public"`
	AssetID             string `json:"asset_id,omitempty"`
	AssetLocalAmount    uint64 `json:"asset_local_amount"`
	AssetRemoteAmount   uint64 `json:"asset_remote_amount"`
}

type RgbInvoice struct {
	RecipientID         string `json:"recipient_id"`
	Invoice             string `json:"invoice"`
	ExpirationTimestamp int64  `json:"expiration_timestamp"`
	BatchTransferIdx    int64  `json:"batch_transfer_idx"`
}

type DecodedRgbInvoice struct {
	RecipientID         string   `json:"recipient_id"`
	AssetIface          string   `json:"asset_iface"`
	AssetID             string   `json:"asset_id"`
	Amount              uint64   `json:"amount"`
	Network             string   `json:"network"`
	ExpirationTimestamp int64    `json:"expiration_timestamp"`
	TransportEndpoints  []string `json:"transport_endpoints"`
}

type DecodedLnInvoice struct {
	AmtMsat       uint64 `json:"amt_msat"`
	ExpirySec     uint64 `json:"expiry_sec"`
	Timestamp     int64  `json:"timestamp"`
	AssetID       string `json:"asset_id,omitempty"`
	AssetAmount   uint64 `json:"asset_amount"`
	PaymentHash   string `json:"payment_hash"`
	PaymentSecret string `json:"payment_secret"`
	PayeePubkey   string `json:"payee_pubkey"`
	Network       string `json:"network"`
}

type IssueRGB20Request struct {
	Ticker    string
	Name      string
	Precision uint8
	Amounts   []uint64
}

type IssueRGB25Request struct {
	Name      string
	Details   string
	Precision uint8
	Amounts   []uint64
	Media     []byte
	MediaName string
}

type CreateUtxosRequest struct {
	UpTo    bool
	Num     int
	Size    uint64
	FeeRate float64
}

type SendOnChainRequest struct {
	AssetID          string
	Invoice          string
	Amount           uint64
	FeeRate          float64
	MinConfirmations uint8
}

type ReceiveOnChainRequest struct {
	AssetID          string
	MinConfirmations uint8
	DurationSeconds  uint32
}

type LnInvoiceRequest struct {
	AssetID     string
	AssetAmount uint64
	AmtMsat     uint64
	ExpirySec   uint32
}

type SendLnResult struct {
	PaymentHash string
	Status      string
}

type OpenChannelRequest struct {
	PeerURI     string
	CapacitySat uint64
	PushMsat    uint64
	AssetID     string
	AssetAmount uint64
	Public      bool
	WithAnchors bool
	FeeBaseMsat uint32
}

type FailTransfersRequest struct {
	AssetID          string
	BatchTransferIdx int64
	NoAssetOnly      bool
}

type UnlockRequest struct {
	Password         string
	BitcoindUsername string
	BitcoindPassword string
	BitcoindHost     string
	BitcoindPort     uint16
	IndexerURL       string
	ProxyEndpoint    string
	AnnounceAddress  string
	AnnounceAlias    string
}

type RestoreRequest struct {
	Mnemonic   string
	Password   string
	BackupPath string
}
