package common

const (
	BitcoinAssetID = "BITCOIN"

	AssetKindBitcoin = "BITCOIN"
	AssetKindRGB20   = "RGB20"
	AssetKindRGB25   = "RGB25"

	NetworkMainnet = "MAINNET"
	NetworkTestnet = "TESTNET"
	NetworkRegtest = "REGTEST"

	TransferKindIssuance       = "ISSUANCE"
	TransferKindReceiveBlind   = "RECEIVE_BLIND"
	TransferKindReceiveWitness = "RECEIVE_WITNESS"
	TransferKindSend           = "SEND"

	TransferStatusWaitingCounterparty  = "WAITING_COUNTERPARTY"
	TransferStatusWaitingConfirmations = "WAITING_CONFIRMATIONS"
	TransferStatusSettled              = "SETTLED"
	TransferStatusFailed               = "FAILED"

	TransferDirectionInternal = "INTERNAL"
	TransferDirectionSent     = "SENT"
	TransferDirectionReceived = "RECEIVED"
	TransferDirectionOnGoing  = "ON_GOING"

	PaymentStatusPending = "PENDING"
	PaymentStatusSuccess = "SUCCESS"
	PaymentStatusFailed  = "FAILED"

	ChannelStatusOpening      = "OPENING"
	ChannelStatusOpen         = "OPEN"
	ChannelStatusClosing      = "CLOSING"
	ChannelStatusForceClosing = "FORCE_CLOSING"
	ChannelStatusClosed       = "CLOSED"

	EventBalanceChanged        = "balance_changed"
	EventTransferUpdated       = "transfer_updated"
	EventChannelStateChanged   = "channel_state_changed"
	EventNodeUnavailable       = "node_unavailable"
	EventRefreshCycleCompleted = "refresh_cycle_completed"
	EventShutdownRequested     = "shutdown_requested"

	FeeSpeedSlow   = "slow"
	FeeSpeedMedium = "medium"
	FeeSpeedFast   = "fast"

	FeeBlocksSlow   = 17
	FeeBlocksMedium = 7
	FeeBlocksFast   = 1

	ExpiryUnitMinutes = "minutes"
	ExpiryUnitHours   = "hours"
	ExpiryUnitDays    = "days"

	DefaultMinConfirmations      = 1
	DefaultFeeRate               = 5
	DefaultUtxoCount             = 1
	DefaultUtxoSizeSat           = 1000
	DefaultChannelCapacitySat    = 30010
	DefaultChannelPushMsat       = 1394000
	DefaultLnInvoiceMsat         = 3000000
	DefaultLnInvoiceExpirySec    = 420
	DefaultRgbInvoiceDurationSec = 86400
	DefaultFeeBaseMsat           = 1000
	ConfirmationsToOpen          = 6
)
