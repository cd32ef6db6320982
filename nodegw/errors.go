package nodegw

import (
	"errors"
	"strings"

	"github.com/getAlby/rgbhub.go/common"
)

// node error names grouped by the wallet error kind they surface as
var apiErrorKinds = map[string]struct {
	kind common.ErrorKind
	key  string
}{
	"InsufficientAssets":        {common.KindInsufficientFunds, common.KeyInsufficientFunds},
	"InsufficientFunds":         {common.KindInsufficientFunds, common.KeyInsufficientFunds},
	"InsufficientCapacity":      {common.KindInsufficientFunds, common.KeyInsufficientFunds},
	"NoAvailableUtxos":          {common.KindInsufficientFunds, common.KeyNotEnoughUncolored},
	"InvalidAddress":            {common.KindInvalidInvoice, common.KeyInvalidAddress},
	"InvalidInvoice":            {common.KindInvalidInvoice, common.KeyInvalidInvoice},
	"InvalidRecipientID":        {common.KindInvalidInvoice, common.KeyInvalidInvoice},
	"InvalidRecipientNetwork":   {common.KindInvalidInvoice, common.KeyInvoiceWrongNetwork},
	"InvoiceExpired":            {common.KindInvalidInvoice, common.KeyInvoiceExpired},
	"RecipientIDAlreadyUsed":    {common.KindInvalidInvoice, common.KeyInvalidInvoice},
	"InvalidPeerInfo":           {common.KindInvalidNodeURI, common.KeyInvalidNodeURI},
	"InvalidPubkey":             {common.KindInvalidNodeURI, common.KeyInvalidNodeURI},
	"NoRoute":                   {common.KindNoUsableChannel, common.KeyNoUsableChannel},
	"NoAvailableChannels":       {common.KindNoUsableChannel, common.KeyNoUsableChannel},
	"InvalidAmount":             {common.KindValidation, common.KeyInvalidAmount},
	"InvalidIndexer":            {common.KindConfigInvalid, common.KeyInvalidIndexerURL},
	"IndexerError":              {common.KindConfigInvalid, common.KeyInvalidIndexerURL},
	"InvalidProxyEndpoint":      {common.KindConfigInvalid, common.KeyInvalidProxyEndpoint},
	"InvalidProxyProtocol":      {common.KindConfigInvalid, common.KeyInvalidProxyEndpoint},
	"InvalidBitcoinRPC":         {common.KindConfigInvalid, common.KeyInvalidSetting},
	"Proxy":                     {common.KindProxyUnreachable, common.KeyProxyUnreachable},
	"ProxyError":                {common.KindProxyUnreachable, common.KeyProxyUnreachable},
	"CannotFailBatchTransfer":   {common.KindFailTransferNotAllowed, common.KeyFailTransferNotAllowed},
	"LockedNode":                {common.KindWalletLocked, common.KeyWalletLocked},
	"NotInitialized":            {common.KindWalletLocked, common.KeyWalletLocked},
	"WrongPassword":             {common.KindNativeAuthRejected, common.KeyAuthenticationCancelled},
	"UnknownRgbInvoice":         {common.KindInvalidInvoice, common.KeyInvalidInvoice},
	"UnknownContractId":         {common.KindNotFound, common.KeyAssetNotFound},
	"UnknownTemporaryChannelId": {common.KindNotFound, common.KeyChannelNotFound},
	"UnknownChannelId":          {common.KindNotFound, common.KeyChannelNotFound},
}

// mapAPIError converts a node error payload into a typed wallet error. Unknown
// names keep the node message under UNKNOWN.
func mapAPIError(apiErr apiErrorResponse) error {
	cause := errors.New(apiErr.Error)
	if mapped, ok := apiErrorKinds[apiErr.Name]; ok {
		return common.WrapError(mapped.kind, mapped.key, cause)
	}
	msg := strings.ToLower(apiErr.Error)
	switch {
	case strings.Contains(msg, "insufficient"):
		return common.WrapError(common.KindInsufficientFunds, common.KeyInsufficientFunds, cause)
	case strings.Contains(msg, "proxy"):
		return common.WrapError(common.KindProxyUnreachable, common.KeyProxyUnreachable, cause)
	case strings.Contains(msg, "locked"):
		return common.WrapError(common.KindWalletLocked, common.KeyWalletLocked, cause)
	case apiErr.Code == 503 || apiErr.Code == 502 || apiErr.Code == 504:
		return common.WrapError(common.KindNodeUnavailable, common.KeyConnectionFailed, cause)
	}
	return common.WrapError(common.KindUnknown, "", cause)
}

func convertNetwork(network string) string {
	switch strings.ToLower(network) {
	case "mainnet", "bitcoin":
		return common.NetworkMainnet
	case "testnet", "signet":
		return common.NetworkTestnet
	case "regtest":
		return common.NetworkRegtest
	}
	return strings.ToUpper(network)
}

func convertTransferStatus(status string) string {
	switch status {
	case "WaitingCounterparty":
		return common.TransferStatusWaitingCounterparty
	case "WaitingConfirmations":
		return common.TransferStatusWaitingConfirmations
	case "Settled":
		return common.TransferStatusSettled
	case "Failed":
		return common.TransferStatusFailed
	}
	return status
}

func convertTransferKind(kind string) string {
	switch kind {
	case "Issuance":
		return common.TransferKindIssuance
	case "ReceiveBlind":
		return common.TransferKindReceiveBlind
	case "ReceiveWitness":
		return common.TransferKindReceiveWitness
	case "Send":
		return common.TransferKindSend
	}
	return kind
}

func convertPaymentStatus(status string) string {
	switch status {
	case "Pending", "Claimable":
		return common.PaymentStatusPending
	case "Succeeded":
		return common.PaymentStatusSuccess
	case "Failed":
		return common.PaymentStatusFailed
	}
	return status
}

func convertChannelStatus(status string) string {
	switch status {
	case "Opening":
		return common.ChannelStatusOpening
	case "Opened":
		return common.ChannelStatusOpen
	case "Closing":
		return common.ChannelStatusClosing
	}
	return status
}

func convertTransactionType(t string) string {
	switch t {
	case "RgbSend":
		return TransactionTypeRgbSend
	case "CreateUtxos":
		return TransactionTypeCreateUtxos
	case "Drain":
		return TransactionTypeDrain
	default:
		return TransactionTypeUser
	}
}
