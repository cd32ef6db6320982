package common

import "fmt"

const (
	KeyInsufficientFunds         = "insufficient_funds"
	KeyInvalidAddress            = "invalid_address"
	KeyInvalidInvoice            = "invalid_invoice"
	KeyInvoiceExpired            = "invoice_expired"
	KeyInvoiceWrongNetwork       = "invoice_wrong_network"
	KeyInvalidNodeURI            = "invalid_node_uri"
	KeyNoUsableChannel           = "no_usable_channel"
	KeyMsatLowerBoundLimit       = "msat_lower_bound_limit"
	KeyMsatUpperBoundLimit       = "msat_uper_bound_limit"
	KeyAssetAmountExceedsInbound = "asset_amount_exceeds_inbound"
	KeyInvalidFeeRate            = "invalid_fee_rate"
	KeyInvalidAmount             = "invalid_amount"
	KeyInvalidExpiry             = "invalid_expiry"
	KeyCapacityOfChannel         = "channel_capacity_out_of_bounds"
	KeyConnectionFailed          = "connection_failed_with_ln"
	KeyRequestTimeout            = "request_timeout"
	KeyProxyUnreachable          = "proxy_unreachable"
	KeyKeyringUnavailable        = "keyring_unavailable"
	KeyAuthenticationCancelled   = "authentication_cancelled"
	KeyFailTransferNotAllowed    = "fail_transfer_not_allowed"
	KeyFailTransfer              = "fail_transfer_failed"
	KeyFailTransferSuccess       = "fail_transfer_success"
	KeyInvalidIndexerURL         = "invalid_indexer_url"
	KeyInvalidProxyEndpoint      = "invalid_proxy_endpoint"
	KeyInvalidSetting            = "invalid_setting"
	KeyChannelBusy               = "channel_busy"
	KeyChannelClosed             = "channel_closed"
	KeyAssetNotFound             = "asset_not_found"
	KeyTransferNotFound          = "transfer_not_found"
	KeyChannelNotFound           = "channel_not_found"
	KeyWalletLocked              = "wallet_locked"
	KeyInvalidMnemonic           = "invalid_mnemonic"
	KeyWeakPassword              = "weak_password"
	KeyNotEnoughUncolored        = "not_enough_uncolored"
	KeyBadArguments              = "bad_arguments"
)

var catalog = map[string]string{
	KeyInsufficientFunds:         "You have insufficient funds",
	KeyInvalidAddress:            "invalid_address",
	KeyInvalidInvoice:            "invalid_invoice",
	KeyInvoiceExpired:            "The invoice has expired",
	KeyInvoiceWrongNetwork:       "The invoice belongs to a different network",
	KeyInvalidNodeURI:            "Invalid node URI, expected <pubkey>@<host>:<port>",
	KeyNoUsableChannel:           "No usable channel found for this asset",
	KeyMsatLowerBoundLimit:       "Amount must be at least %d sats",
	KeyMsatUpperBoundLimit:       "Amount must not exceed the inbound capacity of %d sats",
	KeyAssetAmountExceedsInbound: "Asset amount exceeds the maximum receivable amount of %d",
	KeyInvalidFeeRate:            "Fee rate must be a positive integer",
	KeyInvalidAmount:             "Amount must be greater than zero",
	KeyInvalidExpiry:             "Expiry must be greater than zero",
	KeyCapacityOfChannel:         "Channel capacity must be between %d and %d sats",
	KeyConnectionFailed:          "Connection failed with the Lightning node",
	KeyRequestTimeout:            "Request time out",
	KeyProxyUnreachable:          "The RGB proxy endpoint is unreachable",
	KeyKeyringUnavailable:        "Feature disabled: Keyring disabled or inaccessible.",
	KeyAuthenticationCancelled:   "Authentication failed or canceled.",
	KeyFailTransferNotAllowed:    "Only transfers waiting for the counterparty can be failed",
	KeyFailTransfer:              "Failed to mark the transfer as unsuccessful.",
	KeyFailTransferSuccess:       "Fail transfer successful",
	KeyInvalidIndexerURL:         "The indexer endpoint is invalid",
	KeyInvalidProxyEndpoint:      "The proxy endpoint is invalid",
	KeyInvalidSetting:            "Invalid value for setting %s",
	KeyChannelBusy:               "Channel %s is still opening",
	KeyChannelClosed:             "Channel with pubkey %s has been closed",
	KeyAssetNotFound:             "Asset %s not found",
	KeyTransferNotFound:          "Transfer %d not found",
	KeyChannelNotFound:           "Channel %s not found",
	KeyWalletLocked:              "The wallet is locked",
	KeyInvalidMnemonic:           "Invalid mnemonic",
	KeyWeakPassword:              "Password is too weak",
	KeyNotEnoughUncolored:        "Not enough uncolored UTXOs",
	KeyBadArguments:              "Bad arguments",
}

// Message renders the catalog entry for key with printf style args.
func Message(key string, args ...interface{}) (string, bool) {
	format, ok := catalog[key]
	if !ok {
		return "", false
	}
	if len(args) == 0 {
		return format, true
	}
	return fmt.Sprintf(format, args...), true
}
