package invoices

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/getAlby/rgbhub.go/common"
	"github.com/lightningnetwork/lnd/zpay32"
)

type Bolt11 struct {
	PaymentHash string
	AmtMsat     uint64
	Payee       string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	Description string
}

func ChainFromCurrency(currency string) *chaincfg.Params {
	if strings.HasPrefix(currency, "bcrt") {
		return &chaincfg.RegressionNetParams
	} else if strings.HasPrefix(currency, "tb") {
		return &chaincfg.TestNet3Params
	} else if strings.HasPrefix(currency, "sb") {
		return &chaincfg.SimNetParams
	} else {
		return &chaincfg.MainNetParams
	}
}

// NetworkParams maps a wallet network to its chain parameters.
func NetworkParams(network string) *chaincfg.Params {
	switch network {
	case common.NetworkTestnet:
		return &chaincfg.TestNet3Params
	case common.NetworkRegtest:
		return &chaincfg.RegressionNetParams
	default:
		return &chaincfg.MainNetParams
	}
}

// DecodeBolt11 checks a lightning invoice against the wallet network and clock.
func DecodeBolt11(bolt11, network string, now time.Time) (*Bolt11, error) {
	bolt11 = strings.ToLower(strings.TrimSpace(bolt11))
	bolt11 = strings.TrimPrefix(bolt11, "lightning:")
	if len(bolt11) < 4 || !strings.HasPrefix(bolt11, "ln") {
		return nil, common.NewError(common.KindInvalidInvoice, common.KeyInvalidInvoice)
	}
	params := ChainFromCurrency(bolt11[2:])
	if params.Name != NetworkParams(network).Name {
		return nil, common.NewError(common.KindInvalidInvoice, common.KeyInvoiceWrongNetwork)
	}
	invoice, err := zpay32.Decode(bolt11, params)
	if err != nil {
		return nil, common.WrapError(common.KindInvalidInvoice, common.KeyInvalidInvoice, err)
	}
	expiresAt := invoice.Timestamp.Add(invoice.Expiry())
	if !now.Before(expiresAt) {
		return nil, common.NewError(common.KindInvalidInvoice, common.KeyInvoiceExpired)
	}
	result := &Bolt11{
		CreatedAt: invoice.Timestamp,
		ExpiresAt: expiresAt,
	}
	if invoice.PaymentHash != nil {
		result.PaymentHash = hex.EncodeToString(invoice.PaymentHash[:])
	}
	if invoice.MilliSat != nil {
		result.AmtMsat = uint64(*invoice.MilliSat)
	}
	if invoice.Destination != nil {
		result.Payee = hex.EncodeToString(invoice.Destination.SerializeCompressed())
	}
	if invoice.Description != nil {
		result.Description = *invoice.Description
	}
	return result, nil
}
