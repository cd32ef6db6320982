package invoices

import (
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/getAlby/rgbhub.go/common"
)

// ValidateAddress accepts bitcoin addresses of the wallet network only.
func ValidateAddress(address, network string) error {
	address = strings.TrimSpace(address)
	params := NetworkParams(network)
	decoded, err := btcutil.DecodeAddress(address, params)
	if err != nil {
		return common.WrapError(common.KindInvalidInvoice, common.KeyInvalidAddress, err)
	}
	if !decoded.IsForNet(params) {
		return common.NewError(common.KindInvalidInvoice, common.KeyInvalidAddress)
	}
	return nil
}
