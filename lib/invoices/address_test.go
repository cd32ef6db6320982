package invoices

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/getAlby/rgbhub.go/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func witnessAddress(t *testing.T, params *chaincfg.Params) string {
	t.Helper()
	addr, err := btcutil.NewAddressWitnessPubKeyHash(make([]byte, 20), params)
	require.NoError(t, err)
	return addr.EncodeAddress()
}

func TestValidateAddress(t *testing.T) {
	assert.NoError(t, ValidateAddress(witnessAddress(t, &chaincfg.RegressionNetParams), common.NetworkRegtest))
	assert.NoError(t, ValidateAddress(witnessAddress(t, &chaincfg.MainNetParams), common.NetworkMainnet))

	err := ValidateAddress(witnessAddress(t, &chaincfg.MainNetParams), common.NetworkRegtest)
	assert.Equal(t, common.KindInvalidInvoice, common.KindOf(err))
	assert.Equal(t, "invalid_address", common.AsError(err).Message())

	err = ValidateAddress("not-an-address", common.NetworkRegtest)
	assert.Equal(t, common.KeyInvalidAddress, common.AsError(err).Key)
}
