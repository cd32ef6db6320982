package invoices

import (
	"crypto/sha256"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/getAlby/rgbhub.go/common"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/lightningnetwork/lnd/zpay32"
	"github.com/stretchr/testify/assert"
)

var testPrivKey, _ = btcec.PrivKeyFromBytes([]byte{
	0x2b, 0xd8, 0x06, 0xc9, 0x7f, 0x0e, 0x00, 0xaf,
	0x1a, 0x1f, 0xc3, 0x32, 0x8f, 0xa7, 0x63, 0xa9,
	0x26, 0x97, 0x23, 0xc8, 0xdb, 0x8f, 0xac, 0x4f,
	0x93, 0xaf, 0x71, 0xdb, 0x18, 0x6d, 0x6e, 0x90,
})

func makeBolt11(t *testing.T, net *chaincfg.Params, msat uint64, created time.Time, expiry time.Duration) string {
	t.Helper()
	amt := lnwire.MilliSatoshi(msat)
	description := "rgb"
	hash := sha256.Sum256([]byte("preimage"))
	invoice := &zpay32.Invoice{
		Net:         net,
		MilliSat:    &amt,
		Timestamp:   created,
		PaymentHash: &hash,
		PaymentAddr: &[32]byte{1},
		Description: &description,
		Features:    &lnwire.FeatureVector{RawFeatureVector: lnwire.NewRawFeatureVector()},
	}
	zpay32.Expiry(expiry)(invoice)
	encoded, err := invoice.Encode(zpay32.MessageSigner{
		SignCompact: func(msg []byte) ([]byte, error) {
			hash := sha256.Sum256(msg)
			return ecdsa.SignCompact(testPrivKey, hash[:], true)
		},
	})
	assert.NoError(t, err)
	return encoded
}

func TestDecodeBolt11(t *testing.T) {
	now := time.Now()
	bolt11 := makeBolt11(t, &chaincfg.RegressionNetParams, 3000000, now.Add(-time.Minute), 420*time.Second)

	decoded, err := DecodeBolt11(bolt11, common.NetworkRegtest, now)
	assert.NoError(t, err)
	assert.Equal(t, uint64(3000000), decoded.AmtMsat)
	assert.Len(t, decoded.PaymentHash, 64)
	assert.Equal(t, "rgb", decoded.Description)
	assert.Len(t, decoded.Payee, 66)
	assert.True(t, decoded.ExpiresAt.After(now))

	_, err = DecodeBolt11("lightning:"+bolt11, common.NetworkRegtest, now)
	assert.NoError(t, err)
}

func TestDecodeBolt11WrongNetwork(t *testing.T) {
	now := time.Now()
	bolt11 := makeBolt11(t, &chaincfg.MainNetParams, 1000, now, time.Hour)
	_, err := DecodeBolt11(bolt11, common.NetworkRegtest, now)
	assert.Equal(t, common.KindInvalidInvoice, common.KindOf(err))
	assert.Equal(t, common.KeyInvoiceWrongNetwork, common.AsError(err).Key)
}

func TestDecodeBolt11Expired(t *testing.T) {
	now := time.Now()
	bolt11 := makeBolt11(t, &chaincfg.RegressionNetParams, 1000, now.Add(-time.Hour), time.Minute)
	_, err := DecodeBolt11(bolt11, common.NetworkRegtest, now)
	assert.Equal(t, common.KeyInvoiceExpired, common.AsError(err).Key)
}

func TestDecodeBolt11Garbage(t *testing.T) {
	for _, input := range []string{"", "ln", "hello", "lnbcrt1garbage"} {
		_, err := DecodeBolt11(input, common.NetworkRegtest, time.Now())
		assert.Equal(t, common.KindInvalidInvoice, common.KindOf(err), input)
	}
}

func TestChainFromCurrency(t *testing.T) {
	assert.Equal(t, chaincfg.RegressionNetParams.Name, ChainFromCurrency("bcrt10u").Name)
	assert.Equal(t, chaincfg.TestNet3Params.Name, ChainFromCurrency("tb1").Name)
	assert.Equal(t, chaincfg.MainNetParams.Name, ChainFromCurrency("bc1").Name)
}
