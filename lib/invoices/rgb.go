package invoices

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/getAlby/rgbhub.go/common"
)

const (
	rgbScheme      = "rgb:"
	blindedPrefix  = "utxob:"
	witnessPrefix  = "wvout:"
	anyPlaceholder = "~"
)

// RgbInvoice is the syntactic content of an on-chain RGB invoice.
// Endpoints keep the order of the invoice, first is preferred.
type RgbInvoice struct {
	ContractID  string
	Interface   string
	RecipientID string
	Blinded     bool
	Amount      uint64
	Expiry      time.Time
	Endpoints   []string
}

// ParseRgbInvoice parses rgb:<contract>/<iface>/.../utxob:<blind>?expiry=<unix>&endpoints=<url>[,<url>...]
// and rejects invoices that already expired on the wallet clock.
func ParseRgbInvoice(invoice string, now time.Time) (*RgbInvoice, error) {
	invoice = strings.TrimSpace(invoice)
	if !strings.HasPrefix(invoice, rgbScheme) {
		return nil, common.NewError(common.KindInvalidInvoice, common.KeyInvalidInvoice)
	}
	body := strings.TrimPrefix(invoice, rgbScheme)
	rawQuery := ""
	if i := strings.Index(body, "?"); i >= 0 {
		body, rawQuery = body[:i], body[i+1:]
	}
	segments := strings.Split(body, "/")
	if len(segments) < 2 {
		return nil, common.NewError(common.KindInvalidInvoice, common.KeyInvalidInvoice)
	}
	result := &RgbInvoice{}
	recipient := segments[len(segments)-1]
	// beneficiaries may carry a network prefix, e.g. bcrt:utxob:...
	switch {
	case strings.Contains(recipient, blindedPrefix):
		result.Blinded = true
		result.RecipientID = recipient[strings.Index(recipient, blindedPrefix):]
	case strings.Contains(recipient, witnessPrefix):
		result.RecipientID = recipient[strings.Index(recipient, witnessPrefix):]
	default:
		return nil, common.NewError(common.KindInvalidInvoice, common.KeyInvalidInvoice)
	}
	if result.RecipientID == blindedPrefix || result.RecipientID == witnessPrefix {
		return nil, common.NewError(common.KindInvalidInvoice, common.KeyInvalidInvoice)
	}
	if c := segments[0]; c != anyPlaceholder {
		result.ContractID = c
	}
	if len(segments) > 2 && segments[1] != anyPlaceholder {
		result.Interface = segments[1]
	}

	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, common.WrapError(common.KindInvalidInvoice, common.KeyInvalidInvoice, err)
	}
	if raw := query.Get("expiry"); raw != "" {
		expiry, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, common.WrapError(common.KindInvalidInvoice, common.KeyInvalidInvoice, err)
		}
		result.Expiry = time.Unix(expiry, 0)
		if !now.Before(result.Expiry) {
			return nil, common.NewError(common.KindInvalidInvoice, common.KeyInvoiceExpired)
		}
	}
	if raw := query.Get("amount"); raw != "" {
		amount, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, common.WrapError(common.KindInvalidInvoice, common.KeyInvalidInvoice, err)
		}
		result.Amount = amount
	}
	if raw := query.Get("endpoints"); raw != "" {
		for _, endpoint := range strings.Split(raw, ",") {
			if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
				result.Endpoints = append(result.Endpoints, endpoint)
			}
		}
	}
	return result, nil
}
