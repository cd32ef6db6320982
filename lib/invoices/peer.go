package invoices

import (
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/getAlby/rgbhub.go/common"
)

var peerURIRegex = regexp.MustCompile(`^([a-fA-F0-9]{66})@([\w.\-]+|\[[0-9a-fA-F:]+\]):(\d+)$`)

type PeerURI struct {
	Pubkey string
	Host   string
	Port   int
}

func (p *PeerURI) String() string {
	return p.Pubkey + "@" + p.Host + ":" + strconv.Itoa(p.Port)
}

// ParsePeerURI parses <66-hex pubkey>@<ipv4|[ipv6]|hostname>:<port>.
func ParsePeerURI(uri string) (*PeerURI, error) {
	match := peerURIRegex.FindStringSubmatch(strings.TrimSpace(uri))
	if match == nil {
		return nil, common.NewError(common.KindInvalidNodeURI, common.KeyInvalidNodeURI)
	}
	pubkeyBytes, err := hex.DecodeString(match[1])
	if err != nil {
		return nil, common.WrapError(common.KindInvalidNodeURI, common.KeyInvalidNodeURI, err)
	}
	if _, err = btcec.ParsePubKey(pubkeyBytes); err != nil {
		return nil, common.WrapError(common.KindInvalidNodeURI, common.KeyInvalidNodeURI, err)
	}
	port, err := strconv.Atoi(match[3])
	if err != nil || port < 1 || port > 65535 {
		return nil, common.NewError(common.KindInvalidNodeURI, common.KeyInvalidNodeURI)
	}
	return &PeerURI{
		Pubkey: strings.ToLower(match[1]),
		Host:   match[2],
		Port:   port,
	}, nil
}
