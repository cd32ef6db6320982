package nodegw

import (
	"fmt"
	"time"

	"github.com/getAlby/rgbhub.go/common"
	"github.com/kelseyhightower/envconfig"
)

const (
	EMBEDDED_WALLET_MODE = "embedded"
	REMOTE_WALLET_MODE   = "remote"
)

type Config struct {
	WalletMode          string `envconfig:"WALLET_MODE" default:"remote"` //embedded, remote
	Network             string `envconfig:"NETWORK" default:"REGTEST"`
	NodeURL             string `envconfig:"NODE_URL" default:"http://127.0.0.1:3001"`
	NodeReadTimeout     int    `envconfig:"NODE_READ_TIMEOUT" default:"30"`   // in seconds
	NodeWriteTimeout    int    `envconfig:"NODE_WRITE_TIMEOUT" default:"120"` // in seconds
	NodeBinary          string `envconfig:"NODE_BINARY" default:"rgb-lightning-node"`
	NodeDataDir         string `envconfig:"NODE_DATA_DIR" default:"./data"`
	NodeDaemonPort      int    `envconfig:"NODE_DAEMON_PORT" default:"3001"`
	NodePeerPort        int    `envconfig:"NODE_PEER_PORT" default:"9735"`
	NodeStartupAttempts int    `envconfig:"NODE_STARTUP_ATTEMPTS" default:"15"`
}

func LoadConfig() (c *Config, err error) {
	c = &Config{}
	err = envconfig.Process("", c)
	if err != nil {
		return nil, err
	}
	return c, c.Validate()
}

func (c *Config) Validate() error {
	switch c.WalletMode {
	case EMBEDDED_WALLET_MODE, REMOTE_WALLET_MODE:
	default:
		return fmt.Errorf("unknown wallet mode %q, expected %s or %s", c.WalletMode, EMBEDDED_WALLET_MODE, REMOTE_WALLET_MODE)
	}
	switch c.Network {
	case common.NetworkMainnet, common.NetworkTestnet, common.NetworkRegtest:
	default:
		return fmt.Errorf("unknown network %q", c.Network)
	}
	if c.NodeReadTimeout <= 0 || c.NodeWriteTimeout <= 0 {
		return fmt.Errorf("node timeouts must be positive")
	}
	return nil
}

func (c *Config) readTimeout() time.Duration {
	return time.Duration(c.NodeReadTimeout) * time.Second
}

func (c *Config) writeTimeout() time.Duration {
	return time.Duration(c.NodeWriteTimeout) * time.Second
}
