package nodegw

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/getAlby/rgbhub.go/common"
	"github.com/ziflex/lecho/v3"
)

// EmbeddedNode runs the node binary as a child process owned by this service
// and talks to it over its local daemon port.
type EmbeddedNode struct {
	*Client

	config *Config
	logger *lecho.Logger

	mu   sync.Mutex
	cmd  *exec.Cmd
	done chan error
}

func NewEmbeddedNode(c *Config, logger *lecho.Logger) *EmbeddedNode {
	return &EmbeddedNode{
		Client: NewClient(fmt.Sprintf("http://127.0.0.1:%d", c.NodeDaemonPort), c),
		config: c,
		logger: logger,
	}
}

func (node *EmbeddedNode) dataDir() string {
	return filepath.Join(node.config.NodeDataDir, strings.ToLower(node.config.Network))
}

func (node *EmbeddedNode) args() []string {
	return []string{
		node.dataDir(),
		"--daemon-listening-port", fmt.Sprintf("%d", node.config.NodeDaemonPort),
		"--ldk-peer-listening-port", fmt.Sprintf("%d", node.config.NodePeerPort),
		"--network", strings.ToLower(node.config.Network),
	}
}

// Start spawns the node process and blocks until its API answers or the
// startup attempts are exhausted.
func (node *EmbeddedNode) Start(ctx context.Context) error {
	err := os.MkdirAll(node.dataDir(), 0o700)
	if err != nil {
		return err
	}
	node.mu.Lock()
	cmd := exec.Command(node.config.NodeBinary, node.args()...)
	cmd.Stdout = node.logger.Output()
	cmd.Stderr = node.logger.Output()
	err = cmd.Start()
	if err != nil {
		node.mu.Unlock()
		return common.WrapError(common.KindNodeUnavailable, common.KeyConnectionFailed, err)
	}
	node.cmd = cmd
	node.done = make(chan error, 1)
	go func() {
		node.done <- cmd.Wait()
	}()
	node.mu.Unlock()
	node.logger.Infof("Started %s pid:%d data_dir:%s", node.config.NodeBinary, cmd.Process.Pid, node.dataDir())

	return node.waitReady(ctx)
}

func (node *EmbeddedNode) waitReady(ctx context.Context) error {
	expontentialBackoff := backoff.NewExponentialBackOff()
	expontentialBackoff.InitialInterval = 500 * time.Millisecond
	expontentialBackoff.MaxInterval = 5 * time.Second
	attempts := node.config.NodeStartupAttempts
	if attempts < 1 {
		attempts = 1
	}
	retry := backoff.WithContext(backoff.WithMaxRetries(expontentialBackoff, uint64(attempts-1)), ctx)

	return backoff.Retry(func() error {
		select {
		case err := <-node.done:
			return backoff.Permanent(common.WrapError(common.KindNodeUnavailable, common.KeyConnectionFailed, fmt.Errorf("node process exited: %v", err)))
		default:
		}
		_, err := node.NetworkInfo(ctx)
		// a locked node still answers, it just refuses wallet calls
		if err == nil || common.KindOf(err) != common.KindNodeUnavailable {
			return nil
		}
		node.logger.Debugf("Waiting for node to come up: %v", err)
		return err
	}, retry)
}

// Close stops the child process, killing it when it ignores the interrupt.
func (node *EmbeddedNode) Close() error {
	node.mu.Lock()
	defer node.mu.Unlock()
	node.Client.Close()
	if node.cmd == nil || node.cmd.Process == nil {
		return nil
	}
	err := node.cmd.Process.Signal(os.Interrupt)
	if err != nil {
		return node.cmd.Process.Kill()
	}
	select {
	case <-node.done:
	case <-time.After(10 * time.Second):
		node.logger.Errorf("Node did not stop in time, killing pid:%d", node.cmd.Process.Pid)
		return node.cmd.Process.Kill()
	}
	node.cmd = nil
	return nil
}
