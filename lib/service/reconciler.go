package service

import (
	"context"
	"sync"

	"github.com/getAlby/rgbhub.go/common"
	"github.com/getAlby/rgbhub.go/nodegw"
	"github.com/uptrace/bun"
)

const refreshKey = "refresh"

// Refresh runs one reconciliation cycle. Concurrent callers share the cycle
// in flight. A cancelled cycle publishes nothing.
func (svc *RgbHubService) Refresh(ctx context.Context) (*Snapshot, error) {
	ch := svc.refreshGroup.DoChan(refreshKey, func() (interface{}, error) {
		return svc.refreshCycle(ctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

func (svc *RgbHubService) refreshCycle(ctx context.Context) (*Snapshot, error) {
	startedAt := svc.now()

	proxyErr := svc.Gateway.RefreshTransfers(ctx)
	if proxyErr != nil {
		switch common.KindOf(proxyErr) {
		case common.KindProxyUnreachable:
			svc.Logger.Warnf("Transfers stay waiting for the counterparty, proxy unreachable error:%v", proxyErr)
		case common.KindNodeUnavailable:
			return nil, svc.nodeUnavailable(proxyErr)
		default:
			svc.Logger.Errorf("Refreshing transfers at the node failed error:%v", proxyErr)
		}
	}

	state, err := svc.fetchNodeState(ctx)
	if err != nil {
		if common.KindOf(err) == common.KindNodeUnavailable {
			return nil, svc.nodeUnavailable(err)
		}
		return nil, err
	}

	svc.stateMu.Lock()
	defer svc.stateMu.Unlock()

	prev := svc.Snapshot()
	cs := &changeSet{}
	var next *Snapshot
	err = svc.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := svc.mergeAssets(ctx, tx, state.Assets); err != nil {
			return err
		}
		if err := svc.mergeTransfers(ctx, tx, state.Transfers, startedAt, cs); err != nil {
			return err
		}
		if err := svc.mergeBtcTransactions(ctx, tx, state.Transactions, cs); err != nil {
			return err
		}
		if err := svc.mergePayments(ctx, tx, state.Payments, startedAt, cs); err != nil {
			return err
		}
		if err := svc.mergeChannels(ctx, tx, state.Channels, issuedSupplies(state.Assets), startedAt, cs); err != nil {
			return err
		}
		built, err := svc.buildSnapshot(ctx, tx, prev, state)
		if err != nil {
			return err
		}
		next = built
		// last chance to abort, nothing is committed or published yet
		return ctx.Err()
	})
	if err != nil {
		svc.Logger.Errorf("Refresh cycle aborted error:%v", err)
		return nil, err
	}

	svc.snapshot.Store(next)
	svc.commitEvents(cs, prev, next)
	svc.emit(common.Event{Type: common.EventRefreshCycleCompleted})
	if proxyErr != nil && common.KindOf(proxyErr) == common.KindProxyUnreachable {
		svc.Logger.Infof("Refresh cycle completed, another cycle is needed for consignments cause:proxy unreachable version:%v", next.Version)
	}
	return next, nil
}

func (svc *RgbHubService) nodeUnavailable(err error) error {
	svc.Logger.Errorf("Node unavailable during refresh error:%v", err)
	svc.emit(common.Event{Type: common.EventNodeUnavailable, Message: err.Error()})
	return err
}

func issuedSupplies(assets []nodegw.Asset) map[string]uint64 {
	supplies := make(map[string]uint64, len(assets))
	for _, a := range assets {
		supplies[a.AssetID] = a.IssuedSupply
	}
	return supplies
}

// fetchNodeState reads the node in two fan-out rounds on the worker pool:
// wallet level lists first, then per asset transfers and balances.
func (svc *RgbHubService) fetchNodeState(ctx context.Context) (*nodeState, error) {
	state := &nodeState{
		Balances:  map[string]nodegw.Balance{},
		Transfers: map[string][]nodegw.Transfer{},
	}
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)
	submit := func(fn func() error) {
		wg.Add(1)
		svc.workers.Submit(func() {
			defer wg.Done()
			if err := fn(); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		})
	}

	submit(func() error {
		info, err := svc.Gateway.NodeInfo(ctx)
		if err != nil {
			return err
		}
		mu.Lock()
		state.NodeInfo = info
		mu.Unlock()
		return nil
	})
	submit(func() error {
		assets, err := svc.Gateway.ListAssets(ctx)
		if err != nil {
			return err
		}
		mu.Lock()
		state.Assets = assets
		mu.Unlock()
		return nil
	})
	submit(func() error {
		unspents, err := svc.Gateway.ListUnspents(ctx)
		if err != nil {
			return err
		}
		mu.Lock()
		state.Unspents = unspents
		mu.Unlock()
		return nil
	})
	submit(func() error {
		payments, err := svc.Gateway.ListPayments(ctx)
		if err != nil {
			return err
		}
		mu.Lock()
		state.Payments = payments
		mu.Unlock()
		return nil
	})
	submit(func() error {
		channels, err := svc.Gateway.ListChannels(ctx)
		if err != nil {
			return err
		}
		mu.Lock()
		state.Channels = channels
		mu.Unlock()
		return nil
	})
	submit(func() error {
		balance, err := svc.Gateway.BtcBalance(ctx)
		if err != nil {
			return err
		}
		mu.Lock()
		state.Balances[common.BitcoinAssetID] = balance.Vanilla
		mu.Unlock()
		return nil
	})
	submit(func() error {
		transactions, err := svc.Gateway.ListTransactions(ctx)
		if err != nil {
			return err
		}
		mu.Lock()
		state.Transactions = transactions
		mu.Unlock()
		return nil
	})
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}

	for _, asset := range state.Assets {
		assetID := asset.AssetID
		submit(func() error {
			transfers, err := svc.Gateway.ListTransfers(ctx, assetID)
			if err != nil {
				return err
			}
			if transfers == nil {
				transfers = []nodegw.Transfer{}
			}
			mu.Lock()
			state.Transfers[assetID] = transfers
			mu.Unlock()
			return nil
		})
		submit(func() error {
			balance, err := svc.Gateway.AssetBalance(ctx, assetID)
			if err != nil {
				return err
			}
			mu.Lock()
			state.Balances[assetID] = *balance
			mu.Unlock()
			return nil
		})
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return state, nil
}
