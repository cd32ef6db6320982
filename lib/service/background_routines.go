package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/getAlby/rgbhub.go/common"
)

const eventPublisherBuffer = 256

// StartRefreshRoutine runs a refresh cycle every RefreshInterval seconds.
// Transient failures, an unreachable node among them, back off
// exponentially up to RefreshMaxBackoff; a successful cycle resets the
// delay.
func (svc *RgbHubService) StartRefreshRoutine(ctx context.Context) error {
	interval := time.Duration(svc.Config.RefreshInterval) * time.Second
	if interval <= 0 {
		interval = 15 * time.Second
	}
	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = interval
	retry.MaxInterval = time.Duration(svc.Config.RefreshMaxBackoff) * time.Second
	if retry.MaxInterval < interval {
		retry.MaxInterval = interval
	}
	retry.MaxElapsedTime = 0
	retry.Reset()

	svc.Logger.Infof("Starting refresh routine interval:%v", interval)
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return context.Canceled
		case <-timer.C:
		}

		next := interval
		if _, err := svc.Refresh(ctx); err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return context.Canceled
			}
			if common.IsTransient(err) {
				next = retry.NextBackOff()
				svc.Logger.Warnf("Refresh failed, retrying in %v error:%v", next, err)
			} else {
				svc.Logger.Errorf("Refresh failed error:%v", err)
			}
		} else {
			retry.Reset()
		}
		timer.Reset(next)
	}
}

// RefreshRequested handles an out-of-band refresh request, e.g. one
// consumed from rabbitmq.
func (svc *RgbHubService) RefreshRequested(ctx context.Context, reason string) error {
	svc.Logger.Infof("Refresh requested reason:%v", reason)
	_, err := svc.Refresh(ctx)
	return err
}

func (svc *RgbHubService) StartRefreshRequestRoutine(ctx context.Context) error {
	if svc.RabbitMQClient == nil {
		return nil
	}
	err := svc.RabbitMQClient.SubscribeToRefreshRequests(ctx, svc)
	if err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func (svc *RgbHubService) StartEventPublisher(ctx context.Context) error {
	if svc.RabbitMQClient == nil {
		return nil
	}
	err := svc.RabbitMQClient.StartPublishEvents(ctx, svc.subscribeAllEvents, svc.encodeEvent)
	if err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func (svc *RgbHubService) subscribeAllEvents() (<-chan common.Event, func(), error) {
	events := make(chan common.Event, eventPublisherBuffer)
	subId := svc.EventPubSub.Subscribe(common.EventTopicAll, events)
	return events, func() { svc.EventPubSub.Unsubscribe(subId, common.EventTopicAll) }, nil
}

func (svc *RgbHubService) encodeEvent(ctx context.Context, w io.Writer, event common.Event) error {
	return json.NewEncoder(w).Encode(event)
}
