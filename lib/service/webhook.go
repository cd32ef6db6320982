package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/getAlby/rgbhub.go/common"
)

const webhookBuffer = 64

// StartWebhookSubscription posts every event as JSON to the configured url
// until ctx is cancelled.
func (svc *RgbHubService) StartWebhookSubscription(ctx context.Context, url string) {
	svc.Logger.Infof("Starting webhook subscription with webhook url %s", url)
	events := make(chan common.Event, webhookBuffer)
	subId := svc.EventPubSub.Subscribe(common.EventTopicAll, events)
	defer svc.EventPubSub.Unsubscribe(subId, common.EventTopicAll)

	client := &http.Client{Timeout: 10 * time.Second}
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-events:
			svc.postToWebhook(ctx, client, url, event)
		}
	}
}

func (svc *RgbHubService) postToWebhook(ctx context.Context, client *http.Client, url string, event common.Event) {
	payload := new(bytes.Buffer)
	if err := json.NewEncoder(payload).Encode(event); err != nil {
		svc.Logger.Error(err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, payload)
	if err != nil {
		svc.Logger.Error(err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		svc.Logger.Error(err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			svc.Logger.Error(err)
		}
		svc.Logger.Errorf("Webhook status code was %d, body: %s", resp.StatusCode, msg)
	}
}
