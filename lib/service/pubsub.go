package service

import (
	"sync"

	"github.com/getAlby/rgbhub.go/common"
	"github.com/segmentio/ksuid"
)

// Pubsub fans core events out to in-process subscribers. Subscribers pass a
// buffered channel; events that do not fit are dropped for that subscriber.
type Pubsub struct {
	mu   sync.RWMutex
	subs map[string]map[string]chan common.Event
}

func NewPubsub() *Pubsub {
	ps := &Pubsub{}
	ps.subs = make(map[string]map[string]chan common.Event)
	return ps
}

func (ps *Pubsub) Subscribe(topic string, ch chan common.Event) (subId string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.subs[topic] == nil {
		ps.subs[topic] = make(map[string]chan common.Event)
	}
	subId = ksuid.New().String()
	ps.subs[topic][subId] = ch
	return subId
}

func (ps *Pubsub) Unsubscribe(id string, topic string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.subs[topic] == nil {
		return
	}
	if ps.subs[topic][id] == nil {
		return
	}
	close(ps.subs[topic][id])
	delete(ps.subs[topic], id)
}

// Publish delivers msg to the subscribers of its type and of EventTopicAll.
// It returns the number of subscribers that missed the event.
func (ps *Pubsub) Publish(msg common.Event) (dropped int) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	for _, topic := range []string{msg.Type, common.EventTopicAll} {
		for _, ch := range ps.subs[topic] {
			select {
			case ch <- msg:
			default:
				dropped++
			}
		}
	}
	return dropped
}

func (ps *Pubsub) SubscriberCount() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	count := 0
	for _, subs := range ps.subs {
		count += len(subs)
	}
	return count
}
