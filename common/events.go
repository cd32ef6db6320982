package common

import "time"

// Event is an out-bound notification of the wallet core. Only the fields
// relevant to the event type are set.
type Event struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	AssetID     string    `json:"asset_id,omitempty"`
	TransferIdx int64     `json:"idx,omitempty"`
	PaymentHash string    `json:"payment_hash,omitempty"`
	ChannelID   string    `json:"channel_id,omitempty"`
	Status      string    `json:"status,omitempty"`
	Message     string    `json:"message,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// EventTopicAll subscribes to every event type.
const EventTopicAll = "*"
