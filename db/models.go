package db

import (
	"time"
)

// Quote is a priced offer to open a channel of a given size, tracked
// through its payment and provisioning lifecycle. ExpectedPaymentSats is
// computed once at creation and never recomputed; State is the only field
// that moves after creation, apart from ChannelId which is recorded when a
// channel-open attempt returns a handle.
type Quote struct {
	ID                  string  `gorm:"primaryKey" json:"id"`
	ChannelSizeSats     uint64  `json:"channel_size_sats"`
	PushAmountSats      *uint64 `json:"push_amount_sats"`
	ExpectedPaymentSats uint64  `json:"expected_payment_sats"`
	NodePubkey          string  `json:"node_pubkey"`
	Addr                string  `json:"addr"`
	State               string  `gorm:"index" json:"state"`
	// ChannelId is the internal correlation handle from the channel-open
	// attempt (the funding outpoint), not the externally-visible channel id
	// the node assigns once the channel confirms.
	ChannelId *string   `json:"channel_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	QUOTE_STATE_UNPAID          = "Unpaid"
	QUOTE_STATE_PAID            = "Paid"
	QUOTE_STATE_CHANNEL_PENDING = "ChannelPending"
	QUOTE_STATE_CHANNEL_OPEN    = "ChannelOpen"
	// No transition produces ChannelExpired yet; the state is reserved for a
	// future expiry policy.
	QUOTE_STATE_CHANNEL_EXPIRED = "ChannelExpired"
)
