package audit

import (
	"context"
	"time"

	"vibegate/pkg/domain"
)

// Action names an auditable engine event.
type Action string

// FailClosed reports whether callers must fail their operation when an event
// with this action cannot be persisted. Fail-closed events never take the
// asynchronous path.
func (a Action) FailClosed() bool {
	return a == EventAwardIssued
}

const (
	EventVerificationCompleted  Action = "verification_completed"
	EventVerificationRejected   Action = "verification_rejected"
	EventIdentityRegistered     Action = "identity_registered"
	EventNullifierReplayBlocked Action = "nullifier_replay_blocked"
	EventAwardIssued            Action = "award_issued"
	EventAwardAmountUpdated     Action = "award_amount_updated"
	EventAuthorityConfigured    Action = "authority_configured"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out. No raw identity data
// belongs here - addresses and asset IDs only.
type Event struct {
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
	Actor     string    `json:"actor,omitempty"`

	Address   domain.Address `json:"address,omitempty"`
	AwardType string         `json:"award_type,omitempty"`
	Amount    uint64         `json:"amount,omitempty"`
	AssetID   string         `json:"asset_id,omitempty"`
	Reason    string         `json:"reason,omitempty"`
}

// Store is an append-only audit sink.
type Store interface {
	Append(ctx context.Context, event Event) error
}
