package rewards

import (
	"time"

	"vibegate/pkg/domain"
)

// IssuanceRecord is the replay guard for grants: one per (address, award
// type) pair, written only after both halves of the dual mint succeeded.
type IssuanceRecord struct {
	Address   domain.Address
	AwardType domain.AwardType
	Amount    uint64
	AssetID   domain.AssetID
	IssuedAt  time.Time
}

// IssueResult is returned to the orchestrator for audit and display.
type IssueResult struct {
	AwardType domain.AwardType `json:"award_type"`
	Amount    uint64           `json:"amount"`
	AssetID   domain.AssetID   `json:"asset_id"`
}
