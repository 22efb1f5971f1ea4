package domain

import (
	"fmt"
	"strings"
)

// AwardType is the closed enumeration of reward tiers. The numeric values
// match the wire encoding used by the issuance orchestrator.
type AwardType uint8

const (
	AwardTopContributor   AwardType = 0
	AwardCommunityStar    AwardType = 1
	AwardInnovation       AwardType = 2
	AwardGovernanceExpert AwardType = 3
)

var awardNames = map[AwardType]string{
	AwardTopContributor:   "TOP_CONTRIBUTOR",
	AwardCommunityStar:    "COMMUNITY_STAR",
	AwardInnovation:       "INNOVATION_AWARD",
	AwardGovernanceExpert: "GOVERNANCE_EXPERT",
}

var awardDescriptions = map[AwardType]string{
	AwardTopContributor:   "Recognized for exceptional contributions to the community",
	AwardCommunityStar:    "Awarded for outstanding community engagement and support",
	AwardInnovation:       "Honored for innovative ideas and solutions",
	AwardGovernanceExpert: "Acknowledged for expertise in governance and decision-making",
}

// TraitTier is the badge rarity bundle derived from an award type. Purely
// presentational; ordering tracks the default token amounts.
type TraitTier string

const (
	TierUncommon  TraitTier = "uncommon"
	TierRare      TraitTier = "rare"
	TierEpic      TraitTier = "epic"
	TierLegendary TraitTier = "legendary"
)

var awardTiers = map[AwardType]TraitTier{
	AwardTopContributor:   TierEpic,
	AwardCommunityStar:    TierUncommon,
	AwardInnovation:       TierLegendary,
	AwardGovernanceExpert: TierRare,
}

// ParseAwardType accepts either the symbolic name or its numeric form.
func ParseAwardType(s string) (AwardType, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	for t, name := range awardNames {
		if name == normalized {
			return t, nil
		}
	}
	switch normalized {
	case "0", "1", "2", "3":
		return AwardType(normalized[0] - '0'), nil
	}
	return 0, fmt.Errorf("unknown award type: %q", s)
}

// IsValid reports whether the value is a member of the closed enum.
func (t AwardType) IsValid() bool {
	_, ok := awardNames[t]
	return ok
}

func (t AwardType) String() string {
	if name, ok := awardNames[t]; ok {
		return name
	}
	return fmt.Sprintf("AWARD_TYPE_%d", uint8(t))
}

// Description returns the human-readable grant description minted into the
// badge metadata.
func (t AwardType) Description() string {
	return awardDescriptions[t]
}

// Tier returns the badge trait tier for the award type.
func (t AwardType) Tier() TraitTier {
	return awardTiers[t]
}

// AwardTypes returns all members of the enum in wire order.
func AwardTypes() []AwardType {
	return []AwardType{AwardTopContributor, AwardCommunityStar, AwardInnovation, AwardGovernanceExpert}
}
