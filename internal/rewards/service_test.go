package rewards_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"vibegate/internal/audit"
	"vibegate/internal/ledger"
	"vibegate/internal/ledger/badge"
	"vibegate/internal/ledger/token"
	"vibegate/internal/policy"
	"vibegate/internal/registry"
	registrystore "vibegate/internal/registry/store"
	"vibegate/internal/rewards"
	rewardstore "vibegate/internal/rewards/store"
	"vibegate/pkg/domain"
	dErrors "vibegate/pkg/domain-errors"
)

// =============================================================================
// Reward Engine Test Suite
// =============================================================================
// Justification for unit tests: the dual-mint path has failure windows between
// the two ledger writes that only injected minter failures can open. The
// atomicity guarantee (both ledgers change or neither) is the core contract.

type failingTokens struct {
	inner      rewards.TokenMinter
	failCredit bool
}

func (f *failingTokens) Credit(ctx context.Context, address domain.Address, amount uint64) error {
	if f.failCredit {
		return errors.New("injected credit failure")
	}
	return f.inner.Credit(ctx, address, amount)
}

func (f *failingTokens) Revert(ctx context.Context, address domain.Address, amount uint64) error {
	return f.inner.Revert(ctx, address, amount)
}

type failingBadges struct {
	inner    rewards.BadgeMinter
	failMint bool
}

func (f *failingBadges) Mint(ctx context.Context, owner domain.Address, awardType domain.AwardType, description string) (domain.AssetID, error) {
	if f.failMint {
		return domain.AssetID{}, errors.New("injected mint failure")
	}
	return f.inner.Mint(ctx, owner, awardType, description)
}

func (f *failingBadges) Burn(ctx context.Context, id domain.AssetID) error {
	return f.inner.Burn(ctx, id)
}

type failingIssuances struct {
	inner      rewards.IssuanceStore
	failCommit bool
}

func (f *failingIssuances) Reserve(ctx context.Context, address domain.Address, awardType domain.AwardType) error {
	return f.inner.Reserve(ctx, address, awardType)
}

func (f *failingIssuances) Commit(ctx context.Context, record rewards.IssuanceRecord) error {
	if f.failCommit {
		return errors.New("injected commit failure")
	}
	return f.inner.Commit(ctx, record)
}

func (f *failingIssuances) Release(ctx context.Context, address domain.Address, awardType domain.AwardType) error {
	return f.inner.Release(ctx, address, awardType)
}

func (f *failingIssuances) Expunge(ctx context.Context, address domain.Address, awardType domain.AwardType) error {
	return f.inner.Expunge(ctx, address, awardType)
}

func (f *failingIssuances) Find(ctx context.Context, address domain.Address, awardType domain.AwardType) (rewards.IssuanceRecord, error) {
	return f.inner.Find(ctx, address, awardType)
}

type failingAuditStore struct {
	inner *audit.InMemoryStore
	fail  bool
}

func (f *failingAuditStore) Append(ctx context.Context, event audit.Event) error {
	if f.fail {
		return errors.New("injected audit sink failure")
	}
	return f.inner.Append(ctx, event)
}

type RewardEngineSuite struct {
	suite.Suite
	registry      *registry.Service
	tokens        *token.Ledger
	badges        *badge.Registry
	manager       *ledger.Manager
	failTokens    *failingTokens
	failBadges    *failingBadges
	failIssuances *failingIssuances
	failAudit     *failingAuditStore
	auditStore    *audit.InMemoryStore
	service       *rewards.Service
}

func TestRewardEngineSuite(t *testing.T) {
	suite.Run(t, new(RewardEngineSuite))
}

func (s *RewardEngineSuite) SetupTest() {
	var err error
	s.registry, err = registry.New(registrystore.NewInMemoryStore())
	s.Require().NoError(err)

	s.tokens = token.NewLedger("owner")
	s.badges = badge.NewRegistry("owner")
	s.manager = ledger.NewManager("owner", s.tokens, s.badges)
	s.Require().NoError(s.manager.Bootstrap("engine"))

	s.failTokens = &failingTokens{inner: s.manager}
	s.failBadges = &failingBadges{inner: s.manager}
	s.failIssuances = &failingIssuances{inner: rewardstore.NewInMemoryIssuanceStore()}
	s.auditStore = audit.NewInMemoryStore()
	s.failAudit = &failingAuditStore{inner: s.auditStore}

	s.service, err = rewards.New(
		s.registry,
		rewardstore.NewInMemoryAmountStore(policy.DefaultAwardAmounts()),
		s.failIssuances,
		s.failTokens,
		s.failBadges,
		rewards.WithAuditPublisher(audit.NewPublisher(s.failAudit)),
	)
	s.Require().NoError(err)
}

func (s *RewardEngineSuite) verify(address domain.Address, nullifier domain.Nullifier) {
	_, err := s.registry.Register(context.Background(), address, nullifier)
	s.Require().NoError(err)
}

func addr(s string) domain.Address {
	parsed, err := domain.ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return parsed
}

// =============================================================================
// Constructor Tests
// =============================================================================

func (s *RewardEngineSuite) TestNew() {
	s.Run("missing dependencies return errors", func() {
		_, err := rewards.New(nil, nil, nil, nil, nil)
		s.Error(err)

		_, err = rewards.New(s.registry, nil, nil, s.failTokens, s.failBadges)
		s.Error(err)

		_, err = rewards.New(s.registry, rewardstore.NewInMemoryAmountStore(nil), rewardstore.NewInMemoryIssuanceStore(), nil, nil)
		s.Error(err)
	})
}

// =============================================================================
// Verification Gate Tests
// =============================================================================

func (s *RewardEngineSuite) TestVerificationGate() {
	ctx := context.Background()
	unverified := addr("0xdddddddddddddddddddddddddddddddddddddddd")

	s.Run("unverified address cannot receive an award", func() {
		_, err := s.service.IssueAward(ctx, unverified, domain.AwardTopContributor)
		s.True(dErrors.HasCode(err, dErrors.CodeNotVerified))
		s.Zero(s.tokens.Balance(ctx, unverified))
	})

	s.Run("verification unlocks issuance", func() {
		s.verify(unverified, "0x20")

		result, err := s.service.IssueAward(ctx, unverified, domain.AwardTopContributor)
		s.NoError(err)
		s.Equal(uint64(1000), result.Amount)
	})
}

// =============================================================================
// Issuance Tests
// =============================================================================

func (s *RewardEngineSuite) TestIssueAward() {
	ctx := context.Background()
	alice := addr("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	s.verify(alice, "0x21")

	s.Run("issues governance expert award at the configured amount", func() {
		result, err := s.service.IssueAward(ctx, alice, domain.AwardGovernanceExpert)
		s.Require().NoError(err)
		s.Equal(domain.AwardGovernanceExpert, result.AwardType)
		s.Equal(uint64(750), result.Amount)
		s.False(result.AssetID.IsNil())

		s.Equal(uint64(750), s.tokens.Balance(ctx, alice))

		assets := s.badges.ListByOwner(ctx, alice)
		s.Require().Len(assets, 1)
		s.Equal(domain.AwardGovernanceExpert, assets[0].AwardType)
		s.Equal(domain.TierRare, assets[0].Tier)
		s.Equal(domain.AwardGovernanceExpert.Description(), assets[0].Description)

		owner, err := s.badges.OwnerOf(ctx, result.AssetID)
		s.NoError(err)
		s.Equal(alice, owner)
	})

	s.Run("repeat of the same pair is rejected and ledgers are untouched", func() {
		_, err := s.service.IssueAward(ctx, alice, domain.AwardGovernanceExpert)
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateIssuance))
		s.Equal(uint64(750), s.tokens.Balance(ctx, alice))
		s.Len(s.badges.ListByOwner(ctx, alice), 1)
	})

	s.Run("different award type for the same address succeeds", func() {
		result, err := s.service.IssueAward(ctx, alice, domain.AwardCommunityStar)
		s.NoError(err)
		s.Equal(uint64(500), result.Amount)
		s.Equal(uint64(1250), s.tokens.Balance(ctx, alice))
		s.Len(s.badges.ListByOwner(ctx, alice), 2)
	})

	s.Run("invalid award type rejected", func() {
		_, err := s.service.IssueAward(ctx, alice, domain.AwardType(9))
		s.True(dErrors.HasCode(err, dErrors.CodeUnknownAwardType))
	})

	s.Run("missing address rejected", func() {
		_, err := s.service.IssueAward(ctx, "", domain.AwardCommunityStar)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

// =============================================================================
// Atomicity Tests
// =============================================================================

func (s *RewardEngineSuite) TestDualMintAtomicity() {
	ctx := context.Background()
	alice := addr("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	s.verify(alice, "0x22")

	s.Run("credit failure leaves both ledgers untouched", func() {
		s.failTokens.failCredit = true

		_, err := s.service.IssueAward(ctx, alice, domain.AwardInnovation)
		s.True(dErrors.HasCode(err, dErrors.CodeLedgerWriteFail))
		s.Zero(s.tokens.Balance(ctx, alice))
		s.Empty(s.badges.ListByOwner(ctx, alice))
	})

	s.Run("badge failure after credit rolls the credit back", func() {
		s.failTokens.failCredit = false
		s.failBadges.failMint = true

		_, err := s.service.IssueAward(ctx, alice, domain.AwardInnovation)
		s.True(dErrors.HasCode(err, dErrors.CodeLedgerWriteFail))
		s.Zero(s.tokens.Balance(ctx, alice))
		s.Empty(s.badges.ListByOwner(ctx, alice))
	})

	s.Run("failed attempt does not burn the pair", func() {
		s.failBadges.failMint = false

		result, err := s.service.IssueAward(ctx, alice, domain.AwardInnovation)
		s.NoError(err)
		s.Equal(uint64(2000), result.Amount)
		s.Equal(uint64(2000), s.tokens.Balance(ctx, alice))
		s.Len(s.badges.ListByOwner(ctx, alice), 1)
	})

	s.Run("only the committed grant left an audit event", func() {
		issued := 0
		for _, event := range s.auditStore.ListByAddress(alice) {
			if event.Action == audit.EventAwardIssued {
				issued++
			}
		}
		s.Equal(1, issued)
	})
}

func (s *RewardEngineSuite) TestCommitAndAuditFailures() {
	ctx := context.Background()
	alice := addr("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	s.verify(alice, "0x25")

	issuedEvents := func() int {
		issued := 0
		for _, event := range s.auditStore.ListByAddress(alice) {
			if event.Action == audit.EventAwardIssued {
				issued++
			}
		}
		return issued
	}

	s.Run("commit failure rolls back both mints and leaves no trail", func() {
		s.failIssuances.failCommit = true

		_, err := s.service.IssueAward(ctx, alice, domain.AwardTopContributor)
		s.Error(err)
		s.Zero(s.tokens.Balance(ctx, alice))
		s.Empty(s.badges.ListByOwner(ctx, alice))
		s.Zero(issuedEvents())
	})

	s.Run("pair is issuable again after a commit failure", func() {
		s.failIssuances.failCommit = false

		result, err := s.service.IssueAward(ctx, alice, domain.AwardTopContributor)
		s.Require().NoError(err)
		s.Equal(uint64(1000), result.Amount)
		s.Equal(1, issuedEvents())
	})

	s.Run("audit failure after commit unwinds the whole grant", func() {
		s.failAudit.fail = true

		_, err := s.service.IssueAward(ctx, alice, domain.AwardCommunityStar)
		s.Error(err)
		s.Equal(uint64(1000), s.tokens.Balance(ctx, alice))
		s.Len(s.badges.ListByOwner(ctx, alice), 1)
		s.Equal(1, issuedEvents())

		_, err = s.service.Issuance(ctx, alice, domain.AwardCommunityStar)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("pair is issuable again after an audit failure", func() {
		s.failAudit.fail = false

		result, err := s.service.IssueAward(ctx, alice, domain.AwardCommunityStar)
		s.Require().NoError(err)
		s.Equal(uint64(500), result.Amount)
		s.Equal(uint64(1500), s.tokens.Balance(ctx, alice))
		s.Equal(2, issuedEvents())
	})
}

// =============================================================================
// Issuance Lookup Tests
// =============================================================================

func (s *RewardEngineSuite) TestIssuance() {
	ctx := context.Background()
	alice := addr("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	s.verify(alice, "0x26")

	s.Run("unissued pair is not found", func() {
		_, err := s.service.Issuance(ctx, alice, domain.AwardInnovation)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("committed grant is retrievable", func() {
		result, err := s.service.IssueAward(ctx, alice, domain.AwardInnovation)
		s.Require().NoError(err)

		record, err := s.service.Issuance(ctx, alice, domain.AwardInnovation)
		s.Require().NoError(err)
		s.Equal(result.AssetID, record.AssetID)
		s.Equal(uint64(2000), record.Amount)
		s.False(record.IssuedAt.IsZero())
	})

	s.Run("invalid award type rejected", func() {
		_, err := s.service.Issuance(ctx, alice, domain.AwardType(8))
		s.True(dErrors.HasCode(err, dErrors.CodeUnknownAwardType))
	})
}

// =============================================================================
// Amount Configuration Tests
// =============================================================================

func (s *RewardEngineSuite) TestAwardAmounts() {
	ctx := context.Background()
	alice := addr("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	bob := addr("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	s.verify(alice, "0x23")
	s.verify(bob, "0x24")

	s.Run("update applies to subsequent issuances only", func() {
		before, err := s.service.IssueAward(ctx, alice, domain.AwardCommunityStar)
		s.Require().NoError(err)
		s.Equal(uint64(500), before.Amount)

		s.Require().NoError(s.service.SetAwardAmount(ctx, domain.AwardCommunityStar, 900))

		after, err := s.service.IssueAward(ctx, bob, domain.AwardCommunityStar)
		s.Require().NoError(err)
		s.Equal(uint64(900), after.Amount)

		// Prior grant is untouched.
		s.Equal(uint64(500), s.tokens.Balance(ctx, alice))
	})

	s.Run("zero amount rejected", func() {
		err := s.service.SetAwardAmount(ctx, domain.AwardCommunityStar, 0)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("invalid award type rejected", func() {
		err := s.service.SetAwardAmount(ctx, domain.AwardType(7), 100)
		s.True(dErrors.HasCode(err, dErrors.CodeUnknownAwardType))
	})

	s.Run("list reflects the update", func() {
		amounts, err := s.service.AwardAmounts(ctx)
		s.Require().NoError(err)
		s.Equal(uint64(900), amounts[domain.AwardCommunityStar])
		s.Equal(uint64(750), amounts[domain.AwardGovernanceExpert])
	})
}

// =============================================================================
// End-to-End Scenario
// =============================================================================

func (s *RewardEngineSuite) TestFullIssuanceScenario() {
	ctx := context.Background()
	member := addr("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")

	s.Run("verify then issue governance expert bundle", func() {
		_, err := s.registry.Register(ctx, member, "0x30")
		s.Require().NoError(err)

		result, err := s.service.IssueAward(ctx, member, domain.AwardGovernanceExpert)
		s.Require().NoError(err)

		s.Equal(uint64(750), s.tokens.Balance(ctx, member))
		owner, err := s.badges.OwnerOf(ctx, result.AssetID)
		s.Require().NoError(err)
		s.Equal(member, owner)

		var issued *audit.Event
		for _, event := range s.auditStore.ListByAddress(member) {
			if event.Action == audit.EventAwardIssued {
				e := event
				issued = &e
			}
		}
		s.Require().NotNil(issued)
		s.Equal("GOVERNANCE_EXPERT", issued.AwardType)
		s.Equal(uint64(750), issued.Amount)
		s.Equal(result.AssetID.String(), issued.AssetID)
	})
}
