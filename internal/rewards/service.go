package rewards

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"vibegate/internal/audit"
	"vibegate/internal/platform/metrics"
	"vibegate/pkg/domain"
	dErrors "vibegate/pkg/domain-errors"
	"vibegate/pkg/platform/sentinel"
	"vibegate/pkg/requestcontext"
)

// TokenMinter is the fungible ledger capability the engine holds.
type TokenMinter interface {
	Credit(ctx context.Context, address domain.Address, amount uint64) error
	Revert(ctx context.Context, address domain.Address, amount uint64) error
}

// BadgeMinter is the non-fungible registry capability the engine holds.
type BadgeMinter interface {
	Mint(ctx context.Context, owner domain.Address, awardType domain.AwardType, description string) (domain.AssetID, error)
	Burn(ctx context.Context, id domain.AssetID) error
}

// VerificationReader gates issuance on the identity registry.
type VerificationReader interface {
	IsVerified(ctx context.Context, address domain.Address) (bool, error)
}

// Service is the reward engine. It exclusively owns the ledger capabilities;
// no other component may mint.
type Service struct {
	registry  VerificationReader
	amounts   AmountStore
	issuances IssuanceStore
	tokens    TokenMinter
	badges    BadgeMinter

	auditor *audit.Publisher
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher *audit.Publisher) Option {
	return func(s *Service) {
		s.auditor = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(registry VerificationReader, amounts AmountStore, issuances IssuanceStore, tokens TokenMinter, badges BadgeMinter, opts ...Option) (*Service, error) {
	if registry == nil {
		return nil, fmt.Errorf("verification reader is required")
	}
	if amounts == nil || issuances == nil {
		return nil, fmt.Errorf("amount and issuance stores are required")
	}
	if tokens == nil || badges == nil {
		return nil, fmt.Errorf("both ledger capabilities are required")
	}

	svc := &Service{
		registry:  registry,
		amounts:   amounts,
		issuances: issuances,
		tokens:    tokens,
		badges:    badges,
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// IssueAward grants the combined token + badge bundle, exactly once per
// (address, awardType) pair. Either both ledgers change or neither does.
func (s *Service) IssueAward(ctx context.Context, address domain.Address, awardType domain.AwardType) (*IssueResult, error) {
	start := time.Now()

	if address.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "address is required")
	}
	if !awardType.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeUnknownAwardType, "unknown award type %d", uint8(awardType))
	}

	verified, err := s.registry.IsVerified(ctx, address)
	if err != nil {
		return nil, err
	}
	if !verified {
		return nil, dErrors.New(dErrors.CodeNotVerified, "address has not completed identity verification")
	}

	amount, err := s.amounts.Get(ctx, awardType)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up award amount")
	}

	// Reserve the pair before touching either ledger so a concurrent call
	// for the same pair observes a consistent prior state.
	if err := s.issuances.Reserve(ctx, address, awardType); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeDuplicateIssuance, "award already issued to this address")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reserve issuance")
	}

	result, err := s.dualMint(ctx, address, awardType, amount)
	if err != nil {
		if releaseErr := s.issuances.Release(ctx, address, awardType); releaseErr != nil && s.logger != nil {
			s.logger.ErrorContext(ctx, "failed to release issuance reservation",
				"address", address,
				"award_type", awardType,
				"error", releaseErr,
			)
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ObserveAward(awardType.String(), time.Since(start).Seconds())
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "award issued",
			"address", address,
			"award_type", awardType,
			"amount", result.Amount,
			"asset_id", result.AssetID,
		)
	}
	return result, nil
}

// dualMint performs credit + mint + commit + audit, unwinding every applied
// step on failure so no partial issuance survives.
func (s *Service) dualMint(ctx context.Context, address domain.Address, awardType domain.AwardType, amount uint64) (*IssueResult, error) {
	if err := s.tokens.Credit(ctx, address, amount); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeLedgerWriteFail, "fungible ledger rejected the credit")
	}

	assetID, err := s.badges.Mint(ctx, address, awardType, awardType.Description())
	if err != nil {
		s.compensateCredit(ctx, address, amount)
		return nil, dErrors.Wrap(err, dErrors.CodeLedgerWriteFail, "asset registry rejected the mint")
	}

	record := IssuanceRecord{
		Address:   address,
		AwardType: awardType,
		Amount:    amount,
		AssetID:   assetID,
		IssuedAt:  requestcontext.Now(ctx),
	}

	if err := s.issuances.Commit(ctx, record); err != nil {
		s.compensateMint(ctx, assetID)
		s.compensateCredit(ctx, address, amount)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record issuance")
	}

	// Issuance audit is fail-closed and runs only after the record is durable:
	// the trail must never show a grant that did not commit. An audit failure
	// here unwinds the whole grant, committed record included.
	if s.auditor != nil {
		err := s.auditor.Emit(ctx, audit.Event{
			Action:    audit.EventAwardIssued,
			Address:   address,
			AwardType: awardType.String(),
			Amount:    amount,
			AssetID:   assetID.String(),
		})
		if err != nil {
			s.compensateMint(ctx, assetID)
			s.compensateCredit(ctx, address, amount)
			s.expungeRecord(ctx, address, awardType)
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "issuance audit persistence failed")
		}
	}

	return &IssueResult{AwardType: awardType, Amount: amount, AssetID: assetID}, nil
}

func (s *Service) compensateCredit(ctx context.Context, address domain.Address, amount uint64) {
	if err := s.tokens.Revert(ctx, address, amount); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "CRITICAL: failed to revert token credit",
			"address", address,
			"amount", amount,
			"error", err,
		)
	}
}

func (s *Service) expungeRecord(ctx context.Context, address domain.Address, awardType domain.AwardType) {
	if err := s.issuances.Expunge(ctx, address, awardType); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "CRITICAL: failed to expunge issuance record during rollback",
			"address", address,
			"award_type", awardType,
			"error", err,
		)
	}
}

func (s *Service) compensateMint(ctx context.Context, assetID domain.AssetID) {
	if err := s.badges.Burn(ctx, assetID); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "CRITICAL: failed to burn badge during rollback",
			"asset_id", assetID,
			"error", err,
		)
	}
}

// Issuance returns the committed record for an (address, awardType) pair.
func (s *Service) Issuance(ctx context.Context, address domain.Address, awardType domain.AwardType) (IssuanceRecord, error) {
	if address.IsNil() {
		return IssuanceRecord{}, dErrors.New(dErrors.CodeBadRequest, "address is required")
	}
	if !awardType.IsValid() {
		return IssuanceRecord{}, dErrors.Newf(dErrors.CodeUnknownAwardType, "unknown award type %d", uint8(awardType))
	}

	record, err := s.issuances.Find(ctx, address, awardType)
	if errors.Is(err, sentinel.ErrNotFound) {
		return IssuanceRecord{}, dErrors.New(dErrors.CodeNotFound, "no issuance recorded for this pair")
	}
	if err != nil {
		return IssuanceRecord{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up issuance")
	}
	return record, nil
}

// SetAwardAmount updates the token quantity for an award type. Owner-only at
// the transport layer; does not retroactively affect issued awards.
func (s *Service) SetAwardAmount(ctx context.Context, awardType domain.AwardType, amount uint64) error {
	if !awardType.IsValid() {
		return dErrors.Newf(dErrors.CodeUnknownAwardType, "unknown award type %d", uint8(awardType))
	}
	if amount == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "amount must be positive")
	}

	if err := s.amounts.Set(ctx, awardType, amount); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update award amount")
	}

	if s.auditor != nil {
		err := s.auditor.Emit(ctx, audit.Event{
			Action:    audit.EventAwardAmountUpdated,
			AwardType: awardType.String(),
			Amount:    amount,
		})
		if err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "failed to emit audit event",
				"action", audit.EventAwardAmountUpdated,
				"error", err,
			)
		}
	}
	return nil
}

// AwardAmounts returns the current amount table.
func (s *Service) AwardAmounts(ctx context.Context) (map[domain.AwardType]uint64, error) {
	amounts, err := s.amounts.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list award amounts")
	}
	return amounts, nil
}
