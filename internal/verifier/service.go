package verifier

import (
	"context"
	"fmt"
	"log/slog"

	"vibegate/internal/policy"
	"vibegate/pkg/domain"
	dErrors "vibegate/pkg/domain-errors"
)

// Service validates submitted proofs against the deployment policy. It is a
// pure predicate over (config, proof, signals): no state is written here.
type Service struct {
	cfg    policy.Config
	hub    Hub
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(cfg policy.Config, hub Hub, opts ...Option) (*Service, error) {
	if hub == nil {
		return nil, fmt.Errorf("verification hub is required")
	}

	svc := &Service{
		cfg: cfg,
		hub: hub,
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// Verify checks the submission against the policy.
// Rule priority (fail-fast):
//  1. Scope and attestation binding - the proof must target this deployment
//  2. Cryptographic validity - delegated to the hub oracle
//  3. Age floor - policy-specific, toggleable
//  4. Country exclusion - toggleable
//  5. Watch-list screening - each flag independently toggleable
func (s *Service) Verify(ctx context.Context, sub Submission) (*Outcome, error) {
	signals := sub.PublicSignals

	if signals.ScopeHash != s.cfg.ScopeHash {
		return nil, dErrors.New(dErrors.CodeScopeMismatch, "proof was generated for a different scope")
	}
	if signals.AttestationID != s.cfg.AttestationID {
		return nil, dErrors.New(dErrors.CodeScopeMismatch, "proof attests to a different credential schema")
	}

	nullifier, err := domain.ParseNullifier(signals.Nullifier)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidProof, "public signals carry no usable nullifier")
	}

	if err := s.hub.Verify(ctx, sub.Proof, signals); err != nil {
		if s.logger != nil {
			s.logger.DebugContext(ctx, "hub rejected proof", "error", err)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidProof, "proof failed cryptographic verification")
	}

	if s.cfg.MinimumAge > 0 && signals.Age < s.cfg.MinimumAge {
		return nil, dErrors.Newf(dErrors.CodeAgeBelowThreshold,
			"disclosed age below minimum of %d", s.cfg.MinimumAge)
	}

	if !s.cfg.ForbiddenCountries.IsEmpty() && s.cfg.ForbiddenCountries.Contains(signals.CountryCode) {
		return nil, dErrors.New(dErrors.CodeCountryForbidden, "disclosed country is excluded by policy")
	}

	var clear [policy.ScreeningLists]bool
	for i, enabled := range s.cfg.ScreeningFlags {
		if enabled && signals.ScreeningHits[i] {
			return nil, dErrors.Newf(dErrors.CodeScreeningHit, "screening list %d reported a hit", i)
		}
		clear[i] = !signals.ScreeningHits[i]
	}

	return &Outcome{
		Nullifier: nullifier,
		Disclosures: Disclosures{
			Age:            signals.Age,
			CountryCode:    signals.CountryCode,
			ScreeningClear: clear,
		},
	}, nil
}
