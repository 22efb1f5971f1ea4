package registry

import (
	"context"
	"fmt"
	"log/slog"

	"vibegate/internal/audit"
	"vibegate/internal/platform/metrics"
	"vibegate/pkg/domain"
	dErrors "vibegate/pkg/domain-errors"
	"vibegate/pkg/requestcontext"
)

// Service enforces at-most-once identity binding. It never re-validates
// proofs: callers must hold a successful verification outcome for the
// nullifier in the same logical operation.
type Service struct {
	store   Store
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

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("identity store is required")
	}

	svc := &Service{
		store: store,
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// Register binds the nullifier to the address, enforcing the sybil-resistance
// guarantee: one identity, one address, forever, for this deployment's scope.
func (s *Service) Register(ctx context.Context, address domain.Address, nullifier domain.Nullifier) (RegisterOutcome, error) {
	if address.IsNil() {
		return "", dErrors.New(dErrors.CodeBadRequest, "address is required")
	}
	if nullifier.IsNil() {
		return "", dErrors.New(dErrors.CodeBadRequest, "nullifier is required")
	}

	result, err := s.store.Bind(ctx, nullifier, address, requestcontext.Now(ctx))
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to bind nullifier")
	}

	switch {
	case result.Created:
		s.emit(ctx, audit.EventIdentityRegistered, address)
		return FirstVerification, nil
	case result.BoundAddress == address:
		return AlreadyVerified, nil
	default:
		// Deliberately does not reveal the bound address.
		if s.metrics != nil {
			s.metrics.NullifierReplays.Inc()
		}
		if s.logger != nil {
			attrs := []any{"address", address}
			if record, findErr := s.store.Find(ctx, nullifier); findErr == nil {
				attrs = append(attrs, "first_seen", record.VerifiedAt)
			}
			s.logger.WarnContext(ctx, "nullifier replay blocked", attrs...)
		}
		s.emit(ctx, audit.EventNullifierReplayBlocked, address)
		return "", dErrors.New(dErrors.CodeNullifierReplay, "nullifier already used by another address")
	}
}

// IsVerified is the read-only lookup the reward engine gates issuance on.
func (s *Service) IsVerified(ctx context.Context, address domain.Address) (bool, error) {
	verified, err := s.store.IsVerified(ctx, address)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read verification status")
	}
	return verified, nil
}

func (s *Service) emit(ctx context.Context, action audit.Action, address domain.Address) {
	if s.auditor == nil {
		return
	}
	err := s.auditor.Emit(ctx, audit.Event{
		Action:  action,
		Address: address,
	})
	if err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", action,
			"address", address,
			"error", err,
		)
	}
}
