package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vibegate/internal/audit"
	"vibegate/internal/platform/metrics"
	"vibegate/internal/registry"
	"vibegate/internal/rewards"
	"vibegate/internal/verifier"
	"vibegate/pkg/domain"
)

// VerifierService validates proof submissions.
type VerifierService interface {
	Verify(ctx context.Context, sub verifier.Submission) (*verifier.Outcome, error)
}

// RegistryService binds nullifiers and answers verification lookups.
type RegistryService interface {
	Register(ctx context.Context, address domain.Address, nullifier domain.Nullifier) (registry.RegisterOutcome, error)
	IsVerified(ctx context.Context, address domain.Address) (bool, error)
}

// RewardService issues awards and manages the amount table.
type RewardService interface {
	IssueAward(ctx context.Context, address domain.Address, awardType domain.AwardType) (*rewards.IssueResult, error)
	Issuance(ctx context.Context, address domain.Address, awardType domain.AwardType) (rewards.IssuanceRecord, error)
	SetAwardAmount(ctx context.Context, awardType domain.AwardType, amount uint64) error
	AwardAmounts(ctx context.Context) (map[domain.AwardType]uint64, error)
}

// Reauthorizer is the owner configuration surface over the ledger adapters.
type Reauthorizer interface {
	Reauthorize(owner, authority string) error
}

// Handler is the thin HTTP layer. It delegates to domain services without
// embedding business logic so transport concerns remain isolated.
type Handler struct {
	verifier VerifierService
	registry RegistryService
	rewards  RewardService
	ledger   Reauthorizer

	auditor *audit.Publisher
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewHandler(verifierSvc VerifierService, registrySvc RegistryService, rewardSvc RewardService, ledger Reauthorizer, auditor *audit.Publisher, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		verifier: verifierSvc,
		registry: registrySvc,
		rewards:  rewardSvc,
		ledger:   ledger,
		auditor:  auditor,
		logger:   logger,
		metrics:  m,
	}
}

// NewRouter wires all public endpoints. Issuance is authority-gated and the
// configuration surface is owner-gated.
func NewRouter(h *Handler, signingKey []byte) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestContext)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/verify", h.HandleVerify)
	r.Get("/registry/{address}/status", h.HandleStatus)

	r.Group(func(r chi.Router) {
		r.Use(RequireRole(signingKey, RoleAuthority))
		r.Post("/rewards/issue", h.HandleIssueAward)
		r.Get("/rewards/{address}/{awardType}", h.HandleGetIssuance)
	})

	r.Group(func(r chi.Router) {
		r.Use(RequireRole(signingKey, RoleOwner))
		r.Get("/rewards/amounts", h.HandleListAmounts)
		r.Put("/rewards/amounts", h.HandleSetAmount)
		r.Post("/ledger/reauthorize", h.HandleReauthorize)
	})

	return r
}
