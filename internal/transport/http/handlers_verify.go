package httptransport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vibegate/internal/audit"
	"vibegate/internal/verifier"
	"vibegate/pkg/domain"
	dErrors "vibegate/pkg/domain-errors"
	"vibegate/pkg/platform/httputil"
	"vibegate/pkg/requestcontext"
)

type verifyRequest struct {
	Address       string                 `json:"address"`
	Proof         []byte                 `json:"proof"`
	PublicSignals verifier.PublicSignals `json:"public_signals"`
}

type verifyResponse struct {
	Status    string `json:"status"`
	Address   string `json:"address"`
	Nullifier string `json:"nullifier"`
}

// HandleVerify runs the full verification pipeline: proof and policy checks
// first, then the at-most-once nullifier binding. Rejections are audited with
// the rejection reason; identity attributes never appear in the response.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[verifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	address, err := domain.ParseAddress(req.Address)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid address"))
		return
	}

	outcome, err := h.verifier.Verify(ctx, verifier.Submission{
		Proof:         req.Proof,
		PublicSignals: req.PublicSignals,
	})
	if err != nil {
		if h.metrics != nil {
			h.metrics.ObserveVerification("rejected")
		}
		h.emit(ctx, audit.Event{
			Action:  audit.EventVerificationRejected,
			Address: address,
			Reason:  string(dErrors.CodeOf(err)),
		})
		h.logger.InfoContext(ctx, "verification rejected",
			"request_id", requestID,
			"address", address,
			"reason", dErrors.CodeOf(err),
		)
		httputil.WriteError(w, err)
		return
	}

	result, err := h.registry.Register(ctx, address, outcome.Nullifier)
	if err != nil {
		if h.metrics != nil {
			h.metrics.ObserveVerification("rejected")
		}
		httputil.WriteError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ObserveVerification("verified")
	}
	h.emit(ctx, audit.Event{
		Action:  audit.EventVerificationCompleted,
		Address: address,
	})
	h.logger.InfoContext(ctx, "verification completed",
		"request_id", requestID,
		"address", address,
		"status", result,
	)

	httputil.WriteJSON(w, http.StatusOK, verifyResponse{
		Status:    string(result),
		Address:   address.String(),
		Nullifier: outcome.Nullifier.String(),
	})
}

type statusResponse struct {
	Address  string `json:"address"`
	Verified bool   `json:"verified"`
}

// HandleStatus reports whether an address has completed verification.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	address, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid address"))
		return
	}

	verified, err := h.registry.IsVerified(ctx, address)
	if err != nil {
		h.logger.ErrorContext(ctx, "verification status lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"address", address,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, statusResponse{
		Address:  address.String(),
		Verified: verified,
	})
}

func (h *Handler) emit(ctx context.Context, event audit.Event) {
	if h.auditor == nil {
		return
	}
	if err := h.auditor.Emit(ctx, event); err != nil {
		h.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"error", err,
		)
	}
}
