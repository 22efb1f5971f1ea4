package httptransport

import (
	"errors"
	"net/http"

	"vibegate/internal/audit"
	"vibegate/pkg/domain"
	dErrors "vibegate/pkg/domain-errors"
	"vibegate/pkg/platform/httputil"
	"vibegate/pkg/platform/sentinel"
	"vibegate/pkg/requestcontext"
)

type setAmountRequest struct {
	AwardType string `json:"award_type"`
	Amount    uint64 `json:"amount"`
}

// HandleSetAmount updates the token quantity for an award type. Existing
// issuances are unaffected.
func (h *Handler) HandleSetAmount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[setAmountRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	awardType, err := domain.ParseAwardType(req.AwardType)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnknownAwardType, "invalid award type"))
		return
	}

	if err := h.rewards.SetAwardAmount(ctx, awardType, req.Amount); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "award amount updated",
		"request_id", requestID,
		"actor", requestcontext.Actor(ctx),
		"award_type", awardType,
		"amount", req.Amount,
	)
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"award_type": awardType.String(),
		"amount":     req.Amount,
	})
}

// HandleListAmounts returns the current amount table keyed by award name.
func (h *Handler) HandleListAmounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	amounts, err := h.rewards.AwardAmounts(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make(map[string]uint64, len(amounts))
	for awardType, amount := range amounts {
		out[awardType.String()] = amount
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"amounts": out})
}

type reauthorizeRequest struct {
	Authority string `json:"authority"`
}

// HandleReauthorize re-points both ledger capabilities at a new authority.
// The acting owner comes from the bearer token subject.
func (h *Handler) HandleReauthorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[reauthorizeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if req.Authority == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "authority is required"))
		return
	}

	owner := requestcontext.Actor(ctx)
	if err := h.ledger.Reauthorize(owner, req.Authority); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeForbidden, "caller does not own the ledgers"))
			return
		}
		h.logger.ErrorContext(ctx, "reauthorization failed",
			"request_id", requestID,
			"actor", owner,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "reauthorization failed"))
		return
	}

	h.emit(ctx, audit.Event{
		Action: audit.EventAuthorityConfigured,
		Reason: req.Authority,
	})
	h.logger.InfoContext(ctx, "ledger authority reconfigured",
		"request_id", requestID,
		"actor", owner,
		"authority", req.Authority,
	)
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"authority": req.Authority})
}
