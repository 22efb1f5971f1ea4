package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"vibegate/pkg/domain"
	dErrors "vibegate/pkg/domain-errors"
	"vibegate/pkg/platform/httputil"
	"vibegate/pkg/requestcontext"
)

type issueRequest struct {
	Address   string `json:"address"`
	AwardType string `json:"award_type"`
}

type issueResponse struct {
	Address   string `json:"address"`
	AwardType string `json:"award_type"`
	Amount    uint64 `json:"amount"`
	AssetID   string `json:"asset_id"`
}

// HandleIssueAward grants the combined token + badge bundle. Callers reach
// this only through the authority role gate.
func (h *Handler) HandleIssueAward(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[issueRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	address, err := domain.ParseAddress(req.Address)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid address"))
		return
	}
	awardType, err := domain.ParseAwardType(req.AwardType)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnknownAwardType, "invalid award type"))
		return
	}

	result, err := h.rewards.IssueAward(ctx, address, awardType)
	if err != nil {
		h.logger.InfoContext(ctx, "issuance refused",
			"request_id", requestID,
			"address", address,
			"award_type", awardType,
			"reason", dErrors.CodeOf(err),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, issueResponse{
		Address:   address.String(),
		AwardType: result.AwardType.String(),
		Amount:    result.Amount,
		AssetID:   result.AssetID.String(),
	})
}

type issuanceResponse struct {
	Address   string    `json:"address"`
	AwardType string    `json:"award_type"`
	Amount    uint64    `json:"amount"`
	AssetID   string    `json:"asset_id"`
	IssuedAt  time.Time `json:"issued_at"`
}

// HandleGetIssuance returns the committed issuance record for a pair.
func (h *Handler) HandleGetIssuance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	address, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid address"))
		return
	}
	awardType, err := domain.ParseAwardType(chi.URLParam(r, "awardType"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnknownAwardType, "invalid award type"))
		return
	}

	record, err := h.rewards.Issuance(ctx, address, awardType)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, issuanceResponse{
		Address:   record.Address.String(),
		AwardType: record.AwardType.String(),
		Amount:    record.Amount,
		AssetID:   record.AssetID.String(),
		IssuedAt:  record.IssuedAt,
	})
}
