package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/forgo/mentora/api/internal/model"
	"github.com/forgo/mentora/api/internal/service"
)

// EarningsHandler exposes mentor payable operations
type EarningsHandler struct {
	earnings *service.MentorEarningsService
}

// NewEarningsHandler creates a new earnings handler
func NewEarningsHandler(earnings *service.MentorEarningsService) *EarningsHandler {
	return &EarningsHandler{earnings: earnings}
}

type payableAdjustRequest struct {
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Reason    string `json:"reason"`
	CreatedBy string `json:"created_by"`
}

type settleRequest struct {
	SettlementID string `json:"settlement_id"`
}

type payableResponse struct {
	ID              string `json:"id"`
	ReferenceID     string `json:"reference_id"`
	MentorID        string `json:"mentor_id"`
	StudentID       string `json:"student_id"`
	SessionTypeCode string `json:"session_type_code"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	OriginalID      string `json:"original_id,omitempty"`
	SettlementID    string `json:"settlement_id,omitempty"`
	Settled         bool   `json:"settled"`
}

func toPayableResponse(p *model.MentorPayableLedger) payableResponse {
	return payableResponse{
		ID:              p.ID(),
		ReferenceID:     p.ReferenceID(),
		MentorID:        p.MentorID(),
		StudentID:       p.StudentID(),
		SessionTypeCode: p.SessionTypeCode(),
		Amount:          p.Amount().Amount.String(),
		Currency:        p.Amount().Currency,
		OriginalID:      p.OriginalID(),
		SettlementID:    p.SettlementID(),
		Settled:         p.IsSettled(),
	}
}

// Adjust handles POST /v1/payables/{payableId}/adjust
func (h *EarningsHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req payableAdjustRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		WriteError(w, model.NewValidationError([]model.FieldError{{Field: "amount", Message: "must be a decimal number"}}))
		return
	}
	money, err := model.NewMoney(amount, req.Currency)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	adjustment, err := h.earnings.Adjust(r.Context(), r.PathValue("payableId"), money, req.Reason, req.CreatedBy)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusCreated, toPayableResponse(adjustment))
}

// Settle handles POST /v1/mentors/{mentorId}/payables/settle
func (h *EarningsHandler) Settle(w http.ResponseWriter, r *http.Request) {
	var req settleRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}
	if req.SettlementID == "" {
		WriteError(w, model.NewValidationError([]model.FieldError{{Field: "settlement_id", Message: "must not be empty"}}))
		return
	}

	settled, err := h.earnings.Settle(r.Context(), r.PathValue("mentorId"), req.SettlementID, time.Now())
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	out := make([]payableResponse, 0, len(settled))
	for _, p := range settled {
		out = append(out, toPayableResponse(p))
	}
	WriteData(w, http.StatusOK, out)
}
