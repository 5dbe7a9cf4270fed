package handler

import (
	"net/http"

	"github.com/forgo/mentora/api/internal/model"
	"github.com/forgo/mentora/api/internal/service"
)

// EntitlementHandler exposes the service entitlement ledger
type EntitlementHandler struct {
	entitlements *service.EntitlementService
}

// NewEntitlementHandler creates a new entitlement handler
func NewEntitlementHandler(entitlements *service.EntitlementService) *EntitlementHandler {
	return &EntitlementHandler{entitlements: entitlements}
}

type consumeRequest struct {
	Quantity         int    `json:"quantity"`
	CreatedBy        string `json:"created_by"`
	RelatedHoldID    string `json:"related_hold_id,omitempty"`
	RelatedBookingID string `json:"related_booking_id,omitempty"`
	BookingSource    string `json:"booking_source,omitempty"`
}

type refundRequest struct {
	Quantity         int    `json:"quantity"`
	CreatedBy        string `json:"created_by"`
	RelatedBookingID string `json:"related_booking_id,omitempty"`
	BookingSource    string `json:"booking_source,omitempty"`
}

type adjustRequest struct {
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason"`
	CreatedBy string `json:"created_by"`
}

type ledgerEntryResponse struct {
	ID           string `json:"id"`
	StudentID    string `json:"student_id"`
	ServiceType  string `json:"service_type"`
	Type         string `json:"type"`
	Quantity     int    `json:"quantity"`
	BalanceAfter int    `json:"balance_after"`
	Reason       string `json:"reason,omitempty"`
	CreatedAt    string `json:"created_at"`
	CreatedBy    string `json:"created_by"`
}

func toLedgerEntryResponse(l *model.ServiceLedger) ledgerEntryResponse {
	return ledgerEntryResponse{
		ID:           l.ID(),
		StudentID:    l.StudentID(),
		ServiceType:  l.ServiceType(),
		Type:         string(l.Type()),
		Quantity:     l.Quantity(),
		BalanceAfter: l.BalanceAfter(),
		Reason:       l.Reason(),
		CreatedAt:    l.CreatedAt().Format("2006-01-02T15:04:05Z07:00"),
		CreatedBy:    l.CreatedBy(),
	}
}

// Consume handles POST /v1/students/{studentId}/entitlements/{serviceType}/consume
func (h *EntitlementHandler) Consume(w http.ResponseWriter, r *http.Request) {
	var req consumeRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	entry, err := h.entitlements.Consume(r.Context(),
		r.PathValue("studentId"), r.PathValue("serviceType"),
		req.Quantity, req.CreatedBy,
		model.ConsumptionOptions{
			RelatedHoldID:    req.RelatedHoldID,
			RelatedBookingID: req.RelatedBookingID,
			BookingSource:    req.BookingSource,
		})
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusCreated, toLedgerEntryResponse(entry))
}

// Refund handles POST /v1/students/{studentId}/entitlements/{serviceType}/refund
func (h *EntitlementHandler) Refund(w http.ResponseWriter, r *http.Request) {
	var req refundRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	entry, err := h.entitlements.Refund(r.Context(),
		r.PathValue("studentId"), r.PathValue("serviceType"),
		req.Quantity, req.CreatedBy, req.RelatedBookingID, req.BookingSource)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusCreated, toLedgerEntryResponse(entry))
}

// Adjust handles POST /v1/students/{studentId}/entitlements/{serviceType}/adjust
func (h *EntitlementHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	entry, err := h.entitlements.Adjust(r.Context(),
		r.PathValue("studentId"), r.PathValue("serviceType"),
		req.Quantity, req.Reason, req.CreatedBy)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusCreated, toLedgerEntryResponse(entry))
}

// Entry handles GET /v1/ledger-entries/{entryId}
func (h *EntitlementHandler) Entry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.entitlements.Entry(r.Context(), r.PathValue("entryId"))
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, toLedgerEntryResponse(entry))
}

// Balance handles GET /v1/students/{studentId}/entitlements/{serviceType}/balance
func (h *EntitlementHandler) Balance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.entitlements.Balance(r.Context(),
		r.PathValue("studentId"), r.PathValue("serviceType"))
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, map[string]int{"balance": balance})
}

// History handles GET /v1/students/{studentId}/entitlements/{serviceType}/history
func (h *EntitlementHandler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.entitlements.History(r.Context(),
		r.PathValue("studentId"), r.PathValue("serviceType"))
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	out := make([]ledgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toLedgerEntryResponse(e))
	}
	WriteData(w, http.StatusOK, out)
}
