package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/FONAR-bit/fonar-project/internal/application/dto"
	"github.com/FONAR-bit/fonar-project/internal/application/usecase"
	"github.com/FONAR-bit/fonar-project/internal/domain/model"
	"github.com/FONAR-bit/fonar-project/internal/domain/valueobject"
)

// APIHandler exposes the fund operations as a JSON API for the admin layer.
type APIHandler struct {
	createLoan      *usecase.CreateLoanUseCase
	updateLoan      *usecase.UpdateLoanUseCase
	schedule        *usecase.InstallmentScheduleUseCase
	submitRequest   *usecase.SubmitLoanRequestUseCase
	decideRequest   *usecase.DecideLoanRequestUseCase
	registerPayment *usecase.RegisterPaymentUseCase
	reconcile       *usecase.ReconcilePaymentUseCase
	deleteLine      *usecase.DeleteAllocationLineUseCase
	lookupRate      *usecase.LookupRateUseCase
	distribution    *usecase.DistributionReportUseCase
	memberSummary   *usecase.MemberSummaryUseCase
	fundBalance     *usecase.UpsertFundBalanceUseCase
	recalculate     *usecase.RecalculateAggregatesUseCase
	logger          *slog.Logger
}

// NewAPIHandler wires the use cases into the HTTP surface.
func NewAPIHandler(
	createLoan *usecase.CreateLoanUseCase,
	updateLoan *usecase.UpdateLoanUseCase,
	schedule *usecase.InstallmentScheduleUseCase,
	submitRequest *usecase.SubmitLoanRequestUseCase,
	decideRequest *usecase.DecideLoanRequestUseCase,
	registerPayment *usecase.RegisterPaymentUseCase,
	reconcile *usecase.ReconcilePaymentUseCase,
	deleteLine *usecase.DeleteAllocationLineUseCase,
	lookupRate *usecase.LookupRateUseCase,
	distribution *usecase.DistributionReportUseCase,
	memberSummary *usecase.MemberSummaryUseCase,
	fundBalance *usecase.UpsertFundBalanceUseCase,
	recalculate *usecase.RecalculateAggregatesUseCase,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		createLoan:      createLoan,
		updateLoan:      updateLoan,
		schedule:        schedule,
		submitRequest:   submitRequest,
		decideRequest:   decideRequest,
		registerPayment: registerPayment,
		reconcile:       reconcile,
		deleteLine:      deleteLine,
		lookupRate:      lookupRate,
		distribution:    distribution,
		memberSummary:   memberSummary,
		fundBalance:     fundBalance,
		recalculate:     recalculate,
		logger:          logger,
	}
}

// RegisterRoutes attaches the API routes to the given mux.
func (h *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/loans", h.handleCreateLoan)
	mux.HandleFunc("PATCH /v1/loans/{id}", h.handleUpdateLoan)
	mux.HandleFunc("GET /v1/loans/{id}/schedule", h.handleSchedule)
	mux.HandleFunc("POST /v1/loan-requests", h.handleSubmitRequest)
	mux.HandleFunc("POST /v1/loan-requests/{id}/decision", h.handleDecideRequest)
	mux.HandleFunc("POST /v1/payments", h.handleRegisterPayment)
	mux.HandleFunc("PUT /v1/payments/{id}/allocations", h.handleReconcile)
	mux.HandleFunc("DELETE /v1/payments/{id}/allocations/{lineID}", h.handleDeleteLine)
	mux.HandleFunc("GET /v1/rates", h.handleLookupRate)
	mux.HandleFunc("GET /v1/reports/distribution", h.handleDistribution)
	mux.HandleFunc("GET /v1/members/{id}/summary", h.handleMemberSummary)
	mux.HandleFunc("PUT /v1/fund-balances", h.handleFundBalance)
	mux.HandleFunc("POST /v1/maintenance/recalculate", h.handleRecalculate)
}

func (h *APIHandler) handleCreateLoan(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateLoanRequest
	if !h.decode(w, r, &req) {
		return
	}
	resp, err := h.createLoan.Execute(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *APIHandler) handleUpdateLoan(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req dto.UpdateLoanRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.LoanID = id
	resp, err := h.updateLoan.Execute(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) handleSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}
	resp, err := h.schedule.Execute(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) handleSubmitRequest(w http.ResponseWriter, r *http.Request) {
	var req dto.SubmitLoanRequestRequest
	if !h.decode(w, r, &req) {
		return
	}
	resp, err := h.submitRequest.Execute(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *APIHandler) handleDecideRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req dto.DecideLoanRequestRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.RequestID = id
	resp, err := h.decideRequest.Execute(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) handleRegisterPayment(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterPaymentRequest
	if !h.decode(w, r, &req) {
		return
	}
	resp, err := h.registerPayment.Execute(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *APIHandler) handleReconcile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req dto.ReconcilePaymentRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.PaymentID = id
	resp, err := h.reconcile.Execute(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) handleDeleteLine(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}
	lineID, ok := h.pathUUID(w, r, "lineID")
	if !ok {
		return
	}
	resp, err := h.deleteLine.Execute(r.Context(), dto.DeleteAllocationLineRequest{
		PaymentID: paymentID,
		LineID:    lineID,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) handleLookupRate(w http.ResponseWriter, r *http.Request) {
	termCount := queryInt(r, "term_count")
	resp, err := h.lookupRate.Execute(r.Context(), dto.LookupRateRequest{
		MemberClass: r.URL.Query().Get("member_class"),
		TermCount:   termCount,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) handleDistribution(w http.ResponseWriter, r *http.Request) {
	resp, err := h.distribution.Execute(r.Context(), dto.DistributionReportRequest{
		Year: queryInt(r, "year"),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) handleMemberSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}
	resp, err := h.memberSummary.Execute(r.Context(), dto.MemberSummaryRequest{MemberID: id})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) handleFundBalance(w http.ResponseWriter, r *http.Request) {
	var req dto.UpsertFundBalanceRequest
	if !h.decode(w, r, &req) {
		return
	}
	resp, err := h.fundBalance.Execute(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	var req dto.RecalculateAggregatesRequest
	if r.ContentLength > 0 && !h.decode(w, r, &req) {
		return
	}
	resp, err := h.recalculate.Execute(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func (h *APIHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return false
	}
	return true
}

func (h *APIHandler) pathUUID(w http.ResponseWriter, r *http.Request, key string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(key))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + key})
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps the domain error taxonomy onto HTTP statuses. A negative
// balance is an integrity fault, surfaced as an internal error.
func (h *APIHandler) writeError(w http.ResponseWriter, err error) {
	var overAlloc *model.OverAllocationError
	var negative *model.NegativeBalanceError

	switch {
	case errors.Is(err, model.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, model.ErrNoApplicableRate):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.As(err, &overAlloc), errors.Is(err, model.ErrScheduleLocked),
		errors.Is(err, valueobject.ErrInvalidStatusTransition):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, model.ErrInvalidAllocation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.As(err, &negative):
		h.logger.Error("ledger integrity fault", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	default:
		h.logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}
