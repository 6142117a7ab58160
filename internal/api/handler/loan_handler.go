package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"credit-approval/internal/api/handler/dto"
	"credit-approval/internal/domain/loan"
	"credit-approval/internal/pkg/apperrors"

	"github.com/go-chi/chi/v5"
)

type LoanHandler struct {
	service loan.LoanService
	logger  *slog.Logger
}

func NewLoanHandler(s loan.LoanService, l *slog.Logger) *LoanHandler {
	if s == nil {
		panic("loan service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &LoanHandler{
		service: s,
		logger:  l.With("component", "LoanHandler"),
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("no request body")
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("Failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":{"message":"Internal server error"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func respondError(w http.ResponseWriter, err error) {
	status, message, field := http.StatusInternalServerError, "An unexpected error occurred.", ""
	var validationError *apperrors.ValidationError

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status, message = http.StatusNotFound, "Resource not found."
	case errors.As(err, &validationError):
		status, message, field = http.StatusBadRequest, validationError.Message, validationError.Field
	case errors.Is(err, apperrors.ErrInvalidArgument), errors.Is(err, apperrors.ErrValidation):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, apperrors.ErrAlreadyExists):
		status, message = http.StatusConflict, err.Error()
	default:
		slog.Default().Error("Unhandled internal error", "error", err)
	}

	resp := dto.ErrorResponse{
		Error: dto.ErrorDetail{
			Message: message,
			Field:   field,
		},
	}
	respondJSON(w, status, resp)
}

func idFromURL(r *http.Request, param string) (int64, error) {
	idStr := chi.URLParam(r, param)
	if idStr == "" {
		return 0, fmt.Errorf("%w: %s not found in URL path", apperrors.ErrInvalidArgument, param)
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s format in URL path: %s", apperrors.ErrInvalidArgument, param, idStr)
	}
	return id, nil
}

// CheckEligibility handles POST /check-eligibility. It is read-only: the
// same request can be replayed any number of times without side effects.
func (h *LoanHandler) CheckEligibility(w http.ResponseWriter, r *http.Request) {
	h.logger.DebugContext(r.Context(), "Received check eligibility request")

	var req dto.LoanTermsRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		h.logger.WarnContext(r.Context(), "Eligibility request validation failed", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	result, err := h.service.CheckEligibility(r.Context(), req.CustomerID, req.LoanAmount, req.InterestRate, req.Tenure)
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrNotFound) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to check eligibility", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Eligibility check completed",
		slog.Int64("customerID", req.CustomerID), slog.Bool("approval", result.Approved))
	respondJSON(w, http.StatusOK, dto.NewEligibilityResponse(result))
}

// CreateLoan handles POST /create-loan. A business rejection is a 200 with
// loan_approved=false, not an error status.
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	h.logger.DebugContext(r.Context(), "Received create loan request")

	var req dto.LoanTermsRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		h.logger.WarnContext(r.Context(), "Create loan request validation failed", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	result, err := h.service.CreateLoan(r.Context(), req.CustomerID, req.LoanAmount, req.InterestRate, req.Tenure)
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrNotFound) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to create loan", slog.Any("error", err))
		respondError(w, err)
		return
	}

	status := http.StatusOK
	if result.Approved {
		status = http.StatusCreated
	}
	h.logger.InfoContext(r.Context(), "Create loan request completed",
		slog.Int64("customerID", req.CustomerID), slog.Bool("approved", result.Approved))
	respondJSON(w, status, dto.NewCreateLoanResponse(result))
}

// GetLoan handles GET /view-loan/{loanID}.
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := idFromURL(r, "loanID")
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to get loan ID from URL", slog.Any("error", err))
		respondError(w, err)
		return
	}

	detail, err := h.service.GetLoan(r.Context(), loanID)
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrNotFound) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to get loan", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Loan retrieved successfully", slog.Int64("loanID", loanID))
	respondJSON(w, http.StatusOK, dto.NewLoanDetailResponse(detail))
}

// GetCustomerLoans handles GET /view-loans/{customerID}. A customer with no
// loans gets an empty list, not a 404.
func (h *LoanHandler) GetCustomerLoans(w http.ResponseWriter, r *http.Request) {
	customerID, err := idFromURL(r, "customerID")
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to get customer ID from URL", slog.Any("error", err))
		respondError(w, err)
		return
	}

	loans, err := h.service.GetCustomerLoans(r.Context(), customerID)
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrNotFound) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to list customer loans", slog.Any("error", err))
		respondError(w, err)
		return
	}

	resp := make([]dto.CustomerLoanResponse, len(loans))
	for i := range loans {
		resp[i] = dto.NewCustomerLoanResponse(&loans[i])
	}

	h.logger.InfoContext(r.Context(), "Customer loans listed successfully",
		slog.Int64("customerID", customerID), slog.Int("count", len(resp)))
	respondJSON(w, http.StatusOK, resp)
}
