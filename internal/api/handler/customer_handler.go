package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"credit-approval/internal/api/handler/dto"
	"credit-approval/internal/domain/customer"
	"credit-approval/internal/pkg/apperrors"
)

type CustomerHandler struct {
	service customer.CustomerService
	logger  *slog.Logger
}

func NewCustomerHandler(s customer.CustomerService, l *slog.Logger) *CustomerHandler {
	if s == nil {
		panic("customer service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &CustomerHandler{
		service: s,
		logger:  l.With("component", "CustomerHandler"),
	}
}

// RegisterCustomer handles POST /register. The approved limit is derived
// from the submitted income; the client never supplies it.
func (h *CustomerHandler) RegisterCustomer(w http.ResponseWriter, r *http.Request) {
	h.logger.DebugContext(r.Context(), "Received register customer request")

	var req dto.RegisterCustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		h.logger.WarnContext(r.Context(), "Registration request validation failed", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	registered, err := h.service.RegisterCustomer(r.Context(), req.FirstName, req.LastName, req.Age, req.MonthlyIncome, req.PhoneNumber)
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrAlreadyExists) && !errors.Is(err, apperrors.ErrValidation) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to register customer", slog.Any("error", err))
		respondError(w, err)
		return
	}

	resp := dto.NewCustomerResponse(registered)
	h.logger.InfoContext(r.Context(), "Customer registered successfully", slog.Int64("customerID", resp.CustomerID))
	respondJSON(w, http.StatusCreated, resp)
}

// GetCustomer handles GET /customers/{customerID}.
func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := idFromURL(r, "customerID")
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to get customer ID from URL", slog.Any("error", err))
		respondError(w, err)
		return
	}

	domainCustomer, err := h.service.GetCustomer(r.Context(), customerID)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			err = fmt.Errorf("%w: customer %d not found", apperrors.ErrNotFound, customerID)
		}
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrNotFound) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to get customer", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Customer retrieved successfully", slog.Int64("customerID", customerID))
	respondJSON(w, http.StatusOK, dto.NewCustomerResponse(domainCustomer))
}

// ListCustomers handles GET /customers.
func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	h.logger.DebugContext(r.Context(), "Received list customers request")

	customers, err := h.service.ListCustomers(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to list customers", slog.Any("error", err))
		respondError(w, err)
		return
	}

	resp := make([]dto.CustomerResponse, len(customers))
	for i, cust := range customers {
		resp[i] = dto.NewCustomerResponse(cust)
	}

	h.logger.InfoContext(r.Context(), "Customers listed successfully", slog.Int("count", len(resp)))
	respondJSON(w, http.StatusOK, resp)
}
