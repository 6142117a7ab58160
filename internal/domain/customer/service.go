package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"credit-approval/internal/event"
	"credit-approval/internal/infrastructure/monitoring"
	"credit-approval/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

type CustomerService interface {
	RegisterCustomer(ctx context.Context, firstName, lastName string, age int, monthlyIncome decimal.Decimal, phoneNumber string) (*Customer, error)

	GetCustomer(ctx context.Context, customerID int64) (*Customer, error)

	ListCustomers(ctx context.Context) ([]*Customer, error)
}

var _ CustomerService = (*customerService)(nil)

type customerService struct {
	repo   CustomerRepository
	pub    event.Publisher
	logger *slog.Logger
}

func NewCustomerService(repo CustomerRepository, publisher event.Publisher, logger *slog.Logger) CustomerService {
	if repo == nil {
		panic("customer repository cannot be nil")
	}
	if publisher == nil {
		publisher = event.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerService, using default stderr handler")
	}

	return &customerService{
		repo:   repo,
		pub:    publisher,
		logger: logger.With(slog.String("component", "customerService")),
	}
}

func (s *customerService) RegisterCustomer(ctx context.Context, firstName, lastName string, age int, monthlyIncome decimal.Decimal, phoneNumber string) (*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to register new customer")

	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	phoneNumber = strings.TrimSpace(phoneNumber)

	cust, err := NewCustomer(firstName, lastName, age, monthlyIncome, phoneNumber)
	if err != nil {
		s.logger.WarnContext(ctx, "Customer registration input rejected", slog.Any("error", err))
		return nil, err
	}

	if err := s.repo.Save(ctx, cust); err != nil {
		if errors.Is(err, ErrDuplicatePhone) {
			s.logger.WarnContext(ctx, "Phone number already registered", slog.String("phone", phoneNumber))
			return nil, fmt.Errorf("%w: %w", apperrors.ErrAlreadyExists, err)
		}
		s.logger.ErrorContext(ctx, "Repository failed to save new customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save new customer: %w", err)
	}

	monitoring.RecordCustomerCreated()
	s.logger.InfoContext(ctx, "Successfully registered new customer",
		slog.Int64("customerID", cust.CustomerID),
		slog.String("approvedLimit", cust.ApprovedLimit.String()))

	registered := event.CustomerRegisteredEvent{
		Timestamp: time.Now(),
		Payload: event.CustomerPayload{
			CustomerID:    cust.CustomerID,
			Name:          cust.FullName(),
			Age:           cust.Age,
			MonthlyIncome: cust.MonthlyIncome,
			ApprovedLimit: cust.ApprovedLimit,
		},
	}
	if pubErr := s.pub.PublishCustomerRegistered(ctx, registered); pubErr != nil {
		s.logger.ErrorContext(ctx, "Customer registered, but failed to publish registration event", slog.Any("error", pubErr))
	}

	return cust, nil
}

func (s *customerService) GetCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	customer, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.WarnContext(ctx, "Customer not found by repository", slog.Int64("customerID", customerID))
			return nil, ErrNotFound
		}
		s.logger.ErrorContext(ctx, "Repository error finding customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get customer %d: %w", customerID, err)
	}

	return customer, nil
}

func (s *customerService) ListCustomers(ctx context.Context) ([]*Customer, error) {
	customers, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error listing customers", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	s.logger.InfoContext(ctx, "Successfully retrieved customers", slog.Int("count", len(customers)))
	return customers, nil
}
