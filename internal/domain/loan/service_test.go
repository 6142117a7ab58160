package loan

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"credit-approval/internal/domain/customer"
	"credit-approval/internal/event"
	"credit-approval/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var logger = slog.New(slog.NewJSONHandler(io.Discard, nil))

type txMock struct {
	pgx.Tx
}

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetLoanByID(ctx context.Context, loanID int64) (*Loan, error) {
	args := m.Called(ctx, loanID)
	if l, ok := args.Get(0).(*Loan); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) ListByCustomer(ctx context.Context, customerID int64) ([]Loan, error) {
	args := m.Called(ctx, customerID)
	if loans, ok := args.Get(0).([]Loan); ok {
		return loans, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) LockCustomerForUpdate(ctx context.Context, tx pgx.Tx, customerID int64) (*customer.Customer, error) {
	args := m.Called(ctx, tx, customerID)
	if c, ok := args.Get(0).(*customer.Customer); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) ListByCustomerInTx(ctx context.Context, tx pgx.Tx, customerID int64) ([]Loan, error) {
	args := m.Called(ctx, tx, customerID)
	if loans, ok := args.Get(0).([]Loan); ok {
		return loans, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) CreateLoanInTx(ctx context.Context, tx pgx.Tx, newLoan *Loan) (*Loan, error) {
	args := m.Called(ctx, tx, newLoan)
	if l, ok := args.Get(0).(*Loan); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) IncreaseCustomerDebtInTx(ctx context.Context, tx pgx.Tx, customerID int64, amount decimal.Decimal) error {
	args := m.Called(ctx, tx, customerID, amount)
	return args.Error(0)
}

func (m *MockRepository) Upsert(ctx context.Context, l *Loan) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) RegisterCustomer(ctx context.Context, firstName, lastName string, age int, monthlyIncome decimal.Decimal, phoneNumber string) (*customer.Customer, error) {
	args := m.Called(ctx, firstName, lastName, age, monthlyIncome, phoneNumber)
	if c, ok := args.Get(0).(*customer.Customer); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCustomerService) GetCustomer(ctx context.Context, customerID int64) (*customer.Customer, error) {
	args := m.Called(ctx, customerID)
	if c, ok := args.Get(0).(*customer.Customer); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCustomerService) ListCustomers(ctx context.Context) ([]*customer.Customer, error) {
	args := m.Called(ctx)
	if customers, ok := args.Get(0).([]*customer.Customer); ok {
		return customers, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishCustomerRegistered(ctx context.Context, evt event.CustomerRegisteredEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

func (m *MockPublisher) PublishLoanOriginated(ctx context.Context, evt event.LoanOriginatedEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

func TestCheckEligibility(t *testing.T) {
	ctx := context.Background()

	t.Run("should correct the rate for a mid-band score", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockCustomers := new(MockCustomerService)
		service := NewLoanService(mockRepo, mockCustomers, nil, logger)

		history := []Loan{
			pastLoan("80000", 24, 24),
			pastLoan("80000", 24, 24),
		}
		mockCustomers.On("GetCustomer", ctx, int64(1)).Return(eligibleCustomer(), nil)
		mockRepo.On("ListByCustomer", ctx, int64(1)).Return(history, nil)

		res, err := service.CheckEligibility(ctx, 1, d("200000"), d("8"), 24)

		assert.NoError(t, err)
		assert.True(t, res.Approved)
		assert.True(t, d("8").Equal(res.RequestedRate))
		assert.True(t, d("12").Equal(res.EffectiveRate))
		assert.True(t, d("9414.69").Equal(res.Installment))
		assert.Equal(t, 24, res.Tenure)
		mockRepo.AssertExpectations(t)
		mockCustomers.AssertExpectations(t)
	})

	t.Run("should not persist anything", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockCustomers := new(MockCustomerService)
		service := NewLoanService(mockRepo, mockCustomers, nil, logger)

		mockCustomers.On("GetCustomer", ctx, int64(1)).Return(eligibleCustomer(), nil)
		mockRepo.On("ListByCustomer", ctx, int64(1)).Return([]Loan{}, nil)

		_, err := service.CheckEligibility(ctx, 1, d("100000"), d("10"), 12)

		assert.NoError(t, err)
		mockRepo.AssertNotCalled(t, "BeginTx", mock.Anything)
		mockRepo.AssertNotCalled(t, "CreateLoanInTx", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("should return not found for an unknown customer", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockCustomers := new(MockCustomerService)
		service := NewLoanService(mockRepo, mockCustomers, nil, logger)

		mockCustomers.On("GetCustomer", ctx, int64(99)).Return(nil, customer.ErrNotFound)

		res, err := service.CheckEligibility(ctx, 99, d("100000"), d("10"), 12)

		assert.Nil(t, res)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("should reject invalid terms before touching storage", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockCustomers := new(MockCustomerService)
		service := NewLoanService(mockRepo, mockCustomers, nil, logger)

		_, err := service.CheckEligibility(ctx, 1, d("100000"), d("10"), 0)

		assert.ErrorIs(t, err, apperrors.ErrValidation)
		mockCustomers.AssertNotCalled(t, "GetCustomer", mock.Anything, mock.Anything)
	})
}

func TestCreateLoan(t *testing.T) {
	ctx := context.Background()

	t.Run("should commit the loan and debt together when approved", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockCustomers := new(MockCustomerService)
		mockPub := new(MockPublisher)
		service := NewLoanService(mockRepo, mockCustomers, mockPub, logger)

		tx := &txMock{}
		history := []Loan{
			pastLoan("80000", 24, 24),
			pastLoan("80000", 24, 24),
		}
		created := &Loan{LoanID: 55, CustomerID: 1, Amount: d("200000"), Tenure: 24, InterestRate: d("12"), MonthlyInstallment: d("9414.69")}

		mockRepo.On("BeginTx", ctx).Return(tx, nil)
		mockRepo.On("LockCustomerForUpdate", ctx, tx, int64(1)).Return(eligibleCustomer(), nil)
		mockRepo.On("ListByCustomerInTx", ctx, tx, int64(1)).Return(history, nil)
		mockRepo.On("CreateLoanInTx", ctx, tx, mock.AnythingOfType("*loan.Loan")).Return(created, nil)
		mockRepo.On("IncreaseCustomerDebtInTx", ctx, tx, int64(1), d("200000")).Return(nil)
		mockRepo.On("CommitTx", ctx, tx).Return(nil)
		mockPub.On("PublishLoanOriginated", ctx, mock.AnythingOfType("event.LoanOriginatedEvent")).Return(nil)

		res, err := service.CreateLoan(ctx, 1, d("200000"), d("8"), 24)

		assert.NoError(t, err)
		assert.True(t, res.Approved)
		if assert.NotNil(t, res.LoanID) {
			assert.Equal(t, int64(55), *res.LoanID)
		}
		assert.True(t, d("9414.69").Equal(res.Installment))
		mockRepo.AssertExpectations(t)
		mockPub.AssertExpectations(t)
	})

	t.Run("should persist the rate the gate decided, not the requested one", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockCustomers := new(MockCustomerService)
		service := NewLoanService(mockRepo, mockCustomers, nil, logger)

		tx := &txMock{}
		history := []Loan{
			pastLoan("80000", 24, 24),
			pastLoan("80000", 24, 24),
		}

		var saved *Loan
		mockRepo.On("BeginTx", ctx).Return(tx, nil)
		mockRepo.On("LockCustomerForUpdate", ctx, tx, int64(1)).Return(eligibleCustomer(), nil)
		mockRepo.On("ListByCustomerInTx", ctx, tx, int64(1)).Return(history, nil)
		mockRepo.On("CreateLoanInTx", ctx, tx, mock.AnythingOfType("*loan.Loan")).
			Run(func(args mock.Arguments) { saved = args.Get(2).(*Loan) }).
			Return(&Loan{LoanID: 56}, nil)
		mockRepo.On("IncreaseCustomerDebtInTx", ctx, tx, int64(1), d("200000")).Return(nil)
		mockRepo.On("CommitTx", ctx, tx).Return(nil)

		_, err := service.CreateLoan(ctx, 1, d("200000"), d("8"), 24)

		assert.NoError(t, err)
		if assert.NotNil(t, saved) {
			assert.True(t, d("12").Equal(saved.InterestRate))
			assert.True(t, d("9414.69").Equal(saved.MonthlyInstallment))
		}
	})

	t.Run("should roll back and write nothing when rejected", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockCustomers := new(MockCustomerService)
		mockPub := new(MockPublisher)
		service := NewLoanService(mockRepo, mockCustomers, mockPub, logger)

		tx := &txMock{}
		mockRepo.On("BeginTx", ctx).Return(tx, nil)
		mockRepo.On("LockCustomerForUpdate", ctx, tx, int64(1)).Return(eligibleCustomer(), nil)
		mockRepo.On("ListByCustomerInTx", ctx, tx, int64(1)).Return([]Loan{}, nil)
		mockRepo.On("RollbackTx", ctx, tx).Return(nil)

		res, err := service.CreateLoan(ctx, 1, d("100000"), d("10"), 12)

		assert.NoError(t, err)
		assert.False(t, res.Approved)
		assert.Nil(t, res.LoanID)
		assert.True(t, res.Installment.IsZero())
		assert.Contains(t, res.Message, msgLoanRejected)
		mockRepo.AssertNotCalled(t, "CreateLoanInTx", mock.Anything, mock.Anything, mock.Anything)
		mockRepo.AssertNotCalled(t, "IncreaseCustomerDebtInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		mockRepo.AssertNotCalled(t, "CommitTx", mock.Anything, mock.Anything)
		mockPub.AssertNotCalled(t, "PublishLoanOriginated", mock.Anything, mock.Anything)
		mockRepo.AssertExpectations(t)
	})

	t.Run("should roll back when the customer is missing", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockCustomers := new(MockCustomerService)
		service := NewLoanService(mockRepo, mockCustomers, nil, logger)

		tx := &txMock{}
		mockRepo.On("BeginTx", ctx).Return(tx, nil)
		mockRepo.On("LockCustomerForUpdate", ctx, tx, int64(99)).Return(nil, apperrors.ErrNotFound)
		mockRepo.On("RollbackTx", ctx, tx).Return(nil)

		res, err := service.CreateLoan(ctx, 99, d("100000"), d("10"), 12)

		assert.Nil(t, res)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		mockRepo.AssertExpectations(t)
	})

	t.Run("should surface a commit failure as an internal error", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockCustomers := new(MockCustomerService)
		service := NewLoanService(mockRepo, mockCustomers, nil, logger)

		tx := &txMock{}
		history := []Loan{
			pastLoan("80000", 24, 24),
			pastLoan("80000", 24, 24),
		}
		mockRepo.On("BeginTx", ctx).Return(tx, nil)
		mockRepo.On("LockCustomerForUpdate", ctx, tx, int64(1)).Return(eligibleCustomer(), nil)
		mockRepo.On("ListByCustomerInTx", ctx, tx, int64(1)).Return(history, nil)
		mockRepo.On("CreateLoanInTx", ctx, tx, mock.Anything).Return(&Loan{LoanID: 57}, nil)
		mockRepo.On("IncreaseCustomerDebtInTx", ctx, tx, int64(1), d("200000")).Return(nil)
		mockRepo.On("CommitTx", ctx, tx).Return(errors.New("connection reset"))
		mockRepo.On("RollbackTx", ctx, tx).Return(nil)

		res, err := service.CreateLoan(ctx, 1, d("200000"), d("13"), 24)

		assert.Nil(t, res)
		assert.ErrorIs(t, err, apperrors.ErrInternalServer)
	})
}

func TestGetLoanDetail(t *testing.T) {
	ctx := context.Background()

	t.Run("should return the loan with its owning customer", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockCustomers := new(MockCustomerService)
		service := NewLoanService(mockRepo, mockCustomers, nil, logger)

		l := &Loan{LoanID: 7, CustomerID: 1}
		mockRepo.On("GetLoanByID", ctx, int64(7)).Return(l, nil)
		mockCustomers.On("GetCustomer", ctx, int64(1)).Return(eligibleCustomer(), nil)

		detail, err := service.GetLoan(ctx, 7)

		assert.NoError(t, err)
		assert.Equal(t, l, detail.Loan)
		assert.Equal(t, int64(1), detail.Customer.CustomerID)
	})

	t.Run("should return not found for an unknown loan", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockCustomers := new(MockCustomerService)
		service := NewLoanService(mockRepo, mockCustomers, nil, logger)

		mockRepo.On("GetLoanByID", ctx, int64(404)).Return(nil, apperrors.ErrNotFound)

		detail, err := service.GetLoan(ctx, 404)

		assert.Nil(t, detail)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestGetCustomerLoans(t *testing.T) {
	ctx := context.Background()

	t.Run("should list the customer's loans", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockCustomers := new(MockCustomerService)
		service := NewLoanService(mockRepo, mockCustomers, nil, logger)

		history := []Loan{{LoanID: 1}, {LoanID: 2}}
		mockCustomers.On("GetCustomer", ctx, int64(1)).Return(eligibleCustomer(), nil)
		mockRepo.On("ListByCustomer", ctx, int64(1)).Return(history, nil)

		loans, err := service.GetCustomerLoans(ctx, 1)

		assert.NoError(t, err)
		assert.Len(t, loans, 2)
	})

	t.Run("should return not found for an unknown customer", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockCustomers := new(MockCustomerService)
		service := NewLoanService(mockRepo, mockCustomers, nil, logger)

		mockCustomers.On("GetCustomer", ctx, int64(99)).Return(nil, customer.ErrNotFound)

		loans, err := service.GetCustomerLoans(ctx, 99)

		assert.Nil(t, loans)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}
