package customer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"credit-approval/internal/event"
	"credit-approval/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var logger = slog.New(slog.NewJSONHandler(io.Discard, nil))

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Save(ctx context.Context, c *Customer) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCustomerRepository) Upsert(ctx context.Context, c *Customer) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, customerID int64) (*Customer, error) {
	args := m.Called(ctx, customerID)
	if c, ok := args.Get(0).(*Customer); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCustomerRepository) FindAll(ctx context.Context) ([]*Customer, error) {
	args := m.Called(ctx)
	if customers, ok := args.Get(0).([]*Customer); ok {
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

func TestRegisterCustomer(t *testing.T) {
	ctx := context.Background()

	t.Run("should save the customer and publish a registration event", func(t *testing.T) {
		mockRepo := new(MockCustomerRepository)
		mockPub := new(MockPublisher)
		service := NewCustomerService(mockRepo, mockPub, logger)

		mockRepo.On("Save", ctx, mock.MatchedBy(func(c *Customer) bool {
			return c.FirstName == "Aarav" && d("1800000").Equal(c.ApprovedLimit)
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*Customer).CustomerID = 42
		}).Return(nil)
		mockPub.On("PublishCustomerRegistered", ctx, mock.MatchedBy(func(evt event.CustomerRegisteredEvent) bool {
			return evt.Payload.CustomerID == 42 && evt.Payload.Name == "Aarav Sharma"
		})).Return(nil)

		c, err := service.RegisterCustomer(ctx, "Aarav", "Sharma", 30, d("50000"), "9876543210")

		assert.NoError(t, err)
		assert.Equal(t, int64(42), c.CustomerID)
		mockRepo.AssertExpectations(t)
		mockPub.AssertExpectations(t)
	})

	t.Run("should trim surrounding whitespace from names and phone", func(t *testing.T) {
		mockRepo := new(MockCustomerRepository)
		service := NewCustomerService(mockRepo, nil, logger)

		mockRepo.On("Save", ctx, mock.MatchedBy(func(c *Customer) bool {
			return c.FirstName == "Aarav" && c.PhoneNumber == "9876543210"
		})).Return(nil)

		_, err := service.RegisterCustomer(ctx, "  Aarav ", "Sharma", 30, d("50000"), " 9876543210 ")

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("should reject invalid input without touching the repository", func(t *testing.T) {
		mockRepo := new(MockCustomerRepository)
		service := NewCustomerService(mockRepo, nil, logger)

		c, err := service.RegisterCustomer(ctx, "Aarav", "Sharma", 17, d("50000"), "9876543210")

		assert.Nil(t, c)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("should map a duplicate phone to an already-exists error", func(t *testing.T) {
		mockRepo := new(MockCustomerRepository)
		mockPub := new(MockPublisher)
		service := NewCustomerService(mockRepo, mockPub, logger)

		mockRepo.On("Save", ctx, mock.Anything).Return(ErrDuplicatePhone)

		c, err := service.RegisterCustomer(ctx, "Aarav", "Sharma", 30, d("50000"), "9876543210")

		assert.Nil(t, c)
		assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
		mockPub.AssertNotCalled(t, "PublishCustomerRegistered", mock.Anything, mock.Anything)
	})

	t.Run("should still register when publishing fails", func(t *testing.T) {
		mockRepo := new(MockCustomerRepository)
		mockPub := new(MockPublisher)
		service := NewCustomerService(mockRepo, mockPub, logger)

		mockRepo.On("Save", ctx, mock.Anything).Return(nil)
		mockPub.On("PublishCustomerRegistered", ctx, mock.Anything).Return(errors.New("broker down"))

		c, err := service.RegisterCustomer(ctx, "Aarav", "Sharma", 30, d("50000"), "9876543210")

		assert.NoError(t, err)
		assert.NotNil(t, c)
	})
}

func TestGetCustomer(t *testing.T) {
	ctx := context.Background()

	t.Run("should return the customer from the repository", func(t *testing.T) {
		mockRepo := new(MockCustomerRepository)
		service := NewCustomerService(mockRepo, nil, logger)

		mockRepo.On("FindByID", ctx, int64(1)).Return(&Customer{CustomerID: 1}, nil)

		c, err := service.GetCustomer(ctx, 1)

		assert.NoError(t, err)
		assert.Equal(t, int64(1), c.CustomerID)
	})

	t.Run("should pass through not found", func(t *testing.T) {
		mockRepo := new(MockCustomerRepository)
		service := NewCustomerService(mockRepo, nil, logger)

		mockRepo.On("FindByID", ctx, int64(99)).Return(nil, ErrNotFound)

		c, err := service.GetCustomer(ctx, 99)

		assert.Nil(t, c)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestListCustomers(t *testing.T) {
	ctx := context.Background()

	t.Run("should list all customers", func(t *testing.T) {
		mockRepo := new(MockCustomerRepository)
		service := NewCustomerService(mockRepo, nil, logger)

		mockRepo.On("FindAll", ctx).Return([]*Customer{{CustomerID: 1}, {CustomerID: 2}}, nil)

		customers, err := service.ListCustomers(ctx)

		assert.NoError(t, err)
		assert.Len(t, customers, 2)
	})

	t.Run("should wrap repository failures", func(t *testing.T) {
		mockRepo := new(MockCustomerRepository)
		service := NewCustomerService(mockRepo, nil, logger)

		mockRepo.On("FindAll", ctx).Return(nil, errors.New("connection refused"))

		customers, err := service.ListCustomers(ctx)

		assert.Nil(t, customers)
		assert.Error(t, err)
	})
}
