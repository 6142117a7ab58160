package customer

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("customer not found")

	ErrDuplicatePhone = errors.New("phone number already registered")
)

type CustomerRepository interface {
	Save(ctx context.Context, customer *Customer) error

	Upsert(ctx context.Context, customer *Customer) error

	FindByID(ctx context.Context, customerID int64) (*Customer, error)

	FindAll(ctx context.Context) ([]*Customer, error)
}
