package borrower

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (_m *MockRepository) Save(ctx context.Context, b *Borrower) error {
	ret := _m.Called(ctx, b)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, *Borrower) error); ok {
		r0 = rf(ctx, b)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

func (_m *MockRepository) FindByID(ctx context.Context, borrowerID int64) (*Borrower, error) {
	ret := _m.Called(ctx, borrowerID)

	var r0 *Borrower
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Borrower)
	}

	return r0, ret.Error(1)
}

func (_m *MockRepository) FindAll(ctx context.Context) ([]*Borrower, error) {
	ret := _m.Called(ctx)

	var r0 []*Borrower
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*Borrower)
	}

	return r0, ret.Error(1)
}

func (_m *MockRepository) Exists(ctx context.Context, borrowerID int64) (bool, error) {
	ret := _m.Called(ctx, borrowerID)
	return ret.Bool(0), ret.Error(1)
}
