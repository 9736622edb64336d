package investor

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (_m *MockRepository) Save(ctx context.Context, inv *Investor) error {
	ret := _m.Called(ctx, inv)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, *Investor) error); ok {
		r0 = rf(ctx, inv)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

func (_m *MockRepository) FindByID(ctx context.Context, investorID int64) (*Investor, error) {
	ret := _m.Called(ctx, investorID)

	var r0 *Investor
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Investor)
	}

	return r0, ret.Error(1)
}

func (_m *MockRepository) FindAll(ctx context.Context) ([]*Investor, error) {
	ret := _m.Called(ctx)

	var r0 []*Investor
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*Investor)
	}

	return r0, ret.Error(1)
}

func (_m *MockRepository) MarkLiquidated(ctx context.Context, investorID int64, amountReturned float64) (*Investor, error) {
	ret := _m.Called(ctx, investorID, amountReturned)

	var r0 *Investor
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Investor)
	}

	return r0, ret.Error(1)
}
