package mocks

import (
	"context"

	"khrafet/internal/storygen"

	"github.com/stretchr/testify/mock"
)

// MockCompleter is a mock type for the Completer type
type MockCompleter struct {
	mock.Mock
}

// Complete provides a mock function with given fields: ctx, prompt
func (_m *MockCompleter) Complete(ctx context.Context, prompt string) (storygen.Completion, error) {
	ret := _m.Called(ctx, prompt)

	var r0 storygen.Completion
	if rf, ok := ret.Get(0).(func(context.Context, string) storygen.Completion); ok {
		r0 = rf(ctx, prompt)
	} else {
		r0 = ret.Get(0).(storygen.Completion)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, prompt)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockCompleter creates a new instance of MockCompleter. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockCompleter(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCompleter {
	m := &MockCompleter{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

var _ storygen.Completer = (*MockCompleter)(nil)
