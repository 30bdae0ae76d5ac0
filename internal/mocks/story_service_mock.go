package mocks

import (
	"context"

	"khrafet/internal/handler"
	"khrafet/internal/session"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockStoryService is a mock type for the StoryService type
type MockStoryService struct {
	mock.Mock
}

func sessionOrNil(v interface{}) *session.Session {
	if v == nil {
		return nil
	}
	return v.(*session.Session)
}

// Start provides a mock function with given fields: ctx, params
func (_m *MockStoryService) Start(ctx context.Context, params session.StartParams) (*session.Session, error) {
	ret := _m.Called(ctx, params)
	return sessionOrNil(ret.Get(0)), ret.Error(1)
}

// Choose provides a mock function with given fields: ctx, id, choiceID
func (_m *MockStoryService) Choose(ctx context.Context, id uuid.UUID, choiceID string) (*session.Session, error) {
	ret := _m.Called(ctx, id, choiceID)
	return sessionOrNil(ret.Get(0)), ret.Error(1)
}

// Retry provides a mock function with given fields: ctx, id
func (_m *MockStoryService) Retry(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	ret := _m.Called(ctx, id)
	return sessionOrNil(ret.Get(0)), ret.Error(1)
}

// Get provides a mock function with given fields: ctx, id
func (_m *MockStoryService) Get(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	ret := _m.Called(ctx, id)
	return sessionOrNil(ret.Get(0)), ret.Error(1)
}

// Transcript provides a mock function with given fields: ctx, id
func (_m *MockStoryService) Transcript(ctx context.Context, id uuid.UUID) (*session.Transcript, error) {
	ret := _m.Called(ctx, id)

	var r0 *session.Transcript
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*session.Transcript)
	}
	return r0, ret.Error(1)
}

// NewMockStoryService creates a new instance of MockStoryService. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockStoryService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockStoryService {
	m := &MockStoryService{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

var _ handler.StoryService = (*MockStoryService)(nil)
