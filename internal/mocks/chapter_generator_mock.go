package mocks

import (
	"context"

	"khrafet/internal/session"
	"khrafet/internal/storygen"

	"github.com/stretchr/testify/mock"
)

// MockChapterGenerator is a mock type for the ChapterGenerator type
type MockChapterGenerator struct {
	mock.Mock
}

// GenerateChapter provides a mock function with given fields: ctx, req, priorCount
func (_m *MockChapterGenerator) GenerateChapter(ctx context.Context, req storygen.GenerationRequest, priorCount int) (storygen.Chapter, error) {
	ret := _m.Called(ctx, req, priorCount)

	var r0 storygen.Chapter
	if rf, ok := ret.Get(0).(func(context.Context, storygen.GenerationRequest, int) storygen.Chapter); ok {
		r0 = rf(ctx, req, priorCount)
	} else {
		r0 = ret.Get(0).(storygen.Chapter)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, storygen.GenerationRequest, int) error); ok {
		r1 = rf(ctx, req, priorCount)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockChapterGenerator creates a new instance of MockChapterGenerator. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockChapterGenerator(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockChapterGenerator {
	m := &MockChapterGenerator{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

var _ session.ChapterGenerator = (*MockChapterGenerator)(nil)
