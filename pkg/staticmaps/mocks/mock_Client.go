// Package mocks provides test doubles for the staticmaps client.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	staticmaps "github.com/sells-group/tilesweep/pkg/staticmaps"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// URL provides a mock function with given fields: req
func (_m *MockClient) URL(req staticmaps.Request) string {
	ret := _m.Called(req)

	if len(ret) == 0 {
		panic("no return value specified for URL")
	}

	if rf, ok := ret.Get(0).(func(staticmaps.Request) string); ok {
		return rf(req)
	}
	return ret.String(0)
}

// Fetch provides a mock function with given fields: ctx, req
func (_m *MockClient) Fetch(ctx context.Context, req staticmaps.Request) ([]byte, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for Fetch")
	}

	var r0 []byte
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, staticmaps.Request) ([]byte, error)); ok {
		return rf(ctx, req)
	}
	if rf, ok := ret.Get(0).(func(context.Context, staticmaps.Request) []byte); ok {
		r0 = rf(ctx, req)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]byte)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, staticmaps.Request) error); ok {
		r1 = rf(ctx, req)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockClient creates a new instance of MockClient. It also registers a
// testing interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
