// Package mocks provides testify mocks for the ports interfaces.
package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/jsamuelsen/verse-service/internal/domain"
)

// MockDatasetSource mocks ports.DatasetSource.
type MockDatasetSource struct {
	mock.Mock
}

// NewMockDatasetSource creates a mock whose expectations are asserted on cleanup.
func NewMockDatasetSource(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockDatasetSource {
	m := &MockDatasetSource{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockDatasetSource) FetchDataset(ctx context.Context) (*domain.Dataset, error) {
	args := m.Called(ctx)

	ds, _ := args.Get(0).(*domain.Dataset)
	if ds == nil {
		return nil, args.Error(1)
	}

	return ds.Clone(), args.Error(1)
}

func (m *MockDatasetSource) Describe() string {
	return "mock"
}

// MockOverrideStore mocks ports.OverrideStore.
type MockOverrideStore struct {
	mock.Mock
}

// NewMockOverrideStore creates a mock whose expectations are asserted on cleanup.
func NewMockOverrideStore(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockOverrideStore {
	m := &MockOverrideStore{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockOverrideStore) Load(ctx context.Context) (*domain.Dataset, error) {
	args := m.Called(ctx)

	ds, _ := args.Get(0).(*domain.Dataset)
	if ds == nil {
		return nil, args.Error(1)
	}

	return ds.Clone(), args.Error(1)
}

func (m *MockOverrideStore) Save(ctx context.Context, ds *domain.Dataset) error {
	return m.Called(ctx, ds).Error(0)
}

func (m *MockOverrideStore) Clear(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockPreferenceStore mocks ports.PreferenceStore.
type MockPreferenceStore struct {
	mock.Mock
}

func (m *MockPreferenceStore) Theme(ctx context.Context) (domain.Theme, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Theme), args.Error(1)
}

func (m *MockPreferenceStore) SetTheme(ctx context.Context, theme domain.Theme) error {
	return m.Called(ctx, theme).Error(0)
}

// MockRenderer mocks ports.Renderer.
type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Render(ctx context.Context, view *domain.View) error {
	return m.Called(ctx, view).Error(0)
}

// MockCodec mocks ports.DatasetCodec.
type MockCodec struct {
	mock.Mock
}

func (m *MockCodec) Encode(w io.Writer, ds *domain.Dataset) error {
	return m.Called(w, ds).Error(0)
}

func (m *MockCodec) Decode(r io.Reader) (*domain.Dataset, error) {
	args := m.Called(r)

	ds, _ := args.Get(0).(*domain.Dataset)

	return ds, args.Error(1)
}
