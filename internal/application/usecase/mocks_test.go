package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/diillson/energy-usage-dashboard-go/internal/domain/entity"
)

// MockEnergyRepository is a mock implementation of repository.EnergyRepository
type MockEnergyRepository struct {
	mock.Mock
}

func (m *MockEnergyRepository) GetHistory(ctx context.Context, customerID string, start, end *time.Time) ([]entity.UsageSample, error) {
	args := m.Called(ctx, customerID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.UsageSample), args.Error(1)
}

func (m *MockEnergyRepository) GetCosts(ctx context.Context, customerID string, start, end *time.Time) ([]entity.CostSample, error) {
	args := m.Called(ctx, customerID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.CostSample), args.Error(1)
}

func (m *MockEnergyRepository) SubmitReading(ctx context.Context, customerID string, date time.Time, usage float64) error {
	args := m.Called(ctx, customerID, date, usage)
	return args.Error(0)
}

func (m *MockEnergyRepository) GetThreshold(ctx context.Context, customerID string) (*float64, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*float64), args.Error(1)
}

func (m *MockEnergyRepository) UpdateThreshold(ctx context.Context, customerID string, threshold float64) error {
	args := m.Called(ctx, customerID, threshold)
	return args.Error(0)
}

func (m *MockEnergyRepository) GetPresignedUpload(ctx context.Context, customerID, fileName string) (entity.StagingTarget, error) {
	args := m.Called(ctx, customerID, fileName)
	return args.Get(0).(entity.StagingTarget), args.Error(1)
}

func (m *MockEnergyRepository) ProcessUpload(ctx context.Context, customerID, objectRef string) error {
	args := m.Called(ctx, customerID, objectRef)
	return args.Error(0)
}

func (m *MockEnergyRepository) Subscribe(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

func (m *MockEnergyRepository) Unsubscribe(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockEnergyRepository) SubscriptionStatus(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// MockStagingRepository is a mock implementation of repository.StagingRepository
type MockStagingRepository struct {
	mock.Mock
}

func (m *MockStagingRepository) Put(ctx context.Context, target entity.StagingTarget, data []byte, contentType string) error {
	args := m.Called(ctx, target, data, contentType)
	return args.Error(0)
}

// MockIdentityRepository is a mock implementation of repository.IdentityRepository
type MockIdentityRepository struct {
	mock.Mock
}

func (m *MockIdentityRepository) CurrentIdentity(ctx context.Context) (entity.Identity, error) {
	args := m.Called(ctx)
	return args.Get(0).(entity.Identity), args.Error(1)
}

// MockParser is a mock implementation of repository.TabularParser
type MockParser struct {
	mock.Mock
}

func (m *MockParser) Parse(data []byte) ([]string, []entity.ReadingRow, error) {
	args := m.Called(data)
	if args.Get(1) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]string), args.Get(1).([]entity.ReadingRow), args.Error(2)
}

// MockExportRepository is a mock implementation of repository.ExportRepository
type MockExportRepository struct {
	mock.Mock
}

func (m *MockExportRepository) ExportUsageToCSV(view *entity.DashboardView, filename, outputDir string) (string, error) {
	args := m.Called(view, filename, outputDir)
	return args.String(0), args.Error(1)
}

func (m *MockExportRepository) ExportUsageToJSON(view *entity.DashboardView, filename, outputDir string) (string, error) {
	args := m.Called(view, filename, outputDir)
	return args.String(0), args.Error(1)
}

func (m *MockExportRepository) ExportUsageToPDF(view *entity.DashboardView, filename, outputDir string) (string, error) {
	args := m.Called(view, filename, outputDir)
	return args.String(0), args.Error(1)
}

var testIdentity = entity.Identity{Email: "ana@example.com", Name: "Ana", Subject: "sub-1"}

func signedIn() *MockIdentityRepository {
	m := new(MockIdentityRepository)
	m.On("CurrentIdentity", mock.Anything).Return(testIdentity, nil)
	return m
}

func floatPtr(v float64) *float64 {
	return &v
}
