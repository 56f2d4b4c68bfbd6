package repository

import (
	"context"
	"time"

	"github.com/diillson/energy-usage-dashboard-go/internal/domain/entity"
)

// EnergyRepository defines the interface for the remote energy usage API.
// Every call is authenticated with the customer's bearer token.
type EnergyRepository interface {
	// Usage & Cost
	GetHistory(ctx context.Context, customerID string, start, end *time.Time) ([]entity.UsageSample, error)
	GetCosts(ctx context.Context, customerID string, start, end *time.Time) ([]entity.CostSample, error)
	SubmitReading(ctx context.Context, customerID string, date time.Time, usage float64) error

	// Threshold
	GetThreshold(ctx context.Context, customerID string) (*float64, error)
	UpdateThreshold(ctx context.Context, customerID string, threshold float64) error

	// Bulk upload
	GetPresignedUpload(ctx context.Context, customerID, fileName string) (entity.StagingTarget, error)
	ProcessUpload(ctx context.Context, customerID, objectRef string) error

	// Alert notifications
	Subscribe(ctx context.Context, email string) (string, error)
	Unsubscribe(ctx context.Context, email string) error
	SubscriptionStatus(ctx context.Context, email string) (bool, error)
}
