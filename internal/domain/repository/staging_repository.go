package repository

import (
	"context"

	"github.com/diillson/energy-usage-dashboard-go/internal/domain/entity"
)

// StagingRepository envia o arquivo bruto para o armazenamento temporário.
type StagingRepository interface {
	Put(ctx context.Context, target entity.StagingTarget, data []byte, contentType string) error
}
