package repository

import (
	"github.com/diillson/energy-usage-dashboard-go/internal/shared/types"
)

// ConfigRepository defines the interface for loading configuration files.
type ConfigRepository interface {
	LoadConfigFile(filePath string) (*types.Config, error)
	LoadEnv(envFile string) (*types.Config, error)
}
