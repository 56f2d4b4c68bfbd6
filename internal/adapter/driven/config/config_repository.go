package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"

	"github.com/diillson/energy-usage-dashboard-go/internal/domain/repository"
	"github.com/diillson/energy-usage-dashboard-go/internal/shared/types"
)

// DefaultEnvFile é lido quando nenhum arquivo .env é informado; a ausência dele não é erro.
const DefaultEnvFile = ".env"

// ConfigRepositoryImpl implementa o ConfigRepository.
type ConfigRepositoryImpl struct{}

// NewConfigRepository cria uma nova implementação do ConfigRepository.
func NewConfigRepository() repository.ConfigRepository {
	return &ConfigRepositoryImpl{}
}

// LoadConfigFile carrega um arquivo de configuração TOML, YAML ou JSON.
func (r *ConfigRepositoryImpl) LoadConfigFile(filePath string) (*types.Config, error) {
	fileExtension := strings.ToLower(filepath.Ext(filePath))

	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("error accessing config file: %w", err)
	}
	if fileInfo.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not a file", filePath)
	}

	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config types.Config

	switch fileExtension {
	case ".toml":
		if err := toml.Unmarshal(fileData, &config); err != nil {
			return nil, fmt.Errorf("error parsing TOML file: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(fileData, &config); err != nil {
			return nil, fmt.Errorf("error parsing YAML file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(fileData, &config); err != nil {
			return nil, fmt.Errorf("error parsing JSON file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", fileExtension)
	}

	return &config, nil
}

// LoadEnv lê o arquivo .env (sem sobrescrever variáveis já exportadas) e monta
// uma Config parcial a partir das variáveis ENERGY_*. Campos ausentes ficam vazios
// para que Config.Merge os ignore.
func (r *ConfigRepositoryImpl) LoadEnv(envFile string) (*types.Config, error) {
	file := envFile
	if file == "" {
		file = DefaultEnvFile
	}
	if err := godotenv.Load(file); err != nil {
		if envFile != "" || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error loading env file %s: %w", file, err)
		}
	}

	cfg := &types.Config{
		APIBaseURL:    os.Getenv("ENERGY_API_URL"),
		DefaultPeriod: os.Getenv("ENERGY_DEFAULT_PERIOD"),
		ReportDir:     os.Getenv("ENERGY_REPORT_DIR"),
		Identity: types.IdentityConfig{
			Mode:         os.Getenv("ENERGY_IDENTITY_MODE"),
			IDToken:      os.Getenv("ENERGY_ID_TOKEN"),
			Issuer:       os.Getenv("ENERGY_OIDC_ISSUER"),
			ClientID:     os.Getenv("ENERGY_CLIENT_ID"),
			ClientSecret: os.Getenv("ENERGY_CLIENT_SECRET"),
			TokenURL:     os.Getenv("ENERGY_TOKEN_URL"),
			RefreshToken: os.Getenv("ENERGY_REFRESH_TOKEN"),
		},
		Staging: types.StagingConfig{
			Mode:        os.Getenv("ENERGY_STAGING_MODE"),
			Profile:     os.Getenv("ENERGY_AWS_PROFILE"),
			Region:      os.Getenv("ENERGY_AWS_REGION"),
			Endpoint:    os.Getenv("ENERGY_S3_ENDPOINT"),
			AccessKeyID: os.Getenv("ENERGY_AWS_ACCESS_KEY_ID"),
			SecretKey:   os.Getenv("ENERGY_AWS_SECRET_ACCESS_KEY"),
		},
	}

	var err error
	if cfg.RequestTimeoutSeconds, err = getEnvAsInt("ENERGY_REQUEST_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.PreviewRows, err = getEnvAsInt("ENERGY_PREVIEW_ROWS"); err != nil {
		return nil, err
	}
	if cfg.LegacyQuarterLabels, err = getEnvAsBool("ENERGY_LEGACY_QUARTER_LABELS"); err != nil {
		return nil, err
	}
	if cfg.Staging.UsePathStyle, err = getEnvAsBool("ENERGY_S3_PATH_STYLE"); err != nil {
		return nil, err
	}
	if v := os.Getenv("ENERGY_REPORT_TYPE"); v != "" {
		cfg.ReportType = strings.Split(v, ",")
	}

	return cfg, nil
}

func getEnvAsInt(key string) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", key, value, err)
	}
	return n, nil
}

func getEnvAsBool(key string) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s=%q: %w", key, value, err)
	}
	return b, nil
}
