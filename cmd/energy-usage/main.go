package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/diillson/energy-usage-dashboard-go/internal/adapter/driven/api"
	"github.com/diillson/energy-usage-dashboard-go/internal/adapter/driven/config"
	"github.com/diillson/energy-usage-dashboard-go/internal/adapter/driven/csvparser"
	"github.com/diillson/energy-usage-dashboard-go/internal/adapter/driven/export"
	"github.com/diillson/energy-usage-dashboard-go/internal/adapter/driven/identity"
	"github.com/diillson/energy-usage-dashboard-go/internal/adapter/driven/staging"
	"github.com/diillson/energy-usage-dashboard-go/internal/adapter/driving/cli"
	"github.com/diillson/energy-usage-dashboard-go/internal/application/usecase"
	"github.com/diillson/energy-usage-dashboard-go/internal/domain/analytics"
	"github.com/diillson/energy-usage-dashboard-go/internal/shared/types"
	"github.com/diillson/energy-usage-dashboard-go/pkg/console"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Inicializa o aplicativo CLI
	app := cli.NewCLIApp(config.NewConfigRepository(), console.NewConsole(), newServices)

	if err := app.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// newServices monta os repositórios e casos de uso a partir da configuração efetiva.
func newServices(ctx context.Context, cfg *types.Config, log zerolog.Logger) (*cli.Services, error) {
	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second

	provider, err := identity.NewProvider(ctx, cfg.Identity)
	if err != nil {
		return nil, err
	}

	energyRepo := api.NewEnergyRepository(cfg.APIBaseURL, provider.TokenSource(), timeout, log)

	stagingRepo, err := staging.NewStagingRepository(ctx, cfg.Staging, timeout, log)
	if err != nil {
		return nil, err
	}

	quarters := analytics.QuarterOneBased
	if cfg.LegacyQuarterLabels {
		quarters = analytics.QuarterLegacy
	}

	return &cli.Services{
		Dashboard: usecase.NewDashboardUseCase(energyRepo, export.NewExportRepository(), provider, log,
			usecase.WithQuarterPolicy(quarters)),
		Ingestion: usecase.NewIngestionUseCase(energyRepo, stagingRepo, provider, csvparser.NewCSVParser(), log,
			usecase.WithPreviewRows(cfg.PreviewRows)),
		Subscription: usecase.NewSubscriptionUseCase(energyRepo, provider, log),
		Readings:     usecase.NewReadingUseCase(energyRepo, provider, log),
		Thresholds:   usecase.NewThresholdUseCase(energyRepo, provider, log),
	}, nil
}
