package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/diillson/energy-usage-dashboard-go/internal/application/usecase"
	"github.com/diillson/energy-usage-dashboard-go/internal/domain/repository"
	"github.com/diillson/energy-usage-dashboard-go/internal/metrics"
	"github.com/diillson/energy-usage-dashboard-go/internal/shared/types"
	"github.com/diillson/energy-usage-dashboard-go/pkg/version"
)

// Services agrupa os casos de uso usados pelos comandos.
type Services struct {
	Dashboard    *usecase.DashboardUseCase
	Ingestion    *usecase.IngestionUseCase
	Subscription *usecase.SubscriptionUseCase
	Readings     *usecase.ReadingUseCase
	Thresholds   *usecase.ThresholdUseCase
}

// ServiceFactory builds the use cases once the effective configuration is known.
type ServiceFactory func(ctx context.Context, cfg *types.Config, log zerolog.Logger) (*Services, error)

// annotationNoServices marca comandos que não precisam de configuração nem da API.
const annotationNoServices = "no-services"

// CLIApp represents the command-line interface application.
type CLIApp struct {
	rootCmd    *cobra.Command
	configRepo repository.ConfigRepository
	console    types.ConsoleInterface
	factory    ServiceFactory

	global   types.GlobalArgs
	cfg      *types.Config
	services *Services
	log      zerolog.Logger
}

// NewCLIApp cria uma nova aplicação CLI.
func NewCLIApp(configRepo repository.ConfigRepository, console types.ConsoleInterface, factory ServiceFactory) *CLIApp {
	app := &CLIApp{
		configRepo: configRepo,
		console:    console,
		factory:    factory,
		log:        zerolog.Nop(),
	}

	rootCmd := &cobra.Command{
		Use:               "energy-usage",
		Short:             "Energy Usage Dashboard CLI",
		Version:           version.FormatVersion(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: app.setup,
	}

	rootCmd.SetVersionTemplate(`{{printf "Energy Usage Dashboard version: %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringVarP(&app.global.ConfigFile, "config-file", "C", "", "Path to a TOML, YAML, or JSON configuration file")
	rootCmd.PersistentFlags().StringVar(&app.global.APIBaseURL, "api-url", "", "Base URL of the energy API (overrides config and ENERGY_API_URL)")
	rootCmd.PersistentFlags().BoolVarP(&app.global.Verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&app.global.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")

	rootCmd.AddCommand(
		app.newDashboardCmd(),
		app.newSubmitCmd(),
		app.newUploadCmd(),
		app.newThresholdCmd(),
		app.newAlertsCmd(),
		app.newVersionCmd(),
	)

	app.rootCmd = rootCmd
	return app
}

// Execute runs the CLI application.
func (app *CLIApp) Execute() error {
	return app.ExecuteContext(context.Background())
}

// ExecuteContext runs the CLI with ctx. Metrics are flushed even when the
// command fails.
func (app *CLIApp) ExecuteContext(ctx context.Context) error {
	err := app.rootCmd.ExecuteContext(ctx)
	if ferr := app.flushMetrics(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}

// SetArgs substitui os argumentos de linha de comando (usado em testes).
func (app *CLIApp) SetArgs(args []string) {
	app.rootCmd.SetArgs(args)
}

// setup configura logging, carrega a configuração (padrão < .env/ENERGY_* <
// arquivo < flags) e monta os casos de uso.
func (app *CLIApp) setup(cmd *cobra.Command, _ []string) error {
	app.log = newLogger(app.global.Verbose)

	if cmd.Annotations[annotationNoServices] == "true" {
		return nil
	}

	cfg, err := app.loadConfig()
	if err != nil {
		return err
	}
	app.cfg = cfg

	services, err := app.factory(cmd.Context(), cfg, app.log)
	if err != nil {
		return fmt.Errorf("error initializing services: %w", err)
	}
	app.services = services
	return nil
}

func (app *CLIApp) loadConfig() (*types.Config, error) {
	cfg := types.DefaultConfig()

	envCfg, err := app.configRepo.LoadEnv("")
	if err != nil {
		return nil, err
	}
	cfg.Merge(envCfg)

	if app.global.ConfigFile != "" {
		fileCfg, err := app.configRepo.LoadConfigFile(app.global.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg.Merge(fileCfg)
		app.log.Debug().Str("file", app.global.ConfigFile).Msg("config file loaded")
	}

	if app.global.APIBaseURL != "" {
		cfg.APIBaseURL = app.global.APIBaseURL
	}

	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("API base URL is not configured: use --api-url, api_base_url or ENERGY_API_URL")
	}
	return cfg, nil
}

func (app *CLIApp) flushMetrics() error {
	if app.global.MetricsFile == "" {
		return nil
	}
	if err := metrics.WriteTextfile(app.global.MetricsFile); err != nil {
		return err
	}
	app.log.Debug().Str("file", app.global.MetricsFile).Msg("metrics written")
	return nil
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func (app *CLIApp) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Annotations: map[string]string{annotationNoServices: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			displayWelcomeBanner()
			checkLatestVersion(cmd.Context(), app.console)
			return nil
		},
	}
}
