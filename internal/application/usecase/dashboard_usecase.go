package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/diillson/energy-usage-dashboard-go/internal/domain/analytics"
	"github.com/diillson/energy-usage-dashboard-go/internal/domain/entity"
	"github.com/diillson/energy-usage-dashboard-go/internal/domain/repository"
	"github.com/diillson/energy-usage-dashboard-go/internal/metrics"
	"github.com/diillson/energy-usage-dashboard-go/internal/shared/types"
)

// Avisos exibidos quando uma busca secundária falha.
const (
	WarningThreshold = "Failed to fetch threshold data"
	WarningCosts     = "Failed to fetch cost data"
)

// DashboardUseCase handles the main dashboard functionality.
type DashboardUseCase struct {
	energyRepo repository.EnergyRepository
	exportRepo repository.ExportRepository
	identity   repository.IdentityRepository
	log        zerolog.Logger
	quarters   analytics.QuarterPolicy
	now        func() time.Time

	generation atomic.Uint64
	thresholds singleflight.Group

	mu      sync.RWMutex
	current *entity.DashboardView
}

// DashboardOption configura o DashboardUseCase.
type DashboardOption func(*DashboardUseCase)

// WithQuarterPolicy define os rótulos trimestrais usados na agregação.
func WithQuarterPolicy(p analytics.QuarterPolicy) DashboardOption {
	return func(uc *DashboardUseCase) {
		uc.quarters = p
	}
}

// WithDashboardClock substitui o relógio (usado em GeneratedAt e no intervalo padrão).
func WithDashboardClock(now func() time.Time) DashboardOption {
	return func(uc *DashboardUseCase) {
		uc.now = now
	}
}

// NewDashboardUseCase creates a new dashboard use case.
func NewDashboardUseCase(
	energyRepo repository.EnergyRepository,
	exportRepo repository.ExportRepository,
	identity repository.IdentityRepository,
	log zerolog.Logger,
	opts ...DashboardOption,
) *DashboardUseCase {
	uc := &DashboardUseCase{
		energyRepo: energyRepo,
		exportRepo: exportRepo,
		identity:   identity,
		log:        log.With().Str("usecase", "dashboard").Logger(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// DefaultQuery devolve o mês corrente com a granularidade informada.
func (uc *DashboardUseCase) DefaultQuery(g entity.Granularity) entity.DashboardQuery {
	return entity.CurrentMonthQuery(uc.now(), g)
}

// Current returns the last published view, or nil.
func (uc *DashboardUseCase) Current() *entity.DashboardView {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.current
}

// Refresh fetches threshold, history and costs (in that order), aggregates them
// and publishes the view. A response whose generation was overtaken by a newer
// Refresh is discarded with ErrStaleResponse.
func (uc *DashboardUseCase) Refresh(ctx context.Context, q entity.DashboardQuery) (*entity.DashboardView, error) {
	g, err := entity.ParseGranularity(string(q.Granularity))
	if err != nil {
		return nil, &types.ValidationError{Field: "period", Reason: err.Error()}
	}
	if q.End.Before(q.Start) {
		return nil, &types.ValidationError{Field: "date range", Reason: types.ErrInvalidRange.Error(), Err: types.ErrInvalidRange}
	}

	gen := uc.generation.Add(1)
	logger := uc.log.With().Uint64("generation", gen).Str("period", string(g)).Logger()

	id, err := uc.identity.CurrentIdentity(ctx)
	if err != nil {
		metrics.DashboardRefreshesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("error resolving identity: %w", err)
	}

	var warnings []string

	threshold, err := uc.fetchThreshold(ctx, id.Email)
	if err != nil {
		logger.Warn().Err(err).Msg("error fetching threshold")
		warnings = append(warnings, WarningThreshold)
		threshold = nil
	}

	start, end := q.Start, q.End
	history, err := uc.energyRepo.GetHistory(ctx, id.Email, &start, &end)
	if err != nil {
		metrics.DashboardRefreshesTotal.WithLabelValues("error").Inc()
		logger.Error().Err(err).Msg("error fetching usage history")
		return nil, types.AsTransport(err, "history", "GET /energy/history")
	}

	costs, err := uc.energyRepo.GetCosts(ctx, id.Email, &start, &end)
	if err != nil {
		logger.Warn().Err(err).Msg("error fetching costs")
		warnings = append(warnings, WarningCosts)
		costs = nil
	}

	if gen != uc.generation.Load() {
		metrics.DashboardRefreshesTotal.WithLabelValues("stale").Inc()
		logger.Debug().Msg("discarding stale response")
		return nil, types.ErrStaleResponse
	}

	usage, err := analytics.Aggregate(entity.UsageToSamples(history), g, analytics.WithQuarterPolicy(uc.quarters))
	if err != nil {
		metrics.DashboardRefreshesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("error aggregating usage: %w", err)
	}

	costPoints, err := analytics.AggregateCosts(costs, g, analytics.WithQuarterPolicy(uc.quarters))
	if err != nil {
		logger.Warn().Err(err).Msg("error aggregating costs")
		warnings = append(warnings, WarningCosts)
		costPoints = nil
	}

	view := &entity.DashboardView{
		Generation:  gen,
		Customer:    id.Email,
		Start:       q.Start.Format(entity.DateLayout),
		End:         q.End.Format(entity.DateLayout),
		Granularity: g,
		Usage:       analytics.Enrich(usage, threshold),
		Costs:       costPoints,
		Estimated:   estimatedMonths(costs),
		Threshold:   threshold,
		TotalUsage:  analytics.Total(usage),
		TotalCost:   analytics.Total(costPoints),
		Warnings:    warnings,
		GeneratedAt: uc.now(),
	}
	if threshold != nil {
		view.Breaches = analytics.Breaches(history, *threshold)
	}

	uc.mu.Lock()
	if gen != uc.generation.Load() || (uc.current != nil && uc.current.Generation > gen) {
		uc.mu.Unlock()
		metrics.DashboardRefreshesTotal.WithLabelValues("stale").Inc()
		return nil, types.ErrStaleResponse
	}
	uc.current = view
	uc.mu.Unlock()

	metrics.DashboardRefreshesTotal.WithLabelValues("published").Inc()
	logger.Debug().Int("points", len(view.Usage)).Int("warnings", len(warnings)).Msg("dashboard published")
	return view, nil
}

// fetchThreshold colapsa buscas concorrentes do mesmo cliente em uma chamada.
// A chamada compartilhada não herda o cancelamento de quem a iniciou (o prazo
// fica com o timeout do adapter); cada chamador desiste só pelo próprio ctx.
func (uc *DashboardUseCase) fetchThreshold(ctx context.Context, customerID string) (*float64, error) {
	shared := context.WithoutCancel(ctx)
	ch := uc.thresholds.DoChan(customerID, func() (interface{}, error) {
		return uc.energyRepo.GetThreshold(shared, customerID)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	threshold, _ := res.Val.(*float64)
	if threshold == nil {
		return nil, nil
	}
	cp := *threshold
	return &cp, nil
}

// Export grava o relatório nos formatos pedidos (csv, json, pdf) e devolve o
// caminho de cada arquivo gerado. Formatos com erro são reunidos no erro final.
func (uc *DashboardUseCase) Export(view *entity.DashboardView, formats []string, name, dir string) (map[string]string, error) {
	if view == nil {
		return nil, fmt.Errorf("%w: no dashboard data to export", types.ErrInvalidState)
	}

	paths := make(map[string]string, len(formats))
	var errs []error

	for _, format := range formats {
		format = strings.ToLower(strings.TrimSpace(format))

		var (
			path string
			err  error
		)
		switch format {
		case "csv":
			path, err = uc.exportRepo.ExportUsageToCSV(view, name, dir)
		case "json":
			path, err = uc.exportRepo.ExportUsageToJSON(view, name, dir)
		case "pdf":
			path, err = uc.exportRepo.ExportUsageToPDF(view, name, dir)
		default:
			err = fmt.Errorf("unsupported report type %q", format)
		}

		if err != nil {
			uc.log.Error().Err(err).Str("format", format).Msg("error exporting report")
			errs = append(errs, fmt.Errorf("%s: %w", format, err))
			continue
		}
		paths[format] = path
	}

	return paths, errors.Join(errs...)
}

func estimatedMonths(costs []entity.CostSample) []string {
	var months []string
	for _, c := range costs {
		if c.Estimated {
			months = append(months, c.Month)
		}
	}
	return months
}
