package usecase

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/diillson/energy-usage-dashboard-go/internal/domain/analytics"
	"github.com/diillson/energy-usage-dashboard-go/internal/domain/repository"
	"github.com/diillson/energy-usage-dashboard-go/internal/shared/types"
)

// ThresholdUseCase consulta, recomenda e atualiza o limite de alerta.
type ThresholdUseCase struct {
	energyRepo repository.EnergyRepository
	identity   repository.IdentityRepository
	log        zerolog.Logger
}

func NewThresholdUseCase(energyRepo repository.EnergyRepository, identity repository.IdentityRepository, log zerolog.Logger) *ThresholdUseCase {
	return &ThresholdUseCase{
		energyRepo: energyRepo,
		identity:   identity,
		log:        log.With().Str("usecase", "threshold").Logger(),
	}
}

// Recommend busca todo o histórico e devolve round(média * 1.2).
func (uc *ThresholdUseCase) Recommend(ctx context.Context) (int, error) {
	id, err := uc.identity.CurrentIdentity(ctx)
	if err != nil {
		return 0, fmt.Errorf("error resolving identity: %w", err)
	}

	history, err := uc.energyRepo.GetHistory(ctx, id.Email, nil, nil)
	if err != nil {
		uc.log.Error().Err(err).Msg("error fetching usage history")
		return 0, types.AsTransport(err, "history", "GET /energy/history")
	}

	return analytics.RecommendFromUsage(history), nil
}

// Current returns the stored threshold, or nil when none is set.
func (uc *ThresholdUseCase) Current(ctx context.Context) (*float64, error) {
	id, err := uc.identity.CurrentIdentity(ctx)
	if err != nil {
		return nil, fmt.Errorf("error resolving identity: %w", err)
	}

	threshold, err := uc.energyRepo.GetThreshold(ctx, id.Email)
	if err != nil {
		return nil, types.AsTransport(err, "threshold", "GET /energy/current-threshold")
	}
	return threshold, nil
}

// Set grava o novo limite e relê o valor armazenado.
func (uc *ThresholdUseCase) Set(ctx context.Context, value float64) (*float64, error) {
	if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, &types.ValidationError{Field: "threshold", Reason: "must be a non-negative number", Err: types.ErrNegativeValue}
	}

	id, err := uc.identity.CurrentIdentity(ctx)
	if err != nil {
		return nil, fmt.Errorf("error resolving identity: %w", err)
	}

	if err := uc.energyRepo.UpdateThreshold(ctx, id.Email, value); err != nil {
		uc.log.Error().Err(err).Float64("threshold", value).Msg("error updating threshold")
		return nil, types.AsTransport(err, "threshold", "POST /energy/alerts")
	}
	uc.log.Info().Float64("threshold", value).Msg("threshold updated")

	return uc.Current(ctx)
}
