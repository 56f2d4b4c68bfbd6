package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/diillson/energy-usage-dashboard-go/internal/domain/entity"
	"github.com/diillson/energy-usage-dashboard-go/internal/domain/repository"
	"github.com/diillson/energy-usage-dashboard-go/internal/shared/types"
)

// ReadingUseCase envia leituras diárias informadas manualmente.
type ReadingUseCase struct {
	energyRepo repository.EnergyRepository
	identity   repository.IdentityRepository
	log        zerolog.Logger
	now        func() time.Time
}

// NewReadingUseCase creates a new manual reading use case.
func NewReadingUseCase(energyRepo repository.EnergyRepository, identity repository.IdentityRepository, log zerolog.Logger) *ReadingUseCase {
	return &ReadingUseCase{
		energyRepo: energyRepo,
		identity:   identity,
		log:        log.With().Str("usecase", "reading").Logger(),
		now:        time.Now,
	}
}

// Submit validates and posts one reading. date must be YYYY-MM-DD and not after
// today; usage must be a non-negative number.
func (uc *ReadingUseCase) Submit(ctx context.Context, date string, usage float64) error {
	day, err := time.ParseInLocation(entity.DateLayout, strings.TrimSpace(date), time.Local)
	if err != nil {
		return &types.ValidationError{Field: "date", Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", date)}
	}
	if day.After(startOfDay(uc.now())) {
		return &types.ValidationError{
			Field:  "date",
			Reason: "you cannot submit usage data for a future date",
			Err:    types.ErrFutureDate,
		}
	}
	if usage < 0 || math.IsNaN(usage) || math.IsInf(usage, 0) {
		return &types.ValidationError{Field: "usage", Reason: "must be a non-negative number", Err: types.ErrNegativeValue}
	}

	id, err := uc.identity.CurrentIdentity(ctx)
	if err != nil {
		return fmt.Errorf("error resolving identity: %w", err)
	}

	if err := uc.energyRepo.SubmitReading(ctx, id.Email, day, usage); err != nil {
		uc.log.Error().Err(err).Str("date", date).Msg("error submitting reading")
		return types.AsTransport(err, "reading", "POST /energy/input")
	}

	uc.log.Info().Str("date", date).Float64("usage", usage).Msg("reading submitted")
	return nil
}
