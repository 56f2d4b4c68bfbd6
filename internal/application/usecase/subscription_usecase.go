package usecase

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/diillson/energy-usage-dashboard-go/internal/domain/entity"
	"github.com/diillson/energy-usage-dashboard-go/internal/domain/repository"
	"github.com/diillson/energy-usage-dashboard-go/internal/metrics"
	"github.com/diillson/energy-usage-dashboard-go/internal/shared/types"
)

// SubscriptionUseCase mantém o estado local da assinatura de alertas por e-mail.
type SubscriptionUseCase struct {
	energyRepo repository.EnergyRepository
	identity   repository.IdentityRepository
	log        zerolog.Logger

	mu       sync.Mutex
	state    entity.SubscriptionState
	toggling bool
	// generation avança no início e no fim de cada subscribe/unsubscribe;
	// consultas que cruzam uma mudança são descartadas.
	generation uint64
}

// NewSubscriptionUseCase creates a subscription manager in the Unknown state.
func NewSubscriptionUseCase(energyRepo repository.EnergyRepository, identity repository.IdentityRepository, log zerolog.Logger) *SubscriptionUseCase {
	return &SubscriptionUseCase{
		energyRepo: energyRepo,
		identity:   identity,
		log:        log.With().Str("usecase", "subscription").Logger(),
		state:      entity.SubscriptionState{Status: entity.SubscriptionUnknown},
	}
}

// State returns the locally cached subscription state.
func (uc *SubscriptionUseCase) State() entity.SubscriptionState {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.state
}

// CheckSubscription reconciles the local state with the server. Any failure is
// logged and reported as not subscribed. A reply that arrives after a
// subscribe or unsubscribe started is dropped and the local state is kept.
func (uc *SubscriptionUseCase) CheckSubscription(ctx context.Context) bool {
	uc.mu.Lock()
	gen := uc.generation
	uc.mu.Unlock()

	id, err := uc.identity.CurrentIdentity(ctx)
	if err != nil {
		uc.log.Warn().Err(err).Msg("cannot check subscription without identity")
		metrics.SubscriptionOperationsTotal.WithLabelValues("check", "error").Inc()
		return uc.applyCheck(gen, false)
	}

	subscribed, err := uc.energyRepo.SubscriptionStatus(ctx, id.Email)
	if err != nil {
		uc.log.Warn().Err(err).Str("email", id.Email).Msg("error checking subscription")
		metrics.SubscriptionOperationsTotal.WithLabelValues("check", "error").Inc()
		return uc.applyCheck(gen, false)
	}

	metrics.SubscriptionOperationsTotal.WithLabelValues("check", "ok").Inc()
	return uc.applyCheck(gen, subscribed)
}

// applyCheck grava o resultado de uma consulta se nenhuma mudança começou
// desde gen. Devolve o estado local resultante.
func (uc *SubscriptionUseCase) applyCheck(gen uint64, subscribed bool) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if uc.toggling || uc.generation != gen {
		uc.log.Debug().Bool("subscribed", subscribed).Msg("discarding stale subscription check")
		metrics.SubscriptionOperationsTotal.WithLabelValues("check", "stale").Inc()
		return uc.state.Subscribed()
	}

	if subscribed {
		// o handle não é devolvido pela consulta; preserva o que já conhecemos
		uc.state.Status = entity.SubscriptionSubscribed
	} else {
		uc.state = entity.SubscriptionState{Status: entity.SubscriptionUnsubscribed}
	}
	return subscribed
}

// Subscribe pede a assinatura. O estado só muda quando o serviço devolve um handle.
func (uc *SubscriptionUseCase) Subscribe(ctx context.Context) (string, error) {
	if err := uc.acquire(); err != nil {
		return "", err
	}
	defer uc.release()
	return uc.subscribe(ctx)
}

// Unsubscribe cancela a assinatura. Falhas remotas são apenas registradas: o
// estado local passa a Unsubscribed de qualquer forma.
func (uc *SubscriptionUseCase) Unsubscribe(ctx context.Context) error {
	if err := uc.acquire(); err != nil {
		return err
	}
	defer uc.release()
	uc.unsubscribe(ctx)
	return nil
}

// Toggle inverte a assinatura. Unknown é tratado como não assinado. Um segundo
// Toggle enquanto o primeiro roda devolve ErrToggleInProgress sem chamada remota.
func (uc *SubscriptionUseCase) Toggle(ctx context.Context) (entity.SubscriptionState, error) {
	if err := uc.acquire(); err != nil {
		return uc.State(), err
	}
	defer uc.release()

	if uc.State().Subscribed() {
		uc.unsubscribe(ctx)
		return uc.State(), nil
	}
	_, err := uc.subscribe(ctx)
	return uc.State(), err
}

func (uc *SubscriptionUseCase) subscribe(ctx context.Context) (string, error) {
	id, err := uc.identity.CurrentIdentity(ctx)
	if err != nil {
		metrics.SubscriptionOperationsTotal.WithLabelValues("subscribe", "error").Inc()
		return "", err
	}

	handle, err := uc.energyRepo.Subscribe(ctx, id.Email)
	if err != nil {
		uc.log.Error().Err(err).Str("email", id.Email).Msg("error subscribing to alerts")
		metrics.SubscriptionOperationsTotal.WithLabelValues("subscribe", "error").Inc()
		return "", types.AsTransport(err, "subscribe", "POST /energy/setup-sns")
	}
	if handle == "" {
		uc.log.Error().Str("email", id.Email).Msg("subscription returned no id")
		metrics.SubscriptionOperationsTotal.WithLabelValues("subscribe", "rejected").Inc()
		return "", types.ErrNoSubscriptionID
	}

	uc.setState(entity.SubscriptionSubscribed, handle)
	metrics.SubscriptionOperationsTotal.WithLabelValues("subscribe", "ok").Inc()
	uc.log.Info().Str("email", id.Email).Msg("subscribed to alerts")
	return handle, nil
}

func (uc *SubscriptionUseCase) unsubscribe(ctx context.Context) {
	defer uc.setState(entity.SubscriptionUnsubscribed, "")

	id, err := uc.identity.CurrentIdentity(ctx)
	if err != nil {
		uc.log.Warn().Err(err).Msg("cannot unsubscribe without identity")
		metrics.SubscriptionOperationsTotal.WithLabelValues("unsubscribe", "error").Inc()
		return
	}

	if err := uc.energyRepo.Unsubscribe(ctx, id.Email); err != nil {
		uc.log.Warn().Err(err).Str("email", id.Email).Msg("error unsubscribing from alerts")
		metrics.SubscriptionOperationsTotal.WithLabelValues("unsubscribe", "error").Inc()
		return
	}
	metrics.SubscriptionOperationsTotal.WithLabelValues("unsubscribe", "ok").Inc()
	uc.log.Info().Str("email", id.Email).Msg("unsubscribed from alerts")
}

func (uc *SubscriptionUseCase) acquire() error {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.toggling {
		return types.ErrToggleInProgress
	}
	uc.toggling = true
	uc.generation++
	return nil
}

func (uc *SubscriptionUseCase) release() {
	uc.mu.Lock()
	uc.toggling = false
	uc.generation++
	uc.mu.Unlock()
}

func (uc *SubscriptionUseCase) setState(status entity.SubscriptionStatus, handle string) {
	uc.mu.Lock()
	uc.state = entity.SubscriptionState{Status: status, Handle: handle}
	uc.mu.Unlock()
}
