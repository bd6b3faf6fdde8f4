package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"chat-llm/internal/domain"
	"chat-llm/internal/repository"
)

// QuotaTracker decide si un usuario puede enviar otro mensaje hoy y cobra el
// cupo en la misma operación.
type QuotaTracker interface {
	CheckAndCharge(ctx context.Context, user domain.User) (bool, error)
}

// DailyQuotaTracker aplica el cupo diario del tier free delegando el
// incremento acotado al storage: el UPDATE condicional del repositorio hace
// chequeo e incremento en un solo paso, así dos requests concurrentes del
// mismo usuario nunca pasan ambos el tope.
type DailyQuotaTracker struct {
	logger     *zap.Logger
	users      repository.UserRepository
	dailyLimit int
	now        func() time.Time
}

func NewDailyQuotaTracker(logger *zap.Logger, users repository.UserRepository, dailyLimit int) *DailyQuotaTracker {
	if dailyLimit <= 0 {
		dailyLimit = 5
	}
	return &DailyQuotaTracker{
		logger:     logger,
		users:      users,
		dailyLimit: dailyLimit,
		now:        time.Now,
	}
}

// CheckAndCharge devuelve false sin error cuando el usuario free ya agotó su
// cupo del día. Tiers que no son free no llevan contador. El día calendario
// es local al tracker; si la última fecha registrada no es hoy el contador
// arranca de nuevo en 1 dentro del mismo UPDATE (reset perezoso).
func (t *DailyQuotaTracker) CheckAndCharge(ctx context.Context, user domain.User) (bool, error) {
	if user.Tier != domain.TierFree {
		return true, nil
	}

	count, err := t.users.ConsumeDailyQuota(ctx, user.ID, t.now(), t.dailyLimit)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if t.logger != nil {
		t.logger.Debug("quota charged",
			zap.String("user_id", user.ID),
			zap.Int("message_count", count),
			zap.Int("daily_limit", t.dailyLimit),
		)
	}
	return true, nil
}
