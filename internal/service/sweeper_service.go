package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ntokareva/groupbuy-backend/internal/logger"
	"github.com/ntokareva/groupbuy-backend/internal/models"
)

// SweeperCartRepository описывает запросы сборщика к закупкам.
type SweeperCartRepository interface {
	ListSweepable(ctx context.Context, now time.Time) ([]models.Cart, error)
	ListProgress(ctx context.Context, cartID uuid.UUID) ([]models.Progress, error)
	Close(ctx context.Context, cartID uuid.UUID) error
}

// SweeperService закрывает закупки с истёкшей датой закрытия, у которых все
// участия достигли конечного статуса. Записи участия сборщик не меняет.
// Проход не хранит состояния и безопасен при перезапусках и наложениях.
type SweeperService struct {
	carts    SweeperCartRepository
	interval time.Duration
}

// NewSweeperService создаёт новый сервис.
func NewSweeperService(carts SweeperCartRepository, interval time.Duration) *SweeperService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &SweeperService{carts: carts, interval: interval}
}

// Run запускает периодический проход до отмены контекста.
func (s *SweeperService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx, time.Now()); err != nil {
				logger.Log.WithField("error", err.Error()).Error("ошибка прохода закрытия закупок")
			}
		}
	}
}

// SweepOnce выполняет один проход и возвращает число закрытых закупок.
func (s *SweeperService) SweepOnce(ctx context.Context, now time.Time) (int, error) {
	carts, err := s.carts.ListSweepable(ctx, now)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, cart := range carts {
		progress, err := s.carts.ListProgress(ctx, cart.ID)
		if err != nil {
			logger.Log.WithFields(logrus.Fields{
				"cart_id": cart.ID,
				"error":   err.Error(),
			}).Error("не удалось получить участия закупки")
			continue
		}

		allTerminal := true
		for _, p := range progress {
			if !p.Status.IsTerminal() {
				allTerminal = false
				break
			}
		}
		if !allTerminal {
			continue
		}

		if err := s.carts.Close(ctx, cart.ID); err != nil {
			logger.Log.WithFields(logrus.Fields{
				"cart_id": cart.ID,
				"error":   err.Error(),
			}).Error("не удалось закрыть закупку")
			continue
		}
		closed++
	}

	return closed, nil
}
