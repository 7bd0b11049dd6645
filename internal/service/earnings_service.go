package service

import (
	"context"

	"github.com/google/uuid"
)

// EarningsOrderRepository описывает запросы к заказам для пересчёта.
type EarningsOrderRepository interface {
	SumSettled(ctx context.Context, sellerID uuid.UUID) (float64, error)
}

// EarningsUserRepository описывает запись заработка в профиль.
type EarningsUserRepository interface {
	SetEarnings(ctx context.Context, userID uuid.UUID, earnings float64) error
}

// EarningsService пересчитывает заработок организатора. Значение — чистая
// функция сохранённых данных, поэтому пересчёт можно запускать сколько
// угодно раз, в том числе конкурентно.
type EarningsService struct {
	orders EarningsOrderRepository
	users  EarningsUserRepository
}

// NewEarningsService создаёт новый сервис.
func NewEarningsService(orders EarningsOrderRepository, users EarningsUserRepository) *EarningsService {
	return &EarningsService{orders: orders, users: users}
}

// Recompute полностью пересчитывает заработок: учитываются только пары с
// обоюдным подтверждением расчёта, цена пересчитывается по курсу закупки.
func (s *EarningsService) Recompute(ctx context.Context, sellerID uuid.UUID) (float64, error) {
	total, err := s.orders.SumSettled(ctx, sellerID)
	if err != nil {
		return 0, err
	}

	if err := s.users.SetEarnings(ctx, sellerID, total); err != nil {
		return 0, err
	}

	return total, nil
}
