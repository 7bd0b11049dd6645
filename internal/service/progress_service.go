package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ntokareva/groupbuy-backend/internal/domain/valueobject"
	"github.com/ntokareva/groupbuy-backend/internal/logger"
	"github.com/ntokareva/groupbuy-backend/internal/models"
	"github.com/ntokareva/groupbuy-backend/internal/pkg/apperror"
	"github.com/ntokareva/groupbuy-backend/internal/repository"
)

// ProgressStore описывает хранилище закупок и записей участия.
type ProgressStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Cart, error)
	GetProgress(ctx context.Context, cartID, buyerID uuid.UUID) (*models.Progress, error)
	ListProgress(ctx context.Context, cartID uuid.UUID) ([]models.Progress, error)
	ApplyTransition(ctx context.Context, cartID, buyerID uuid.UUID, expected valueobject.ProgressStatus, upd repository.ProgressUpdate) (*models.Progress, error)
	MarkFinished(ctx context.Context, cartID uuid.UUID) error
}

// OrderStatusSyncer зеркалирует статус участия в заказы покупателя.
type OrderStatusSyncer interface {
	SyncStatus(ctx context.Context, cartID, buyerID uuid.UUID, status valueobject.ProgressStatus) error
}

// Notifier описывает диспетчер уведомлений.
type Notifier interface {
	Dispatch(ctx context.Context, userID uuid.UUID, senderID *uuid.UUID, ntype, title, body string, payload map[string]any) (*models.Notification, error)
}

// EarningsRecomputer пересчитывает заработок организатора.
type EarningsRecomputer interface {
	Recompute(ctx context.Context, sellerID uuid.UUID) (float64, error)
}

// ProgressService валидирует и применяет переходы статусов участия.
// Запись обновляется условно: если между чтением и записью статус изменился,
// переход перечитывается, перепроверяется и повторяется один раз.
type ProgressService struct {
	carts    ProgressStore
	orders   OrderStatusSyncer
	notifier Notifier
	earnings EarningsRecomputer
}

// NewProgressService создаёт новый сервис.
func NewProgressService(carts ProgressStore, orders OrderStatusSyncer, notifier Notifier, earnings EarningsRecomputer) *ProgressService {
	return &ProgressService{
		carts:    carts,
		orders:   orders,
		notifier: notifier,
		earnings: earnings,
	}
}

// buildUpdate проверяет переход для текущего состояния записи и собирает
// изменения. Вызывается повторно после проигрыша гонки.
type buildUpdate func(current *models.Progress) (repository.ProgressUpdate, error)

// SubmitPaymentProof прикладывает подтверждение оплаты. Повторная отправка
// замещает прежнее неподтверждённое доказательство и снимает отметку об отказе.
func (s *ProgressService) SubmitPaymentProof(ctx context.Context, cartID, buyerID, callerID uuid.UUID, proofRef string) (*models.Progress, error) {
	if proofRef == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "ссылка на подтверждение оплаты обязательна")
	}

	cart, progress, err := s.load(ctx, cartID, buyerID)
	if err != nil {
		return nil, err
	}
	if progress.BuyerID != callerID {
		return nil, apperror.ErrForbidden
	}

	rejected := false
	updated, err := s.transition(ctx, cartID, buyerID, progress, func(current *models.Progress) (repository.ProgressUpdate, error) {
		switch current.Status {
		case valueobject.ProgressStatusPlaced, valueobject.ProgressStatusInProgress:
		default:
			return repository.ProgressUpdate{}, apperror.NewInvalidTransition(string(current.Status), string(valueobject.ProgressStatusInProgress))
		}
		return repository.ProgressUpdate{
			Status:          valueobject.ProgressStatusInProgress,
			PaymentProof:    &proofRef,
			PaymentRejected: &rejected,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, cart, updated)
	s.notify(ctx, cart.SellerID, &buyerID, models.NotificationTypePaymentProof,
		"Получено подтверждение оплаты",
		"Покупатель приложил подтверждение оплаты заказа",
		transitionPayload(cart.ID, buyerID, updated.Status))

	return updated, nil
}

// Accept подтверждает оплату и принимает заказ покупателя в работу.
func (s *ProgressService) Accept(ctx context.Context, cartID, buyerID, callerID uuid.UUID) (*models.Progress, error) {
	cart, progress, err := s.load(ctx, cartID, buyerID)
	if err != nil {
		return nil, err
	}
	if cart.SellerID != callerID {
		return nil, apperror.ErrForbidden
	}

	confirmed := true
	updated, err := s.transition(ctx, cartID, buyerID, progress, func(current *models.Progress) (repository.ProgressUpdate, error) {
		if !current.Status.CanTransitionTo(valueobject.ProgressStatusAccepted) {
			return repository.ProgressUpdate{}, apperror.NewInvalidTransition(string(current.Status), string(valueobject.ProgressStatusAccepted))
		}
		if current.PaymentProof == nil {
			return repository.ProgressUpdate{}, apperror.New(apperror.ErrCodeBadRequest, "нет подтверждения оплаты")
		}
		return repository.ProgressUpdate{
			Status:           valueobject.ProgressStatusAccepted,
			PaymentConfirmed: &confirmed,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, cart, updated)
	s.notify(ctx, buyerID, &cart.SellerID, models.NotificationTypeStatusChange,
		"Оплата подтверждена",
		"Организатор подтвердил оплату и принял заказ",
		transitionPayload(cart.ID, buyerID, updated.Status))

	return updated, nil
}

// RejectProof отклоняет подтверждение оплаты. Статус не меняется: покупатель
// может приложить новое доказательство без штрафа для заказа.
func (s *ProgressService) RejectProof(ctx context.Context, cartID, buyerID, callerID uuid.UUID) (*models.Progress, error) {
	cart, progress, err := s.load(ctx, cartID, buyerID)
	if err != nil {
		return nil, err
	}
	if cart.SellerID != callerID {
		return nil, apperror.ErrForbidden
	}

	rejected := true
	updated, err := s.transition(ctx, cartID, buyerID, progress, func(current *models.Progress) (repository.ProgressUpdate, error) {
		if current.Status.IsTerminal() {
			return repository.ProgressUpdate{}, apperror.NewInvalidTransition(string(current.Status), string(current.Status))
		}
		if current.PaymentProof == nil {
			return repository.ProgressUpdate{}, apperror.New(apperror.ErrCodeBadRequest, "нет подтверждения оплаты")
		}
		return repository.ProgressUpdate{
			Status:          current.Status,
			PaymentRejected: &rejected,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, buyerID, &cart.SellerID, models.NotificationTypePaymentProof,
		"Подтверждение оплаты отклонено",
		"Организатор отклонил подтверждение оплаты, приложите новое",
		transitionPayload(cart.ID, buyerID, updated.Status))

	return updated, nil
}

// Ship отмечает отправку выкупленных заказов покупателю.
func (s *ProgressService) Ship(ctx context.Context, cartID, buyerID, callerID uuid.UUID) (*models.Progress, error) {
	return s.sellerStep(ctx, cartID, buyerID, callerID, valueobject.ProgressStatusShipped,
		"Заказ отправлен", "Организатор отправил ваш заказ")
}

// MarkDelivered отмечает доставку заказов покупателю.
func (s *ProgressService) MarkDelivered(ctx context.Context, cartID, buyerID, callerID uuid.UUID) (*models.Progress, error) {
	return s.sellerStep(ctx, cartID, buyerID, callerID, valueobject.ProgressStatusDelivered,
		"Заказ доставлен", "Организатор отметил доставку, подтвердите получение")
}

// sellerStep применяет прямолинейный переход организатора.
func (s *ProgressService) sellerStep(ctx context.Context, cartID, buyerID, callerID uuid.UUID, target valueobject.ProgressStatus, title, body string) (*models.Progress, error) {
	cart, progress, err := s.load(ctx, cartID, buyerID)
	if err != nil {
		return nil, err
	}
	if cart.SellerID != callerID {
		return nil, apperror.ErrForbidden
	}

	updated, err := s.transition(ctx, cartID, buyerID, progress, func(current *models.Progress) (repository.ProgressUpdate, error) {
		if !current.Status.CanTransitionTo(target) {
			return repository.ProgressUpdate{}, apperror.NewInvalidTransition(string(current.Status), string(target))
		}
		return repository.ProgressUpdate{Status: target}, nil
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, cart, updated)
	s.notify(ctx, buyerID, &cart.SellerID, models.NotificationTypeStatusChange,
		title, body, transitionPayload(cart.ID, buyerID, updated.Status))

	return updated, nil
}

// Deny отказывает покупателю. Доступно из любого неконечного статуса.
func (s *ProgressService) Deny(ctx context.Context, cartID, buyerID, callerID uuid.UUID) (*models.Progress, error) {
	cart, progress, err := s.load(ctx, cartID, buyerID)
	if err != nil {
		return nil, err
	}
	if cart.SellerID != callerID {
		return nil, apperror.ErrForbidden
	}

	updated, err := s.transition(ctx, cartID, buyerID, progress, func(current *models.Progress) (repository.ProgressUpdate, error) {
		if current.Status.IsTerminal() {
			return repository.ProgressUpdate{}, apperror.NewInvalidTransition(string(current.Status), string(valueobject.ProgressStatusDenied))
		}
		return repository.ProgressUpdate{Status: valueobject.ProgressStatusDenied}, nil
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, cart, updated)
	s.notify(ctx, buyerID, &cart.SellerID, models.NotificationTypeStatusChange,
		"Заказ отклонён", "Организатор отклонил ваше участие в закупке",
		transitionPayload(cart.ID, buyerID, updated.Status))

	return updated, nil
}

// Cancel отменяет участие покупателя. Разрешено только до принятия заказа.
func (s *ProgressService) Cancel(ctx context.Context, cartID, buyerID, callerID uuid.UUID) (*models.Progress, error) {
	cart, progress, err := s.load(ctx, cartID, buyerID)
	if err != nil {
		return nil, err
	}
	if progress.BuyerID != callerID {
		return nil, apperror.ErrForbidden
	}

	updated, err := s.transition(ctx, cartID, buyerID, progress, func(current *models.Progress) (repository.ProgressUpdate, error) {
		switch current.Status {
		case valueobject.ProgressStatusPlaced, valueobject.ProgressStatusInProgress:
		default:
			return repository.ProgressUpdate{}, apperror.NewInvalidTransition(string(current.Status), string(valueobject.ProgressStatusCancelled))
		}
		return repository.ProgressUpdate{Status: valueobject.ProgressStatusCancelled}, nil
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, cart, updated)
	s.notify(ctx, cart.SellerID, &buyerID, models.NotificationTypeStatusChange,
		"Участие отменено", "Покупатель отменил участие в закупке",
		transitionPayload(cart.ID, buyerID, updated.Status))

	return updated, nil
}

// BuyerFinalize подтверждает получение заказа покупателем, опционально с
// отзывом. Организатору уходит ровно одно уведомление: либо об отзыве,
// либо о закрытии заказа.
func (s *ProgressService) BuyerFinalize(ctx context.Context, cartID, buyerID, callerID uuid.UUID, rating *int, feedbackText *string, feedbackImages []string) (*models.Progress, error) {
	if rating != nil && (*rating < 0 || *rating > 5) {
		return nil, apperror.New(apperror.ErrCodeValidation, "оценка должна быть от 0 до 5")
	}
	if feedbackText != nil && len(*feedbackText) > 2000 {
		return nil, apperror.New(apperror.ErrCodeValidation, "отзыв слишком длинный")
	}

	cart, progress, err := s.load(ctx, cartID, buyerID)
	if err != nil {
		return nil, err
	}
	if progress.BuyerID != callerID {
		return nil, apperror.ErrForbidden
	}

	finalized := true
	updated, err := s.transition(ctx, cartID, buyerID, progress, func(current *models.Progress) (repository.ProgressUpdate, error) {
		if !current.Status.CanTransitionTo(valueobject.ProgressStatusSettled) {
			return repository.ProgressUpdate{}, apperror.NewInvalidTransition(string(current.Status), string(valueobject.ProgressStatusSettled))
		}
		if current.BuyerFinalized {
			return repository.ProgressUpdate{}, apperror.New(apperror.ErrCodeConflict, "получение уже подтверждено")
		}
		return repository.ProgressUpdate{
			Status:         valueobject.ProgressStatusSettled,
			BuyerFinalized: &finalized,
			Rating:         rating,
			FeedbackText:   feedbackText,
			FeedbackImages: feedbackImages,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, cart, updated)

	if rating != nil || feedbackText != nil || len(feedbackImages) > 0 {
		s.notify(ctx, cart.SellerID, &buyerID, models.NotificationTypeFeedback,
			"Покупатель оставил отзыв", "Заказ получен, покупатель оценил закупку",
			transitionPayload(cart.ID, buyerID, updated.Status))
	} else {
		s.notify(ctx, cart.SellerID, &buyerID, models.NotificationTypeOrder,
			"Заказ закрыт", "Покупатель подтвердил получение заказа",
			transitionPayload(cart.ID, buyerID, updated.Status))
	}

	return updated, nil
}

// SellerAck — встречное подтверждение организатора. Статус не меняется,
// вызов идемпотентен; после него пара считается рассчитанной и заработок
// пересчитывается.
func (s *ProgressService) SellerAck(ctx context.Context, cartID, buyerID, callerID uuid.UUID) (*models.Progress, error) {
	cart, progress, err := s.load(ctx, cartID, buyerID)
	if err != nil {
		return nil, err
	}
	if cart.SellerID != callerID {
		return nil, apperror.ErrForbidden
	}

	if progress.Status != valueobject.ProgressStatusSettled {
		return nil, apperror.NewInvalidTransition(string(progress.Status), string(valueobject.ProgressStatusSettled))
	}
	if progress.SellerFinalized {
		return progress, nil
	}

	finalized := true
	updated, err := s.transition(ctx, cartID, buyerID, progress, func(current *models.Progress) (repository.ProgressUpdate, error) {
		if current.Status != valueobject.ProgressStatusSettled {
			return repository.ProgressUpdate{}, apperror.NewInvalidTransition(string(current.Status), string(valueobject.ProgressStatusSettled))
		}
		return repository.ProgressUpdate{
			Status:          valueobject.ProgressStatusSettled,
			SellerFinalized: &finalized,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, cart, updated)
	s.notify(ctx, buyerID, &cart.SellerID, models.NotificationTypeStatusChange,
		"Закупка завершена", "Организатор подтвердил завершение расчётов",
		transitionPayload(cart.ID, buyerID, updated.Status))

	return updated, nil
}

// SetStatus применяет переход, запрошенный организатором по имени статуса.
func (s *ProgressService) SetStatus(ctx context.Context, cartID, buyerID, callerID uuid.UUID, newStatus valueobject.ProgressStatus) (*models.Progress, error) {
	switch newStatus {
	case valueobject.ProgressStatusAccepted:
		return s.Accept(ctx, cartID, buyerID, callerID)
	case valueobject.ProgressStatusShipped:
		return s.Ship(ctx, cartID, buyerID, callerID)
	case valueobject.ProgressStatusDelivered:
		return s.MarkDelivered(ctx, cartID, buyerID, callerID)
	case valueobject.ProgressStatusDenied:
		return s.Deny(ctx, cartID, buyerID, callerID)
	default:
		return nil, apperror.New(apperror.ErrCodeValidation,
			fmt.Sprintf("статус %q нельзя выставить напрямую", newStatus))
	}
}

// load возвращает закупку и запись участия.
func (s *ProgressService) load(ctx context.Context, cartID, buyerID uuid.UUID) (*models.Cart, *models.Progress, error) {
	cart, err := s.carts.GetByID(ctx, cartID)
	if err != nil {
		return nil, nil, err
	}

	progress, err := s.carts.GetProgress(ctx, cartID, buyerID)
	if err != nil {
		return nil, nil, err
	}

	return cart, progress, nil
}

// transition применяет условное обновление с одним повторением после
// проигрыша гонки. Повторная валидация на свежей записи может обнаружить,
// что переход больше невозможен — тогда возвращается её ошибка.
func (s *ProgressService) transition(ctx context.Context, cartID, buyerID uuid.UUID, progress *models.Progress, build buildUpdate) (*models.Progress, error) {
	current := progress

	for attempt := 0; attempt < 2; attempt++ {
		upd, err := build(current)
		if err != nil {
			return nil, err
		}

		updated, err := s.carts.ApplyTransition(ctx, cartID, buyerID, current.Status, upd)
		if err == nil {
			s.syncOrders(ctx, cartID, buyerID, updated.Status)
			return updated, nil
		}

		if !errors.Is(err, repository.ErrProgressConflict) {
			return nil, err
		}

		current, err = s.carts.GetProgress(ctx, cartID, buyerID)
		if err != nil {
			return nil, err
		}
	}

	return nil, apperror.ErrProgressConflict
}

// syncOrders зеркалирует новый статус в заказы покупателя. Сбой не
// откатывает уже применённый переход.
func (s *ProgressService) syncOrders(ctx context.Context, cartID, buyerID uuid.UUID, status valueobject.ProgressStatus) {
	if s.orders == nil {
		return
	}
	if err := s.orders.SyncStatus(ctx, cartID, buyerID, status); err != nil {
		logger.Log.WithFields(logrus.Fields{
			"cart_id":  cartID,
			"buyer_id": buyerID,
			"error":    err.Error(),
		}).Error("не удалось синхронизировать статус заказов")
	}
}

// afterTransition обрабатывает последствия перехода: завершение закупки и
// пересчёт заработка. Ошибки изолируются — переход уже зафиксирован.
func (s *ProgressService) afterTransition(ctx context.Context, cart *models.Cart, progress *models.Progress) {
	if progress.Status.IsTerminal() {
		s.finalizeCartIfDone(ctx, cart.ID)
	}
	if progress.Settled() && s.earnings != nil {
		if _, err := s.earnings.Recompute(ctx, cart.SellerID); err != nil {
			logger.Log.WithFields(logrus.Fields{
				"seller_id": cart.SellerID,
				"error":     err.Error(),
			}).Error("не удалось пересчитать заработок организатора")
		}
	}
}

// finalizeCartIfDone закрывает закупку, когда все участия конечны.
// Проверка идемпотентна: конкурентные конечные переходы сходятся безопасно.
func (s *ProgressService) finalizeCartIfDone(ctx context.Context, cartID uuid.UUID) {
	progress, err := s.carts.ListProgress(ctx, cartID)
	if err != nil {
		logger.Log.WithField("error", err.Error()).Error("не удалось получить участия закупки")
		return
	}

	for _, p := range progress {
		if !p.Status.IsTerminal() {
			return
		}
	}

	if err := s.carts.MarkFinished(ctx, cartID); err != nil {
		logger.Log.WithField("error", err.Error()).Error("не удалось завершить закупку")
	}
}

// notify отправляет уведомление о переходе. Сбой доставки не считается
// ошибкой перехода.
func (s *ProgressService) notify(ctx context.Context, userID uuid.UUID, senderID *uuid.UUID, ntype, title, body string, payload map[string]any) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Dispatch(ctx, userID, senderID, ntype, title, body, payload); err != nil {
		logger.Log.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err.Error(),
		}).Error("не удалось отправить уведомление о переходе")
	}
}

func transitionPayload(cartID, buyerID uuid.UUID, status valueobject.ProgressStatus) map[string]any {
	return map[string]any{
		"cart_id":  cartID.String(),
		"buyer_id": buyerID.String(),
		"status":   string(status),
	}
}
