package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ntokareva/groupbuy-backend/internal/logger"
	"github.com/ntokareva/groupbuy-backend/internal/models"
	"github.com/ntokareva/groupbuy-backend/internal/pkg/apperror"
	"github.com/ntokareva/groupbuy-backend/internal/push"
	"github.com/ntokareva/groupbuy-backend/internal/repository"
)

// NotificationRepository описывает взаимодействие сервиса с хранилищем уведомлений.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

// PushTokenRepository описывает хранилище push-токенов.
type PushTokenRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.PushToken, error)
	MarkInvalid(ctx context.Context, userID uuid.UUID, token string) error
	MarkDelivered(ctx context.Context, userID uuid.UUID, token string) error
}

// LiveChannel описывает канал доставки подключённым клиентам.
type LiveChannel interface {
	IsConnected(userID uuid.UUID) bool
	EmitToUser(userID uuid.UUID, event string, data any) error
}

// NotificationService — диспетчер уведомлений. Запись в БД обязательна и
// является источником правды; live-канал и push — независимые попытки
// доставки, сбой любой из них не считается ошибкой вызова.
type NotificationService struct {
	repo     NotificationRepository
	pushRepo PushTokenRepository
	live     LiveChannel
	sender   push.Sender
}

// NewNotificationService создаёт новый сервис уведомлений.
// live и sender могут быть nil: соответствующий канал просто пропускается.
func NewNotificationService(repo NotificationRepository, pushRepo PushTokenRepository, live LiveChannel, sender push.Sender) *NotificationService {
	return &NotificationService{
		repo:     repo,
		pushRepo: pushRepo,
		live:     live,
		sender:   sender,
	}
}

// Dispatch создаёт уведомление и рассылает его по обоим каналам.
// Возвращает ошибку только если не удалось сохранить запись: доставка
// поверх сохранённой записи — best effort.
func (s *NotificationService) Dispatch(ctx context.Context, userID uuid.UUID, senderID *uuid.UUID, ntype, title, body string, payload map[string]any) (*models.Notification, error) {
	var raw json.RawMessage
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("notification service: marshal payload %w", err)
		}
		raw = encoded
	}

	notification := &models.Notification{
		UserID:   userID,
		SenderID: senderID,
		Type:     ntype,
		Title:    title,
		Body:     body,
		Payload:  raw,
		IsRead:   false,
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, err
	}

	s.emitLive(notification)
	s.sendPush(ctx, notification)

	return notification, nil
}

// emitLive отправляет событие в live-канал. Отсутствие подключения — норма.
func (s *NotificationService) emitLive(notification *models.Notification) {
	if s.live == nil || !s.live.IsConnected(notification.UserID) {
		return
	}

	if err := s.live.EmitToUser(notification.UserID, "notification", notification); err != nil {
		logger.Log.WithFields(logrus.Fields{
			"user_id":         notification.UserID,
			"notification_id": notification.ID,
			"error":           err.Error(),
		}).Warn("не удалось отправить уведомление в live-канал")
	}
}

// sendPush доставляет уведомление на мобильное устройство. Окончательно
// отозванный токен помечается и пропускается до перерегистрации.
func (s *NotificationService) sendPush(ctx context.Context, notification *models.Notification) {
	if s.sender == nil {
		return
	}

	token, err := s.pushRepo.Get(ctx, notification.UserID)
	if err != nil {
		if !errors.Is(err, repository.ErrPushTokenNotFound) {
			logger.Log.WithField("error", err.Error()).Warn("не удалось получить push-токен")
		}
		return
	}
	if !token.Healthy() {
		return
	}

	data := map[string]string{
		"type":            notification.Type,
		"notification_id": notification.ID.String(),
	}

	result, err := s.sender.Send(ctx, token.Token, notification.Title, notification.Body, data)
	switch result {
	case push.ResultDelivered:
		if err := s.pushRepo.MarkDelivered(ctx, notification.UserID, token.Token); err != nil {
			logger.Log.WithField("error", err.Error()).Warn("не удалось отметить доставку push")
		}
	case push.ResultInvalidToken:
		if err := s.pushRepo.MarkInvalid(ctx, notification.UserID, token.Token); err != nil {
			logger.Log.WithField("error", err.Error()).Warn("не удалось пометить push-токен недействительным")
		}
		logger.Log.WithField("user_id", notification.UserID).Info("push-токен отозван провайдером, отправка приостановлена")
	default:
		logger.Log.WithFields(logrus.Fields{
			"user_id": notification.UserID,
			"error":   fmt.Sprintf("%v", err),
		}).Warn("временная ошибка доставки push")
	}
}

// ListNotifications возвращает список уведомлений пользователя.
func (s *NotificationService) ListNotifications(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	return s.repo.List(ctx, userID, limit, offset, unreadOnly)
}

// GetNotification возвращает уведомление по идентификатору.
func (s *NotificationService) GetNotification(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	return s.repo.GetByID(ctx, id)
}

// MarkAsRead отмечает уведомление как прочитанное.
func (s *NotificationService) MarkAsRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	notification, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if notification.UserID != userID {
		return apperror.New(apperror.ErrCodeForbidden, "у вас нет прав на это уведомление")
	}

	return s.repo.MarkAsRead(ctx, id)
}

// MarkAllAsRead отмечает все уведомления пользователя как прочитанные.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// DeleteNotification удаляет уведомление.
func (s *NotificationService) DeleteNotification(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	notification, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if notification.UserID != userID {
		return apperror.New(apperror.ErrCodeForbidden, "у вас нет прав на это уведомление")
	}

	return s.repo.Delete(ctx, id)
}

// CountUnread возвращает количество непрочитанных уведомлений.
func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}
