package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Типы уведомлений.
const (
	NotificationTypeOrder        = "order"
	NotificationTypePaymentProof = "payment_proof"
	NotificationTypeStatusChange = "status_change"
	NotificationTypeFeedback     = "feedback"
	NotificationTypeSystem       = "system"
)

// Notification описывает событие, отправленное пользователю. После создания
// запись неизменяема, кроме флага прочтения.
type Notification struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	UserID    uuid.UUID       `db:"user_id" json:"user_id"`
	SenderID  *uuid.UUID      `db:"sender_id" json:"sender_id,omitempty"`
	Type      string          `db:"type" json:"type"`
	Title     string          `db:"title" json:"title"`
	Body      string          `db:"body" json:"body"`
	Payload   json.RawMessage `db:"payload" json:"payload,omitempty"`
	IsRead    bool            `db:"is_read" json:"is_read"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}
