package models

import (
	"time"

	"github.com/google/uuid"
)

// Платформы мобильных устройств.
const (
	PushPlatformAndroid = "android"
	PushPlatformIOS     = "ios"
)

// PushToken — зарегистрированное мобильное устройство пользователя.
// InvalidatedAt выставляется, когда провайдер сообщил, что токен
// окончательно отозван; до перерегистрации отправка пропускается.
type PushToken struct {
	UserID        uuid.UUID  `db:"user_id" json:"user_id"`
	Token         string     `db:"token" json:"token"`
	Platform      string     `db:"platform" json:"platform"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
	InvalidatedAt *time.Time `db:"invalidated_at" json:"invalidated_at,omitempty"`
}

// Healthy сообщает, можно ли использовать токен для доставки.
func (t *PushToken) Healthy() bool {
	return t.InvalidatedAt == nil
}
