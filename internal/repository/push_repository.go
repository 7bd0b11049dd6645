package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ntokareva/groupbuy-backend/internal/models"
)

// ErrPushTokenNotFound возвращается, когда у пользователя нет зарегистрированного устройства.
var ErrPushTokenNotFound = errors.New("push token not found")

// PushRepository отвечает за мобильные push-токены пользователей.
type PushRepository struct {
	db *sqlx.DB
}

// NewPushRepository создаёт новый экземпляр.
func NewPushRepository(db *sqlx.DB) *PushRepository {
	return &PushRepository{db: db}
}

// Upsert регистрирует или обновляет токен пользователя. Перерегистрация
// снимает отметку о недействительности.
func (r *PushRepository) Upsert(ctx context.Context, token *models.PushToken) error {
	query := `
		INSERT INTO push_tokens (user_id, token, platform, updated_at, invalidated_at)
		VALUES ($1, $2, $3, NOW(), NULL)
		ON CONFLICT (user_id)
		DO UPDATE SET token = EXCLUDED.token,
		              platform = EXCLUDED.platform,
		              updated_at = NOW(),
		              invalidated_at = NULL
		RETURNING updated_at
	`

	if err := r.db.QueryRowxContext(ctx, query, token.UserID, token.Token, token.Platform).Scan(&token.UpdatedAt); err != nil {
		return fmt.Errorf("push repository: upsert %w", err)
	}
	token.InvalidatedAt = nil

	return nil
}

// Get возвращает токен пользователя.
func (r *PushRepository) Get(ctx context.Context, userID uuid.UUID) (*models.PushToken, error) {
	var token models.PushToken
	if err := r.db.GetContext(ctx, &token, `SELECT * FROM push_tokens WHERE user_id = $1`, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPushTokenNotFound
		}
		return nil, fmt.Errorf("push repository: get %w", err)
	}
	return &token, nil
}

// MarkInvalid помечает токен недействительным. Токен сравнивается, чтобы не
// затереть заново зарегистрированное устройство результатом старой отправки.
func (r *PushRepository) MarkInvalid(ctx context.Context, userID uuid.UUID, token string) error {
	query := `
		UPDATE push_tokens
		SET invalidated_at = NOW()
		WHERE user_id = $1 AND token = $2 AND invalidated_at IS NULL
	`
	if _, err := r.db.ExecContext(ctx, query, userID, token); err != nil {
		return fmt.Errorf("push repository: mark invalid %w", err)
	}
	return nil
}

// MarkDelivered снимает отметку о недействительности после успешной доставки.
func (r *PushRepository) MarkDelivered(ctx context.Context, userID uuid.UUID, token string) error {
	query := `
		UPDATE push_tokens
		SET invalidated_at = NULL, updated_at = NOW()
		WHERE user_id = $1 AND token = $2
	`
	if _, err := r.db.ExecContext(ctx, query, userID, token); err != nil {
		return fmt.Errorf("push repository: mark delivered %w", err)
	}
	return nil
}

// Delete удаляет токен пользователя.
func (r *PushRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM push_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("push repository: delete %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("push repository: delete rows affected %w", err)
	}

	if rowsAffected == 0 {
		return ErrPushTokenNotFound
	}

	return nil
}
