package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ntokareva/groupbuy-backend/internal/domain/valueobject"
	"github.com/ntokareva/groupbuy-backend/internal/models"
)

// Ошибки уровня репозитория.
var (
	ErrCartNotFound     = errors.New("cart not found")
	ErrProgressNotFound = errors.New("progress not found")
	// ErrProgressConflict возвращается, когда условное обновление не прошло:
	// статус участия изменился между чтением и записью.
	ErrProgressConflict = errors.New("progress status conflict")
)

// ProgressUpdate описывает изменения, применяемые вместе с переходом статуса.
// nil-поля сохраняют текущее значение.
type ProgressUpdate struct {
	Status           valueobject.ProgressStatus
	PaymentProof     *string
	PaymentConfirmed *bool
	PaymentRejected  *bool
	BuyerFinalized   *bool
	SellerFinalized  *bool
	Rating           *int
	FeedbackText     *string
	FeedbackImages   []string
}

// CartRepository отвечает за закупки и записи участия покупателей.
// Коллекция участий хранится отдельной таблицей с ключом (cart_id, buyer_id),
// что позволяет обновлять каждую запись условно, без блокировки всей закупки.
type CartRepository struct {
	db *sqlx.DB
}

// NewCartRepository создаёт новый экземпляр.
func NewCartRepository(db *sqlx.DB) *CartRepository {
	return &CartRepository{db: db}
}

// Create создаёт закупку.
func (r *CartRepository) Create(ctx context.Context, cart *models.Cart) error {
	query := `
		INSERT INTO carts (seller_id, platform, title, open_date, close_date, expected_delivery_date, exchange_rate, open)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
		RETURNING id, open, closed, cancelled, finished, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx,
		query,
		cart.SellerID,
		cart.Platform,
		cart.Title,
		cart.OpenDate,
		cart.CloseDate,
		cart.ExpectedDeliveryDate,
		cart.ExchangeRate,
	).Scan(&cart.ID, &cart.Open, &cart.Closed, &cart.Cancelled, &cart.Finished, &cart.CreatedAt, &cart.UpdatedAt); err != nil {
		return fmt.Errorf("cart repository: create %w", err)
	}

	return nil
}

// GetByID возвращает закупку по идентификатору.
func (r *CartRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.GetContext(ctx, &cart, `SELECT * FROM carts WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("cart repository: get by id %w", err)
	}
	return &cart, nil
}

// GetByIDWithProgress возвращает закупку вместе со всеми записями участия.
func (r *CartRepository) GetByIDWithProgress(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	cart, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	progress, err := r.ListProgress(ctx, id)
	if err != nil {
		return nil, err
	}
	cart.Progress = progress

	return cart, nil
}

// ListOpen возвращает открытые закупки с пагинацией.
func (r *CartRepository) ListOpen(ctx context.Context, limit, offset int) ([]models.Cart, error) {
	var carts []models.Cart
	query := `
		SELECT * FROM carts
		WHERE open = TRUE AND closed = FALSE AND cancelled = FALSE
		ORDER BY close_date
		LIMIT $1 OFFSET $2
	`
	if err := r.db.SelectContext(ctx, &carts, query, limit, offset); err != nil {
		return nil, fmt.Errorf("cart repository: list open %w", err)
	}
	return carts, nil
}

// ListBySeller возвращает закупки организатора.
func (r *CartRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Cart, error) {
	var carts []models.Cart
	query := `SELECT * FROM carts WHERE seller_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &carts, query, sellerID); err != nil {
		return nil, fmt.Errorf("cart repository: list by seller %w", err)
	}
	return carts, nil
}

// ListSweepable возвращает незакрытые закупки, чья дата закрытия уже прошла.
func (r *CartRepository) ListSweepable(ctx context.Context, now time.Time) ([]models.Cart, error) {
	var carts []models.Cart
	query := `
		SELECT * FROM carts
		WHERE closed = FALSE AND cancelled = FALSE AND close_date < $1
	`
	if err := r.db.SelectContext(ctx, &carts, query, now); err != nil {
		return nil, fmt.Errorf("cart repository: list sweepable %w", err)
	}
	return carts, nil
}

// MarkFinished выставляет флаги завершения закупки. Флаг меняется только в одну
// сторону, поэтому повторные и конкурентные вызовы безопасны.
func (r *CartRepository) MarkFinished(ctx context.Context, cartID uuid.UUID) error {
	query := `
		UPDATE carts
		SET finished = TRUE, closed = TRUE, open = FALSE, updated_at = NOW()
		WHERE id = $1 AND finished = FALSE
	`
	if _, err := r.db.ExecContext(ctx, query, cartID); err != nil {
		return fmt.Errorf("cart repository: mark finished %w", err)
	}
	return nil
}

// Close закрывает закупку. Как и MarkFinished, это монотонный флип флага.
func (r *CartRepository) Close(ctx context.Context, cartID uuid.UUID) error {
	query := `
		UPDATE carts
		SET closed = TRUE, open = FALSE, updated_at = NOW()
		WHERE id = $1 AND closed = FALSE
	`
	if _, err := r.db.ExecContext(ctx, query, cartID); err != nil {
		return fmt.Errorf("cart repository: close %w", err)
	}
	return nil
}

// AddProgress создаёт запись участия покупателя, если её ещё нет.
// Возвращает true, если запись была создана этим вызовом.
func (r *CartRepository) AddProgress(ctx context.Context, cartID, buyerID uuid.UUID) (bool, error) {
	query := `
		INSERT INTO cart_progress (cart_id, buyer_id, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, buyer_id) DO NOTHING
	`
	result, err := r.db.ExecContext(ctx, query, cartID, buyerID, valueobject.ProgressStatusPlaced)
	if err != nil {
		return false, fmt.Errorf("cart repository: add progress %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("cart repository: add progress rows affected %w", err)
	}

	return rowsAffected > 0, nil
}

// GetProgress возвращает запись участия покупателя в закупке.
func (r *CartRepository) GetProgress(ctx context.Context, cartID, buyerID uuid.UUID) (*models.Progress, error) {
	var progress models.Progress
	query := `SELECT * FROM cart_progress WHERE cart_id = $1 AND buyer_id = $2`
	if err := r.db.GetContext(ctx, &progress, query, cartID, buyerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProgressNotFound
		}
		return nil, fmt.Errorf("cart repository: get progress %w", err)
	}
	return &progress, nil
}

// ListProgress возвращает все записи участия в закупке.
func (r *CartRepository) ListProgress(ctx context.Context, cartID uuid.UUID) ([]models.Progress, error) {
	var progress []models.Progress
	query := `SELECT * FROM cart_progress WHERE cart_id = $1 ORDER BY updated_at`
	if err := r.db.SelectContext(ctx, &progress, query, cartID); err != nil {
		return nil, fmt.Errorf("cart repository: list progress %w", err)
	}
	return progress, nil
}

// ApplyTransition применяет переход условно: запись обновляется только если её
// статус всё ещё равен expected. При проигрыше гонки возвращается
// ErrProgressConflict, и вызывающая сторона перечитывает запись.
func (r *CartRepository) ApplyTransition(ctx context.Context, cartID, buyerID uuid.UUID, expected valueobject.ProgressStatus, upd ProgressUpdate) (*models.Progress, error) {
	query := `
		UPDATE cart_progress
		SET status = $1,
		    payment_proof = COALESCE($2, payment_proof),
		    payment_confirmed = COALESCE($3, payment_confirmed),
		    payment_rejected = COALESCE($4, payment_rejected),
		    buyer_finalized = COALESCE($5, buyer_finalized),
		    seller_finalized = COALESCE($6, seller_finalized),
		    rating = COALESCE($7, rating),
		    feedback_text = COALESCE($8, feedback_text),
		    feedback_images = COALESCE($9::text[], feedback_images),
		    updated_at = NOW()
		WHERE cart_id = $10 AND buyer_id = $11 AND status = $12
		RETURNING *
	`

	var images interface{}
	if upd.FeedbackImages != nil {
		images = pq.Array(upd.FeedbackImages)
	}

	var progress models.Progress
	err := r.db.QueryRowxContext(
		ctx,
		query,
		upd.Status,
		upd.PaymentProof,
		upd.PaymentConfirmed,
		upd.PaymentRejected,
		upd.BuyerFinalized,
		upd.SellerFinalized,
		upd.Rating,
		upd.FeedbackText,
		images,
		cartID,
		buyerID,
		expected,
	).StructScan(&progress)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Либо записи нет, либо статус успел измениться
			if _, getErr := r.GetProgress(ctx, cartID, buyerID); getErr != nil {
				return nil, getErr
			}
			return nil, ErrProgressConflict
		}
		return nil, fmt.Errorf("cart repository: apply transition %w", err)
	}

	return &progress, nil
}
