package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ntokareva/groupbuy-backend/internal/domain/valueobject"
	"github.com/ntokareva/groupbuy-backend/internal/models"
)

// ErrOrderNotFound возвращается, когда заказ не найден.
var ErrOrderNotFound = errors.New("order not found")

// OrderRepository отвечает за позиции покупателей внутри закупок.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository создаёт новый экземпляр.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create создаёт заказ.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (cart_id, buyer_id, price, product_link, description, images, delivery_requested, delivery_fee, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	if order.Status == "" {
		order.Status = valueobject.ProgressStatusPlaced
	}

	if err := r.db.QueryRowxContext(
		ctx,
		query,
		order.CartID,
		order.BuyerID,
		order.Price,
		order.ProductLink,
		order.Description,
		pq.Array(order.Images),
		order.DeliveryRequested,
		order.DeliveryFee,
		order.Status,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt); err != nil {
		return fmt.Errorf("order repository: create %w", err)
	}

	return nil
}

// GetByID возвращает заказ по идентификатору.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.GetContext(ctx, &order, `SELECT * FROM orders WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("order repository: get by id %w", err)
	}
	return &order, nil
}

// ListByCart возвращает все заказы закупки.
func (r *OrderRepository) ListByCart(ctx context.Context, cartID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	query := `SELECT * FROM orders WHERE cart_id = $1 ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &orders, query, cartID); err != nil {
		return nil, fmt.Errorf("order repository: list by cart %w", err)
	}
	return orders, nil
}

// ListByCartAndBuyer возвращает заказы покупателя внутри закупки.
func (r *OrderRepository) ListByCartAndBuyer(ctx context.Context, cartID, buyerID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	query := `SELECT * FROM orders WHERE cart_id = $1 AND buyer_id = $2 ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &orders, query, cartID, buyerID); err != nil {
		return nil, fmt.Errorf("order repository: list by cart and buyer %w", err)
	}
	return orders, nil
}

// Update изменяет заказ.
func (r *OrderRepository) Update(ctx context.Context, order *models.Order) error {
	query := `
		UPDATE orders
		SET price = $1,
		    product_link = $2,
		    description = $3,
		    images = $4,
		    delivery_requested = $5,
		    delivery_fee = $6,
		    updated_at = NOW()
		WHERE id = $7
		RETURNING updated_at
	`

	err := r.db.QueryRowxContext(
		ctx,
		query,
		order.Price,
		order.ProductLink,
		order.Description,
		pq.Array(order.Images),
		order.DeliveryRequested,
		order.DeliveryFee,
		order.ID,
	).Scan(&order.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("order repository: update %w", err)
	}

	return nil
}

// Delete удаляет заказ.
func (r *OrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("order repository: delete %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("order repository: delete rows affected %w", err)
	}

	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// SyncStatus обновляет денормализованный статус заказов покупателя в закупке
// вслед за статусом участия.
func (r *OrderRepository) SyncStatus(ctx context.Context, cartID, buyerID uuid.UUID, status valueobject.ProgressStatus) error {
	query := `UPDATE orders SET status = $1, updated_at = NOW() WHERE cart_id = $2 AND buyer_id = $3`
	if _, err := r.db.ExecContext(ctx, query, status, cartID, buyerID); err != nil {
		return fmt.Errorf("order repository: sync status %w", err)
	}
	return nil
}

// SumSettled считает заработок организатора: суммируются только заказы пар,
// где расчёт подтверждён обеими сторонами, с пересчётом по курсу закупки.
func (r *OrderRepository) SumSettled(ctx context.Context, sellerID uuid.UUID) (float64, error) {
	var total float64
	query := `
		SELECT COALESCE(SUM(o.price * c.exchange_rate), 0)
		FROM orders o
		JOIN carts c ON c.id = o.cart_id
		JOIN cart_progress p ON p.cart_id = o.cart_id AND p.buyer_id = o.buyer_id
		WHERE c.seller_id = $1
		  AND p.buyer_finalized = TRUE
		  AND p.seller_finalized = TRUE
	`
	if err := r.db.GetContext(ctx, &total, query, sellerID); err != nil {
		return 0, fmt.Errorf("order repository: sum settled %w", err)
	}
	return total, nil
}
