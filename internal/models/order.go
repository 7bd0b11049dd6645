package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ntokareva/groupbuy-backend/internal/domain/valueobject"
)

// Order — одна позиция покупателя внутри закупки. Цена указана в валюте
// площадки и пересчитывается по курсу закупки.
type Order struct {
	ID                uuid.UUID                  `db:"id" json:"id"`
	CartID            uuid.UUID                  `db:"cart_id" json:"cart_id"`
	BuyerID           uuid.UUID                  `db:"buyer_id" json:"buyer_id"`
	Price             float64                    `db:"price" json:"price"`
	ProductLink       string                     `db:"product_link" json:"product_link"`
	Description       *string                    `db:"description" json:"description,omitempty"`
	Images            pq.StringArray             `db:"images" json:"images,omitempty"`
	DeliveryRequested bool                       `db:"delivery_requested" json:"delivery_requested"`
	DeliveryFee       *float64                   `db:"delivery_fee" json:"delivery_fee,omitempty"`
	Status            valueobject.ProgressStatus `db:"status" json:"status"`
	CreatedAt         time.Time                  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time                  `db:"updated_at" json:"updated_at"`
}
