package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ntokareva/groupbuy-backend/internal/domain/valueobject"
)

// Cart описывает закупку — партию заказов с одной внешней площадки,
// открытую организатором для независимых покупателей.
type Cart struct {
	ID                   uuid.UUID                 `db:"id" json:"id"`
	SellerID             uuid.UUID                 `db:"seller_id" json:"seller_id"`
	Platform             valueobject.CartPlatform  `db:"platform" json:"platform"`
	Title                string                    `db:"title" json:"title"`
	OpenDate             time.Time                 `db:"open_date" json:"open_date"`
	CloseDate            time.Time                 `db:"close_date" json:"close_date"`
	ExpectedDeliveryDate time.Time                 `db:"expected_delivery_date" json:"expected_delivery_date"`
	ExchangeRate         float64                   `db:"exchange_rate" json:"exchange_rate"`
	Open                 bool                      `db:"open" json:"open"`
	Closed               bool                      `db:"closed" json:"closed"`
	Cancelled            bool                      `db:"cancelled" json:"cancelled"`
	Finished             bool                      `db:"finished" json:"finished"`
	CreatedAt            time.Time                 `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time                 `db:"updated_at" json:"updated_at"`

	// Связанные данные (загружаются отдельно)
	Progress []Progress `json:"progress,omitempty"`
}

// Progress — запись участия одного покупателя в закупке. Статус меняется
// только через условные переходы; запись никогда не удаляется.
type Progress struct {
	ID               uuid.UUID                  `db:"id" json:"id"`
	CartID           uuid.UUID                  `db:"cart_id" json:"cart_id"`
	BuyerID          uuid.UUID                  `db:"buyer_id" json:"buyer_id"`
	Status           valueobject.ProgressStatus `db:"status" json:"status"`
	PaymentProof     *string                    `db:"payment_proof" json:"payment_proof,omitempty"`
	PaymentConfirmed bool                       `db:"payment_confirmed" json:"payment_confirmed"`
	PaymentRejected  bool                       `db:"payment_rejected" json:"payment_rejected"`
	BuyerFinalized   bool                       `db:"buyer_finalized" json:"buyer_finalized"`
	SellerFinalized  bool                       `db:"seller_finalized" json:"seller_finalized"`
	Rating           *int                       `db:"rating" json:"rating,omitempty"`
	FeedbackText     *string                    `db:"feedback_text" json:"feedback_text,omitempty"`
	FeedbackImages   pq.StringArray             `db:"feedback_images" json:"feedback_images,omitempty"`
	UpdatedAt        time.Time                  `db:"updated_at" json:"updated_at"`
}

// Settled сообщает, рассчитались ли стороны: требуются оба подтверждения,
// статус сам по себе расчётом не считается.
func (p *Progress) Settled() bool {
	return p.BuyerFinalized && p.SellerFinalized
}
