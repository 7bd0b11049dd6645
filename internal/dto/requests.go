package dto

import "time"

// RegisterRequest represents the request to register a new user
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Username string `json:"username" binding:"required"`
}

// LoginRequest represents the request to authenticate
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest represents the request to rotate tokens
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// CreateCartRequest represents the request to open a group buy
type CreateCartRequest struct {
	Platform             string    `json:"platform" binding:"required"`
	Title                string    `json:"title" binding:"required"`
	OpenDate             time.Time `json:"open_date" binding:"required"`
	CloseDate            time.Time `json:"close_date" binding:"required"`
	ExpectedDeliveryDate time.Time `json:"expected_delivery_date" binding:"required"`
	ExchangeRate         float64   `json:"exchange_rate" binding:"required"`
}

// PlaceOrderRequest represents the request to add an order to a cart
type PlaceOrderRequest struct {
	Price             float64  `json:"price" binding:"required"`
	ProductLink       string   `json:"product_link" binding:"required"`
	Description       *string  `json:"description"`
	Images            []string `json:"images"`
	DeliveryRequested bool     `json:"delivery_requested"`
	DeliveryFee       *float64 `json:"delivery_fee"`
}

// SubmitPaymentProofRequest represents the request to attach a payment proof
type SubmitPaymentProofRequest struct {
	ProofRef string `json:"proof_ref" binding:"required"`
}

// SetStatusRequest represents the seller's request to move a buyer's progress
type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// FinalizeRequest represents the buyer's confirmation of receipt
type FinalizeRequest struct {
	Rating         *int     `json:"rating"`
	FeedbackText   *string  `json:"feedback_text"`
	FeedbackImages []string `json:"feedback_images"`
}

// RegisterPushTokenRequest represents the request to register a device token
type RegisterPushTokenRequest struct {
	Token    string `json:"token" binding:"required"`
	Platform string `json:"platform" binding:"required"`
}
