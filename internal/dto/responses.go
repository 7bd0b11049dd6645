package dto

import (
	"github.com/ntokareva/groupbuy-backend/internal/models"
)

// ErrorResponse represents a standardized error payload
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse represents a standardized success payload
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// AuthResponse represents the payload returned after register/login
type AuthResponse struct {
	User   *models.User `json:"user"`
	Tokens interface{}  `json:"tokens"`
}

// CartListResponse represents a paginated list of carts
type CartListResponse struct {
	Data       []models.Cart `json:"data"`
	Pagination Pagination    `json:"pagination"`
}

// Pagination represents pagination metadata
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// EarningsResponse represents the seller's recomputed earnings
type EarningsResponse struct {
	Earnings float64 `json:"earnings"`
}
