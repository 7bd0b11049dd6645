package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/ntokareva/groupbuy-backend/internal/domain/valueobject"
	"github.com/ntokareva/groupbuy-backend/internal/logger"
	"github.com/ntokareva/groupbuy-backend/internal/models"
	"github.com/ntokareva/groupbuy-backend/internal/repository"
	"github.com/ntokareva/groupbuy-backend/internal/service"
)

func TestMain(m *testing.M) {
	logger.Init("error")
	m.Run()
}

func TestCartHandler_CreateCart_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &CartHandler{carts: nil}
	r.POST("/carts", handler.CreateCart)

	req, _ := http.NewRequest("POST", "/carts", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCartHandler_PlaceOrder_InvalidCartID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	userID := uuid.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	handler := &CartHandler{carts: nil}
	r.POST("/carts/:id/orders", handler.PlaceOrder)

	req, _ := http.NewRequest("POST", "/carts/invalid-uuid/orders", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProgressHandler_SubmitPaymentProof_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ProgressHandler{progress: nil}
	r.POST("/carts/:id/progress/:buyerId/payment-proof", handler.SubmitPaymentProof)

	cartID := uuid.New()
	buyerID := uuid.New()
	req, _ := http.NewRequest("POST", "/carts/"+cartID.String()+"/progress/"+buyerID.String()+"/payment-proof", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// stubProgressStore хранит одну запись участия для сквозных тестов хэндлера.
type stubProgressStore struct {
	cart     *models.Cart
	progress *models.Progress
}

func (s *stubProgressStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	return s.cart, nil
}

func (s *stubProgressStore) GetProgress(ctx context.Context, cartID, buyerID uuid.UUID) (*models.Progress, error) {
	return s.progress, nil
}

func (s *stubProgressStore) ListProgress(ctx context.Context, cartID uuid.UUID) ([]models.Progress, error) {
	return []models.Progress{*s.progress}, nil
}

func (s *stubProgressStore) ApplyTransition(ctx context.Context, cartID, buyerID uuid.UUID, expected valueobject.ProgressStatus, upd repository.ProgressUpdate) (*models.Progress, error) {
	if s.progress.Status != expected {
		return nil, repository.ErrProgressConflict
	}
	s.progress.Status = upd.Status
	if upd.BuyerFinalized != nil {
		s.progress.BuyerFinalized = *upd.BuyerFinalized
	}
	if upd.SellerFinalized != nil {
		s.progress.SellerFinalized = *upd.SellerFinalized
	}
	if upd.Rating != nil {
		s.progress.Rating = upd.Rating
	}
	return s.progress, nil
}

func (s *stubProgressStore) MarkFinished(ctx context.Context, cartID uuid.UUID) error {
	return nil
}

func TestProgressHandler_Finalize_EmptyBodyAllowed(t *testing.T) {
	gin.SetMode(gin.TestMode)

	buyerID := uuid.New()
	cart := &models.Cart{ID: uuid.New(), SellerID: uuid.New(), Open: true}
	store := &stubProgressStore{
		cart: cart,
		progress: &models.Progress{
			CartID:  cart.ID,
			BuyerID: buyerID,
			Status:  valueobject.ProgressStatusDelivered,
		},
	}
	handler := &ProgressHandler{progress: service.NewProgressService(store, nil, nil, nil)}

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", buyerID)
		c.Next()
	})
	r.POST("/carts/:id/progress/:buyerId/finalize", handler.Finalize)

	// Подтверждение без отзыва: все поля необязательны, тело пустое
	url := "/carts/" + cart.ID.String() + "/progress/" + buyerID.String() + "/finalize"
	req, _ := http.NewRequest("POST", url, strings.NewReader(""))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, valueobject.ProgressStatusSettled, store.progress.Status)
	assert.True(t, store.progress.BuyerFinalized)
}

func TestProgressHandler_SetStatus_InvalidBuyerID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	userID := uuid.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	handler := &ProgressHandler{progress: nil}
	r.PUT("/carts/:id/progress/:buyerId/status", handler.SetStatus)

	cartID := uuid.New()
	req, _ := http.NewRequest("PUT", "/carts/"+cartID.String()+"/progress/invalid-uuid/status", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
