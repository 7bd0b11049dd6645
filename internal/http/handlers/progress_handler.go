package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ntokareva/groupbuy-backend/internal/domain/valueobject"
	"github.com/ntokareva/groupbuy-backend/internal/dto"
	"github.com/ntokareva/groupbuy-backend/internal/http/handlers/common"
	"github.com/ntokareva/groupbuy-backend/internal/service"
)

// ProgressHandler обслуживает переходы статусов участия в закупке.
type ProgressHandler struct {
	progress *service.ProgressService
	earnings *service.EarningsService
}

// NewProgressHandler создаёт новый хэндлер.
func NewProgressHandler(progress *service.ProgressService, earnings *service.EarningsService) *ProgressHandler {
	return &ProgressHandler{progress: progress, earnings: earnings}
}

// ids извлекает идентификаторы закупки и покупателя из пути.
func (h *ProgressHandler) ids(c *gin.Context) (cartID, buyerID uuid.UUID, ok bool) {
	cartID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный идентификатор закупки")
		return uuid.Nil, uuid.Nil, false
	}

	buyerID, err = common.ParseUUIDParam(c, "buyerId")
	if err != nil {
		common.RespondBadRequest(c, "неверный идентификатор покупателя")
		return uuid.Nil, uuid.Nil, false
	}

	return cartID, buyerID, true
}

// SubmitPaymentProof обрабатывает POST /carts/:id/progress/:buyerId/payment-proof.
func (h *ProgressHandler) SubmitPaymentProof(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	cartID, buyerID, ok := h.ids(c)
	if !ok {
		return
	}

	var req dto.SubmitPaymentProofRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	progress, err := h.progress.SubmitPaymentProof(c.Request.Context(), cartID, buyerID, userID, req.ProofRef)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, progress)
}

// SetStatus обрабатывает PUT /carts/:id/progress/:buyerId/status.
func (h *ProgressHandler) SetStatus(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	cartID, buyerID, ok := h.ids(c)
	if !ok {
		return
	}

	var req dto.SetStatusRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	status, err := valueobject.NewProgressStatus(req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	progress, err := h.progress.SetStatus(c.Request.Context(), cartID, buyerID, userID, status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, progress)
}

// RejectProof обрабатывает POST /carts/:id/progress/:buyerId/reject-proof.
func (h *ProgressHandler) RejectProof(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	cartID, buyerID, ok := h.ids(c)
	if !ok {
		return
	}

	progress, err := h.progress.RejectProof(c.Request.Context(), cartID, buyerID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, progress)
}

// Cancel обрабатывает POST /carts/:id/progress/:buyerId/cancel.
func (h *ProgressHandler) Cancel(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	cartID, buyerID, ok := h.ids(c)
	if !ok {
		return
	}

	progress, err := h.progress.Cancel(c.Request.Context(), cartID, buyerID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, progress)
}

// Finalize обрабатывает POST /carts/:id/progress/:buyerId/finalize —
// подтверждение получения покупателем, опционально с отзывом.
func (h *ProgressHandler) Finalize(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	cartID, buyerID, ok := h.ids(c)
	if !ok {
		return
	}

	// Все поля отзыва необязательны: запрос без тела — подтверждение без отзыва.
	var req dto.FinalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		common.RespondBadRequest(c, err.Error())
		return
	}

	progress, err := h.progress.BuyerFinalize(c.Request.Context(), cartID, buyerID, userID,
		req.Rating, req.FeedbackText, req.FeedbackImages)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, progress)
}

// SellerAck обрабатывает POST /carts/:id/progress/:buyerId/ack —
// встречное подтверждение организатора.
func (h *ProgressHandler) SellerAck(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	cartID, buyerID, ok := h.ids(c)
	if !ok {
		return
	}

	progress, err := h.progress.SellerAck(c.Request.Context(), cartID, buyerID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, progress)
}

// RecomputeEarnings обрабатывает POST /earnings/recompute.
func (h *ProgressHandler) RecomputeEarnings(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	total, err := h.earnings.Recompute(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.EarningsResponse{Earnings: total})
}
