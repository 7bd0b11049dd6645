package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ntokareva/groupbuy-backend/internal/dto"
	"github.com/ntokareva/groupbuy-backend/internal/http/handlers/common"
	"github.com/ntokareva/groupbuy-backend/internal/service"
)

// CartHandler обслуживает маршруты закупок и заказов.
type CartHandler struct {
	carts *service.CartService
}

// NewCartHandler создаёт новый хэндлер.
func NewCartHandler(carts *service.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

// CreateCart обрабатывает POST /carts.
func (h *CartHandler) CreateCart(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.CreateCartRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	cart, err := h.carts.CreateCart(c.Request.Context(), userID, service.CreateCartInput{
		Platform:             req.Platform,
		Title:                req.Title,
		OpenDate:             req.OpenDate,
		CloseDate:            req.CloseDate,
		ExpectedDeliveryDate: req.ExpectedDeliveryDate,
		ExchangeRate:         req.ExchangeRate,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, cart)
}

// ListCarts обрабатывает GET /carts — открытые закупки.
func (h *CartHandler) ListCarts(c *gin.Context) {
	limit, offset := common.GetPagination(c)

	carts, err := h.carts.ListOpenCarts(c.Request.Context(), limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.CartListResponse{
		Data: carts,
		Pagination: dto.Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: len(carts) == limit,
		},
	})
}

// ListMyCarts обрабатывает GET /carts/my — закупки организатора.
func (h *CartHandler) ListMyCarts(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	carts, err := h.carts.ListSellerCarts(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, carts)
}

// GetCart обрабатывает GET /carts/:id.
func (h *CartHandler) GetCart(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный идентификатор закупки")
		return
	}

	cart, err := h.carts.GetCart(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, cart)
}

// ListCartOrders обрабатывает GET /carts/:id/orders.
func (h *CartHandler) ListCartOrders(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	cartID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный идентификатор закупки")
		return
	}

	orders, err := h.carts.ListCartOrders(c.Request.Context(), cartID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, orders)
}

// PlaceOrder обрабатывает POST /carts/:id/orders.
func (h *CartHandler) PlaceOrder(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	cartID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный идентификатор закупки")
		return
	}

	var req dto.PlaceOrderRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, err := h.carts.PlaceOrder(c.Request.Context(), cartID, userID, service.PlaceOrderInput{
		Price:             req.Price,
		ProductLink:       req.ProductLink,
		Description:       req.Description,
		Images:            req.Images,
		DeliveryRequested: req.DeliveryRequested,
		DeliveryFee:       req.DeliveryFee,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, order)
}

// UpdateOrder обрабатывает PUT /orders/:id.
func (h *CartHandler) UpdateOrder(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный идентификатор заказа")
		return
	}

	var req dto.PlaceOrderRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, err := h.carts.UpdateOrder(c.Request.Context(), orderID, userID, service.PlaceOrderInput{
		Price:             req.Price,
		ProductLink:       req.ProductLink,
		Description:       req.Description,
		Images:            req.Images,
		DeliveryRequested: req.DeliveryRequested,
		DeliveryFee:       req.DeliveryFee,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, order)
}

// DeleteOrder обрабатывает DELETE /orders/:id.
func (h *CartHandler) DeleteOrder(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный идентификатор заказа")
		return
	}

	if err := h.carts.DeleteOrder(c.Request.Context(), orderID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, "заказ удалён", nil)
}
