package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ntokareva/groupbuy-backend/internal/domain/valueobject"
	"github.com/ntokareva/groupbuy-backend/internal/models"
	"github.com/ntokareva/groupbuy-backend/internal/pkg/apperror"
)

// CartStore описывает хранилище закупок для сервиса.
type CartStore interface {
	Create(ctx context.Context, cart *models.Cart) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Cart, error)
	GetByIDWithProgress(ctx context.Context, id uuid.UUID) (*models.Cart, error)
	ListOpen(ctx context.Context, limit, offset int) ([]models.Cart, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Cart, error)
	AddProgress(ctx context.Context, cartID, buyerID uuid.UUID) (bool, error)
	GetProgress(ctx context.Context, cartID, buyerID uuid.UUID) (*models.Progress, error)
}

// OrderStore описывает хранилище заказов для сервиса.
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByCart(ctx context.Context, cartID uuid.UUID) ([]models.Order, error)
	ListByCartAndBuyer(ctx context.Context, cartID, buyerID uuid.UUID) ([]models.Order, error)
	Update(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CreateCartInput — параметры новой закупки.
type CreateCartInput struct {
	Platform             string
	Title                string
	OpenDate             time.Time
	CloseDate            time.Time
	ExpectedDeliveryDate time.Time
	ExchangeRate         float64
}

// PlaceOrderInput — параметры новой позиции покупателя.
type PlaceOrderInput struct {
	Price             float64
	ProductLink       string
	Description       *string
	Images            []string
	DeliveryRequested bool
	DeliveryFee       *float64
}

// CartService управляет жизненным циклом закупок и заказов в них.
type CartService struct {
	carts    CartStore
	orders   OrderStore
	notifier Notifier
}

// NewCartService создаёт новый сервис.
func NewCartService(carts CartStore, orders OrderStore, notifier Notifier) *CartService {
	return &CartService{carts: carts, orders: orders, notifier: notifier}
}

// CreateCart открывает новую закупку.
func (s *CartService) CreateCart(ctx context.Context, sellerID uuid.UUID, input CreateCartInput) (*models.Cart, error) {
	platform, err := valueobject.NewCartPlatform(input.Platform)
	if err != nil {
		return nil, err
	}
	if input.Title == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "название закупки обязательно")
	}
	if input.ExchangeRate <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "курс должен быть положительным")
	}
	if !input.OpenDate.Before(input.CloseDate) || !input.CloseDate.Before(input.ExpectedDeliveryDate) {
		return nil, apperror.New(apperror.ErrCodeValidation, "даты закупки должны идти по порядку: открытие, закрытие, доставка")
	}

	cart := &models.Cart{
		SellerID:             sellerID,
		Platform:             platform,
		Title:                input.Title,
		OpenDate:             input.OpenDate,
		CloseDate:            input.CloseDate,
		ExpectedDeliveryDate: input.ExpectedDeliveryDate,
		ExchangeRate:         input.ExchangeRate,
	}
	if err := s.carts.Create(ctx, cart); err != nil {
		return nil, err
	}

	return cart, nil
}

// GetCart возвращает закупку со всеми записями участия.
func (s *CartService) GetCart(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	return s.carts.GetByIDWithProgress(ctx, id)
}

// ListOpenCarts возвращает открытые закупки.
func (s *CartService) ListOpenCarts(ctx context.Context, limit, offset int) ([]models.Cart, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.carts.ListOpen(ctx, limit, offset)
}

// ListSellerCarts возвращает закупки организатора.
func (s *CartService) ListSellerCarts(ctx context.Context, sellerID uuid.UUID) ([]models.Cart, error) {
	return s.carts.ListBySeller(ctx, sellerID)
}

// ListCartOrders возвращает заказы закупки. Полный список доступен только
// организатору, покупатель видит свои позиции.
func (s *CartService) ListCartOrders(ctx context.Context, cartID, callerID uuid.UUID) ([]models.Order, error) {
	cart, err := s.carts.GetByID(ctx, cartID)
	if err != nil {
		return nil, err
	}

	if cart.SellerID == callerID {
		return s.orders.ListByCart(ctx, cartID)
	}
	return s.orders.ListByCartAndBuyer(ctx, cartID, callerID)
}

// PlaceOrder добавляет позицию покупателя в закупку. Первый заказ создаёт
// запись участия; повторное создание идемпотентно.
func (s *CartService) PlaceOrder(ctx context.Context, cartID, buyerID uuid.UUID, input PlaceOrderInput) (*models.Order, error) {
	cart, err := s.carts.GetByID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if !cart.Open || cart.Closed || cart.Cancelled {
		return nil, apperror.New(apperror.ErrCodeBadRequest, "закупка не принимает заказы")
	}
	if cart.SellerID == buyerID {
		return nil, apperror.New(apperror.ErrCodeBadRequest, "организатор не может участвовать в своей закупке")
	}
	if input.Price <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "цена должна быть положительной")
	}
	if input.ProductLink == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "ссылка на товар обязательна")
	}

	order := &models.Order{
		CartID:            cartID,
		BuyerID:           buyerID,
		Price:             input.Price,
		ProductLink:       input.ProductLink,
		Description:       input.Description,
		Images:            input.Images,
		DeliveryRequested: input.DeliveryRequested,
		DeliveryFee:       input.DeliveryFee,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	created, err := s.carts.AddProgress(ctx, cartID, buyerID)
	if err != nil {
		return nil, err
	}

	if created && s.notifier != nil {
		_, _ = s.notifier.Dispatch(ctx, cart.SellerID, &buyerID, models.NotificationTypeOrder,
			"Новый участник закупки", "Покупатель присоединился к закупке",
			map[string]any{"cart_id": cartID.String(), "buyer_id": buyerID.String()})
	}

	return order, nil
}

// UpdateOrder изменяет позицию покупателя. Разрешено только пока заказ не принят.
func (s *CartService) UpdateOrder(ctx context.Context, orderID, callerID uuid.UUID, input PlaceOrderInput) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != callerID {
		return nil, apperror.ErrForbidden
	}

	if err := s.ensurePreAcceptance(ctx, order.CartID, order.BuyerID); err != nil {
		return nil, err
	}

	if input.Price <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "цена должна быть положительной")
	}
	if input.ProductLink == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "ссылка на товар обязательна")
	}

	order.Price = input.Price
	order.ProductLink = input.ProductLink
	order.Description = input.Description
	order.Images = input.Images
	order.DeliveryRequested = input.DeliveryRequested
	order.DeliveryFee = input.DeliveryFee

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}

// DeleteOrder удаляет позицию покупателя. Разрешено только пока заказ не принят.
func (s *CartService) DeleteOrder(ctx context.Context, orderID, callerID uuid.UUID) error {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.BuyerID != callerID {
		return apperror.ErrForbidden
	}

	if err := s.ensurePreAcceptance(ctx, order.CartID, order.BuyerID); err != nil {
		return err
	}

	return s.orders.Delete(ctx, orderID)
}

// ensurePreAcceptance проверяет, что участие покупателя ещё не принято организатором.
func (s *CartService) ensurePreAcceptance(ctx context.Context, cartID, buyerID uuid.UUID) error {
	progress, err := s.carts.GetProgress(ctx, cartID, buyerID)
	if err != nil {
		return err
	}

	switch progress.Status {
	case valueobject.ProgressStatusPlaced, valueobject.ProgressStatusInProgress:
		return nil
	}
	return apperror.New(apperror.ErrCodeBadRequest, "заказ нельзя изменить после принятия организатором")
}
