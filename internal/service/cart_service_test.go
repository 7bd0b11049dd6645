package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntokareva/groupbuy-backend/internal/domain/valueobject"
	"github.com/ntokareva/groupbuy-backend/internal/models"
	"github.com/ntokareva/groupbuy-backend/internal/pkg/apperror"
	"github.com/ntokareva/groupbuy-backend/internal/repository"
)

type fakeCartStore struct {
	carts    map[uuid.UUID]*models.Cart
	progress map[uuid.UUID]map[uuid.UUID]*models.Progress
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{
		carts:    make(map[uuid.UUID]*models.Cart),
		progress: make(map[uuid.UUID]map[uuid.UUID]*models.Progress),
	}
}

func (s *fakeCartStore) Create(ctx context.Context, cart *models.Cart) error {
	cart.ID = uuid.New()
	cart.Open = true
	s.carts[cart.ID] = cart
	s.progress[cart.ID] = make(map[uuid.UUID]*models.Progress)
	return nil
}

func (s *fakeCartStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	cart, ok := s.carts[id]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	return cart, nil
}

func (s *fakeCartStore) GetByIDWithProgress(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	return s.GetByID(ctx, id)
}

func (s *fakeCartStore) ListOpen(ctx context.Context, limit, offset int) ([]models.Cart, error) {
	var out []models.Cart
	for _, c := range s.carts {
		if c.Open {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *fakeCartStore) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Cart, error) {
	var out []models.Cart
	for _, c := range s.carts {
		if c.SellerID == sellerID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *fakeCartStore) AddProgress(ctx context.Context, cartID, buyerID uuid.UUID) (bool, error) {
	if _, ok := s.progress[cartID][buyerID]; ok {
		return false, nil
	}
	s.progress[cartID][buyerID] = &models.Progress{
		ID:      uuid.New(),
		CartID:  cartID,
		BuyerID: buyerID,
		Status:  valueobject.ProgressStatusPlaced,
	}
	return true, nil
}

func (s *fakeCartStore) GetProgress(ctx context.Context, cartID, buyerID uuid.UUID) (*models.Progress, error) {
	p, ok := s.progress[cartID][buyerID]
	if !ok {
		return nil, repository.ErrProgressNotFound
	}
	return p, nil
}

type fakeOrderStore struct {
	orders map[uuid.UUID]*models.Order
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[uuid.UUID]*models.Order)}
}

func (s *fakeOrderStore) Create(ctx context.Context, order *models.Order) error {
	order.ID = uuid.New()
	order.Status = valueobject.ProgressStatusPlaced
	s.orders[order.ID] = order
	return nil
}

func (s *fakeOrderStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

func (s *fakeOrderStore) ListByCart(ctx context.Context, cartID uuid.UUID) ([]models.Order, error) {
	var out []models.Order
	for _, o := range s.orders {
		if o.CartID == cartID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *fakeOrderStore) ListByCartAndBuyer(ctx context.Context, cartID, buyerID uuid.UUID) ([]models.Order, error) {
	var out []models.Order
	for _, o := range s.orders {
		if o.CartID == cartID && o.BuyerID == buyerID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *fakeOrderStore) Update(ctx context.Context, order *models.Order) error {
	s.orders[order.ID] = order
	return nil
}

func (s *fakeOrderStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.orders[id]; !ok {
		return repository.ErrOrderNotFound
	}
	delete(s.orders, id)
	return nil
}

func validCartInput() CreateCartInput {
	now := time.Now()
	return CreateCartInput{
		Platform:             "poizon",
		Title:                "Кроссовки, партия август",
		OpenDate:             now,
		CloseDate:            now.Add(7 * 24 * time.Hour),
		ExpectedDeliveryDate: now.Add(30 * 24 * time.Hour),
		ExchangeRate:         13.2,
	}
}

func TestCreateCart_Valid(t *testing.T) {
	svc := NewCartService(newFakeCartStore(), newFakeOrderStore(), nil)

	cart, err := svc.CreateCart(context.Background(), uuid.New(), validCartInput())
	require.NoError(t, err)
	assert.Equal(t, valueobject.CartPlatformPoizon, cart.Platform)
	assert.True(t, cart.Open)
}

func TestCreateCart_UnknownPlatform(t *testing.T) {
	svc := NewCartService(newFakeCartStore(), newFakeOrderStore(), nil)

	input := validCartInput()
	input.Platform = "wildberries"
	_, err := svc.CreateCart(context.Background(), uuid.New(), input)
	assert.Error(t, err)
}

func TestCreateCart_DatesOutOfOrder(t *testing.T) {
	svc := NewCartService(newFakeCartStore(), newFakeOrderStore(), nil)

	input := validCartInput()
	input.CloseDate = input.OpenDate.Add(-time.Hour)
	_, err := svc.CreateCart(context.Background(), uuid.New(), input)
	assert.Error(t, err)
}

func TestPlaceOrder_CreatesProgressOnce(t *testing.T) {
	store := newFakeCartStore()
	orders := newFakeOrderStore()
	notifier := &fakeNotifier{}
	svc := NewCartService(store, orders, notifier)

	sellerID := uuid.New()
	cart, err := svc.CreateCart(context.Background(), sellerID, validCartInput())
	require.NoError(t, err)

	buyerID := uuid.New()
	input := PlaceOrderInput{Price: 500, ProductLink: "https://poizon.example/item/1"}

	_, err = svc.PlaceOrder(context.Background(), cart.ID, buyerID, input)
	require.NoError(t, err)

	_, err = svc.PlaceOrder(context.Background(), cart.ID, buyerID, input)
	require.NoError(t, err)

	// Два заказа, одна запись участия, одно уведомление о присоединении
	assert.Len(t, orders.orders, 2)
	assert.Len(t, store.progress[cart.ID], 1)
	assert.Len(t, notifier.calls, 1)
	assert.Equal(t, sellerID, notifier.calls[0].userID)
}

func TestPlaceOrder_ClosedCart(t *testing.T) {
	store := newFakeCartStore()
	svc := NewCartService(store, newFakeOrderStore(), nil)

	cart, err := svc.CreateCart(context.Background(), uuid.New(), validCartInput())
	require.NoError(t, err)
	store.carts[cart.ID].Closed = true

	_, err = svc.PlaceOrder(context.Background(), cart.ID, uuid.New(), PlaceOrderInput{Price: 100, ProductLink: "https://x"})
	assert.Error(t, err)
}

func TestPlaceOrder_SellerCannotJoin(t *testing.T) {
	svc := NewCartService(newFakeCartStore(), newFakeOrderStore(), nil)

	sellerID := uuid.New()
	cart, err := svc.CreateCart(context.Background(), sellerID, validCartInput())
	require.NoError(t, err)

	_, err = svc.PlaceOrder(context.Background(), cart.ID, sellerID, PlaceOrderInput{Price: 100, ProductLink: "https://x"})
	assert.Error(t, err)
}

func TestUpdateOrder_BlockedAfterAcceptance(t *testing.T) {
	store := newFakeCartStore()
	orders := newFakeOrderStore()
	svc := NewCartService(store, orders, nil)

	cart, err := svc.CreateCart(context.Background(), uuid.New(), validCartInput())
	require.NoError(t, err)

	buyerID := uuid.New()
	order, err := svc.PlaceOrder(context.Background(), cart.ID, buyerID, PlaceOrderInput{Price: 100, ProductLink: "https://x"})
	require.NoError(t, err)

	// До принятия заказ можно менять
	updated, err := svc.UpdateOrder(context.Background(), order.ID, buyerID, PlaceOrderInput{Price: 150, ProductLink: "https://x"})
	require.NoError(t, err)
	assert.Equal(t, float64(150), updated.Price)

	// После принятия — нельзя
	store.progress[cart.ID][buyerID].Status = valueobject.ProgressStatusAccepted
	_, err = svc.UpdateOrder(context.Background(), order.ID, buyerID, PlaceOrderInput{Price: 200, ProductLink: "https://x"})
	assert.Error(t, err)
}

func TestDeleteOrder_OwnerOnly(t *testing.T) {
	store := newFakeCartStore()
	orders := newFakeOrderStore()
	svc := NewCartService(store, orders, nil)

	cart, err := svc.CreateCart(context.Background(), uuid.New(), validCartInput())
	require.NoError(t, err)

	buyerID := uuid.New()
	order, err := svc.PlaceOrder(context.Background(), cart.ID, buyerID, PlaceOrderInput{Price: 100, ProductLink: "https://x"})
	require.NoError(t, err)

	err = svc.DeleteOrder(context.Background(), order.ID, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	err = svc.DeleteOrder(context.Background(), order.ID, buyerID)
	assert.NoError(t, err)
}
