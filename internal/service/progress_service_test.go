package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntokareva/groupbuy-backend/internal/domain/valueobject"
	"github.com/ntokareva/groupbuy-backend/internal/logger"
	"github.com/ntokareva/groupbuy-backend/internal/models"
	"github.com/ntokareva/groupbuy-backend/internal/pkg/apperror"
	"github.com/ntokareva/groupbuy-backend/internal/repository"
)

func TestMain(m *testing.M) {
	logger.Init("error")
	m.Run()
}

// fakeProgressStore — in-memory реализация ProgressStore с условными
// обновлениями, повторяющая семантику репозитория.
type fakeProgressStore struct {
	mu       sync.Mutex
	cart     *models.Cart
	progress map[uuid.UUID]*models.Progress
	// conflicts заставляет ApplyTransition проиграть гонку указанное число раз
	conflicts int
	// conflictMutation — статус, в который соперник уводит запись при гонке
	conflictMutation valueobject.ProgressStatus
	finished         bool
}

func newFakeProgressStore(cart *models.Cart) *fakeProgressStore {
	return &fakeProgressStore{
		cart:     cart,
		progress: make(map[uuid.UUID]*models.Progress),
	}
}

func (s *fakeProgressStore) addBuyer(buyerID uuid.UUID, status valueobject.ProgressStatus) *models.Progress {
	p := &models.Progress{
		ID:      uuid.New(),
		CartID:  s.cart.ID,
		BuyerID: buyerID,
		Status:  status,
	}
	s.progress[buyerID] = p
	return p
}

func (s *fakeProgressStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	if s.cart.ID != id {
		return nil, repository.ErrCartNotFound
	}
	copied := *s.cart
	return &copied, nil
}

func (s *fakeProgressStore) GetProgress(ctx context.Context, cartID, buyerID uuid.UUID) (*models.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.progress[buyerID]
	if !ok || p.CartID != cartID {
		return nil, repository.ErrProgressNotFound
	}
	copied := *p
	return &copied, nil
}

func (s *fakeProgressStore) ListProgress(ctx context.Context, cartID uuid.UUID) ([]models.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Progress
	for _, p := range s.progress {
		out = append(out, *p)
	}
	return out, nil
}

func (s *fakeProgressStore) ApplyTransition(ctx context.Context, cartID, buyerID uuid.UUID, expected valueobject.ProgressStatus, upd repository.ProgressUpdate) (*models.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.progress[buyerID]
	if !ok {
		return nil, repository.ErrProgressNotFound
	}

	if s.conflicts > 0 {
		s.conflicts--
		if s.conflictMutation != "" {
			p.Status = s.conflictMutation
		}
		return nil, repository.ErrProgressConflict
	}
	if p.Status != expected {
		return nil, repository.ErrProgressConflict
	}

	p.Status = upd.Status
	if upd.PaymentProof != nil {
		p.PaymentProof = upd.PaymentProof
	}
	if upd.PaymentConfirmed != nil {
		p.PaymentConfirmed = *upd.PaymentConfirmed
	}
	if upd.PaymentRejected != nil {
		p.PaymentRejected = *upd.PaymentRejected
	}
	if upd.BuyerFinalized != nil {
		p.BuyerFinalized = *upd.BuyerFinalized
	}
	if upd.SellerFinalized != nil {
		p.SellerFinalized = *upd.SellerFinalized
	}
	if upd.Rating != nil {
		p.Rating = upd.Rating
	}
	if upd.FeedbackText != nil {
		p.FeedbackText = upd.FeedbackText
	}
	if upd.FeedbackImages != nil {
		p.FeedbackImages = upd.FeedbackImages
	}

	copied := *p
	return &copied, nil
}

func (s *fakeProgressStore) MarkFinished(ctx context.Context, cartID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished = true
	return nil
}

type fakeSyncer struct {
	mu       sync.Mutex
	statuses []valueobject.ProgressStatus
}

func (f *fakeSyncer) SyncStatus(ctx context.Context, cartID, buyerID uuid.UUID, status valueobject.ProgressStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, status)
	return nil
}

type dispatched struct {
	userID uuid.UUID
	ntype  string
	title  string
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []dispatched
}

func (f *fakeNotifier) Dispatch(ctx context.Context, userID uuid.UUID, senderID *uuid.UUID, ntype, title, body string, payload map[string]any) (*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, dispatched{userID: userID, ntype: ntype, title: title})
	return &models.Notification{UserID: userID, Type: ntype, Title: title, Body: body}, nil
}

type fakeEarnings struct {
	mu      sync.Mutex
	sellers []uuid.UUID
}

func (f *fakeEarnings) Recompute(ctx context.Context, sellerID uuid.UUID) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sellers = append(f.sellers, sellerID)
	return 100, nil
}

type progressFixture struct {
	store    *fakeProgressStore
	syncer   *fakeSyncer
	notifier *fakeNotifier
	earnings *fakeEarnings
	svc      *ProgressService
	sellerID uuid.UUID
	buyerID  uuid.UUID
	cartID   uuid.UUID
}

func newProgressFixture(status valueobject.ProgressStatus) *progressFixture {
	sellerID := uuid.New()
	buyerID := uuid.New()
	cart := &models.Cart{
		ID:           uuid.New(),
		SellerID:     sellerID,
		ExchangeRate: 13.5,
		Open:         true,
	}

	store := newFakeProgressStore(cart)
	store.addBuyer(buyerID, status)

	syncer := &fakeSyncer{}
	notifier := &fakeNotifier{}
	earnings := &fakeEarnings{}

	return &progressFixture{
		store:    store,
		syncer:   syncer,
		notifier: notifier,
		earnings: earnings,
		svc:      NewProgressService(store, syncer, notifier, earnings),
		sellerID: sellerID,
		buyerID:  buyerID,
		cartID:   cart.ID,
	}
}

func TestSubmitPaymentProof_FromPlaced(t *testing.T) {
	f := newProgressFixture(valueobject.ProgressStatusPlaced)

	progress, err := f.svc.SubmitPaymentProof(context.Background(), f.cartID, f.buyerID, f.buyerID, "media/proof-1")
	require.NoError(t, err)

	assert.Equal(t, valueobject.ProgressStatusInProgress, progress.Status)
	require.NotNil(t, progress.PaymentProof)
	assert.Equal(t, "media/proof-1", *progress.PaymentProof)
	assert.False(t, progress.PaymentRejected)

	// Организатор получает уведомление о подтверждении
	require.Len(t, f.notifier.calls, 1)
	assert.Equal(t, f.sellerID, f.notifier.calls[0].userID)
	assert.Equal(t, models.NotificationTypePaymentProof, f.notifier.calls[0].ntype)
}

func TestSubmitPaymentProof_ResubmissionClearsRejection(t *testing.T) {
	f := newProgressFixture(valueobject.ProgressStatusInProgress)
	f.store.progress[f.buyerID].PaymentRejected = true

	progress, err := f.svc.SubmitPaymentProof(context.Background(), f.cartID, f.buyerID, f.buyerID, "media/proof-2")
	require.NoError(t, err)

	assert.Equal(t, valueobject.ProgressStatusInProgress, progress.Status)
	assert.False(t, progress.PaymentRejected)
}

func TestSubmitPaymentProof_OnlyBuyer(t *testing.T) {
	f := newProgressFixture(valueobject.ProgressStatusPlaced)

	_, err := f.svc.SubmitPaymentProof(context.Background(), f.cartID, f.buyerID, f.sellerID, "media/proof")
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestAccept_RequiresProofOnFile(t *testing.T) {
	f := newProgressFixture(valueobject.ProgressStatusInProgress)

	_, err := f.svc.Accept(context.Background(), f.cartID, f.buyerID, f.sellerID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "нет подтверждения оплаты")
}

func TestAccept_ConfirmsPayment(t *testing.T) {
	f := newProgressFixture(valueobject.ProgressStatusInProgress)
	proof := "media/proof"
	f.store.progress[f.buyerID].PaymentProof = &proof

	progress, err := f.svc.Accept(context.Background(), f.cartID, f.buyerID, f.sellerID)
	require.NoError(t, err)

	assert.Equal(t, valueobject.ProgressStatusAccepted, progress.Status)
	assert.True(t, progress.PaymentConfirmed)

	// Статус зеркалируется в заказы покупателя
	require.Len(t, f.syncer.statuses, 1)
	assert.Equal(t, valueobject.ProgressStatusAccepted, f.syncer.statuses[0])
}

func TestAccept_OnlySeller(t *testing.T) {
	f := newProgressFixture(valueobject.ProgressStatusInProgress)

	_, err := f.svc.Accept(context.Background(), f.cartID, f.buyerID, f.buyerID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestRejectProof_KeepsStatus(t *testing.T) {
	f := newProgressFixture(valueobject.ProgressStatusInProgress)
	proof := "media/proof"
	f.store.progress[f.buyerID].PaymentProof = &proof

	progress, err := f.svc.RejectProof(context.Background(), f.cartID, f.buyerID, f.sellerID)
	require.NoError(t, err)

	assert.Equal(t, valueobject.ProgressStatusInProgress, progress.Status)
	assert.True(t, progress.PaymentRejected)

	// Покупатель получает уведомление об отклонении
	require.Len(t, f.notifier.calls, 1)
	assert.Equal(t, f.buyerID, f.notifier.calls[0].userID)
}

func TestInvalidTransition_NamesBothStatuses(t *testing.T) {
	f := newProgressFixture(valueobject.ProgressStatusPlaced)

	_, err := f.svc.Ship(context.Background(), f.cartID, f.buyerID, f.sellerID)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
	assert.Contains(t, err.Error(), "placed")
	assert.Contains(t, err.Error(), "shipped")
}

func TestCancel_AfterAcceptanceFails(t *testing.T) {
	f := newProgressFixture(valueobject.ProgressStatusAccepted)

	_, err := f.svc.Cancel(context.Background(), f.cartID, f.buyerID, f.buyerID)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestCancel_BeforeAcceptance(t *testing.T) {
	f := newProgressFixture(valueobject.ProgressStatusInProgress)

	progress, err := f.svc.Cancel(context.Background(), f.cartID, f.buyerID, f.buyerID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.ProgressStatusCancelled, progress.Status)

	// Единственное участие конечно — закупка завершается
	assert.True(t, f.store.finished)
}

func TestDeny_FromAnyNonTerminal(t *testing.T) {
	for _, status := range []valueobject.ProgressStatus{
		valueobject.ProgressStatusPlaced,
		valueobject.ProgressStatusInProgress,
		valueobject.ProgressStatusAccepted,
		valueobject.ProgressStatusShipped,
		valueobject.ProgressStatusDelivered,
	} {
		f := newProgressFixture(status)
		progress, err := f.svc.Deny(context.Background(), f.cartID, f.buyerID, f.sellerID)
		require.NoError(t, err, "deny from %s", status)
		assert.Equal(t, valueobject.ProgressStatusDenied, progress.Status)
	}
}

func TestDeny_FromTerminalFails(t *testing.T) {
	f := newProgressFixture(valueobject.ProgressStatusCancelled)

	_, err := f.svc.Deny(context.Background(), f.cartID, f.buyerID, f.sellerID)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestBuyerFinalize_WithFeedback_SingleNotification(t *testing.T) {
	f := newProgressFixture(valueobject.ProgressStatusDelivered)

	rating := 5
	text := "Всё пришло целым, рекомендую"
	progress, err := f.svc.BuyerFinalize(context.Background(), f.cartID, f.buyerID, f.buyerID, &rating, &text, []string{"media/photo-1"})
	require.NoError(t, err)

	assert.Equal(t, valueobject.ProgressStatusSettled, progress.Status)
	assert.True(t, progress.BuyerFinalized)
	assert.False(t, progress.SellerFinalized)

	// Ровно одно уведомление организатору, и именно об отзыве
	require.Len(t, f.notifier.calls, 1)
	assert.Equal(t, f.sellerID, f.notifier.calls[0].userID)
	assert.Equal(t, models.NotificationTypeFeedback, f.notifier.calls[0].ntype)

	// Заработок не пересчитывается до встречного подтверждения
	assert.Empty(t, f.earnings.sellers)
}

func TestBuyerFinalize_WithoutFeedback_OrderNotification(t *testing.T) {
	f := newProgressFixture(valueobject.ProgressStatusDelivered)

	progress, err := f.svc.BuyerFinalize(context.Background(), f.cartID, f.buyerID, f.buyerID, nil, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, valueobject.ProgressStatusSettled, progress.Status)
	require.Len(t, f.notifier.calls, 1)
	assert.Equal(t, models.NotificationTypeOrder, f.notifier.calls[0].ntype)
}

func TestBuyerFinalize_RatingOutOfRange(t *testing.T) {
	f := newProgressFixture(valueobject.ProgressStatusDelivered)

	rating := 6
	_, err := f.svc.BuyerFinalize(context.Background(), f.cartID, f.buyerID, f.buyerID, &rating, nil, nil)
	assert.Error(t, err)
}

func TestBuyerFinalize_Twice(t *testing.T) {
	f := newProgressFixture(valueobject.ProgressStatusDelivered)

	_, err := f.svc.BuyerFinalize(context.Background(), f.cartID, f.buyerID, f.buyerID, nil, nil, nil)
	require.NoError(t, err)

	_, err = f.svc.BuyerFinalize(context.Background(), f.cartID, f.buyerID, f.buyerID, nil, nil, nil)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestSellerAck_RecomputesEarnings(t *testing.T) {
	f := newProgressFixture(valueobject.ProgressStatusDelivered)

	_, err := f.svc.BuyerFinalize(context.Background(), f.cartID, f.buyerID, f.buyerID, nil, nil, nil)
	require.NoError(t, err)

	progress, err := f.svc.SellerAck(context.Background(), f.cartID, f.buyerID, f.sellerID)
	require.NoError(t, err)

	assert.True(t, progress.BuyerFinalized)
	assert.True(t, progress.SellerFinalized)
	assert.True(t, progress.Settled())

	require.Len(t, f.earnings.sellers, 1)
	assert.Equal(t, f.sellerID, f.earnings.sellers[0])
}

func TestSellerAck_Idempotent(t *testing.T) {
	f := newProgressFixture(valueobject.ProgressStatusDelivered)

	_, err := f.svc.BuyerFinalize(context.Background(), f.cartID, f.buyerID, f.buyerID, nil, nil, nil)
	require.NoError(t, err)

	_, err = f.svc.SellerAck(context.Background(), f.cartID, f.buyerID, f.sellerID)
	require.NoError(t, err)

	progress, err := f.svc.SellerAck(context.Background(), f.cartID, f.buyerID, f.sellerID)
	require.NoError(t, err)
	assert.True(t, progress.SellerFinalized)

	// Повторное подтверждение не запускает пересчёт ещё раз
	assert.Len(t, f.earnings.sellers, 1)
}

func TestSellerAck_BeforeBuyerFails(t *testing.T) {
	f := newProgressFixture(valueobject.ProgressStatusDelivered)

	_, err := f.svc.SellerAck(context.Background(), f.cartID, f.buyerID, f.sellerID)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestTransition_RetriesOnceAfterConflict(t *testing.T) {
	f := newProgressFixture(valueobject.ProgressStatusPlaced)
	f.store.conflicts = 1

	progress, err := f.svc.SubmitPaymentProof(context.Background(), f.cartID, f.buyerID, f.buyerID, "media/proof")
	require.NoError(t, err)
	assert.Equal(t, valueobject.ProgressStatusInProgress, progress.Status)
}

func TestTransition_SurfacesConflictAfterRetry(t *testing.T) {
	f := newProgressFixture(valueobject.ProgressStatusPlaced)
	f.store.conflicts = 2

	_, err := f.svc.SubmitPaymentProof(context.Background(), f.cartID, f.buyerID, f.buyerID, "media/proof")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrProgressConflict) || apperror.IsConflict(err))
}

func TestRetry_RevalidatesOnFreshState(t *testing.T) {
	// После проигрыша гонки запись перечитывается: если соперник увёл её в
	// конечный статус, повторная валидация возвращает ошибку перехода.
	f := newProgressFixture(valueobject.ProgressStatusInProgress)
	f.store.conflicts = 1
	f.store.conflictMutation = valueobject.ProgressStatusDenied

	_, err := f.svc.Cancel(context.Background(), f.cartID, f.buyerID, f.buyerID)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestFinalizeCart_WaitsForAllBuyers(t *testing.T) {
	f := newProgressFixture(valueobject.ProgressStatusInProgress)
	otherBuyer := uuid.New()
	f.store.addBuyer(otherBuyer, valueobject.ProgressStatusAccepted)

	_, err := f.svc.Cancel(context.Background(), f.cartID, f.buyerID, f.buyerID)
	require.NoError(t, err)

	// Второй покупатель ещё в пути — закупка не завершается
	assert.False(t, f.store.finished)

	_, err = f.svc.Deny(context.Background(), f.cartID, otherBuyer, f.sellerID)
	require.NoError(t, err)
	assert.True(t, f.store.finished)
}

func TestConcurrent_DifferentBuyersNoConflict(t *testing.T) {
	f := newProgressFixture(valueobject.ProgressStatusPlaced)

	buyers := []uuid.UUID{f.buyerID}
	for i := 0; i < 7; i++ {
		id := uuid.New()
		f.store.addBuyer(id, valueobject.ProgressStatusPlaced)
		buyers = append(buyers, id)
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(buyers))
	for _, buyerID := range buyers {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := f.svc.SubmitPaymentProof(context.Background(), f.cartID, id, id, "media/proof")
			errs <- err
		}(buyerID)
	}
	wg.Wait()
	close(errs)

	// Записи независимы: переходы разных покупателей не конфликтуют
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestConcurrent_SamePairSingleWinner(t *testing.T) {
	f := newProgressFixture(valueobject.ProgressStatusInProgress)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Cancel(context.Background(), f.cartID, f.buyerID, f.buyerID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		} else {
			// Проигравший получает ошибку перехода после перечитывания
			assert.True(t, apperror.IsInvalidTransition(err) || apperror.IsConflict(err))
		}
	}
	assert.Equal(t, 1, succeeded)

	progress, err := f.store.GetProgress(context.Background(), f.cartID, f.buyerID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.ProgressStatusCancelled, progress.Status)
}

type failingNotifier struct{}

func (failingNotifier) Dispatch(ctx context.Context, userID uuid.UUID, senderID *uuid.UUID, ntype, title, body string, payload map[string]any) (*models.Notification, error) {
	return nil, errors.New("notification store down")
}

type failingEarnings struct{}

func (failingEarnings) Recompute(ctx context.Context, sellerID uuid.UUID) (float64, error) {
	return 0, errors.New("earnings recompute failed")
}

func TestSideEffectFailures_DoNotUnwindTransition(t *testing.T) {
	f := newProgressFixture(valueobject.ProgressStatusDelivered)
	svc := NewProgressService(f.store, f.syncer, failingNotifier{}, failingEarnings{})

	progress, err := svc.BuyerFinalize(context.Background(), f.cartID, f.buyerID, f.buyerID, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, valueobject.ProgressStatusSettled, progress.Status)

	_, err = svc.SellerAck(context.Background(), f.cartID, f.buyerID, f.sellerID)
	require.NoError(t, err)

	stored, err := f.store.GetProgress(context.Background(), f.cartID, f.buyerID)
	require.NoError(t, err)
	assert.True(t, stored.Settled())
}

func TestLifecycle_PlacedToSettledRecomputesEarnings(t *testing.T) {
	f := newProgressFixture(valueobject.ProgressStatusPlaced)

	// Заказ на 500 юаней, курс закупки 13.5
	orders := &fakeEarningsOrders{total: 500 * 13.5}
	users := &fakeEarningsUsers{}
	svc := NewProgressService(f.store, f.syncer, f.notifier, NewEarningsService(orders, users))

	ctx := context.Background()

	progress, err := svc.SubmitPaymentProof(ctx, f.cartID, f.buyerID, f.buyerID, "media/proof")
	require.NoError(t, err)
	assert.Equal(t, valueobject.ProgressStatusInProgress, progress.Status)

	progress, err = svc.Accept(ctx, f.cartID, f.buyerID, f.sellerID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.ProgressStatusAccepted, progress.Status)
	assert.True(t, progress.PaymentConfirmed)

	progress, err = svc.Ship(ctx, f.cartID, f.buyerID, f.sellerID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.ProgressStatusShipped, progress.Status)

	progress, err = svc.MarkDelivered(ctx, f.cartID, f.buyerID, f.sellerID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.ProgressStatusDelivered, progress.Status)

	rating := 5
	progress, err = svc.BuyerFinalize(ctx, f.cartID, f.buyerID, f.buyerID, &rating, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, valueobject.ProgressStatusSettled, progress.Status)
	assert.True(t, progress.BuyerFinalized)

	// До встречного подтверждения заработок не трогается
	assert.Empty(t, users.written)

	progress, err = svc.SellerAck(ctx, f.cartID, f.buyerID, f.sellerID)
	require.NoError(t, err)
	assert.True(t, progress.Settled())

	// Пересчёт записал цену заказа по курсу закупки
	assert.Equal(t, []float64{6750}, users.written)

	// Статусы зеркалировались в заказы в порядке переходов
	assert.Equal(t, []valueobject.ProgressStatus{
		valueobject.ProgressStatusInProgress,
		valueobject.ProgressStatusAccepted,
		valueobject.ProgressStatusShipped,
		valueobject.ProgressStatusDelivered,
		valueobject.ProgressStatusSettled,
		valueobject.ProgressStatusSettled,
	}, f.syncer.statuses)

	// Единственное участие конечно — закупка завершена
	assert.True(t, f.store.finished)
}

func TestSetStatus_DirectOnlyForSellerSteps(t *testing.T) {
	f := newProgressFixture(valueobject.ProgressStatusAccepted)

	progress, err := f.svc.SetStatus(context.Background(), f.cartID, f.buyerID, f.sellerID, valueobject.ProgressStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, valueobject.ProgressStatusShipped, progress.Status)

	_, err = f.svc.SetStatus(context.Background(), f.cartID, f.buyerID, f.sellerID, valueobject.ProgressStatusSettled)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "нельзя выставить напрямую")
}
