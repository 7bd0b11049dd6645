package valueobject

import "github.com/ntokareva/groupbuy-backend/internal/pkg/apperror"

// ProgressStatus — статус участия покупателя в закупке.
type ProgressStatus string

const (
	ProgressStatusPlaced     ProgressStatus = "placed"
	ProgressStatusInProgress ProgressStatus = "in_progress"
	ProgressStatusAccepted   ProgressStatus = "accepted"
	ProgressStatusShipped    ProgressStatus = "shipped"
	ProgressStatusDelivered  ProgressStatus = "delivered"
	ProgressStatusSettled    ProgressStatus = "settled"
	ProgressStatusDenied     ProgressStatus = "denied"
	ProgressStatusCancelled  ProgressStatus = "cancelled"
)

func (s ProgressStatus) IsValid() bool {
	switch s {
	case ProgressStatusPlaced, ProgressStatusInProgress, ProgressStatusAccepted,
		ProgressStatusShipped, ProgressStatusDelivered, ProgressStatusSettled,
		ProgressStatusDenied, ProgressStatusCancelled:
		return true
	}
	return false
}

// IsTerminal сообщает, является ли статус конечным.
func (s ProgressStatus) IsTerminal() bool {
	switch s {
	case ProgressStatusSettled, ProgressStatusDenied, ProgressStatusCancelled:
		return true
	}
	return false
}

func (s ProgressStatus) CanTransitionTo(newStatus ProgressStatus) bool {
	transitions := map[ProgressStatus][]ProgressStatus{
		ProgressStatusPlaced:     {ProgressStatusInProgress, ProgressStatusDenied, ProgressStatusCancelled},
		ProgressStatusInProgress: {ProgressStatusAccepted, ProgressStatusDenied, ProgressStatusCancelled},
		ProgressStatusAccepted:   {ProgressStatusShipped, ProgressStatusDenied},
		ProgressStatusShipped:    {ProgressStatusDelivered, ProgressStatusDenied},
		ProgressStatusDelivered:  {ProgressStatusSettled, ProgressStatusDenied},
		ProgressStatusSettled:    {},
		ProgressStatusDenied:     {},
		ProgressStatusCancelled:  {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == newStatus {
			return true
		}
	}
	return false
}

func NewProgressStatus(status string) (ProgressStatus, error) {
	s := ProgressStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус участия")
	}
	return s, nil
}

// CartPlatform — внешняя площадка, с которой организатор ведёт закупку.
type CartPlatform string

const (
	CartPlatformPoizon   CartPlatform = "poizon"
	CartPlatformTaobao   CartPlatform = "taobao"
	CartPlatformPandabuy CartPlatform = "pandabuy"
)

func (p CartPlatform) IsValid() bool {
	switch p {
	case CartPlatformPoizon, CartPlatformTaobao, CartPlatformPandabuy:
		return true
	}
	return false
}

func NewCartPlatform(platform string) (CartPlatform, error) {
	p := CartPlatform(platform)
	if !p.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "неизвестная площадка закупки")
	}
	return p, nil
}
