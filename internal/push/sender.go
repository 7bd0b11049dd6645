package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Result — итог попытки доставки push-сообщения.
type Result int

const (
	// ResultDelivered — провайдер принял сообщение.
	ResultDelivered Result = iota
	// ResultInvalidToken — токен окончательно отозван, повторять отправку бессмысленно.
	ResultInvalidToken
	// ResultTransient — временная ошибка провайдера или сети.
	ResultTransient
)

// Sender описывает провайдера push-доставки.
type Sender interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) (Result, error)
}

// HTTPSender отправляет сообщения через HTTP API провайдера (формат FCM).
type HTTPSender struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPSender создаёт клиент провайдера.
func NewHTTPSender(apiURL, apiKey string) *HTTPSender {
	return &HTTPSender{
		apiURL: apiURL,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// message — одно логическое сообщение с подсказками для обеих платформ.
type message struct {
	To           string            `json:"to"`
	Notification notificationBlock `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
	Android      androidBlock      `json:"android"`
	APNS         apnsBlock         `json:"apns"`
}

type notificationBlock struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type androidBlock struct {
	Priority string `json:"priority"`
}

type apnsBlock struct {
	Headers map[string]string `json:"headers"`
}

type sendResponse struct {
	Failure int `json:"failure"`
	Results []struct {
		Error string `json:"error"`
	} `json:"results"`
}

// Send отправляет сообщение на устройство. Различает окончательный отзыв
// токена и временные сбои: на первый вызывающая сторона реагирует пометкой
// токена, на вторые — только логированием.
func (s *HTTPSender) Send(ctx context.Context, token, title, body string, data map[string]string) (Result, error) {
	payload := message{
		To: token,
		Notification: notificationBlock{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: androidBlock{
			Priority: "high",
		},
		APNS: apnsBlock{
			Headers: map[string]string{"apns-priority": "10"},
		},
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return ResultTransient, fmt.Errorf("push: не удалось сериализовать сообщение: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(raw))
	if err != nil {
		return ResultTransient, fmt.Errorf("push: не удалось создать запрос: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return ResultTransient, fmt.Errorf("push: ошибка отправки: %w", err)
	}
	defer resp.Body.Close()

	// 404/410 от провайдера означают, что адресат больше не существует
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return ResultInvalidToken, nil
	}

	if resp.StatusCode != http.StatusOK {
		return ResultTransient, fmt.Errorf("push: провайдер вернул статус %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return ResultTransient, fmt.Errorf("push: не удалось прочитать ответ: %w", err)
	}

	var parsed sendResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return ResultTransient, fmt.Errorf("push: не удалось разобрать ответ: %w", err)
	}

	if parsed.Failure > 0 {
		for _, result := range parsed.Results {
			switch result.Error {
			case "NotRegistered", "InvalidRegistration", "UNREGISTERED":
				return ResultInvalidToken, nil
			}
		}
		return ResultTransient, fmt.Errorf("push: провайдер сообщил об ошибке доставки")
	}

	return ResultDelivered, nil
}
