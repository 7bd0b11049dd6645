package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ntokareva/groupbuy-backend/internal/http/handlers/common"
	"github.com/ntokareva/groupbuy-backend/internal/pkg/apperror"
	"github.com/ntokareva/groupbuy-backend/internal/repository"
)

// respondServiceError переводит ошибку сервисного слоя в HTTP ответ.
func respondServiceError(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		common.RespondError(c, appErr.HTTPStatus, appErr.Message)
		return
	}

	switch {
	case errors.Is(err, repository.ErrCartNotFound):
		common.RespondError(c, http.StatusNotFound, "закупка не найдена")
	case errors.Is(err, repository.ErrProgressNotFound):
		common.RespondError(c, http.StatusNotFound, "участие в закупке не найдено")
	case errors.Is(err, repository.ErrOrderNotFound):
		common.RespondError(c, http.StatusNotFound, "заказ не найден")
	case errors.Is(err, repository.ErrNotificationNotFound):
		common.RespondError(c, http.StatusNotFound, "уведомление не найдено")
	case errors.Is(err, repository.ErrUserNotFound):
		common.RespondError(c, http.StatusNotFound, "пользователь не найден")
	case errors.Is(err, repository.ErrPushTokenNotFound):
		common.RespondError(c, http.StatusNotFound, "push-токен не найден")
	case errors.Is(err, repository.ErrProgressConflict):
		common.RespondError(c, http.StatusConflict, "статус участия изменился, повторите запрос")
	default:
		common.RespondError(c, http.StatusInternalServerError, "внутренняя ошибка сервера")
	}
}
