package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ntokareva/groupbuy-backend/internal/dto"
	"github.com/ntokareva/groupbuy-backend/internal/http/handlers/common"
	"github.com/ntokareva/groupbuy-backend/internal/models"
	"github.com/ntokareva/groupbuy-backend/internal/repository"
)

// PushHandler обслуживает регистрацию мобильных push-токенов.
type PushHandler struct {
	tokens *repository.PushRepository
}

// NewPushHandler создаёт новый хэндлер.
func NewPushHandler(tokens *repository.PushRepository) *PushHandler {
	return &PushHandler{tokens: tokens}
}

// RegisterToken обрабатывает PUT /push/token. У пользователя ровно одно
// активное устройство: повторная регистрация замещает прежний токен.
func (h *PushHandler) RegisterToken(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.RegisterPushTokenRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if req.Platform != models.PushPlatformAndroid && req.Platform != models.PushPlatformIOS {
		common.RespondBadRequest(c, "платформа должна быть android или ios")
		return
	}

	token := &models.PushToken{
		UserID:   userID,
		Token:    req.Token,
		Platform: req.Platform,
	}
	if err := h.tokens.Upsert(c.Request.Context(), token); err != nil {
		respondServiceError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, token)
}

// DeleteToken обрабатывает DELETE /push/token.
func (h *PushHandler) DeleteToken(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	if err := h.tokens.Delete(c.Request.Context(), userID); err != nil {
		respondServiceError(c, err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, "push-токен удалён", nil)
}
