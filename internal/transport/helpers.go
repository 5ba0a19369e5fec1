package transport

import (
	"errors"
	"net/http"

	"github.com/UnendingLoop/Outpainter/internal/model"
	"github.com/UnendingLoop/Outpainter/internal/mwlogger"
	"github.com/wb-go/wbf/ginext"
)

// errorCodeDefiner - любая ошибка пайплайна отдаётся как 500, включая невалидный payload
func errorCodeDefiner(error) int {
	return http.StatusInternalServerError
}

// respondError - ошибка в том же конверте, что и успешный ответ: message заполнен, data = null
func respondError(ctx *ginext.Context, err error) {
	logger := mwlogger.LoggerFromContext(ctx.Request.Context())
	event := logger.Error()
	if errors.Is(err, model.ErrValidation) {
		event = logger.Warn()
	}
	event.Err(err).Msg("Request failed")

	ctx.JSON(errorCodeDefiner(err), model.NewEnvelope(err.Error(), nil))
}
