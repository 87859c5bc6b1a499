package public

import (
	handlershared "github.com/shopvd/backoffice/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, err error) {
	handlershared.RespondError(c, err)
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := handlershared.BindJSON(c, dest); err != nil {
		respondError(c, err)
		return false
	}
	return true
}
