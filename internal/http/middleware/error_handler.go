package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/engagement-backend/internal/interface/http/response"
)

// ErrorHandler превращает ошибки, добавленные через c.Error, в единый JSON-ответ.
// Ответ уже записан обработчиком, если тот вызвал response.* сам.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}
		response.Error(c, c.Errors.Last().Err)
	}
}
