package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/engagement-backend/internal/auth"
	"github.com/ignatzorin/engagement-backend/internal/domain/entity"
	"github.com/ignatzorin/engagement-backend/internal/domain/valueobject"
	"github.com/ignatzorin/engagement-backend/internal/interface/http/response"
)

// ContextActorKey - ключ актора в gin.Context.
const ContextActorKey = "actor"

// AuthMiddleware проверяет JWT access токен и кладёт актора в контекст.
func AuthMiddleware(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			response.Unauthorized(c, "требуется авторизация")
			return
		}

		actor, err := tokens.Actor(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			response.Error(c, err)
			return
		}

		c.Set(ContextActorKey, actor)
		c.Next()
	}
}

// RequireRole пропускает только актора с указанной ролью.
func RequireRole(role valueobject.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok || actor.Role() != role {
			response.Forbidden(c, "недостаточно прав")
			return
		}
		c.Next()
	}
}

func ActorFrom(c *gin.Context) (entity.Actor, bool) {
	value, exists := c.Get(ContextActorKey)
	if !exists {
		return nil, false
	}
	actor, ok := value.(entity.Actor)
	return actor, ok
}
