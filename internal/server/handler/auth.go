package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/greentrace/carbonledger/internal/ledger"
	"go.uber.org/zap"
)

// actorKey is the gin context key holding the verified caller identity.
const actorKey = "carbon.actor"

// devActorHeader names the caller directly when header identity is enabled.
// Development convenience only; it removes the unforgeability guarantee.
const devActorHeader = "X-Carbon-Actor"

// TokenVerifier validates an actor token and returns the identity it carries.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// ActorAuth returns a middleware that resolves the caller identity for
// mutating routes. Failures use the reserved Unauthorized code (403); core
// ledger logic never emits it, so the access layer owns that slot.
func ActorAuth(verifier TokenVerifier, allowHeaderIdentity bool, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if strings.HasPrefix(authz, "Bearer ") {
			actor, err := verifier.Verify(strings.TrimPrefix(authz, "Bearer "))
			if err != nil {
				logger.Debug("token rejected", zap.Error(err))
				abortUnauthorized(c)
				return
			}
			c.Set(actorKey, actor)
			c.Next()
			return
		}

		if allowHeaderIdentity {
			if actor := c.GetHeader(devActorHeader); actor != "" {
				c.Set(actorKey, actor)
				c.Next()
				return
			}
		}

		abortUnauthorized(c)
	}
}

func abortUnauthorized(c *gin.Context) {
	code := ledger.Code(ledger.ErrUnauthorized)
	RecordRejection(code)
	c.AbortWithStatusJSON(code, gin.H{
		"error": ledger.ErrUnauthorized.Error(),
		"code":  code,
	})
}

// callerActor returns the verified caller identity set by ActorAuth.
func callerActor(c *gin.Context) string {
	v, _ := c.Get(actorKey)
	actor, _ := v.(string)
	return actor
}
