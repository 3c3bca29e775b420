package middlewares

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spendsmart/spendsmart/internal/observability"
	"github.com/spendsmart/spendsmart/internal/session"
)

// SessionCookieName is the cookie carrying the opaque session id.
const SessionCookieName = "spendsmart_sid"

// Keep this small interface so tests can fake it easily.
type SessionGetter interface {
	Get(ctx context.Context, id string) (session.Data, error)
}

type SessionAuth struct {
	sessions SessionGetter
	metrics  *observability.Prom
}

// NewSessionAuth builds the gate every ledger route sits behind. metrics may
// be nil (handler unit tests).
func NewSessionAuth(sessions SessionGetter, metrics *observability.Prom) *SessionAuth {
	return &SessionAuth{sessions: sessions, metrics: metrics}
}

func (m *SessionAuth) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(SessionCookieName)

		if err != nil || cookie == "" {
			m.countLookup("miss")
			abortUnauthorized(c)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		data, err := m.sessions.Get(ctx, cookie)

		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				m.countLookup("miss")
			} else {
				m.countLookup("error")
			}

			abortUnauthorized(c)
			return
		}

		m.countLookup("hit")

		// Stash the identity on the context; handlers read it back and pass
		// the user id into the ledger operations explicitly.
		c.Set(CtxSession, data)
		c.Set(CtxUserID, data.UserID)

		c.Next()
	}
}

func (m *SessionAuth) countLookup(result string) {
	if m.metrics != nil {
		m.metrics.SessionLookups.WithLabelValues(result).Inc()
	}
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    "unauthorized",
			"message": "Unauthorized",
		},
	})
}

// Optional helpers so handlers don’t need to know the magic keys.

func SessionFromContext(c *gin.Context) (session.Data, bool) {
	v, ok := c.Get(CtxSession)
	if !ok {
		return session.Data{}, false
	}
	data, ok := v.(session.Data)
	return data, ok
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}
