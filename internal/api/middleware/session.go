package middleware

import (
	"context"
	"net/http"
	"time"

	apiContext "qrpack/internal/api/context"
	"qrpack/internal/engine/session"
)

// SessionMiddleware resolves the caller's session from its cookie, issuing a
// new cookie when the session is unknown or expired.
type SessionMiddleware struct {
	manager    *session.Manager
	cookieName string
	maxAge     time.Duration
}

func NewSessionMiddleware(manager *session.Manager, cookieName string, maxAge time.Duration) *SessionMiddleware {
	return &SessionMiddleware{
		manager:    manager,
		cookieName: cookieName,
		maxAge:     maxAge,
	}
}

func (m *SessionMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(m.cookieName); err == nil {
			id = c.Value
		}

		s, created := m.manager.Get(id)
		if created {
			http.SetCookie(w, &http.Cookie{
				Name:     m.cookieName,
				Value:    s.ID,
				Path:     "/",
				MaxAge:   int(m.maxAge.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteStrictMode,
			})
		}

		ctx := context.WithValue(r.Context(), apiContext.Session, s)
		next(w, r.WithContext(ctx))
	}
}

// SessionFrom returns the session stored by SessionMiddleware.
func SessionFrom(ctx context.Context) (*session.Session, bool) {
	s, ok := ctx.Value(apiContext.Session).(*session.Session)
	return s, ok
}
