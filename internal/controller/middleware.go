package controller

import (
	"context"
	"net/http"
	"strings"

	"github.com/Freeeeeet/slotswapper/internal/model"
)

type userIDKey struct{}

// authenticate проверяет bearer токен и кладёт ID пользователя в контекст
func (c *Controller) authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, c.logger, model.ErrAuthenticationFailed)
			return
		}

		userID, err := c.tokens.VerifyToken(token)
		if err != nil {
			writeError(w, c.logger, model.ErrAuthenticationFailed)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey{}, userID)
		next(w, r.WithContext(ctx))
	}
}

// userIDFromContext возвращает ID аутентифицированного пользователя
func userIDFromContext(ctx context.Context) int64 {
	userID, _ := ctx.Value(userIDKey{}).(int64)
	return userID
}
