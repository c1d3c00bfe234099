package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/mrops-br/products-rbac-api/internal/domain"
	"github.com/mrops-br/products-rbac-api/internal/infrastructure/http/response"
)

// TokenFromAuthTokenHeader reads the raw token from the x-auth-token header
func TokenFromAuthTokenHeader(r *http.Request) string {
	return r.Header.Get("x-auth-token")
}

// Authenticate verifies the request token and attaches the caller to the
// context. Requests without a usable token stop here with 401.
func Authenticate(ja *jwtauth.JWTAuth, logger *slog.Logger) func(next http.Handler) http.Handler {
	verify := jwtauth.Verify(ja, TokenFromAuthTokenHeader, jwtauth.TokenFromHeader)

	return func(next http.Handler) http.Handler {
		return verify(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if errors.Is(err, jwtauth.ErrNoTokenFound) {
				logger.DebugContext(r.Context(), "Request without token")
				response.Message(w, r, http.StatusUnauthorized, response.MsgNoToken)
				return
			}
			if err != nil || token == nil {
				logger.WarnContext(r.Context(), "Rejected token", slog.Any("error", err))
				response.Message(w, r, http.StatusUnauthorized, response.MsgInvalidToken)
				return
			}

			caller, ok := callerFromClaims(claims)
			if !ok {
				logger.WarnContext(r.Context(), "Token without user claim")
				response.Message(w, r, http.StatusUnauthorized, response.MsgInvalidToken)
				return
			}

			next.ServeHTTP(w, r.WithContext(domain.WithCaller(r.Context(), caller)))
		}))
	}
}

func callerFromClaims(claims map[string]interface{}) (domain.Caller, bool) {
	user, ok := claims["user"].(map[string]interface{})
	if !ok {
		return domain.Caller{}, false
	}

	id, _ := user["id"].(string)
	if id == "" {
		return domain.Caller{}, false
	}
	role, _ := user["role"].(string)

	return domain.Caller{ID: id, Role: domain.ParseRole(role)}, true
}

// RequireAction answers 403 unless the caller's role permits the action.
// Must be used after Authenticate.
func RequireAction(action domain.Action, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := domain.CallerFromContext(r.Context())
			if !ok {
				response.Message(w, r, http.StatusUnauthorized, response.MsgNoToken)
				return
			}

			if err := caller.Authorize(action); err != nil {
				logger.WarnContext(r.Context(), "Caller lacks permission",
					slog.String("action", string(action)),
				)
				response.Message(w, r, http.StatusForbidden, response.MsgAccessDenied)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
