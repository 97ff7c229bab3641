package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/karimsaleh/freshbasket-backend/api/responses"
	pkgAuth "github.com/karimsaleh/freshbasket-backend/pkg/auth"
	"github.com/karimsaleh/freshbasket-backend/pkg/config"
	"github.com/karimsaleh/freshbasket-backend/pkg/enums"
	pkgerrors "github.com/karimsaleh/freshbasket-backend/pkg/errors"
	"github.com/karimsaleh/freshbasket-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// claims. Guest tokens pass: the storefront serves anonymous shoppers
// with a session-scoped cart. Endpoints that need a registered user
// check UserIDFromContext themselves, admin routes use RequireAdmin.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := claimsFromRequest(cfg, r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(contextWithClaims(r.Context(), logg, claims)))
		})
	}
}

// OptionalAuth parses a bearer token when present and lets anonymous
// requests through untouched. Guest order lookup works with no token.
func OptionalAuth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.TrimSpace(r.Header.Get("Authorization")) == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := claimsFromRequest(cfg, r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(contextWithClaims(r.Context(), logg, claims)))
		})
	}
}

// RequireAdmin rejects any request whose role claim is not admin.
// Must run after Auth.
func RequireAdmin(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if RoleFromContext(r.Context()) != string(enums.MemberRoleAdmin) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func claimsFromRequest(cfg config.JWTConfig, r *http.Request) (*pkgAuth.AccessTokenClaims, error) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}

	token := raw
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.UserID == nil && claims.SessionToken == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "token carries no identity")
	}
	return claims, nil
}

func contextWithClaims(ctx context.Context, logg *logger.Logger, claims *pkgAuth.AccessTokenClaims) context.Context {
	ctx = context.WithValue(ctx, ctxRole, string(claims.Role))
	fields := map[string]any{"actor_role": string(claims.Role)}
	if claims.UserID != nil {
		ctx = context.WithValue(ctx, ctxUserID, claims.UserID.String())
		fields["user_id"] = claims.UserID.String()
	}
	if claims.SessionToken != "" {
		ctx = context.WithValue(ctx, ctxSessionToken, claims.SessionToken)
		fields["session"] = claims.SessionToken
	}
	if logg != nil {
		ctx = logg.WithFields(ctx, fields)
	}
	return ctx
}
