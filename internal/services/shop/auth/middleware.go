package auth

import (
	"context"
	"net/http"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/platform/httpx"
	"github.com/louisbranch/storefront/internal/platform/requestctx"
	"github.com/louisbranch/storefront/internal/services/shop/account"
	"go.uber.org/zap"
)

type claimsContextKey struct{}

type invalidSessionKey struct{}

var (
	errSessionRequired = apperrors.New(apperrors.CodeAuthSessionRequired, "session required")
	errAdminRequired   = apperrors.New(apperrors.CodeAuthAdminRequired, "admin role required")
)

// ClaimsFromContext returns the verified session claims for the request.
func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(Claims)
	return claims, ok
}

// Authenticate resolves the caller from a bearer token or session cookie.
// Requests without a valid session continue anonymously; a stale cookie is
// cleared.
func (s *Service) Authenticate(policy httpx.SchemePolicy) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, fromHeader := BearerToken(r)
			if !fromHeader {
				var ok bool
				token, ok = ReadCookie(r)
				if !ok {
					next.ServeHTTP(w, r)
					return
				}
			}

			ctx := r.Context()
			u, claims, err := s.AuthenticateToken(ctx, token)
			if err != nil {
				if apperrors.CodeOf(err) != apperrors.CodeAuthSessionInvalid {
					s.logger.Error("authenticate session", zap.Error(err))
				}
				if !fromHeader {
					ClearCookie(w, r, policy)
				}
				next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, invalidSessionKey{}, true)))
				return
			}

			ctx = requestctx.WithPrincipal(ctx, requestctx.Principal{
				UserID:    u.ID,
				Role:      string(u.Role),
				SessionID: claims.TokenID,
			})
			ctx = context.WithValue(ctx, claimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects anonymous requests.
func RequireUser(logger *zap.Logger) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := requestctx.PrincipalFromContext(r.Context()); !ok {
				httpx.WriteError(w, r, logger, missingSession(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin rejects requests whose current role is not admin.
func RequireAdmin(logger *zap.Logger) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := requestctx.PrincipalFromContext(r.Context())
			if !ok {
				httpx.WriteError(w, r, logger, missingSession(r.Context()))
				return
			}
			if account.Role(principal.Role) != account.RoleAdmin {
				httpx.WriteError(w, r, logger, errAdminRequired)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func missingSession(ctx context.Context) error {
	if invalid, _ := ctx.Value(invalidSessionKey{}).(bool); invalid {
		return ErrSessionInvalid
	}
	return errSessionRequired
}
