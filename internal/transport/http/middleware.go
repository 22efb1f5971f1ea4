package httptransport

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "vibegate/pkg/domain-errors"
	"vibegate/pkg/platform/httputil"
	"vibegate/pkg/requestcontext"
)

// Caller roles carried in the JWT role claim.
const (
	RoleAuthority = "authority"
	RoleOwner     = "owner"
)

// RequestContext stamps every request with a correlation ID and a
// request-scoped time so services observe one consistent clock per call.
func RequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithRequestID(r.Context(), uuid.NewString())
		ctx = requestcontext.WithTime(ctx, time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Claims are the bearer token claims for authority and owner callers.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// RequireRole authenticates the bearer token and enforces the role claim.
// The token subject becomes the request actor.
func RequireRole(signingKey []byte, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "bearer token required"))
				return
			}

			tokenString := strings.TrimPrefix(header, "Bearer ")
			parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrTokenUnverifiable
				}
				return signingKey, nil
			})
			if err != nil || !parsed.Valid {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
				return
			}

			claims, ok := parsed.Claims.(*Claims)
			if !ok {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims"))
				return
			}
			if claims.Role != role {
				httputil.WriteError(w, dErrors.Newf(dErrors.CodeForbidden, "%s role required", role))
				return
			}

			ctx := requestcontext.WithActor(r.Context(), claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
