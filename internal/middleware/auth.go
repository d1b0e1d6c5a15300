package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"

	"github.com/R3E-Network/luckydraw/internal/httputil"
)

// Auth validates a JWT bearer token signed with the shared secret and
// propagates the subject claim as the caller address. The draw service
// performs its own owner check on admin operations; this middleware only
// establishes who is calling.
func Auth(secret string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				httputil.WriteError(w, http.StatusUnauthorized, "missing or malformed authorization header")
				return
			}

			subject, err := validateToken(parts[1], secret)
			if err != nil {
				httputil.WriteError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			// Never trust a client-supplied caller header.
			r.Header.Set("X-Caller-Address", subject)
			next.ServeHTTP(w, r)
		})
	}
}

func validateToken(raw, secret string) (string, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid claims")
	}
	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("missing subject")
	}
	return subject, nil
}

// IssueToken mints a bearer token for the given caller address. Used by
// operator tooling and tests.
func IssueToken(secret, address string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": address})
	return token.SignedString([]byte(secret))
}
