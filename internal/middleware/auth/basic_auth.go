package auth

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/render"
)

type ctxKey struct{}

// BasicAuth checks the caller against the configured accounts and puts the
// login into the request context.
func BasicAuth(accounts map[string]string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Basic ") {
				requireAuth(w, r)
				return
			}

			creds, err := base64.StdEncoding.DecodeString(authHeader[6:])
			if err != nil {
				requireAuth(w, r)
				return
			}

			credPair := strings.SplitN(string(creds), ":", 2)
			if len(credPair) != 2 || credPair[0] == "" {
				requireAuth(w, r)
				return
			}

			password, ok := accounts[credPair[0]]
			if !ok || subtle.ConstantTimeCompare([]byte(password), []byte(credPair[1])) != 1 {
				requireAuth(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), credPair[0])))
		})
	}
}

func WithUser(ctx context.Context, login string) context.Context {
	return context.WithValue(ctx, ctxKey{}, login)
}

// User returns the authenticated login, "" when there is none.
func User(ctx context.Context) string {
	login, _ := ctx.Value(ctxKey{}).(string)
	return login
}

func requireAuth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", `Basic realm="Chantier"`)
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, map[string]string{
		"status": strconv.Itoa(http.StatusUnauthorized),
		"error":  "authentication required",
	})
}
