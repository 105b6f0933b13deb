// Package auth implements the single-credential HTTP Basic gate.
package auth

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"
)

const scheme = "Basic "

// Credentials is the configured name/password pair.
type Credentials struct {
	Name     string
	Password string
}

// Configured reports whether both halves of the pair are set.
// An unconfigured pair rejects every request.
func (c Credentials) Configured() bool {
	return c.Name != "" && c.Password != ""
}

// Authenticate checks an Authorization header value and returns the
// authenticated name.
func (c Credentials) Authenticate(header string) (string, bool) {
	if !c.Configured() || !strings.HasPrefix(header, scheme) {
		return "", false
	}
	raw, err := base64.StdEncoding.DecodeString(header[len(scheme):])
	if err != nil {
		return "", false
	}
	name, secret, ok := strings.Cut(string(raw), ":")
	if !ok {
		return "", false
	}
	nameOK := subtle.ConstantTimeCompare([]byte(name), []byte(c.Name)) == 1
	secretOK := subtle.ConstantTimeCompare([]byte(secret), []byte(c.Password)) == 1
	if !nameOK || !secretOK {
		return "", false
	}
	return name, true
}

type ctxKey struct{}

// Identity returns the name attached to ctx by Require or Optional.
func Identity(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(ctxKey{}).(string)
	return name, ok
}

// Require rejects unauthenticated requests with 401 and a Basic challenge.
func Require(c Credentials) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name, ok := c.Authenticate(r.Header.Get("Authorization"))
			if !ok {
				w.Header().Set("WWW-Authenticate", "Basic")
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, name)))
		})
	}
}

// Optional attaches the identity when the credentials are valid and lets
// every request through.
func Optional(c Credentials) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if name, ok := c.Authenticate(r.Header.Get("Authorization")); ok {
				r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, name))
			}
			next.ServeHTTP(w, r)
		})
	}
}
