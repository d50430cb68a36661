package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/xraph/subwave/address"
)

var errMissingToken = errors.New("missing bearer token")

// Authenticator verifies HS256 bearer tokens. The token subject is the
// base58 address of the calling principal.
type Authenticator struct {
	secret []byte
	issuer string
}

// NewAuthenticator returns an Authenticator for secret. A non-empty issuer
// is required to match the token's iss claim.
func NewAuthenticator(secret []byte, issuer string) *Authenticator {
	return &Authenticator{secret: secret, issuer: issuer}
}

// Issue signs a token for principal valid for ttl.
func (a *Authenticator) Issue(principal address.Address, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   principal.String(),
		Issuer:    a.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Principal extracts and verifies the principal from r.
func (a *Authenticator) Principal(r *http.Request) (address.Address, error) {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return address.Zero, errMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return address.Zero, fmt.Errorf("parse token: %w", err)
	}

	return address.Parse(claims.Subject)
}

// RequireAuth rejects requests without a valid token and stores the
// principal in the request context.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := a.Principal(r)
		if err != nil {
			WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(SetPrincipal(r.Context(), p)))
	})
}
