package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lobsterwork/lobsterwork/internal/domain"
)

const cookiePrefix = "base64-"

// Verifier validates session access tokens issued by the hosted auth service.
type Verifier struct {
	secret     []byte
	cookieName string
}

func NewVerifier(secret, cookieName string) *Verifier {
	return &Verifier{secret: []byte(secret), cookieName: cookieName}
}

type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Authenticate extracts the caller from the Authorization header or the
// session cookie. It returns domain.ErrUnauthorized when no valid token is
// present.
func (v *Verifier) Authenticate(r *http.Request) (*domain.User, error) {
	token := bearerToken(r)
	if token == "" {
		token = v.cookieToken(r)
	}
	if token == "" {
		return nil, domain.ErrUnauthorized
	}
	return v.Verify(token)
}

// Verify parses an HS256 access token and returns the user it names.
func (v *Verifier) Verify(token string) (*domain.User, error) {
	if len(v.secret) == 0 {
		return nil, fmt.Errorf("%w: jwt secret not configured", domain.ErrConfiguration)
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", domain.ErrUnauthorized)
	}
	return &domain.User{ID: claims.Subject, Email: claims.Email}, nil
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// cookieToken reads the session cookie, which holds either a raw access
// token or a JSON session object, optionally base64 encoded.
func (v *Verifier) cookieToken(r *http.Request) string {
	if v.cookieName == "" {
		return ""
	}
	c, err := r.Cookie(v.cookieName)
	if err != nil {
		return ""
	}
	return tokenFromCookie(c.Value)
}

func tokenFromCookie(value string) string {
	value = strings.TrimSpace(value)
	if encoded, ok := strings.CutPrefix(value, cookiePrefix); ok {
		raw, err := decodeBase64(encoded)
		if err != nil {
			return ""
		}
		value = string(raw)
	}
	if strings.HasPrefix(value, "{") {
		var session struct {
			AccessToken string `json:"access_token"`
		}
		if err := json.Unmarshal([]byte(value), &session); err != nil {
			return ""
		}
		return session.AccessToken
	}
	return value
}

func decodeBase64(s string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{base64.RawURLEncoding, base64.URLEncoding, base64.RawStdEncoding, base64.StdEncoding} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, nil
		}
	}
	return nil, errors.New("invalid base64 cookie")
}
