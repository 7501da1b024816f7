// Package session issues and recognizes the anonymous ids that key a browser's cart and
// checkout state.
package session

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	Header = "X-Session-ID"
	Cookie = "sid"
)

var (
	ErrMissing = errors.New("session id missing")
	ErrInvalid = errors.New("invalid session id")
)

// Issuer creates session ids and the cookie that carries them.
type Issuer struct {
	ttl    time.Duration
	secure bool
	newID  func() string
}

func NewIssuer(ttl time.Duration, secure bool) *Issuer {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Issuer{ttl: ttl, secure: secure, newID: uuid.NewString}
}

// Issue returns a fresh session id.
func (i *Issuer) Issue() string {
	return i.newID()
}

// Cookie returns the cookie carrying id.
func (i *Issuer) Cookie(id string) *http.Cookie {
	return &http.Cookie{
		Name:     Cookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(i.ttl.Seconds()),
		HttpOnly: true,
		Secure:   i.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// TTLSeconds is the cookie lifetime.
func (i *Issuer) TTLSeconds() int {
	return int(i.ttl.Seconds())
}

// FromRequest reads the session id from the header, then the cookie. The id must be a UUID.
func FromRequest(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.Header.Get(Header))
	if id == "" {
		if c, err := r.Cookie(Cookie); err == nil {
			id = strings.TrimSpace(c.Value)
		}
	}
	if id == "" {
		return "", ErrMissing
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", ErrInvalid
	}
	return parsed.String(), nil
}
