// Package session mints and verifies the signed cookies behind the site and
// admin gates.
package session

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	SiteCookie  = "site_session"
	AdminCookie = "admin_session"

	TTL = 24 * time.Hour

	typeSite  = "site"
	typeAdmin = "admin"
)

var ErrInvalid = errors.New("invalid session")

type Claims struct {
	Type     string `json:"typ"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs tokens with one HS256 secret. Secure is set on every cookie it
// builds when the service runs outside development.
type Manager struct {
	Secret []byte
	Secure bool
	Now    func() time.Time
}

func NewManager(secret []byte, secure bool) *Manager {
	return &Manager{Secret: secret, Secure: secure, Now: time.Now}
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *Manager) sign(typ, subject, username string) (string, time.Time, error) {
	issued := m.now()
	exp := issued.Add(TTL)
	claims := Claims{
		Type:     typ,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

func (m *Manager) parse(token, typ string) (*Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return m.Secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil || !tkn.Valid {
		return nil, ErrInvalid
	}
	if claims.Type != typ {
		return nil, ErrInvalid
	}
	return &claims, nil
}

func (m *Manager) NewSiteCookie() (*http.Cookie, error) {
	token, exp, err := m.sign(typeSite, "visitor", "")
	if err != nil {
		return nil, err
	}
	return m.cookie(SiteCookie, token, exp), nil
}

func (m *Manager) NewAdminCookie(adminID uint, username string) (*http.Cookie, error) {
	token, exp, err := m.sign(typeAdmin, strconv.FormatUint(uint64(adminID), 10), username)
	if err != nil {
		return nil, err
	}
	return m.cookie(AdminCookie, token, exp), nil
}

func (m *Manager) VerifySite(token string) error {
	_, err := m.parse(token, typeSite)
	return err
}

func (m *Manager) VerifyAdmin(token string) (*Claims, error) {
	return m.parse(token, typeAdmin)
}

// AdminID extracts the numeric admin id carried in the subject.
func (c *Claims) AdminID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalid
	}
	return uint(id), nil
}

func (m *Manager) cookie(name, value string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		MaxAge:   int(TTL.Seconds()),
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (m *Manager) ExpiredCookie(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}
