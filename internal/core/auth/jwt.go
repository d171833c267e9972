package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"souqbridge-identity/internal/domain"
	"souqbridge-identity/pkg/utils"
)

// ErrInvalidToken covers every verification failure: bad signature, wrong
// algorithm, malformed input, expiry. Callers cannot tell them apart.
var ErrInvalidToken = errors.New("invalid session")

type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) SubjectID() string { return c.Subject }

// TTL is the remaining lifetime at t.
func (c *Claims) TTL(t time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Sub(t)
}

// JWTer signs and verifies HS256 session tokens. Secret is process-wide;
// rotating it invalidates every outstanding token.
type JWTer struct {
	Secret      []byte
	Issuer      string
	TTL         time.Duration // default lifetime
	ExtendedTTL time.Duration // "remember me" lifetime
	Now         func() time.Time
}

func NewJWTer(secret, issuer string, ttl, extended time.Duration) *JWTer {
	return &JWTer{Secret: []byte(secret), Issuer: issuer, TTL: ttl, ExtendedTTL: extended, Now: time.Now}
}

func (j *JWTer) now() time.Time {
	if j.Now != nil {
		return j.Now()
	}
	return time.Now()
}

func (j *JWTer) lifetime(extended bool) time.Duration {
	if extended {
		if j.ExtendedTTL > 0 {
			return j.ExtendedTTL
		}
		return 7 * 24 * time.Hour
	}
	if j.TTL > 0 {
		return j.TTL
	}
	return time.Hour
}

// Issue mints a token for subject. The returned claims are exactly what was signed.
func (j *JWTer) Issue(subjectID string, role domain.Role, extended bool) (string, *Claims, error) {
	now := j.now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        utils.NewID(),
			Subject:   subjectID,
			Issuer:    j.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.lifetime(extended))),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.Secret)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// Parse verifies tokenStr and returns its claims, or ErrInvalidToken.
func (j *JWTer) Parse(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return j.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(j.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil || !t.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	if _, ok := domain.ParseRole(string(claims.Role)); !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
