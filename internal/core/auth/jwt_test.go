package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"souqbridge-identity/internal/domain"
)

const testSecret = "test-signing-key-test-signing-key"

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestJWTer(c *clock) *JWTer {
	j := NewJWTer(testSecret, "souqbridge-test", time.Hour, 7*24*time.Hour)
	j.Now = c.now
	return j
}

func TestIssue_DefaultLifetime(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	j := newTestJWTer(c)

	tok, issued, err := j.Issue("id-1", domain.RoleBuyer, false)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := j.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "id-1", claims.SubjectID())
	assert.Equal(t, domain.RoleBuyer, claims.Role)
	assert.Equal(t, issued.ID, claims.ID)
	assert.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestIssue_ExtendedLifetime(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	j := newTestJWTer(c)

	tok, _, err := j.Issue("id-2", domain.RoleSeller, true)
	require.NoError(t, err)
	claims, err := j.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
	assert.Equal(t, 7*24*time.Hour, claims.TTL(c.t))
}

func TestIssue_UniqueTokenIDs(t *testing.T) {
	j := newTestJWTer(&clock{t: time.Now()})
	_, a, err := j.Issue("id", domain.RoleBuyer, false)
	require.NoError(t, err)
	_, b, err := j.Issue("id", domain.RoleBuyer, false)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestParse_Expired(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	j := newTestJWTer(c)
	tok, _, err := j.Issue("id-1", domain.RoleBuyer, false)
	require.NoError(t, err)

	c.t = c.t.Add(time.Hour - time.Second)
	_, err = j.Parse(tok)
	require.NoError(t, err)

	c.t = c.t.Add(2 * time.Second)
	_, err = j.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_TamperedSignature(t *testing.T) {
	j := newTestJWTer(&clock{t: time.Now()})
	tok, _, err := j.Issue("id-1", domain.RoleBuyer, false)
	require.NoError(t, err)

	dot := strings.LastIndex(tok, ".")
	sig := []byte(tok[dot+1:])
	// flip a character in the middle so base64 padding bits are not the only change
	mid := len(sig) / 2
	if sig[mid] == 'A' {
		sig[mid] = 'B'
	} else {
		sig[mid] = 'A'
	}
	_, err = j.Parse(tok[:dot+1] + string(sig))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_ForgedRoleInPayload(t *testing.T) {
	j := newTestJWTer(&clock{t: time.Now()})
	tok, _, err := j.Issue("id-1", domain.RoleBuyer, false)
	require.NoError(t, err)

	forger := NewJWTer("another-secret-another-secret-000", j.Issuer, time.Hour, time.Hour)
	forged, _, err := forger.Issue("id-1", domain.RoleSeller, false)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	fparts := strings.Split(forged, ".")
	// seller payload with the buyer token's genuine signature
	_, err = j.Parse(parts[0] + "." + fparts[1] + "." + parts[2])
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = j.Parse(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_RejectsOtherAlgorithms(t *testing.T) {
	j := newTestJWTer(&clock{t: time.Now()})
	claims := &Claims{
		Role: domain.RoleBuyer,
		RegisteredClaims: jwt.RegisteredClaims{
			ID: "jti", Subject: "id-1", Issuer: j.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = j.Parse(none)
	assert.ErrorIs(t, err, ErrInvalidToken)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(j.Secret)
	require.NoError(t, err)
	_, err = j.Parse(hs512)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_RejectsUnknownRoleAndMissingSubject(t *testing.T) {
	j := newTestJWTer(&clock{t: time.Now()})
	sign := func(c *Claims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(j.Secret)
		require.NoError(t, err)
		return s
	}
	base := jwt.RegisteredClaims{
		ID: "jti", Subject: "id-1", Issuer: j.Issuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	_, err := j.Parse(sign(&Claims{Role: "admin", RegisteredClaims: base}))
	assert.ErrorIs(t, err, ErrInvalidToken)

	noSub := base
	noSub.Subject = ""
	_, err = j.Parse(sign(&Claims{Role: domain.RoleBuyer, RegisteredClaims: noSub}))
	assert.ErrorIs(t, err, ErrInvalidToken)

	noExp := base
	noExp.ExpiresAt = nil
	_, err = j.Parse(sign(&Claims{Role: domain.RoleBuyer, RegisteredClaims: noExp}))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_Garbage(t *testing.T) {
	j := newTestJWTer(&clock{t: time.Now()})
	for _, s := range []string{"", "abc", "a.b.c", "....."} {
		_, err := j.Parse(s)
		assert.ErrorIs(t, err, ErrInvalidToken, s)
	}
}
