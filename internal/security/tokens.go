package security

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Codec verification errors. Callers match with errors.Is; the Request Gate
// maps all of them to an unauthorized response.
var (
	// ErrTokenExpired is returned when the token's exp claim is in the past.
	ErrTokenExpired = errors.New("token expired")
	// ErrBadSignature is returned when the signature does not match the signing secret.
	ErrBadSignature = errors.New("invalid token signature")
	// ErrTokenMalformed is returned when the token is structurally unparseable.
	ErrTokenMalformed = errors.New("malformed token")
)

// AccessClaims holds JWT claims for the access token.
type AccessClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// TokenCodec mints and verifies HS256 access tokens with a process-wide
// secret loaded once at startup. Stateless and safe for concurrent use.
type TokenCodec struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
}

// NewTokenCodec returns a TokenCodec signing with the given secret.
// issuer is set on claims and checked on verification.
func NewTokenCodec(secret []byte, issuer string, accessTTL time.Duration) *TokenCodec {
	return &TokenCodec{
		secret:    secret,
		issuer:    issuer,
		accessTTL: accessTTL,
	}
}

// AccessTTL returns the configured access token lifetime.
func (c *TokenCodec) AccessTTL() time.Duration { return c.accessTTL }

// Mint issues a signed access token for the given subject and role,
// expiring accessTTL from now. Returns the token string and its expiry.
func (c *TokenCodec) Mint(subject, role string) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(c.accessTTL)
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role: role,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Verify checks the token's signature, structure, and expiry.
// Returns the subject and role, or ErrTokenExpired, ErrBadSignature, or
// ErrTokenMalformed. Pure computation, no store access.
func (c *TokenCodec) Verify(tokenString string) (subject, role string, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadSignature
		}
		return c.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", "", ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, ErrBadSignature):
			return "", "", ErrBadSignature
		default:
			return "", "", ErrTokenMalformed
		}
	}
	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return "", "", ErrTokenMalformed
	}
	if c.issuer != "" && claims.Issuer != c.issuer {
		return "", "", ErrBadSignature
	}
	return claims.Subject, claims.Role, nil
}

// ExpiryOf extracts the exp claim without verifying the signature or expiry.
// Used for blacklist bookkeeping, which must work even for tokens that no
// longer pass Verify. Returns ErrTokenMalformed when the claim is absent or
// the token is unparseable.
func (c *TokenCodec) ExpiryOf(tokenString string) (time.Time, error) {
	claims := &AccessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, ErrTokenMalformed
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrTokenMalformed
	}
	return claims.ExpiresAt.Time, nil
}

const rolePrefix = "ROLE_"

// FormatRole returns the role with the framework's "ROLE_" prefix, applied
// exactly once. Presentation detail of the Gate boundary; stored roles and
// claims stay unprefixed.
func FormatRole(role string) string {
	if strings.HasPrefix(role, rolePrefix) {
		return role
	}
	return rolePrefix + role
}
