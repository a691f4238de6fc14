// Package token issues and verifies signed tokens embedded in email links,
// primarily one-click unsubscribe URLs. Tokens are HMAC-signed JWTs so a
// link can be verified without a database round trip.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Purposes recognized in issued tokens.
const (
	PurposeUnsubscribe = "unsubscribe"
	PurposeTracking    = "tracking"
)

var (
	ErrInvalidToken    = errors.New("token is invalid")
	ErrWrongPurpose    = errors.New("token purpose mismatch")
	ErrMissingSignKey  = errors.New("signing key is not configured")
	ErrMissingRecipent = errors.New("token has no recipient email")
)

// Claims carried by an email link token.
type Claims struct {
	Email    string
	Purpose  string
	Campaign string
}

// Issuer signs and verifies link tokens with a shared HMAC key.
type Issuer struct {
	signingKey []byte
	ttl        time.Duration
	now        func() time.Time
}

// NewIssuer creates an issuer. TTL bounds how long issued links stay valid;
// zero means tokens never expire.
func NewIssuer(signingKey string, ttl time.Duration) (*Issuer, error) {
	if signingKey == "" {
		return nil, ErrMissingSignKey
	}
	return &Issuer{signingKey: []byte(signingKey), ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for the given claims.
func (i *Issuer) Issue(c Claims) (string, error) {
	if c.Email == "" {
		return "", ErrMissingRecipent
	}
	purpose := c.Purpose
	if purpose == "" {
		purpose = PurposeUnsubscribe
	}

	now := i.now()
	claims := jwt.MapClaims{
		"sub":     strings.ToLower(strings.TrimSpace(c.Email)),
		"purpose": purpose,
		"iat":     now.Unix(),
	}
	if c.Campaign != "" {
		claims["campaign"] = c.Campaign
	}
	if i.ttl > 0 {
		claims["exp"] = now.Add(i.ttl).Unix()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.signingKey)
	if err != nil {
		return "", fmt.Errorf("signing link token: %w", err)
	}
	return signed, nil
}

// Verify parses a token, checks its signature and expiry, and confirms it
// was issued for the given purpose.
func (i *Issuer) Verify(tokenStr, purpose string) (Claims, error) {
	parsed, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.signingKey, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	c := Claims{}
	if sub, ok := mapClaims["sub"].(string); ok {
		c.Email = sub
	}
	if p, ok := mapClaims["purpose"].(string); ok {
		c.Purpose = p
	}
	if campaign, ok := mapClaims["campaign"].(string); ok {
		c.Campaign = campaign
	}

	if c.Email == "" {
		return Claims{}, ErrMissingRecipent
	}
	if purpose != "" && c.Purpose != purpose {
		return Claims{}, ErrWrongPurpose
	}
	return c, nil
}

// UnsubscribeURL issues an unsubscribe token and appends it to baseURL.
func (i *Issuer) UnsubscribeURL(baseURL, email, campaign string) (string, error) {
	tok, err := i.Issue(Claims{Email: email, Purpose: PurposeUnsubscribe, Campaign: campaign})
	if err != nil {
		return "", err
	}
	sep := "?"
	if strings.Contains(baseURL, "?") {
		sep = "&"
	}
	return baseURL + sep + "token=" + tok, nil
}
