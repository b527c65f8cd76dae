package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/models"
)

const (
	tokenUseAccess  = "access"
	tokenUseRefresh = "refresh"
)

// claims carries the account identity plus a use marker so an access token
// can never be replayed as a refresh token or vice versa.
type claims struct {
	TokenUse string `json:"token_use"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies the stateless token pair. Access tokens are
// verified by signature and expiry alone; refresh tokens additionally carry a
// fingerprint that must match the account's stored value to be honored.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	now func() time.Time
}

// NewTokenService constructs a TokenService with distinct signing secrets for
// the two token classes.
func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// SignPair issues a fresh access/refresh token pair for the account and
// returns the refresh token's fingerprint for storage.
func (s *TokenService) SignPair(accountID string) (models.TokenPair, string, error) {
	now := s.now()

	access, accessExp, err := s.sign(accountID, tokenUseAccess, s.accessSecret, now, s.accessTTL)
	if err != nil {
		return models.TokenPair{}, "", err
	}

	refresh, refreshExp, err := s.sign(accountID, tokenUseRefresh, s.refreshSecret, now, s.refreshTTL)
	if err != nil {
		return models.TokenPair{}, "", err
	}

	pair := models.TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}
	return pair, Fingerprint(refresh), nil
}

// VerifyAccess checks an access token's signature and expiry and returns the
// account id it was issued for. No store access happens here.
func (s *TokenService) VerifyAccess(token string) (string, error) {
	return s.verify(token, tokenUseAccess, s.accessSecret)
}

// VerifyRefresh checks a refresh token's signature and expiry and returns the
// account id together with the token's fingerprint for the rotation check.
func (s *TokenService) VerifyRefresh(token string) (string, string, error) {
	accountID, err := s.verify(token, tokenUseRefresh, s.refreshSecret)
	if err != nil {
		return "", "", err
	}
	return accountID, Fingerprint(token), nil
}

// Fingerprint returns the SHA-256 hex of a signed refresh token. Only the
// fingerprint is persisted, never the token itself.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *TokenService) sign(accountID, use string, secret []byte, now time.Time, ttl time.Duration) (string, time.Time, error) {
	expiresAt := now.Add(ttl)
	c := claims{
		TokenUse: use,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (s *TokenService) verify(token, use string, secret []byte) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", apperr.Authenticationf("%s token expired", use)
		}
		return "", apperr.Wrap(apperr.Authentication, "malformed "+use+" token", err)
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || c.TokenUse != use || c.Subject == "" {
		return "", apperr.Authenticationf("malformed %s token", use)
	}
	return c.Subject, nil
}
