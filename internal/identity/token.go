package identity

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/veritas-sms/veritas-sms/internal/shared"
)

// TokenPair bundles the access and refresh tokens issued together.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Both token kinds are signed with the same secret, so each carries a
// typ claim and each verifier insists on its own kind. Without this an
// access token fed to the refresh flow would mint fresh pairs forever.
const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// AccessClaims is the access token payload. Role and name are
// convenience claims; Refresh re-reads them from the store rather than
// trusting a stale copy.
type AccessClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
	Name  string `json:"name"`
	Type  string `json:"typ"`
	jwt.RegisteredClaims
}

type refreshClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies session tokens with a shared HMAC secret.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewIssuer constructs an Issuer.
func NewIssuer(secret string, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Issue signs a fresh token pair for the resolved account.
func (i *Issuer) Issue(account *ResolvedAccount) (TokenPair, error) {
	now := i.now().UTC()
	subject := strconv.FormatInt(account.ID, 10)

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		Email: account.Email,
		Role:  string(account.Role),
		Name:  account.Name,
		Type:  tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
		},
	})
	accessSigned, err := access.SignedString(i.secret)
	if err != nil {
		return TokenPair{}, err
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims{
		Type: tokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.refreshTTL)),
		},
	})
	refreshSigned, err := refresh.SignedString(i.secret)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: accessSigned, RefreshToken: refreshSigned}, nil
}

func (i *Issuer) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, shared.ErrUnauthorized
	}
	return i.secret, nil
}

// VerifyAccess validates an access token and returns its claims.
func (i *Issuer) VerifyAccess(tokenString string) (*AccessClaims, error) {
	var claims AccessClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, i.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now))
	if err != nil || !token.Valid || claims.Type != tokenTypeAccess {
		return nil, shared.ErrUnauthorized
	}
	return &claims, nil
}

// VerifyRefresh validates a refresh token and returns the account id.
func (i *Issuer) VerifyRefresh(tokenString string) (int64, error) {
	var claims refreshClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, i.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now))
	if err != nil || !token.Valid || claims.Type != tokenTypeRefresh {
		return 0, shared.ErrUnauthorized
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, shared.ErrUnauthorized
	}
	return id, nil
}
