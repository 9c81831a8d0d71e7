package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

var (
	// ErrToken is returned when a token is malformed, badly signed or expired.
	ErrToken = errors.New("invalid token")
	// ErrMissingSecret is returned when the signing secret is empty.
	ErrMissingSecret = errors.New("JWT_SECRET is not defined or empty")
)

// TokenKind separates short-lived access tokens from refresh tokens.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

type claims struct {
	Kind TokenKind `json:"typ,omitempty"`
	jwt.RegisteredClaims
}

// TokenService issues and checks HS256 tokens whose subject is the user's email.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService builds a TokenService. The secret must not be empty.
func NewTokenService(secret string) (*TokenService, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &TokenService{secret: []byte(secret), now: time.Now}, nil
}

// IssueAccessToken returns a token valid for AccessTokenTTL.
func (s *TokenService) IssueAccessToken(subject string) (string, error) {
	return s.issue(subject, KindAccess, AccessTokenTTL)
}

// IssueRefreshToken returns a token valid for RefreshTokenTTL.
func (s *TokenService) IssueRefreshToken(subject string) (string, error) {
	return s.issue(subject, KindRefresh, RefreshTokenTTL)
}

func (s *TokenService) issue(subject string, kind TokenKind, ttl time.Duration) (string, error) {
	now := s.now()
	c := claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			// jti keeps two tokens minted in the same second distinct
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(s.secret)
}

func (s *TokenService) parse(tokenString string) (*claims, error) {
	c := &claims{}
	token, err := jwt.ParseWithClaims(tokenString, c, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrInvalidKeyType
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired(), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrToken
	}
	return c, nil
}

// Validate reports whether the token is well formed, correctly signed and unexpired.
func (s *TokenService) Validate(tokenString string) bool {
	_, err := s.parse(tokenString)
	return err == nil
}

// ExtractSubject returns the subject of a valid token, or ErrToken.
func (s *TokenService) ExtractSubject(tokenString string) (string, error) {
	c, err := s.parse(tokenString)
	if err != nil {
		return "", err
	}
	if c.Subject == "" {
		return "", ErrToken
	}
	return c.Subject, nil
}

// SubjectOf is ExtractSubject restricted to tokens of the given kind.
func (s *TokenService) SubjectOf(tokenString string, kind TokenKind) (string, error) {
	c, err := s.parse(tokenString)
	if err != nil {
		return "", err
	}
	if c.Kind != kind || c.Subject == "" {
		return "", ErrToken
	}
	return c.Subject, nil
}
