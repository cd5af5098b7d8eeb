package common

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer           = "gochat"
	authSubject      = "user-auth"
	mediaSubject     = "media-access"
	authTokenTTL     = 24 * time.Hour
	mediaTokenLeeway = 0
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token expired")
	ErrMissingSecret = errors.New("signing secret is empty")
)

// Claims carries the auth context of a profile
type Claims struct {
	ProfileID string `json:"profile_id"`
	OrgID     string `json:"org_id"`
	Handle    string `json:"handle"`
	Role      Role   `json:"role"`
	jwt.RegisteredClaims
}

// MediaClaims grants read access to exactly one stored object until ExpiresAt.
type MediaClaims struct {
	Path string `json:"path"`
	jwt.RegisteredClaims
}

type TokenSigner struct {
	secret []byte
	now    func() time.Time
}

func NewTokenSigner(secret string) (*TokenSigner, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &TokenSigner{secret: []byte(secret), now: time.Now}, nil
}

// WithClock is used by tests to pin token timestamps.
func (s *TokenSigner) WithClock(now func() time.Time) *TokenSigner {
	return &TokenSigner{secret: s.secret, now: now}
}

func (s *TokenSigner) GenerateAuthToken(auth AuthContext) (string, error) {
	now := s.now()
	claims := &Claims{
		ProfileID: auth.ProfileID,
		OrgID:     auth.OrgID,
		Handle:    auth.Handle,
		Role:      auth.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(authTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   authSubject,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *TokenSigner) ParseAuthToken(tokenString string) (AuthContext, error) {
	claims := &Claims{}
	if err := s.parse(tokenString, claims); err != nil {
		return AuthContext{}, err
	}
	if claims.Subject != authSubject || claims.ProfileID == "" || claims.OrgID == "" {
		return AuthContext{}, ErrInvalidToken
	}
	return AuthContext{
		ProfileID: claims.ProfileID,
		OrgID:     claims.OrgID,
		Handle:    claims.Handle,
		Role:      claims.Role,
	}, nil
}

// SignMediaPath returns a token scoped to path and the instant it stops being valid.
func (s *TokenSigner) SignMediaPath(path string, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(ttl).Truncate(time.Second)
	claims := &MediaClaims{
		Path: path,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   mediaSubject,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func (s *TokenSigner) VerifyMediaToken(tokenString string) (string, time.Time, error) {
	claims := &MediaClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		return "", time.Time{}, err
	}
	if claims.Subject != mediaSubject || claims.Path == "" || claims.ExpiresAt == nil {
		return "", time.Time{}, ErrInvalidToken
	}
	return claims.Path, claims.ExpiresAt.Time, nil
}

func (s *TokenSigner) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithLeeway(mediaTokenLeeway),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpiredToken
		}
		return ErrInvalidToken
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
