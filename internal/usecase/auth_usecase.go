package usecase

import (
	"crypto/subtle"
	"errors"

	"jobradar/internal/pkg/jwt"
)

var (
	ErrInvalidAPIKey       = errors.New("invalid api key")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrAuthDisabled        = errors.New("admin authentication is not configured")
)

type AuthUsecase interface {
	ExchangeKey(apiKey string) (access, refresh string, err error)
	Refresh(refreshToken string) (access, refresh string, err error)
}

type AuthService struct {
	adminKey string
	jwt      jwt.Service
}

func NewAuthService(adminKey string, jwtSvc jwt.Service) *AuthService {
	return &AuthService{adminKey: adminKey, jwt: jwtSvc}
}

func (s *AuthService) ExchangeKey(apiKey string) (string, string, error) {
	if s.adminKey == "" {
		return "", "", ErrAuthDisabled
	}
	if subtle.ConstantTimeCompare([]byte(apiKey), []byte(s.adminKey)) != 1 {
		return "", "", ErrInvalidAPIKey
	}
	return s.issuePair()
}

func (s *AuthService) Refresh(refreshToken string) (string, string, error) {
	claims, err := s.jwt.ValidateToken(refreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", "", ErrRefreshTokenExpired
		}
		return "", "", ErrInvalidRefreshToken
	}
	if !s.jwt.IsRefreshToken(claims) {
		return "", "", ErrInvalidRefreshToken
	}
	return s.issuePair()
}

func (s *AuthService) issuePair() (string, string, error) {
	access, err := s.jwt.GenerateAccessToken()
	if err != nil {
		return "", "", err
	}
	refresh, err := s.jwt.GenerateRefreshToken()
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}
