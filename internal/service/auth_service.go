package service

import (
	"errors"
	"hugoquiz/internal/model"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// AuthService issues session tokens and guards the operator feed
type AuthService struct {
	operatorUsername string
	operatorPassword string
	jwtSecret        []byte
	sessionTTL       time.Duration
	now              func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(username, password, secret string, sessionTTL time.Duration) *AuthService {
	return &AuthService{
		operatorUsername: username,
		operatorPassword: password,
		jwtSecret:        []byte(secret),
		sessionTTL:       sessionTTL,
		now:              time.Now,
	}
}

// NewSessionID returns a fresh quiz session id
func (s *AuthService) NewSessionID() string {
	return uuid.New().String()
}

// Login validates operator credentials and returns a token for the progress feed
func (s *AuthService) Login(username, password string) (*model.LoginResponse, error) {
	if username != s.operatorUsername || password != s.operatorPassword {
		return nil, ErrInvalidCredentials
	}

	operatorID := "op_" + uuid.New().String()[:8]
	now := s.now()

	claims := &model.OperatorClaims{
		OperatorID: operatorID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(12 * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{
		Token:      tokenString,
		OperatorID: operatorID,
	}, nil
}

// ValidateOperatorToken validates an operator JWT and returns claims
func (s *AuthService) ValidateOperatorToken(tokenString string) (*model.OperatorClaims, error) {
	claims := &model.OperatorClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.OperatorID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateSessionToken creates a token bound to one quiz session
func (s *AuthService) GenerateSessionToken(sessionID string) (string, error) {
	now := s.now()
	claims := &model.SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateSessionToken validates a session JWT and returns claims
func (s *AuthService) ValidateSessionToken(tokenString string) (*model.SessionClaims, error) {
	claims := &model.SessionClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// SessionTTL returns the lifetime of session tokens
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}

func (s *AuthService) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
