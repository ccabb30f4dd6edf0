package service

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/dmoraru/personas/internal/pkg/errors"
	"github.com/dmoraru/personas/internal/pkg/jwt"
	"github.com/dmoraru/personas/internal/pkg/password"
)

// AuthService authenticates the single admin account against its bcrypt
// hash from config and mints JWTs for the admin surface.
type AuthService struct {
	passwordHash string
	secret       []byte
	ttl          time.Duration
}

func NewAuthService(passwordHash string, secret []byte, ttl time.Duration) *AuthService {
	return &AuthService{passwordHash: passwordHash, secret: secret, ttl: ttl}
}

func (s *AuthService) Login(ctx context.Context, plain string) (string, error) {
	if err := password.Compare(s.passwordHash, plain); err != nil {
		logutil.GetLogger(ctx).Warn("admin login rejected", zap.String("reason", "bad password"))
		return "", appErr.ErrUnauthorized
	}
	token, err := jwt.GenerateToken("admin", s.secret, s.ttl)
	if err != nil {
		return "", err
	}
	return token, nil
}
