package client

import (
	"context"
	"fmt"

	"storefront/internal/gateway"
)

// AuthService は管理者ログイン
type AuthService struct {
	gw *gateway.Gateway
}

func NewAuthService(gw *gateway.Gateway) *AuthService {
	return &AuthService{gw: gw}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// ログインしてトークンを返す
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	res, err := s.gw.Post(ctx, "admin/login", loginRequest{Email: email, Password: password}, gateway.Options{
		Credentialed: true,
	})
	if err != nil {
		return "", err
	}

	var out loginResponse
	if err := res.Decode(&out); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if out.Token == "" {
		return "", fmt.Errorf("login response had no token")
	}
	return out.Token, nil
}
