package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/kvstore"

	"github.com/golang-jwt/jwt/v5"
)

const tokenKey = "token"

// ログインしていない
var ErrNotLoggedIn = errors.New("not logged in")

// Session は管理者トークンの保管場所。
// トークンはバックエンドが発行したものをそのまま保存して、そのまま送る。
type Session struct {
	kv kvstore.KeyValueStore
}

func New(kv kvstore.KeyValueStore) *Session {
	return &Session{kv: kv}
}

// 保存済みトークンを返す。未ログインなら ErrNotLoggedIn。
func (s *Session) Token(ctx context.Context) (string, error) {
	tok, err := s.kv.Get(ctx, tokenKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return "", ErrNotLoggedIn
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	if tok == "" {
		return "", ErrNotLoggedIn
	}
	return tok, nil
}

func (s *Session) SetToken(ctx context.Context, token string) error {
	return s.kv.Set(ctx, tokenKey, token)
}

func (s *Session) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, tokenKey)
}

// 保存済みトークンの期限が切れているか。
// 署名は検証しない（検証はサーバーの仕事）。期限が読めないトークンは有効扱い。
func (s *Session) Expired(ctx context.Context, now time.Time) (bool, error) {
	tok, err := s.Token(ctx)
	if err != nil {
		return true, err
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tok, claims); err != nil {
		return false, nil
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false, nil
	}
	return exp.Before(now), nil
}
