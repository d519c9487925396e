package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Configはクライアント全体の設定
type Config struct {
	APIURL       string // プロキシ経由のベースURL（同一オリジンの /api 相当）
	DirectAPIURL string // バックエンド直アクセスのベースURL
	CORSProxyURL string // CORS中継のプレフィックス（空なら中継リトライなし）

	AppEnv string // development/production

	StateFile string // カート等を保存するJSONファイル
	RedisAddr string // 設定時はファイルの代わりにRedisへ保存
}

// Loadは環境変数から設定を組み立てる
func Load() (Config, error) {
	cfg := Config{
		APIURL:       os.Getenv("API_URL"),
		DirectAPIURL: os.Getenv("DIRECT_API_URL"),
		CORSProxyURL: os.Getenv("CORS_PROXY_URL"),
		AppEnv:       os.Getenv("APP_ENV"),
		StateFile:    os.Getenv("STATE_FILE"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
	}

	// デフォルト
	if cfg.APIURL == "" {
		cfg.APIURL = "http://localhost:9090/api"
	}
	if cfg.DirectAPIURL == "" {
		cfg.DirectAPIURL = cfg.APIURL
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}
	if cfg.StateFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("STATE_FILE is required when home dir is unavailable: %w", err)
		}
		cfg.StateFile = filepath.Join(home, ".storefront", "state.json")
	}

	//必須チェック
	if cfg.AppEnv != "development" && cfg.AppEnv != "production" {
		return Config{}, fmt.Errorf("APP_ENV must be development or production")
	}
	if cfg.DirectAPIURL == "" {
		return Config{}, fmt.Errorf("DIRECT_API_URL is required")
	}

	// ベースURL末尾のスラッシュは落として正規化
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	cfg.DirectAPIURL = strings.TrimRight(cfg.DirectAPIURL, "/")

	return cfg, nil
}

// 本番ビルドか
func (c Config) Production() bool {
	return c.AppEnv == "production"
}
