package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storefront/internal/config"

	"github.com/rs/zerolog"
)

// Gateway は論理パスを正しいベースURLへのHTTPリクエストに変換する。
// 呼び出し側からはバックエンドの構成（プロキシ経由か直アクセスか）を隠す。
// 呼び出しをまたぐ状態は持たない。
type Gateway struct {
	cfg    config.Config
	client *http.Client
	logger zerolog.Logger
}

func New(cfg config.Config, logger zerolog.Logger) *Gateway {
	return &Gateway{
		cfg: cfg,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger.With().Str("component", "gateway").Logger(),
	}
}

func cleanPath(path string) string {
	return strings.TrimPrefix(path, "/")
}

// 直アクセスのベースを使うべきか。
// 明示指定・認証付き・本番ビルド・DELETE はプロキシを迂回する。
func (g *Gateway) usesDirect(opts Options) bool {
	return opts.ForceDirect || opts.Credentialed || g.cfg.Production() || opts.Method == http.MethodDelete
}

// ResolveURL はパスと指定から完全なURLを組み立てる
func (g *Gateway) ResolveURL(path string, opts Options) string {
	p := cleanPath(path)
	if g.usesDirect(opts) {
		return g.cfg.DirectAPIURL + "/" + p
	}
	return g.cfg.APIURL + "/" + p
}

// productsコレクションの読み取りか（失敗時に空配列へ縮退する対象）
func isProductsListing(path string, opts Options) bool {
	if cleanPath(path) != "products" {
		return false
	}
	return opts.Method == "" || opts.Method == http.MethodGet
}

// Request はパスを解決してHTTPを実行し、JSONか生テキストを返す。
// productsの読み取りだけは失敗を飲み込んで空配列に縮退させる。
func (g *Gateway) Request(ctx context.Context, path string, opts Options) (*Result, error) {
	if opts.Method == "" {
		opts.Method = http.MethodGet
	}

	res, err := g.run(ctx, path, opts)
	if err != nil && isProductsListing(path, opts) {
		g.logger.Warn().Err(err).Msg("products request failed, degrading to empty list")
		return &Result{Body: []byte("[]"), IsJSON: true, Degraded: true}, nil
	}
	return res, err
}

// HTML応答だったことを示す内部シグナル
var errHTMLPayload = errors.New("html payload")

// 解決手順を順に試す。
// プロキシ → 直アクセス（HTML応答時に1回） → CORS中継（本番のネットワーク障害時に1回）。
// どれかが成功した時点で打ち切り、尽きたら確定エラー。
func (g *Gateway) run(ctx context.Context, path string, opts Options) (*Result, error) {
	direct := g.usesDirect(opts)
	url := g.ResolveURL(path, opts)

	relayTried := false
	var extra map[string]string

	for {
		resp, err := g.do(ctx, url, opts, extra)
		if err != nil {
			// 本番では公開CORS中継を前置して1回だけ再試行する
			if !relayTried && g.cfg.Production() && g.cfg.CORSProxyURL != "" {
				relayTried = true
				extra = map[string]string{"X-Requested-With": "XMLHttpRequest"}
				g.logger.Warn().Err(err).Str("url", url).Msg("network failure, retrying via CORS relay")
				url = g.cfg.CORSProxyURL + url
				continue
			}
			return nil, &NetworkError{URL: url, Err: err}
		}

		res, err := g.interpret(resp, url, path, opts)
		if errors.Is(err, errHTMLPayload) {
			// プロキシがJSONの代わりにHTMLを返した。直アクセスで1回だけやり直す。
			if !direct {
				direct = true
				next := g.cfg.DirectAPIURL + "/" + cleanPath(path)
				g.logger.Warn().Str("url", url).Str("retry", next).Msg("got HTML response, retrying against direct base")
				url = next
				extra = nil
				continue
			}
			return nil, &RoutingError{URL: url}
		}
		return res, err
	}
}

func (g *Gateway) do(ctx context.Context, url string, opts Options, extra map[string]string) (*http.Response, error) {
	var body io.Reader
	contentType := ""

	switch {
	case opts.Body != nil:
		// multipartなどは呼び出し側が組み立て済み。境界付きのContent-Typeもそのまま使う。
		body = bytes.NewReader(opts.Body)
		contentType = opts.ContentType
	case opts.JSON != nil:
		raw, err := json.Marshal(opts.JSON)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, url, body)
	if err != nil {
		return nil, err
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if opts.Token != "" {
		req.Header.Set("Authorization", opts.Token)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	for k, v := range extra {
		req.Header.Set(k, v)
	}

	g.logger.Debug().Str("method", opts.Method).Str("url", url).Msg("api request")
	return g.client.Do(req)
}

// レスポンスの読み取りと分類
func (g *Gateway) interpret(resp *http.Response, url string, path string, opts Options) (*Result, error) {
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, raw)}
	}

	contentType := resp.Header.Get("Content-Type")
	switch {
	case strings.Contains(contentType, "application/json"):
		body := raw
		if isProductsListing(path, opts) {
			body = g.coerceProducts(raw)
		}
		return &Result{Status: resp.StatusCode, Body: body, IsJSON: true}, nil

	case strings.Contains(contentType, "text/html"):
		return nil, errHTMLPayload

	default:
		// DELETEの空応答は成功の印に変換する
		if opts.Method == http.MethodDelete && (resp.StatusCode == http.StatusNoContent || len(raw) == 0) {
			body := fmt.Sprintf(`{"success":true,"status":%d}`, resp.StatusCode)
			return &Result{Status: resp.StatusCode, Body: []byte(body), IsJSON: true}, nil
		}
		return &Result{Status: resp.StatusCode, Body: raw, IsJSON: false}, nil
	}
}

// productsは必ず配列で返す。
// オブジェクトで返ってきたら products フィールドの配列を拾い、だめなら空配列。
func (g *Gateway) coerceProducts(raw []byte) []byte {
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return []byte("[]")
	}

	if _, ok := data.([]any); ok {
		return raw
	}

	if m, ok := data.(map[string]any); ok {
		if inner, ok := m["products"].([]any); ok {
			b, err := json.Marshal(inner)
			if err == nil {
				return b
			}
		}
	}

	g.logger.Warn().Msg("products endpoint did not return an array")
	return []byte("[]")
}

// エラーメッセージの取り出し。
// JSONのmessage → 生テキスト → "HTTP <status>" の順で採用する。
func errorMessage(status int, raw []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", status)
}

// よく使うメソッドのショートハンド

func (g *Gateway) Get(ctx context.Context, path string, opts Options) (*Result, error) {
	opts.Method = http.MethodGet
	return g.Request(ctx, path, opts)
}

func (g *Gateway) Post(ctx context.Context, path string, payload any, opts Options) (*Result, error) {
	opts.Method = http.MethodPost
	opts.JSON = payload
	return g.Request(ctx, path, opts)
}

func (g *Gateway) Put(ctx context.Context, path string, payload any, opts Options) (*Result, error) {
	opts.Method = http.MethodPut
	opts.JSON = payload
	return g.Request(ctx, path, opts)
}

func (g *Gateway) Patch(ctx context.Context, path string, payload any, opts Options) (*Result, error) {
	opts.Method = http.MethodPatch
	opts.JSON = payload
	return g.Request(ctx, path, opts)
}

func (g *Gateway) Delete(ctx context.Context, path string, opts Options) (*Result, error) {
	opts.Method = http.MethodDelete
	return g.Request(ctx, path, opts)
}
