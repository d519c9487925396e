package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"storefront/internal/config"
	"storefront/internal/domain/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGateway(cfg config.Config) *Gateway {
	return New(cfg, zerolog.Nop())
}

func devConfig(apiURL, directURL string) config.Config {
	return config.Config{
		APIURL:       apiURL,
		DirectAPIURL: directURL,
		AppEnv:       "development",
	}
}

func jsonHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func htmlHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<!DOCTYPE html><html></html>"))
	}
}

// 接続できないURL（予約ポート）
const deadURL = "http://127.0.0.1:1/api"

func TestResolveURL(t *testing.T) {
	g := newGateway(devConfig("http://proxy/api", "http://direct/api"))

	// 通常はプロキシ、先頭スラッシュは剥がす
	assert.Equal(t, "http://proxy/api/products", g.ResolveURL("products", Options{}))
	assert.Equal(t, "http://proxy/api/products", g.ResolveURL("/products", Options{}))

	// 明示指定・認証付き・DELETEは直アクセス
	assert.Equal(t, "http://direct/api/products", g.ResolveURL("products", Options{ForceDirect: true}))
	assert.Equal(t, "http://direct/api/products", g.ResolveURL("products", Options{Credentialed: true}))
	assert.Equal(t, "http://direct/api/products", g.ResolveURL("products", Options{Method: http.MethodDelete}))
}

func TestResolveURL_ProductionUsesDirect(t *testing.T) {
	g := newGateway(config.Config{
		APIURL:       "http://proxy/api",
		DirectAPIURL: "http://direct/api",
		AppEnv:       "production",
	})
	assert.Equal(t, "http://direct/api/orders", g.ResolveURL("orders", Options{}))
}

func TestRequest_HTMLRetriesOnceAgainstDirect(t *testing.T) {
	var proxyHits, directHits int32

	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&proxyHits, 1)
		htmlHandler()(w, r)
	}))
	defer proxy.Close()

	direct := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&directHits, 1)
		jsonHandler(`{"id":"o1","status":"Pending"}`)(w, r)
	}))
	defer direct.Close()

	g := newGateway(devConfig(proxy.URL+"/api", direct.URL+"/api"))

	res, err := g.Get(context.Background(), "orders/o1", Options{})
	require.NoError(t, err)

	var o model.Order
	require.NoError(t, res.Decode(&o))
	assert.Equal(t, "o1", o.ID)

	assert.Equal(t, int32(1), atomic.LoadInt32(&proxyHits))
	assert.Equal(t, int32(1), atomic.LoadInt32(&directHits))
}

func TestRequest_HTMLOnDirectFailsWithRoutingError(t *testing.T) {
	var hits int32
	direct := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		htmlHandler()(w, r)
	}))
	defer direct.Close()

	g := newGateway(devConfig("http://unused/api", direct.URL+"/api"))

	_, err := g.Get(context.Background(), "orders/o1", Options{ForceDirect: true})
	require.Error(t, err)

	_, ok := AsRoutingError(err)
	assert.True(t, ok, "expected RoutingError, got %v", err)

	// 再試行はしない
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestRequest_ProductsObjectIsCoercedToInnerArray(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(`{"products":[{"id":"p1","name":"Tomato","price":60}]}`))
	defer srv.Close()

	g := newGateway(devConfig(srv.URL+"/api", srv.URL+"/api"))

	res, err := g.Get(context.Background(), "products", Options{})
	require.NoError(t, err)

	var products []model.Product
	require.NoError(t, res.Decode(&products))
	require.Len(t, products, 1)
	assert.Equal(t, "Tomato", products[0].Name)
}

func TestRequest_ProductsNonArrayWithoutFieldBecomesEmpty(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(`{"message":"hello"}`))
	defer srv.Close()

	g := newGateway(devConfig(srv.URL+"/api", srv.URL+"/api"))

	res, err := g.Get(context.Background(), "products", Options{})
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(res.Body))
}

func TestRequest_ProductsNetworkFailureDegradesToEmpty(t *testing.T) {
	g := newGateway(devConfig(deadURL, deadURL))

	res, err := g.Get(context.Background(), "products", Options{})
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.JSONEq(t, `[]`, string(res.Body))
}

func TestRequest_NetworkFailurePropagatesForOtherPaths(t *testing.T) {
	g := newGateway(devConfig(deadURL, deadURL))

	_, err := g.Get(context.Background(), "orders", Options{})
	require.Error(t, err)

	_, ok := AsNetworkError(err)
	assert.True(t, ok, "expected NetworkError, got %v", err)
}

func TestRequest_HTTPErrorMessageExtraction(t *testing.T) {
	cases := []struct {
		name string
		body string
		ct   string
		want string
	}{
		{"json message", `{"message":"stock exceeded"}`, "application/json", "stock exceeded"},
		{"raw text", `boom`, "text/plain", "boom"},
		{"empty body", ``, "text/plain", "HTTP 500"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tc.ct)
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			g := newGateway(devConfig(srv.URL+"/api", srv.URL+"/api"))

			_, err := g.Get(context.Background(), "orders", Options{})
			require.Error(t, err)

			he, ok := AsHTTPError(err)
			require.True(t, ok, "expected HTTPError, got %v", err)
			assert.Equal(t, http.StatusInternalServerError, he.Status)
			assert.Equal(t, tc.want, he.Message)
		})
	}
}

func TestRequest_EmptyDeleteBecomesSuccessPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	// DELETEは常に直アクセス。プロキシ側は死んでいても関係ない。
	g := newGateway(devConfig(deadURL, srv.URL+"/api"))

	res, err := g.Delete(context.Background(), "products/p1", Options{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"status":204}`, string(res.Body))
}

func TestRequest_NonJSONBodyReturnsRawText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("pong"))
	}))
	defer srv.Close()

	g := newGateway(devConfig(srv.URL+"/api", srv.URL+"/api"))

	res, err := g.Get(context.Background(), "health", Options{})
	require.NoError(t, err)
	assert.False(t, res.IsJSON)
	assert.Equal(t, "pong", string(res.Body))
}

func TestRequest_ProductionNetworkFailureRetriesViaRelay(t *testing.T) {
	var relayHits int32
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&relayHits, 1)
		assert.Equal(t, "XMLHttpRequest", r.Header.Get("X-Requested-With"))
		jsonHandler(`{"id":"o1","status":"Pending"}`)(w, r)
	}))
	defer relay.Close()

	g := newGateway(config.Config{
		APIURL:       deadURL,
		DirectAPIURL: deadURL,
		CORSProxyURL: relay.URL + "/relay?u=",
		AppEnv:       "production",
	})

	res, err := g.Get(context.Background(), "orders/o1", Options{})
	require.NoError(t, err)

	var o model.Order
	require.NoError(t, res.Decode(&o))
	assert.Equal(t, "o1", o.ID)
	assert.Equal(t, int32(1), atomic.LoadInt32(&relayHits))
}

func TestRequest_DevelopmentNetworkFailureDoesNotUseRelay(t *testing.T) {
	var relayHits int32
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&relayHits, 1)
	}))
	defer relay.Close()

	g := newGateway(config.Config{
		APIURL:       deadURL,
		DirectAPIURL: deadURL,
		CORSProxyURL: relay.URL + "/relay?u=",
		AppEnv:       "development",
	})

	_, err := g.Get(context.Background(), "orders", Options{})
	require.Error(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&relayHits))
}
