package gateway

import (
	"errors"
	"fmt"
)

// 通信そのものが失敗した（接続断・DNS・タイムアウトなど）
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// JSONを期待した場所でHTMLが返った（ベースURLの設定ミス）
type RoutingError struct {
	URL string
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("routing error: got HTML instead of JSON from %s", e.URL)
}

// サーバーがリクエストを拒否した
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

func AsNetworkError(err error) (*NetworkError, bool) {
	var ne *NetworkError
	ok := errors.As(err, &ne)
	return ne, ok
}

func AsRoutingError(err error) (*RoutingError, bool) {
	var re *RoutingError
	ok := errors.As(err, &re)
	return re, ok
}
