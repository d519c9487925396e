package kvstore

import (
	"context"
	"errors"
)

// キーが存在しない
var ErrNotFound = errors.New("key not found")

// KeyValueStore はカート・直近注文・トークンの保存先。
// localStorage相当の素朴なキー値ストアで、実装はメモリ／ファイル／Redis。
// いずれも正本ではなくベストエフォートのキャッシュ（注文の正本はバックエンド）。
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
