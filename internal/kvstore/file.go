package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore はJSONファイル1枚に全キーを保存する実装。
// 書き込みは毎回ファイル全体を書き直す。CLI用途の頻度なら十分。
// キー間のトランザクション保証はない（壊れていたら空として読み直す）。
type FileStore struct {
	path string

	mu   sync.Mutex
	data map[string]string
}

func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, data: map[string]string{}}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	// 壊れたファイルは空扱い（ベストエフォートのキャッシュなので捨てる）
	if err := json.Unmarshal(raw, &s.data); err != nil {
		s.data = map[string]string{}
	}

	return s, nil
}

func (s *FileStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *FileStore) Set(ctx context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
	return s.flush()
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return s.flush()
}

func (s *FileStore) flush() error {
	raw, err := json.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}
