// Package viewcache はキャッシュ済みビューの再検証シグナルを提供する。
//
// パイプラインは請求書の行をキャッシュしない。コミット後にパスごとの
// 世代カウンタを進めることで「一覧の再計算が必要」という事実だけを伝え、
// Presentation Layer側は世代由来のETagで再フェッチを判断する。
package viewcache

import (
	"fmt"
	"sync"
)

// Store はパスごとのビュー世代を保持する。
// ゼロ値は使用せずNewで生成する。並行アクセスに対して安全。
type Store struct {
	mu          sync.RWMutex
	generations map[string]uint64
}

// New はStoreを生成する。
func New() *Store {
	return &Store{
		generations: make(map[string]uint64),
	}
}

// Invalidate は指定パスのキャッシュ済みビューが古くなったことを通知する。
// 次のアクセスで再計算が必要になる。
func (s *Store) Invalidate(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[path]++
}

// Generation は指定パスの現在の世代を返す。未登録のパスは0。
func (s *Store) Generation(path string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generations[path]
}

// ETag は指定パスの世代からHTTP ETag値を生成する。
func (s *Store) ETag(path string) string {
	return fmt.Sprintf(`"v%d"`, s.Generation(path))
}
