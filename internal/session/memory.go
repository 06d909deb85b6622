package session

import (
	"context"
	"sync"
	"time"

	"github.com/hitoshi/adminconsole/internal/model"
)

// MemoryStore はプロセス内メモリにセッションを保持するStore実装。
// 単一インスタンス構成向け。再起動でセッションは失われる。
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]model.Session
	now      func() time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore はMemoryStoreを生成し、期限切れセッションのクリーンアップを開始する。
// cleanupIntervalが0以下の場合はクリーンアップを行わない（FindByIDでの期限判定のみ）。
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]model.Session),
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go s.cleanupLoop(cleanupInterval)
	}
	return s
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。複数回呼んでもよい。
func (s *MemoryStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Create はセッションのコピーを保存する。
func (s *MemoryStore) Create(_ context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = *session
	return nil
}

// FindByID は指定IDのセッションのコピーを返す。
func (s *MemoryStore) FindByID(_ context.Context, id string) (*model.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok || sess.Expired(s.now()) {
		return nil, nil
	}
	return &sess, nil
}

// DeleteByID は指定IDのセッションを削除する。
func (s *MemoryStore) DeleteByID(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Len は保持しているセッション数を返す（期限切れで未回収のものを含む）。
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *MemoryStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// cleanup は期限切れのセッションを削除する。
func (s *MemoryStore) cleanup() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, id)
		}
	}
}

// compile-time interface check
var _ Store = (*MemoryStore)(nil)
