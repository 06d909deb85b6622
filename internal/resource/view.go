package resource

import (
	"sync"
	"time"
)

// View は1セッション・1リソースの画面状態。
// ModalのOnSuccessにMirror.Invalidateが登録されており、
// 変更が成功すると次の表示で一覧が再取得される。
type View struct {
	Resource *Definition
	Mirror   *Mirror
	Modal    *Modal

	lastAccess time.Time
}

func newView(def *Definition) *View {
	v := &View{
		Resource: def,
		Mirror:   NewMirror(),
		Modal:    NewModal(),
	}
	v.Modal.OnSuccess(v.Mirror.Invalidate)
	return v
}

// ViewCache はセッションIDとリソース名ごとにViewを保持する。
// 一定時間アクセスのないViewはバックグラウンドで切り離して破棄する。
type ViewCache struct {
	mu      sync.Mutex
	views   map[string]map[string]*View
	maxIdle time.Duration
	now     func() time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewViewCache はViewCacheを生成する。
// maxIdleが0より大きい場合、アイドルViewのクリーンアップを開始する。
func NewViewCache(maxIdle time.Duration) *ViewCache {
	c := &ViewCache{
		views:   make(map[string]map[string]*View),
		maxIdle: maxIdle,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	if maxIdle > 0 {
		go c.cleanupLoop(maxIdle)
	}
	return c
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (c *ViewCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

// Get はセッションとリソースに対応するViewを返す。なければ生成する。
func (c *ViewCache) Get(sessionID string, def *Definition) *View {
	c.mu.Lock()
	defer c.mu.Unlock()

	bySession, ok := c.views[sessionID]
	if !ok {
		bySession = make(map[string]*View)
		c.views[sessionID] = bySession
	}
	v, ok := bySession[def.Name]
	if !ok {
		v = newView(def)
		bySession[def.Name] = v
	}
	v.lastAccess = c.now()
	return v
}

// DropSession はセッションのすべてのViewを切り離して破棄する。
// ログアウト後に届いた取得結果はどのViewにも反映されない。
func (c *ViewCache) DropSession(sessionID string) {
	c.mu.Lock()
	bySession := c.views[sessionID]
	delete(c.views, sessionID)
	c.mu.Unlock()

	for _, v := range bySession {
		v.Mirror.Detach()
	}
}

// Len は保持しているViewの総数を返す。
func (c *ViewCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, bySession := range c.views {
		n += len(bySession)
	}
	return n
}

func (c *ViewCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopCh:
			return
		}
	}
}

// cleanup はmaxIdle以上アクセスのないViewを切り離して破棄する。
func (c *ViewCache) cleanup() {
	now := c.now()
	var stale []*View

	c.mu.Lock()
	for sid, bySession := range c.views {
		for name, v := range bySession {
			if now.Sub(v.lastAccess) > c.maxIdle {
				stale = append(stale, v)
				delete(bySession, name)
			}
		}
		if len(bySession) == 0 {
			delete(c.views, sid)
		}
	}
	c.mu.Unlock()

	for _, v := range stale {
		v.Mirror.Detach()
	}
}
