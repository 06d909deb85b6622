package resource

import (
	"sync"
	"time"

	"github.com/hitoshi/adminconsole/internal/model"
)

// Ticket は一覧取得の開始時に発行される世代番号。
// Commitは発行後に他の取得開始・無効化・切り離しがなかった場合のみ反映される。
type Ticket struct {
	gen uint64
}

// Mirror は最後に成功した一覧取得結果の写し。
// リモートAPIが権威ある状態を持ち、Mirrorはマージや競合解決を行わない。
type Mirror struct {
	mu        sync.RWMutex
	gen       uint64
	records   []model.Record
	valid     bool
	detached  bool
	fetchedAt time.Time
}

// NewMirror は空のMirrorを生成する。
func NewMirror() *Mirror {
	return &Mirror{}
}

// Begin は一覧取得の開始を記録し、Ticketを返す。
// それ以前に発行されたTicketは無効になる。
func (m *Mirror) Begin() Ticket {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	return Ticket{gen: m.gen}
}

// Commit は取得結果で写しを置き換える。
// Ticketが古い場合、またはDetach済みの場合は何もせずfalseを返す。
func (m *Mirror) Commit(t Ticket, records []model.Record) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.detached || t.gen != m.gen {
		return false
	}
	m.records = append([]model.Record(nil), records...)
	m.valid = true
	m.fetchedAt = time.Now()
	return true
}

// Invalidate は写しを無効にする。進行中の取得結果も反映されなくなる。
func (m *Mirror) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	m.valid = false
}

// Detach はビューが破棄されたことを記録する。以後のCommitはすべて無視される。
func (m *Mirror) Detach() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detached = true
	m.valid = false
	m.records = nil
}

// Snapshot は写しのコピーと、それが有効かどうかを返す。
func (m *Mirror) Snapshot() ([]model.Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.valid {
		return nil, false
	}
	return append([]model.Record(nil), m.records...), true
}

// Find は有効な写しから指定IDのレコードを探す。
func (m *Mirror) Find(id string) (model.Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.valid {
		return model.Record{}, false
	}
	for _, r := range m.records {
		if r.ID == id {
			return r, true
		}
	}
	return model.Record{}, false
}

// FetchedAt は最後にCommitされた時刻を返す。
func (m *Mirror) FetchedAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fetchedAt
}
