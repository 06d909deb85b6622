package resource

import (
	"errors"
	"sync"
)

// ModalKind はモーダルの種類。
type ModalKind string

const (
	ModalCreate ModalKind = "create"
	ModalEdit   ModalKind = "edit"
	ModalDelete ModalKind = "delete"
)

// ParseModalKind は文字列からModalKindを返す。
func ParseModalKind(s string) (ModalKind, bool) {
	switch k := ModalKind(s); k {
	case ModalCreate, ModalEdit, ModalDelete:
		return k, true
	}
	return "", false
}

// NeedsRecord は既存レコードを対象とするモーダルかどうかを返す。
func (k ModalKind) NeedsRecord() bool {
	return k == ModalEdit || k == ModalDelete
}

// ModalState はモーダルの状態。
type ModalState int

const (
	ModalClosed ModalState = iota
	ModalOpen
	ModalSubmitting
)

func (s ModalState) String() string {
	switch s {
	case ModalClosed:
		return "closed"
	case ModalOpen:
		return "open"
	case ModalSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

var (
	// ErrSubmitInProgress は送信中のモーダルに再度送信しようとしたことを示す。
	ErrSubmitInProgress = errors.New("submission already in progress")
	// ErrModalClosed は開いていないモーダルを送信しようとしたことを示す。
	ErrModalClosed = errors.New("modal is not open")
)

// Modal は作成・編集・削除モーダルの状態機械。
//
//	Closed -> Open -> Submitting -> Closed（成功、OnSuccessを実行）
//	                             -> Open（失敗）
//
// 検証エラーではOpenのまま、Submittingには遷移しない。
// 表示するエラーはSubmitの戻り値で呼び出し側に渡し、ここには保持しない。
type Modal struct {
	mu        sync.Mutex
	state     ModalState
	onSuccess []func()
}

// NewModal は閉じた状態のModalを生成する。
func NewModal() *Modal {
	return &Modal{}
}

// OnSuccess は送信成功時に呼ばれるコールバックを登録する。
func (m *Modal) OnSuccess(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onSuccess = append(m.onSuccess, fn)
}

// Open はモーダルを開く。
// 送信中の場合は状態を変えずにErrSubmitInProgressを返す。
func (m *Modal) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == ModalSubmitting {
		return ErrSubmitInProgress
	}
	m.state = ModalOpen
	return nil
}

// BeginSubmit はOpenからSubmittingに遷移する。
func (m *Modal) BeginSubmit() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case ModalSubmitting:
		return ErrSubmitInProgress
	case ModalClosed:
		return ErrModalClosed
	}
	m.state = ModalSubmitting
	return nil
}

// Succeed はモーダルを閉じ、登録されたOnSuccessコールバックを実行する。
// コールバックはロックの外で呼ばれる。
func (m *Modal) Succeed() {
	m.mu.Lock()
	if m.state != ModalSubmitting {
		m.mu.Unlock()
		return
	}
	m.state = ModalClosed
	callbacks := append([]func(){}, m.onSuccess...)
	m.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

// Fail はSubmittingからOpenに戻す。
func (m *Modal) Fail() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != ModalSubmitting {
		return
	}
	m.state = ModalOpen
}

// Close はモーダルを閉じる。送信中の場合は何もしない。
func (m *Modal) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == ModalSubmitting {
		return
	}
	m.state = ModalClosed
}

// State は現在の状態を返す。
func (m *Modal) State() ModalState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}
