package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	domain "github.com/insightloop/backend/internal/domain/assistant"
	"github.com/insightloop/backend/internal/infrastructure/log"
)

// SessionManager 会话管理器
// 同一会话的轮次严格串行，不同会话完全并行
type SessionManager struct {
	mu     sync.Mutex
	states map[string]*sessionState
	repo   domain.SessionRepository
	logger *slog.Logger
}

// sessionState 单个会话的运行时状态
type sessionState struct {
	mu   sync.Mutex // 持有期间代表一轮在处理中
	sess *domain.Session

	cancelMu sync.Mutex
	cancel   context.CancelFunc
}

// NewSessionManager 创建会话管理器
func NewSessionManager(repo domain.SessionRepository) *SessionManager {
	return &SessionManager{
		states: make(map[string]*sessionState),
		repo:   repo,
		logger: log.NewModuleLogger("assistant", "sessions"),
	}
}

// Checkout 独占取出会话，不存在则创建
// 返回的 release 必须在本轮结束后调用；期间同会话的其他轮次会排队
func (m *SessionManager) Checkout(sessionID, userID, orgID string) (*domain.Session, func(), error) {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	m.mu.Lock()
	state, ok := m.states[sessionID]
	if !ok {
		state = &sessionState{}
		m.states[sessionID] = state
	}
	m.mu.Unlock()

	state.mu.Lock()

	if state.sess == nil {
		sess, err := m.repo.FindByID(sessionID)
		if err != nil {
			state.mu.Unlock()
			return nil, nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
		}
		if sess == nil {
			sess = domain.NewSession(sessionID, userID, orgID)
			m.logger.Info("Session created", "session_id", sessionID, "org_id", orgID)
		}
		state.sess = sess
	}

	release := func() {
		state.mu.Unlock()
	}
	return state.sess, release, nil
}

// Persist 将会话状态写回存储
func (m *SessionManager) Persist(sess *domain.Session) error {
	return m.repo.Save(sess)
}

// SetCancel 登记当前轮的停止函数，轮结束后传 nil 清除
func (m *SessionManager) SetCancel(sessionID string, cancel context.CancelFunc) {
	m.mu.Lock()
	state, ok := m.states[sessionID]
	m.mu.Unlock()
	if !ok {
		return
	}

	state.cancelMu.Lock()
	state.cancel = cancel
	state.cancelMu.Unlock()
}

// StopGeneration 停止会话正在进行的生成
// 没有进行中的生成时返回 false
func (m *SessionManager) StopGeneration(sessionID string) bool {
	m.mu.Lock()
	state, ok := m.states[sessionID]
	m.mu.Unlock()
	if !ok {
		return false
	}

	state.cancelMu.Lock()
	cancel := state.cancel
	state.cancel = nil
	state.cancelMu.Unlock()

	if cancel == nil {
		return false
	}
	cancel()
	m.logger.Info("Generation stopped by caller", "session_id", sessionID)
	return true
}
