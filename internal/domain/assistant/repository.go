package assistant

// SessionRepository 会话仓储接口
// 编排器在每轮结束后将会话状态交给它持久化
type SessionRepository interface {
	Save(session *Session) error
	FindByID(id string) (*Session, error)
	ListByUser(userID string) ([]*Session, error)
	Delete(id string) error
}

// TurnRepository 对话记录仓储接口
type TurnRepository interface {
	Append(sessionID string, turn Turn) error
	ListBySession(sessionID string) ([]Turn, error)
}
