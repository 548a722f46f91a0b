package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domain "github.com/insightloop/backend/internal/domain/assistant"
	"github.com/insightloop/backend/internal/interfaces/http/response"
)

// SessionHandler 会话管理处理器
type SessionHandler struct {
	sessions domain.SessionRepository
}

// NewSessionHandler 创建会话管理处理器
func NewSessionHandler(sessions domain.SessionRepository) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// SessionSummaryDTO 会话列表项
type SessionSummaryDTO struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	OrgID      string `json:"org_id"`
	ActiveFlow string `json:"active_flow,omitempty"`
	CreatedAt  int64  `json:"createdAt"` // Unix 毫秒时间戳
	UpdatedAt  int64  `json:"updatedAt"` // Unix 毫秒时间戳
}

// List 获取用户的会话列表
func (h *SessionHandler) List(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		response.Error(c, http.StatusBadRequest, 930001, "user_id is required")
		return
	}

	sessions, err := h.sessions.ListByUser(userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 930002, "failed to list sessions")
		return
	}

	dtos := make([]*SessionSummaryDTO, 0, len(sessions))
	for _, sess := range sessions {
		dtos = append(dtos, &SessionSummaryDTO{
			ID:         sess.ID,
			UserID:     sess.UserID,
			OrgID:      sess.OrgID,
			ActiveFlow: string(sess.ActiveFlow),
			CreatedAt:  sess.CreatedAt.UnixMilli(),
			UpdatedAt:  sess.UpdatedAt.UnixMilli(),
		})
	}

	response.Success(c, dtos)
}

// Detail 获取会话详情（包含完整对话记录）
func (h *SessionHandler) Detail(c *gin.Context) {
	sessionID := c.Param("id")

	sess, err := h.sessions.FindByID(sessionID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 930003, "failed to load session")
		return
	}
	if sess == nil {
		response.Error(c, http.StatusNotFound, 930004, "session not found")
		return
	}

	response.Success(c, sess)
}

// Delete 删除会话及其对话记录
func (h *SessionHandler) Delete(c *gin.Context) {
	sessionID := c.Param("id")

	if err := h.sessions.Delete(sessionID); err != nil {
		response.Error(c, http.StatusInternalServerError, 930005, "failed to delete session")
		return
	}

	response.Success(c, gin.H{"id": sessionID})
}
