package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appKnowledge "github.com/insightloop/backend/internal/application/knowledge"
	domain "github.com/insightloop/backend/internal/domain/knowledge"
	"github.com/insightloop/backend/internal/interfaces/http/response"
)

// KnowledgeHandler 知识库处理器
type KnowledgeHandler struct {
	service *appKnowledge.Service
}

// NewKnowledgeHandler 创建知识库处理器
func NewKnowledgeHandler(service *appKnowledge.Service) *KnowledgeHandler {
	return &KnowledgeHandler{service: service}
}

// SaveNoteRequest 保存笔记请求
type SaveNoteRequest struct {
	ID    string `json:"id"`
	OrgID string `json:"org_id" binding:"required"`
	Title string `json:"title" binding:"required"`
	Body  string `json:"body" binding:"required"`
}

// ListNotes 获取组织的笔记列表
func (h *KnowledgeHandler) ListNotes(c *gin.Context) {
	orgID := c.Query("org_id")
	if orgID == "" {
		response.Error(c, http.StatusBadRequest, 920001, "org_id is required")
		return
	}

	notes, err := h.service.ListNotes(orgID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 920002, "failed to list notes")
		return
	}

	response.Success(c, notes)
}

// SaveNote 创建或更新笔记
func (h *KnowledgeHandler) SaveNote(c *gin.Context) {
	var req SaveNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, 920003, "invalid note request")
		return
	}

	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	note := &domain.Note{
		ID:    req.ID,
		OrgID: req.OrgID,
		Title: req.Title,
		Body:  req.Body,
	}

	if err := h.service.SaveNote(c.Request.Context(), note); err != nil {
		response.ErrorWithDetail(c, http.StatusInternalServerError, 920004, "failed to save note", err.Error())
		return
	}

	response.Success(c, note)
}

// DeleteNote 删除笔记
func (h *KnowledgeHandler) DeleteNote(c *gin.Context) {
	noteID := c.Param("id")

	if err := h.service.DeleteNote(c.Request.Context(), noteID); err != nil {
		response.Error(c, http.StatusInternalServerError, 920005, "failed to delete note")
		return
	}

	response.Success(c, gin.H{"id": noteID})
}

// SaveTicketRequest 保存工单请求
type SaveTicketRequest struct {
	ID          string `json:"id"`
	OrgID       string `json:"org_id" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

// ListTickets 获取组织的工单列表
func (h *KnowledgeHandler) ListTickets(c *gin.Context) {
	orgID := c.Query("org_id")
	if orgID == "" {
		response.Error(c, http.StatusBadRequest, 920006, "org_id is required")
		return
	}

	tickets, err := h.service.ListTickets(orgID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 920007, "failed to list tickets")
		return
	}

	response.Success(c, tickets)
}

// SaveTicket 创建或更新工单
func (h *KnowledgeHandler) SaveTicket(c *gin.Context) {
	var req SaveTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, 920008, "invalid ticket request")
		return
	}

	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	ticket := &domain.Ticket{
		ID:          req.ID,
		OrgID:       req.OrgID,
		Title:       req.Title,
		Description: req.Description,
	}

	if err := h.service.SaveTicket(ticket); err != nil {
		response.Error(c, http.StatusInternalServerError, 920009, "failed to save ticket")
		return
	}

	response.Success(c, ticket)
}

// CloseTicket 关闭工单
func (h *KnowledgeHandler) CloseTicket(c *gin.Context) {
	ticketID := c.Param("id")

	if err := h.service.CloseTicket(ticketID); err != nil {
		response.Error(c, http.StatusInternalServerError, 920010, "failed to close ticket")
		return
	}

	response.Success(c, gin.H{"id": ticketID})
}

// SaveProfileRequest 保存企业画像请求
type SaveProfileRequest struct {
	OrgID       string   `json:"org_id" binding:"required"`
	CompanyName string   `json:"company_name"`
	ContactName string   `json:"contact_name"`
	ContactRole string   `json:"contact_role"`
	Industry    string   `json:"industry"`
	TeamSize    string   `json:"team_size"`
	Mission     string   `json:"mission"`
	Vision      string   `json:"vision"`
	DataSources []string `json:"data_sources"`
}

// GetProfile 获取企业画像
func (h *KnowledgeHandler) GetProfile(c *gin.Context) {
	orgID := c.Query("org_id")
	if orgID == "" {
		response.Error(c, http.StatusBadRequest, 920011, "org_id is required")
		return
	}

	profile, err := h.service.GetProfile(orgID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 920012, "failed to get profile")
		return
	}

	response.Success(c, profile)
}

// SaveProfile 保存企业画像
func (h *KnowledgeHandler) SaveProfile(c *gin.Context) {
	var req SaveProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, 920013, "invalid profile request")
		return
	}

	profile := &domain.CompanyProfile{
		OrgID:       req.OrgID,
		CompanyName: req.CompanyName,
		ContactName: req.ContactName,
		ContactRole: req.ContactRole,
		Industry:    req.Industry,
		TeamSize:    req.TeamSize,
		Mission:     req.Mission,
		Vision:      req.Vision,
		DataSources: req.DataSources,
	}

	if err := h.service.SaveProfile(profile); err != nil {
		response.Error(c, http.StatusInternalServerError, 920014, "failed to save profile")
		return
	}

	response.Success(c, profile)
}
