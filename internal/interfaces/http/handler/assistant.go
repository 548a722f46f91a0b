package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	appAssistant "github.com/insightloop/backend/internal/application/assistant"
	"github.com/insightloop/backend/internal/infrastructure/stream"
	"github.com/insightloop/backend/internal/interfaces/http/response"
)

// AssistantHandler 对话处理器
type AssistantHandler struct {
	service *appAssistant.Service
}

// NewAssistantHandler 创建对话处理器
func NewAssistantHandler(service *appAssistant.Service) *AssistantHandler {
	return &AssistantHandler{service: service}
}

// TurnRequest 对话请求
type TurnRequest struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id" binding:"required"`
	OrgID     string `json:"org_id" binding:"required"`
	Message   string `json:"message" binding:"required"`
}

// StopRequest 停止生成请求
type StopRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// Turn 处理一轮对话，回复以 SSE 流式返回
func (h *AssistantHandler) Turn(c *gin.Context) {
	var req TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, 910001, "invalid turn request")
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		response.Error(c, http.StatusInternalServerError, 910002, "streaming is not supported")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	flusher.Flush()

	writer := newSSEWriter(c.Writer, flusher)

	_, err := h.service.HandleTurn(c.Request.Context(), appAssistant.TurnRequest{
		SessionID: req.SessionID,
		UserID:    req.UserID,
		OrgID:     req.OrgID,
		Message:   req.Message,
	}, writer.Callbacks())
	if err != nil {
		// 流已经开始，错误只能通过流内事件传达
		writer.fail(err.Error())
	}
}

// Stop 停止当前会话的生成
func (h *AssistantHandler) Stop(c *gin.Context) {
	var req StopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, 910003, "invalid stop request")
		return
	}

	stopped := h.service.StopGeneration(req.SessionID)
	response.Success(c, gin.H{"stopped": stopped})
}

// sseWriter 将回调事件编码为 SSE 帧写入响应流
type sseWriter struct {
	w          io.Writer
	flusher    http.Flusher
	terminated bool
}

// ssePayload 单帧负载，与流式解析端的字段约定一致
type ssePayload struct {
	Metadata map[string]string `json:"metadata,omitempty"`
	Status   *sseStatus        `json:"status,omitempty"`
	Content  string            `json:"content,omitempty"`
	Error    string            `json:"error,omitempty"`
}

type sseStatus struct {
	Stage  string `json:"stage"`
	Label  string `json:"label"`
	Detail string `json:"detail,omitempty"`
}

func newSSEWriter(w io.Writer, flusher http.Flusher) *sseWriter {
	return &sseWriter{w: w, flusher: flusher}
}

// Callbacks 返回写入此流的回调集合
func (s *sseWriter) Callbacks() stream.Callbacks {
	return stream.Callbacks{
		OnToken: func(token string) {
			s.writePayload(ssePayload{Content: token})
		},
		OnStatus: func(stage, label, detail string) {
			s.writePayload(ssePayload{Status: &sseStatus{Stage: stage, Label: label, Detail: detail}})
		},
		OnMetadata: func(meta map[string]string) {
			s.writePayload(ssePayload{Metadata: meta})
		},
		OnDone: func() {
			s.writeDone()
		},
		OnError: func(message string) {
			s.fail(message)
		},
	}
}

func (s *sseWriter) writePayload(p ssePayload) {
	if s.terminated {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	fmt.Fprintf(s.w, "data: %s\n\n", data)
	s.flusher.Flush()
}

func (s *sseWriter) writeDone() {
	if s.terminated {
		return
	}
	s.terminated = true
	fmt.Fprint(s.w, "data: [DONE]\n\n")
	s.flusher.Flush()
}

func (s *sseWriter) fail(message string) {
	if s.terminated {
		return
	}
	data, err := json.Marshal(ssePayload{Error: message})
	if err == nil {
		fmt.Fprintf(s.w, "data: %s\n\n", data)
	}
	s.terminated = true
	s.flusher.Flush()
}
