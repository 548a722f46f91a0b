package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/insightloop/backend/internal/infrastructure/config"
	"github.com/insightloop/backend/internal/interfaces/http/response"
)

// SettingsHandler 配置管理处理器
type SettingsHandler struct{}

// NewSettingsHandler 创建配置管理处理器
func NewSettingsHandler() *SettingsHandler {
	return &SettingsHandler{}
}

// SettingsDTO 返回给前端的配置，API Key 掩码处理
type SettingsDTO struct {
	Inference InferenceSettings `json:"inference"`
	Embedding EmbeddingSettings `json:"embedding"`
	Vector    VectorSettings    `json:"vector"`
	Knowledge KnowledgeSettings `json:"knowledge"`
}

// InferenceSettings 对话模型配置
type InferenceSettings struct {
	BaseURL string `json:"base_url"`
	APIKey  string `json:"api_key"`
	Model   string `json:"model"`
}

// EmbeddingSettings Embedding 配置
type EmbeddingSettings struct {
	URL    string `json:"url"`
	APIKey string `json:"api_key"`
	Model  string `json:"model"`
}

// VectorSettings 向量库配置
type VectorSettings struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// KnowledgeSettings 知识库配置
type KnowledgeSettings struct {
	DocsDir      string `json:"docs_dir"`
	DefaultOrgID string `json:"default_org_id"`
}

// maskAPIKey 掩码 API Key，只保留前后 4 位
func maskAPIKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

// Get 获取当前配置
func (h *SettingsHandler) Get(c *gin.Context) {
	cfg, err := config.NewConfig()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 940001, "failed to load settings")
		return
	}

	response.Success(c, SettingsDTO{
		Inference: InferenceSettings{
			BaseURL: cfg.Inference.BaseURL,
			APIKey:  maskAPIKey(cfg.Inference.APIKey),
			Model:   cfg.Inference.Model,
		},
		Embedding: EmbeddingSettings{
			URL:    cfg.Embedding.URL,
			APIKey: maskAPIKey(cfg.Embedding.APIKey),
			Model:  cfg.Embedding.Model,
		},
		Vector: VectorSettings{
			Host: cfg.Vector.Host,
			Port: cfg.Vector.Port,
		},
		Knowledge: KnowledgeSettings{
			DocsDir:      cfg.Knowledge.DocsDir,
			DefaultOrgID: cfg.Knowledge.DefaultOrgID,
		},
	})
}

// UpdateSettingsRequest 更新配置请求
// 只更新提交的字段，掩码过的 API Key 不覆盖原值
type UpdateSettingsRequest struct {
	Inference *InferenceSettings `json:"inference"`
	Embedding *EmbeddingSettings `json:"embedding"`
	Vector    *VectorSettings    `json:"vector"`
	Knowledge *KnowledgeSettings `json:"knowledge"`
}

// isMasked 判断提交的 API Key 是否是掩码值
func isMasked(key string) bool {
	return strings.Contains(key, "****")
}

// Update 更新配置并落盘
func (h *SettingsHandler) Update(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, 940002, "invalid settings request")
		return
	}

	cfg, err := config.NewConfig()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 940003, "failed to load settings")
		return
	}

	if req.Inference != nil {
		cfg.Inference.BaseURL = req.Inference.BaseURL
		cfg.Inference.Model = req.Inference.Model
		if req.Inference.APIKey != "" && !isMasked(req.Inference.APIKey) {
			cfg.Inference.APIKey = req.Inference.APIKey
		}
	}
	if req.Embedding != nil {
		cfg.Embedding.URL = req.Embedding.URL
		cfg.Embedding.Model = req.Embedding.Model
		if req.Embedding.APIKey != "" && !isMasked(req.Embedding.APIKey) {
			cfg.Embedding.APIKey = req.Embedding.APIKey
		}
	}
	if req.Vector != nil {
		cfg.Vector = config.VectorConfig{Host: req.Vector.Host, Port: req.Vector.Port}
	}
	if req.Knowledge != nil {
		cfg.Knowledge = config.KnowledgeConfig{
			DocsDir:      req.Knowledge.DocsDir,
			DefaultOrgID: req.Knowledge.DefaultOrgID,
		}
	}

	if err := config.SaveConfig(cfg); err != nil {
		response.Error(c, http.StatusInternalServerError, 940004, "failed to save settings")
		return
	}

	response.Success(c, gin.H{"restart_required": true})
}
