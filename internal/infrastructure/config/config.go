package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Inference InferenceConfig `yaml:"inference"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Vector    VectorConfig    `yaml:"vector"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	WebSocket WebSocketConfig `yaml:"websocket"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTPPort string `yaml:"http_port"` // 固定端口，用于单例锁
	MCPPort  string `yaml:"mcp_port"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// InferenceConfig 对话模型 API 配置
type InferenceConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"` // 加密存储
	Model   string `yaml:"model"`
}

// EmbeddingConfig Embedding API 配置
type EmbeddingConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"` // 加密存储
	Model  string `yaml:"model"`
}

// VectorConfig Qdrant 连接配置
type VectorConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// KnowledgeConfig 知识库配置
type KnowledgeConfig struct {
	// DocsDir 被监听的 Markdown 文档目录，留空使用 <data_dir>/knowledge
	DocsDir string `yaml:"docs_dir"`
	// DefaultOrgID 文档目录归属的组织
	DefaultOrgID string `yaml:"default_org_id"`
}

// WebSocketConfig WebSocket 配置
type WebSocketConfig struct {
	ReadBufferSize  int `yaml:"read_buffer_size"`
	WriteBufferSize int `yaml:"write_buffer_size"`
}

// DefaultConfig 创建默认配置
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: ":19980",
			MCPPort:  ":19981",
		},
		Database: DatabaseConfig{
			Path: "",
		},
		Inference: InferenceConfig{
			BaseURL: "http://localhost:11434/v1",
			Model:   "qwen2.5:14b",
		},
		Embedding: EmbeddingConfig{
			Model: "text-embedding-3-small",
		},
		Vector: VectorConfig{
			Host: "localhost",
			Port: 6334,
		},
		Knowledge: KnowledgeConfig{
			DocsDir:      "",
			DefaultOrgID: "default",
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// ConfigFilePath 配置文件路径
func ConfigFilePath() string {
	return filepath.Join(GetDataDir(), "config.yaml")
}

// NewConfig 加载配置：在默认值上叠加 config.yaml 的内容
// 文件不存在时直接使用默认值；API Key 读取后解密
func NewConfig() (*Config, error) {
	cfg := DefaultConfig()

	path := ConfigFilePath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	keystore, err := NewKeystore()
	if err != nil {
		return nil, fmt.Errorf("failed to open keystore: %w", err)
	}
	if cfg.Inference.APIKey != "" {
		if decrypted, err := keystore.Decrypt(cfg.Inference.APIKey); err == nil {
			cfg.Inference.APIKey = decrypted
		}
	}
	if cfg.Embedding.APIKey != "" {
		if decrypted, err := keystore.Decrypt(cfg.Embedding.APIKey); err == nil {
			cfg.Embedding.APIKey = decrypted
		}
	}

	return cfg, nil
}

// SaveConfig 写入配置文件，API Key 加密后落盘
func SaveConfig(cfg *Config) error {
	keystore, err := NewKeystore()
	if err != nil {
		return fmt.Errorf("failed to open keystore: %w", err)
	}

	// 创建副本以避免修改原始配置
	copied := *cfg
	if copied.Inference.APIKey != "" {
		if encrypted, err := keystore.Encrypt(copied.Inference.APIKey); err == nil {
			copied.Inference.APIKey = encrypted
		}
	}
	if copied.Embedding.APIKey != "" {
		if encrypted, err := keystore.Encrypt(copied.Embedding.APIKey); err == nil {
			copied.Embedding.APIKey = encrypted
		}
	}

	path := ConfigFilePath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(&copied)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DocsDir 返回知识文档目录，留空时使用 <data_dir>/knowledge
func (c *Config) DocsDir() string {
	if c.Knowledge.DocsDir != "" {
		return c.Knowledge.DocsDir
	}
	return filepath.Join(GetDataDir(), "knowledge")
}

// NewServerConfig 创建服务器配置
func NewServerConfig(cfg *Config) *ServerConfig {
	return &cfg.Server
}

// NewDatabaseConfig 创建数据库配置
func NewDatabaseConfig(cfg *Config) *DatabaseConfig {
	return &cfg.Database
}

// NewInferenceConfig 创建对话模型配置
func NewInferenceConfig(cfg *Config) *InferenceConfig {
	return &cfg.Inference
}

// NewEmbeddingConfig 创建 Embedding 配置
func NewEmbeddingConfig(cfg *Config) *EmbeddingConfig {
	return &cfg.Embedding
}

// NewVectorConfig 创建向量库配置
func NewVectorConfig(cfg *Config) *VectorConfig {
	return &cfg.Vector
}

// NewKnowledgeConfig 创建知识库配置
func NewKnowledgeConfig(cfg *Config) *KnowledgeConfig {
	return &cfg.Knowledge
}
