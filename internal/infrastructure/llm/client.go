// Package llm 推理后端客户端
// 后端被视为不透明的 Token 生成服务，响应体按行分帧协议流式返回
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"log/slog"

	"github.com/insightloop/backend/internal/infrastructure/log"
	"github.com/insightloop/backend/internal/infrastructure/stream"
)

// Client 推理后端 Chat 客户端
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// Message Chat 消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest Chat API 请求
type ChatRequest struct {
	Messages []Message `json:"messages"`
	Model    string    `json:"model,omitempty"`
	Stream   bool      `json:"stream"`
}

// NewClient 创建推理后端客户端
func NewClient(baseURL, apiKey, model string) *Client {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			// 流式响应整体读取时间，不是单块间隔
			Timeout: 120 * time.Second,
		},
		logger: log.NewModuleLogger("llm", "client"),
	}
}

// StreamChat 发起流式对话
// 响应字节块逐块送入分帧器，事件经 cb 按帧序回调
// 传输失败上报唯一一次 Error 事件；ctx 取消合成 Done 后即刻返回
func (c *Client) StreamChat(ctx context.Context, messages []Message, cb stream.Callbacks) error {
	framer := stream.NewFramer(cb)

	reqBody := ChatRequest{
		Messages: messages,
		Model:    c.model,
		Stream:   true,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		framer.Fail("failed to build chat request")
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		framer.Fail("failed to build chat request")
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

	c.logger.Debug("Starting chat stream",
		"url", url,
		"model", c.model,
		"messages", len(messages),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			framer.Cancel()
			return nil
		}
		framer.Fail("inference backend unreachable")
		return fmt.Errorf("chat stream request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		framer.Fail(fmt.Sprintf("inference backend returned status %d", resp.StatusCode))
		return fmt.Errorf("chat stream returned status %d: %s", resp.StatusCode, string(body))
	}

	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			framer.Feed(buf[:n])
		}
		if framer.Terminated() {
			return nil
		}
		if readErr == io.EOF {
			framer.Finish()
			return nil
		}
		if readErr != nil {
			if ctx.Err() != nil {
				framer.Cancel()
				return nil
			}
			c.logger.Warn("Chat stream broken mid-turn", "error", readErr)
			framer.Fail("connection to inference backend was interrupted")
			return fmt.Errorf("chat stream read failed: %w", readErr)
		}
	}
}

// TestConnection 测试推理后端连通性
func (c *Client) TestConnection(ctx context.Context) error {
	reqBody := ChatRequest{
		Messages: []Message{{Role: "user", Content: "ping"}},
		Model:    c.model,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal test request: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create test request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("connection test failed with status %d: %s", resp.StatusCode, string(body))
	}

	c.logger.Info("Inference backend connection test successful", "model", c.model)
	return nil
}
