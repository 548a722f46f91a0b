package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/insightloop/backend/internal/infrastructure/config"
	"github.com/insightloop/backend/internal/infrastructure/storage"
)

// ServerStatusInput 服务状态工具输入（空输入）
type ServerStatusInput struct{}

// ServerStatusOutput 服务状态工具输出
type ServerStatusOutput struct {
	Status  string `json:"status" jsonschema:"Running status"`
	Version string `json:"version" jsonschema:"Version number"`
	DBPath  string `json:"db_path" jsonschema:"Database path"`
	DataDir string `json:"data_dir" jsonschema:"Data directory"`
}

// getServerStatusTool 服务状态工具实现
func getServerStatusTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ServerStatusInput,
) (*mcp.CallToolResult, ServerStatusOutput, error) {
	output := ServerStatusOutput{
		Status:  "running",
		Version: "v0.1.0",
		DBPath:  storage.GetDBPath(nil),
		DataDir: config.GetDataDir(),
	}

	return nil, output, nil
}
