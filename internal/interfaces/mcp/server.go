package mcp

import (
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	appKnowledge "github.com/insightloop/backend/internal/application/knowledge"
	"github.com/insightloop/backend/internal/infrastructure/vector"
)

// MCPServer MCP 服务器
// 通过 SSE 暴露知识库检索和查询工具，供外部 AI 客户端调用
type MCPServer struct {
	server           *mcp.Server
	handler          http.Handler
	knowledgeService *appKnowledge.Service
	retriever        *vector.Retriever
}

// NewServer 创建 MCP 服务器
func NewServer(
	knowledgeService *appKnowledge.Service,
	retriever *vector.Retriever,
) *MCPServer {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "insightloop-assistant",
			Version: "0.1.0",
		},
		nil, // 使用默认能力
	)

	mcpServer := &MCPServer{
		server:           server,
		knowledgeService: knowledgeService,
		retriever:        retriever,
	}

	// 注册工具：get_server_status
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_server_status",
		Description: "Get the status information of the insightloop server, including running status, version number, and database path. No parameters required.",
	}, getServerStatusTool)

	// 注册工具：search_knowledge
	mcp.AddTool(server, &mcp.Tool{
		Name: "search_knowledge",
		Description: `Search the organization's knowledge base for notes relevant to a query.
Parameters:
- query (string, required): Natural language description of what to look for
- org_id (string, required): Organization ID to search in
- limit (int, optional): Maximum number of results, defaults to 5, max 10

Returns: Ranked list of note snippets with title, excerpt, and relevance score.`,
	}, mcpServer.searchKnowledgeTool)

	// 注册工具：get_company_profile
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_company_profile",
		Description: "Get the company profile for an organization, including mission, vision, industry, team size, and connected data sources. Parameters: org_id (string, required).",
	}, mcpServer.getCompanyProfileTool)

	// 注册工具：list_open_tickets
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_open_tickets",
		Description: "List the organization's open work items (tickets) in creation order. Parameters: org_id (string, required).",
	}, mcpServer.listOpenTicketsTool)

	// 注册工具：save_note
	mcp.AddTool(server, &mcp.Tool{
		Name: "save_note",
		Description: `Save a note into the organization's knowledge base and index it for semantic search.
Parameters:
- org_id (string, required): Organization ID
- title (string, required): Note title
- body (string, required): Note body in Markdown

Returns: The saved note ID.`,
	}, mcpServer.saveNoteTool)

	// 创建 SSE Handler
	handler := mcp.NewSSEHandler(
		func(r *http.Request) *mcp.Server {
			// 每个请求返回同一个服务器实例
			return server
		},
		nil, // SSEOptions，使用默认值
	)

	mcpServer.handler = handler
	return mcpServer
}

// GetHandler 获取 HTTP Handler（用于集成到 HTTP 服务器）
func (s *MCPServer) GetHandler() http.Handler {
	return s.handler
}

// Start 启动服务器（HTTP/SSE 模式）
// MCP 服务器通过 HTTP Handler 提供服务，不需要单独启动
func (s *MCPServer) Start() error {
	return nil
}

// Stop 停止服务器
func (s *MCPServer) Stop() error {
	// HTTP/SSE 模式下，由 HTTP 服务器统一管理生命周期
	return nil
}
