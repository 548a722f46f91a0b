package mcp

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	domain "github.com/insightloop/backend/internal/domain/knowledge"
)

// SearchKnowledgeInput 知识检索工具输入
type SearchKnowledgeInput struct {
	Query string `json:"query" jsonschema:"Search query - describe what you're looking for in natural language (required)"`
	OrgID string `json:"org_id" jsonschema:"Organization ID to search in (required)"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of results to return, defaults to 5, max 10"`
}

// SearchKnowledgeOutput 知识检索工具输出
type SearchKnowledgeOutput struct {
	Results    []*KnowledgeSearchResult `json:"results" jsonschema:"Ranked list of relevant note snippets"`
	TotalCount int                      `json:"total_count" jsonschema:"Total number of results returned"`
}

// KnowledgeSearchResult 知识检索结果
type KnowledgeSearchResult struct {
	Title   string  `json:"title" jsonschema:"Note title"`
	Excerpt string  `json:"excerpt" jsonschema:"Relevant excerpt from the note body"`
	Score   float32 `json:"score" jsonschema:"Relevance score, higher is more relevant"`
}

// searchKnowledgeTool 知识检索工具实现
func (s *MCPServer) searchKnowledgeTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SearchKnowledgeInput,
) (*mcp.CallToolResult, SearchKnowledgeOutput, error) {
	output := SearchKnowledgeOutput{
		Results: []*KnowledgeSearchResult{},
	}

	if input.Query == "" {
		return nil, output, fmt.Errorf("query is required")
	}
	if input.OrgID == "" {
		return nil, output, fmt.Errorf("org_id is required")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 5
	}
	if limit > 10 {
		limit = 10
	}

	snippets, err := s.retriever.Query(ctx, input.OrgID, input.Query, limit)
	if err != nil {
		return nil, output, fmt.Errorf("knowledge search failed: %w", err)
	}

	for _, snippet := range snippets {
		output.Results = append(output.Results, &KnowledgeSearchResult{
			Title:   snippet.Title,
			Excerpt: snippet.Excerpt,
			Score:   snippet.Score,
		})
	}
	output.TotalCount = len(output.Results)

	return nil, output, nil
}

// CompanyProfileInput 企业画像工具输入
type CompanyProfileInput struct {
	OrgID string `json:"org_id" jsonschema:"Organization ID (required)"`
}

// CompanyProfileOutput 企业画像工具输出
type CompanyProfileOutput struct {
	Found       bool     `json:"found" jsonschema:"Whether a profile exists for this organization"`
	CompanyName string   `json:"company_name,omitempty" jsonschema:"Company name"`
	ContactName string   `json:"contact_name,omitempty" jsonschema:"Primary contact name"`
	ContactRole string   `json:"contact_role,omitempty" jsonschema:"Primary contact role"`
	Industry    string   `json:"industry,omitempty" jsonschema:"Industry"`
	TeamSize    string   `json:"team_size,omitempty" jsonschema:"Team size bracket"`
	Mission     string   `json:"mission,omitempty" jsonschema:"Company mission"`
	Vision      string   `json:"vision,omitempty" jsonschema:"Company vision"`
	DataSources []string `json:"data_sources,omitempty" jsonschema:"Connected data sources"`
}

// getCompanyProfileTool 企业画像工具实现
func (s *MCPServer) getCompanyProfileTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input CompanyProfileInput,
) (*mcp.CallToolResult, CompanyProfileOutput, error) {
	output := CompanyProfileOutput{}

	if input.OrgID == "" {
		return nil, output, fmt.Errorf("org_id is required")
	}

	profile, err := s.knowledgeService.GetProfile(input.OrgID)
	if err != nil {
		return nil, output, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile == nil {
		return nil, output, nil
	}

	output = CompanyProfileOutput{
		Found:       true,
		CompanyName: profile.CompanyName,
		ContactName: profile.ContactName,
		ContactRole: profile.ContactRole,
		Industry:    profile.Industry,
		TeamSize:    profile.TeamSize,
		Mission:     profile.Mission,
		Vision:      profile.Vision,
		DataSources: profile.DataSources,
	}

	return nil, output, nil
}

// OpenTicketsInput 工单列表工具输入
type OpenTicketsInput struct {
	OrgID string `json:"org_id" jsonschema:"Organization ID (required)"`
}

// OpenTicketsOutput 工单列表工具输出
type OpenTicketsOutput struct {
	Tickets    []*OpenTicketItem `json:"tickets" jsonschema:"Open work items in creation order"`
	TotalCount int               `json:"total_count" jsonschema:"Total number of open work items"`
}

// OpenTicketItem 工单列表项
type OpenTicketItem struct {
	ID          string `json:"id" jsonschema:"Ticket ID"`
	Title       string `json:"title" jsonschema:"Ticket title"`
	Description string `json:"description,omitempty" jsonschema:"Ticket description"`
}

// listOpenTicketsTool 工单列表工具实现
func (s *MCPServer) listOpenTicketsTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input OpenTicketsInput,
) (*mcp.CallToolResult, OpenTicketsOutput, error) {
	output := OpenTicketsOutput{
		Tickets: []*OpenTicketItem{},
	}

	if input.OrgID == "" {
		return nil, output, fmt.Errorf("org_id is required")
	}

	tickets, err := s.knowledgeService.ListTickets(input.OrgID)
	if err != nil {
		return nil, output, fmt.Errorf("failed to list tickets: %w", err)
	}

	for _, ticket := range tickets {
		if !ticket.IsOpen() {
			continue
		}
		output.Tickets = append(output.Tickets, &OpenTicketItem{
			ID:          ticket.ID,
			Title:       ticket.Title,
			Description: ticket.Description,
		})
	}
	output.TotalCount = len(output.Tickets)

	return nil, output, nil
}

// SaveNoteInput 保存笔记工具输入
type SaveNoteInput struct {
	OrgID string `json:"org_id" jsonschema:"Organization ID (required)"`
	Title string `json:"title" jsonschema:"Note title (required)"`
	Body  string `json:"body" jsonschema:"Note body in Markdown (required)"`
}

// SaveNoteOutput 保存笔记工具输出
type SaveNoteOutput struct {
	NoteID string `json:"note_id" jsonschema:"ID of the saved note"`
}

// saveNoteTool 保存笔记工具实现
func (s *MCPServer) saveNoteTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SaveNoteInput,
) (*mcp.CallToolResult, SaveNoteOutput, error) {
	output := SaveNoteOutput{}

	if input.OrgID == "" {
		return nil, output, fmt.Errorf("org_id is required")
	}
	if input.Title == "" {
		return nil, output, fmt.Errorf("title is required")
	}
	if input.Body == "" {
		return nil, output, fmt.Errorf("body is required")
	}

	note := &domain.Note{
		ID:    uuid.New().String(),
		OrgID: input.OrgID,
		Title: input.Title,
		Body:  input.Body,
	}

	if err := s.knowledgeService.SaveNote(ctx, note); err != nil {
		return nil, output, fmt.Errorf("failed to save note: %w", err)
	}

	output.NoteID = note.ID
	return nil, output, nil
}
