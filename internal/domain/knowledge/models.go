package knowledge

import (
	"strings"
	"time"
)

// Note 知识库条目（自由文本笔记）
type Note struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"org_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Excerpt 返回笔记正文的截断摘录
func (n *Note) Excerpt(maxLen int) string {
	body := strings.TrimSpace(n.Body)
	if maxLen <= 0 || len(body) <= maxLen {
		return body
	}
	return body[:maxLen] + "..."
}

// TicketStatus 工单状态
type TicketStatus string

const (
	TicketOpen   TicketStatus = "open"
	TicketClosed TicketStatus = "closed"
)

// Ticket 未完成工作项（工单）
type Ticket struct {
	ID          string       `json:"id"`
	OrgID       string       `json:"org_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      TicketStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// IsOpen 判断工单是否未完成
func (t *Ticket) IsOpen() bool {
	return t.Status == TicketOpen
}

// CompanyProfile 结构化企业事实
// 缺失的字段保持为空，组装上下文时不得凭空补全
type CompanyProfile struct {
	OrgID       string    `json:"org_id"`
	CompanyName string    `json:"company_name"`
	ContactName string    `json:"contact_name"`
	ContactRole string    `json:"contact_role"`
	Industry    string    `json:"industry"`
	TeamSize    string    `json:"team_size"`
	Mission     string    `json:"mission"`
	Vision      string    `json:"vision"`
	DataSources []string  `json:"data_sources"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SnippetOrigin 知识片段来源
type SnippetOrigin string

const (
	// OriginSemantic 语义检索命中
	OriginSemantic SnippetOrigin = "semantic"
	// OriginKeyword 关键词匹配回退
	OriginKeyword SnippetOrigin = "keyword"
)

// Snippet 排序后的知识片段
type Snippet struct {
	Title   string        `json:"title"`
	Excerpt string        `json:"excerpt"`
	Score   float32       `json:"score"`
	Origin  SnippetOrigin `json:"origin"`
}

// Snapshot 知识库快照
// 由外部数据层获取，本核心视为只读值对象
type Snapshot struct {
	Profile     *CompanyProfile `json:"profile,omitempty"`
	Notes       []*Note         `json:"notes"`
	OpenTickets []*Ticket       `json:"open_tickets"`
}

// EmptySnapshot 返回空快照（协作方失败时的降级值）
func EmptySnapshot() *Snapshot {
	return &Snapshot{}
}
