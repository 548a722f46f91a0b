package assistant

import "time"

// Role 对话角色
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn 单条对话记录
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// FlowID 对话流程标识
type FlowID string

const (
	// FlowTicketFollowup 工单跟进
	FlowTicketFollowup FlowID = "ticket-followup"
	// FlowKnowledgeInquiry 知识库咨询
	FlowKnowledgeInquiry FlowID = "knowledge-inquiry"
	// FlowProfileSetup 企业画像结构化采集
	FlowProfileSetup FlowID = "business-profile-setup"
	// FlowGeneralHelp 使用帮助
	FlowGeneralHelp FlowID = "general-help"
	// FlowTaskCompletion 任务完成确认
	FlowTaskCompletion FlowID = "task-completion"
	// FlowGeneralConversation 自由对话（走上下文组装 + 流式生成）
	FlowGeneralConversation FlowID = "general-conversation"
)

// IsStructured 判断流程是否为结构化采集流程
// 结构化流程由流程引擎逐步推进，其余流程走自由对话路径
func (f FlowID) IsStructured() bool {
	return f == FlowProfileSetup
}

// Session 一次活跃对话
// 由编排器独占持有；每轮结束后将对话记录交给外部存储
type Session struct {
	ID        string                `json:"id"`
	UserID    string                `json:"user_id"`
	OrgID     string                `json:"org_id"`
	Turns     []Turn                `json:"turns"`
	ActiveFlow FlowID               `json:"active_flow,omitempty"` // 空表示无进行中的结构化流程
	StepIndex  int                  `json:"step_index"`            // 仅在 ActiveFlow 非空时有效
	Collected  map[string]FieldValue `json:"collected"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// NewSession 创建会话
func NewSession(id, userID, orgID string) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		UserID:    userID,
		OrgID:     orgID,
		Collected: make(map[string]FieldValue),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AppendTurn 追加一条对话记录
func (s *Session) AppendTurn(role Role, content string) {
	now := time.Now()
	s.Turns = append(s.Turns, Turn{Role: role, Content: content, CreatedAt: now})
	s.UpdatedAt = now
}

// InFlow 判断会话是否处于结构化流程中
func (s *Session) InFlow() bool {
	return s.ActiveFlow != ""
}

// CollectedSnapshot 返回已采集数据的副本
func (s *Session) CollectedSnapshot() map[string]FieldValue {
	snapshot := make(map[string]FieldValue, len(s.Collected))
	for k, v := range s.Collected {
		snapshot[k] = v
	}
	return snapshot
}

// FieldValue 已验证的采集字段值
// 文本型答案存入 Text，列表型答案解析后存入 Items
type FieldValue struct {
	Text  string   `json:"text,omitempty"`
	Items []string `json:"items,omitempty"`
}

// SideEffect 流程完成时发出的抽象副作用指令
// 由外部持久化协作方执行，本核心不做存储 I/O
type SideEffect struct {
	Kind   string                `json:"kind"`
	Fields map[string]FieldValue `json:"fields"`
}

const (
	// SideEffectPersistProfile 持久化企业画像字段集
	SideEffectPersistProfile = "persist-profile"
)

// FlowTurnResponse 结构化流程单轮的处理结果
type FlowTurnResponse struct {
	ReplyText       string                `json:"reply_text"`
	NextPrompt      string                `json:"next_prompt,omitempty"`
	IsComplete      bool                  `json:"is_complete"`
	ProgressPercent int                   `json:"progress_percent"`
	CollectedData   map[string]FieldValue `json:"collected_data"`
	SideEffects     []SideEffect          `json:"side_effects,omitempty"`
}
