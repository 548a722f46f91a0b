package assistant

import (
	domain "github.com/insightloop/backend/internal/domain/assistant"
)

// FlowRegistry 流程定义注册表
// 启动时构建，进程生命周期内只读，可被并发读取
type FlowRegistry struct {
	flows map[domain.FlowID]*domain.FlowDefinition
}

// NewFlowRegistry 构建内置流程注册表
func NewFlowRegistry() *FlowRegistry {
	registry := &FlowRegistry{
		flows: make(map[domain.FlowID]*domain.FlowDefinition),
	}
	registry.register(profileSetupFlow())
	return registry
}

func (r *FlowRegistry) register(def *domain.FlowDefinition) {
	r.flows[def.ID] = def
}

// Get 按 ID 获取流程定义，不存在时返回 nil
func (r *FlowRegistry) Get(id domain.FlowID) *domain.FlowDefinition {
	return r.flows[id]
}

// profileSetupFlow 企业画像采集流程
func profileSetupFlow() *domain.FlowDefinition {
	return &domain.FlowDefinition{
		ID:    domain.FlowProfileSetup,
		Title: "Business profile setup",
		Steps: []domain.FlowStep{
			{
				ID:     "mission",
				Prompt: "Let's set up your business profile. First, what is your company's mission?",
				Field:  "mission",
				Rule: domain.ValidationRule{
					Kind:      domain.RuleText,
					MinLength: 10,
					MaxLength: 500,
				},
				FollowUp: "Great, that gives me a clear picture of what you do.",
			},
			{
				ID:     "vision",
				Prompt: "And what is your long-term vision?",
				Field:  "vision",
				Rule: domain.ValidationRule{
					Kind:      domain.RuleText,
					MinLength: 10,
					MaxLength: 500,
				},
			},
			{
				ID:     "industry",
				Prompt: "Which industry are you in?",
				Field:  "industry",
				Rule: domain.ValidationRule{
					Kind:     domain.RuleChoice,
					Examples: []string{"retail", "finance", "healthcare", "manufacturing", "software"},
				},
			},
			{
				ID:     "team_size",
				Prompt: "How large is your team?",
				Field:  "team_size",
				Rule: domain.ValidationRule{
					Kind:     domain.RuleChoice,
					Examples: []string{"1-10", "11-50", "51-200", "200+"},
				},
			},
			{
				ID:     "data_sources",
				Prompt: "Finally, which data sources should we connect? List them separated by commas.",
				Field:  "data_sources",
				Rule: domain.ValidationRule{
					Kind: domain.RuleList,
				},
			},
		},
		CompletionText: "Your business profile is set up. I'll use it to ground every answer from now on.",
		SideEffectKind: domain.SideEffectPersistProfile,
	}
}
