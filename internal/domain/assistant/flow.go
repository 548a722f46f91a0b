package assistant

import (
	"fmt"
	"strings"
)

// RuleKind 验证规则类型
type RuleKind string

const (
	// RuleText 必填文本，带最小/最大长度限制
	RuleText RuleKind = "text"
	// RuleChoice 文本答案，附带示例选项（软引导，不强制）
	RuleChoice RuleKind = "choice"
	// RuleList 逗号分隔列表，解析为去重的非空字符串集合
	RuleList RuleKind = "list"
)

// ValidationRule 流程步骤的答案验证规则
type ValidationRule struct {
	Kind      RuleKind
	MinLength int
	MaxLength int
	Examples  []string
}

// Validate 校验答案，通过时返回解析后的字段值
// 拒绝时返回的 error 文本会原样展示给用户
func (r ValidationRule) Validate(answer string) (FieldValue, error) {
	trimmed := strings.TrimSpace(answer)

	switch r.Kind {
	case RuleList:
		items := parseList(trimmed)
		if len(items) == 0 {
			return FieldValue{}, fmt.Errorf("please provide at least one item, separated by commas")
		}
		return FieldValue{Items: items}, nil

	case RuleChoice:
		// 示例仅作引导，不做强制匹配
		if trimmed == "" {
			return FieldValue{}, fmt.Errorf("this field cannot be empty")
		}
		return FieldValue{Text: trimmed}, nil

	default:
		if trimmed == "" {
			return FieldValue{}, fmt.Errorf("this field cannot be empty")
		}
		if r.MinLength > 0 && len(trimmed) < r.MinLength {
			return FieldValue{}, fmt.Errorf("answer is too short, please provide at least %d characters", r.MinLength)
		}
		if r.MaxLength > 0 && len(trimmed) > r.MaxLength {
			return FieldValue{}, fmt.Errorf("answer is too long, please keep it under %d characters", r.MaxLength)
		}
		return FieldValue{Text: trimmed}, nil
	}
}

// parseList 解析逗号分隔列表，去重并剔除空项
func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	seen := make(map[string]bool, len(parts))
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		item := strings.TrimSpace(p)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		items = append(items, item)
	}
	return items
}

// FlowStep 流程中的单个采集步骤
type FlowStep struct {
	ID       string
	Prompt   string
	Field    string
	Rule     ValidationRule
	FollowUp string // 步骤通过后附加在下一个提示前的反馈文本（可选）
}

// PromptWithExamples 返回带示例引导的提问文本
func (s FlowStep) PromptWithExamples() string {
	if len(s.Rule.Examples) == 0 {
		return s.Prompt
	}
	return fmt.Sprintf("%s (e.g. %s)", s.Prompt, strings.Join(s.Rule.Examples, ", "))
}

// FlowDefinition 静态流程定义
// 启动时加载，进程生命周期内只读
type FlowDefinition struct {
	ID             FlowID
	Title          string
	Steps          []FlowStep
	CompletionText string
	SideEffectKind string // 完成时发出的副作用类型（可为空）
}

// StepCount 返回步骤总数
func (d *FlowDefinition) StepCount() int {
	return len(d.Steps)
}
