package assistant

import (
	"fmt"
	"log/slog"
	"math"

	domain "github.com/insightloop/backend/internal/domain/assistant"
	"github.com/insightloop/backend/internal/infrastructure/log"
)

// FlowEngine 结构化流程状态机
// 状态是步骤下标 0..N，N 为终态；只对当前步骤做校验，通过即前进一步
type FlowEngine struct {
	registry *FlowRegistry
	logger   *slog.Logger
}

// NewFlowEngine 创建流程引擎
func NewFlowEngine(registry *FlowRegistry) *FlowEngine {
	return &FlowEngine{
		registry: registry,
		logger:   log.NewModuleLogger("assistant", "flow_engine"),
	}
}

// Start 在会话上启动一个流程，返回首个提问
func (e *FlowEngine) Start(sess *domain.Session, flowID domain.FlowID) (*domain.FlowTurnResponse, error) {
	def := e.registry.Get(flowID)
	if def == nil {
		return nil, fmt.Errorf("unknown flow: %s", flowID)
	}
	if len(def.Steps) == 0 {
		return nil, fmt.Errorf("flow %s has no steps", flowID)
	}

	sess.ActiveFlow = flowID
	sess.StepIndex = 0

	e.logger.Info("Flow started", "session_id", sess.ID, "flow", flowID)

	return &domain.FlowTurnResponse{
		NextPrompt:      def.Steps[0].PromptWithExamples(),
		ProgressPercent: 0,
		CollectedData:   sess.CollectedSnapshot(),
	}, nil
}

// Submit 提交当前步骤的答案
// 校验失败时状态不变，重复同一提问并附失败原因；
// 校验通过时存入采集值并前进，走到末尾即完成并发出副作用指令
func (e *FlowEngine) Submit(sess *domain.Session, answer string) (*domain.FlowTurnResponse, error) {
	def := e.registry.Get(sess.ActiveFlow)
	if def == nil {
		return nil, fmt.Errorf("session %s has no active flow", sess.ID)
	}
	if sess.StepIndex < 0 || sess.StepIndex >= len(def.Steps) {
		return nil, fmt.Errorf("step index %d out of range for flow %s", sess.StepIndex, def.ID)
	}

	step := def.Steps[sess.StepIndex]
	value, err := step.Rule.Validate(answer)
	if err != nil {
		// 校验失败：状态与已采集数据都不变
		return &domain.FlowTurnResponse{
			ReplyText:       err.Error(),
			NextPrompt:      step.PromptWithExamples(),
			ProgressPercent: progressPercent(sess.StepIndex, def.StepCount()),
			CollectedData:   sess.CollectedSnapshot(),
		}, nil
	}

	sess.Collected[step.Field] = value
	sess.StepIndex++

	if sess.StepIndex >= def.StepCount() {
		return e.complete(sess, def), nil
	}

	reply := step.FollowUp
	return &domain.FlowTurnResponse{
		ReplyText:       reply,
		NextPrompt:      def.Steps[sess.StepIndex].PromptWithExamples(),
		ProgressPercent: progressPercent(sess.StepIndex, def.StepCount()),
		CollectedData:   sess.CollectedSnapshot(),
	}, nil
}

// complete 流程完成：清空活跃流程标记，保留采集数据以便副作用重试
func (e *FlowEngine) complete(sess *domain.Session, def *domain.FlowDefinition) *domain.FlowTurnResponse {
	resp := &domain.FlowTurnResponse{
		ReplyText:       def.CompletionText,
		IsComplete:      true,
		ProgressPercent: 100,
		CollectedData:   sess.CollectedSnapshot(),
	}
	if def.SideEffectKind != "" {
		resp.SideEffects = []domain.SideEffect{
			{
				Kind:   def.SideEffectKind,
				Fields: sess.CollectedSnapshot(),
			},
		}
	}

	sess.ActiveFlow = ""
	sess.StepIndex = 0

	e.logger.Info("Flow completed", "session_id", sess.ID, "flow", def.ID)
	return resp
}

// progressPercent 进度百分比，current/N*100 四舍五入
func progressPercent(current, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(current) / float64(total) * 100))
}
