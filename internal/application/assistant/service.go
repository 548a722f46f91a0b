package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	domain "github.com/insightloop/backend/internal/domain/assistant"
	"github.com/insightloop/backend/internal/domain/knowledge"
	"github.com/insightloop/backend/internal/infrastructure/llm"
	"github.com/insightloop/backend/internal/infrastructure/log"
	"github.com/insightloop/backend/internal/infrastructure/stream"
)

// TurnRequest 一轮对话请求
type TurnRequest struct {
	SessionID string
	UserID    string
	OrgID     string
	Message   string
}

// TurnResult 一轮对话的结构化结果
// 自由对话轮的正文通过回调流式送出，FlowResponse 为空
type TurnResult struct {
	SessionID    string
	Flow         domain.FlowID
	FlowResponse *domain.FlowTurnResponse
}

// Service 对话编排器
// 组合路由器、上下文组装器、流程引擎和流式传输，串起一轮完整对话
type Service struct {
	sessions  *SessionManager
	router    *Router
	assembler *Assembler
	engine    *FlowEngine
	registry  *FlowRegistry
	streamer  ChatStreamer
	snapshots SnapshotProvider
	profiles  knowledge.ProfileRepository
	turns     domain.TurnRepository
	logger    *slog.Logger
}

// NewService 创建对话编排器
func NewService(
	sessions *SessionManager,
	router *Router,
	assembler *Assembler,
	engine *FlowEngine,
	registry *FlowRegistry,
	streamer ChatStreamer,
	snapshots SnapshotProvider,
	profiles knowledge.ProfileRepository,
	turns domain.TurnRepository,
) *Service {
	return &Service{
		sessions:  sessions,
		router:    router,
		assembler: assembler,
		engine:    engine,
		registry:  registry,
		streamer:  streamer,
		snapshots: snapshots,
		profiles:  profiles,
		turns:     turns,
		logger:    log.NewModuleLogger("assistant", "service"),
	}
}

// HandleTurn 处理一轮对话
// 每轮必有文字回复：传输失败以可见错误文本收尾，而不是静默断流
func (s *Service) HandleTurn(ctx context.Context, req TurnRequest, cb stream.Callbacks) (*TurnResult, error) {
	sess, release, err := s.sessions.Checkout(req.SessionID, req.UserID, req.OrgID)
	if err != nil {
		return nil, err
	}
	defer release()

	s.appendTurn(sess, domain.RoleUser, req.Message)

	snap := s.loadSnapshot(ctx, sess.OrgID)

	// 进行中的结构化流程优先于路由
	if sess.InFlow() {
		flow := sess.ActiveFlow
		resp, err := s.engine.Submit(sess, req.Message)
		if err != nil {
			return nil, err
		}
		s.executeSideEffects(sess, resp)
		return s.finishFlowTurn(sess, flow, resp, cb)
	}

	flow := s.router.Route(req.Message, snap)
	s.logger.Debug("Turn routed", "session_id", sess.ID, "flow", flow)

	if flow.IsStructured() {
		resp, err := s.engine.Start(sess, flow)
		if err != nil {
			return nil, err
		}
		return s.finishFlowTurn(sess, flow, resp, cb)
	}

	return s.handleFreeformTurn(ctx, sess, snap, flow, req.Message, cb)
}

// StopGeneration 停止会话进行中的流式生成
func (s *Service) StopGeneration(sessionID string) bool {
	return s.sessions.StopGeneration(sessionID)
}

// handleFreeformTurn 自由对话轮：组装接地上下文后走流式生成
func (s *Service) handleFreeformTurn(
	ctx context.Context,
	sess *domain.Session,
	snap *knowledge.Snapshot,
	flow domain.FlowID,
	message string,
	cb stream.Callbacks,
) (*TurnResult, error) {
	if cb.OnStatus != nil {
		cb.OnStatus("assembling", statusLabel(flow), "")
	}

	gc := s.assembler.Assemble(ctx, snap, sess.OrgID, message)
	messages := buildChatMessages(gc, sess.Turns)

	turnCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.sessions.SetCancel(sess.ID, cancel)
	defer s.sessions.SetCancel(sess.ID, nil)

	var reply strings.Builder
	wrapped := stream.Callbacks{
		OnToken: func(text string) {
			reply.WriteString(text)
			if cb.OnToken != nil {
				cb.OnToken(text)
			}
		},
		OnStatus:   cb.OnStatus,
		OnMetadata: cb.OnMetadata,
		OnDone:     cb.OnDone,
		OnError: func(msg string) {
			// 传输失败转为可见错误文本，本轮仍以 Done 收尾
			errText := "\n[The reply was interrupted: " + msg + "]"
			reply.WriteString(errText)
			if cb.OnToken != nil {
				cb.OnToken(errText)
			}
			if cb.OnDone != nil {
				cb.OnDone()
			}
		},
	}

	if err := s.streamer.StreamChat(turnCtx, messages, wrapped); err != nil {
		s.logger.Warn("Chat stream ended with error", "session_id", sess.ID, "error", err)
	}

	s.appendTurn(sess, domain.RoleAssistant, reply.String())
	s.persistSession(sess)

	return &TurnResult{SessionID: sess.ID, Flow: flow}, nil
}

// finishFlowTurn 结构化流程轮：把流程结果同样投递到事件回调
func (s *Service) finishFlowTurn(
	sess *domain.Session,
	flow domain.FlowID,
	resp *domain.FlowTurnResponse,
	cb stream.Callbacks,
) (*TurnResult, error) {
	if cb.OnStatus != nil {
		cb.OnStatus("flow", statusLabel(flow), "")
	}
	if cb.OnMetadata != nil {
		cb.OnMetadata(map[string]string{
			"flow":     string(flow),
			"progress": strconv.Itoa(resp.ProgressPercent),
		})
	}

	replyText := flowReplyText(resp)
	if cb.OnToken != nil && replyText != "" {
		cb.OnToken(replyText)
	}
	if cb.OnDone != nil {
		cb.OnDone()
	}

	s.appendTurn(sess, domain.RoleAssistant, replyText)
	s.persistSession(sess)

	return &TurnResult{
		SessionID:    sess.ID,
		Flow:         flow,
		FlowResponse: resp,
	}, nil
}

// executeSideEffects 执行流程完成副作用
// 持久化失败转为完成回复里的软提示，采集数据保留在会话中以便重试
func (s *Service) executeSideEffects(sess *domain.Session, resp *domain.FlowTurnResponse) {
	for _, effect := range resp.SideEffects {
		if effect.Kind != domain.SideEffectPersistProfile {
			s.logger.Warn("Unknown side effect kind", "kind", effect.Kind)
			continue
		}

		fields := make(map[string]string)
		listFields := make(map[string][]string)
		for name, value := range effect.Fields {
			if len(value.Items) > 0 {
				listFields[name] = value.Items
			} else {
				fields[name] = value.Text
			}
		}

		if err := s.profiles.SaveFields(sess.OrgID, fields, listFields); err != nil {
			s.logger.Error("Failed to persist profile", "session_id", sess.ID, "error", err)
			resp.ReplyText += " (Heads up: I couldn't save your profile just now, but your answers are kept and I'll retry.)"
		}
	}
}

// loadSnapshot 获取知识库快照，失败降级为空快照
func (s *Service) loadSnapshot(ctx context.Context, orgID string) *knowledge.Snapshot {
	snap, err := s.snapshots.Snapshot(ctx, orgID)
	if err != nil || snap == nil {
		if err != nil {
			s.logger.Warn("Failed to load knowledge snapshot", "org_id", orgID, "error", err)
		}
		return knowledge.EmptySnapshot()
	}
	return snap
}

// appendTurn 追加对话记录到会话并落库
func (s *Service) appendTurn(sess *domain.Session, role domain.Role, content string) {
	sess.AppendTurn(role, content)
	turn := sess.Turns[len(sess.Turns)-1]
	if err := s.turns.Append(sess.ID, turn); err != nil {
		s.logger.Warn("Failed to persist turn", "session_id", sess.ID, "error", err)
	}
}

func (s *Service) persistSession(sess *domain.Session) {
	if err := s.sessions.Persist(sess); err != nil {
		s.logger.Warn("Failed to persist session", "session_id", sess.ID, "error", err)
	}
}

// buildChatMessages 组装发给推理后端的消息序列
// 接地上下文作为 system 消息，历史对话按角色原序附带
func buildChatMessages(gc *domain.GroundingContext, turns []domain.Turn) []llm.Message {
	messages := make([]llm.Message, 0, len(turns)+1)
	messages = append(messages, llm.Message{Role: "system", Content: gc.Render()})
	for _, turn := range turns {
		messages = append(messages, llm.Message{
			Role:    string(turn.Role),
			Content: turn.Content,
		})
	}
	return messages
}

// flowReplyText 拼装流程轮的完整回复文本
func flowReplyText(resp *domain.FlowTurnResponse) string {
	switch {
	case resp.ReplyText == "":
		return resp.NextPrompt
	case resp.NextPrompt == "":
		return resp.ReplyText
	default:
		return fmt.Sprintf("%s\n%s", resp.ReplyText, resp.NextPrompt)
	}
}

// statusLabel 各流程对应的状态标签
func statusLabel(flow domain.FlowID) string {
	switch flow {
	case domain.FlowTicketFollowup:
		return "Checking your open tickets"
	case domain.FlowKnowledgeInquiry:
		return "Consulting your knowledge base"
	case domain.FlowProfileSetup:
		return "Setting up your business profile"
	case domain.FlowGeneralHelp:
		return "Finding the right guidance"
	case domain.FlowTaskCompletion:
		return "Confirming completion"
	default:
		return "Thinking"
	}
}
