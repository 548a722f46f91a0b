package assistant

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/insightloop/backend/internal/domain/assistant"
	"github.com/insightloop/backend/internal/domain/knowledge"
	"github.com/insightloop/backend/internal/infrastructure/llm"
	"github.com/insightloop/backend/internal/infrastructure/stream"
)

// memorySessionRepo 内存会话仓储
type memorySessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func newMemorySessionRepo() *memorySessionRepo {
	return &memorySessionRepo{sessions: make(map[string]*domain.Session)}
}

func (r *memorySessionRepo) Save(sess *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sess.ID] = sess
	return nil
}

func (r *memorySessionRepo) FindByID(id string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id], nil
}

func (r *memorySessionRepo) ListByUser(userID string) ([]*domain.Session, error) {
	return nil, nil
}

func (r *memorySessionRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

// memoryTurnRepo 内存对话记录仓储
type memoryTurnRepo struct {
	mu    sync.Mutex
	turns map[string][]domain.Turn
}

func newMemoryTurnRepo() *memoryTurnRepo {
	return &memoryTurnRepo{turns: make(map[string][]domain.Turn)}
}

func (r *memoryTurnRepo) Append(sessionID string, turn domain.Turn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns[sessionID] = append(r.turns[sessionID], turn)
	return nil
}

func (r *memoryTurnRepo) ListBySession(sessionID string) ([]domain.Turn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.turns[sessionID], nil
}

// fakeStreamer 按脚本回放流事件
type fakeStreamer struct {
	tokens   []string
	failWith string
	messages []llm.Message
}

func (f *fakeStreamer) StreamChat(ctx context.Context, messages []llm.Message, cb stream.Callbacks) error {
	f.messages = messages
	for _, token := range f.tokens {
		if cb.OnToken != nil {
			cb.OnToken(token)
		}
	}
	if f.failWith != "" {
		if cb.OnError != nil {
			cb.OnError(f.failWith)
		}
		return fmt.Errorf("stream failed: %s", f.failWith)
	}
	if cb.OnDone != nil {
		cb.OnDone()
	}
	return nil
}

// fakeSnapshots 固定快照提供方
type fakeSnapshots struct {
	snap *knowledge.Snapshot
	err  error
}

func (f *fakeSnapshots) Snapshot(ctx context.Context, orgID string) (*knowledge.Snapshot, error) {
	return f.snap, f.err
}

// fakeProfiles 记录写入的画像仓储
type fakeProfiles struct {
	saved      map[string]string
	savedLists map[string][]string
	failSave   bool
}

func (f *fakeProfiles) Save(profile *knowledge.CompanyProfile) error { return nil }

func (f *fakeProfiles) FindByOrg(orgID string) (*knowledge.CompanyProfile, error) {
	return nil, nil
}

func (f *fakeProfiles) SaveFields(orgID string, fields map[string]string, listFields map[string][]string) error {
	if f.failSave {
		return fmt.Errorf("profile store unavailable")
	}
	f.saved = fields
	f.savedLists = listFields
	return nil
}

func newTestService(streamer ChatStreamer, snap *knowledge.Snapshot, profiles knowledge.ProfileRepository) *Service {
	retriever := &fakeRetriever{}
	registry := NewFlowRegistry()
	return NewService(
		NewSessionManager(newMemorySessionRepo()),
		NewRouter(),
		NewAssembler(retriever, wordEstimator{}, testConfig()),
		NewFlowEngine(registry),
		registry,
		streamer,
		&fakeSnapshots{snap: snap},
		profiles,
		newMemoryTurnRepo(),
	)
}

func TestService_FreeformTurnStreamsReply(t *testing.T) {
	streamer := &fakeStreamer{tokens: []string{"Hel", "lo"}}
	svc := newTestService(streamer, assemblerSnapshot(), &fakeProfiles{})

	var events []string
	result, err := svc.HandleTurn(context.Background(), TurnRequest{
		UserID:  "u1",
		OrgID:   "org-1",
		Message: "what were our best selling products last month?",
	}, stream.Callbacks{
		OnToken:  func(text string) { events = append(events, "token:"+text) },
		OnStatus: func(stage, label, detail string) { events = append(events, "status:"+stage) },
		OnDone:   func() { events = append(events, "done") },
	})

	require.NoError(t, err)
	assert.Equal(t, domain.FlowGeneralConversation, result.Flow)
	assert.Nil(t, result.FlowResponse)
	assert.Equal(t, []string{"status:assembling", "token:Hel", "token:lo", "done"}, events)

	// system 消息在前，带接地上下文
	require.NotEmpty(t, streamer.messages)
	assert.Equal(t, "system", streamer.messages[0].Role)
	assert.Contains(t, streamer.messages[0].Content, "Company: Acme Retail")
	// 末条是本轮用户消息
	last := streamer.messages[len(streamer.messages)-1]
	assert.Equal(t, "user", last.Role)
	assert.Contains(t, last.Content, "best selling products")
}

func TestService_TransportFailureYieldsVisibleReply(t *testing.T) {
	streamer := &fakeStreamer{tokens: []string{"partial "}, failWith: "connection reset"}
	svc := newTestService(streamer, assemblerSnapshot(), &fakeProfiles{})

	var events []string
	result, err := svc.HandleTurn(context.Background(), TurnRequest{
		UserID:  "u1",
		OrgID:   "org-1",
		Message: "tell me something about sales",
	}, stream.Callbacks{
		OnToken: func(text string) { events = append(events, "token:"+text) },
		OnDone:  func() { events = append(events, "done") },
	})

	// 传输失败后用户依然收到完整可读回复，轮以 Done 收尾
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotEmpty(t, events)
	assert.Equal(t, "done", events[len(events)-1])
	assert.Contains(t, events[1], "interrupted")
}

func TestService_ProfileSetupEndToEnd(t *testing.T) {
	profiles := &fakeProfiles{}
	svc := newTestService(&fakeStreamer{}, knowledge.EmptySnapshot(), profiles)

	turn := func(sessionID, message string) *TurnResult {
		result, err := svc.HandleTurn(context.Background(), TurnRequest{
			SessionID: sessionID,
			UserID:    "u1",
			OrgID:     "org-1",
			Message:   message,
		}, stream.Callbacks{})
		require.NoError(t, err)
		return result
	}

	// 触发流程启动
	result := turn("sess-flow", "please set up my business profile")
	require.NotNil(t, result.FlowResponse)
	assert.Equal(t, domain.FlowProfileSetup, result.Flow)
	assert.Equal(t, 0, result.FlowResponse.ProgressPercent)
	assert.Contains(t, result.FlowResponse.NextPrompt, "mission")

	// 活跃流程中的消息绕过路由，直接作为当前步骤答案
	result = turn("sess-flow", "Help small retailers understand their sales data")
	assert.Equal(t, 20, result.FlowResponse.ProgressPercent)

	turn("sess-flow", "Be the default BI tool for small business")
	turn("sess-flow", "retail")
	turn("sess-flow", "11-50")
	result = turn("sess-flow", "Shopify, Stripe")

	require.NotNil(t, result.FlowResponse)
	assert.True(t, result.FlowResponse.IsComplete)
	assert.Equal(t, 100, result.FlowResponse.ProgressPercent)

	// 完成副作用已执行
	assert.Equal(t, "retail", profiles.saved["industry"])
	assert.Equal(t, []string{"Shopify", "Stripe"}, profiles.savedLists["data_sources"])
}

func TestService_PersistFailureIsSoftWarning(t *testing.T) {
	profiles := &fakeProfiles{failSave: true}
	svc := newTestService(&fakeStreamer{}, knowledge.EmptySnapshot(), profiles)

	answers := []string{
		"please set up my business profile",
		"Help small retailers understand their sales data",
		"Be the default BI tool for small business",
		"retail",
		"11-50",
		"Shopify, Stripe",
	}

	var result *TurnResult
	for _, answer := range answers {
		var err error
		result, err = svc.HandleTurn(context.Background(), TurnRequest{
			SessionID: "sess-soft",
			UserID:    "u1",
			OrgID:     "org-1",
			Message:   answer,
		}, stream.Callbacks{})
		require.NoError(t, err)
	}

	// 流程仍标记完成，回复带软提示，采集数据保留以便重试
	require.NotNil(t, result.FlowResponse)
	assert.True(t, result.FlowResponse.IsComplete)
	assert.Contains(t, result.FlowResponse.ReplyText, "couldn't save")
	assert.Equal(t, "retail", result.FlowResponse.CollectedData["industry"].Text)
}

func TestService_InvalidAnswerRepeatsStep(t *testing.T) {
	svc := newTestService(&fakeStreamer{}, knowledge.EmptySnapshot(), &fakeProfiles{})

	_, err := svc.HandleTurn(context.Background(), TurnRequest{
		SessionID: "sess-invalid", UserID: "u1", OrgID: "org-1",
		Message: "set up my profile please",
	}, stream.Callbacks{})
	require.NoError(t, err)

	result, err := svc.HandleTurn(context.Background(), TurnRequest{
		SessionID: "sess-invalid", UserID: "u1", OrgID: "org-1",
		Message: "short",
	}, stream.Callbacks{})
	require.NoError(t, err)

	require.NotNil(t, result.FlowResponse)
	assert.False(t, result.FlowResponse.IsComplete)
	assert.Equal(t, 0, result.FlowResponse.ProgressPercent)
	assert.Contains(t, result.FlowResponse.ReplyText, "too short")
}

func TestService_StopGenerationWithoutActiveTurn(t *testing.T) {
	svc := newTestService(&fakeStreamer{}, knowledge.EmptySnapshot(), &fakeProfiles{})
	assert.False(t, svc.StopGeneration("no-such-session"))
}
