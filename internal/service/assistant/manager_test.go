package assistant

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ashwinyue/next-assist/internal/model"
	"github.com/ashwinyue/next-assist/internal/service/ai"
	"github.com/ashwinyue/next-assist/internal/service/analyzer"
	"github.com/ashwinyue/next-assist/internal/service/archive"
	"github.com/ashwinyue/next-assist/internal/service/dispatch"
	"github.com/ashwinyue/next-assist/internal/service/feedback"
	"github.com/ashwinyue/next-assist/internal/service/intent"
	"github.com/ashwinyue/next-assist/internal/service/store"
	"github.com/ashwinyue/next-assist/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeAI 可控的 AI 协作者
type fakeAI struct {
	mu         sync.Mutex
	initReply  *ai.InitReply
	initErr    error
	reply      *ai.RespondReply
	respondErr error
	requests   []ai.RespondRequest
}

func (f *fakeAI) Init(_ context.Context, _ ai.Caller) (*ai.InitReply, error) {
	if f.initErr != nil {
		return nil, f.initErr
	}
	return f.initReply, nil
}

func (f *fakeAI) Respond(_ context.Context, req ai.RespondRequest) (*ai.RespondReply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.respondErr != nil {
		return nil, f.respondErr
	}
	return f.reply, nil
}

type harness struct {
	clock    *testutil.Clock
	configs  *testutil.FakeConfigs
	sessions *testutil.FakeSessions
	buffers  *store.MemoryStore[store.Scope, model.ActiveBuffer]
	archives *archive.Service
	billing  *testutil.FakeBilling
	feedback *testutil.FakeFeedback
	ai       *fakeAI
	analyzer *analyzer.Analyzer
	mgr      *Manager
	scope    store.Scope
}

func newHarness(t *testing.T, cfg *model.AssistantConfig) *harness {
	t.Helper()

	h := &harness{
		clock:    testutil.NewClock(time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)),
		sessions: testutil.NewFakeSessions(),
		buffers:  store.NewMemoryStore[store.Scope, model.ActiveBuffer](),
		billing:  &testutil.FakeBilling{},
		feedback: &testutil.FakeFeedback{},
		ai:       &fakeAI{},
		scope:    testutil.Scope("t1", model.RoleCustomer, "c1"),
	}
	h.configs = &testutil.FakeConfigs{Configs: map[string]*model.AssistantConfig{"t1": cfg}}
	h.archives = archive.NewService(store.NewMemoryStore[store.Scope, []model.ArchiveEntry](), 0, 0).WithClock(h.clock.Now)
	h.analyzer = analyzer.New(h.billing, analyzer.WithClock(h.clock.Now))

	h.mgr = h.newManager(t)
	return h
}

// newManager 基于同一组存储创建管理器，用来模拟进程重启
func (h *harness) newManager(t *testing.T) *Manager {
	t.Helper()
	mgr := NewManager(Deps{
		Configs:    h.configs,
		Sessions:   h.sessions,
		Buffers:    h.buffers,
		Archive:    h.archives,
		Registry:   dispatch.NewRegistry(h.billing, dispatch.WithClock(h.clock.Now)),
		Classifier: intent.NewClassifier(intent.DefaultRules),
		AI:         h.ai,
		Analyzer:   h.analyzer,
		Feedback:   feedback.NewService(h.feedback),
	}, Options{FlushDelay: time.Hour}).WithClock(h.clock.Now)

	t.Cleanup(func() { mgr.Close(context.Background()) })
	return mgr
}

func staticConfig() *model.AssistantConfig {
	return &model.AssistantConfig{
		WelcomeMessage: "Bem-vindo à Loja",
		IsActive:       true,
	}
}

func aiConfig() *model.AssistantConfig {
	cfg := staticConfig()
	cfg.AIEnabled = true
	return cfg
}

// ========== 会话创建测试 ==========

func TestStartSession_StaticWelcome(t *testing.T) {
	h := newHarness(t, staticConfig())
	ctx := context.Background()

	snap, err := h.mgr.StartSession(ctx, h.scope)
	require.NoError(t, err)
	require.Len(t, snap.Messages, 1)

	welcome := snap.Messages[0]
	assert.True(t, welcome.IsWelcome)
	assert.Equal(t, "Bem-vindo à Loja", welcome.Content)
	assert.Len(t, welcome.MenuOptions, 4)

	require.NotNil(t, snap.SessionID)
	record := h.sessions.Get(*snap.SessionID)
	require.NotNil(t, record)
	assert.Equal(t, model.SessionStatusActive, record.Status)
	assert.Equal(t, 1, record.MessageCount)

	buf, err := h.buffers.Get(ctx, h.scope)
	require.NoError(t, err)
	assert.Equal(t, snap.SessionID, buf.SessionID)
}

func TestStartSession_Idempotent(t *testing.T) {
	h := newHarness(t, staticConfig())
	ctx := context.Background()

	first, err := h.mgr.StartSession(ctx, h.scope)
	require.NoError(t, err)
	second, err := h.mgr.StartSession(ctx, h.scope)
	require.NoError(t, err)

	assert.Equal(t, first.Messages, second.Messages)
	assert.Equal(t, 1, h.sessions.Count())
}

func TestStartSession_AIGreeting(t *testing.T) {
	h := newHarness(t, aiConfig())
	h.ai.initReply = &ai.InitReply{Response: "Oi! Tudo bem?", Stats: model.ContextStats{"x": 1}}

	snap, err := h.mgr.StartSession(context.Background(), h.scope)
	require.NoError(t, err)
	assert.Equal(t, "Oi! Tudo bem?", snap.Messages[0].Content)
	assert.Equal(t, 1.0, snap.Stats["x"])
}

func TestStartSession_AIGreetingKeepsTenantMenu(t *testing.T) {
	cfg := aiConfig()
	cfg.MenuOptions = []model.MenuOption{
		{ID: "boleto", Label: "Segunda via", Action: model.ActionGeneratePayment},
	}
	h := newHarness(t, cfg)
	h.ai.initReply = &ai.InitReply{Response: "Oi! Tudo certo por aqui."}

	snap, err := h.mgr.StartSession(context.Background(), h.scope)
	require.NoError(t, err)
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, "Oi! Tudo certo por aqui.", snap.Messages[0].Content)
	assert.Equal(t, cfg.MenuOptions, snap.Messages[0].MenuOptions)
}

func TestStartSession_AIFailureFallsBackToStatic(t *testing.T) {
	h := newHarness(t, aiConfig())
	h.ai.initErr = errors.New("connection refused")

	snap, err := h.mgr.StartSession(context.Background(), h.scope)
	require.NoError(t, err)
	assert.Equal(t, "Bem-vindo à Loja", snap.Messages[0].Content)
}

func TestStartSession_Unavailable(t *testing.T) {
	tests := []struct {
		name string
		cfg  *model.AssistantConfig
	}{
		{"missing tenant", nil},
		{"inactive", &model.AssistantConfig{IsActive: false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.cfg)
			_, err := h.mgr.StartSession(context.Background(), h.scope)
			assert.ErrorIs(t, err, ErrAssistantUnavailable)
			assert.Equal(t, 0, h.sessions.Count())
		})
	}
}

func TestStartSession_DurableCreateFails(t *testing.T) {
	h := newHarness(t, staticConfig())
	h.sessions.Err = testutil.ErrFake

	snap, err := h.mgr.StartSession(context.Background(), h.scope)
	require.NoError(t, err)
	assert.Nil(t, snap.SessionID)
	assert.Len(t, snap.Messages, 1)
}

// ========== 恢复测试 ==========

func TestRestore_Window(t *testing.T) {
	tests := []struct {
		name     string
		age      time.Duration
		restored bool
	}{
		{"23h ago", 23 * time.Hour, true},
		{"25h ago", 25 * time.Hour, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, staticConfig())
			ctx := context.Background()

			msgs := testutil.Conversation(4, h.clock.Now().Add(-tt.age))
			sid := "s-old"
			require.NoError(t, h.buffers.Set(ctx, h.scope, model.ActiveBuffer{Messages: msgs, SessionID: &sid}))

			snap, err := h.mgr.StartSession(ctx, h.scope)
			require.NoError(t, err)
			assert.Equal(t, tt.restored, snap.Restored)
			if tt.restored {
				require.Len(t, snap.Messages, 4)
				for i := range msgs {
					assert.Equal(t, msgs[i].Content, snap.Messages[i].Content)
					assert.Equal(t, msgs[i].ID, snap.Messages[i].ID)
				}
				assert.Equal(t, "s-old", *snap.SessionID)
				assert.Equal(t, 0, h.sessions.Count())
			} else {
				require.Len(t, snap.Messages, 1)
				assert.True(t, snap.Messages[0].IsWelcome)
			}
		})
	}
}

func TestRestoreFromStore(t *testing.T) {
	h := newHarness(t, staticConfig())
	ctx := context.Background()

	ok, err := h.mgr.RestoreFromStore(ctx, h.scope)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, h.buffers.Set(ctx, h.scope, model.ActiveBuffer{Messages: testutil.Conversation(2, h.clock.Now())}))
	ok, err = h.mgr.RestoreFromStore(ctx, h.scope)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGetSnapshot_CorruptBufferIsColdStart(t *testing.T) {
	h := newHarness(t, staticConfig())
	h.buffers.PutRaw(h.scope, []byte("{not json"))

	_, err := h.mgr.GetSnapshot(context.Background(), h.scope)
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

// ========== 消息测试 ==========

func TestSendMessage_FallbackClassifierWhenAIDisabled(t *testing.T) {
	h := newHarness(t, staticConfig())
	h.billing.Payments = []model.Payment{{ID: "p1", Amount: 150, DueDate: "2026-01-10", Status: model.BillingStatusOverdue}}
	ctx := context.Background()

	_, err := h.mgr.StartSession(ctx, h.scope)
	require.NoError(t, err)

	res, err := h.mgr.SendMessage(ctx, h.scope, "quero pagar meu boleto", nil)
	require.NoError(t, err)

	assert.Empty(t, h.ai.requests)
	assert.True(t, h.billing.Called("PendingPayments"))
	require.Len(t, res.Messages, 2)
	assert.Equal(t, model.MessageRoleUser, res.Messages[0].Role)
	assert.Contains(t, res.Messages[1].Content, "R$ 150,00")
	require.NotNil(t, res.Messages[1].Action)
	assert.Equal(t, model.ActionListPendingCharges, res.Messages[1].Action.Type)
}

func TestSendMessage_NoMatchPromptsMenu(t *testing.T) {
	h := newHarness(t, staticConfig())
	ctx := context.Background()
	_, err := h.mgr.StartSession(ctx, h.scope)
	require.NoError(t, err)

	res, err := h.mgr.SendMessage(ctx, h.scope, "qual a capital da França?", nil)
	require.NoError(t, err)
	require.Len(t, res.Messages, 2)
	assert.Equal(t, fallbackPrompt, res.Messages[1].Content)
	assert.Len(t, res.Messages[1].MenuOptions, 4)
}

func TestSendMessage_AIReplyWithAction(t *testing.T) {
	h := newHarness(t, aiConfig())
	h.ai.reply = &ai.RespondReply{
		Response: "Claro, veja nossos planos.",
		Action:   &model.Action{Type: model.ActionShowPlans},
	}
	h.billing.Plans = []model.Plan{{ID: "p1", Name: "Básico"}}
	ctx := context.Background()
	_, err := h.mgr.StartSession(ctx, h.scope)
	require.NoError(t, err)

	res, err := h.mgr.SendMessage(ctx, h.scope, "quais planos vocês têm?", nil)
	require.NoError(t, err)

	require.Len(t, h.ai.requests, 1)
	assert.Len(t, h.ai.requests[0].History, 1)
	require.Len(t, res.Messages, 3)
	assert.Equal(t, "Claro, veja nossos planos.", res.Messages[1].Content)
	require.NotNil(t, res.Messages[2].RichContent)
	assert.Equal(t, model.RichPlans, res.Messages[2].RichContent.Type)
}

func TestSendMessage_AIFailure(t *testing.T) {
	h := newHarness(t, aiConfig())
	h.ai.respondErr = errors.New("dial tcp: connection refused")
	ctx := context.Background()
	_, err := h.mgr.StartSession(ctx, h.scope)
	require.NoError(t, err)

	// 关键词命中时走分类器
	res, err := h.mgr.SendMessage(ctx, h.scope, "preciso de ajuda", nil)
	require.NoError(t, err)
	require.NotNil(t, res.Messages[len(res.Messages)-1].Action)
	assert.Equal(t, model.ActionRequestHelp, res.Messages[len(res.Messages)-1].Action.Type)

	// 未命中时返回按错误类型分类的致歉
	res, err = h.mgr.SendMessage(ctx, h.scope, "bom dia", nil)
	require.NoError(t, err)
	require.Len(t, res.Messages, 2)
	assert.Equal(t, ai.Apology(h.ai.respondErr), res.Messages[1].Content)
}

func TestSendMessage_Errors(t *testing.T) {
	h := newHarness(t, staticConfig())
	ctx := context.Background()

	_, err := h.mgr.SendMessage(ctx, h.scope, "oi", nil)
	assert.ErrorIs(t, err, ErrNoActiveSession)

	_, err = h.mgr.StartSession(ctx, h.scope)
	require.NoError(t, err)
	_, err = h.mgr.SendMessage(ctx, h.scope, "   ", nil)
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestMessageLog_AppendOnly(t *testing.T) {
	h := newHarness(t, staticConfig())
	ctx := context.Background()
	_, err := h.mgr.StartSession(ctx, h.scope)
	require.NoError(t, err)

	prev := []model.Message{}
	inputs := []string{"oi", "meus serviços", "boleto", "ajuda", "tchau"}
	for _, in := range inputs {
		h.clock.Advance(time.Minute)
		_, err := h.mgr.SendMessage(ctx, h.scope, in, nil)
		require.NoError(t, err)

		snap, err := h.mgr.GetSnapshot(ctx, h.scope)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(snap.Messages), len(prev))
		assert.Equal(t, prev, snap.Messages[:len(prev)])
		prev = snap.Messages
	}
}

// ========== 快捷动作测试 ==========

func TestHandleAction_SynthesizesAcknowledgment(t *testing.T) {
	h := newHarness(t, staticConfig())
	ctx := context.Background()
	_, err := h.mgr.StartSession(ctx, h.scope)
	require.NoError(t, err)

	a := model.NewAction(model.ActionNavigate)
	a.Navigate = &model.NavigatePayload{Path: "/faturas"}
	res, err := h.mgr.HandleAction(ctx, h.scope, a, "Ver faturas")
	require.NoError(t, err)

	assert.Equal(t, "/faturas", res.Navigate)
	require.Len(t, res.Messages, 2)
	assert.Equal(t, model.MessageRoleUser, res.Messages[0].Role)
	assert.Equal(t, ackNavigate, res.Messages[1].Content)
}

func TestHandleAction_NoDuplicateAcknowledgment(t *testing.T) {
	h := newHarness(t, staticConfig())
	ctx := context.Background()
	_, err := h.mgr.StartSession(ctx, h.scope)
	require.NoError(t, err)

	res, err := h.mgr.HandleAction(ctx, h.scope, model.NewAction(model.ActionShowServices), "")
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	assert.NotEqual(t, ackDone, res.Messages[0].Content)
}

func TestHandleAction_Invalid(t *testing.T) {
	h := newHarness(t, staticConfig())
	_, err := h.mgr.HandleAction(context.Background(), h.scope, model.NewAction("nope"), "")
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestHandleAction_Serialized(t *testing.T) {
	h := newHarness(t, staticConfig())
	ctx := context.Background()
	_, err := h.mgr.StartSession(ctx, h.scope)
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.mgr.HandleAction(ctx, h.scope, model.NewAction(model.ActionBusinessHours), "Horário")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	snap, err := h.mgr.GetSnapshot(ctx, h.scope)
	require.NoError(t, err)
	require.Len(t, snap.Messages, 1+2*n)
	for i := 1; i < len(snap.Messages); i += 2 {
		assert.Equal(t, model.MessageRoleUser, snap.Messages[i].Role)
		assert.Equal(t, model.MessageRoleBot, snap.Messages[i+1].Role)
	}
}

func TestHandleAction_ExecutiveModeSuggestion(t *testing.T) {
	h := newHarness(t, staticConfig())
	ctx := context.Background()
	_, err := h.mgr.StartSession(ctx, h.scope)
	require.NoError(t, err)

	for i := 0; i < analyzer.ExecutiveSuggestionUses; i++ {
		_, err := h.mgr.HandleAction(ctx, h.scope, model.NewAction(model.ActionShowPlans), "")
		require.NoError(t, err)
	}
	h.analyzer.Wait()

	snap, err := h.mgr.GetSnapshot(ctx, h.scope)
	require.NoError(t, err)
	require.NotEmpty(t, snap.Alerts)
	assert.Contains(t, snap.Alerts[0], "modo executivo")
}

// ========== 结束与清空测试 ==========

func TestEndSession_SingleMessageNotArchived(t *testing.T) {
	h := newHarness(t, staticConfig())
	ctx := context.Background()
	snap, err := h.mgr.StartSession(ctx, h.scope)
	require.NoError(t, err)

	require.NoError(t, h.mgr.EndSession(ctx, h.scope))
	assert.Empty(t, h.mgr.ListArchive(ctx, h.scope))

	record := h.sessions.Get(*snap.SessionID)
	assert.Equal(t, model.SessionStatusEnded, record.Status)
	assert.NotNil(t, record.EndedAt)

	_, err = h.buffers.Get(ctx, h.scope)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = h.mgr.GetSnapshot(ctx, h.scope)
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestEndSession_ArchivesAndResolvedByAI(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		resolved bool
	}{
		{"resolved", "meus serviços", true},
		{"asked for human", "quero falar com atendente", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, staticConfig())
			ctx := context.Background()
			snap, err := h.mgr.StartSession(ctx, h.scope)
			require.NoError(t, err)
			_, err = h.mgr.SendMessage(ctx, h.scope, tt.input, nil)
			require.NoError(t, err)

			require.NoError(t, h.mgr.EndSession(ctx, h.scope))

			entries := h.mgr.ListArchive(ctx, h.scope)
			require.Len(t, entries, 1)
			assert.Equal(t, *snap.SessionID, *entries[0].SessionID)

			record := h.sessions.Get(*snap.SessionID)
			require.NotNil(t, record.ResolvedByAI)
			assert.Equal(t, tt.resolved, *record.ResolvedByAI)
		})
	}
}

func TestEndSession_NoSession(t *testing.T) {
	h := newHarness(t, staticConfig())
	assert.ErrorIs(t, h.mgr.EndSession(context.Background(), h.scope), ErrNoActiveSession)
}

func TestClearCurrentConversation(t *testing.T) {
	h := newHarness(t, staticConfig())
	ctx := context.Background()
	snap, err := h.mgr.StartSession(ctx, h.scope)
	require.NoError(t, err)
	_, err = h.mgr.SendMessage(ctx, h.scope, "boleto", nil)
	require.NoError(t, err)

	require.NoError(t, h.mgr.ClearCurrentConversation(ctx, h.scope))

	assert.Len(t, h.mgr.ListArchive(ctx, h.scope), 1)
	record := h.sessions.Get(*snap.SessionID)
	assert.Equal(t, model.SessionStatusActive, record.Status)
	assert.Nil(t, record.EndedAt)

	next, err := h.mgr.StartSession(ctx, h.scope)
	require.NoError(t, err)
	assert.Len(t, next.Messages, 1)
	assert.NotEqual(t, *snap.SessionID, *next.SessionID)
}

func TestLoadConversation(t *testing.T) {
	h := newHarness(t, staticConfig())
	ctx := context.Background()

	// 第一段对话，结束后进入归档
	_, err := h.mgr.StartSession(ctx, h.scope)
	require.NoError(t, err)
	_, err = h.mgr.SendMessage(ctx, h.scope, "meus serviços", nil)
	require.NoError(t, err)
	require.NoError(t, h.mgr.EndSession(ctx, h.scope))
	old := h.mgr.ListArchive(ctx, h.scope)
	require.Len(t, old, 1)

	// 第二段对话，加载第一段时先被归档
	h.clock.Advance(time.Hour)
	_, err = h.mgr.StartSession(ctx, h.scope)
	require.NoError(t, err)
	_, err = h.mgr.SendMessage(ctx, h.scope, "boleto", nil)
	require.NoError(t, err)

	snap, err := h.mgr.LoadConversation(ctx, h.scope, old[0].ID)
	require.NoError(t, err)
	assert.Equal(t, old[0].Messages, snap.Messages)
	assert.Equal(t, old[0].SessionID, snap.SessionID)
	assert.Len(t, h.mgr.ListArchive(ctx, h.scope), 2)

	buf, err := h.buffers.Get(ctx, h.scope)
	require.NoError(t, err)
	assert.Len(t, buf.Messages, len(old[0].Messages))

	_, err = h.mgr.LoadConversation(ctx, h.scope, "missing")
	assert.ErrorIs(t, err, archive.ErrEntryNotFound)
}

func TestLoadConversation_AfterRestartArchivesBuffer(t *testing.T) {
	h := newHarness(t, staticConfig())
	ctx := context.Background()

	_, err := h.mgr.StartSession(ctx, h.scope)
	require.NoError(t, err)
	_, err = h.mgr.SendMessage(ctx, h.scope, "meus serviços", nil)
	require.NoError(t, err)
	require.NoError(t, h.mgr.EndSession(ctx, h.scope))
	old := h.mgr.ListArchive(ctx, h.scope)
	require.Len(t, old, 1)

	pending := testutil.Conversation(3, h.clock.Now())
	require.NoError(t, h.buffers.Set(ctx, h.scope, model.ActiveBuffer{Messages: pending}))

	restarted := h.newManager(t)
	snap, err := restarted.LoadConversation(ctx, h.scope, old[0].ID)
	require.NoError(t, err)
	assert.Equal(t, old[0].Messages, snap.Messages)

	entries := restarted.ListArchive(ctx, h.scope)
	require.Len(t, entries, 2)
	var found bool
	for _, e := range entries {
		if len(e.Messages) == len(pending) && e.Messages[0].ID == pending[0].ID {
			found = true
		}
	}
	assert.True(t, found, "buffered conversation should be archived before switching")
}

func TestEndSession_AfterRestartArchivesBuffer(t *testing.T) {
	h := newHarness(t, staticConfig())
	ctx := context.Background()

	pending := testutil.Conversation(3, h.clock.Now())
	require.NoError(t, h.buffers.Set(ctx, h.scope, model.ActiveBuffer{Messages: pending}))

	restarted := h.newManager(t)
	require.NoError(t, restarted.EndSession(ctx, h.scope))

	entries := restarted.ListArchive(ctx, h.scope)
	require.Len(t, entries, 1)
	assert.Len(t, entries[0].Messages, 3)

	_, err := h.buffers.Get(ctx, h.scope)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, restarted.EndSession(ctx, h.scope), ErrNoActiveSession)
}

func TestClearCurrentConversation_AfterRestartClearsBuffer(t *testing.T) {
	h := newHarness(t, staticConfig())
	ctx := context.Background()

	pending := testutil.Conversation(2, h.clock.Now())
	require.NoError(t, h.buffers.Set(ctx, h.scope, model.ActiveBuffer{Messages: pending}))

	restarted := h.newManager(t)
	require.NoError(t, restarted.ClearCurrentConversation(ctx, h.scope))

	assert.Len(t, restarted.ListArchive(ctx, h.scope), 1)
	_, err := h.buffers.Get(ctx, h.scope)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// ========== 评分与写入测试 ==========

func TestRateMessage(t *testing.T) {
	h := newHarness(t, staticConfig())
	ctx := context.Background()
	snap, err := h.mgr.StartSession(ctx, h.scope)
	require.NoError(t, err)

	msgID := snap.Messages[0].ID
	require.NoError(t, h.mgr.RateMessage(ctx, h.scope, false, &msgID))

	require.Len(t, h.feedback.Records, 1)
	assert.False(t, h.feedback.Records[0].Rating)
	assert.Equal(t, *snap.SessionID, h.feedback.Records[0].SessionID)

	after, err := h.mgr.GetSnapshot(ctx, h.scope)
	require.NoError(t, err)
	assert.Equal(t, snap.Messages, after.Messages)
}

func TestRateMessage_NoDurableSession(t *testing.T) {
	h := newHarness(t, staticConfig())
	h.sessions.Err = testutil.ErrFake
	ctx := context.Background()
	_, err := h.mgr.StartSession(ctx, h.scope)
	require.NoError(t, err)

	err = h.mgr.RateMessage(ctx, h.scope, true, nil)
	assert.ErrorIs(t, err, feedback.ErrNoDurableSession)
}

func TestFlush_Debounced(t *testing.T) {
	h := newHarness(t, staticConfig())
	ctx := context.Background()
	snap, err := h.mgr.StartSession(ctx, h.scope)
	require.NoError(t, err)

	for _, in := range []string{"oi", "boleto", "meus serviços"} {
		_, err := h.mgr.SendMessage(ctx, h.scope, in, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 0, h.sessions.UpdateCount())

	h.mgr.Close(ctx)
	assert.Equal(t, 1, h.sessions.UpdateCount())

	final, err := h.mgr.GetSnapshot(ctx, h.scope)
	require.NoError(t, err)
	record := h.sessions.Get(*snap.SessionID)
	assert.Equal(t, len(final.Messages), record.MessageCount)
}

func TestFlush_TimerFires(t *testing.T) {
	h := newHarness(t, staticConfig())
	h.mgr.opts.FlushDelay = 10 * time.Millisecond
	ctx := context.Background()
	_, err := h.mgr.StartSession(ctx, h.scope)
	require.NoError(t, err)

	_, err = h.mgr.SendMessage(ctx, h.scope, "oi", nil)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return h.sessions.UpdateCount() == 1 }, time.Second, 5*time.Millisecond)
}
