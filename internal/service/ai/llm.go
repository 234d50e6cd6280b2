package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/kaptinlin/jsonrepair"
	"go.uber.org/zap"

	"github.com/ashwinyue/next-assist/internal/model"
	"github.com/ashwinyue/next-assist/internal/pkg/zlog"
	"github.com/ashwinyue/next-assist/internal/repository"
)

// DefaultHistoryWindow 传给模型的最近消息数
const DefaultHistoryWindow = 10

const systemPrompt = `Você é o assistente virtual de uma plataforma de cobrança e gestão de serviços.
Responda sempre em português do Brasil, de forma curta e cordial.
Perfil do usuário: %s.
Dados atuais: %s

Responda SOMENTE com um objeto JSON no formato:
{"response": "texto para o usuário", "action": {"type": "<ação>"}, "menu_options": [{"id": "...", "label": "...", "action": "<ação>"}]}
"action" e "menu_options" são opcionais. Use "action" apenas quando o usuário pedir claramente uma destas ações:
%s`

const initPrompt = "Cumprimente o usuário em uma frase e ofereça ajuda."

// LLMCollaborator 基于 eino ChatModel 的协作者
type LLMCollaborator struct {
	chatModel einomodel.BaseChatModel
	billing   repository.BillingReader
	window    int
	handlers  []callbacks.Handler
}

// Option 协作者选项
type Option func(*LLMCollaborator)

// WithCallbacks 为每次模型调用挂载回调
func WithCallbacks(handlers ...callbacks.Handler) Option {
	return func(c *LLMCollaborator) {
		c.handlers = append(c.handlers, handlers...)
	}
}

// NewLLMCollaborator 创建协作者，chatModel 为 nil 时所有调用返回 ErrDisabled
func NewLLMCollaborator(chatModel einomodel.BaseChatModel, billing repository.BillingReader, window int, opts ...Option) *LLMCollaborator {
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	c := &LLMCollaborator{
		chatModel: chatModel,
		billing:   billing,
		window:    window,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// generate 调用模型，name 标识调用场景
func (c *LLMCollaborator) generate(ctx context.Context, name string, messages []*schema.Message) (*schema.Message, error) {
	if len(c.handlers) > 0 {
		ctx = callbacks.InitCallbacks(ctx, &callbacks.RunInfo{
			Name:      name,
			Type:      "ChatModel",
			Component: components.ComponentOfChatModel,
		}, c.handlers...)
	}
	return c.chatModel.Generate(ctx, messages)
}

// Init 生成开场白，附带统计数据与角色菜单
func (c *LLMCollaborator) Init(ctx context.Context, caller Caller) (*InitReply, error) {
	if c.chatModel == nil {
		return nil, ErrDisabled
	}

	stats := c.stats(ctx, caller)
	messages := []*schema.Message{
		schema.SystemMessage(c.buildSystemPrompt(caller, stats)),
		schema.UserMessage(initPrompt),
	}

	resp, err := c.generate(ctx, "assistant_init", messages)
	if err != nil {
		return nil, fmt.Errorf("generate greeting: %w", err)
	}

	parsed := parseReply(resp.Content)
	if parsed.Response == "" {
		return nil, fmt.Errorf("empty greeting")
	}

	return &InitReply{
		Response:    parsed.Response,
		MenuOptions: parsed.menu(),
		Stats:       stats,
	}, nil
}

// Respond 回复自由文本
func (c *LLMCollaborator) Respond(ctx context.Context, req RespondRequest) (*RespondReply, error) {
	if c.chatModel == nil {
		return nil, ErrDisabled
	}

	stats := c.stats(ctx, req.Caller)
	messages := make([]*schema.Message, 0, c.window+2)
	messages = append(messages, schema.SystemMessage(c.buildSystemPrompt(req.Caller, stats)))
	messages = append(messages, toSchema(recent(req.History, c.window))...)

	content := req.Message
	if req.Attachment != nil {
		content = fmt.Sprintf("%s\n[anexo: %s (%s) %s]", content, req.Attachment.Name, req.Attachment.MimeType, req.Attachment.URL)
	}
	messages = append(messages, schema.UserMessage(content))

	resp, err := c.generate(ctx, "assistant_respond", messages)
	if err != nil {
		return nil, fmt.Errorf("generate reply: %w", err)
	}

	parsed := parseReply(resp.Content)
	if parsed.Response == "" && parsed.Action == nil {
		return nil, fmt.Errorf("empty reply")
	}

	reply := &RespondReply{
		Response:    parsed.Response,
		MenuOptions: parsed.menu(),
		Stats:       stats,
	}
	if parsed.Action != nil && parsed.Action.Type.IsValid() {
		reply.Action = parsed.Action
	}
	return reply, nil
}

// stats 统计数据失败不影响回复
func (c *LLMCollaborator) stats(ctx context.Context, caller Caller) model.ContextStats {
	if c.billing == nil {
		return nil
	}
	if caller.Role == model.RoleCustomer {
		return nil
	}
	resellerID := ""
	if caller.Role == model.RoleReseller {
		resellerID = caller.CallerID
	}
	stats, err := c.billing.Stats(ctx, caller.TenantID, resellerID)
	if err != nil {
		zlog.Warn("load context stats failed", zap.String("tenant_id", caller.TenantID), zap.Error(err))
		return nil
	}
	return stats
}

func (c *LLMCollaborator) buildSystemPrompt(caller Caller, stats model.ContextStats) string {
	statsJSON := "{}"
	if len(stats) > 0 {
		if b, err := json.Marshal(stats); err == nil {
			statsJSON = string(b)
		}
	}
	actions := make([]string, 0, len(model.AllActionTypes))
	for _, a := range model.AllActionTypes {
		actions = append(actions, string(a))
	}
	return fmt.Sprintf(systemPrompt, caller.Role, statsJSON, strings.Join(actions, ", "))
}

// recent 最近 n 条消息
func recent(msgs []model.Message, n int) []model.Message {
	if len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}

func toSchema(msgs []model.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Content == "" {
			continue
		}
		if m.Role == model.MessageRoleUser {
			out = append(out, schema.UserMessage(m.Content))
		} else {
			out = append(out, schema.AssistantMessage(m.Content, nil))
		}
	}
	return out
}

// wireReply 模型输出格式
type wireReply struct {
	Response    string             `json:"response"`
	Action      *model.Action      `json:"action,omitempty"`
	MenuOptions []model.MenuOption `json:"menu_options,omitempty"`
}

func (w wireReply) menu() []model.MenuOption {
	out := make([]model.MenuOption, 0, len(w.MenuOptions))
	for _, o := range w.MenuOptions {
		if o.Label == "" || !o.Action.IsValid() {
			continue
		}
		out = append(out, o)
	}
	return out
}

// parseReply 解析模型输出，JSON 损坏时先修复，仍失败则整体作为文本
func parseReply(content string) wireReply {
	s := strings.TrimSpace(content)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	if !strings.HasPrefix(s, "{") {
		return wireReply{Response: strings.TrimSpace(content)}
	}

	var out wireReply
	if err := json.Unmarshal([]byte(s), &out); err == nil {
		return out
	}

	repaired, err := jsonrepair.JSONRepair(s)
	if err == nil {
		if err := json.Unmarshal([]byte(repaired), &out); err == nil {
			return out
		}
	}
	return wireReply{Response: strings.TrimSpace(content)}
}
