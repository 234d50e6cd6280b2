package dispatch

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/ashwinyue/next-assist/internal/model"
	"github.com/ashwinyue/next-assist/internal/pkg/zlog"
)

// notFound 领域查询失败时的统一回复
func (r *Registry) notFound(what string, err error, env Env) Result {
	zlog.Warn("domain query failed",
		zap.String("what", what),
		zap.String("tenant_id", env.TenantID),
		zap.String("role", string(env.Role)),
		zap.Error(err))
	return Result{Messages: []model.Message{
		r.bot(fmt.Sprintf("Não consegui encontrar %s agora. Tente novamente em instantes.", what)),
	}}
}

func (r *Registry) showServices(ctx context.Context, env Env, _ model.Action) (Result, error) {
	items, err := r.billing.ActiveServices(ctx, env.TenantID, env.CallerID)
	if err != nil {
		return r.notFound("seus serviços", err, env), nil
	}

	if len(items) == 0 {
		msg := r.bot("Você ainda não possui serviços ativos. Quer conhecer nossos planos?")
		msg.MenuOptions = []model.MenuOption{
			{ID: "plans", Label: "Ver planos", Action: model.ActionShowPlans},
		}
		return Result{Messages: []model.Message{msg}}, nil
	}

	data := make([]any, 0, len(items))
	for _, it := range items {
		data = append(data, it)
	}
	msg := r.bot(fmt.Sprintf("Você possui %d %s:", len(items), plural(len(items), "serviço ativo", "serviços ativos")))
	msg.RichContent = &model.RichContent{Type: model.RichServices, Data: data}
	return Result{Messages: []model.Message{msg}}, nil
}

func (r *Registry) showPlans(ctx context.Context, env Env, _ model.Action) (Result, error) {
	plans, err := r.billing.ActivePlans(ctx, env.TenantID)
	if err != nil {
		return r.notFound("os planos disponíveis", err, env), nil
	}
	if len(plans) == 0 {
		return Result{Messages: []model.Message{
			r.bot("No momento não há planos disponíveis."),
		}}, nil
	}

	data := make([]any, 0, len(plans))
	for _, p := range plans {
		data = append(data, p)
	}
	msg := r.bot("Estes são os planos disponíveis:")
	msg.RichContent = &model.RichContent{Type: model.RichPlans, Data: data}
	return Result{Messages: []model.Message{msg}}, nil
}

// listPendingCharges 客户查询付款单，代理商查询自己的账单，管理员查询整个租户
func (r *Registry) listPendingCharges(ctx context.Context, env Env, _ model.Action) (Result, error) {
	if env.Role == model.RoleCustomer {
		return r.customerPayments(ctx, env)
	}

	resellerID := ""
	if env.Role == model.RoleReseller {
		resellerID = env.CallerID
	}
	charges, err := r.billing.PendingCharges(ctx, env.TenantID, resellerID)
	if err != nil {
		return r.notFound("as cobranças pendentes", err, env), nil
	}
	if len(charges) == 0 {
		return Result{Messages: []model.Message{
			r.bot("Não há cobranças pendentes no momento."),
		}}, nil
	}

	lines := make([]string, 0, len(charges))
	data := make([]any, 0, len(charges))
	for _, c := range charges {
		lines = append(lines, fmt.Sprintf("• %s: %s, vence em %s", c.CustomerName, FormatBRL(c.Amount), FormatDate(c.DueDate)))
		data = append(data, c)
	}
	msg := r.bot(fmt.Sprintf("Cobranças pendentes (%d):\n%s", len(charges), strings.Join(lines, "\n")))
	msg.RichContent = &model.RichContent{Type: model.RichCharges, Data: data}
	return Result{Messages: []model.Message{msg}}, nil
}

func (r *Registry) customerPayments(ctx context.Context, env Env) (Result, error) {
	payments, err := r.billing.PendingPayments(ctx, env.TenantID, env.CallerID)
	if err != nil {
		return r.notFound("suas faturas", err, env), nil
	}
	if len(payments) == 0 {
		return Result{Messages: []model.Message{
			r.bot("Você não possui faturas pendentes. Tudo em dia!"),
		}}, nil
	}

	lines := make([]string, 0, len(payments))
	data := make([]any, 0, len(payments))
	for _, p := range payments {
		status := "pendente"
		if p.Status == model.BillingStatusOverdue {
			status = "vencida"
		}
		lines = append(lines, fmt.Sprintf("• %s, vencimento %s (%s)", FormatBRL(p.Amount), FormatDate(p.DueDate), status))
		data = append(data, p)
	}
	msg := r.bot(fmt.Sprintf("Você possui %d %s:\n%s",
		len(payments), plural(len(payments), "fatura em aberto", "faturas em aberto"), strings.Join(lines, "\n")))
	msg.RichContent = &model.RichContent{Type: model.RichCharges, Data: data}
	msg.MenuOptions = []model.MenuOption{
		{ID: "pay", Label: "Gerar pagamento", Action: model.ActionGeneratePayment},
	}
	return Result{Messages: []model.Message{msg}}, nil
}

func (r *Registry) showDueDates(ctx context.Context, env Env, _ model.Action) (Result, error) {
	items, err := r.billing.ActiveServices(ctx, env.TenantID, env.CallerID)
	if err != nil {
		return r.notFound("os vencimentos", err, env), nil
	}
	if len(items) == 0 {
		return Result{Messages: []model.Message{
			r.bot("Você não possui serviços com vencimento próximo."),
		}}, nil
	}

	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("• %s: %s", it.Name, formatTime(it.ExpiresAt)))
	}
	return Result{Messages: []model.Message{
		r.bot("Próximos vencimentos:\n" + strings.Join(lines, "\n")),
	}}, nil
}

// generatePayment 指定账单时直接返回支付链接，否则取最早的待付款单
func (r *Registry) generatePayment(ctx context.Context, env Env, action model.Action) (Result, error) {
	payments, err := r.billing.PendingPayments(ctx, env.TenantID, env.CallerID)
	if err != nil {
		return r.notFound("suas faturas", err, env), nil
	}

	var target *model.Payment
	for i := range payments {
		if action.Charge == nil || payments[i].ID == action.Charge.ChargeID {
			target = &payments[i]
			break
		}
	}
	if target == nil {
		return Result{Messages: []model.Message{
			r.bot("Não encontrei nenhuma fatura em aberto para pagamento."),
		}}, nil
	}

	msg := r.bot(fmt.Sprintf("Sua fatura de %s com vencimento em %s está pronta para pagamento.",
		FormatBRL(target.Amount), FormatDate(target.DueDate)))
	msg.RichContent = &model.RichContent{Type: model.RichConfirmation, Data: []any{*target}}
	res := Result{Messages: []model.Message{msg}}
	if target.PaymentURL != "" {
		res.Navigate = target.PaymentURL
	}
	return res, nil
}

func (r *Registry) upgradePlan(_ context.Context, _ Env, action model.Action) (Result, error) {
	path := "/planos"
	if action.Plan != nil && action.Plan.PlanID != "" {
		path = "/planos/" + url.PathEscape(action.Plan.PlanID)
	}
	return Result{
		Messages: []model.Message{r.bot("Vamos escolher seu novo plano.")},
		Navigate: path,
	}, nil
}

func (r *Registry) cancelService(_ context.Context, _ Env, _ model.Action) (Result, error) {
	msg := r.bot("Para cancelar um serviço, um de nossos atendentes precisa confirmar a solicitação. Deseja falar com um atendente?")
	msg.MenuOptions = []model.MenuOption{
		{ID: "help", Label: "Falar com atendente", Action: model.ActionRequestHelp},
		{ID: "services", Label: "Ver meus serviços", Action: model.ActionShowServices},
	}
	return Result{Messages: []model.Message{msg}}, nil
}

func (r *Registry) businessHours(_ context.Context, env Env, _ model.Action) (Result, error) {
	return Result{Messages: []model.Message{
		r.bot("Nosso horário de atendimento: " + orDefault(env.Config.BusinessHours, DefaultBusinessHours)),
	}}, nil
}

// requestHelp 构造人工转接；配置了 WhatsApp 号码时返回深链
func (r *Registry) requestHelp(transfer bool) HandlerFunc {
	return func(_ context.Context, env Env, action model.Action) (Result, error) {
		text := "Olá! Preciso de ajuda."
		if action.Help != nil && strings.TrimSpace(action.Help.Context) != "" {
			text = "Olá! Preciso de ajuda: " + strings.TrimSpace(action.Help.Context)
		}

		res := Result{TransferredToHuman: transfer}
		handoff := NewHandoff(env.Config.WhatsappNumber, text)
		if handoff == nil {
			res.Messages = []model.Message{
				r.bot("Um de nossos atendentes entrará em contato em breve. Horário de atendimento: " + orDefault(env.Config.BusinessHours, DefaultBusinessHours)),
			}
			return res, nil
		}

		res.Handoff = handoff
		res.Messages = []model.Message{
			r.bot("Vou te encaminhar para um atendente pelo WhatsApp."),
		}
		return res, nil
	}
}

// redirect 仅跳转页面的动作
func (r *Registry) redirect(path, text string) HandlerFunc {
	return func(_ context.Context, _ Env, _ model.Action) (Result, error) {
		return Result{
			Messages: []model.Message{r.bot(text)},
			Navigate: path,
		}, nil
	}
}

// navigate 只产生跳转，不回复消息
func (r *Registry) navigate(_ context.Context, _ Env, action model.Action) (Result, error) {
	if action.Navigate == nil || action.Navigate.Path == "" {
		return Result{}, nil
	}
	return Result{Navigate: action.Navigate.Path}, nil
}

// NewHandoff 构造 wa.me 深链，号码为空时返回 nil
func NewHandoff(phone, text string) *Handoff {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if digits == "" {
		return nil
	}
	return &Handoff{
		Phone: digits,
		Text:  text,
		URL:   "https://wa.me/" + digits + "?text=" + url.QueryEscape(text),
	}
}

// DefaultBusinessHours 租户未配置时的营业时间
const DefaultBusinessHours = "segunda a sexta, das 9h às 18h"

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
