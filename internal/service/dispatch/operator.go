package dispatch

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ashwinyue/next-assist/internal/model"
	"github.com/ashwinyue/next-assist/internal/service/catalog"
)

// resellerScope 代理商只能看到自己的数据
func resellerScope(env Env) string {
	if env.Role == model.RoleReseller {
		return env.CallerID
	}
	return ""
}

func searchOf(action model.Action) string {
	if action.Query == nil {
		return ""
	}
	return strings.TrimSpace(action.Query.Search)
}

func (r *Registry) listCustomers(ctx context.Context, env Env, action model.Action) (Result, error) {
	customers, err := r.billing.Customers(ctx, env.TenantID, resellerScope(env), searchOf(action))
	if err != nil {
		return r.notFound("os clientes", err, env), nil
	}
	if len(customers) == 0 {
		msg := r.bot("Nenhum cliente encontrado.")
		msg.MenuOptions = []model.MenuOption{
			{ID: "new-customer", Label: "Cadastrar cliente", Action: model.ActionCreateCustomer},
		}
		return Result{Messages: []model.Message{msg}}, nil
	}

	data := make([]any, 0, len(customers))
	for _, c := range customers {
		data = append(data, c)
	}
	msg := r.bot(fmt.Sprintf("Encontrei %d %s:", len(customers), plural(len(customers), "cliente", "clientes")))
	msg.RichContent = &model.RichContent{Type: model.RichCustomers, Data: data}
	return Result{Messages: []model.Message{msg}}, nil
}

func (r *Registry) listResellers(ctx context.Context, env Env, action model.Action) (Result, error) {
	resellers, err := r.billing.Resellers(ctx, env.TenantID, searchOf(action))
	if err != nil {
		return r.notFound("os revendedores", err, env), nil
	}
	if len(resellers) == 0 {
		return Result{Messages: []model.Message{r.bot("Nenhum revendedor encontrado.")}}, nil
	}

	data := make([]any, 0, len(resellers))
	for _, rs := range resellers {
		data = append(data, rs)
	}
	msg := r.bot(fmt.Sprintf("Encontrei %d %s:", len(resellers), plural(len(resellers), "revendedor", "revendedores")))
	msg.RichContent = &model.RichContent{Type: model.RichResellers, Data: data}
	return Result{Messages: []model.Message{msg}}, nil
}

// metricLabels 统计项展示名
var metricLabels = map[string]string{
	"customers":       "Clientes",
	"pending_charges": "Cobranças pendentes",
	"overdue_charges": "Cobranças vencidas",
	"active_services": "Serviços ativos",
}

// showMetrics 优先使用会话上下文中的统计，缺失时实时查询
func (r *Registry) showMetrics(ctx context.Context, env Env, _ model.Action) (Result, error) {
	stats := env.Stats
	if len(stats) == 0 {
		var err error
		stats, err = r.billing.Stats(ctx, env.TenantID, resellerScope(env))
		if err != nil {
			return r.notFound("as métricas", err, env), nil
		}
	}

	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	data := make([]any, 0, len(keys))
	for _, k := range keys {
		label := metricLabels[k]
		if label == "" {
			label = k
		}
		lines = append(lines, fmt.Sprintf("• %s: %s", label, formatMetric(stats[k])))
		data = append(data, map[string]any{"key": k, "label": label, "value": stats[k]})
	}

	msg := r.bot("Resumo das métricas:\n" + strings.Join(lines, "\n"))
	msg.RichContent = &model.RichContent{Type: model.RichMetrics, Data: data}
	return Result{Messages: []model.Message{msg}}, nil
}

func (r *Registry) listOverdue(ctx context.Context, env Env, _ model.Action) (Result, error) {
	charges, err := r.billing.OverdueCharges(ctx, env.TenantID, resellerScope(env))
	if err != nil {
		return r.notFound("as cobranças vencidas", err, env), nil
	}
	if len(charges) == 0 {
		return Result{Messages: []model.Message{r.bot("Nenhuma cobrança vencida. Ótimo trabalho!")}}, nil
	}

	var total float64
	data := make([]any, 0, len(charges))
	for _, c := range charges {
		total += c.Amount
		data = append(data, c)
	}
	msg := r.bot(fmt.Sprintf("Há %d %s, somando %s.",
		len(charges), plural(len(charges), "cobrança vencida", "cobranças vencidas"), FormatBRL(total)))
	msg.RichContent = &model.RichContent{Type: model.RichCharges, Data: data}
	msg.MenuOptions = []model.MenuOption{
		{ID: "remind", Label: "Enviar lembrete", Action: model.ActionSendReminder},
	}
	return Result{Messages: []model.Message{msg}}, nil
}

// createAccount 有载荷时生成确认卡片，否则跳转到开户页面
func (r *Registry) createAccount(_ context.Context, _ Env, action model.Action) (Result, error) {
	if action.Account == nil || action.Account.Name == "" {
		return Result{
			Messages: []model.Message{r.bot("Vamos criar uma nova conta.")},
			Navigate: "/contas/nova",
		}, nil
	}
	msg := r.bot(fmt.Sprintf("Confirme a criação da conta de %s.", action.Account.Name))
	msg.RichContent = &model.RichContent{Type: model.RichConfirmation, Data: []any{*action.Account}}
	return Result{Messages: []model.Message{msg}, Navigate: "/contas/nova"}, nil
}

func (r *Registry) createCustomer(_ context.Context, _ Env, action model.Action) (Result, error) {
	if action.Account != nil && action.Account.Name != "" {
		msg := r.bot(fmt.Sprintf("Confirme o cadastro do cliente %s.", action.Account.Name))
		msg.RichContent = &model.RichContent{Type: model.RichConfirmation, Data: []any{*action.Account}}
		return Result{Messages: []model.Message{msg}, Navigate: "/clientes/novo"}, nil
	}
	return Result{
		Messages: []model.Message{r.bot("Vamos cadastrar um novo cliente.")},
		Navigate: "/clientes/novo",
	}, nil
}

// sendReminder 只统计待提醒数量，发送由通知服务完成
func (r *Registry) sendReminder(ctx context.Context, env Env, action model.Action) (Result, error) {
	if action.Charge != nil && action.Charge.ChargeID != "" {
		msg := r.bot("Lembrete agendado para a cobrança selecionada.")
		msg.RichContent = &model.RichContent{Type: model.RichConfirmation, Data: []any{*action.Charge}}
		return Result{Messages: []model.Message{msg}}, nil
	}

	n, err := r.billing.CountOverdueCharges(ctx, env.TenantID, resellerScope(env))
	if err != nil {
		return r.notFound("as cobranças vencidas", err, env), nil
	}
	if n == 0 {
		return Result{Messages: []model.Message{r.bot("Não há cobranças vencidas para lembrar.")}}, nil
	}
	return Result{
		Messages: []model.Message{r.bot(fmt.Sprintf("Abrindo o envio de lembretes para %d %s.",
			n, plural(int(n), "cobrança vencida", "cobranças vencidas")))},
		Navigate: "/cobrancas?status=overdue",
	}, nil
}

func (r *Registry) showMenu(_ context.Context, env Env, _ model.Action) (Result, error) {
	msg := r.bot("Como posso ajudar?")
	msg.MenuOptions = catalog.MenuFor(env.Role)
	return Result{Messages: []model.Message{msg}}, nil
}
