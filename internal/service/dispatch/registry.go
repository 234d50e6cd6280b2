// Package dispatch 提供动作注册表：动作类型 -> 处理器，构建一次后只读
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ashwinyue/next-assist/internal/model"
	"github.com/ashwinyue/next-assist/internal/repository"
	"github.com/google/uuid"
)

// ErrUnknownAction 未注册的动作类型
var ErrUnknownAction = errors.New("unknown action type")

// Env 单次调用的上下文
type Env struct {
	TenantID string
	CallerID string
	Role     model.RoleClass
	Config   model.AssistantConfig
	Stats    model.ContextStats
}

// Handoff 人工转接（外部消息深链）
type Handoff struct {
	Phone string `json:"phone"`
	Text  string `json:"text"`
	URL   string `json:"url"`
}

// Result 处理结果
// Messages 为空表示处理器没有产生回复，由调用方决定是否补充确认消息
type Result struct {
	Messages           []model.Message
	Navigate           string
	Handoff            *Handoff
	TransferredToHuman bool
}

// Produced 是否产生了回复消息
func (r Result) Produced() bool {
	return len(r.Messages) > 0
}

// HandlerFunc 动作处理器
type HandlerFunc func(ctx context.Context, env Env, action model.Action) (Result, error)

// Entry 注册项
type Entry struct {
	Handler     HandlerFunc
	Roles       []model.RoleClass // 为空表示所有角色可用
	NonCritical bool              // 只读查询，执行模式下直接执行
}

// Allows 角色是否可执行
func (e Entry) Allows(role model.RoleClass) bool {
	if len(e.Roles) == 0 {
		return true
	}
	for _, r := range e.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Registry 动作注册表
type Registry struct {
	entries map[model.ActionType]Entry
	billing repository.BillingReader
	now     func() time.Time
}

// Option 注册表选项
type Option func(*Registry)

// WithClock 替换时钟
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// 角色分组
var (
	allRoles       []model.RoleClass
	customerOnly   = []model.RoleClass{model.RoleCustomer}
	operators      = []model.RoleClass{model.RoleMaster, model.RoleAdm, model.RoleReseller}
	administrators = []model.RoleClass{model.RoleMaster, model.RoleAdm}
	masterOnly     = []model.RoleClass{model.RoleMaster}
)

// NewRegistry 创建注册表，覆盖 model.AllActionTypes 中的每一种动作
func NewRegistry(billing repository.BillingReader, opts ...Option) *Registry {
	r := &Registry{
		billing: billing,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.entries = map[model.ActionType]Entry{
		// 客户侧
		model.ActionShowServices:       {Handler: r.showServices, Roles: customerOnly, NonCritical: true},
		model.ActionShowPlans:          {Handler: r.showPlans, Roles: allRoles, NonCritical: true},
		model.ActionListPendingCharges: {Handler: r.listPendingCharges, Roles: allRoles, NonCritical: true},
		model.ActionShowDueDates:       {Handler: r.showDueDates, Roles: customerOnly, NonCritical: true},
		model.ActionGeneratePayment:    {Handler: r.generatePayment, Roles: customerOnly},
		model.ActionViewInvoices:       {Handler: r.redirect("/faturas", "Abrindo suas faturas."), Roles: customerOnly},
		model.ActionUpgradePlan:        {Handler: r.upgradePlan, Roles: customerOnly},
		model.ActionCancelService:      {Handler: r.cancelService, Roles: customerOnly},
		model.ActionViewProfile:        {Handler: r.redirect("/perfil", "Abrindo seu perfil."), Roles: allRoles},
		model.ActionUpdateProfile:      {Handler: r.redirect("/perfil/editar", "Você pode atualizar seus dados nesta página."), Roles: allRoles},
		model.ActionBusinessHours:      {Handler: r.businessHours, Roles: allRoles},
		model.ActionShowFAQ:            {Handler: r.redirect("/ajuda", "Separei nossa central de ajuda para você."), Roles: allRoles},
		model.ActionRequestHelp:        {Handler: r.requestHelp(false), Roles: allRoles},
		model.ActionTransferHuman:      {Handler: r.requestHelp(true), Roles: allRoles},

		// 运营侧
		model.ActionListCustomers:   {Handler: r.listCustomers, Roles: operators, NonCritical: true},
		model.ActionListResellers:   {Handler: r.listResellers, Roles: administrators, NonCritical: true},
		model.ActionShowMetrics:     {Handler: r.showMetrics, Roles: operators, NonCritical: true},
		model.ActionShowDashboard:   {Handler: r.redirect("/dashboard", "Abrindo o painel."), Roles: operators, NonCritical: true},
		model.ActionListOverdue:     {Handler: r.listOverdue, Roles: operators, NonCritical: true},
		model.ActionCreateAccount:   {Handler: r.createAccount, Roles: masterOnly},
		model.ActionCreateCustomer:  {Handler: r.createCustomer, Roles: operators},
		model.ActionCreateReseller:  {Handler: r.redirect("/revendedores/novo", "Vamos cadastrar um novo revendedor."), Roles: administrators},
		model.ActionCreateCharge:    {Handler: r.redirect("/cobrancas/nova", "Vamos criar uma nova cobrança."), Roles: operators},
		model.ActionCreatePlan:      {Handler: r.redirect("/planos/novo", "Vamos criar um novo plano."), Roles: administrators},
		model.ActionManagePlans:     {Handler: r.redirect("/planos", "Abrindo o gerenciamento de planos."), Roles: administrators},
		model.ActionSendReminder:    {Handler: r.sendReminder, Roles: operators},
		model.ActionViewReports:     {Handler: r.redirect("/relatorios", "Abrindo os relatórios."), Roles: operators},
		model.ActionManageTemplates: {Handler: r.redirect("/templates", "Abrindo os modelos de mensagem."), Roles: administrators},
		model.ActionOpenSettings:    {Handler: r.redirect("/configuracoes", "Abrindo as configurações."), Roles: administrators},

		// 通用
		model.ActionNavigate: {Handler: r.navigate, Roles: allRoles},
		model.ActionShowMenu: {Handler: r.showMenu, Roles: allRoles},
	}

	return r
}

// Lookup 查找注册项
func (r *Registry) Lookup(t model.ActionType) (Entry, bool) {
	e, ok := r.entries[t]
	return e, ok
}

// IsNonCritical 是否为只读查询动作
func (r *Registry) IsNonCritical(t model.ActionType) bool {
	e, ok := r.entries[t]
	return ok && e.NonCritical
}

// Dispatch 执行动作
// 角色不可用时返回提示消息而不是错误；处理器错误原样返回，由调用方转换为致歉消息
func (r *Registry) Dispatch(ctx context.Context, env Env, action model.Action) (Result, error) {
	entry, ok := r.entries[action.Type]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownAction, action.Type)
	}

	if !entry.Allows(env.Role) {
		return Result{Messages: []model.Message{
			r.bot("Essa opção não está disponível para o seu perfil."),
		}}, nil
	}

	res, err := entry.Handler(ctx, env, action)
	if err != nil {
		return Result{}, err
	}

	if entry.NonCritical && env.Config.ExecutiveMode {
		for i := range res.Messages {
			res.Messages[i].AutoExecutable = true
		}
	}
	return res, nil
}

// bot 创建机器人消息
func (r *Registry) bot(content string) model.Message {
	return model.Message{
		ID:        uuid.New().String(),
		Role:      model.MessageRoleBot,
		Content:   content,
		Timestamp: r.now(),
	}
}
