package model

// ActionType 业务动作类型（封闭枚举）
type ActionType string

const (
	// 客户侧
	ActionShowServices       ActionType = "show_services"
	ActionShowPlans          ActionType = "show_plans"
	ActionListPendingCharges ActionType = "list_pending_charges"
	ActionShowDueDates       ActionType = "show_due_dates"
	ActionGeneratePayment    ActionType = "generate_payment"
	ActionViewInvoices       ActionType = "view_invoices"
	ActionUpgradePlan        ActionType = "upgrade_plan"
	ActionCancelService      ActionType = "cancel_service"
	ActionViewProfile        ActionType = "view_profile"
	ActionUpdateProfile      ActionType = "update_profile"
	ActionBusinessHours      ActionType = "business_hours"
	ActionShowFAQ            ActionType = "show_faq"
	ActionRequestHelp        ActionType = "request_help"
	ActionTransferHuman      ActionType = "transfer_human"

	// 运营侧
	ActionListCustomers   ActionType = "list_customers"
	ActionListResellers   ActionType = "list_resellers"
	ActionShowMetrics     ActionType = "show_metrics"
	ActionShowDashboard   ActionType = "show_dashboard"
	ActionListOverdue     ActionType = "list_overdue"
	ActionCreateAccount   ActionType = "create_account"
	ActionCreateCustomer  ActionType = "create_customer"
	ActionCreateReseller  ActionType = "create_reseller"
	ActionCreateCharge    ActionType = "create_charge"
	ActionCreatePlan      ActionType = "create_plan"
	ActionManagePlans     ActionType = "manage_plans"
	ActionSendReminder    ActionType = "send_reminder"
	ActionViewReports     ActionType = "view_reports"
	ActionManageTemplates ActionType = "manage_templates"
	ActionOpenSettings    ActionType = "open_settings"

	// 通用
	ActionNavigate ActionType = "navigate"
	ActionShowMenu ActionType = "show_menu"
)

// AllActionTypes 全部动作类型，注册表需覆盖每一项
var AllActionTypes = []ActionType{
	ActionShowServices, ActionShowPlans, ActionListPendingCharges, ActionShowDueDates,
	ActionGeneratePayment, ActionViewInvoices, ActionUpgradePlan, ActionCancelService,
	ActionViewProfile, ActionUpdateProfile, ActionBusinessHours, ActionShowFAQ,
	ActionRequestHelp, ActionTransferHuman,
	ActionListCustomers, ActionListResellers, ActionShowMetrics, ActionShowDashboard,
	ActionListOverdue, ActionCreateAccount, ActionCreateCustomer, ActionCreateReseller,
	ActionCreateCharge, ActionCreatePlan, ActionManagePlans, ActionSendReminder,
	ActionViewReports, ActionManageTemplates, ActionOpenSettings,
	ActionNavigate, ActionShowMenu,
}

// IsValid 是否为已知动作
func (t ActionType) IsValid() bool {
	for _, a := range AllActionTypes {
		if a == t {
			return true
		}
	}
	return false
}

// HelpPayload 人工协助载荷
type HelpPayload struct {
	Context string `json:"context,omitempty"`
}

// NavigatePayload 页面跳转载荷
type NavigatePayload struct {
	Path string `json:"path"`
}

// ChargePayload 账单载荷
type ChargePayload struct {
	ChargeID string `json:"charge_id"`
}

// PlanPayload 套餐载荷
type PlanPayload struct {
	PlanID string `json:"plan_id"`
}

// AccountPayload 开户载荷
type AccountPayload struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// QueryPayload 列表筛选载荷
type QueryPayload struct {
	Search string `json:"search,omitempty"`
}

// Action 结构化动作，每种类型最多携带一个对应的载荷
type Action struct {
	Type     ActionType       `json:"type"`
	Help     *HelpPayload     `json:"help,omitempty"`
	Navigate *NavigatePayload `json:"navigate,omitempty"`
	Charge   *ChargePayload   `json:"charge,omitempty"`
	Plan     *PlanPayload     `json:"plan,omitempty"`
	Account  *AccountPayload  `json:"account,omitempty"`
	Query    *QueryPayload    `json:"query,omitempty"`
}

// NewAction 创建无载荷动作
func NewAction(t ActionType) Action {
	return Action{Type: t}
}
