package catalog

import "github.com/ashwinyue/next-assist/internal/model"

var menus = map[model.RoleClass][]model.MenuOption{
	model.RoleCustomer: {
		{ID: "services", Label: "Meus serviços", Action: model.ActionShowServices},
		{ID: "charges", Label: "Faturas pendentes", Action: model.ActionListPendingCharges},
		{ID: "plans", Label: "Planos disponíveis", Action: model.ActionShowPlans},
		{ID: "help", Label: "Falar com atendente", Action: model.ActionRequestHelp},
	},
	model.RoleReseller: {
		{ID: "customers", Label: "Meus clientes", Action: model.ActionListCustomers},
		{ID: "charges", Label: "Cobranças pendentes", Action: model.ActionListPendingCharges},
		{ID: "metrics", Label: "Métricas", Action: model.ActionShowMetrics},
		{ID: "new-customer", Label: "Cadastrar cliente", Action: model.ActionCreateCustomer},
	},
	model.RoleAdm: {
		{ID: "customers", Label: "Clientes", Action: model.ActionListCustomers},
		{ID: "resellers", Label: "Revendedores", Action: model.ActionListResellers},
		{ID: "metrics", Label: "Métricas", Action: model.ActionShowMetrics},
		{ID: "charges", Label: "Cobranças pendentes", Action: model.ActionListPendingCharges},
	},
	model.RoleMaster: {
		{ID: "resellers", Label: "Revendedores", Action: model.ActionListResellers},
		{ID: "metrics", Label: "Métricas", Action: model.ActionShowMetrics},
		{ID: "new-account", Label: "Criar conta", Action: model.ActionCreateAccount},
		{ID: "customers", Label: "Clientes", Action: model.ActionListCustomers},
	},
}

// MenuFor 返回角色的快捷菜单，顺序固定；未知角色返回空列表
func MenuFor(role model.RoleClass) []model.MenuOption {
	menu, ok := menus[role]
	if !ok {
		return []model.MenuOption{}
	}
	return append([]model.MenuOption(nil), menu...)
}
