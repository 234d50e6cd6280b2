// Package catalog 提供角色解析与快捷菜单目录，均为纯函数
package catalog

import (
	"strings"

	"github.com/ashwinyue/next-assist/internal/model"
)

// Identity 调用方身份（来自认证上下文）
type Identity struct {
	TenantID     string
	OperatorID   string
	OperatorRole string
	CustomerID   string
}

// CallerID 调用方 ID，客户身份优先
func (i Identity) CallerID() string {
	if i.CustomerID != "" {
		return i.CustomerID
	}
	return i.OperatorID
}

// ResolveRole 解析角色等级
// 只要存在已认证的客户身份，一律为 customer，忽略运营侧上下文
func ResolveRole(id Identity) (model.RoleClass, bool) {
	if id.CustomerID != "" {
		return model.RoleCustomer, true
	}
	switch model.RoleClass(strings.ToLower(strings.TrimSpace(id.OperatorRole))) {
	case model.RoleMaster:
		return model.RoleMaster, true
	case model.RoleAdm:
		return model.RoleAdm, true
	case model.RoleReseller:
		return model.RoleReseller, true
	}
	return "", false
}
