// Package intent 提供 AI 不可用时的关键词意图兜底
package intent

import (
	"strings"

	"github.com/ashwinyue/next-assist/internal/model"
)

// Rule 关键词规则，任一关键词作为子串命中即匹配
type Rule struct {
	Keywords []string
	Action   model.ActionType
}

// Intent 分类结果
type Intent struct {
	Matched bool
	Action  model.Action
}

// DefaultRules 默认规则，按顺序匹配，先命中者胜出
var DefaultRules = []Rule{
	{
		Keywords: []string{"serviço", "servico", "serviços", "servicos", "plano", "planos", "assinatura"},
		Action:   model.ActionShowServices,
	},
	{
		Keywords: []string{"pagamento", "pagar", "boleto", "fatura", "cobrança", "cobranca", "vencimento", "vence", "pix", "segunda via"},
		Action:   model.ActionListPendingCharges,
	},
	{
		Keywords: []string{"ajuda", "atendente", "humano", "suporte", "falar com", "problema"},
		Action:   model.ActionRequestHelp,
	},
}

// Classifier 有序关键词分类器，无副作用
type Classifier struct {
	rules []Rule
}

// NewClassifier 创建分类器，rules 为空时使用默认规则
func NewClassifier(rules []Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Classifier{rules: rules}
}

// Classify 对小写化后的输入做子串匹配
func (c *Classifier) Classify(text string) Intent {
	lower := strings.ToLower(text)
	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				action := model.NewAction(rule.Action)
				if rule.Action == model.ActionRequestHelp {
					action.Help = &model.HelpPayload{Context: text}
				}
				return Intent{Matched: true, Action: action}
			}
		}
	}
	return Intent{}
}
