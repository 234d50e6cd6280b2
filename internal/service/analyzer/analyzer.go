// Package analyzer 后台主动分析：每次消息追加后异步扫描最近对话与业务数据，生成提醒
package analyzer

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ashwinyue/next-assist/internal/model"
	"github.com/ashwinyue/next-assist/internal/pkg/zlog"
	"github.com/ashwinyue/next-assist/internal/repository"
	"github.com/ashwinyue/next-assist/internal/service/dispatch"
	"github.com/ashwinyue/next-assist/internal/service/store"
)

const (
	// DefaultAnomalyThreshold 金额超过该值时告警
	DefaultAnomalyThreshold = 1000.0
	// DefaultExpiringWindow 到期提醒窗口
	DefaultExpiringWindow = 7 * 24 * time.Hour
	// ExecutiveSuggestionUses 非关键动作使用次数达到该值时建议开启执行模式
	ExecutiveSuggestionUses = 3

	analyzeTimeout = 10 * time.Second
)

// expenseKeywords 支出相关关键词
var expenseKeywords = []string{
	"gasto", "gastei", "despesa", "paguei", "comprei", "compra", "pagamento", "custo",
}

// amountPattern 匹配 "R$ 1.234,56"、"1500" 或 "1500,00" 形式的金额
var amountPattern = regexp.MustCompile(`(?i)(?:r\$\s*)?(\d{1,3}(?:\.\d{3})+|\d+)(?:,(\d{1,2}))?`)

// Input 一次分析的输入
type Input struct {
	Scope         store.Scope
	Messages      []model.Message
	ExecutiveMode bool
	UsageCount    int
}

// Analyzer 后台分析器
// 每个作用域保留最近一次成功的分析结果，分析失败时保留旧结果
type Analyzer struct {
	billing   repository.BillingReader
	threshold float64
	window    time.Duration
	now       func() time.Time

	mu      sync.RWMutex
	latest  map[store.Scope]model.ProactiveAnalysis
	seq     map[store.Scope]uint64
	applied map[store.Scope]uint64

	wg sync.WaitGroup
}

// Option 分析器选项
type Option func(*Analyzer)

// WithThreshold 设置金额告警阈值
func WithThreshold(v float64) Option {
	return func(a *Analyzer) {
		if v > 0 {
			a.threshold = v
		}
	}
}

// WithExpiringWindow 设置到期提醒窗口
func WithExpiringWindow(d time.Duration) Option {
	return func(a *Analyzer) {
		if d > 0 {
			a.window = d
		}
	}
}

// WithClock 替换时钟
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// New 创建分析器
func New(billing repository.BillingReader, opts ...Option) *Analyzer {
	a := &Analyzer{
		billing:   billing,
		threshold: DefaultAnomalyThreshold,
		window:    DefaultExpiringWindow,
		now:       time.Now,
		latest:    make(map[store.Scope]model.ProactiveAnalysis),
		seq:       make(map[store.Scope]uint64),
		applied:   make(map[store.Scope]uint64),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Trigger 异步分析，调用方不等待结果
// 同一作用域并发触发时，只有更新的一次结果会被保留
func (a *Analyzer) Trigger(in Input) {
	msgs := append([]model.Message(nil), in.Messages...)
	in.Messages = msgs

	a.mu.Lock()
	a.seq[in.Scope]++
	seq := a.seq[in.Scope]
	a.mu.Unlock()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				zlog.Error("analyzer panic", zap.Any("panic", r), zap.String("scope", in.Scope.String()))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
		defer cancel()

		result, err := a.Analyze(ctx, in)
		if err != nil {
			zlog.Debug("analysis failed, keeping previous result",
				zap.String("scope", in.Scope.String()), zap.Error(err))
			return
		}

		a.mu.Lock()
		defer a.mu.Unlock()
		if seq <= a.applied[in.Scope] {
			return
		}
		a.applied[in.Scope] = seq
		a.latest[in.Scope] = result
	}()
}

// Wait 等待所有进行中的分析结束
func (a *Analyzer) Wait() {
	a.wg.Wait()
}

// Latest 最近一次成功的分析结果
func (a *Analyzer) Latest(scope store.Scope) model.ProactiveAnalysis {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.latest[scope]
}

// Alerts 合并后的主动提醒（最多 3 条）
func (a *Analyzer) Alerts(scope store.Scope) []string {
	return a.Latest(scope).Merged()
}

// Forget 清除作用域的分析状态
func (a *Analyzer) Forget(scope store.Scope) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.latest, scope)
	a.applied[scope] = a.seq[scope]
}

// Analyze 同步执行一次分析
func (a *Analyzer) Analyze(ctx context.Context, in Input) (model.ProactiveAnalysis, error) {
	var result model.ProactiveAnalysis

	// 1. 最近一条用户消息
	if last, ok := lastUserMessage(in.Messages); ok {
		text := strings.ToLower(last.Content)
		expense := containsAny(text, expenseKeywords)
		if expense {
			result.Suggestions = append(result.Suggestions,
				"Posso categorizar automaticamente esse gasto para você.")
		}
		// 只在明确提到金额时检查，避免把日期或编号当成金额
		monetary := expense || strings.Contains(text, "r$") || strings.Contains(text, "reais")
		if amount, ok := largestAmount(text); monetary && ok && amount > a.threshold {
			result.Alerts = append(result.Alerts,
				fmt.Sprintf("Valor acima do normal detectado: %s. Confira se está correto.", dispatch.FormatBRL(amount)))
		}
	}

	// 2. 执行模式偏好
	if !in.ExecutiveMode && in.UsageCount >= ExecutiveSuggestionUses {
		result.Suggestions = append(result.Suggestions,
			"Você usa consultas rápidas com frequência. Ative o modo executivo para executá-las direto.")
	}

	// 3. 业务数据
	role := in.Scope.Role
	switch {
	case role.IsOperator():
		resellerID := ""
		if role == model.RoleReseller {
			resellerID = in.Scope.CallerID
		}
		n, err := a.billing.CountOverdueCharges(ctx, in.Scope.TenantID, resellerID)
		if err != nil {
			return model.ProactiveAnalysis{}, fmt.Errorf("count overdue charges: %w", err)
		}
		if n > 0 {
			result.PendingActions = append(result.PendingActions, model.PendingAction{
				Type:    string(model.ActionListOverdue),
				Count:   int(n),
				Message: fmt.Sprintf("Você tem %d cobranças vencidas aguardando ação.", n),
			})
		}
	case role == model.RoleCustomer:
		svc, err := a.billing.SoonestExpiringService(ctx, in.Scope.TenantID, in.Scope.CallerID)
		if err != nil {
			return model.ProactiveAnalysis{}, fmt.Errorf("soonest expiring service: %w", err)
		}
		if svc != nil {
			remaining := svc.ExpiresAt.Sub(a.now())
			if remaining >= 0 && remaining <= a.window {
				days := int(remaining.Hours() / 24)
				result.Alerts = append(result.Alerts, expiryAlert(svc.Name, days))
			}
		}
	}

	return result, nil
}

func expiryAlert(name string, days int) string {
	switch days {
	case 0:
		return fmt.Sprintf("Seu serviço %s vence hoje.", name)
	case 1:
		return fmt.Sprintf("Seu serviço %s vence em 1 dia.", name)
	default:
		return fmt.Sprintf("Seu serviço %s vence em %d dias.", name, days)
	}
}

func lastUserMessage(msgs []model.Message) (model.Message, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == model.MessageRoleUser {
			return msgs[i], true
		}
	}
	return model.Message{}, false
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// largestAmount 提取文本中最大的金额，千分位为点，小数为逗号
func largestAmount(text string) (float64, bool) {
	matches := amountPattern.FindAllStringSubmatch(text, -1)
	best, found := 0.0, false
	for _, m := range matches {
		whole := strings.ReplaceAll(m[1], ".", "")
		v, err := strconv.ParseFloat(whole, 64)
		if err != nil {
			continue
		}
		if m[2] != "" {
			frac, err := strconv.ParseFloat("0."+m[2], 64)
			if err == nil {
				v += frac
			}
		}
		if !found || v > best {
			best, found = v, true
		}
	}
	return best, found
}
