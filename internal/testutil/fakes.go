package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ashwinyue/next-assist/internal/model"
	"github.com/google/uuid"
)

// ErrFake 测试注入的错误
var ErrFake = errors.New("fake failure")

// FakeBilling 内存版业务数据读取
type FakeBilling struct {
	mu sync.Mutex

	Services     []model.CustomerService
	Plans        []model.Plan
	Payments     []model.Payment
	Charges      []model.Charge
	Overdue      []model.Charge
	CustomerList []model.Customer
	ResellerList []model.Reseller
	StatsResult  model.ContextStats
	Expiring     *model.CustomerService
	Err          error

	// Calls 记录调用过的方法名
	Calls []string
	// LastResellerID 最近一次查询的代理商过滤条件
	LastResellerID string
	// LastSearch 最近一次列表查询的搜索词
	LastSearch string
}

func (f *FakeBilling) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, name)
	return f.Err
}

// Called 是否调用过指定方法
func (f *FakeBilling) Called(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.Calls {
		if c == name {
			return true
		}
	}
	return false
}

func (f *FakeBilling) ActiveServices(_ context.Context, _, _ string) ([]model.CustomerService, error) {
	if err := f.record("ActiveServices"); err != nil {
		return nil, err
	}
	return f.Services, nil
}

func (f *FakeBilling) ActivePlans(_ context.Context, _ string) ([]model.Plan, error) {
	if err := f.record("ActivePlans"); err != nil {
		return nil, err
	}
	return f.Plans, nil
}

func (f *FakeBilling) PendingPayments(_ context.Context, _, _ string) ([]model.Payment, error) {
	if err := f.record("PendingPayments"); err != nil {
		return nil, err
	}
	return f.Payments, nil
}

func (f *FakeBilling) PendingCharges(_ context.Context, _, resellerID string) ([]model.Charge, error) {
	if err := f.record("PendingCharges"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.LastResellerID = resellerID
	f.mu.Unlock()
	return f.Charges, nil
}

func (f *FakeBilling) OverdueCharges(_ context.Context, _, resellerID string) ([]model.Charge, error) {
	if err := f.record("OverdueCharges"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.LastResellerID = resellerID
	f.mu.Unlock()
	return f.Overdue, nil
}

func (f *FakeBilling) CountOverdueCharges(_ context.Context, _, _ string) (int64, error) {
	if err := f.record("CountOverdueCharges"); err != nil {
		return 0, err
	}
	return int64(len(f.Overdue)), nil
}

func (f *FakeBilling) SoonestExpiringService(_ context.Context, _, _ string) (*model.CustomerService, error) {
	if err := f.record("SoonestExpiringService"); err != nil {
		return nil, err
	}
	return f.Expiring, nil
}

func (f *FakeBilling) Customers(_ context.Context, _, resellerID, search string) ([]model.Customer, error) {
	if err := f.record("Customers"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.LastResellerID = resellerID
	f.LastSearch = search
	f.mu.Unlock()
	return f.CustomerList, nil
}

func (f *FakeBilling) Resellers(_ context.Context, _, search string) ([]model.Reseller, error) {
	if err := f.record("Resellers"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.LastSearch = search
	f.mu.Unlock()
	return f.ResellerList, nil
}

func (f *FakeBilling) Stats(_ context.Context, _, _ string) (model.ContextStats, error) {
	if err := f.record("Stats"); err != nil {
		return nil, err
	}
	return f.StatsResult, nil
}

// FakeConfigs 内存版租户配置
type FakeConfigs struct {
	Configs map[string]*model.AssistantConfig
	Err     error
}

func (f *FakeConfigs) GetAssistantConfig(_ context.Context, tenantID string) (*model.AssistantConfig, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Configs[tenantID], nil
}

func (f *FakeConfigs) UpdateAssistantConfig(_ context.Context, tenantID string, cfg *model.AssistantConfig) error {
	if f.Err != nil {
		return f.Err
	}
	if f.Configs == nil {
		f.Configs = make(map[string]*model.AssistantConfig)
	}
	cp := *cfg
	f.Configs[tenantID] = &cp
	return nil
}

// FakeSessions 内存版会话记录
type FakeSessions struct {
	mu       sync.Mutex
	Sessions map[string]*model.AssistantSession
	Updates  []map[string]any
	Err      error
}

// NewFakeSessions 创建会话记录 fake
func NewFakeSessions() *FakeSessions {
	return &FakeSessions{Sessions: make(map[string]*model.AssistantSession)}
}

func (f *FakeSessions) Create(_ context.Context, s *model.AssistantSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	cp := *s
	f.Sessions[s.ID] = &cp
	return nil
}

func (f *FakeSessions) GetByID(_ context.Context, id string) (*model.AssistantSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.Sessions[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	cp := *s
	return &cp, nil
}

func (f *FakeSessions) Update(_ context.Context, id string, updates map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.Updates = append(f.Updates, updates)
	s, ok := f.Sessions[id]
	if !ok {
		return nil
	}
	for k, v := range updates {
		switch val := v.(type) {
		case model.SessionStatus:
			s.Status = val
		case model.MessageList:
			s.Messages = val
		case model.ContextStats:
			s.Stats = val
		case int:
			if k == "message_count" {
				s.MessageCount = val
			}
		case bool:
			switch k {
			case "resolved_by_ai":
				s.ResolvedByAI = &val
			case "transferred_to_human":
				s.TransferredToHuman = val
			}
		case time.Time:
			if k == "ended_at" {
				s.EndedAt = &val
			}
		}
	}
	return nil
}

// Get 读取会话（测试断言用）
func (f *FakeSessions) Get(id string) *model.AssistantSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.Sessions[id]
	if !ok {
		return nil
	}
	cp := *s
	return &cp
}

// Count 会话记录数
func (f *FakeSessions) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Sessions)
}

// UpdateCount 更新次数
func (f *FakeSessions) UpdateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Updates)
}

// FakeFeedback 内存版评分记录
type FakeFeedback struct {
	mu      sync.Mutex
	Records []model.AssistantFeedback
	Err     error
}

func (f *FakeFeedback) Create(_ context.Context, fb *model.AssistantFeedback) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.Records = append(f.Records, *fb)
	return nil
}
