package model

import "time"

// 以下为业务侧数据，由 CRUD 页面维护，助手只做有界读取

// CustomerService 客户已订购的服务
type CustomerService struct {
	ID         string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	TenantID   string    `json:"tenant_id" gorm:"type:varchar(36);index"`
	CustomerID string    `json:"customer_id" gorm:"type:varchar(36);index"`
	Name       string    `json:"name" gorm:"type:varchar(255)"`
	Status     string    `json:"status" gorm:"type:varchar(20);index"` // active, suspended, cancelled
	Price      float64   `json:"price"`
	ExpiresAt  time.Time `json:"expires_at" gorm:"index"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (CustomerService) TableName() string {
	return "customer_services"
}

// Plan 可订购的套餐
type Plan struct {
	ID          string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	TenantID    string    `json:"tenant_id" gorm:"type:varchar(36);index"`
	Name        string    `json:"name" gorm:"type:varchar(255)"`
	Description string    `json:"description" gorm:"type:text"`
	Price       float64   `json:"price"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (Plan) TableName() string {
	return "plans"
}

// Payment 客户侧的付款单（boleto / pix）
type Payment struct {
	ID         string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	TenantID   string    `json:"tenant_id" gorm:"type:varchar(36);index"`
	CustomerID string    `json:"customer_id" gorm:"type:varchar(36);index"`
	Amount     float64   `json:"amount"`
	DueDate    string    `json:"due_date" gorm:"type:varchar(10);index"` // YYYY-MM-DD
	Status     string    `json:"status" gorm:"type:varchar(20);index"`  // pending, overdue, paid
	PaymentURL string    `json:"payment_url" gorm:"type:varchar(500)"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (Payment) TableName() string {
	return "payments"
}

// Charge 代理商侧的应收账单
type Charge struct {
	ID           string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	TenantID     string    `json:"tenant_id" gorm:"type:varchar(36);index"`
	ResellerID   string    `json:"reseller_id" gorm:"type:varchar(36);index"`
	CustomerName string    `json:"customer_name" gorm:"type:varchar(255)"`
	Amount       float64   `json:"amount"`
	DueDate      string    `json:"due_date" gorm:"type:varchar(10);index"`
	Status       string    `json:"status" gorm:"type:varchar(20);index"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (Charge) TableName() string {
	return "charges"
}

// Customer 客户
type Customer struct {
	ID         string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	TenantID   string    `json:"tenant_id" gorm:"type:varchar(36);index"`
	ResellerID string    `json:"reseller_id" gorm:"type:varchar(36);index"`
	Name       string    `json:"name" gorm:"type:varchar(255)"`
	Email      string    `json:"email" gorm:"type:varchar(255)"`
	Phone      string    `json:"phone" gorm:"type:varchar(32)"`
	Status     string    `json:"status" gorm:"type:varchar(20)"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (Customer) TableName() string {
	return "customers"
}

// Reseller 代理商
type Reseller struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	TenantID  string    `json:"tenant_id" gorm:"type:varchar(36);index"`
	Name      string    `json:"name" gorm:"type:varchar(255)"`
	Email     string    `json:"email" gorm:"type:varchar(255)"`
	Status    string    `json:"status" gorm:"type:varchar(20)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (Reseller) TableName() string {
	return "resellers"
}

// 账单状态
const (
	BillingStatusPending = "pending"
	BillingStatusOverdue = "overdue"
	BillingStatusPaid    = "paid"
)

// ServiceStatusActive 服务有效状态
const ServiceStatusActive = "active"
