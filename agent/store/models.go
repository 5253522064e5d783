package store

import (
	"time"

	"github.com/uptrace/bun"
)

type Customer struct {
	bun.BaseModel `bun:"table:customers,alias:c"`

	ID         int64     `bun:"id,pk,autoincrement" json:"-"`
	CustomerID string    `bun:"customer_id,unique,notnull" json:"customer_id"`
	Name       string    `bun:"name,notnull" json:"name"`
	Email      string    `bun:"email" json:"email"`
	Phone      string    `bun:"phone" json:"phone"`
	Domain     string    `bun:"domain,notnull" json:"domain"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID              int64     `bun:"id,pk,autoincrement" json:"-"`
	OrderID         string    `bun:"order_id,unique,notnull" json:"order_id"`
	CustomerID      string    `bun:"customer_id,notnull" json:"customer_id"`
	ProductName     string    `bun:"product_name" json:"product_name"`
	Status          string    `bun:"status,notnull" json:"status"`
	TotalAmount     float64   `bun:"total_amount" json:"total_amount"`
	ShippingAddress string    `bun:"shipping_address" json:"shipping_address"`
	TrackingNumber  string    `bun:"tracking_number" json:"tracking_number,omitempty"`
	CreatedAt       time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

type Product struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ID            int64   `bun:"id,pk,autoincrement" json:"-"`
	ProductID     string  `bun:"product_id,unique,notnull" json:"product_id"`
	Name          string  `bun:"name,notnull" json:"name"`
	Price         float64 `bun:"price" json:"price"`
	StockQuantity int     `bun:"stock_quantity,notnull,default:0" json:"stock_quantity"`
	Category      string  `bun:"category" json:"category"`
	Description   string  `bun:"description" json:"description,omitempty"`
}

type BankAccount struct {
	bun.BaseModel `bun:"table:bank_accounts,alias:ba"`

	ID            int64     `bun:"id,pk,autoincrement" json:"-"`
	AccountNumber string    `bun:"account_number,unique,notnull" json:"account_number"`
	CustomerID    string    `bun:"customer_id,notnull" json:"customer_id"`
	AccountType   string    `bun:"account_type,notnull" json:"account_type"`
	Balance       float64   `bun:"balance,notnull,default:0" json:"balance"`
	Status        string    `bun:"status,notnull" json:"status"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

type Transaction struct {
	bun.BaseModel `bun:"table:transactions,alias:t"`

	ID              int64     `bun:"id,pk,autoincrement" json:"-"`
	TransactionID   string    `bun:"transaction_id,unique,notnull" json:"transaction_id"`
	AccountNumber   string    `bun:"account_number,notnull" json:"account_number"`
	Amount          float64   `bun:"amount,notnull" json:"amount"`
	TransactionType string    `bun:"transaction_type,notnull" json:"transaction_type"`
	Description     string    `bun:"description" json:"description"`
	CreatedAt       time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

type TelecomAccount struct {
	bun.BaseModel `bun:"table:telecom_accounts,alias:ta"`

	ID              int64     `bun:"id,pk,autoincrement" json:"-"`
	PhoneNumber     string    `bun:"phone_number,unique,notnull" json:"phone_number"`
	CustomerID      string    `bun:"customer_id,notnull" json:"customer_id"`
	PlanType        string    `bun:"plan_type" json:"plan_type"`
	MonthlyCharge   float64   `bun:"monthly_charge" json:"monthly_charge"`
	DataUsageGB     float64   `bun:"data_usage_gb,notnull,default:0" json:"data_usage_gb"`
	Status          string    `bun:"status,notnull" json:"status"`
	LastPaymentDate string    `bun:"last_payment_date" json:"last_payment_date"`
	CreatedAt       time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// ChatSessionLog is an append-only record of one conversation turn pair. Messages holds JSON.
type ChatSessionLog struct {
	bun.BaseModel `bun:"table:chat_sessions,alias:cs"`

	ID         int64     `bun:"id,pk,autoincrement"`
	SessionID  string    `bun:"session_id,notnull"`
	CustomerID string    `bun:"customer_id,notnull"`
	Domain     string    `bun:"domain,notnull"`
	Messages   string    `bun:"messages"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type Escalation struct {
	bun.BaseModel `bun:"table:escalations,alias:e"`

	ID           int64     `bun:"id,pk,autoincrement" json:"-"`
	EscalationID string    `bun:"escalation_id,unique,notnull" json:"escalation_id"`
	CustomerID   string    `bun:"customer_id" json:"customer_id"`
	Issue        string    `bun:"issue,notnull" json:"issue"`
	Priority     string    `bun:"priority,notnull" json:"priority"`
	Status       string    `bun:"status,notnull" json:"status"`
	MessageID    string    `bun:"message_id" json:"message_id,omitempty"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// DomainCount is one row of the customers-per-domain summary.
type DomainCount struct {
	Domain string `bun:"domain"`
	Count  int    `bun:"count"`
}
