package store

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// SampleData is the demo dataset loaded by the seed command.
type SampleData struct {
	Customers       []Customer
	Products        []Product
	Orders          []Order
	BankAccounts    []BankAccount
	Transactions    []Transaction
	TelecomAccounts []TelecomAccount
}

// DefaultSampleData returns the demo dataset with timestamps relative to now.
func DefaultSampleData(now time.Time) SampleData {
	at := func(hoursAgo int) time.Time {
		return now.Add(-time.Duration(hoursAgo) * time.Hour).UTC().Truncate(time.Second)
	}

	return SampleData{
		Customers: []Customer{
			{CustomerID: "CUST001", Name: "John Smith", Email: "john.smith@email.com", Phone: "555-0101", Domain: "ecommerce"},
			{CustomerID: "CUST002", Name: "Jane Johnson", Email: "jane.johnson@email.com", Phone: "555-0102", Domain: "banking"},
			{CustomerID: "CUST003", Name: "Bob Wilson", Email: "bob.wilson@email.com", Phone: "555-0103", Domain: "telecom"},
			{CustomerID: "CUST004", Name: "Alice Brown", Email: "alice.brown@email.com", Phone: "555-0104", Domain: "ecommerce"},
			{CustomerID: "CUST005", Name: "Charlie Davis", Email: "charlie.davis@email.com", Phone: "555-0105", Domain: "banking"},
		},
		Products: []Product{
			{ProductID: "PROD001", Name: "Wireless Headphones", Price: 99.99, StockQuantity: 50, Category: "Electronics"},
			{ProductID: "PROD002", Name: "Laptop Stand", Price: 49.99, StockQuantity: 30, Category: "Accessories"},
			{ProductID: "PROD003", Name: "USB-C Cable", Price: 19.99, StockQuantity: 100, Category: "Cables"},
			{ProductID: "PROD004", Name: "Bluetooth Speaker", Price: 79.99, StockQuantity: 25, Category: "Electronics"},
			{ProductID: "PROD005", Name: "Phone Case", Price: 24.99, StockQuantity: 75, Category: "Accessories"},
		},
		Orders: []Order{
			{OrderID: "ORD001", CustomerID: "CUST001", ProductName: "Wireless Headphones", Status: "shipped", TotalAmount: 99.99, ShippingAddress: "123 Main St, City, State", TrackingNumber: "TRK001", CreatedAt: at(48)},
			{OrderID: "ORD002", CustomerID: "CUST001", ProductName: "USB-C Cable", Status: "delivered", TotalAmount: 19.99, ShippingAddress: "123 Main St, City, State", TrackingNumber: "TRK002", CreatedAt: at(240)},
			{OrderID: "ORD003", CustomerID: "CUST004", ProductName: "Laptop Stand", Status: "processing", TotalAmount: 49.99, ShippingAddress: "456 Oak Ave, City, State", CreatedAt: at(5)},
			{OrderID: "ORD004", CustomerID: "CUST004", ProductName: "Bluetooth Speaker", Status: "shipped", TotalAmount: 79.99, ShippingAddress: "456 Oak Ave, City, State", TrackingNumber: "TRK003", CreatedAt: at(72)},
		},
		BankAccounts: []BankAccount{
			{AccountNumber: "ACC001", CustomerID: "CUST002", AccountType: "checking", Balance: 2500.75, Status: "active", CreatedAt: at(24 * 400)},
			{AccountNumber: "ACC002", CustomerID: "CUST005", AccountType: "savings", Balance: 15000.00, Status: "active", CreatedAt: at(24 * 200)},
			{AccountNumber: "ACC003", CustomerID: "CUST002", AccountType: "savings", Balance: 5750.25, Status: "active", CreatedAt: at(24 * 90)},
		},
		Transactions: []Transaction{
			{TransactionID: "TXN001", AccountNumber: "ACC001", Amount: -45.00, TransactionType: "debit", Description: "Grocery Store Purchase", CreatedAt: at(30)},
			{TransactionID: "TXN002", AccountNumber: "ACC001", Amount: 1200.00, TransactionType: "credit", Description: "Salary Deposit", CreatedAt: at(20)},
			{TransactionID: "TXN003", AccountNumber: "ACC001", Amount: -89.99, TransactionType: "debit", Description: "Online Purchase", CreatedAt: at(10)},
			{TransactionID: "TXN004", AccountNumber: "ACC002", Amount: 500.00, TransactionType: "credit", Description: "Transfer from Checking", CreatedAt: at(12)},
			{TransactionID: "TXN005", AccountNumber: "ACC003", Amount: -25.00, TransactionType: "debit", Description: "ATM Withdrawal", CreatedAt: at(6)},
		},
		TelecomAccounts: []TelecomAccount{
			{PhoneNumber: "555-0103", CustomerID: "CUST003", PlanType: "Unlimited Plan", MonthlyCharge: 89.99, DataUsageGB: 45.2, Status: "active", LastPaymentDate: "2024-01-15"},
			{PhoneNumber: "555-0106", CustomerID: "CUST003", PlanType: "Basic Plan", MonthlyCharge: 39.99, DataUsageGB: 12.1, Status: "active", LastPaymentDate: "2024-01-10"},
		},
	}
}

// Seed inserts the sample data. Rows whose unique key already exists are left untouched.
func Seed(ctx context.Context, db *bun.DB, data SampleData) error {
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		inserts := []struct {
			name  string
			model any
			n     int
		}{
			{"customers", &data.Customers, len(data.Customers)},
			{"products", &data.Products, len(data.Products)},
			{"orders", &data.Orders, len(data.Orders)},
			{"bank_accounts", &data.BankAccounts, len(data.BankAccounts)},
			{"transactions", &data.Transactions, len(data.Transactions)},
			{"telecom_accounts", &data.TelecomAccounts, len(data.TelecomAccounts)},
		}
		for _, in := range inserts {
			if in.n == 0 {
				continue
			}
			if _, err := tx.NewInsert().Model(in.model).On("CONFLICT DO NOTHING").Exec(ctx); err != nil {
				return fmt.Errorf("seed %s: %w", in.name, err)
			}
		}
		return nil
	})
}
