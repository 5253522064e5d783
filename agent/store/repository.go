package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
)

// Repository is the structured store the tools read from. Every lookup is a single-row read
// or a short list; a missing row is reported as contract.ErrNotFound.
type Repository interface {
	GetCustomer(ctx context.Context, customerID string) (*Customer, error)
	GetOrder(ctx context.Context, orderID string) (*Order, error)
	ListCustomerOrders(ctx context.Context, customerID string) ([]Order, error)
	GetProduct(ctx context.Context, productID string) (*Product, error)
	GetBankAccount(ctx context.Context, accountNumber string) (*BankAccount, error)
	ListRecentTransactions(ctx context.Context, accountNumber string, limit int) ([]Transaction, error)
	GetTelecomAccount(ctx context.Context, phoneNumber string) (*TelecomAccount, error)
	CountCustomersByDomain(ctx context.Context) ([]DomainCount, error)
	CreateEscalation(ctx context.Context, e *Escalation) error
	MarkEscalationPublished(ctx context.Context, escalationID, messageID string) error
	LogChatSession(ctx context.Context, entry *ChatSessionLog) error
}

type BunRepository struct {
	db bun.IDB
}

var _ Repository = (*BunRepository)(nil)

func NewRepository(db bun.IDB) *BunRepository {
	return &BunRepository{db: db}
}

func (r *BunRepository) GetCustomer(ctx context.Context, customerID string) (*Customer, error) {
	var row Customer
	err := r.db.NewSelect().Model(&row).Where("customer_id = ?", strings.TrimSpace(customerID)).Limit(1).Scan(ctx)
	if err != nil {
		return nil, wrapLookup(err, "customer", customerID)
	}
	return &row, nil
}

func (r *BunRepository) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	var row Order
	err := r.db.NewSelect().Model(&row).Where("order_id = ?", strings.TrimSpace(orderID)).Limit(1).Scan(ctx)
	if err != nil {
		return nil, wrapLookup(err, "order", orderID)
	}
	return &row, nil
}

func (r *BunRepository) ListCustomerOrders(ctx context.Context, customerID string) ([]Order, error) {
	var rows []Order
	err := r.db.NewSelect().
		Model(&rows).
		Where("customer_id = ?", strings.TrimSpace(customerID)).
		Order("created_at DESC", "id DESC").
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("list orders for customer=%s: %w", customerID, err)
	}
	return rows, nil
}

func (r *BunRepository) GetProduct(ctx context.Context, productID string) (*Product, error) {
	var row Product
	err := r.db.NewSelect().Model(&row).Where("product_id = ?", strings.TrimSpace(productID)).Limit(1).Scan(ctx)
	if err != nil {
		return nil, wrapLookup(err, "product", productID)
	}
	return &row, nil
}

func (r *BunRepository) GetBankAccount(ctx context.Context, accountNumber string) (*BankAccount, error) {
	var row BankAccount
	err := r.db.NewSelect().Model(&row).Where("account_number = ?", strings.TrimSpace(accountNumber)).Limit(1).Scan(ctx)
	if err != nil {
		return nil, wrapLookup(err, "bank account", accountNumber)
	}
	return &row, nil
}

func (r *BunRepository) ListRecentTransactions(ctx context.Context, accountNumber string, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 5
	}
	var rows []Transaction
	err := r.db.NewSelect().
		Model(&rows).
		Where("account_number = ?", strings.TrimSpace(accountNumber)).
		Order("created_at DESC", "id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("list transactions for account=%s: %w", accountNumber, err)
	}
	return rows, nil
}

func (r *BunRepository) GetTelecomAccount(ctx context.Context, phoneNumber string) (*TelecomAccount, error) {
	var row TelecomAccount
	err := r.db.NewSelect().Model(&row).Where("phone_number = ?", strings.TrimSpace(phoneNumber)).Limit(1).Scan(ctx)
	if err != nil {
		return nil, wrapLookup(err, "telecom account", phoneNumber)
	}
	return &row, nil
}

func (r *BunRepository) CountCustomersByDomain(ctx context.Context) ([]DomainCount, error) {
	var rows []DomainCount
	err := r.db.NewSelect().
		Model((*Customer)(nil)).
		Column("domain").
		ColumnExpr("COUNT(*) AS count").
		Group("domain").
		Order("domain").
		Scan(ctx, &rows)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("count customers by domain: %w", err)
	}
	return rows, nil
}

func (r *BunRepository) CreateEscalation(ctx context.Context, e *Escalation) error {
	if e == nil || strings.TrimSpace(e.EscalationID) == "" {
		return fmt.Errorf("%w: escalation id is required", contractx.ErrValidation)
	}
	if _, err := r.db.NewInsert().Model(e).Exec(ctx); err != nil {
		return fmt.Errorf("insert escalation=%s: %w", e.EscalationID, err)
	}
	return nil
}

func (r *BunRepository) MarkEscalationPublished(ctx context.Context, escalationID, messageID string) error {
	res, err := r.db.NewUpdate().
		Model((*Escalation)(nil)).
		Set("message_id = ?", messageID).
		Where("escalation_id = ?", escalationID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update escalation=%s: %w", escalationID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: escalation %s", contractx.ErrNotFound, escalationID)
	}
	return nil
}

func (r *BunRepository) LogChatSession(ctx context.Context, entry *ChatSessionLog) error {
	if entry == nil {
		return fmt.Errorf("%w: chat session log is nil", contractx.ErrValidation)
	}
	if _, err := r.db.NewInsert().Model(entry).Exec(ctx); err != nil {
		return fmt.Errorf("insert chat session log for session=%s: %w", entry.SessionID, err)
	}
	return nil
}

func wrapLookup(err error, what, key string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %s", contractx.ErrNotFound, what, key)
	}
	return fmt.Errorf("get %s=%s: %w", what, key, err)
}
