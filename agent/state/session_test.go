package state

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
)

func TestRequiredFields(t *testing.T) {
	t.Parallel()

	want := map[contractx.Domain]string{
		contractx.DomainEcommerce: "name,email,order_id",
		contractx.DomainBanking:   "name,account_number,phone",
		contractx.DomainTelecom:   "name,phone_number,account_id",
	}
	for d, fields := range want {
		if got := strings.Join(RequiredFields(d), ","); got != fields {
			t.Fatalf("RequiredFields(%s) = %s, want %s", d, got, fields)
		}
	}

	infos := Domains()
	if len(infos) != 3 || infos[0].Domain != contractx.DomainEcommerce || infos[0].Name != "E-commerce" {
		t.Fatalf("unexpected domains: %+v", infos)
	}
	infos[0].RequiredFields[0] = "mutated"
	if RequiredFields(contractx.DomainEcommerce)[0] != "name" {
		t.Fatal("Domains leaked the internal table")
	}
}

func TestMissingFields(t *testing.T) {
	t.Parallel()

	got := MissingFields(contractx.DomainBanking, map[string]string{"name": "Jane", "phone": "  "})
	if strings.Join(got, ",") != "account_number,phone" {
		t.Fatalf("MissingFields() = %v", got)
	}
	if got := MissingFields(contractx.DomainBanking, map[string]string{"name": "Jane", "phone": "555-0102", "account_number": "ACC001"}); len(got) != 0 {
		t.Fatalf("MissingFields() = %v, want none", got)
	}
}

func TestNewSession(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 5, 10, 0, 0, 0, time.FixedZone("EST", -5*3600))

	_, err := NewSession("s1", contractx.DomainTelecom, map[string]string{"name": "Bob"}, now)
	if !errors.Is(err, ErrMissingFields) || !strings.Contains(err.Error(), "phone_number, account_id") {
		t.Fatalf("expected missing fields error, got %v", err)
	}
	if _, err := NewSession("s1", "insurance", nil, now); !errors.Is(err, contractx.ErrInvalidDomain) {
		t.Fatalf("expected ErrInvalidDomain, got %v", err)
	}
	if _, err := NewSession(" ", contractx.DomainTelecom, nil, now); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}

	sess, err := NewSession("s1", contractx.DomainTelecom, map[string]string{
		"name": " Bob Wilson ", "phone_number": "555-0103", "account_id": "CUST003", "note": "",
	}, now)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	if sess.CustomerContext["name"] != "Bob Wilson" {
		t.Fatalf("fields not trimmed: %q", sess.CustomerContext["name"])
	}
	if _, ok := sess.CustomerContext["note"]; ok {
		t.Fatal("blank fields must be dropped")
	}
	if sess.CreatedAt.Location() != time.UTC {
		t.Fatal("timestamps must be UTC")
	}
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()

	sess := sampleSession(t, "s1")
	t0 := time.Date(2024, 3, 5, 11, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		role := contractx.RoleUser
		if i%2 == 1 {
			role = contractx.RoleAssistant
		}
		sess.Append(role, string(rune('a'+i)), t0.Add(time.Duration(i)*time.Minute))
	}
	if !sess.UpdatedAt.Equal(t0.Add(5 * time.Minute)) {
		t.Fatalf("UpdatedAt = %v", sess.UpdatedAt)
	}

	hist := sess.History(4)
	if len(hist) != 4 || hist[0].Content != "c" || hist[3].Content != "f" {
		t.Fatalf("History(4) = %+v", hist)
	}
	if len(sess.History(0)) != 6 {
		t.Fatal("History(0) must return every turn")
	}

	sess.Reset(t0.Add(time.Hour))
	if len(sess.Turns) != 0 || sess.Domain != contractx.DomainEcommerce || sess.CustomerContext["order_id"] != "ORD001" {
		t.Fatalf("reset must clear turns only: %+v", sess)
	}

	sess.Append(contractx.RoleUser, "hi", t0)
	if err := sess.SwitchDomain(contractx.DomainBanking, map[string]string{"name": "John"}, t0); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("SwitchDomain() error = %v, want ErrMissingFields", err)
	}
	if sess.Domain != contractx.DomainEcommerce || len(sess.Turns) != 1 {
		t.Fatal("failed switch must leave the session untouched")
	}

	err := sess.SwitchDomain(contractx.DomainBanking, map[string]string{
		"name": "Jane Johnson", "account_number": "ACC001", "phone": "555-0102",
	}, t0)
	if err != nil {
		t.Fatalf("SwitchDomain() error = %v", err)
	}
	if sess.Domain != contractx.DomainBanking || len(sess.Turns) != 0 {
		t.Fatalf("switch must clear turns: %+v", sess)
	}
	if _, ok := sess.CustomerContext["order_id"]; ok {
		t.Fatal("switch must drop the previous customer details")
	}
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.Load(ctx, "nope"); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("Load() error = %v, want ErrStateNotFound", err)
	}

	sess := sampleSession(t, "s1")
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	sess.Append(contractx.RoleUser, "not saved", time.Now())

	loaded, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(loaded.Turns) != 0 {
		t.Fatal("store must keep its own copy")
	}
	loaded.CustomerContext["name"] = "changed"
	again, _ := store.Load(ctx, "s1")
	if again.CustomerContext["name"] != "John Smith" {
		t.Fatal("loaded sessions must be copies")
	}

	if err := store.Save(ctx, &Session{ID: "bad", Domain: "insurance"}); !errors.Is(err, contractx.ErrInvalidDomain) {
		t.Fatalf("Save(invalid) error = %v", err)
	}

	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Load(ctx, "s1"); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("Load after Delete error = %v", err)
	}
}
