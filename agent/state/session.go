package state

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
)

var (
	ErrStateNotFound   = errors.New("session not found")
	ErrNilSessionState = errors.New("session is nil")
	ErrInvalidSession  = errors.New("session id is empty")
	ErrMissingFields   = errors.New("required customer fields are missing")
)

// DefaultHistoryTurns is how many recent turns are handed to a specialist.
const DefaultHistoryTurns = 10

// DomainInfo describes a domain to callers choosing where to start a session.
type DomainInfo struct {
	Domain         contractx.Domain `json:"domain"`
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	RequiredFields []string         `json:"required_fields"`
}

var domainInfo = map[contractx.Domain]DomainInfo{
	contractx.DomainEcommerce: {
		Domain:         contractx.DomainEcommerce,
		Name:           "E-commerce",
		Description:    "Order tracking, returns, product inquiries",
		RequiredFields: []string{"name", "email", "order_id"},
	},
	contractx.DomainBanking: {
		Domain:         contractx.DomainBanking,
		Name:           "Banking",
		Description:    "Account balance, transactions, card services",
		RequiredFields: []string{"name", "account_number", "phone"},
	},
	contractx.DomainTelecom: {
		Domain:         contractx.DomainTelecom,
		Name:           "Telecom",
		Description:    "Billing, network issues, plan changes",
		RequiredFields: []string{"name", "phone_number", "account_id"},
	},
}

// Domains lists every supported domain in contract order.
func Domains() []DomainInfo {
	out := make([]DomainInfo, 0, len(contractx.Domains))
	for _, d := range contractx.Domains {
		info := domainInfo[d]
		info.RequiredFields = append([]string(nil), info.RequiredFields...)
		out = append(out, info)
	}
	return out
}

// RequiredFields returns the identifying fields a customer must give for domain.
func RequiredFields(domain contractx.Domain) []string {
	return append([]string(nil), domainInfo[domain].RequiredFields...)
}

// MissingFields lists the required fields of domain that are absent or blank in fields.
func MissingFields(domain contractx.Domain, fields map[string]string) []string {
	var missing []string
	for _, f := range domainInfo[domain].RequiredFields {
		if strings.TrimSpace(fields[f]) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// Session is one customer's conversation with a single domain.
type Session struct {
	ID              string               `json:"id"`
	Domain          contractx.Domain     `json:"domain"`
	CustomerContext map[string]string    `json:"customer_context"`
	Turns           []contractx.ChatTurn `json:"turns"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// NewSession starts a session once the customer has supplied every required field for domain.
func NewSession(id string, domain contractx.Domain, fields map[string]string, now time.Time) (*Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrInvalidSession
	}
	cc, err := customerContext(domain, fields)
	if err != nil {
		return nil, err
	}

	now = now.UTC()
	return &Session{
		ID:              id,
		Domain:          domain,
		CustomerContext: cc,
		Turns:           []contractx.ChatTurn{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func customerContext(domain contractx.Domain, fields map[string]string) (map[string]string, error) {
	if !domain.Valid() {
		return nil, fmt.Errorf("%w: %q", contractx.ErrInvalidDomain, domain)
	}
	if missing := MissingFields(domain, fields); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
	}

	cc := make(map[string]string, len(fields))
	for k, v := range fields {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k != "" && v != "" {
			cc[k] = v
		}
	}
	return cc, nil
}

func (s *Session) Validate() error {
	if s == nil {
		return ErrNilSessionState
	}
	if strings.TrimSpace(s.ID) == "" {
		return ErrInvalidSession
	}
	if !s.Domain.Valid() {
		return fmt.Errorf("%w: %q", contractx.ErrInvalidDomain, s.Domain)
	}
	for i, t := range s.Turns {
		if t.Role != contractx.RoleUser && t.Role != contractx.RoleAssistant {
			return fmt.Errorf("turn %d has unknown role %q", i, t.Role)
		}
	}
	return nil
}

// Append records one turn.
func (s *Session) Append(role contractx.Role, content string, now time.Time) {
	now = now.UTC()
	s.Turns = append(s.Turns, contractx.ChatTurn{Role: role, Content: content, At: now})
	s.UpdatedAt = now
}

// History returns up to max of the most recent turns. max <= 0 means all.
func (s *Session) History(max int) []contractx.ChatTurn {
	turns := s.Turns
	if max > 0 && len(turns) > max {
		turns = turns[len(turns)-max:]
	}
	return append([]contractx.ChatTurn(nil), turns...)
}

// Reset clears the conversation but keeps the domain and customer details.
func (s *Session) Reset(now time.Time) {
	s.Turns = []contractx.ChatTurn{}
	s.UpdatedAt = now.UTC()
}

// SwitchDomain moves the session to another domain. The customer must supply that domain's
// required fields again; turns and the previous customer details are dropped.
func (s *Session) SwitchDomain(domain contractx.Domain, fields map[string]string, now time.Time) error {
	cc, err := customerContext(domain, fields)
	if err != nil {
		return err
	}
	s.Domain = domain
	s.CustomerContext = cc
	s.Turns = []contractx.ChatTurn{}
	s.UpdatedAt = now.UTC()
	return nil
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.CustomerContext = maps.Clone(s.CustomerContext)
	out.Turns = append([]contractx.ChatTurn(nil), s.Turns...)
	return &out
}
