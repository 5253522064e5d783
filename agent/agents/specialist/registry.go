package specialist

import (
	"fmt"

	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
	toolx "github.com/tanpawarit/support-dispatch/agent/tool"
)

// ToolCatalog is the part of the tool registry checked at startup.
type ToolCatalog interface {
	Names(domain contractx.Domain) []string
	ValidateToolSet(names []string) error
}

// domainTools are the tools each domain's specialists rely on.
var domainTools = map[contractx.Domain][]string{
	contractx.DomainEcommerce: {
		toolx.ToolGetOrderStatus, toolx.ToolGetCustomerOrders,
		toolx.ToolSearchEcommerceKnowledge, toolx.ToolCheckProductAvailability,
	},
	contractx.DomainBanking: {
		toolx.ToolGetAccountBalance, toolx.ToolGetRecentTransactions,
		toolx.ToolSearchBankingKnowledge, toolx.ToolCheckAccountStatus,
	},
	contractx.DomainTelecom: {
		toolx.ToolGetTelecomAccountInfo, toolx.ToolGetDataUsage,
		toolx.ToolSearchTelecomKnowledge, toolx.ToolCheckNetworkStatus,
	},
}

// commonTools are available to every specialist.
var commonTools = []string{
	toolx.ToolGetCustomerInfo, toolx.ToolSearchGeneralKnowledge, toolx.ToolValidateUserInput,
	toolx.ToolGetBusinessHours, toolx.ToolEscalateToHuman,
}

// Registry pairs the specialist tables with a runner. NewRegistry refuses to build one
// when a domain lacks a default specialist or any of its tools.
type Registry struct {
	runner contractx.SpecialistRunner
}

func NewRegistry(runner contractx.SpecialistRunner, tools ToolCatalog) (*Registry, error) {
	if runner == nil {
		return nil, fmt.Errorf("%w: specialist runner is required", contractx.ErrValidation)
	}
	if err := Validate(tools); err != nil {
		return nil, err
	}
	return &Registry{runner: runner}, nil
}

// Validate checks every supported domain against the specialist tables and the tool catalog.
func Validate(tools ToolCatalog) error {
	if tools == nil {
		return fmt.Errorf("%w: tool catalog is required", contractx.ErrValidation)
	}
	if err := tools.ValidateToolSet(commonTools); err != nil {
		return fmt.Errorf("common tools: %w", err)
	}

	for _, d := range contractx.Domains {
		specs := tables[d]
		defaults := 0
		for _, s := range specs {
			if s.Domain != d {
				return fmt.Errorf("%w: specialist %s listed under %s belongs to %s", contractx.ErrValidation, s.Role, d, s.Domain)
			}
			if s.Default {
				defaults++
			}
		}
		if defaults != 1 {
			return fmt.Errorf("%w: domain %s needs exactly one default specialist, has %d", contractx.ErrValidation, d, defaults)
		}

		required, ok := domainTools[d]
		if !ok || len(required) == 0 {
			return fmt.Errorf("%w: domain %s has no tool set", contractx.ErrValidation, d)
		}
		if err := tools.ValidateToolSet(required); err != nil {
			return fmt.Errorf("domain %s: %w", d, err)
		}
		if len(tools.Names(d)) == 0 {
			return fmt.Errorf("%w: no tools registered for domain %s", contractx.ErrValidation, d)
		}
	}
	return nil
}

func (r *Registry) Select(domain contractx.Domain, query string) contractx.Specialist {
	return Select(domain, query)
}

func (r *Registry) Specialists(domain contractx.Domain) []contractx.Specialist {
	return ForDomain(domain)
}

func (r *Registry) Runner() contractx.SpecialistRunner {
	return r.runner
}
