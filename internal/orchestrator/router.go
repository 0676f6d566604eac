package orchestrator

import (
	"strings"

	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/agent"
)

// Plan is the ordered list of agents to invoke for one task. FanOut marks the
// default multi-agent plan whose results are aggregated by agent name.
type Plan struct {
	Agents []string
	FanOut bool
}

// routingPriority is evaluated top to bottom; the first page substring that
// matches selects single-agent dispatch.
var routingPriority = []struct {
	substr string
	agent  string
}{
	{"inventory", agent.NameInventory},
	{"price", agent.NamePricing}, // also matches "pricing"
	{"customer", agent.NameCustomerService},
	{"loyalty", agent.NameCustomerService},
	{"accounting", agent.NameAudit},
}

// fanOutOrder is the fixed deterministic order of the default plan.
var fanOutOrder = []string{
	agent.NameCustomerService,
	agent.NameInventory,
	agent.NamePricing,
	agent.NameAudit,
}

// Route maps a routing context (the frontend page or category, matched
// case-insensitively) to a dispatch plan. It consults no external state and
// never fails: an unmatched context falls through to the fan-out plan, so
// every valid request produces some plan.
func Route(page string) Plan {
	lowered := strings.ToLower(page)
	for _, route := range routingPriority {
		if strings.Contains(lowered, route.substr) {
			return Plan{Agents: []string{route.agent}}
		}
	}
	return Plan{Agents: append([]string(nil), fanOutOrder...), FanOut: true}
}
