package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
	"golang.org/x/sync/errgroup"
)

// Handler runs one tool. Args arrive in Definition.Params order, already checked for
// required presence. Handlers report every failure through the returned ToolResult.
type Handler func(ctx context.Context, args []string) contractx.ToolResult

type Param struct {
	Name        string
	Description string
	Required    bool
	Default     string
}

type Definition struct {
	Name        string
	Domain      contractx.Domain // empty for tools shared by every domain
	Description string
	Params      []Param
	Handler     Handler
}

func (d Definition) info() *schema.ToolInfo {
	params := make(map[string]*schema.ParameterInfo, len(d.Params))
	for _, p := range d.Params {
		params[p.Name] = &schema.ParameterInfo{
			Type:     schema.String,
			Desc:     p.Description,
			Required: p.Required,
		}
	}
	return &schema.ToolInfo{
		Name:        d.Name,
		Desc:        d.Description,
		ParamsOneOf: schema.NewParamsOneOfByParams(params),
	}
}

// maxParallelCalls bounds how many tool calls of one round run at once.
const maxParallelCalls = 4

// Gateway is a static registry of tools. It is immutable after NewGateway and safe for concurrent use.
type Gateway struct {
	defs  map[string]Definition
	order []string
}

var _ contractx.ToolGateway = (*Gateway)(nil)

func NewGateway(defs ...Definition) (*Gateway, error) {
	g := &Gateway{defs: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: tool name is required", contractx.ErrValidation)
		}
		if d.Handler == nil {
			return nil, fmt.Errorf("%w: tool %s has no handler", contractx.ErrValidation, name)
		}
		if d.Domain != "" && !d.Domain.Valid() {
			return nil, fmt.Errorf("%w: tool %s: %q", contractx.ErrInvalidDomain, name, d.Domain)
		}
		if _, dup := g.defs[name]; dup {
			return nil, fmt.Errorf("%w: duplicate tool %s", contractx.ErrValidation, name)
		}
		d.Name = name
		g.defs[name] = d
		g.order = append(g.order, name)
	}
	return g, nil
}

func MustNewGateway(defs ...Definition) *Gateway {
	g, err := NewGateway(defs...)
	if err != nil {
		panic(err)
	}
	return g
}

// Invoke runs a tool by name. It never panics and never returns a Go error:
// unknown tools, missing arguments and handler panics all become error results.
func (g *Gateway) Invoke(ctx context.Context, name string, args ...string) (result contractx.ToolResult) {
	name = strings.TrimSpace(name)
	def, ok := g.defs[name]
	if !ok {
		return contractx.Fail(name, contractx.ErrorKindUnknownTool, "Tool %q is not available.", name)
	}

	normalized, missing := bindArgs(def.Params, args)
	if len(missing) > 0 {
		return contractx.Fail(name, contractx.ErrorKindInvalidInput, "Missing required argument(s): %s.", strings.Join(missing, ", "))
	}

	defer func() {
		if r := recover(); r != nil {
			log.Ctx(ctx).Error().
				Str("component", "tool").
				Str("tool", name).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("tool handler panicked")
			result = contractx.Fail(name, contractx.ErrorKindBackendUnavailable, "Tool %s failed unexpectedly. Please try again later.", name)
		}
	}()

	result = def.Handler(ctx, normalized)
	result.Tool = name
	if strings.TrimSpace(result.Text) == "" {
		if result.IsError {
			result = contractx.Fail(name, result.Kind, "")
		} else {
			result.Text = "No information available."
		}
	}
	if result.IsError {
		log.Ctx(ctx).Warn().
			Str("component", "tool").
			Str("tool", name).
			Str("kind", string(result.Kind)).
			Str("text", result.Text).
			Msg("tool returned error result")
	}
	return result
}

// Execute runs calls concurrently and returns their results in request order.
func (g *Gateway) Execute(ctx context.Context, calls []contractx.ToolCall) []contractx.ToolResult {
	results := make([]contractx.ToolResult, len(calls))
	if len(calls) == 0 {
		return results
	}

	var eg errgroup.Group
	eg.SetLimit(maxParallelCalls)
	for i, call := range calls {
		i, call := i, call
		eg.Go(func() error {
			results[i] = g.Invoke(ctx, call.Name, call.Args...)
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

// ForDomain returns the tool infos for a domain's tools followed by the common tools.
func (g *Gateway) ForDomain(domain contractx.Domain) []*schema.ToolInfo {
	names := g.Names(domain)
	infos := make([]*schema.ToolInfo, 0, len(names))
	for _, n := range names {
		infos = append(infos, g.defs[n].info())
	}
	return infos
}

// Names lists the tools visible to a domain, domain tools first, each group in registration order.
func (g *Gateway) Names(domain contractx.Domain) []string {
	var own, common []string
	for _, n := range g.order {
		switch g.defs[n].Domain {
		case domain:
			if domain != "" {
				own = append(own, n)
			} else {
				common = append(common, n)
			}
		case "":
			common = append(common, n)
		}
	}
	return append(own, common...)
}

func (g *Gateway) Has(name string) bool {
	_, ok := g.defs[name]
	return ok
}

// ValidateToolSet fails when any name is not registered.
func (g *Gateway) ValidateToolSet(names []string) error {
	var unknown []string
	for _, n := range names {
		if !g.Has(n) {
			unknown = append(unknown, n)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%w: %s", contractx.ErrUnknownTool, strings.Join(unknown, ", "))
	}
	return nil
}

// DecodeArgs turns a model's JSON argument object into the tool's ordered argument list.
// Non-string JSON values are kept in their JSON form.
func (g *Gateway) DecodeArgs(name, raw string) ([]string, error) {
	def, ok := g.defs[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", contractx.ErrUnknownTool, name)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" || len(def.Params) == 0 {
		return nil, nil
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("%w: invalid tool args for tool=%s: %v", contractx.ErrSchemaViolation, name, err)
	}

	args := make([]string, len(def.Params))
	for i, p := range def.Params {
		v, ok := fields[p.Name]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			args[i] = s
			continue
		}
		if string(v) != "null" {
			args[i] = string(v)
		}
	}
	return args, nil
}

func bindArgs(params []Param, args []string) ([]string, []string) {
	out := make([]string, len(params))
	var missing []string
	for i, p := range params {
		if i < len(args) {
			out[i] = strings.TrimSpace(args[i])
		}
		if out[i] == "" {
			out[i] = p.Default
		}
		if p.Required && out[i] == "" {
			missing = append(missing, p.Name)
		}
	}
	return out, missing
}
