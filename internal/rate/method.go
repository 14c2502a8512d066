package rate

import (
    "context"

    "github.com/shopspring/decimal"

    "upsrates/internal/carrier"
    "upsrates/internal/commerce"
)

// ShippingMethod is what the host lists as a selectable shipping option.
type ShippingMethod interface {
    Name() string
    Handle() string
    Type() string
    IsEnabled() bool
    Rules() []ShippingRule
}

// ShippingRule is how the host decides whether a method applies to an
// order and what it costs. Zero min/max rates mean no bound.
type ShippingRule interface {
    Handle() string
    Description() string
    IsEnabled() bool
    Options() map[string]any
    PercentageRate() decimal.Decimal
    PerItemRate() decimal.Decimal
    WeightRate() decimal.Decimal
    BaseRate(ctx context.Context) (decimal.Decimal, error)
    MinRate() decimal.Decimal
    MaxRate() decimal.Decimal
    MatchOrder(ctx context.Context, o commerce.Order) bool
}

const (
    MethodType = "UPS"
    RuleHandle = "upsBaseRule"
)

// Method is a UPS shipping method for a single service tier.
type Method struct {
    service carrier.ServiceCode
    engine  *Engine
}

func NewMethod(service carrier.ServiceCode, e *Engine) *Method {
    if service == "" {
        service = carrier.ServiceGround
    }
    return &Method{service: service, engine: e}
}

func (m *Method) Service() carrier.ServiceCode { return m.service }
func (m *Method) Name() string                 { return m.service.Name() }
func (m *Method) Handle() string               { return m.service.Name() }
func (m *Method) Type() string                 { return MethodType }
func (m *Method) IsEnabled() bool              { return true }

// Rules returns a fresh rule so each order starts with no matched state.
func (m *Method) Rules() []ShippingRule {
    return []ShippingRule{NewRule(m.service, m.engine)}
}

// Rule adapts the engine's eligibility/pricing pipeline to the host's
// match-then-price call order. It is not safe for concurrent use.
type Rule struct {
    service carrier.ServiceCode
    engine  *Engine
    matched *ConsolidatedShipment
}

func NewRule(service carrier.ServiceCode, e *Engine) *Rule {
    return &Rule{service: service, engine: e}
}

func (r *Rule) Handle() string                  { return RuleHandle }
func (r *Rule) Description() string             { return "" }
func (r *Rule) IsEnabled() bool                 { return true }
func (r *Rule) PercentageRate() decimal.Decimal { return decimal.Zero }
func (r *Rule) PerItemRate() decimal.Decimal    { return decimal.Zero }
func (r *Rule) WeightRate() decimal.Decimal     { return decimal.Zero }
func (r *Rule) MinRate() decimal.Decimal        { return decimal.Zero }
func (r *Rule) MaxRate() decimal.Decimal        { return decimal.Zero }

// Options exposes the consolidated package from the last successful match.
func (r *Rule) Options() map[string]any {
    if r.matched == nil {
        return map[string]any{}
    }
    return map[string]any{
        "company_name": r.matched.CompanyName,
        "postal_code":  r.matched.Destination.PostalCode,
        "weight":       r.matched.Package.Weight,
        "height":       r.matched.Package.Height,
        "width":        r.matched.Package.Width,
        "length":       r.matched.Package.Length,
    }
}

func (r *Rule) MatchOrder(ctx context.Context, o commerce.Order) bool {
    s, ok := r.engine.EvaluateEligibility(ctx, o, r.service)
    if !ok {
        r.matched = nil
        return false
    }
    r.matched = &s
    return true
}

func (r *Rule) BaseRate(ctx context.Context) (decimal.Decimal, error) {
    if r.matched == nil {
        return decimal.Zero, ErrNotMatched
    }
    return r.engine.PriceShipment(ctx, *r.matched)
}
