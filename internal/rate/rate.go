package rate

import (
    "context"
    "errors"
    "fmt"
    "log/slog"
    "strings"

    "github.com/shopspring/decimal"

    "upsrates/internal/carrier"
    "upsrates/internal/commerce"
    "upsrates/internal/config"
)

var (
    // ErrConfiguration means credentials or the origin postal code are missing.
    ErrConfiguration = errors.New("ups shipping is not configured")
    // ErrRateUnavailable means UPS returned no usable rate or could not be reached.
    ErrRateUnavailable = errors.New("shipping rate unavailable")
    // ErrValidationUnavailable wraps address validation failures. It is
    // logged and never returned from eligibility.
    ErrValidationUnavailable = errors.New("address validation unavailable")
    // ErrNotMatched is returned when a rule is priced before it matched an order.
    ErrNotMatched = errors.New("shipping rule has not matched an order")
)

// ConsolidatedShipment is what eligibility hands to pricing. It lives for
// one rate check and is never cached.
type ConsolidatedShipment struct {
    Service     carrier.ServiceCode
    Destination carrier.Address
    CompanyName string
    Package     Package
}

// Engine decides whether an order can ship with a UPS service and prices it.
type Engine struct {
    client   carrier.Client
    settings config.Settings
    log      *slog.Logger
}

func NewEngine(client carrier.Client, settings config.Settings, logger *slog.Logger) *Engine {
    if logger == nil {
        logger = slog.Default()
    }
    return &Engine{
        client:   client,
        settings: settings,
        log:      logger.With("module", "rate"),
    }
}

func (e *Engine) credentials() carrier.Credentials {
    return carrier.Credentials{
        AccessKey: e.settings.AccessKey,
        User:      e.settings.User,
        Password:  e.settings.Password,
    }
}

// EvaluateEligibility runs the address and size checks for svc and returns
// the consolidated shipment when the order can ship. Any failure, including
// an unreachable validator, yields false.
func (e *Engine) EvaluateEligibility(ctx context.Context, o commerce.Order, svc carrier.ServiceCode) (ConsolidatedShipment, bool) {
    if o.ShippingAddress == nil {
        return ConsolidatedShipment{}, false
    }

    dest := toCarrierAddress(*o.ShippingAddress, e.settings.ForceCountryCode)
    if err := e.validateAddress(ctx, dest); err != nil {
        e.log.WarnContext(ctx, "order does not match", "service", svc.String(), "reason", err.Error())
        return ConsolidatedShipment{}, false
    }

    pkg := Consolidate(o)
    if !pkg.valid() {
        e.log.WarnContext(ctx, "order does not match", "service", svc.String(), "reason", "negative package measurement")
        return ConsolidatedShipment{}, false
    }
    if g := Girth(pkg); g > MaxGirth {
        e.log.InfoContext(ctx, "order exceeds ups girth", "service", svc.String(), "girth", g)
        return ConsolidatedShipment{}, false
    }

    return ConsolidatedShipment{
        Service:     svc,
        Destination: dest,
        CompanyName: o.BusinessName(),
        Package:     pkg,
    }, true
}

func (e *Engine) validateAddress(ctx context.Context, addr carrier.Address) error {
    candidates, err := e.client.ValidateAddress(ctx, e.credentials(), addr)
    if err != nil {
        return fmt.Errorf("%w: %v", ErrValidationUnavailable, err)
    }
    if len(candidates) == 0 {
        return errors.New("address not recognized by ups")
    }
    return nil
}

// PriceShipment quotes s against the UPS rating endpoint. The whole price
// comes from the first rated shipment's total charges.
func (e *Engine) PriceShipment(ctx context.Context, s ConsolidatedShipment) (decimal.Decimal, error) {
    if missing := e.settings.Missing(); len(missing) > 0 {
        return decimal.Zero, fmt.Errorf("%w: missing %s", ErrConfiguration, strings.Join(missing, ", "))
    }

    shipment := BuildShipment(e.settings.FromPostalCode, s.Destination, s.CompanyName, s.Package, s.Service)
    res, err := e.client.Rate(ctx, e.credentials(), shipment)
    if err != nil {
        e.log.ErrorContext(ctx, "ups rate call failed", "service", s.Service.String(), "error", err.Error())
        return decimal.Zero, fmt.Errorf("%w: %w", ErrRateUnavailable, err)
    }
    if len(res.RatedShipment) == 0 {
        e.log.ErrorContext(ctx, "ups returned no rated shipments", "service", s.Service.String())
        return decimal.Zero, fmt.Errorf("%w: no rated shipment for %s", ErrRateUnavailable, s.Service.Name())
    }

    charges := res.RatedShipment[0].TotalCharges
    e.log.InfoContext(ctx, "ups rate quoted",
        "service", s.Service.String(),
        "amount", charges.MonetaryValue.String(),
        "currency", charges.CurrencyCode,
    )
    return charges.MonetaryValue, nil
}
