package rate

import (
    "upsrates/internal/carrier"
    "upsrates/internal/config"
)

type serviceToggle struct {
    enabled func(config.ServiceFlags) bool
    code    carrier.ServiceCode
}

// serviceTable order is the order methods are offered to the host.
var serviceTable = []serviceToggle{
    {func(f config.ServiceFlags) bool { return f.Ground }, carrier.ServiceGround},
    {func(f config.ServiceFlags) bool { return f.ThreeDay }, carrier.ServiceThreeDaySelect},
    {func(f config.ServiceFlags) bool { return f.TwoDay }, carrier.ServiceAir2Day},
    {func(f config.ServiceFlags) bool { return f.TwoDayAM }, carrier.ServiceAir2DayAM},
    {func(f config.ServiceFlags) bool { return f.OneDaySaver }, carrier.ServiceAir1DaySaver},
    {func(f config.ServiceFlags) bool { return f.OneDay }, carrier.ServiceAir1Day},
    {func(f config.ServiceFlags) bool { return f.OneDayEarly }, carrier.ServiceAir1DayEarlyAM},
}

// ListEnabledServices returns the service codes whose flag is set, in table order.
func ListEnabledServices(flags config.ServiceFlags) []carrier.ServiceCode {
    out := make([]carrier.ServiceCode, 0, len(serviceTable))
    for _, t := range serviceTable {
        if t.enabled(flags) {
            out = append(out, t.code)
        }
    }
    return out
}

// EnabledMethods wraps every enabled service in a UPS Method backed by e.
func EnabledMethods(flags config.ServiceFlags, e *Engine) []*Method {
    codes := ListEnabledServices(flags)
    methods := make([]*Method, 0, len(codes))
    for _, code := range codes {
        methods = append(methods, NewMethod(code, e))
    }
    return methods
}
