// Package carrier models the UPS address validation and rating APIs.
package carrier

// ServiceCode identifies a UPS service tier.
type ServiceCode string

const (
    ServiceGround         ServiceCode = "03"
    ServiceThreeDaySelect ServiceCode = "12"
    ServiceAir2Day        ServiceCode = "02"
    ServiceAir2DayAM      ServiceCode = "59"
    ServiceAir1DaySaver   ServiceCode = "13"
    ServiceAir1Day        ServiceCode = "01"
    ServiceAir1DayEarlyAM ServiceCode = "14"
)

var serviceNames = map[ServiceCode]string{
    ServiceGround:         "UPS Ground",
    ServiceThreeDaySelect: "UPS Three-Day Select",
    ServiceAir2Day:        "UPS Second Day Air",
    ServiceAir2DayAM:      "UPS Second Day Air A.M.",
    ServiceAir1DaySaver:   "UPS Next Day Air Saver",
    ServiceAir1Day:        "UPS Next Day Air",
    ServiceAir1DayEarlyAM: "UPS Next Day Air Early A.M.",
}

// Name returns the carrier's display name for the service.
func (c ServiceCode) Name() string {
    if n, ok := serviceNames[c]; ok {
        return n
    }
    return "Unknown Service"
}

// Known reports whether c is one of the supported service tiers.
func (c ServiceCode) Known() bool {
    _, ok := serviceNames[c]
    return ok
}

func (c ServiceCode) String() string { return string(c) }
