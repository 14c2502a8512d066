package rate

import (
    "strings"

    "upsrates/internal/carrier"
    "upsrates/internal/commerce"
)

// MaxGirth is the largest 2*(height+width)+length UPS rates through this API, in inches.
const MaxGirth = 165.0

// Package is the single notional box an order is rated as.
type Package struct {
    Weight float64
    Height float64
    Width  float64
    Length float64
}

// Consolidate collapses an order into one box: the widest and longest
// line item give the footprint and the host's total height stacks the
// items on top of each other.
func Consolidate(o commerce.Order) Package {
    var maxWidth, maxLength float64
    for _, item := range o.LineItems {
        if item.Width > maxWidth {
            maxWidth = item.Width
        }
        if item.Length > maxLength {
            maxLength = item.Length
        }
    }
    return Package{
        Weight: o.TotalWeight,
        Height: o.TotalHeight,
        Width:  maxWidth,
        Length: maxLength,
    }
}

func Girth(p Package) float64 {
    return 2*(p.Height+p.Width) + p.Length
}

func (p Package) valid() bool {
    return p.Weight >= 0 && p.Height >= 0 && p.Width >= 0 && p.Length >= 0
}

// toCarrierAddress maps a host address to the UPS shape. A non-empty
// forceCountry replaces the order's country.
func toCarrierAddress(a commerce.Address, forceCountry string) carrier.Address {
    out := carrier.Address{
        AttentionName:     a.Attention,
        AddressLine1:      a.FirstName + " " + a.LastName,
        AddressLine2:      a.Address1,
        AddressLine3:      a.Address2,
        City:              a.City,
        StateProvinceCode: a.StateName,
        PostalCode:        a.ZipCode,
        CountryCode:       a.CountryID,
    }
    if forceCountry = strings.TrimSpace(forceCountry); forceCountry != "" {
        out.CountryCode = forceCountry
    }
    return out
}

// BuildShipment assembles a rate request. It has no side effects.
func BuildShipment(originPostalCode string, dest carrier.Address, companyName string, pkg Package, svc carrier.ServiceCode) carrier.Shipment {
    return carrier.Shipment{
        ShipFrom: carrier.ShipFrom{
            Address: carrier.Address{PostalCode: originPostalCode},
        },
        ShipTo: carrier.ShipTo{
            CompanyName: companyName,
            Address:     dest,
        },
        Service: carrier.Code{
            Code:        svc.String(),
            Description: svc.Name(),
        },
        Package: []carrier.Package{{
            PackagingType: carrier.Code{Code: carrier.PackagingTypePackage},
            PackageWeight: carrier.PackageWeight{Weight: pkg.Weight},
            Dimensions: carrier.Dimensions{
                UnitOfMeasurement: carrier.Code{Code: carrier.UnitInches},
                Height:            pkg.Height,
                Width:             pkg.Width,
                Length:            pkg.Length,
            },
        }},
    }
}
