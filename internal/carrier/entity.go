package carrier

import "github.com/shopspring/decimal"

const (
    PackagingTypePackage = "02"
    UnitInches           = "IN"
)

// Credentials is the UPS access key, user and password triple. It is
// passed to the API unmodified.
type Credentials struct {
    AccessKey string
    User      string
    Password  string
}

type Address struct {
    AttentionName     string `json:"AttentionName,omitempty"`
    AddressLine1      string `json:"AddressLine1,omitempty"`
    AddressLine2      string `json:"AddressLine2,omitempty"`
    AddressLine3      string `json:"AddressLine3,omitempty"`
    City              string `json:"City,omitempty"`
    StateProvinceCode string `json:"StateProvinceCode,omitempty"`
    PostalCode        string `json:"PostalCode,omitempty"`
    CountryCode       string `json:"CountryCode,omitempty"`
}

type ShipFrom struct {
    Address Address `json:"Address"`
}

type ShipTo struct {
    CompanyName string  `json:"CompanyName"`
    Address     Address `json:"Address"`
}

type Code struct {
    Code        string `json:"Code"`
    Description string `json:"Description,omitempty"`
}

type Dimensions struct {
    UnitOfMeasurement Code    `json:"UnitOfMeasurement"`
    Length            float64 `json:"Length"`
    Width             float64 `json:"Width"`
    Height            float64 `json:"Height"`
}

type PackageWeight struct {
    Weight float64 `json:"Weight"`
}

type Package struct {
    PackagingType Code          `json:"PackagingType"`
    Dimensions    Dimensions    `json:"Dimensions"`
    PackageWeight PackageWeight `json:"PackageWeight"`
}

// Shipment is a rate request body.
type Shipment struct {
    ShipFrom ShipFrom  `json:"ShipFrom"`
    ShipTo   ShipTo    `json:"ShipTo"`
    Service  Code      `json:"Service"`
    Package  []Package `json:"Package"`
}

// AddressCandidate is one match returned by address validation.
type AddressCandidate struct {
    Quality float64 `json:"Quality"`
    Address Address `json:"Address"`
}

type Charges struct {
    CurrencyCode  string          `json:"CurrencyCode"`
    MonetaryValue decimal.Decimal `json:"MonetaryValue"`
}

type RatedShipment struct {
    Service      Code    `json:"Service"`
    TotalCharges Charges `json:"TotalCharges"`
}

type RateResponse struct {
    RatedShipment []RatedShipment `json:"RatedShipment"`
}
