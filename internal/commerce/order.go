// Package commerce holds the order shapes the host commerce platform hands
// to shipping rules.
package commerce

// Address is the host's shipping address.
type Address struct {
    Attention    string `json:"attention"`
    FirstName    string `json:"first_name"`
    LastName     string `json:"last_name"`
    Address1     string `json:"address1"`
    Address2     string `json:"address2"`
    City         string `json:"city"`
    StateName    string `json:"state_name"`
    CountryID    string `json:"country_id"`
    ZipCode      string `json:"zip_code"`
    BusinessName string `json:"business_name"`
}

// LineItem carries the per-item dimensions in inches.
type LineItem struct {
    Width    float64 `json:"width"`
    Length   float64 `json:"length"`
    Height   float64 `json:"height"`
    Quantity int     `json:"quantity"`
}

// Order is the subset of a host order used for rating.
// TotalWeight and TotalHeight are aggregates computed by the host.
type Order struct {
    ShippingAddress *Address   `json:"shipping_address"`
    LineItems       []LineItem `json:"line_items"`
    TotalWeight     float64    `json:"total_weight"`
    TotalHeight     float64    `json:"total_height"`
}

// BusinessName returns the shipping address's company, or "" without one.
func (o Order) BusinessName() string {
    if o.ShippingAddress == nil {
        return ""
    }
    return o.ShippingAddress.BusinessName
}
