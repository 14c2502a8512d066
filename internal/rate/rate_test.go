package rate

import (
    "context"
    "errors"
    "io"
    "log/slog"
    "reflect"
    "testing"

    "github.com/shopspring/decimal"

    "upsrates/internal/carrier"
    "upsrates/internal/commerce"
    "upsrates/internal/config"
)

type fakeClient struct {
    candidates    []carrier.AddressCandidate
    validateErr   error
    rateRes       carrier.RateResponse
    rateErr       error
    validateCalls int
    rateCalls     int
    lastAddress   carrier.Address
    lastShipment  carrier.Shipment
    lastCreds     carrier.Credentials
}

func (f *fakeClient) ValidateAddress(ctx context.Context, creds carrier.Credentials, addr carrier.Address) ([]carrier.AddressCandidate, error) {
    f.validateCalls++
    f.lastAddress = addr
    f.lastCreds = creds
    return f.candidates, f.validateErr
}

func (f *fakeClient) Rate(ctx context.Context, creds carrier.Credentials, s carrier.Shipment) (carrier.RateResponse, error) {
    f.rateCalls++
    f.lastShipment = s
    f.lastCreds = creds
    return f.rateRes, f.rateErr
}

func validClient() *fakeClient {
    return &fakeClient{
        candidates: []carrier.AddressCandidate{{Quality: 1}},
        rateRes: carrier.RateResponse{RatedShipment: []carrier.RatedShipment{
            {TotalCharges: carrier.Charges{CurrencyCode: "USD", MonetaryValue: decimal.RequireFromString("18.42")}},
            {TotalCharges: carrier.Charges{CurrencyCode: "USD", MonetaryValue: decimal.RequireFromString("99.00")}},
        }},
    }
}

func testSettings() config.Settings {
    s := config.DefaultSettings()
    s.AccessKey, s.User, s.Password = "key", "user", "pass"
    s.FromPostalCode = "02110"
    return s
}

func newTestEngine(c carrier.Client, s config.Settings) *Engine {
    return NewEngine(c, s, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testOrder(height float64, items ...commerce.LineItem) commerce.Order {
    return commerce.Order{
        ShippingAddress: &commerce.Address{
            Attention:    "Receiving",
            FirstName:    "Ada",
            LastName:     "Lovelace",
            Address1:     "1 Main St",
            Address2:     "Suite 4",
            City:         "Toronto",
            StateName:    "ON",
            CountryID:    "CA",
            ZipCode:      "M5V 2T6",
            BusinessName: "Analytical Engines",
        },
        LineItems:   items,
        TotalWeight: 7.5,
        TotalHeight: height,
    }
}

func TestListEnabledServices(t *testing.T) {
    if got := ListEnabledServices(config.ServiceFlags{}); len(got) != 0 {
        t.Fatalf("expected no services, got %v", got)
    }

    all := config.ServiceFlags{Ground: true, ThreeDay: true, TwoDay: true, TwoDayAM: true, OneDaySaver: true, OneDay: true, OneDayEarly: true}
    want := []carrier.ServiceCode{
        carrier.ServiceGround,
        carrier.ServiceThreeDaySelect,
        carrier.ServiceAir2Day,
        carrier.ServiceAir2DayAM,
        carrier.ServiceAir1DaySaver,
        carrier.ServiceAir1Day,
        carrier.ServiceAir1DayEarlyAM,
    }
    if got := ListEnabledServices(all); !reflect.DeepEqual(got, want) {
        t.Fatalf("unexpected order: %v", got)
    }

    subset := config.ServiceFlags{OneDayEarly: true, Ground: true, TwoDay: true}
    want = []carrier.ServiceCode{carrier.ServiceGround, carrier.ServiceAir2Day, carrier.ServiceAir1DayEarlyAM}
    first := ListEnabledServices(subset)
    if !reflect.DeepEqual(first, want) {
        t.Fatalf("unexpected subset: %v", first)
    }
    if second := ListEnabledServices(subset); !reflect.DeepEqual(first, second) {
        t.Fatalf("expected deterministic result")
    }
}

func TestEnabledMethods(t *testing.T) {
    e := newTestEngine(validClient(), testSettings())
    methods := EnabledMethods(config.ServiceFlags{Ground: true, OneDay: true}, e)
    if len(methods) != 2 {
        t.Fatalf("expected 2 methods, got %d", len(methods))
    }
    m := methods[1]
    if m.Name() != "UPS Next Day Air" || m.Handle() != "UPS Next Day Air" || m.Type() != "UPS" || !m.IsEnabled() {
        t.Fatalf("unexpected method: %s/%s/%s", m.Name(), m.Handle(), m.Type())
    }
    rules := m.Rules()
    if len(rules) != 1 || rules[0].Handle() != "upsBaseRule" {
        t.Fatalf("expected one upsBaseRule")
    }
}

func TestConsolidate_UsesMaxFootprintNotSum(t *testing.T) {
    o := testOrder(12,
        commerce.LineItem{Width: 4, Length: 20, Quantity: 2},
        commerce.LineItem{Width: 9, Length: 3, Quantity: 1},
        commerce.LineItem{Width: 6, Length: 11, Quantity: 5},
    )
    pkg := Consolidate(o)
    if pkg.Width != 9 || pkg.Length != 20 {
        t.Fatalf("expected max width 9 / length 20, got %+v", pkg)
    }
    if pkg.Height != 12 || pkg.Weight != 7.5 {
        t.Fatalf("expected order aggregates, got %+v", pkg)
    }
    if empty := Consolidate(commerce.Order{}); empty != (Package{}) {
        t.Fatalf("expected zero package, got %+v", empty)
    }
}

func TestGirth(t *testing.T) {
    if g := Girth(Package{Height: 50, Width: 50, Length: 65}); g != 265 {
        t.Fatalf("expected 265, got %v", g)
    }
    if g := Girth(Package{Height: 10, Width: 10, Length: 10}); g != 50 {
        t.Fatalf("expected 50, got %v", g)
    }
}

func TestEvaluateEligibility_NoAddressSkipsNetwork(t *testing.T) {
    c := validClient()
    e := newTestEngine(c, testSettings())
    o := testOrder(1)
    o.ShippingAddress = nil
    if _, ok := e.EvaluateEligibility(context.Background(), o, carrier.ServiceGround); ok {
        t.Fatalf("expected ineligible")
    }
    if c.validateCalls != 0 || c.rateCalls != 0 {
        t.Fatalf("expected no network calls, got %d/%d", c.validateCalls, c.rateCalls)
    }
}

func TestEvaluateEligibility_FailsClosedOnValidation(t *testing.T) {
    empty := validClient()
    empty.candidates = nil
    broken := validClient()
    broken.validateErr = errors.New("connection reset")

    for name, c := range map[string]*fakeClient{"empty": empty, "error": broken} {
        e := newTestEngine(c, testSettings())
        if _, ok := e.EvaluateEligibility(context.Background(), testOrder(10, commerce.LineItem{Width: 10, Length: 10}), carrier.ServiceGround); ok {
            t.Fatalf("%s: expected ineligible", name)
        }
        if c.validateCalls != 1 {
            t.Fatalf("%s: expected one validation call, got %d", name, c.validateCalls)
        }
    }
}

func TestEvaluateEligibility_GirthBoundary(t *testing.T) {
    e := newTestEngine(validClient(), testSettings())
    ctx := context.Background()

    if _, ok := e.EvaluateEligibility(ctx, testOrder(50, commerce.LineItem{Width: 50, Length: 65}), carrier.ServiceGround); ok {
        t.Fatalf("expected girth 265 to be ineligible")
    }

    s, ok := e.EvaluateEligibility(ctx, testOrder(10, commerce.LineItem{Width: 10, Length: 10}), carrier.ServiceGround)
    if !ok {
        t.Fatalf("expected girth 50 to be eligible")
    }
    if s.Package != (Package{Weight: 7.5, Height: 10, Width: 10, Length: 10}) {
        t.Fatalf("unexpected package: %+v", s.Package)
    }
    if s.CompanyName != "Analytical Engines" || s.Service != carrier.ServiceGround {
        t.Fatalf("unexpected shipment: %+v", s)
    }

    // exactly at the limit still ships
    if _, ok := e.EvaluateEligibility(ctx, testOrder(40, commerce.LineItem{Width: 40, Length: 5}), carrier.ServiceGround); !ok {
        t.Fatalf("expected girth 165 to be eligible")
    }
}

func TestEvaluateEligibility_NegativeMeasurement(t *testing.T) {
    e := newTestEngine(validClient(), testSettings())
    o := testOrder(10, commerce.LineItem{Width: 1, Length: 1})
    o.TotalWeight = -1
    if _, ok := e.EvaluateEligibility(context.Background(), o, carrier.ServiceGround); ok {
        t.Fatalf("expected negative weight to be ineligible")
    }
}

func TestEvaluateEligibility_ForcesCountryCode(t *testing.T) {
    c := validClient()
    e := newTestEngine(c, testSettings())
    s, ok := e.EvaluateEligibility(context.Background(), testOrder(1), carrier.ServiceGround)
    if !ok {
        t.Fatalf("expected eligible")
    }
    if c.lastAddress.CountryCode != "US" || s.Destination.CountryCode != "US" {
        t.Fatalf("expected country forced to US, got %q", c.lastAddress.CountryCode)
    }
    if c.lastAddress.AddressLine1 != "Ada Lovelace" || c.lastAddress.AddressLine2 != "1 Main St" || c.lastAddress.AddressLine3 != "Suite 4" {
        t.Fatalf("unexpected address lines: %+v", c.lastAddress)
    }
    if c.lastCreds != (carrier.Credentials{AccessKey: "key", User: "user", Password: "pass"}) {
        t.Fatalf("unexpected credentials: %+v", c.lastCreds)
    }

    settings := testSettings()
    settings.ForceCountryCode = ""
    c = validClient()
    e = newTestEngine(c, settings)
    e.EvaluateEligibility(context.Background(), testOrder(1), carrier.ServiceGround)
    if c.lastAddress.CountryCode != "CA" {
        t.Fatalf("expected order country kept, got %q", c.lastAddress.CountryCode)
    }
}

func TestBuildShipment_Pure(t *testing.T) {
    dest := carrier.Address{AddressLine1: "Ada Lovelace", PostalCode: "10001", CountryCode: "US"}
    pkg := Package{Weight: 3, Height: 4, Width: 5, Length: 6}

    a := BuildShipment("02110", dest, "Acme", pkg, carrier.ServiceAir2Day)
    b := BuildShipment("02110", dest, "Acme", pkg, carrier.ServiceAir2Day)
    if !reflect.DeepEqual(a, b) {
        t.Fatalf("expected identical shipments")
    }

    if a.ShipFrom.Address != (carrier.Address{PostalCode: "02110"}) {
        t.Fatalf("origin should only carry the postal code: %+v", a.ShipFrom.Address)
    }
    if a.ShipTo.CompanyName != "Acme" || a.ShipTo.Address != dest {
        t.Fatalf("unexpected destination: %+v", a.ShipTo)
    }
    if a.Service.Code != "02" || a.Service.Description != "UPS Second Day Air" {
        t.Fatalf("unexpected service: %+v", a.Service)
    }
    if len(a.Package) != 1 {
        t.Fatalf("expected a single package")
    }
    p := a.Package[0]
    if p.PackagingType.Code != carrier.PackagingTypePackage || p.Dimensions.UnitOfMeasurement.Code != carrier.UnitInches {
        t.Fatalf("unexpected packaging/unit: %+v", p)
    }
    if p.PackageWeight.Weight != 3 || p.Dimensions.Height != 4 || p.Dimensions.Width != 5 || p.Dimensions.Length != 6 {
        t.Fatalf("unexpected measurements: %+v", p)
    }
}

func TestPriceShipment_ReturnsFirstRatedShipment(t *testing.T) {
    c := validClient()
    e := newTestEngine(c, testSettings())
    s, ok := e.EvaluateEligibility(context.Background(), testOrder(10, commerce.LineItem{Width: 10, Length: 10}), carrier.ServiceAir1Day)
    if !ok {
        t.Fatalf("expected eligible")
    }
    amount, err := e.PriceShipment(context.Background(), s)
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if !amount.Equal(decimal.RequireFromString("18.42")) {
        t.Fatalf("unexpected amount %s", amount)
    }
    if c.lastShipment.ShipFrom.Address.PostalCode != "02110" || c.lastShipment.Service.Code != "01" {
        t.Fatalf("unexpected shipment sent: %+v", c.lastShipment)
    }
}

func TestPriceShipment_NoRatedShipments(t *testing.T) {
    c := validClient()
    c.rateRes = carrier.RateResponse{}
    e := newTestEngine(c, testSettings())
    _, err := e.PriceShipment(context.Background(), ConsolidatedShipment{Service: carrier.ServiceGround})
    if !errors.Is(err, ErrRateUnavailable) {
        t.Fatalf("expected ErrRateUnavailable, got %v", err)
    }
}

func TestPriceShipment_TransportFailure(t *testing.T) {
    c := validClient()
    c.rateErr = &carrier.StatusError{StatusCode: 503}
    e := newTestEngine(c, testSettings())
    _, err := e.PriceShipment(context.Background(), ConsolidatedShipment{Service: carrier.ServiceGround})
    if !errors.Is(err, ErrRateUnavailable) {
        t.Fatalf("expected ErrRateUnavailable, got %v", err)
    }
    var statusErr *carrier.StatusError
    if !errors.As(err, &statusErr) {
        t.Fatalf("expected cause to be kept, got %v", err)
    }
}

func TestPriceShipment_MissingConfiguration(t *testing.T) {
    c := validClient()
    s := testSettings()
    s.FromPostalCode = ""
    e := newTestEngine(c, s)
    _, err := e.PriceShipment(context.Background(), ConsolidatedShipment{Service: carrier.ServiceGround})
    if !errors.Is(err, ErrConfiguration) {
        t.Fatalf("expected ErrConfiguration, got %v", err)
    }
    if c.rateCalls != 0 {
        t.Fatalf("expected no rate call")
    }
}

func TestRule_MatchThenPrice(t *testing.T) {
    e := newTestEngine(validClient(), testSettings())
    r := NewRule(carrier.ServiceGround, e)

    if _, err := r.BaseRate(context.Background()); !errors.Is(err, ErrNotMatched) {
        t.Fatalf("expected ErrNotMatched, got %v", err)
    }
    if len(r.Options()) != 0 {
        t.Fatalf("expected empty options before match")
    }

    if !r.MatchOrder(context.Background(), testOrder(10, commerce.LineItem{Width: 10, Length: 12})) {
        t.Fatalf("expected match")
    }
    opts := r.Options()
    if opts["company_name"] != "Analytical Engines" || opts["width"] != 10.0 || opts["length"] != 12.0 {
        t.Fatalf("unexpected options: %v", opts)
    }
    amount, err := r.BaseRate(context.Background())
    if err != nil || !amount.Equal(decimal.RequireFromString("18.42")) {
        t.Fatalf("unexpected base rate %s / %v", amount, err)
    }

    zero := []decimal.Decimal{r.PercentageRate(), r.PerItemRate(), r.WeightRate(), r.MinRate(), r.MaxRate()}
    for i, v := range zero {
        if !v.IsZero() {
            t.Fatalf("accessor %d should be zero, got %s", i, v)
        }
    }

    // a later miss clears the previous match
    if r.MatchOrder(context.Background(), commerce.Order{}) {
        t.Fatalf("expected no match without address")
    }
    if _, err := r.BaseRate(context.Background()); !errors.Is(err, ErrNotMatched) {
        t.Fatalf("expected ErrNotMatched after miss, got %v", err)
    }
}
